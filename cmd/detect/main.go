package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
	"github.com/joseph-ayodele/doctext/internal/extract"
	"github.com/joseph-ayodele/doctext/internal/ocr"
	"github.com/joseph-ayodele/doctext/internal/ocr/tesseract"
	"github.com/joseph-ayodele/doctext/internal/pdf"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type output struct {
	File             string         `json:"File"`
	ContentType      string         `json:"ContentType"`
	DocumentMetadata map[string]int `json:"DocumentMetadata"`
	Blocks           []entity.Block `json:"Blocks"`
}

func main() {
	defaults := common.LoadConfig()
	var (
		engineName = flag.String("engine", defaults.OCR.Engine, "OCR engine for images: gosseract or cli")
		binary     = flag.String("tesseract", defaults.OCR.Binary, "tesseract binary used by the cli engine")
		langs      = flag.String("lang", strings.Join(defaults.OCR.Languages, "+"), "OCR languages joined with +")
		tessdata   = flag.String("tessdata", defaults.OCR.TessdataDir, "tessdata directory")
		timeout    = flag.Duration("timeout", 2*time.Minute, "extraction timeout")
		verbose    = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if flag.NArg() != 1 {
		printError("usage: detect [flags] <file>\n")
		os.Exit(2)
	}
	path := flag.Arg(0)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ocrCfg := common.OCRConfig{
		Engine:      strings.ToLower(*engineName),
		Binary:      *binary,
		Languages:   strings.Split(*langs, "+"),
		TessdataDir: *tessdata,
	}
	engine, err := tesseract.Select(ocrCfg, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		printError("Error: read %s: %v\n", path, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	dispatcher := extract.NewDispatcher(
		pdf.NewExtractor(logger),
		ocr.NewAdapter(engine, ocr.Config{Languages: ocrCfg.Languages}, logger),
		logger,
	)

	start := time.Now()
	blocks, mime, err := dispatcher.SniffAndDispatch(ctx, data)
	if err != nil {
		logger.Error("text extraction failed", "file", path, "content_type", mime, "error", err,
			"duration_ms", time.Since(start).Milliseconds())
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	logger.Info("text extraction OK", "file", path, "content_type", mime, "blocks", len(blocks),
		"duration_ms", time.Since(start).Milliseconds())

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(output{
		File:             path,
		ContentType:      mime,
		DocumentMetadata: map[string]int{"Pages": entity.PageCount(blocks)},
		Blocks:           blocks,
	}); err != nil {
		printError("Error: write output: %v\n", err)
		os.Exit(1)
	}
}
