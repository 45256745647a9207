package ocr

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CLIConfig configures the tesseract command line engine.
type CLIConfig struct {
	Binary      string // default "tesseract"
	TessdataDir string
	PSM         int // page segmentation mode, 0 keeps tesseract's default
}

// CLIEngine shells out to the tesseract binary and reads its TSV output.
// Each call works in its own temporary directory, removed before returning.
type CLIEngine struct {
	cfg    CLIConfig
	runner Runner
	logger *slog.Logger
}

var _ Engine = (*CLIEngine)(nil)

func NewCLIEngine(cfg CLIConfig, logger *slog.Logger) *CLIEngine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	return &CLIEngine{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
}

func (e *CLIEngine) Name() string { return "tesseract-cli" }

func (e *CLIEngine) Recognize(ctx context.Context, img []byte, languages []string) ([]Line, error) {
	tmpDir, err := os.MkdirTemp("", "doctext-ocr-*")
	if err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("failed to remove ocr work dir", "dir", tmpDir, "error", err)
		}
	}()

	in := filepath.Join(tmpDir, "input")
	if err := os.WriteFile(in, img, 0o600); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}

	// tesseract <file> stdout -l <langs> [--psm n] [--tessdata-dir d] tsv
	args := []string{in, "stdout", "-l", strings.Join(languages, "+")}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	args = append(args, "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Binary, args...)
	if err != nil {
		return nil, fmt.Errorf("tesseract: %w: %s", err, truncate(strings.TrimSpace(string(errb)), 512))
	}
	return ParseTSV(out)
}

// TSV row levels
const (
	levelLine = 4
	levelWord = 5
)

type lineKey struct{ page, block, par, line int }

// ParseTSV groups tesseract TSV word rows into lines. Line confidence is the
// mean of its word confidences since tesseract reports -1 for line rows.
func ParseTSV(out []byte) ([]Line, error) {
	var (
		lines []Line
		index = make(map[lineKey]int)
	)

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64<<10), 4<<20)
	for row := 0; sc.Scan(); row++ {
		ln := sc.Text()
		if row == 0 || ln == "" {
			continue // header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 11 {
			continue
		}
		nums := make([]int, 10)
		for i := 0; i < 10; i++ {
			v, err := strconv.Atoi(cols[i])
			if err != nil {
				return nil, fmt.Errorf("tsv row %d column %d: %w", row, i+1, err)
			}
			nums[i] = v
		}
		level := nums[0]
		key := lineKey{nums[1], nums[2], nums[3], nums[4]}
		box := image.Rect(nums[6], nums[7], nums[6]+nums[8], nums[7]+nums[9])

		switch level {
		case levelLine:
			index[key] = len(lines)
			lines = append(lines, Line{Box: box})
		case levelWord:
			text := ""
			if len(cols) > 11 {
				text = strings.TrimSpace(cols[11])
			}
			conf, err := strconv.ParseFloat(strings.TrimSpace(cols[10]), 64)
			if err != nil {
				return nil, fmt.Errorf("tsv row %d confidence: %w", row, err)
			}
			if text == "" || conf < 0 {
				continue
			}
			li, ok := index[key]
			if !ok {
				li = len(lines)
				index[key] = li
				lines = append(lines, Line{Box: box})
			}
			lines[li].Words = append(lines[li].Words, Word{Text: text, Box: box, Confidence: conf})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read tsv: %w", err)
	}

	kept := lines[:0]
	for _, l := range lines {
		if len(l.Words) == 0 {
			continue
		}
		texts := make([]string, len(l.Words))
		var sum float64
		for i, w := range l.Words {
			texts[i] = w.Text
			sum += w.Confidence
		}
		l.Text = strings.Join(texts, " ")
		l.Confidence = sum / float64(len(l.Words))
		kept = append(kept, l)
	}
	return kept, nil
}
