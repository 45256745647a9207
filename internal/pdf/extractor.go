package pdf

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
	"github.com/joseph-ayodele/doctext/internal/extract"
)

const (
	pageConfidence = 95
	lineConfidence = 90
	wordConfidence = 85

	lineWidth  = 0.9
	lineHeight = 0.05
	lineLeft   = 0.05
	lineStep   = 0.05

	wordCharWidth = 0.02
	wordHeight    = 0.04
	wordLeft      = 0.05
	wordStep      = 0.15

	// EmptyPageText stands in for a page that yielded no text lines.
	EmptyPageText = "no text content extracted for this page"
)

var disableConfigOnce sync.Once

// Extractor reads PDFs with pdfcpu and lays their text out as blocks.
// PDFs carry no line or word geometry we can use, so boxes are derived from
// line and word indexes.
type Extractor struct {
	logger *slog.Logger
}

var _ extract.BlockExtractor = (*Extractor)(nil)

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	disableConfigOnce.Do(api.DisableConfigDir)
	return &Extractor{logger: logger}
}

// Extract returns PAGE, LINE and WORD blocks for every page of the document.
func (e *Extractor) Extract(ctx context.Context, data []byte) ([]entity.Block, error) {
	pages, err := e.readPages(ctx, data)
	if err != nil {
		return nil, err
	}
	blocks := Layout(pages)
	e.logger.Debug("pdf extracted", "pages", len(pages), "blocks", len(blocks))
	return blocks, nil
}

// Layout turns per-page text lines into blocks with synthesized geometry.
func Layout(pages [][]string) []entity.Block {
	b := extract.NewBuilder()
	for i, lines := range pages {
		page := i + 1
		b.Page(page, pageConfidence)

		lineIndex := 0
		for _, raw := range lines {
			text := strings.TrimSpace(raw)
			if text == "" {
				continue
			}
			layoutLine(b, page, lineIndex, text)
			lineIndex++
		}
		if lineIndex == 0 {
			layoutLine(b, page, 0, EmptyPageText)
		}
	}
	return b.Blocks()
}

func layoutLine(b *extract.Builder, page, lineIndex int, text string) {
	top := math.Mod(float64(lineIndex)*lineStep, 1.0)
	b.Line(page, lineConfidence, text, entity.BoundingBox{
		Width:  lineWidth,
		Height: lineHeight,
		Left:   lineLeft,
		Top:    top,
	})
	for wi, word := range strings.Fields(text) {
		b.Word(page, wordConfidence, word, entity.BoundingBox{
			Width:  float64(utf8.RuneCountInString(word)) * wordCharWidth,
			Height: wordHeight,
			Left:   wordLeft + float64(wi)*wordStep,
			Top:    top,
		})
	}
}

func (e *Extractor) readPages(ctx context.Context, data []byte) (pages [][]string, err error) {
	// pdfcpu panics on some malformed object graphs
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = common.ExtractionError("failed to parse PDF", fmt.Errorf("pdfcpu: %v", r))
		}
	}()

	if len(data) == 0 {
		return nil, common.ExtractionError("failed to parse PDF", io.ErrUnexpectedEOF)
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return nil, common.ExtractionError("failed to parse PDF", err)
	}

	pages = make([][]string, 0, pctx.PageCount)
	for p := 1; p <= pctx.PageCount; p++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := pdfcpu.ExtractPageContent(pctx, p)
		if err != nil {
			return nil, common.ExtractionError(fmt.Sprintf("failed to read content of page %d", p), err)
		}
		var content []byte
		if r != nil {
			if content, err = io.ReadAll(r); err != nil {
				return nil, common.ExtractionError(fmt.Sprintf("failed to read content of page %d", p), err)
			}
		}
		pages = append(pages, pageLines(content))
	}
	return pages, nil
}
