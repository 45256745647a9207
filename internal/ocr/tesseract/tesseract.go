// Package tesseract runs recognition in-process through libtesseract.
package tesseract

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/joseph-ayodele/doctext/internal/ocr"
)

// Engine implements ocr.Engine on top of gosseract. A client is created for
// every Recognize call and closed before it returns.
type Engine struct {
	tessdataDir   string
	clientFactory func() *gosseract.Client
}

var _ ocr.Engine = (*Engine)(nil)

func NewEngine(tessdataDir string) *Engine {
	return &Engine{tessdataDir: tessdataDir, clientFactory: gosseract.NewClient}
}

func (e *Engine) Name() string { return "gosseract" }

func (e *Engine) Recognize(ctx context.Context, img []byte, languages []string) ([]ocr.Line, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := e.clientFactory()
	defer c.Close()

	if e.tessdataDir != "" {
		if err := c.SetTessdataPrefix(e.tessdataDir); err != nil {
			return nil, fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return nil, fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(img); err != nil {
		return nil, fmt.Errorf("set image: %w", err)
	}

	lineBoxes, err := c.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return nil, fmt.Errorf("recognize lines: %w", err)
	}
	wordBoxes, err := c.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("recognize words: %w", err)
	}
	return group(lineBoxes, wordBoxes), nil
}

// group attaches each word to the line whose box holds the word's center,
// falling back to the line with the largest vertical overlap.
func group(lineBoxes, wordBoxes []gosseract.BoundingBox) []ocr.Line {
	lines := make([]ocr.Line, len(lineBoxes))
	for i, lb := range lineBoxes {
		lines[i] = ocr.Line{
			Text:       strings.TrimSpace(lb.Word),
			Box:        lb.Box,
			Confidence: lb.Confidence,
		}
	}
	if len(lines) == 0 {
		return nil
	}
	for _, wb := range wordBoxes {
		text := strings.TrimSpace(wb.Word)
		if text == "" {
			continue
		}
		i := owner(lines, wb.Box)
		lines[i].Words = append(lines[i].Words, ocr.Word{Text: text, Box: wb.Box, Confidence: wb.Confidence})
	}
	return lines
}

func owner(lines []ocr.Line, box image.Rectangle) int {
	center := image.Pt((box.Min.X+box.Max.X)/2, (box.Min.Y+box.Max.Y)/2)
	best, bestOverlap := 0, -1
	for i, l := range lines {
		if center.In(l.Box) {
			return i
		}
		top := max(l.Box.Min.Y, box.Min.Y)
		bottom := min(l.Box.Max.Y, box.Max.Y)
		if overlap := bottom - top; overlap > bestOverlap {
			best, bestOverlap = i, overlap
		}
	}
	return best
}
