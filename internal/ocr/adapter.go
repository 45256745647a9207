package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"strings"
	"time"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
	"github.com/joseph-ayodele/doctext/internal/extract"
)

const pageConfidence = 95

// Adapter turns a raster image into one page of blocks using engine geometry.
type Adapter struct {
	engine Engine
	cfg    Config
	logger *slog.Logger
}

var _ extract.BlockExtractor = (*Adapter)(nil)

func NewAdapter(engine Engine, cfg Config, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{engine: engine, cfg: cfg, logger: logger}
}

func (a *Adapter) Extract(ctx context.Context, data []byte) ([]entity.Block, error) {
	start := time.Now()

	dim, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, common.ExtractionError("failed to decode image", err)
	}
	if dim.Width <= 0 || dim.Height <= 0 {
		return nil, common.ExtractionError(fmt.Sprintf("image has no area (%dx%d)", dim.Width, dim.Height), nil)
	}

	lines, err := a.engine.Recognize(ctx, data, a.cfg.languages())
	if err != nil {
		return nil, common.ExtractionError("text recognition failed", err)
	}

	blocks := Layout(lines, dim.Width, dim.Height)
	a.logger.Debug("image recognized",
		"engine", a.engine.Name(),
		"format", format,
		"width", dim.Width,
		"height", dim.Height,
		"lines", len(lines),
		"blocks", len(blocks),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return blocks, nil
}

// Layout converts recognized lines into blocks for page 1, normalizing pixel
// boxes by the image size.
func Layout(lines []Line, width, height int) []entity.Block {
	b := extract.NewBuilder()
	b.Page(1, pageConfidence)
	for _, ln := range lines {
		text := strings.TrimSpace(ln.Text)
		if text == "" {
			continue
		}
		b.Line(1, math.Round(ln.Confidence), text, normalize(ln.Box, width, height))
		for _, w := range ln.Words {
			wt := strings.TrimSpace(w.Text)
			if wt == "" {
				continue
			}
			b.Word(1, math.Round(w.Confidence), wt, normalize(w.Box, width, height))
		}
	}
	return b.Blocks()
}

func normalize(r image.Rectangle, width, height int) entity.BoundingBox {
	w, h := float64(width), float64(height)
	return entity.BoundingBox{
		Width:  float64(r.Dx()) / w,
		Height: float64(r.Dy()) / h,
		Left:   float64(r.Min.X) / w,
		Top:    float64(r.Min.Y) / h,
	}
}
