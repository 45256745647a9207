package extract

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/doctext/constants"
	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
)

// Dispatcher routes document bytes to the adapter registered for their format.
type Dispatcher struct {
	adapters map[constants.Format]BlockExtractor
	logger   *slog.Logger
}

func NewDispatcher(pdf, image BlockExtractor, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		adapters: map[constants.Format]BlockExtractor{
			constants.PDF:   pdf,
			constants.IMAGE: image,
		},
		logger: logger,
	}
}

// Dispatch runs the adapter matching mime. Unroutable types fail with
// UnsupportedMediaType.
func (d *Dispatcher) Dispatch(ctx context.Context, data []byte, mime string) ([]entity.Block, error) {
	format := constants.MapMimeToFormat(mime)
	adapter, ok := d.adapters[format]
	if format == "" || !ok || adapter == nil {
		d.logger.Warn("no adapter for content type", "content_type", mime)
		return nil, common.UnsupportedMediaType(mime)
	}

	start := time.Now()
	blocks, err := adapter.Extract(ctx, data)
	if err != nil {
		d.logger.Error("extraction failed", "format", format, "content_type", mime, "error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	d.logger.Debug("extraction ok", "format", format, "content_type", mime, "blocks", len(blocks),
		"duration_ms", time.Since(start).Milliseconds())
	return blocks, nil
}

// SniffAndDispatch sniffs data and dispatches it in one step.
func (d *Dispatcher) SniffAndDispatch(ctx context.Context, data []byte) ([]entity.Block, string, error) {
	mime := Sniff(data)
	blocks, err := d.Dispatch(ctx, data, mime)
	return blocks, mime, err
}
