package extract

import (
	"context"

	"github.com/joseph-ayodele/doctext/internal/entity"
)

// BlockExtractor turns raw document bytes into ordered blocks.
// Implementations must not return a partial block list alongside an error.
type BlockExtractor interface {
	Extract(ctx context.Context, data []byte) ([]entity.Block, error)
}

// ExtractorFunc adapts a function to BlockExtractor.
type ExtractorFunc func(ctx context.Context, data []byte) ([]entity.Block, error)

func (f ExtractorFunc) Extract(ctx context.Context, data []byte) ([]entity.Block, error) {
	return f(ctx, data)
}
