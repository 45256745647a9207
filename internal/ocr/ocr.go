package ocr

import (
	"context"
	"image"
)

// DefaultLanguages is the combined Simplified Chinese and English model.
var DefaultLanguages = []string{"chi_sim", "eng"}

// Word is one recognized token. Box is in image pixels.
type Word struct {
	Text       string
	Box        image.Rectangle
	Confidence float64 // 0..100
}

// Line is one recognized text line with its words in reading order.
type Line struct {
	Text       string
	Box        image.Rectangle
	Confidence float64 // 0..100
	Words      []Word
}

// Engine recognizes text in a single raster image. Implementations acquire
// their recognizer per call and release it before returning.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img []byte, languages []string) ([]Line, error)
}

type Config struct {
	Languages []string
}

func (c Config) languages() []string {
	if len(c.Languages) == 0 {
		return DefaultLanguages
	}
	return c.Languages
}
