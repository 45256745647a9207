package extract

import (
	"math"
	"strconv"

	"github.com/joseph-ayodele/doctext/constants"
	"github.com/joseph-ayodele/doctext/internal/entity"
)

// Builder appends blocks in output order and hands out IDs from a counter
// that starts at 1 for every extraction run.
type Builder struct {
	blocks []entity.Block
	next   int
}

func NewBuilder() *Builder {
	return &Builder{next: 1}
}

// Page appends a PAGE block covering the unit square.
func (b *Builder) Page(page int, confidence float64) {
	b.add(constants.BlockTypePage, page, confidence, "", entity.UnitBox)
}

// Line appends a LINE block. Its WORDs must be appended right after it.
func (b *Builder) Line(page int, confidence float64, text string, box entity.BoundingBox) {
	b.add(constants.BlockTypeLine, page, confidence, text, box)
}

// Word appends a WORD block belonging to the most recent LINE.
func (b *Builder) Word(page int, confidence float64, text string, box entity.BoundingBox) {
	b.add(constants.BlockTypeWord, page, confidence, text, box)
}

// Blocks returns the accumulated blocks.
func (b *Builder) Blocks() []entity.Block {
	if b.blocks == nil {
		return []entity.Block{}
	}
	return b.blocks
}

func (b *Builder) add(t constants.BlockType, page int, confidence float64, text string, box entity.BoundingBox) {
	b.blocks = append(b.blocks, entity.Block{
		ID:         strconv.Itoa(b.next),
		BlockType:  t,
		Page:       page,
		Confidence: clamp(confidence, 0, 100),
		Text:       text,
		Geometry:   entity.Geometry{BoundingBox: ClampBox(box)},
	})
	b.next++
}

// ClampBox forces every field of box into [0,1].
func ClampBox(box entity.BoundingBox) entity.BoundingBox {
	return entity.BoundingBox{
		Width:  clamp(box.Width, 0, 1),
		Height: clamp(box.Height, 0, 1),
		Left:   clamp(box.Left, 0, 1),
		Top:    clamp(box.Top, 0, 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
