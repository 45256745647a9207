package entity

import "github.com/joseph-ayodele/doctext/constants"

// BoundingBox is expressed in fractions of the page, each field in [0,1].
type BoundingBox struct {
	Width  float64 `json:"Width"`
	Height float64 `json:"Height"`
	Left   float64 `json:"Left"`
	Top    float64 `json:"Top"`
}

// UnitBox covers the whole page.
var UnitBox = BoundingBox{Width: 1, Height: 1, Left: 0, Top: 0}

// Geometry wraps the bounding box the way the wire format nests it.
type Geometry struct {
	BoundingBox BoundingBox `json:"BoundingBox"`
}

// Block is one node of the PAGE -> LINE -> WORD output. Parentage is positional:
// a LINE belongs to the closest preceding PAGE and a WORD to the closest
// preceding LINE.
type Block struct {
	ID         string              `json:"Id"`
	BlockType  constants.BlockType `json:"BlockType"`
	Page       int                 `json:"Page"`
	Confidence float64             `json:"Confidence"`
	Text       string              `json:"Text,omitempty"`
	Geometry   Geometry            `json:"Geometry"`
}

// PageCount returns the number of PAGE blocks.
func PageCount(blocks []Block) int {
	n := 0
	for _, b := range blocks {
		if b.BlockType == constants.BlockTypePage {
			n++
		}
	}
	return n
}
