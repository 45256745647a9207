package constants

// BlockType identifies a node in the PAGE -> LINE -> WORD hierarchy.
type BlockType string

const (
	BlockTypePage BlockType = "PAGE"
	BlockTypeLine BlockType = "LINE"
	BlockTypeWord BlockType = "WORD"
)
