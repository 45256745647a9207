package pdf

import (
	"reflect"
	"testing"
)

func TestPageLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "td moves to a new line",
			content: "BT /F1 12 Tf 72 720 Td (Hello world) Tj 0 -14 Td (Foo) Tj ET",
			want:    []string{"Hello world", "Foo"},
		},
		{
			name:    "fragments on one baseline join",
			content: "BT 72 720 Td (Hel) Tj (lo) Tj 40 0 Td (there) Tj ET",
			want:    []string{"Hello there"},
		},
		{
			name:    "tj array gaps become spaces",
			content: "BT 72 720 Td [(Hello) -300 (wor) 20 (ld)] TJ ET",
			want:    []string{"Hello world"},
		},
		{
			name:    "t star uses leading",
			content: "BT 14 TL 72 720 Td (one) Tj T* (two) Tj ET",
			want:    []string{"one", "two"},
		},
		{
			name:    "TD sets leading for quote operators",
			content: "BT 72 720 Td 0 -14 TD (one) Tj (two) ' 1 2 (three) \" ET",
			want:    []string{"one", "two", "three"},
		},
		{
			name:    "tm positions absolute lines",
			content: "BT 1 0 0 1 72 700 Tm (top) Tj 1 0 0 1 72 600 Tm (bottom) Tj ET",
			want:    []string{"top", "bottom"},
		},
		{
			name:    "separate text objects on one baseline",
			content: "BT 1 0 0 1 72 700 Tm (left) Tj ET BT 1 0 0 1 300 700 Tm (right) Tj ET",
			want:    []string{"left right"},
		},
		{
			name:    "escapes and nested parens",
			content: `BT 72 720 Td (a \(b\) (c) \101) Tj ET`,
			want:    []string{"a (b) (c) A"},
		},
		{
			name:    "embedded newline splits lines",
			content: `BT 72 720 Td (first\nsecond) Tj ET`,
			want:    []string{"first", "second"},
		},
		{
			name:    "hex string",
			content: "BT 72 720 Td <48656C6C6F> Tj ET",
			want:    []string{"Hello"},
		},
		{
			name:    "utf16 with bom",
			content: "BT 72 720 Td <FEFF00480069> Tj ET",
			want:    []string{"Hi"},
		},
		{
			name:    "inline image is skipped",
			content: "q BI /W 2 /H 2 /CS /G /BPC 8 ID \x00(\xff) Tj\x01 EI Q BT 72 720 Td (after) Tj ET",
			want:    []string{"after"},
		},
		{
			name:    "marked content dictionaries ignored",
			content: "/Span << /ActualText (x) >> BDC BT 72 720 Td (text) Tj ET EMC",
			want:    []string{"text"},
		},
		{
			name:    "whitespace only lines dropped",
			content: "BT 72 720 Td (   ) Tj 0 -14 Td (kept) Tj ET",
			want:    []string{"kept"},
		},
		{
			name:    "no text operators",
			content: "0 0 m 100 100 l S",
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pageLines([]byte(tt.content))
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("pageLines() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeTextWindows1252(t *testing.T) {
	if got := decodeText([]byte{'c', 'a', 'f', 0xE9, 0x80}); got != "café€" {
		t.Fatalf("decodeText = %q", got)
	}
	if got := decodeText([]byte{'a', 0x01, '\t', 'b'}); got != "a b" {
		t.Fatalf("control characters not cleaned: %q", got)
	}
}
