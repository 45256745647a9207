package pdf

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/joseph-ayodele/doctext/constants"
	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
	"github.com/joseph-ayodele/doctext/internal/testutil"
)

func newTestExtractor() *Extractor {
	return NewExtractor(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type wantBlock struct {
	typ  constants.BlockType
	page int
	text string
}

func assertBlocks(t *testing.T, got []entity.Block, want []wantBlock) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d blocks, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		g := got[i]
		if g.BlockType != w.typ || g.Page != w.page || g.Text != w.text {
			t.Errorf("block %d = {%s page=%d %q}, want {%s page=%d %q}", i, g.BlockType, g.Page, g.Text, w.typ, w.page, w.text)
		}
	}
}

func TestExtractTwoLinePDF(t *testing.T) {
	data := testutil.TextPDF([]string{"Hello world", "Foo"})

	blocks, err := newTestExtractor().Extract(context.Background(), data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	assertBlocks(t, blocks, []wantBlock{
		{constants.BlockTypePage, 1, ""},
		{constants.BlockTypeLine, 1, "Hello world"},
		{constants.BlockTypeWord, 1, "Hello"},
		{constants.BlockTypeWord, 1, "world"},
		{constants.BlockTypeLine, 1, "Foo"},
		{constants.BlockTypeWord, 1, "Foo"},
	})
	for i, b := range blocks {
		if want := string(rune('1' + i)); b.ID != want {
			t.Errorf("block %d id = %q, want %q", i, b.ID, want)
		}
	}
}

func TestExtractMultiPageWithEmptyPage(t *testing.T) {
	data := testutil.TextPDF([]string{"one"}, nil, []string{"three a"})

	blocks, err := newTestExtractor().Extract(context.Background(), data)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	assertBlocks(t, blocks, []wantBlock{
		{constants.BlockTypePage, 1, ""},
		{constants.BlockTypeLine, 1, "one"},
		{constants.BlockTypeWord, 1, "one"},
		{constants.BlockTypePage, 2, ""},
		{constants.BlockTypeLine, 2, EmptyPageText},
		{constants.BlockTypeWord, 2, "no"},
		{constants.BlockTypeWord, 2, "text"},
		{constants.BlockTypeWord, 2, "content"},
		{constants.BlockTypeWord, 2, "extracted"},
		{constants.BlockTypeWord, 2, "for"},
		{constants.BlockTypeWord, 2, "this"},
		{constants.BlockTypeWord, 2, "page"},
		{constants.BlockTypePage, 3, ""},
		{constants.BlockTypeLine, 3, "three a"},
		{constants.BlockTypeWord, 3, "three"},
		{constants.BlockTypeWord, 3, "a"},
	})
	if n := entity.PageCount(blocks); n != 3 {
		t.Fatalf("page count = %d", n)
	}
}

func TestExtractRejectsMalformedInput(t *testing.T) {
	inputs := map[string][]byte{
		"empty":     nil,
		"garbage":   []byte("this is not a pdf"),
		"truncated": testutil.TextPDF([]string{"x"})[:40],
	}
	for name, data := range inputs {
		t.Run(name, func(t *testing.T) {
			blocks, err := newTestExtractor().Extract(context.Background(), data)
			if !errors.Is(err, common.ErrExtraction) {
				t.Fatalf("err = %v, want ErrExtraction", err)
			}
			if blocks != nil {
				t.Fatalf("partial blocks returned: %v", blocks)
			}
		})
	}
}

func TestLayoutGeometry(t *testing.T) {
	blocks := Layout([][]string{{"ab cde", "", "x"}})

	page := blocks[0]
	if page.Geometry.BoundingBox != entity.UnitBox || page.Confidence != 95 || page.Text != "" {
		t.Fatalf("page block = %+v", page)
	}

	line := blocks[1]
	wantLine := entity.BoundingBox{Width: 0.9, Height: 0.05, Left: 0.05, Top: 0}
	if line.Geometry.BoundingBox != wantLine || line.Confidence != 90 {
		t.Fatalf("line block = %+v", line)
	}

	second := blocks[2]
	if second.Geometry.BoundingBox.Width != 0.04 || second.Geometry.BoundingBox.Left != 0.05 || second.Confidence != 85 {
		t.Fatalf("first word = %+v", second)
	}
	third := blocks[3]
	if math.Abs(third.Geometry.BoundingBox.Left-0.2) > 1e-9 || math.Abs(third.Geometry.BoundingBox.Width-0.06) > 1e-9 {
		t.Fatalf("second word = %+v", third)
	}

	// blank lines do not consume an index
	next := blocks[4]
	if next.Text != "x" || math.Abs(next.Geometry.BoundingBox.Top-0.05) > 1e-9 {
		t.Fatalf("line after blank = %+v", next)
	}
}

func TestLayoutTopWrapsAndClamps(t *testing.T) {
	lines := make([]string, 21)
	for i := range lines {
		lines[i] = "w"
	}
	lines[20] = "averyveryveryverylongwordthatoverflowsthewidthofthepage and more words to push left past one"

	blocks := Layout([][]string{lines})
	var tops []float64
	for _, b := range blocks {
		box := b.Geometry.BoundingBox
		for _, v := range []float64{box.Width, box.Height, box.Left, box.Top} {
			if v < 0 || v > 1 {
				t.Fatalf("block %s has out of range box %+v", b.ID, box)
			}
		}
		if b.BlockType == constants.BlockTypeLine {
			tops = append(tops, box.Top)
		}
	}
	if math.Abs(tops[19]-0.95) > 1e-9 {
		t.Fatalf("line 19 top = %v", tops[19])
	}
	if tops[20] > 1e-9 {
		t.Fatalf("line 20 top = %v, want wrap to 0", tops[20])
	}
}
