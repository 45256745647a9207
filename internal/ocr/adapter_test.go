package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"testing"

	"github.com/joseph-ayodele/doctext/constants"
	"github.com/joseph-ayodele/doctext/internal/common"
)

type fakeEngine struct {
	lines []Line
	err   error
	calls int
	langs []string
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Recognize(_ context.Context, _ []byte, languages []string) ([]Line, error) {
	f.calls++
	f.langs = languages
	return f.lines, f.err
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestAdapterNormalizesEngineGeometry(t *testing.T) {
	eng := &fakeEngine{lines: []Line{
		{
			Text: " Hello world ", Box: image.Rect(20, 40, 180, 60), Confidence: 91.6,
			Words: []Word{
				{Text: "Hello", Box: image.Rect(20, 40, 90, 60), Confidence: 93.2},
				{Text: "world", Box: image.Rect(100, 40, 180, 60), Confidence: 89.5},
			},
		},
		{Text: "   ", Box: image.Rect(0, 0, 10, 10), Confidence: 10},
		{Text: "Foo", Box: image.Rect(20, 80, 60, 100), Confidence: 70.4},
	}}
	a := NewAdapter(eng, Config{}, discard())

	blocks, err := a.Extract(context.Background(), pngBytes(t, 200, 100))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if eng.calls != 1 || len(eng.langs) != 2 || eng.langs[0] != "chi_sim" {
		t.Fatalf("engine called %d times with %v", eng.calls, eng.langs)
	}

	wantTypes := []constants.BlockType{
		constants.BlockTypePage, constants.BlockTypeLine, constants.BlockTypeWord,
		constants.BlockTypeWord, constants.BlockTypeLine,
	}
	if len(blocks) != len(wantTypes) {
		t.Fatalf("got %d blocks: %+v", len(blocks), blocks)
	}
	for i, b := range blocks {
		if b.BlockType != wantTypes[i] || b.Page != 1 {
			t.Fatalf("block %d = %+v", i, b)
		}
	}

	line := blocks[1]
	if line.Text != "Hello world" || line.Confidence != 92 {
		t.Fatalf("line = %+v", line)
	}
	box := line.Geometry.BoundingBox
	if box.Width != 0.8 || box.Height != 0.2 || box.Left != 0.1 || box.Top != 0.4 {
		t.Fatalf("line box = %+v", box)
	}
	if blocks[2].Confidence != 93 || blocks[3].Confidence != 90 || blocks[4].Confidence != 70 {
		t.Fatalf("confidences not rounded: %v %v %v", blocks[2].Confidence, blocks[3].Confidence, blocks[4].Confidence)
	}
	if blocks[4].ID != "5" {
		t.Fatalf("ids not sequential: %s", blocks[4].ID)
	}
}

func TestAdapterNoTextStillEmitsPage(t *testing.T) {
	blocks, err := NewAdapter(&fakeEngine{}, Config{}, discard()).Extract(context.Background(), pngBytes(t, 10, 10))
	if err != nil {
		t.Fatal(err)
	}
	if len(blocks) != 1 || blocks[0].BlockType != constants.BlockTypePage {
		t.Fatalf("blocks = %+v", blocks)
	}
}

func TestAdapterErrors(t *testing.T) {
	tests := []struct {
		name   string
		engine *fakeEngine
		data   []byte
	}{
		{"undecodable image", &fakeEngine{}, []byte("not an image")},
		{"engine failure", &fakeEngine{err: errors.New("tessdata missing")}, pngBytes(t, 4, 4)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blocks, err := NewAdapter(tt.engine, Config{}, discard()).Extract(context.Background(), tt.data)
			if !errors.Is(err, common.ErrExtraction) {
				t.Fatalf("err = %v, want ErrExtraction", err)
			}
			if blocks != nil {
				t.Fatalf("partial blocks: %+v", blocks)
			}
		})
	}
}

func TestLayoutClampsOversizedBoxes(t *testing.T) {
	blocks := Layout([]Line{{Text: "x", Box: image.Rect(-5, 90, 300, 130), Confidence: 120}}, 100, 100)
	b := blocks[1].Geometry.BoundingBox
	if b.Left != 0 || b.Width != 1 || b.Height != 0.4 || b.Top != 0.9 || blocks[1].Confidence != 100 {
		t.Fatalf("line = %+v", blocks[1])
	}
}
