package ocr

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t200\t100\t-1\t\n" +
	"2\t1\t1\t0\t0\t0\t20\t40\t160\t60\t-1\t\n" +
	"3\t1\t1\t1\t0\t0\t20\t40\t160\t60\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t20\t40\t160\t20\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t20\t40\t70\t20\t96.5\tHello\n" +
	"5\t1\t1\t1\t1\t2\t100\t40\t80\t20\t89.5\tworld\n" +
	"4\t1\t1\t1\t2\t0\t20\t80\t40\t20\t-1\t\n" +
	"5\t1\t1\t1\t2\t1\t20\t80\t40\t20\t70\tFoo\n" +
	"4\t1\t1\t1\t3\t0\t20\t100\t40\t20\t-1\t\n" +
	"5\t1\t1\t1\t3\t1\t20\t100\t40\t20\t95\t \n"

func TestParseTSV(t *testing.T) {
	lines, err := ParseTSV([]byte(sampleTSV))
	if err != nil {
		t.Fatalf("ParseTSV: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines: %+v", len(lines), lines)
	}
	first := lines[0]
	if first.Text != "Hello world" || first.Confidence != 93 || len(first.Words) != 2 {
		t.Fatalf("line 0 = %+v", first)
	}
	if first.Box.Min.X != 20 || first.Box.Max.X != 180 || first.Box.Max.Y != 60 {
		t.Fatalf("line 0 box = %v", first.Box)
	}
	if lines[1].Text != "Foo" || lines[1].Words[0].Confidence != 70 {
		t.Fatalf("line 1 = %+v", lines[1])
	}
}

func TestParseTSVRejectsGarbage(t *testing.T) {
	if _, err := ParseTSV([]byte("header\nx\t1\t1\t1\t1\t1\t1\t1\t1\t1\t1\tword\n")); err == nil {
		t.Fatal("expected an error for a non-numeric column")
	}
}

type fakeRunner struct {
	out, errb []byte
	err       error
	name      string
	args      []string
	sawInput  bool
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.name, f.args = name, args
	if _, err := os.Stat(args[0]); err == nil {
		f.sawInput = true
	}
	return f.out, f.errb, f.err
}

func TestCLIEngineRecognize(t *testing.T) {
	e := NewCLIEngine(CLIConfig{TessdataDir: "/data", PSM: 6}, discard())
	fr := &fakeRunner{out: []byte(sampleTSV)}
	e.runner = fr

	lines, err := e.Recognize(context.Background(), []byte("img"), []string{"chi_sim", "eng"})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("lines = %+v", lines)
	}
	joined := strings.Join(fr.args, " ")
	for _, want := range []string{"-l chi_sim+eng", "--psm 6", "--tessdata-dir /data", "tsv"} {
		if !strings.Contains(joined, want) {
			t.Errorf("args %q missing %q", joined, want)
		}
	}
	if fr.name != "tesseract" || !fr.sawInput {
		t.Fatalf("runner saw name=%q input=%v", fr.name, fr.sawInput)
	}
	if _, err := os.Stat(fr.args[0]); !os.IsNotExist(err) {
		t.Fatalf("work file %s left behind", fr.args[0])
	}
}

func TestCLIEngineFailure(t *testing.T) {
	e := NewCLIEngine(CLIConfig{}, discard())
	e.runner = &fakeRunner{errb: []byte("Failed loading language 'chi_sim'"), err: errors.New("exit status 1")}

	_, err := e.Recognize(context.Background(), []byte("img"), DefaultLanguages)
	if err == nil || !strings.Contains(err.Error(), "chi_sim") {
		t.Fatalf("err = %v", err)
	}
}

func TestCLIEngineWithTesseract(t *testing.T) {
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed")
	}
	e := NewCLIEngine(CLIConfig{}, discard())
	if _, err := e.Recognize(context.Background(), pngBytes(t, 64, 64), []string{"eng"}); err != nil {
		t.Fatalf("Recognize: %v", err)
	}
}
