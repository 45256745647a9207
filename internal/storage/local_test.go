package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
	"github.com/joseph-ayodele/doctext/internal/testutil"
)

func newTestStore(t *testing.T) (*LocalStore, string) {
	t.Helper()
	root := t.TempDir()
	s, err := NewLocalStore(root, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	return s, root
}

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, root := newTestStore(t)
	pdf := testutil.TextPDF([]string{"x"})

	info, err := s.Write(ctx, "docs", "in/a.pdf", pdf)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if info.ContentType != "application/pdf" || info.Size != int64(len(pdf)) {
		t.Fatalf("info = %+v", info)
	}
	if _, err := os.Stat(filepath.Join(root, "docs", "in", "a.pdf")); err != nil {
		t.Fatalf("object not at bucket/key path: %v", err)
	}

	ok, err := s.Exists(ctx, "docs", "in/a.pdf")
	if err != nil || !ok {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	got, err := s.Read(ctx, "docs", "in/a.pdf")
	if err != nil || string(got) != string(pdf) {
		t.Fatalf("Read mismatch: %v", err)
	}

	if _, err := s.Copy(ctx, entity.DocumentLocation{Bucket: "docs", Key: "in/a.pdf"}, entity.DocumentLocation{Bucket: "other", Key: "b.pdf"}); err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if ok, _ := s.Exists(ctx, "other", "b.pdf"); !ok {
		t.Fatal("copy target missing")
	}

	if err := s.Delete(ctx, "docs", "in/a.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := s.Exists(ctx, "docs", "in/a.pdf"); ok {
		t.Fatal("object still exists after delete")
	}
}

func TestLocalStoreMissingObjects(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if ok, err := s.Exists(ctx, "docs", "nope"); ok || err != nil {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	if _, err := s.Read(ctx, "docs", "nope"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("Read err = %v", err)
	}
	if _, err := s.Head(ctx, "docs", "nope"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("Head err = %v", err)
	}
	if err := s.Delete(ctx, "docs", "nope"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("Delete err = %v", err)
	}
	if _, err := s.Copy(ctx, entity.DocumentLocation{Bucket: "docs", Key: "nope"}, entity.DocumentLocation{Bucket: "docs", Key: "x"}); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("Copy err = %v", err)
	}
}

func TestLocalStoreKeyBelowAFile(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	if _, err := s.Write(ctx, "docs", "a.pdf", []byte("%PDF-1.4")); err != nil {
		t.Fatal(err)
	}

	if ok, err := s.Exists(ctx, "docs", "a.pdf/child.pdf"); ok || err != nil {
		t.Fatalf("Exists = %v, %v", ok, err)
	}
	if _, err := s.Read(ctx, "docs", "a.pdf/child.pdf"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("Read err = %v", err)
	}
	if _, err := s.Head(ctx, "docs", "a.pdf/child.pdf"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("Head err = %v", err)
	}
	if err := s.Delete(ctx, "docs", "a.pdf/child.pdf"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("Delete err = %v", err)
	}
}

func TestLocalStoreDirectoryIsNotAnObject(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	if _, err := s.Write(ctx, "docs", "dir/file", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.Exists(ctx, "docs", "dir"); ok {
		t.Fatal("directory reported as an object")
	}
}

func TestLocalStoreRejectsEscapes(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)
	cases := []struct{ bucket, key string }{
		{"..", "x"},
		{"docs", "../../etc/passwd"},
		{"docs", "a/../../b"},
		{"a/b", "x"},
		{"", "x"},
		{"docs", ""},
		{"docs", "/abs"},
	}
	for _, c := range cases {
		if _, err := s.Exists(ctx, c.bucket, c.key); !errors.Is(err, common.ErrBadRequest) {
			t.Errorf("Exists(%q, %q) err = %v, want ErrBadRequest", c.bucket, c.key, err)
		}
	}
}

func TestParseCopySource(t *testing.T) {
	loc, err := ParseCopySource("/docs/in/a.pdf")
	if err != nil || loc.Bucket != "docs" || loc.Key != "in/a.pdf" {
		t.Fatalf("ParseCopySource = %+v, %v", loc, err)
	}
	for _, bad := range []string{"", "docs", "docs/", "/x"} {
		if _, err := ParseCopySource(bad); !errors.Is(err, common.ErrBadRequest) {
			t.Errorf("ParseCopySource(%q) err = %v", bad, err)
		}
	}
}
