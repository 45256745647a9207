package repository

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/joseph-ayodele/doctext/constants"
	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
)

func openTestArchive(t *testing.T) *JobArchive {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(context.Background(), Config{
		Driver: DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "archive.db"),
	}, logger)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close(logger) })

	a := NewJobArchive(db, logger)
	if err := a.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return a
}

func TestArchiveSaveAndGet(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(1500 * time.Millisecond)
	job := entity.Job{
		ID:               "job-1",
		Status:           constants.JobStatusSucceeded,
		DocumentLocation: entity.DocumentLocation{Bucket: "docs", Key: "in/a.pdf"},
		StartedAt:        start,
		EndedAt:          &end,
		Blocks: []entity.Block{
			{ID: "1", BlockType: constants.BlockTypePage, Page: 1},
			{ID: "2", BlockType: constants.BlockTypeLine, Page: 1, Text: "x"},
		},
	}
	if err := a.Save(ctx, job); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := a.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Bucket != "docs" || got.Key != "in/a.pdf" || got.Status != constants.JobStatusSucceeded || got.Pages != 1 || got.Blocks != 2 {
		t.Fatalf("summary = %+v", got)
	}
	if !got.StartedAt.Equal(start) || got.EndedAt == nil || !got.EndedAt.Equal(end) {
		t.Fatalf("times = %v, %v", got.StartedAt, got.EndedAt)
	}

	// saving again updates in place
	job.Status = constants.JobStatusFailed
	job.ErrorMessage = "boom"
	if err := a.Save(ctx, job); err != nil {
		t.Fatalf("re-Save: %v", err)
	}
	got, _ = a.Get(ctx, "job-1")
	if got.Status != constants.JobStatusFailed || got.ErrorMessage != "boom" {
		t.Fatalf("upsert did not update: %+v", got)
	}

	if _, err := a.Get(ctx, "missing"); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestArchiveListNewestFirst(t *testing.T) {
	ctx := context.Background()
	a := openTestArchive(t)
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := a.Save(ctx, entity.Job{ID: id, Status: constants.JobStatusFailed, StartedAt: base.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatal(err)
		}
	}

	list, err := a.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != "c" || list[1].ID != "b" || list[0].EndedAt != nil {
		t.Fatalf("list = %+v", list)
	}
}

func TestRebind(t *testing.T) {
	pg := &DB{driver: DriverPostgres}
	if got := pg.Rebind("a = ? AND b = ?"); got != "a = $1 AND b = $2" {
		t.Fatalf("postgres rebind = %q", got)
	}
	lite := &DB{driver: DriverSQLite}
	if got := lite.Rebind("a = ?"); got != "a = ?" {
		t.Fatalf("sqlite rebind = %q", got)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), Config{Driver: "mysql"}, slog.New(slog.NewTextHandler(io.Discard, nil))); err == nil {
		t.Fatal("expected error")
	}
}
