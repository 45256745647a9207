package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/doctext/constants"
	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
)

const schema = `CREATE TABLE IF NOT EXISTS textract_jobs (
	job_id        TEXT PRIMARY KEY,
	bucket        TEXT NOT NULL,
	object_key    TEXT NOT NULL,
	status        TEXT NOT NULL,
	pages         INTEGER NOT NULL,
	blocks        INTEGER NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	started_at    BIGINT NOT NULL,
	ended_at      BIGINT
)`

type JobArchiveRepository interface {
	Save(ctx context.Context, job entity.Job) error
	Get(ctx context.Context, jobID string) (entity.JobSummary, error)
	List(ctx context.Context, limit int) ([]entity.JobSummary, error)
}

// JobArchive stores terminal job summaries. Blocks are not stored.
type JobArchive struct {
	db  *DB
	log *slog.Logger
}

var _ JobArchiveRepository = (*JobArchive)(nil)

func NewJobArchive(db *DB, log *slog.Logger) *JobArchive {
	return &JobArchive{db: db, log: log}
}

// Migrate creates the archive table if needed.
func (a *JobArchive) Migrate(ctx context.Context) error {
	if _, err := a.db.ExecContext(ctx, schema); err != nil {
		a.log.Error("archive migration failed", "error", err)
		return err
	}
	return nil
}

// Save upserts the summary of job.
func (a *JobArchive) Save(ctx context.Context, job entity.Job) error {
	s := job.Summary()
	var ended sql.NullInt64
	if s.EndedAt != nil {
		ended = sql.NullInt64{Int64: s.EndedAt.UnixMilli(), Valid: true}
	}
	_, err := a.db.ExecContext(ctx, a.db.Rebind(`
		INSERT INTO textract_jobs (job_id, bucket, object_key, status, pages, blocks, error_message, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (job_id) DO UPDATE SET
			status = excluded.status,
			pages = excluded.pages,
			blocks = excluded.blocks,
			error_message = excluded.error_message,
			ended_at = excluded.ended_at`),
		s.ID, s.Bucket, s.Key, string(s.Status), s.Pages, s.Blocks, s.ErrorMessage, s.StartedAt.UnixMilli(), ended,
	)
	if err != nil {
		a.log.Error("archive save failed", "job_id", s.ID, "err", err)
		return err
	}
	a.log.Debug("job archived", "job_id", s.ID, "status", s.Status)
	return nil
}

func (a *JobArchive) Get(ctx context.Context, jobID string) (entity.JobSummary, error) {
	row := a.db.QueryRowContext(ctx, a.db.Rebind(`
		SELECT job_id, bucket, object_key, status, pages, blocks, error_message, started_at, ended_at
		FROM textract_jobs WHERE job_id = ?`), jobID)
	s, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.JobSummary{}, common.NotFoundf("Job not found: %s", jobID)
	}
	return s, err
}

// List returns the most recently started summaries first.
func (a *JobArchive) List(ctx context.Context, limit int) ([]entity.JobSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := a.db.QueryContext(ctx, a.db.Rebind(`
		SELECT job_id, bucket, object_key, status, pages, blocks, error_message, started_at, ended_at
		FROM textract_jobs ORDER BY started_at DESC, job_id LIMIT ?`), limit)
	if err != nil {
		a.log.Error("archive list failed", "err", err)
		return nil, err
	}
	defer rows.Close()

	out := make([]entity.JobSummary, 0)
	for rows.Next() {
		s, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc scanner) (entity.JobSummary, error) {
	var (
		s       entity.JobSummary
		status  string
		started int64
		ended   sql.NullInt64
	)
	if err := sc.Scan(&s.ID, &s.Bucket, &s.Key, &status, &s.Pages, &s.Blocks, &s.ErrorMessage, &started, &ended); err != nil {
		return entity.JobSummary{}, err
	}
	s.Status = constants.JobStatus(status)
	s.StartedAt = time.UnixMilli(started).UTC()
	if ended.Valid {
		t := time.UnixMilli(ended.Int64).UTC()
		s.EndedAt = &t
	}
	return s, nil
}
