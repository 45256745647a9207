package jobs

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joseph-ayodele/doctext/constants"
	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
)

// Registry owns every job record. It is the only place records are created,
// transitioned or removed.
type Registry struct {
	mu     sync.RWMutex
	jobs   map[string]*entity.Job
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

type Option func(*Registry)

// WithClock overrides time.Now, mainly for sweep tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithIDGenerator overrides the random job ID source.
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) {
		if gen != nil {
			r.newID = gen
		}
	}
}

func NewRegistry(logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		jobs:   make(map[string]*entity.Job),
		now:    time.Now,
		newID:  uuid.NewString,
		logger: logger,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Create inserts a new IN_PROGRESS job and returns a copy of it.
func (r *Registry) Create(loc entity.DocumentLocation) entity.Job {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.newID()
	for _, taken := r.jobs[id]; taken; _, taken = r.jobs[id] {
		id = r.newID()
	}
	job := &entity.Job{
		ID:               id,
		Status:           constants.JobStatusInProgress,
		DocumentLocation: loc,
		StartedAt:        r.now(),
	}
	r.jobs[id] = job
	r.logger.Debug("job created", "job_id", id, "bucket", loc.Bucket, "key", loc.Key)
	return snapshot(job)
}

// Get returns a copy of the job with the given ID.
func (r *Registry) Get(id string) (entity.Job, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return entity.Job{}, common.NotFoundf("Job not found: %s", id)
	}
	return snapshot(job), nil
}

// Complete moves an IN_PROGRESS job to SUCCEEDED with its blocks.
func (r *Registry) Complete(id string, blocks []entity.Block) (entity.Job, error) {
	return r.finish(id, func(j *entity.Job) {
		if blocks == nil {
			blocks = []entity.Block{}
		}
		j.Status = constants.JobStatusSucceeded
		j.Blocks = blocks
	})
}

// Fail moves an IN_PROGRESS job to FAILED with a diagnostic message.
func (r *Registry) Fail(id, message string) (entity.Job, error) {
	if message == "" {
		message = "Unknown error"
	}
	return r.finish(id, func(j *entity.Job) {
		j.Status = constants.JobStatusFailed
		j.ErrorMessage = message
	})
}

func (r *Registry) finish(id string, apply func(*entity.Job)) (entity.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return entity.Job{}, common.InvalidStatef("job %s does not exist", id)
	}
	if job.Status.IsTerminal() {
		return entity.Job{}, common.InvalidStatef("job %s is already %s", id, job.Status)
	}
	apply(job)
	ended := r.now()
	job.EndedAt = &ended
	return snapshot(job), nil
}

// List returns a snapshot of every job, in no particular order.
func (r *Registry) List() []entity.Job {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]entity.Job, 0, len(r.jobs))
	for _, j := range r.jobs {
		out = append(out, snapshot(j))
	}
	return out
}

// Len returns the number of tracked jobs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.jobs)
}

// Sweep removes terminal jobs that ended more than maxAge ago. Jobs still in
// progress are kept whatever their age.
func (r *Registry) Sweep(maxAge time.Duration) int {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, j := range r.jobs {
		if !j.Status.IsTerminal() || j.EndedAt == nil {
			continue
		}
		if now.Sub(*j.EndedAt) > maxAge {
			delete(r.jobs, id)
			removed++
			r.logger.Info("expired job removed", "job_id", id, "status", j.Status, "ended_at", j.EndedAt.UTC())
		}
	}
	return removed
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	r.logger.Info("job sweeper started", "interval", interval.String(), "retention", maxAge.String())
	for {
		select {
		case <-ctx.Done():
			r.logger.Info("job sweeper stopped")
			return
		case <-ticker.C:
			if n := r.Sweep(maxAge); n > 0 {
				r.logger.Info("job sweep finished", "removed", n, "remaining", r.Len())
			}
		}
	}
}

// snapshot copies j so callers share neither its blocks nor its end time.
func snapshot(j *entity.Job) entity.Job {
	out := *j
	out.Blocks = slices.Clone(j.Blocks)
	if j.EndedAt != nil {
		ended := *j.EndedAt
		out.EndedAt = &ended
	}
	return out
}
