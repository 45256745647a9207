package async

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Runner starts every submitted task on its own goroutine right away and
// bounds how many run at once with a weighted semaphore, so Submit never
// blocks the caller.
type Runner struct {
	logger  *slog.Logger
	limit   int64
	timeout time.Duration

	sem    *semaphore.Weighted
	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

type Option func(*Runner)

func WithMaxConcurrency(n int64) Option {
	return func(r *Runner) {
		if n > 0 {
			r.limit = n
		}
	}
}

// WithTaskTimeout bounds each task run. Zero leaves tasks unbounded.
func WithTaskTimeout(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func NewRunner(logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		logger: logger,
		limit:  4,
	}
	for _, o := range opts {
		o(r)
	}
	r.sem = semaphore.NewWeighted(r.limit)
	r.base, r.cancel = context.WithCancel(context.Background())
	return r
}

var _ Queue = (*Runner)(nil)

func (r *Runner) Submit(_ context.Context, task Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.Warn("cannot submit: runner is shutting down", "job_id", task.JobID)
		return ErrClosed
	}
	if task.SubmittedAt.IsZero() {
		task.SubmittedAt = time.Now()
	}
	r.wg.Add(1)
	go r.run(task)
	return nil
}

func (r *Runner) run(task Task) {
	defer r.wg.Done()

	if err := r.sem.Acquire(r.base, 1); err != nil {
		r.logger.Warn("task dropped before start", "job_id", task.JobID, "error", err)
		return
	}
	defer r.sem.Release(1)

	ctx := r.base
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("task panicked", "job_id", task.JobID, "panic", p, "stack", string(debug.Stack()))
		}
	}()

	r.logger.Debug("task started", "job_id", task.JobID, "queued_ms", time.Since(task.SubmittedAt).Milliseconds())
	task.Run(ctx)
}

// Wait blocks until every submitted task has returned.
func (r *Runner) Wait() {
	r.wg.Wait()
}

// Shutdown stops accepting tasks and waits for running ones. If ctx ends
// first, in-flight tasks see their context cancelled and ctx.Err is returned.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); r.wg.Wait() }()

	select {
	case <-done:
		r.cancel()
		r.logger.Info("runner drained, shutdown complete")
		return nil
	case <-ctx.Done():
		r.cancel()
		r.logger.Warn("shutdown interrupted by context")
		return ctx.Err()
	}
}
