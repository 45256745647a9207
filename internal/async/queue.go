package async

import (
	"context"
	"errors"
	"time"
)

// ErrClosed is returned by Submit once shutdown has started.
var ErrClosed = errors.New("async: runner is shutting down")

// Task is one unit of background work, usually a single extraction job.
type Task struct {
	JobID       string
	SubmittedAt time.Time
	Run         func(ctx context.Context)
}

type Queue interface {
	Submit(ctx context.Context, task Task) error
	Shutdown(ctx context.Context) error
}
