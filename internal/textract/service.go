package textract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/joseph-ayodele/doctext/constants"
	"github.com/joseph-ayodele/doctext/internal/async"
	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
	"github.com/joseph-ayodele/doctext/internal/jobs"
)

// DocumentSource is the part of the blob store the engine reads from.
type DocumentSource interface {
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Read(ctx context.Context, bucket, key string) ([]byte, error)
}

// Dispatcher sniffs document bytes and routes them to an extraction adapter.
type Dispatcher interface {
	SniffAndDispatch(ctx context.Context, data []byte) ([]entity.Block, string, error)
}

// Archive keeps terminal job summaries beyond the registry's retention.
type Archive interface {
	Save(ctx context.Context, job entity.Job) error
}

// CompletionHook is called once per job after it reaches a terminal state.
type CompletionHook func(jobID string, status constants.JobStatus)

// Service runs asynchronous text detection jobs.
type Service struct {
	registry   *jobs.Registry
	source     DocumentSource
	dispatcher Dispatcher
	queue      async.Queue
	archive    Archive
	onDone     CompletionHook
	logger     *slog.Logger
}

type Option func(*Service)

func WithArchive(a Archive) Option {
	return func(s *Service) { s.archive = a }
}

func WithCompletionHook(h CompletionHook) Option {
	return func(s *Service) { s.onDone = h }
}

func NewService(registry *jobs.Registry, source DocumentSource, dispatcher Dispatcher, queue async.Queue, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		registry:   registry,
		source:     source,
		dispatcher: dispatcher,
		queue:      queue,
		logger:     logger,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// StartDocumentTextDetection checks the document exists, registers a job and
// schedules its extraction. It does not wait for extraction.
func (s *Service) StartDocumentTextDetection(ctx context.Context, loc entity.DocumentLocation) (string, error) {
	v := common.NewValidator().
		Field("Bucket", loc.Bucket, common.Required, common.BucketName, common.MaxLength(255)).
		Field("Name", loc.Key, common.Required, common.ObjectKey, common.MaxLength(1024))
	log := common.LoggerFrom(ctx, s.logger)
	if err := v.Err(); err != nil {
		log.Warn("invalid document location", "bucket", loc.Bucket, "key", loc.Key, "error", err)
		return "", err
	}

	exists, err := s.source.Exists(ctx, loc.Bucket, loc.Key)
	if err != nil {
		log.Error("document existence check failed", "bucket", loc.Bucket, "key", loc.Key, "error", err)
		if errors.Is(err, common.ErrBadRequest) {
			return "", err
		}
		return "", common.WrapError(err, "check document")
	}
	if !exists {
		log.Info("document not found", "bucket", loc.Bucket, "key", loc.Key)
		return "", common.NotFoundf("Document not found: %s", loc)
	}

	job := s.registry.Create(loc)
	task := async.Task{
		JobID:       job.ID,
		SubmittedAt: job.StartedAt,
		Run:         func(ctx context.Context) { s.process(ctx, job) },
	}
	if err := s.queue.Submit(ctx, task); err != nil {
		s.finish(ctx, job.ID, nil, fmt.Errorf("schedule extraction: %w", err))
		return job.ID, nil
	}

	log.Info("text detection started", "job_id", job.ID, "bucket", loc.Bucket, "key", loc.Key)
	return job.ID, nil
}

func (s *Service) process(ctx context.Context, job entity.Job) {
	ctx = common.WithJobID(ctx, job.ID)
	defer func() {
		if p := recover(); p != nil {
			s.finish(ctx, job.ID, nil, fmt.Errorf("extraction panicked: %v", p))
		}
	}()

	data, err := s.source.Read(ctx, job.DocumentLocation.Bucket, job.DocumentLocation.Key)
	if err != nil {
		s.finish(ctx, job.ID, nil, err)
		return
	}
	blocks, mime, err := s.dispatcher.SniffAndDispatch(ctx, data)
	if err != nil {
		s.finish(ctx, job.ID, nil, err)
		return
	}
	common.LoggerFrom(ctx, s.logger).Debug("document extracted", "content_type", mime, "size", len(data), "blocks", len(blocks))
	s.finish(ctx, job.ID, blocks, nil)
}

// finish records the terminal state. It is the only place a job leaves
// IN_PROGRESS.
func (s *Service) finish(ctx context.Context, jobID string, blocks []entity.Block, cause error) {
	var (
		job entity.Job
		err error
	)
	if cause != nil {
		job, err = s.registry.Fail(jobID, cause.Error())
	} else {
		job, err = s.registry.Complete(jobID, blocks)
	}
	if err != nil {
		s.logger.Error("job state transition rejected", "job_id", jobID, "error", err)
		return
	}

	attrs := []any{"job_id", jobID, "status", job.Status, "duration_ms", job.Duration().Milliseconds()}
	if cause != nil {
		s.logger.Warn("text detection failed", append(attrs, "error", cause)...)
	} else {
		s.logger.Info("text detection succeeded", append(attrs, "blocks", len(job.Blocks), "pages", entity.PageCount(job.Blocks))...)
	}

	if s.archive != nil {
		if err := s.archive.Save(context.WithoutCancel(ctx), job); err != nil {
			s.logger.Error("failed to archive job", "job_id", jobID, "error", err)
		}
	}
	if s.onDone != nil {
		s.onDone(jobID, job.Status)
	}
}

// DocumentMetadata describes a successfully analyzed document.
type DocumentMetadata struct {
	Pages int `json:"Pages"`
}

// GetRequest selects a job and, for large results, one page of blocks.
type GetRequest struct {
	JobID      string
	MaxResults int
	NextToken  string
}

// GetResult is the poll response.
type GetResult struct {
	JobStatus        constants.JobStatus `json:"JobStatus"`
	StatusMessage    string              `json:"StatusMessage"`
	Blocks           []entity.Block      `json:"Blocks,omitempty"`
	DocumentMetadata *DocumentMetadata   `json:"DocumentMetadata,omitempty"`
	NextToken        string              `json:"NextToken,omitempty"`
}

// GetDocumentTextDetection reports a job's status and, once it succeeded, its
// blocks. Failed jobs always report the same message; the diagnostic is kept
// for logs, ListJobs and the archive.
func (s *Service) GetDocumentTextDetection(_ context.Context, req GetRequest) (GetResult, error) {
	if err := common.NewValidator().Field("JobId", req.JobID, common.Required, common.MaxLength(64)).Err(); err != nil {
		return GetResult{}, err
	}
	job, err := s.registry.Get(req.JobID)
	if err != nil {
		return GetResult{}, err
	}

	res := GetResult{JobStatus: job.Status}
	switch job.Status {
	case constants.JobStatusSucceeded:
		page, next, err := paginate(job.ID, job.Blocks, req.MaxResults, req.NextToken)
		if err != nil {
			return GetResult{}, err
		}
		res.StatusMessage = constants.StatusMessageSucceeded
		res.Blocks = page
		res.NextToken = next
		res.DocumentMetadata = &DocumentMetadata{Pages: entity.PageCount(job.Blocks)}
	case constants.JobStatusFailed:
		res.StatusMessage = constants.StatusMessageFailed
	default:
		res.StatusMessage = constants.StatusMessageInProgress
	}
	return res, nil
}

// ListJobs returns every tracked job ordered by start time.
func (s *Service) ListJobs(_ context.Context) []entity.Job {
	list := s.registry.List()
	sort.Slice(list, func(i, j int) bool {
		if !list[i].StartedAt.Equal(list[j].StartedAt) {
			return list[i].StartedAt.Before(list[j].StartedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list
}

// RunSweeper removes expired terminal jobs every interval until ctx is done.
func (s *Service) RunSweeper(ctx context.Context, interval, retention time.Duration) {
	s.registry.RunSweeper(ctx, interval, retention)
}
