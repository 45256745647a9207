package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"google.golang.org/api/googleapi"

	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
)

// GCSStore maps buckets and keys onto Cloud Storage buckets and objects.
type GCSStore struct {
	client    *storage.Client
	projectID string
	logger    *slog.Logger
}

var _ Store = (*GCSStore)(nil)

func NewGCSStore(ctx context.Context, projectID string, logger *slog.Logger) (*GCSStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	logger.Info("using cloud storage backend", "project_id", projectID)
	return &GCSStore{client: client, projectID: projectID, logger: logger}, nil
}

func (s *GCSStore) object(bucket, key string) (*storage.ObjectHandle, error) {
	if err := validate(bucket, key); err != nil {
		return nil, err
	}
	return s.client.Bucket(bucket).Object(key), nil
}

func (s *GCSStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.Head(ctx, bucket, key)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *GCSStore) Head(ctx context.Context, bucket, key string) (ObjectInfo, error) {
	obj, err := s.object(bucket, key)
	if err != nil {
		return ObjectInfo{}, err
	}
	attrs, err := obj.Attrs(ctx)
	if err != nil {
		return ObjectInfo{}, classify(err, bucket, key)
	}
	return infoFromAttrs(attrs), nil
}

func (s *GCSStore) Read(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := s.object(bucket, key)
	if err != nil {
		return nil, err
	}
	r, err := obj.NewReader(ctx)
	if err != nil {
		return nil, classify(err, bucket, key)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}

func (s *GCSStore) Write(ctx context.Context, bucket, key string, data []byte) (ObjectInfo, error) {
	obj, err := s.object(bucket, key)
	if err != nil {
		return ObjectInfo{}, err
	}
	w := obj.NewWriter(ctx)
	w.ContentType = mimetype.Detect(data).String()
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return ObjectInfo{}, fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to finalize GCS write: %w", classify(err, bucket, key))
	}
	s.logger.Debug("object written", "bucket", bucket, "key", key, "size", len(data))
	return infoFromAttrs(w.Attrs()), nil
}

func (s *GCSStore) Delete(ctx context.Context, bucket, key string) error {
	obj, err := s.object(bucket, key)
	if err != nil {
		return err
	}
	if err := obj.Delete(ctx); err != nil {
		return classify(err, bucket, key)
	}
	return nil
}

func (s *GCSStore) Copy(ctx context.Context, src, dst entity.DocumentLocation) (ObjectInfo, error) {
	from, err := s.object(src.Bucket, src.Key)
	if err != nil {
		return ObjectInfo{}, err
	}
	to, err := s.object(dst.Bucket, dst.Key)
	if err != nil {
		return ObjectInfo{}, err
	}
	attrs, err := to.CopierFrom(from).Run(ctx)
	if err != nil {
		return ObjectInfo{}, classify(err, src.Bucket, src.Key)
	}
	return infoFromAttrs(attrs), nil
}

func (s *GCSStore) Close() error { return s.client.Close() }

func infoFromAttrs(a *storage.ObjectAttrs) ObjectInfo {
	if a == nil {
		return ObjectInfo{}
	}
	return ObjectInfo{
		Bucket:       a.Bucket,
		Key:          a.Name,
		Size:         a.Size,
		ContentType:  a.ContentType,
		LastModified: a.Updated.UTC(),
	}
}

// classify maps Cloud Storage errors onto the common error kinds.
func classify(err error, bucket, key string) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return notFound(bucket, key)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return notFound(bucket, key)
		case http.StatusBadRequest:
			return common.BadRequestf("gs://%s/%s: %s", bucket, key, gerr.Message)
		}
	}
	return fmt.Errorf("gs://%s/%s: %w", bucket, key, err)
}
