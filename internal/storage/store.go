// Package storage provides the bucket/key blob store documents are read from.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
)

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Bucket       string    `json:"Bucket"`
	Key          string    `json:"Key"`
	Size         int64     `json:"ContentLength"`
	ContentType  string    `json:"ContentType"`
	LastModified time.Time `json:"LastModified"`
}

// Store is a bucket/key addressed object store. Missing objects are reported
// with common.ErrNotFound.
type Store interface {
	Exists(ctx context.Context, bucket, key string) (bool, error)
	Head(ctx context.Context, bucket, key string) (ObjectInfo, error)
	Read(ctx context.Context, bucket, key string) ([]byte, error)
	Write(ctx context.Context, bucket, key string, data []byte) (ObjectInfo, error)
	Delete(ctx context.Context, bucket, key string) error
	Copy(ctx context.Context, src, dst entity.DocumentLocation) (ObjectInfo, error)
	Close() error
}

// New builds the backend named in cfg.
func New(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Backend {
	case "local", "":
		return NewLocalStore(cfg.LocalPath, logger)
	case "gcs":
		return NewGCSStore(ctx, cfg.GCSProjectID, logger)
	default:
		return nil, common.NewAppError(common.CodeConfig, fmt.Sprintf("unknown storage backend %q", cfg.Backend), common.ErrBadRequest)
	}
}

// ParseCopySource splits "bucket/key" (an optional leading slash is allowed).
func ParseCopySource(src string) (entity.DocumentLocation, error) {
	bucket, key, ok := strings.Cut(strings.TrimPrefix(src, "/"), "/")
	if !ok || bucket == "" || key == "" {
		return entity.DocumentLocation{}, common.BadRequestf("CopySource must look like bucket/key, got %q", src)
	}
	return entity.DocumentLocation{Bucket: bucket, Key: key}, nil
}

func validate(bucket, key string) error {
	return common.NewValidator().
		Field("Bucket", bucket, common.Required, common.BucketName).
		Field("Key", key, common.Required, common.ObjectKey).
		Err()
}

func notFound(bucket, key string) error {
	return common.NotFoundf("File not found: %q", bucket+"/"+key)
}
