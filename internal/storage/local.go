package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gabriel-vasile/mimetype"

	"github.com/joseph-ayodele/doctext/internal/common"
	"github.com/joseph-ayodele/doctext/internal/entity"
)

// LocalStore keeps objects as files under root/bucket/key.
type LocalStore struct {
	root   string
	logger *slog.Logger
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(root string, logger *slog.Logger) (*LocalStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStore{root: abs, logger: logger}, nil
}

// path maps bucket/key to a file below root, refusing anything that would
// resolve outside it.
func (s *LocalStore) path(bucket, key string) (string, error) {
	if err := validate(bucket, key); err != nil {
		return "", err
	}
	p := filepath.Join(s.root, bucket, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.root, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return "", common.BadRequestf("key %q escapes the storage root", key)
	}
	return p, nil
}

// absent reports whether err means the object is not there. A key that runs
// through an existing file fails with ENOTDIR rather than ENOENT.
func absent(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func (s *LocalStore) Exists(_ context.Context, bucket, key string) (bool, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return false, err
	}
	fi, err := os.Stat(p)
	if absent(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat %s/%s: %w", bucket, key, err)
	}
	return fi.Mode().IsRegular(), nil
}

func (s *LocalStore) Head(_ context.Context, bucket, key string) (ObjectInfo, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return ObjectInfo{}, err
	}
	fi, err := os.Stat(p)
	if absent(err) || (err == nil && !fi.Mode().IsRegular()) {
		return ObjectInfo{}, notFound(bucket, key)
	}
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat %s/%s: %w", bucket, key, err)
	}
	mt, err := mimetype.DetectFile(p)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("detect content type of %s/%s: %w", bucket, key, err)
	}
	return ObjectInfo{
		Bucket:       bucket,
		Key:          key,
		Size:         fi.Size(),
		ContentType:  mt.String(),
		LastModified: fi.ModTime().UTC(),
	}, nil
}

func (s *LocalStore) Read(_ context.Context, bucket, key string) ([]byte, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if absent(err) {
		return nil, notFound(bucket, key)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s/%s: %w", bucket, key, err)
	}
	return data, nil
}

// Write stores data atomically by renaming a temp file into place.
func (s *LocalStore) Write(ctx context.Context, bucket, key string, data []byte) (ObjectInfo, error) {
	p, err := s.path(bucket, key)
	if err != nil {
		return ObjectInfo{}, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return ObjectInfo{}, fmt.Errorf("create parent of %s/%s: %w", bucket, key, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return ObjectInfo{}, fmt.Errorf("write %s/%s: %w", bucket, key, err)
	}
	if err := tmp.Close(); err != nil {
		return ObjectInfo{}, fmt.Errorf("close %s/%s: %w", bucket, key, err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return ObjectInfo{}, fmt.Errorf("commit %s/%s: %w", bucket, key, err)
	}
	s.logger.Debug("object written", "bucket", bucket, "key", key, "size", len(data))
	return s.Head(ctx, bucket, key)
}

func (s *LocalStore) Delete(_ context.Context, bucket, key string) error {
	p, err := s.path(bucket, key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if absent(err) {
			return notFound(bucket, key)
		}
		return fmt.Errorf("delete %s/%s: %w", bucket, key, err)
	}
	s.logger.Debug("object deleted", "bucket", bucket, "key", key)
	return nil
}

func (s *LocalStore) Copy(ctx context.Context, src, dst entity.DocumentLocation) (ObjectInfo, error) {
	data, err := s.Read(ctx, src.Bucket, src.Key)
	if err != nil {
		return ObjectInfo{}, err
	}
	return s.Write(ctx, dst.Bucket, dst.Key, data)
}

func (s *LocalStore) Close() error { return nil }
