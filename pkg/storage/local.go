package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// LocalStorage implements Storage on the local filesystem. Each bucket is a
// directory under the base path.
type LocalStorage struct {
	basePath string
}

// LocalConfig holds configuration for local storage.
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// NewLocalStorage creates a new LocalStorage instance.
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	if err := os.MkdirAll(cfg.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	absPath, err := filepath.Abs(cfg.BasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	return &LocalStorage{
		basePath: absPath,
	}, nil
}

// fullPath returns the filesystem path for bucket/key. Keys that would escape
// the bucket directory are rejected.
func (s *LocalStorage) fullPath(bucket, key string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("invalid bucket name %q", bucket)
	}

	cleanKey := path.Clean("/" + key)
	if cleanKey == "/" {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	return filepath.Join(s.basePath, bucket, filepath.FromSlash(cleanKey)), nil
}

// Write stores content under bucket/key via a temp file and atomic rename.
func (s *LocalStorage) Write(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	p, err := s.fullPath(bucket, key)
	if err != nil {
		return err
	}

	dir := filepath.Dir(p)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", classifyFSError(err))
	}

	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", classifyFSError(err))
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write content: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, p); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", classifyFSError(err))
	}

	success = true
	return nil
}

// Read opens bucket/key for reading.
func (s *LocalStorage) Read(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	p, err := s.fullPath(bucket, key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s/%s: %w", bucket, key, classifyFSError(err))
	}

	return file, nil
}

// GetURL returns the object's path relative to the storage root.
func (s *LocalStorage) GetURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	p, err := s.fullPath(bucket, key)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("failed to stat %s/%s: %w", bucket, key, classifyFSError(err))
	}

	return "/" + bucket + "/" + strings.TrimPrefix(key, "/"), nil
}

// GetBasePath returns the base path for the storage.
func (s *LocalStorage) GetBasePath() string {
	return s.basePath
}

func classifyFSError(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w", ErrAccessDenied, err)
	default:
		return err
	}
}
