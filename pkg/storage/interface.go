package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	// ErrNotFound is wrapped into errors for missing objects or buckets.
	ErrNotFound = errors.New("storage: object not found")

	// ErrAccessDenied is wrapped into errors the backend rejected for lack of permission.
	ErrAccessDenied = errors.New("storage: access denied")
)

// Storage defines bucket-addressed object operations. A single Storage value
// serves every bucket the process touches and is safe for concurrent use.
type Storage interface {
	// Write stores content from the reader under bucket/key, creating or
	// overwriting the object.
	// The size parameter is the expected content size (-1 if unknown).
	// The contentType parameter specifies the MIME type of the content.
	Write(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error

	// Read retrieves content for bucket/key.
	// The caller is responsible for closing the returned ReadCloser.
	Read(ctx context.Context, bucket, key string) (io.ReadCloser, error)

	// GetURL returns a URL for accessing the content.
	// For local storage, this returns a path relative to the storage root.
	// For S3, this returns a presigned URL valid for the specified duration.
	GetURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}
