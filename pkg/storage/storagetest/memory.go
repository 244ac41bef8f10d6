// Package storagetest provides an in-memory storage.Storage for tests.
package storagetest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/weiawesome/wes-io-live/thumbnail-service/pkg/storage"
)

// Object is a stored blob and its content type.
type Object struct {
	Data        []byte
	ContentType string
}

// Memory is a concurrency-safe in-memory storage.Storage that counts calls.
// ReadErr and WriteErr, when set, are returned by every Read or Write.
type Memory struct {
	mu      sync.Mutex
	objects map[string]Object
	reads   int
	writes  int

	ReadErr  error
	WriteErr error
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

func objectID(bucket, key string) string {
	return bucket + "/" + key
}

// Put seeds an object without counting a write.
func (m *Memory) Put(bucket, key string, data []byte, contentType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[objectID(bucket, key)] = Object{Data: data, ContentType: contentType}
}

// Get returns a stored object.
func (m *Memory) Get(bucket, key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[objectID(bucket, key)]
	return obj, ok
}

// Reads returns the number of Read calls.
func (m *Memory) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Writes returns the number of Write calls.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *Memory) Write(ctx context.Context, bucket, key string, r io.Reader, size int64, contentType string) error {
	m.mu.Lock()
	m.writes++
	writeErr := m.WriteErr
	m.mu.Unlock()

	if writeErr != nil {
		return writeErr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("size mismatch: declared %d, got %d", size, len(data))
	}

	m.Put(bucket, key, data, contentType)
	return nil
}

func (m *Memory) Read(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	m.reads++
	readErr := m.ReadErr
	obj, ok := m.objects[objectID(bucket, key)]
	m.mu.Unlock()

	if readErr != nil {
		return nil, readErr
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", storage.ErrNotFound, bucket, key)
	}
	return io.NopCloser(bytes.NewReader(obj.Data)), nil
}

func (m *Memory) GetURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	if _, ok := m.Get(bucket, key); !ok {
		return "", fmt.Errorf("%w: %s/%s", storage.ErrNotFound, bucket, key)
	}
	return "mem://" + objectID(bucket, key), nil
}

var _ storage.Storage = (*Memory)(nil)
