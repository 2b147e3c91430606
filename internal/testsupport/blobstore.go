package testsupport

import (
	"bytes"
	"context"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"vodconverter/internal/blobstore"
	"vodconverter/internal/services"
)

// MemoryStore is an in-memory blobstore.Store.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deletes [][]string

	// UploadErr, when set, fails uploads whose key contains UploadErrKey.
	UploadErr    error
	UploadErrKey string
	// DeleteErr fails every DeleteMany call.
	DeleteErr error
	// AfterUpload, when set, runs after each successful upload.
	AfterUpload func(key string)
}

var _ blobstore.Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Put seeds an object.
func (s *MemoryStore) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
}

// Object returns a stored object.
func (s *MemoryStore) Object(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

// Keys returns every key with prefix, sorted.
func (s *MemoryStore) Keys(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for key := range s.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// DeleteCalls returns the batches passed to DeleteMany.
func (s *MemoryStore) DeleteCalls() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]string(nil), s.deletes...)
}

func (s *MemoryStore) Download(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, services.Wrap(services.ErrNotFound, "memstore", "download", key, nil)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) ListByPrefix(_ context.Context, prefix string) ([]string, error) {
	return s.Keys(prefix), nil
}

func (s *MemoryStore) DeleteMany(_ context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, append([]string(nil), keys...))
	if s.DeleteErr != nil {
		return &blobstore.DeleteError{Failed: keys, Reason: s.DeleteErr.Error()}
	}
	for _, key := range keys {
		delete(s.objects, key)
	}
	return nil
}

func (s *MemoryStore) Upload(ctx context.Context, key, localPath string) error {
	if s.UploadErr != nil && strings.Contains(key, s.UploadErrKey) {
		return services.Wrap(services.ErrStore, "memstore", "upload", key, s.UploadErr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return services.Wrap(services.ErrStore, "memstore", "upload", "read "+localPath, err)
	}
	s.Put(key, data)
	if s.AfterUpload != nil {
		s.AfterUpload(key)
	}
	return nil
}
