package blobservice

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

var ErrBlobNotFound = errors.New("blob not found")

// MemoryStore holds blobs in a map. Used in tests.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

func (s *MemoryStore) Save(ctx context.Context, r io.Reader, contentType string) (string, error) {
	ref, err := newRef(contentType)
	if err != nil {
		return "", err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[ref] = data

	return ref, nil
}

func (s *MemoryStore) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.blobs[ref]
	if !ok {
		return nil, ErrBlobNotFound
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) Delete(ctx context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, ref)

	return nil
}

// Contains reports whether a reference is still live. Test helper.
func (s *MemoryStore) Contains(ref string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobs[ref]
	return ok
}
