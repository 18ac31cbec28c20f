package mediastore

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/legacy-registry/profile-api/internal/ports/out/mediastore"
)

// Store keeps media objects in memory. Intended for local development and tests.
type Store struct {
	mu      sync.RWMutex
	baseURL string
	objects map[string][]byte
	types   map[string]string
}

func NewStore(baseURL string) *Store {
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (s *Store) Put(ctx context.Context, obj mediastore.Object, r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[obj.Key] = b
	s.types[obj.Key] = obj.ContentType
	return nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.objects[key]
	if !ok {
		return nil, mediastore.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[key]; !ok {
		return mediastore.ErrNotFound
	}
	delete(s.objects, key)
	delete(s.types, key)
	return nil
}

func (s *Store) URL(key string) string {
	return s.baseURL + "/" + key
}

// ContentType returns the stored content type of key.
func (s *Store) ContentType(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ct, ok := s.types[key]
	return ct, ok
}
