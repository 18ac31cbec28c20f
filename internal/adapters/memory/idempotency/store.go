package idempotency

import (
	"context"
	"sync"

	"github.com/legacy-registry/profile-api/internal/ports/out/clock"
	"github.com/legacy-registry/profile-api/internal/ports/out/idempotency"
)

// Store keeps replayable responses in a map and evicts expired ones when they are read.
type Store struct {
	clk clock.Clock

	mu sync.Mutex
	m  map[idempotency.Fingerprint]idempotency.Record
}

func NewStore(clk clock.Clock) *Store {
	return &Store{clk: clk, m: make(map[idempotency.Fingerprint]idempotency.Record)}
}

func (s *Store) Get(_ context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.m[fp]
	if !ok {
		return idempotency.Record{}, false, nil
	}
	if rec.Expired(s.clk.Now()) {
		delete(s.m, fp)
		return idempotency.Record{}, false, nil
	}
	rec.Body = append([]byte(nil), rec.Body...)
	return rec, true, nil
}

func (s *Store) Put(_ context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	rec.Body = append([]byte(nil), rec.Body...)
	s.mu.Lock()
	s.m[fp] = rec
	s.mu.Unlock()
	return nil
}

func (s *Store) PutIfAbsent(_ context.Context, fp idempotency.Fingerprint, rec idempotency.Record) (bool, error) {
	rec.Body = append([]byte(nil), rec.Body...)
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.m[fp]; ok && !cur.Expired(s.clk.Now()) {
		return false, nil
	}
	s.m[fp] = rec
	return true, nil
}

func (s *Store) Delete(_ context.Context, fp idempotency.Fingerprint) error {
	s.mu.Lock()
	delete(s.m, fp)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored records, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
