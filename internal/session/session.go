// Package session holds the signed-in user for a client process. A Service is created once and
// passed to whatever needs it, directly or through a context.
package session

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/legacy-registry/profile-api/pkg/client"
)

// Fetcher resolves the user behind the current credentials. *client.Client satisfies it.
type Fetcher interface {
	Me(ctx context.Context) (client.User, error)
}

// SignOuter is optionally implemented by a Fetcher to end the server-side session.
type SignOuter interface {
	SignOut(ctx context.Context) error
}

type Service struct {
	fetch  Fetcher
	logger *zap.Logger

	mu      sync.RWMutex
	token   string
	user    *client.User
	loading bool
	lastErr error
	// gen invalidates loads that finish after a sign-out or a newer load.
	gen  uint64
	done chan struct{}
}

func New(f Fetcher, token string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	done := make(chan struct{})
	close(done)
	return &Service{fetch: f, token: token, logger: logger, done: done}
}

// Load starts resolving the current user in the background and returns a channel closed when
// that load settles. Without a token the session settles immediately as signed out.
func (s *Service) Load(ctx context.Context) <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	gen := s.gen
	done := make(chan struct{})
	s.done = done

	if s.token == "" {
		s.user, s.loading, s.lastErr = nil, false, nil
		close(done)
		return done
	}
	s.loading = true

	go func() {
		defer close(done)
		u, err := s.fetch.Me(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		if gen != s.gen {
			return
		}
		s.loading = false
		s.lastErr = err
		if err != nil {
			s.user = nil
			if !client.IsCode(err, "UNAUTHORIZED") {
				s.logger.Warn("session load failed", zap.Error(err))
			}
			return
		}
		s.user = &u
	}()
	return done
}

// Wait blocks until the most recent load settles or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	s.mu.RLock()
	done := s.done
	s.mu.RUnlock()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Current returns the signed-in user, if any.
func (s *Service) Current() (client.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return client.User{}, false
	}
	return *s.user, true
}

func (s *Service) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Err returns the error of the last settled load.
func (s *Service) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Service) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SignOut drops local state first, then asks the server to clear its cookie when supported.
// A load still in flight is discarded.
func (s *Service) SignOut(ctx context.Context) error {
	s.mu.Lock()
	s.gen++
	s.user, s.token, s.loading, s.lastErr = nil, "", false, nil
	s.mu.Unlock()

	if so, ok := s.fetch.(SignOuter); ok {
		return so.SignOut(ctx)
	}
	return nil
}

type ctxKey struct{}

func WithService(ctx context.Context, s *Service) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

func FromContext(ctx context.Context) (*Service, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Service)
	return s, ok && s != nil
}
