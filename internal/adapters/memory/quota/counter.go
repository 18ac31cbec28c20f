package quota

import (
	"context"
	"sync"
	"time"

	"github.com/legacy-registry/profile-api/internal/ports/out/clock"
)

type entry struct {
	n         int64
	expiresAt time.Time
}

// Counter is an in-memory quota.Counter with per-key expiry.
// It is safe for concurrent use.
type Counter struct {
	mu    sync.Mutex
	clock clock.Clock
	m     map[string]entry
}

func NewCounter(clk clock.Clock) *Counter {
	return &Counter{clock: clk, m: make(map[string]entry)}
}

func (c *Counter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.clock.Now()
	e, ok := c.m[key]
	if !ok || !now.Before(e.expiresAt) {
		e = entry{expiresAt: now.Add(window)}
	}
	e.n++
	c.m[key] = e
	return e.n, nil
}

func (c *Counter) Get(ctx context.Context, key string) (int64, error) {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok || !c.clock.Now().Before(e.expiresAt) {
		return 0, nil
	}
	return e.n, nil
}

func (c *Counter) Decr(ctx context.Context, key string) error {
	_ = ctx
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok || e.n == 0 {
		return nil
	}
	e.n--
	c.m[key] = e
	return nil
}
