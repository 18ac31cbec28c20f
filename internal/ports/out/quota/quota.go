package quota

import (
	"context"
	"time"
)

// Counter tracks per-key usage within fixed windows.
type Counter interface {
	// Incr increments the key's counter for the window and returns the new count.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	// Get returns the current count (0 when unset).
	Get(ctx context.Context, key string) (int64, error)
	// Decr undoes a previous Incr, never going below zero.
	Decr(ctx context.Context, key string) error
}
