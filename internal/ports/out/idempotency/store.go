package idempotency

import (
	"context"
	"time"

	"github.com/legacy-registry/profile-api/internal/domain"
)

// ReplayWindow bounds how long a stored response is replayed. It matches the lifetime of a
// gateway order, after which a retried checkout must open a new one.
const ReplayWindow = 24 * time.Hour

// ReservationWindow bounds how long a pending reservation blocks retries of the same request.
const ReservationWindow = time.Minute

// Key is the caller-provided Idempotency-Key header.
type Key string

// Fingerprint scopes a key to one caller and one route. BodyHash is empty for the record that
// pins the key to its first payload.
type Fingerprint struct {
	Key      Key
	Subject  domain.SubjectID
	Method   string
	Route    string
	BodyHash string
}

// Record is a stored response. A record whose ExpiresAt is not after the store's clock is a miss;
// a zero ExpiresAt never expires.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
	ExpiresAt   time.Time
}

// Pending reports whether r reserves a response that is still being produced.
func (r Record) Pending() bool { return r.StatusCode == 0 }

// Expired reports whether r is stale at now.
func (r Record) Expired(now time.Time) bool {
	return !r.ExpiresAt.IsZero() && !r.ExpiresAt.After(now)
}

type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	// Put inserts or replaces the record for fp.
	Put(ctx context.Context, fp Fingerprint, rec Record) error
	// PutIfAbsent stores rec only when fp has no live record and reports whether it did.
	// An expired record counts as absent.
	PutIfAbsent(ctx context.Context, fp Fingerprint, rec Record) (bool, error)
	// Delete removes the record for fp. Deleting a missing record is not an error.
	Delete(ctx context.Context, fp Fingerprint) error
}
