package idempotency

import (
	"testing"

	"github.com/legacy-registry/profile-api/internal/adapters/contracttest"
	"github.com/legacy-registry/profile-api/internal/ports/out/clock"
	idempotencyport "github.com/legacy-registry/profile-api/internal/ports/out/idempotency"
)

func TestContract_IdempotencyStore(t *testing.T) {
	contracttest.RunIdempotencyStore(t, func(t *testing.T, clk clock.Clock) (idempotencyport.Store, func()) {
		t.Helper()
		return NewStore(clk), nil
	})
}
