package orderrepo

import (
	"context"
	"time"

	"github.com/legacy-registry/profile-api/internal/domain"
)

type Status string

const (
	StatusCreated Status = "created"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

// Order is the persistence shape of a payment order. ID is the gateway-issued order id.
type Order struct {
	ID        domain.OrderID
	ProfileID domain.ProfileID
	UserID    domain.UserID
	Tier      domain.Tier

	// AmountMinor is in the currency's minor unit (e.g. paise).
	AmountMinor int64
	Currency    string
	Receipt     string

	Status    Status
	PaymentID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Repository interface {
	Create(ctx context.Context, o Order) error
	Get(ctx context.Context, id domain.OrderID) (Order, error)

	// Upsert writes the order using last-write-wins semantics.
	Upsert(ctx context.Context, o Order) error

	ListByProfile(ctx context.Context, profileID domain.ProfileID) ([]Order, error)
}
