package paymentgateway

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the gateway could not be reached or rejected the request.
var ErrUnavailable = errors.New("payment gateway unavailable")

type OrderRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

type Order struct {
	ID          string
	AmountMinor int64
	Currency    string
	Receipt     string
}

// Gateway issues orders for hosted checkout and verifies checkout callbacks.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
	// VerifySignature checks the checkout callback signature for (orderID, paymentID).
	VerifySignature(orderID, paymentID, signature string) bool
	// KeyID is the public key id handed to the hosted checkout.
	KeyID() string
}
