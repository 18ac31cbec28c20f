package payments

import "github.com/legacy-registry/profile-api/internal/domain"

type Config struct {
	// Currency is the ISO code sent to the gateway. Defaults to INR.
	Currency string
}

type CreateOrderInput struct {
	ProfileID domain.ProfileID
	Tier      string
}

type CreateOrderResult struct {
	OrderID     domain.OrderID
	ProfileID   domain.ProfileID
	Tier        domain.Tier
	AmountMinor int64
	Currency    string
	Receipt     string
	// KeyID is the public key handed to the hosted checkout.
	KeyID string
}

// VerifyInput mirrors the gateway's checkout success callback.
type VerifyInput struct {
	OrderID   string
	PaymentID string
	Signature string
}

type VerifyResult struct {
	Success     bool
	ProfileID   domain.ProfileID
	Slug        string
	RedirectURL string
}
