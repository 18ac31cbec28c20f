package paymentgateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/legacy-registry/profile-api/internal/adapters/razorpay"
	"github.com/legacy-registry/profile-api/internal/ports/out/paymentgateway"
)

// Gateway is an in-process payment gateway for local development and tests. It issues sequential
// order ids and verifies signatures with the same scheme as the real gateway.
type Gateway struct {
	mu      sync.Mutex
	keyID   string
	secret  string
	n       int
	failing bool
	orders  []paymentgateway.OrderRequest
}

func NewGateway(keyID, secret string) *Gateway {
	return &Gateway{keyID: keyID, secret: secret}
}

// SetFailing makes subsequent CreateOrder calls fail.
func (g *Gateway) SetFailing(failing bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failing = failing
}

func (g *Gateway) CreateOrder(ctx context.Context, req paymentgateway.OrderRequest) (paymentgateway.Order, error) {
	_ = ctx
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failing {
		return paymentgateway.Order{}, paymentgateway.ErrUnavailable
	}
	g.n++
	g.orders = append(g.orders, req)
	return paymentgateway.Order{
		ID:          fmt.Sprintf("order_dev_%d", g.n),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
		Receipt:     req.Receipt,
	}, nil
}

func (g *Gateway) VerifySignature(orderID, paymentID, signature string) bool {
	return razorpay.VerifySignature(g.secret, orderID, paymentID, signature)
}

func (g *Gateway) KeyID() string { return g.keyID }

// Sign returns the signature a successful checkout would report.
func (g *Gateway) Sign(orderID, paymentID string) string {
	return razorpay.Sign(g.secret, orderID, paymentID)
}

// Requests returns the order requests received so far.
func (g *Gateway) Requests() []paymentgateway.OrderRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]paymentgateway.OrderRequest(nil), g.orders...)
}
