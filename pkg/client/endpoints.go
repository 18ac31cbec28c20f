package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

func (c *Client) Me(ctx context.Context) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/api/me", nil, nil, nil, &out)
	return out.User, err
}

// SignOut clears the server-side session cookie.
func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/signout", nil, nil, nil, nil)
}

func (c *Client) GetDraft(ctx context.Context) (DraftResponse, error) {
	var out DraftResponse
	err := c.do(ctx, http.MethodGet, "/api/profiles/draft", nil, nil, nil, &out)
	return out, err
}

func (c *Client) SaveDraft(ctx context.Context, req SaveDraftRequest) (SaveDraftResponse, error) {
	var out SaveDraftResponse
	err := c.do(ctx, http.MethodPost, "/api/profiles/draft", nil, req, nil, &out)
	return out, err
}

func (c *Client) Publish(ctx context.Context, slug string) (PublishResponse, error) {
	var out PublishResponse
	err := c.do(ctx, http.MethodPost, "/api/profiles/publish", nil, map[string]string{"slug": slug}, nil, &out)
	return out, err
}

func (c *Client) PublishStatus(ctx context.Context, slug string) (PublishStatus, error) {
	var out PublishStatus
	err := c.do(ctx, http.MethodGet, "/api/profiles/publish", url.Values{"slug": {slug}}, nil, nil, &out)
	return out, err
}

func (c *Client) PublicProfile(ctx context.Context, slug string) (PublicProfile, error) {
	var out PublicProfile
	err := c.do(ctx, http.MethodGet, "/api/profiles/"+url.PathEscape(slug), nil, nil, nil, &out)
	return out, err
}

// CreateOrder opens a payment order. An empty idempotencyKey gets a fresh one, so retry with the
// key from the first attempt to avoid a second order.
func (c *Client) CreateOrder(ctx context.Context, profileID, tier, idempotencyKey string) (Order, error) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	var out Order
	body := map[string]string{"profileId": profileID, "tier": tier}
	err := c.do(ctx, http.MethodPost, "/api/payment/create-order", nil, body, map[string]string{"Idempotency-Key": idempotencyKey}, &out)
	return out, err
}

// VerifyPayment reports a finished checkout. A callback without a payment id or signature means the
// checkout was dismissed; it fails with CodePaymentCancelled without calling the API.
func (c *Client) VerifyPayment(ctx context.Context, cb PaymentCallback) (VerifyPaymentResponse, error) {
	var out VerifyPaymentResponse
	if strings.TrimSpace(cb.PaymentID) == "" || strings.TrimSpace(cb.Signature) == "" {
		return out, &APIError{
			Code:    CodePaymentCancelled,
			Message: "Payment was cancelled",
			Details: map[string]any{"orderId": cb.OrderID},
		}
	}
	err := c.do(ctx, http.MethodPost, "/api/payment/verify", nil, cb, nil, &out)
	return out, err
}

func (c *Client) PolishBio(ctx context.Context, req PolishRequest) (PolishResponse, error) {
	var out PolishResponse
	err := c.do(ctx, http.MethodPost, "/api/ai/polish-bio", nil, req, nil, &out)
	return out, err
}

// PolishStatus reports availability and quota; tier may be empty to use the caller's profile tier.
func (c *Client) PolishStatus(ctx context.Context, tier string) (PolishStatus, error) {
	var q url.Values
	if tier != "" {
		q = url.Values{"tier": {tier}}
	}
	var out PolishStatus
	err := c.do(ctx, http.MethodGet, "/api/ai/polish-bio", q, nil, nil, &out)
	return out, err
}
