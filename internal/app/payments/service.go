package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/legacy-registry/profile-api/internal/domain"
	clockport "github.com/legacy-registry/profile-api/internal/ports/out/clock"
	"github.com/legacy-registry/profile-api/internal/ports/out/orderrepo"
	"github.com/legacy-registry/profile-api/internal/ports/out/paymentgateway"
	"github.com/legacy-registry/profile-api/internal/ports/out/profilerepo"
)

type UserResolver interface {
	EnsureUser(ctx context.Context, subject domain.SubjectID) (domain.User, error)
}

// TierChecker applies the configured tier enforcement to a profile.
type TierChecker interface {
	CheckTier(p domain.Profile, tier domain.Tier) error
}

type Service struct {
	profiles profilerepo.Repository
	orders   orderrepo.Repository
	users    UserResolver
	tiers    TierChecker
	gateway  paymentgateway.Gateway
	clk      clockport.Clock
	cfg      Config

	newReceipt func() string
}

func NewService(
	profiles profilerepo.Repository,
	orders orderrepo.Repository,
	users UserResolver,
	tiers TierChecker,
	gateway paymentgateway.Gateway,
	clk clockport.Clock,
	cfg Config,
) *Service {
	if cfg.Currency == "" {
		cfg.Currency = "INR"
	}
	return &Service{
		profiles: profiles,
		orders:   orders,
		users:    users,
		tiers:    tiers,
		gateway:  gateway,
		clk:      clk,
		cfg:      cfg,
		newReceipt: func() string {
			return "rcpt_" + strings.ToLower(ulid.Make().String())
		},
	}
}

// SetNewReceiptForTest overrides receipt generation for deterministic tests.
func (s *Service) SetNewReceiptForTest(fn func() string) {
	if fn != nil {
		s.newReceipt = fn
	}
}

// CreateOrder issues a gateway order for publishing the caller's profile at the requested tier.
func (s *Service) CreateOrder(ctx context.Context, subject domain.SubjectID, in CreateOrderInput) (CreateOrderResult, error) {
	tier, err := domain.ParseTier(in.Tier)
	if err != nil {
		return CreateOrderResult{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid tier",
			Details: map[string]any{"tier": "must be a known tier"},
		}
	}
	u, err := s.users.EnsureUser(ctx, subject)
	if err != nil {
		return CreateOrderResult{}, err
	}
	p, err := s.ownedProfile(ctx, u, in.ProfileID)
	if err != nil {
		return CreateOrderResult{}, err
	}
	if p.PaymentStatus == domain.PaymentStatusPaid {
		return CreateOrderResult{}, &Error{Status: 409, Code: "ALREADY_PAID", Message: "This profile has already been paid for."}
	}
	if s.tiers != nil {
		if err := s.tiers.CheckTier(p, tier); err != nil {
			return CreateOrderResult{}, err
		}
	}

	amount := tier.Capabilities().Price.Shift(2).IntPart()
	receipt := s.newReceipt()
	gwOrder, err := s.gateway.CreateOrder(ctx, paymentgateway.OrderRequest{
		AmountMinor: amount,
		Currency:    s.cfg.Currency,
		Receipt:     receipt,
		Notes: map[string]string{
			"profile_id": string(p.ID),
			"tier":       string(tier),
		},
	})
	if err != nil {
		return CreateOrderResult{}, &Error{
			Status:  502,
			Code:    "PAYMENT_ORDER_FAILED",
			Message: "The payment order could not be created. Please try again.",
		}
	}

	now := s.clk.Now()
	o := orderrepo.Order{
		ID:          domain.OrderID(gwOrder.ID),
		ProfileID:   p.ID,
		UserID:      u.ID,
		Tier:        tier,
		AmountMinor: amount,
		Currency:    s.cfg.Currency,
		Receipt:     receipt,
		Status:      orderrepo.StatusCreated,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return CreateOrderResult{}, fmt.Errorf("persist order: %w", err)
	}

	if _, err := s.profiles.MarkPaymentPending(ctx, p.ID, now); err != nil {
		return CreateOrderResult{}, fmt.Errorf("mark payment pending: %w", err)
	}

	return CreateOrderResult{
		OrderID:     o.ID,
		ProfileID:   p.ID,
		Tier:        tier,
		AmountMinor: amount,
		Currency:    o.Currency,
		Receipt:     receipt,
		KeyID:       s.gateway.KeyID(),
	}, nil
}

// Verify checks the checkout callback signature and, on success, marks the order and profile paid
// and publishes the profile at the order's tier. Verifying an already paid order succeeds again.
func (s *Service) Verify(ctx context.Context, subject domain.SubjectID, in VerifyInput) (VerifyResult, error) {
	details := map[string]any{}
	if strings.TrimSpace(in.OrderID) == "" {
		details["razorpay_order_id"] = "is required"
	}
	if strings.TrimSpace(in.PaymentID) == "" {
		details["razorpay_payment_id"] = "is required"
	}
	if strings.TrimSpace(in.Signature) == "" {
		details["razorpay_signature"] = "is required"
	}
	if len(details) > 0 {
		return VerifyResult{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid payment verification payload", Details: details}
	}

	u, err := s.users.EnsureUser(ctx, subject)
	if err != nil {
		return VerifyResult{}, err
	}
	o, err := s.orders.Get(ctx, domain.OrderID(in.OrderID))
	if err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return VerifyResult{}, orderNotFound()
		}
		return VerifyResult{}, err
	}
	if o.UserID != u.ID {
		return VerifyResult{}, orderNotFound()
	}

	if o.Status == orderrepo.StatusPaid {
		p, err := s.profiles.GetByID(ctx, o.ProfileID)
		if err != nil {
			return VerifyResult{}, err
		}
		if !p.IsPublished() || p.PaymentStatus != domain.PaymentStatusPaid {
			p, err = s.profiles.PublishPaid(ctx, p.ID, o.Tier, s.clk.Now())
			if err != nil {
				return VerifyResult{}, fmt.Errorf("publish paid profile: %w", err)
			}
		}
		return success(p), nil
	}

	now := s.clk.Now()
	if !s.gateway.VerifySignature(in.OrderID, in.PaymentID, in.Signature) {
		o.Status = orderrepo.StatusFailed
		o.UpdatedAt = now
		if err := s.orders.Upsert(ctx, o); err != nil {
			return VerifyResult{}, fmt.Errorf("mark order failed: %w", err)
		}
		return VerifyResult{}, &Error{
			Status:  400,
			Code:    "PAYMENT_VERIFICATION_FAILED",
			Message: "The payment could not be verified.",
		}
	}

	// A paid order implies a published profile, so the profile is written first.
	p, err := s.profiles.PublishPaid(ctx, o.ProfileID, o.Tier, now)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("publish paid profile: %w", err)
	}

	paymentID := in.PaymentID
	o.Status = orderrepo.StatusPaid
	o.PaymentID = &paymentID
	o.UpdatedAt = now
	if err := s.orders.Upsert(ctx, o); err != nil {
		return VerifyResult{}, fmt.Errorf("mark order paid: %w", err)
	}
	return success(p), nil
}

func (s *Service) ownedProfile(ctx context.Context, u domain.User, id domain.ProfileID) (domain.Profile, error) {
	if strings.TrimSpace(string(id)) == "" {
		return domain.Profile{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid profileId",
			Details: map[string]any{"profileId": "is required"},
		}
	}
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, profilerepo.ErrNotFound) {
			return domain.Profile{}, &Error{Status: 404, Code: "PROFILE_NOT_FOUND", Message: "Profile not found."}
		}
		return domain.Profile{}, err
	}
	if p.UserID != u.ID {
		return domain.Profile{}, &Error{Status: 404, Code: "PROFILE_NOT_FOUND", Message: "Profile not found."}
	}
	return p, nil
}

func success(p domain.Profile) VerifyResult {
	return VerifyResult{
		Success:     true,
		ProfileID:   p.ID,
		Slug:        p.Slug,
		RedirectURL: "/profile/" + p.Slug,
	}
}

func orderNotFound() *Error {
	return &Error{Status: 404, Code: "ORDER_NOT_FOUND", Message: "Payment order not found."}
}
