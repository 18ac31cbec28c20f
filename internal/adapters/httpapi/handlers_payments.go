package httpapi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/legacy-registry/profile-api/internal/app/payments"
	"github.com/legacy-registry/profile-api/internal/domain"
)

type createOrderRequest struct {
	ProfileID string `json:"profileId"`
	Tier      string `json:"tier"`
}

type createOrderResponse struct {
	OrderID   string `json:"orderId"`
	ProfileID string `json:"profileId"`
	Tier      string `json:"tier"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Receipt   string `json:"receipt"`
	KeyID     string `json:"keyId"`
}

// CreatePaymentOrder opens a gateway order for the caller's profile. An Idempotency-Key header
// makes client retries return the first order instead of opening another.
func (s *Server) CreatePaymentOrder(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	var req createOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ProfileID = strings.TrimSpace(req.ProfileID)
	req.Tier = strings.TrimSpace(req.Tier)

	call, handled := s.beginIdempotent(w, r, sub, "/api/payment/create-order", req)
	if handled {
		return
	}

	res, err := s.svc.Payments.CreateOrder(r.Context(), sub, payments.CreateOrderInput{
		ProfileID: domain.ProfileID(req.ProfileID),
		Tier:      req.Tier,
	})
	if err != nil {
		tierLabel := "unknown"
		if t, perr := domain.ParseTier(req.Tier); perr == nil {
			tierLabel = string(t)
		}
		s.metrics.PaymentOrders.WithLabelValues(tierLabel, resultLabel(err)).Inc()
		call.abandon(r)
		s.writeServiceError(w, r, err)
		return
	}
	s.metrics.PaymentOrders.WithLabelValues(string(res.Tier), "created").Inc()

	call.finish(w, r, createOrderResponse{
		OrderID:   string(res.OrderID),
		ProfileID: string(res.ProfileID),
		Tier:      string(res.Tier),
		Amount:    res.AmountMinor,
		Currency:  res.Currency,
		Receipt:   res.Receipt,
		KeyID:     res.KeyID,
	})
}

// verifyPaymentRequest is the checkout success callback payload.
type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

type verifyPaymentResponse struct {
	Success     bool   `json:"success"`
	ProfileID   string `json:"profileId"`
	Slug        string `json:"slug"`
	RedirectURL string `json:"redirectUrl"`
}

func (s *Server) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	var req verifyPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.Payments.Verify(r.Context(), sub, payments.VerifyInput{
		OrderID:   req.OrderID,
		PaymentID: req.PaymentID,
		Signature: req.Signature,
	})
	if err != nil {
		s.metrics.PaymentVerifies.WithLabelValues(resultLabel(err)).Inc()
		if ae, ok := asAppError(err); ok && ae.Code == "PAYMENT_VERIFICATION_FAILED" {
			s.logger.Warn("payment signature rejected", zap.String("order_id", req.OrderID))
		}
		s.writeServiceError(w, r, err)
		return
	}
	s.metrics.PaymentVerifies.WithLabelValues("verified").Inc()
	writeJSON(w, http.StatusOK, verifyPaymentResponse{
		Success:     res.Success,
		ProfileID:   string(res.ProfileID),
		Slug:        res.Slug,
		RedirectURL: res.RedirectURL,
	})
}

// resultLabel turns an error into a bounded metrics label.
func resultLabel(err error) string {
	if ae, ok := asAppError(err); ok {
		return strings.ToLower(ae.Code)
	}
	return "internal"
}
