package client

import (
	"encoding/json"
	"time"

	"github.com/legacy-registry/profile-api/internal/content"
)

type User struct {
	ID          string    `json:"id"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Profile struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Tier          string          `json:"tier"`
	Content       json.RawMessage `json:"content"`
	Slug          string          `json:"slug"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	PublishedAt   *time.Time      `json:"publishedAt"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// DecodeContent unmarshals the stored content blob.
func (p Profile) DecodeContent() (content.Content, error) {
	var c content.Content
	if len(p.Content) == 0 {
		return c, nil
	}
	err := json.Unmarshal(p.Content, &c)
	return c, err
}

type SaveDraftRequest struct {
	Content    content.Content `json:"content"`
	Tier       string          `json:"tier"`
	Slug       string          `json:"slug,omitempty"`
	AutoSave   bool            `json:"auto_save,omitempty"`
	ManualSave bool            `json:"manual_save,omitempty"`
}

type SaveDraftResponse struct {
	Success  bool    `json:"success"`
	Created  bool    `json:"created"`
	Profile  Profile `json:"profile"`
	Warnings struct {
		DisallowedSections []string `json:"disallowedSections"`
	} `json:"warnings"`
}

type DraftResponse struct {
	HasDraft bool     `json:"hasDraft"`
	Profile  *Profile `json:"profile"`
}

type PublishResponse struct {
	Success         bool    `json:"success"`
	RequiresPayment bool    `json:"requiresPayment"`
	ProfileID       string  `json:"profileId"`
	Tier            string  `json:"tier"`
	URL             string  `json:"url,omitempty"`
	Profile         Profile `json:"profile"`
}

type PublishStatus struct {
	IsPublished bool       `json:"isPublished"`
	PublishedAt *time.Time `json:"publishedAt"`
}

type PublicProfile struct {
	Slug            string          `json:"slug"`
	Tier            string          `json:"tier"`
	PublishedAt     *time.Time      `json:"publishedAt"`
	Content         content.Content `json:"content"`
	VisibleSections []string        `json:"visibleSections"`
}

type Order struct {
	OrderID   string `json:"orderId"`
	ProfileID string `json:"profileId"`
	Tier      string `json:"tier"`
	// Amount is in the currency's minor unit.
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	KeyID    string `json:"keyId"`
}

// PaymentCallback is the payload the hosted checkout hands back on success.
type PaymentCallback struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

type VerifyPaymentResponse struct {
	Success     bool   `json:"success"`
	ProfileID   string `json:"profileId"`
	Slug        string `json:"slug"`
	RedirectURL string `json:"redirectUrl"`
}

type PolishRequest struct {
	Bio  string `json:"bio"`
	Tone string `json:"tone,omitempty"`
	Tier string `json:"tier,omitempty"`
}

type Usage struct {
	Tier      string    `json:"tier"`
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetsAt  time.Time `json:"resetsAt"`
}

type PolishResponse struct {
	PolishedBio string `json:"polishedBio"`
	Tone        string `json:"tone"`
	Usage       Usage  `json:"usage"`
}

type PolishStatus struct {
	Available bool  `json:"available"`
	Usage     Usage `json:"usage"`
}
