package domain

import (
	"encoding/json"
	"time"
)

type ProfileStatus string

const (
	ProfileStatusDraft       ProfileStatus = "draft"
	ProfileStatusUnderReview ProfileStatus = "under_review"
	ProfileStatusPublished   ProfileStatus = "published"
	ProfileStatusRejected    ProfileStatus = "rejected"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// Profile is the domain representation of a user's editorial profile.
//
// Content holds the validated content blob as JSON; its shape is owned by the content package.
type Profile struct {
	ID     ProfileID
	UserID UserID

	Tier          Tier
	Content       json.RawMessage
	Slug          string
	Status        ProfileStatus
	PaymentStatus PaymentStatus

	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsPublished reports whether the profile is publicly visible at its slug.
func (p Profile) IsPublished() bool {
	return p.Status == ProfileStatusPublished
}
