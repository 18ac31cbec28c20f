package domain

import "time"

type NominationStatus string

const (
	NominationStatusPending  NominationStatus = "pending"
	NominationStatusApproved NominationStatus = "approved"
	NominationStatusRejected NominationStatus = "rejected"
)

type Person struct {
	Name  string
	Email *string
}

// Nomination is a public submission proposing someone for a profile.
// Status changes happen in editorial review, outside this service.
type Nomination struct {
	ID NominationID

	Nominator     Person
	Nominee       Person
	Pitch         string
	Links         []string
	SuggestedTier Tier
	Status        NominationStatus

	CreatedAt time.Time
}
