package domain

// SubjectID is the authenticated subject extracted from JWT claims (typically "sub").
// We model it as an opaque identifier: its format is controlled by the hosted auth provider.
type SubjectID string

// UserID is an internal identifier for a user record.
type UserID string

// ProfileID is an internal identifier for a profile record.
type ProfileID string

// NominationID is an internal identifier for a nomination record.
type NominationID string

// OrderID is the payment gateway's order identifier.
type OrderID string
