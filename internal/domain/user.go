package domain

import "time"

type Role string

const (
	RoleVisitor Role = "visitor"
	RoleMember  Role = "member"
	RoleEditor  Role = "editor"
	RoleAdmin   Role = "admin"
)

// User is the domain representation of an authenticated account.
type User struct {
	ID      UserID
	Subject SubjectID

	Email       string
	DisplayName string
	Role        Role

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CanReview reports whether the role may use the editorial desk.
func (r Role) CanReview() bool {
	return r == RoleEditor || r == RoleAdmin
}
