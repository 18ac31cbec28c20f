package httpapi

import (
	"encoding/json"

	"github.com/oapi-codegen/nullable"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/legacy-registry/profile-api/internal/domain"
)

type ProfileDTO struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Tier          string          `json:"tier"`
	Content       json.RawMessage `json:"content"`
	Slug          string          `json:"slug"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"paymentStatus"`
	PublishedAt   *string         `json:"publishedAt"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
}

func profileToDTO(p domain.Profile) ProfileDTO {
	c := p.Content
	if len(c) == 0 {
		c = json.RawMessage(`{}`)
	}
	return ProfileDTO{
		ID:            string(p.ID),
		UserID:        string(p.UserID),
		Tier:          string(p.Tier),
		Content:       c,
		Slug:          p.Slug,
		Status:        string(p.Status),
		PaymentStatus: string(p.PaymentStatus),
		PublishedAt:   formatTimePtr(p.PublishedAt),
		CreatedAt:     formatTime(p.CreatedAt),
		UpdatedAt:     formatTime(p.UpdatedAt),
	}
}

type UserDTO struct {
	ID          string `json:"id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	Role        string `json:"role"`
	CreatedAt   string `json:"createdAt"`
}

func userToDTO(u domain.User) UserDTO {
	return UserDTO{
		ID:          string(u.ID),
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CreatedAt:   formatTime(u.CreatedAt),
	}
}

type PersonDTO struct {
	Name  string               `json:"name"`
	Email *openapi_types.Email `json:"email,omitempty"`
}

type NominationDTO struct {
	ID            string    `json:"id"`
	Nominator     PersonDTO `json:"nominator"`
	Nominee       PersonDTO `json:"nominee"`
	Pitch         string    `json:"pitch"`
	Links         []string  `json:"links"`
	SuggestedTier string    `json:"suggestedTier"`
	Status        string    `json:"status"`
	CreatedAt     string    `json:"createdAt"`
}

func personToDTO(p domain.Person) PersonDTO {
	out := PersonDTO{Name: p.Name}
	if p.Email != nil {
		e := openapi_types.Email(*p.Email)
		out.Email = &e
	}
	return out
}

func nominationToDTO(n domain.Nomination) NominationDTO {
	links := n.Links
	if links == nil {
		links = []string{}
	}
	return NominationDTO{
		ID:            string(n.ID),
		Nominator:     personToDTO(n.Nominator),
		Nominee:       personToDTO(n.Nominee),
		Pitch:         n.Pitch,
		Links:         links,
		SuggestedTier: string(n.SuggestedTier),
		Status:        string(n.Status),
		CreatedAt:     formatTime(n.CreatedAt),
	}
}

type PublishStatusResponse struct {
	IsPublished bool                      `json:"isPublished"`
	PublishedAt nullable.Nullable[string] `json:"publishedAt"`
}
