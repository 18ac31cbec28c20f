package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/oapi-codegen/nullable"

	"github.com/legacy-registry/profile-api/internal/app/profiles"
	"github.com/legacy-registry/profile-api/internal/content"
	"github.com/legacy-registry/profile-api/internal/domain"
)

type saveDraftRequest struct {
	Content    json.RawMessage `json:"content"`
	Tier       string          `json:"tier"`
	Slug       string          `json:"slug"`
	AutoSave   bool            `json:"auto_save"`
	ManualSave bool            `json:"manual_save"`
}

type draftWarnings struct {
	DisallowedSections []string `json:"disallowedSections"`
}

type saveDraftResponse struct {
	Success  bool          `json:"success"`
	Created  bool          `json:"created"`
	Profile  ProfileDTO    `json:"profile"`
	Warnings draftWarnings `json:"warnings"`
}

func (s *Server) SaveDraft(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	var req saveDraftRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := s.svc.Profiles.SaveDraft(r.Context(), sub, profiles.SaveDraftInput{
		Content:    req.Content,
		Tier:       req.Tier,
		Slug:       req.Slug,
		AutoSave:   req.AutoSave,
		ManualSave: req.ManualSave,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	trigger := "manual"
	if req.AutoSave && !req.ManualSave {
		trigger = "auto"
	}
	s.metrics.DraftSaves.WithLabelValues(trigger).Inc()

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, saveDraftResponse{
		Success:  true,
		Created:  res.Created,
		Profile:  profileToDTO(res.Profile),
		Warnings: draftWarnings{DisallowedSections: sectionNames(res.DisallowedSections)},
	})
}

type getDraftResponse struct {
	HasDraft bool        `json:"hasDraft"`
	Profile  *ProfileDTO `json:"profile"`
}

func (s *Server) GetDraft(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	res, err := s.svc.Profiles.GetDraft(r.Context(), sub)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := getDraftResponse{HasDraft: res.HasDraft}
	if res.Profile != nil {
		dto := profileToDTO(*res.Profile)
		out.Profile = &dto
	}
	writeJSON(w, http.StatusOK, out)
}

type publishRequest struct {
	Slug string `json:"slug"`
}

type publishResponse struct {
	Success         bool       `json:"success"`
	RequiresPayment bool       `json:"requiresPayment"`
	ProfileID       string     `json:"profileId"`
	Tier            string     `json:"tier"`
	URL             string     `json:"url,omitempty"`
	Profile         ProfileDTO `json:"profile"`
}

// Publish makes a paid profile public. Unpaid profiles get requiresPayment=true and the
// profileId to start checkout with.
func (s *Server) Publish(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	var req publishRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.Profiles.Publish(r.Context(), sub, req.Slug)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if res.NewlyPublished {
		s.metrics.ProfilesPublished.Inc()
	}

	out := publishResponse{
		Success:         !res.RequiresPayment,
		RequiresPayment: res.RequiresPayment,
		ProfileID:       string(res.Profile.ID),
		Tier:            string(res.Profile.Tier),
		Profile:         profileToDTO(res.Profile),
	}
	if !res.RequiresPayment {
		out.URL = "/profile/" + res.Profile.Slug
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) GetPublishStatus(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimSpace(r.URL.Query().Get("slug"))
	if slug == "" {
		writeValidation(w, r, "invalid slug", map[string]any{"slug": "is required"})
		return
	}
	st, err := s.svc.Profiles.PublishStatus(r.Context(), slug)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := PublishStatusResponse{IsPublished: st.IsPublished, PublishedAt: nullable.NewNullNullable[string]()}
	if st.PublishedAt != nil {
		out.PublishedAt = nullable.NewNullableWithValue(formatTime(*st.PublishedAt))
	}
	writeJSON(w, http.StatusOK, out)
}

type publicProfileResponse struct {
	Slug            string          `json:"slug"`
	Tier            string          `json:"tier"`
	PublishedAt     *string         `json:"publishedAt"`
	Content         content.Content `json:"content"`
	VisibleSections []string        `json:"visibleSections"`
}

func (s *Server) GetPublicProfile(w http.ResponseWriter, r *http.Request, slug string) {
	pp, err := s.svc.Profiles.GetPublished(r.Context(), slug)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, publicProfileResponse{
		Slug:            pp.Profile.Slug,
		Tier:            string(pp.Profile.Tier),
		PublishedAt:     formatTimePtr(pp.Profile.PublishedAt),
		Content:         pp.Content,
		VisibleSections: sectionNames(pp.VisibleSections),
	})
}

// ListProfilesForReview serves the editorial desk.
func (s *Server) ListProfilesForReview(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	if _, err := s.svc.Users.RequireReviewer(r.Context(), sub); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	q := r.URL.Query()
	status := domain.ProfileStatus(strings.TrimSpace(q.Get("status")))
	if status == "" {
		status = domain.ProfileStatusUnderReview
	}
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeValidation(w, r, "invalid limit", map[string]any{"limit": "must be an integer"})
			return
		}
		limit = n
	}

	ps, err := s.svc.Profiles.ListForReview(r.Context(), status, limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]ProfileDTO, 0, len(ps))
	for _, p := range ps {
		out = append(out, profileToDTO(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"profiles": out})
}

func sectionNames(secs []domain.Section) []string {
	out := make([]string, len(secs))
	for i, sec := range secs {
		out[i] = string(sec)
	}
	return out
}
