package httpapi

import (
	"net/http"
	"strings"

	"github.com/legacy-registry/profile-api/internal/app/nominations"
	"github.com/legacy-registry/profile-api/internal/domain"
)

type submitNominationRequest struct {
	NominatorName  string   `json:"nominatorName"`
	NominatorEmail string   `json:"nominatorEmail"`
	NomineeName    string   `json:"nomineeName"`
	NomineeEmail   *string  `json:"nomineeEmail"`
	Pitch          string   `json:"pitch"`
	Links          []string `json:"links"`
	SuggestedTier  string   `json:"suggestedTier"`
}

func (s *Server) SubmitNomination(w http.ResponseWriter, r *http.Request) {
	var req submitNominationRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := s.svc.Nominations.Submit(r.Context(), nominations.SubmitInput{
		NominatorName:  req.NominatorName,
		NominatorEmail: req.NominatorEmail,
		NomineeName:    req.NomineeName,
		NomineeEmail:   req.NomineeEmail,
		Pitch:          req.Pitch,
		Links:          req.Links,
		SuggestedTier:  req.SuggestedTier,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"nomination": nominationToDTO(n)})
}

func (s *Server) GetNomination(w http.ResponseWriter, r *http.Request, id string) {
	n, err := s.svc.Nominations.Get(r.Context(), domain.NominationID(id))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"nomination": nominationToDTO(n)})
}

// ListNominationsForReview serves the editorial desk.
func (s *Server) ListNominationsForReview(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	if _, err := s.svc.Users.RequireReviewer(r.Context(), sub); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	status := domain.NominationStatus(strings.TrimSpace(r.URL.Query().Get("status")))
	if status == "" {
		status = domain.NominationStatusPending
	}
	ns, err := s.svc.Nominations.ListByStatus(r.Context(), status)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]NominationDTO, 0, len(ns))
	for _, n := range ns {
		out = append(out, nominationToDTO(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{"nominations": out})
}
