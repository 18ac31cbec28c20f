package httpapi

import (
	"net/http"

	"github.com/legacy-registry/profile-api/internal/app/aipolish"
)

type polishRequest struct {
	Bio  string `json:"bio"`
	Tone string `json:"tone"`
	Tier string `json:"tier"`
}

type usageDTO struct {
	Tier      string `json:"tier"`
	Used      int    `json:"used"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
	ResetsAt  string `json:"resetsAt"`
}

type polishResponse struct {
	PolishedBio string   `json:"polishedBio"`
	Tone        string   `json:"tone"`
	Usage       usageDTO `json:"usage"`
}

type polishStatusResponse struct {
	Available bool     `json:"available"`
	Usage     usageDTO `json:"usage"`
}

func usageToDTO(u aipolish.Usage) usageDTO {
	return usageDTO{
		Tier:      string(u.Tier),
		Used:      u.Used,
		Limit:     u.Limit,
		Remaining: u.Remaining,
		ResetsAt:  formatTime(u.ResetsAt),
	}
}

func (s *Server) PolishBio(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	var req polishRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := s.svc.AIPolish.Polish(r.Context(), sub, aipolish.PolishInput{Bio: req.Bio, Tone: req.Tone, Tier: req.Tier})
	if err != nil {
		s.metrics.AIPolish.WithLabelValues(resultLabel(err)).Inc()
		s.writeServiceError(w, r, err)
		return
	}
	s.metrics.AIPolish.WithLabelValues("ok").Inc()
	writeJSON(w, http.StatusOK, polishResponse{
		PolishedBio: res.PolishedBio,
		Tone:        string(res.Tone),
		Usage:       usageToDTO(res.Usage),
	})
}

func (s *Server) GetPolishStatus(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	st, err := s.svc.AIPolish.Status(r.Context(), sub, r.URL.Query().Get("tier"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, polishStatusResponse{Available: st.Available, Usage: usageToDTO(st.Usage)})
}
