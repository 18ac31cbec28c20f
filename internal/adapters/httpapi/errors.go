package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"
	"go.uber.org/zap"

	"github.com/legacy-registry/profile-api/internal/app/aipolish"
	"github.com/legacy-registry/profile-api/internal/app/media"
	"github.com/legacy-registry/profile-api/internal/app/nominations"
	"github.com/legacy-registry/profile-api/internal/app/payments"
	"github.com/legacy-registry/profile-api/internal/app/profiles"
	"github.com/legacy-registry/profile-api/internal/app/users"
)

type ErrorBody struct {
	Code      string                            `json:"code"`
	Message   string                            `json:"message"`
	Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
	RequestId nullable.Nullable[string]         `json:"requestId,omitempty"`
}

// ErrorResponse is the envelope of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code string, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestId = nullable.NewNullableWithValue(rid)
	}
	writeJSON(w, status, er)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// appError is the shape shared by every application service error.
type appError struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func asAppError(err error) (appError, bool) {
	if ae := (*users.Error)(nil); errors.As(err, &ae) {
		return appError(*ae), true
	}
	if ae := (*profiles.Error)(nil); errors.As(err, &ae) {
		return appError(*ae), true
	}
	if ae := (*payments.Error)(nil); errors.As(err, &ae) {
		return appError(*ae), true
	}
	if ae := (*aipolish.Error)(nil); errors.As(err, &ae) {
		return appError(*ae), true
	}
	if ae := (*media.Error)(nil); errors.As(err, &ae) {
		return appError(*ae), true
	}
	if ae := (*nominations.Error)(nil); errors.As(err, &ae) {
		return appError(*ae), true
	}
	return appError{}, false
}

// writeServiceError maps application errors to their status; anything else is logged and hidden.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if ae, ok := asAppError(err); ok {
		writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
		return
	}
	s.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

func writeValidation(w http.ResponseWriter, r *http.Request, message string, details map[string]any) {
	writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, details)
}
