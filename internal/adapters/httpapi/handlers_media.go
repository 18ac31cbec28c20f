package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/legacy-registry/profile-api/internal/app/media"
)

// multipart overhead allowed on top of the configured media limit
const multipartSlack = 1 << 20

type uploadResponse struct {
	Key  string `json:"key"`
	URL  string `json:"url"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

// UploadMedia accepts a multipart form with a single "file" part.
func (s *Server) UploadMedia(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	maxBytes := s.svc.Media.MaxBytes()
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+multipartSlack)

	mr, err := r.MultipartReader()
	if err != nil {
		writeValidation(w, r, "expected multipart/form-data", map[string]any{"file": "is required"})
		return
	}
	for {
		part, err := mr.NextPart()
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				s.writeServiceError(w, r, &media.Error{Status: http.StatusRequestEntityTooLarge, Code: "MEDIA_TOO_LARGE", Message: "The file is too large.", Details: map[string]any{"maxBytes": maxBytes}})
				return
			}
			writeValidation(w, r, "file is required", map[string]any{"file": "is required"})
			return
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}

		res, err := s.svc.Media.Upload(r.Context(), sub, media.UploadInput{
			Filename:    part.FileName(),
			ContentType: strings.TrimSpace(part.Header.Get("Content-Type")),
			Size:        -1,
			Body:        part,
		})
		_ = part.Close()
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.metrics.MediaUploadBytes.Add(float64(res.Size))
		writeJSON(w, http.StatusCreated, uploadResponse{Key: res.Key, URL: res.URL, Type: string(res.Type), Size: res.Size})
		return
	}
}

func (s *Server) DeleteMedia(w http.ResponseWriter, r *http.Request) {
	sub, ok := subject(w, r)
	if !ok {
		return
	}
	key := r.URL.Query().Get("key")
	if strings.TrimSpace(key) == "" {
		writeValidation(w, r, "key is required", map[string]any{"key": "is required"})
		return
	}
	if err := s.svc.Media.Delete(r.Context(), sub, key); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
