package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/legacy-registry/profile-api/internal/content"
	"github.com/legacy-registry/profile-api/internal/domain"
	"github.com/legacy-registry/profile-api/internal/ports/out/mediastore"
)

// DefaultMaxBytes caps uploads when no limit is configured.
const DefaultMaxBytes int64 = 25 << 20

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

type UserResolver interface {
	EnsureUser(ctx context.Context, subject domain.SubjectID) (domain.User, error)
}

type Config struct {
	MaxBytes int64
}

type UploadInput struct {
	Filename    string
	ContentType string
	// Size is the declared length, or -1 when unknown.
	Size int64
	Body io.Reader
}

type UploadResult struct {
	Key  string
	URL  string
	Type content.MediaType
	Size int64
}

type Service struct {
	store mediastore.Store
	users UserResolver
	cfg   Config

	newObjectID func() string
}

func NewService(store mediastore.Store, users UserResolver, cfg Config) *Service {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	return &Service{store: store, users: users, cfg: cfg, newObjectID: uuid.NewString}
}

// SetNewObjectIDForTest overrides object naming for deterministic tests.
func (s *Service) SetNewObjectIDForTest(fn func() string) {
	if fn != nil {
		s.newObjectID = fn
	}
}

func (s *Service) MaxBytes() int64 { return s.cfg.MaxBytes }

// Upload stores an image or video under the caller's prefix and returns its public URL.
func (s *Service) Upload(ctx context.Context, subject domain.SubjectID, in UploadInput) (UploadResult, error) {
	mediaType, contentType, ok := classify(in.ContentType)
	if !ok {
		return UploadResult{}, &Error{
			Status:  415,
			Code:    "UNSUPPORTED_MEDIA_TYPE",
			Message: "Only image and video uploads are supported.",
			Details: map[string]any{"contentType": in.ContentType},
		}
	}
	if in.Size > s.cfg.MaxBytes {
		return UploadResult{}, tooLarge(s.cfg.MaxBytes)
	}
	if in.Body == nil {
		return UploadResult{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "file is required", Details: map[string]any{"file": "is required"}}
	}

	u, err := s.users.EnsureUser(ctx, subject)
	if err != nil {
		return UploadResult{}, err
	}

	key := userPrefix(u.ID) + s.newObjectID() + extension(in.Filename, contentType)
	body := &limitedReader{r: in.Body, remaining: s.cfg.MaxBytes}
	err = s.store.Put(ctx, mediastore.Object{Key: key, ContentType: contentType, Size: in.Size}, body)
	if err != nil {
		if errors.Is(err, errTooLarge) {
			_ = s.store.Delete(context.WithoutCancel(ctx), key)
			return UploadResult{}, tooLarge(s.cfg.MaxBytes)
		}
		return UploadResult{}, fmt.Errorf("store media: %w", err)
	}

	return UploadResult{Key: key, URL: s.store.URL(key), Type: mediaType, Size: body.read}, nil
}

// Delete removes one of the caller's own objects. Keys outside the caller's prefix look missing.
func (s *Service) Delete(ctx context.Context, subject domain.SubjectID, key string) error {
	u, err := s.users.EnsureUser(ctx, subject)
	if err != nil {
		return err
	}
	key = strings.TrimPrefix(strings.TrimSpace(key), "/")
	if !strings.HasPrefix(key, userPrefix(u.ID)) || strings.Contains(key, "..") {
		return mediaNotFound()
	}
	if err := s.store.Delete(ctx, key); err != nil {
		if errors.Is(err, mediastore.ErrNotFound) {
			return mediaNotFound()
		}
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}

func userPrefix(id domain.UserID) string {
	return "profiles/" + string(id) + "/"
}

// classify returns the content item type and the normalized MIME type.
func classify(contentType string) (content.MediaType, string, bool) {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", "", false
	}
	switch {
	case strings.HasPrefix(mt, "image/"):
		return content.MediaTypeImage, mt, true
	case strings.HasPrefix(mt, "video/"):
		return content.MediaTypeVideo, mt, true
	}
	return "", "", false
}

func extension(filename, contentType string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, "\\", "/")))
	if extPattern.MatchString(ext) {
		return ext
	}
	if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
		return exts[0]
	}
	return ""
}

var errTooLarge = errors.New("media exceeds size limit")

type limitedReader struct {
	r         io.Reader
	remaining int64
	read      int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, errTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.read += int64(n)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, errTooLarge
	}
	return n, err
}

func tooLarge(limit int64) *Error {
	return &Error{
		Status:  413,
		Code:    "MEDIA_TOO_LARGE",
		Message: "The file is too large.",
		Details: map[string]any{"maxBytes": limit},
	}
}

func mediaNotFound() *Error {
	return &Error{Status: 404, Code: "MEDIA_NOT_FOUND", Message: "Media not found."}
}
