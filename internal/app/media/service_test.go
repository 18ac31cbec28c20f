package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	memclock "github.com/legacy-registry/profile-api/internal/adapters/memory/clock"
	memmediastore "github.com/legacy-registry/profile-api/internal/adapters/memory/mediastore"
	memuserrepo "github.com/legacy-registry/profile-api/internal/adapters/memory/userrepo"
	"github.com/legacy-registry/profile-api/internal/app/users"
	"github.com/legacy-registry/profile-api/internal/content"
	"github.com/legacy-registry/profile-api/internal/domain"
)

type fixture struct {
	svc   *Service
	store *memmediastore.Store
	users *users.Service
}

func newFixture(t *testing.T, maxBytes int64) fixture {
	t.Helper()
	clk := memclock.NewManualClock(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	us := users.NewService(memuserrepo.NewRepo(), clk)
	us.SetNewUserIDForTest(func() domain.UserID { return "u1" })
	store := memmediastore.NewStore("https://cdn.example.com/")
	svc := NewService(store, us, Config{MaxBytes: maxBytes})
	svc.SetNewObjectIDForTest(func() string { return "obj" })
	return fixture{svc: svc, store: store, users: us}
}

func asError(t *testing.T, err error) *Error {
	t.Helper()
	ae := (*Error)(nil)
	if !errors.As(err, &ae) {
		t.Fatalf("err=%v (type=%T), want *Error", err, err)
	}
	return ae
}

func TestService_Upload(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1024)

	got, err := f.svc.Upload(context.Background(), "sub-1", UploadInput{
		Filename:    "Portrait.JPG",
		ContentType: "image/jpeg",
		Size:        5,
		Body:        strings.NewReader("hello"),
	})
	if err != nil {
		t.Fatalf("Upload err=%v", err)
	}
	want := UploadResult{
		Key:  "profiles/u1/obj.jpg",
		URL:  "https://cdn.example.com/profiles/u1/obj.jpg",
		Type: content.MediaTypeImage,
		Size: 5,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Upload() mismatch (-want +got):\n%s", diff)
	}
	if ct, ok := f.store.ContentType(got.Key); !ok || ct != "image/jpeg" {
		t.Fatalf("stored content type=%q ok=%v", ct, ok)
	}
}

func TestService_Upload_VideoWithoutExtension(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1024)

	got, err := f.svc.Upload(context.Background(), "sub-1", UploadInput{
		Filename:    "clip",
		ContentType: "video/mp4; codecs=avc1",
		Size:        -1,
		Body:        strings.NewReader("frames"),
	})
	if err != nil {
		t.Fatalf("Upload err=%v", err)
	}
	if got.Type != content.MediaTypeVideo || !strings.HasPrefix(got.Key, "profiles/u1/obj") {
		t.Fatalf("Upload()=%+v", got)
	}
}

func TestService_Upload_Rejections(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 8)
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, "sub-1", UploadInput{Filename: "a.pdf", ContentType: "application/pdf", Body: strings.NewReader("x")})
	if ae := asError(t, err); ae.Status != 415 {
		t.Fatalf("type err=%+v", ae)
	}

	_, err = f.svc.Upload(ctx, "sub-1", UploadInput{Filename: "a.png", ContentType: "image/png", Size: 9, Body: strings.NewReader("x")})
	if ae := asError(t, err); ae.Status != 413 {
		t.Fatalf("declared size err=%+v", ae)
	}

	// Undeclared size is enforced while streaming.
	_, err = f.svc.Upload(ctx, "sub-1", UploadInput{Filename: "a.png", ContentType: "image/png", Size: -1, Body: bytes.NewReader(make([]byte, 64))})
	if ae := asError(t, err); ae.Status != 413 || ae.Code != "MEDIA_TOO_LARGE" {
		t.Fatalf("streamed size err=%+v", ae)
	}
	if _, err := f.store.Open(ctx, "profiles/u1/obj.png"); err == nil {
		t.Fatalf("oversized object must not be stored")
	}
}

func TestService_Upload_ExactLimit(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 8)

	got, err := f.svc.Upload(context.Background(), "sub-1", UploadInput{Filename: "a.png", ContentType: "image/png", Size: -1, Body: bytes.NewReader(make([]byte, 8))})
	if err != nil {
		t.Fatalf("Upload err=%v", err)
	}
	rc, err := f.store.Open(context.Background(), got.Key)
	if err != nil {
		t.Fatalf("Open err=%v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if len(b) != 8 || got.Size != 8 {
		t.Fatalf("stored %d bytes, reported %d", len(b), got.Size)
	}
}

func TestService_Delete_OwnPrefixOnly(t *testing.T) {
	t.Parallel()
	f := newFixture(t, 1024)
	ctx := context.Background()

	got, err := f.svc.Upload(ctx, "sub-1", UploadInput{Filename: "a.png", ContentType: "image/png", Size: 1, Body: strings.NewReader("x")})
	if err != nil {
		t.Fatalf("Upload err=%v", err)
	}

	f.users.SetNewUserIDForTest(func() domain.UserID { return "u2" })
	if ae := asError(t, f.svc.Delete(ctx, "sub-2", got.Key)); ae.Status != 404 {
		t.Fatalf("foreign delete err=%+v", ae)
	}
	if ae := asError(t, f.svc.Delete(ctx, "sub-1", "profiles/u1/../u2/x.png")); ae.Status != 404 {
		t.Fatalf("traversal err=%+v", ae)
	}

	if err := f.svc.Delete(ctx, "sub-1", got.Key); err != nil {
		t.Fatalf("Delete err=%v", err)
	}
	if ae := asError(t, f.svc.Delete(ctx, "sub-1", got.Key)); ae.Code != "MEDIA_NOT_FOUND" {
		t.Fatalf("second delete err=%+v", ae)
	}
}
