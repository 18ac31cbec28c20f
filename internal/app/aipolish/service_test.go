package aipolish

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	memclock "github.com/legacy-registry/profile-api/internal/adapters/memory/clock"
	memprofilerepo "github.com/legacy-registry/profile-api/internal/adapters/memory/profilerepo"
	memquota "github.com/legacy-registry/profile-api/internal/adapters/memory/quota"
	memuserrepo "github.com/legacy-registry/profile-api/internal/adapters/memory/userrepo"
	"github.com/legacy-registry/profile-api/internal/app/users"
	"github.com/legacy-registry/profile-api/internal/domain"
	"github.com/legacy-registry/profile-api/internal/ports/out/polisher"
)

type fakePolisher struct {
	err   error
	calls int
	last  polisher.Request
}

func (f *fakePolisher) Polish(ctx context.Context, req polisher.Request) (string, error) {
	f.calls++
	f.last = req
	if f.err != nil {
		return "", f.err
	}
	return "Polished: " + req.Bio, nil
}

type fixture struct {
	svc      *Service
	polisher *fakePolisher
	profiles *memprofilerepo.Repo
	users    *users.Service
	clk      *memclock.ManualClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	clk := memclock.NewManualClock(time.Date(2026, 5, 1, 22, 0, 0, 0, time.UTC))
	profiles := memprofilerepo.NewRepo()
	us := users.NewService(memuserrepo.NewRepo(), clk)
	fp := &fakePolisher{}
	svc := NewService(profiles, us, fp, memquota.NewCounter(clk), clk)
	return fixture{svc: svc, polisher: fp, profiles: profiles, users: us, clk: clk}
}

var bio = strings.Repeat("Engineer and mentor. ", 3)

func asError(t *testing.T, err error) *Error {
	t.Helper()
	ae := (*Error)(nil)
	if !errors.As(err, &ae) {
		t.Fatalf("err=%v (type=%T), want *Error", err, err)
	}
	return ae
}

func TestService_Polish_DefaultsTone(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	res, err := f.svc.Polish(context.Background(), "sub-1", PolishInput{Bio: bio})
	if err != nil {
		t.Fatalf("Polish err=%v", err)
	}
	if res.Tone != polisher.ToneProfessional || f.polisher.last.Tone != polisher.ToneProfessional {
		t.Fatalf("tone=%q", res.Tone)
	}
	if res.Usage.Used != 1 || res.Usage.Limit != 3 || res.Usage.Remaining != 2 {
		t.Fatalf("usage=%+v", res.Usage)
	}
	if want := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC); !res.Usage.ResetsAt.Equal(want) {
		t.Fatalf("resetsAt=%v, want %v", res.Usage.ResetsAt, want)
	}
}

func TestService_Polish_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Polish(context.Background(), "sub-1", PolishInput{Bio: "too short", Tone: "sarcastic"})
	ae := asError(t, err)
	if ae.Status != 422 || ae.Details["bio"] == nil || ae.Details["tone"] == nil {
		t.Fatalf("err=%+v", ae)
	}
	if f.polisher.calls != 0 {
		t.Fatalf("polisher called on invalid input")
	}
}

func TestService_Polish_DailyLimit(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Polish(ctx, "sub-1", PolishInput{Bio: bio, Tone: "warm"}); err != nil {
			t.Fatalf("Polish #%d err=%v", i, err)
		}
	}
	_, err := f.svc.Polish(ctx, "sub-1", PolishInput{Bio: bio})
	if ae := asError(t, err); ae.Status != 429 || ae.Code != "AI_RATE_LIMITED" {
		t.Fatalf("err=%+v", ae)
	}

	st, err := f.svc.Status(ctx, "sub-1", "")
	if err != nil {
		t.Fatalf("Status err=%v", err)
	}
	if st.Available || st.Used != 3 || st.Remaining != 0 {
		t.Fatalf("status=%+v", st)
	}

	// The window rolls over at UTC midnight.
	f.clk.Advance(3 * time.Hour)
	if _, err := f.svc.Polish(ctx, "sub-1", PolishInput{Bio: bio}); err != nil {
		t.Fatalf("Polish after reset err=%v", err)
	}
}

func TestService_Polish_ProfileTierWins(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.users.EnsureUser(ctx, "sub-1")
	if err != nil {
		t.Fatalf("EnsureUser err=%v", err)
	}
	now := f.clk.Now()
	if err := f.profiles.Create(ctx, domain.Profile{
		ID: "p1", UserID: u.ID, Tier: domain.TierElite, Content: []byte(`{"name":"Jane Doe"}`),
		Slug: "jane-doe-1", Status: domain.ProfileStatusDraft, PaymentStatus: domain.PaymentStatusUnpaid,
		CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("Create err=%v", err)
	}

	st, err := f.svc.Status(ctx, "sub-1", "legacy")
	if err != nil {
		t.Fatalf("Status err=%v", err)
	}
	if st.Tier != domain.TierElite || st.Limit != 10 || !st.Available {
		t.Fatalf("status=%+v", st)
	}
}

func TestService_Polish_ProviderErrorsRefundQuota(t *testing.T) {
	t.Parallel()
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{polisher.ErrRateLimited, 429, "AI_RATE_LIMITED"},
		{polisher.ErrContentPolicy, 422, "AI_CONTENT_POLICY"},
		{errors.New("boom"), 503, "AI_UNAVAILABLE"},
	}
	for _, tt := range tests {
		f := newFixture(t)
		f.polisher.err = tt.err
		_, err := f.svc.Polish(context.Background(), "sub-1", PolishInput{Bio: bio})
		if ae := asError(t, err); ae.Status != tt.status || ae.Code != tt.code {
			t.Fatalf("%v: err=%+v", tt.err, ae)
		}
		st, _ := f.svc.Status(context.Background(), "sub-1", "")
		if st.Used != 0 {
			t.Fatalf("%v: quota not refunded, used=%d", tt.err, st.Used)
		}
	}
}

func TestService_Polish_Unconfigured(t *testing.T) {
	t.Parallel()
	clk := memclock.NewManualClock(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	svc := NewService(memprofilerepo.NewRepo(), users.NewService(memuserrepo.NewRepo(), clk), nil, memquota.NewCounter(clk), clk)

	_, err := svc.Polish(context.Background(), "sub-1", PolishInput{Bio: bio})
	if ae := asError(t, err); ae.Status != 503 || ae.Code != "AI_UNAVAILABLE" {
		t.Fatalf("err=%+v", ae)
	}
	st, err := svc.Status(context.Background(), "sub-1", "")
	if err != nil || st.Available {
		t.Fatalf("status=%+v err=%v", st, err)
	}
}
