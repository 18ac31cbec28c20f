package wizard

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	memclock "github.com/legacy-registry/profile-api/internal/adapters/memory/clock"
	"github.com/legacy-registry/profile-api/internal/content"
	"github.com/legacy-registry/profile-api/internal/domain"
	"github.com/legacy-registry/profile-api/pkg/client"
)

type fakeAPI struct {
	mu         sync.Mutex
	saves      []client.SaveDraftRequest
	publishes  []string
	saveErr    error
	publishErr error
	paid       bool
}

func (f *fakeAPI) SaveDraft(_ context.Context, req client.SaveDraftRequest) (client.SaveDraftResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves = append(f.saves, req)
	if f.saveErr != nil {
		return client.SaveDraftResponse{}, f.saveErr
	}
	return client.SaveDraftResponse{
		Success: true,
		Created: len(f.saves) == 1,
		Profile: client.Profile{ID: "p1", Slug: req.Slug, Tier: req.Tier, Status: "draft"},
	}, nil
}

func (f *fakeAPI) Publish(_ context.Context, slug string) (client.PublishResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.publishes = append(f.publishes, slug)
	if f.publishErr != nil {
		return client.PublishResponse{}, f.publishErr
	}
	if !f.paid {
		return client.PublishResponse{RequiresPayment: true, ProfileID: "p1", Tier: "elite"}, nil
	}
	return client.PublishResponse{Success: true, ProfileID: "p1", Tier: "elite", URL: "/profile/" + slug}, nil
}

func (f *fakeAPI) saveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.saves)
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Success(msg string) { n.add("ok: " + msg) }
func (n *recordingNotifier) Error(msg string)   { n.add("error: " + msg) }

func (n *recordingNotifier) add(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
}

func (n *recordingNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

var testNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newController(t *testing.T, api API) (*Controller, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	return NewController(api, memclock.NewManualClock(testNow), Options{Notifier: n}), n
}

// fillToPreview completes every step with valid data.
func fillToPreview(t *testing.T, c *Controller) {
	t.Helper()
	require.NoError(t, c.SetTier("elite"))
	require.True(t, c.Next())
	c.Update(func(ct *content.Content) {
		ct.Name = "Jane Doe"
		ct.Tagline = "Engineer and mentor"
		ct.HeroImage = "https://cdn.example.com/jane.jpg"
	})
	require.True(t, c.Next())
	c.Update(func(ct *content.Content) { ct.Bio = strings.Repeat("Jane builds things. ", 4) })
	require.True(t, c.Next())
	require.True(t, c.Next())
	require.True(t, c.Next())
	require.Equal(t, StepPreview, c.Step())
}

func TestSteps_OrderAndNames(t *testing.T) {
	t.Parallel()
	var names []string
	for _, s := range Steps() {
		names = append(names, s.String())
	}
	assert.Equal(t, []string{"TIER_SELECTION", "BASIC_INFO", "BIOGRAPHY", "ACHIEVEMENTS", "LINKS_MEDIA", "PREVIEW"}, names)
	assert.Equal(t, "UNKNOWN", Step(42).String())
}

func TestController_DraftReturnsIndependentCopy(t *testing.T) {
	t.Parallel()
	c, _ := newController(t, &fakeAPI{})
	year := 2001
	c.Update(func(ct *content.Content) {
		ct.Name = "Jane Doe"
		ct.Achievements = []content.Achievement{{Title: "First", Year: &year}}
		ct.Sections = map[domain.Section]content.SectionSettings{domain.SectionAchievements: content.DefaultSectionSettings()}
	})

	d := c.Draft()
	d.Content.Achievements[0].Title = "Changed"
	*d.Content.Achievements[0].Year = 1900
	d.Content.Sections[domain.SectionAchievements] = content.SectionSettings{}

	again := c.Draft()
	assert.Equal(t, "First", again.Content.Achievements[0].Title)
	assert.Equal(t, 2001, *again.Content.Achievements[0].Year)
	assert.True(t, again.Content.Sections[domain.SectionAchievements].Visible)
}

func TestController_PrevOnFirstStepIsNoop(t *testing.T) {
	t.Parallel()
	c, _ := newController(t, &fakeAPI{})

	assert.False(t, c.Prev())
	assert.Equal(t, StepTierSelection, c.Step())
}

func TestController_GatesBlockForwardProgress(t *testing.T) {
	t.Parallel()
	c, _ := newController(t, &fakeAPI{})

	assert.False(t, c.CanContinue())
	assert.False(t, c.Next(), "no tier selected")
	assert.Error(t, c.SetTier("platinum"))
	require.NoError(t, c.SetTier("Rising"))
	require.True(t, c.Next())

	c.Update(func(ct *content.Content) {
		ct.Name = "Jane Doe"
		ct.Tagline = "Engineer"
	})
	assert.False(t, c.Next(), "hero image missing")
	assert.Equal(t, StepBasicInfo, c.Step())

	c.Update(func(ct *content.Content) { ct.HeroImage = "https://cdn.example.com/j.jpg" })
	require.True(t, c.Next())

	c.Update(func(ct *content.Content) { ct.Bio = strings.Repeat("b", 49) })
	assert.False(t, c.Next(), "bio too short")
	c.Update(func(ct *content.Content) { ct.Bio = strings.Repeat("b", 50) })
	require.True(t, c.Next())

	c.Update(func(ct *content.Content) { ct.Achievements = []content.Achievement{{Title: " "}} })
	assert.False(t, c.Next(), "achievement without title")
	c.Update(func(ct *content.Content) { ct.Achievements = nil })
	require.True(t, c.Next())

	c.Update(func(ct *content.Content) { ct.Links = []content.Link{{Label: "site"}} })
	assert.False(t, c.Next(), "link without url")
}

func TestController_StepStaysInRange(t *testing.T) {
	t.Parallel()
	c, _ := newController(t, &fakeAPI{})
	fillToPreview(t, c)

	assert.False(t, c.CanContinue())
	assert.False(t, c.Next())
	assert.Equal(t, StepPreview, c.Step())

	for i := 0; i < 10; i++ {
		c.Prev()
		assert.GreaterOrEqual(t, c.Step(), StepTierSelection)
	}
	assert.Equal(t, StepTierSelection, c.Step())
	for _, s := range Steps()[:5] {
		assert.True(t, c.Completed(s), "going back keeps %s complete", s)
	}
	assert.False(t, c.Completed(StepPreview))
}

func TestController_EditableFollowsTier(t *testing.T) {
	t.Parallel()
	c, _ := newController(t, &fakeAPI{})

	require.NoError(t, c.SetTier("rising"))
	assert.True(t, c.Editable(domain.SectionAchievements))
	assert.False(t, c.Editable(domain.SectionQuotes))

	require.NoError(t, c.SetTier("legacy"))
	assert.True(t, c.Editable(domain.SectionQuotes))
}

func TestController_SaveDraft(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{}
	c, n := newController(t, api)
	fillToPreview(t, c)

	res, err := c.SaveDraft(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^jane-doe-\d+$`), res.Profile.Slug)
	assert.Equal(t, res.Profile.Slug, c.Draft().Slug)
	require.Len(t, api.saves, 1)
	assert.True(t, api.saves[0].ManualSave)
	assert.False(t, api.saves[0].AutoSave)
	assert.Equal(t, "elite", api.saves[0].Tier)
	assert.Equal(t, []string{"ok: " + MsgDraftSaved}, n.all())
}

func TestController_SaveDraftFailureKeepsState(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{saveErr: errors.New("connection refused")}
	c, n := newController(t, api)
	fillToPreview(t, c)
	before := c.Draft()

	_, err := c.SaveDraft(context.Background())
	require.Error(t, err)
	assert.Equal(t, []string{"error: " + MsgSaveFailed}, n.all())
	assert.Equal(t, StepPreview, c.Step())
	assert.Equal(t, before, c.Draft())
}

func TestController_PublishTwoPhase(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{paid: true}
	c, n := newController(t, api)
	fillToPreview(t, c)

	out, err := c.Publish(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Published)
	require.Len(t, api.saves, 1)
	assert.Equal(t, []string{api.saves[0].Slug}, api.publishes, "publish uses the slug returned by the save")
	assert.Equal(t, "/profile/"+api.saves[0].Slug, out.URL)
	assert.Equal(t, []string{"ok: " + MsgPublished}, n.all())
}

func TestController_PublishUnpaidRequiresPayment(t *testing.T) {
	t.Parallel()
	c, n := newController(t, &fakeAPI{})
	fillToPreview(t, c)

	out, err := c.Publish(context.Background())
	require.NoError(t, err)
	assert.False(t, out.Published)
	assert.True(t, out.RequiresPayment)
	assert.Equal(t, "p1", out.ProfileID)
	assert.Equal(t, []string{"ok: " + MsgPaymentRequired}, n.all())
}

func TestController_PublishSecondPhaseFailureLeavesDraft(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{publishErr: &client.APIError{Status: 404, Code: "PROFILE_NOT_FOUND"}}
	c, n := newController(t, api)
	fillToPreview(t, c)

	_, err := c.Publish(context.Background())
	require.Error(t, err)
	assert.True(t, client.IsCode(err, "PROFILE_NOT_FOUND"))
	assert.Equal(t, []string{"error: " + MsgPublishFailed}, n.all())
	assert.Equal(t, StepPreview, c.Step())
	assert.Equal(t, api.saves[0].Slug, c.Draft().Slug, "the saved draft is kept for a retry")

	// Retry works once the API recovers.
	api.mu.Lock()
	api.publishErr = nil
	api.paid = true
	api.mu.Unlock()
	out, err := c.Publish(context.Background())
	require.NoError(t, err)
	assert.True(t, out.Published)
}

func TestController_PublishOnlyFromPreview(t *testing.T) {
	t.Parallel()
	api := &fakeAPI{}
	c, _ := newController(t, api)

	_, err := c.Publish(context.Background())
	assert.ErrorIs(t, err, ErrNotAtPreview)
	assert.Zero(t, api.saveCount())
}

func TestController_AutoSaveNeedsTwoCharacterName(t *testing.T) {
	t.Parallel()
	core, logs := observer.New(zap.WarnLevel)
	api := &fakeAPI{}
	n := &recordingNotifier{}
	c := NewController(api, memclock.NewManualClock(testNow), Options{Notifier: n, Logger: zap.New(core)})

	for _, name := range []string{"", " ", "J", "  J  ", "é"} {
		c.Update(func(ct *content.Content) { ct.Name = name })
		assert.False(t, c.AutoSave(context.Background()), "name %q", name)
	}
	assert.Zero(t, api.saveCount())

	c.Update(func(ct *content.Content) { ct.Name = " Jo " })
	assert.True(t, c.AutoSave(context.Background()))
	require.Equal(t, 1, api.saveCount())
	assert.True(t, api.saves[0].AutoSave)

	api.mu.Lock()
	api.saveErr = errors.New("offline")
	api.mu.Unlock()
	assert.True(t, c.AutoSave(context.Background()))
	assert.Empty(t, n.all(), "auto-save never notifies")
	assert.Equal(t, 1, logs.FilterMessage("auto-save failed").Len())
}

func TestController_ResumeFromProfile(t *testing.T) {
	t.Parallel()
	c, _ := newController(t, &fakeAPI{})

	require.NoError(t, c.Resume(client.Profile{
		Tier:    "elite",
		Slug:    "jane-doe-1",
		Content: []byte(`{"name":"Jane Doe","tagline":"Engineer"}`),
	}))
	d := c.Draft()
	assert.Equal(t, domain.TierElite, d.Tier)
	assert.Equal(t, "Jane Doe", d.Content.Name)
	assert.Equal(t, "jane-doe-1", d.Slug)

	assert.Error(t, c.Resume(client.Profile{Content: []byte(`{`)}))
}
