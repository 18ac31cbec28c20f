package wizard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/legacy-registry/profile-api/internal/content"
	"github.com/legacy-registry/profile-api/internal/domain"
	clockport "github.com/legacy-registry/profile-api/internal/ports/out/clock"
	"github.com/legacy-registry/profile-api/pkg/client"
)

// User-facing notifier messages.
const (
	MsgDraftSaved      = "Draft saved"
	MsgSaveFailed      = "Failed to save draft"
	MsgPublished       = "Profile published"
	MsgPaymentRequired = "Payment required to publish"
	MsgPublishFailed   = "Failed to publish profile"
)

const (
	saveTriggerAuto    = "auto"
	saveTriggerManual  = "manual"
	saveTriggerPublish = "publish"
)

var ErrNotAtPreview = errors.New("wizard: publish is only available on the preview step")

// API is the slice of the profile API the wizard needs. *client.Client satisfies it.
type API interface {
	SaveDraft(ctx context.Context, req client.SaveDraftRequest) (client.SaveDraftResponse, error)
	Publish(ctx context.Context, slug string) (client.PublishResponse, error)
}

// Notifier shows transient user-facing messages.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

type Options struct {
	Notifier Notifier
	Logger   *zap.Logger
}

// Controller owns the editor state. It is safe for concurrent use; network calls run without the
// lock held, so overlapping saves resolve last-write-wins.
type Controller struct {
	api      API
	clk      clockport.Clock
	notifier Notifier
	logger   *zap.Logger

	mu        sync.Mutex
	step      Step
	completed map[Step]bool
	draft     Draft
}

func NewController(api API, clk clockport.Clock, opts Options) *Controller {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Controller{
		api:       api,
		clk:       clk,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		step:      firstStep,
		completed: make(map[Step]bool),
	}
}

// Resume seeds the editor from a previously saved profile.
func (c *Controller) Resume(p client.Profile) error {
	var ct content.Content
	if len(p.Content) > 0 {
		if err := json.Unmarshal(p.Content, &ct); err != nil {
			return fmt.Errorf("decode draft content: %w", err)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = Draft{Tier: domain.Tier(p.Tier), Content: ct, Slug: p.Slug}
	return nil
}

func (c *Controller) Step() Step {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.step
}

func (c *Controller) Completed(s Step) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed[s]
}

// Draft returns a copy of the current editor state.
func (c *Controller) Draft() Draft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) SetTier(s string) error {
	t, err := domain.ParseTier(s)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.draft.Tier = t
	c.mu.Unlock()
	return nil
}

// Update applies fn to the draft content under the controller lock.
func (c *Controller) Update(fn func(*content.Content)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.draft.Content)
}

// Editable reports whether the selected tier unlocks section s.
func (c *Controller) Editable(s domain.Section) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft.Tier.Capabilities().Allows(s)
}

func (c *Controller) CanContinue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return canContinue(c.step, c.draft)
}

// Next marks the current step complete and advances one step. It reports false, changing nothing,
// when the current step's gate is closed or the wizard is already on the preview.
func (c *Controller) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step >= lastStep || !canContinue(c.step, c.draft) {
		return false
	}
	c.completed[c.step] = true
	c.step++
	return true
}

// Prev goes back one step. Completion marks are kept. No-op on the first step.
func (c *Controller) Prev() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.step <= firstStep {
		return false
	}
	c.step--
	return true
}

// SaveDraft is the explicit save action. Failures are surfaced through the notifier and returned;
// the editor state is left as it was.
func (c *Controller) SaveDraft(ctx context.Context) (client.SaveDraftResponse, error) {
	res, err := c.save(ctx, saveTriggerManual)
	if err != nil {
		c.notifier.Error(MsgSaveFailed)
		return client.SaveDraftResponse{}, err
	}
	c.notifier.Success(MsgDraftSaved)
	return res, nil
}

// AutoSave saves when the name is long enough. Errors are logged, never surfaced.
// It reports whether a request was sent.
func (c *Controller) AutoSave(ctx context.Context) bool {
	c.mu.Lock()
	eligible := autoSaveEligible(c.draft)
	c.mu.Unlock()
	if !eligible {
		return false
	}
	if _, err := c.save(ctx, saveTriggerAuto); err != nil {
		c.logger.Warn("auto-save failed", zap.Error(err))
	}
	return true
}

type PublishOutcome struct {
	Published       bool   `json:"published"`
	RequiresPayment bool   `json:"requiresPayment"`
	ProfileID       string `json:"profileId"`
	Tier            string `json:"tier"`
	Slug            string `json:"slug"`
	URL             string `json:"url,omitempty"`
}

// Publish saves the draft to confirm a slug, then publishes by that slug. The two calls are not
// atomic: when the second fails the profile stays a saved draft and the user retries publish.
func (c *Controller) Publish(ctx context.Context) (PublishOutcome, error) {
	if c.Step() != StepPreview {
		return PublishOutcome{}, ErrNotAtPreview
	}

	saved, err := c.save(ctx, saveTriggerPublish)
	if err != nil {
		c.notifier.Error(MsgPublishFailed)
		return PublishOutcome{}, err
	}

	res, err := c.api.Publish(ctx, saved.Profile.Slug)
	if err != nil {
		c.notifier.Error(MsgPublishFailed)
		return PublishOutcome{}, fmt.Errorf("publish %q: %w", saved.Profile.Slug, err)
	}

	out := PublishOutcome{
		Published:       res.Success && !res.RequiresPayment,
		RequiresPayment: res.RequiresPayment,
		ProfileID:       res.ProfileID,
		Tier:            res.Tier,
		Slug:            saved.Profile.Slug,
		URL:             res.URL,
	}
	if out.Published {
		c.notifier.Success(MsgPublished)
	} else if out.RequiresPayment {
		c.notifier.Success(MsgPaymentRequired)
	}
	return out, nil
}

func (c *Controller) save(ctx context.Context, trigger string) (client.SaveDraftResponse, error) {
	c.mu.Lock()
	d := c.snapshotLocked()
	c.mu.Unlock()

	req := client.SaveDraftRequest{
		Content:    d.Content,
		Tier:       string(d.Tier),
		Slug:       domain.NewSlug(d.Content.Name, c.clk.Now()),
		AutoSave:   trigger == saveTriggerAuto,
		ManualSave: trigger != saveTriggerAuto,
	}
	res, err := c.api.SaveDraft(ctx, req)
	if err != nil {
		return client.SaveDraftResponse{}, err
	}

	c.mu.Lock()
	c.draft.Slug = res.Profile.Slug
	c.mu.Unlock()
	if len(res.Warnings.DisallowedSections) > 0 {
		c.logger.Info("draft has sections outside its tier",
			zap.String("trigger", trigger),
			zap.Strings("sections", res.Warnings.DisallowedSections),
		)
	}
	return res, nil
}

// snapshotLocked deep-copies the draft so a save can encode it without the lock.
func (c *Controller) snapshotLocked() Draft {
	d := c.draft
	d.Content = c.draft.Content.Clone()
	return d
}
