package profiles

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/legacy-registry/profile-api/internal/content"
	"github.com/legacy-registry/profile-api/internal/domain"
)

// SlugPolicy decides what happens to an existing draft's slug on save.
type SlugPolicy string

const (
	// SlugPolicyPerSave takes the submitted (or freshly derived) slug on every save.
	SlugPolicyPerSave SlugPolicy = "per_save"
	// SlugPolicyStable keeps the first slug assigned to the profile.
	SlugPolicyStable SlugPolicy = "stable"
)

// TierEnforcement decides whether tier-gated sections are advisory or enforced at publish time.
type TierEnforcement string

const (
	TierEnforcementAdvisory TierEnforcement = "advisory"
	TierEnforcementStrict   TierEnforcement = "strict"
)

func ParseSlugPolicy(s string) (SlugPolicy, error) {
	switch p := SlugPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return SlugPolicyPerSave, nil
	case SlugPolicyPerSave, SlugPolicyStable:
		return p, nil
	default:
		return "", fmt.Errorf("unknown slug policy %q", s)
	}
}

func ParseTierEnforcement(s string) (TierEnforcement, error) {
	switch e := TierEnforcement(strings.ToLower(strings.TrimSpace(s))); e {
	case "":
		return TierEnforcementAdvisory, nil
	case TierEnforcementAdvisory, TierEnforcementStrict:
		return e, nil
	default:
		return "", fmt.Errorf("unknown tier enforcement %q", s)
	}
}

type Config struct {
	SlugPolicy      SlugPolicy
	TierEnforcement TierEnforcement
}

type SaveDraftInput struct {
	Content json.RawMessage
	Tier    string
	// Slug is optional; when empty one is derived from the content name.
	Slug string

	AutoSave   bool
	ManualSave bool
}

type SaveDraftResult struct {
	Profile domain.Profile
	Created bool
	// DisallowedSections lists populated sections the tier does not unlock.
	DisallowedSections []domain.Section
}

type DraftResult struct {
	HasDraft bool
	Profile  *domain.Profile
}

type PublishResult struct {
	Profile         domain.Profile
	RequiresPayment bool
	// NewlyPublished is set only on the call that made the profile public.
	NewlyPublished bool
}

type PublishStatus struct {
	IsPublished bool
	PublishedAt *time.Time
}

// PublicProfile is the public page payload of a published profile.
type PublicProfile struct {
	Profile domain.Profile
	Content content.Content
	// VisibleSections are the sections the tier unlocks and the content leaves visible.
	VisibleSections []domain.Section
}
