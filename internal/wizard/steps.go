// Package wizard drives the multi-step profile editor against the API: a linear step machine with
// per-step continue gates, manual save, two-phase publish and a periodic auto-saver.
package wizard

import (
	"strings"
	"unicode/utf8"

	"github.com/legacy-registry/profile-api/internal/content"
	"github.com/legacy-registry/profile-api/internal/domain"
)

type Step int

const (
	StepTierSelection Step = iota
	StepBasicInfo
	StepBiography
	StepAchievements
	StepLinksMedia
	StepPreview
)

const (
	firstStep = StepTierSelection
	lastStep  = StepPreview

	// minBioLength matches the content schema's lower bound for a biography.
	minBioLength = 50
	// minAutoSaveNameLength is the trimmed name length below which auto-save stays idle.
	minAutoSaveNameLength = 2
)

var stepNames = [...]string{
	StepTierSelection: "TIER_SELECTION",
	StepBasicInfo:     "BASIC_INFO",
	StepBiography:     "BIOGRAPHY",
	StepAchievements:  "ACHIEVEMENTS",
	StepLinksMedia:    "LINKS_MEDIA",
	StepPreview:       "PREVIEW",
}

func (s Step) String() string {
	if s < firstStep || s > lastStep {
		return "UNKNOWN"
	}
	return stepNames[s]
}

// Steps lists every step in order.
func Steps() []Step {
	out := make([]Step, 0, lastStep+1)
	for s := firstStep; s <= lastStep; s++ {
		out = append(out, s)
	}
	return out
}

// Draft is the editor state submitted on save.
type Draft struct {
	Tier    domain.Tier
	Content content.Content
	// Slug is the last slug confirmed by the server; empty before the first save.
	Slug string
}

// canContinue applies the step's own required-field gate. Preview is terminal.
func canContinue(step Step, d Draft) bool {
	switch step {
	case StepTierSelection:
		return d.Tier.Valid()
	case StepBasicInfo:
		return present(d.Content.Name) && present(d.Content.Tagline) && present(d.Content.HeroImage)
	case StepBiography:
		return utf8.RuneCountInString(strings.TrimSpace(d.Content.Bio)) >= minBioLength
	case StepAchievements:
		for _, a := range d.Content.Achievements {
			if !present(a.Title) {
				return false
			}
		}
		return true
	case StepLinksMedia:
		for _, l := range d.Content.Links {
			if !present(l.URL) {
				return false
			}
		}
		for _, m := range d.Content.Media {
			if !present(m.URL) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func present(s string) bool { return strings.TrimSpace(s) != "" }

// autoSaveEligible reports whether the draft has enough of a name to be worth persisting.
func autoSaveEligible(d Draft) bool {
	return utf8.RuneCountInString(strings.TrimSpace(d.Content.Name)) >= minAutoSaveNameLength
}
