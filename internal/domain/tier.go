package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Tier is a closed enumeration of profile plans. Use ParseTier to construct one from input.
type Tier string

const (
	TierRising Tier = "rising"
	TierElite  Tier = "elite"
	TierLegacy Tier = "legacy"

	// Editorial family used by nominations and the editorial review desk.
	TierEmerging      Tier = "emerging"
	TierAccomplished  Tier = "accomplished"
	TierDistinguished Tier = "distinguished"
)

// Section names an optional, tier-gated part of the profile content.
type Section string

const (
	SectionLinks                Section = "links"
	SectionMedia                Section = "media"
	SectionAchievements         Section = "achievements"
	SectionMilestones           Section = "milestones"
	SectionLeadershipHighlights Section = "leadership_highlights"
	SectionAwards               Section = "awards"
	SectionTimeline             Section = "timeline"
	SectionPublications         Section = "publications"
	SectionTributes             Section = "tributes"
	SectionQuotes               Section = "quotes"
	SectionLegacyStatement      Section = "legacy_statement"
)

// Capabilities is the feature set unlocked by a tier.
type Capabilities struct {
	Sections           []Section
	MaxMedia           int
	AIPolishDailyLimit int
	// Price is in major currency units.
	Price decimal.Decimal
}

// Allows reports whether the section is editable on this tier.
func (c Capabilities) Allows(s Section) bool {
	for _, v := range c.Sections {
		if v == s {
			return true
		}
	}
	return false
}

var (
	baseSections = []Section{SectionLinks, SectionMedia, SectionAchievements}
	eliteExtra   = []Section{SectionMilestones, SectionLeadershipHighlights, SectionAwards}
	distExtra    = []Section{SectionTimeline, SectionPublications}
	legacyExtra  = []Section{SectionTributes, SectionQuotes, SectionLegacyStatement}
)

func sections(groups ...[]Section) []Section {
	var out []Section
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

var capabilities = map[Tier]Capabilities{
	TierRising: {
		Sections:           sections(baseSections),
		MaxMedia:           6,
		AIPolishDailyLimit: 3,
		Price:              decimal.NewFromInt(4999),
	},
	TierElite: {
		Sections:           sections(baseSections, eliteExtra),
		MaxMedia:           15,
		AIPolishDailyLimit: 10,
		Price:              decimal.NewFromInt(14999),
	},
	TierDistinguished: {
		Sections:           sections(baseSections, eliteExtra, distExtra),
		MaxMedia:           25,
		AIPolishDailyLimit: 20,
		Price:              decimal.NewFromInt(29999),
	},
	TierLegacy: {
		Sections:           sections(baseSections, eliteExtra, distExtra, legacyExtra),
		MaxMedia:           50,
		AIPolishDailyLimit: 50,
		Price:              decimal.NewFromInt(49999),
	},
}

func init() {
	capabilities[TierEmerging] = capabilities[TierRising]
	capabilities[TierAccomplished] = capabilities[TierElite]
}

// AllTiers lists every valid tier in ascending order of capability.
func AllTiers() []Tier {
	return []Tier{TierRising, TierEmerging, TierElite, TierAccomplished, TierDistinguished, TierLegacy}
}

// ParseTier validates s (case-insensitive, surrounding whitespace ignored).
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := capabilities[t]; !ok {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}

// Valid reports whether t is a member of the enumeration.
func (t Tier) Valid() bool {
	_, ok := capabilities[t]
	return ok
}

// Capabilities returns the capability set of t. Invalid tiers get the zero value.
func (t Tier) Capabilities() Capabilities {
	return capabilities[t]
}

func (t Tier) String() string { return string(t) }
