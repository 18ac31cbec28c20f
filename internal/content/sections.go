package content

import "github.com/legacy-registry/profile-api/internal/domain"

// arraySections are the list-valued sections subject to auto-hide.
var arraySections = []domain.Section{
	domain.SectionLinks,
	domain.SectionMedia,
	domain.SectionAchievements,
	domain.SectionMilestones,
	domain.SectionLeadershipHighlights,
	domain.SectionTimeline,
	domain.SectionTributes,
	domain.SectionAwards,
	domain.SectionPublications,
	domain.SectionQuotes,
}

func knownSection(s domain.Section) bool {
	if s == domain.SectionLegacyStatement {
		return true
	}
	for _, v := range arraySections {
		if v == s {
			return true
		}
	}
	return false
}

// Len returns the number of entries in section s; legacy_statement counts as one when set.
func (c Content) Len(s domain.Section) int {
	switch s {
	case domain.SectionLinks:
		return len(c.Links)
	case domain.SectionMedia:
		return len(c.Media)
	case domain.SectionAchievements:
		return len(c.Achievements)
	case domain.SectionMilestones:
		return len(c.Milestones)
	case domain.SectionLeadershipHighlights:
		return len(c.LeadershipHighlights)
	case domain.SectionTimeline:
		return len(c.Timeline)
	case domain.SectionTributes:
		return len(c.Tributes)
	case domain.SectionAwards:
		return len(c.Awards)
	case domain.SectionPublications:
		return len(c.Publications)
	case domain.SectionQuotes:
		return len(c.Quotes)
	case domain.SectionLegacyStatement:
		if c.LegacyStatement != "" {
			return 1
		}
	}
	return 0
}

// Settings returns the effective settings for s, falling back to the defaults.
func (c Content) Settings(s domain.Section) SectionSettings {
	if st, ok := c.Sections[s]; ok {
		return st
	}
	return DefaultSectionSettings()
}

// ApplyAutoHide fills in settings for every array section and hides the empty ones that opt in.
// A section is never made visible here.
func ApplyAutoHide(c *Content) {
	if c.Sections == nil {
		c.Sections = make(map[domain.Section]SectionSettings, len(arraySections))
	}
	for _, s := range arraySections {
		st := c.Settings(s)
		if st.AutoHideIfEmpty && c.Len(s) == 0 {
			st.Visible = false
		}
		c.Sections[s] = st
	}
}

// DisallowedSections lists the non-empty sections the tier does not unlock, in schema order.
// Media also counts as disallowed when it exceeds the tier's media limit.
func DisallowedSections(c Content, tier domain.Tier) []domain.Section {
	caps := tier.Capabilities()
	var out []domain.Section
	for _, s := range append(append([]domain.Section{}, arraySections...), domain.SectionLegacyStatement) {
		n := c.Len(s)
		if n == 0 {
			continue
		}
		if !caps.Allows(s) || (s == domain.SectionMedia && n > caps.MaxMedia) {
			out = append(out, s)
		}
	}
	return out
}
