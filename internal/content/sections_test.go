package content_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legacy-registry/profile-api/internal/content"
	"github.com/legacy-registry/profile-api/internal/domain"
)

func TestApplyAutoHide_NeverUnhides(t *testing.T) {
	t.Parallel()
	c := content.Content{
		Name:  "Jane Doe",
		Links: []content.Link{{URL: "https://example.com"}},
		Sections: map[domain.Section]content.SectionSettings{
			domain.SectionLinks: {Visible: false, AutoHideIfEmpty: true},
		},
	}
	content.ApplyAutoHide(&c)
	content.ApplyAutoHide(&c)

	assert.False(t, c.Settings(domain.SectionLinks).Visible)
	assert.False(t, c.Settings(domain.SectionTributes).Visible)
}

func TestApplyAutoHide_Idempotent(t *testing.T) {
	t.Parallel()
	c := content.Content{Name: "Jane Doe", Awards: []content.Award{{Name: "Prize"}}}
	content.ApplyAutoHide(&c)
	first := map[domain.Section]content.SectionSettings{}
	for k, v := range c.Sections {
		first[k] = v
	}
	content.ApplyAutoHide(&c)
	assert.Equal(t, first, c.Sections)
	assert.True(t, c.Settings(domain.SectionAwards).Visible)
}

func TestDisallowedSections(t *testing.T) {
	t.Parallel()
	c := content.Content{
		Name:            "Jane Doe",
		Achievements:    []content.Achievement{{Title: "First"}},
		Milestones:      []content.Milestone{{Title: "Second"}},
		Tributes:        []content.Tribute{{Author: "A", Message: "B"}},
		LegacyStatement: "Remembered.",
	}

	assert.Equal(t,
		[]domain.Section{domain.SectionMilestones, domain.SectionTributes, domain.SectionLegacyStatement},
		content.DisallowedSections(c, domain.TierRising))
	assert.Equal(t,
		[]domain.Section{domain.SectionTributes, domain.SectionLegacyStatement},
		content.DisallowedSections(c, domain.TierElite))
	assert.Empty(t, content.DisallowedSections(c, domain.TierLegacy))
}

func TestDisallowedSections_MediaLimit(t *testing.T) {
	t.Parallel()
	media := make([]content.MediaItem, 7)
	for i := range media {
		media[i] = content.MediaItem{URL: "https://cdn.example.com/x.png", Type: content.MediaTypeImage, Order: i}
	}
	c := content.Content{Name: "Jane Doe", Media: media}

	require.Equal(t, []domain.Section{domain.SectionMedia}, content.DisallowedSections(c, domain.TierRising))
	assert.Empty(t, content.DisallowedSections(c, domain.TierElite))
}
