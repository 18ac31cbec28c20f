package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legacy-registry/profile-api/internal/domain"
)

func TestParseTier(t *testing.T) {
	got, err := domain.ParseTier("  Elite ")
	require.NoError(t, err)
	assert.Equal(t, domain.TierElite, got)

	_, err = domain.ParseTier("platinum")
	assert.Error(t, err)
}

func TestTierCapabilities_AreCumulative(t *testing.T) {
	rising := domain.TierRising.Capabilities()
	elite := domain.TierElite.Capabilities()
	legacy := domain.TierLegacy.Capabilities()

	assert.True(t, rising.Allows(domain.SectionAchievements))
	assert.False(t, rising.Allows(domain.SectionMilestones))
	assert.True(t, elite.Allows(domain.SectionMilestones))
	assert.False(t, elite.Allows(domain.SectionTributes))
	assert.True(t, legacy.Allows(domain.SectionTributes))
	assert.True(t, legacy.Allows(domain.SectionTimeline))

	assert.True(t, rising.Price.LessThan(elite.Price))
	assert.True(t, elite.Price.LessThan(legacy.Price))
}

func TestTierCapabilities_EditorialAliases(t *testing.T) {
	assert.Equal(t, domain.TierRising.Capabilities().MaxMedia, domain.TierEmerging.Capabilities().MaxMedia)
	assert.Equal(t, domain.TierElite.Capabilities().Sections, domain.TierAccomplished.Capabilities().Sections)
	for _, tier := range domain.AllTiers() {
		assert.True(t, tier.Valid(), tier)
		assert.Positive(t, tier.Capabilities().AIPolishDailyLimit, tier)
	}
	assert.False(t, domain.Tier("gold").Valid())
}
