package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryConfigAllows(t *testing.T) {
	testCases := []struct {
		category Category
		elo      float64
		eligible bool
	}{
		{CategoryBronze, 0.9, false},
		{CategoryBronze, 1.0, true},
		{CategoryBronze, 1.99, true},
		{CategoryBronze, 2.0, false}, // half-open upper bound
		{CategorySilver, 2.0, true},
		{CategorySilver, 3.0, false},
		{CategoryGold, 3.5, true},
		{CategoryPlatinum, 4.0, true},
		{CategoryPlatinum, 9.7, true}, // open-ended top tier
		{CategoryPlatinum, 3.99, false},
	}
	for _, tc := range testCases {
		cfg, ok := NewCategoryConfig(1, tc.category, 16)
		require.True(t, ok)
		assert.Equal(t, tc.eligible, cfg.Allows(tc.elo),
			"%s with elo %.2f", tc.category, tc.elo)
	}
}

func TestCanonicalBandsAreMonotonic(t *testing.T) {
	prevMin := -1.0
	for i, c := range CategoryOrder {
		band, ok := CanonicalBand(c)
		require.True(t, ok)
		assert.Greater(t, band.Min, prevMin)
		if i < len(CategoryOrder)-1 {
			require.NotNil(t, band.Max)
			next, _ := CanonicalBand(CategoryOrder[i+1])
			assert.Equal(t, *band.Max, next.Min, "bands must tile without gaps")
		} else {
			assert.Nil(t, band.Max, "top tier is open-ended")
		}
		prevMin = band.Min
	}
}

func TestMatchesCanonical(t *testing.T) {
	cfg, ok := NewCategoryConfig(1, CategoryGold, 8)
	require.True(t, ok)
	assert.True(t, cfg.MatchesCanonical())

	drifted := cfg
	drifted.MinElo = 3.2
	assert.False(t, drifted.MatchesCanonical())
}

func TestValidStatusTransition(t *testing.T) {
	assert.True(t, ValidStatusTransition(StatusRegistrationOpen, StatusRegistrationClosed))
	assert.True(t, ValidStatusTransition(StatusInProgress, StatusCompleted))
	assert.True(t, ValidStatusTransition(StatusRegistrationOpen, StatusCancelled))
	assert.True(t, ValidStatusTransition(StatusInProgress, StatusInProgress))

	assert.False(t, ValidStatusTransition(StatusCompleted, StatusInProgress))
	assert.False(t, ValidStatusTransition(StatusCancelled, StatusRegistrationOpen))
	assert.False(t, ValidStatusTransition(StatusRegistrationClosed, StatusRegistrationOpen))
	assert.False(t, ValidStatusTransition(StatusDraft, StatusCompleted))
}
