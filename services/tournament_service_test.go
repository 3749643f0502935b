package services

import (
	"testing"
	"time"

	"github.com/padelpoint/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCategoryConfigsCanonicalBands(t *testing.T) {
	configs, err := buildCategoryConfigs([]CategoryInput{
		{Category: models.CategoryBronze, MaxParticipants: 8},
		{Category: models.CategoryPlatinum, MaxParticipants: 4},
	})
	require.NoError(t, err)
	require.Len(t, configs, 2)

	assert.Equal(t, 1.0, configs[0].MinElo)
	require.NotNil(t, configs[0].MaxElo)
	assert.Equal(t, 2.0, *configs[0].MaxElo)

	assert.Equal(t, 4.0, configs[1].MinElo)
	assert.Nil(t, configs[1].MaxElo, "top tier band is open-ended")
}

func TestBuildCategoryConfigsRejectsOverlap(t *testing.T) {
	lowMax := 2.5
	_, err := buildCategoryConfigs([]CategoryInput{
		{Category: models.CategoryBronze, MaxParticipants: 8, MaxElo: &lowMax},
		{Category: models.CategorySilver, MaxParticipants: 8},
	})
	assert.ErrorIs(t, err, ErrOverlappingBands)
}

func TestBuildCategoryConfigsRejectsDuplicatesAndBadInput(t *testing.T) {
	_, err := buildCategoryConfigs([]CategoryInput{
		{Category: models.CategoryGold, MaxParticipants: 8},
		{Category: models.CategoryGold, MaxParticipants: 8},
	})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = buildCategoryConfigs([]CategoryInput{
		{Category: models.Category("DIAMOND"), MaxParticipants: 8},
	})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = buildCategoryConfigs([]CategoryInput{
		{Category: models.CategorySilver, MaxParticipants: 0},
	})
	assert.ErrorIs(t, err, ErrInvalidCapacity)

	_, err = buildCategoryConfigs(nil)
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestBuildCategoryConfigsRejectsInvertedBand(t *testing.T) {
	badMax := 0.5
	_, err := buildCategoryConfigs([]CategoryInput{
		{Category: models.CategoryBronze, MaxParticipants: 8, MaxElo: &badMax},
	})
	assert.ErrorIs(t, err, ErrInvalidCategoryBand)
}

func TestValidateTournamentDates(t *testing.T) {
	start := date(2026, time.April, 10)
	end := start.Add(6 * time.Hour)
	deadline := start.Add(-24 * time.Hour)

	assert.NoError(t, validateTournamentDates(deadline, start, end))
	assert.ErrorIs(t, validateTournamentDates(deadline, end, start), ErrInvalidDateRange)
	assert.ErrorIs(t, validateTournamentDates(start, start, end), ErrInvalidRegDeadline)
	assert.ErrorIs(t, validateTournamentDates(time.Time{}, start, end), ErrValidationFailed)
}
