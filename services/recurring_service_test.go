package services

import (
	"testing"
	"time"

	"github.com/padelpoint/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeeklyOccurrencesFourteenDayHorizon(t *testing.T) {
	// Every Tuesday, horizon of two weeks: exactly two occurrences, then a
	// second run over the same horizon finds them both materialized.
	rec := &models.RecurringTournament{
		RecurrencePattern: models.RecurrenceWeekly,
		IntervalValue:     1,
		DaysOfWeek:        []int64{2}, // Tuesday
		SeriesStartDate:   date(2026, time.January, 6),
		StartHour:         18,
	}

	from := date(2026, time.March, 2) // a Monday
	to := from.AddDate(0, 0, 14)

	got := occurrencesBetween(rec, from, to)
	require.Len(t, got, 2)
	assert.Equal(t, date(2026, time.March, 3).Add(18*time.Hour), got[0])
	assert.Equal(t, date(2026, time.March, 10).Add(18*time.Hour), got[1])
	for _, occ := range got {
		assert.Equal(t, time.Tuesday, occ.Weekday())
	}
}

func TestWeeklyOccurrencesRespectInterval(t *testing.T) {
	// Every second Saturday.
	rec := &models.RecurringTournament{
		RecurrencePattern: models.RecurrenceWeekly,
		IntervalValue:     2,
		DaysOfWeek:        []int64{6},
		SeriesStartDate:   date(2026, time.January, 3), // a Saturday
		StartHour:         10,
	}

	got := occurrencesBetween(rec, date(2026, time.January, 1), date(2026, time.February, 1))
	require.Len(t, got, 3)
	assert.Equal(t, 3, got[0].Day())
	assert.Equal(t, 17, got[1].Day())
	assert.Equal(t, 31, got[2].Day())
}

func TestMonthlyOccurrenceClampsToMonthLength(t *testing.T) {
	day := 31
	rec := &models.RecurringTournament{
		RecurrencePattern: models.RecurrenceMonthly,
		IntervalValue:     1,
		DayOfMonth:        &day,
		SeriesStartDate:   date(2026, time.January, 31),
		StartHour:         9,
	}

	got := occurrencesBetween(rec, date(2026, time.February, 1), date(2026, time.March, 31))
	require.Len(t, got, 2)
	// February has 28 days in 2026; March keeps the configured day.
	assert.Equal(t, date(2026, time.February, 28).Add(9*time.Hour), got[0])
	assert.Equal(t, date(2026, time.March, 31).Add(9*time.Hour), got[1])
}

func TestCustomOccurrencesEveryNDays(t *testing.T) {
	rec := &models.RecurringTournament{
		RecurrencePattern: models.RecurrenceCustom,
		IntervalValue:     10,
		SeriesStartDate:   date(2026, time.May, 1),
		StartHour:         20,
	}

	got := occurrencesBetween(rec, date(2026, time.May, 1), date(2026, time.May, 31))
	require.Len(t, got, 4)
	assert.Equal(t, []int{1, 11, 21, 31}, []int{got[0].Day(), got[1].Day(), got[2].Day(), got[3].Day()})
}

func TestWeeklyOccurrencesAcrossDSTTransition(t *testing.T) {
	// Clocks spring forward on 2026-03-29 in Madrid; the occurrence two
	// weeks after the series start must not be lost to the missing hour.
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	rec := &models.RecurringTournament{
		RecurrencePattern: models.RecurrenceWeekly,
		IntervalValue:     2,
		DaysOfWeek:        []int64{0}, // Sunday
		SeriesStartDate:   time.Date(2026, time.March, 22, 0, 0, 0, 0, madrid),
		StartHour:         10,
	}

	got := occurrencesBetween(rec,
		time.Date(2026, time.March, 22, 0, 0, 0, 0, madrid),
		time.Date(2026, time.April, 19, 0, 0, 0, 0, madrid))
	require.Len(t, got, 3)
	assert.Equal(t, 22, got[0].Day())
	assert.Equal(t, 5, got[1].Day())
	assert.Equal(t, 19, got[2].Day())
}

func TestCustomOccurrencesAcrossDSTTransition(t *testing.T) {
	madrid, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)

	rec := &models.RecurringTournament{
		RecurrencePattern: models.RecurrenceCustom,
		IntervalValue:     10,
		SeriesStartDate:   time.Date(2026, time.March, 25, 0, 0, 0, 0, madrid),
		StartHour:         20,
	}

	got := occurrencesBetween(rec,
		time.Date(2026, time.March, 25, 0, 0, 0, 0, madrid),
		time.Date(2026, time.April, 14, 0, 0, 0, 0, madrid))
	require.Len(t, got, 3)
	assert.Equal(t, 25, got[0].Day())
	assert.Equal(t, 4, got[1].Day())
	assert.Equal(t, 14, got[2].Day())
}

func TestOccurrencesBoundedBySeriesDates(t *testing.T) {
	end := date(2026, time.June, 10)
	rec := &models.RecurringTournament{
		RecurrencePattern: models.RecurrenceCustom,
		IntervalValue:     1,
		SeriesStartDate:   date(2026, time.June, 5),
		SeriesEndDate:     &end,
		StartHour:         8,
	}

	got := occurrencesBetween(rec, date(2026, time.June, 1), date(2026, time.June, 30))
	require.Len(t, got, 6)
	assert.Equal(t, 5, got[0].Day())
	assert.Equal(t, 10, got[len(got)-1].Day())
}

func TestValidateRecurrence(t *testing.T) {
	day := 15
	base := func() *models.RecurringTournament {
		return &models.RecurringTournament{
			Type:              models.TypeAmericano,
			RecurrencePattern: models.RecurrenceMonthly,
			IntervalValue:     1,
			DayOfMonth:        &day,
			SeriesStartDate:   date(2026, time.January, 1),
			StartHour:         18,
			DurationHours:     4,
			Templates: []models.CategoryTemplate{
				{Category: models.CategoryBronze, MaxParticipants: 8},
			},
		}
	}

	assert.NoError(t, validateRecurrence(base()))

	weekly := base()
	weekly.RecurrencePattern = models.RecurrenceWeekly
	weekly.DaysOfWeek = nil
	assert.ErrorIs(t, validateRecurrence(weekly), ErrInvalidRecurrence)

	noTemplates := base()
	noTemplates.Templates = nil
	assert.ErrorIs(t, validateRecurrence(noTemplates), ErrInvalidRecurrence)

	badInterval := base()
	badInterval.IntervalValue = 0
	assert.ErrorIs(t, validateRecurrence(badInterval), ErrInvalidRecurrence)

	badEnd := base()
	endBefore := date(2025, time.December, 1)
	badEnd.SeriesEndDate = &endBefore
	assert.ErrorIs(t, validateRecurrence(badEnd), ErrInvalidRecurrence)
}
