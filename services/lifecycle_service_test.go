package services

import (
	"context"
	"testing"
	"time"

	"github.com/padelpoint/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecideLifecycleAction(t *testing.T) {
	now := time.Date(2026, time.July, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name              string
		status            models.TournamentStatus
		deadline          time.Time
		endDate           time.Time
		openMatches       int
		scheduleGenerated bool
		want              lifecycleAction
	}{
		{
			name:     "open registration past deadline closes",
			status:   models.StatusRegistrationOpen,
			deadline: now.Add(-time.Hour),
			endDate:  now.Add(48 * time.Hour),
			want:     actionCloseRegistration,
		},
		{
			name:     "open registration before deadline untouched",
			status:   models.StatusRegistrationOpen,
			deadline: now.Add(time.Hour),
			endDate:  now.Add(48 * time.Hour),
			want:     actionNone,
		},
		{
			name:        "in progress past end date with open matches stays",
			status:      models.StatusInProgress,
			deadline:    now.Add(-72 * time.Hour),
			endDate:     now.Add(-time.Hour),
			openMatches: 3,
			want:        actionNone,
		},
		{
			name:        "in progress past end date fully decided completes",
			status:      models.StatusInProgress,
			deadline:    now.Add(-72 * time.Hour),
			endDate:     now.Add(-time.Hour),
			openMatches: 0,
			want:        actionComplete,
		},
		{
			name:        "closed past end date with open matches forced in progress",
			status:      models.StatusRegistrationClosed,
			deadline:    now.Add(-72 * time.Hour),
			endDate:     now.Add(-time.Hour),
			openMatches: 2,
			want:        actionForceInProgress,
		},
		{
			name:        "closed past end date without matches completes",
			status:      models.StatusRegistrationClosed,
			deadline:    now.Add(-72 * time.Hour),
			endDate:     now.Add(-time.Hour),
			openMatches: 0,
			want:        actionComplete,
		},
		{
			name:              "in progress before end date untouched",
			status:            models.StatusInProgress,
			deadline:          now.Add(-72 * time.Hour),
			endDate:           now.Add(time.Hour),
			scheduleGenerated: true,
			want:              actionNone,
		},
		{
			name:     "in progress without schedule retries generation",
			status:   models.StatusInProgress,
			deadline: now.Add(-72 * time.Hour),
			endDate:  now.Add(time.Hour),
			want:     actionGenerateSchedule,
		},
		{
			name:        "in progress without schedule past end date never scheduled",
			status:      models.StatusInProgress,
			deadline:    now.Add(-72 * time.Hour),
			endDate:     now.Add(-time.Hour),
			openMatches: 1,
			want:        actionNone,
		},
		{
			name:     "closed without schedule has no bracket to schedule",
			status:   models.StatusRegistrationClosed,
			deadline: now.Add(-time.Hour),
			endDate:  now.Add(48 * time.Hour),
			want:     actionNone,
		},
		{
			name:     "completed is terminal",
			status:   models.StatusCompleted,
			deadline: now.Add(-72 * time.Hour),
			endDate:  now.Add(-time.Hour),
			want:     actionNone,
		},
		{
			name:     "draft never swept",
			status:   models.StatusDraft,
			deadline: now.Add(-time.Hour),
			endDate:  now.Add(-time.Hour),
			want:     actionNone,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tournament := &models.Tournament{
				Status:               tc.status,
				RegistrationDeadline: tc.deadline,
				EndDate:              tc.endDate,
				ScheduleGenerated:    tc.scheduleGenerated,
			}
			got := decideLifecycleAction(tournament, now, tc.openMatches)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecideLifecycleActionIsIdempotent(t *testing.T) {
	// Applying the decided transition must yield a state the sweep leaves
	// alone on the next pass.
	now := time.Date(2026, time.July, 10, 12, 0, 0, 0, time.UTC)
	tournament := &models.Tournament{
		Status:               models.StatusRegistrationOpen,
		RegistrationDeadline: now.Add(-time.Minute),
		EndDate:              now.Add(24 * time.Hour),
	}

	assert.Equal(t, actionCloseRegistration, decideLifecycleAction(tournament, now, 0))

	// Registration close succeeded but allocation failed: the sweep keeps
	// retrying generation until the schedule flag flips.
	tournament.Status = models.StatusInProgress
	assert.Equal(t, actionGenerateSchedule, decideLifecycleAction(tournament, now, 5))
	assert.Equal(t, actionGenerateSchedule, decideLifecycleAction(tournament, now, 5))

	tournament.ScheduleGenerated = true
	assert.Equal(t, actionNone, decideLifecycleAction(tournament, now, 5))

	tournament.Status = models.StatusCompleted
	assert.Equal(t, actionNone, decideLifecycleAction(tournament, now, 0))
}

func TestRunSweepRetriesScheduleGeneration(t *testing.T) {
	// An in-progress tournament whose earlier allocation attempt failed is
	// picked up on the next tick and scheduled end to end.
	now := time.Date(2026, time.July, 10, 12, 0, 0, 0, time.UTC)
	tournament := &models.Tournament{
		ID:                   1,
		ClubID:               3,
		Status:               models.StatusInProgress,
		RegistrationDeadline: now.Add(-24 * time.Hour),
		StartDate:            now.Add(2 * time.Hour),
		EndDate:              now.Add(26 * time.Hour),
		AutoScheduleEnabled:  true,
		MatchDurationMinutes: 60,
	}
	tournaments := newFakeTournamentRepo(tournament)
	matches := newFakeMatchRepo(openMatch(1, 1, 10, 20))
	reservations := &fakeReservationRepo{}
	notifier := &captureNotifier{}
	courts := &fakeCourtRepo{courts: []*models.Court{
		{ID: 9, ClubID: 3, Name: "Center", OpeningHour: 8, ClosingHour: 22},
	}}

	schedule := NewScheduleService(newFakeDB(), tournaments, matches, courts,
		fakeBookingRepo{}, reservations, notifier, discardLogger())
	svc := NewLifecycleService(newFakeDB(), tournaments, matches, reservations,
		&fakeStateRepo{}, nil, schedule, nil, notifier, discardLogger())
	svc.now = func() time.Time { return now }

	report, err := svc.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.RegistrationClosed)
	assert.Empty(t, report.Completed)

	assert.True(t, tournament.ScheduleGenerated)
	scheduled, err := matches.GetByID(context.Background(), nil, 1)
	require.NoError(t, err)
	require.NotNil(t, scheduled.CourtID)
	assert.Equal(t, 9, *scheduled.CourtID)
	require.NotNil(t, scheduled.ScheduledTime)
	assert.Equal(t, tournament.StartDate, *scheduled.ScheduledTime)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, EventMatchScheduled, notifier.events[0].Type)
	assert.Equal(t, 1, notifier.events[0].TournamentID)

	// The flag is set now, so the next tick leaves the tournament alone.
	report, err = svc.RunSweep(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.RegistrationClosed)
	assert.Empty(t, report.Completed)
	assert.Len(t, notifier.events, 1)
}
