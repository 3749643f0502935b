package services

import (
	"context"
	"testing"

	"github.com/padelpoint/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type matchFixture struct {
	svc          *MatchService
	tournaments  *fakeTournamentRepo
	matches      *fakeMatchRepo
	reservations *fakeReservationRepo
	ratings      *captureRatingUpdater
	notified     *captureNotifier
}

func newMatchFixture(tournament *models.Tournament, matches ...*models.Match) *matchFixture {
	f := &matchFixture{
		tournaments:  newFakeTournamentRepo(tournament),
		matches:      newFakeMatchRepo(matches...),
		reservations: &fakeReservationRepo{},
		ratings:      &captureRatingUpdater{},
		notified:     &captureNotifier{},
	}
	f.svc = NewMatchService(newFakeDB(), f.tournaments, f.matches, f.reservations,
		f.ratings, f.notified, discardLogger())
	return f
}

func openMatch(id, tournamentID, team1, team2 int) *models.Match {
	return &models.Match{
		ID:           id,
		TournamentID: tournamentID,
		RoundNumber:  1,
		Team1ID:      &team1,
		Team2ID:      &team2,
		Status:       models.MatchScheduled,
	}
}

func TestCompleteRecordsResultAndAdvancesWinner(t *testing.T) {
	semifinal := openMatch(1, 42, 10, 20)
	semifinal.WinnerAdvancesToMatchID = intRef(2)
	final := &models.Match{
		ID:           2,
		TournamentID: 42,
		RoundNumber:  2,
		Team1ID:      intRef(30),
		Status:       models.MatchScheduled,
	}
	f := newMatchFixture(&models.Tournament{
		ID:           42,
		Status:       models.StatusInProgress,
		RatingWeight: 1.5,
	}, semifinal, final)

	got, err := f.svc.Complete(context.Background(), 1, MatchResultInput{Team1Score: 6, Team2Score: 3})
	require.NoError(t, err)

	assert.Equal(t, models.MatchCompleted, got.Status)
	require.NotNil(t, got.WinningTeamID)
	assert.Equal(t, 10, *got.WinningTeamID)
	assert.Equal(t, 6, *got.Team1Score)
	assert.Equal(t, 3, *got.Team2Score)

	// The winner lands in the final's open slot.
	require.NotNil(t, final.Team2ID)
	assert.Equal(t, 10, *final.Team2ID)
	assert.Equal(t, 30, *final.Team1ID)

	assert.Equal(t, []int{1}, f.reservations.releasedMatches)

	require.Len(t, f.ratings.events, 1)
	ev := f.ratings.events[0]
	assert.Equal(t, 10, ev.WinningTeamID)
	assert.Equal(t, 20, ev.LosingTeamID)
	assert.Equal(t, 1.5, ev.Weight)
	assert.False(t, ev.Walkover)

	require.Len(t, f.notified.events, 1)
	assert.Equal(t, EventMatchResult, f.notified.events[0].Type)
	assert.Equal(t, 1, f.notified.events[0].MatchID)
	assert.Equal(t, 10, f.notified.events[0].TeamID)
}

func TestCompletePropagatesLoserForDoubleElimination(t *testing.T) {
	match := openMatch(1, 42, 10, 20)
	match.WinnerAdvancesToMatchID = intRef(2)
	match.LoserAdvancesToMatchID = intRef(3)
	winnerTarget := &models.Match{ID: 2, TournamentID: 42, RoundNumber: 2, Status: models.MatchScheduled}
	loserTarget := &models.Match{ID: 3, TournamentID: 42, RoundNumber: 1, Status: models.MatchScheduled}
	f := newMatchFixture(&models.Tournament{ID: 42, Status: models.StatusInProgress},
		match, winnerTarget, loserTarget)

	_, err := f.svc.Complete(context.Background(), 1, MatchResultInput{Team1Score: 2, Team2Score: 6})
	require.NoError(t, err)

	require.NotNil(t, winnerTarget.Team1ID)
	assert.Equal(t, 20, *winnerTarget.Team1ID)
	require.NotNil(t, loserTarget.Team1ID)
	assert.Equal(t, 10, *loserTarget.Team1ID)
}

func TestCompleteRejectsInvalidScores(t *testing.T) {
	f := newMatchFixture(&models.Tournament{ID: 42, Status: models.StatusInProgress},
		openMatch(1, 42, 10, 20))

	_, err := f.svc.Complete(context.Background(), 1, MatchResultInput{Team1Score: 4, Team2Score: 4})
	assert.ErrorIs(t, err, ErrInvalidScore)

	_, err = f.svc.Complete(context.Background(), 1, MatchResultInput{Team1Score: -1, Team2Score: 3})
	assert.ErrorIs(t, err, ErrInvalidScore)

	assert.Empty(t, f.ratings.events)
}

func TestCompleteRejectsDecidedMatch(t *testing.T) {
	match := openMatch(1, 42, 10, 20)
	match.Status = models.MatchCompleted
	f := newMatchFixture(&models.Tournament{ID: 42, Status: models.StatusInProgress}, match)

	_, err := f.svc.Complete(context.Background(), 1, MatchResultInput{Team1Score: 6, Team2Score: 2})
	assert.ErrorIs(t, err, ErrMatchAlreadyDecided)
	assert.Empty(t, f.ratings.events)
	assert.Empty(t, f.reservations.releasedMatches)
}

func TestCompleteRequiresTournamentInProgress(t *testing.T) {
	f := newMatchFixture(&models.Tournament{ID: 42, Status: models.StatusRegistrationClosed},
		openMatch(1, 42, 10, 20))

	_, err := f.svc.Complete(context.Background(), 1, MatchResultInput{Team1Score: 6, Team2Score: 2})
	assert.ErrorIs(t, err, ErrTournamentNotInProgress)
	assert.Equal(t, models.MatchScheduled, f.matches.matches[1].Status)
}

func TestWalkoverNonForfeitingTeamWins(t *testing.T) {
	match := openMatch(1, 42, 10, 20)
	match.WinnerAdvancesToMatchID = intRef(2)
	target := &models.Match{ID: 2, TournamentID: 42, RoundNumber: 2, Status: models.MatchScheduled}
	f := newMatchFixture(&models.Tournament{ID: 42, Status: models.StatusInProgress, RatingWeight: 1.0},
		match, target)

	got, err := f.svc.Walkover(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.Equal(t, models.MatchWalkover, got.Status)
	require.NotNil(t, got.WinningTeamID)
	assert.Equal(t, 20, *got.WinningTeamID)
	assert.Nil(t, got.Team1Score)
	assert.Nil(t, got.Team2Score)

	require.NotNil(t, target.Team1ID)
	assert.Equal(t, 20, *target.Team1ID)
	assert.Equal(t, []int{1}, f.reservations.releasedMatches)

	require.Len(t, f.ratings.events, 1)
	assert.True(t, f.ratings.events[0].Walkover)
}

func TestWalkoverRejectsTeamNotInMatch(t *testing.T) {
	f := newMatchFixture(&models.Tournament{ID: 42, Status: models.StatusInProgress},
		openMatch(1, 42, 10, 20))

	_, err := f.svc.Walkover(context.Background(), 1, 99)
	assert.ErrorIs(t, err, ErrWinnerNotInMatch)
}

func TestWalkoverRequiresTournamentInProgress(t *testing.T) {
	f := newMatchFixture(&models.Tournament{ID: 42, Status: models.StatusCompleted},
		openMatch(1, 42, 10, 20))

	_, err := f.svc.Walkover(context.Background(), 1, 10)
	assert.ErrorIs(t, err, ErrTournamentNotInProgress)
	assert.Empty(t, f.ratings.events)
}

func TestCancelVoidsMatchAndFreesCourt(t *testing.T) {
	f := newMatchFixture(&models.Tournament{ID: 42, Status: models.StatusInProgress},
		openMatch(1, 42, 10, 20))

	require.NoError(t, f.svc.Cancel(context.Background(), 1))
	assert.Equal(t, models.MatchCancelled, f.matches.matches[1].Status)
	assert.Equal(t, []int{1}, f.reservations.releasedMatches)
}

func TestStartRequiresBothTeams(t *testing.T) {
	match := &models.Match{
		ID:           1,
		TournamentID: 42,
		Team1ID:      intRef(10),
		Status:       models.MatchScheduled,
	}
	f := newMatchFixture(&models.Tournament{ID: 42, Status: models.StatusInProgress}, match)

	err := f.svc.Start(context.Background(), 1)
	assert.ErrorIs(t, err, ErrMatchNotPlayable)
}
