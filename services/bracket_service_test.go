package services

import (
	"context"
	"database/sql"
	"testing"

	"github.com/padelpoint/tournament-engine/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBracketFixture(teamCount int) (*BracketService, *sql.DB, *fakeMatchRepo) {
	db := newFakeDB()
	matches := newFakeMatchRepo()
	categories := &fakeCategoryRepo{categories: []*models.CategoryConfig{
		{ID: 7, TournamentID: 5, Category: models.CategoryGold, MaxParticipants: 16},
	}}
	teams := &fakeTeamRepo{byCategory: map[int][]*models.TournamentTeam{7: {}}}
	for i := 0; i < teamCount; i++ {
		teams.byCategory[7] = append(teams.byCategory[7], &models.TournamentTeam{
			ID:                i + 1,
			TournamentID:      5,
			CategoryConfigID:  7,
			TeamID:            100 + i,
			EloAtRegistration: 4.0 - float64(i)*0.1,
			IsActive:          true,
		})
	}
	svc := NewBracketService(db, newFakeTournamentRepo(), categories, teams, matches, discardLogger())
	return svc, db, matches
}

func generateInTx(t *testing.T, svc *BracketService, db *sql.DB, tournament *models.Tournament) error {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	genErr := svc.GenerateTx(context.Background(), tx, tournament)
	if genErr != nil {
		require.NoError(t, tx.Rollback())
		return genErr
	}
	require.NoError(t, tx.Commit())
	return nil
}

func TestGenerateTxIsIdempotent(t *testing.T) {
	svc, db, matches := newBracketFixture(4)
	tournament := &models.Tournament{
		ID:     5,
		Type:   models.TypeSingleElimination,
		Status: models.StatusRegistrationClosed,
	}

	require.NoError(t, generateInTx(t, svc, db, tournament))
	require.Len(t, matches.created, 3)

	// A second trigger finds the existing rows and creates nothing.
	require.NoError(t, generateInTx(t, svc, db, tournament))
	assert.Len(t, matches.created, 3)
}

func TestGenerateTxWiresAdvancementRowIDs(t *testing.T) {
	svc, db, matches := newBracketFixture(4)
	tournament := &models.Tournament{ID: 5, Type: models.TypeSingleElimination}

	require.NoError(t, generateInTx(t, svc, db, tournament))

	finals := 0
	for _, m := range matches.matches {
		if m.WinnerAdvancesToMatchID == nil {
			finals++
			continue
		}
		target, ok := matches.matches[*m.WinnerAdvancesToMatchID]
		require.True(t, ok, "advancement must point at a persisted row")
		assert.Greater(t, target.RoundNumber, m.RoundNumber)
	}
	assert.Equal(t, 1, finals)
}

func TestGenerateTxRejectsFieldWithoutTwoTeams(t *testing.T) {
	svc, db, matches := newBracketFixture(1)
	tournament := &models.Tournament{ID: 5, Type: models.TypeSingleElimination}

	err := generateInTx(t, svc, db, tournament)
	assert.ErrorIs(t, err, ErrNotEnoughTeams)
	assert.Empty(t, matches.created)
}
