package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/padelpoint/tournament-engine/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error)
	ListByCategory(ctx context.Context, exec SQLExecutor, categoryConfigID int) ([]*models.Match, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	CountOpenByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	UpdateAdvancement(ctx context.Context, exec SQLExecutor, id int, winnerTo, loserTo *int) error
	UpdateTeamSlot(ctx context.Context, exec SQLExecutor, id int, slot int, teamID int) error
	UpdateSchedule(ctx context.Context, exec SQLExecutor, id int, courtID *int, scheduledTime *time.Time) error
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error
	RecordResult(ctx context.Context, exec SQLExecutor, match *models.Match) error
	CancelOpenByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, tournament_id, category_config_id, round_number, match_number,
	team1_id, team2_id, status, scheduled_time, court_id, winning_team_id,
	team1_score, team2_score, winner_advances_to_match_id, loser_advances_to_match_id`

func scanMatch(row interface{ Scan(...interface{}) error }, m *models.Match) error {
	return row.Scan(
		&m.ID, &m.TournamentID, &m.CategoryConfigID, &m.RoundNumber, &m.MatchNumber,
		&m.Team1ID, &m.Team2ID, &m.Status, &m.ScheduledTime, &m.CourtID, &m.WinningTeamID,
		&m.Team1Score, &m.Team2Score, &m.WinnerAdvancesToMatchID, &m.LoserAdvancesToMatchID,
	)
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (
			tournament_id, category_config_id, round_number, match_number,
			team1_id, team2_id, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	return executor.QueryRowContext(ctx, query,
		match.TournamentID, match.CategoryConfigID, match.RoundNumber, match.MatchNumber,
		match.Team1ID, match.Team2ID, match.Status,
	).Scan(&match.ID)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	return r.get(ctx, exec, id, false)
}

// GetByIDForUpdate locks the match row so result submission, propagation and
// reservation release happen atomically against concurrent submissions.
func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	return r.get(ctx, exec, id, true)
}

func (r *postgresMatchRepository) get(ctx context.Context, exec SQLExecutor, id int, forUpdate bool) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + matchColumns + ` FROM matches WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	m := &models.Match{}
	if err := scanMatch(executor.QueryRowContext(ctx, query, id), m); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Match, error) {
	return r.list(ctx, exec, `tournament_id`, tournamentID)
}

func (r *postgresMatchRepository) ListByCategory(ctx context.Context, exec SQLExecutor, categoryConfigID int) ([]*models.Match, error) {
	return r.list(ctx, exec, `category_config_id`, categoryConfigID)
}

func (r *postgresMatchRepository) list(ctx context.Context, exec SQLExecutor, column string, value int) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx,
		`SELECT`+matchColumns+` FROM matches WHERE `+column+` = $1 ORDER BY round_number, match_number, id`,
		value)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var matches []*models.Match
	for rows.Next() {
		m := &models.Match{}
		if scanErr := scanMatch(rows, m); scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matches WHERE tournament_id = $1`, tournamentID).Scan(&count)
	return count, err
}

func (r *postgresMatchRepository) CountOpenByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM matches WHERE tournament_id = $1 AND status IN ($2, $3)`,
		tournamentID, models.MatchScheduled, models.MatchInProgress).Scan(&count)
	return count, err
}

func (r *postgresMatchRepository) UpdateAdvancement(ctx context.Context, exec SQLExecutor, id int, winnerTo, loserTo *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET winner_advances_to_match_id = $1, loser_advances_to_match_id = $2 WHERE id = $3`,
		winnerTo, loserTo, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// UpdateTeamSlot writes a team into slot 1 or 2 of a match.
func (r *postgresMatchRepository) UpdateTeamSlot(ctx context.Context, exec SQLExecutor, id int, slot int, teamID int) error {
	executor := r.getExecutor(exec)
	column := `team1_id`
	if slot == 2 {
		column = `team2_id`
	}
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET `+column+` = $1 WHERE id = $2`, teamID, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateSchedule(ctx context.Context, exec SQLExecutor, id int, courtID *int, scheduledTime *time.Time) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET court_id = $1, scheduled_time = $2 WHERE id = $3`,
		courtID, scheduledTime, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.MatchStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// RecordResult persists the terminal state of a match: status, scores and
// winner.
func (r *postgresMatchRepository) RecordResult(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx, `
		UPDATE matches
		SET status = $1, team1_score = $2, team2_score = $3, winning_team_id = $4
		WHERE id = $5`,
		match.Status, match.Team1Score, match.Team2Score, match.WinningTeamID, match.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

// CancelOpenByTournament force-cancels every still-open match, returning how
// many were affected. Used by tournament cancellation.
func (r *postgresMatchRepository) CancelOpenByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE matches SET status = $1 WHERE tournament_id = $2 AND status IN ($3, $4)`,
		models.MatchCancelled, tournamentID, models.MatchScheduled, models.MatchInProgress)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}
