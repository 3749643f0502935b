package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/padelpoint/tournament-engine/models"
)

var (
	ErrTeamRegistrationNotFound = errors.New("team registration not found")
	ErrTeamAlreadyRegistered    = errors.New("team is already registered for this tournament")
)

type TournamentTeamRepository interface {
	Create(ctx context.Context, exec SQLExecutor, team *models.TournamentTeam) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentTeam, error)
	CountActiveByCategory(ctx context.Context, exec SQLExecutor, categoryConfigID int) (int, error)
	ListByCategory(ctx context.Context, exec SQLExecutor, categoryConfigID int) ([]*models.TournamentTeam, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentTeam, error)
	UpdateSeed(ctx context.Context, exec SQLExecutor, id int, seed *int) error
	Deactivate(ctx context.Context, exec SQLExecutor, id int) error
}

type postgresTournamentTeamRepository struct {
	db *sql.DB
}

func NewPostgresTournamentTeamRepository(db *sql.DB) TournamentTeamRepository {
	return &postgresTournamentTeamRepository{db: db}
}

func (r *postgresTournamentTeamRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentTeamRepository) Create(ctx context.Context, exec SQLExecutor, team *models.TournamentTeam) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournament_teams (tournament_id, category_config_id, team_id, elo_at_registration, seed, is_active)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		team.TournamentID, team.CategoryConfigID, team.TeamID, team.EloAtRegistration, team.Seed,
	).Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTeamAlreadyRegistered
		}
		return err
	}
	team.IsActive = true
	return nil
}

func (r *postgresTournamentTeamRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.TournamentTeam, error) {
	executor := r.getExecutor(exec)
	team := &models.TournamentTeam{}
	err := executor.QueryRowContext(ctx, `
		SELECT id, tournament_id, category_config_id, team_id, elo_at_registration, seed, is_active, created_at
		FROM tournament_teams WHERE id = $1`, id).Scan(
		&team.ID, &team.TournamentID, &team.CategoryConfigID, &team.TeamID,
		&team.EloAtRegistration, &team.Seed, &team.IsActive, &team.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamRegistrationNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTournamentTeamRepository) CountActiveByCategory(ctx context.Context, exec SQLExecutor, categoryConfigID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tournament_teams WHERE category_config_id = $1 AND is_active`,
		categoryConfigID).Scan(&count)
	return count, err
}

// ListByCategory returns active registrations in seeding order: manual seed
// first (lowest number strongest), then ELO at registration descending.
func (r *postgresTournamentTeamRepository) ListByCategory(ctx context.Context, exec SQLExecutor, categoryConfigID int) ([]*models.TournamentTeam, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `
		SELECT id, tournament_id, category_config_id, team_id, elo_at_registration, seed, is_active, created_at
		FROM tournament_teams
		WHERE category_config_id = $1 AND is_active
		ORDER BY seed NULLS LAST, elo_at_registration DESC, id`, categoryConfigID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTeams(rows)
}

func (r *postgresTournamentTeamRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.TournamentTeam, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `
		SELECT id, tournament_id, category_config_id, team_id, elo_at_registration, seed, is_active, created_at
		FROM tournament_teams
		WHERE tournament_id = $1
		ORDER BY category_config_id, seed NULLS LAST, elo_at_registration DESC, id`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTeams(rows)
}

func scanTeams(rows *sql.Rows) ([]*models.TournamentTeam, error) {
	var teams []*models.TournamentTeam
	for rows.Next() {
		team := &models.TournamentTeam{}
		if err := rows.Scan(
			&team.ID, &team.TournamentID, &team.CategoryConfigID, &team.TeamID,
			&team.EloAtRegistration, &team.Seed, &team.IsActive, &team.CreatedAt,
		); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *postgresTournamentTeamRepository) UpdateSeed(ctx context.Context, exec SQLExecutor, id int, seed *int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournament_teams SET seed = $1 WHERE id = $2`, seed, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamRegistrationNotFound)
}

func (r *postgresTournamentTeamRepository) Deactivate(ctx context.Context, exec SQLExecutor, id int) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournament_teams SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTeamRegistrationNotFound)
}
