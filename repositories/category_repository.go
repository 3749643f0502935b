package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/padelpoint/tournament-engine/models"
)

var (
	ErrCategoryNotFound = errors.New("category config not found")
	ErrCategoryConflict = errors.New("category already configured for this tournament")
)

type CategoryRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, configs []*models.CategoryConfig) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.CategoryConfig, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.CategoryConfig, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.CategoryConfig, error)
}

type postgresCategoryRepository struct {
	db *sql.DB
}

func NewPostgresCategoryRepository(db *sql.DB) CategoryRepository {
	return &postgresCategoryRepository{db: db}
}

func (r *postgresCategoryRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresCategoryRepository) CreateBatch(ctx context.Context, exec SQLExecutor, configs []*models.CategoryConfig) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO category_configs (tournament_id, category, max_participants, min_elo, max_elo)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	for _, cfg := range configs {
		err := executor.QueryRowContext(ctx, query,
			cfg.TournamentID, cfg.Category, cfg.MaxParticipants, cfg.MinElo, cfg.MaxElo,
		).Scan(&cfg.ID)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrCategoryConflict
			}
			return err
		}
	}
	return nil
}

func (r *postgresCategoryRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.CategoryConfig, error) {
	return r.get(ctx, exec, id, false)
}

// GetByIDForUpdate locks the category row; registration uses the lock to
// make the capacity check-and-insert atomic under concurrency.
func (r *postgresCategoryRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.CategoryConfig, error) {
	return r.get(ctx, exec, id, true)
}

func (r *postgresCategoryRepository) get(ctx context.Context, exec SQLExecutor, id int, forUpdate bool) (*models.CategoryConfig, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, tournament_id, category, max_participants, min_elo, max_elo
		FROM category_configs WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	cfg := &models.CategoryConfig{}
	err := executor.QueryRowContext(ctx, query, id).Scan(
		&cfg.ID, &cfg.TournamentID, &cfg.Category, &cfg.MaxParticipants, &cfg.MinElo, &cfg.MaxElo,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return cfg, nil
}

func (r *postgresCategoryRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.CategoryConfig, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `
		SELECT id, tournament_id, category, max_participants, min_elo, max_elo
		FROM category_configs
		WHERE tournament_id = $1
		ORDER BY min_elo`, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*models.CategoryConfig
	for rows.Next() {
		cfg := &models.CategoryConfig{}
		if scanErr := rows.Scan(
			&cfg.ID, &cfg.TournamentID, &cfg.Category, &cfg.MaxParticipants, &cfg.MinElo, &cfg.MaxElo,
		); scanErr != nil {
			return nil, scanErr
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}
