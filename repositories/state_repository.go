package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/padelpoint/tournament-engine/models"
)

// StateRepository persists background-engine bookkeeping. The table holds a
// single row (id = 1) seeded by the initial migration.
type StateRepository interface {
	Get(ctx context.Context) (*models.EngineState, error)
	SetLastSweep(ctx context.Context, at time.Time) error
	SetLastSeriesGenerate(ctx context.Context, at time.Time) error
}

type postgresStateRepository struct {
	db *sql.DB
}

func NewPostgresStateRepository(db *sql.DB) StateRepository {
	return &postgresStateRepository{db: db}
}

func (r *postgresStateRepository) Get(ctx context.Context) (*models.EngineState, error) {
	s := &models.EngineState{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, last_sweep_at, last_series_generate_at FROM engine_state WHERE id = 1`,
	).Scan(&s.ID, &s.LastSweepAt, &s.LastSeriesGenerateAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *postgresStateRepository) SetLastSweep(ctx context.Context, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE engine_state SET last_sweep_at = $1 WHERE id = 1`, at)
	return err
}

func (r *postgresStateRepository) SetLastSeriesGenerate(ctx context.Context, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE engine_state SET last_series_generate_at = $1 WHERE id = 1`, at)
	return err
}
