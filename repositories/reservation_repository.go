package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/padelpoint/tournament-engine/models"
)

var (
	ErrReservationNotFound = errors.New("court reservation not found")
	ErrReservationOverlap  = errors.New("court is already reserved for an overlapping time")
)

type ReservationRepository interface {
	Create(ctx context.Context, exec SQLExecutor, res *models.CourtReservation) error
	ListActiveByCourtsBetween(ctx context.Context, exec SQLExecutor, courtIDs []int, from, to time.Time) ([]*models.CourtReservation, error)
	ReleaseByMatch(ctx context.Context, exec SQLExecutor, matchID int) error
	ReleaseAllByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
}

type postgresReservationRepository struct {
	db *sql.DB
}

func NewPostgresReservationRepository(db *sql.DB) ReservationRepository {
	return &postgresReservationRepository{db: db}
}

func (r *postgresReservationRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresReservationRepository) Create(ctx context.Context, exec SQLExecutor, res *models.CourtReservation) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO court_reservations (tournament_id, court_id, start_time, end_time, match_id, is_occupied)
		VALUES ($1, $2, $3, $4, $5, TRUE)
		RETURNING id`

	err := executor.QueryRowContext(ctx, query,
		res.TournamentID, res.CourtID, res.StartTime, res.EndTime, res.MatchID,
	).Scan(&res.ID)
	if err != nil {
		// The exclusion constraint is the backstop for the allocator's own
		// conflict checks under concurrent scheduling passes.
		if isExclusionViolation(err) {
			return ErrReservationOverlap
		}
		return err
	}
	res.IsOccupied = true
	return nil
}

func (r *postgresReservationRepository) ListActiveByCourtsBetween(ctx context.Context, exec SQLExecutor, courtIDs []int, from, to time.Time) ([]*models.CourtReservation, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx, `
		SELECT id, tournament_id, court_id, start_time, end_time, match_id, is_occupied
		FROM court_reservations
		WHERE court_id = ANY($1) AND is_occupied AND end_time > $2 AND start_time < $3
		ORDER BY court_id, start_time`,
		pq.Array(courtIDs), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []*models.CourtReservation
	for rows.Next() {
		res := &models.CourtReservation{}
		if scanErr := rows.Scan(
			&res.ID, &res.TournamentID, &res.CourtID, &res.StartTime, &res.EndTime,
			&res.MatchID, &res.IsOccupied,
		); scanErr != nil {
			return nil, scanErr
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

func (r *postgresReservationRepository) ReleaseByMatch(ctx context.Context, exec SQLExecutor, matchID int) error {
	executor := r.getExecutor(exec)
	// A manually unscheduled match has no reservation; releasing nothing is
	// not an error.
	_, err := executor.ExecContext(ctx,
		`UPDATE court_reservations SET is_occupied = FALSE WHERE match_id = $1 AND is_occupied`,
		matchID)
	return err
}

func (r *postgresReservationRepository) ReleaseAllByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE court_reservations SET is_occupied = FALSE WHERE tournament_id = $1 AND is_occupied`,
		tournamentID)
	if err != nil {
		return 0, err
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}
