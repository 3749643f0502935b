package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/padelpoint/tournament-engine/models"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentInvalidClub  = errors.New("invalid club reference")
	ErrTournamentNameConflict = errors.New("tournament name conflict for this club and start date")
)

type ListTournamentsFilter struct {
	ClubID      *int
	Status      *models.TournamentStatus
	RecurringID *int
	Limit       int
	Offset      int
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	SetScheduleFlags(ctx context.Context, exec SQLExecutor, id int, generated, incomplete bool) error
	ListPendingLifecycleAction(ctx context.Context, now time.Time) ([]*models.Tournament, error)
	ExistsForOccurrence(ctx context.Context, recurringID int, startDate time.Time) (bool, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, club_id, name, type, status, start_date, end_date, registration_deadline,
	max_participants, entry_fee, recurring_tournament_id, schedule_generated,
	schedule_incomplete, auto_schedule_enabled, match_duration_minutes,
	americano_rounds, rating_weight, created_at`

func scanTournament(row interface{ Scan(...interface{}) error }, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.ClubID, &t.Name, &t.Type, &t.Status, &t.StartDate, &t.EndDate,
		&t.RegistrationDeadline, &t.MaxParticipants, &t.EntryFee,
		&t.RecurringTournamentID, &t.ScheduleGenerated, &t.ScheduleIncomplete,
		&t.AutoScheduleEnabled, &t.MatchDurationMinutes, &t.AmericanoRounds,
		&t.RatingWeight, &t.CreatedAt,
	)
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournaments (
			club_id, name, type, status, start_date, end_date, registration_deadline,
			max_participants, entry_fee, recurring_tournament_id, auto_schedule_enabled,
			match_duration_minutes, americano_rounds, rating_weight
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		t.ClubID, t.Name, t.Type, t.Status, t.StartDate, t.EndDate, t.RegistrationDeadline,
		t.MaxParticipants, t.EntryFee, t.RecurringTournamentID, t.AutoScheduleEnabled,
		t.MatchDurationMinutes, t.AmericanoRounds, t.RatingWeight,
	).Scan(&t.ID, &t.CreatedAt)

	if err != nil {
		switch {
		case isUniqueViolation(err):
			return ErrTournamentNameConflict
		case isForeignKeyViolation(err):
			return ErrTournamentInvalidClub
		}
		return err
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	return r.get(ctx, exec, id, false)
}

// GetByIDForUpdate row-locks the tournament for the duration of the
// caller's transaction. Lifecycle transitions and bracket generation use it
// to serialize concurrent triggers.
func (r *postgresTournamentRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	return r.get(ctx, exec, id, true)
}

func (r *postgresTournamentRepository) get(ctx context.Context, exec SQLExecutor, id int, forUpdate bool) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	t := &models.Tournament{}
	err := scanTournament(executor.QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE 1=1`
	args := []interface{}{}
	argID := 1

	if filter.ClubID != nil {
		query += fmt.Sprintf(" AND club_id = $%d", argID)
		args = append(args, *filter.ClubID)
		argID++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	if filter.RecurringID != nil {
		query += fmt.Sprintf(" AND recurring_tournament_id = $%d", argID)
		args = append(args, *filter.RecurringID)
		argID++
	}

	query += " ORDER BY start_date DESC, created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetScheduleFlags(ctx context.Context, exec SQLExecutor, id int, generated, incomplete bool) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET schedule_generated = $1, schedule_incomplete = $2 WHERE id = $3`,
		generated, incomplete, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

// ListPendingLifecycleAction returns tournaments the sweep has to look at:
// open registrations past their deadline, unfinished tournaments past their
// end date, and in-progress tournaments still waiting on a schedule.
func (r *postgresTournamentRepository) ListPendingLifecycleAction(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + `
		FROM tournaments
		WHERE (status = $1 AND registration_deadline < $2)
		   OR (status IN ($3, $4) AND end_date < $2)
		   OR (status = $4 AND NOT schedule_generated AND end_date > $2)
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query,
		models.StatusRegistrationOpen, now,
		models.StatusRegistrationClosed, models.StatusInProgress,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments pending lifecycle action: %w", err)
	}
	defer rows.Close()

	var tournaments []*models.Tournament
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, &t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) ExistsForOccurrence(ctx context.Context, recurringID int, startDate time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM tournaments
			WHERE recurring_tournament_id = $1 AND start_date::date = $2::date
		)`, recurringID, startDate).Scan(&exists)
	return exists, err
}
