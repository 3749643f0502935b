package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/padelpoint/tournament-engine/models"
)

var ErrRecurringNotFound = errors.New("recurring tournament not found")

type RecurringRepository interface {
	Create(ctx context.Context, executor SQLExecutor, rec *models.RecurringTournament) error
	CreateTemplateBatch(ctx context.Context, executor SQLExecutor, recurringID int, templates []models.CategoryTemplate) error
	GetByID(ctx context.Context, id int) (*models.RecurringTournament, error)
	ListByClub(ctx context.Context, clubID int) ([]*models.RecurringTournament, error)
	// ListDueForGeneration returns active series whose generation window is
	// open at now, ie. series that may have occurrences within the next
	// advance_generation_days needing a concrete tournament.
	ListDueForGeneration(ctx context.Context, now time.Time) ([]*models.RecurringTournament, error)
	Update(ctx context.Context, executor SQLExecutor, rec *models.RecurringTournament) error
	Deactivate(ctx context.Context, executor SQLExecutor, id int) error
}

type postgresRecurringRepository struct {
	db *sql.DB
}

func NewPostgresRecurringRepository(db *sql.DB) RecurringRepository {
	return &postgresRecurringRepository{db: db}
}

const recurringColumns = `id, club_id, name, type, recurrence_pattern, interval_value,
	days_of_week, day_of_month, series_start_date, series_end_date,
	advance_generation_days, auto_generation_enabled, is_active,
	start_hour, duration_hours, registration_lead_hours,
	max_participants, entry_fee, match_duration_minutes, created_at`

func scanRecurring(s interface{ Scan(dest ...any) error }) (*models.RecurringTournament, error) {
	rec := &models.RecurringTournament{}
	err := s.Scan(
		&rec.ID, &rec.ClubID, &rec.Name, &rec.Type, &rec.RecurrencePattern, &rec.IntervalValue,
		&rec.DaysOfWeek, &rec.DayOfMonth, &rec.SeriesStartDate, &rec.SeriesEndDate,
		&rec.AdvanceGenerationDays, &rec.AutoGenerationEnabled, &rec.IsActive,
		&rec.StartHour, &rec.DurationHours, &rec.RegistrationLeadHours,
		&rec.MaxParticipants, &rec.EntryFee, &rec.MatchDurationMinutes, &rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *postgresRecurringRepository) Create(ctx context.Context, executor SQLExecutor, rec *models.RecurringTournament) error {
	err := executor.QueryRowContext(ctx, `
		INSERT INTO recurring_tournaments (
			club_id, name, type, recurrence_pattern, interval_value,
			days_of_week, day_of_month, series_start_date, series_end_date,
			advance_generation_days, auto_generation_enabled, is_active,
			start_hour, duration_hours, registration_lead_hours,
			max_participants, entry_fee, match_duration_minutes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
		RETURNING id, created_at`,
		rec.ClubID, rec.Name, rec.Type, rec.RecurrencePattern, rec.IntervalValue,
		rec.DaysOfWeek, rec.DayOfMonth, rec.SeriesStartDate, rec.SeriesEndDate,
		rec.AdvanceGenerationDays, rec.AutoGenerationEnabled, rec.IsActive,
		rec.StartHour, rec.DurationHours, rec.RegistrationLeadHours,
		rec.MaxParticipants, rec.EntryFee, rec.MatchDurationMinutes,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("create recurring tournament: %w", ErrTournamentInvalidClub)
		}
		return fmt.Errorf("create recurring tournament: %w", err)
	}
	return nil
}

func (r *postgresRecurringRepository) CreateTemplateBatch(ctx context.Context, executor SQLExecutor, recurringID int, templates []models.CategoryTemplate) error {
	for i := range templates {
		t := &templates[i]
		t.RecurringTournamentID = recurringID
		err := executor.QueryRowContext(ctx, `
			INSERT INTO recurring_category_templates (recurring_tournament_id, category, max_participants)
			VALUES ($1, $2, $3) RETURNING id`,
			t.RecurringTournamentID, t.Category, t.MaxParticipants,
		).Scan(&t.ID)
		if err != nil {
			return fmt.Errorf("create category template %s: %w", t.Category, err)
		}
	}
	return nil
}

func (r *postgresRecurringRepository) GetByID(ctx context.Context, id int) (*models.RecurringTournament, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_tournaments WHERE id = $1`, id)
	rec, err := scanRecurring(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecurringNotFound
		}
		return nil, err
	}
	if err := r.loadTemplates(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *postgresRecurringRepository) ListByClub(ctx context.Context, clubID int) ([]*models.RecurringTournament, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_tournaments WHERE club_id = $1 ORDER BY created_at DESC`, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecurring(rows)
}

func (r *postgresRecurringRepository) ListDueForGeneration(ctx context.Context, now time.Time) ([]*models.RecurringTournament, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recurringColumns+` FROM recurring_tournaments
		WHERE is_active AND auto_generation_enabled
		  AND series_start_date <= $1 + (advance_generation_days || ' days')::interval
		  AND (series_end_date IS NULL OR series_end_date >= $1)
		ORDER BY id`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	series, err := collectRecurring(rows)
	if err != nil {
		return nil, err
	}
	for _, rec := range series {
		if err := r.loadTemplates(ctx, rec); err != nil {
			return nil, err
		}
	}
	return series, nil
}

func (r *postgresRecurringRepository) Update(ctx context.Context, executor SQLExecutor, rec *models.RecurringTournament) error {
	result, err := executor.ExecContext(ctx, `
		UPDATE recurring_tournaments SET
			name = $1, recurrence_pattern = $2, interval_value = $3,
			days_of_week = $4, day_of_month = $5, series_end_date = $6,
			advance_generation_days = $7, auto_generation_enabled = $8,
			start_hour = $9, duration_hours = $10, registration_lead_hours = $11,
			max_participants = $12, entry_fee = $13, match_duration_minutes = $14
		WHERE id = $15`,
		rec.Name, rec.RecurrencePattern, rec.IntervalValue,
		rec.DaysOfWeek, rec.DayOfMonth, rec.SeriesEndDate,
		rec.AdvanceGenerationDays, rec.AutoGenerationEnabled,
		rec.StartHour, rec.DurationHours, rec.RegistrationLeadHours,
		rec.MaxParticipants, rec.EntryFee, rec.MatchDurationMinutes,
		rec.ID)
	if err != nil {
		return fmt.Errorf("update recurring tournament: %w", err)
	}
	return checkAffectedRows(result, ErrRecurringNotFound)
}

func (r *postgresRecurringRepository) Deactivate(ctx context.Context, executor SQLExecutor, id int) error {
	result, err := executor.ExecContext(ctx,
		`UPDATE recurring_tournaments SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate recurring tournament: %w", err)
	}
	return checkAffectedRows(result, ErrRecurringNotFound)
}

func (r *postgresRecurringRepository) loadTemplates(ctx context.Context, rec *models.RecurringTournament) error {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, recurring_tournament_id, category, max_participants
		FROM recurring_category_templates
		WHERE recurring_tournament_id = $1 ORDER BY id`, rec.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var t models.CategoryTemplate
		if scanErr := rows.Scan(&t.ID, &t.RecurringTournamentID, &t.Category, &t.MaxParticipants); scanErr != nil {
			return scanErr
		}
		rec.Templates = append(rec.Templates, t)
	}
	return rows.Err()
}

func collectRecurring(rows *sql.Rows) ([]*models.RecurringTournament, error) {
	var series []*models.RecurringTournament
	for rows.Next() {
		rec, err := scanRecurring(rows)
		if err != nil {
			return nil, err
		}
		series = append(series, rec)
	}
	return series, rows.Err()
}
