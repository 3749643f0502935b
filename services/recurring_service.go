package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/padelpoint/tournament-engine/models"
	"github.com/padelpoint/tournament-engine/repositories"
)

// GenerationReport lists the concrete tournaments one generation run
// created. Skipped counts occurrences that already had an instance.
type GenerationReport struct {
	Created []int `json:"created"`
	Skipped int   `json:"skipped"`
}

type RecurringService struct {
	db             *sql.DB
	recurringRepo  repositories.RecurringRepository
	tournamentRepo repositories.TournamentRepository
	categoryRepo   repositories.CategoryRepository
	stateRepo      repositories.StateRepository
	logger         *slog.Logger
	now            func() time.Time
}

func NewRecurringService(
	db *sql.DB,
	recurringRepo repositories.RecurringRepository,
	tournamentRepo repositories.TournamentRepository,
	categoryRepo repositories.CategoryRepository,
	stateRepo repositories.StateRepository,
	logger *slog.Logger,
) *RecurringService {
	return &RecurringService{
		db:             db,
		recurringRepo:  recurringRepo,
		tournamentRepo: tournamentRepo,
		categoryRepo:   categoryRepo,
		stateRepo:      stateRepo,
		logger:         logger,
		now:            time.Now,
	}
}

// CreateSeries validates and persists a recurring template with its
// category templates.
func (s *RecurringService) CreateSeries(ctx context.Context, rec *models.RecurringTournament) (*models.RecurringTournament, error) {
	if err := validateRecurrence(rec); err != nil {
		return nil, err
	}
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.recurringRepo.Create(ctx, tx, rec); err != nil {
			return err
		}
		return s.recurringRepo.CreateTemplateBatch(ctx, tx, rec.ID, rec.Templates)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *RecurringService) UpdateSeries(ctx context.Context, rec *models.RecurringTournament) error {
	// Category templates are immutable after creation; validate against the
	// stored ones.
	if len(rec.Templates) == 0 {
		existing, err := s.GetSeries(ctx, rec.ID)
		if err != nil {
			return err
		}
		rec.Templates = existing.Templates
	}
	if err := validateRecurrence(rec); err != nil {
		return err
	}
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.recurringRepo.Update(ctx, tx, rec)
	})
	if errors.Is(err, repositories.ErrRecurringNotFound) {
		return ErrRecurringNotFound
	}
	return err
}

func (s *RecurringService) GetSeries(ctx context.Context, id int) (*models.RecurringTournament, error) {
	rec, err := s.recurringRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRecurringNotFound) {
			return nil, ErrRecurringNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (s *RecurringService) DeactivateSeries(ctx context.Context, id int) error {
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		return s.recurringRepo.Deactivate(ctx, tx, id)
	})
	if errors.Is(err, repositories.ErrRecurringNotFound) {
		return ErrRecurringNotFound
	}
	return err
}

func validateRecurrence(rec *models.RecurringTournament) error {
	if !rec.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidTournamentType, rec.Type)
	}
	if rec.IntervalValue <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidRecurrence)
	}
	if rec.SeriesEndDate != nil && rec.SeriesEndDate.Before(rec.SeriesStartDate) {
		return fmt.Errorf("%w: series ends before it starts", ErrInvalidRecurrence)
	}
	if rec.StartHour < 0 || rec.StartHour > 23 || rec.DurationHours <= 0 {
		return fmt.Errorf("%w: invalid start hour or duration", ErrInvalidRecurrence)
	}
	if len(rec.Templates) == 0 {
		return fmt.Errorf("%w: at least one category template is required", ErrInvalidRecurrence)
	}
	for _, t := range rec.Templates {
		if !t.Category.Valid() || t.MaxParticipants <= 0 {
			return fmt.Errorf("%w: template %q", ErrInvalidRecurrence, t.Category)
		}
	}

	switch rec.RecurrencePattern {
	case models.RecurrenceWeekly:
		if len(rec.DaysOfWeek) == 0 {
			return fmt.Errorf("%w: weekly series needs days_of_week", ErrInvalidRecurrence)
		}
		for _, d := range rec.DaysOfWeek {
			if d < 0 || d > 6 {
				return fmt.Errorf("%w: day_of_week %d", ErrInvalidRecurrence, d)
			}
		}
	case models.RecurrenceMonthly:
		if rec.DayOfMonth == nil || *rec.DayOfMonth < 1 || *rec.DayOfMonth > 31 {
			return fmt.Errorf("%w: monthly series needs day_of_month in 1..31", ErrInvalidRecurrence)
		}
	case models.RecurrenceCustom:
		// interval_value in days, already checked.
	default:
		return fmt.Errorf("%w: unknown pattern %q", ErrInvalidRecurrence, rec.RecurrencePattern)
	}
	return nil
}

// occurrencesBetween computes the series' occurrence dates inside
// [from, to], bounded by the series start and end dates. Pure.
func occurrencesBetween(rec *models.RecurringTournament, from, to time.Time) []time.Time {
	loc := rec.SeriesStartDate.Location()
	seriesStart := dateOnly(rec.SeriesStartDate)

	lower := dateOnly(from.In(loc))
	if lower.Before(seriesStart) {
		lower = seriesStart
	}
	upper := dateOnly(to.In(loc))
	if rec.SeriesEndDate != nil {
		if end := dateOnly(*rec.SeriesEndDate); end.Before(upper) {
			upper = end
		}
	}

	var out []time.Time
	for day := lower; !day.After(upper); day = day.AddDate(0, 0, 1) {
		if occursOn(rec, seriesStart, day) {
			out = append(out, day.Add(time.Duration(rec.StartHour)*time.Hour))
		}
	}
	return out
}

func occursOn(rec *models.RecurringTournament, seriesStart, day time.Time) bool {
	switch rec.RecurrencePattern {
	case models.RecurrenceWeekly:
		if !containsWeekday(rec.DaysOfWeek, day.Weekday()) {
			return false
		}
		weeks := daysBetween(startOfWeek(seriesStart), day) / 7
		return weeks%rec.IntervalValue == 0
	case models.RecurrenceMonthly:
		months := (day.Year()-seriesStart.Year())*12 + int(day.Month()) - int(seriesStart.Month())
		if months%rec.IntervalValue != 0 {
			return false
		}
		want := *rec.DayOfMonth
		if last := daysInMonth(day.Year(), day.Month()); want > last {
			want = last // Feb 30th collapses to the last day
		}
		return day.Day() == want
	case models.RecurrenceCustom:
		return daysBetween(seriesStart, day)%rec.IntervalValue == 0
	}
	return false
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// daysBetween counts whole calendar days from a to b. The dates are
// re-anchored in UTC so DST transitions between them cannot shift the
// count by an hour.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return int(time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC).
		Sub(time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)).Hours() / 24)
}

// startOfWeek returns the Sunday beginning t's week, to match the 0=Sunday
// days_of_week convention.
func startOfWeek(t time.Time) time.Time {
	return dateOnly(t).AddDate(0, 0, -int(t.Weekday()))
}

func containsWeekday(days []int64, wd time.Weekday) bool {
	for _, d := range days {
		if int(d) == int(wd) {
			return true
		}
	}
	return false
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// GenerateDue materializes tournaments for every active series whose
// occurrences fall inside the generation horizon. Occurrences that already
// have an instance are skipped, so overlapping runs are idempotent.
func (s *RecurringService) GenerateDue(ctx context.Context) (*GenerationReport, error) {
	now := s.now()
	report := &GenerationReport{}

	series, err := s.recurringRepo.ListDueForGeneration(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list due series: %w", err)
	}

	for _, rec := range series {
		horizon := now.AddDate(0, 0, rec.AdvanceGenerationDays)
		for _, start := range occurrencesBetween(rec, now, horizon) {
			created, err := s.materialize(ctx, rec, start)
			if err != nil {
				s.logger.ErrorContext(ctx, "failed to materialize occurrence",
					slog.Int("recurring_id", rec.ID),
					slog.Time("start", start),
					slog.Any("error", err))
				continue
			}
			if created == 0 {
				report.Skipped++
			} else {
				report.Created = append(report.Created, created)
			}
		}
	}

	if err := s.stateRepo.SetLastSeriesGenerate(ctx, now); err != nil {
		s.logger.WarnContext(ctx, "failed to persist generation timestamp", slog.Any("error", err))
	}
	return report, nil
}

// materialize creates one concrete tournament for an occurrence, cloning
// the category templates with bands re-derived from the canonical table.
// Returns 0 when the occurrence already exists.
func (s *RecurringService) materialize(ctx context.Context, rec *models.RecurringTournament, start time.Time) (int, error) {
	exists, err := s.tournamentRepo.ExistsForOccurrence(ctx, rec.ID, start)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}

	recurringID := rec.ID
	tournament := &models.Tournament{
		ClubID:                rec.ClubID,
		Name:                  fmt.Sprintf("%s %s", rec.Name, start.Format("2006-01-02")),
		Type:                  rec.Type,
		Status:                models.StatusRegistrationOpen,
		StartDate:             start,
		EndDate:               start.Add(time.Duration(rec.DurationHours) * time.Hour),
		RegistrationDeadline:  start.Add(-time.Duration(rec.RegistrationLeadHours) * time.Hour),
		MaxParticipants:       rec.MaxParticipants,
		EntryFee:              rec.EntryFee,
		RecurringTournamentID: &recurringID,
		AutoScheduleEnabled:   true,
		MatchDurationMinutes:  rec.MatchDurationMinutes,
		RatingWeight:          1.0,
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.tournamentRepo.Create(ctx, tx, tournament); err != nil {
			// A concurrent run created the same occurrence first.
			if errors.Is(err, repositories.ErrTournamentNameConflict) {
				tournament.ID = 0
				return nil
			}
			return err
		}
		configs := make([]*models.CategoryConfig, 0, len(rec.Templates))
		for _, template := range rec.Templates {
			cfg, ok := models.NewCategoryConfig(tournament.ID, template.Category, template.MaxParticipants)
			if !ok {
				return fmt.Errorf("%w: %q", ErrValidationFailed, template.Category)
			}
			configs = append(configs, &cfg)
		}
		return s.categoryRepo.CreateBatch(ctx, tx, configs)
	})
	if err != nil {
		return 0, err
	}

	if tournament.ID != 0 {
		s.logger.InfoContext(ctx, "recurring occurrence materialized",
			slog.Int("recurring_id", rec.ID),
			slog.Int("tournament_id", tournament.ID),
			slog.Time("start", start))
	}
	return tournament.ID, nil
}
