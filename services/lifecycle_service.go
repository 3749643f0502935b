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

// ResultsArchiver stores a results snapshot of a completed tournament.
// Archiving is best effort and never blocks completion.
type ResultsArchiver interface {
	ArchiveResults(ctx context.Context, tournamentID int, snapshot interface{}) (string, error)
}

// SweepReport lists the tournaments one sweep run transitioned.
type SweepReport struct {
	RegistrationClosed []int `json:"registration_closed"`
	Completed          []int `json:"completed"`
}

type lifecycleAction int

const (
	actionNone lifecycleAction = iota
	actionCloseRegistration
	actionComplete
	actionForceInProgress
	actionGenerateSchedule
)

// decideLifecycleAction is the pure sweep rule for one tournament.
// openMatches is only consulted for tournaments past their end date.
// An in-progress tournament still inside its window without a schedule
// gets a generation retry, so a transient allocation failure heals on a
// later tick instead of waiting for an operator.
func decideLifecycleAction(t *models.Tournament, now time.Time, openMatches int) lifecycleAction {
	switch t.Status {
	case models.StatusRegistrationOpen:
		if now.After(t.RegistrationDeadline) {
			return actionCloseRegistration
		}
	case models.StatusRegistrationClosed, models.StatusInProgress:
		if now.After(t.EndDate) {
			if openMatches == 0 {
				return actionComplete
			}
			if t.Status == models.StatusRegistrationClosed {
				return actionForceInProgress
			}
			return actionNone
		}
		if t.Status == models.StatusInProgress && !t.ScheduleGenerated {
			return actionGenerateSchedule
		}
	}
	return actionNone
}

type LifecycleService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	matchRepo       repositories.MatchRepository
	reservationRepo repositories.ReservationRepository
	stateRepo       repositories.StateRepository
	bracketSvc      *BracketService
	scheduleSvc     *ScheduleService
	archiver        ResultsArchiver
	notifier        Notifier
	logger          *slog.Logger
	now             func() time.Time
}

func NewLifecycleService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	reservationRepo repositories.ReservationRepository,
	stateRepo repositories.StateRepository,
	bracketSvc *BracketService,
	scheduleSvc *ScheduleService,
	archiver ResultsArchiver,
	notifier Notifier,
	logger *slog.Logger,
) *LifecycleService {
	return &LifecycleService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		matchRepo:       matchRepo,
		reservationRepo: reservationRepo,
		stateRepo:       stateRepo,
		bracketSvc:      bracketSvc,
		scheduleSvc:     scheduleSvc,
		archiver:        archiver,
		notifier:        notifier,
		logger:          logger,
		now:             time.Now,
	}
}

// RunSweep applies deadline and end-date transitions across all pending
// tournaments. Each tournament is processed in its own transaction; a
// failure is logged and retried on the next tick without blocking the rest.
// Running the sweep twice in a row is a no-op the second time.
func (s *LifecycleService) RunSweep(ctx context.Context) (*SweepReport, error) {
	now := s.now()
	report := &SweepReport{}

	pending, err := s.tournamentRepo.ListPendingLifecycleAction(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("list pending tournaments: %w", err)
	}

	for _, t := range pending {
		if err := s.sweepOne(ctx, t.ID, now, report); err != nil {
			s.logger.ErrorContext(ctx, "sweep failed for tournament",
				slog.Int("tournament_id", t.ID), slog.Any("error", err))
		}
	}

	if err := s.stateRepo.SetLastSweep(ctx, now); err != nil {
		s.logger.WarnContext(ctx, "failed to persist sweep timestamp", slog.Any("error", err))
	}
	return report, nil
}

func (s *LifecycleService) sweepOne(ctx context.Context, tournamentID int, now time.Time, report *SweepReport) error {
	var (
		closed       bool
		completed    bool
		needSchedule bool
	)
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		// Re-read with the row locked: another trigger may have advanced the
		// tournament since the pending list was taken.
		t, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		openMatches, err := s.matchRepo.CountOpenByTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}

		switch decideLifecycleAction(t, now, openMatches) {
		case actionCloseRegistration:
			return s.closeRegistration(ctx, tx, t, &closed)
		case actionComplete:
			if err := s.tournamentRepo.UpdateStatus(ctx, tx, t.ID, models.StatusCompleted); err != nil {
				return err
			}
			if _, err := s.reservationRepo.ReleaseAllByTournament(ctx, tx, t.ID); err != nil {
				return err
			}
			completed = true
		case actionForceInProgress:
			return s.tournamentRepo.UpdateStatus(ctx, tx, t.ID, models.StatusInProgress)
		case actionGenerateSchedule:
			// Generation runs its own transaction; flag it for after the
			// row lock is released.
			needSchedule = true
		}
		return nil
	})
	if err != nil {
		return err
	}

	if needSchedule {
		s.retrySchedule(ctx, tournamentID)
	}
	if closed {
		report.RegistrationClosed = append(report.RegistrationClosed, tournamentID)
		s.afterRegistrationClosed(ctx, tournamentID)
	}
	if completed {
		report.Completed = append(report.Completed, tournamentID)
		s.afterCompleted(ctx, tournamentID)
	}
	return nil
}

// closeRegistration flips the status and generates the bracket in the same
// transaction, then marks the tournament in progress so results can be
// recorded. A field with no playable category closes without a bracket and
// is completed by a later sweep once its end date passes.
func (s *LifecycleService) closeRegistration(ctx context.Context, tx *sql.Tx, t *models.Tournament, closed *bool) error {
	if err := s.tournamentRepo.UpdateStatus(ctx, tx, t.ID, models.StatusRegistrationClosed); err != nil {
		return err
	}
	*closed = true

	if err := s.bracketSvc.GenerateTx(ctx, tx, t); err != nil {
		if errors.Is(err, ErrNotEnoughTeams) {
			s.logger.WarnContext(ctx, "registration closed without a bracket",
				slog.Int("tournament_id", t.ID), slog.Any("error", err))
			return nil
		}
		return err
	}
	return s.tournamentRepo.UpdateStatus(ctx, tx, t.ID, models.StatusInProgress)
}

// retrySchedule re-runs court allocation for an in-progress tournament
// whose earlier generation attempt failed. ErrScheduleAlreadyGenerated
// means a concurrent trigger won the race.
func (s *LifecycleService) retrySchedule(ctx context.Context, tournamentID int) {
	if _, err := s.scheduleSvc.Generate(ctx, tournamentID); err != nil {
		if !errors.Is(err, ErrScheduleAlreadyGenerated) {
			s.logger.ErrorContext(ctx, "schedule generation retry failed",
				slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		}
	}
}

func (s *LifecycleService) afterRegistrationClosed(ctx context.Context, tournamentID int) {
	s.notifier.Notify(ctx, NewNotificationEvent(EventRegistrationClosed, tournamentID))

	if _, err := s.scheduleSvc.Generate(ctx, tournamentID); err != nil {
		if !errors.Is(err, ErrScheduleAlreadyGenerated) && !errors.Is(err, ErrValidationFailed) {
			s.logger.ErrorContext(ctx, "schedule generation failed",
				slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		}
	}
}

func (s *LifecycleService) afterCompleted(ctx context.Context, tournamentID int) {
	s.notifier.Notify(ctx, NewNotificationEvent(EventTournamentCompleted, tournamentID))

	if s.archiver == nil {
		return
	}
	snapshot, err := s.resultsSnapshot(ctx, tournamentID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to build results snapshot",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}
	key, err := s.archiver.ArchiveResults(ctx, tournamentID, snapshot)
	if err != nil {
		s.logger.WarnContext(ctx, "results archive failed",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return
	}
	s.logger.InfoContext(ctx, "results archived",
		slog.Int("tournament_id", tournamentID), slog.String("key", key))
}

type resultsSnapshot struct {
	Tournament *models.Tournament `json:"tournament"`
	Matches    []*models.Match    `json:"matches"`
	ArchivedAt time.Time          `json:"archived_at"`
}

func (s *LifecycleService) resultsSnapshot(ctx context.Context, tournamentID int) (*resultsSnapshot, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, err
	}
	return &resultsSnapshot{Tournament: t, Matches: matches, ArchivedAt: s.now()}, nil
}

// Cancel terminates a tournament from any non-terminal state, cancelling
// open matches and releasing every reservation in one transaction. Admin
// action only; the sweep never cancels.
func (s *LifecycleService) Cancel(ctx context.Context, tournamentID int) error {
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		t, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if t.Status.IsTerminal() {
			return fmt.Errorf("%w: %s", ErrTournamentTerminal, t.Status)
		}
		if err := s.tournamentRepo.UpdateStatus(ctx, tx, tournamentID, models.StatusCancelled); err != nil {
			return err
		}
		cancelled, err := s.matchRepo.CancelOpenByTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		released, err := s.reservationRepo.ReleaseAllByTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		s.logger.InfoContext(ctx, "tournament cancelled",
			slog.Int("tournament_id", tournamentID),
			slog.Int("matches_cancelled", cancelled),
			slog.Int("reservations_released", released))
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(ctx, NewNotificationEvent(EventTournamentCancelled, tournamentID))
	return nil
}

// ListPendingExpiration is the admin read of what the next sweep would act
// on.
func (s *LifecycleService) ListPendingExpiration(ctx context.Context) ([]*models.Tournament, error) {
	return s.tournamentRepo.ListPendingLifecycleAction(ctx, s.now())
}
