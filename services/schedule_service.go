package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/padelpoint/tournament-engine/models"
	"github.com/padelpoint/tournament-engine/repositories"
	"github.com/padelpoint/tournament-engine/scheduling"
)

// ScheduleResult reports the outcome of one allocation run. Unscheduled
// match ids are a degraded success, not a failure: the tournament is
// flagged schedule_incomplete and an operator resolves the rest by hand.
type ScheduleResult struct {
	TournamentID int   `json:"tournament_id"`
	Scheduled    []int `json:"scheduled"`
	Unscheduled  []int `json:"unscheduled"`
}

type ScheduleService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	matchRepo       repositories.MatchRepository
	courtRepo       repositories.CourtRepository
	bookingRepo     repositories.BookingRepository
	reservationRepo repositories.ReservationRepository
	notifier        Notifier
	logger          *slog.Logger
}

func NewScheduleService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	courtRepo repositories.CourtRepository,
	bookingRepo repositories.BookingRepository,
	reservationRepo repositories.ReservationRepository,
	notifier Notifier,
	logger *slog.Logger,
) *ScheduleService {
	return &ScheduleService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		matchRepo:       matchRepo,
		courtRepo:       courtRepo,
		bookingRepo:     bookingRepo,
		reservationRepo: reservationRepo,
		notifier:        notifier,
		logger:          logger,
	}
}

// Generate allocates courts and times for every match of the tournament.
// The conflict read-check and the reservation writes share one transaction;
// the court_reservations exclusion constraint backs the same invariant in
// the database.
func (s *ScheduleService) Generate(ctx context.Context, tournamentID int) (*ScheduleResult, error) {
	result := &ScheduleResult{TournamentID: tournamentID}

	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if tournament.ScheduleGenerated {
			return ErrScheduleAlreadyGenerated
		}
		if !tournament.AutoScheduleEnabled {
			s.logger.InfoContext(ctx, "auto-scheduling disabled, leaving matches unscheduled",
				slog.Int("tournament_id", tournamentID))
			return s.tournamentRepo.SetScheduleFlags(ctx, tx, tournamentID, true, false)
		}

		matches, err := s.matchRepo.ListByTournament(ctx, tx, tournamentID)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return fmt.Errorf("%w: no matches to schedule", ErrValidationFailed)
		}

		courts, err := s.courtRepo.ListByClub(ctx, tournament.ClubID)
		if err != nil {
			return err
		}
		if len(courts) == 0 {
			return fmt.Errorf("%w: club %d has no courts", ErrSchedulingInfeasible, tournament.ClubID)
		}

		busy, err := s.busyIntervals(ctx, tx, tournament, courts)
		if err != nil {
			return err
		}

		plan, err := scheduling.Allocate(scheduling.Params{
			Matches:     matchRequests(matches),
			Courts:      schedulingCourts(courts),
			Busy:        busy,
			WindowStart: tournament.StartDate,
			WindowEnd:   tournament.EndDate,
			Duration:    tournament.MatchDuration(),
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSchedulingInfeasible, err)
		}

		for _, a := range plan.Assignments {
			matchID := a.MatchID
			if err := s.matchRepo.UpdateSchedule(ctx, tx, matchID, &a.CourtID, &a.Start); err != nil {
				return err
			}
			reservation := &models.CourtReservation{
				TournamentID: tournamentID,
				CourtID:      a.CourtID,
				StartTime:    a.Start,
				EndTime:      a.End,
				MatchID:      &matchID,
			}
			if err := s.reservationRepo.Create(ctx, tx, reservation); err != nil {
				if errors.Is(err, repositories.ErrReservationOverlap) {
					return fmt.Errorf("%w: court %d at %s", ErrCourtSlotTaken, a.CourtID, a.Start)
				}
				return err
			}
			result.Scheduled = append(result.Scheduled, matchID)
		}
		result.Unscheduled = plan.Unscheduled

		return s.tournamentRepo.SetScheduleFlags(ctx, tx, tournamentID, true, !plan.Complete())
	})
	if err != nil {
		return nil, err
	}

	if len(result.Unscheduled) > 0 {
		s.logger.WarnContext(ctx, "schedule incomplete",
			slog.Int("tournament_id", tournamentID),
			slog.Int("scheduled", len(result.Scheduled)),
			slog.Int("unscheduled", len(result.Unscheduled)))
	}
	if len(result.Scheduled) > 0 {
		s.notifier.Notify(ctx, NewNotificationEvent(EventMatchScheduled, tournamentID))
	}
	return result, nil
}

// busyIntervals merges existing tournament reservations and confirmed
// ordinary bookings per court over the tournament window.
func (s *ScheduleService) busyIntervals(ctx context.Context, tx *sql.Tx, tournament *models.Tournament, courts []*models.Court) (map[int][]scheduling.Interval, error) {
	courtIDs := make([]int, len(courts))
	for i, c := range courts {
		courtIDs[i] = c.ID
	}

	busy := make(map[int][]scheduling.Interval)

	reservations, err := s.reservationRepo.ListActiveByCourtsBetween(ctx, tx, courtIDs, tournament.StartDate, tournament.EndDate)
	if err != nil {
		return nil, err
	}
	for _, r := range reservations {
		busy[r.CourtID] = append(busy[r.CourtID], scheduling.Interval{Start: r.StartTime, End: r.EndTime})
	}

	bookings, err := s.bookingRepo.ListConfirmedByCourtsBetween(ctx, courtIDs, tournament.StartDate, tournament.EndDate)
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		busy[b.CourtID] = append(busy[b.CourtID], scheduling.Interval{Start: b.StartTime, End: b.EndTime})
	}
	return busy, nil
}

func matchRequests(matches []*models.Match) []scheduling.MatchRequest {
	requests := make([]scheduling.MatchRequest, 0, len(matches))
	for _, m := range matches {
		if m.ScheduledTime != nil || !m.Status.IsOpen() {
			continue
		}
		requests = append(requests, scheduling.MatchRequest{MatchID: m.ID, Round: m.RoundNumber})
	}
	sort.SliceStable(requests, func(i, j int) bool { return requests[i].Round < requests[j].Round })
	return requests
}

func schedulingCourts(courts []*models.Court) []scheduling.Court {
	out := make([]scheduling.Court, len(courts))
	for i, c := range courts {
		out[i] = scheduling.Court{ID: c.ID, OpeningHour: c.OpeningHour, ClosingHour: c.ClosingHour}
	}
	return out
}
