package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/padelpoint/tournament-engine/models"
	"github.com/padelpoint/tournament-engine/repositories"
)

// MatchResultInput is an admin-submitted result. The winner is derived from
// the scores; padel sets cannot tie.
type MatchResultInput struct {
	Team1Score int `json:"team1_score"`
	Team2Score int `json:"team2_score"`
}

type MatchService struct {
	db              *sql.DB
	tournamentRepo  repositories.TournamentRepository
	matchRepo       repositories.MatchRepository
	reservationRepo repositories.ReservationRepository
	ratingUpdater   RatingUpdater
	notifier        Notifier
	logger          *slog.Logger
}

func NewMatchService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	reservationRepo repositories.ReservationRepository,
	ratingUpdater RatingUpdater,
	notifier Notifier,
	logger *slog.Logger,
) *MatchService {
	return &MatchService{
		db:              db,
		tournamentRepo:  tournamentRepo,
		matchRepo:       matchRepo,
		reservationRepo: reservationRepo,
		ratingUpdater:   ratingUpdater,
		notifier:        notifier,
		logger:          logger,
	}
}

// Start moves a scheduled match to IN_PROGRESS.
func (s *MatchService) Start(ctx context.Context, matchID int) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		match, err := s.lockMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if match.Status != models.MatchScheduled {
			return fmt.Errorf("%w: match %d is %s", ErrMatchAlreadyDecided, matchID, match.Status)
		}
		if !match.Playable() {
			return fmt.Errorf("%w: match %d", ErrMatchNotPlayable, matchID)
		}
		return s.matchRepo.UpdateStatus(ctx, tx, matchID, models.MatchInProgress)
	})
}

// Complete records a result, advances the winner (and the loser where a
// loser pointer exists), and releases the match's court reservation, all in
// one transaction. Rating and notification events go out after commit.
func (s *MatchService) Complete(ctx context.Context, matchID int, in MatchResultInput) (*models.Match, error) {
	if in.Team1Score < 0 || in.Team2Score < 0 {
		return nil, fmt.Errorf("%w: scores must be non-negative", ErrInvalidScore)
	}
	if in.Team1Score == in.Team2Score {
		return nil, fmt.Errorf("%w: scores may not tie", ErrInvalidScore)
	}

	var (
		match  *models.Match
		weight float64
	)
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		match, err = s.lockMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if !match.Status.IsOpen() {
			return fmt.Errorf("%w: match %d is %s", ErrMatchAlreadyDecided, matchID, match.Status)
		}
		if !match.Playable() {
			return fmt.Errorf("%w: match %d", ErrMatchNotPlayable, matchID)
		}

		tournament, err := s.tournamentRepo.GetByID(ctx, tx, match.TournamentID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusInProgress {
			return fmt.Errorf("%w: tournament %d is %s", ErrTournamentNotInProgress,
				tournament.ID, tournament.Status)
		}
		weight = tournament.RatingWeight

		winnerID := *match.Team1ID
		if in.Team2Score > in.Team1Score {
			winnerID = *match.Team2ID
		}
		match.Status = models.MatchCompleted
		match.WinningTeamID = &winnerID
		match.Team1Score = &in.Team1Score
		match.Team2Score = &in.Team2Score

		if err := s.matchRepo.RecordResult(ctx, tx, match); err != nil {
			return err
		}
		if err := s.propagate(ctx, tx, match); err != nil {
			return err
		}
		return s.reservationRepo.ReleaseByMatch(ctx, tx, matchID)
	})
	if err != nil {
		return nil, err
	}

	s.afterDecided(ctx, match, weight, false)
	return match, nil
}

// Walkover decides a match without play: the non-forfeiting team wins, no
// score is recorded, advancement is identical to a normal completion.
func (s *MatchService) Walkover(ctx context.Context, matchID, forfeitingTeamID int) (*models.Match, error) {
	var (
		match  *models.Match
		weight float64
	)
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		match, err = s.lockMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if !match.Status.IsOpen() {
			return fmt.Errorf("%w: match %d is %s", ErrMatchAlreadyDecided, matchID, match.Status)
		}
		if !match.Playable() {
			return fmt.Errorf("%w: match %d", ErrMatchNotPlayable, matchID)
		}

		var winnerID int
		switch forfeitingTeamID {
		case *match.Team1ID:
			winnerID = *match.Team2ID
		case *match.Team2ID:
			winnerID = *match.Team1ID
		default:
			return fmt.Errorf("%w: team %d", ErrWinnerNotInMatch, forfeitingTeamID)
		}

		tournament, err := s.tournamentRepo.GetByID(ctx, tx, match.TournamentID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusInProgress {
			return fmt.Errorf("%w: tournament %d is %s", ErrTournamentNotInProgress,
				tournament.ID, tournament.Status)
		}
		weight = tournament.RatingWeight

		match.Status = models.MatchWalkover
		match.WinningTeamID = &winnerID
		if err := s.matchRepo.RecordResult(ctx, tx, match); err != nil {
			return err
		}
		if err := s.propagate(ctx, tx, match); err != nil {
			return err
		}
		return s.reservationRepo.ReleaseByMatch(ctx, tx, matchID)
	})
	if err != nil {
		return nil, err
	}

	s.afterDecided(ctx, match, weight, true)
	return match, nil
}

// Cancel voids an open match and frees its court slot. Advancement pointers
// into the cancelled match stay unresolved for an operator to re-route.
func (s *MatchService) Cancel(ctx context.Context, matchID int) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		match, err := s.lockMatch(ctx, tx, matchID)
		if err != nil {
			return err
		}
		if !match.Status.IsOpen() {
			return fmt.Errorf("%w: match %d is %s", ErrMatchAlreadyDecided, matchID, match.Status)
		}
		if err := s.matchRepo.UpdateStatus(ctx, tx, matchID, models.MatchCancelled); err != nil {
			return err
		}
		return s.reservationRepo.ReleaseByMatch(ctx, tx, matchID)
	})
}

func (s *MatchService) lockMatch(ctx context.Context, tx *sql.Tx, matchID int) (*models.Match, error) {
	match, err := s.matchRepo.GetByIDForUpdate(ctx, tx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return match, nil
}

// propagate writes the winner into the first open slot of the winner target
// and, for double elimination, the loser into the loser target.
func (s *MatchService) propagate(ctx context.Context, tx *sql.Tx, match *models.Match) error {
	if match.WinnerAdvancesToMatchID != nil {
		if err := s.fillSlot(ctx, tx, *match.WinnerAdvancesToMatchID, *match.WinningTeamID); err != nil {
			return err
		}
	}
	if match.LoserAdvancesToMatchID != nil {
		loser := match.LoserID()
		if loser == nil {
			return fmt.Errorf("match %d: loser not derivable", match.ID)
		}
		if err := s.fillSlot(ctx, tx, *match.LoserAdvancesToMatchID, *loser); err != nil {
			return err
		}
	}
	return nil
}

func (s *MatchService) fillSlot(ctx context.Context, tx *sql.Tx, targetID, teamID int) error {
	target, err := s.matchRepo.GetByIDForUpdate(ctx, tx, targetID)
	if err != nil {
		return fmt.Errorf("load advancement target %d: %w", targetID, err)
	}
	switch {
	case target.Team1ID == nil:
		return s.matchRepo.UpdateTeamSlot(ctx, tx, targetID, 1, teamID)
	case target.Team2ID == nil:
		return s.matchRepo.UpdateTeamSlot(ctx, tx, targetID, 2, teamID)
	default:
		return fmt.Errorf("advancement target %d has no open slot", targetID)
	}
}

func (s *MatchService) afterDecided(ctx context.Context, match *models.Match, weight float64, walkover bool) {
	loser := match.LoserID()
	ev := RatingEvent{
		TournamentID:  match.TournamentID,
		MatchID:       match.ID,
		WinningTeamID: *match.WinningTeamID,
		Walkover:      walkover,
		Weight:        weight,
	}
	if loser != nil {
		ev.LosingTeamID = *loser
	}
	if err := s.ratingUpdater.RatingsUpdated(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "rating update failed",
			slog.Int("match_id", match.ID), slog.Any("error", err))
	}

	notification := NewNotificationEvent(EventMatchResult, match.TournamentID)
	notification.MatchID = match.ID
	notification.TeamID = *match.WinningTeamID
	s.notifier.Notify(ctx, notification)
}
