package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/padelpoint/tournament-engine/models"
	"github.com/padelpoint/tournament-engine/repositories"
)

// RegisterTeamInput registers one team (a fixed padel pair) into a
// tournament. CategoryConfigID is optional: when zero the first category
// whose band admits the team's ELO is selected.
type RegisterTeamInput struct {
	TournamentID     int     `json:"tournament_id"`
	TeamID           int     `json:"team_id"`
	TeamElo          float64 `json:"team_elo"`
	CategoryConfigID int     `json:"category_config_id,omitempty"`
	Seed             *int    `json:"seed,omitempty"`
}

type RegistrationService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	categoryRepo   repositories.CategoryRepository
	teamRepo       repositories.TournamentTeamRepository
	now            func() time.Time
}

func NewRegistrationService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	categoryRepo repositories.CategoryRepository,
	teamRepo repositories.TournamentTeamRepository,
) *RegistrationService {
	return &RegistrationService{
		db:             db,
		tournamentRepo: tournamentRepo,
		categoryRepo:   categoryRepo,
		teamRepo:       teamRepo,
		now:            time.Now,
	}
}

// RegisterTeam validates eligibility and inserts the registration. The
// capacity check and the insert run in one transaction with the category
// row locked, so two concurrent registrations for the last slot cannot
// both succeed.
func (s *RegistrationService) RegisterTeam(ctx context.Context, in RegisterTeamInput) (*models.TournamentTeam, error) {
	if in.TeamElo <= 0 {
		return nil, fmt.Errorf("%w: team ELO must be positive", ErrValidationFailed)
	}

	var team *models.TournamentTeam
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, tx, in.TournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if tournament.Status != models.StatusRegistrationOpen {
			return fmt.Errorf("%w: status is %s", ErrRegistrationNotOpen, tournament.Status)
		}
		if s.now().After(tournament.RegistrationDeadline) {
			return fmt.Errorf("%w: deadline passed", ErrRegistrationNotOpen)
		}

		category, err := s.selectCategory(ctx, tx, tournament.ID, in)
		if err != nil {
			return err
		}

		// Row lock serializes concurrent capacity checks on this category.
		if _, err := s.categoryRepo.GetByIDForUpdate(ctx, tx, category.ID); err != nil {
			return err
		}
		count, err := s.teamRepo.CountActiveByCategory(ctx, tx, category.ID)
		if err != nil {
			return err
		}
		if count >= category.MaxParticipants {
			return fmt.Errorf("%w: %s has %d/%d teams", ErrCategoryFull,
				category.Category, count, category.MaxParticipants)
		}

		team = &models.TournamentTeam{
			TournamentID:      tournament.ID,
			CategoryConfigID:  category.ID,
			TeamID:            in.TeamID,
			EloAtRegistration: in.TeamElo,
			Seed:              in.Seed,
			IsActive:          true,
		}
		if err := s.teamRepo.Create(ctx, tx, team); err != nil {
			if errors.Is(err, repositories.ErrTeamAlreadyRegistered) {
				return ErrTeamAlreadyRegistered
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// selectCategory resolves the target category: the explicit one (validating
// the band against the team's ELO) or the first band that admits it.
func (s *RegistrationService) selectCategory(ctx context.Context, tx *sql.Tx, tournamentID int, in RegisterTeamInput) (*models.CategoryConfig, error) {
	if in.CategoryConfigID != 0 {
		category, err := s.categoryRepo.GetByID(ctx, tx, in.CategoryConfigID)
		if err != nil {
			if errors.Is(err, repositories.ErrCategoryNotFound) {
				return nil, ErrCategoryNotFound
			}
			return nil, err
		}
		if category.TournamentID != tournamentID {
			return nil, fmt.Errorf("%w: category %d belongs to another tournament", ErrValidationFailed, category.ID)
		}
		if !category.Allows(in.TeamElo) {
			return nil, fmt.Errorf("%w: ELO %.2f not in %s band", ErrTeamEloOutOfBand, in.TeamElo, category.Category)
		}
		return category, nil
	}

	categories, err := s.categoryRepo.ListByTournament(ctx, tx, tournamentID)
	if err != nil {
		return nil, err
	}
	for _, category := range categories {
		if category.Allows(in.TeamElo) {
			return category, nil
		}
	}
	return nil, fmt.Errorf("%w: no category admits ELO %.2f", ErrTeamEloOutOfBand, in.TeamElo)
}

// Withdraw deactivates a registration before the bracket exists.
func (s *RegistrationService) Withdraw(ctx context.Context, registrationID int) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		team, err := s.teamRepo.GetByID(ctx, tx, registrationID)
		if err != nil {
			if errors.Is(err, repositories.ErrTeamRegistrationNotFound) {
				return ErrTeamNotFound
			}
			return err
		}
		tournament, err := s.tournamentRepo.GetByID(ctx, tx, team.TournamentID)
		if err != nil {
			return err
		}
		if tournament.Status != models.StatusRegistrationOpen && tournament.Status != models.StatusDraft {
			return fmt.Errorf("%w: cannot withdraw after registration closes", ErrInvalidStatusTransition)
		}
		return s.teamRepo.Deactivate(ctx, tx, registrationID)
	})
}
