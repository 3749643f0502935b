package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/padelpoint/tournament-engine/brackets"
	"github.com/padelpoint/tournament-engine/models"
	"github.com/padelpoint/tournament-engine/repositories"
)

type BracketService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	categoryRepo   repositories.CategoryRepository
	teamRepo       repositories.TournamentTeamRepository
	matchRepo      repositories.MatchRepository
	logger         *slog.Logger
}

func NewBracketService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	categoryRepo repositories.CategoryRepository,
	teamRepo repositories.TournamentTeamRepository,
	matchRepo repositories.MatchRepository,
	logger *slog.Logger,
) *BracketService {
	return &BracketService{
		db:             db,
		tournamentRepo: tournamentRepo,
		categoryRepo:   categoryRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		logger:         logger,
	}
}

// Generate builds and persists the brackets for every category of a closed
// tournament. Admin entry point; the lifecycle sweep calls GenerateTx
// directly inside its status-flip transaction.
func (s *BracketService) Generate(ctx context.Context, tournamentID int) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if tournament.Status != models.StatusRegistrationClosed {
			return fmt.Errorf("%w: status is %s, want %s", ErrInvalidStatusTransition,
				tournament.Status, models.StatusRegistrationClosed)
		}
		return s.GenerateTx(ctx, tx, tournament)
	})
}

// GenerateTx generates brackets for all categories within the caller's
// transaction. A tournament that already has match rows is left untouched,
// which makes repeated triggers (sweep retries, double admin clicks)
// harmless.
func (s *BracketService) GenerateTx(ctx context.Context, tx *sql.Tx, tournament *models.Tournament) error {
	existing, err := s.matchRepo.CountByTournament(ctx, tx, tournament.ID)
	if err != nil {
		return err
	}
	if existing > 0 {
		s.logger.InfoContext(ctx, "bracket already generated, skipping",
			slog.Int("tournament_id", tournament.ID),
			slog.Int("existing_matches", existing))
		return nil
	}

	generator, err := brackets.ForType(tournament.Type)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidTournamentType, err)
	}

	categories, err := s.categoryRepo.ListByTournament(ctx, tx, tournament.ID)
	if err != nil {
		return err
	}

	generated := 0
	for _, category := range categories {
		created, err := s.generateCategory(ctx, tx, tournament, category, generator)
		if err != nil {
			return fmt.Errorf("category %s: %w", category.Category, err)
		}
		generated += created
	}
	if generated == 0 {
		return fmt.Errorf("%w: no category has two or more active teams", ErrNotEnoughTeams)
	}

	s.logger.InfoContext(ctx, "bracket generated",
		slog.Int("tournament_id", tournament.ID),
		slog.String("generator", generator.Name()),
		slog.Int("matches", generated))
	return nil
}

func (s *BracketService) generateCategory(
	ctx context.Context,
	tx *sql.Tx,
	tournament *models.Tournament,
	category *models.CategoryConfig,
	generator brackets.Generator,
) (int, error) {
	teams, err := s.teamRepo.ListByCategory(ctx, tx, category.ID)
	if err != nil {
		return 0, err
	}
	// A category that never filled simply plays no matches.
	if len(teams) < 2 {
		s.logger.InfoContext(ctx, "category skipped, not enough teams",
			slog.Int("tournament_id", tournament.ID),
			slog.String("category", string(category.Category)),
			slog.Int("teams", len(teams)))
		return 0, nil
	}

	// The repository orders by manual seed, then ELO descending; the slice
	// position is the effective seed.
	entries := make([]brackets.Entry, len(teams))
	for i, team := range teams {
		entries[i] = brackets.Entry{TeamID: team.ID, Seed: effectiveSeed(teams, i)}
	}

	arena, err := generator.Generate(ctx, brackets.GenerateParams{
		Entries: entries,
		Rounds:  tournament.AmericanoRounds,
	})
	if err != nil {
		if errors.Is(err, brackets.ErrNotEnoughEntries) {
			return 0, fmt.Errorf("%w: %v", ErrNotEnoughTeams, err)
		}
		return 0, err
	}

	// First pass: insert rows, recording arena index -> row id.
	rowIDs := make([]int, len(arena))
	for i, bm := range arena {
		match := &models.Match{
			TournamentID:     tournament.ID,
			CategoryConfigID: category.ID,
			RoundNumber:      bm.Round,
			MatchNumber:      bm.Number,
			Team1ID:          bm.Team1ID,
			Team2ID:          bm.Team2ID,
			Status:           models.MatchScheduled,
		}
		if err := s.matchRepo.Create(ctx, tx, match); err != nil {
			return 0, err
		}
		rowIDs[i] = match.ID
	}

	// Second pass: rewrite arena indexes into advancement row ids.
	for i, bm := range arena {
		if bm.WinnerTo < 0 && bm.LoserTo < 0 {
			continue
		}
		var winnerTo, loserTo *int
		if bm.WinnerTo >= 0 {
			winnerTo = &rowIDs[bm.WinnerTo]
		}
		if bm.LoserTo >= 0 {
			loserTo = &rowIDs[bm.LoserTo]
		}
		if err := s.matchRepo.UpdateAdvancement(ctx, tx, rowIDs[i], winnerTo, loserTo); err != nil {
			return 0, err
		}
	}
	return len(arena), nil
}
