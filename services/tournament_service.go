package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/padelpoint/tournament-engine/models"
	"github.com/padelpoint/tournament-engine/repositories"
	"golang.org/x/sync/errgroup"
)

// CategoryInput selects one category for a new tournament. Band overrides
// are optional; when absent the canonical band is used.
type CategoryInput struct {
	Category        models.Category `json:"category"`
	MaxParticipants int             `json:"max_participants"`
	MinElo          *float64        `json:"min_elo,omitempty"`
	MaxElo          *float64        `json:"max_elo,omitempty"`
}

// TournamentView is the full admin/bracket read model.
type TournamentView struct {
	Tournament models.Tournament        `json:"tournament"`
	Categories []*models.CategoryConfig `json:"categories"`
	Teams      []*models.TournamentTeam `json:"teams"`
	Matches    []*models.Match          `json:"matches"`
}

type TournamentService struct {
	db             *sql.DB
	tournamentRepo repositories.TournamentRepository
	categoryRepo   repositories.CategoryRepository
	teamRepo       repositories.TournamentTeamRepository
	matchRepo      repositories.MatchRepository
}

func NewTournamentService(
	db *sql.DB,
	tournamentRepo repositories.TournamentRepository,
	categoryRepo repositories.CategoryRepository,
	teamRepo repositories.TournamentTeamRepository,
	matchRepo repositories.MatchRepository,
) *TournamentService {
	return &TournamentService{
		db:             db,
		tournamentRepo: tournamentRepo,
		categoryRepo:   categoryRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
	}
}

// Create persists a tournament and its category configs in one transaction.
// The tournament starts in DRAFT unless OpenRegistrationNow is set.
func (s *TournamentService) Create(ctx context.Context, t *models.Tournament, categories []CategoryInput, openNow bool) (*models.Tournament, error) {
	if !t.Type.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTournamentType, t.Type)
	}
	if err := validateTournamentDates(t.RegistrationDeadline, t.StartDate, t.EndDate); err != nil {
		return nil, err
	}
	if t.MaxParticipants <= 0 {
		return nil, ErrInvalidCapacity
	}
	if t.Type == models.TypeFixedAmericano && t.AmericanoRounds <= 0 {
		return nil, ErrAmericanoRoundsRequired
	}
	if t.RatingWeight <= 0 {
		t.RatingWeight = 1.0
	}

	configs, err := buildCategoryConfigs(categories)
	if err != nil {
		return nil, err
	}

	t.Status = models.StatusDraft
	if openNow {
		t.Status = models.StatusRegistrationOpen
	}

	err = withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := s.tournamentRepo.Create(ctx, tx, t); err != nil {
			switch {
			case errors.Is(err, repositories.ErrTournamentNameConflict):
				return ErrTournamentNameConflict
			case errors.Is(err, repositories.ErrTournamentInvalidClub):
				return fmt.Errorf("%w: unknown club %d", ErrValidationFailed, t.ClubID)
			}
			return err
		}
		for i := range configs {
			configs[i].TournamentID = t.ID
		}
		return s.categoryRepo.CreateBatch(ctx, tx, configs)
	})
	if err != nil {
		return nil, err
	}

	for _, c := range configs {
		t.Categories = append(t.Categories, *c)
	}
	return t, nil
}

func buildCategoryConfigs(inputs []CategoryInput) ([]*models.CategoryConfig, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: at least one category is required", ErrValidationFailed)
	}

	seen := map[models.Category]bool{}
	configs := make([]*models.CategoryConfig, 0, len(inputs))
	for _, in := range inputs {
		if !in.Category.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrValidationFailed, in.Category)
		}
		if seen[in.Category] {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrValidationFailed, in.Category)
		}
		seen[in.Category] = true
		if in.MaxParticipants <= 0 {
			return nil, fmt.Errorf("%w: category %q", ErrInvalidCapacity, in.Category)
		}

		cfg, ok := models.NewCategoryConfig(0, in.Category, in.MaxParticipants)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrValidationFailed, in.Category)
		}
		if in.MinElo != nil {
			cfg.MinElo = *in.MinElo
		}
		if in.MaxElo != nil {
			cfg.MaxElo = in.MaxElo
		}
		if cfg.MaxElo != nil && *cfg.MaxElo <= cfg.MinElo {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCategoryBand, in.Category)
		}
		configs = append(configs, &cfg)
	}

	// Bands across one tournament must not overlap, so auto-selection is
	// deterministic.
	sorted := make([]*models.CategoryConfig, len(configs))
	copy(sorted, configs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MinElo < sorted[j].MinElo })
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1]
		if prev.MaxElo == nil || *prev.MaxElo > sorted[i].MinElo {
			return nil, fmt.Errorf("%w: %q and %q", ErrOverlappingBands, prev.Category, sorted[i].Category)
		}
	}
	return configs, nil
}

func (s *TournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *TournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	return s.tournamentRepo.List(ctx, filter)
}

// OpenRegistration transitions DRAFT -> REGISTRATION_OPEN.
func (s *TournamentService) OpenRegistration(ctx context.Context, id int) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		t, err := s.tournamentRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if !models.ValidStatusTransition(t.Status, models.StatusRegistrationOpen) {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, t.Status, models.StatusRegistrationOpen)
		}
		if t.Status == models.StatusRegistrationOpen {
			return nil
		}
		return s.tournamentRepo.UpdateStatus(ctx, tx, id, models.StatusRegistrationOpen)
	})
}

// GetView assembles the full read model, loading the related collections in
// parallel.
func (s *TournamentService) GetView(ctx context.Context, id int) (*TournamentView, error) {
	t, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &TournamentView{Tournament: *t}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		categories, err := s.categoryRepo.ListByTournament(gctx, nil, id)
		if err != nil {
			return fmt.Errorf("load categories for tournament %d: %w", id, err)
		}
		view.Categories = categories
		return nil
	})
	g.Go(func() error {
		teams, err := s.teamRepo.ListByTournament(gctx, nil, id)
		if err != nil {
			return fmt.Errorf("load teams for tournament %d: %w", id, err)
		}
		view.Teams = teams
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, nil, id)
		if err != nil {
			return fmt.Errorf("load matches for tournament %d: %w", id, err)
		}
		view.Matches = matches
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}
