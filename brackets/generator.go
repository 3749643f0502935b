package brackets

import (
	"context"
	"fmt"

	"github.com/padelpoint/tournament-engine/models"
)

// Entry is one team entering a category bracket, already ordered by seed.
type Entry struct {
	TeamID int
	Seed   int
}

// Match is one generated bracket node. Matches live in an arena (the slice
// returned by Generate); WinnerTo and LoserTo are arena indexes of the
// follow-up matches, -1 when there is none. The persistence layer rewrites
// them into row ids once the rows exist.
type Match struct {
	Round    int
	Number   int
	Team1ID  *int
	Team2ID  *int
	WinnerTo int
	LoserTo  int
}

// GenerateParams carries everything a generator needs. Entries must be
// ordered best seed first. Rounds is only consulted by the americano
// generators; zero means "as many as the field allows".
type GenerateParams struct {
	Entries []Entry
	Rounds  int
}

// Generator produces the full match set for one category. Implementations
// are pure: they never touch storage.
type Generator interface {
	Generate(ctx context.Context, params GenerateParams) ([]*Match, error)
	Name() string
}

// ForType selects the generation strategy for a tournament type.
func ForType(t models.TournamentType) (Generator, error) {
	switch t {
	case models.TypeSingleElimination:
		return NewSingleEliminationGenerator(), nil
	case models.TypeDoubleElimination:
		return NewDoubleEliminationGenerator(), nil
	case models.TypeAmericano, models.TypeFixedAmericano:
		return NewAmericanoGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported tournament type %q", t)
	}
}
