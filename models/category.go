package models

// Category is a skill tier with an ELO eligibility band.
type Category string

const (
	CategoryBronze   Category = "BRONZE"
	CategorySilver   Category = "SILVER"
	CategoryGold     Category = "GOLD"
	CategoryPlatinum Category = "PLATINUM"
)

// CategoryOrder lists the tiers in ascending skill order.
var CategoryOrder = []Category{CategoryBronze, CategorySilver, CategoryGold, CategoryPlatinum}

func (c Category) Valid() bool {
	for _, known := range CategoryOrder {
		if c == known {
			return true
		}
	}
	return false
}

// IsTop reports whether the category's band is open-ended upward.
func (c Category) IsTop() bool {
	return c == CategoryPlatinum
}

// EloBand is the canonical half-open ELO interval of a category.
// The top tier has no upper bound (Max is nil).
type EloBand struct {
	Min float64
	Max *float64
}

var canonicalBands = map[Category]EloBand{
	CategoryBronze:   {Min: 1.0, Max: ptrFloat(2.0)},
	CategorySilver:   {Min: 2.0, Max: ptrFloat(3.0)},
	CategoryGold:     {Min: 3.0, Max: ptrFloat(4.0)},
	CategoryPlatinum: {Min: 4.0, Max: nil},
}

func ptrFloat(f float64) *float64 { return &f }

// CanonicalBand returns the canonical ELO band for a category.
func CanonicalBand(c Category) (EloBand, bool) {
	band, ok := canonicalBands[c]
	return band, ok
}

// CategoryConfig is a per-tournament category with its eligibility band
// and capacity. Bands are always cloned from the canonical table.
type CategoryConfig struct {
	ID              int      `json:"id" db:"id"`
	TournamentID    int      `json:"tournament_id" db:"tournament_id"`
	Category        Category `json:"category" db:"category"`
	MaxParticipants int      `json:"max_participants" db:"max_participants"`
	MinElo          float64  `json:"min_elo" db:"min_elo"`
	MaxElo          *float64 `json:"max_elo,omitempty" db:"max_elo"`
}

// Allows reports whether a rating satisfies the category's band:
// min_elo <= elo, and elo < max_elo unless the band is open-ended.
func (c *CategoryConfig) Allows(elo float64) bool {
	if elo < c.MinElo {
		return false
	}
	if c.MaxElo == nil {
		return true
	}
	return elo < *c.MaxElo
}

// MatchesCanonical reports whether the config's band equals the canonical
// table entry for its category.
func (c *CategoryConfig) MatchesCanonical() bool {
	band, ok := CanonicalBand(c.Category)
	if !ok {
		return false
	}
	if c.MinElo != band.Min {
		return false
	}
	if (c.MaxElo == nil) != (band.Max == nil) {
		return false
	}
	return c.MaxElo == nil || *c.MaxElo == *band.Max
}

// NewCategoryConfig builds a config for a tournament with the canonical band.
func NewCategoryConfig(tournamentID int, category Category, maxParticipants int) (CategoryConfig, bool) {
	band, ok := CanonicalBand(category)
	if !ok {
		return CategoryConfig{}, false
	}
	return CategoryConfig{
		TournamentID:    tournamentID,
		Category:        category,
		MaxParticipants: maxParticipants,
		MinElo:          band.Min,
		MaxElo:          band.Max,
	}, true
}
