package models

import "time"

// TournamentTeam is a team's registration in one tournament category.
// A team registers in at most one category per tournament (unique index).
type TournamentTeam struct {
	ID                int       `json:"id" db:"id"`
	TournamentID      int       `json:"tournament_id" db:"tournament_id"`
	CategoryConfigID  int       `json:"category_config_id" db:"category_config_id"`
	TeamID            int       `json:"team_id" db:"team_id"`
	EloAtRegistration float64   `json:"elo_at_registration" db:"elo_at_registration"`
	Seed              *int      `json:"seed,omitempty" db:"seed"`
	IsActive          bool      `json:"is_active" db:"is_active"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}
