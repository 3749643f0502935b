package models

import "time"

// MatchStatus matches the match_status ENUM in the database.
type MatchStatus string

const (
	MatchScheduled  MatchStatus = "SCHEDULED"
	MatchInProgress MatchStatus = "IN_PROGRESS"
	MatchCompleted  MatchStatus = "COMPLETED"
	MatchCancelled  MatchStatus = "CANCELLED"
	MatchWalkover   MatchStatus = "WALKOVER"
)

// IsOpen reports whether the match still has to be resolved.
func (s MatchStatus) IsOpen() bool {
	return s == MatchScheduled || s == MatchInProgress
}

// Match is one node of a category bracket. Advancement pointers reference
// other match rows by id, always forward (higher round), never self.
type Match struct {
	ID               int         `json:"id" db:"id"`
	TournamentID     int         `json:"tournament_id" db:"tournament_id"`
	CategoryConfigID int         `json:"category_config_id" db:"category_config_id"`
	RoundNumber      int         `json:"round_number" db:"round_number"`
	MatchNumber      int         `json:"match_number" db:"match_number"`
	Team1ID          *int        `json:"team1_id,omitempty" db:"team1_id"`
	Team2ID          *int        `json:"team2_id,omitempty" db:"team2_id"`
	Status           MatchStatus `json:"status" db:"status"`
	ScheduledTime    *time.Time  `json:"scheduled_time,omitempty" db:"scheduled_time"`
	CourtID          *int        `json:"court_id,omitempty" db:"court_id"`
	WinningTeamID    *int        `json:"winning_team_id,omitempty" db:"winning_team_id"`
	Team1Score       *int        `json:"team1_score,omitempty" db:"team1_score"`
	Team2Score       *int        `json:"team2_score,omitempty" db:"team2_score"`

	// Bracket wiring, nil for the final (the sink) and for americano rounds.
	WinnerAdvancesToMatchID *int `json:"winner_advances_to_match_id,omitempty" db:"winner_advances_to_match_id"`
	LoserAdvancesToMatchID  *int `json:"loser_advances_to_match_id,omitempty" db:"loser_advances_to_match_id"`
}

// Playable reports whether both team slots are filled.
func (m *Match) Playable() bool {
	return m.Team1ID != nil && m.Team2ID != nil
}

// LoserID returns the id of the team that did not win, if derivable.
func (m *Match) LoserID() *int {
	if m.WinningTeamID == nil || m.Team1ID == nil || m.Team2ID == nil {
		return nil
	}
	if *m.WinningTeamID == *m.Team1ID {
		return m.Team2ID
	}
	return m.Team1ID
}
