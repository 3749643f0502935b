package models

import "time"

// TournamentType matches the tournament_type ENUM in the database.
type TournamentType string

const (
	TypeSingleElimination TournamentType = "SINGLE_ELIMINATION"
	TypeDoubleElimination TournamentType = "DOUBLE_ELIMINATION"
	TypeAmericano         TournamentType = "AMERICANO"
	TypeFixedAmericano    TournamentType = "FIXED_AMERICANO"
)

func (t TournamentType) Valid() bool {
	switch t {
	case TypeSingleElimination, TypeDoubleElimination, TypeAmericano, TypeFixedAmericano:
		return true
	}
	return false
}

// IsElimination reports whether the type uses a knockout tree with
// winner/loser advancement pointers.
func (t TournamentType) IsElimination() bool {
	return t == TypeSingleElimination || t == TypeDoubleElimination
}

// TournamentStatus matches the tournament_status ENUM in the database.
type TournamentStatus string

const (
	StatusDraft              TournamentStatus = "DRAFT"
	StatusRegistrationOpen   TournamentStatus = "REGISTRATION_OPEN"
	StatusRegistrationClosed TournamentStatus = "REGISTRATION_CLOSED"
	StatusInProgress         TournamentStatus = "IN_PROGRESS"
	StatusCompleted          TournamentStatus = "COMPLETED"
	StatusCancelled          TournamentStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is allowed.
func (s TournamentStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

var allowedStatusTransitions = map[TournamentStatus][]TournamentStatus{
	StatusDraft:              {StatusRegistrationOpen, StatusCancelled},
	StatusRegistrationOpen:   {StatusRegistrationClosed, StatusCancelled},
	StatusRegistrationClosed: {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress:         {StatusCompleted, StatusCancelled},
	StatusCompleted:          {},
	StatusCancelled:          {},
}

// ValidStatusTransition reports whether current -> next is an allowed
// lifecycle transition. A no-op transition is always allowed.
func ValidStatusTransition(current, next TournamentStatus) bool {
	if current == next {
		return true
	}
	for _, allowed := range allowedStatusTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

// Tournament is a single concrete tournament instance.
type Tournament struct {
	ID                    int              `json:"id" db:"id"`
	ClubID                int              `json:"club_id" db:"club_id"`
	Name                  string           `json:"name" db:"name"`
	Type                  TournamentType   `json:"type" db:"type"`
	Status                TournamentStatus `json:"status" db:"status"`
	StartDate             time.Time        `json:"start_date" db:"start_date"`
	EndDate               time.Time        `json:"end_date" db:"end_date"`
	RegistrationDeadline  time.Time        `json:"registration_deadline" db:"registration_deadline"`
	MaxParticipants       int              `json:"max_participants" db:"max_participants"`
	EntryFee              float64          `json:"entry_fee" db:"entry_fee"`
	RecurringTournamentID *int             `json:"recurring_tournament_id,omitempty" db:"recurring_tournament_id"`
	ScheduleGenerated     bool             `json:"schedule_generated" db:"schedule_generated"`
	ScheduleIncomplete    bool             `json:"schedule_incomplete" db:"schedule_incomplete"`
	AutoScheduleEnabled   bool             `json:"auto_schedule_enabled" db:"auto_schedule_enabled"`
	MatchDurationMinutes  int              `json:"match_duration_minutes" db:"match_duration_minutes"`
	AmericanoRounds       int              `json:"americano_rounds" db:"americano_rounds"`
	RatingWeight          float64          `json:"rating_weight" db:"rating_weight"`
	CreatedAt             time.Time        `json:"created_at" db:"created_at"`

	// Optional related entities, loaded on demand.
	Categories []CategoryConfig `json:"categories,omitempty" db:"-"`
	Teams      []TournamentTeam `json:"teams,omitempty" db:"-"`
	Matches    []Match          `json:"matches,omitempty" db:"-"`
}

// MatchDuration returns the fixed per-match duration used by the allocator.
func (t *Tournament) MatchDuration() time.Duration {
	if t.MatchDurationMinutes <= 0 {
		return 90 * time.Minute
	}
	return time.Duration(t.MatchDurationMinutes) * time.Minute
}
