package models

import (
	"time"

	"github.com/lib/pq"
)

// RecurrencePattern matches the recurrence_pattern ENUM in the database.
type RecurrencePattern string

const (
	RecurrenceWeekly  RecurrencePattern = "WEEKLY"
	RecurrenceMonthly RecurrencePattern = "MONTHLY"
	RecurrenceCustom  RecurrencePattern = "CUSTOM"
)

func (p RecurrencePattern) Valid() bool {
	return p == RecurrenceWeekly || p == RecurrenceMonthly || p == RecurrenceCustom
}

// RecurringTournament is a template that periodically spawns concrete
// Tournament instances. Category templates are cloned, not referenced,
// into each generated tournament.
type RecurringTournament struct {
	ID                    int               `json:"id" db:"id"`
	ClubID                int               `json:"club_id" db:"club_id"`
	Name                  string            `json:"name" db:"name"`
	Type                  TournamentType    `json:"type" db:"type"`
	RecurrencePattern     RecurrencePattern `json:"recurrence_pattern" db:"recurrence_pattern"`
	IntervalValue         int               `json:"interval_value" db:"interval_value"`
	DaysOfWeek            pq.Int64Array     `json:"days_of_week,omitempty" db:"days_of_week"` // 0=Sunday .. 6=Saturday
	DayOfMonth            *int              `json:"day_of_month,omitempty" db:"day_of_month"`
	SeriesStartDate       time.Time         `json:"series_start_date" db:"series_start_date"`
	SeriesEndDate         *time.Time        `json:"series_end_date,omitempty" db:"series_end_date"`
	AdvanceGenerationDays int               `json:"advance_generation_days" db:"advance_generation_days"`
	AutoGenerationEnabled bool              `json:"auto_generation_enabled" db:"auto_generation_enabled"`
	IsActive              bool              `json:"is_active" db:"is_active"`
	StartHour             int               `json:"start_hour" db:"start_hour"`
	DurationHours         int               `json:"duration_hours" db:"duration_hours"`
	RegistrationLeadHours int               `json:"registration_lead_hours" db:"registration_lead_hours"`
	MaxParticipants       int               `json:"max_participants" db:"max_participants"`
	EntryFee              float64           `json:"entry_fee" db:"entry_fee"`
	MatchDurationMinutes  int               `json:"match_duration_minutes" db:"match_duration_minutes"`
	CreatedAt             time.Time         `json:"created_at" db:"created_at"`

	Templates []CategoryTemplate `json:"templates,omitempty" db:"-"`
}

// CategoryTemplate mirrors CategoryConfig on a recurring series. ELO bands
// are not stored: they are re-derived from the canonical table each time a
// tournament is generated, so stale bands can never be copied forward.
type CategoryTemplate struct {
	ID                    int      `json:"id" db:"id"`
	RecurringTournamentID int      `json:"recurring_tournament_id" db:"recurring_tournament_id"`
	Category              Category `json:"category" db:"category"`
	MaxParticipants       int      `json:"max_participants" db:"max_participants"`
}

// EngineState is the single persisted row of sweep bookkeeping.
type EngineState struct {
	ID                   int        `json:"id" db:"id"`
	LastSweepAt          *time.Time `json:"last_sweep_at,omitempty" db:"last_sweep_at"`
	LastSeriesGenerateAt *time.Time `json:"last_series_generate_at,omitempty" db:"last_series_generate_at"`
}
