package services

import "errors"

// Sentinel errors shared across services and the HTTP error mapping.
var (
	// Not found
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrTeamNotFound       = errors.New("team registration not found")
	ErrRecurringNotFound  = errors.New("recurring tournament not found")
	ErrCourtNotFound      = errors.New("court not found")

	// Validation and business rules
	ErrValidationFailed        = errors.New("validation failed")
	ErrInvalidTournamentType   = errors.New("invalid tournament type")
	ErrInvalidDateRange        = errors.New("tournament end date must be after start date")
	ErrInvalidRegDeadline      = errors.New("registration deadline must be before the start date")
	ErrInvalidCapacity         = errors.New("max participants must be positive")
	ErrInvalidCategoryBand     = errors.New("category ELO band is invalid")
	ErrOverlappingBands        = errors.New("category ELO bands overlap")
	ErrInvalidRecurrence       = errors.New("recurrence configuration is invalid")
	ErrTeamEloOutOfBand        = errors.New("team ELO is outside the category band")
	ErrInvalidScore            = errors.New("match score is invalid")
	ErrWinnerNotInMatch        = errors.New("winning team is not part of this match")
	ErrNotEnoughTeams          = errors.New("not enough registered teams")
	ErrAmericanoRoundsRequired = errors.New("fixed americano requires a round count")

	// State
	ErrRegistrationNotOpen      = errors.New("tournament registration is not open")
	ErrInvalidStatusTransition  = errors.New("invalid tournament status transition")
	ErrTournamentNotInProgress  = errors.New("tournament is not in progress")
	ErrTournamentTerminal       = errors.New("tournament is already in a terminal state")
	ErrBracketAlreadyGenerated  = errors.New("bracket has already been generated")
	ErrScheduleAlreadyGenerated = errors.New("schedule has already been generated")
	ErrMatchNotPlayable         = errors.New("match does not have both teams assigned")
	ErrMatchAlreadyDecided      = errors.New("match result has already been recorded")
	ErrRecurringInactive        = errors.New("recurring tournament is not active")

	// Conflicts
	ErrTeamAlreadyRegistered  = errors.New("team is already registered for this tournament")
	ErrCategoryFull           = errors.New("category has reached max participants")
	ErrTournamentNameConflict = errors.New("tournament name already exists for this club and date")
	ErrCourtSlotTaken         = errors.New("court is already reserved for this time")

	// Scheduling
	ErrSchedulingInfeasible = errors.New("no feasible schedule exists within the tournament window")

	// Auth
	ErrInvalidCredentials = errors.New("invalid credentials")
)
