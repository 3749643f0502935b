package models

import "time"

// CourtReservation blocks a court for one tournament match. Reservations
// for the same court must never overlap in time; the court_reservations
// exclusion constraint backs this invariant in the database.
type CourtReservation struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	CourtID      int       `json:"court_id" db:"court_id"`
	StartTime    time.Time `json:"start_time" db:"start_time"`
	EndTime      time.Time `json:"end_time" db:"end_time"`
	MatchID      *int      `json:"match_id,omitempty" db:"match_id"`
	IsOccupied   bool      `json:"is_occupied" db:"is_occupied"`
}

// Court is the read-side view of a club court owned by the club service.
// Opening hours are whole hours in the club's local day.
type Court struct {
	ID          int    `json:"id" db:"id"`
	ClubID      int    `json:"club_id" db:"club_id"`
	Name        string `json:"name" db:"name"`
	OpeningHour int    `json:"opening_hour" db:"opening_hour"`
	ClosingHour int    `json:"closing_hour" db:"closing_hour"`
}

// Booking is the read-side view of an ordinary (non-tournament) court
// booking owned by the booking service. Only confirmed bookings are
// considered by the allocator's conflict checks.
type Booking struct {
	ID        int       `json:"id" db:"id"`
	CourtID   int       `json:"court_id" db:"court_id"`
	StartTime time.Time `json:"start_time" db:"start_time"`
	EndTime   time.Time `json:"end_time" db:"end_time"`
	Status    string    `json:"status" db:"status"`
}
