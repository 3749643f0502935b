package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/padelpoint/tournament-engine/models"
)

var ErrCourtNotFound = errors.New("court not found")

// CourtRepository is the read side of the club service's court data.
type CourtRepository interface {
	ListByClub(ctx context.Context, clubID int) ([]*models.Court, error)
	GetByID(ctx context.Context, id int) (*models.Court, error)
}

// BookingRepository is the read side of the booking service's data; the
// allocator treats confirmed ordinary bookings as busy time.
type BookingRepository interface {
	ListConfirmedByCourtsBetween(ctx context.Context, courtIDs []int, from, to time.Time) ([]*models.Booking, error)
}

type postgresCourtRepository struct {
	db *sql.DB
}

func NewPostgresCourtRepository(db *sql.DB) CourtRepository {
	return &postgresCourtRepository{db: db}
}

func (r *postgresCourtRepository) ListByClub(ctx context.Context, clubID int) ([]*models.Court, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, club_id, name, opening_hour, closing_hour
		FROM courts WHERE club_id = $1 ORDER BY id`, clubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var courts []*models.Court
	for rows.Next() {
		c := &models.Court{}
		if scanErr := rows.Scan(&c.ID, &c.ClubID, &c.Name, &c.OpeningHour, &c.ClosingHour); scanErr != nil {
			return nil, scanErr
		}
		courts = append(courts, c)
	}
	return courts, rows.Err()
}

func (r *postgresCourtRepository) GetByID(ctx context.Context, id int) (*models.Court, error) {
	c := &models.Court{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, club_id, name, opening_hour, closing_hour
		FROM courts WHERE id = $1`, id).Scan(&c.ID, &c.ClubID, &c.Name, &c.OpeningHour, &c.ClosingHour)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}
	return c, nil
}

type postgresBookingRepository struct {
	db *sql.DB
}

func NewPostgresBookingRepository(db *sql.DB) BookingRepository {
	return &postgresBookingRepository{db: db}
}

func (r *postgresBookingRepository) ListConfirmedByCourtsBetween(ctx context.Context, courtIDs []int, from, to time.Time) ([]*models.Booking, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, court_id, start_time, end_time, status
		FROM bookings
		WHERE court_id = ANY($1) AND status = 'CONFIRMED' AND end_time > $2 AND start_time < $3
		ORDER BY court_id, start_time`,
		pq.Array(courtIDs), from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b := &models.Booking{}
		if scanErr := rows.Scan(&b.ID, &b.CourtID, &b.StartTime, &b.EndTime, &b.Status); scanErr != nil {
			return nil, scanErr
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
