package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/padelpoint/tournament-engine/models"
)

// withTx runs fn inside a transaction, committing on nil and rolling back
// on error or panic.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func validateTournamentDates(registrationDeadline, start, end time.Time) error {
	if registrationDeadline.IsZero() || start.IsZero() || end.IsZero() {
		return fmt.Errorf("%w: all tournament dates are required", ErrValidationFailed)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start %s, end %s", ErrInvalidDateRange,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	if !registrationDeadline.Before(start) {
		return fmt.Errorf("%w: deadline %s, start %s", ErrInvalidRegDeadline,
			registrationDeadline.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return nil
}

// seededEntries orders active registrations for bracket generation: manual
// seeds first (ascending), then by registration-time ELO descending, id as
// the tiebreaker. The team repository already returns this order; the
// positional index becomes the effective seed.
func effectiveSeed(teams []*models.TournamentTeam, i int) int {
	if teams[i].Seed != nil {
		return *teams[i].Seed
	}
	return i + 1
}
