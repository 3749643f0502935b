package services

import (
	"context"
	"log/slog"
)

// RatingEvent describes one decided match for the external rating service.
// Weight is the tournament's rating weight, applied by the consumer.
type RatingEvent struct {
	TournamentID  int     `json:"tournament_id"`
	MatchID       int     `json:"match_id"`
	WinningTeamID int     `json:"winning_team_id"`
	LosingTeamID  int     `json:"losing_team_id"`
	Walkover      bool    `json:"walkover"`
	Weight        float64 `json:"weight"`
}

// RatingUpdater is the boundary to the rating service. Called after the
// completing transaction commits, at-least-once.
type RatingUpdater interface {
	RatingsUpdated(ctx context.Context, ev RatingEvent) error
}

// LogRatingUpdater records rating events in the structured log; the default
// when no rating service is wired.
type LogRatingUpdater struct {
	logger *slog.Logger
}

func NewLogRatingUpdater(logger *slog.Logger) *LogRatingUpdater {
	return &LogRatingUpdater{logger: logger}
}

func (u *LogRatingUpdater) RatingsUpdated(ctx context.Context, ev RatingEvent) error {
	u.logger.InfoContext(ctx, "rating update",
		slog.Int("tournament_id", ev.TournamentID),
		slog.Int("match_id", ev.MatchID),
		slog.Int("winning_team_id", ev.WinningTeamID),
		slog.Int("losing_team_id", ev.LosingTeamID),
		slog.Bool("walkover", ev.Walkover),
		slog.Float64("weight", ev.Weight),
	)
	return nil
}
