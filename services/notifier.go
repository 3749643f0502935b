package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/padelpoint/tournament-engine/brackets"
)

// Engine event types pushed to the notification service and the live hub.
const (
	EventMatchScheduled      = "MATCH_SCHEDULED"
	EventMatchResult         = "MATCH_RESULT"
	EventRegistrationClosed  = "REGISTRATION_CLOSED"
	EventTournamentCompleted = "TOURNAMENT_COMPLETED"
	EventTournamentCancelled = "TOURNAMENT_CANCELLED"
)

// NotificationEvent carries entity ids only; consumers load what they need.
// Delivery is at-least-once and always happens after the owning transaction
// commits.
type NotificationEvent struct {
	EventID      string `json:"event_id"`
	Type         string `json:"type"`
	TournamentID int    `json:"tournament_id"`
	MatchID      int    `json:"match_id,omitempty"`
	TeamID       int    `json:"team_id,omitempty"`
}

// Notifier is the fire-and-forget boundary to the notification service.
// Implementations must never block the caller on delivery failures.
type Notifier interface {
	Notify(ctx context.Context, ev NotificationEvent)
}

// NewNotificationEvent stamps a fresh event id.
func NewNotificationEvent(eventType string, tournamentID int) NotificationEvent {
	return NotificationEvent{
		EventID:      uuid.NewString(),
		Type:         eventType,
		TournamentID: tournamentID,
	}
}

// LogNotifier writes events to the structured log. It is the default sink
// when no external notification service is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, ev NotificationEvent) {
	n.logger.InfoContext(ctx, "notification event",
		slog.String("event_id", ev.EventID),
		slog.String("type", ev.Type),
		slog.Int("tournament_id", ev.TournamentID),
		slog.Int("match_id", ev.MatchID),
	)
}

// HubNotifier bridges engine events onto the websocket hub so bracket
// viewers see progress live.
type HubNotifier struct {
	hub *brackets.Hub
}

func NewHubNotifier(hub *brackets.Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) Notify(ctx context.Context, ev NotificationEvent) {
	n.hub.Publish(brackets.Event{
		Type:         ev.Type,
		TournamentID: ev.TournamentID,
		Payload:      ev,
	})
}

// MultiNotifier fans one event out to several sinks.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ctx context.Context, ev NotificationEvent) {
	for _, n := range m {
		n.Notify(ctx, ev)
	}
}
