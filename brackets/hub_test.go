package brackets

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHubRunStopsOnContextCancel(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after context cancellation")
	}
}

func TestHubPublishNeverBlocks(t *testing.T) {
	// No Run loop draining the buffer: publishing past capacity must drop
	// events instead of blocking the caller.
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(Event{Type: "MATCH_COMPLETED", TournamentID: 1})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a full buffer")
	}
	require.Len(t, hub.events, cap(hub.events))
}
