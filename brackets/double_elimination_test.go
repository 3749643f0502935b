package brackets

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoubleEliminationEightTeams(t *testing.T) {
	g := NewDoubleEliminationGenerator()
	arena, err := g.Generate(context.Background(), GenerateParams{Entries: makeEntries(8)})
	require.NoError(t, err)

	// 7 winners matches, 6 losers matches, 1 grand final.
	require.Len(t, arena, 14)

	grandFinal := arena[len(arena)-1]
	assert.Equal(t, -1, grandFinal.WinnerTo)
	assert.Equal(t, 6, grandFinal.Round)

	sinks := 0
	losersRouted := 0
	for i, m := range arena {
		if m.WinnerTo == -1 {
			sinks++
		} else {
			require.Greater(t, m.WinnerTo, i, "winner pointers must be forward-only")
		}
		if m.LoserTo != -1 {
			require.Greater(t, m.LoserTo, i, "loser pointers must be forward-only")
			require.Greater(t, arena[m.LoserTo].Round, m.Round)
			losersRouted++
		}
	}
	assert.Equal(t, 1, sinks, "the grand final is the only sink")
	// Every winners-bracket match routes its loser somewhere.
	assert.Equal(t, 7, losersRouted)
}

func TestDoubleEliminationTotalMatches(t *testing.T) {
	g := NewDoubleEliminationGenerator()
	for _, n := range []int{2, 3, 4, 5, 6, 7, 8, 12, 16} {
		t.Run(fmt.Sprintf("%d teams", n), func(t *testing.T) {
			arena, err := g.Generate(context.Background(), GenerateParams{Entries: makeEntries(n)})
			require.NoError(t, err)
			// Without a bracket reset a champion emerges after 2n-2 matches:
			// every other team loses twice, except the runner-up once.
			assert.Len(t, arena, 2*n-2)

			sinks := 0
			for _, m := range arena {
				if m.WinnerTo == -1 {
					sinks++
				}
			}
			assert.Equal(t, 1, sinks)
		})
	}
}

func TestDoubleEliminationTwoTeams(t *testing.T) {
	g := NewDoubleEliminationGenerator()
	arena, err := g.Generate(context.Background(), GenerateParams{Entries: makeEntries(2)})
	require.NoError(t, err)
	require.Len(t, arena, 2)

	final, grand := arena[0], arena[1]
	assert.Equal(t, 1, final.WinnerTo)
	assert.Equal(t, 1, final.LoserTo, "with two teams the loser re-meets the winner in the grand final")
	assert.Equal(t, -1, grand.WinnerTo)
}

func TestDoubleEliminationTooFewEntries(t *testing.T) {
	g := NewDoubleEliminationGenerator()
	_, err := g.Generate(context.Background(), GenerateParams{Entries: makeEntries(1)})
	assert.ErrorIs(t, err, ErrNotEnoughEntries)
}
