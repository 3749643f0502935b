package brackets

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeEntries(n int) []Entry {
	entries := make([]Entry, n)
	for i := range entries {
		entries[i] = Entry{TeamID: 100 + i, Seed: i + 1}
	}
	return entries
}

func TestSeedPositions(t *testing.T) {
	testCases := []struct {
		size     int
		expected []int
	}{
		{size: 2, expected: []int{0, 1}},
		{size: 4, expected: []int{0, 3, 1, 2}},
		{size: 8, expected: []int{0, 7, 3, 4, 1, 6, 2, 5}},
	}
	for _, tc := range testCases {
		t.Run(fmt.Sprintf("size %d", tc.size), func(t *testing.T) {
			assert.Equal(t, tc.expected, seedPositions(tc.size))
		})
	}
}

func TestSingleEliminationEightTeams(t *testing.T) {
	g := NewSingleEliminationGenerator()
	arena, err := g.Generate(context.Background(), GenerateParams{Entries: makeEntries(8)})
	require.NoError(t, err)
	require.Len(t, arena, 7)

	var round1, round3 []*Match
	for _, m := range arena {
		switch m.Round {
		case 1:
			round1 = append(round1, m)
		case 3:
			round3 = append(round3, m)
		}
	}
	assert.Len(t, round1, 4, "round 1 should have 4 matches")
	require.Len(t, round3, 1, "final round should have exactly 1 match")
	assert.Equal(t, -1, round3[0].WinnerTo, "the final has no forward pointer")

	// Seed 1 meets seed 8 in the first match.
	first := round1[0]
	require.NotNil(t, first.Team1ID)
	require.NotNil(t, first.Team2ID)
	assert.Equal(t, 100, *first.Team1ID)
	assert.Equal(t, 107, *first.Team2ID)
}

func TestSingleEliminationStructure(t *testing.T) {
	g := NewSingleEliminationGenerator()
	for n := 2; n <= 33; n++ {
		t.Run(fmt.Sprintf("%d teams", n), func(t *testing.T) {
			arena, err := g.Generate(context.Background(), GenerateParams{Entries: makeEntries(n)})
			require.NoError(t, err)

			// Every playable match eliminates one team.
			assert.Len(t, arena, n-1)

			wantRounds := int(math.Ceil(math.Log2(float64(n))))
			maxRound, sinks := 0, 0
			for i, m := range arena {
				if m.Round > maxRound {
					maxRound = m.Round
				}
				if m.WinnerTo == -1 {
					sinks++
				} else {
					require.Greater(t, m.WinnerTo, i, "advancement pointers must be forward-only")
					require.Greater(t, arena[m.WinnerTo].Round, m.Round)
				}
				if m.Team1ID != nil && m.Team2ID != nil {
					require.NotEqual(t, *m.Team1ID, *m.Team2ID, "a team cannot play itself")
				}
			}
			assert.Equal(t, wantRounds, maxRound)
			assert.Equal(t, 1, sinks, "exactly one sink per bracket")
		})
	}
}

func TestSingleEliminationByesAdvanceTopSeeds(t *testing.T) {
	g := NewSingleEliminationGenerator()
	arena, err := g.Generate(context.Background(), GenerateParams{Entries: makeEntries(6)})
	require.NoError(t, err)
	require.Len(t, arena, 5)

	var round1, round2 []*Match
	for _, m := range arena {
		switch m.Round {
		case 1:
			round1 = append(round1, m)
		case 2:
			round2 = append(round2, m)
		}
	}
	// Seeds 1 and 2 have byes, leaving two playable first-round matches.
	require.Len(t, round1, 2)
	require.Len(t, round2, 2)
	assert.Equal(t, 2, round1[0].Number)
	assert.Equal(t, 4, round1[1].Number)

	// Bye teams are pre-filled into the second round.
	prefilled := map[int]bool{}
	for _, m := range round2 {
		if m.Team1ID != nil {
			prefilled[*m.Team1ID] = true
		}
		if m.Team2ID != nil {
			prefilled[*m.Team2ID] = true
		}
	}
	assert.True(t, prefilled[100], "seed 1 should advance on a bye")
	assert.True(t, prefilled[101], "seed 2 should advance on a bye")
}

func TestSingleEliminationTooFewEntries(t *testing.T) {
	g := NewSingleEliminationGenerator()
	for _, n := range []int{0, 1} {
		_, err := g.Generate(context.Background(), GenerateParams{Entries: makeEntries(n)})
		assert.ErrorIs(t, err, ErrNotEnoughEntries)
	}
}
