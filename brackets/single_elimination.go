package brackets

import (
	"context"
	"errors"
	"math"
	"math/bits"
)

var ErrNotEnoughEntries = errors.New("not enough entries to generate a bracket (minimum 2)")

type SingleEliminationGenerator struct{}

func NewSingleEliminationGenerator() Generator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) Name() string { return "SingleElimination" }

// node is one slot of the current round: either a known team (bye advance
// or first-round entrant) or the winner of an earlier arena match.
type node struct {
	teamID    *int
	fromMatch int
}

func teamNode(id int) node    { return node{teamID: &id, fromMatch: -1} }
func winnerNode(idx int) node { return node{fromMatch: idx} }
func emptyNode() node         { return node{fromMatch: -1} }

func (n node) empty() bool { return n.teamID == nil && n.fromMatch < 0 }

// bracketSize returns the next power of two >= n.
func bracketSize(n int) int {
	if n <= 1 {
		return n
	}
	return 1 << bits.Len(uint(n-1))
}

func numRounds(n int) int {
	if n < 2 {
		return 0
	}
	return int(math.Ceil(math.Log2(float64(n))))
}

// seedPositions returns the seed index (0-based) occupying each first-round
// slot of a full bracket, in standard order: seed 1 meets seed size, seed 2
// meets seed size-1, and the halves are arranged so the top seeds can only
// meet in the final.
func seedPositions(size int) []int {
	positions := []int{0}
	for len(positions) < size {
		doubled := make([]int, 0, len(positions)*2)
		mirror := len(positions)*2 - 1
		for _, s := range positions {
			doubled = append(doubled, s, mirror-s)
		}
		positions = doubled
	}
	return positions
}

// Generate builds a single-elimination tree. Byes fall against the highest
// seeds and advance their team without creating a playable match row; match
// numbers are positional within a round so number/2 addressing into the next
// round stays uniform even when a bye leaves a gap.
func (g *SingleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]*Match, error) {
	entries := params.Entries
	n := len(entries)
	if n < 2 {
		return nil, ErrNotEnoughEntries
	}

	rounds := numRounds(n)
	size := bracketSize(n)

	current := make([]node, size)
	for slotIdx, seed := range seedPositions(size) {
		if seed < n {
			current[slotIdx] = teamNode(entries[seed].TeamID)
		} else {
			current[slotIdx] = emptyNode()
		}
	}

	arena := make([]*Match, 0, size-1)
	for r := 1; r <= rounds; r++ {
		next := make([]node, 0, len(current)/2)
		for pos := 0; pos < len(current); pos += 2 {
			left, right := current[pos], current[pos+1]

			if left.empty() || right.empty() {
				// Bye: the present side advances without a match.
				if left.empty() {
					next = append(next, right)
				} else {
					next = append(next, left)
				}
				continue
			}

			m := &Match{
				Round:    r,
				Number:   pos/2 + 1,
				Team1ID:  left.teamID,
				Team2ID:  right.teamID,
				WinnerTo: -1,
				LoserTo:  -1,
			}
			idx := len(arena)
			arena = append(arena, m)
			if left.fromMatch >= 0 {
				arena[left.fromMatch].WinnerTo = idx
			}
			if right.fromMatch >= 0 {
				arena[right.fromMatch].WinnerTo = idx
			}
			next = append(next, winnerNode(idx))
		}
		current = next
	}

	return arena, nil
}
