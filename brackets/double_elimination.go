package brackets

import (
	"context"
	"fmt"
)

type DoubleEliminationGenerator struct{}

func NewDoubleEliminationGenerator() Generator {
	return &DoubleEliminationGenerator{}
}

func (g *DoubleEliminationGenerator) Name() string { return "DoubleElimination" }

// src is a pending losers-bracket feed: the loser of a winners-bracket
// match, the winner of an earlier losers-bracket match, or nothing (a
// winners-bracket bye produced no loser).
type src struct {
	loserOf  int
	winnerOf int
}

func loserSrc(idx int) src  { return src{loserOf: idx, winnerOf: -1} }
func winnerSrc(idx int) src { return src{loserOf: -1, winnerOf: idx} }
func missingSrc() src       { return src{loserOf: -1, winnerOf: -1} }

func (s src) missing() bool { return s.loserOf < 0 && s.winnerOf < 0 }

// Generate builds a double-elimination graph: the winners bracket exactly as
// single elimination, a losers bracket with alternating minor/major rounds,
// and a single grand final (no bracket reset). Round numbers interleave the
// two brackets so that a match's feeders always carry a lower round number:
// winners round r keeps r, losers round l becomes l+1, the grand final 2R.
func (g *DoubleEliminationGenerator) Generate(ctx context.Context, params GenerateParams) ([]*Match, error) {
	entries := params.Entries
	n := len(entries)
	if n < 2 {
		return nil, ErrNotEnoughEntries
	}

	rounds := numRounds(n)
	size := bracketSize(n)

	// Winners bracket, recording per-round loser sources positionally.
	arena := make([]*Match, 0, 2*size)
	current := make([]node, size)
	for slotIdx, seed := range seedPositions(size) {
		if seed < n {
			current[slotIdx] = teamNode(entries[seed].TeamID)
		} else {
			current[slotIdx] = emptyNode()
		}
	}

	wbLosers := make([][]src, rounds)
	var wbFinalIdx int
	for r := 1; r <= rounds; r++ {
		next := make([]node, 0, len(current)/2)
		losers := make([]src, 0, len(current)/2)
		for pos := 0; pos < len(current); pos += 2 {
			left, right := current[pos], current[pos+1]
			if left.empty() || right.empty() {
				if left.empty() {
					next = append(next, right)
				} else {
					next = append(next, left)
				}
				losers = append(losers, missingSrc())
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
			losers = append(losers, loserSrc(idx))
			wbFinalIdx = idx
		}
		wbLosers[r-1] = losers
		current = next
	}

	// Losers bracket. pairStep consumes two feeds: a missing feed passes the
	// other one through without a match row.
	lbRound := 0
	pairStep := func(a, b src) (src, bool) {
		if a.missing() {
			return b, false
		}
		if b.missing() {
			return a, false
		}
		m := &Match{Round: lbRound + 1, WinnerTo: -1, LoserTo: -1}
		idx := len(arena)
		arena = append(arena, m)
		for _, s := range []src{a, b} {
			if s.loserOf >= 0 {
				arena[s.loserOf].LoserTo = idx
			} else {
				arena[s.winnerOf].WinnerTo = idx
			}
		}
		return winnerSrc(idx), true
	}
	pairUp := func(feeds []src) []src {
		lbRound++
		out := make([]src, 0, len(feeds)/2)
		for i := 0; i < len(feeds); i += 2 {
			carrier, created := pairStep(feeds[i], feeds[i+1])
			if created {
				arena[len(arena)-1].Number = i/2 + 1
			}
			out = append(out, carrier)
		}
		return out
	}
	pairWith := func(carriers, incoming []src, reverse bool) ([]src, error) {
		if len(carriers) != len(incoming) {
			return nil, fmt.Errorf("losers bracket shape mismatch: %d carriers, %d incoming", len(carriers), len(incoming))
		}
		lbRound++
		out := make([]src, 0, len(carriers))
		for i := range carriers {
			in := incoming[i]
			if reverse {
				in = incoming[len(incoming)-1-i]
			}
			carrier, created := pairStep(carriers[i], in)
			if created {
				arena[len(arena)-1].Number = i + 1
			}
			out = append(out, carrier)
		}
		return out, nil
	}

	var lbChampion src
	if rounds == 1 {
		lbChampion = loserSrc(wbFinalIdx)
	} else {
		carriers := pairUp(wbLosers[0])
		for j := 2; j <= rounds; j++ {
			// Reversing the drop-down order on even rounds delays rematches
			// between teams that already met in the winners bracket.
			var err error
			carriers, err = pairWith(carriers, wbLosers[j-1], j%2 == 0)
			if err != nil {
				return nil, err
			}
			if j < rounds {
				carriers = pairUp(carriers)
			}
		}
		if len(carriers) != 1 {
			return nil, fmt.Errorf("losers bracket did not converge: %d carriers left", len(carriers))
		}
		lbChampion = carriers[0]
	}
	if lbChampion.missing() {
		return nil, fmt.Errorf("losers bracket produced no champion for %d entries", n)
	}

	// Grand final, generated last: winners champion vs losers champion.
	grandFinal := &Match{Round: 2 * rounds, Number: 1, WinnerTo: -1, LoserTo: -1}
	gfIdx := len(arena)
	arena = append(arena, grandFinal)
	arena[wbFinalIdx].WinnerTo = gfIdx
	if lbChampion.loserOf >= 0 {
		arena[lbChampion.loserOf].LoserTo = gfIdx
	} else {
		arena[lbChampion.winnerOf].WinnerTo = gfIdx
	}

	return arena, nil
}
