package brackets

import "context"

// AmericanoGenerator produces rotating round-robin style rounds for the
// americano formats. It is not a knockout tree: matches carry no
// advancement pointers and scoring is aggregated per entrant across rounds.
// Opponents rotate with the circle method, so every team meets
// min(rounds, n-1) distinct opponents; with an odd field one team sits out
// per round, rotating fairly.
type AmericanoGenerator struct{}

func NewAmericanoGenerator() Generator {
	return &AmericanoGenerator{}
}

func (g *AmericanoGenerator) Name() string { return "Americano" }

func (g *AmericanoGenerator) Generate(ctx context.Context, params GenerateParams) ([]*Match, error) {
	entries := params.Entries
	n := len(entries)
	if n < 2 {
		return nil, ErrNotEnoughEntries
	}

	// Circle method: with an odd field, index -1 marks the sit-out slot.
	ring := make([]int, 0, n+1)
	for i := range entries {
		ring = append(ring, i)
	}
	if n%2 != 0 {
		ring = append(ring, -1)
	}

	maxRounds := len(ring) - 1
	rounds := params.Rounds
	if rounds <= 0 || rounds > maxRounds {
		rounds = maxRounds
	}

	arena := make([]*Match, 0, rounds*len(ring)/2)
	for r := 1; r <= rounds; r++ {
		number := 0
		for i := 0; i < len(ring)/2; i++ {
			a, b := ring[i], ring[len(ring)-1-i]
			if a < 0 || b < 0 {
				continue
			}
			number++
			t1 := entries[a].TeamID
			t2 := entries[b].TeamID
			arena = append(arena, &Match{
				Round:    r,
				Number:   number,
				Team1ID:  &t1,
				Team2ID:  &t2,
				WinnerTo: -1,
				LoserTo:  -1,
			})
		}
		// Rotate everything but the first position.
		last := ring[len(ring)-1]
		copy(ring[2:], ring[1:len(ring)-1])
		ring[1] = last
	}

	return arena, nil
}
