// Package scheduling assigns bracket matches to (court, time-slot) pairs.
// It is pure: conflict data is passed in, reservations are written by the
// caller from the returned plan.
package scheduling

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrNoDuration    = errors.New("match duration must be positive")
	ErrEmptyWindow   = errors.New("scheduling window end must be after its start")
	ErrNoCourts      = errors.New("no courts available for scheduling")
	ErrUnknownCourts = errors.New("busy interval references an unknown court")
)

// Court is a schedulable court with daily opening hours (whole hours).
type Court struct {
	ID          int
	OpeningHour int
	ClosingHour int
}

// Interval is a half-open busy span [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) overlaps(start, end time.Time) bool {
	return start.Before(i.End) && i.Start.Before(end)
}

// MatchRequest is one unscheduled match. Rounds order the requests: a match
// in round k+1 never starts before every scheduled round-k match has
// finished, because bracket matches feed on earlier results.
type MatchRequest struct {
	MatchID int
	Round   int
}

// Assignment is a scheduled match.
type Assignment struct {
	MatchID int
	CourtID int
	Start   time.Time
	End     time.Time
}

// Params carries the full allocation input.
type Params struct {
	Matches     []MatchRequest
	Courts      []Court
	Busy        map[int][]Interval // court id -> reservations and ordinary bookings
	WindowStart time.Time
	WindowEnd   time.Time
	Duration    time.Duration
	SlotStep    time.Duration // defaults to 30 minutes
}

// Plan is the allocation output. Unscheduled lists the match ids for which
// no conflict-free slot exists inside the window; this is reported, not
// fatal, and the rest of the plan remains valid.
type Plan struct {
	Assignments []Assignment
	Unscheduled []int
}

// Complete reports whether every requested match found a slot.
func (p *Plan) Complete() bool { return len(p.Unscheduled) == 0 }

// Allocate greedily assigns each match, round by round, to the earliest
// (court, slot) pair that is free across both tournament reservations and
// regular bookings, parallelizing across all courts.
func Allocate(p Params) (*Plan, error) {
	if p.Duration <= 0 {
		return nil, ErrNoDuration
	}
	if !p.WindowEnd.After(p.WindowStart) {
		return nil, ErrEmptyWindow
	}
	if len(p.Courts) == 0 {
		return nil, ErrNoCourts
	}
	step := p.SlotStep
	if step <= 0 {
		step = 30 * time.Minute
	}

	a := newAllocator(p, step)
	if err := a.run(); err != nil {
		return nil, err
	}
	return &Plan{Assignments: a.assignments, Unscheduled: a.unscheduled}, nil
}

type allocator struct {
	p    Params
	step time.Duration

	courts      []Court
	busy        map[int][]Interval
	assignments []Assignment
	unscheduled []int
}

func newAllocator(p Params, step time.Duration) *allocator {
	courts := make([]Court, len(p.Courts))
	copy(courts, p.Courts)
	sort.Slice(courts, func(i, j int) bool { return courts[i].ID < courts[j].ID })

	busy := make(map[int][]Interval, len(courts))
	for _, c := range courts {
		busy[c.ID] = append([]Interval(nil), p.Busy[c.ID]...)
	}
	return &allocator{p: p, step: step, courts: courts, busy: busy}
}

func (a *allocator) run() error {
	for id := range a.p.Busy {
		if _, ok := a.busy[id]; !ok {
			return ErrUnknownCourts
		}
	}

	matches := make([]MatchRequest, len(a.p.Matches))
	copy(matches, a.p.Matches)
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		return matches[i].MatchID < matches[j].MatchID
	})

	roundFloor := a.p.WindowStart
	i := 0
	for i < len(matches) {
		round := matches[i].Round
		var roundMaxEnd time.Time
		for ; i < len(matches) && matches[i].Round == round; i++ {
			assigned, ok := a.place(matches[i].MatchID, roundFloor)
			if !ok {
				a.unscheduled = append(a.unscheduled, matches[i].MatchID)
				continue
			}
			if assigned.End.After(roundMaxEnd) {
				roundMaxEnd = assigned.End
			}
		}
		// The next round may not start before this round has finished.
		if roundMaxEnd.After(roundFloor) {
			roundFloor = roundMaxEnd
		}
	}
	return nil
}

// place finds the earliest free (court, slot) pair at or after floor.
func (a *allocator) place(matchID int, floor time.Time) (Assignment, bool) {
	for start := floor; !start.Add(a.p.Duration).After(a.p.WindowEnd); start = start.Add(a.step) {
		end := start.Add(a.p.Duration)
		for _, court := range a.courts {
			if !a.withinOpeningHours(court, start, end) {
				continue
			}
			if a.conflicts(court.ID, start, end) {
				continue
			}
			assigned := Assignment{MatchID: matchID, CourtID: court.ID, Start: start, End: end}
			a.assignments = append(a.assignments, assigned)
			a.busy[court.ID] = append(a.busy[court.ID], Interval{Start: start, End: end})
			return assigned, true
		}
	}
	return Assignment{}, false
}

func (a *allocator) withinOpeningHours(c Court, start, end time.Time) bool {
	opens := time.Date(start.Year(), start.Month(), start.Day(), c.OpeningHour, 0, 0, 0, start.Location())
	closes := time.Date(start.Year(), start.Month(), start.Day(), c.ClosingHour, 0, 0, 0, start.Location())
	return !start.Before(opens) && !end.After(closes)
}

func (a *allocator) conflicts(courtID int, start, end time.Time) bool {
	for _, iv := range a.busy[courtID] {
		if iv.overlaps(start, end) {
			return true
		}
	}
	return false
}
