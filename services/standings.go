package services

import (
	"context"
	"sort"

	"github.com/padelpoint/tournament-engine/models"
)

// AmericanoStanding is one team's aggregated result across the rounds of an
// americano category.
type AmericanoStanding struct {
	TeamID        int `json:"team_id"`
	Played        int `json:"played"`
	Wins          int `json:"wins"`
	PointsFor     int `json:"points_for"`
	PointsAgainst int `json:"points_against"`
}

// ComputeAmericanoStandings aggregates decided matches into a ranking:
// wins, then point difference, then points scored, team id as the final
// tiebreaker. Walkovers count as a win without points.
func ComputeAmericanoStandings(matches []*models.Match) []AmericanoStanding {
	byTeam := map[int]*AmericanoStanding{}
	get := func(teamID int) *AmericanoStanding {
		if s, ok := byTeam[teamID]; ok {
			return s
		}
		s := &AmericanoStanding{TeamID: teamID}
		byTeam[teamID] = s
		return s
	}

	for _, m := range matches {
		if m.Status != models.MatchCompleted && m.Status != models.MatchWalkover {
			continue
		}
		if m.Team1ID == nil || m.Team2ID == nil || m.WinningTeamID == nil {
			continue
		}
		t1, t2 := get(*m.Team1ID), get(*m.Team2ID)
		t1.Played++
		t2.Played++
		if *m.WinningTeamID == *m.Team1ID {
			t1.Wins++
		} else {
			t2.Wins++
		}
		if m.Team1Score != nil && m.Team2Score != nil {
			t1.PointsFor += *m.Team1Score
			t1.PointsAgainst += *m.Team2Score
			t2.PointsFor += *m.Team2Score
			t2.PointsAgainst += *m.Team1Score
		}
	}

	standings := make([]AmericanoStanding, 0, len(byTeam))
	for _, s := range byTeam {
		standings = append(standings, *s)
	}
	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		diffA, diffB := a.PointsFor-a.PointsAgainst, b.PointsFor-b.PointsAgainst
		if diffA != diffB {
			return diffA > diffB
		}
		if a.PointsFor != b.PointsFor {
			return a.PointsFor > b.PointsFor
		}
		return a.TeamID < b.TeamID
	})
	return standings
}

// GetAmericanoStandings loads a category's matches and ranks its teams.
func (s *TournamentService) GetAmericanoStandings(ctx context.Context, categoryConfigID int) ([]AmericanoStanding, error) {
	matches, err := s.matchRepo.ListByCategory(ctx, nil, categoryConfigID)
	if err != nil {
		return nil, err
	}
	return ComputeAmericanoStandings(matches), nil
}
