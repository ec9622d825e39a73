// Package stats folds canonical rows and reconstructed games into standings,
// schedules, player totals and leaderboards. Every function is a pure
// recomputation over its input.
package stats

import (
	"sort"
	"strings"

	"github.com/tyler180/boxscore-stats/internal/boxscore"
)

type StandingsRow struct {
	Team string  `json:"team"`
	GP   int     `json:"gp"`
	W    int     `json:"w"`
	L    int     `json:"l"`
	T    int     `json:"t"`
	PF   int     `json:"pf"`
	PA   int     `json:"pa"`
	Pct  float64 `json:"pct"`
	Diff int     `json:"diff"`
}

// Standings tallies scored records per team. Unscored games do not count and a
// team with no scored game is absent.
func Standings(records []boxscore.TeamGameRecord) []StandingsRow {
	byTeam := map[string]*StandingsRow{}
	var order []string
	for _, r := range records {
		if !r.Scored() {
			continue
		}
		s, ok := byTeam[r.Team]
		if !ok {
			s = &StandingsRow{Team: r.Team}
			byTeam[r.Team] = s
			order = append(order, r.Team)
		}
		s.GP++
		s.PF += r.TeamScore
		s.PA += r.OpponentScore
		switch {
		case r.TeamScore > r.OpponentScore:
			s.W++
		case r.TeamScore < r.OpponentScore:
			s.L++
		default:
			s.T++
		}
	}

	out := make([]StandingsRow, 0, len(order))
	for _, team := range order {
		s := byTeam[team]
		gp := s.GP
		if gp < 1 {
			gp = 1
		}
		s.Pct = (float64(s.W) + 0.5*float64(s.T)) / float64(gp)
		s.Diff = s.PF - s.PA
		out = append(out, *s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Pct != b.Pct {
			return a.Pct > b.Pct
		}
		if a.W != b.W {
			return a.W > b.W
		}
		if a.Diff != b.Diff {
			return a.Diff > b.Diff
		}
		if a.PF != b.PF {
			return a.PF > b.PF
		}
		return strings.ToLower(a.Team) < strings.ToLower(b.Team)
	})
	return out
}

// Schedules groups records by team, each list chronological. Undated records
// sort first; ties fall back to week and then opponent.
func Schedules(records []boxscore.TeamGameRecord) map[string][]boxscore.TeamGameRecord {
	out := map[string][]boxscore.TeamGameRecord{}
	for _, r := range records {
		if r.Team == "" {
			continue
		}
		out[r.Team] = append(out[r.Team], r)
	}
	for _, list := range out {
		sort.SliceStable(list, func(i, j int) bool {
			a, b := list[i], list[j]
			if c := boxscore.CompareDates(a.Date, b.Date); c != 0 {
				return c < 0
			}
			if c := boxscore.CompareWeeks(a.Week, b.Week); c != 0 {
				return c < 0
			}
			return a.Opponent < b.Opponent
		})
	}
	return out
}

// Teams returns the schedule keys sorted.
func Teams(schedules map[string][]boxscore.TeamGameRecord) []string {
	teams := make([]string, 0, len(schedules))
	for t := range schedules {
		teams = append(teams, t)
	}
	sort.Strings(teams)
	return teams
}
