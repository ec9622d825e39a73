package stats

import (
	"sort"
	"time"
)

// Qualification thresholds and category size.
const (
	MinPassAttempts = 14
	MinRushAttempts = 14
	MinTargets      = 10
	LeadersLimit    = 25
)

// LeaderEntry is a player's season totals as listed on a leaderboard. Rating is
// only set in the passer_rating category.
type LeaderEntry struct {
	PlayerTotals
	Rating *float64 `json:"rating,omitempty"`
}

type LeaderCategories struct {
	PassingYards   []LeaderEntry `json:"passing_yards"`
	PassingTDs     []LeaderEntry `json:"passing_tds"`
	PasserRating   []LeaderEntry `json:"passer_rating"`
	RushingYards   []LeaderEntry `json:"rushing_yards"`
	RushingTDs     []LeaderEntry `json:"rushing_tds"`
	ReceivingYards []LeaderEntry `json:"receiving_yards"`
	ReceivingTDs   []LeaderEntry `json:"receiving_tds"`
}

type Leaders struct {
	Season      string           `json:"season"`
	GeneratedAt string           `json:"generated_at"`
	Categories  LeaderCategories `json:"categories"`
}

// BuildLeaders ranks qualified players in each category, highest first, at
// most LeadersLimit entries. Equal metrics fall back to player then team name.
func BuildLeaders(season string, totals []PlayerTotals, now time.Time) Leaders {
	var passers, rushers, receivers []LeaderEntry
	for _, t := range totals {
		if t.Passing.Att >= MinPassAttempts {
			passers = append(passers, LeaderEntry{PlayerTotals: t})
		}
		if t.Rushing.Att >= MinRushAttempts {
			rushers = append(rushers, LeaderEntry{PlayerTotals: t})
		}
		if t.Receiving.Tgt >= MinTargets {
			receivers = append(receivers, LeaderEntry{PlayerTotals: t})
		}
	}

	rated := make([]LeaderEntry, 0, len(passers))
	for _, p := range passers {
		r := PasserRating(p.Passing.Cmp, p.Passing.Att, p.Passing.Yds, p.Passing.TD, p.Passing.Int)
		p.Rating = &r
		rated = append(rated, p)
	}

	return Leaders{
		Season:      season,
		GeneratedAt: now.UTC().Format(time.RFC3339),
		Categories: LeaderCategories{
			PassingYards:   top(passers, func(e LeaderEntry) float64 { return e.Passing.Yds }),
			PassingTDs:     top(passers, func(e LeaderEntry) float64 { return e.Passing.TD }),
			PasserRating:   top(rated, func(e LeaderEntry) float64 { return *e.Rating }),
			RushingYards:   top(rushers, func(e LeaderEntry) float64 { return e.Rushing.Yds }),
			RushingTDs:     top(rushers, func(e LeaderEntry) float64 { return e.Rushing.TD }),
			ReceivingYards: top(receivers, func(e LeaderEntry) float64 { return e.Receiving.Yds }),
			ReceivingTDs:   top(receivers, func(e LeaderEntry) float64 { return e.Receiving.TD }),
		},
	}
}

// top copies, sorts and truncates. The result is never nil so empty
// categories encode as [].
func top(in []LeaderEntry, metric func(LeaderEntry) float64) []LeaderEntry {
	out := append(make([]LeaderEntry, 0, len(in)), in...)
	sort.SliceStable(out, func(i, j int) bool {
		mi, mj := metric(out[i]), metric(out[j])
		if mi != mj {
			return mi > mj
		}
		return out[i].Key().less(out[j].Key())
	})
	if len(out) > LeadersLimit {
		out = out[:LeadersLimit]
	}
	return out
}
