package stats

import (
	"sort"

	"github.com/tyler180/boxscore-stats/internal/boxscore"
)

// PlayerKey identifies a player across seasons. The same name on two teams is
// two players.
type PlayerKey struct {
	Player string
	Team   string
}

func (k PlayerKey) less(o PlayerKey) bool {
	if k.Player != o.Player {
		return k.Player < o.Player
	}
	return k.Team < o.Team
}

// PlayerTotals is one player's season: summed counting stats plus rates.
// Rates are fractions (0.65, not 65) and 0 when the denominator is 0.
type PlayerTotals struct {
	Player   string `json:"player"`
	Team     string `json:"team"`
	Season   string `json:"season"`
	Position string `json:"position,omitempty"`
	G        int    `json:"g"`

	boxscore.StatLine

	CmpPct float64 `json:"cmp_pct"`
	YPA    float64 `json:"ypa"`
	YPC    float64 `json:"ypc"`
	YPR    float64 `json:"ypr"`
	FGPct  float64 `json:"fg_pct"`
	XPPct  float64 `json:"xp_pct"`
}

// Key returns the (player, team) key of the totals.
func (p PlayerTotals) Key() PlayerKey { return PlayerKey{Player: p.Player, Team: p.Team} }

func ratio(n, d float64) float64 {
	if d == 0 {
		return 0
	}
	return n / d
}

func (p *PlayerTotals) derive() {
	p.CmpPct = ratio(p.Passing.Cmp, p.Passing.Att)
	p.YPA = ratio(p.Passing.Yds, p.Passing.Att)
	p.YPC = ratio(p.Rushing.Yds, p.Rushing.Att)
	p.YPR = ratio(p.Receiving.Yds, p.Receiving.Rec)
	p.FGPct = ratio(p.Kicking.FGM, p.Kicking.FGA)
	p.XPPct = ratio(p.Kicking.XPM, p.Kicking.XPA)
}

type seasonKey struct {
	PlayerKey
	Season string
}

type accumulator struct {
	totals PlayerTotals
	games  map[string]struct{}
}

// PlayerSeasonTotals sums rows per (player, team, season). Rows without a
// player are skipped. G counts distinct games. Output is sorted by player,
// team and season.
func PlayerSeasonTotals(rows []boxscore.Row) []PlayerTotals {
	acc := map[seasonKey]*accumulator{}
	for _, r := range rows {
		if r.Player == "" {
			continue
		}
		k := seasonKey{PlayerKey{r.Player, r.Team}, r.Season}
		a, ok := acc[k]
		if !ok {
			a = &accumulator{
				totals: PlayerTotals{Player: r.Player, Team: r.Team, Season: r.Season},
				games:  map[string]struct{}{},
			}
			acc[k] = a
		}
		if a.totals.Position == "" {
			a.totals.Position = r.Position
		}
		a.totals.StatLine.Add(r.StatLine)
		a.games[boxscore.GameKey(r)] = struct{}{}
	}

	out := make([]PlayerTotals, 0, len(acc))
	for _, a := range acc {
		a.totals.G = len(a.games)
		a.totals.derive()
		out = append(out, a.totals)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Key() != b.Key() {
			return a.Key().less(b.Key())
		}
		return a.Season < b.Season
	})
	return out
}

// Careers groups season totals across every season present in rows, newest
// season first. Seasons compare as strings.
func Careers(rows []boxscore.Row) map[PlayerKey][]PlayerTotals {
	out := map[PlayerKey][]PlayerTotals{}
	for _, t := range PlayerSeasonTotals(rows) {
		out[t.Key()] = append(out[t.Key()], t)
	}
	for _, list := range out {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Season > list[j].Season })
	}
	return out
}

// GameLogs returns each player's rows in chronological order.
func GameLogs(rows []boxscore.Row) map[PlayerKey][]boxscore.Row {
	out := map[PlayerKey][]boxscore.Row{}
	for _, r := range rows {
		if r.Player == "" {
			continue
		}
		k := PlayerKey{r.Player, r.Team}
		out[k] = append(out[k], r)
	}
	for _, list := range out {
		sort.SliceStable(list, func(i, j int) bool {
			if c := boxscore.CompareDates(list[i].Date, list[j].Date); c != 0 {
				return c < 0
			}
			return boxscore.CompareWeeks(list[i].Week, list[j].Week) < 0
		})
	}
	return out
}

// SortedKeys returns the keys of a per-player map in (player, team) order.
func SortedKeys[V any](m map[PlayerKey]V) []PlayerKey {
	keys := make([]PlayerKey, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys
}
