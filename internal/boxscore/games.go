package boxscore

import (
	"fmt"
	"sort"
	"strings"
)

// Game is one contest with both participants resolved.
type Game struct {
	GameID     string `json:"game_id"`
	Season     string `json:"season"`
	Date       string `json:"date"`
	Week       string `json:"week"`
	HomeTeam   string `json:"home_team"`
	AwayTeam   string `json:"away_team"`
	HomeScore  int    `json:"home_score"`
	AwayScore  int    `json:"away_score"`
	Scored     bool   `json:"scored"`
	Neutral    bool   `json:"neutral"`
	Conference string `json:"conference,omitempty"`
	Location   string `json:"location,omitempty"`
}

// TeamGameRecord is one team's view of a game.
type TeamGameRecord struct {
	Season        string `json:"season"`
	GameID        string `json:"game_id"`
	Team          string `json:"team"`
	Opponent      string `json:"opponent"`
	Date          string `json:"date"`
	Week          string `json:"week"`
	TeamScore     int    `json:"team_score"`
	OpponentScore int    `json:"opponent_score"`
	HomeAway      string `json:"home_away"`
	Result        string `json:"result"`
	Conference    string `json:"conference"`
	Location      string `json:"location"`
}

// Scored reports whether the record's game had a determinable score.
func (r TeamGameRecord) Scored() bool { return r.Result != "" }

// Records returns the home side followed by the away side.
func (g Game) Records() [2]TeamGameRecord {
	homeMark, awayMark := "H", "A"
	if g.Neutral {
		homeMark, awayMark = "-", "-"
	}
	return [2]TeamGameRecord{
		g.record(g.HomeTeam, g.AwayTeam, g.HomeScore, g.AwayScore, homeMark),
		g.record(g.AwayTeam, g.HomeTeam, g.AwayScore, g.HomeScore, awayMark),
	}
}

func (g Game) record(team, opp string, ts, os int, mark string) TeamGameRecord {
	rec := TeamGameRecord{
		Season:        g.Season,
		GameID:        g.GameID,
		Team:          team,
		Opponent:      opp,
		Date:          g.Date,
		Week:          g.Week,
		TeamScore:     ts,
		OpponentScore: os,
		HomeAway:      mark,
		Conference:    g.Conference,
		Location:      g.Location,
	}
	if g.Scored {
		rec.Result = formatResult(ts, os)
	}
	return rec
}

func formatResult(ts, os int) string {
	outcome := "T"
	switch {
	case ts > os:
		outcome = "W"
	case ts < os:
		outcome = "L"
	}
	return fmt.Sprintf("%d-%d %s", ts, os, outcome)
}

// Reconstruction is the output of ReconstructGames.
type Reconstruction struct {
	Games   []Game
	Records []TeamGameRecord
	// Dropped counts row groups that named fewer than two teams.
	Dropped int
}

// GameKey returns the symmetric grouping key for a row: the explicit game id
// when the file supplied one, else date, week and the case-folded team pair.
func GameKey(r Row) string {
	if r.explicitID {
		return "gid:" + r.GameID
	}
	a, b := r.Team, r.Opponent
	if r.Shape == ShapeHomeAway {
		a, b = r.HomeTeam, r.AwayTeam
	}
	pair := []string{foldTeam(a), foldTeam(b)}
	sort.Strings(pair)
	return "d:" + strings.TrimSpace(r.Date) + "|w:" + strings.TrimSpace(r.Week) + "|" + pair[0] + "|" + pair[1]
}

func foldTeam(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// spellings maps each case-folded team name to the first spelling seen, so a
// team written two ways still lands in one standings row and one schedule.
type spellings map[string]string

func teamSpellings(rows []Row) spellings {
	sp := make(spellings)
	for _, r := range rows {
		for _, t := range [...]string{r.Team, r.Opponent, r.HomeTeam, r.AwayTeam} {
			if k := foldTeam(t); k != "" {
				if _, ok := sp[k]; !ok {
					sp[k] = strings.TrimSpace(t)
				}
			}
		}
	}
	return sp
}

func (sp spellings) canon(t string) string {
	if c, ok := sp[foldTeam(t)]; ok {
		return c
	}
	return t
}

type gameGroup struct {
	key  string
	rows []Row
}

// ReconstructGames groups rows into games and emits two team records per game.
// Team names in the output use the first spelling seen for each team. Rows are
// never modified.
func ReconstructGames(rows []Row) Reconstruction {
	var groups []*gameGroup
	byKey := make(map[string]*gameGroup)
	for _, r := range rows {
		k := GameKey(r)
		g, ok := byKey[k]
		if !ok {
			g = &gameGroup{key: k}
			byKey[k] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, r)
	}

	sp := teamSpellings(rows)
	var out Reconstruction
	for _, g := range groups {
		game, ok := buildGame(g.rows, sp)
		if !ok {
			out.Dropped++
			continue
		}
		out.Games = append(out.Games, game)
	}

	sort.SliceStable(out.Games, func(i, j int) bool {
		a, b := out.Games[i], out.Games[j]
		if c := CompareDates(a.Date, b.Date); c != 0 {
			return c < 0
		}
		if c := CompareWeeks(a.Week, b.Week); c != 0 {
			return c < 0
		}
		return a.GameID < b.GameID
	})

	out.Records = make([]TeamGameRecord, 0, 2*len(out.Games))
	for _, game := range out.Games {
		recs := game.Records()
		out.Records = append(out.Records, recs[0], recs[1])
	}
	return out
}

func buildGame(rows []Row, sp spellings) (Game, bool) {
	rep := rows[0]
	game := Game{
		Season:     rep.Season,
		Date:       rep.Date,
		Week:       rep.Week,
		Conference: rep.Conference,
		Location:   rep.Location,
	}

	home, away, venueKnown := participants(rows)
	if home == "" || away == "" {
		return Game{}, false
	}
	game.HomeTeam, game.AwayTeam = sp.canon(home), sp.canon(away)
	game.Neutral = !venueKnown
	for _, r := range rows {
		if r.HomeAway == "N" {
			game.Neutral = true
			break
		}
	}

	var hs, as scoreSlot
	for _, r := range rows {
		if r.scores.home && (sameTeam(r.HomeTeam, home) || (r.HomeTeam == "" && venueKnown)) {
			hs.set(r.HomeScore)
		}
		if r.scores.away && (sameTeam(r.AwayTeam, away) || (r.AwayTeam == "" && venueKnown)) {
			as.set(r.AwayScore)
		}
		// home/away columns listed the other way round
		if r.scores.home && sameTeam(r.HomeTeam, away) {
			as.set(r.HomeScore)
		}
		if r.scores.away && sameTeam(r.AwayTeam, home) {
			hs.set(r.AwayScore)
		}

		if r.Shape != ShapeTeamOpponent {
			continue
		}
		switch {
		case sameTeam(r.Team, home):
			if r.scores.team {
				hs.set(r.TeamScore)
			}
			if r.scores.opponent {
				as.set(r.OpponentScore)
			}
		case sameTeam(r.Team, away):
			if r.scores.team {
				as.set(r.TeamScore)
			}
			if r.scores.opponent {
				hs.set(r.OpponentScore)
			}
		}
	}
	game.HomeScore, game.AwayScore = hs.v, as.v
	game.Scored = game.HomeScore > 0 || game.AwayScore > 0

	if rep.explicitID {
		game.GameID = rep.GameID
	} else {
		game.GameID = compositeKey(game.Date, game.HomeTeam, game.AwayTeam)
	}
	return game, true
}

type scoreSlot struct {
	v  int
	ok bool
}

// set keeps the first value supplied.
func (s *scoreSlot) set(v int) {
	if !s.ok {
		s.v, s.ok = v, true
	}
}

// participants resolves home and away. Explicit home/away columns win; otherwise
// the first two distinct team names are used and the venue comes from a row's
// home/away marker, if any.
func participants(rows []Row) (home, away string, venueKnown bool) {
	for _, r := range rows {
		if r.HomeTeam != "" && r.AwayTeam != "" && !sameTeam(r.HomeTeam, r.AwayTeam) {
			return r.HomeTeam, r.AwayTeam, true
		}
	}

	var teams []string
	add := func(t string) {
		if t == "" || len(teams) == 2 {
			return
		}
		for _, seen := range teams {
			if sameTeam(seen, t) {
				return
			}
		}
		teams = append(teams, t)
	}
	for _, r := range rows {
		add(r.Team)
		add(r.Opponent)
	}
	if len(teams) < 2 {
		return "", "", false
	}

	for _, r := range rows {
		var idx int
		switch {
		case sameTeam(r.Team, teams[0]):
			idx = 0
		case sameTeam(r.Team, teams[1]):
			idx = 1
		default:
			continue
		}
		switch r.HomeAway {
		case "H":
			return teams[idx], teams[1-idx], true
		case "A":
			return teams[1-idx], teams[idx], true
		}
	}
	return teams[0], teams[1], false
}
