package boxscore

import (
	"math"
	"strconv"
	"strings"
)

var numberCleaner = strings.NewReplacer(",", "", "%", "", " ", "", "\u00a0", "")

// parseNumber coerces a cell to a float. Blank cells are 0 and valid;
// unparseable cells are 0 and invalid.
func parseNumber(s string) (float64, bool) {
	s = numberCleaner.Replace(strings.TrimSpace(s))
	switch s {
	case "", "-", "\u2014", "\u2013":
		return 0, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// compositeKey joins trimmed parts the same way for every caller.
func compositeKey(parts ...string) string {
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return strings.Join(parts, "::")
}

func sameTeam(a, b string) bool {
	return a != "" && b != "" && strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func normHomeAway(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return ""
	case "h", "home", "vs", "vs.":
		return "H"
	case "a", "away", "@", "at", "road":
		return "A"
	case "n", "neutral":
		return "N"
	default:
		return strings.ToUpper(strings.TrimSpace(s))
	}
}

type normalizer struct {
	m        Mapping
	rec      []string
	warnings int
}

func (n *normalizer) str(f Field) string { return n.m.value(n.rec, f) }

func (n *normalizer) num(f Field) float64 {
	v, ok := parseNumber(n.str(f))
	if !ok {
		n.warnings++
	}
	return v
}

// maxScore bounds a plausible final score. Anything past it is a bad cell.
const maxScore = 1000

// score returns the rounded score for f and whether a value was supplied.
// Negative or implausibly large scores count as unparseable.
func (n *normalizer) score(f Field) (int, bool) {
	raw := n.str(f)
	if raw == "" {
		return 0, false
	}
	v, ok := parseNumber(raw)
	if !ok || v < 0 || v > maxScore {
		n.warnings++
		return 0, false
	}
	return int(math.Round(v)), true
}

// Normalize converts one raw record into a Row. The second return value counts
// cells that could not be coerced to numbers.
func Normalize(m Mapping, rec []string) (Row, int) {
	n := &normalizer{m: m, rec: rec}

	r := Row{
		Season:     n.str(FieldSeason),
		Week:       n.str(FieldWeek),
		Date:       n.str(FieldDate),
		Team:       n.str(FieldTeam),
		Opponent:   n.str(FieldOpponent),
		HomeTeam:   n.str(FieldHomeTeam),
		AwayTeam:   n.str(FieldAwayTeam),
		Player:     n.str(FieldPlayer),
		Position:   n.str(FieldPosition),
		Jersey:     n.str(FieldJersey),
		Result:     n.str(FieldResult),
		Conference: n.str(FieldConf),
		Location:   n.str(FieldLocation),
	}

	switch {
	case r.Team != "":
		r.Shape = ShapeTeamOpponent
	case r.HomeTeam != "" && r.AwayTeam != "":
		r.Shape = ShapeHomeAway
	default:
		r.Shape = ShapeUnknown
	}

	if r.Shape == ShapeTeamOpponent && r.Opponent == "" && r.HomeTeam != "" && r.AwayTeam != "" {
		switch {
		case sameTeam(r.Team, r.HomeTeam):
			r.Opponent = r.AwayTeam
		case sameTeam(r.Team, r.AwayTeam):
			r.Opponent = r.HomeTeam
		}
	}

	r.HomeScore, r.scores.home = n.score(FieldHomeScore)
	r.AwayScore, r.scores.away = n.score(FieldAwayScore)
	r.TeamScore, r.scores.team = n.score(FieldTeamScore)
	r.OpponentScore, r.scores.opponent = n.score(FieldOppScore)
	if r.Shape == ShapeTeamOpponent && !r.scores.team && !r.scores.opponent {
		switch {
		case sameTeam(r.Team, r.HomeTeam):
			r.TeamScore, r.scores.team = r.HomeScore, r.scores.home
			r.OpponentScore, r.scores.opponent = r.AwayScore, r.scores.away
		case sameTeam(r.Team, r.AwayTeam):
			r.TeamScore, r.scores.team = r.AwayScore, r.scores.away
			r.OpponentScore, r.scores.opponent = r.HomeScore, r.scores.home
		}
	}

	r.HomeAway = normHomeAway(n.str(FieldHomeAway))
	if r.HomeAway == "" && r.Shape == ShapeTeamOpponent {
		switch {
		case sameTeam(r.Team, r.HomeTeam):
			r.HomeAway = "H"
		case sameTeam(r.Team, r.AwayTeam):
			r.HomeAway = "A"
		}
	}

	if id := n.str(FieldGameID); id != "" {
		r.GameID = id
		r.explicitID = true
	} else if r.Shape == ShapeHomeAway {
		r.GameID = compositeKey(r.Date, r.HomeTeam, r.AwayTeam)
	} else {
		r.GameID = compositeKey(r.Date, r.Team, r.Opponent)
	}

	r.Passing = Passing{
		Att:    n.num(FieldPassAtt),
		Cmp:    n.num(FieldPassCmp),
		Yds:    n.num(FieldPassYds),
		TD:     n.num(FieldPassTD),
		Int:    n.num(FieldPassInt),
		Sacked: n.num(FieldSackTaken),
	}
	r.Rushing = Rushing{
		Att: n.num(FieldRushAtt),
		Yds: n.num(FieldRushYds),
		TD:  n.num(FieldRushTD),
	}
	r.Receiving = Receiving{
		Rec: n.num(FieldRecRec),
		Tgt: n.num(FieldRecTgt),
		Yds: n.num(FieldRecYds),
		TD:  n.num(FieldRecTD),
	}
	r.Defense = Defense{
		Tackles: n.num(FieldTackles),
		Sacks:   n.num(FieldSacks),
		TFL:     n.num(FieldTFL),
		QBHits:  n.num(FieldQBHits),
		Int:     n.num(FieldIntDef),
		PBU:     n.num(FieldPBU),
	}
	r.Kicking = Kicking{
		FGM:    n.num(FieldFGM),
		FGA:    n.num(FieldFGA),
		XPM:    n.num(FieldXPM),
		XPA:    n.num(FieldXPA),
		LongFG: n.num(FieldLongFG),
	}
	r.SpecialTeams = SpecialTeams{
		KickRetYds: n.num(FieldKickRetYds),
		PuntRetYds: n.num(FieldPuntRetYds),
		ReturnTD:   n.num(FieldReturnTD),
	}

	return r, n.warnings
}

// NormalizeTable reconciles a header row once and normalizes every record under it.
func NormalizeTable(header []string, records [][]string) ([]Row, int) {
	m := ReconcileHeaders(header)
	rows := make([]Row, 0, len(records))
	warnings := 0
	for _, rec := range records {
		r, w := Normalize(m, rec)
		warnings += w
		rows = append(rows, r)
	}
	return rows, warnings
}
