package boxscore

import "strings"

// Field is a canonical column name.
type Field string

const (
	FieldSeason    Field = "season"
	FieldWeek      Field = "week"
	FieldDate      Field = "date"
	FieldGameID    Field = "game_id"
	FieldTeam      Field = "team"
	FieldOpponent  Field = "opponent"
	FieldHomeTeam  Field = "home_team"
	FieldAwayTeam  Field = "away_team"
	FieldHomeScore Field = "home_score"
	FieldAwayScore Field = "away_score"
	FieldTeamScore Field = "team_score"
	FieldOppScore  Field = "opponent_score"
	FieldResult    Field = "result"
	FieldConf      Field = "conference"
	FieldLocation  Field = "location"
	FieldHomeAway  Field = "home_away"

	FieldPlayer   Field = "player"
	FieldPosition Field = "position"
	FieldJersey   Field = "jersey"

	FieldPassAtt   Field = "pass_att"
	FieldPassCmp   Field = "pass_cmp"
	FieldPassYds   Field = "pass_yds"
	FieldPassTD    Field = "pass_td"
	FieldPassInt   Field = "pass_int"
	FieldSackTaken Field = "sack_taken"

	FieldRushAtt Field = "rush_att"
	FieldRushYds Field = "rush_yds"
	FieldRushTD  Field = "rush_td"

	FieldRecRec Field = "rec_rec"
	FieldRecTgt Field = "rec_tgt"
	FieldRecYds Field = "rec_yds"
	FieldRecTD  Field = "rec_td"

	FieldTackles Field = "tackles"
	FieldSacks   Field = "sacks"
	FieldTFL     Field = "tfl"
	FieldQBHits  Field = "qb_hits"
	FieldIntDef  Field = "int_def"
	FieldPBU     Field = "pbu"

	FieldFGM    Field = "fg_m"
	FieldFGA    Field = "fg_a"
	FieldXPM    Field = "xp_m"
	FieldXPA    Field = "xp_a"
	FieldLongFG Field = "long_fg"

	FieldKickRetYds Field = "kick_ret_yds"
	FieldPuntRetYds Field = "punt_ret_yds"
	FieldReturnTD   Field = "return_td"
)

type aliasEntry struct {
	field   Field
	aliases []string
}

// aliasTable is searched in order. Aliases are lower case and unique across fields:
// "pa" belongs to opponent_score (points against) and "ryds" to rush_yds.
var aliasTable = []aliasEntry{
	{FieldSeason, []string{"season", "yr", "year"}},
	{FieldWeek, []string{"week", "wk"}},
	{FieldDate, []string{"date", "game_date", "gamedate"}},
	{FieldGameID, []string{"game_id", "gid", "game", "match_id"}},

	{FieldTeam, []string{"team", "team_name", "school", "club"}},
	{FieldOpponent, []string{"opponent", "opp", "vs", "opponent_team"}},
	{FieldHomeTeam, []string{"home_team", "home", "homeclub"}},
	{FieldAwayTeam, []string{"away_team", "away", "roadclub"}},
	{FieldHomeScore, []string{"home_score", "hs", "home_pts", "home_points"}},
	{FieldAwayScore, []string{"away_score", "as", "away_pts", "away_points"}},
	{FieldTeamScore, []string{"team_score", "score", "points_for", "pf"}},
	{FieldOppScore, []string{"opponent_score", "opp_score", "points_against", "pa"}},
	{FieldResult, []string{"result", "w_l", "outcome"}},
	{FieldConf, []string{"conference", "conf", "division"}},
	{FieldLocation, []string{"location", "site", "stadium"}},
	{FieldHomeAway, []string{"home_away", "ha", "venue"}},

	{FieldPlayer, []string{"player", "player_name", "name"}},
	{FieldPosition, []string{"position", "pos"}},
	{FieldJersey, []string{"jersey", "number", "#"}},

	{FieldPassAtt, []string{"pass_att", "att"}},
	{FieldPassCmp, []string{"pass_cmp", "cmp", "pc"}},
	{FieldPassYds, []string{"pass_yds", "yds", "py"}},
	{FieldPassTD, []string{"pass_td", "td", "ptd"}},
	{FieldPassInt, []string{"pass_int", "int", "ints"}},
	{FieldSackTaken, []string{"sack_taken", "sacked", "sk_against"}},

	{FieldRushAtt, []string{"rush_att", "ratt", "ra"}},
	{FieldRushYds, []string{"rush_yds", "ryds", "ry"}},
	{FieldRushTD, []string{"rush_td", "rtd"}},

	{FieldRecRec, []string{"rec_rec", "rec", "receptions"}},
	{FieldRecTgt, []string{"rec_tgt", "tgt", "targets"}},
	{FieldRecYds, []string{"rec_yds", "recyds"}},
	{FieldRecTD, []string{"rec_td", "retd"}},

	{FieldTackles, []string{"tackles", "tkl", "tot_tkl"}},
	{FieldSacks, []string{"sacks", "sk"}},
	{FieldTFL, []string{"tfl", "tackles_for_loss"}},
	{FieldQBHits, []string{"qb_hits", "qbh"}},
	{FieldIntDef, []string{"int_def", "def_int", "interceptions"}},
	{FieldPBU, []string{"pbu", "pass_breakups"}},

	{FieldFGM, []string{"fg_m", "fgm"}},
	{FieldFGA, []string{"fg_a", "fga"}},
	{FieldXPM, []string{"xp_m", "xpm"}},
	{FieldXPA, []string{"xp_a", "xpa"}},
	{FieldLongFG, []string{"long_fg", "longfg", "lg_fg"}},

	{FieldKickRetYds, []string{"kick_ret_yds", "kr_yds"}},
	{FieldPuntRetYds, []string{"punt_ret_yds", "pr_yds"}},
	{FieldReturnTD, []string{"return_td", "st_td"}},
}

// Fields returns every canonical field in alias-table order.
func Fields() []Field {
	out := make([]Field, 0, len(aliasTable))
	for _, e := range aliasTable {
		out = append(out, e.field)
	}
	return out
}

// Aliases returns the accepted header spellings for f, or nil for an unknown field.
func Aliases(f Field) []string {
	for _, e := range aliasTable {
		if e.field == f {
			return append([]string(nil), e.aliases...)
		}
	}
	return nil
}

// Mapping binds canonical fields to the columns of one header row.
// A field missing from the mapping means "value unavailable".
type Mapping struct {
	columns map[Field]string
	index   map[Field]int
}

// ReconcileHeaders maps raw header names onto canonical fields.
// Aliases are tried in table order; when one alias matches several raw columns
// the first column (by header order) wins.
func ReconcileHeaders(headers []string) Mapping {
	pos := make(map[string]int, len(headers))
	for i, h := range headers {
		k := normHeader(h)
		if k == "" {
			continue
		}
		if _, seen := pos[k]; !seen {
			pos[k] = i
		}
	}

	m := Mapping{
		columns: make(map[Field]string, len(aliasTable)),
		index:   make(map[Field]int, len(aliasTable)),
	}
	for _, e := range aliasTable {
		for _, a := range e.aliases {
			if i, ok := pos[a]; ok {
				m.columns[e.field] = headers[i]
				m.index[e.field] = i
				break
			}
		}
	}
	return m
}

// Column returns the raw header bound to f.
func (m Mapping) Column(f Field) (string, bool) {
	c, ok := m.columns[f]
	return c, ok
}

// Has reports whether f is bound.
func (m Mapping) Has(f Field) bool {
	_, ok := m.index[f]
	return ok
}

// Len is the number of bound fields.
func (m Mapping) Len() int { return len(m.columns) }

// Columns returns a copy of the field → raw header binding.
func (m Mapping) Columns() map[Field]string {
	out := make(map[Field]string, len(m.columns))
	for f, c := range m.columns {
		out[f] = c
	}
	return out
}

// value returns the trimmed cell for f, or "" when unbound or out of range.
func (m Mapping) value(rec []string, f Field) string {
	i, ok := m.index[f]
	if !ok || i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func normHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.TrimSpace(s))
}
