// Package boxscore turns loosely structured box-score tables into canonical rows
// and reconstructs the games they describe.
package boxscore

// Shape says which columns identified the teams on a row.
type Shape int

const (
	// ShapeUnknown rows name neither a team nor a home/away pair.
	ShapeUnknown Shape = iota
	// ShapeTeamOpponent rows are written from one team's point of view.
	ShapeTeamOpponent
	// ShapeHomeAway rows only carry home_team/away_team; the team is not guessed.
	ShapeHomeAway
)

func (s Shape) String() string {
	switch s {
	case ShapeTeamOpponent:
		return "team_opponent"
	case ShapeHomeAway:
		return "home_away"
	default:
		return "unknown"
	}
}

type Passing struct {
	Att    float64 `json:"pass_att"`
	Cmp    float64 `json:"pass_cmp"`
	Yds    float64 `json:"pass_yds"`
	TD     float64 `json:"pass_td"`
	Int    float64 `json:"pass_int"`
	Sacked float64 `json:"sack_taken"`
}

type Rushing struct {
	Att float64 `json:"rush_att"`
	Yds float64 `json:"rush_yds"`
	TD  float64 `json:"rush_td"`
}

type Receiving struct {
	Rec float64 `json:"rec_rec"`
	Tgt float64 `json:"rec_tgt"`
	Yds float64 `json:"rec_yds"`
	TD  float64 `json:"rec_td"`
}

type Defense struct {
	Tackles float64 `json:"tackles"`
	Sacks   float64 `json:"sacks"`
	TFL     float64 `json:"tfl"`
	QBHits  float64 `json:"qb_hits"`
	Int     float64 `json:"int_def"`
	PBU     float64 `json:"pbu"`
}

type Kicking struct {
	FGM    float64 `json:"fg_m"`
	FGA    float64 `json:"fg_a"`
	XPM    float64 `json:"xp_m"`
	XPA    float64 `json:"xp_a"`
	LongFG float64 `json:"long_fg"`
}

type SpecialTeams struct {
	KickRetYds float64 `json:"kick_ret_yds"`
	PuntRetYds float64 `json:"punt_ret_yds"`
	ReturnTD   float64 `json:"return_td"`
}

// StatLine groups every counting stat. The embedded groups flatten into
// the JSON object ("pass_att", "rush_yds", ...).
type StatLine struct {
	Passing
	Rushing
	Receiving
	Defense
	Kicking
	SpecialTeams
}

// Add sums o into s. Long field goal keeps the maximum.
func (s *StatLine) Add(o StatLine) {
	s.Passing.Att += o.Passing.Att
	s.Passing.Cmp += o.Passing.Cmp
	s.Passing.Yds += o.Passing.Yds
	s.Passing.TD += o.Passing.TD
	s.Passing.Int += o.Passing.Int
	s.Passing.Sacked += o.Passing.Sacked

	s.Rushing.Att += o.Rushing.Att
	s.Rushing.Yds += o.Rushing.Yds
	s.Rushing.TD += o.Rushing.TD

	s.Receiving.Rec += o.Receiving.Rec
	s.Receiving.Tgt += o.Receiving.Tgt
	s.Receiving.Yds += o.Receiving.Yds
	s.Receiving.TD += o.Receiving.TD

	s.Defense.Tackles += o.Defense.Tackles
	s.Defense.Sacks += o.Defense.Sacks
	s.Defense.TFL += o.Defense.TFL
	s.Defense.QBHits += o.Defense.QBHits
	s.Defense.Int += o.Defense.Int
	s.Defense.PBU += o.Defense.PBU

	s.Kicking.FGM += o.Kicking.FGM
	s.Kicking.FGA += o.Kicking.FGA
	s.Kicking.XPM += o.Kicking.XPM
	s.Kicking.XPA += o.Kicking.XPA
	if o.Kicking.LongFG > s.Kicking.LongFG {
		s.Kicking.LongFG = o.Kicking.LongFG
	}

	s.SpecialTeams.KickRetYds += o.SpecialTeams.KickRetYds
	s.SpecialTeams.PuntRetYds += o.SpecialTeams.PuntRetYds
	s.SpecialTeams.ReturnTD += o.SpecialTeams.ReturnTD
}

// Row is one input line in canonical form. Missing numbers are 0 and missing
// strings are "".
type Row struct {
	Season string `json:"season"`
	Week   string `json:"week"`
	Date   string `json:"date"`
	GameID string `json:"game_id"`

	Team          string `json:"team"`
	Opponent      string `json:"opponent"`
	HomeTeam      string `json:"home_team"`
	AwayTeam      string `json:"away_team"`
	TeamScore     int    `json:"team_score"`
	OpponentScore int    `json:"opponent_score"`
	HomeScore     int    `json:"home_score"`
	AwayScore     int    `json:"away_score"`

	Player   string `json:"player"`
	Position string `json:"position"`
	Jersey   string `json:"jersey,omitempty"`

	StatLine

	Result     string `json:"result,omitempty"`
	Conference string `json:"conference"`
	HomeAway   string `json:"home_away"`
	Location   string `json:"location"`

	Shape Shape `json:"-"`

	explicitID bool
	scores     scoreSet
}

// scoreSet records which score values were actually supplied (or inferred)
// rather than defaulted to zero.
type scoreSet struct {
	team, opponent, home, away bool
}

// HasExplicitGameID reports whether the game id came from the file rather than
// being composed from date and teams.
func (r Row) HasExplicitGameID() bool { return r.explicitID }
