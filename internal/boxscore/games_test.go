package boxscore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var teamHeader = []string{"date", "week", "team", "opponent", "team_score", "opponent_score", "home_away", "player", "pass_att"}

func normalized(t *testing.T, header []string, records ...[]string) []Row {
	t.Helper()
	rows, warnings := NormalizeTable(header, records)
	require.Zero(t, warnings)
	return rows
}

func TestReconstructGames_SymmetricGrouping(t *testing.T) {
	rows := normalized(t, teamHeader,
		[]string{"2024-09-07", "1", "Alpha", "Beta", "21", "17", "", "QB One", "30"},
		[]string{"2024-09-07", "1", "Beta", "Alpha", "17", "21", "", "QB Two", "25"},
		[]string{"2024-09-07", "1", " alpha", "BETA", "21", "17", "", "RB One", ""},
	)
	assert.Equal(t, GameKey(rows[0]), GameKey(rows[1]))
	assert.Equal(t, GameKey(rows[0]), GameKey(rows[2]))

	out := ReconstructGames(rows)
	require.Len(t, out.Games, 1)
	assert.Zero(t, out.Dropped)

	g := out.Games[0]
	assert.True(t, g.Neutral, "no venue marker")
	assert.Equal(t, "Alpha", g.HomeTeam)
	assert.Equal(t, "Beta", g.AwayTeam)
	assert.Equal(t, "2024-09-07::Alpha::Beta", g.GameID)

	require.Len(t, out.Records, 2)
	assert.Equal(t, TeamGameRecord{
		Season: "", GameID: g.GameID, Team: "Alpha", Opponent: "Beta", Date: "2024-09-07", Week: "1",
		TeamScore: 21, OpponentScore: 17, HomeAway: "-", Result: "21-17 W",
	}, out.Records[0])
	assert.Equal(t, "17-21 L", out.Records[1].Result)
	assert.Equal(t, "-", out.Records[1].HomeAway)
}

func TestReconstructGames_ScoreComplement(t *testing.T) {
	rows := normalized(t, teamHeader,
		[]string{"2024-09-14", "2", "Beta", "Gamma", "3", "31", "@", "K", ""},
	)
	out := ReconstructGames(rows)
	require.Len(t, out.Games, 1)
	g := out.Games[0]
	assert.False(t, g.Neutral)
	assert.Equal(t, "Gamma", g.HomeTeam)
	assert.Equal(t, 31, g.HomeScore)
	assert.Equal(t, 3, g.AwayScore)

	for _, rec := range out.Records {
		var other TeamGameRecord
		for _, o := range out.Records {
			if o.Team != rec.Team {
				other = o
			}
		}
		assert.Equal(t, rec.TeamScore, other.OpponentScore)
		assert.Equal(t, rec.OpponentScore, other.TeamScore)
		assert.Equal(t, rec.Team, other.Opponent)
	}
	assert.Equal(t, "H", out.Records[0].HomeAway)
	assert.Equal(t, "31-3 W", out.Records[0].Result)
	assert.Equal(t, "A", out.Records[1].HomeAway)
	assert.Equal(t, "3-31 L", out.Records[1].Result)
}

func TestReconstructGames_HomeAwayOnlyRows(t *testing.T) {
	header := []string{"date", "home_team", "away_team", "home_score", "away_score"}
	rows := normalized(t, header,
		[]string{"2024-10-08", "Gamma", "Delta", "14", "14"},
		[]string{"2024-10-01", "Gamma", "Delta", "0", "0"},
	)
	out := ReconstructGames(rows)
	require.Len(t, out.Games, 2)

	unscored := out.Games[0]
	assert.Equal(t, "2024-10-01", unscored.Date, "games sort by date")
	assert.False(t, unscored.Scored)
	assert.Empty(t, out.Records[0].Result, "unscored is not a tie")
	assert.Empty(t, out.Records[1].Result)
	assert.Equal(t, "H", out.Records[0].HomeAway)
	assert.Equal(t, "Gamma", out.Records[0].Team)
	assert.Equal(t, "Delta", out.Records[1].Team)

	assert.True(t, out.Games[1].Scored)
	assert.Equal(t, "14-14 T", out.Records[2].Result)
	assert.Equal(t, "14-14 T", out.Records[3].Result)
}

func TestReconstructGames_DropsGroupsWithoutTwoTeams(t *testing.T) {
	rows := normalized(t, teamHeader,
		[]string{"2024-09-07", "1", "Alpha", "", "", "", "", "Solo", ""},
		[]string{"2024-09-07", "1", "", "", "", "", "", "Nobody", ""},
		[]string{"2024-09-07", "1", "Alpha", "Beta", "", "", "", "QB", ""},
	)
	out := ReconstructGames(rows)
	assert.Equal(t, 2, out.Dropped)
	require.Len(t, out.Games, 1)
	assert.False(t, out.Games[0].Scored)
}

func TestReconstructGames_ExplicitGameIDGroupsAcrossSpellings(t *testing.T) {
	header := []string{"game_id", "date", "team", "opponent", "team_score", "opponent_score", "home_away"}
	rows := normalized(t, header,
		[]string{"G7", "2024-11-02", "Alpha", "Beta", "", "", "H"},
		[]string{"G7", "11/2/2024", "Beta", "Alpha", "10", "20", "A"},
	)
	out := ReconstructGames(rows)
	require.Len(t, out.Games, 1)
	g := out.Games[0]
	assert.Equal(t, "G7", g.GameID)
	assert.Equal(t, "2024-11-02", g.Date, "first row supplies shared fields")
	assert.Equal(t, "Alpha", g.HomeTeam)
	assert.Equal(t, 20, g.HomeScore)
	assert.Equal(t, 10, g.AwayScore)
}

func TestReconstructGames_FirstSpellingWins(t *testing.T) {
	rows := normalized(t, teamHeader,
		[]string{"2024-09-07", "1", "Alpha", "Beta", "21", "17", "H", "", ""},
		[]string{"2024-09-14", "2", "alpha", "Gamma", "7", "10", "A", "", ""},
		[]string{"2024-09-14", "2", "GAMMA ", "ALPHA", "10", "7", "H", "", ""},
	)
	out := ReconstructGames(rows)
	require.Len(t, out.Games, 2)
	g := out.Games[1]
	assert.Equal(t, "Gamma", g.HomeTeam)
	assert.Equal(t, "Alpha", g.AwayTeam)
	assert.Equal(t, "2024-09-14::Gamma::Alpha", g.GameID)

	for _, r := range out.Records {
		assert.Contains(t, []string{"Alpha", "Beta", "Gamma"}, r.Team)
		assert.Contains(t, []string{"Alpha", "Beta", "Gamma"}, r.Opponent)
	}
	assert.Equal(t, "alpha", rows[1].Team, "rows are left as read")
}

func TestReconstructGames_Idempotent(t *testing.T) {
	rows := normalized(t, teamHeader,
		[]string{"2024-09-14", "2", "Alpha", "Gamma", "7", "0", "H", "", ""},
		[]string{"2024-09-07", "1", "Alpha", "Beta", "21", "17", "A", "", ""},
	)
	first := ReconstructGames(rows)
	second := ReconstructGames(rows)
	assert.Equal(t, first, second)
	assert.Equal(t, "2024-09-07", first.Games[0].Date)
	assert.Equal(t, "Beta", first.Games[0].HomeTeam)
}

func TestCompareDatesAndWeeks(t *testing.T) {
	assert.Negative(t, CompareDates("", "2024-01-01"))
	assert.Positive(t, CompareDates("9/1/2024", "2024-08-31"))
	assert.Zero(t, CompareDates("Sep 1, 2024", "2024-09-01"))
	assert.Negative(t, CompareWeeks("2", "10"))
	assert.Negative(t, CompareWeeks("10", "Bowl"))
}
