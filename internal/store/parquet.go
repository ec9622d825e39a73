package store

import (
	"bytes"

	parquet "github.com/parquet-go/parquet-go"

	"github.com/tyler180/boxscore-stats/internal/stats"
)

// PlayerTotalsRow is the Parquet layout of one player's season. Season lives
// in the partition path.
type PlayerTotalsRow struct {
	Player   string  `parquet:"player"`
	Team     string  `parquet:"team"`
	Position *string `parquet:"position,optional"`
	G        int32   `parquet:"g"`

	PassAtt float64 `parquet:"pass_att"`
	PassCmp float64 `parquet:"pass_cmp"`
	PassYds float64 `parquet:"pass_yds"`
	PassTD  float64 `parquet:"pass_td"`
	PassInt float64 `parquet:"pass_int"`
	RushAtt float64 `parquet:"rush_att"`
	RushYds float64 `parquet:"rush_yds"`
	RushTD  float64 `parquet:"rush_td"`
	RecRec  float64 `parquet:"rec_rec"`
	RecTgt  float64 `parquet:"rec_tgt"`
	RecYds  float64 `parquet:"rec_yds"`
	RecTD   float64 `parquet:"rec_td"`
	Tackles float64 `parquet:"tackles"`
	Sacks   float64 `parquet:"sacks"`
	IntDef  float64 `parquet:"int_def"`
	FGM     float64 `parquet:"fg_m"`
	FGA     float64 `parquet:"fg_a"`

	CmpPct float64 `parquet:"cmp_pct"`
	YPA    float64 `parquet:"ypa"`
	YPC    float64 `parquet:"ypc"`
	YPR    float64 `parquet:"ypr"`
	FGPct  float64 `parquet:"fg_pct"`
}

type column struct{ name, hiveType string }

// playerTotalsColumns mirrors PlayerTotalsRow for the Athena DDL.
var playerTotalsColumns = []column{
	{"player", "string"}, {"team", "string"}, {"position", "string"}, {"g", "int"},
	{"pass_att", "double"}, {"pass_cmp", "double"}, {"pass_yds", "double"}, {"pass_td", "double"}, {"pass_int", "double"},
	{"rush_att", "double"}, {"rush_yds", "double"}, {"rush_td", "double"},
	{"rec_rec", "double"}, {"rec_tgt", "double"}, {"rec_yds", "double"}, {"rec_td", "double"},
	{"tackles", "double"}, {"sacks", "double"}, {"int_def", "double"},
	{"fg_m", "double"}, {"fg_a", "double"},
	{"cmp_pct", "double"}, {"ypa", "double"}, {"ypc", "double"}, {"ypr", "double"}, {"fg_pct", "double"},
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toParquetRow(p stats.PlayerTotals) PlayerTotalsRow {
	return PlayerTotalsRow{
		Player:   p.Player,
		Team:     p.Team,
		Position: strPtr(p.Position),
		G:        int32(p.G),
		PassAtt:  p.Passing.Att,
		PassCmp:  p.Passing.Cmp,
		PassYds:  p.Passing.Yds,
		PassTD:   p.Passing.TD,
		PassInt:  p.Passing.Int,
		RushAtt:  p.Rushing.Att,
		RushYds:  p.Rushing.Yds,
		RushTD:   p.Rushing.TD,
		RecRec:   p.Receiving.Rec,
		RecTgt:   p.Receiving.Tgt,
		RecYds:   p.Receiving.Yds,
		RecTD:    p.Receiving.TD,
		Tackles:  p.Defense.Tackles,
		Sacks:    p.Defense.Sacks,
		IntDef:   p.Defense.Int,
		FGM:      p.Kicking.FGM,
		FGA:      p.Kicking.FGA,
		CmpPct:   p.CmpPct,
		YPA:      p.YPA,
		YPC:      p.YPC,
		YPR:      p.YPR,
		FGPct:    p.FGPct,
	}
}

// EncodePlayerTotals writes totals as a Snappy-compressed Parquet file.
func EncodePlayerTotals(totals []stats.PlayerTotals) ([]byte, error) {
	var buf bytes.Buffer
	w := parquet.NewWriter(&buf, parquet.SchemaOf(new(PlayerTotalsRow)), parquet.Compression(&parquet.Snappy))
	for _, t := range totals {
		if err := w.Write(toParquetRow(t)); err != nil {
			_ = w.Close()
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
