// Package materializer computes every published view for one season from the
// full set of uploaded rows.
package materializer

import (
	"fmt"
	"strings"
	"time"

	"github.com/tyler180/boxscore-stats/internal/boxscore"
	"github.com/tyler180/boxscore-stats/internal/ingest"
	"github.com/tyler180/boxscore-stats/internal/stats"
)

type Options struct {
	// FillSeason assigns the selected season to rows that carry none.
	FillSeason bool
}

// Report is the run summary.
type Report struct {
	Season        string              `json:"season"`
	Rows          int                 `json:"rows"`
	SeasonRows    int                 `json:"season_rows"`
	Games         int                 `json:"games"`
	Teams         int                 `json:"teams"`
	Players       int                 `json:"players"`
	DroppedGroups int                 `json:"dropped_groups"`
	Warnings      int                 `json:"warnings"`
	Files         []ingest.FileReport `json:"files,omitempty"`
}

// Summary is a one-line human rendering of the report.
func (r Report) Summary() string {
	return fmt.Sprintf("season=%s parsed=%d rows in_season=%d games=%d teams=%d players=%d dropped=%d warnings=%d",
		r.Season, r.Rows, r.SeasonRows, r.Games, r.Teams, r.Players, r.DroppedGroups, r.Warnings)
}

// Snapshot is everything published for a season.
type Snapshot struct {
	Season    string
	Games     []boxscore.Game
	Standings []stats.StandingsRow
	Schedules map[string][]boxscore.TeamGameRecord
	Players   []stats.PlayerTotals
	Leaders   stats.Leaders
	Logs      map[stats.PlayerKey][]boxscore.Row
	Careers   map[stats.PlayerKey][]stats.PlayerTotals
	Report    Report
}

// Build filters rows to season and derives every view. Careers use all rows
// so earlier seasons stay visible.
func Build(rows []boxscore.Row, season string, now time.Time, opts Options) Snapshot {
	season = strings.TrimSpace(season)

	all := rows
	if opts.FillSeason {
		all = make([]boxscore.Row, len(rows))
		copy(all, rows)
		for i := range all {
			if strings.TrimSpace(all[i].Season) == "" {
				all[i].Season = season
			}
		}
	}

	var inSeason []boxscore.Row
	for _, r := range all {
		if strings.TrimSpace(r.Season) == season {
			inSeason = append(inSeason, r)
		}
	}

	rec := boxscore.ReconstructGames(inSeason)
	players := stats.PlayerSeasonTotals(inSeason)
	schedules := stats.Schedules(rec.Records)

	snap := Snapshot{
		Season:    season,
		Games:     rec.Games,
		Standings: stats.Standings(rec.Records),
		Schedules: schedules,
		Players:   players,
		Leaders:   stats.BuildLeaders(season, players, now),
		Logs:      stats.GameLogs(inSeason),
		Careers:   stats.Careers(all),
	}
	snap.Report = Report{
		Season:        season,
		Rows:          len(rows),
		SeasonRows:    len(inSeason),
		Games:         len(rec.Games),
		Teams:         len(schedules),
		Players:       len(players),
		DroppedGroups: rec.Dropped,
	}
	return snap
}

// WithFiles attaches per-file ingestion reports and totals their warnings.
func (s *Snapshot) WithFiles(files []ingest.FileReport) {
	s.Report.Files = files
	s.Report.Warnings = 0
	for _, f := range files {
		s.Report.Warnings += f.Warnings
	}
}
