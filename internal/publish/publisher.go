// Package publish writes a season snapshot to an object store as JSON
// artifacts, optionally mirroring it to DynamoDB and Parquet.
package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tyler180/boxscore-stats/internal/materializer"
	"github.com/tyler180/boxscore-stats/internal/stats"
	"github.com/tyler180/boxscore-stats/internal/store"
)

const contentJSON = "application/json"

// ObjectWriter is the write side of an object store.
type ObjectWriter interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
}

// StatsMirror receives standings and player totals after the JSON artifacts.
type StatsMirror interface {
	PutStandings(ctx context.Context, season string, rows []stats.StandingsRow) (int, error)
	PutPlayerTotals(ctx context.Context, season string, totals []stats.PlayerTotals) (int, error)
}

type Publisher struct {
	Objects     ObjectWriter
	Keys        Keys
	Concurrency int
	// Optional sinks; nil disables them.
	Mirror    StatsMirror
	Analytics bool
	Notifier  Notifier

	Logger *slog.Logger
	Now    func() time.Time
}

// Result describes a completed publish.
type Result struct {
	RunID     string `json:"run_id"`
	Season    string `json:"season"`
	Artifacts int    `json:"artifacts"`
	Mirrored  int    `json:"mirrored,omitempty"`
	Parquet   string `json:"parquet,omitempty"`
}

func (p *Publisher) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

func (p *Publisher) limit() int {
	if p.Concurrency > 0 {
		return p.Concurrency
	}
	return 8
}

// Publish writes standings, team schedules, the player index, leaders,
// per-player logs and careers, in that order. The first failed write stops
// the run; artifacts already written stay in place.
func (p *Publisher) Publish(ctx context.Context, snap materializer.Snapshot) (Result, error) {
	if snap.Season == "" {
		return Result{}, errors.New("publish: snapshot has no season")
	}
	res := Result{RunID: uuid.NewString(), Season: snap.Season}
	var written atomic.Int64
	put := func(ctx context.Context, key string, v any) error {
		if err := p.putJSON(ctx, key, v); err != nil {
			return err
		}
		written.Add(1)
		return nil
	}
	season := snap.Season
	log := p.logger().With("season", season, "run_id", res.RunID)

	if err := put(ctx, p.Keys.Standings(season), snap.Standings); err != nil {
		return res, err
	}

	teams := stats.Teams(snap.Schedules)
	if err := p.fanOut(ctx, len(teams), func(ctx context.Context, i int) error {
		return put(ctx, p.Keys.Team(season, teams[i]), snap.Schedules[teams[i]])
	}); err != nil {
		return res, err
	}

	if err := put(ctx, p.Keys.PlayerIndex(season), snap.Players); err != nil {
		return res, err
	}
	if err := put(ctx, p.Keys.Leaders(season), snap.Leaders); err != nil {
		return res, err
	}

	logKeys := stats.SortedKeys(snap.Logs)
	if err := p.fanOut(ctx, len(logKeys), func(ctx context.Context, i int) error {
		k := logKeys[i]
		return put(ctx, p.Keys.PlayerLog(season, Slug(k.Player, k.Team)), snap.Logs[k])
	}); err != nil {
		return res, err
	}

	careerKeys := stats.SortedKeys(snap.Careers)
	if err := p.fanOut(ctx, len(careerKeys), func(ctx context.Context, i int) error {
		k := careerKeys[i]
		return put(ctx, p.Keys.Career(Slug(k.Player, k.Team)), snap.Careers[k])
	}); err != nil {
		return res, err
	}
	res.Artifacts = int(written.Load())
	log.Info("OK published snapshots", "artifacts", res.Artifacts, "teams", len(teams), "players", len(snap.Players))

	if p.Analytics && len(snap.Players) > 0 {
		body, err := store.EncodePlayerTotals(snap.Players)
		if err != nil {
			return res, fmt.Errorf("encode parquet: %w", err)
		}
		key := p.Keys.PlayerTotalsParquet(season)
		if err := p.Objects.Put(ctx, key, body, "application/vnd.apache.parquet"); err != nil {
			return res, fmt.Errorf("put %s: %w", key, err)
		}
		res.Parquet = key
		log.Info("OK wrote parquet export", "key", key, "rows", len(snap.Players))
	}

	if p.Mirror != nil {
		n, err := p.Mirror.PutStandings(ctx, season, snap.Standings)
		if err != nil {
			return res, fmt.Errorf("mirror standings: %w", err)
		}
		m, err := p.Mirror.PutPlayerTotals(ctx, season, snap.Players)
		if err != nil {
			return res, fmt.Errorf("mirror player totals: %w", err)
		}
		res.Mirrored = n + m
		log.Info("OK mirrored to table", "items", res.Mirrored)
	}

	if p.Notifier != nil {
		ev := Event{
			RunID:       res.RunID,
			Season:      season,
			Artifacts:   res.Artifacts,
			Prefix:      p.Keys.Prefix,
			PublishedAt: p.now().UTC(),
		}
		// artifacts are already in place; a failed notification is only logged
		if err := p.Notifier.Notify(ctx, ev); err != nil {
			log.Warn("publish notification failed", "err", err)
		}
	}
	return res, nil
}

func (p *Publisher) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Publisher) putJSON(ctx context.Context, key string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := p.Objects.Put(ctx, key, body, contentJSON); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// fanOut runs fn for 0..n-1 with bounded concurrency. The first error cancels
// the shared context so pending writes are skipped.
func (p *Publisher) fanOut(ctx context.Context, n int, fn func(ctx context.Context, i int) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit())
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	return g.Wait()
}
