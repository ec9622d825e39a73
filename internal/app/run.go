// Package app wires configuration, storage and the pipeline stages together
// for the CLI and the Lambda.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/tyler180/boxscore-stats/internal/boxscore"
	"github.com/tyler180/boxscore-stats/internal/config"
	"github.com/tyler180/boxscore-stats/internal/ingest"
	"github.com/tyler180/boxscore-stats/internal/materializer"
	"github.com/tyler180/boxscore-stats/internal/publish"
	"github.com/tyler180/boxscore-stats/internal/store"
)

// NewLogger returns a text logger at the configured level.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if cfg.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Deps are the sinks a run writes to.
type Deps struct {
	Objects  store.ObjectStore
	Mirror   publish.StatsMirror
	Notifier publish.Notifier
	Catalog  *store.Catalog
	S3       *store.S3Store

	closers []func() error
}

func (d *Deps) Close() {
	for _, c := range d.closers {
		_ = c()
	}
}

// NewDeps builds the object store and optional sinks from cfg. A local
// directory store needs no AWS credentials.
func NewDeps(ctx context.Context, cfg *config.Config, log *slog.Logger) (*Deps, error) {
	d := &Deps{}
	if cfg.UseS3() || cfg.StatsTable != "" {
		awsCfg, err := awscfg.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		if cfg.UseS3() {
			// publishing does not retry; a failed put surfaces immediately
			client := s3.NewFromConfig(awsCfg, func(o *s3.Options) { o.RetryMaxAttempts = 1 })
			d.S3 = store.NewS3Store(client, cfg.Bucket)
			d.Objects = d.S3
			d.Catalog = &store.Catalog{
				Client:    athena.NewFromConfig(awsCfg),
				Workgroup: cfg.AthenaWorkgroup,
				Database:  cfg.AthenaDB,
				OutputS3:  cfg.AthenaOutput,
				Logger:    log,
			}
		}
		if cfg.StatsTable != "" {
			d.Mirror = &store.StatsTable{Client: dynamodb.NewFromConfig(awsCfg), Table: cfg.StatsTable}
		}
	}
	if d.Objects == nil {
		if cfg.OutDir == "" {
			return nil, config.ErrNoStore
		}
		d.Objects = store.DirStore{Root: cfg.OutDir}
	}
	if cfg.RedisURL != "" {
		client, err := publish.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		d.closers = append(d.closers, client.Close)
		d.Notifier = publish.NewRedisNotifier(client, cfg.RedisStream)
	}
	return d, nil
}

// Load reads and normalizes every source.
func Load(ctx context.Context, srcs []ingest.Source, limit int, log *slog.Logger) ([]boxscore.Row, []ingest.FileReport, error) {
	tables, err := ingest.ReadAll(ctx, srcs, limit)
	if err != nil {
		return nil, nil, err
	}
	rows, files := ingest.Normalize(tables)
	for _, f := range files {
		if f.Warnings > 0 {
			log.Warn("file issues", "file", f.Name, "rows", f.Rows, "warnings", f.Warnings)
		}
		if f.MappedColumns == 0 {
			log.Warn("no recognized columns", "file", f.Name)
		}
	}
	log.Info(fmt.Sprintf("Parsed %d rows", len(rows)), "files", len(files))
	return rows, files, nil
}

// Snapshot loads srcs and materializes cfg.Season.
func Snapshot(ctx context.Context, cfg *config.Config, srcs []ingest.Source, log *slog.Logger) (materializer.Snapshot, error) {
	rows, files, err := Load(ctx, srcs, cfg.Concurrency, log)
	if err != nil {
		return materializer.Snapshot{}, err
	}
	snap := materializer.Build(rows, cfg.Season, time.Now(), materializer.Options{FillSeason: cfg.FillSeason})
	snap.WithFiles(files)
	if snap.Report.DroppedGroups > 0 {
		log.Warn("dropped unreconstructable games", "groups", snap.Report.DroppedGroups)
	}
	return snap, nil
}

// Publish runs the whole pipeline for cfg.Season.
func Publish(ctx context.Context, cfg *config.Config, srcs []ingest.Source, d *Deps, log *slog.Logger) (publish.Result, materializer.Report, error) {
	if err := cfg.Validate(); err != nil {
		return publish.Result{}, materializer.Report{}, err
	}
	if len(srcs) == 0 {
		return publish.Result{}, materializer.Report{}, fmt.Errorf("no input files")
	}
	snap, err := Snapshot(ctx, cfg, srcs, log)
	if err != nil {
		return publish.Result{}, materializer.Report{}, err
	}
	p := &publish.Publisher{
		Objects:     d.Objects,
		Keys:        publish.Keys{Prefix: cfg.Prefix},
		Concurrency: cfg.Concurrency,
		Mirror:      d.Mirror,
		Analytics:   cfg.AnalyticsExport,
		Notifier:    d.Notifier,
		Logger:      log,
	}
	res, err := p.Publish(ctx, snap)
	if err != nil {
		return res, snap.Report, err
	}
	log.Info("OK "+snap.Report.Summary(), "run_id", res.RunID, "artifacts", res.Artifacts)
	return res, snap.Report, nil
}

// Register creates or refreshes the Athena table over the Parquet export.
func Register(ctx context.Context, cfg *config.Config, d *Deps) (string, error) {
	if d.Catalog == nil || d.S3 == nil {
		return "", fmt.Errorf("catalog needs BOX_BUCKET")
	}
	loc := d.S3.URI(publish.Keys{Prefix: cfg.Prefix}.AnalyticsRoot())
	if err := d.Catalog.RegisterPlayerTotals(ctx, cfg.AthenaTable, loc); err != nil {
		return "", err
	}
	return loc, nil
}
