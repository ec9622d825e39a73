// Command publish-lambda rebuilds and publishes a season from the raw uploads
// in S3. It is invoked after new box-score files land under BOX_UPLOAD_PREFIX.
package main

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/tyler180/boxscore-stats/internal/app"
	"github.com/tyler180/boxscore-stats/internal/config"
	"github.com/tyler180/boxscore-stats/internal/ingest"
)

type Event struct {
	Season       string `json:"season"`
	UploadPrefix string `json:"upload_prefix"`    // optional; defaults to BOX_UPLOAD_PREFIX
	FillSeason   *bool  `json:"fill_season"`      // optional; defaults to BOX_FILL_SEASON
	Analytics    *bool  `json:"analytics_export"` // optional; defaults to ANALYTICS_EXPORT
}

func pickBool(ev *bool, env bool) bool {
	if ev != nil {
		return *ev
	}
	return env
}

func handler(ctx context.Context, e Event) (any, error) {
	cfg := config.Load()
	// warm containers reuse the process; the event never writes back into env
	if s := strings.TrimSpace(e.Season); s != "" {
		cfg.Season = s
	}
	if e.UploadPrefix != "" {
		cfg.UploadPrefix = e.UploadPrefix
	}
	cfg.FillSeason = pickBool(e.FillSeason, cfg.FillSeason)
	cfg.AnalyticsExport = pickBool(e.Analytics, cfg.AnalyticsExport)
	cfg.OutDir = ""
	if cfg.Bucket == "" {
		return nil, errors.New("BOX_BUCKET is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := app.NewLogger(cfg)
	d, err := app.NewDeps(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer d.Close()

	srcs, err := ingest.ObjectSources(ctx, d.S3, cfg.UploadPrefix)
	if err != nil {
		return nil, err
	}
	res, rep, err := app.Publish(ctx, cfg, srcs, d, log)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"ok":        true,
		"run_id":    res.RunID,
		"season":    res.Season,
		"artifacts": res.Artifacts,
		"mirrored":  res.Mirrored,
		"parquet":   res.Parquet,
		"report":    rep,
		"s3":        d.S3.URI(cfg.Prefix),
	}, nil
}

func main() {
	lambda.Start(handler)
}
