// Command boxscore ingests box-score CSV/HTML exports and publishes season
// standings, schedules, player stats, leaders and careers.
//
// Usage:
//
//	boxscore publish --season 2024 exports/
//	boxscore publish --season 2024            # reads BOX_UPLOAD_PREFIX from BOX_BUCKET
//	boxscore preview --season 2024 --out preview/ exports/week1.csv
//	boxscore headers exports/week1.csv
//	boxscore serve
//	boxscore catalog
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tyler180/boxscore-stats/internal/api"
	"github.com/tyler180/boxscore-stats/internal/app"
	"github.com/tyler180/boxscore-stats/internal/boxscore"
	"github.com/tyler180/boxscore-stats/internal/config"
	"github.com/tyler180/boxscore-stats/internal/ingest"
	"github.com/tyler180/boxscore-stats/internal/store"
)

func main() {
	_ = godotenv.Load(".env")
	cfg := config.Load()

	root := &cobra.Command{
		Use:           "boxscore",
		Short:         "Box-score ingestion and stats publishing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfg.Season, "season", cfg.Season, "season to materialize (BOX_SEASON)")
	root.PersistentFlags().StringVar(&cfg.Prefix, "prefix", cfg.Prefix, "artifact key prefix (BOX_PREFIX)")
	root.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "debug logging")

	root.AddCommand(publishCmd(cfg), previewCmd(cfg), headersCmd(cfg), serveCmd(cfg), catalogCmd(cfg))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// sources picks local paths when given, otherwise the upload prefix in S3.
func sources(ctx context.Context, cfg *config.Config, d *app.Deps, paths []string) ([]ingest.Source, error) {
	if len(paths) > 0 {
		return ingest.FileSources(paths)
	}
	if d.S3 == nil {
		return nil, errors.New("no input paths and no BOX_BUCKET to read uploads from")
	}
	return ingest.ObjectSources(ctx, d.S3, cfg.UploadPrefix)
}

func publishCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish [paths...]",
		Short: "Ingest inputs and publish every artifact for the season",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := app.NewLogger(cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			d, err := app.NewDeps(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer d.Close()

			srcs, err := sources(cmd.Context(), cfg, d, args)
			if err != nil {
				return err
			}
			start := time.Now()
			res, rep, err := app.Publish(cmd.Context(), cfg, srcs, d, log)
			if err != nil {
				return err
			}
			log.Info("publish finished", "duration", time.Since(start).Round(time.Millisecond), "run_id", res.RunID, "parquet", res.Parquet)
			return printJSON(cmd, map[string]any{"result": res, "report": rep})
		},
	}
	cmd.Flags().StringVar(&cfg.OutDir, "out", cfg.OutDir, "write to a local directory instead of S3 (BOX_OUT_DIR)")
	cmd.Flags().BoolVar(&cfg.FillSeason, "fill-season", cfg.FillSeason, "assign --season to rows without one")
	cmd.Flags().BoolVar(&cfg.AnalyticsExport, "analytics", cfg.AnalyticsExport, "also write the Parquet player totals export")
	cmd.Flags().IntVar(&cfg.Concurrency, "concurrency", cfg.Concurrency, "parallel parses and writes")
	cmd.PreRun = func(*cobra.Command, []string) {
		// --out wins over a bucket from the environment
		if cmd.Flags().Changed("out") {
			cfg.Bucket = ""
		}
	}
	return cmd
}

func previewCmd(cfg *config.Config) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "preview paths...",
		Short: "Publish into a local directory for inspection",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := app.NewLogger(cfg)
			cfg.Bucket, cfg.StatsTable, cfg.RedisURL = "", "", ""
			cfg.OutDir = out
			if err := cfg.Validate(); err != nil {
				return err
			}
			d, err := app.NewDeps(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			srcs, err := ingest.FileSources(args)
			if err != nil {
				return err
			}
			_, rep, err := app.Publish(cmd.Context(), cfg, srcs, d, log)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rep.Summary())
			for _, f := range rep.Files {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s: rows=%d columns=%d warnings=%d\n", f.Name, f.Rows, f.MappedColumns, f.Warnings)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "written to", cfg.OutDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "preview", "output directory")
	cmd.Flags().BoolVar(&cfg.FillSeason, "fill-season", cfg.FillSeason, "assign --season to rows without one")
	return cmd
}

func headersCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "headers paths...",
		Short: "Show how each file's columns map onto canonical fields",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs, err := ingest.FileSources(args)
			if err != nil {
				return err
			}
			tables, err := ingest.ReadAll(cmd.Context(), srcs, cfg.Concurrency)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			for _, t := range tables {
				m := boxscore.ReconcileHeaders(t.Header)
				fmt.Fprintf(tw, "%s\t%d of %d columns mapped, %d rows\n", t.Name, m.Len(), len(t.Header), len(t.Records))
				for _, f := range boxscore.Fields() {
					if col, ok := m.Column(f); ok {
						fmt.Fprintf(tw, "  %s\t<- %q\n", f, col)
					}
				}
				var unmapped []string
				used := map[string]bool{}
				for _, col := range m.Columns() {
					used[col] = true
				}
				for _, h := range t.Header {
					if !used[h] {
						unmapped = append(unmapped, h)
					}
				}
				if len(unmapped) > 0 {
					fmt.Fprintf(tw, "  ignored\t%s\n", strings.Join(unmapped, ", "))
				}
			}
			return tw.Flush()
		},
	}
}

func serveCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve published artifacts over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := app.NewLogger(cfg)
			cfg.StatsTable, cfg.RedisURL = "", ""
			d, err := app.NewDeps(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			if ds, ok := d.Objects.(store.DirStore); ok {
				log.Info("serving local directory", "root", ds.Root)
			}

			addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
			srv := &http.Server{
				Addr:         addr,
				Handler:      api.NewRouter(d.Objects, cfg, log),
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  60 * time.Second,
			}
			errc := make(chan error, 1)
			go func() {
				log.Info("starting api", "addr", addr, "cache_ttl", cfg.CacheTTL)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errc <- err
				}
				close(errc)
			}()

			select {
			case err := <-errc:
				return err
			case <-cmd.Context().Done():
			}
			log.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&cfg.OutDir, "dir", cfg.OutDir, "serve a local directory instead of S3")
	cmd.Flags().IntVar(&cfg.APIPort, "port", cfg.APIPort, "listen port (API_PORT)")
	cmd.PreRun = func(*cobra.Command, []string) {
		if cmd.Flags().Changed("dir") {
			cfg.Bucket = ""
		}
	}
	return cmd
}

func catalogCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "Register the Parquet player totals export with Athena",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := app.NewLogger(cfg)
			cfg.StatsTable, cfg.RedisURL = "", ""
			d, err := app.NewDeps(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			loc, err := app.Register(cmd.Context(), cfg, d)
			if err != nil {
				return err
			}
			log.Info("OK registered athena table", "table", cfg.AthenaDB+"."+cfg.AthenaTable, "location", loc)
			return nil
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
