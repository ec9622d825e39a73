package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tyler180/boxscore-stats/internal/boxscore"
)

// Source is one input file, local or remote.
type Source interface {
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

type FileSource struct{ Path string }

func (f FileSource) Name() string { return f.Path }

func (f FileSource) Open(context.Context) (io.ReadCloser, error) { return os.Open(f.Path) }

// ObjectReader is the read side of an object store.
type ObjectReader interface {
	Get(ctx context.Context, key string) ([]byte, error)
}

// ObjectLister lists keys under a prefix.
type ObjectLister interface {
	ObjectReader
	List(ctx context.Context, prefix string) ([]string, error)
}

type ObjectSource struct {
	Objects ObjectReader
	Key     string
}

func (o ObjectSource) Name() string { return o.Key }

func (o ObjectSource) Open(ctx context.Context) (io.ReadCloser, error) {
	b, err := o.Objects.Get(ctx, o.Key)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

// Supported reports whether name has an extension the readers understand.
func Supported(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv", ".txt", ".htm", ".html":
		return true
	}
	return false
}

func isHTML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".htm" || ext == ".html"
}

// Parse reads r as HTML or CSV depending on the name's extension.
func Parse(name string, r io.Reader) (Table, error) {
	if isHTML(name) {
		return ReadHTML(name, r)
	}
	return ReadCSV(name, r)
}

// DefaultFetcher downloads http(s) paths given to FileSources.
var DefaultFetcher = NewFetcher(300 * time.Millisecond)

// FileSources expands paths into sources. Directories contribute their
// supported files in name order; explicit files and URLs are kept as given.
func FileSources(paths []string) ([]Source, error) {
	var out []Source
	for _, p := range paths {
		if isURL(p) {
			out = append(out, URLSource{URL: p, Fetcher: DefaultFetcher})
			continue
		}
		fi, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !fi.IsDir() {
			out = append(out, FileSource{Path: p})
			continue
		}
		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if !e.IsDir() && Supported(e.Name()) {
				out = append(out, FileSource{Path: filepath.Join(p, e.Name())})
			}
		}
	}
	return out, nil
}

// ObjectSources lists supported objects under prefix in key order.
func ObjectSources(ctx context.Context, objects ObjectLister, prefix string) ([]Source, error) {
	keys, err := objects.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	sort.Strings(keys)
	var out []Source
	for _, k := range keys {
		if Supported(k) {
			out = append(out, ObjectSource{Objects: objects, Key: k})
		}
	}
	return out, nil
}

// ReadAll parses every source concurrently, at most limit at a time (no limit
// when limit <= 0). Tables come back in source order once every parse has
// finished; the first failure cancels the rest.
func ReadAll(ctx context.Context, srcs []Source, limit int) ([]Table, error) {
	tables := make([]Table, len(srcs))
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, src := range srcs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rc, err := src.Open(ctx)
			if err != nil {
				return fmt.Errorf("open %s: %w", src.Name(), err)
			}
			defer rc.Close()
			t, err := Parse(src.Name(), rc)
			if err != nil {
				return fmt.Errorf("parse %s: %w", src.Name(), err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// FileReport summarizes one input for the run summary.
type FileReport struct {
	Name          string `json:"name"`
	Rows          int    `json:"rows"`
	MappedColumns int    `json:"mapped_columns"`
	Warnings      int    `json:"warnings"`
}

// Normalize turns tables into canonical rows in table order.
func Normalize(tables []Table) ([]boxscore.Row, []FileReport) {
	var rows []boxscore.Row
	reports := make([]FileReport, 0, len(tables))
	for _, t := range tables {
		rs, warnings := boxscore.NormalizeTable(t.Header, t.Records)
		rows = append(rows, rs...)
		reports = append(reports, FileReport{
			Name:          t.Name,
			Rows:          len(rs),
			MappedColumns: boxscore.ReconcileHeaders(t.Header).Len(),
			Warnings:      t.Warnings + warnings,
		})
	}
	return rows, reports
}
