package ingest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quickFetcher() *Fetcher {
	return &Fetcher{
		Client:      &http.Client{Timeout: 5 * time.Second},
		MaxAttempts: 3,
		Base:        time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	}
}

func TestFetcher_RetriesTransient(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "boxscore-stats")
		switch calls.Add(1) {
		case 1:
			w.WriteHeader(http.StatusServiceUnavailable)
		case 2:
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			_, _ = io.WriteString(w, "team,opponent,player\nAlpha,Beta,Ann\n")
		}
	}))
	defer srv.Close()

	src := URLSource{URL: srv.URL + "/week1.csv?dl=1", Fetcher: quickFetcher()}
	assert.Equal(t, srv.URL+"/week1.csv", src.Name())

	tables, err := ReadAll(context.Background(), []Source{src}, 1)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, [][]string{{"Alpha", "Beta", "Ann"}}, tables[0].Records)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetcher_NotFoundIsFinal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	_, err := quickFetcher().Get(context.Background(), srv.URL+"/missing.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetcher_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := quickFetcher().Get(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted retries")
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 3*time.Second, parseRetryAfter("3"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("soon"))
}

func TestFileSources_URLs(t *testing.T) {
	srcs, err := FileSources([]string{"https://example.com/box/2024.htm"})
	require.NoError(t, err)
	require.Len(t, srcs, 1)
	assert.IsType(t, URLSource{}, srcs[0])
}
