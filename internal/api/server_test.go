package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyler180/boxscore-stats/internal/config"
	"github.com/tyler180/boxscore-stats/internal/publish"
	"github.com/tyler180/boxscore-stats/internal/store"
)

func testConfig() *config.Config {
	return &config.Config{
		Prefix:           "site",
		CacheTTL:         time.Minute,
		CORSAllowOrigins: []string{"https://stats.example"},
	}
}

func seeded(t *testing.T) store.DirStore {
	t.Helper()
	ds := store.DirStore{Root: t.TempDir()}
	k := publish.Keys{Prefix: "site"}
	ctx := context.Background()
	put := func(key, body string) {
		require.NoError(t, ds.Put(ctx, key, []byte(body), "application/json"))
	}
	put(k.Standings("2024"), `[{"team":"New York"}]`)
	put(k.Team("2024", "New York"), `[{"opponent":"Beta"}]`)
	put(k.Team("2024", "Texas A&M"), `[{"opponent":"Rice"}]`)
	put(k.PlayerIndex("2024"), `[]`)
	put(k.Leaders("2024"), `{"season":"2024"}`)
	put(k.PlayerLog("2024", publish.Slug("J_R Smith", "Beta")), `[{"week":"1"}]`)
	put(k.Career(publish.Slug("Ann Lee", "New York")), `[{"season":"2024"}]`)
	put(k.Career(publish.Slug("Ja'Marr Chase", "CIN")), `[{"season":"2023"}]`)
	return ds
}

func get(h http.Handler, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	h := NewRouter(seeded(t), testConfig(), nil)

	cases := []struct {
		path string
		body string
	}{
		{"/api/v1/stats/2024/standings", `[{"team":"New York"}]`},
		{"/api/v1/stats/2024/teams/New%20York", `[{"opponent":"Beta"}]`},
		{"/api/v1/stats/2024/teams/Texas%20A%26M", `[{"opponent":"Rice"}]`},
		{"/api/v1/stats/2024/players", `[]`},
		{"/api/v1/stats/2024/leaders", `{"season":"2024"}`},
		{"/api/v1/stats/2024/players/J%5FR%20Smith__Beta/log", `[{"week":"1"}]`},
		{"/api/v1/career/Ann%20Lee__New%20York", `[{"season":"2024"}]`},
		{"/api/v1/career/Ja%27Marr%20Chase__CIN", `[{"season":"2023"}]`},
		{"/api/v1/career/Ja'Marr%20Chase__CIN", `[{"season":"2023"}]`},
	}
	for _, c := range cases {
		rec := get(h, c.path, nil)
		require.Equal(t, http.StatusOK, rec.Code, c.path)
		assert.JSONEq(t, c.body, rec.Body.String(), c.path)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.NotEmpty(t, rec.Header().Get("ETag"))
		assert.NotEmpty(t, rec.Header().Get("X-Process-Time"))
	}
}

func TestServe_CacheAndETag(t *testing.T) {
	h := NewRouter(seeded(t), testConfig(), nil)
	path := "/api/v1/stats/2024/standings"

	first := get(h, path, nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))
	assert.Equal(t, "public, max-age=60, stale-while-revalidate=30", first.Header().Get("Cache-Control"))

	second := get(h, path, nil)
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, first.Header().Get("ETag"), second.Header().Get("ETag"))

	nm := get(h, path, map[string]string{"If-None-Match": first.Header().Get("ETag")})
	assert.Equal(t, http.StatusNotModified, nm.Code)
	assert.Empty(t, nm.Body.String())
}

func TestServe_Errors(t *testing.T) {
	h := NewRouter(seeded(t), testConfig(), nil)

	rec := get(h, "/api/v1/stats/1999/standings", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Error.Code)

	assert.Equal(t, http.StatusBadRequest, get(h, "/api/v1/stats/../standings", nil).Code)
	assert.Equal(t, http.StatusBadRequest, get(h, "/api/v1/career/no-separator", nil).Code)
	assert.Equal(t, http.StatusNotFound, get(h, "/api/v1/nothing", nil).Code)
}

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection reset")
}

func TestServe_StoreFailure(t *testing.T) {
	h := NewRouter(brokenStore{}, testConfig(), nil)
	rec := get(h, "/api/v1/stats/2024/leaders", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestHealthAndCORS(t *testing.T) {
	h := NewRouter(seeded(t), testConfig(), nil)

	rec := get(h, "/health", map[string]string{"Origin": "https://stats.example"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://stats.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = get(h, "/health", map[string]string{"Origin": "https://evil.example"})
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitEnabled = true
	cfg.RateLimitReqs = 2
	cfg.RateLimitWindow = time.Hour
	h := NewRouter(seeded(t), cfg, nil)

	assert.Equal(t, http.StatusOK, get(h, "/health", nil).Code)
	rec := get(h, "/health", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "3600", rec.Header().Get("Retry-After"))
}

func TestCache_Disabled(t *testing.T) {
	c := NewCache(0)
	etag := c.Set("k", []byte("v"))
	assert.Equal(t, ComputeETag([]byte("v")), etag)
	_, _, ok := c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCache_Expiry(t *testing.T) {
	now := time.Unix(0, 0)
	c := NewCache(time.Minute)
	c.now = func() time.Time { return now }
	c.Set("k", []byte("v"))
	_, _, ok := c.Get("k")
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, _, ok = c.Get("k")
	assert.False(t, ok)
	c.Set("other", []byte("x"))
	assert.Equal(t, 1, c.Len())
}
