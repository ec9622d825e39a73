package publish

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tyler180/boxscore-stats/internal/boxscore"
	"github.com/tyler180/boxscore-stats/internal/materializer"
	"github.com/tyler180/boxscore-stats/internal/stats"
)

type memWriter struct {
	mu     sync.Mutex
	order  []string
	bodies map[string][]byte
	types  map[string]string
	failOn string
}

func newMemWriter() *memWriter {
	return &memWriter{bodies: map[string][]byte{}, types: map[string]string{}}
}

func (m *memWriter) Put(_ context.Context, key string, body []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn != "" && strings.Contains(key, m.failOn) {
		return errors.New("access denied")
	}
	m.order = append(m.order, key)
	m.bodies[key] = body
	m.types[key] = contentType
	return nil
}

func (m *memWriter) index(key string) int {
	for i, k := range m.order {
		if k == key {
			return i
		}
	}
	return -1
}

type fakeMirror struct {
	standings, totals int
	err               error
}

func (f *fakeMirror) PutStandings(_ context.Context, _ string, rows []stats.StandingsRow) (int, error) {
	f.standings = len(rows)
	return len(rows), f.err
}

func (f *fakeMirror) PutPlayerTotals(_ context.Context, _ string, totals []stats.PlayerTotals) (int, error) {
	f.totals = len(totals)
	return len(totals), nil
}

type fakeStream struct {
	args *redis.XAddArgs
	err  error
}

func (f *fakeStream) XAdd(_ context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = a
	return redis.NewStringResult("1-0", f.err)
}

type eventRecorder struct{ events []Event }

func (r *eventRecorder) Notify(_ context.Context, ev Event) error {
	r.events = append(r.events, ev)
	return errors.New("stream unavailable")
}

func snapshot(t *testing.T) materializer.Snapshot {
	t.Helper()
	header := []string{"season", "date", "week", "team", "opponent", "team_score", "opponent_score", "player", "pass_att", "pass_cmp", "pass_yds"}
	rows, w := boxscore.NormalizeTable(header, [][]string{
		{"2024", "2024-09-07", "1", "New York", "Beta", "21", "17", "Ann Lee", "30", "20", "300"},
		{"2024", "2024-09-07", "1", "Beta", "New York", "17", "21", "J_R Smith", "20", "9", "110"},
		{"2023", "2023-09-09", "1", "New York", "Beta", "10", "3", "Ann Lee", "25", "15", "200"},
	})
	require.Zero(t, w)
	return materializer.Build(rows, "2024", time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), materializer.Options{})
}

func TestKeys(t *testing.T) {
	k := Keys{Prefix: "/site/"}
	assert.Equal(t, "site/stats/2024/standings.json", k.Standings("2024"))
	assert.Equal(t, "site/stats/2024/teams/New%20York.json", k.Team("2024", "New York"))
	assert.Equal(t, "site/stats/2024/players/index.json", k.PlayerIndex("2024"))
	assert.Equal(t, "site/stats/2024/leaders.json", k.Leaders("2024"))
	assert.Equal(t, "site/stats/2024/players/logs/a__b.json", k.PlayerLog("2024", "a__b"))
	assert.Equal(t, "site/career/players/a__b.json", k.Career("a__b"))
	assert.Equal(t, "site/analytics/player_totals/", k.AnalyticsRoot())
	assert.Equal(t, "site/analytics/player_totals/season=2024/player_totals.parquet", k.PlayerTotalsParquet("2024"))

	assert.Equal(t, "stats/2024/standings.json", Keys{}.Standings("2024"))
}

func TestSlug_RoundTrip(t *testing.T) {
	cases := []struct{ player, team string }{
		{"Ann Lee", "New York"},
		{"J_R Smith", "A__B"},
		{"D'Andre Swift", "Texas A&M"},
		{"Zoë", "Köln/Süd"},
	}
	for _, c := range cases {
		s := Slug(c.player, c.team)
		assert.Equal(t, 1, strings.Count(s, slugSep), s)
		assert.NotContains(t, s, "/")
		p, tm, ok := ParseSlug(s)
		require.True(t, ok, s)
		assert.Equal(t, c.player, p)
		assert.Equal(t, c.team, tm)
	}
	assert.Equal(t, "Ann%20Lee__New%20York", Slug("Ann Lee", "New York"))

	_, _, ok := ParseSlug("no-separator")
	assert.False(t, ok)
}

func TestCanonicalSlug(t *testing.T) {
	want := Slug("Ann Lee", "New York")

	got, ok := CanonicalSlug(want)
	require.True(t, ok)
	assert.Equal(t, want, got)

	got, ok = CanonicalSlug("Ann Lee__New York")
	require.True(t, ok)
	assert.Equal(t, want, got)

	got, ok = CanonicalSlug("Ja'Marr%20Chase__CIN")
	require.True(t, ok)
	assert.Equal(t, Slug("Ja'Marr Chase", "CIN"), got)
	assert.Equal(t, "Ja%27Marr%20Chase__CIN", got)

	got, ok = CanonicalSlug("C+J Smith__100%")
	require.True(t, ok)
	assert.Equal(t, Slug("C+J Smith", "100%"), got)

	_, ok = CanonicalSlug("__New York")
	assert.False(t, ok)
	_, ok = CanonicalSlug("nothing")
	assert.False(t, ok)
}

func TestPublish_OrderAndContent(t *testing.T) {
	snap := snapshot(t)
	w := newMemWriter()
	p := &Publisher{Objects: w, Keys: Keys{}, Concurrency: 2}

	res, err := p.Publish(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, "2024", res.Season)
	assert.NotEmpty(t, res.RunID)
	// standings + 2 teams + index + leaders + 2 logs + 2 careers
	assert.Equal(t, 9, res.Artifacts)
	assert.Len(t, w.order, 9)
	assert.Empty(t, res.Parquet)

	standings := w.index("stats/2024/standings.json")
	team := w.index("stats/2024/teams/New%20York.json")
	idx := w.index("stats/2024/players/index.json")
	leaders := w.index("stats/2024/leaders.json")
	annLog := w.index("stats/2024/players/logs/Ann%20Lee__New%20York.json")
	jrLog := w.index("stats/2024/players/logs/J%5FR%20Smith__Beta.json")
	career := w.index("career/players/Ann%20Lee__New%20York.json")

	assert.Equal(t, 0, standings)
	assert.Greater(t, team, standings)
	assert.Greater(t, idx, team)
	assert.Equal(t, idx+1, leaders)
	assert.Greater(t, annLog, leaders)
	assert.Greater(t, jrLog, leaders)
	assert.Greater(t, career, annLog)
	assert.Greater(t, career, jrLog)

	var rows []stats.StandingsRow
	require.NoError(t, json.Unmarshal(w.bodies["stats/2024/standings.json"], &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "New York", rows[0].Team)
	assert.Equal(t, contentJSON, w.types["stats/2024/standings.json"])

	var seasons []stats.PlayerTotals
	require.NoError(t, json.Unmarshal(w.bodies["career/players/Ann%20Lee__New%20York.json"], &seasons))
	require.Len(t, seasons, 2)
	assert.Equal(t, "2024", seasons[0].Season)
}

func TestPublish_StopsOnFirstFailure(t *testing.T) {
	w := newMemWriter()
	w.failOn = "index.json"
	p := &Publisher{Objects: w}

	_, err := p.Publish(context.Background(), snapshot(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "put stats/2024/players/index.json")
	assert.Equal(t, -1, w.index("stats/2024/leaders.json"))
	for _, k := range w.order {
		assert.NotContains(t, k, "career/")
	}
}

func TestPublish_FanOutFailure(t *testing.T) {
	w := newMemWriter()
	w.failOn = "teams/Beta"
	p := &Publisher{Objects: w, Concurrency: 1}

	_, err := p.Publish(context.Background(), snapshot(t))
	require.Error(t, err)
	assert.Equal(t, -1, w.index("stats/2024/players/index.json"))
}

func TestPublish_NoSeason(t *testing.T) {
	p := &Publisher{Objects: newMemWriter()}
	_, err := p.Publish(context.Background(), materializer.Snapshot{})
	assert.Error(t, err)
}

func TestPublish_AnalyticsAndMirror(t *testing.T) {
	w := newMemWriter()
	mirror := &fakeMirror{}
	p := &Publisher{Objects: w, Analytics: true, Mirror: mirror}

	res, err := p.Publish(context.Background(), snapshot(t))
	require.NoError(t, err)
	assert.Equal(t, "analytics/player_totals/season=2024/player_totals.parquet", res.Parquet)
	assert.NotEmpty(t, w.bodies[res.Parquet])
	assert.Equal(t, 9, res.Artifacts, "the parquet export is not a JSON artifact")
	assert.Equal(t, 2, mirror.standings)
	assert.Equal(t, 2, mirror.totals)
	assert.Equal(t, 4, res.Mirrored)

	mirror.err = errors.New("throttled")
	_, err = p.Publish(context.Background(), snapshot(t))
	assert.ErrorContains(t, err, "mirror standings")
}

func TestPublish_NotifyFailureIsNotFatal(t *testing.T) {
	rec := &eventRecorder{}
	now := time.Date(2024, 10, 2, 8, 0, 0, 0, time.UTC)
	p := &Publisher{Objects: newMemWriter(), Keys: Keys{Prefix: "site"}, Notifier: rec, Now: func() time.Time { return now }}

	res, err := p.Publish(context.Background(), snapshot(t))
	require.NoError(t, err)
	require.Len(t, rec.events, 1)
	assert.Equal(t, Event{RunID: res.RunID, Season: "2024", Artifacts: 9, Prefix: "site", PublishedAt: now}, rec.events[0])
}

func TestRedisNotifier(t *testing.T) {
	fs := &fakeStream{}
	n := NewRedisNotifier(fs, "")
	ev := Event{RunID: "r1", Season: "2024", Artifacts: 3, PublishedAt: time.Unix(1700000000, 0).UTC()}

	require.NoError(t, n.Notify(context.Background(), ev))
	require.NotNil(t, fs.args)
	assert.Equal(t, DefaultStream, fs.args.Stream)
	assert.True(t, fs.args.Approx)

	values, ok := fs.args.Values.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2024", values["season"])
	assert.Equal(t, int64(1700000000), values["timestamp"])

	var got Event
	require.NoError(t, json.Unmarshal([]byte(values["data"].(string)), &got))
	assert.Equal(t, ev, got)

	fs.err = errors.New("READONLY")
	assert.Error(t, n.Notify(context.Background(), ev))
}
