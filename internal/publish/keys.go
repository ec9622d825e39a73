package publish

import (
	"net/url"
	"path"
	"strings"
)

// Keys lays out artifact keys under an optional prefix.
type Keys struct {
	Prefix string
}

func (k Keys) join(parts ...string) string {
	p := strings.Trim(k.Prefix, "/")
	if p == "" {
		return path.Join(parts...)
	}
	return path.Join(append([]string{p}, parts...)...)
}

func (k Keys) Standings(season string) string {
	return k.join("stats", season, "standings.json")
}

func (k Keys) Team(season, team string) string {
	return k.join("stats", season, "teams", EscapeSegment(team)+".json")
}

func (k Keys) PlayerIndex(season string) string {
	return k.join("stats", season, "players", "index.json")
}

func (k Keys) Leaders(season string) string {
	return k.join("stats", season, "leaders.json")
}

func (k Keys) PlayerLog(season, slug string) string {
	return k.join("stats", season, "players", "logs", slug+".json")
}

func (k Keys) Career(slug string) string {
	return k.join("career", "players", slug+".json")
}

// AnalyticsRoot is the prefix holding the partitioned Parquet export.
func (k Keys) AnalyticsRoot() string {
	return k.join("analytics", "player_totals") + "/"
}

func (k Keys) PlayerTotalsParquet(season string) string {
	return k.join("analytics", "player_totals", "season="+season, "player_totals.parquet")
}

// EscapeSegment URL-encodes s for use as one key segment. Spaces become %20.
func EscapeSegment(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// slugSep separates the player and team halves of a slug. Underscores inside
// either half are escaped so the first separator is always the real one.
const slugSep = "__"

// Slug identifies a (player, team) pair in artifact keys and URLs.
func Slug(player, team string) string {
	esc := func(s string) string { return strings.ReplaceAll(EscapeSegment(s), "_", "%5F") }
	return esc(player) + slugSep + esc(team)
}

// ParseSlug reverses Slug. It also accepts encodeURIComponent output, which
// leaves characters like ' unescaped.
func ParseSlug(slug string) (player, team string, ok bool) {
	p, t, found := strings.Cut(slug, slugSep)
	if !found {
		return "", "", false
	}
	var err error
	if player, err = url.PathUnescape(p); err != nil {
		return "", "", false
	}
	if team, err = url.PathUnescape(t); err != nil {
		return "", "", false
	}
	return player, team, true
}

// CanonicalSlug accepts a slug as it arrives in a request path, either still
// escaped or already decoded by the router, and returns the stored form. A
// decoded name holding a bare % fails to unescape and is escaped as is.
func CanonicalSlug(s string) (string, bool) {
	if player, team, ok := ParseSlug(s); ok {
		if player == "" {
			return "", false
		}
		return Slug(player, team), true
	}
	player, team, found := strings.Cut(s, slugSep)
	if !found || player == "" {
		return "", false
	}
	return Slug(player, team), true
}
