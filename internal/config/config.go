// Package config loads runtime settings for the CLI, API server and Lambda
// from environment variables.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoSeason = errors.New("season is required (BOX_SEASON or --season)")
	ErrNoStore  = errors.New("BOX_BUCKET or BOX_OUT_DIR must be set")
)

type Config struct {
	// Storage
	Bucket       string
	Prefix       string
	UploadPrefix string
	OutDir       string

	// Publishing
	Season      string
	FillSeason  bool
	Concurrency int

	// Optional sinks
	StatsTable      string
	AnalyticsExport bool
	AthenaDB        string
	AthenaWorkgroup string
	AthenaOutput    string
	AthenaTable     string
	RedisURL        string
	RedisStream     string

	// API server
	APIHost          string
	APIPort          int
	CORSAllowOrigins []string
	RateLimitEnabled bool
	RateLimitReqs    int
	RateLimitWindow  time.Duration
	CacheTTL         time.Duration

	LogLevel string
	Debug    bool
}

// Load reads the environment. It never fails; use Validate before work that
// needs a store or a season.
func Load() *Config {
	return &Config{
		Bucket:       envStr("BOX_BUCKET", ""),
		Prefix:       strings.Trim(envStr("BOX_PREFIX", ""), "/"),
		UploadPrefix: envStr("BOX_UPLOAD_PREFIX", "uploads/"),
		OutDir:       envStr("BOX_OUT_DIR", ""),

		Season:      envStr("BOX_SEASON", ""),
		FillSeason:  envBool("BOX_FILL_SEASON", false),
		Concurrency: envInt("PUBLISH_CONCURRENCY", 8),

		StatsTable:      envStr("STATS_TABLE_NAME", ""),
		AnalyticsExport: envBool("ANALYTICS_EXPORT", false),
		AthenaDB:        envStr("ATHENA_DB", "boxscore"),
		AthenaWorkgroup: envStr("ATHENA_WORKGROUP", "primary"),
		AthenaOutput:    envStr("ATHENA_OUTPUT", ""),
		AthenaTable:     envStr("ATHENA_TABLE", "player_totals"),
		RedisURL:        envStr("REDIS_URL", ""),
		RedisStream:     envStr("REDIS_STREAM", ""),

		APIHost: envStr("API_HOST", "0.0.0.0"),
		APIPort: envInt("API_PORT", envInt("PORT", 8080)),
		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),
		RateLimitEnabled: envBool("RATE_LIMIT_ENABLED", true),
		RateLimitReqs:    envInt("RATE_LIMIT_REQUESTS", 120),
		RateLimitWindow:  time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,
		CacheTTL:         time.Duration(envInt("CACHE_TTL_SECONDS", 300)) * time.Second,

		LogLevel: envStr("LOG_LEVEL", "info"),
		Debug:    envBool("DEBUG", false),
	}
}

// Validate checks what a publish run needs before any work starts.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Season) == "" {
		return ErrNoSeason
	}
	if c.Bucket == "" && c.OutDir == "" {
		return ErrNoStore
	}
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	return nil
}

// UseS3 reports whether artifacts go to S3 rather than a local directory.
func (c *Config) UseS3() bool { return c.Bucket != "" }

// ------------------ env helpers ------------------

func envStr(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(k))) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envList(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	out := make([]string, 0, 4)
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
