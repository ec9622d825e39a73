package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"BOX_BUCKET", "BOX_PREFIX", "BOX_SEASON", "BOX_OUT_DIR", "PUBLISH_CONCURRENCY", "API_PORT", "PORT", "CORS_ALLOW_ORIGINS", "ANALYTICS_EXPORT"} {
		t.Setenv(k, "")
	}
	c := Load()
	assert.Equal(t, "uploads/", c.UploadPrefix)
	assert.Equal(t, 8, c.Concurrency)
	assert.Equal(t, 8080, c.APIPort)
	assert.False(t, c.AnalyticsExport)
	assert.Len(t, c.CORSAllowOrigins, 2)
	assert.Equal(t, 5*time.Minute, c.CacheTTL)
	assert.ErrorIs(t, c.Validate(), ErrNoSeason)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("BOX_BUCKET", "stats-site")
	t.Setenv("BOX_PREFIX", "/public/")
	t.Setenv("BOX_SEASON", " 2024 ")
	t.Setenv("PUBLISH_CONCURRENCY", "abc")
	t.Setenv("ANALYTICS_EXPORT", "yes")
	t.Setenv("CORS_ALLOW_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("API_PORT", "")
	t.Setenv("PORT", "9000")

	c := Load()
	assert.Equal(t, "public", c.Prefix)
	assert.Equal(t, "2024", c.Season)
	assert.Equal(t, 8, c.Concurrency, "bad integers fall back to the default")
	assert.True(t, c.AnalyticsExport)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORSAllowOrigins)
	assert.Equal(t, 9000, c.APIPort)
	require.NoError(t, c.Validate())
	assert.True(t, c.UseS3())
}

func TestValidate(t *testing.T) {
	c := &Config{Season: "2024"}
	assert.ErrorIs(t, c.Validate(), ErrNoStore)

	c.OutDir = "out"
	require.NoError(t, c.Validate())
	assert.Equal(t, 1, c.Concurrency)
	assert.False(t, c.UseS3())
}
