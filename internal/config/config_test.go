package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := FromEnv(env(nil))
	require.NoError(t, err)

	assert.Equal(t, "8085", cfg.Port)
	assert.Equal(t, []int{10, 20, 50}, cfg.PageSizes)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2, cfg.SourceParallelism)
	assert.Equal(t, 10*time.Minute, cfg.CacheTTL)
	assert.InDelta(t, 10.0, cfg.RateLimit, 0)
	assert.Equal(t, 20, cfg.RateBurst)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdle)
	assert.Equal(t, 2*time.Minute, cfg.SessionUnusedIdle)
	assert.Empty(t, cfg.ProbeAllowedHosts)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.SourceDebug)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Parallel()

	cfg, err := FromEnv(env(map[string]string{
		"PORT":         "9000",
		"ARTICLES_URL": "http://localhost:1/ideas",
		"PAGE_SIZES":   "25, 5,25",
		"HTTP_TIMEOUT": "3s",
		"REDIS_DB":     "2",
		"CACHE_TTL":    "60",
		"SOURCE_DEBUG": "true",
		"LOG_LEVEL":    "debug",
		"LOG_FORMAT":   "JSON",

		"SESSION_UNUSED_IDLE": "30s",
		"PROBE_ALLOWED_HOSTS": " Localhost, ,shop.example.com",
	}))
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "http://localhost:1/ideas", cfg.ArticlesURL)
	assert.Equal(t, []int{5, 25}, cfg.PageSizes)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.True(t, cfg.SourceDebug)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.SessionUnusedIdle)
	assert.Equal(t, []string{"localhost", "shop.example.com"}, cfg.ProbeAllowedHosts)
}

func TestFromEnv_Invalid(t *testing.T) {
	t.Parallel()

	tcs := map[string]map[string]string{
		"page sizes":  {"PAGE_SIZES": "10,ten"},
		"zero size":   {"PAGE_SIZES": "0"},
		"no sizes":    {"PAGE_SIZES": " , "},
		"timeout":     {"HTTP_TIMEOUT": "soon"},
		"neg timeout": {"HTTP_TIMEOUT": "-1s"},
		"unused idle": {"SESSION_UNUSED_IDLE": "0s"},
		"parallelism": {"SOURCE_PARALLELISM": "0"},
		"cache ttl":   {"CACHE_TTL": "-5"},
		"rate limit":  {"RATE_LIMIT": "fast"},
		"log level":   {"LOG_LEVEL": "loud"},
		"log format":  {"LOG_FORMAT": "xml"},
		"debug":       {"SOURCE_DEBUG": "maybe"},
	}

	for name, vars := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := FromEnv(env(vars))
			assert.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cfg := Config{LogFormat: "json", LogLevel: slog.LevelWarn}
	logger := cfg.NewLogger(&buf)

	logger.Info("dropped")
	logger.Warn("kept", slog.Int("n", 1))

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.Contains(t, buf.String(), `"n":1`)
}
