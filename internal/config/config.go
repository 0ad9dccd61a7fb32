package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	GinMode string

	ArticlesURL       string
	ProductsURL       string
	PageSizes         []int
	HTTPTimeout       time.Duration
	SourceParallelism int
	SourceDebug       bool

	RedisURL string
	RedisDB  int
	CacheTTL time.Duration

	RateLimit float64
	RateBurst int

	SessionIdle       time.Duration
	SessionUnusedIdle time.Duration

	ChromePath string
	// ProbeAllowedHosts lists the hostnames the scroll probe may visit. The
	// probe route is only mounted in debug mode with a non-empty list.
	ProbeAllowedHosts []string

	LogLevel  slog.Level
	LogFormat string
}

// Load reads .env files (missing files are fine) and then the environment.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		slog.Debug("no .env file found")
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, applying defaults for
// unset variables.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:        get("PORT", "8085"),
		GinMode:     get("GIN_MODE", "release"),
		ArticlesURL: get("ARTICLES_URL", "https://suitmedia-backend.suitdev.com/api/ideas"),
		ProductsURL: get("PRODUCTS_URL", "https://fakestoreapi.com"),
		RedisURL:    get("REDIS_URL", "redis://localhost:6379"),
		ChromePath:  get("CHROME_PATH", ""),
		LogFormat:   strings.ToLower(get("LOG_FORMAT", "text")),
	}

	var err error
	if cfg.PageSizes, err = ParsePageSizes(get("PAGE_SIZES", "10,20,50")); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = parseDuration("HTTP_TIMEOUT", get("HTTP_TIMEOUT", "10s")); err != nil {
		return Config{}, err
	}
	if cfg.SessionIdle, err = parseDuration("SESSION_IDLE", get("SESSION_IDLE", "30m")); err != nil {
		return Config{}, err
	}
	if cfg.SessionUnusedIdle, err = parseDuration("SESSION_UNUSED_IDLE", get("SESSION_UNUSED_IDLE", "2m")); err != nil {
		return Config{}, err
	}
	if cfg.SourceParallelism, err = parsePositive("SOURCE_PARALLELISM", get("SOURCE_PARALLELISM", "2")); err != nil {
		return Config{}, err
	}
	if cfg.RateBurst, err = parsePositive("RATE_BURST", get("RATE_BURST", "20")); err != nil {
		return Config{}, err
	}
	if cfg.RedisDB, err = strconv.Atoi(get("REDIS_DB", "0")); err != nil {
		return Config{}, fmt.Errorf("REDIS_DB: %w", err)
	}

	ttl, err := parsePositive("CACHE_TTL", get("CACHE_TTL", "600"))
	if err != nil {
		return Config{}, err
	}
	cfg.CacheTTL = time.Duration(ttl) * time.Second

	if cfg.RateLimit, err = strconv.ParseFloat(get("RATE_LIMIT", "10"), 64); err != nil || cfg.RateLimit <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT: must be a positive number")
	}

	if cfg.SourceDebug, err = strconv.ParseBool(get("SOURCE_DEBUG", "false")); err != nil {
		return Config{}, fmt.Errorf("SOURCE_DEBUG: %w", err)
	}

	for _, host := range strings.Split(get("PROBE_ALLOWED_HOSTS", ""), ",") {
		if host = strings.ToLower(strings.TrimSpace(host)); host != "" {
			cfg.ProbeAllowedHosts = append(cfg.ProbeAllowedHosts, host)
		}
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return Config{}, fmt.Errorf("LOG_FORMAT: unknown format %q", cfg.LogFormat)
	}

	return cfg, nil
}

// ParsePageSizes parses a comma separated list of distinct positive sizes.
// The result is sorted; the first entry is the default page size.
func ParsePageSizes(s string) ([]int, error) {
	var sizes []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("PAGE_SIZES: invalid size %q", part)
		}
		if !slices.Contains(sizes, n) {
			sizes = append(sizes, n)
		}
	}
	if len(sizes) == 0 {
		return nil, fmt.Errorf("PAGE_SIZES: no sizes given")
	}
	slices.Sort(sizes)
	return sizes, nil
}

// NewLogger builds the process logger described by the config.
func (c Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseDuration(key, v string) (time.Duration, error) {
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be positive", key)
	}
	return d, nil
}

func parsePositive(key, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s: must be positive", key)
	}
	return n, nil
}
