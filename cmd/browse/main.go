package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"catalog-api/internal/collection"
	"catalog-api/internal/config"
	"catalog-api/internal/models"
	"catalog-api/internal/services"
	"catalog-api/internal/sources"
	"catalog-api/internal/tui"
	"catalog-api/pkg/cache"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "browse: %v\n", err)
		os.Exit(1)
	}

	articlesURL := flag.String("articles-url", cfg.ArticlesURL, "Article collection endpoint")
	pageSize := flag.Int("size", 0, "Initial page size (defaults to the first of PAGE_SIZES)")
	sortFlag := flag.String("sort", "desc", "Initial sort order: desc or asc")
	useCache := flag.Bool("cache", false, "Read through the Redis cache at REDIS_URL")
	logPath := flag.String("log", "", "Write logs to this file")
	noColor := flag.Bool("no-color", false, "Disable ANSI colors")
	flag.Parse()

	if *noColor {
		lipgloss.SetColorProfile(0)
	}

	sortKey, err := models.ParseSortKey(*sortFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "browse: %v\n", err)
		os.Exit(2)
	}
	size, err := resolvePageSize(*pageSize, cfg.PageSizes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "browse: -size: %v\n", err)
		os.Exit(2)
	}

	// The terminal belongs to the UI; logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "browse: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	logger := cfg.NewLogger(logOut)
	slog.SetDefault(logger)

	source, err := sources.NewArticleSource(*articlesURL, sources.Options{
		Timeout:     cfg.HTTPTimeout,
		Parallelism: cfg.SourceParallelism,
		Debug:       cfg.SourceDebug,
		Logger:      logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "browse: %v\n", err)
		os.Exit(1)
	}

	var fetcher collection.ArticleFetcher = source
	if *useCache {
		redisCache := cache.NewRedisCache(context.Background(), cache.Options{
			URL:    cfg.RedisURL,
			DB:     cfg.RedisDB,
			TTL:    cfg.CacheTTL,
			Logger: logger,
		})
		defer redisCache.Close()
		fetcher = services.NewCatalogService(source, nil, redisCache, logger)
	}

	ctrl := collection.NewPaginated(fetcher, collection.PaginatedOptions{
		PageSizes: cfg.PageSizes,
		PageSize:  size,
		Sort:      sortKey,
		Logger:    logger,
	})
	defer ctrl.Close()

	p := tea.NewProgram(tui.New(ctrl), tea.WithAltScreen(), tea.WithMouseCellMotion())

	unsubscribe := ctrl.Subscribe(func(s collection.State) {
		p.Send(tui.StateMsg(s))
	})
	defer unsubscribe()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "browse: %v\n", err)
		os.Exit(1)
	}
}

// resolvePageSize returns the first allowed size for zero and rejects any
// other value not in sizes.
func resolvePageSize(n int, sizes []int) (int, error) {
	if n == 0 {
		return sizes[0], nil
	}
	if !slices.Contains(sizes, n) {
		return 0, fmt.Errorf("%w: %d (allowed %v)", collection.ErrInvalidPageSize, n, sizes)
	}
	return n, nil
}
