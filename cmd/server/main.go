package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"catalog-api/internal/config"
	"catalog-api/internal/server"
	"catalog-api/internal/services"
	"catalog-api/internal/session"
	"catalog-api/internal/sources"
	"catalog-api/pkg/browser"
	"catalog-api/pkg/cache"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.Any("err", err))
		os.Exit(1)
	}

	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srcOpts := sources.Options{
		Timeout:     cfg.HTTPTimeout,
		Parallelism: cfg.SourceParallelism,
		Debug:       cfg.SourceDebug,
		Logger:      logger,
	}
	articleSource, err := sources.NewArticleSource(cfg.ArticlesURL, srcOpts)
	if err != nil {
		logger.Error("articles source", slog.Any("err", err))
		os.Exit(1)
	}
	productSource, err := sources.NewProductSource(cfg.ProductsURL, srcOpts)
	if err != nil {
		logger.Error("products source", slog.Any("err", err))
		os.Exit(1)
	}

	redisCache := cache.NewRedisCache(ctx, cache.Options{
		URL:    cfg.RedisURL,
		DB:     cfg.RedisDB,
		TTL:    cfg.CacheTTL,
		Logger: logger,
	})
	defer redisCache.Close()

	catalog := services.NewCatalogService(articleSource, productSource, redisCache, logger)

	store := session.NewStore(session.Options{
		Articles:  catalog,
		Products:  catalog,
		PageSizes:  cfg.PageSizes,
		Logger:     logger,
		UnusedIdle: cfg.SessionUnusedIdle,
	})
	defer store.CloseAll()
	go store.Run(ctx, min(time.Minute, cfg.SessionUnusedIdle), cfg.SessionIdle)

	deps := server.Deps{
		Store:     store,
		Cache:     redisCache,
		Logger:    logger,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	}
	if cfg.GinMode == gin.DebugMode && len(cfg.ProbeAllowedHosts) > 0 {
		probe := browser.NewScrollProbe(browser.ProbeOptions{
			ExecPath:     cfg.ChromePath,
			AllowedHosts: cfg.ProbeAllowedHosts,
			Logger:       logger,
		})
		defer probe.Close()
		deps.Probe = probe
		deps.ProbeHosts = cfg.ProbeAllowedHosts
		logger.Info("scroll probe enabled", slog.Any("hosts", cfg.ProbeAllowedHosts))
	}

	router := server.NewRouter(deps)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("err", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", slog.Any("err", err))
	}
}
