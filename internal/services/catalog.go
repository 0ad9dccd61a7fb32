package services

import (
	"context"
	"log/slog"
	"time"

	"catalog-api/internal/models"
	"catalog-api/pkg/cache"
)

type ArticleSource interface {
	FetchArticles(ctx context.Context, q models.ArticleQuery) (*models.ArticlePage, error)
}

type ProductSource interface {
	FetchProducts(ctx context.Context) ([]models.Product, error)
	FetchCategories(ctx context.Context) ([]string, error)
	FetchProduct(ctx context.Context, id int) (*models.Product, error)
}

// Cache is the subset of *cache.RedisCache the service needs.
type Cache interface {
	IsAvailable() bool
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any) error
}

// CatalogService puts a response cache in front of both remote sources.
// It satisfies collection.ArticleFetcher and collection.ProductLoader, so
// every controller shares cached pages and product lists.
type CatalogService struct {
	articles ArticleSource
	products ProductSource
	cache    Cache
	logger   *slog.Logger
}

func NewCatalogService(articles ArticleSource, products ProductSource, c Cache, logger *slog.Logger) *CatalogService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CatalogService{
		articles: articles,
		products: products,
		cache:    c,
		logger:   logger,
	}
}

func (s *CatalogService) FetchArticles(ctx context.Context, q models.ArticleQuery) (*models.ArticlePage, error) {
	return cached(ctx, s, cache.ArticlesKey(q), func() (*models.ArticlePage, error) {
		return s.articles.FetchArticles(ctx, q)
	})
}

func (s *CatalogService) FetchProducts(ctx context.Context) ([]models.Product, error) {
	return cached(ctx, s, cache.ProductsKey(), func() ([]models.Product, error) {
		return s.products.FetchProducts(ctx)
	})
}

func (s *CatalogService) FetchCategories(ctx context.Context) ([]string, error) {
	return cached(ctx, s, cache.CategoriesKey(), func() ([]string, error) {
		return s.products.FetchCategories(ctx)
	})
}

func (s *CatalogService) FetchProduct(ctx context.Context, id int) (*models.Product, error) {
	return cached(ctx, s, cache.ProductKey(id), func() (*models.Product, error) {
		return s.products.FetchProduct(ctx, id)
	})
}

func (s *CatalogService) cacheAvailable() bool {
	return s.cache != nil && s.cache.IsAvailable()
}

// cached serves key from the cache when possible, otherwise calls fetch and
// stores a successful result. Failures are never cached.
func cached[T any](ctx context.Context, s *CatalogService, key string, fetch func() (T, error)) (T, error) {
	start := time.Now()

	if s.cacheAvailable() {
		var hit T
		ok, err := s.cache.Get(ctx, key, &hit)
		switch {
		case err != nil:
			s.logger.Warn("cache read failed", slog.String("key", key), slog.Any("err", err))
		case ok:
			s.logger.Debug("cache hit", slog.String("key", key), slog.Duration("took", time.Since(start)))
			return hit, nil
		default:
			s.logger.Debug("cache miss", slog.String("key", key))
		}
	}

	v, err := fetch()
	if err != nil {
		return v, err
	}

	if s.cacheAvailable() {
		if err := s.cache.Set(ctx, key, v); err != nil {
			s.logger.Warn("failed to cache response", slog.String("key", key), slog.Any("err", err))
		}
	}
	return v, nil
}
