package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-api/internal/models"
)

func TestNilCacheIsUnavailable(t *testing.T) {
	t.Parallel()

	var c *RedisCache
	ctx := context.Background()

	assert.False(t, c.IsAvailable())
	assert.Zero(t, c.TTL())
	assert.NoError(t, c.Close())
	assert.Equal(t, map[string]any{"status": "unavailable"}, c.GetStats(ctx))
	assert.Empty(t, c.GetAllKeys(ctx))
	assert.Zero(t, c.GetKeyTTL(ctx, "k"))

	var dst []string
	hit, err := c.Get(ctx, "k", &dst)
	require.ErrorIs(t, err, ErrUnavailable)
	assert.False(t, hit)

	require.ErrorIs(t, c.Set(ctx, "k", dst), ErrUnavailable)
	require.ErrorIs(t, c.FlushCache(ctx), ErrUnavailable)
}

func TestNewRedisCache_UnreachableReturnsNil(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	c := NewRedisCache(ctx, Options{URL: "redis://127.0.0.1:1/0"})
	assert.Nil(t, c)

	c = NewRedisCache(ctx, Options{URL: "::not a url::"})
	assert.Nil(t, c)
}

func TestKeys(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "articles:p2:s20:sortasc",
		ArticlesKey(models.ArticleQuery{Page: 2, PageSize: 20, Sort: models.SortAscending}))
	assert.Equal(t, "products:all", ProductsKey())
	assert.Equal(t, "products:categories", CategoriesKey())
	assert.Equal(t, "products:7", ProductKey(7))
}
