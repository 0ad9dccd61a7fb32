package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"catalog-api/internal/models"
)

const keyPrefix = "catalog:"

var ErrUnavailable = errors.New("redis client not available")

type Options struct {
	URL    string
	DB     int
	TTL    time.Duration
	Logger *slog.Logger
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache connects and pings Redis. It returns nil when Redis cannot be
// reached; every method on a nil *RedisCache reports the cache as unavailable.
func NewRedisCache(ctx context.Context, opts Options) *RedisCache {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	redisURL := opts.URL
	if redisURL == "" {
		redisURL = "redis://localhost:6379"
	}

	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Error("parse redis url", slog.Any("err", err))
		return nil
	}
	opt.DB = opts.DB

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis connection failed, caching disabled", slog.Any("err", err))
		_ = client.Close()
		return nil
	}

	logger.Info("redis connected", slog.Int("db", opts.DB), slog.Duration("ttl", ttl))

	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get decodes the value at key into dst. A miss returns false and no error.
func (r *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	if !r.IsAvailable() {
		return false, ErrUnavailable
	}

	val, err := r.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get error: %w", err)
	}

	if err := json.Unmarshal(val, dst); err != nil {
		return false, fmt.Errorf("json unmarshal error: %w", err)
	}
	return true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, v any) error {
	if !r.IsAvailable() {
		return ErrUnavailable
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal error: %w", err)
	}

	return r.client.Set(ctx, keyPrefix+key, data, r.ttl).Err()
}

func ArticlesKey(q models.ArticleQuery) string {
	return "articles:" + q.String()
}

func ProductsKey() string { return "products:all" }

func CategoriesKey() string { return "products:categories" }

func ProductKey(id int) string { return fmt.Sprintf("products:%d", id) }

func (r *RedisCache) Close() error {
	if r == nil || r.client == nil {
		return nil
	}
	return r.client.Close()
}

func (r *RedisCache) IsAvailable() bool {
	return r != nil && r.client != nil
}

func (r *RedisCache) TTL() time.Duration {
	if r == nil {
		return 0
	}
	return r.ttl
}

func (r *RedisCache) GetStats(ctx context.Context) map[string]any {
	if !r.IsAvailable() {
		return map[string]any{
			"status": "unavailable",
		}
	}

	info := r.client.Info(ctx, "memory").Val()
	return map[string]any{
		"status":      "connected",
		"ttl_seconds": int(r.ttl.Seconds()),
		"memory_info": info,
	}
}

// GetAllKeys lists cached keys without the internal prefix.
func (r *RedisCache) GetAllKeys(ctx context.Context) []string {
	if !r.IsAvailable() {
		return []string{}
	}

	keys := []string{}
	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(keyPrefix):])
	}
	if err := iter.Err(); err != nil {
		r.logger.Warn("scan cache keys", slog.Any("err", err))
	}
	return keys
}

// FlushCache removes every key this service wrote.
func (r *RedisCache) FlushCache(ctx context.Context) error {
	if !r.IsAvailable() {
		return ErrUnavailable
	}

	iter := r.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del error: %w", err)
		}
	}
	return iter.Err()
}

func (r *RedisCache) GetKeyTTL(ctx context.Context, key string) time.Duration {
	if !r.IsAvailable() {
		return 0
	}
	ttl, err := r.client.TTL(ctx, keyPrefix+key).Result()
	if err != nil {
		return 0
	}
	return ttl
}
