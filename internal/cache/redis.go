// Package cache provides an optional Redis-backed read cache for single
// product lookups. When no Redis address is configured the service runs
// without it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"inventario/internal/config"
)

// ProductCache caches serialized products by id. All methods are best-effort:
// a cache failure must never fail the request, so callers treat misses and
// errors the same way.
type ProductCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection. Returns an error when
// the instance is unreachable so startup fails loudly instead of silently
// running without the configured cache.
func New(ctx context.Context, cfg config.RedisConfig) (*ProductCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &ProductCache{client: client, ttl: cfg.TTL}, nil
}

func key(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// Get returns the cached payload for a product id, or ok=false on a miss
// or any cache error.
func (c *ProductCache) Get(ctx context.Context, id int64) ([]byte, bool) {
	data, err := c.client.Get(ctx, key(id)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores the payload for a product id with the configured TTL.
func (c *ProductCache) Set(ctx context.Context, id int64, payload []byte) error {
	if err := c.client.Set(ctx, key(id), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set product %d: %w", id, err)
	}
	return nil
}

// Invalidate drops the cached entry for a product id. Missing keys are not
// an error.
func (c *ProductCache) Invalidate(ctx context.Context, id int64) error {
	if err := c.client.Del(ctx, key(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("cache invalidate product %d: %w", id, err)
	}
	return nil
}

// Close releases the underlying Redis connection.
func (c *ProductCache) Close() error {
	return c.client.Close()
}
