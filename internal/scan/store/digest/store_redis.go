// Package digest caches the latest whole-registry content digest so a scan
// can skip per-instrument work when nothing changed upstream.
package digest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKey = "lexwatch:registry:latest_digest"
	cacheTTL = 24 * time.Hour
)

// RedisCache stores the latest registry content digest in Redis. The cache is
// an optimization only; a miss or failure must degrade to the full diff path.
type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get returns the cached digest, or "" when none is cached.
func (c *RedisCache) Get(ctx context.Context) (string, error) {
	val, err := c.client.Get(ctx, cacheKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("get cached digest: %w", err)
	}
	return val, nil
}

// Set replaces the cached digest.
func (c *RedisCache) Set(ctx context.Context, digest string) error {
	if err := c.client.Set(ctx, cacheKey, digest, cacheTTL).Err(); err != nil {
		return fmt.Errorf("set cached digest: %w", err)
	}
	return nil
}
