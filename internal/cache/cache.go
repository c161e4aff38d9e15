// Package cache is a thin façade over Redis. The cache is an
// optimization, never a correctness dependency: every failure degrades to
// "absent" or "not stored" and is logged rather than returned.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gourab8389/e-commerce-order-server/pkg/applog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Cache struct {
	client *redis.Client
	logger *zap.Logger
}

func New(client *redis.Client, logger *zap.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// Get looks up key and decodes the stored JSON into dest. It reports
// false when the key is missing, expired, undecodable, or the store is
// unreachable.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c.client == nil {
		return false
	}

	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			applog.Warn(ctx, c.logger, "cache get failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		applog.Warn(ctx, c.logger, "cache entry is not decodable", zap.String("key", key), zap.Error(err))
		return false
	}

	return true
}

// Set stores value under key with the given expiry. Failures are logged
// and swallowed.
func (c *Cache) Set(ctx context.Context, key string, value any, ttl time.Duration) bool {
	if c.client == nil {
		return false
	}

	data, err := json.Marshal(value)
	if err != nil {
		applog.Warn(ctx, c.logger, "cache value is not encodable", zap.String("key", key), zap.Error(err))
		return false
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		applog.Warn(ctx, c.logger, "cache set failed", zap.String("key", key), zap.Error(err))
		return false
	}

	return true
}

func (c *Cache) Delete(ctx context.Context, key string) bool {
	if c.client == nil {
		return false
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		applog.Warn(ctx, c.logger, "cache delete failed", zap.String("key", key), zap.Error(err))
		return false
	}

	return true
}

// FlushPattern enumerates every key matching the glob pattern and deletes
// them in one batch. Used for coarse invalidation when the exact key set
// affected by a mutation is unknown.
func (c *Cache) FlushPattern(ctx context.Context, pattern string) bool {
	if c.client == nil {
		return false
	}

	var keys []string
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		applog.Warn(ctx, c.logger, "cache pattern scan failed", zap.String("pattern", pattern), zap.Error(err))
		return false
	}

	if len(keys) == 0 {
		return true
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		applog.Warn(ctx, c.logger, "cache pattern flush failed", zap.String("pattern", pattern), zap.Error(err))
		return false
	}

	applog.Debug(ctx, c.logger, "cache pattern flushed",
		zap.String("pattern", pattern),
		zap.Int("keys", len(keys)),
	)
	return true
}
