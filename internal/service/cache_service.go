package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"scuderia-bot/pkg/redis"
)

const cacheWriteTimeout = 3 * time.Second

// CacheService caches the read-heavy query surface (leaderboard,
// availability report) with a cache-aside pattern. Redis is optional:
// a nil client turns every call into a pass-through, and cache errors
// never fail the request.
type CacheService struct {
	redis  *redis.Client
	logger *zap.Logger
}

// NewCacheService creates a new cache service
func NewCacheService(redisClient *redis.Client, logger *zap.Logger) *CacheService {
	return &CacheService{redis: redisClient, logger: logger}
}

// GetJSON retrieves and unmarshals a cached value into out. Returns
// false on miss, corruption, or cache error.
func (c *CacheService) GetJSON(ctx context.Context, key string, out interface{}) bool {
	if c == nil || c.redis == nil {
		return false
	}

	cached, err := c.redis.Get(ctx, key)
	if err != nil {
		c.logger.Warn("Cache read failed, falling back to database",
			zap.String("key", key), zap.Error(err))
		return false
	}
	if cached == "" {
		return false
	}

	if err := json.Unmarshal([]byte(cached), out); err != nil {
		c.logger.Warn("Cache entry corrupted, falling back to database",
			zap.String("key", key), zap.Error(err))
		return false
	}

	return true
}

// SetJSON marshals and stores a value asynchronously (fire and forget).
func (c *CacheService) SetJSON(key string, value interface{}, ttl time.Duration) {
	if c == nil || c.redis == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Failed to marshal cache entry", zap.String("key", key), zap.Error(err))
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()
		if err := c.redis.Set(ctx, key, data, ttl); err != nil {
			c.logger.Warn("Failed to write cache entry", zap.String("key", key), zap.Error(err))
		}
	}()
}

// InvalidatePickCaches drops every cache entry a successful commit
// makes stale: the leaderboard, the availability report, and the
// committing user's own pick.
func (c *CacheService) InvalidatePickCaches(ctx context.Context, userID int64) {
	if c == nil || c.redis == nil {
		return
	}

	keys := []string{
		c.redis.KeyBuilder.KeyLeaderboard(),
		c.redis.KeyBuilder.KeyAvailability(),
		c.redis.KeyBuilder.KeyUserPick(userID),
	}
	if err := c.redis.Delete(ctx, keys...); err != nil {
		c.logger.Warn("Failed to invalidate pick caches",
			zap.Int64("user_id", userID), zap.Error(err))
	}
}

// InvalidateReportCaches drops the shared leaderboard and availability
// entries. Used after a roster reload, which changes availability
// without touching any user's pick.
func (c *CacheService) InvalidateReportCaches(ctx context.Context) {
	if c == nil || c.redis == nil {
		return
	}

	keys := []string{
		c.redis.KeyBuilder.KeyLeaderboard(),
		c.redis.KeyBuilder.KeyAvailability(),
	}
	if err := c.redis.Delete(ctx, keys...); err != nil {
		c.logger.Warn("Failed to invalidate report caches", zap.Error(err))
	}
}

// Keys exposes the key builder for callers composing cache keys, or
// nil when caching is disabled.
func (c *CacheService) Keys() *redis.KeyBuilder {
	if c == nil || c.redis == nil {
		return nil
	}
	return c.redis.KeyBuilder
}
