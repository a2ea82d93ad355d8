package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// foodSource looks up one catalog food by id. The store satisfies it, and
// so does foodCache.
type foodSource interface {
	food(ctx context.Context, id int) (foodItem, error)
}

// foodCache is a read-through Redis cache in front of the catalog. The
// catalog is effectively static, so entries only expire by TTL. Redis being
// down degrades to direct store reads, never to request failures.
type foodCache struct {
	rdb  *redis.Client
	ttl  time.Duration
	next foodSource
	log  *zap.SugaredLogger
}

// newRedisClient connects and pings with a short timeout so a bad
// REDIS_ADDR is reported at startup.
func newRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func newFoodCache(rdb *redis.Client, ttl time.Duration, next foodSource, log *zap.SugaredLogger) *foodCache {
	return &foodCache{rdb: rdb, ttl: ttl, next: next, log: log.With("component", "food_cache")}
}

func foodCacheKey(id int) string {
	return fmt.Sprintf("aura:food:%d", id)
}

func (fc *foodCache) food(ctx context.Context, id int) (foodItem, error) {
	key := foodCacheKey(id)

	raw, err := fc.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var f foodItem
		if jsonErr := json.Unmarshal(raw, &f); jsonErr == nil {
			return f, nil
		}
		fc.log.Warnw("discarding unreadable cache entry", "key", key)
	case errors.Is(err, redis.Nil):
	default:
		fc.log.Warnw("cache read failed", "key", key, "error", err)
	}

	f, err := fc.next.food(ctx, id)
	if err != nil {
		return foodItem{}, err
	}

	if raw, err := json.Marshal(f); err == nil {
		if err := fc.rdb.Set(ctx, key, raw, fc.ttl).Err(); err != nil {
			fc.log.Warnw("cache write failed", "key", key, "error", err)
		}
	}
	return f, nil
}
