// Package cache holds the Redis-backed helpers.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewClient connects to Redis and checks the connection.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// Deduper remembers request keys for a limited time.
type Deduper struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	logger *zap.Logger
}

// NewDeduper builds a deduper whose keys expire after ttl.
func NewDeduper(rdb redis.Cmdable, ttl time.Duration, logger *zap.Logger) *Deduper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduper{rdb: rdb, ttl: ttl, logger: logger}
}

// AcquireOnce returns true the first time scope+key is seen within the ttl and
// false for repeats. When Redis is unavailable it lets the request through.
func (d *Deduper) AcquireOnce(ctx context.Context, scope, key string) bool {
	k := fmt.Sprintf("dedup:%s:%s", scope, key)
	ok, err := d.rdb.SetNX(ctx, k, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("dedup check failed", zap.String("key", k), zap.Error(err))
		return true
	}
	return ok
}

// Release forgets scope+key so the request may be retried.
func (d *Deduper) Release(ctx context.Context, scope, key string) {
	k := fmt.Sprintf("dedup:%s:%s", scope, key)
	if err := d.rdb.Del(ctx, k).Err(); err != nil {
		d.logger.Warn("dedup release failed", zap.String("key", k), zap.Error(err))
	}
}
