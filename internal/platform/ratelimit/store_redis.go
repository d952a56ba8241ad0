// Copyright (c) 2026 Medora Health. All rights reserved.
// Author: platform@medora.health

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medora-health/medora/internal/platform/constants"
)

// RedisStore is a [Store] sharing one counter per key across all replicas.
//
// # Semantics
//
// The window is anchored by the key's TTL: INCR creates the key on the first
// request, and the expiry set at that moment is the window boundary. That is
// the same reset-on-first-request behavior as [MemoryStore], with Redis
// handling the idle-record purge via expiry instead of a sweep goroutine.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed counter store.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Hit implements [Store] using an atomic INCR.
func (store *RedisStore) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Time, error) {
	redisKey := constants.RedisPrefixRateLimit + key
	now := time.Now()

	count, err := store.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("ratelimit_redis_incr_failed: %w", err)
	}

	if count == 1 {
		// First request of a fresh window: the expiry IS the window boundary.
		if err := store.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("ratelimit_redis_expire_failed: %w", err)
		}
		return count, now, nil
	}

	// Derive windowStart from the remaining TTL.
	ttl, err := store.client.PTTL(ctx, redisKey).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("ratelimit_redis_pttl_failed: %w", err)
	}

	// A key can survive without expiry if the process died between INCR and
	// PEXPIRE. Re-arm the window rather than letting the counter grow forever.
	if ttl < 0 {
		if err := store.client.PExpire(ctx, redisKey, window).Err(); err != nil {
			return 0, time.Time{}, fmt.Errorf("ratelimit_redis_expire_failed: %w", err)
		}
		ttl = window
	}

	windowStart := now.Add(ttl).Add(-window)
	return count, windowStart, nil
}
