package arbitrage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

type Deduplicator interface {
	// Allow reports whether key was not seen inside the window and marks it.
	Allow(ctx context.Context, key string) (bool, error)
	// Forget releases keys claimed by Allow whose opportunities were not stored.
	Forget(ctx context.Context, keys ...string) error
}

type RedisDeduplicator struct {
	client *redis.Client
	window time.Duration
}

func NewRedisDeduplicator(client *redis.Client, window time.Duration) *RedisDeduplicator {
	return &RedisDeduplicator{client: client, window: window}
}

func (d *RedisDeduplicator) Allow(ctx context.Context, key string) (bool, error) {
	if d == nil || d.client == nil || d.window <= 0 {
		return true, nil
	}

	return d.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339Nano), d.window).Result()
}

func (d *RedisDeduplicator) Forget(ctx context.Context, keys ...string) error {
	if d == nil || d.client == nil || len(keys) == 0 {
		return nil
	}

	return d.client.Del(ctx, keys...).Err()
}
