// Package cache implements the best-effort tier over Redis. Every transport
// failure surfaces as a miss or no-op; callers only ever see wider latency
// when Redis is down, never an error.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sandevgo/elvamem/internal/config"
	"github.com/sandevgo/elvamem/pkg/log"
)

type RedisCache struct {
	client    *redis.Client
	opTimeout time.Duration
}

func NewRedisCache(cfg *config.RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	return &RedisCache{
		client:    redis.NewClient(opts),
		opTimeout: cfg.OpTimeout,
	}, nil
}

// NewRedisCacheWithClient wires an existing client; tests use it with
// miniredis.
func NewRedisCacheWithClient(client *redis.Client, opTimeout time.Duration) *RedisCache {
	return &RedisCache{client: client, opTimeout: opTimeout}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.FromCtx(ctx).Debug().Err(err).Str("key", key).Msg("cache get failed, treating as miss")
		}
		return nil, false
	}
	return data, true
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.FromCtx(ctx).Debug().Err(err).Str("key", key).Msg("cache set failed, skipping")
	}
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.client.Del(ctx, key).Err(); err != nil {
		log.FromCtx(ctx).Debug().Err(err).Str("key", key).Msg("cache delete failed, skipping")
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
