package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/elvamem/pkg/log"
)

type RedisConfig struct {
	URL string `env:"REDIS_URL" envDefault:"redis://localhost:6379"`

	// TTL for cached history and facts entries
	CacheTTL time.Duration `env:"REDIS_CACHE_TTL" envDefault:"1h"`

	// Per-call budget for cache round trips; the cache is best-effort, so
	// anything slower than this counts as a miss
	OpTimeout time.Duration `env:"REDIS_OP_TIMEOUT" envDefault:"500ms"`
}

func NewRedisConfig(ctx context.Context) *RedisConfig {
	c := &RedisConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Redis config")
	}
	return c
}
