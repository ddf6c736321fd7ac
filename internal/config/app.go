package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/elvamem/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"ELVA_RUNTIME_PATH" envDefault:".elvamem"`

	// Context Management
	ContextWindowSize int `env:"CONTEXT_WINDOW_SIZE" envDefault:"30"`
	MaxContextChars   int `env:"MAX_CONTEXT_CHARS" envDefault:"12000"`

	// Operation deadlines for the durable store
	OpTimeout    time.Duration `env:"OP_TIMEOUT" envDefault:"8s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"12s"`
	ProbeTimeout time.Duration `env:"PROBE_TIMEOUT" envDefault:"5s"`

	// How long a health probe result is trusted before re-probing
	ProbeStaleness time.Duration `env:"PROBE_STALENESS" envDefault:"30s"`

	// Approximate token count logging for assembled context
	TokenStats bool `env:"TOKEN_STATS" envDefault:"false"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetEnvPath() string {
	return filepath.Join(c.RuntimePath, ".env")
}

func (c AppConfig) GetContextWindowSize() int {
	return c.ContextWindowSize
}
