package config

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/elvamem/pkg/log"
)

type MongoConfig struct {
	URL    string `env:"MONGO_URL" envDefault:"mongodb://localhost:27017"`
	DBName string `env:"DB_NAME" envDefault:"elva"`

	ConnectTimeout time.Duration `env:"MONGO_CONNECT_TIMEOUT" envDefault:"5s"`

	// Retention for message documents, enforced by a TTL index
	MessageTTLDays int `env:"MONGO_MESSAGE_TTL_DAYS" envDefault:"30"`
}

func NewMongoConfig(ctx context.Context) *MongoConfig {
	c := &MongoConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Mongo config")
	}
	return c
}
