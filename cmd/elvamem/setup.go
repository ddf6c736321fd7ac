package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/sandevgo/elvamem/internal/cache"
	"github.com/sandevgo/elvamem/internal/config"
	"github.com/sandevgo/elvamem/internal/core"
	"github.com/sandevgo/elvamem/internal/service/memory"
	"github.com/sandevgo/elvamem/internal/storage/mongo"
	"github.com/sandevgo/elvamem/pkg/log"
	"github.com/sandevgo/elvamem/pkg/srv"
)

func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)
	services := make([]srv.Service, 0)

	// init env
	err := initEnv(ctx, config.GetRuntimePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	mongoCfg := config.NewMongoConfig(ctx)
	redisCfg := config.NewRedisConfig(ctx)

	// 2. Connection supervision
	sup := memory.NewSupervisor(appCfg.ProbeStaleness, appCfg.ProbeTimeout)

	// 3. Durable tier
	// The daemon connects at boot so a misconfigured MONGO_URL fails the
	// start command instead of every request. Runtime health is still
	// re-checked by the supervisor before each operation.
	store, err := mongo.NewStore(ctx, mongoCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}
	services = append(services, srv.NewCleanup(store.Close))
	sup.RegisterConnected(core.BackendDurable, store)

	// 4. Cache tier
	cacheTier, err := cache.NewRedisCache(redisCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize cache")
	}
	services = append(services, srv.NewCleanup(cacheTier.Close))
	sup.RegisterConnected(core.BackendCache, cacheTier)

	// 5. Memory service
	messagesRepo := mongo.NewMessagesRepo(store)
	factsRepo := mongo.NewFactsRepo(store)
	sessionsRepo := mongo.NewSessionsRepo(store)

	ledger := memory.NewLedger(appCfg, redisCfg, messagesRepo, sessionsRepo, cacheTier, sup)
	facts := memory.NewFacts(appCfg, redisCfg, factsRepo, cacheTier, sup, memory.NewOverlapMatcher())
	assembler := memory.NewAssembler(appCfg, ledger, facts)
	mem := memory.NewService(ledger, facts, assembler, sup)

	services = append(services, newHealthReporter(mem))

	return services
}

// healthReporter probes both tiers once on startup and logs the verdict, so
// operators see a degraded backend immediately instead of on first request.
type healthReporter struct {
	mem core.Memory
}

func newHealthReporter(mem core.Memory) srv.Service {
	return &healthReporter{mem: mem}
}

func (h *healthReporter) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	for backend, state := range h.mem.Health(ctx) {
		event := logger.Info()
		if state.Status != core.StatusHealthy {
			event = logger.Warn().AnErr("last_error", state.LastErr)
		}
		event.
			Str("backend", string(backend)).
			Str("status", string(state.Status)).
			Msg("backend health")
	}
	return nil
}

func (h *healthReporter) Shutdown(ctx context.Context) error {
	return nil
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
