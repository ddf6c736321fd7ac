package memory

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/sandevgo/elvamem/internal/cache"
	"github.com/sandevgo/elvamem/internal/config"
	"github.com/sandevgo/elvamem/internal/core"
	"github.com/sandevgo/elvamem/internal/storage/memstore"
)

// testStack wires the full service over the in-memory store and a miniredis
// instance. Staleness is zero so FailPing takes effect on the next call.
type testStack struct {
	store   *memstore.Store
	mr      *miniredis.Miniredis
	cache   *cache.RedisCache
	sup     *Supervisor
	ledger  *Ledger
	facts   *Facts
	asm     *Assembler
	service *Service
}

func testConfigs() (*config.AppConfig, *config.RedisConfig) {
	appCfg := &config.AppConfig{
		ContextWindowSize: 30,
		MaxContextChars:   12000,
		OpTimeout:         2 * time.Second,
		ReadTimeout:       2 * time.Second,
		ProbeTimeout:      time.Second,
		ProbeStaleness:    0,
	}
	rcfg := &config.RedisConfig{
		CacheTTL:  time.Hour,
		OpTimeout: time.Second,
	}
	return appCfg, rcfg
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()

	store := memstore.NewStore()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cacheTier := cache.NewRedisCacheWithClient(client, time.Second)
	t.Cleanup(func() { _ = cacheTier.Close() })

	appCfg, rcfg := testConfigs()

	sup := NewSupervisor(appCfg.ProbeStaleness, appCfg.ProbeTimeout)
	sup.RegisterConnected(core.BackendDurable, store)
	sup.RegisterConnected(core.BackendCache, cacheTier)

	ledger := NewLedger(appCfg, rcfg, store.Messages(), store.Sessions(), cacheTier, sup)
	facts := NewFacts(appCfg, rcfg, store.Facts(), cacheTier, sup, NewOverlapMatcher())
	asm := NewAssembler(appCfg, ledger, facts)

	return &testStack{
		store:   store,
		mr:      mr,
		cache:   cacheTier,
		sup:     sup,
		ledger:  ledger,
		facts:   facts,
		asm:     asm,
		service: NewService(ledger, facts, asm, sup),
	}
}
