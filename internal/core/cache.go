package core

import (
	"context"
	"time"
)

// Cache is the best-effort tier. Implementations must convert every transport
// failure into a miss or no-op: callers never see a cache error, only wider
// latency when it is down.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	Ping(ctx context.Context) error
	Close() error
}
