package core

import (
	"context"
	"time"
)

type Backend string

const (
	BackendDurable Backend = "durable_store"
	BackendCache   Backend = "cache"
)

type Status string

const (
	StatusUninitialized Status = "uninitialized"
	StatusHealthy       Status = "healthy"
	StatusDegraded      Status = "degraded"
)

// ConnectionState is a snapshot of one backend's readiness. Callers branch on
// Status instead of catching errors: a degraded cache means bypass, a
// degraded durable store means the operation fails loudly.
type ConnectionState struct {
	Status    Status
	CheckedAt time.Time
	LastErr   error
}

// Memory is the surface consumed by the chat-handling layer.
type Memory interface {
	// SaveMessage is best-effort: a false return means the turn was dropped
	// and the conversation should continue without it.
	SaveMessage(ctx context.Context, sessionID, role, content string, metadata map[string]string) bool
	History(ctx context.Context, sessionID string, limit int) ([]Message, error)
	Search(ctx context.Context, sessionID, query string, limit int) ([]Message, error)
	Stats(ctx context.Context, sessionID string) (*SessionStats, error)
	Clear(ctx context.Context, sessionID string) (int64, error)

	// Context never fails; worst case is an empty string.
	Context(ctx context.Context, sessionID string, maxChars int) string

	Remember(ctx context.Context, ownerID, text, category string) (string, error)
	Forget(ctx context.Context, ownerID, textOrKey string) (bool, error)
	ListFacts(ctx context.Context, ownerID, category string) ([]Fact, error)

	Health(ctx context.Context) map[Backend]ConnectionState
}
