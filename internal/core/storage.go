package core

import (
	"context"
	"time"
)

type MessagesRepository interface {
	Insert(ctx context.Context, msg *Message) error
	// FindByDedupKey returns ErrNotFound when no message carries the key.
	FindByDedupKey(ctx context.Context, key string) (*Message, error)
	// Recent returns up to limit newest messages in chronological order.
	Recent(ctx context.Context, sessionID string, limit int) ([]Message, error)
	Search(ctx context.Context, sessionID, query string, limit int) ([]Message, error)
	Stats(ctx context.Context, sessionID string) (*SessionStats, error)
	DeleteSession(ctx context.Context, sessionID string) (int64, error)
}

type FactsRepository interface {
	Insert(ctx context.Context, fact *Fact) error
	// UpdateText rewrites an active fact in place (the self-editing path).
	UpdateText(ctx context.Context, ownerID, key, text, normalized string, at time.Time) error
	// Deactivate soft-deletes; the document remains with active=false.
	Deactivate(ctx context.Context, ownerID, key string, at time.Time) error
	// ListActive with empty category returns all active facts for the owner.
	ListActive(ctx context.Context, ownerID, category string) ([]Fact, error)
}

type SessionsRepository interface {
	// Touch upserts the session record: bumps last_activity and the message
	// counter, setting created_at on first write.
	Touch(ctx context.Context, sessionID string, at time.Time) error
	Get(ctx context.Context, sessionID string) (*Session, error)
}

// Pinger is a round trip to a backend, used by health probes.
type Pinger interface {
	Ping(ctx context.Context) error
}
