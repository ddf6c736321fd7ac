package core

import "time"

const (
	ElvaName    = "ElvaMem"
	ElvaVersion = "0.1.0"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Fact categories form a closed set. CategoryGeneral is the fallback when
// keyword bucketing finds nothing better.
const (
	CategoryIdentity     = "identity"
	CategoryPreference   = "preference"
	CategoryRelationship = "relationship"
	CategoryContact      = "contact"
	CategoryTask         = "task"
	CategoryWork         = "work"
	CategoryGeneral      = "general"
)

var Categories = []string{
	CategoryIdentity,
	CategoryPreference,
	CategoryRelationship,
	CategoryContact,
	CategoryTask,
	CategoryWork,
	CategoryGeneral,
}

func IsValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// Message is one chat turn. Immutable once written; duplicates are collapsed
// by DedupKey, so a retried save lands on the existing document.
// Metadata values are plain strings only; anything structured must be
// serialized by the caller.
type Message struct {
	ID        string            `bson:"message_id" json:"message_id"`
	SessionID string            `bson:"session_id" json:"session_id"`
	Role      string            `bson:"role" json:"role"`
	Content   string            `bson:"content" json:"content"`
	Metadata  map[string]string `bson:"metadata,omitempty" json:"metadata,omitempty"`
	DedupKey  string            `bson:"dedup_key" json:"-"`
	Timestamp time.Time         `bson:"timestamp" json:"timestamp"`
}

// Fact is a long-lived statement about an owner. Forgetting flips Active to
// false; documents are never removed, so the record stays auditable.
type Fact struct {
	OwnerID    string    `bson:"owner_id" json:"owner_id"`
	Key        string    `bson:"fact_key" json:"fact_key"`
	Text       string    `bson:"text" json:"text"`
	Normalized string    `bson:"normalized" json:"-"`
	Category   string    `bson:"category" json:"category"`
	Active     bool      `bson:"active" json:"active"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}

type Session struct {
	ID           string    `bson:"session_id" json:"session_id"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	LastActivity time.Time `bson:"last_activity" json:"last_activity"`
	MessageCount int64     `bson:"message_count" json:"message_count"`
}

type SessionStats struct {
	SessionID         string     `json:"session_id"`
	TotalMessages     int64      `json:"total_messages"`
	UserMessages      int64      `json:"user_messages"`
	AssistantMessages int64      `json:"assistant_messages"`
	FirstMessage      *time.Time `json:"first_message,omitempty"`
	LastMessage       *time.Time `json:"last_message,omitempty"`
}
