package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sandevgo/elvamem/internal/config"
	"github.com/sandevgo/elvamem/internal/core"
	"github.com/sandevgo/elvamem/pkg/log"
)

func historyCacheKey(sessionID string) string {
	return "session_messages:" + sessionID
}

// Ledger appends chat turns to the durable store and serves history reads
// cache-first. Writes are best-effort: the chat flow continues when a turn
// cannot be recorded, it just loses that memory.
type Ledger struct {
	messages core.MessagesRepository
	sessions core.SessionsRepository
	cache    core.Cache
	sup      *Supervisor

	opTimeout   time.Duration
	readTimeout time.Duration
	cacheTTL    time.Duration
	windowSize  int
	now         func() time.Time
}

func NewLedger(
	cfg *config.AppConfig,
	rcfg *config.RedisConfig,
	messages core.MessagesRepository,
	sessions core.SessionsRepository,
	cache core.Cache,
	sup *Supervisor,
) *Ledger {
	return &Ledger{
		messages:    messages,
		sessions:    sessions,
		cache:       cache,
		sup:         sup,
		opTimeout:   cfg.OpTimeout,
		readTimeout: cfg.ReadTimeout,
		cacheTTL:    rcfg.CacheTTL,
		windowSize:  cfg.ContextWindowSize,
		now:         time.Now,
	}
}

// Save records one turn. Returns true when the message is durably stored or
// already was (retried request); false means the turn was dropped and the
// caller should proceed without it.
func (l *Ledger) Save(ctx context.Context, sessionID, role, content string, metadata map[string]string) bool {
	logger := log.FromCtx(ctx)

	if role != core.RoleUser && role != core.RoleAssistant {
		logger.Warn().Str("role", role).Msg("rejecting message with unknown role")
		return false
	}

	if state := l.sup.EnsureReady(ctx, core.BackendDurable); state.Status != core.StatusHealthy {
		logger.Warn().Str("session", sessionID).Msg("durable store not ready, dropping message")
		return false
	}

	dedupKey := DedupKey(sessionID, role, content)

	_, err := Execute(ctx, l.opTimeout, "messages.find_dedup", func(c context.Context) (*core.Message, error) {
		return l.messages.FindByDedupKey(c, dedupKey)
	})
	if err == nil {
		// Retried request, the turn is already stored
		logger.Debug().Str("session", sessionID).Msg("duplicate message ignored")
		return true
	}
	if !errors.Is(err, core.ErrNotFound) {
		logger.Warn().Err(err).Str("session", sessionID).Msg("dedup lookup failed, dropping message")
		return false
	}

	msg := &core.Message{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Metadata:  metadata,
		DedupKey:  dedupKey,
		Timestamp: l.now().UTC(),
	}

	err = ExecuteVoid(ctx, l.opTimeout, "messages.insert", func(c context.Context) error {
		return l.messages.Insert(c, msg)
	})
	if err != nil {
		logger.Warn().Err(err).Str("session", sessionID).Msg("failed to save message")
		return false
	}

	// Session bookkeeping is secondary; a failed touch does not un-save the turn
	err = ExecuteVoid(ctx, l.opTimeout, "sessions.touch", func(c context.Context) error {
		return l.sessions.Touch(c, sessionID, msg.Timestamp)
	})
	if err != nil {
		logger.Warn().Err(err).Str("session", sessionID).Msg("failed to touch session")
	}

	// Drop the cached window so the next read repopulates it
	l.cache.Delete(ctx, historyCacheKey(sessionID))

	logger.Debug().Str("session", sessionID).Str("role", role).Msg("saved message")
	return true
}

// History returns up to limit messages, newest-last. Reads through the cache
// when it is healthy, falling back to the durable store and repopulating the
// cached window on a miss.
func (l *Ledger) History(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	if limit <= 0 || limit > l.windowSize {
		limit = l.windowSize
	}

	cacheHealthy := l.sup.EnsureReady(ctx, core.BackendCache).Status == core.StatusHealthy

	if cacheHealthy {
		if data, ok := l.cache.Get(ctx, historyCacheKey(sessionID)); ok {
			var cached []core.Message
			if err := json.Unmarshal(data, &cached); err == nil {
				if len(cached) > limit {
					cached = cached[len(cached)-limit:]
				}
				log.FromCtx(ctx).Debug().Int("count", len(cached)).Msg("history served from cache")
				return cached, nil
			}
			l.cache.Delete(ctx, historyCacheKey(sessionID))
		}
	}

	if state := l.sup.EnsureReady(ctx, core.BackendDurable); state.Status != core.StatusHealthy {
		return nil, fmt.Errorf("history for %s: %w", sessionID, core.ErrUnavailable)
	}

	messages, err := Execute(ctx, l.readTimeout, "messages.recent", func(c context.Context) ([]core.Message, error) {
		return l.messages.Recent(c, sessionID, l.windowSize)
	})
	if err != nil {
		return nil, err
	}

	if cacheHealthy && len(messages) > 0 {
		if data, err := json.Marshal(messages); err == nil {
			l.cache.Set(ctx, historyCacheKey(sessionID), data, l.cacheTTL)
		}
	}

	if len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}
	return messages, nil
}

// Search scans a session's history for content containing query.
func (l *Ledger) Search(ctx context.Context, sessionID, query string, limit int) ([]core.Message, error) {
	if state := l.sup.EnsureReady(ctx, core.BackendDurable); state.Status != core.StatusHealthy {
		return nil, fmt.Errorf("search in %s: %w", sessionID, core.ErrUnavailable)
	}
	if limit <= 0 {
		limit = l.windowSize
	}

	return Execute(ctx, l.readTimeout, "messages.search", func(c context.Context) ([]core.Message, error) {
		return l.messages.Search(c, sessionID, query, limit)
	})
}

func (l *Ledger) Stats(ctx context.Context, sessionID string) (*core.SessionStats, error) {
	if state := l.sup.EnsureReady(ctx, core.BackendDurable); state.Status != core.StatusHealthy {
		return nil, fmt.Errorf("stats for %s: %w", sessionID, core.ErrUnavailable)
	}

	return Execute(ctx, l.readTimeout, "messages.stats", func(c context.Context) (*core.SessionStats, error) {
		return l.messages.Stats(c, sessionID)
	})
}

// Clear purges a session's messages and its cached window. The session
// record itself stays; retention of those is an external concern.
func (l *Ledger) Clear(ctx context.Context, sessionID string) (int64, error) {
	if state := l.sup.EnsureReady(ctx, core.BackendDurable); state.Status != core.StatusHealthy {
		return 0, fmt.Errorf("clear of %s: %w", sessionID, core.ErrUnavailable)
	}

	removed, err := Execute(ctx, l.opTimeout, "messages.delete_session", func(c context.Context) (int64, error) {
		return l.messages.DeleteSession(c, sessionID)
	})
	if err != nil {
		return 0, err
	}

	l.cache.Delete(ctx, historyCacheKey(sessionID))
	log.FromCtx(ctx).Info().Int64("removed", removed).Str("session", sessionID).Msg("cleared session messages")
	return removed, nil
}
