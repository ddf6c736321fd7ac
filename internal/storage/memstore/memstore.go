// Package memstore implements the repository interfaces over plain maps.
// It backs unit tests and local runs without a Mongo instance; semantics
// mirror the mongo package, including dedup-key idempotence and soft deletes.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sandevgo/elvamem/internal/core"
)

// Store holds every collection behind one lock. Repos returned by the
// accessors share the store, like collections sharing a client handle.
type Store struct {
	mu sync.RWMutex

	messages []core.Message
	byDedup  map[string]int
	facts    []core.Fact
	sessions map[string]*core.Session

	pingErr error
	opErr   error
}

func NewStore() *Store {
	return &Store{
		byDedup:  make(map[string]int),
		sessions: make(map[string]*core.Session),
	}
}

// FailPing makes subsequent probes report the given error; nil restores
// health. Test hook.
func (s *Store) FailPing(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingErr = err
}

// FailOps makes every repository operation return the given error; nil
// restores normal behavior. Test hook.
func (s *Store) FailOps(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opErr = err
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pingErr
}

func (s *Store) Close() error {
	return nil
}

func (s *Store) Messages() *MessagesRepo { return &MessagesRepo{s: s} }
func (s *Store) Facts() *FactsRepo       { return &FactsRepo{s: s} }
func (s *Store) Sessions() *SessionsRepo { return &SessionsRepo{s: s} }

type MessagesRepo struct {
	s *Store
}

func (r *MessagesRepo) Insert(_ context.Context, msg *core.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.opErr != nil {
		return r.s.opErr
	}

	// Idempotent insert, same behavior as the unique dedup_key index
	if _, ok := r.s.byDedup[msg.DedupKey]; ok {
		return nil
	}
	r.s.messages = append(r.s.messages, *msg)
	r.s.byDedup[msg.DedupKey] = len(r.s.messages) - 1
	return nil
}

func (r *MessagesRepo) FindByDedupKey(_ context.Context, key string) (*core.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.opErr != nil {
		return nil, r.s.opErr
	}

	idx, ok := r.s.byDedup[key]
	if !ok {
		return nil, core.ErrNotFound
	}
	msg := r.s.messages[idx]
	return &msg, nil
}

func (r *MessagesRepo) Recent(_ context.Context, sessionID string, limit int) ([]core.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.opErr != nil {
		return nil, r.s.opErr
	}

	var out []core.Message
	for _, m := range r.s.messages {
		if m.SessionID == sessionID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *MessagesRepo) Search(_ context.Context, sessionID, query string, limit int) ([]core.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.opErr != nil {
		return nil, r.s.opErr
	}

	needle := strings.ToLower(query)
	var out []core.Message
	for _, m := range r.s.messages {
		if m.SessionID != sessionID {
			continue
		}
		if strings.Contains(strings.ToLower(m.Content), needle) {
			out = append(out, m)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *MessagesRepo) Stats(_ context.Context, sessionID string) (*core.SessionStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.opErr != nil {
		return nil, r.s.opErr
	}

	stats := &core.SessionStats{SessionID: sessionID}
	var first, last time.Time
	for _, m := range r.s.messages {
		if m.SessionID != sessionID {
			continue
		}
		stats.TotalMessages++
		switch m.Role {
		case core.RoleUser:
			stats.UserMessages++
		case core.RoleAssistant:
			stats.AssistantMessages++
		}
		if first.IsZero() || m.Timestamp.Before(first) {
			first = m.Timestamp
		}
		if m.Timestamp.After(last) {
			last = m.Timestamp
		}
	}
	if stats.TotalMessages > 0 {
		stats.FirstMessage = &first
		stats.LastMessage = &last
	}
	return stats, nil
}

func (r *MessagesRepo) DeleteSession(_ context.Context, sessionID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.opErr != nil {
		return 0, r.s.opErr
	}

	var kept []core.Message
	var removed int64
	for _, m := range r.s.messages {
		if m.SessionID == sessionID {
			removed++
			continue
		}
		kept = append(kept, m)
	}
	r.s.messages = kept
	r.s.byDedup = make(map[string]int, len(kept))
	for i, m := range kept {
		r.s.byDedup[m.DedupKey] = i
	}
	return removed, nil
}

type FactsRepo struct {
	s *Store
}

func (r *FactsRepo) Insert(_ context.Context, fact *core.Fact) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.opErr != nil {
		return r.s.opErr
	}

	for _, f := range r.s.facts {
		if f.OwnerID == fact.OwnerID && f.Key == fact.Key && f.Active {
			return nil
		}
	}
	r.s.facts = append(r.s.facts, *fact)
	return nil
}

func (r *FactsRepo) UpdateText(_ context.Context, ownerID, key, text, normalized string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.opErr != nil {
		return r.s.opErr
	}

	for i := range r.s.facts {
		f := &r.s.facts[i]
		if f.OwnerID == ownerID && f.Key == key && f.Active {
			f.Text = text
			f.Normalized = normalized
			f.UpdatedAt = at
			return nil
		}
	}
	return core.ErrNotFound
}

func (r *FactsRepo) Deactivate(_ context.Context, ownerID, key string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.opErr != nil {
		return r.s.opErr
	}

	for i := range r.s.facts {
		f := &r.s.facts[i]
		if f.OwnerID == ownerID && f.Key == key && f.Active {
			f.Active = false
			f.UpdatedAt = at
			return nil
		}
	}
	return core.ErrNotFound
}

func (r *FactsRepo) ListActive(_ context.Context, ownerID, category string) ([]core.Fact, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.opErr != nil {
		return nil, r.s.opErr
	}

	var out []core.Fact
	for _, f := range r.s.facts {
		if f.OwnerID != ownerID || !f.Active {
			continue
		}
		if category != "" && f.Category != category {
			continue
		}
		out = append(out, f)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// AllFacts returns every fact record including inactive ones. Test hook for
// verifying that forgetting soft-deletes instead of removing.
func (r *FactsRepo) AllFacts() []core.Fact {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]core.Fact, len(r.s.facts))
	copy(out, r.s.facts)
	return out
}

type SessionsRepo struct {
	s *Store
}

func (r *SessionsRepo) Touch(_ context.Context, sessionID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.opErr != nil {
		return r.s.opErr
	}

	sess, ok := r.s.sessions[sessionID]
	if !ok {
		r.s.sessions[sessionID] = &core.Session{
			ID:           sessionID,
			CreatedAt:    at,
			LastActivity: at,
			MessageCount: 1,
		}
		return nil
	}
	sess.LastActivity = at
	sess.MessageCount++
	return nil
}

func (r *SessionsRepo) Get(_ context.Context, sessionID string) (*core.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if r.s.opErr != nil {
		return nil, r.s.opErr
	}

	sess, ok := r.s.sessions[sessionID]
	if !ok {
		return nil, core.ErrNotFound
	}
	copied := *sess
	return &copied, nil
}
