package memory

import (
	"context"

	"github.com/sandevgo/elvamem/internal/core"
)

// Service is the facade handed to the chat-handling layer. It is an
// explicitly constructed object: build one per process, pass it by
// reference, close the backends via the lifecycle hooks in cmd.
type Service struct {
	ledger    *Ledger
	facts     *Facts
	assembler *Assembler
	sup       *Supervisor
}

var _ core.Memory = (*Service)(nil)

func NewService(ledger *Ledger, facts *Facts, assembler *Assembler, sup *Supervisor) *Service {
	return &Service{
		ledger:    ledger,
		facts:     facts,
		assembler: assembler,
		sup:       sup,
	}
}

func (s *Service) SaveMessage(ctx context.Context, sessionID, role, content string, metadata map[string]string) bool {
	return s.ledger.Save(ctx, sessionID, role, content, metadata)
}

func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]core.Message, error) {
	return s.ledger.History(ctx, sessionID, limit)
}

func (s *Service) Search(ctx context.Context, sessionID, query string, limit int) ([]core.Message, error) {
	return s.ledger.Search(ctx, sessionID, query, limit)
}

func (s *Service) Stats(ctx context.Context, sessionID string) (*core.SessionStats, error) {
	return s.ledger.Stats(ctx, sessionID)
}

func (s *Service) Clear(ctx context.Context, sessionID string) (int64, error) {
	return s.ledger.Clear(ctx, sessionID)
}

func (s *Service) Context(ctx context.Context, sessionID string, maxChars int) string {
	return s.assembler.Build(ctx, sessionID, maxChars)
}

func (s *Service) Remember(ctx context.Context, ownerID, text, category string) (string, error) {
	return s.facts.Remember(ctx, ownerID, text, category)
}

func (s *Service) Forget(ctx context.Context, ownerID, textOrKey string) (bool, error) {
	return s.facts.Forget(ctx, ownerID, textOrKey)
}

func (s *Service) ListFacts(ctx context.Context, ownerID, category string) ([]core.Fact, error) {
	return s.facts.ListActive(ctx, ownerID, category)
}

// Health reports both tiers, refreshing stale probe results first.
func (s *Service) Health(ctx context.Context) map[core.Backend]core.ConnectionState {
	s.sup.EnsureReady(ctx, core.BackendDurable)
	s.sup.EnsureReady(ctx, core.BackendCache)
	return s.sup.Snapshot()
}
