package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sandevgo/elvamem/internal/core"
)

// TestService_ConversationLifecycle walks one session through the full
// surface: saving turns, remembering and superseding a fact, assembling
// context, forgetting, and clearing.
func TestService_ConversationLifecycle(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	svc := stack.service
	ctx := context.Background()

	// A retried save is absorbed, the turn is stored once
	if !svc.SaveMessage(ctx, "s1", core.RoleUser, "Hi, my name is Arpit", nil) {
		t.Fatal("save failed")
	}
	if !svc.SaveMessage(ctx, "s1", core.RoleUser, "Hi, my name is Arpit", nil) {
		t.Fatal("retried save must succeed")
	}
	if !svc.SaveMessage(ctx, "s1", core.RoleAssistant, "Nice to meet you, Arpit!", nil) {
		t.Fatal("save failed")
	}

	history, err := svc.History(ctx, "s1", 10)
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(history))
	}

	// The fact is remembered, then superseded by a fuller version
	key1, err := svc.Remember(ctx, "s1", "My name is Arpit", "")
	if err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	key2, err := svc.Remember(ctx, "s1", "my name is Arpit Kumar", "")
	if err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	if key1 != key2 {
		t.Errorf("expected one superseded fact, got keys %s and %s", key1, key2)
	}

	out := svc.Context(ctx, "s1", 2000)
	if !strings.Contains(out, "- my name is Arpit Kumar") {
		t.Errorf("expected the superseding fact in context, got %q", out)
	}
	if !strings.Contains(out, "USER: Hi, my name is Arpit") {
		t.Errorf("expected the conversation in context, got %q", out)
	}

	// Forgetting removes the fact from context; the raw transcript stays
	forgotten, err := svc.Forget(ctx, "s1", "name")
	if err != nil {
		t.Fatalf("forget failed: %v", err)
	}
	if !forgotten {
		t.Fatal("expected the name fact to be forgotten")
	}

	out = svc.Context(ctx, "s1", 2000)
	if strings.Contains(out, "Known facts:") {
		t.Errorf("expected no facts section after forgetting, got %q", out)
	}
	if !strings.Contains(out, "USER: Hi, my name is Arpit") {
		t.Errorf("expected the transcript to survive forgetting, got %q", out)
	}

	stats, err := svc.Stats(ctx, "s1")
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if stats.TotalMessages != 2 || stats.UserMessages != 1 || stats.AssistantMessages != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}

	removed, err := svc.Clear(ctx, "s1")
	if err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if out := svc.Context(ctx, "s1", 2000); out != "" {
		t.Errorf("expected empty context after clear, got %q", out)
	}
}

func TestService_Health(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	ctx := context.Background()

	health := stack.service.Health(ctx)
	if health[core.BackendDurable].Status != core.StatusHealthy {
		t.Errorf("durable store: expected healthy, got %s", health[core.BackendDurable].Status)
	}
	if health[core.BackendCache].Status != core.StatusHealthy {
		t.Errorf("cache: expected healthy, got %s", health[core.BackendCache].Status)
	}

	stack.mr.Close()
	health = stack.service.Health(ctx)
	if health[core.BackendDurable].Status != core.StatusHealthy {
		t.Errorf("durable store: expected healthy, got %s", health[core.BackendDurable].Status)
	}
	if health[core.BackendCache].Status != core.StatusDegraded {
		t.Errorf("cache: expected degraded, got %s", health[core.BackendCache].Status)
	}
}

func TestService_DegradedCacheStaysUsable(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	svc := stack.service
	ctx := context.Background()

	stack.mr.Close()

	if !svc.SaveMessage(ctx, "s1", core.RoleUser, "hello", nil) {
		t.Fatal("save must succeed without the cache")
	}
	if _, err := svc.Remember(ctx, "s1", "My name is Arpit", ""); err != nil {
		t.Fatalf("remember must succeed without the cache: %v", err)
	}

	out := svc.Context(ctx, "s1", 2000)
	if !strings.Contains(out, "- My name is Arpit") || !strings.Contains(out, "USER: hello") {
		t.Errorf("expected full context without the cache, got %q", out)
	}
}

func TestService_DurableOutageFailsLoudly(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	svc := stack.service
	ctx := context.Background()

	stack.store.FailPing(errors.New("primary down"))

	if svc.SaveMessage(ctx, "s1", core.RoleUser, "hello", nil) {
		t.Error("expected save to report failure")
	}
	if _, err := svc.Remember(ctx, "s1", "My name is Arpit", ""); !errors.Is(err, core.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from remember, got %v", err)
	}
	if _, err := svc.Forget(ctx, "s1", "name"); !errors.Is(err, core.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from forget, got %v", err)
	}
	if _, err := svc.Search(ctx, "s1", "hello", 10); !errors.Is(err, core.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable from search, got %v", err)
	}
}
