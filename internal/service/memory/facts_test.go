package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sandevgo/elvamem/internal/core"
)

func TestFacts_RememberNewFact(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	ctx := context.Background()

	key, err := stack.facts.Remember(ctx, "u1", "My name is Arpit", "")
	if err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	if !strings.HasPrefix(key, core.CategoryIdentity+"_") {
		t.Errorf("expected an identity key, got %s", key)
	}

	facts, err := stack.facts.ListActive(ctx, "u1", "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("expected 1 fact, got %d", len(facts))
	}
	if facts[0].Text != "My name is Arpit" {
		t.Errorf("unexpected text: %q", facts[0].Text)
	}
}

func TestFacts_RememberSupersedesNearDuplicate(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	ctx := context.Background()

	key1, err := stack.facts.Remember(ctx, "u1", "My name is Arpit", "")
	if err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	key2, err := stack.facts.Remember(ctx, "u1", "my name is Arpit Kumar", "")
	if err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	if key1 != key2 {
		t.Errorf("expected the existing fact to be rewritten, got keys %s and %s", key1, key2)
	}

	facts, err := stack.facts.ListActive(ctx, "u1", "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("expected a single active fact, got %d", len(facts))
	}
	if facts[0].Text != "my name is Arpit Kumar" {
		t.Errorf("expected the newer text to win, got %q", facts[0].Text)
	}
}

func TestFacts_RememberKeepsDistinctFactsApart(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	ctx := context.Background()

	if _, err := stack.facts.Remember(ctx, "u1", "My name is Arpit", ""); err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	if _, err := stack.facts.Remember(ctx, "u1", "I prefer window seats", ""); err != nil {
		t.Fatalf("remember failed: %v", err)
	}

	facts, err := stack.facts.ListActive(ctx, "u1", "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(facts) != 2 {
		t.Errorf("expected 2 facts, got %d", len(facts))
	}
}

func TestFacts_RememberExplicitCategory(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	ctx := context.Background()

	key, err := stack.facts.Remember(ctx, "u1", "window seat on the left side", core.CategoryPreference)
	if err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	if !strings.HasPrefix(key, core.CategoryPreference+"_") {
		t.Errorf("expected the explicit category, got %s", key)
	}
}

func TestFacts_RememberRejectsBadInput(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	ctx := context.Background()

	if _, err := stack.facts.Remember(ctx, "u1", "anything", "nonsense"); err == nil {
		t.Error("expected an error for an unknown category")
	}
	if _, err := stack.facts.Remember(ctx, "u1", "?!...", ""); err == nil {
		t.Error("expected an error for text that normalizes to nothing")
	}
}

func TestFacts_RememberFailsClosedWhenDurableDown(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	ctx := context.Background()

	stack.store.FailPing(errors.New("down"))
	_, err := stack.facts.Remember(ctx, "u1", "My name is Arpit", "")
	if !errors.Is(err, core.ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestFacts_ForgetByKey(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	ctx := context.Background()

	key, err := stack.facts.Remember(ctx, "u1", "My name is Arpit", "")
	if err != nil {
		t.Fatalf("remember failed: %v", err)
	}

	forgotten, err := stack.facts.Forget(ctx, "u1", key)
	if err != nil {
		t.Fatalf("forget failed: %v", err)
	}
	if !forgotten {
		t.Fatal("expected the fact to be forgotten")
	}

	facts, err := stack.facts.ListActive(ctx, "u1", "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(facts) != 0 {
		t.Errorf("expected no active facts, got %d", len(facts))
	}

	// Soft delete: the record survives, just deactivated
	all := stack.store.Facts().AllFacts()
	if len(all) != 1 {
		t.Fatalf("expected the record to remain, got %d records", len(all))
	}
	if all[0].Active {
		t.Error("expected the record to be inactive")
	}
}

func TestFacts_ForgetByText(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	ctx := context.Background()

	if _, err := stack.facts.Remember(ctx, "u1", "My name is Arpit", ""); err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	if _, err := stack.facts.Remember(ctx, "u1", "I prefer window seats", ""); err != nil {
		t.Fatalf("remember failed: %v", err)
	}

	forgotten, err := stack.facts.Forget(ctx, "u1", "name")
	if err != nil {
		t.Fatalf("forget failed: %v", err)
	}
	if !forgotten {
		t.Fatal("expected a match on the name fact")
	}

	facts, err := stack.facts.ListActive(ctx, "u1", "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(facts) != 1 || facts[0].Category != core.CategoryPreference {
		t.Errorf("expected only the preference fact to survive, got %v", facts)
	}
}

func TestFacts_ForgetNoMatch(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	ctx := context.Background()

	if _, err := stack.facts.Remember(ctx, "u1", "My name is Arpit", ""); err != nil {
		t.Fatalf("remember failed: %v", err)
	}

	forgotten, err := stack.facts.Forget(ctx, "u1", "favorite ski resort")
	if err != nil {
		t.Fatalf("forget failed: %v", err)
	}
	if forgotten {
		t.Error("expected no match, nothing to forget")
	}
}

func TestFacts_ListActiveServedFromCache(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	ctx := context.Background()

	if _, err := stack.facts.Remember(ctx, "u1", "My name is Arpit", ""); err != nil {
		t.Fatalf("remember failed: %v", err)
	}

	// Populate the cache, then break the durable store
	if _, err := stack.facts.ListActive(ctx, "u1", ""); err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !stack.mr.Exists(factsCacheKey("u1")) {
		t.Fatal("expected the fact list to be cached")
	}

	stack.store.FailOps(errors.New("down"))
	facts, err := stack.facts.ListActive(ctx, "u1", "")
	if err != nil {
		t.Fatalf("cached list failed: %v", err)
	}
	if len(facts) != 1 {
		t.Errorf("expected the cached fact, got %d", len(facts))
	}
}

func TestFacts_ListActiveCategoryFilterSkipsCache(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	ctx := context.Background()

	if _, err := stack.facts.Remember(ctx, "u1", "My name is Arpit", ""); err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	if _, err := stack.facts.Remember(ctx, "u1", "I prefer window seats", ""); err != nil {
		t.Fatalf("remember failed: %v", err)
	}

	facts, err := stack.facts.ListActive(ctx, "u1", core.CategoryIdentity)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(facts) != 1 || facts[0].Category != core.CategoryIdentity {
		t.Errorf("expected only identity facts, got %v", facts)
	}
	// Filtered reads must not populate the unfiltered cache entry
	if stack.mr.Exists(factsCacheKey("u1")) {
		t.Error("category-filtered list should not be cached")
	}
}

func TestFacts_RememberInvalidatesCache(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	ctx := context.Background()

	if _, err := stack.facts.Remember(ctx, "u1", "My name is Arpit", ""); err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	if _, err := stack.facts.ListActive(ctx, "u1", ""); err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if _, err := stack.facts.Remember(ctx, "u1", "I prefer window seats", ""); err != nil {
		t.Fatalf("remember failed: %v", err)
	}

	facts, err := stack.facts.ListActive(ctx, "u1", "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(facts) != 2 {
		t.Errorf("expected the new fact to be visible, got %d facts", len(facts))
	}
}

func TestFacts_OwnersAreIsolated(t *testing.T) {
	t.Parallel()
	stack := newTestStack(t)
	ctx := context.Background()

	if _, err := stack.facts.Remember(ctx, "u1", "My name is Arpit", ""); err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	if _, err := stack.facts.Remember(ctx, "u2", "My name is Dana", ""); err != nil {
		t.Fatalf("remember failed: %v", err)
	}

	facts, err := stack.facts.ListActive(ctx, "u2", "")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(facts) != 1 || facts[0].Text != "My name is Dana" {
		t.Errorf("expected only u2's fact, got %v", facts)
	}
}
