package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sandevgo/elvamem/internal/config"
	"github.com/sandevgo/elvamem/internal/core"
	"github.com/sandevgo/elvamem/pkg/log"
)

func factsCacheKey(ownerID string) string {
	return "owner_facts:" + ownerID
}

// Facts is the deduplicated long-term store. Unlike the ledger it fails
// closed: losing a fact silently is worse than surfacing the failure, so
// every durable-store problem comes back to the caller.
type Facts struct {
	repo    core.FactsRepository
	cache   core.Cache
	sup     *Supervisor
	matcher Matcher

	opTimeout time.Duration
	cacheTTL  time.Duration
	now       func() time.Time
}

func NewFacts(
	cfg *config.AppConfig,
	rcfg *config.RedisConfig,
	repo core.FactsRepository,
	cache core.Cache,
	sup *Supervisor,
	matcher Matcher,
) *Facts {
	return &Facts{
		repo:      repo,
		cache:     cache,
		sup:       sup,
		matcher:   matcher,
		opTimeout: cfg.OpTimeout,
		cacheTTL:  rcfg.CacheTTL,
		now:       time.Now,
	}
}

// Remember stores text as a fact and returns its key. When an existing
// active fact in the same category is a near-duplicate, that fact is
// rewritten in place instead of inserting a second one — new input
// supersedes old.
func (f *Facts) Remember(ctx context.Context, ownerID, text, category string) (string, error) {
	if state := f.sup.EnsureReady(ctx, core.BackendDurable); state.Status != core.StatusHealthy {
		return "", fmt.Errorf("remember for %s: %w", ownerID, core.ErrUnavailable)
	}

	if category == "" {
		category = Categorize(text)
	}
	if !core.IsValidCategory(category) {
		return "", fmt.Errorf("unknown fact category %q", category)
	}

	normalized := Normalize(text)
	if normalized == "" {
		return "", fmt.Errorf("fact text is empty after normalization")
	}

	actives, err := Execute(ctx, f.opTimeout, "facts.list_active", func(c context.Context) ([]core.Fact, error) {
		return f.repo.ListActive(c, ownerID, category)
	})
	if err != nil {
		return "", err
	}

	now := f.now().UTC()

	for _, existing := range actives {
		if f.matcher.Match(normalized, existing.Normalized) {
			err = ExecuteVoid(ctx, f.opTimeout, "facts.update", func(c context.Context) error {
				return f.repo.UpdateText(c, ownerID, existing.Key, text, normalized, now)
			})
			if err != nil {
				return "", err
			}
			f.cache.Delete(ctx, factsCacheKey(ownerID))
			log.FromCtx(ctx).Debug().Str("owner", ownerID).Str("key", existing.Key).Msg("updated fact in place")
			return existing.Key, nil
		}
	}

	fact := &core.Fact{
		OwnerID:    ownerID,
		Key:        FactKey(category, normalized),
		Text:       text,
		Normalized: normalized,
		Category:   category,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err = ExecuteVoid(ctx, f.opTimeout, "facts.insert", func(c context.Context) error {
		return f.repo.Insert(c, fact)
	})
	if err != nil {
		return "", err
	}

	f.cache.Delete(ctx, factsCacheKey(ownerID))
	log.FromCtx(ctx).Debug().Str("owner", ownerID).Str("key", fact.Key).Str("category", category).Msg("stored new fact")
	return fact.Key, nil
}

// Forget soft-deletes the best-matching active fact. The exact key wins;
// otherwise the highest-scoring normalized-text match above the matcher's
// threshold is taken. Returns false when nothing matched.
func (f *Facts) Forget(ctx context.Context, ownerID, textOrKey string) (bool, error) {
	if state := f.sup.EnsureReady(ctx, core.BackendDurable); state.Status != core.StatusHealthy {
		return false, fmt.Errorf("forget for %s: %w", ownerID, core.ErrUnavailable)
	}

	actives, err := Execute(ctx, f.opTimeout, "facts.list_active", func(c context.Context) ([]core.Fact, error) {
		return f.repo.ListActive(c, ownerID, "")
	})
	if err != nil {
		return false, err
	}

	target := ""
	for _, fact := range actives {
		if fact.Key == textOrKey {
			target = fact.Key
			break
		}
	}

	if target == "" {
		normalized := Normalize(textOrKey)
		best := 0.0
		for _, fact := range actives {
			score := f.matcher.Score(normalized, fact.Normalized)
			if score > best {
				best = score
				target = fact.Key
			}
		}
		if best < 0.5 {
			target = ""
		}
	}

	if target == "" {
		return false, nil
	}

	err = ExecuteVoid(ctx, f.opTimeout, "facts.deactivate", func(c context.Context) error {
		return f.repo.Deactivate(c, ownerID, target, f.now().UTC())
	})
	if err != nil {
		return false, err
	}

	f.cache.Delete(ctx, factsCacheKey(ownerID))
	log.FromCtx(ctx).Debug().Str("owner", ownerID).Str("key", target).Msg("forgot fact")
	return true, nil
}

// ListActive returns the owner's active facts, cache-first when no category
// filter is applied.
func (f *Facts) ListActive(ctx context.Context, ownerID, category string) ([]core.Fact, error) {
	cacheHealthy := f.sup.EnsureReady(ctx, core.BackendCache).Status == core.StatusHealthy
	useCache := cacheHealthy && category == ""

	if useCache {
		if data, ok := f.cache.Get(ctx, factsCacheKey(ownerID)); ok {
			var cached []core.Fact
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
			f.cache.Delete(ctx, factsCacheKey(ownerID))
		}
	}

	if state := f.sup.EnsureReady(ctx, core.BackendDurable); state.Status != core.StatusHealthy {
		return nil, fmt.Errorf("list facts for %s: %w", ownerID, core.ErrUnavailable)
	}

	facts, err := Execute(ctx, f.opTimeout, "facts.list_active", func(c context.Context) ([]core.Fact, error) {
		return f.repo.ListActive(c, ownerID, category)
	})
	if err != nil {
		return nil, err
	}

	if useCache && len(facts) > 0 {
		if data, err := json.Marshal(facts); err == nil {
			f.cache.Set(ctx, factsCacheKey(ownerID), data, f.cacheTTL)
		}
	}
	return facts, nil
}
