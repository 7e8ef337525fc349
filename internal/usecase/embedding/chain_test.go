package embedding

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/repository/embcache"
)

func newTestCache(t *testing.T) *embcache.Cache {
	t.Helper()
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_chain_cache_total"}, []string{"tier", "result"})
	return embcache.New(counter, zap.NewNop())
}

func constEmbedder(vec ...float32) *funcEmbedder {
	return &funcEmbedder{fn: func(context.Context, string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{Embedding: vec, TotalTokens: 3}, nil
	}}
}

func failingEmbedder(err error) *funcEmbedder {
	return &funcEmbedder{fn: func(context.Context, string) (domain.EmbeddingResult, error) {
		return domain.EmbeddingResult{}, err
	}}
}

func TestNewChain_AppendsFallback(t *testing.T) {
	c, err := NewChain([]TierEmbedder{{Tier: domain.TierPrimary, Embedder: constEmbedder(1, 0)}}, newTestCache(t), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tiers := c.Tiers()
	if len(tiers) != 2 || tiers[0] != domain.TierPrimary || tiers[1] != domain.TierFallback {
		t.Errorf("unexpected tiers %v", tiers)
	}
}

func TestNewChain_MovesFallbackLast(t *testing.T) {
	c, err := NewChain([]TierEmbedder{
		{Tier: domain.TierFallback, Embedder: NewFeatureHashEmbedder(64)},
		{Tier: domain.TierSecondary, Embedder: constEmbedder(1)},
	}, newTestCache(t), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tiers := c.Tiers()
	if tiers[0] != domain.TierSecondary || tiers[1] != domain.TierFallback {
		t.Errorf("unexpected order %v", tiers)
	}
	if v := c.EmbedFrom(context.Background(), "sql", domain.TierFallback); v.Dim() != 64 {
		t.Errorf("configured fallback dims not used: %d", v.Dim())
	}
}

func TestNewChain_Errors(t *testing.T) {
	cache := newTestCache(t)
	tests := []struct {
		name  string
		tiers []TierEmbedder
	}{
		{"nil embedder", []TierEmbedder{{Tier: domain.TierPrimary}}},
		{"duplicate tier", []TierEmbedder{
			{Tier: domain.TierPrimary, Embedder: constEmbedder(1)},
			{Tier: domain.TierPrimary, Embedder: constEmbedder(1)},
		}},
		{"foreign fallback", []TierEmbedder{{Tier: domain.TierFallback, Embedder: constEmbedder(1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewChain(tt.tiers, cache, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
	if _, err := NewChain(nil, nil, nil); err == nil {
		t.Error("expected error for missing cache")
	}
}

func TestChain_EmbedUsesFirstHealthyTier(t *testing.T) {
	primary := failingEmbedder(domain.ErrEmbeddingAuth)
	secondary := constEmbedder(0.6, 0.8)
	c, err := NewChain([]TierEmbedder{
		{Tier: domain.TierPrimary, Embedder: primary},
		{Tier: domain.TierSecondary, Embedder: secondary},
	}, newTestCache(t), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, usage := domain.NewContextWithUsage(context.Background())
	v := c.Embed(ctx, "java developer")
	if v.Tier != domain.TierSecondary {
		t.Fatalf("expected secondary tier, got %s", v.Tier)
	}
	if v.Hash != domain.TextHash("java developer") {
		t.Error("vector hash does not identify the source text")
	}
	if _, tier, used := usage.Snapshot(); tier != domain.TierSecondary || !used {
		t.Errorf("usage tier = %s (used=%v), want secondary", tier, used)
	}
}

func TestChain_EmbedNeverFails(t *testing.T) {
	c, err := NewChain([]TierEmbedder{
		{Tier: domain.TierPrimary, Embedder: failingEmbedder(domain.ErrEmbeddingProviderError)},
		{Tier: domain.TierSecondary, Embedder: failingEmbedder(domain.ErrEmbeddingProviderError)},
	}, newTestCache(t), zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	v := c.Embed(ctx, "team leadership")
	if v.Tier != domain.TierFallback || v.Dim() != DefaultFallbackDimensions {
		t.Errorf("expected fallback vector, got tier=%s dims=%d", v.Tier, v.Dim())
	}
}

func TestChain_DeterministicWithoutPrimary(t *testing.T) {
	c, err := NewChain(nil, newTestCache(t), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := c.Embed(context.Background(), "numerical reasoning")
	c2, _ := NewChain(nil, newTestCache(t), nil)
	b := c2.Embed(context.Background(), "numerical reasoning")
	for i := range a.Values {
		if a.Values[i] != b.Values[i] {
			t.Fatalf("fallback vectors differ at %d", i)
		}
	}
}

func TestChain_EmbedAtCachesSuccessOnly(t *testing.T) {
	calls := 0
	fail := true
	inner := &funcEmbedder{fn: func(context.Context, string) (domain.EmbeddingResult, error) {
		calls++
		if fail {
			return domain.EmbeddingResult{}, domain.ErrRateLimited
		}
		return domain.EmbeddingResult{Embedding: []float32{1, 2}}, nil
	}}
	c, _ := NewChain([]TierEmbedder{{Tier: domain.TierPrimary, Embedder: inner}}, newTestCache(t), nil)
	ctx := context.Background()

	if _, err := c.EmbedAt(ctx, "sql", domain.TierPrimary); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
	fail = false
	first, err := c.EmbedAt(ctx, "sql", domain.TierPrimary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := c.EmbedAt(ctx, "sql", domain.TierPrimary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected failure not cached and success cached: %d provider calls", calls)
	}
	if first.Values[1] != second.Values[1] {
		t.Error("cached vector differs from computed vector")
	}
}

func TestChain_EmbedAtUnconfiguredTier(t *testing.T) {
	c, _ := NewChain(nil, newTestCache(t), nil)
	if _, err := c.EmbedAt(context.Background(), "x", domain.TierPrimary); !errors.Is(err, domain.ErrTierUnavailable) {
		t.Fatalf("expected ErrTierUnavailable, got %v", err)
	}
	if _, err := c.EmbedBatchAt(context.Background(), []string{"x"}, domain.TierSecondary); !errors.Is(err, domain.ErrTierUnavailable) {
		t.Fatalf("expected ErrTierUnavailable, got %v", err)
	}
}

func TestChain_EmbedBatchAtSendsOnlyMisses(t *testing.T) {
	inner := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.5, 0.5}}}
	c, _ := NewChain([]TierEmbedder{{Tier: domain.TierPrimary, Embedder: inner}}, newTestCache(t), nil)
	ctx := context.Background()

	if _, err := c.EmbedAt(ctx, "b", domain.TierPrimary); err != nil {
		t.Fatalf("warm cache: %v", err)
	}

	vecs, err := c.EmbedBatchAt(ctx, []string{"a", "b", "c"}, domain.TierPrimary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vecs))
	}
	for i, v := range vecs {
		if v.Tier != domain.TierPrimary || v.Dim() != 2 {
			t.Errorf("vector %d: tier=%s dims=%d", i, v.Tier, v.Dim())
		}
	}
	if inner.batchCalls != 1 {
		t.Errorf("expected 1 batch call, got %d", inner.batchCalls)
	}

	// all cached now
	if _, err := c.EmbedBatchAt(ctx, []string{"a", "b", "c"}, domain.TierPrimary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.batchCalls != 1 {
		t.Errorf("expected cached batch, got %d batch calls", inner.batchCalls)
	}
}

func TestChain_NextAndEmbedFrom(t *testing.T) {
	c, _ := NewChain([]TierEmbedder{
		{Tier: domain.TierPrimary, Embedder: constEmbedder(1, 0)},
		{Tier: domain.TierSecondary, Embedder: constEmbedder(0, 1, 0)},
	}, newTestCache(t), nil)

	next, ok := c.Next(domain.TierPrimary)
	if !ok || next != domain.TierSecondary {
		t.Fatalf("Next(primary) = %s, %v", next, ok)
	}
	if _, ok := c.Next(domain.TierFallback); ok {
		t.Error("fallback must be the last tier")
	}

	v := c.EmbedFrom(context.Background(), "sql", domain.TierSecondary)
	if v.Tier != domain.TierSecondary || v.Dim() != 3 {
		t.Errorf("EmbedFrom(secondary) = tier %s dims %d", v.Tier, v.Dim())
	}
}

func TestChain_Ping(t *testing.T) {
	c, _ := NewChain(nil, newTestCache(t), nil)
	if err := c.Ping(context.Background(), domain.TierFallback); err != nil {
		t.Errorf("fallback ping: %v", err)
	}
	if err := c.Ping(context.Background(), domain.TierPrimary); !errors.Is(err, domain.ErrTierUnavailable) {
		t.Errorf("expected ErrTierUnavailable, got %v", err)
	}
}
