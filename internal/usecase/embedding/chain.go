package embedding

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/metrics"
	"github.com/kailas-cloud/assessmatch/internal/repository/embcache"
)

// TierEmbedder binds an embedding strategy to the tier it serves.
type TierEmbedder struct {
	Tier     domain.Tier
	Embedder domain.Embedder
}

// Chain tries embedding tiers in configured order and falls through on failure.
// The fallback tier is always last, so Embed never fails.
type Chain struct {
	tiers    []TierEmbedder
	fallback *FeatureHashEmbedder
	cache    *embcache.Cache
	logger   *zap.Logger
}

// NewChain builds a chain from tiers in order of preference.
// A fallback entry anywhere in tiers is moved to the end; if absent, a default one is appended.
func NewChain(tiers []TierEmbedder, cache *embcache.Cache, logger *zap.Logger) (*Chain, error) {
	if cache == nil {
		return nil, errors.New("embedding cache is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	seen := make(map[domain.Tier]bool, len(tiers)+1)
	ordered := make([]TierEmbedder, 0, len(tiers)+1)
	var fallback *TierEmbedder
	for i := range tiers {
		t := tiers[i]
		if t.Embedder == nil {
			return nil, fmt.Errorf("tier %s: embedder is nil", t.Tier)
		}
		if seen[t.Tier] {
			return nil, fmt.Errorf("tier %s configured twice", t.Tier)
		}
		seen[t.Tier] = true
		if t.Tier == domain.TierFallback {
			fallback = &t
			continue
		}
		ordered = append(ordered, t)
	}

	fh, ok := fallbackEmbedder(fallback)
	if !ok {
		return nil, errors.New("fallback tier must use the feature-hash embedder")
	}
	ordered = append(ordered, TierEmbedder{Tier: domain.TierFallback, Embedder: fh})

	return &Chain{tiers: ordered, fallback: fh, cache: cache, logger: logger}, nil
}

func fallbackEmbedder(t *TierEmbedder) (*FeatureHashEmbedder, bool) {
	if t == nil {
		return NewFeatureHashEmbedder(DefaultFallbackDimensions), true
	}
	fh, ok := t.Embedder.(*FeatureHashEmbedder)
	return fh, ok
}

// Tiers returns the tiers in the order they are tried.
func (c *Chain) Tiers() []domain.Tier {
	out := make([]domain.Tier, len(c.tiers))
	for i, t := range c.tiers {
		out[i] = t.Tier
	}
	return out
}

// Next returns the tier tried after t.
func (c *Chain) Next(t domain.Tier) (domain.Tier, bool) {
	i := c.position(t)
	if i < 0 || i+1 >= len(c.tiers) {
		return 0, false
	}
	return c.tiers[i+1].Tier, true
}

// Embed vectorizes query text with the first tier that succeeds.
func (c *Chain) Embed(ctx context.Context, text string) domain.Vector {
	return c.embedFrom(ctx, text, 0)
}

// EmbedFrom is Embed starting at tier from. Tiers ordered before it are skipped.
// An unconfigured tier starts the walk at the fallback.
func (c *Chain) EmbedFrom(ctx context.Context, text string, from domain.Tier) domain.Vector {
	i := c.position(from)
	if i < 0 {
		i = len(c.tiers) - 1
	}
	return c.embedFrom(ctx, text, i)
}

func (c *Chain) embedFrom(ctx context.Context, text string, start int) domain.Vector {
	for _, t := range c.tiers[start:] {
		vec, err := c.EmbedAt(ctx, text, t.Tier)
		if err == nil {
			c.served(ctx, t.Tier)
			return vec
		}
		metrics.EmbeddingTierFallthroughTotal.WithLabelValues(t.Tier.String(), reason(err)).Inc()
		c.logger.Warn("Embedding tier failed, falling through",
			zap.String("tier", t.Tier.String()),
			zap.Error(err),
		)
	}

	// Unreachable while the fallback tier is last, since it cannot fail.
	c.served(ctx, domain.TierFallback)
	return domain.Vector{Values: c.fallback.Vector(text), Tier: domain.TierFallback, Hash: domain.TextHash(text)}
}

func (c *Chain) served(ctx context.Context, t domain.Tier) {
	metrics.EmbeddingTierServedTotal.WithLabelValues(t.String()).Inc()
	domain.UsageFromContext(ctx).SetTier(t)
}

// EmbedAt vectorizes text with exactly one tier, through the cache.
func (c *Chain) EmbedAt(ctx context.Context, text string, tier domain.Tier) (domain.Vector, error) {
	e, ok := c.embedder(tier)
	if !ok {
		return domain.Vector{}, fmt.Errorf("tier %s: %w", tier, domain.ErrTierUnavailable)
	}

	values, _, err := c.cache.GetOrCompute(ctx, tier, text, func(ctx context.Context) ([]float32, error) {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		if len(res.Embedding) == 0 {
			return nil, fmt.Errorf("empty vector: %w", domain.ErrEmbeddingProviderError)
		}
		return res.Embedding, nil
	})
	if err != nil {
		return domain.Vector{}, err
	}
	return domain.Vector{Values: values, Tier: tier, Hash: domain.TextHash(text)}, nil
}

// EmbedBatchAt vectorizes texts with one tier. Cached texts are not re-sent;
// the misses go to the provider in one batch. Any failure fails the whole batch.
func (c *Chain) EmbedBatchAt(ctx context.Context, texts []string, tier domain.Tier) ([]domain.Vector, error) {
	e, ok := c.embedder(tier)
	if !ok {
		return nil, fmt.Errorf("tier %s: %w", tier, domain.ErrTierUnavailable)
	}

	out := make([]domain.Vector, len(texts))
	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		if v, ok := c.cache.Get(tier, t); ok {
			out[i] = domain.Vector{Values: v, Tier: tier, Hash: domain.TextHash(t)}
			continue
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	res, err := domain.BatchEmbed(ctx, e, missTexts)
	if err != nil {
		return nil, fmt.Errorf("tier %s: %w", tier, err)
	}
	if len(res.Embeddings) != len(missTexts) {
		return nil, fmt.Errorf("tier %s: got %d vectors for %d texts: %w",
			tier, len(res.Embeddings), len(missTexts), domain.ErrEmbeddingProviderError)
	}
	for j, i := range missIdx {
		vals := res.Embeddings[j]
		if len(vals) == 0 {
			return nil, fmt.Errorf("tier %s: empty vector for text %d: %w", tier, i, domain.ErrEmbeddingProviderError)
		}
		c.cache.Put(tier, missTexts[j], vals)
		out[i] = domain.Vector{Values: vals, Tier: tier, Hash: domain.TextHash(missTexts[j])}
	}
	return out, nil
}

// Ping reports whether tier is reachable. Tiers without a health endpoint are assumed up.
func (c *Chain) Ping(ctx context.Context, tier domain.Tier) error {
	e, ok := c.embedder(tier)
	if !ok {
		return fmt.Errorf("tier %s: %w", tier, domain.ErrTierUnavailable)
	}
	if hc, ok := e.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (c *Chain) embedder(tier domain.Tier) (domain.Embedder, bool) {
	if i := c.position(tier); i >= 0 {
		return c.tiers[i].Embedder, true
	}
	return nil, false
}

func (c *Chain) position(tier domain.Tier) int {
	for i, t := range c.tiers {
		if t.Tier == tier {
			return i
		}
	}
	return -1
}

func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmbeddingAuth):
		return "auth"
	case errors.Is(err, domain.ErrEmbeddingQuotaExceeded):
		return "quota"
	case errors.Is(err, domain.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "provider_error"
	}
}
