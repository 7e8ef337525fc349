package assessmatch

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessmatch/internal/config"
	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/domain/recommendation"
	"github.com/kailas-cloud/assessmatch/internal/metrics"
	"github.com/kailas-cloud/assessmatch/internal/repository/catalog"
	"github.com/kailas-cloud/assessmatch/internal/repository/embcache"
	"github.com/kailas-cloud/assessmatch/internal/transport/gemini"
	"github.com/kailas-cloud/assessmatch/internal/transport/ollama"
	"github.com/kailas-cloud/assessmatch/internal/transport/openai"
	"github.com/kailas-cloud/assessmatch/internal/transport/webpage"
	"github.com/kailas-cloud/assessmatch/internal/usecase/balance"
	"github.com/kailas-cloud/assessmatch/internal/usecase/embedding"
	"github.com/kailas-cloud/assessmatch/internal/usecase/health"
	"github.com/kailas-cloud/assessmatch/internal/usecase/intent"
	"github.com/kailas-cloud/assessmatch/internal/usecase/rank"
	"github.com/kailas-cloud/assessmatch/internal/usecase/recommend"
)

// resolveConfig loads the config file (if any) and applies option overrides.
func resolveConfig(c *clientConfig) (config.Config, error) {
	var cfg config.Config
	if c.configPath != "" {
		loaded, err := config.LoadFile(c.configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("assessmatch: %w", err)
		}
		cfg = loaded
	} else {
		cfg.ApplyDefaults()
	}

	if c.catalogPath != "" {
		cfg.Catalog.Path = c.catalogPath
	}
	if len(c.tiers) > 0 {
		cfg.Embedding.Tiers = c.tiers
		cfg.Embedding.Secondary.Enabled = slices.Contains(c.tiers, "secondary")
		// A custom embedder serves the primary tier without provider credentials.
		cfg.Embedding.Primary.Enabled = slices.Contains(c.tiers, "primary") && c.embedder == nil
	}
	if c.embedder != nil && !slices.Contains(cfg.Embedding.Tiers, "primary") {
		cfg.Embedding.Tiers = append([]string{"primary"}, cfg.Embedding.Tiers...)
	}
	if c.warmUp != nil {
		cfg.Catalog.WarmUp = *c.warmUp
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("assessmatch: invalid config: %w", err)
	}
	return cfg, nil
}

// pipeline is the wired recommendation core.
type pipeline struct {
	store     *catalog.Store
	stats     catalog.Stats
	cache     *embcache.Cache
	chain     *embedding.Chain
	index     *rank.Index
	recommend *recommend.Service
	health    *health.Service
}

func buildPipeline(ctx context.Context, c *clientConfig, logger *zap.Logger) (*pipeline, error) {
	cfg := c.cfg

	store, stats, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("assessmatch: load catalog: %w", err)
	}
	metrics.CatalogAssessments.Set(float64(store.Len()))
	logger.Info("Catalog loaded",
		zap.String("path", cfg.Catalog.Path),
		zap.Int("assessments", stats.Loaded),
		zap.Int("pre_packaged_skipped", stats.PrePackaged),
	)

	tiers, err := buildTiers(ctx, c, logger)
	if err != nil {
		return nil, err
	}
	cache := embcache.New(metrics.EmbeddingCacheTotal, logger)
	chain, err := embedding.NewChain(tiers, cache, logger)
	if err != nil {
		return nil, fmt.Errorf("assessmatch: embedding chain: %w", err)
	}

	index := rank.NewIndex(store, chain, &rank.IndexConfig{
		Concurrency: cfg.Catalog.IndexConcurrency,
		Logger:      logger,
	})

	rc := cfg.Recommend
	deps := recommend.Deps{
		Catalog:  store,
		Analyzer: intent.New(intent.Config{ShortQueryTokens: rc.ShortQueryTokens}),
		Embedder: chain,
		Ranker:   rank.New(store, index, chain, logger),
		Balancer: balance.New(recommendation.Window{
			Min:    rc.MinResults,
			Max:    rc.MaxResults,
			Target: rc.DefaultResults,
		}),
	}
	if rc.Extraction.Enabled {
		deps.Extractor = webpage.New(&webpage.Config{
			Timeout:      time.Duration(rc.Extraction.TimeoutSec) * time.Second,
			MaxChars:     rc.Extraction.MaxChars,
			MaxBodyBytes: rc.Extraction.MaxBodyBytes,
			UserAgent:    rc.Extraction.UserAgent,
			Logger:       logger,
		})
	}

	svc, err := recommend.New(deps, &recommend.Config{
		MinQueryLength:       rc.MinQueryLength,
		MaxQueryBytes:        rc.MaxQueryBytes,
		EnrichmentPrefix:     rc.EnrichmentPrefix,
		JobDescriptionPrefix: rc.JobDescriptionPrefix,
		Logger:               logger,
	})
	if err != nil {
		return nil, fmt.Errorf("assessmatch: recommendation service: %w", err)
	}

	return &pipeline{
		store:     store,
		stats:     stats,
		cache:     cache,
		chain:     chain,
		index:     index,
		recommend: svc,
		health:    health.New(store, chain),
	}, nil
}

// buildTiers creates the embedders in configured order. Disabled tiers are skipped
// and the fallback is appended when it is not listed.
func buildTiers(ctx context.Context, c *clientConfig, logger *zap.Logger) ([]embedding.TierEmbedder, error) {
	ec := c.cfg.Embedding
	var out []embedding.TierEmbedder

	for _, name := range ec.Tiers {
		tier, err := domain.ParseTier(name)
		if err != nil {
			return nil, fmt.Errorf("assessmatch: %w", err)
		}
		switch tier {
		case domain.TierPrimary:
			if !ec.Primary.Enabled && c.embedder == nil {
				continue
			}
			e, err := buildPrimary(ctx, c, logger)
			if err != nil {
				return nil, err
			}
			out = append(out, embedding.TierEmbedder{Tier: tier, Embedder: e})
		case domain.TierSecondary:
			if !ec.Secondary.Enabled {
				continue
			}
			out = append(out, embedding.TierEmbedder{Tier: tier, Embedder: ollama.NewEmbedder(&ollama.Config{
				BaseURL: ec.Secondary.BaseURL,
				Model:   ec.Secondary.Model,
				Timeout: time.Duration(ec.Secondary.TimeoutSec) * time.Second,
				Logger:  logger,
			})})
		case domain.TierFallback:
			out = append(out, embedding.TierEmbedder{
				Tier:     tier,
				Embedder: embedding.NewFeatureHashEmbedder(ec.Fallback.Dimensions),
			})
		}
		logger.Info("Embedding tier enabled", zap.String("tier", name))
	}
	if !slices.Contains(ec.Tiers, domain.TierFallback.String()) {
		out = append(out, embedding.TierEmbedder{
			Tier:     domain.TierFallback,
			Embedder: embedding.NewFeatureHashEmbedder(ec.Fallback.Dimensions),
		})
	}
	return out, nil
}

// buildPrimary stacks transport, budget accounting and retries for the external API tier.
func buildPrimary(ctx context.Context, c *clientConfig, logger *zap.Logger) (domain.Embedder, error) {
	pc := c.cfg.Embedding.Primary

	var (
		inner    domain.Embedder
		provider = pc.Provider
		model    = pc.Model
	)
	switch {
	case c.embedder != nil:
		inner = adaptEmbedder(c.embedder)
		provider, model = "custom", "custom"
	case pc.Provider == "gemini":
		g, err := gemini.NewEmbedder(ctx, &gemini.Config{
			APIKey:     pc.APIKey,
			BaseURL:    pc.BaseURL,
			Model:      pc.Model,
			Dimensions: pc.Dimensions,
			TaskType:   "SEMANTIC_SIMILARITY",
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("assessmatch: primary tier: %w", err)
		}
		inner = g
	default:
		inner = openai.NewEmbedder(&openai.Config{
			APIKey:     pc.APIKey,
			BaseURL:    pc.BaseURL,
			Model:      pc.Model,
			Dimensions: pc.Dimensions,
			Provider:   pc.Provider,
			Logger:     logger,
		})
	}

	var budget embedding.BudgetChecker
	if pc.Budget.DailyTokenLimit > 0 || pc.Budget.MonthlyTokenLimit > 0 {
		budget = embedding.NewBudgetTracker(provider,
			pc.Budget.DailyTokenLimit, pc.Budget.MonthlyTokenLimit,
			embedding.ParseBudgetAction(pc.Budget.Action), logger)
	}
	instrumented := embedding.NewInstrumentedEmbedder(inner, provider, model, budget, logger)

	return embedding.NewRetryingEmbedder(instrumented, provider, embedding.RetryConfig{
		MaxRetries:     pc.MaxRetries,
		AttemptTimeout: time.Duration(pc.TimeoutSec) * time.Second,
		InitialBackoff: time.Duration(pc.BackoffInitialMs) * time.Millisecond,
		RateLimit:      pc.RateLimitRPS,
		RateBurst:      pc.RateLimitBurst,
	}, logger), nil
}
