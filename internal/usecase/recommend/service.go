package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
	"github.com/kailas-cloud/assessmatch/internal/domain/intent"
	"github.com/kailas-cloud/assessmatch/internal/domain/recommendation"
	"github.com/kailas-cloud/assessmatch/internal/metrics"
)

var tracer = otel.Tracer("github.com/kailas-cloud/assessmatch/internal/usecase/recommend")

const (
	defaultMinQueryLength   = 3
	defaultMaxQueryBytes    = 20000
	defaultEnrichmentPrefix = "Find assessments for: "
	defaultJobDescPrefix    = "Job description: "
)

// Deps groups the collaborators of the Service. Extractor may be nil.
type Deps struct {
	Catalog   Catalog
	Analyzer  IntentAnalyzer
	Embedder  QueryEmbedder
	Ranker    Ranker
	Balancer  Balancer
	Extractor TextExtractor
}

// Config holds query handling settings. Zero values select defaults.
type Config struct {
	MinQueryLength       int // runes, after trimming
	MaxQueryBytes        int
	EnrichmentPrefix     string
	JobDescriptionPrefix string
	Logger               *zap.Logger
}

// Service turns a hiring query into a ranked, balanced set of assessments.
type Service struct {
	deps   Deps
	minLen int
	maxLen int
	enrich string
	jobDoc string
	logger *zap.Logger
}

// New creates a Service. An empty catalog is refused.
func New(deps Deps, cfg *Config) (*Service, error) {
	if deps.Catalog == nil || deps.Analyzer == nil || deps.Embedder == nil ||
		deps.Ranker == nil || deps.Balancer == nil {
		return nil, errors.New("recommend: catalog, analyzer, embedder, ranker and balancer are required")
	}
	if deps.Catalog.Len() == 0 {
		return nil, domain.ErrEmptyCatalog
	}
	if cfg == nil {
		cfg = &Config{}
	}
	s := &Service{
		deps:   deps,
		minLen: cfg.MinQueryLength,
		maxLen: cfg.MaxQueryBytes,
		enrich: cfg.EnrichmentPrefix,
		jobDoc: cfg.JobDescriptionPrefix,
		logger: cfg.Logger,
	}
	if s.minLen <= 0 {
		s.minLen = defaultMinQueryLength
	}
	if s.maxLen <= 0 {
		s.maxLen = defaultMaxQueryBytes
	}
	if s.enrich == "" {
		s.enrich = defaultEnrichmentPrefix
	}
	if s.jobDoc == "" {
		s.jobDoc = defaultJobDescPrefix
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s, nil
}

// Recommend validates query, resolves job description URLs, and returns
// between the window minimum and maximum assessments. Fewer are returned
// only when the catalog is smaller than the minimum (Shortfall).
func (s *Service) Recommend(ctx context.Context, query string) (recommendation.Recommendation, error) {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "recommend.Recommend")
	defer span.End()

	text, err := s.validate(query)
	if err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues("invalid").Inc()
		span.SetStatus(codes.Error, "invalid query")
		return recommendation.Recommendation{}, err
	}

	text = s.resolve(ctx, text)

	in, embedText, vec, err := s.understand(ctx, text)
	if err != nil {
		return s.fail(span, err)
	}

	candidates, tier, err := s.rank(ctx, embedText, vec)
	if err != nil {
		return s.fail(span, err)
	}

	_, bspan := tracer.Start(ctx, "recommend.Balance")
	sel := s.deps.Balancer.Balance(candidates, in)
	bspan.SetAttributes(
		attribute.Int("items", len(sel.Items)),
		attribute.Bool("balanced", sel.Balanced),
		attribute.Bool("shortfall", sel.Shortfall),
	)
	bspan.End()

	rec := recommendation.Recommendation{
		Items:     sel.Items,
		Intent:    in,
		Tier:      tier,
		Target:    sel.Target,
		Balanced:  sel.Balanced,
		Shortfall: sel.Shortfall,
	}

	metrics.RecommendRequestsTotal.WithLabelValues("ok").Inc()
	metrics.RecommendDuration.WithLabelValues(tier.String()).Observe(time.Since(start).Seconds())
	metrics.RecommendResultSize.Observe(float64(len(rec.Items)))
	metrics.RecommendBalancedTotal.WithLabelValues(fmt.Sprint(rec.Balanced)).Inc()
	span.SetAttributes(attribute.String("tier", tier.String()), attribute.Int("items", len(rec.Items)))

	s.logger.Debug("Recommendation served",
		zap.Int("query_bytes", len(text)),
		zap.String("tier", tier.String()),
		zap.Int("items", len(rec.Items)),
		zap.Bool("balanced", rec.Balanced),
		zap.Bool("shortfall", rec.Shortfall),
		zap.Any("signals", in.Signals()),
		zap.Duration("took", time.Since(start)),
	)
	return rec, nil
}

// Analyze validates query and returns its intent without ranking.
func (s *Service) Analyze(query string) (intent.Intent, error) {
	text, err := s.validate(query)
	if err != nil {
		return intent.Intent{}, err
	}
	return s.deps.Analyzer.Analyze(text), nil
}

// Catalog returns up to limit assessments in catalog order. limit <= 0 returns all.
func (s *Service) Catalog(limit int) []assessment.Record {
	return s.deps.Catalog.List(limit)
}

// CatalogSize returns the number of loaded assessments.
func (s *Service) CatalogSize() int { return s.deps.Catalog.Len() }

func (s *Service) validate(query string) (string, error) {
	text := strings.TrimSpace(query)
	if utf8.RuneCountInString(text) < s.minLen {
		return "", domain.NewValidationError(fmt.Sprintf("query must be at least %d characters", s.minLen))
	}
	if len(text) > s.maxLen {
		return "", domain.NewValidationError(fmt.Sprintf("query must be at most %d bytes", s.maxLen))
	}
	return text, nil
}

// resolve replaces a job description URL with its page text.
// On failure the literal input is used.
func (s *Service) resolve(ctx context.Context, text string) string {
	if s.deps.Extractor == nil || !s.deps.Extractor.Accepts(text) {
		return text
	}
	ctx, span := tracer.Start(ctx, "recommend.Extract")
	defer span.End()

	body, err := s.deps.Extractor.Extract(ctx, text)
	if err != nil {
		metrics.QueryExtractionTotal.WithLabelValues("failed").Inc()
		span.RecordError(err)
		s.logger.Warn("Job description extraction failed, using the URL as query",
			zap.String("url", text),
			zap.Error(err),
		)
		return text
	}
	metrics.QueryExtractionTotal.WithLabelValues("ok").Inc()
	span.SetAttributes(attribute.Int("chars", utf8.RuneCountInString(body)))
	return s.jobDoc + body
}

// understand runs intent analysis and query embedding concurrently.
// Short queries are embedded with the enrichment prefix; the embedded text is returned.
func (s *Service) understand(ctx context.Context, text string) (intent.Intent, string, domain.Vector, error) {
	var (
		in  intent.Intent
		vec domain.Vector
	)
	embedText := text
	if s.deps.Analyzer.NeedsEnrichment(text) {
		embedText = s.enrich + text
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		in = s.deps.Analyzer.Analyze(text)
		return nil
	})
	g.Go(func() error {
		ectx, span := tracer.Start(gctx, "recommend.Embed")
		defer span.End()
		vec = s.deps.Embedder.Embed(ectx, embedText)
		span.SetAttributes(attribute.String("tier", vec.Tier.String()), attribute.Int("dimensions", vec.Dim()))
		return nil
	})
	if err := g.Wait(); err != nil {
		return intent.Intent{}, "", domain.Vector{}, err
	}
	if err := ctx.Err(); err != nil {
		return intent.Intent{}, "", domain.Vector{}, fmt.Errorf("understand query: %w", err)
	}
	return in, embedText, vec, nil
}

func (s *Service) rank(ctx context.Context, text string, vec domain.Vector) ([]recommendation.Candidate, domain.Tier, error) {
	ctx, span := tracer.Start(ctx, "recommend.Rank", trace.WithAttributes(attribute.String("tier", vec.Tier.String())))
	defer span.End()

	candidates, tier, err := s.deps.Ranker.Rank(ctx, text, vec)
	if err != nil {
		span.RecordError(err)
		return nil, tier, fmt.Errorf("rank catalog: %w", err)
	}
	span.SetAttributes(attribute.String("ranked_tier", tier.String()), attribute.Int("candidates", len(candidates)))
	return candidates, tier, nil
}

func (s *Service) fail(span trace.Span, err error) (recommendation.Recommendation, error) {
	metrics.RecommendRequestsTotal.WithLabelValues("error").Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.logger.Error("Recommendation failed", zap.Error(err))
	return recommendation.Recommendation{}, err
}
