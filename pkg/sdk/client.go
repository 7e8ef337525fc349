package assessmatch

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
	domintent "github.com/kailas-cloud/assessmatch/internal/domain/intent"
	"github.com/kailas-cloud/assessmatch/internal/domain/recommendation"
	chitransport "github.com/kailas-cloud/assessmatch/internal/transport/chi"
)

// Internal interfaces for substitution in tests.
type recommendUseCase interface {
	Recommend(ctx context.Context, query string) (recommendation.Recommendation, error)
	Analyze(query string) (domintent.Intent, error)
	Catalog(limit int) []assessment.Record
	CatalogSize() int
}

type warmer interface {
	Warm(ctx context.Context, tiers []domain.Tier)
}

// Client is the assessmatch SDK entry point.
type Client struct {
	recSvc    recommendUseCase
	healthSvc healthUseCase
	warmer    warmer
	tiers     []domain.Tier
	logger    *zap.Logger
	obs       *observer

	warmCancel context.CancelFunc
	warmWG     sync.WaitGroup
	closeOnce  sync.Once
}

// New loads the catalog and wires the recommendation pipeline.
// The provided context is used to construct providers; it does not bound the Client lifetime.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o.apply(cfg)
	}

	resolved, err := resolveConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg.cfg = resolved

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	p, err := buildPipeline(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	c := &Client{
		recSvc:    p.recommend,
		healthSvc: p.health,
		warmer:    p.index,
		tiers:     p.chain.Tiers(),
		logger:    logger,
		obs:       obs,
	}
	if resolved.Catalog.WarmUp {
		c.startWarmUp()
	}
	return c, nil
}

// startWarmUp embeds the catalog for every tier in the background.
func (c *Client) startWarmUp() {
	ctx, cancel := context.WithCancel(context.Background())
	c.warmCancel = cancel
	c.warmWG.Add(1)
	go func() {
		defer c.warmWG.Done()
		start := time.Now()
		c.warmer.Warm(ctx, c.tiers)
		c.logger.Info("Catalog warm-up finished", zap.Duration("duration", time.Since(start)))
	}()
}

// Close stops a running warm-up and waits for it to exit. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		if c.warmCancel != nil {
			c.warmCancel()
		}
		c.warmWG.Wait()
	})
}

// Recommend answers a hiring query or job description URL with a ranked,
// category-balanced list of assessments.
// Invalid queries return an error matching ErrInvalidQuery.
func (c *Client) Recommend(ctx context.Context, query string) (res Result, err error) {
	start := time.Now()
	defer func() { c.obs.observe("recommend", start, err) }()

	rec, err := c.recSvc.Recommend(ctx, query)
	if err != nil {
		return Result{}, fmt.Errorf("assessmatch: recommend: %w", err)
	}

	res = Result{
		Assessments: make([]Assessment, len(rec.Items)),
		Intent:      toIntent(rec.Intent),
		Tier:        rec.Tier.String(),
		Balanced:    rec.Balanced,
		Shortfall:   rec.Shortfall,
	}
	for i, it := range rec.Items {
		a := toAssessment(it.Record)
		a.Score = it.Score
		a.Rank = it.Rank
		res.Assessments[i] = a
	}
	return res, nil
}

// Analyze classifies a query without ranking it.
func (c *Client) Analyze(query string) (in Intent, err error) {
	start := time.Now()
	defer func() { c.obs.observe("analyze", start, err) }()

	di, err := c.recSvc.Analyze(query)
	if err != nil {
		return Intent{}, fmt.Errorf("assessmatch: analyze: %w", err)
	}
	return toIntent(di), nil
}

// Assessments returns up to limit catalog entries in catalog order. limit <= 0 returns all.
func (c *Client) Assessments(limit int) []Assessment {
	if limit <= 0 {
		limit = c.recSvc.CatalogSize()
	}
	records := c.recSvc.Catalog(limit)
	out := make([]Assessment, len(records))
	for i, r := range records {
		out[i] = toAssessment(r)
	}
	return out
}

// Size returns the number of recommendable assessments.
func (c *Client) Size() int { return c.recSvc.CatalogSize() }

// Handler returns the HTTP API (the same one `assessmatch serve` exposes).
func (c *Client) Handler() http.Handler {
	return chitransport.NewServer(c.recSvc, c.healthSvc, c.logger).Router()
}
