package rank

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/metrics"
)

const (
	defaultConcurrency = 4
	defaultChunkSize   = 64
)

// IndexConfig holds catalog index settings.
type IndexConfig struct {
	Concurrency int // parallel embedding calls while indexing
	ChunkSize   int // texts per embedding call
	Logger      *zap.Logger
}

// Index holds the catalog vectors for each tier, computed on first use
// and kept for the process lifetime. Failed tiers are retried on the next call.
type Index struct {
	catalog  Catalog
	embedder BatchTierEmbedder
	conc     int
	chunk    int
	logger   *zap.Logger

	group singleflight.Group
	mu    sync.RWMutex
	tiers map[domain.Tier][][]float32
}

// NewIndex creates an Index over catalog.
func NewIndex(catalog Catalog, embedder BatchTierEmbedder, cfg *IndexConfig) *Index {
	if cfg == nil {
		cfg = &IndexConfig{}
	}
	idx := &Index{
		catalog:  catalog,
		embedder: embedder,
		conc:     cfg.Concurrency,
		chunk:    cfg.ChunkSize,
		logger:   cfg.Logger,
		tiers:    make(map[domain.Tier][][]float32),
	}
	if idx.conc <= 0 {
		idx.conc = defaultConcurrency
	}
	if idx.chunk <= 0 {
		idx.chunk = defaultChunkSize
	}
	if idx.logger == nil {
		idx.logger = zap.NewNop()
	}
	return idx
}

// Vectors returns the catalog vectors at tier, aligned with Catalog.All.
func (x *Index) Vectors(ctx context.Context, tier domain.Tier) ([][]float32, error) {
	x.mu.RLock()
	vecs, ok := x.tiers[tier]
	x.mu.RUnlock()
	if ok {
		return vecs, nil
	}

	// The shared build outlives any single caller: a canceled request leaves
	// early but does not fail the build for the others waiting on it.
	buildCtx := context.WithoutCancel(ctx)
	ch := x.group.DoChan(tier.String(), func() (any, error) {
		x.mu.RLock()
		vecs, ok := x.tiers[tier]
		x.mu.RUnlock()
		if ok {
			return vecs, nil
		}

		vecs, err := x.build(buildCtx, tier)
		if err != nil {
			return nil, err
		}

		x.mu.Lock()
		x.tiers[tier] = vecs
		x.mu.Unlock()
		metrics.CatalogIndexedTiers.WithLabelValues(tier.String()).Set(1)
		x.logger.Info("Catalog indexed",
			zap.String("tier", tier.String()),
			zap.Int("assessments", len(vecs)),
			zap.Int("dimensions", len(vecs[0])),
		)
		return vecs, nil
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("index catalog at tier %s: %w", tier, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([][]float32), nil
	}
}

// Indexed reports whether tier has been embedded.
func (x *Index) Indexed(tier domain.Tier) bool {
	x.mu.RLock()
	defer x.mu.RUnlock()
	_, ok := x.tiers[tier]
	return ok
}

// Warm embeds the catalog at every tier concurrently. Failures are logged, not returned.
func (x *Index) Warm(ctx context.Context, tiers []domain.Tier) {
	var g errgroup.Group
	for _, t := range tiers {
		g.Go(func() error {
			if _, err := x.Vectors(ctx, t); err != nil {
				x.logger.Warn("Catalog warm-up failed",
					zap.String("tier", t.String()),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}

func (x *Index) build(ctx context.Context, tier domain.Tier) ([][]float32, error) {
	texts := x.catalog.Texts()
	if len(texts) == 0 {
		return nil, domain.ErrEmptyCatalog
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.conc)
	for start := 0; start < len(texts); start += x.chunk {
		end := min(start+x.chunk, len(texts))
		g.Go(func() error {
			vecs, err := x.embedder.EmbedBatchAt(gctx, texts[start:end], tier)
			if err != nil {
				return err
			}
			for i, v := range vecs {
				out[start+i] = v.Values
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("index catalog at tier %s: %w", tier, err)
	}

	dim := len(out[0])
	for i, v := range out {
		if len(v) != dim {
			return nil, fmt.Errorf("index catalog at tier %s: record %d has %d dimensions, want %d: %w",
				tier, i, len(v), dim, domain.ErrVectorDimMismatch)
		}
	}
	return out, nil
}
