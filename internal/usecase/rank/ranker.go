package rank

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
	"github.com/kailas-cloud/assessmatch/internal/domain/recommendation"
)

// Ranker scores every catalog record against a query vector.
type Ranker struct {
	catalog Catalog
	index   *Index
	walker  TierWalker
	logger  *zap.Logger
}

// New creates a Ranker.
func New(catalog Catalog, index *Index, walker TierWalker, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{catalog: catalog, index: index, walker: walker, logger: logger}
}

// Rank returns all catalog records ordered by cosine similarity to query,
// best first. Ties keep catalog order.
//
// Scores are only computed between vectors of the same tier. When the catalog
// cannot be embedded at the query tier, text is re-embedded one tier lower and
// the ranking is retried. The returned tier is the one actually compared.
func (r *Ranker) Rank(ctx context.Context, text string, query domain.Vector) ([]recommendation.Candidate, domain.Tier, error) {
	records := r.catalog.All()
	if len(records) == 0 {
		return nil, query.Tier, domain.ErrEmptyCatalog
	}

	for {
		vecs, err := r.index.Vectors(ctx, query.Tier)
		if err == nil && len(vecs) > 0 && len(vecs[0]) != query.Dim() {
			err = fmt.Errorf("query has %d dimensions, catalog has %d: %w",
				query.Dim(), len(vecs[0]), domain.ErrVectorDimMismatch)
		}
		if err == nil {
			return score(records, vecs, query.Values), query.Tier, nil
		}
		if errors.Is(err, domain.ErrEmptyCatalog) {
			return nil, query.Tier, err
		}

		next, ok := r.walker.Next(query.Tier)
		if !ok {
			return nil, query.Tier, fmt.Errorf("rank at tier %s: %w", query.Tier, err)
		}
		r.logger.Warn("Ranking tier unavailable, re-embedding query",
			zap.String("tier", query.Tier.String()),
			zap.String("next", next.String()),
			zap.Error(err),
		)
		query = r.walker.EmbedFrom(ctx, text, next)
	}
}

func score(records []assessment.Record, vecs [][]float32, query []float32) []recommendation.Candidate {
	qNorm := norm(query)
	out := make([]recommendation.Candidate, len(records))
	for i, rec := range records {
		out[i] = recommendation.Candidate{Record: rec, Score: Cosine(query, vecs[i], qNorm)}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Cosine returns the cosine similarity of a and b. qNorm is the precomputed
// norm of a, or a negative value to compute it. Zero-magnitude vectors score 0.
func Cosine(a, b []float32, qNorm float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	if qNorm < 0 {
		qNorm = norm(a)
	}
	bNorm := norm(b)
	if qNorm == 0 || bNorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	s := dot / (qNorm * bNorm)
	// clamp rounding noise
	return math.Max(-1, math.Min(1, s))
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
