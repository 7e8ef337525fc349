package evaluate

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/assessmatch/internal/domain/recommendation"
	"github.com/kailas-cloud/assessmatch/internal/repository/evalset"
)

const (
	// DefaultK is the recall cutoff.
	DefaultK           = 10
	defaultConcurrency = 4
)

// Recommender produces recommendations for a query.
type Recommender interface {
	Recommend(ctx context.Context, query string) (recommendation.Recommendation, error)
}

// Config holds evaluation settings. Zero values select defaults.
type Config struct {
	K           int
	Concurrency int
	Logger      *zap.Logger
}

// QueryResult is the outcome of one evaluated query.
type QueryResult struct {
	Query   string
	URLs    []string
	Labeled bool
	Recall  float64 // 0 when unlabeled
	Err     error
}

// Report summarises an evaluation run.
type Report struct {
	K          int
	Results    []QueryResult // same order as the input set
	MeanRecall float64       // over labeled queries only
	Labeled    int
	Failed     int
}

// Predictions returns the recommended URLs per query, for the predictions CSV.
func (r Report) Predictions() []evalset.Prediction {
	out := make([]evalset.Prediction, len(r.Results))
	for i, res := range r.Results {
		out[i] = evalset.Prediction{Query: res.Query, URLs: res.URLs}
	}
	return out
}

// Service runs a query set through a Recommender and scores it.
type Service struct {
	rec    Recommender
	k      int
	conc   int
	logger *zap.Logger
}

// New creates a Service.
func New(rec Recommender, cfg *Config) *Service {
	if cfg == nil {
		cfg = &Config{}
	}
	s := &Service{rec: rec, k: cfg.K, conc: cfg.Concurrency, logger: cfg.Logger}
	if s.k <= 0 {
		s.k = DefaultK
	}
	if s.conc <= 0 {
		s.conc = defaultConcurrency
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Run evaluates every query in set. A failed query is recorded, not fatal,
// and scores 0 when labeled. Run stops early only if ctx is canceled.
func (s *Service) Run(ctx context.Context, set evalset.Set) (Report, error) {
	results := make([]QueryResult, len(set.Queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.conc)
	for i, q := range set.Queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.evaluate(gctx, q, set.Labels[q])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	rep := Report{K: s.k, Results: results}
	var sum float64
	for _, r := range results {
		if r.Err != nil {
			rep.Failed++
		}
		if r.Labeled {
			rep.Labeled++
			sum += r.Recall
		}
	}
	if rep.Labeled > 0 {
		rep.MeanRecall = sum / float64(rep.Labeled)
	}
	s.logger.Info("Evaluation finished",
		zap.Int("queries", len(results)),
		zap.Int("labeled", rep.Labeled),
		zap.Int("failed", rep.Failed),
		zap.Float64("mean_recall", rep.MeanRecall),
		zap.Int("k", s.k),
	)
	return rep, nil
}

func (s *Service) evaluate(ctx context.Context, query string, labels []string) QueryResult {
	res := QueryResult{Query: query, Labeled: len(labels) > 0}
	rec, err := s.rec.Recommend(ctx, query)
	if err != nil {
		s.logger.Warn("Evaluation query failed", zap.String("query", query), zap.Error(err))
		res.Err = err
		return res
	}
	res.URLs = make([]string, len(rec.Items))
	for i, it := range rec.Items {
		res.URLs[i] = it.Record.URL()
	}
	if res.Labeled {
		res.Recall = RecallAtK(res.URLs, labels, s.k)
	}
	return res
}

// RecallAtK is the share of relevant URLs found in the first k predictions.
// URLs are compared ignoring surrounding space and a trailing slash.
// An empty relevant set scores 0.
func RecallAtK(predicted, relevant []string, k int) float64 {
	want := make(map[string]bool, len(relevant))
	for _, u := range relevant {
		if n := normalizeURL(u); n != "" {
			want[n] = true
		}
	}
	if len(want) == 0 {
		return 0
	}
	if k > 0 && len(predicted) > k {
		predicted = predicted[:k]
	}
	found := make(map[string]bool, len(predicted))
	for _, u := range predicted {
		if n := normalizeURL(u); want[n] {
			found[n] = true
		}
	}
	return float64(len(found)) / float64(len(want))
}

func normalizeURL(u string) string {
	return strings.TrimSuffix(strings.TrimSpace(u), "/")
}
