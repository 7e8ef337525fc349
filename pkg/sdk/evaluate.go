package assessmatch

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/assessmatch/internal/repository/evalset"
	"github.com/kailas-cloud/assessmatch/internal/usecase/evaluate"
)

// EvaluationResult is the outcome of one evaluated query.
type EvaluationResult struct {
	Query   string
	URLs    []string
	Labeled bool
	Recall  float64
	Err     error
}

// EvaluationReport summarises a Recall@K run over a query set.
type EvaluationReport struct {
	K          int
	Results    []EvaluationResult
	MeanRecall float64 // over labeled queries only
	Labeled    int
	Failed     int

	predictions []evalset.Prediction
}

// WritePredictions writes the Query,Assessment_url CSV for the run to path.
func (r EvaluationReport) WritePredictions(path string) error {
	if err := evalset.WritePredictionsFile(path, r.predictions); err != nil {
		return fmt.Errorf("assessmatch: %w", err)
	}
	return nil
}

// Evaluate runs every query in the file at path (JSON, YAML, CSV or plain text)
// and scores labeled ones with Recall@k. k <= 0 selects 10.
func (c *Client) Evaluate(ctx context.Context, path string, k int) (report EvaluationReport, err error) {
	start := time.Now()
	defer func() { c.obs.observe("evaluate", start, err) }()

	set, err := evalset.LoadFile(path)
	if err != nil {
		return EvaluationReport{}, fmt.Errorf("assessmatch: %w", err)
	}

	svc := evaluate.New(c.recSvc, &evaluate.Config{K: k, Logger: c.logger})
	rep, err := svc.Run(ctx, set)
	if err != nil {
		return EvaluationReport{}, fmt.Errorf("assessmatch: evaluate: %w", err)
	}

	report = EvaluationReport{
		K:           rep.K,
		MeanRecall:  rep.MeanRecall,
		Labeled:     rep.Labeled,
		Failed:      rep.Failed,
		Results:     make([]EvaluationResult, len(rep.Results)),
		predictions: rep.Predictions(),
	}
	for i, r := range rep.Results {
		report.Results[i] = EvaluationResult(r)
	}
	return report, nil
}
