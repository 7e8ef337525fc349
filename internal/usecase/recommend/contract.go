package recommend

import (
	"context"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
	"github.com/kailas-cloud/assessmatch/internal/domain/intent"
	"github.com/kailas-cloud/assessmatch/internal/domain/recommendation"
	"github.com/kailas-cloud/assessmatch/internal/usecase/balance"
)

// Catalog lists the loaded assessments.
type Catalog interface {
	Len() int
	List(limit int) []assessment.Record
}

// IntentAnalyzer classifies a query.
type IntentAnalyzer interface {
	Analyze(query string) intent.Intent
	NeedsEnrichment(query string) bool
}

// QueryEmbedder vectorizes query text. It never fails.
type QueryEmbedder interface {
	Embed(ctx context.Context, text string) domain.Vector
}

// Ranker orders the catalog by similarity to a query vector.
type Ranker interface {
	Rank(ctx context.Context, text string, query domain.Vector) ([]recommendation.Candidate, domain.Tier, error)
}

// Balancer picks the final, category-balanced items.
type Balancer interface {
	Balance(candidates []recommendation.Candidate, in intent.Intent) balance.Selection
}

// TextExtractor resolves a job description URL to plain text.
type TextExtractor interface {
	Accepts(input string) bool
	Extract(ctx context.Context, url string) (string, error)
}
