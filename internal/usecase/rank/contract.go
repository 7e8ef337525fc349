package rank

import (
	"context"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
)

// Catalog provides the records being ranked and their embedding texts.
type Catalog interface {
	All() []assessment.Record
	Texts() []string
}

// BatchTierEmbedder embeds catalog texts at one specific tier.
type BatchTierEmbedder interface {
	EmbedBatchAt(ctx context.Context, texts []string, tier domain.Tier) ([]domain.Vector, error)
}

// TierWalker re-embeds a query starting at a lower tier.
type TierWalker interface {
	Next(t domain.Tier) (domain.Tier, bool)
	EmbedFrom(ctx context.Context, text string, from domain.Tier) domain.Vector
}
