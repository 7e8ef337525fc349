package health

import (
	"context"

	"github.com/kailas-cloud/assessmatch/internal/domain"
)

// CatalogCounter reports how many assessments are loaded.
type CatalogCounter interface {
	Len() int
}

// TierPinger checks embedding tier availability.
type TierPinger interface {
	Tiers() []domain.Tier
	Ping(ctx context.Context, tier domain.Tier) error
}
