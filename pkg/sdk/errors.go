package assessmatch

import "github.com/kailas-cloud/assessmatch/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrInvalidQuery           = domain.ErrInvalidQuery
	ErrEmptyCatalog           = domain.ErrEmptyCatalog
	ErrInvalidCatalog         = domain.ErrInvalidCatalog
	ErrVectorDimMismatch      = domain.ErrVectorDimMismatch
	ErrRateLimited            = domain.ErrRateLimited
	ErrEmbeddingAuth          = domain.ErrEmbeddingAuth
	ErrEmbeddingQuotaExceeded = domain.ErrEmbeddingQuotaExceeded
	ErrEmbeddingProviderError = domain.ErrEmbeddingProviderError
	ErrExtractionFailed       = domain.ErrExtractionFailed
)

// ValidationError carries the reason a query was rejected. It matches ErrInvalidQuery.
type ValidationError = domain.ValidationError
