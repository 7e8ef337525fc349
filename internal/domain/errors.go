package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuery signals a query rejected by input validation.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmptyCatalog signals that no assessments are available to rank.
	ErrEmptyCatalog = errors.New("empty catalog")
	// ErrInvalidCatalog signals a malformed catalog snapshot.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingAuth signals rejected provider credentials.
	ErrEmbeddingAuth = errors.New("embedding provider authentication failed")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrTierUnavailable signals that an embedding tier is not configured.
	ErrTierUnavailable = errors.New("embedding tier unavailable")

	// ErrExtractionFailed signals that text could not be pulled from a job description URL.
	ErrExtractionFailed = errors.New("text extraction failed")
)

// ValidationError wraps ErrInvalidQuery with the rejection reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidQuery.Error(), e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidQuery }

// NewValidationError creates a query validation error.
func NewValidationError(reason string) error {
	return &ValidationError{Reason: reason}
}
