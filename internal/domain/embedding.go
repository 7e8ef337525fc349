package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Tier identifies an embedding strategy. Lower values are preferred.
type Tier int

const (
	// TierPrimary is the external embedding API.
	TierPrimary Tier = iota
	// TierSecondary is the locally hosted model.
	TierSecondary
	// TierFallback is the deterministic feature-hashing embedder.
	TierFallback
)

// String returns the configuration name of the tier.
func (t Tier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierFallback:
		return "fallback"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// ParseTier converts a configuration name into a Tier.
func ParseTier(s string) (Tier, error) {
	switch s {
	case "primary":
		return TierPrimary, nil
	case "secondary":
		return TierSecondary, nil
	case "fallback":
		return TierFallback, nil
	default:
		return 0, fmt.Errorf("unknown embedding tier %q", s)
	}
}

// Vector is an embedding tagged with the tier that produced it.
// Vectors of different tiers live in different spaces and are never compared.
type Vector struct {
	Values []float32
	Tier   Tier
	Hash   string // sha256 of the source text
}

// Dim returns the vector dimensionality.
func (v Vector) Dim() int { return len(v.Values) }

// TextHash returns the hex sha256 digest used to identify embedded text.
func TextHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single API call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// BatchFallback calls Embed once per text. Used for providers without a native batch endpoint.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	embeddings := make([][]float32, len(texts))
	var totalPrompt, totalTokens int

	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		embeddings[i] = res.Embedding
		totalPrompt += res.PromptTokens
		totalTokens += res.TotalTokens
	}

	return BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

// BatchEmbed uses the native batch endpoint when e supports it.
func BatchEmbed(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	if be, ok := e.(BatchEmbedder); ok {
		res, err := be.BatchEmbed(ctx, texts)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("batch embed: %w", err)
		}
		return res, nil
	}
	return BatchFallback(ctx, e, texts)
}
