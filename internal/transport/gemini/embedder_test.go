package gemini

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"google.golang.org/genai"

	"github.com/kailas-cloud/assessmatch/internal/domain"
)

func TestNewEmbedder_RequiresAPIKey(t *testing.T) {
	if _, err := NewEmbedder(context.Background(), &Config{APIKey: "  "}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestNewEmbedder_DefaultModel(t *testing.T) {
	emb, err := NewEmbedder(context.Background(), &Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if emb.Model() != defaultModel {
		t.Errorf("expected model %q, got %q", defaultModel, emb.Model())
	}
	if emb.Provider() != "gemini" {
		t.Errorf("unexpected provider %q", emb.Provider())
	}
}

func TestBatchEmbed_Empty(t *testing.T) {
	emb, err := NewEmbedder(context.Background(), &Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	res, err := emb.BatchEmbed(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Embeddings != nil {
		t.Errorf("expected nil embeddings, got %v", res.Embeddings)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", genai.APIError{Code: http.StatusUnauthorized, Message: "bad key"}, domain.ErrEmbeddingAuth},
		{"forbidden", genai.APIError{Code: http.StatusForbidden}, domain.ErrEmbeddingAuth},
		{"rate limited", genai.APIError{Code: http.StatusTooManyRequests}, domain.ErrRateLimited},
		{"server error", genai.APIError{Code: http.StatusInternalServerError}, domain.ErrEmbeddingProviderError},
		{"transport", errors.New("connection reset"), domain.ErrEmbeddingProviderError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyError(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("classifyError() = %v, want %v", got, tt.want)
			}
		})
	}
}
