package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	calls  int
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) (EmbeddingResult, error) {
	s.calls++
	return s.result, s.err
}

type stubBatchEmbedder struct {
	stubEmbedder
	batchCalls int
}

func (s *stubBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	s.batchCalls++
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = s.result.Embedding
	}
	return BatchEmbeddingResult{Embeddings: out, TotalTokens: len(texts)}, nil
}

func TestTier_StringAndParse(t *testing.T) {
	for _, tier := range []Tier{TierPrimary, TierSecondary, TierFallback} {
		got, err := ParseTier(tier.String())
		if err != nil {
			t.Fatalf("ParseTier(%q): %v", tier.String(), err)
		}
		if got != tier {
			t.Errorf("ParseTier(%q) = %v, want %v", tier.String(), got, tier)
		}
	}
	if _, err := ParseTier("quaternary"); err == nil {
		t.Error("expected error for unknown tier")
	}
	if TierPrimary >= TierSecondary || TierSecondary >= TierFallback {
		t.Error("tiers must be ordered primary < secondary < fallback")
	}
}

func TestTextHash_Deterministic(t *testing.T) {
	a := TextHash("java developer")
	if a != TextHash("java developer") {
		t.Error("expected identical hash for identical text")
	}
	if a == TextHash("Java developer") {
		t.Error("expected different hash for different text")
	}
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
}

func TestBatchEmbed_UsesNativeBatch(t *testing.T) {
	inner := &stubBatchEmbedder{stubEmbedder: stubEmbedder{result: EmbeddingResult{Embedding: []float32{1}}}}

	res, err := BatchEmbed(context.Background(), inner, []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Embeddings) != 3 {
		t.Fatalf("expected 3 embeddings, got %d", len(res.Embeddings))
	}
	if inner.batchCalls != 1 || inner.calls != 0 {
		t.Errorf("expected 1 batch call and 0 single calls, got %d/%d", inner.batchCalls, inner.calls)
	}
}

func TestBatchEmbed_FallsBackToSingle(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{1}, TotalTokens: 2}}

	res, err := BatchEmbed(context.Background(), inner, []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 Embed calls, got %d", inner.calls)
	}
	if res.TotalTokens != 4 {
		t.Errorf("expected TotalTokens=4, got %d", res.TotalTokens)
	}
}

func TestBatchFallback_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	inner := &stubEmbedder{err: innerErr}

	_, err := BatchFallback(context.Background(), inner, []string{"a"})
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	err := NewValidationError("query too short")
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatal("expected errors.Is(err, ErrInvalidQuery)")
	}
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Reason != "query too short" {
		t.Errorf("unexpected validation error: %v", err)
	}
}
