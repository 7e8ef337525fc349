package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	os.Exit(m.Run())
}

func TestEmbedder_Embed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "nomic-embed-text" || req.Prompt != "python developer" {
			t.Errorf("unexpected request body: %+v", req)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(embedResponse{Embedding: []float64{0.25, -0.5, 1}})
	}))
	defer server.Close()

	emb := NewEmbedder(&Config{BaseURL: server.URL + "/", Logger: zap.NewNop()})

	res, err := emb.Embed(context.Background(), "python developer")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	want := []float32{0.25, -0.5, 1}
	if len(res.Embedding) != len(want) {
		t.Fatalf("expected %d dims, got %d", len(want), len(res.Embedding))
	}
	for i := range want {
		if res.Embedding[i] != want[i] {
			t.Errorf("vec[%d] = %f, want %f", i, res.Embedding[i], want[i])
		}
	}
}

func TestEmbedder_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	emb := NewEmbedder(&Config{BaseURL: server.URL})

	_, err := emb.Embed(context.Background(), "hello")
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_EmptyEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[]}`))
	}))
	defer server.Close()

	emb := NewEmbedder(&Config{BaseURL: server.URL})

	if _, err := emb.Embed(context.Background(), "hello"); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	emb := NewEmbedder(&Config{BaseURL: url})

	if _, err := emb.Embed(context.Background(), "hello"); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbedder_HealthCheck(t *testing.T) {
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(status)
	}))
	defer server.Close()

	emb := NewEmbedder(&Config{BaseURL: server.URL})
	if err := emb.HealthCheck(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status = http.StatusServiceUnavailable
	if err := emb.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected error for unhealthy server")
	}
}
