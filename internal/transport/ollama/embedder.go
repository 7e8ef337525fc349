package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/metrics"
)

const (
	defaultBaseURL = "http://localhost:11434"
	defaultModel   = "nomic-embed-text"
	defaultTimeout = 30 * time.Second
	provider       = "ollama"
	maxErrorBody   = 4 << 10
)

// Embedder is the secondary-tier provider talking to a locally hosted Ollama server.
type Embedder struct {
	client  *http.Client
	baseURL string
	model   string
	logger  *zap.Logger
}

// Config holds the Ollama settings.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// NewEmbedder creates an Ollama embedding provider.
func NewEmbedder(cfg *Config) *Embedder {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Embedder{client: client, baseURL: baseURL, model: model, logger: logger}
}

// Provider returns the metrics label of the provider.
func (e *Embedder) Provider() string { return provider }

// Model returns the embedding model name.
func (e *Embedder) Model() string { return e.model }

// Embed implements domain.Embedder via POST /api/embeddings.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	body, err := json.Marshal(embedRequest{Model: e.model, Prompt: text})
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		e.recordError("transport")
		return domain.EmbeddingResult{}, fmt.Errorf("ollama request: %v: %w", err, domain.ErrEmbeddingProviderError)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		e.recordError("api_error")
		return domain.EmbeddingResult{}, fmt.Errorf("ollama error (status %d): %s: %w",
			resp.StatusCode, strings.TrimSpace(string(msg)), domain.ErrEmbeddingProviderError)
	}

	var out embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		e.recordError("decode")
		return domain.EmbeddingResult{}, fmt.Errorf("decode response: %v: %w", err, domain.ErrEmbeddingProviderError)
	}
	if len(out.Embedding) == 0 {
		e.recordError("empty_response")
		return domain.EmbeddingResult{}, fmt.Errorf("empty ollama embedding: %w", domain.ErrEmbeddingProviderError)
	}

	vec := make([]float32, len(out.Embedding))
	for i, v := range out.Embedding {
		vec[i] = float32(v)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider, e.model).Observe(time.Since(start).Seconds())

	return domain.EmbeddingResult{Embedding: vec}, nil
}

// HealthCheck pings /api/tags, which does not run inference.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+"/api/tags", http.NoBody)
	if err != nil {
		return fmt.Errorf("create ping request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama ping: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama ping: status %d", resp.StatusCode)
	}
	return nil
}

func (e *Embedder) recordError(kind string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.model, kind).Inc()
}
