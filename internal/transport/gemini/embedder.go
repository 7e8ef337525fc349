package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/metrics"
)

const (
	defaultModel = "text-embedding-004"
	provider     = "gemini"
)

// Embedder is a primary-tier embedding provider backed by the Gemini API.
type Embedder struct {
	client     *genai.Client
	model      string
	dimensions int
	taskType   string
	logger     *zap.Logger
}

// Config holds the Gemini embedding settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	TaskType   string // e.g. SEMANTIC_SIMILARITY
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewEmbedder creates a Gemini embedding provider.
func NewEmbedder(ctx context.Context, cfg *Config) (*Embedder, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Embedder{
		client:     client,
		model:      model,
		dimensions: cfg.Dimensions,
		taskType:   cfg.TaskType,
		logger:     logger,
	}, nil
}

// Provider returns the metrics label of the provider.
func (e *Embedder) Provider() string { return provider }

// Model returns the embedding model name.
func (e *Embedder) Model() string { return e.model }

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.embed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{Embedding: res[0]}, nil
}

// BatchEmbed implements domain.BatchEmbedder with a single API call.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	res, err := e.embed(ctx, texts)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err
	}
	return domain.BatchEmbeddingResult{Embeddings: res}, nil
}

func (e *Embedder) embed(ctx context.Context, texts []string) ([][]float32, error) {
	contents := make([]*genai.Content, len(texts))
	for i, t := range texts {
		contents[i] = genai.NewContentFromText(t, genai.RoleUser)
	}

	cfg := &genai.EmbedContentConfig{TaskType: e.taskType}
	if e.dimensions > 0 {
		dims := int32(e.dimensions) //nolint:gosec // validated config value
		cfg.OutputDimensionality = &dims
	}

	start := time.Now()
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
	duration := time.Since(start)

	if err != nil {
		classified := classifyError(err)
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.model, "api_error").Inc()
		return nil, classified
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "error").Inc()
		metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.model, "empty_response").Inc()
		return nil, fmt.Errorf("gemini returned an incomplete embedding response: %w", domain.ErrEmbeddingProviderError)
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "error").Inc()
			metrics.EmbeddingErrorsTotal.WithLabelValues(provider, e.model, "empty_response").Inc()
			return nil, fmt.Errorf("empty gemini embedding at index %d: %w", i, domain.ErrEmbeddingProviderError)
		}
		out[i] = emb.Values
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(provider, e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(provider, e.model).Observe(duration.Seconds())

	return out, nil
}

// HealthCheck verifies the configured model is reachable.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	if _, err := e.client.Models.Get(ctx, e.model, nil); err != nil {
		return fmt.Errorf("get model %s: %w", e.model, classifyError(err))
	}
	return nil
}

// classifyError maps Gemini API failures onto domain sentinels.
func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("gemini API error %d: %s: %w", apiErr.Code, apiErr.Message, sentinelForStatus(apiErr.Code))
	}
	return fmt.Errorf("gemini request failed: %v: %w", err, domain.ErrEmbeddingProviderError)
}

func sentinelForStatus(code int) error {
	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrEmbeddingAuth
	case http.StatusTooManyRequests:
		return domain.ErrRateLimited
	default:
		return domain.ErrEmbeddingProviderError
	}
}
