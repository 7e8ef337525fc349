package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/metrics"
)

// RetryConfig bounds how long the primary tier may block before the chain falls through.
type RetryConfig struct {
	MaxRetries     int           // retries after the first attempt
	AttemptTimeout time.Duration // per attempt; 0 disables
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	RateLimit      float64 // requests per second; 0 disables
	RateBurst      int
}

// RetryingEmbedder retries transient provider failures with exponential backoff
// and throttles outgoing calls with a client-side token bucket.
// Auth failures and budget rejections are returned immediately.
type RetryingEmbedder struct {
	inner    domain.Embedder
	provider string
	cfg      RetryConfig
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// NewRetryingEmbedder wraps inner with the retry policy.
func NewRetryingEmbedder(inner domain.Embedder, provider string, cfg RetryConfig, logger *zap.Logger) *RetryingEmbedder {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 5 * time.Second
	}
	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryingEmbedder{inner: inner, provider: provider, cfg: cfg, limiter: limiter, logger: logger}
}

// Embed implements domain.Embedder.
func (r *RetryingEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	return retry(ctx, r, func(attemptCtx context.Context) (domain.EmbeddingResult, error) {
		return r.inner.Embed(attemptCtx, text)
	})
}

// BatchEmbed implements domain.BatchEmbedder. The whole batch is retried as a unit.
func (r *RetryingEmbedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	if len(texts) == 0 {
		return domain.BatchEmbeddingResult{}, nil
	}
	return retry(ctx, r, func(attemptCtx context.Context) (domain.BatchEmbeddingResult, error) {
		return domain.BatchEmbed(attemptCtx, r.inner, texts)
	})
}

// HealthCheck delegates to inner when it supports health checks.
func (r *RetryingEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := r.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func retry[T any](ctx context.Context, r *RetryingEmbedder, call func(context.Context) (T, error)) (T, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.cfg.InitialBackoff
	eb.MaxInterval = r.cfg.MaxBackoff

	attempt := 0
	op := func() (T, error) {
		attempt++
		var zero T
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return zero, backoff.Permanent(fmt.Errorf("rate limiter: %v: %w", err, domain.ErrRateLimited))
			}
		}

		attemptCtx, cancel := r.attemptContext(ctx)
		defer cancel()

		res, err := call(attemptCtx)
		if err == nil {
			return res, nil
		}
		if !retryable(ctx, err) {
			return zero, backoff.Permanent(err)
		}
		return zero, err
	}

	res, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(eb),
		backoff.WithMaxTries(uint(r.cfg.MaxRetries)+1), //nolint:gosec // clamped to >= 0
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(func(err error, next time.Duration) {
			metrics.EmbeddingRetriesTotal.WithLabelValues(r.provider).Inc()
			r.logger.Debug("Retrying embedding request",
				zap.String("provider", r.provider),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", next),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("%s: %d attempt(s): %w", r.provider, attempt, err)
	}
	return res, nil
}

func (r *RetryingEmbedder) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.cfg.AttemptTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.cfg.AttemptTimeout)
}

// retryable reports whether another attempt could succeed.
func retryable(parent context.Context, err error) bool {
	if parent.Err() != nil {
		return false
	}
	switch {
	case errors.Is(err, domain.ErrEmbeddingAuth),
		errors.Is(err, domain.ErrEmbeddingQuotaExceeded),
		errors.Is(err, domain.ErrVectorDimMismatch):
		return false
	default:
		return true
	}
}
