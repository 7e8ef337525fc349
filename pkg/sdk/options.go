package assessmatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessmatch/internal/config"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	configPath  string
	catalogPath string
	tiers       []string
	embedder    Embedder
	warmUp      *bool

	logger     *zap.Logger
	metricsReg prometheus.Registerer

	// cfg is set by New once the file (if any) is loaded and options are applied.
	cfg config.Config
}

// WithConfigFile loads settings from a YAML file in the server config format.
// Other options override the values read from it.
func WithConfigFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.configPath = path
	})
}

// WithCatalogFile sets the catalog snapshot path (JSON or YAML).
func WithCatalogFile(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.catalogPath = path
	})
}

// WithTiers sets the embedding tiers in order of preference:
// "primary", "secondary", "fallback". Fallback is always kept as the last tier.
func WithTiers(tiers ...string) Option {
	return optionFunc(func(c *clientConfig) {
		c.tiers = append([]string(nil), tiers...)
	})
}

// WithEmbedder installs e as the primary tier, replacing the configured provider.
// Budget, retry and rate limit settings of the primary tier still apply.
func WithEmbedder(e Embedder) Option {
	return optionFunc(func(c *clientConfig) {
		c.embedder = e
	})
}

// WithWarmUp controls whether the catalog is embedded for every tier at startup.
// Warm-up runs in the background; Close waits for it.
func WithWarmUp(enabled bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.warmUp = &enabled
	})
}

// WithLogger enables structured logging for SDK operations and the pipeline.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
