package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the assessmatch configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Recommend RecommendConfig `yaml:"recommend"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File       string `yaml:"file"`  // optional rotated log file, written in addition to stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// TracingConfig holds OpenTelemetry exporter settings.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"` // host:port of the OTLP/HTTP collector
	Insecure    bool    `yaml:"insecure"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CatalogConfig holds catalog snapshot settings.
type CatalogConfig struct {
	Path             string `yaml:"path"`
	IndexConcurrency int    `yaml:"index_concurrency"` // parallel embedding calls while indexing
	WarmUp           bool   `yaml:"warm_up"`           // embed the catalog at startup
}

// EmbeddingConfig holds the tiered embedding settings.
type EmbeddingConfig struct {
	Tiers     []string        `yaml:"tiers"` // order of preference; fallback is always appended
	Primary   PrimaryConfig   `yaml:"primary"`
	Secondary SecondaryConfig `yaml:"secondary"`
	Fallback  FallbackConfig  `yaml:"fallback"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit      int64   `yaml:"daily_token_limit"`       // 0 = unlimited
	MonthlyTokenLimit    int64   `yaml:"monthly_token_limit"`     // 0 = unlimited
	CostPerMillionTokens float64 `yaml:"cost_per_million_tokens"` // reported in logs only
	Action               string  `yaml:"action"`                  // "reject" | "warn" (default)
}

// PrimaryConfig holds the external embedding API settings.
type PrimaryConfig struct {
	Enabled          bool         `yaml:"enabled"`
	Provider         string       `yaml:"provider"` // openai (default), gemini
	APIKey           string       `yaml:"api_key"`
	BaseURL          string       `yaml:"base_url"`
	Model            string       `yaml:"model"`
	Dimensions       int          `yaml:"dimensions"`
	TimeoutSec       int          `yaml:"timeout_sec"`        // per attempt
	MaxRetries       int          `yaml:"max_retries"`        // 0 = default (2), negative disables retries
	BackoffInitialMs int          `yaml:"backoff_initial_ms"` // first retry delay
	RateLimitRPS     float64      `yaml:"rate_limit_rps"`     // 0 = unlimited
	RateLimitBurst   int          `yaml:"rate_limit_burst"`
	Budget           BudgetConfig `yaml:"budget"`
}

// SecondaryConfig holds the locally hosted model settings.
type SecondaryConfig struct {
	Enabled    bool   `yaml:"enabled"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// FallbackConfig holds the deterministic embedder settings.
type FallbackConfig struct {
	Dimensions int `yaml:"dimensions"`
}

// RecommendConfig holds recommendation window and query handling settings.
type RecommendConfig struct {
	MinResults           int              `yaml:"min_results"`
	MaxResults           int              `yaml:"max_results"`
	DefaultResults       int              `yaml:"default_results"`
	MinQueryLength       int              `yaml:"min_query_length"` // runes, after trimming
	MaxQueryBytes        int              `yaml:"max_query_bytes"`
	ShortQueryTokens     int              `yaml:"short_query_tokens"` // below this the query is enriched
	EnrichmentPrefix     string           `yaml:"enrichment_prefix"`
	JobDescriptionPrefix string           `yaml:"job_description_prefix"`
	Extraction           ExtractionConfig `yaml:"extraction"`
}

// ExtractionConfig holds job description URL fetching settings.
type ExtractionConfig struct {
	Enabled      bool   `yaml:"enabled"`
	TimeoutSec   int    `yaml:"timeout_sec"`
	MaxChars     int    `yaml:"max_chars"`
	MaxBodyBytes int64  `yaml:"max_body_bytes"`
	UserAgent    string `yaml:"user_agent"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(Path(env))
}

// Default returns the configuration used when no file is present.
func Default() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// Path returns the config file location for env, whether or not it exists.
func Path(env string) string {
	return findConfigPath(env)
}

// LoadFile reads configuration from an explicit YAML path.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes YAML bytes, expands env variables, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "data/catalog.json"
	}
	if c.Catalog.IndexConcurrency <= 0 {
		c.Catalog.IndexConcurrency = 4
	}
	c.applyEmbeddingDefaults()
	c.applyRecommendDefaults()
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 100
	}
	if c.Logging.MaxBackups <= 0 {
		c.Logging.MaxBackups = 5
	}
	if c.Logging.MaxAgeDays <= 0 {
		c.Logging.MaxAgeDays = 28
	}
	if c.Tracing.Endpoint == "" {
		c.Tracing.Endpoint = "localhost:4318"
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = "assessmatch"
	}
	if c.Tracing.SampleRate <= 0 {
		c.Tracing.SampleRate = 1
	}
}

func (c *Config) applyEmbeddingDefaults() {
	e := &c.Embedding
	if len(e.Tiers) == 0 {
		e.Tiers = []string{"primary", "secondary", "fallback"}
	}
	if e.Primary.Provider == "" {
		e.Primary.Provider = "openai"
	}
	if e.Primary.Model == "" {
		switch e.Primary.Provider {
		case "gemini":
			e.Primary.Model = "text-embedding-004"
		default:
			e.Primary.Model = "text-embedding-3-small"
		}
	}
	if e.Primary.TimeoutSec <= 0 {
		e.Primary.TimeoutSec = 10
	}
	switch {
	case e.Primary.MaxRetries == 0:
		e.Primary.MaxRetries = 2
	case e.Primary.MaxRetries < 0:
		e.Primary.MaxRetries = 0
	}
	if e.Primary.BackoffInitialMs <= 0 {
		e.Primary.BackoffInitialMs = 500
	}
	if e.Primary.RateLimitRPS > 0 && e.Primary.RateLimitBurst <= 0 {
		e.Primary.RateLimitBurst = 1
	}
	if e.Secondary.BaseURL == "" {
		e.Secondary.BaseURL = "http://localhost:11434"
	}
	if e.Secondary.Model == "" {
		e.Secondary.Model = "nomic-embed-text"
	}
	if e.Secondary.TimeoutSec <= 0 {
		e.Secondary.TimeoutSec = 30
	}
	if e.Fallback.Dimensions <= 0 {
		e.Fallback.Dimensions = 384
	}
}

func (c *Config) applyRecommendDefaults() {
	r := &c.Recommend
	if r.MinResults <= 0 {
		r.MinResults = 5
	}
	if r.MaxResults <= 0 {
		r.MaxResults = 10
	}
	if r.DefaultResults <= 0 {
		r.DefaultResults = r.MaxResults
	}
	if r.MinQueryLength <= 0 {
		r.MinQueryLength = 3
	}
	if r.MaxQueryBytes <= 0 {
		r.MaxQueryBytes = 20000
	}
	if r.ShortQueryTokens <= 0 {
		r.ShortQueryTokens = 5
	}
	if r.EnrichmentPrefix == "" {
		r.EnrichmentPrefix = "Find assessments for: "
	}
	if r.JobDescriptionPrefix == "" {
		r.JobDescriptionPrefix = "Job description: "
	}
	if r.Extraction.TimeoutSec <= 0 {
		r.Extraction.TimeoutSec = 10
	}
	if r.Extraction.MaxChars <= 0 {
		r.Extraction.MaxChars = 5000
	}
	if r.Extraction.MaxBodyBytes <= 0 {
		r.Extraction.MaxBodyBytes = 2 << 20
	}
	if r.Extraction.UserAgent == "" {
		r.Extraction.UserAgent = "assessmatch/1.0"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if err := c.validateEmbedding(); err != nil {
		return err
	}
	r := c.Recommend
	if r.MinResults > r.MaxResults {
		return fmt.Errorf("recommend.min_results (%d) must not exceed recommend.max_results (%d)",
			r.MinResults, r.MaxResults)
	}
	if r.DefaultResults < r.MinResults || r.DefaultResults > r.MaxResults {
		return fmt.Errorf("recommend.default_results must be between %d and %d, got %d",
			r.MinResults, r.MaxResults, r.DefaultResults)
	}
	if c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be in (0, 1], got %g", c.Tracing.SampleRate)
	}
	return nil
}

func (c *Config) validateEmbedding() error {
	seen := make(map[string]bool, len(c.Embedding.Tiers))
	for _, t := range c.Embedding.Tiers {
		switch t {
		case "primary", "secondary", "fallback":
		default:
			return fmt.Errorf("embedding.tiers: unknown tier %q", t)
		}
		if seen[t] {
			return fmt.Errorf("embedding.tiers: duplicate tier %q", t)
		}
		seen[t] = true
	}

	p := c.Embedding.Primary
	switch p.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("embedding.primary.provider must be \"openai\" or \"gemini\", got %q", p.Provider)
	}
	if p.Enabled && p.APIKey == "" {
		return fmt.Errorf("embedding.primary.api_key is required when the primary tier is enabled")
	}
	switch p.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf(
			"embedding.primary.budget.action must be \"warn\" or \"reject\", got %q",
			p.Budget.Action,
		)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
