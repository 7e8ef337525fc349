package webpage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/kailas-cloud/assessmatch/internal/domain"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxChars     = 5000
	defaultMaxBodyBytes = 2 << 20
	defaultUserAgent    = "assessmatch/1.0"
)

// Elements whose text is never part of the readable page.
var skipped = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"head":     true,
	"template": true,
}

// Config holds the extractor settings.
type Config struct {
	Timeout      time.Duration
	MaxChars     int
	MaxBodyBytes int64
	UserAgent    string
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

// Extractor fetches a job description page and reduces it to plain text.
type Extractor struct {
	client       *http.Client
	maxChars     int
	maxBodyBytes int64
	userAgent    string
	logger       *zap.Logger
}

// New creates an Extractor.
func New(cfg *Config) *Extractor {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	maxChars := cfg.MaxChars
	if maxChars <= 0 {
		maxChars = defaultMaxChars
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{client: client, maxChars: maxChars, maxBodyBytes: maxBody, userAgent: ua, logger: logger}
}

// IsURL reports whether s is an absolute http(s) URL.
func IsURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Accepts reports whether input should be resolved through Extract.
func (e *Extractor) Accepts(input string) bool { return IsURL(input) }

// Extract downloads rawURL and returns its visible text, capped at MaxChars runes.
// Every failure wraps domain.ErrExtractionFailed.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (string, error) {
	if !IsURL(rawURL) {
		return "", fmt.Errorf("not an http(s) url: %w", domain.ErrExtractionFailed)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSpace(rawURL), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %v: %w", err, domain.ErrExtractionFailed)
	}
	req.Header.Set("User-Agent", e.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %v: %w", err, domain.ErrExtractionFailed)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch page: status %d: %w", resp.StatusCode, domain.ErrExtractionFailed)
	}

	body := io.LimitReader(resp.Body, e.maxBodyBytes)
	var text string
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		raw, rerr := io.ReadAll(body)
		if rerr != nil {
			return "", fmt.Errorf("read page: %v: %w", rerr, domain.ErrExtractionFailed)
		}
		text = collapse(string(raw))
	} else {
		text, err = visibleText(body)
		if err != nil {
			return "", fmt.Errorf("parse page: %v: %w", err, domain.ErrExtractionFailed)
		}
	}

	text = truncate(text, e.maxChars)
	if text == "" {
		return "", fmt.Errorf("page has no text: %w", domain.ErrExtractionFailed)
	}

	e.logger.Debug("job description extracted",
		zap.String("url", rawURL),
		zap.Int("chars", len([]rune(text))),
	)
	return text, nil
}

// visibleText walks the token stream and joins text nodes outside skipped elements.
func visibleText(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var b strings.Builder
	depth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return collapse(b.String()), nil
			}
			return "", z.Err()
		case html.StartTagToken:
			name, _ := z.TagName()
			if skipped[string(name)] {
				depth++
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if skipped[string(name)] && depth > 0 {
				depth--
			}
		case html.TextToken:
			if depth == 0 {
				b.Write(z.Text())
				b.WriteByte(' ')
			}
		}
	}
}

// collapse trims lines and joins all non-empty chunks with single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxChars int) string {
	r := []rune(s)
	if len(r) <= maxChars {
		return s
	}
	return strings.TrimSpace(string(r[:maxChars]))
}
