package domain

import (
	"context"
	"sync"
)

type embeddingUsageKey struct{}

// EmbeddingUsage collects embedding activity for a single request.
// The handler puts a pointer into the context before calling the service;
// embedders record tokens and the tier that served the query; the handler
// reads it back for response headers.
type EmbeddingUsage struct {
	mu          sync.Mutex
	TotalTokens int
	Tier        Tier
	Used        bool // true if embedding was called, even on a cache hit with 0 tokens
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *EmbeddingUsage) {
	u := &EmbeddingUsage{}
	return context.WithValue(ctx, embeddingUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *EmbeddingUsage {
	u, _ := ctx.Value(embeddingUsageKey{}).(*EmbeddingUsage)
	return u
}

// AddTokens records consumed tokens.
func (u *EmbeddingUsage) AddTokens(n int) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.TotalTokens += n
	u.Used = true
	u.mu.Unlock()
}

// SetTier records the tier that produced the query vector.
func (u *EmbeddingUsage) SetTier(t Tier) {
	if u == nil {
		return
	}
	u.mu.Lock()
	u.Tier = t
	u.Used = true
	u.mu.Unlock()
}

// Snapshot returns tokens, tier and whether embedding ran.
func (u *EmbeddingUsage) Snapshot() (tokens int, tier Tier, used bool) {
	if u == nil {
		return 0, 0, false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.TotalTokens, u.Tier, u.Used
}
