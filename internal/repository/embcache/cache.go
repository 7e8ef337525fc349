package embcache

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kailas-cloud/assessmatch/internal/domain"
)

// ComputeFunc produces a vector on a cache miss.
type ComputeFunc func(ctx context.Context) ([]float32, error)

// Cache is a process-wide embedding cache keyed by (tier, sha256(text)).
// Entries never expire; the key space is bounded by catalog size plus distinct queries.
// Safe for concurrent use. Concurrent misses on one key share a single computation.
type Cache struct {
	store      *gocache.Cache
	group      singleflight.Group
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates an empty cache.
// cacheTotal is a counter vec with labels "tier" and "result" ("hit"/"miss"), passed explicitly.
func New(cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{
		store:      gocache.New(gocache.NoExpiration, 0),
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Get returns a copy of the cached vector.
func (c *Cache) Get(tier domain.Tier, text string) ([]float32, bool) {
	key := cacheKey(tier, text)
	raw, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	data, ok := raw.([]byte)
	if !ok || len(data) == 0 {
		return nil, false
	}
	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached embedding", zap.String("key", key), zap.Error(err))
		c.store.Delete(key)
		return nil, false
	}
	return vec, true
}

// Put stores a whole vector. Last writer wins.
func (c *Cache) Put(tier domain.Tier, text string, vec []float32) {
	if len(vec) == 0 {
		return
	}
	c.store.Set(cacheKey(tier, text), vectorToCacheBytes(vec), gocache.NoExpiration)
}

// GetOrCompute returns the cached vector or runs fn once for all concurrent callers of the same key.
// Only successful results are stored. hit reports whether the value came from the cache.
func (c *Cache) GetOrCompute(
	ctx context.Context, tier domain.Tier, text string, fn ComputeFunc,
) (vec []float32, hit bool, err error) {
	if v, ok := c.Get(tier, text); ok {
		c.incCache(tier, "hit")
		return v, true, nil
	}
	c.incCache(tier, "miss")

	key := cacheKey(tier, text)
	res, err, _ := c.group.Do(key, func() (any, error) {
		if v, ok := c.Get(tier, text); ok {
			return v, nil
		}
		v, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		c.Put(tier, text, v)
		return v, nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("compute %s embedding: %w", tier, err)
	}

	shared, _ := res.([]float32)
	out := make([]float32, len(shared))
	copy(out, shared)
	return out, false, nil
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int { return c.store.ItemCount() }

// Flush drops every entry.
func (c *Cache) Flush() { c.store.Flush() }

func (c *Cache) incCache(tier domain.Tier, result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(tier.String(), result).Inc()
	}
}

func cacheKey(tier domain.Tier, text string) string {
	return tier.String() + ":" + domain.TextHash(text)
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
