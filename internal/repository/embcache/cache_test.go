package embcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessmatch/internal/domain"
)

func newTestCache(t *testing.T) (*Cache, *prometheus.CounterVec) {
	t.Helper()
	counter := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_cache_total"}, []string{"tier", "result"})
	return New(counter, zap.NewNop()), counter
}

func TestGetOrCompute_MissThenHit(t *testing.T) {
	c, counter := newTestCache(t)
	ctx := context.Background()
	calls := 0
	fn := func(context.Context) ([]float32, error) {
		calls++
		return []float32{0.1, 0.2, 0.3}, nil
	}

	vec, hit, err := c.GetOrCompute(ctx, domain.TierPrimary, "java developer", fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hit {
		t.Error("expected miss on first call")
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Fatalf("unexpected vector: %v", vec)
	}

	vec2, hit, err := c.GetOrCompute(ctx, domain.TierPrimary, "java developer", fn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hit {
		t.Error("expected hit on second call")
	}
	if calls != 1 {
		t.Errorf("expected 1 computation, got %d", calls)
	}
	for i := range vec {
		if vec[i] != vec2[i] {
			t.Fatalf("cache round-trip changed vector: %v vs %v", vec, vec2)
		}
	}

	if v := testutil.ToFloat64(counter.WithLabelValues("primary", "hit")); v != 1 {
		t.Errorf("expected 1 hit, got %f", v)
	}
	if v := testutil.ToFloat64(counter.WithLabelValues("primary", "miss")); v != 1 {
		t.Errorf("expected 1 miss, got %f", v)
	}
}

func TestGetOrCompute_TiersAreSeparate(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	c.Put(domain.TierPrimary, "sql", []float32{1, 0})

	if _, ok := c.Get(domain.TierFallback, "sql"); ok {
		t.Fatal("fallback lookup must not see primary vectors")
	}
	vec, hit, err := c.GetOrCompute(ctx, domain.TierFallback, "sql", func(context.Context) ([]float32, error) {
		return []float32{0, 1, 0}, nil
	})
	if err != nil || hit {
		t.Fatalf("expected fresh fallback computation, hit=%v err=%v", hit, err)
	}
	if len(vec) != 3 {
		t.Errorf("expected fallback vector, got %v", vec)
	}
}

func TestGetOrCompute_ErrorNotCached(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	boom := errors.New("provider down")

	_, _, err := c.GetOrCompute(ctx, domain.TierSecondary, "q", func(context.Context) ([]float32, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("failed computation must not be cached, len=%d", c.Len())
	}
}

func TestGetOrCompute_CollapsesConcurrentMisses(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	var calls atomic.Int32
	release := make(chan struct{})

	fn := func(context.Context) ([]float32, error) {
		calls.Add(1)
		<-release
		return []float32{0.5}, nil
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := c.GetOrCompute(ctx, domain.TierPrimary, "same text", fn); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 computation, got %d", n)
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	c, _ := newTestCache(t)
	c.Put(domain.TierFallback, "x", []float32{1, 2})

	v, _ := c.Get(domain.TierFallback, "x")
	v[0] = 99

	again, _ := c.Get(domain.TierFallback, "x")
	if again[0] != 1 {
		t.Error("cached vector must not be mutable through returned slice")
	}
}

func TestPut_IgnoresEmpty(t *testing.T) {
	c, _ := newTestCache(t)
	c.Put(domain.TierFallback, "x", nil)
	if c.Len() != 0 {
		t.Errorf("expected empty cache, got %d", c.Len())
	}
}

func TestBytesToVector_Invalid(t *testing.T) {
	if _, err := bytesToVector([]byte{1, 2, 3}); err == nil {
		t.Fatal("expected error for truncated data")
	}
}
