package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_Idempotent(t *testing.T) {
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()
	RegisterRecommendMetrics()
	RegisterRecommendMetrics()

	EmbeddingCacheTotal.WithLabelValues("fallback", "hit").Inc()
	if v := testutil.ToFloat64(EmbeddingCacheTotal.WithLabelValues("fallback", "hit")); v < 1 {
		t.Errorf("expected cache hit counter >= 1, got %f", v)
	}
}
