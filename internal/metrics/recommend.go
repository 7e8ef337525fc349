package metrics

import "github.com/prometheus/client_golang/prometheus"

// Recommendation Prometheus metrics.
var (
	RecommendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_requests_total",
			Help:      "Recommendation requests by outcome",
		},
		[]string{"status"}, // ok, invalid, error
	)

	RecommendDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_duration_seconds",
			Help:      "Recommendation latency by embedding tier",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"tier"},
	)

	RecommendResultSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommend_result_size",
			Help:      "Number of assessments returned per request",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
	)

	RecommendBalancedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_balanced_total",
			Help:      "Requests by whether category balancing was applied",
		},
		[]string{"balanced"},
	)

	QueryExtractionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_extraction_total",
			Help:      "Job description URL extractions by outcome",
		},
		[]string{"status"},
	)

	CatalogAssessments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_assessments",
			Help:      "Assessments loaded into the catalog",
		},
	)

	CatalogIndexedTiers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_indexed",
			Help:      "1 when the catalog has been embedded at the tier",
		},
		[]string{"tier"},
	)
)

var recMetricsRegistered bool

// RegisterRecommendMetrics registers recommendation metrics. Must be called once from main.
func RegisterRecommendMetrics() {
	if recMetricsRegistered {
		return
	}
	prometheus.MustRegister(RecommendRequestsTotal)
	prometheus.MustRegister(RecommendDuration)
	prometheus.MustRegister(RecommendResultSize)
	prometheus.MustRegister(RecommendBalancedTotal)
	prometheus.MustRegister(QueryExtractionTotal)
	prometheus.MustRegister(CatalogAssessments)
	prometheus.MustRegister(CatalogIndexedTiers)
	recMetricsRegistered = true
}
