package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newRouter(skip ...string) *chi.Mux {
	r := chi.NewRouter()
	r.Use(Middleware(skip...))
	r.Get("/assessments", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/recommend", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})
	r.Get("/boom", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	r.Get("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	return r
}

func TestMiddleware_LabelsByRouteAndStatus(t *testing.T) {
	r := newRouter()

	tests := []struct {
		method string
		path   string
		status string
	}{
		{"GET", "/assessments", "200"},
		{"POST", "/recommend", "400"},
		{"GET", "/boom", "500"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status))
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(tc.method, tc.path, http.NoBody))
			after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(tc.method, tc.path, tc.status))
			if after-before != 1 {
				t.Errorf("expected requests_total to grow by 1, got %f", after-before)
			}
		})
	}

	if testutil.CollectAndCount(httpRequestDuration) == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
	if v := testutil.ToFloat64(httpRequestsInFlight); v != 0 {
		t.Errorf("in-flight gauge should return to 0, got %f", v)
	}
}

func TestMiddleware_UnmatchedRoute(t *testing.T) {
	r := newRouter()
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404"))

	for _, p := range []string{"/random/1", "/random/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", p, http.NoBody))
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", unmatchedRoute, "404"))
	if after-before != 2 {
		t.Errorf("expected both unknown paths under %q, got delta %f", unmatchedRoute, after-before)
	}
}

func TestMiddleware_SkipPaths(t *testing.T) {
	r := newRouter("/metrics")
	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/metrics", "200"))

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", http.NoBody))
	if rr.Code != http.StatusOK || rr.Body.Len() == 0 {
		t.Fatalf("skipped path must still be served, got %d", rr.Code)
	}

	if after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/metrics", "200")); after != before {
		t.Errorf("skipped path must not be counted")
	}
}

func TestRouteLabel_NoRouteContext(t *testing.T) {
	if got := routeLabel(httptest.NewRequest("GET", "/x", http.NoBody)); got != unmatchedRoute {
		t.Errorf("routeLabel() = %q, want %q", got, unmatchedRoute)
	}
}
