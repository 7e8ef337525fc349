package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
	"github.com/kailas-cloud/assessmatch/internal/domain/intent"
	"github.com/kailas-cloud/assessmatch/internal/domain/recommendation"
	logpkg "github.com/kailas-cloud/assessmatch/internal/logger"
	"github.com/kailas-cloud/assessmatch/internal/metrics"
	"github.com/kailas-cloud/assessmatch/internal/usecase/health"
	"github.com/kailas-cloud/assessmatch/internal/version"
)

const (
	maxBodyBytes        = 1 << 20
	defaultListLimit    = 10
	headerEmbeddingTier = "X-Embedding-Tier"
	headerTokens        = "X-Embedding-Tokens"
)

// Recommender is the recommendation use case as seen by the transport.
type Recommender interface {
	Recommend(ctx context.Context, query string) (recommendation.Recommendation, error)
	Analyze(query string) (intent.Intent, error)
	Catalog(limit int) []assessment.Record
	CatalogSize() int
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the recommendation HTTP API.
type Server struct {
	rec           Recommender
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(rec Recommender, hc HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		rec:    rec,
		health: hc,
		logger: logger,
		errorHandlers: []errorHandler{
			validationHandler,
			sentinelHandler(domain.ErrEmptyCatalog, http.StatusServiceUnavailable, codeCatalogEmpty,
				"assessment catalog is empty"),
			sentinelHandler(context.DeadlineExceeded, http.StatusServiceUnavailable, codeUnavailable,
				"request timed out"),
		},
	}
}

// Router builds the chi router with the standard middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(s.logger))
	r.Use(Tracing())
	r.Use(metrics.Middleware("/metrics"))

	r.Get("/", s.Info)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Post("/recommend", s.Recommend)
	r.Get("/assessments", s.ListAssessments)
	r.Get("/analyze", s.Analyze)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeBadRequest, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
	return r
}

// Info handles GET /.
func (s *Server) Info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, infoResponse{
		Message: "Assessment Recommendation API",
		Version: version.Version,
		Endpoints: map[string]string{
			"health":      "GET /health",
			"recommend":   "POST /recommend",
			"assessments": "GET /assessments?limit=N",
			"analyze":     "GET /analyze?query=...",
			"metrics":     "GET /metrics",
		},
	})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == health.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthToResponse(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// Recommend handles POST /recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	rec, err := s.rec.Recommend(ctx, req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	items := make([]assessmentResponse, len(rec.Items))
	for i, it := range rec.Items {
		items[i] = assessmentToResponse(it.Record)
		score := it.Score
		items[i].Score = &score
	}

	w.Header().Set(headerEmbeddingTier, rec.Tier.String())
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, recommendResponse{RecommendedAssessments: items})
}

// ListAssessments handles GET /assessments.
func (s *Server) ListAssessments(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	var records []assessment.Record
	if limit > 0 {
		records = s.rec.Catalog(limit)
	}
	items := make([]assessmentResponse, len(records))
	for i, rec := range records {
		items[i] = assessmentToResponse(rec)
	}
	writeJSON(w, http.StatusOK, assessmentsResponse{Total: s.rec.CatalogSize(), Assessments: items})
}

// Analyze handles GET /analyze.
func (s *Server) Analyze(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	in, err := s.rec.Analyze(query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyzeResponse{Query: query, Intent: intentToResponse(in)})
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if tokens, _, used := usage.Snapshot(); used && tokens > 0 {
		w.Header().Set(headerTokens, strconv.Itoa(tokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// validationHandler reports the rejection reason of a ValidationError.
func validationHandler(w http.ResponseWriter, err error) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		if !errors.Is(err, domain.ErrInvalidQuery) {
			return false
		}
		writeError(w, http.StatusBadRequest, codeValidationFailed, domain.ErrInvalidQuery.Error())
		return true
	}
	writeError(w, http.StatusBadRequest, codeValidationFailed, ve.Reason)
	return true
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code, msg string) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("Request rejected", zap.Error(err))
			return
		}
	}
	log.Error("Internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
