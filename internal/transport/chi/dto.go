package chi

import (
	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
	"github.com/kailas-cloud/assessmatch/internal/domain/intent"
	"github.com/kailas-cloud/assessmatch/internal/usecase/health"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeCatalogEmpty     = "catalog_empty"
	codeUnavailable      = "embedding_unavailable"
	codeInternalError    = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type recommendRequest struct {
	Query string `json:"query"`
}

type assessmentResponse struct {
	URL             string   `json:"url"`
	Name            string   `json:"name"`
	AdaptiveSupport string   `json:"adaptive_support"`
	Description     string   `json:"description"`
	Duration        int      `json:"duration"`
	RemoteSupport   string   `json:"remote_support"`
	TestType        []string `json:"test_type"`
	Category        string   `json:"category,omitempty"`
	Score           *float64 `json:"score,omitempty"`
}

type recommendResponse struct {
	RecommendedAssessments []assessmentResponse `json:"recommended_assessments"`
}

type assessmentsResponse struct {
	Total       int                  `json:"total"`
	Assessments []assessmentResponse `json:"assessments"`
}

type intentResponse struct {
	Signals         []string            `json:"signals"`
	Terms           map[string][]string `json:"terms"`
	RequiresBalance bool                `json:"requires_balance"`
	Domains         []string            `json:"domains"`
	Level           string              `json:"level"`
	Tokens          int                 `json:"tokens"`
	NeedsEnrichment bool                `json:"needs_enrichment"`
}

type analyzeResponse struct {
	Query  string         `json:"query"`
	Intent intentResponse `json:"intent"`
}

type healthResponse struct {
	Status      string            `json:"status"`
	Assessments int               `json:"assessments"`
	Checks      map[string]string `json:"checks"`
}

type infoResponse struct {
	Message   string            `json:"message"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func assessmentToResponse(r assessment.Record) assessmentResponse {
	return assessmentResponse{
		URL:             r.URL(),
		Name:            r.Name(),
		AdaptiveSupport: yesNo(r.Adaptive()),
		Description:     r.Description(),
		Duration:        r.DurationMinutes(),
		RemoteSupport:   yesNo(r.Remote()),
		TestType:        r.TestTypes(),
		Category:        string(r.Category()),
	}
}

func intentToResponse(in intent.Intent) intentResponse {
	resp := intentResponse{
		Signals:         []string{},
		Terms:           make(map[string][]string),
		RequiresBalance: in.RequiresBalance(),
		Domains:         []string{},
		Level:           string(in.Level()),
		Tokens:          in.Tokens(),
		NeedsEnrichment: in.NeedsEnrichment(),
	}
	for _, s := range in.Signals() {
		resp.Signals = append(resp.Signals, string(s))
		resp.Terms[string(s)] = in.Terms(s)
	}
	for _, d := range in.Domains() {
		resp.Domains = append(resp.Domains, string(d))
	}
	return resp
}

func healthToResponse(r health.Report) healthResponse {
	checks := make(map[string]string, len(r.Checks))
	for k, v := range r.Checks {
		checks[k] = string(v)
	}
	return healthResponse{Status: string(r.Status), Assessments: r.Assessments, Checks: checks}
}
