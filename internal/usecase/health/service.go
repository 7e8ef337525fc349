package health

import (
	"context"
	"time"

	"github.com/kailas-cloud/assessmatch/internal/domain"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates an optional embedding tier is down; recommendations still work.
	Degraded Status = "degraded"
	// Unhealthy indicates recommendations cannot be served.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

const defaultPingTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status      Status
	Assessments int
	Checks      map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	catalog CatalogCounter
	tiers   TierPinger
	timeout time.Duration
}

// New creates a Service. tiers can be nil.
func New(catalog CatalogCounter, tiers TierPinger) *Service {
	return &Service{catalog: catalog, tiers: tiers, timeout: defaultPingTimeout}
}

// Check runs health checks against all components.
// Check names are "catalog" and "embedding_<tier>".
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	n := s.catalog.Len()
	if n > 0 {
		checks["catalog"] = CheckOK
	} else {
		checks["catalog"] = CheckError
	}

	if s.tiers != nil {
		for _, t := range s.tiers.Tiers() {
			pctx, cancel := context.WithTimeout(ctx, s.timeout)
			err := s.tiers.Ping(pctx, t)
			cancel()
			if err != nil {
				checks["embedding_"+t.String()] = CheckError
			} else {
				checks["embedding_"+t.String()] = CheckOK
			}
		}
	}

	status := Healthy
	switch {
	case checks["catalog"] == CheckError:
		status = Unhealthy
	case checks["embedding_"+domain.TierFallback.String()] == CheckError:
		status = Unhealthy
	default:
		for _, v := range checks {
			if v == CheckError {
				status = Degraded
				break
			}
		}
	}

	return Report{Status: status, Assessments: n, Checks: checks}
}
