package health

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/assessmatch/internal/domain"
)

// --- Mocks ---

type mockCatalog struct {
	n int
}

func (m *mockCatalog) Len() int { return m.n }

type mockTiers struct {
	tiers []domain.Tier
	errs  map[domain.Tier]error
}

func (m *mockTiers) Tiers() []domain.Tier { return m.tiers }

func (m *mockTiers) Ping(_ context.Context, t domain.Tier) error { return m.errs[t] }

func allTiers(errs map[domain.Tier]error) *mockTiers {
	return &mockTiers{
		tiers: []domain.Tier{domain.TierPrimary, domain.TierSecondary, domain.TierFallback},
		errs:  errs,
	}
}

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockCatalog{n: 29}, allTiers(nil))
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Assessments != 29 {
		t.Errorf("expected 29 assessments, got %d", r.Assessments)
	}
	for _, name := range []string{"catalog", "embedding_primary", "embedding_secondary", "embedding_fallback"} {
		if r.Checks[name] != CheckOK {
			t.Errorf("expected %s %q, got %q", name, CheckOK, r.Checks[name])
		}
	}
}

func TestCheck_OptionalTierDown(t *testing.T) {
	svc := New(&mockCatalog{n: 29}, allTiers(map[domain.Tier]error{
		domain.TierPrimary: errors.New("401"),
	}))
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["embedding_primary"] != CheckError {
		t.Errorf("expected primary %q, got %q", CheckError, r.Checks["embedding_primary"])
	}
	if r.Checks["embedding_secondary"] != CheckOK {
		t.Errorf("expected secondary %q, got %q", CheckOK, r.Checks["embedding_secondary"])
	}
}

func TestCheck_EmptyCatalog(t *testing.T) {
	svc := New(&mockCatalog{}, allTiers(nil))
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
	if r.Checks["catalog"] != CheckError {
		t.Error("expected catalog error")
	}
}

func TestCheck_FallbackDown(t *testing.T) {
	svc := New(&mockCatalog{n: 1}, allTiers(map[domain.Tier]error{
		domain.TierFallback: errors.New("impossible"),
	}))
	if r := svc.Check(context.Background()); r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_NoTiers(t *testing.T) {
	svc := New(&mockCatalog{n: 3}, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 {
		t.Errorf("expected only the catalog check, got %v", r.Checks)
	}
}
