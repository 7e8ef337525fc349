package recommend

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
	"github.com/kailas-cloud/assessmatch/internal/domain/intent"
	"github.com/kailas-cloud/assessmatch/internal/domain/recommendation"
	"github.com/kailas-cloud/assessmatch/internal/metrics"
	"github.com/kailas-cloud/assessmatch/internal/usecase/balance"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics()
	metrics.RegisterRecommendMetrics()
	m.Run()
}

// --- Mocks ---

type mockCatalog struct {
	records []assessment.Record
}

func (m *mockCatalog) Len() int { return len(m.records) }

func (m *mockCatalog) List(limit int) []assessment.Record {
	if limit <= 0 || limit > len(m.records) {
		limit = len(m.records)
	}
	return m.records[:limit]
}

type mockAnalyzer struct {
	mu       sync.Mutex
	analyzed []string
	short    bool
	result   intent.Intent
}

func (m *mockAnalyzer) Analyze(query string) intent.Intent {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyzed = append(m.analyzed, query)
	return m.result
}

func (m *mockAnalyzer) NeedsEnrichment(string) bool { return m.short }

type mockEmbedder struct {
	mu       sync.Mutex
	embedded []string
	tier     domain.Tier
}

func (m *mockEmbedder) Embed(_ context.Context, text string) domain.Vector {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.embedded = append(m.embedded, text)
	return domain.Vector{Values: []float32{1, 0}, Tier: m.tier}
}

type mockRanker struct {
	calls  int
	text   string
	rankFn func(ctx context.Context, text string, q domain.Vector) ([]recommendation.Candidate, domain.Tier, error)
}

func (m *mockRanker) Rank(ctx context.Context, text string, q domain.Vector) ([]recommendation.Candidate, domain.Tier, error) {
	m.calls++
	m.text = text
	if m.rankFn != nil {
		return m.rankFn(ctx, text, q)
	}
	return nil, q.Tier, nil
}

type mockBalancer struct {
	sel balance.Selection
}

func (m *mockBalancer) Balance([]recommendation.Candidate, intent.Intent) balance.Selection {
	return m.sel
}

type mockExtractor struct {
	text string
	err  error
}

func (m *mockExtractor) Accepts(input string) bool { return strings.HasPrefix(input, "https://") }

func (m *mockExtractor) Extract(context.Context, string) (string, error) { return m.text, m.err }

// --- Helpers ---

func record(t *testing.T, id string) assessment.Record {
	t.Helper()
	r, err := assessment.New(assessment.Params{
		ID: id, URL: "https://example.com/" + id, Name: id, TestTypes: []string{"Knowledge & Skills"},
	})
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	return r
}

type fixture struct {
	analyzer *mockAnalyzer
	embedder *mockEmbedder
	ranker   *mockRanker
	balancer *mockBalancer
	svc      *Service
}

func newFixture(t *testing.T, extractor TextExtractor) *fixture {
	t.Helper()
	f := &fixture{
		analyzer: &mockAnalyzer{},
		embedder: &mockEmbedder{tier: domain.TierSecondary},
		ranker:   &mockRanker{},
		balancer: &mockBalancer{},
	}
	deps := Deps{
		Catalog:  &mockCatalog{records: []assessment.Record{record(t, "a"), record(t, "b")}},
		Analyzer: f.analyzer,
		Embedder: f.embedder,
		Ranker:   f.ranker,
		Balancer: f.balancer,
	}
	if extractor != nil {
		deps.Extractor = extractor
	}
	svc, err := New(deps, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.svc = svc
	return f
}

// --- Tests ---

func TestNew_Errors(t *testing.T) {
	ok := Deps{
		Catalog:  &mockCatalog{records: []assessment.Record{record(t, "a")}},
		Analyzer: &mockAnalyzer{},
		Embedder: &mockEmbedder{},
		Ranker:   &mockRanker{},
		Balancer: &mockBalancer{},
	}

	empty := ok
	empty.Catalog = &mockCatalog{}
	if _, err := New(empty, nil); !errors.Is(err, domain.ErrEmptyCatalog) {
		t.Errorf("expected ErrEmptyCatalog, got %v", err)
	}

	missing := ok
	missing.Ranker = nil
	if _, err := New(missing, nil); err == nil {
		t.Error("expected error for missing ranker")
	}

	if _, err := New(ok, nil); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRecommend_Validation(t *testing.T) {
	tests := []struct {
		name  string
		query string
		valid bool
	}{
		{"two chars", "ab", false},
		{"padded two chars", "   ab \n", false},
		{"empty", "", false},
		{"three chars", "abc", true},
		{"three multibyte runes", "Ωψχ", true},
		{"too long", strings.Repeat("a", 20001), false},
		{"at limit", strings.Repeat("a", 20000), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			_, err := f.svc.Recommend(context.Background(), tt.query)

			if tt.valid {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, domain.ErrInvalidQuery) {
				t.Fatalf("expected ErrInvalidQuery, got %v", err)
			}
			var ve *domain.ValidationError
			if !errors.As(err, &ve) || ve.Reason == "" {
				t.Errorf("expected ValidationError with reason, got %v", err)
			}
			if f.ranker.calls != 0 || len(f.embedder.embedded) != 0 {
				t.Error("invalid query must not be embedded or ranked")
			}
		})
	}
}

func TestRecommend_AssemblesResult(t *testing.T) {
	f := newFixture(t, nil)
	in := intent.New(map[intent.Signal][]string{intent.Technical: {"java"}}, intent.LevelSenior, 6, false)
	f.analyzer.result = in
	items := []recommendation.Candidate{{Record: record(t, "a"), Score: 0.9, Rank: 1}}
	f.balancer.sel = balance.Selection{Items: items, Target: 10, Balanced: false, Shortfall: true}
	f.ranker.rankFn = func(_ context.Context, _ string, _ domain.Vector) ([]recommendation.Candidate, domain.Tier, error) {
		return items, domain.TierFallback, nil
	}

	rec, err := f.svc.Recommend(context.Background(), "  senior java developer with spring  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.Items) != 1 || rec.Items[0].Record.ID() != "a" {
		t.Errorf("unexpected items %v", rec.Items)
	}
	if rec.Tier != domain.TierFallback {
		t.Errorf("expected tier reported by ranker, got %s", rec.Tier)
	}
	if rec.Target != 10 || !rec.Shortfall || rec.Balanced {
		t.Errorf("unexpected flags %+v", rec)
	}
	if rec.Intent.Level() != intent.LevelSenior {
		t.Errorf("expected intent to be carried, got %s", rec.Intent.Level())
	}
	if f.analyzer.analyzed[0] != "senior java developer with spring" {
		t.Errorf("expected trimmed query, got %q", f.analyzer.analyzed[0])
	}
}

func TestRecommend_EnrichesShortQueries(t *testing.T) {
	f := newFixture(t, nil)
	f.analyzer.short = true

	if _, err := f.svc.Recommend(context.Background(), "developer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Find assessments for: developer"
	if f.embedder.embedded[0] != want {
		t.Errorf("expected embedded %q, got %q", want, f.embedder.embedded[0])
	}
	if f.ranker.text != want {
		t.Errorf("ranker must receive the embedded text, got %q", f.ranker.text)
	}
	if f.analyzer.analyzed[0] != "developer" {
		t.Errorf("analyzer must see the raw query, got %q", f.analyzer.analyzed[0])
	}
}

func TestRecommend_LongQueryNotEnriched(t *testing.T) {
	f := newFixture(t, nil)
	query := "Java developer who collaborates with business teams"

	if _, err := f.svc.Recommend(context.Background(), query); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.embedder.embedded[0] != query {
		t.Errorf("expected raw query embedded, got %q", f.embedder.embedded[0])
	}
}

func TestRecommend_URLExtraction(t *testing.T) {
	f := newFixture(t, &mockExtractor{text: "We need a Python engineer"})

	if _, err := f.svc.Recommend(context.Background(), "https://jobs.example.com/42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Job description: We need a Python engineer"
	if f.analyzer.analyzed[0] != want {
		t.Errorf("expected %q, got %q", want, f.analyzer.analyzed[0])
	}
}

func TestRecommend_URLExtractionFailureUsesLiteral(t *testing.T) {
	f := newFixture(t, &mockExtractor{err: domain.ErrExtractionFailed})
	url := "https://jobs.example.com/404"

	if _, err := f.svc.Recommend(context.Background(), url); err != nil {
		t.Fatalf("extraction failure must not fail the request: %v", err)
	}
	if f.analyzer.analyzed[0] != url {
		t.Errorf("expected literal url, got %q", f.analyzer.analyzed[0])
	}
}

func TestRecommend_NoExtractorUsesLiteral(t *testing.T) {
	f := newFixture(t, nil)
	url := "https://jobs.example.com/42"

	if _, err := f.svc.Recommend(context.Background(), url); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.analyzer.analyzed[0] != url {
		t.Errorf("expected literal url, got %q", f.analyzer.analyzed[0])
	}
}

func TestRecommend_RankError(t *testing.T) {
	f := newFixture(t, nil)
	f.ranker.rankFn = func(context.Context, string, domain.Vector) ([]recommendation.Candidate, domain.Tier, error) {
		return nil, domain.TierPrimary, domain.ErrEmptyCatalog
	}

	_, err := f.svc.Recommend(context.Background(), "java developer")
	if !errors.Is(err, domain.ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}
}

func TestRecommend_CanceledContext(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Recommend(ctx, "java developer")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if f.ranker.calls != 0 {
		t.Error("canceled request must not be ranked")
	}
}

func TestAnalyze(t *testing.T) {
	f := newFixture(t, nil)
	f.analyzer.result = intent.New(map[intent.Signal][]string{intent.Behavioral: {"team*"}}, "", 3, true)

	in, err := f.svc.Analyze(" teamwork skills ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !in.Has(intent.Behavioral) {
		t.Error("expected analyzer result")
	}
	if _, err := f.svc.Analyze("x"); !errors.Is(err, domain.ErrInvalidQuery) {
		t.Errorf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestCatalog(t *testing.T) {
	f := newFixture(t, nil)
	if got := f.svc.Catalog(1); len(got) != 1 || got[0].ID() != "a" {
		t.Errorf("unexpected catalog page %v", got)
	}
	if got := f.svc.Catalog(0); len(got) != 2 {
		t.Errorf("expected full catalog, got %d", len(got))
	}
	if f.svc.CatalogSize() != 2 {
		t.Errorf("expected size 2, got %d", f.svc.CatalogSize())
	}
}
