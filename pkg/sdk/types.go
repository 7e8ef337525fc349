package assessmatch

import (
	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
	domintent "github.com/kailas-cloud/assessmatch/internal/domain/intent"
)

// Assessment is a catalog entry, optionally scored against a query.
type Assessment struct {
	ID              string   `json:"id"`
	URL             string   `json:"url"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	TestTypes       []string `json:"test_types"`
	DurationMinutes int      `json:"duration_minutes"`
	Adaptive        bool     `json:"adaptive"`
	Remote          bool     `json:"remote"`
	Score           float64  `json:"score,omitempty"` // cosine similarity; 0 outside Recommend
	Rank            int      `json:"rank,omitempty"`  // 1-based similarity rank; 0 outside Recommend
}

// Intent is the keyword classification of a query.
type Intent struct {
	Signals         []string            `json:"signals"`
	Terms           map[string][]string `json:"terms"`   // matched vocabulary per signal
	Domains         []string            `json:"domains"` // categories the result is balanced across
	RequiresBalance bool                `json:"requires_balance"`
	Level           string              `json:"level"`
	Tokens          int                 `json:"tokens"`
	NeedsEnrichment bool                `json:"needs_enrichment"`
}

// Result is the answer to one query.
type Result struct {
	Assessments []Assessment `json:"assessments"`
	Intent      Intent       `json:"intent"`
	Tier        string       `json:"tier"` // embedding tier that served the query
	Balanced    bool         `json:"balanced"`
	Shortfall   bool         `json:"shortfall"` // catalog smaller than the minimum result count
}

func toAssessment(r assessment.Record) Assessment {
	return Assessment{
		ID:              r.ID(),
		URL:             r.URL(),
		Name:            r.Name(),
		Description:     r.Description(),
		Category:        string(r.Category()),
		TestTypes:       r.TestTypes(),
		DurationMinutes: r.DurationMinutes(),
		Adaptive:        r.Adaptive(),
		Remote:          r.Remote(),
	}
}

func toIntent(in domintent.Intent) Intent {
	out := Intent{
		Terms:           make(map[string][]string),
		RequiresBalance: in.RequiresBalance(),
		Level:           string(in.Level()),
		Tokens:          in.Tokens(),
		NeedsEnrichment: in.NeedsEnrichment(),
	}
	for _, s := range in.Signals() {
		out.Signals = append(out.Signals, string(s))
		out.Terms[string(s)] = in.Terms(s)
	}
	for _, d := range in.Domains() {
		out.Domains = append(out.Domains, string(d))
	}
	return out
}
