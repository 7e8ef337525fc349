package intent

import (
	"testing"

	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
)

func TestRequiresBalance(t *testing.T) {
	tests := []struct {
		name    string
		matches map[Signal][]string
		want    bool
	}{
		{"none", nil, false},
		{"technical only", map[Signal][]string{Technical: {"java"}}, false},
		{"behavioral only", map[Signal][]string{Behavioral: {"teamwork"}}, false},
		{"technical and behavioral", map[Signal][]string{Technical: {"java"}, Behavioral: {"collaborate"}}, true},
		{"cognitive and behavioral", map[Signal][]string{Cognitive: {"reasoning"}, Behavioral: {"leadership"}}, true},
		{"technical and cognitive", map[Signal][]string{Technical: {"sql"}, Cognitive: {"numerical"}}, false},
		{"seniority and behavioral", map[Signal][]string{Seniority: {"senior"}, Behavioral: {"teamwork"}}, false},
		{"empty term list ignored", map[Signal][]string{Technical: {}, Behavioral: {"teamwork"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := New(tt.matches, "", 6, false)
			if got := in.RequiresBalance(); got != tt.want {
				t.Errorf("RequiresBalance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDomains_FixedOrder(t *testing.T) {
	in := New(map[Signal][]string{
		Cognitive:  {"reasoning"},
		Behavioral: {"teamwork"},
		Technical:  {"java"},
		Seniority:  {"senior"},
	}, LevelSenior, 8, false)

	got := in.Domains()
	want := []assessment.Category{assessment.KnowledgeSkills, assessment.PersonalityBehavior, assessment.Cognitive}
	if len(got) != len(want) {
		t.Fatalf("Domains() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Domains()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDomains_EmptyWithoutBalance(t *testing.T) {
	in := New(map[Signal][]string{Technical: {"java"}}, "", 1, true)
	if d := in.Domains(); len(d) != 0 {
		t.Errorf("expected no domains, got %v", d)
	}
	if in.Level() != LevelGeneral {
		t.Errorf("expected default level %q, got %q", LevelGeneral, in.Level())
	}
	if !in.NeedsEnrichment() {
		t.Error("expected NeedsEnrichment")
	}
}

func TestTerms_Sorted(t *testing.T) {
	in := New(map[Signal][]string{Technical: {"sql", "java"}}, "", 2, false)
	terms := in.Terms(Technical)
	if len(terms) != 2 || terms[0] != "java" || terms[1] != "sql" {
		t.Errorf("unexpected terms: %v", terms)
	}
}
