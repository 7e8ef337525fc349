package assessment

import (
	"errors"
	"fmt"
	"strings"
)

// Category is the closed set of assessment categories used for balancing.
type Category string

const (
	// KnowledgeSkills covers technical knowledge and skill tests.
	KnowledgeSkills Category = "Knowledge & Skills"
	// PersonalityBehavior covers personality, behavioral and situational tests.
	PersonalityBehavior Category = "Personality & Behavior"
	// Cognitive covers ability and aptitude tests.
	Cognitive Category = "Cognitive"
	// Other is everything that fits none of the above.
	Other Category = "Other"
)

// ParseCategory maps a free-form label onto the closed category set.
// Unknown labels map to Other.
func ParseCategory(label string) Category {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case l == "":
		return Other
	case strings.Contains(l, "knowledge"):
		return KnowledgeSkills
	case strings.Contains(l, "personality"), strings.Contains(l, "behavio"),
		strings.Contains(l, "situational"), strings.Contains(l, "competenc"):
		return PersonalityBehavior
	case strings.Contains(l, "cognitive"), strings.Contains(l, "ability"),
		strings.Contains(l, "aptitude"), strings.Contains(l, "reasoning"):
		return Cognitive
	case strings.Contains(l, "skill"), l == "technical":
		return KnowledgeSkills
	default:
		return Other
	}
}

// InferCategory picks a category from test-type tags when the record carries none.
func InferCategory(testTypes []string) Category {
	counts := make(map[Category]int, 3)
	for _, tt := range testTypes {
		switch c := ParseCategory(tt); c {
		case KnowledgeSkills, PersonalityBehavior, Cognitive:
			counts[c]++
		}
	}
	best, bestN := Other, 0
	for _, c := range []Category{KnowledgeSkills, PersonalityBehavior, Cognitive} {
		if counts[c] > bestN {
			best, bestN = c, counts[c]
		}
	}
	return best
}

// Record is a catalog assessment (immutable value object).
type Record struct {
	id              string
	url             string
	name            string
	description     string
	category        Category
	durationMinutes int
	adaptive        bool
	remote          bool
	testTypes       []string
}

// Params groups the fields accepted by New.
type Params struct {
	ID              string
	URL             string
	Name            string
	Description     string
	Category        Category
	DurationMinutes int
	Adaptive        bool
	Remote          bool
	TestTypes       []string
}

// New validates and creates a Record.
// URL, name and ID are required, duration must be non-negative and at least one test type is needed.
func New(p Params) (Record, error) {
	if strings.TrimSpace(p.ID) == "" {
		return Record{}, errors.New("assessment id is required")
	}
	if strings.TrimSpace(p.URL) == "" {
		return Record{}, errors.New("assessment url is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return Record{}, errors.New("assessment name is required")
	}
	if p.DurationMinutes < 0 {
		return Record{}, fmt.Errorf("duration must be non-negative, got %d", p.DurationMinutes)
	}

	types := make([]string, 0, len(p.TestTypes))
	seen := make(map[string]bool, len(p.TestTypes))
	for _, tt := range p.TestTypes {
		tt = strings.TrimSpace(tt)
		if tt == "" || seen[tt] {
			continue
		}
		seen[tt] = true
		types = append(types, tt)
	}
	if len(types) == 0 {
		return Record{}, errors.New("at least one test type is required")
	}

	cat := p.Category
	switch cat {
	case KnowledgeSkills, PersonalityBehavior, Cognitive, Other:
	case "":
		cat = InferCategory(types)
	default:
		cat = ParseCategory(string(cat))
	}

	return Record{
		id:              p.ID,
		url:             strings.TrimSpace(p.URL),
		name:            strings.TrimSpace(p.Name),
		description:     strings.TrimSpace(p.Description),
		category:        cat,
		durationMinutes: p.DurationMinutes,
		adaptive:        p.Adaptive,
		remote:          p.Remote,
		testTypes:       types,
	}, nil
}

// ID returns the record identifier.
func (r Record) ID() string { return r.id }

// URL returns the canonical assessment URL.
func (r Record) URL() string { return r.url }

// Name returns the display name.
func (r Record) Name() string { return r.name }

// Description returns the free-text description.
func (r Record) Description() string { return r.description }

// Category returns the balancing category.
func (r Record) Category() Category { return r.category }

// DurationMinutes returns the assessment length.
func (r Record) DurationMinutes() int { return r.durationMinutes }

// Adaptive reports adaptive/IRT support.
func (r Record) Adaptive() bool { return r.adaptive }

// Remote reports remote testing support.
func (r Record) Remote() bool { return r.remote }

// TestTypes returns a copy of the test-type tags.
func (r Record) TestTypes() []string {
	out := make([]string, len(r.testTypes))
	copy(out, r.testTypes)
	return out
}

// EmbeddingText is the text embedded for similarity search.
func (r Record) EmbeddingText() string {
	var b strings.Builder
	b.WriteString(r.name)
	if r.description != "" {
		b.WriteString(". ")
		b.WriteString(r.description)
	}
	b.WriteString(". Category: ")
	b.WriteString(string(r.category))
	b.WriteString(". Test types: ")
	b.WriteString(strings.Join(r.testTypes, ", "))
	return b.String()
}
