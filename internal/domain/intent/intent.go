package intent

import (
	"sort"

	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
)

// Signal is a detected query domain.
type Signal string

const (
	// Technical marks programming, tooling or hard-skill vocabulary.
	Technical Signal = "technical"
	// Behavioral marks collaboration, communication or personality vocabulary.
	Behavioral Signal = "behavioral"
	// Cognitive marks reasoning, aptitude or problem-solving vocabulary.
	Cognitive Signal = "cognitive"
	// Seniority marks experience-level vocabulary. It carries no category.
	Seniority Signal = "seniority"
)

// Signals lists every signal in the fixed order used for balancing and output.
var Signals = []Signal{Technical, Behavioral, Cognitive, Seniority}

// Category returns the catalog category a signal maps to.
// ok is false for signals that do not select a category.
func (s Signal) Category() (assessment.Category, bool) {
	switch s {
	case Technical:
		return assessment.KnowledgeSkills, true
	case Behavioral:
		return assessment.PersonalityBehavior, true
	case Cognitive:
		return assessment.Cognitive, true
	default:
		return "", false
	}
}

// Level is the job seniority level detected in a query.
type Level string

const (
	// LevelGeneral is used when no seniority term matched.
	LevelGeneral Level = "general"
	// LevelJunior covers entry and graduate roles.
	LevelJunior Level = "junior"
	// LevelMid covers intermediate roles.
	LevelMid Level = "mid"
	// LevelSenior covers senior, lead and executive roles.
	LevelSenior Level = "senior"
)

// Intent is the lightweight classification of a query (immutable value object).
type Intent struct {
	signals         map[Signal][]string
	level           Level
	tokens          int
	needsEnrichment bool
}

// New creates an Intent from the matched terms per signal.
// Signals with no matched terms are dropped.
func New(matches map[Signal][]string, level Level, tokens int, needsEnrichment bool) Intent {
	signals := make(map[Signal][]string, len(matches))
	for s, terms := range matches {
		if len(terms) == 0 {
			continue
		}
		cp := make([]string, len(terms))
		copy(cp, terms)
		sort.Strings(cp)
		signals[s] = cp
	}
	if level == "" {
		level = LevelGeneral
	}
	return Intent{signals: signals, level: level, tokens: tokens, needsEnrichment: needsEnrichment}
}

// Has reports whether the signal was detected.
func (i Intent) Has(s Signal) bool {
	_, ok := i.signals[s]
	return ok
}

// Signals returns detected signals in the fixed order.
func (i Intent) Signals() []Signal {
	out := make([]Signal, 0, len(i.signals))
	for _, s := range Signals {
		if i.Has(s) {
			out = append(out, s)
		}
	}
	return out
}

// Terms returns the matched terms for a signal.
func (i Intent) Terms(s Signal) []string {
	terms := i.signals[s]
	out := make([]string, len(terms))
	copy(out, terms)
	return out
}

// RequiresBalance is true when a hard-skill domain (technical or cognitive)
// co-occurs with the behavioral domain.
func (i Intent) RequiresBalance() bool {
	return (i.Has(Technical) || i.Has(Cognitive)) && i.Has(Behavioral)
}

// Domains returns the categories to balance across, in signal order.
// Empty unless RequiresBalance.
func (i Intent) Domains() []assessment.Category {
	if !i.RequiresBalance() {
		return nil
	}
	var out []assessment.Category
	for _, s := range i.Signals() {
		if c, ok := s.Category(); ok {
			out = append(out, c)
		}
	}
	return out
}

// Level returns the detected seniority level.
func (i Intent) Level() Level { return i.level }

// Tokens returns the token count of the analyzed query.
func (i Intent) Tokens() int { return i.tokens }

// NeedsEnrichment reports a short query that should be prefixed before embedding.
func (i Intent) NeedsEnrichment() bool { return i.needsEnrichment }
