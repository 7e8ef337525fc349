package intent

import (
	"strings"
	"unicode"

	domintent "github.com/kailas-cloud/assessmatch/internal/domain/intent"
)

// DefaultShortQueryTokens is the token count below which a query needs enrichment.
const DefaultShortQueryTokens = 5

// Term syntax:
//
//	word     whole-token match
//	stem*    token-prefix match
//	a phrase substring match on the lower-cased, whitespace-collapsed text
//	c++      any term with punctuation is also a substring match
var defaultTerms = map[domintent.Signal][]string{
	domintent.Technical: {
		"java", "j2ee", "spring", "python", "django", "flask", "javascript", "js", "typescript",
		"react", "angular", "vue", "node", "sql", "database*", "mysql", "postgres*", "data",
		"analytics", "scientist", "cloud", "aws", "azure", "gcp", "devops", "kubernetes", "docker",
		".net", "c#", "dotnet", "c++", "cpp", "golang", "rust", "selenium", "qa",
		"technical", "coding", "programm*", "software", "develop*", "engineer*", "excel",
	},
	domintent.Behavioral: {
		"team*", "collaborat*", "work together", "leadership", "manag*", "supervis*",
		"communicat*", "presentation*", "interact*", "interpersonal", "stakeholder*",
		"customer*", "client*", "personality", "behavio*", "culture", "soft skill*",
		"motivat*", "empathy", "situational",
	},
	domintent.Cognitive: {
		"cognitive", "reasoning", "logical", "analytical", "numerical", "math*", "quantitative",
		"verbal", "aptitude", "abilit*", "problem solving", "problem-solving", "critical thinking",
		"inductive", "deductive",
	},
	domintent.Seniority: {
		"senior", "lead", "principal", "architect", "head of", "director",
		"mid", "mid-level", "intermediate",
		"junior", "entry", "entry-level", "graduate*", "intern*", "trainee",
	},
}

var levelTerms = []struct {
	level domintent.Level
	terms []string
}{
	{domintent.LevelSenior, []string{"senior", "lead", "principal", "architect", "head of", "director"}},
	{domintent.LevelMid, []string{"mid", "mid-level", "intermediate"}},
	{domintent.LevelJunior, []string{"junior", "entry", "entry-level", "graduate*", "intern*", "trainee"}},
}

// DefaultTerms returns a copy of the built-in vocabulary.
func DefaultTerms() map[domintent.Signal][]string {
	out := make(map[domintent.Signal][]string, len(defaultTerms))
	for s, terms := range defaultTerms {
		out[s] = append([]string(nil), terms...)
	}
	return out
}

// Config holds analyzer settings. Zero values select defaults.
type Config struct {
	ShortQueryTokens int
	Terms            map[domintent.Signal][]string // replaces the built-in vocabulary per signal
}

type matcher struct {
	term   string // as written, without the trailing '*'
	prefix bool
	phrase bool
}

type levelMatcher struct {
	level    domintent.Level
	matchers []matcher
}

// Analyzer classifies queries by curated keyword lists. It holds no mutable state.
type Analyzer struct {
	shortQueryTokens int
	matchers         map[domintent.Signal][]matcher
	levels           []levelMatcher
}

// New creates an Analyzer.
func New(cfg Config) *Analyzer {
	short := cfg.ShortQueryTokens
	if short <= 0 {
		short = DefaultShortQueryTokens
	}
	terms := DefaultTerms()
	for s, override := range cfg.Terms {
		terms[s] = override
	}

	a := &Analyzer{shortQueryTokens: short, matchers: make(map[domintent.Signal][]matcher, len(terms))}
	for s, list := range terms {
		a.matchers[s] = compile(list)
	}
	for _, lt := range levelTerms {
		a.levels = append(a.levels, levelMatcher{level: lt.level, matchers: compile(lt.terms)})
	}
	return a
}

func compile(terms []string) []matcher {
	out := make([]matcher, 0, len(terms))
	for _, raw := range terms {
		t := strings.ToLower(strings.TrimSpace(raw))
		if t == "" {
			continue
		}
		m := matcher{}
		if strings.HasSuffix(t, "*") {
			m.prefix = true
			t = strings.TrimSuffix(t, "*")
		}
		m.term = t
		m.phrase = strings.IndexFunc(t, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		}) >= 0
		out = append(out, m)
	}
	return out
}

// Analyze classifies query. It never fails: a query with no matches yields an empty intent.
func (a *Analyzer) Analyze(query string) domintent.Intent {
	fields := strings.Fields(strings.ToLower(query))
	normalized := strings.Join(fields, " ")
	tokens := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	matches := make(map[domintent.Signal][]string, len(a.matchers))
	for s, ms := range a.matchers {
		for _, m := range ms {
			if m.match(normalized, tokens) {
				matches[s] = append(matches[s], m.term)
			}
		}
	}

	level := domintent.LevelGeneral
	for _, lv := range a.levels {
		if anyMatch(lv.matchers, normalized, tokens) {
			level = lv.level
			break
		}
	}

	return domintent.New(matches, level, len(fields), len(fields) < a.shortQueryTokens)
}

// NeedsEnrichment reports whether query is too short to embed on its own.
// It agrees with Analyze(query).NeedsEnrichment() without matching any terms.
func (a *Analyzer) NeedsEnrichment(query string) bool {
	return len(strings.Fields(query)) < a.shortQueryTokens
}

func anyMatch(ms []matcher, normalized string, tokens []string) bool {
	for _, m := range ms {
		if m.match(normalized, tokens) {
			return true
		}
	}
	return false
}

func (m matcher) match(normalized string, tokens []string) bool {
	if m.phrase {
		if !m.prefix {
			return containsPhrase(normalized, m.term)
		}
		return strings.Contains(normalized, m.term)
	}
	for _, tok := range tokens {
		if tok == m.term || (m.prefix && strings.HasPrefix(tok, m.term)) {
			return true
		}
	}
	return false
}

// containsPhrase matches term as a substring that does not start or end inside a word,
// so "c++" does not match inside "abc++" while ".net" still matches "asp.net".
func containsPhrase(text, term string) bool {
	for from := 0; from <= len(text)-len(term); {
		i := strings.Index(text[from:], term)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(term)
		if boundary(text, start-1, term[0]) && boundary(text, end, term[len(term)-1]) {
			return true
		}
		from = start + 1
	}
	return false
}

// boundary reports whether position i next to the term edge character edge separates words.
// Edges that are punctuation are always allowed to touch letters.
func boundary(text string, i int, edge byte) bool {
	if i < 0 || i >= len(text) {
		return true
	}
	if !isWordByte(edge) {
		return true
	}
	return !isWordByte(text[i])
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b >= 0x80
}
