package embedding

import (
	"context"
	"math"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/kailas-cloud/assessmatch/internal/domain"
)

// DefaultFallbackDimensions matches the size of small sentence-embedding models.
const DefaultFallbackDimensions = 384

const (
	keywordWeight = 3.0
	letterWeight  = 0.5
	bigramWeight  = 0.5
	minDimensions = 64
)

// Vocabulary buckets. A token matches a stem when it starts with it.
var keywordBuckets = [][]string{
	{ // technical
		"java", "python", "javascript", "sql", "programm", "technical", "coding", "software",
		"data", "analys", "database", "develop", "engineer", "cloud", "devops", "selenium",
	},
	{ // behavioral
		"personality", "behavio", "teamwork", "team", "leadership", "communicat", "collaborat",
		"motivat", "culture", "customer", "service", "interpersonal", "stakeholder", "situational",
	},
	{ // cognitive
		"reasoning", "logical", "numerical", "verbal", "analytical", "critical", "problem",
		"solving", "cognitive", "ability", "aptitude", "inductive", "deductive",
	},
	{ // seniority
		"senior", "junior", "lead", "principal", "architect", "manager", "graduate", "entry", "intern",
	},
}

// FeatureHashEmbedder is the last-resort tier: a deterministic pseudo-embedding built from
// keyword buckets, the letter distribution and signed hashed token unigrams and bigrams.
// It never fails and needs no network. Empty text yields a zero vector.
type FeatureHashEmbedder struct {
	dims int
}

// NewFeatureHashEmbedder creates the fallback embedder. dims <= 0 selects the default.
func NewFeatureHashEmbedder(dims int) *FeatureHashEmbedder {
	if dims <= 0 {
		dims = DefaultFallbackDimensions
	}
	if dims < minDimensions {
		dims = minDimensions
	}
	return &FeatureHashEmbedder{dims: dims}
}

// Dimensions returns the vector size.
func (f *FeatureHashEmbedder) Dimensions() int { return f.dims }

// Embed implements domain.Embedder. The error is always nil.
func (f *FeatureHashEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{Embedding: f.Vector(text)}, nil
}

// BatchEmbed implements domain.BatchEmbedder. The error is always nil.
func (f *FeatureHashEmbedder) BatchEmbed(_ context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = f.Vector(t)
	}
	return domain.BatchEmbeddingResult{Embeddings: out}, nil
}

// Vector computes the L2-normalised feature vector for text.
func (f *FeatureHashEmbedder) Vector(text string) []float32 {
	vec := make([]float64, f.dims)
	lower := strings.ToLower(text)
	tokens := tokenize(lower)

	// [0, len(keywordBuckets)): keyword hits per bucket
	for i, bucket := range keywordBuckets {
		for _, tok := range tokens {
			if matchesStem(tok, bucket) {
				vec[i] += keywordWeight
			}
		}
	}

	// next 26 slots: relative letter frequencies
	letters := vec[len(keywordBuckets) : len(keywordBuckets)+26]
	total := 0
	for _, r := range lower {
		if r >= 'a' && r <= 'z' {
			letters[r-'a']++
			total++
		}
	}
	if total > 0 {
		for i := range letters {
			letters[i] = letters[i] / float64(total) * letterWeight * 26
		}
	}

	// remaining slots: hashing trick over unigrams and bigrams
	hashed := vec[len(keywordBuckets)+26:]
	for i, tok := range tokens {
		addHashed(hashed, tok, 1)
		if i > 0 {
			addHashed(hashed, tokens[i-1]+" "+tok, bigramWeight)
		}
	}

	return normalize(vec)
}

func addHashed(dst []float64, feature string, weight float64) {
	h := xxhash.Sum64String(feature)
	idx := h % uint64(len(dst))
	if h>>63 == 1 {
		weight = -weight
	}
	dst[idx] += weight
}

func matchesStem(tok string, stems []string) bool {
	for _, s := range stems {
		if strings.HasPrefix(tok, s) {
			return true
		}
	}
	return false
}

// tokenize splits lower-cased text on anything that is not a letter, digit, '+' or '#'.
func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#'
	})
}

func normalize(v []float64) []float32 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(x / norm)
	}
	return out
}
