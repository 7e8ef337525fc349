package recommendation

import (
	"github.com/kailas-cloud/assessmatch/internal/domain"
	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
	"github.com/kailas-cloud/assessmatch/internal/domain/intent"
)

// Candidate is a catalog record with its similarity score and 1-based rank.
type Candidate struct {
	Record assessment.Record
	Score  float64
	Rank   int
}

// Category returns the record category.
func (c Candidate) Category() assessment.Category { return c.Record.Category() }

// Window bounds the number of returned items.
type Window struct {
	Min    int
	Max    int
	Target int
}

// Size returns the effective target for a pool of n candidates
// and whether the pool falls short of the minimum.
func (w Window) Size(n int) (size int, shortfall bool) {
	target := w.Target
	if target < w.Min {
		target = w.Min
	}
	if w.Max > 0 && target > w.Max {
		target = w.Max
	}
	if n < w.Min {
		return n, true
	}
	if n < target {
		return n, false
	}
	return target, false
}

// Recommendation is the final, ordered output of a query.
type Recommendation struct {
	Items     []Candidate
	Intent    intent.Intent
	Tier      domain.Tier
	Target    int
	Balanced  bool
	Shortfall bool
}

// CategoryCounts counts items per category.
func (r Recommendation) CategoryCounts() map[assessment.Category]int {
	out := make(map[assessment.Category]int)
	for _, it := range r.Items {
		out[it.Category()]++
	}
	return out
}
