package balance

import (
	"sort"

	"github.com/kailas-cloud/assessmatch/internal/domain/assessment"
	"github.com/kailas-cloud/assessmatch/internal/domain/intent"
	"github.com/kailas-cloud/assessmatch/internal/domain/recommendation"
)

// DefaultWindow is the 5 to 10 item output window.
var DefaultWindow = recommendation.Window{Min: 5, Max: 10, Target: 10}

// Selection is the balanced subset of a ranked candidate list.
type Selection struct {
	Items     []recommendation.Candidate
	Target    int  // effective size before availability limits
	Balanced  bool // category balancing was applied
	Shortfall bool // the pool is smaller than the window minimum
}

// Balancer mixes result categories for multi-domain queries.
type Balancer struct {
	window recommendation.Window
}

// New creates a Balancer. A zero window uses DefaultWindow.
func New(w recommendation.Window) *Balancer {
	if w == (recommendation.Window{}) {
		w = DefaultWindow
	}
	return &Balancer{window: w}
}

// Window returns the configured output window.
func (b *Balancer) Window() recommendation.Window { return b.window }

// Balance selects the final items from candidates ordered by rank.
//
// Single-domain queries get the top of the ranking. Multi-domain queries
// get an equal share per domain, unused slots are backfilled in rank order,
// and domain picks are interleaved so every domain shows up early.
func (b *Balancer) Balance(candidates []recommendation.Candidate, in intent.Intent) Selection {
	pool := byRank(candidates)
	n, shortfall := b.window.Size(len(pool))
	sel := Selection{Target: n, Shortfall: shortfall}
	if shortfall {
		sel.Items = pool
		return sel
	}

	domains := in.Domains()
	if len(domains) == 0 {
		sel.Items = pool[:n]
		return sel
	}

	buckets := partition(pool, domains)
	shares := allocate(n, domains, buckets)
	picked, used := fill(domains, buckets, shares)
	extra := backfill(pool, used, n-len(used))

	sel.Items = assemble(domains, picked, extra)
	sel.Balanced = true
	return sel
}

func byRank(candidates []recommendation.Candidate) []recommendation.Candidate {
	out := make([]recommendation.Candidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out
}

// partition splits the pool into per-domain buckets, rank order kept.
// Candidates outside every domain are left out.
func partition(pool []recommendation.Candidate, domains []assessment.Category) map[assessment.Category][]recommendation.Candidate {
	buckets := make(map[assessment.Category][]recommendation.Candidate, len(domains))
	for _, d := range domains {
		buckets[d] = nil
	}
	for _, c := range pool {
		if _, ok := buckets[c.Category()]; ok {
			buckets[c.Category()] = append(buckets[c.Category()], c)
		}
	}
	return buckets
}

// allocate splits n slots across domains as evenly as possible.
// The n%k extra slots go to the domains whose best candidate ranks highest.
// Each share is capped by the bucket size.
func allocate(n int, domains []assessment.Category, buckets map[assessment.Category][]recommendation.Candidate) map[assessment.Category]int {
	k := len(domains)
	shares := make(map[assessment.Category]int, k)
	if k == 0 || n <= 0 {
		return shares
	}
	base, rem := n/k, n%k
	for _, d := range domains {
		shares[d] = base
	}

	leaders := make([]assessment.Category, k)
	copy(leaders, domains)
	sort.SliceStable(leaders, func(i, j int) bool {
		return bestRank(buckets[leaders[i]]) < bestRank(buckets[leaders[j]])
	})
	for _, d := range leaders[:rem] {
		shares[d]++
	}

	for _, d := range domains {
		shares[d] = min(shares[d], len(buckets[d]))
	}
	return shares
}

func bestRank(bucket []recommendation.Candidate) int {
	if len(bucket) == 0 {
		return int(^uint(0) >> 1)
	}
	return bucket[0].Rank
}

// fill takes the top share of each bucket.
func fill(
	domains []assessment.Category,
	buckets map[assessment.Category][]recommendation.Candidate,
	shares map[assessment.Category]int,
) (map[assessment.Category][]recommendation.Candidate, map[string]bool) {
	picked := make(map[assessment.Category][]recommendation.Candidate, len(domains))
	used := make(map[string]bool)
	for _, d := range domains {
		picked[d] = buckets[d][:shares[d]]
		for _, c := range picked[d] {
			used[c.Record.ID()] = true
		}
	}
	return picked, used
}

// backfill returns up to n unused candidates in rank order, any category.
func backfill(pool []recommendation.Candidate, used map[string]bool, n int) []recommendation.Candidate {
	var out []recommendation.Candidate
	for _, c := range pool {
		if len(out) >= n {
			break
		}
		if !used[c.Record.ID()] {
			out = append(out, c)
		}
	}
	return out
}

// assemble interleaves domain picks round by round, each round ordered by
// the rank of every bucket's next item, then appends the backfill.
func assemble(
	domains []assessment.Category,
	picked map[assessment.Category][]recommendation.Candidate,
	extra []recommendation.Candidate,
) []recommendation.Candidate {
	var out []recommendation.Candidate
	for round := 0; ; round++ {
		var next []recommendation.Candidate
		for _, d := range domains {
			if round < len(picked[d]) {
				next = append(next, picked[d][round])
			}
		}
		if len(next) == 0 {
			break
		}
		sort.SliceStable(next, func(i, j int) bool { return next[i].Rank < next[j].Rank })
		out = append(out, next...)
	}
	return append(out, extra...)
}
