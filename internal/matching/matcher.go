package matching

import (
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/arbscout/internal/domain"
)

const (
	// CandidateFloor is the similarity a pair must exceed to be considered.
	CandidateFloor = 0.6
	// OpportunityFloor is the similarity a selected pair needs to be priced.
	OpportunityFloor = 0.7
)

// Match is a selected source/target pair.
type Match struct {
	Source     domain.Listing
	Target     domain.Listing
	Similarity float64
}

type candidate struct {
	src, tgt   int
	similarity float64
}

// Matcher pairs listings greedily by descending title similarity. The
// result is a valid matching, not a maximum-weight one.
type Matcher struct {
	workers int
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithWorkers bounds the number of goroutines scoring pairs.
func WithWorkers(n int) Option {
	return func(m *Matcher) {
		if n > 0 {
			m.workers = n
		}
	}
}

// NewMatcher creates a Matcher.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{workers: runtime.GOMAXPROCS(0)}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match scores every source x target pair, keeps pairs above
// CandidateFloor and selects them greedily so that each listing is used at
// most once. Matches are returned in selection order.
func (m *Matcher) Match(sources, targets []domain.Listing) []Match {
	sources = dedupe(sources)
	targets = dedupe(targets)
	if len(sources) == 0 || len(targets) == 0 {
		return nil
	}

	srcTitles := normalizeAll(sources)
	tgtTitles := normalizeAll(targets)

	// One shard per source row; shards are concatenated in row order so
	// the merge below sees the same sequence regardless of scheduling.
	rows := make([][]candidate, len(sources))
	var g errgroup.Group
	g.SetLimit(m.workers)
	for i := range sources {
		g.Go(func() error {
			var row []candidate
			for j := range targets {
				sim := Similarity(srcTitles[i], tgtTitles[j])
				if sim > CandidateFloor {
					row = append(row, candidate{src: i, tgt: j, similarity: sim})
				}
			}
			rows[i] = row
			return nil
		})
	}
	_ = g.Wait()

	var cands []candidate
	for _, row := range rows {
		cands = append(cands, row...)
	}
	slices.SortStableFunc(cands, func(a, b candidate) int {
		switch {
		case a.similarity > b.similarity:
			return -1
		case a.similarity < b.similarity:
			return 1
		}
		return 0
	})

	usedSrc := make([]bool, len(sources))
	usedTgt := make([]bool, len(targets))
	var out []Match
	for _, c := range cands {
		if usedSrc[c.src] || usedTgt[c.tgt] {
			continue
		}
		usedSrc[c.src] = true
		usedTgt[c.tgt] = true
		out = append(out, Match{
			Source:     sources[c.src],
			Target:     targets[c.tgt],
			Similarity: c.similarity,
		})
	}
	return out
}

// dedupe drops malformed listings and repeated product ids, keeping the
// first occurrence.
func dedupe(listings []domain.Listing) []domain.Listing {
	seen := make(map[string]bool, len(listings))
	out := make([]domain.Listing, 0, len(listings))
	for _, l := range listings {
		if !l.Valid() || seen[l.ProductID] {
			continue
		}
		seen[l.ProductID] = true
		out = append(out, l)
	}
	return out
}

func normalizeAll(listings []domain.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = Normalize(l.Title)
	}
	return out
}
