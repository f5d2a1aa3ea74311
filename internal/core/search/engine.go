package search

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
)

type Option func(*Engine)

// WithClock sets the time source used by the freshness boost.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// An Engine filters and ranks a catalog snapshot.
//
// It keeps no catalog state between calls and is safe for concurrent use.
type Engine struct {
	now func() time.Time
}

func NewEngine(opts ...Option) Engine {
	e := Engine{now: time.Now}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Search returns the catalog products passing every filter in opts.
//
// Without a query the result is ordered featured first, then best sellers,
// then newest. With a query only products scoring above zero are returned,
// most relevant first.
func (e Engine) Search(
	catalog []domain.Product, opts domain.SearchOptions,
) []domain.Product {
	scored := e.SearchScored(catalog, opts)
	ps := make([]domain.Product, len(scored))
	for i := range scored {
		ps[i] = scored[i].Product
	}
	return ps
}

// SearchScored is Search keeping the score and matched fields of each result.
// Without a query every score is zero.
func (e Engine) SearchScored(
	catalog []domain.Product, opts domain.SearchOptions,
) []ScoredCandidate {
	f := newFilter(opts)

	var candidates []ScoredCandidate
	for _, p := range catalog {
		if f.pass(p) {
			candidates = append(candidates, ScoredCandidate{Product: p})
		}
	}

	if strings.TrimSpace(opts.Query) == "" {
		slices.SortStableFunc(candidates, func(a, b ScoredCandidate) int {
			return defaultOrder(a.Product, b.Product)
		})
		return candidates
	}

	q := newQuery(opts.Query)
	now := e.now()

	results := candidates[:0]
	for _, c := range candidates {
		sc := q.score(c.Product, now)
		if sc.Score > 0 {
			results = append(results, sc)
		}
	}

	slices.SortStableFunc(results, func(a, b ScoredCandidate) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return results
}

func defaultOrder(a, b domain.Product) int {
	if a.Featured != b.Featured {
		if a.Featured {
			return -1
		}
		return 1
	}
	if a.BestSeller != b.BestSeller {
		if a.BestSeller {
			return -1
		}
		return 1
	}
	return b.CreatedAt.Compare(a.CreatedAt)
}

type filter struct {
	opts   domain.SearchOptions
	colors []string
}

func newFilter(opts domain.SearchOptions) filter {
	colors := make([]string, len(opts.Colors))
	for i, c := range opts.Colors {
		colors[i] = lower(c)
	}
	return filter{opts: opts, colors: colors}
}

func (f filter) pass(p domain.Product) bool {
	o := f.opts

	if o.Category != "" && p.Category != o.Category {
		return false
	}
	if o.Gender != "" && p.Gender != o.Gender {
		return false
	}
	if o.Featured != nil && p.Featured != *o.Featured {
		return false
	}
	if o.BestSeller != nil && p.BestSeller != *o.BestSeller {
		return false
	}

	price := float64(p.Price) / 100
	if o.MinPrice != nil && price < *o.MinPrice {
		return false
	}
	if o.MaxPrice != nil && price > *o.MaxPrice {
		return false
	}

	if len(f.colors) > 0 && !f.anyColor(p) {
		return false
	}

	if len(o.Sizes) > 0 && !anyIn(o.Sizes, p.Sizes) {
		return false
	}
	return true
}

func (f filter) anyColor(p domain.Product) bool {
	names := make([]string, len(p.Colors))
	for i, c := range p.Colors {
		names[i] = lower(c.Name)
	}
	return anyIn(f.colors, names)
}

func anyIn(want, have []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}
