package filter

import (
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/serpdiff/internal/comparison"
	"golang.org/x/text/cases"
)

// Predicate decides whether a record passes one filter dimension.
// Predicates are pure, so they may be evaluated in any order.
type Predicate func(r *comparison.Record) bool

// Predicates expands the query into its active predicates. A zero query
// yields none.
func (q Query) Predicates() []Predicate {
	var ps []Predicate
	if term := strings.TrimSpace(q.Text); term != "" {
		fold := cases.Fold()
		needle := fold.String(term)
		ps = append(ps, func(r *comparison.Record) bool {
			return strings.Contains(fold.String(r.Key), needle)
		})
	}
	if b := q.ControlCTR; b != nil {
		bound := *b
		ps = append(ps, func(r *comparison.Record) bool { return bound.Holds(r.CTRControl) })
	}
	if b := q.ExperimentCTR; b != nil {
		bound := *b
		ps = append(ps, func(r *comparison.Record) bool { return bound.Holds(r.CTRExperiment) })
	}
	if b := q.Delta; b != nil {
		bound := *b
		ps = append(ps, func(r *comparison.Record) bool { return bound.Holds(r.SignedDelta()) })
	}
	if q.LargeGap != Any {
		t := q.LargeGap
		ps = append(ps, func(r *comparison.Record) bool { return t.Accepts(r.LargeGap) })
	}
	if q.MeaningfulChange != Any {
		t := q.MeaningfulChange
		ps = append(ps, func(r *comparison.Record) bool { return t.Accepts(r.MeaningfulChange) })
	}
	if q.Set1P1Change != Any {
		t := q.Set1P1Change
		ps = append(ps, func(r *comparison.Record) bool { return t.Accepts(r.Set1P1Change) })
	}
	if len(q.Tags) > 0 {
		want := make(map[string]struct{}, len(q.Tags))
		for _, t := range q.Tags {
			want[t] = struct{}{}
		}
		ps = append(ps, func(r *comparison.Record) bool {
			for _, t := range r.Tags {
				if _, ok := want[t]; ok {
					return true
				}
			}
			return false
		})
	}
	if lr := q.QueryLength; lr != nil {
		rng := *lr
		ps = append(ps, func(r *comparison.Record) bool {
			return rng.Contains(utf8.RuneCountInString(r.Key))
		})
	}
	return ps
}

// Matches reports whether a single record satisfies the query.
func (q Query) Matches(r *comparison.Record) bool {
	return matchAll(q.Predicates(), r)
}

// Apply returns the indices of records matching q, in the order of records.
// Records are expected in canonical order, so the result is a subsequence of it.
func Apply(records []comparison.Record, q Query) []int {
	ps := q.Predicates()
	out := make([]int, 0, len(records))
	for i := range records {
		if matchAll(ps, &records[i]) {
			out = append(out, i)
		}
	}
	return out
}

func matchAll(ps []Predicate, r *comparison.Record) bool {
	for _, p := range ps {
		if !p(r) {
			return false
		}
	}
	return true
}
