// Package search is a minimal reference search driver: the "search driver"
// item the core (package fzn) treats as an external collaborator (§1 Non-
// goals: "no search strategies"). It exists only so cmd/fznc has something
// to run after extraction — a plain depth-first generate-and-test over the
// presolved domains, not a propagating solver. A real deployment is expected
// to swap this out for an actual FD/SAT engine behind the same Solver
// contract (internal/backend).
package search

import (
	"context"
	"sort"

	"fzncore/pkg/fzn"
)

// Result is the outcome of one Run.
type Result struct {
	// Assignment holds the best (satisfy: first, optimize: best-seen) total
	// assignment found, or nil if none was found before the search ended.
	Assignment map[*fzn.Variable]int64

	// Feasible reports whether Assignment is a valid solution.
	Feasible bool

	// Complete reports whether the search exhausted its space (so Feasible
	// false means proven infeasibility, and for an optimization model,
	// Feasible true means Assignment is provably optimal).
	Complete bool

	// TimedOut reports whether ctx ended the search before it completed.
	TimedOut bool
}

// maxEnumerable bounds how large a single variable's domain may be before
// this reference driver refuses to enumerate it — a real search driver
// would propagate instead of expanding every value, but that is explicitly
// out of scope here.
const maxEnumerable = 1 << 20

// Run performs a depth-first search over m's active variables, respecting
// ctx for cooperative cancellation (the CLI's --timeout deadline). Variables
// are tried in descending constraint-occurrence order (ModelStatistics, §C4)
// as a simple static ordering heuristic; values are tried in ascending
// order within each variable's domain.
func Run(ctx context.Context, m *fzn.Model) Result {
	vars := m.ActiveVariables()
	for _, v := range vars {
		if v.Domain.IsEmpty() {
			return Result{Complete: true}
		}
		if v.Domain.Count() > maxEnumerable || v.Domain.Count() < 0 {
			return Result{TimedOut: true}
		}
	}

	d := &driver{
		ctx:     ctx,
		m:       m,
		order:   orderVariables(m, vars),
		current: make(map[*fzn.Variable]int64, len(vars)),
	}
	d.walk(0)

	return Result{
		Assignment: d.best,
		Feasible:   d.best != nil,
		Complete:   !d.timedOut,
		TimedOut:   d.timedOut,
	}
}

// driver carries one search's mutable state.
type driver struct {
	ctx     context.Context
	m       *fzn.Model
	order   []*fzn.Variable
	current map[*fzn.Variable]int64

	best     map[*fzn.Variable]int64
	bestObj  int64
	haveObj  bool
	timedOut bool

	// restrict, when set for a variable, overrides enumerate(v.Domain) —
	// used by RunParallel to hand each worker a disjoint slice of the
	// root variable's domain instead of the whole thing.
	restrict map[*fzn.Variable][]int64
}

// orderVariables sorts active variables by descending occurrence count
// (most-constrained-first), breaking ties by ascending domain size, then by
// model insertion order — mirroring the degree/first-fail heuristics a
// finite-domain labeling strategy would use.
func orderVariables(m *fzn.Model, vars []*fzn.Variable) []*fzn.Variable {
	stats := fzn.NewModelStatistics(m)
	index := make(map[*fzn.Variable]int, len(vars))
	for i, v := range vars {
		index[v] = i
	}
	out := append([]*fzn.Variable(nil), vars...)
	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := stats.OccurrenceCount(out[i]), stats.OccurrenceCount(out[j])
		if oi != oj {
			return oi > oj
		}
		si, sj := out[i].Domain.Count(), out[j].Domain.Count()
		if si != sj {
			return si < sj
		}
		return index[out[i]] < index[out[j]]
	})
	return out
}

// walk assigns d.order[idx:] by exhaustive backtracking, recording an
// improving/first leaf assignment in d.best. It returns true once the
// caller should stop descending (timeout, or — for a satisfy model — a
// solution has been found).
func (d *driver) walk(idx int) bool {
	select {
	case <-d.ctx.Done():
		d.timedOut = true
		return true
	default:
	}

	if idx == len(d.order) {
		return d.visitLeaf()
	}

	v := d.order[idx]
	vals := enumerate(v.Domain)
	if r, ok := d.restrict[v]; ok {
		vals = r
	}
	for _, val := range vals {
		d.current[v] = val
		if d.walk(idx + 1) {
			return true
		}
	}
	delete(d.current, v)
	return false
}

// visitLeaf checks every active constraint against the current total
// assignment and, if satisfied, records it as the new best.
func (d *driver) visitLeaf() bool {
	for _, c := range d.m.ActiveConstraints() {
		if !satisfied(c, d.current) {
			return false
		}
	}

	assignment := make(map[*fzn.Variable]int64, len(d.current))
	for v, val := range d.current {
		assignment[v] = val
	}

	if d.m.Objective == nil {
		d.best = assignment
		return true // satisfy: the first solution found is enough
	}

	obj := assignment[d.m.Objective]
	if d.haveObj && !better(obj, d.bestObj, d.m.Maximize) {
		return false
	}
	d.best = assignment
	d.bestObj = obj
	d.haveObj = true
	return false // optimize: keep searching for a better one
}

func better(candidate, current int64, maximize bool) bool {
	if maximize {
		return candidate > current
	}
	return candidate < current
}

// enumerate lists a domain's values in ascending order.
func enumerate(d *fzn.Domain) []int64 {
	if d.IsIntervalForm() {
		lo, hi := d.Min(), d.Max()
		out := make([]int64, 0, hi-lo+1)
		for v := lo; v <= hi; v++ {
			out = append(out, v)
		}
		return out
	}
	return d.Values()
}
