package fzn

import "fmt"

// Schedule is the result of the extraction scheduler of §4.7 (C9): the
// variables the back-end can create immediately, the active constraints in
// defines-before-uses order, and the domain-reassertion constraints that
// must run after every dependent variable is created.
type Schedule struct {
	// Independent holds every active variable with no defining constraint,
	// in model insertion order; the back-end creates these eagerly.
	Independent []*Variable

	// Order holds every active constraint in the order the back-end should
	// process them: a constraint never precedes one that defines a
	// variable it requires.
	Order []*Constraint

	// DomainPosts holds one synthetic constraint per dependent variable,
	// reasserting its declared domain after its defining constraint has
	// run. The defining operation a back-end implements for, say,
	// int_plus may return an expression wider than the variable's
	// declared domain (e.g. no back-end int type narrower than its
	// native word size), so the domain must be posted separately.
	DomainPosts []*Constraint
}

// constraintDescriptor is the scheduler's working record for one active
// constraint: its stable insertion index (tie-breaker) and the set of
// dependent variables it still requires before it can run.
type constraintDescriptor struct {
	c        *Constraint
	index    int
	required map[*Variable]bool
}

// NewSchedule runs the extraction scheduler of §4.7 over m's active
// variables and constraints. It returns ErrCycle, wrapped with the count of
// unscheduled constraints, if no ready constraint remains while constraints
// are still outstanding.
func NewSchedule(m *Model) (*Schedule, error) {
	insertionIndex := make(map[*Constraint]int, len(m.Constraints))
	for i, c := range m.Constraints {
		insertionIndex[c] = i
	}

	dependent := make(map[*Variable]bool)
	var independent []*Variable
	for _, v := range m.ActiveVariables() {
		if v.DefiningConstraint != nil {
			dependent[v] = true
		} else {
			independent = append(independent, v)
		}
	}

	descriptors := make([]*constraintDescriptor, 0, len(m.Constraints))
	// dependedOn[v] counts how many *unscheduled* descriptors still require
	// v, so the readiness heuristic can ask "is some other constraint
	// waiting on this one's target".
	dependedOn := make(map[*Variable]int)
	for _, c := range m.ActiveConstraints() {
		required := make(map[*Variable]bool)
		for _, v := range constraintVariables(c) {
			if !dependent[v] {
				continue
			}
			if c.TargetVariable != nil && v == c.TargetVariable {
				continue // a constraint never waits on its own target
			}
			required[v] = true
			dependedOn[v]++
		}
		descriptors = append(descriptors, &constraintDescriptor{
			c:        c,
			index:    insertionIndex[c],
			required: required,
		})
	}

	order := make([]*Constraint, 0, len(descriptors))
	remaining := descriptors
	for len(remaining) > 0 {
		chosen, chosenIdx := pickReady(remaining, dependedOn)
		if chosen == nil {
			return nil, fmt.Errorf("%w: %d constraints unscheduled", ErrCycle, len(remaining))
		}

		order = append(order, chosen.c)
		if chosen.c.TargetVariable != nil {
			delete(dependedOn, chosen.c.TargetVariable)
		}
		remaining = append(remaining[:chosenIdx], remaining[chosenIdx+1:]...)

		if chosen.c.TargetVariable == nil {
			continue
		}
		target := chosen.c.TargetVariable
		for _, d := range remaining {
			if d.required[target] {
				delete(d.required, target)
				if dependedOn[target] > 0 {
					dependedOn[target]--
				}
			}
		}
	}

	return &Schedule{
		Independent: independent,
		Order:       order,
		DomainPosts: domainPosts(order),
	}, nil
}

// pickReady selects the next descriptor to extract among those with an
// empty required set, applying §4.7's ordering heuristic: a constraint with
// no target is scheduled last among ready ones; among the rest, one whose
// target some other still-outstanding constraint depends on goes first;
// ties break by ascending insertion index. It returns nil, -1 if nothing is
// ready (a cycle).
func pickReady(descriptors []*constraintDescriptor, dependedOn map[*Variable]int) (*constraintDescriptor, int) {
	bestIdx := -1
	var best *constraintDescriptor

	for i, d := range descriptors {
		if len(d.required) != 0 {
			continue
		}
		if best == nil || lessReady(d, best, dependedOn) {
			best = d
			bestIdx = i
		}
	}
	return best, bestIdx
}

// lessReady reports whether candidate should be extracted before current
// under the readiness heuristic.
func lessReady(candidate, current *constraintDescriptor, dependedOn map[*Variable]int) bool {
	candidateRank := readyRank(candidate, dependedOn)
	currentRank := readyRank(current, dependedOn)
	if candidateRank != currentRank {
		return candidateRank < currentRank
	}
	return candidate.index < current.index
}

// readyRank buckets a ready descriptor: 0 = its target is depended on by
// another outstanding constraint, 1 = it has a target nothing else needs
// yet, 2 = it has no target at all (scheduled last).
func readyRank(d *constraintDescriptor, dependedOn map[*Variable]int) int {
	if d.c.TargetVariable == nil {
		return 2
	}
	if dependedOn[d.c.TargetVariable] > 0 {
		return 0
	}
	return 1
}

// domainPosts builds one synthetic range-or-membership constraint per
// dependent variable that was actually scheduled (i.e. created through its
// defining constraint), reasserting the variable's declared domain. An
// interval domain becomes set_in with the interval argument; any other
// shape becomes set_in over its explicit value list.
func domainPosts(order []*Constraint) []*Constraint {
	var posts []*Constraint
	for _, c := range order {
		v := c.TargetVariable
		if v == nil {
			continue
		}
		posts = append(posts, domainPostFor(v))
	}
	return posts
}

// domainPostFor builds the set_in constraint reasserting v's current
// domain, in interval form when the domain collapses to one, explicit list
// form otherwise.
func domainPostFor(v *Variable) *Constraint {
	if v.Domain.IsIntervalForm() {
		return NewConstraint("set_in", VarArg(v), IntIntervalArg(v.Domain.Min(), v.Domain.Max()))
	}
	return NewConstraint("set_in", VarArg(v), Argument{Kind: ArgIntList, List: v.Domain.Values()})
}
