package fzn

import "fmt"

// Presolver is the rule-driven fix-point rewriter of §4.4 (C6). It owns a
// union-find over variable aliases and a small catalog of structural
// facts derived from constraints it has already seen (the difference map,
// abs map, affine map, and 2D-flattening map), all scoped to a single
// Run over one model.
type Presolver struct {
	model *Model
	cfg   *Config
	uf    *UnionFind

	diffMap      map[*Variable]diffFact
	decisionVars map[*Variable]bool
	absMap       map[*Variable]*Variable
	affineMap    map[*Variable]affineFact
	flatten2DMap map[*Variable]flatten2DFact

	aliasedThisPass bool
}

// diffFact records that variable x equals p-q, discovered from an
// int_lin_eq([1,-1,1], [x,y,z], 0) pattern (§4.4 phase 1).
type diffFact struct {
	p, q *Variable
}

// affineFact records that z = a*x + b, discovered from
// int_lin_eq([-1, a], [z, x], -b) with z the target (§4.4 storage rules).
type affineFact struct {
	a, b int64
	x    *Variable
}

// flatten2DFact records that z = a*x + y + b, discovered from
// int_lin_eq([-1, a, 1], [z, x, y], -b) with z the target (§4.4 storage
// rules), enabling array_int_element(z, ...) to become a 2D lookup.
type flatten2DFact struct {
	a, b int64
	x, y *Variable
}

// NewPresolver returns a Presolver scoped to model m with configuration
// cfg. Passing a nil cfg uses DefaultConfig.
func NewPresolver(m *Model, cfg *Config) *Presolver {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Presolver{
		model:        m,
		cfg:          cfg,
		uf:           NewUnionFind(),
		diffMap:      make(map[*Variable]diffFact),
		absMap:       make(map[*Variable]*Variable),
		affineMap:    make(map[*Variable]affineFact),
		flatten2DMap: make(map[*Variable]flatten2DFact),
	}
}

// Run drives the three-phase presolve algorithm of §4.4 to a fix-point.
// It returns ErrEmptyDomain (wrapped) the moment any variable's domain
// narrows to empty, since that proves the model unsatisfiable before the
// back-end is ever invoked.
func (p *Presolver) Run() error {
	p.scanFirstPass()

	if err := p.bool2intBurnDown(); err != nil {
		return err
	}

	if err := p.generalFixPoint(); err != nil {
		return err
	}

	return p.checkNoEmptyDomains()
}

// scanFirstPass implements §4.4 phase 1: it records difference-map facts
// from matching int_lin_eq constraints and collects the decision-variable
// set from the model's search annotations.
func (p *Presolver) scanFirstPass() {
	p.decisionVars = DecisionVariables(p.model)

	for _, c := range p.model.ActiveConstraints() {
		if c.Type != "int_lin_eq" {
			continue
		}
		coeffs, vars, rhs, ok := linTriple(c)
		if !ok || rhs != 0 {
			continue
		}
		x, y, z := vars[0], vars[1], vars[2]
		switch {
		case coeffs[0] == 1 && coeffs[1] == -1 && coeffs[2] == 1:
			p.diffMap[x] = diffFact{p: z, q: y}
			p.diffMap[z] = diffFact{p: x, q: y}
		case coeffs[0] == -1 && coeffs[1] == 1 && coeffs[2] == -1:
			p.diffMap[x] = diffFact{p: z, q: y}
			p.diffMap[z] = diffFact{p: x, q: y}
		}
	}
}

// linTriple returns the three (coefficient, variable) pairs of an
// int_lin_eq/le/ge/gt/lt constraint shaped exactly [coeffs]·[vars] ? rhs,
// along with the rhs, when the constraint has exactly three terms and the
// variable argument is a pure variable-ref array (no constants folded
// in). ok is false for any other shape.
func linTriple(c *Constraint) (coeffs [3]int64, vars [3]*Variable, rhs int64, ok bool) {
	if len(c.Args) != 3 {
		return
	}
	if c.Args[0].Kind != ArgIntList || len(c.Args[0].List) != 3 {
		return
	}
	if c.Args[1].Kind != ArgIntVarRefArray || len(c.Args[1].Vars) != 3 {
		return
	}
	if !c.Args[2].HasOneValue() {
		return
	}
	copy(coeffs[:], c.Args[0].List)
	copy(vars[:], c.Args[1].Vars)
	rhs = c.Args[2].Value()
	ok = true
	return
}

// bool2intBurnDown implements §4.4 phase 2: apply bool2int to every active
// constraint, then flush any resulting aliases once.
func (p *Presolver) bool2intBurnDown() error {
	p.aliasedThisPass = false
	for _, c := range p.model.ActiveConstraints() {
		if c.Type != "bool2int" {
			continue
		}
		if _, err := p.ruleBool2Int(c); err != nil {
			return err
		}
	}
	if p.aliasedThisPass {
		Substitute(p.model, p.uf)
		p.uf.Reset()
		p.aliasedThisPass = false
	}
	return nil
}

// generalFixPoint implements §4.4 phase 3: repeatedly dispatch every
// active constraint until a full pass makes zero rewrites and records
// zero new aliases.
func (p *Presolver) generalFixPoint() error {
	for {
		if p.cfg.DeadlineExceeded() {
			return nil
		}

		passChanged := false
		restarted := false

		constraints := p.model.ActiveConstraints()
		for _, c := range constraints {
			if !c.Active {
				continue
			}
			rewrote, err := p.dispatchUntilStable(c)
			if err != nil {
				return err
			}
			if rewrote {
				passChanged = true
			}
			if p.aliasedThisPass {
				Substitute(p.model, p.uf)
				p.uf.Reset()
				p.aliasedThisPass = false
				passChanged = true
				restarted = true
				break
			}
		}

		if restarted {
			continue
		}
		if !passChanged {
			return nil
		}
	}
}

// dispatchUntilStable re-dispatches a single constraint as long as each
// call reports a rewrite, so a rule that renames a constraint (e.g.
// reification unwrap) is immediately re-evaluated under its new type
// within the same visit, per §4.4's dispatcher note ("re-dispatches after
// a rule that renames the constraint").
func (p *Presolver) dispatchUntilStable(c *Constraint) (bool, error) {
	any := false
	for i := 0; i < 64; i++ { // defensive cap; rules are monotone and terminate
		if !c.Active {
			return any, nil
		}
		rewrote, err := p.dispatch(c)
		if err != nil {
			return any, err
		}
		if rewrote {
			any = true
		}
		if p.aliasedThisPass || !rewrote {
			return any, nil
		}
	}
	return any, nil
}

// checkNoEmptyDomains scans every active variable for an empty domain,
// reporting the first one found as a wrapped ErrEmptyDomain.
func (p *Presolver) checkNoEmptyDomains() error {
	for _, v := range p.model.ActiveVariables() {
		if v.Domain.IsEmpty() {
			return fmt.Errorf("%w: variable %s", ErrEmptyDomain, v.Name)
		}
	}
	return nil
}

// recordAlias merges a and b via the union-find and marks the current
// pass as having produced an alias, so the driver flushes the substitutor
// before continuing. It returns the surviving representative.
func (p *Presolver) recordAlias(a, b *Variable) (*Variable, error) {
	rep, err := p.uf.Unify(a, b)
	if err != nil {
		return nil, err
	}
	p.aliasedThisPass = true
	return rep, nil
}
