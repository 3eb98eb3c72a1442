package fzn

import (
	"fmt"
	"math"
	"strings"
)

// dispatch is the presolve rule engine's outer dispatcher (C6 "Dispatch
// table"). It treats c.Type as authoritative and tries, in order: the
// generic reification-unwrap rule (applies to any constraint whose name
// ends in "_reif"), the exact-type rule table, and finally the generic
// int_lin_* family of rules. A caller that wants chained rewrites (a rule
// renaming the constraint so a further rule now applies) should keep
// calling dispatch until it reports no rewrite; dispatchUntilStable does
// exactly that.
func (p *Presolver) dispatch(c *Constraint) (bool, error) {
	if rewrote, err := p.ruleReifUnwrap(c); rewrote || err != nil {
		return rewrote, err
	}

	if fn, ok := exactRules[c.Type]; ok {
		if rewrote, err := fn(p, c); rewrote || err != nil {
			return rewrote, err
		}
	}

	if strings.HasPrefix(c.Type, "int_lin_") {
		return p.dispatchLinFamily(c)
	}

	return false, nil
}

// exactRules maps a constraint type name directly to the rule that
// handles it. Grouped rule families (int_eq/bool_eq, int_ne/bool_not,
// the int and bool ordering comparisons, array_bool_or/and) share one
// function each, per §4.4.
var exactRules = map[string]func(*Presolver, *Constraint) (bool, error){
	"bool2int":              (*Presolver).ruleBool2Int,
	"int_eq":                (*Presolver).ruleEq,
	"bool_eq":                (*Presolver).ruleEq,
	"int_ne":                (*Presolver).ruleNe,
	"bool_not":              (*Presolver).ruleNe,
	"int_le":                (*Presolver).ruleIneq,
	"int_lt":                (*Presolver).ruleIneq,
	"int_ge":                (*Presolver).ruleIneq,
	"int_gt":                (*Presolver).ruleIneq,
	"bool_le":               (*Presolver).ruleIneq,
	"bool_lt":               (*Presolver).ruleIneq,
	"bool_ge":               (*Presolver).ruleIneq,
	"bool_gt":               (*Presolver).ruleIneq,
	"set_in":                (*Presolver).ruleSetIn,
	"int_times":             (*Presolver).ruleIntTimesDiv,
	"int_div":               (*Presolver).ruleIntTimesDiv,
	"array_bool_or":         (*Presolver).ruleArrayBoolOrAnd,
	"array_bool_and":        (*Presolver).ruleArrayBoolOrAnd,
	"bool_eq_reif":          (*Presolver).ruleBoolCompareReifFixed,
	"bool_ne_reif":          (*Presolver).ruleBoolCompareReifFixed,
	"int_abs":               (*Presolver).ruleIntAbsStore,
	"int_eq_reif":           (*Presolver).ruleReifiedComparePropagation,
	"int_ne_reif":           (*Presolver).ruleReifiedComparePropagation,
	"int_le_reif":           (*Presolver).ruleReifiedComparePropagation,
	"int_lt_reif":           (*Presolver).ruleReifiedComparePropagation,
	"int_ge_reif":           (*Presolver).ruleReifiedComparePropagation,
	"int_gt_reif":           (*Presolver).ruleReifiedComparePropagation,
	"array_int_element":     (*Presolver).ruleArrayIntElement,
	"array_var_int_element": (*Presolver).ruleArrayVarIntElement,
	"int_mod":               (*Presolver).ruleIntMod,
}

// comparator identifies the six scalar comparisons, shared by the ineq
// rule, the inversion performed by reification unwrap, and the
// canonicalization of int_lin_gt/int_lin_lt.
type comparator int

const (
	cmpEq comparator = iota
	cmpNe
	cmpLe
	cmpLt
	cmpGe
	cmpGt
)

func comparatorOf(typ string) (comparator, bool) {
	switch {
	case strings.HasSuffix(typ, "eq"):
		return cmpEq, true
	case strings.HasSuffix(typ, "ne"):
		return cmpNe, true
	case strings.HasSuffix(typ, "le"):
		return cmpLe, true
	case strings.HasSuffix(typ, "lt"):
		return cmpLt, true
	case strings.HasSuffix(typ, "ge"):
		return cmpGe, true
	case strings.HasSuffix(typ, "gt"):
		return cmpGt, true
	default:
		return 0, false
	}
}

func (c comparator) inverse() comparator {
	switch c {
	case cmpEq:
		return cmpNe
	case cmpNe:
		return cmpEq
	case cmpLe:
		return cmpGt
	case cmpGt:
		return cmpLe
	case cmpLt:
		return cmpGe
	case cmpGe:
		return cmpLt
	}
	return c
}

// ruleBool2Int implements bool2int(b, x): if either side is already
// constant, rewrite to int_eq(b, x); otherwise record the alias b ≡ x and
// deactivate.
func (p *Presolver) ruleBool2Int(c *Constraint) (bool, error) {
	if len(c.Args) != 2 {
		return false, nil
	}
	b, x := c.Args[0].VarOf(), c.Args[1].VarOf()
	if b == nil || x == nil {
		return false, nil
	}
	if c.Args[0].HasOneValue() || c.Args[1].HasOneValue() {
		c.Type = "int_eq"
		return true, nil
	}
	if _, err := p.recordAlias(x, b); err != nil {
		return false, err
	}
	c.Active = false
	return true, nil
}

type varValue struct {
	var_ *Variable
	val  int64
}

func varConstPair(maybeVar, maybeConst Argument) (varValue, bool) {
	if maybeVar.Kind == ArgIntVarRef && maybeConst.HasOneValue() && maybeConst.Kind != ArgIntVarRef {
		return varValue{var_: maybeVar.Var, val: maybeConst.Value()}, true
	}
	return varValue{}, false
}

// ruleEq implements int_eq/bool_eq rules 1-4 of §4.4.
func (p *Presolver) ruleEq(c *Constraint) (bool, error) {
	if len(c.Args) != 2 {
		return false, nil
	}
	lhs, rhs := c.Args[0], c.Args[1]

	// Rule 1: int_eq(x, 0) where the difference map holds a fact about x.
	if v := lhs.VarOf(); v != nil && rhs.HasOneValue() && rhs.Value() == 0 {
		if fact, ok := p.diffMap[v]; ok {
			c.Type = "int_eq"
			c.Args = []Argument{VarArg(fact.p), VarArg(fact.q)}
			return true, nil
		}
	}
	if v := rhs.VarOf(); v != nil && lhs.HasOneValue() && lhs.Value() == 0 {
		if fact, ok := p.diffMap[v]; ok {
			c.Type = "int_eq"
			c.Args = []Argument{VarArg(fact.p), VarArg(fact.q)}
			return true, nil
		}
	}

	// Rule 2: int_eq(x, c) — narrow x to {c}, deactivate.
	if vv, ok := varConstPair(lhs, rhs); ok {
		vv.var_.Domain.IntersectWithInterval(vv.val, vv.val)
		c.Active = false
		return true, nil
	}
	if vv, ok := varConstPair(rhs, lhs); ok {
		vv.var_.Domain.IntersectWithInterval(vv.val, vv.val)
		c.Active = false
		return true, nil
	}

	// Rule 3: int_eq(x, y) — unify.
	if lhs.Kind == ArgIntVarRef && rhs.Kind == ArgIntVarRef {
		if lhs.Var == rhs.Var {
			c.Active = false
			return true, nil
		}
		if _, err := p.recordAlias(lhs.Var, rhs.Var); err != nil {
			return false, err
		}
		c.Active = false
		return true, nil
	}

	// Rule 4: int_eq(c1, c2) — both constant; presence of the constraint
	// at this point is just bookkeeping, so drop it.
	if lhs.HasOneValue() && rhs.HasOneValue() {
		c.Active = false
		return true, nil
	}

	return false, nil
}

// ruleNe implements int_ne / the binary form of bool_not: if one side is
// constant, remove that value from the other side's domain and
// deactivate.
func (p *Presolver) ruleNe(c *Constraint) (bool, error) {
	if len(c.Args) != 2 {
		return false, nil
	}
	lhs, rhs := c.Args[0], c.Args[1]
	if vv, ok := varConstPair(lhs, rhs); ok {
		vv.var_.Domain.RemoveValue(vv.val)
		c.Active = false
		return true, nil
	}
	if vv, ok := varConstPair(rhs, lhs); ok {
		vv.var_.Domain.RemoveValue(vv.val)
		c.Active = false
		return true, nil
	}
	return false, nil
}

// ruleIneq implements int_le/int_lt/int_ge/int_gt and the bool
// analogues: if one side is constant, tighten the other side's bound and
// deactivate; otherwise tighten both variables' bounds via the obvious
// inequality. Guarded by PresolvePropagationDone so a surviving var-var
// inequality cannot loop forever re-applying the same bound.
func (p *Presolver) ruleIneq(c *Constraint) (bool, error) {
	if c.PresolvePropagationDone || len(c.Args) != 2 {
		return false, nil
	}
	cmp, ok := comparatorOf(c.Type)
	if !ok {
		return false, nil
	}
	lhs, rhs := c.Args[0], c.Args[1]

	switch {
	case lhs.HasOneValue() && rhs.Kind == ArgIntVarRef:
		tightenAgainstConst(rhs.Var, cmp, lhs.Value(), true)
		c.Active = false
		return true, nil
	case rhs.HasOneValue() && lhs.Kind == ArgIntVarRef:
		tightenAgainstConst(lhs.Var, cmp, rhs.Value(), false)
		c.Active = false
		return true, nil
	case lhs.Kind == ArgIntVarRef && rhs.Kind == ArgIntVarRef:
		tightenBothVars(lhs.Var, rhs.Var, cmp)
		c.PresolvePropagationDone = true
		return true, nil
	}

	c.PresolvePropagationDone = true
	return false, nil
}

// tightenAgainstConst narrows v's domain against the constant k under
// comparator cmp. flip indicates the original constraint read "k cmp v"
// rather than "v cmp k", which reverses le/lt/ge/gt.
func tightenAgainstConst(v *Variable, cmp comparator, k int64, flip bool) {
	if flip {
		switch cmp {
		case cmpLe:
			cmp = cmpGe
		case cmpLt:
			cmp = cmpGt
		case cmpGe:
			cmp = cmpLe
		case cmpGt:
			cmp = cmpLt
		}
	}
	switch cmp {
	case cmpEq:
		v.Domain.IntersectWithInterval(k, k)
	case cmpNe:
		v.Domain.RemoveValue(k)
	case cmpLe:
		v.Domain.IntersectWithInterval(math.MinInt64, k)
	case cmpLt:
		v.Domain.IntersectWithInterval(math.MinInt64, k-1)
	case cmpGe:
		v.Domain.IntersectWithInterval(k, math.MaxInt64)
	case cmpGt:
		v.Domain.IntersectWithInterval(k+1, math.MaxInt64)
	}
}

func tightenBothVars(x, y *Variable, cmp comparator) {
	switch cmp {
	case cmpLe:
		x.Domain.IntersectWithInterval(math.MinInt64, y.Max())
		y.Domain.IntersectWithInterval(x.Min(), math.MaxInt64)
	case cmpLt:
		x.Domain.IntersectWithInterval(math.MinInt64, y.Max()-1)
		y.Domain.IntersectWithInterval(x.Min()+1, math.MaxInt64)
	case cmpGe:
		x.Domain.IntersectWithInterval(y.Min(), math.MaxInt64)
		y.Domain.IntersectWithInterval(math.MinInt64, x.Max())
	case cmpGt:
		x.Domain.IntersectWithInterval(y.Min()+1, math.MaxInt64)
		y.Domain.IntersectWithInterval(math.MinInt64, x.Max()-1)
	}
}

// ruleReifUnwrap implements the generic reification-unwrap rule: any
// constraint whose name ends in "_reif" and whose reification argument
// (always last) has a single value is rewritten by stripping that
// argument and renaming — dropping "_reif" unchanged if the value is 1,
// or dropping it and inverting the comparator if the value is 0. When no
// known negation exists for the base constraint family (e.g. set_in,
// count), it declines rather than guess.
func (p *Presolver) ruleReifUnwrap(c *Constraint) (bool, error) {
	if !strings.HasSuffix(c.Type, "_reif") || len(c.Args) == 0 {
		return false, nil
	}
	reifArg := c.Args[len(c.Args)-1]
	if !reifArg.HasOneValue() {
		return false, nil
	}
	val := reifArg.Value()
	if val != 0 && val != 1 {
		return false, fmt.Errorf("%w: reification argument of %s bound to non-boolean %d", ErrRuleInconsistency, c.Type, val)
	}

	base := strings.TrimSuffix(c.Type, "_reif")
	newType := base
	if val == 0 {
		switch {
		case base == "bool_eq":
			newType = "bool_not"
		case strings.HasPrefix(base, "int_lin_"):
			cmp, ok := comparatorOf("x_" + strings.TrimPrefix(base, "int_lin_"))
			if !ok {
				return false, nil
			}
			newType = "int_lin_" + suffixOf(cmp.inverse())
		default:
			cmp, ok := comparatorOf(base)
			if !ok {
				return false, nil
			}
			newType = invertTypeName(base, cmp)
		}
	}

	c.Type = newType
	c.Args = c.Args[:len(c.Args)-1]
	c.RemoveTarget()
	return true, nil
}

func suffixOf(cmp comparator) string {
	switch cmp {
	case cmpEq:
		return "eq"
	case cmpNe:
		return "ne"
	case cmpLe:
		return "le"
	case cmpLt:
		return "lt"
	case cmpGe:
		return "ge"
	case cmpGt:
		return "gt"
	}
	return ""
}

// invertTypeName renames a comparison constraint's base type to its
// logical negation, e.g. "int_eq" -> "int_ne", "int_le" -> "int_gt".
func invertTypeName(base string, cmp comparator) string {
	idx := strings.LastIndexByte(base, '_')
	if idx < 0 {
		return base
	}
	return base[:idx+1] + suffixOf(cmp.inverse())
}

// ruleSetIn implements set_in(x, S): intersect x's domain with S,
// deactivate.
func (p *Presolver) ruleSetIn(c *Constraint) (bool, error) {
	if len(c.Args) < 2 {
		return false, nil
	}
	v := c.Args[0].VarOf()
	if v == nil {
		return false, nil
	}
	switch c.Args[1].Kind {
	case ArgIntInterval:
		v.Domain.IntersectWithInterval(c.Args[1].IntervalLo, c.Args[1].IntervalHi)
	case ArgIntList:
		v.Domain.IntersectWithValues(c.Args[1].List)
	default:
		return false, nil
	}
	c.Active = false
	return true, nil
}

// ruleIntTimesDiv implements int_times/int_div: if both inputs are
// constants, narrow the output to the product/quotient and deactivate.
// Guarded by PresolvePropagationDone so a non-constant pair is not
// re-examined every pass.
func (p *Presolver) ruleIntTimesDiv(c *Constraint) (bool, error) {
	if c.PresolvePropagationDone || len(c.Args) != 3 {
		return false, nil
	}
	a, b, out := c.Args[0], c.Args[1], c.Args[2]
	if !a.HasOneValue() || !b.HasOneValue() {
		c.PresolvePropagationDone = true
		return false, nil
	}
	av, bv := a.Value(), b.Value()
	var result int64
	if c.Type == "int_times" {
		result = av * bv
	} else {
		if bv == 0 {
			c.PresolvePropagationDone = true
			return false, nil
		}
		result = av / bv
	}
	if v := out.VarOf(); v != nil {
		v.Domain.IntersectWithInterval(result, result)
	}
	c.Active = false
	return true, nil
}

// ruleArrayBoolOrAnd implements array_bool_or/array_bool_and per §4.4:
// fold a singleton-length array to a binary bool_eq, propagate a fixed
// target into uniform elements, propagate a forcing element into the
// target, fix the target once every element is known, and drop already
// fixed elements from the array.
func (p *Presolver) ruleArrayBoolOrAnd(c *Constraint) (bool, error) {
	if len(c.Args) != 2 || c.Args[0].Kind != ArgIntVarRefArray {
		return false, nil
	}
	elems := c.Args[0].Vars
	target := c.Args[1].VarOf()
	isOr := c.Type == "array_bool_or"
	identity, forcing := int64(0), int64(1)
	if !isOr {
		identity, forcing = 1, 0
	}

	if len(elems) == 1 {
		c.Type = "bool_eq"
		c.Args = []Argument{VarArg(elems[0]), c.Args[1]}
		return true, nil
	}

	changed := false

	if target != nil && target.HasOneValue() && target.Domain.SingletonValue() == identity {
		for _, e := range elems {
			before := e.Domain.Count()
			e.Domain.IntersectWithInterval(identity, identity)
			if e.Domain.Count() != before {
				changed = true
			}
		}
	}

	if target != nil {
		for _, e := range elems {
			if e.HasOneValue() && e.Domain.SingletonValue() == forcing && !target.HasOneValue() {
				target.Domain.IntersectWithInterval(forcing, forcing)
				changed = true
			}
		}
	}

	allFixed := true
	anyForcing := false
	for _, e := range elems {
		if !e.HasOneValue() {
			allFixed = false
			break
		}
		if e.Domain.SingletonValue() == forcing {
			anyForcing = true
		}
	}
	if allFixed && target != nil && !target.HasOneValue() {
		v := identity
		if anyForcing {
			v = forcing
		}
		target.Domain.IntersectWithInterval(v, v)
		changed = true
	}

	remaining := make([]*Variable, 0, len(elems))
	for _, e := range elems {
		if !e.HasOneValue() {
			remaining = append(remaining, e)
		}
	}
	if len(remaining) != len(elems) {
		c.Args[0] = VarArrayArg(remaining)
		changed = true
	}

	return changed, nil
}

// ruleBoolCompareReifFixed implements bool_eq_reif/bool_ne_reif when the
// comparand (the middle argument) is already a fixed boolean, distinct
// from the generic reif-unwrap (which fires when the reification
// argument, not the comparand, is fixed): rewrite to bool_eq or
// bool_not between the first argument and the reification variable.
func (p *Presolver) ruleBoolCompareReifFixed(c *Constraint) (bool, error) {
	if len(c.Args) != 3 || !c.Args[1].HasOneValue() {
		return false, nil
	}
	k := c.Args[1].Value()
	positive := (c.Type == "bool_eq_reif") == (k == 1)
	if positive {
		c.Type = "bool_eq"
	} else {
		c.Type = "bool_not"
	}
	c.Args = []Argument{c.Args[0], c.Args[2]}
	c.RemoveTarget()
	return true, nil
}

// ruleIntAbsStore implements the abs-map storage rule: seeing
// int_abs(x, y) records that y = |x| for later use by the reified
// comparison rewrites below. It never mutates the constraint itself, so
// it always reports no rewrite.
func (p *Presolver) ruleIntAbsStore(c *Constraint) (bool, error) {
	if len(c.Args) != 2 {
		return false, nil
	}
	x, y := c.Args[0].VarOf(), c.Args[1].VarOf()
	if x == nil || y == nil {
		return false, nil
	}
	p.absMap[y] = x
	return false, nil
}

// ruleReifiedComparePropagation implements the reified-comparison
// propagation rule: when both sides of int_xx_reif are the same
// variable, fix b from the comparator's value at equality; when one
// side is constant and the variable's range lies wholly inside or
// wholly outside the satisfying region, fix b; and applies the abs-map
// rewrites the storage rule above recorded (y = |x| substitutions).
func (p *Presolver) ruleReifiedComparePropagation(c *Constraint) (bool, error) {
	if len(c.Args) != 3 {
		return false, nil
	}
	left, right, b := c.Args[0], c.Args[1], c.Args[2].VarOf()
	if b == nil || b.HasOneValue() {
		return false, nil
	}
	base := strings.TrimSuffix(c.Type, "_reif")
	cmp, ok := comparatorOf(base)
	if !ok {
		return false, nil
	}

	// abs-map rewrites: int_eq_reif(y, 0, b) -> int_eq_reif(x, 0, b);
	// int_le_reif(y, k, b) with k >= 0 -> set_in_reif(x, [-k, k], b).
	if lv := left.VarOf(); lv != nil {
		if x, ok := p.absMap[lv]; ok {
			if base == "int_eq" && right.HasOneValue() && right.Value() == 0 {
				c.Args[0] = VarArg(x)
				return true, nil
			}
			if base == "int_le" && right.HasOneValue() && right.Value() >= 0 {
				k := right.Value()
				c.Type = "set_in_reif"
				c.Args = []Argument{VarArg(x), IntIntervalArg(-k, k), c.Args[2]}
				return true, nil
			}
		}
	}

	if left.Kind == ArgIntVarRef && right.Kind == ArgIntVarRef && left.Var == right.Var {
		val := int64(0)
		switch cmp {
		case cmpEq, cmpLe, cmpGe:
			val = 1
		}
		b.Domain.IntersectWithInterval(val, val)
		return true, nil
	}

	var k int64
	var v *Variable
	flip := false
	switch {
	case right.HasOneValue() && left.Kind == ArgIntVarRef:
		k, v = right.Value(), left.Var
	case left.HasOneValue() && right.Kind == ArgIntVarRef:
		k, v = left.Value(), right.Var
		flip = true
	default:
		return false, nil
	}

	always, never := compareRangeAgainstConst(v.Min(), v.Max(), cmp, k, flip)
	if always {
		b.Domain.IntersectWithInterval(1, 1)
		return true, nil
	}
	if never {
		b.Domain.IntersectWithInterval(0, 0)
		return true, nil
	}
	return false, nil
}

// compareRangeAgainstConst reports whether every value in [lo, hi]
// satisfies (or none satisfies) "v cmp k", accounting for flip (true
// means the original constraint was "k cmp v").
func compareRangeAgainstConst(lo, hi int64, cmp comparator, k int64, flip bool) (always, never bool) {
	if flip {
		switch cmp {
		case cmpLe:
			cmp = cmpGe
		case cmpLt:
			cmp = cmpGt
		case cmpGe:
			cmp = cmpLe
		case cmpGt:
			cmp = cmpLt
		}
	}
	switch cmp {
	case cmpEq:
		return lo == hi && lo == k, k < lo || k > hi
	case cmpNe:
		return k < lo || k > hi, lo == hi && lo == k
	case cmpLe:
		return hi <= k, lo > k
	case cmpLt:
		return hi < k, lo >= k
	case cmpGe:
		return lo >= k, hi < k
	case cmpGt:
		return lo > k, hi <= k
	}
	return false, false
}

// ruleIntMod: once the result argument is the constraint's own target
// and has narrowed to a singleton, the back-end can treat it as a plain
// constant rather than re-deriving it, so the target linkage is dropped.
func (p *Presolver) ruleIntMod(c *Constraint) (bool, error) {
	if c.TargetVariable == nil || len(c.Args) != 3 {
		return false, nil
	}
	result := c.Args[2].VarOf()
	if result == c.TargetVariable && result.HasOneValue() {
		c.RemoveTarget()
		return true, nil
	}
	return false, nil
}

// ruleArrayIntElement implements array_int_element(idx, array, out)
// (idx 1-based into a constant array) per §4.4's sub-rules: a constant
// index resolves directly; an index aliased through the 2D-flattening
// map rewrites into the two-dimensional element form (only for a
// constraint marked strong_propagation); the index domain
// clips to the array's extent; a fixed output filters which positions
// remain possible; and the output's domain narrows to the values
// reachable from the index's current domain.
func (p *Presolver) ruleArrayIntElement(c *Constraint) (bool, error) {
	if len(c.Args) != 3 {
		return false, nil
	}
	idxArg, arrArg, outArg := c.Args[0], c.Args[1], c.Args[2]
	idxVar := idxArg.VarOf()
	if idxVar == nil || arrArg.Kind != ArgIntList {
		return false, nil
	}
	arr := arrArg.List
	n := int64(len(arr))

	if idxArg.HasOneValue() {
		pos := idxArg.Value()
		if pos < 1 || pos > n {
			idxVar.Domain.IntersectWithInterval(1, 0)
			c.Active = false
			return true, nil
		}
		c.Type = "int_eq"
		c.Args = []Argument{outArg, IntValueArg(arr[pos-1])}
		c.RemoveTarget()
		return true, nil
	}

	if isContiguousRun(arr) {
		return rewriteContiguousElement(c, idxArg, outArg, arr[0])
	}

	// The 2D rewrite is opt-in: it applies only to element constraints
	// marked strong_propagation.
	if fact, ok := p.flatten2DMap[idxVar]; ok && fact.a > 0 && c.StrongPropagation {
		c.Type = "array_int_element_2d"
		c.Args = []Argument{VarArg(fact.x), VarArg(fact.y), arrArg, outArg}
		c.Anns = append(c.Anns, Annotation{
			Kind:  AnnCall,
			Ident: "row_width",
			Items: []Annotation{{Kind: AnnInterval, IntervalLo: fact.a, IntervalHi: fact.a}},
		})
		return true, nil
	}

	if fact, ok := p.affineMap[idxVar]; ok {
		if rewrote, err := reverseAffineElement(c, fact, arr, outArg); rewrote || err != nil {
			return rewrote, err
		}
	}

	idxBefore := idxVar.Domain.Count()
	if idxVar.Min() < 1 || idxVar.Max() > n {
		idxVar.Domain.IntersectWithInterval(1, n)
	}
	if outArg.HasOneValue() {
		want := outArg.Value()
		var keep []int64
		for pos := int64(1); pos <= n; pos++ {
			if arr[pos-1] == want && idxVar.Domain.Contains(pos) {
				keep = append(keep, pos)
			}
		}
		if len(keep) == 0 {
			idxVar.Domain.IntersectWithInterval(1, 0)
		} else {
			idxVar.Domain.IntersectWithValues(keep)
		}
	}
	idxChanged := idxVar.Domain.Count() != idxBefore

	outChanged := false
	if out := outArg.VarOf(); out != nil && !outArg.HasOneValue() {
		lo, hi := idxVar.Min(), idxVar.Max()
		if lo < 1 {
			lo = 1
		}
		if hi > n {
			hi = n
		}
		var reachable []int64
		for pos := lo; pos <= hi; pos++ {
			if idxVar.Domain.Contains(pos) {
				reachable = append(reachable, arr[pos-1])
			}
		}
		before := out.Domain.Count()
		out.Domain.IntersectWithValues(sortUnique(reachable))
		outChanged = out.Domain.Count() != before
	}

	return idxChanged || outChanged, nil
}

// rewriteContiguousElement implements sub-rule 4: when arr is a contiguous
// increasing run starting at s, every selectable position satisfies
// result = index + (s-1), so the lookup itself can be dropped.
func rewriteContiguousElement(c *Constraint, idxArg, outArg Argument, s int64) (bool, error) {
	offset := s - 1
	if outArg.HasOneValue() {
		c.Type = "int_eq"
		c.Args = []Argument{idxArg, IntValueArg(outArg.Value() - offset)}
		c.RemoveTarget()
		return true, nil
	}
	outVar, idxVar := outArg.VarOf(), idxArg.VarOf()
	if outVar == nil || idxVar == nil {
		return false, nil
	}
	c.Type = "int_lin_eq"
	c.Args = []Argument{{Kind: ArgIntList, List: []int64{1, -1}}, VarArrayArg([]*Variable{outVar, idxVar}), IntValueArg(offset)}
	c.RemoveTarget()
	return true, nil
}

// affineValidRange returns the inclusive range of x for which a*x+b lands in
// [1, n], the array's valid position range, ordering lo <= hi regardless of
// a's sign.
func affineValidRange(a, b, n int64) (lo, hi int64) {
	if a > 0 {
		return ceilDiv(1-b, a), floorDiv(n-b, a)
	}
	return ceilDiv(n-b, a), floorDiv(1-b, a)
}

// reverseAffineElement implements sub-rule 5's affine branch. fact records
// that the index variable equals a*x+b for some other variable x; when every
// value in x's implied range maps to a valid array position starting at 1,
// the element lookup can run directly over x against a re-gathered array.
func reverseAffineElement(c *Constraint, fact affineFact, arr []int64, outArg Argument) (bool, error) {
	if fact.a == 0 {
		return false, nil
	}
	n := int64(len(arr))
	lo, hi := affineValidRange(fact.a, fact.b, n)
	if lo != 1 || hi < lo {
		return false, nil
	}
	newArr := make([]int64, hi)
	for x := int64(1); x <= hi; x++ {
		newArr[x-1] = arr[fact.a*x+fact.b-1]
	}
	fact.x.Domain.IntersectWithInterval(1, hi)
	c.Args = []Argument{VarArg(fact.x), {Kind: ArgIntList, List: newArr}, outArg}
	return true, nil
}

// ruleArrayVarIntElement implements array_var_int_element(idx, array,
// out), where array holds variables rather than constants: a constant
// index unifies out with the selected variable (or narrows it, if the
// selected slot or out is itself a constant); otherwise the index domain
// clips to the array's extent.
func (p *Presolver) ruleArrayVarIntElement(c *Constraint) (bool, error) {
	if len(c.Args) != 3 {
		return false, nil
	}
	idxArg, arrArg, outArg := c.Args[0], c.Args[1], c.Args[2]
	idxVar := idxArg.VarOf()
	if idxVar == nil || arrArg.Kind != ArgIntVarRefArray {
		return false, nil
	}
	vars := arrArg.Vars
	n := int64(len(vars))

	if idxArg.HasOneValue() {
		pos := idxArg.Value()
		if pos < 1 || pos > n {
			idxVar.Domain.IntersectWithInterval(1, 0)
			c.Active = false
			return true, nil
		}
		selected := vars[pos-1]
		if out := outArg.VarOf(); out != nil {
			if out == selected {
				c.Active = false
				return true, nil
			}
			if _, err := p.recordAlias(out, selected); err != nil {
				return false, err
			}
			c.Active = false
			return true, nil
		}
		if outArg.HasOneValue() {
			selected.Domain.IntersectWithInterval(outArg.Value(), outArg.Value())
			c.Active = false
			return true, nil
		}
		return false, nil
	}

	before := idxVar.Domain.Count()
	if idxVar.Min() < 1 || idxVar.Max() > n {
		idxVar.Domain.IntersectWithInterval(1, n)
	}
	return idxVar.Domain.Count() != before, nil
}

// linInfo is the parsed shape of an int_lin_* constraint: coeffs and
// vars are positionally paired (never re-sorted, unlike a set argument),
// and reif is non-nil for the _reif variants.
type linInfo struct {
	coeffs []int64
	vars   []*Variable
	rhs    int64
	reif   *Variable
}

func parseLinInfo(c *Constraint) (linInfo, bool) {
	if c.Args[0].Kind != ArgIntList || c.Args[1].Kind != ArgIntVarRefArray {
		return linInfo{}, false
	}
	if len(c.Args[0].List) != len(c.Args[1].Vars) || len(c.Args[0].List) == 0 {
		return linInfo{}, false
	}
	if !c.Args[2].HasOneValue() {
		return linInfo{}, false
	}
	li := linInfo{coeffs: c.Args[0].List, vars: c.Args[1].Vars, rhs: c.Args[2].Value()}
	if strings.HasSuffix(c.Type, "_reif") {
		if len(c.Args) != 4 {
			return linInfo{}, false
		}
		v := c.Args[3].VarOf()
		if v == nil {
			return linInfo{}, false
		}
		li.reif = v
	} else if len(c.Args) != 3 {
		return linInfo{}, false
	}
	return li, true
}

// linComparator extracts the comparator encoded by an int_lin_* type
// name, stripping the "_reif" suffix first when present.
func linComparator(c *Constraint) (comparator, string, bool) {
	base := strings.TrimSuffix(c.Type, "_reif")
	suffix := strings.TrimPrefix(base, "int_lin_")
	if suffix == base {
		return 0, "", false
	}
	cmp, ok := comparatorOf("x_" + suffix)
	if !ok {
		return 0, "", false
	}
	return cmp, suffix, true
}

// dispatchLinFamily is the generic rule set shared by every int_lin_*
// constraint: gt/lt canonicalization, negative-coefficient
// canonicalization, the affine/2D-flattening storage rules, hidden
// array_bool_or detection, linear reification bounds, unary
// simplification, positive-coefficient propagation, and target-variable
// creation. Exactly one rewrite is applied per call; dispatchUntilStable
// re-invokes this as needed.
func (p *Presolver) dispatchLinFamily(c *Constraint) (bool, error) {
	_, suffix, ok := linComparator(c)
	if !ok {
		return false, nil
	}

	if suffix == "gt" || suffix == "lt" {
		return canonicalizeLinGtLt(c, suffix)
	}

	if len(c.Args) < 3 {
		return false, nil
	}
	li, ok := parseLinInfo(c)
	if !ok {
		return false, nil
	}

	if rewrote := canonicalizeNegativeCoeffs(c, li, suffix); rewrote {
		return true, nil
	}

	if rewrote, err := p.storeLinFacts(c, li, suffix); rewrote || err != nil {
		return rewrote, err
	}

	if rewrote := hiddenArrayBoolOr(c, li, suffix); rewrote {
		return true, nil
	}

	if li.reif != nil {
		return linReifBoundsCheck(c, li, suffix)
	}

	if len(li.coeffs) == 1 {
		return unaryLinSimplify(c, li, suffix)
	}

	if rewrote, err := linPositivePropagation(c, li, suffix); rewrote || err != nil {
		return rewrote, err
	}

	if suffix == "eq" {
		return linTargetCreation(c, li, p.decisionVars)
	}

	return false, nil
}

// canonicalizeLinGtLt rewrites int_lin_gt/int_lin_lt (and their _reif
// forms) to the equivalent int_lin_ge/int_lin_le, guarding the rhs
// adjustment against signed-64-bit overflow at the sentinel bounds
// rather than wrapping.
func canonicalizeLinGtLt(c *Constraint, suffix string) (bool, error) {
	if len(c.Args) < 3 || !c.Args[2].HasOneValue() {
		return false, nil
	}
	reif := strings.HasSuffix(c.Type, "_reif")
	rhs := c.Args[2].Value()
	var newSuffix string
	switch suffix {
	case "gt":
		newSuffix = "ge"
		if rhs != math.MaxInt64 {
			rhs++
		}
	case "lt":
		newSuffix = "le"
		if rhs != math.MinInt64 {
			rhs--
		}
	}
	newType := "int_lin_" + newSuffix
	if reif {
		newType += "_reif"
	}
	c.Type = newType
	c.Args[2] = IntValueArg(rhs)
	return true, nil
}

// canonicalizeNegativeCoeffs flips the sign of every coefficient (and
// the rhs) when no coefficient is positive and at least one is negative,
// swapping le/ge to match;
// eq/ne are unaffected by the swap. It naturally fires only once, since
// the result's coefficients are no longer all-nonpositive.
func canonicalizeNegativeCoeffs(c *Constraint, li linInfo, suffix string) bool {
	allNonPositive, anyNegative := true, false
	for _, k := range li.coeffs {
		if k > 0 {
			allNonPositive = false
		}
		if k < 0 {
			anyNegative = true
		}
	}
	if !allNonPositive || !anyNegative {
		return false
	}
	negated := make([]int64, len(li.coeffs))
	for i, k := range li.coeffs {
		negated[i] = -k
	}
	newSuffix := suffix
	switch suffix {
	case "le":
		newSuffix = "ge"
	case "ge":
		newSuffix = "le"
	}
	newType := "int_lin_" + newSuffix
	if li.reif != nil {
		newType += "_reif"
	}
	c.Type = newType
	c.Args[0] = Argument{Kind: ArgIntList, List: negated}
	c.Args[2] = IntValueArg(-li.rhs)
	return true
}

// storeLinFacts records the affine and 2D-flattening facts of §4.4's
// storage rules: an int_lin_eq shaped [-1, a] over [z, x] with z the
// target means z = a*x + b; shaped [-1, a, 1] over [z, x, y] with z the
// target means z = a*x + y + b. It never rewrites the constraint.
func (p *Presolver) storeLinFacts(c *Constraint, li linInfo, suffix string) (bool, error) {
	if suffix != "eq" || c.TargetVariable == nil {
		return false, nil
	}
	z := c.TargetVariable
	idx := -1
	for i, v := range li.vars {
		if v == z {
			idx = i
			break
		}
	}
	if idx < 0 || li.coeffs[idx] != -1 {
		return false, nil
	}
	b := -li.rhs
	switch len(li.coeffs) {
	case 2:
		other := 1 - idx
		p.affineMap[z] = affineFact{a: li.coeffs[other], b: b, x: li.vars[other]}
	case 3:
		rest := make([]int, 0, 2)
		for i := range li.coeffs {
			if i != idx {
				rest = append(rest, i)
			}
		}
		switch {
		case li.coeffs[rest[1]] == 1:
			p.flatten2DMap[z] = flatten2DFact{a: li.coeffs[rest[0]], b: b, x: li.vars[rest[0]], y: li.vars[rest[1]]}
		case li.coeffs[rest[0]] == 1:
			p.flatten2DMap[z] = flatten2DFact{a: li.coeffs[rest[1]], b: b, x: li.vars[rest[1]], y: li.vars[rest[0]]}
		}
	}
	return false, nil
}

// hiddenArrayBoolOr detects int_lin_ge([1,...,1], bools, 1) — "at least
// one of these booleans is true" — and rewrites it to array_bool_or,
// which the back-end and later presolve rules both understand natively.
func hiddenArrayBoolOr(c *Constraint, li linInfo, suffix string) bool {
	if suffix != "ge" || li.reif != nil || li.rhs != 1 || c.TargetVariable != nil {
		return false
	}
	for _, k := range li.coeffs {
		if k != 1 {
			return false
		}
	}
	for _, v := range li.vars {
		if !v.IsBoolean() {
			return false
		}
	}
	c.Type = "array_bool_or"
	c.Args = []Argument{VarArrayArg(li.vars), IntValueArg(1)}
	return true
}

// sumBounds computes the achievable range of sum(coeffs[i]*vars[i])
// given each variable's current domain bounds, reporting overflow
// rather than silently wrapping (the sentinel-bound overflow guard).
func sumBounds(li linInfo) (minSum, maxSum int64, overflow bool) {
	for i, k := range li.coeffs {
		v := li.vars[i]
		lo, hi := v.Min(), v.Max()
		if lo == math.MinInt64 || hi == math.MaxInt64 {
			return 0, 0, true
		}
		var termLo, termHi int64
		if k >= 0 {
			termLo, termHi = k*lo, k*hi
		} else {
			termLo, termHi = k*hi, k*lo
		}
		if willMulOverflow(k, lo) || willMulOverflow(k, hi) {
			return 0, 0, true
		}
		newMin, ok1 := addOverflowSafe(minSum, termLo)
		newMax, ok2 := addOverflowSafe(maxSum, termHi)
		if !ok1 || !ok2 {
			return 0, 0, true
		}
		minSum, maxSum = newMin, newMax
	}
	return minSum, maxSum, false
}

func willMulOverflow(a, b int64) bool {
	if a == 0 || b == 0 {
		return false
	}
	r := a * b
	return r/a != b
}

func addOverflowSafe(a, b int64) (int64, bool) {
	r := a + b
	if (b > 0 && r < a) || (b < 0 && r > a) {
		return 0, false
	}
	return r, true
}

// linReifBoundsCheck implements the linear reification bounds-check
// rule: if the sum's achievable range makes the comparison always or
// never true, fix the reification variable accordingly.
func linReifBoundsCheck(c *Constraint, li linInfo, suffix string) (bool, error) {
	minSum, maxSum, overflow := sumBounds(li)
	if overflow {
		return false, nil
	}
	var always, never bool
	switch suffix {
	case "eq":
		always = minSum == maxSum && minSum == li.rhs
		never = li.rhs < minSum || li.rhs > maxSum
	case "ne":
		never = minSum == maxSum && minSum == li.rhs
		always = li.rhs < minSum || li.rhs > maxSum
	case "le":
		always = maxSum <= li.rhs
		never = minSum > li.rhs
	case "ge":
		always = minSum >= li.rhs
		never = maxSum < li.rhs
	}
	if always {
		li.reif.Domain.IntersectWithInterval(1, 1)
		return true, nil
	}
	if never {
		li.reif.Domain.IntersectWithInterval(0, 0)
		return true, nil
	}
	return false, nil
}

func floorDiv(n, d int64) int64 {
	q := n / d
	if n%d != 0 && (n < 0) != (d < 0) {
		q--
	}
	return q
}

func ceilDiv(n, d int64) int64 {
	q := n / d
	if n%d != 0 && (n < 0) == (d < 0) {
		q++
	}
	return q
}

// unaryLinSimplify implements the unary linear-simplification rule: a
// single-term, non-reified int_lin_* is just a bound or equality on one
// variable.
func unaryLinSimplify(c *Constraint, li linInfo, suffix string) (bool, error) {
	a := li.coeffs[0]
	x := li.vars[0]
	if a == 0 {
		c.Active = false
		return true, nil
	}
	switch suffix {
	case "eq":
		if li.rhs%a != 0 {
			x.Domain.IntersectWithInterval(1, 0)
		} else {
			v := li.rhs / a
			x.Domain.IntersectWithInterval(v, v)
		}
	case "ne":
		if li.rhs%a == 0 {
			x.Domain.RemoveValue(li.rhs / a)
		}
	case "le":
		if a > 0 {
			x.Domain.IntersectWithInterval(math.MinInt64, floorDiv(li.rhs, a))
		} else {
			x.Domain.IntersectWithInterval(ceilDiv(li.rhs, a), math.MaxInt64)
		}
	case "ge":
		if a > 0 {
			x.Domain.IntersectWithInterval(ceilDiv(li.rhs, a), math.MaxInt64)
		} else {
			x.Domain.IntersectWithInterval(math.MinInt64, floorDiv(li.rhs, a))
		}
	}
	c.Active = false
	return true, nil
}

// linPositivePropagation implements positive-coefficient linear bound
// propagation: when every coefficient is positive, each variable's
// bound tightens against the slack left by the others' extremes. A
// one-shot guard (PresolvePropagationDone) avoids re-deriving the same
// bound forever. Nothing clears the guard, so narrowing that happens
// after the first application is not propagated through this
// constraint again.
func linPositivePropagation(c *Constraint, li linInfo, suffix string) (bool, error) {
	if c.PresolvePropagationDone || (suffix != "le" && suffix != "ge" && suffix != "eq") {
		return false, nil
	}
	for _, k := range li.coeffs {
		if k <= 0 {
			c.PresolvePropagationDone = true
			return false, nil
		}
	}

	minSum, maxSum, overflow := sumBounds(li)
	if overflow {
		c.PresolvePropagationDone = true
		return false, nil
	}

	changed := false
	for i, k := range li.coeffs {
		v := li.vars[i]
		otherMin, ok1 := addOverflowSafe(minSum, -k*v.Min())
		otherMax, ok2 := addOverflowSafe(maxSum, -k*v.Max())
		if !ok1 || !ok2 {
			continue
		}
		before := v.Domain.Count()
		if suffix == "le" || suffix == "eq" {
			v.Domain.IntersectWithInterval(math.MinInt64, floorDiv(li.rhs-otherMin, k))
		}
		if suffix == "ge" || suffix == "eq" {
			v.Domain.IntersectWithInterval(ceilDiv(li.rhs-otherMax, k), math.MaxInt64)
		}
		if v.Domain.Count() != before {
			changed = true
		}
	}

	c.PresolvePropagationDone = true
	return changed, nil
}

// linTargetCreation implements target-variable creation on linear
// equalities: a coefficient of exactly ±1 on a variable with no existing
// defining constraint makes that variable extractable as this
// constraint's target. Per §4.4 phase 1's decision-variable set, a
// variable named in a search annotation is left as a free decision
// variable when some other eligible candidate exists, so the search
// driver still gets to label it directly; it is only bound as a target
// when it is the sole eligible candidate.
func linTargetCreation(c *Constraint, li linInfo, decisionVars map[*Variable]bool) (bool, error) {
	if c.TargetVariable != nil {
		return false, nil
	}
	var decisionCandidate *Variable
	for i, k := range li.coeffs {
		if k != 1 && k != -1 {
			continue
		}
		v := li.vars[i]
		if v.DefiningConstraint != nil {
			continue
		}
		if decisionVars[v] {
			if decisionCandidate == nil {
				decisionCandidate = v
			}
			continue
		}
		if err := c.SetTarget(v); err != nil {
			continue
		}
		return true, nil
	}
	if decisionCandidate != nil {
		if err := c.SetTarget(decisionCandidate); err != nil {
			return false, nil
		}
		return true, nil
	}
	return false, nil
}
