package fzn

// Cleanup performs the once-only pass of §4.6 (C8) after presolve reaches
// its fix-point: stripping target variables the back-end cannot accept,
// creating target variables where the back-end needs one, and regrouping
// chained binary min/max into their n-ary form.
func Cleanup(m *Model) {
	for _, c := range m.ActiveConstraints() {
		stripLinEqTableTarget(c)
		stripSATUnfriendlyTarget(c)
		stripAlwaysUnfriendlyTarget(c)
		createReifTarget(c)
	}
	regroupChainedMinMax(m)
}

// stripLinEqTableTarget implements clean-up step 1: an int_lin_eq with
// more than three terms marked strong_propagation will be implemented as
// a table constraint, which cannot define a variable.
func stripLinEqTableTarget(c *Constraint) {
	if c.Type != "int_lin_eq" || c.TargetVariable == nil || !c.StrongPropagation {
		return
	}
	if len(c.Args) < 2 || c.Args[1].Kind != ArgIntVarRefArray {
		return
	}
	if len(c.Args[1].Vars) > 3 {
		c.RemoveTarget()
	}
}

var satUnfriendlyTypes = map[string]bool{
	"array_bool_and":   true,
	"array_bool_or":    true,
	"bool_eq_reif":     true,
	"bool_ne_reif":     true,
}

// stripSATUnfriendlyTarget implements clean-up step 2: strip the target
// from array_bool_and/or and reified bool comparisons whose comparand is
// unbound, since a SAT-routed back-end does not accept target variables
// on these.
func stripSATUnfriendlyTarget(c *Constraint) {
	if c.TargetVariable == nil || !satUnfriendlyTypes[c.Type] {
		return
	}
	if c.Type == "array_bool_and" || c.Type == "array_bool_or" {
		c.RemoveTarget()
		return
	}
	// reified bool comparisons: only strip when the comparand (the second
	// argument) is not yet bound.
	if len(c.Args) == 3 && !c.Args[1].HasOneValue() {
		c.RemoveTarget()
	}
}

// stripAlwaysUnfriendlyTarget implements clean-up step 3: count_reif and
// set_in_reif always lose their target variable.
func stripAlwaysUnfriendlyTarget(c *Constraint) {
	if c.TargetVariable == nil {
		return
	}
	if c.Type == "count_reif" || c.Type == "set_in_reif" {
		c.RemoveTarget()
	}
}

var reifTypes = map[string]bool{
	"int_eq_reif": true, "int_ne_reif": true,
	"int_le_reif": true, "int_lt_reif": true,
	"int_ge_reif": true, "int_gt_reif": true,
	"bool_eq_reif": true, "bool_ne_reif": true,
	"set_in_reif": true, "count_reif": true,
}

// createReifTarget implements clean-up step 4: a reified comparison whose
// boolean argument has no defining constraint of its own becomes the
// target, so it is extracted as a defined variable instead of a free one.
func createReifTarget(c *Constraint) {
	if !reifTypes[c.Type] || c.TargetVariable != nil {
		return
	}
	last := c.Args[len(c.Args)-1]
	b := last.VarOf()
	if b == nil || b.HasOneValue() || b.DefiningConstraint != nil {
		return
	}
	_ = c.SetTarget(b) // cannot fail: b has no existing defining constraint
}

// regroupChainedMinMax implements clean-up step 5: the MiniZinc flattener
// emits binary int_min/int_max chains for an n-ary min/max expression.
// Detect a chain head (a self-application int_min(x, x, z) or
// int_max(x, x, z)), follow subsequent links whose second argument equals
// the prior link's output and whose output is referenced by at most the
// next link, and rewrite the whole chain into minimum_int/maximum_int
// over the full operand vector.
func regroupChainedMinMax(m *Model) {
	stats := NewModelStatistics(m)

	byOutput := make(map[*Variable]*Constraint)
	isHead := make(map[*Constraint]bool)
	for _, c := range m.ActiveConstraints() {
		if c.Type != "int_min" && c.Type != "int_max" {
			continue
		}
		if len(c.Args) != 3 {
			continue
		}
		out := c.Args[2].VarOf()
		if out == nil {
			continue
		}
		byOutput[out] = c
		if a := c.Args[0].VarOf(); a != nil && a == c.Args[1].VarOf() {
			isHead[c] = true
		}
	}

	visited := make(map[*Constraint]bool)
	for headC := range isHead {
		if !headC.Active || visited[headC] {
			continue
		}
		chainType := headC.Type
		operands := []*Variable{headC.Args[0].VarOf()}
		cur := headC
		intermediates := []*Constraint{}

		for {
			out := cur.Args[2].VarOf()
			if out == nil {
				break
			}
			if len(stats.ConstraintsReferencing(out)) > 2 {
				break
			}
			next := findChainSuccessor(m, chainType, out)
			if next == nil {
				break
			}
			operands = append(operands, next.Args[0].VarOf())
			intermediates = append(intermediates, cur)
			cur = next
		}

		if len(intermediates) == 0 {
			continue // no chain beyond the head: leave as plain binary min/max
		}

		final := cur.Args[2].VarOf()

		newType := "minimum_int"
		if chainType == "int_max" {
			newType = "maximum_int"
		}
		headC.Type = newType
		headC.Args = []Argument{VarArrayArg(operands), VarArg(final)}
		headC.RemoveTarget()
		cur.RemoveTarget() // frees final so headC can take it as its target
		if final != nil {
			_ = headC.SetTarget(final)
		}
		visited[headC] = true

		for _, mid := range intermediates {
			visited[mid] = true
			if mid == headC {
				continue // headC survives, rewritten above into the n-ary form
			}
			mid.Active = false
			mid.RemoveTarget()
		}
		cur.Active = false
		cur.RemoveTarget()
	}
}

// findChainSuccessor finds the active int_min/int_max constraint (of the
// same type) whose second argument is prevOutput, i.e. the next link in
// the chain.
func findChainSuccessor(m *Model, typ string, prevOutput *Variable) *Constraint {
	for _, c := range m.ActiveConstraints() {
		if c.Type != typ || len(c.Args) != 3 {
			continue
		}
		if c.Args[1].VarOf() == prevOutput {
			return c
		}
	}
	return nil
}
