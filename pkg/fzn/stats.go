package fzn

// ModelStatistics scans every active constraint in a model and builds two
// multi-maps: constraint-type → constraints, and variable → constraints it
// appears in. The search driver's variable ordering and the clean-up
// pass's chained min/max detection read these occurrence counts.
type ModelStatistics struct {
	byType     map[string][]*Constraint
	byVariable map[*Variable][]*Constraint
}

// NewModelStatistics scans m's active constraints and builds the two
// multi-maps.
func NewModelStatistics(m *Model) *ModelStatistics {
	s := &ModelStatistics{
		byType:     make(map[string][]*Constraint),
		byVariable: make(map[*Variable][]*Constraint),
	}
	for _, c := range m.ActiveConstraints() {
		s.byType[c.Type] = append(s.byType[c.Type], c)
		for _, v := range constraintVariables(c) {
			s.byVariable[v] = append(s.byVariable[v], c)
		}
	}
	return s
}

// constraintVariables returns every variable referenced anywhere in c's
// argument list (scalar refs and array refs alike), without deduplication.
func constraintVariables(c *Constraint) []*Variable {
	var out []*Variable
	for _, a := range c.Args {
		switch a.Kind {
		case ArgIntVarRef:
			out = append(out, a.Var)
		case ArgIntVarRefArray:
			out = append(out, a.Vars...)
		}
	}
	return out
}

// ConstraintsOfType returns the active constraints of the given type, in
// insertion order.
func (s *ModelStatistics) ConstraintsOfType(typ string) []*Constraint {
	return s.byType[typ]
}

// OccurrenceCount returns the number of active constraints referencing v,
// the count the search driver orders its variables by.
func (s *ModelStatistics) OccurrenceCount(v *Variable) int {
	return len(s.byVariable[v])
}

// ConstraintsReferencing returns the active constraints referencing v.
func (s *ModelStatistics) ConstraintsReferencing(v *Variable) []*Constraint {
	return s.byVariable[v]
}

// DecisionVariables collects every variable mentioned anywhere in the
// model's search annotations into a set. Presolve's first pass builds it
// (§4.4 phase 1), and the linear target-creation rule uses it to avoid
// choosing a decision variable as a target when another candidate exists.
func DecisionVariables(m *Model) map[*Variable]bool {
	set := make(map[*Variable]bool)
	var walk func(a Annotation)
	walk = func(a Annotation) {
		switch a.Kind {
		case AnnVarRef:
			set[a.Var] = true
		case AnnVarRefArray:
			for _, v := range a.Vars {
				set[v] = true
			}
		case AnnList, AnnCall:
			for _, item := range a.Items {
				walk(item)
			}
		}
	}
	for _, ann := range m.SearchAnns {
		walk(ann)
	}
	return set
}
