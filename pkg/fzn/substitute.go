package fzn

// Substitute walks the entire model, replacing every variable slot —
// constraint arguments, target-variable pointers, annotation trees, and
// output items — with its union-find representative (§4.5, C7). It runs
// between presolve passes, never during rule dispatch, so no rule ever
// observes a partially substituted IR.
//
// Substitute is idempotent: calling it with an empty union-find (no
// aliases recorded) is the identity on the model.
func Substitute(m *Model, uf *UnionFind) {
	if uf.Empty() {
		return
	}

	for _, c := range m.Constraints {
		for i := range c.Args {
			substituteArg(&c.Args[i], uf)
		}
		for i := range c.Anns {
			substituteAnn(&c.Anns[i], uf)
		}
		if c.TargetVariable != nil {
			rep := uf.Find(c.TargetVariable)
			if rep != c.TargetVariable {
				// The target is itself aliased: follow it to its
				// representative and keep the bijection intact.
				c.TargetVariable = rep
				rep.DefiningConstraint = c
			}
		}
	}

	for i := range m.Outputs {
		out := &m.Outputs[i]
		for j, v := range out.Vars {
			out.Vars[j] = uf.Find(v)
		}
	}

	for i := range m.SearchAnns {
		substituteAnn(&m.SearchAnns[i], uf)
	}

	if m.Objective != nil {
		m.Objective = uf.Find(m.Objective)
	}

	// Defensive re-intersection: a loser's domain may have narrowed after
	// its alias was recorded but before this flush ran (rules can still
	// touch a variable's domain directly in the same pass). Re-applying
	// the intersection here is a no-op if nothing changed and otherwise
	// keeps the winner consistent with everything presolve learned about
	// the loser in between.
	for loser, winner := range uf.parent {
		root := uf.Find(winner)
		root.Domain.IntersectWithDomain(loser.Domain)
	}
}

func substituteArg(a *Argument, uf *UnionFind) {
	switch a.Kind {
	case ArgIntVarRef:
		a.Var = uf.Find(a.Var)
	case ArgIntVarRefArray:
		for i, v := range a.Vars {
			a.Vars[i] = uf.Find(v)
		}
	}
}

func substituteAnn(a *Annotation, uf *UnionFind) {
	switch a.Kind {
	case AnnVarRef:
		a.Var = uf.Find(a.Var)
	case AnnVarRefArray:
		for i, v := range a.Vars {
			a.Vars[i] = uf.Find(v)
		}
	case AnnList, AnnCall:
		for i := range a.Items {
			substituteAnn(&a.Items[i], uf)
		}
	}
}
