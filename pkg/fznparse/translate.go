package fznparse

import (
	"fmt"

	"fzncore/pkg/fzn"
)

// translate walks a parsed Source and builds the *fzn.Model and
// *fzn.ParseContext it describes, resolving every identifier through the
// context's five namespaces as it goes (§4.2).
func translate(src *Source) (*fzn.Model, *fzn.ParseContext, error) {
	m := fzn.NewModel()
	pc := fzn.NewParseContext()

	for _, item := range src.Items {
		var err error
		switch {
		case item.Predicate != nil:
			// Signature already discarded by the lexer; nothing to do.
		case item.DomainAlias != nil:
			err = translateDomainAliasItem(pc, item.DomainAlias)
		case item.Decl != nil:
			err = translateDecl(m, pc, item.Decl)
		case item.Constraint != nil:
			err = translateConstraint(m, pc, item.Constraint)
		case item.Solve != nil:
			err = translateSolve(m, pc, item.Solve)
		default:
			err = fmt.Errorf("fznparse: empty item")
		}
		if err != nil {
			return nil, nil, err
		}
	}
	return m, pc, nil
}

func translateDecl(m *fzn.Model, pc *fzn.ParseContext, d *DeclItem) error {
	if len(d.ArrayDims) > 0 {
		return translateArrayDecl(m, pc, d)
	}
	return translateScalarDecl(m, pc, d)
}

// translateDomainAliasItem handles `set of int: NAME = <range or set>;`,
// registering NAME so a later `var NAME: x;` can resolve it.
func translateDomainAliasItem(pc *fzn.ParseContext, a *DomainAliasItem) error {
	var dom *fzn.Domain
	switch {
	case a.Range != nil:
		dom = fzn.NewIntervalDomain(a.Range.Lo, a.Range.Hi)
	case a.Set != nil:
		dom = fzn.NewListDomain(a.Set.Values)
	default:
		return fmt.Errorf("fznparse: %s: empty set of int initializer", a.Name)
	}
	pc.DefineDomainAlias(a.Name, dom)
	return nil
}

func translateArrayDecl(m *fzn.Model, pc *fzn.ParseContext, d *DeclItem) error {
	n, err := arrayLength(d.ArrayDims)
	if err != nil {
		return fmt.Errorf("fznparse: %s: %w", d.Name, err)
	}
	if d.IsVar {
		return translateVarArrayDecl(m, pc, d, n)
	}
	return translateParArrayDecl(pc, d, n)
}

// arrayLength returns the element count implied by the declared index
// sets. This front end models single-dimension arrays, the only form
// FlatZinc's flattener actually emits.
func arrayLength(dims []*IntRange) (int, error) {
	if len(dims) != 1 {
		return 0, fmt.Errorf("only single-dimension arrays are supported, got %d dimensions", len(dims))
	}
	r := dims[0]
	if r.Hi < r.Lo {
		return 0, fmt.Errorf("empty index set %d..%d", r.Lo, r.Hi)
	}
	return int(r.Hi-r.Lo) + 1, nil
}

func translateParArrayDecl(pc *fzn.ParseContext, d *DeclItem, n int) error {
	if d.Init == nil || d.Init.List == nil {
		return fmt.Errorf("fznparse: %s: par array declaration without a literal initializer", d.Name)
	}
	if len(d.Init.List.Elems) != n {
		return fmt.Errorf("fznparse: %s: declared length %d but initializer has %d elements", d.Name, n, len(d.Init.List.Elems))
	}
	values := make([]int64, n)
	for i, e := range d.Init.List.Elems {
		v, err := constIntOfArg(pc, e)
		if err != nil {
			return fmt.Errorf("fznparse: %s[%d]: %w", d.Name, i+1, err)
		}
		values[i] = v
	}
	pc.DefineIntConstArray(d.Name, values)
	return nil
}

// translateVarArrayDecl handles `array [lo..hi] of var T: NAME = [...];`.
// d.Type is validated (resolving any domain alias) but otherwise unused
// here: each element is its own pre-declared variable (or a constant
// lifted on the spot), already carrying its own specific domain.
func translateVarArrayDecl(m *fzn.Model, pc *fzn.ParseContext, d *DeclItem, n int) error {
	if _, err := buildDomain(pc, d.Type); err != nil {
		return fmt.Errorf("fznparse: %s: %w", d.Name, err)
	}
	if d.Init == nil || d.Init.List == nil {
		return fmt.Errorf("fznparse: %s: var array declaration without a member-list initializer", d.Name)
	}
	if len(d.Init.List.Elems) != n {
		return fmt.Errorf("fznparse: %s: declared length %d but initializer has %d elements", d.Name, n, len(d.Init.List.Elems))
	}
	vars := make([]*fzn.Variable, n)
	for i, e := range d.Init.List.Elems {
		v, isNew, err := arrayElemVar(pc, e)
		if err != nil {
			return fmt.Errorf("fznparse: %s[%d]: %w", d.Name, i+1, err)
		}
		if isNew {
			m.AddVariable(v)
		}
		vars[i] = v
	}
	pc.DefineVariableArray(d.Name, vars)
	applyOutputAnnotations(m, pc, d.Name, d.Anns, d.ArrayDims, vars)
	return nil
}

func translateScalarDecl(m *fzn.Model, pc *fzn.ParseContext, d *DeclItem) error {
	if d.IsVar {
		return translateScalarVarDecl(m, pc, d)
	}
	return translateScalarParDecl(pc, d)
}

func translateScalarParDecl(pc *fzn.ParseContext, d *DeclItem) error {
	if d.Init == nil || d.Init.Value == nil {
		return fmt.Errorf("fznparse: %s: par declaration without a scalar initializer", d.Name)
	}
	v, err := constIntOf(pc, d.Init.Value)
	if err != nil {
		return fmt.Errorf("fznparse: %s: %w", d.Name, err)
	}
	pc.DefineIntConst(d.Name, v)
	return nil
}

func translateScalarVarDecl(m *fzn.Model, pc *fzn.ParseContext, d *DeclItem) error {
	dom, err := buildDomain(pc, d.Type)
	if err != nil {
		return fmt.Errorf("fznparse: %s: %w", d.Name, err)
	}
	v := fzn.NewVariable(d.Name, dom)
	if d.Init != nil && d.Init.Value != nil {
		if err := applyScalarInit(pc, v, d.Init.Value); err != nil {
			return fmt.Errorf("fznparse: %s: %w", d.Name, err)
		}
	}
	m.AddVariable(v)
	pc.DefineVariable(d.Name, v)
	applyOutputAnnotations(m, pc, d.Name, d.Anns, nil, []*fzn.Variable{v})
	return nil
}

// applyScalarInit handles `var T: x = <init>;` where init is an integer
// literal, `true` or `false`: x's domain narrows to that single value.
// Any other initializer, including the name of another variable or of a
// named constant, is rejected with an error.
func applyScalarInit(pc *fzn.ParseContext, v *fzn.Variable, lit *ScalarLit) error {
	if lit.Int != nil {
		v.Domain.IntersectWithInterval(*lit.Int, *lit.Int)
		return nil
	}
	if lit.Ident != nil {
		switch *lit.Ident {
		case "true":
			v.Domain.IntersectWithInterval(1, 1)
			return nil
		case "false":
			v.Domain.IntersectWithInterval(0, 0)
			return nil
		}
	}
	return fmt.Errorf("unsupported scalar initializer")
}

func translateConstraint(m *fzn.Model, pc *fzn.ParseContext, ci *ConstraintItem) error {
	args := make([]fzn.Argument, len(ci.Args))
	for i, a := range ci.Args {
		arg, err := buildArgument(pc, a)
		if err != nil {
			return fmt.Errorf("fznparse: constraint %s: argument %d: %w", ci.Name, i+1, err)
		}
		args[i] = arg
	}
	c := fzn.NewConstraint(ci.Name, args...)
	anns, err := buildAnnotations(pc, ci.Anns)
	if err != nil {
		return fmt.Errorf("fznparse: constraint %s: %w", ci.Name, err)
	}
	c.Anns = anns
	m.AddConstraint(c)
	return nil
}

func translateSolve(m *fzn.Model, pc *fzn.ParseContext, si *SolveItem) error {
	anns, err := buildAnnotations(pc, si.Anns)
	if err != nil {
		return fmt.Errorf("fznparse: solve: %w", err)
	}
	m.SearchAnns = anns

	switch {
	case si.Satisfy:
		return nil
	case si.Minimize != nil:
		v, err := objectiveVar(pc, si.Minimize)
		if err != nil {
			return fmt.Errorf("fznparse: solve minimize: %w", err)
		}
		m.Objective = v
		m.Maximize = false
		return nil
	case si.Maximize != nil:
		v, err := objectiveVar(pc, si.Maximize)
		if err != nil {
			return fmt.Errorf("fznparse: solve maximize: %w", err)
		}
		m.Objective = v
		m.Maximize = true
		return nil
	}
	return fmt.Errorf("fznparse: empty solve item")
}

func objectiveVar(pc *fzn.ParseContext, a *Arg) (*fzn.Variable, error) {
	if a.Lit == nil || a.Lit.Ident == nil {
		return nil, fmt.Errorf("objective must be a variable reference")
	}
	return pc.LookupVariable(*a.Lit.Ident)
}
