package fznparse

import (
	"fmt"

	"fzncore/pkg/fzn"
)

// buildDomain translates a parsed Domain into a *fzn.Domain, resolving
// alias references through the context (cloned, since a Domain is mutated
// in place by the presolver and must not be shared between variables).
func buildDomain(pc *fzn.ParseContext, d *Domain) (*fzn.Domain, error) {
	switch {
	case d.Bool:
		return fzn.NewIntervalDomain(0, 1), nil
	case d.Plain:
		return fzn.NewUniversalDomain(), nil
	case d.IsFloat:
		return fzn.NewUniversalDomain(), nil
	case d.Range != nil:
		return fzn.NewIntervalDomain(d.Range.Lo, d.Range.Hi), nil
	case d.Set != nil:
		return fzn.NewListDomain(d.Set.Values), nil
	case d.Alias != "":
		dom, err := pc.LookupDomainAlias(d.Alias)
		if err != nil {
			return nil, err
		}
		return dom.Clone(), nil
	}
	return nil, fmt.Errorf("empty domain")
}

// buildArgument translates a single constraint/annotation Arg into a
// fzn.Argument, resolving identifiers through pc.
func buildArgument(pc *fzn.ParseContext, a *Arg) (fzn.Argument, error) {
	switch {
	case a.Range != nil:
		return fzn.IntIntervalArg(a.Range.Lo, a.Range.Hi), nil
	case a.Set != nil:
		return fzn.IntListArg(a.Set.Values), nil
	case a.List != nil:
		return buildArrayLiteral(pc, a.List)
	case a.Lit != nil:
		return buildScalarOrArrayIdent(pc, a.Lit)
	}
	return fzn.Argument{}, fmt.Errorf("empty argument")
}

// buildScalarOrArrayIdent resolves a ScalarLit used directly as a
// constraint argument. An identifier may name a scalar variable, a scalar
// constant, or — since FlatZinc passes whole arrays by bare name — an
// entire variable or constant array.
func buildScalarOrArrayIdent(pc *fzn.ParseContext, lit *ScalarLit) (fzn.Argument, error) {
	if lit.Float != nil {
		return fzn.Argument{Kind: fzn.ArgVoid}, nil
	}
	if lit.Int != nil {
		return fzn.IntValueArg(*lit.Int), nil
	}
	name := *lit.Ident
	switch name {
	case "true":
		return fzn.IntValueArg(1), nil
	case "false":
		return fzn.IntValueArg(0), nil
	}
	if v, err := pc.LookupVariable(name); err == nil {
		return fzn.VarArg(v), nil
	}
	if v, err := pc.LookupIntConst(name); err == nil {
		return fzn.IntValueArg(v), nil
	}
	if vs, err := pc.VariableArray(name); err == nil {
		return fzn.VarArrayArg(vs), nil
	}
	if vs, err := pc.IntConstArray(name); err == nil {
		return fzn.Argument{Kind: fzn.ArgIntList, List: vs}, nil
	}
	return fzn.Argument{}, fmt.Errorf("%w: undefined identifier %q", fzn.ErrReference, name)
}

// buildArrayLiteral translates a bracketed `[e1, ..., en]` argument. A
// literal made up entirely of constants (ints, true/false, or previously
// defined int constants) becomes an IntList; any element naming a
// variable promotes the whole literal to a variable array, lifting the
// remaining constant elements to fresh singleton variables so every slot
// is a *fzn.Variable.
func buildArrayLiteral(pc *fzn.ParseContext, list *ListLiteral) (fzn.Argument, error) {
	if len(list.Elems) == 0 {
		return fzn.Argument{Kind: fzn.ArgIntList}, nil
	}
	if allConstElems(pc, list.Elems) {
		values := make([]int64, len(list.Elems))
		for i, e := range list.Elems {
			v, err := constIntOfArg(pc, e)
			if err != nil {
				return fzn.Argument{}, err
			}
			values[i] = v
		}
		return fzn.Argument{Kind: fzn.ArgIntList, List: values}, nil
	}
	vars := make([]*fzn.Variable, len(list.Elems))
	for i, e := range list.Elems {
		v, _, err := arrayElemVar(pc, e)
		if err != nil {
			return fzn.Argument{}, err
		}
		vars[i] = v
	}
	return fzn.VarArrayArg(vars), nil
}

func allConstElems(pc *fzn.ParseContext, elems []*Arg) bool {
	for _, e := range elems {
		if e.Lit == nil {
			return false
		}
		if e.Lit.Float != nil {
			return false
		}
		if e.Lit.Ident == nil {
			continue
		}
		name := *e.Lit.Ident
		if name == "true" || name == "false" {
			continue
		}
		if _, err := pc.LookupVariable(name); err == nil {
			return false
		}
	}
	return true
}

// arrayElemVar resolves one list-literal element to a *fzn.Variable: an
// existing variable reference is returned as-is (isNew false); a literal
// constant or `true`/`false` is lifted to a fresh, unregistered singleton
// variable (isNew true, so the caller knows to add it to the model).
func arrayElemVar(pc *fzn.ParseContext, e *Arg) (v *fzn.Variable, isNew bool, err error) {
	if e.Lit == nil {
		return nil, false, fmt.Errorf("array element must be a variable reference or literal")
	}
	lit := e.Lit
	switch {
	case lit.Int != nil:
		return liftConst(*lit.Int), true, nil
	case lit.Float != nil:
		nv := fzn.NewVariable("", fzn.NewUniversalDomain())
		nv.Temporary = true
		return nv, true, nil
	case lit.Ident != nil:
		name := *lit.Ident
		switch name {
		case "true":
			return liftConst(1), true, nil
		case "false":
			return liftConst(0), true, nil
		}
		existing, lookErr := pc.LookupVariable(name)
		if lookErr != nil {
			if k, constErr := pc.LookupIntConst(name); constErr == nil {
				return liftConst(k), true, nil
			}
			return nil, false, lookErr
		}
		return existing, false, nil
	}
	return nil, false, fmt.Errorf("empty array element")
}

func liftConst(v int64) *fzn.Variable {
	nv := fzn.NewVariable("", fzn.NewValueDomain(v))
	nv.Temporary = true
	return nv
}

func constIntOfArg(pc *fzn.ParseContext, a *Arg) (int64, error) {
	if a.Lit == nil {
		return 0, fmt.Errorf("expected a scalar constant")
	}
	return constIntOf(pc, a.Lit)
}

func constIntOf(pc *fzn.ParseContext, lit *ScalarLit) (int64, error) {
	if lit.Int != nil {
		return *lit.Int, nil
	}
	if lit.Ident != nil {
		name := *lit.Ident
		switch name {
		case "true":
			return 1, nil
		case "false":
			return 0, nil
		}
		return pc.LookupIntConst(name)
	}
	return 0, fmt.Errorf("expected an integer constant")
}

// buildAnnotations translates a parsed annotation list in order.
func buildAnnotations(pc *fzn.ParseContext, anns []*Annotation) ([]fzn.Annotation, error) {
	out := make([]fzn.Annotation, len(anns))
	for i, a := range anns {
		ann, err := buildAnnotation(pc, a)
		if err != nil {
			return nil, err
		}
		out[i] = ann
	}
	return out, nil
}

func buildAnnotation(pc *fzn.ParseContext, a *Annotation) (fzn.Annotation, error) {
	if len(a.Args) == 0 {
		return fzn.Annotation{Kind: fzn.AnnIdent, Ident: a.Name}, nil
	}
	items := make([]fzn.Annotation, len(a.Args))
	for i, arg := range a.Args {
		item, err := buildAnnotationArg(pc, arg)
		if err != nil {
			return fzn.Annotation{}, fmt.Errorf("%s: %w", a.Name, err)
		}
		items[i] = item
	}
	return fzn.Annotation{Kind: fzn.AnnCall, Ident: a.Name, Items: items}, nil
}

// buildAnnotationArg translates one annotation argument. A bare integer
// has no dedicated AnnKind in the IR, so it is represented as a
// zero-width AnnInterval (Lo == Hi), matching how the IR already folds
// single-value domains into interval form elsewhere.
func buildAnnotationArg(pc *fzn.ParseContext, a *Arg) (fzn.Annotation, error) {
	switch {
	case a.Range != nil:
		return fzn.Annotation{Kind: fzn.AnnInterval, IntervalLo: a.Range.Lo, IntervalHi: a.Range.Hi}, nil
	case a.Set != nil:
		return fzn.Annotation{}, fmt.Errorf("set literals are not supported inside annotations")
	case a.List != nil:
		items := make([]fzn.Annotation, len(a.List.Elems))
		for i, e := range a.List.Elems {
			item, err := buildAnnotationArg(pc, e)
			if err != nil {
				return fzn.Annotation{}, err
			}
			items[i] = item
		}
		// A non-empty list whose every element names a variable becomes
		// a variable-reference array.
		vars := make([]*fzn.Variable, 0, len(items))
		for _, item := range items {
			if item.Kind == fzn.AnnVarRef {
				vars = append(vars, item.Var)
			}
		}
		if len(vars) > 0 && len(vars) == len(items) {
			return fzn.Annotation{Kind: fzn.AnnVarRefArray, Vars: vars}, nil
		}
		return fzn.Annotation{Kind: fzn.AnnList, Items: items}, nil
	case a.Lit != nil:
		return buildAnnotationLit(pc, a.Lit)
	}
	return fzn.Annotation{}, fmt.Errorf("empty annotation argument")
}

func buildAnnotationLit(pc *fzn.ParseContext, lit *ScalarLit) (fzn.Annotation, error) {
	if lit.Int != nil {
		return fzn.Annotation{Kind: fzn.AnnInterval, IntervalLo: *lit.Int, IntervalHi: *lit.Int}, nil
	}
	if lit.Float != nil {
		return fzn.Annotation{Kind: fzn.AnnIdent, Ident: "<float>"}, nil
	}
	name := *lit.Ident
	if v, err := pc.LookupVariable(name); err == nil {
		return fzn.Annotation{Kind: fzn.AnnVarRef, Var: v}, nil
	}
	if vs, err := pc.VariableArray(name); err == nil {
		return fzn.Annotation{Kind: fzn.AnnVarRefArray, Vars: vs}, nil
	}
	return fzn.Annotation{Kind: fzn.AnnIdent, Ident: name}, nil
}

// applyOutputAnnotations scans a declaration's annotations for
// output_var/output_array and appends the corresponding OutputItem, per
// §3.6 — FlatZinc encodes output purely via annotations on var items,
// never as a separate item kind.
func applyOutputAnnotations(m *fzn.Model, pc *fzn.ParseContext, name string, anns []*Annotation, declDims []*IntRange, vars []*fzn.Variable) {
	for _, a := range anns {
		switch a.Name {
		case "output_var":
			m.Outputs = append(m.Outputs, fzn.OutputItem{Name: name, Vars: vars})
		case "output_array":
			m.Outputs = append(m.Outputs, fzn.OutputItem{Name: name, Dims: outputDims(a, declDims), Vars: vars})
		}
	}
}

func outputDims(a *Annotation, declDims []*IntRange) []fzn.DimBound {
	if len(a.Args) == 1 && a.Args[0].List != nil {
		var out []fzn.DimBound
		for _, e := range a.Args[0].List.Elems {
			if e.Range != nil {
				out = append(out, fzn.DimBound{Lo: e.Range.Lo, Hi: e.Range.Hi})
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	out := make([]fzn.DimBound, len(declDims))
	for i, r := range declDims {
		out[i] = fzn.DimBound{Lo: r.Lo, Hi: r.Hi}
	}
	return out
}
