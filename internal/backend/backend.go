// Package backend implements the back-end adapter contract of §4.8 (C10):
// the bridge between the presolved, scheduled IR of package fzn and an
// externally supplied constraint-solver binding.
package backend

import (
	"fmt"
	"sort"
	"strings"

	"fzncore/pkg/fzn"
)

// Expression is an opaque handle a Solver returns for a variable or
// constant it has created. The adapter never inspects it; it only threads
// it back into later Solver calls.
type Expression interface{}

// Solver is the externally supplied constraint-solver binding (§6.2): the
// operation set the core consumes to construct variables, post range and
// membership constraints, and post the FlatZinc-mandated constraint
// family. An implementation is free to route a subset of constraints
// (notably pure-boolean ones) to a SAT-like sub-propagator.
type Solver interface {
	NewIntervalVar(lo, hi int64) Expression
	NewListVar(values []int64) Expression
	NewConst(v int64) Expression

	SetRange(e Expression, lo, hi int64) error
	Between(e Expression, lo, hi int64) error
	Member(e Expression, values []int64) error

	Post(typ string, args ...Expression) error
	AllDifferent(exprs []Expression) error
}

// Adapter is the back-end adapter of §4.8: it owns the IR variable →
// back-end expression map, resolves constraint arguments into expressions,
// dispatches each constraint by type name, and maintains the alldiff
// registry.
type Adapter struct {
	solver Solver

	exprs map[*fzn.Variable]Expression

	// alldiff records every all_different_int constraint's sorted
	// variable-vector key, so a later query can detect a vector already
	// covered by an earlier alldiff (enables downstream strength
	// improvements, per §4.8).
	alldiff map[string]bool
}

// NewAdapter returns an Adapter driving the given Solver.
func NewAdapter(s Solver) *Adapter {
	return &Adapter{
		solver:  s,
		exprs:   make(map[*fzn.Variable]Expression),
		alldiff: make(map[string]bool),
	}
}

// CreateVariable creates v's back-end expression according to its current
// domain shape — an interval becomes an interval variable, anything else
// an explicit value-list variable — and records it. Idempotent: a variable
// already created returns its existing expression.
func (a *Adapter) CreateVariable(v *fzn.Variable) Expression {
	if e, ok := a.exprs[v]; ok {
		return e
	}
	var e Expression
	if v.Domain.IsIntervalForm() {
		e = a.solver.NewIntervalVar(v.Domain.Min(), v.Domain.Max())
	} else {
		e = a.solver.NewListVar(v.Domain.Values())
	}
	a.exprs[v] = e
	return e
}

// GetExpression resolves a scalar constraint argument to a back-end
// expression: IntValue becomes a constant, IntVarRef resolves (and, on
// first use, creates) the mapped variable. Any other kind fails.
func (a *Adapter) GetExpression(arg fzn.Argument) (Expression, error) {
	switch arg.Kind {
	case fzn.ArgIntValue:
		return a.solver.NewConst(arg.IntValue), nil
	case fzn.ArgIntVarRef:
		return a.CreateVariable(arg.Var), nil
	default:
		return nil, fmt.Errorf("backend: get_expression: unsupported argument kind %d", arg.Kind)
	}
}

// GetVariableArray resolves a constraint argument expected to carry a flat
// array: IntVarRefArray becomes the array of mapped expressions, IntList
// becomes one constant expression per value.
func (a *Adapter) GetVariableArray(arg fzn.Argument) ([]Expression, error) {
	switch arg.Kind {
	case fzn.ArgIntVarRefArray:
		out := make([]Expression, len(arg.Vars))
		for i, v := range arg.Vars {
			out[i] = a.CreateVariable(v)
		}
		return out, nil
	case fzn.ArgIntList:
		out := make([]Expression, len(arg.List))
		for i, v := range arg.List {
			out[i] = a.solver.NewConst(v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("backend: get_variable_array: unsupported argument kind %d", arg.Kind)
	}
}

// Extract drives the back-end through an entire schedule (§4.7 → §4.8):
// every independent variable is created eagerly, every scheduled
// constraint is dispatched in order, and every domain-reassertion
// constraint runs last.
func (a *Adapter) Extract(s *fzn.Schedule) error {
	for _, v := range s.Independent {
		a.CreateVariable(v)
	}
	for _, c := range s.Order {
		if err := a.Dispatch(c); err != nil {
			return fmt.Errorf("%w: %s: %v", fzn.ErrBackendRejection, c.Type, err)
		}
	}
	for _, c := range s.DomainPosts {
		if err := a.Dispatch(c); err != nil {
			return fmt.Errorf("%w: %s: %v", fzn.ErrBackendRejection, c.Type, err)
		}
	}
	return nil
}

// Dispatch posts a single constraint to the back-end, per §4.8's
// "dispatch on type name to a back-end call". set_in and
// all_different_int get dedicated handling; every other type is posted
// generically with its arguments flattened to expressions.
func (a *Adapter) Dispatch(c *fzn.Constraint) error {
	switch c.Type {
	case "set_in":
		return a.dispatchSetIn(c)
	case "all_different_int":
		return a.dispatchAllDifferent(c)
	default:
		return a.dispatchGeneric(c)
	}
}

func (a *Adapter) dispatchSetIn(c *fzn.Constraint) error {
	if len(c.Args) != 2 {
		return fmt.Errorf("set_in: expected 2 arguments, got %d", len(c.Args))
	}
	e, err := a.GetExpression(c.Args[0])
	if err != nil {
		return err
	}
	switch c.Args[1].Kind {
	case fzn.ArgIntInterval:
		return a.solver.Between(e, c.Args[1].IntervalLo, c.Args[1].IntervalHi)
	case fzn.ArgIntList:
		return a.solver.Member(e, c.Args[1].List)
	default:
		return fmt.Errorf("set_in: unsupported value-set argument kind %d", c.Args[1].Kind)
	}
}

func (a *Adapter) dispatchAllDifferent(c *fzn.Constraint) error {
	if len(c.Args) != 1 || c.Args[0].Kind != fzn.ArgIntVarRefArray {
		return fmt.Errorf("all_different_int: expected a single variable-array argument")
	}
	key := alldiffKey(c.Args[0].Vars)
	if a.alldiff[key] {
		return nil // already covered by an earlier alldiff over this exact vector
	}
	exprs, err := a.GetVariableArray(c.Args[0])
	if err != nil {
		return err
	}
	if err := a.solver.AllDifferent(exprs); err != nil {
		return err
	}
	a.alldiff[key] = true
	return nil
}

// alldiffKey builds the registry key for an all_different_int's variable
// vector: the variables' identities (their addresses), sorted, joined.
// Names are not used because variables lifted from constants in array
// literals all carry the empty name.
func alldiffKey(vars []*fzn.Variable) string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = fmt.Sprintf("%p", v)
	}
	sort.Strings(names)
	return strings.Join(names, ",")
}

// Covers reports whether an all_different_int over exactly this variable
// vector has already been posted, letting a caller skip a redundant post
// or strengthen a weaker one instead.
func (a *Adapter) Covers(vars []*fzn.Variable) bool {
	return a.alldiff[alldiffKey(vars)]
}

func (a *Adapter) dispatchGeneric(c *fzn.Constraint) error {
	var exprs []Expression
	for _, arg := range c.Args {
		switch arg.Kind {
		case fzn.ArgIntValue, fzn.ArgIntVarRef:
			e, err := a.GetExpression(arg)
			if err != nil {
				return err
			}
			exprs = append(exprs, e)
		case fzn.ArgIntVarRefArray, fzn.ArgIntList:
			es, err := a.GetVariableArray(arg)
			if err != nil {
				return err
			}
			exprs = append(exprs, es...)
		default:
			return fmt.Errorf("%s: unexpected argument kind %d", c.Type, arg.Kind)
		}
	}
	return a.solver.Post(c.Type, exprs...)
}
