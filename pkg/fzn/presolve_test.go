package fzn

import (
	"errors"
	"reflect"
	"testing"
)

func newVar(name string, lo, hi int64) *Variable {
	return NewVariable(name, NewIntervalDomain(lo, hi))
}

func TestPresolveDetectsTrivialUnsat(t *testing.T) {
	m := NewModel()
	x := m.AddVariable(newVar("x", 5, 10))
	m.AddConstraint(NewConstraint("int_le", VarArg(x), IntValueArg(3)))

	p := NewPresolver(m, nil)
	err := p.Run()
	if !errors.Is(err, ErrEmptyDomain) {
		t.Fatalf("expected ErrEmptyDomain, got %v", err)
	}
}

func TestPresolveEliminatesAlias(t *testing.T) {
	m := NewModel()
	x := m.AddVariable(newVar("x", 0, 10))
	y := m.AddVariable(newVar("y", 0, 10))
	m.AddConstraint(NewConstraint("int_eq", VarArg(x), VarArg(y)))

	p := NewPresolver(m, nil)
	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	Substitute(m, p.uf)

	active := m.ActiveConstraints()
	if len(active) != 0 {
		t.Errorf("expected the eq constraint to be consumed, got %d active", len(active))
	}
	if x.Active == y.Active {
		t.Error("exactly one of x and y should remain active once aliased")
	}
}

func TestPresolveBool2IntAliases(t *testing.T) {
	m := NewModel()
	b := m.AddVariable(newVar("b", 0, 1))
	x := m.AddVariable(newVar("x", 0, 1))
	m.AddConstraint(NewConstraint("bool2int", VarArg(b), VarArg(x)))

	p := NewPresolver(m, nil)
	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if b.Active == x.Active {
		t.Error("bool2int should alias b and x, leaving exactly one active")
	}
}

func TestPresolveChainedMaxRegroupsAfterCleanup(t *testing.T) {
	m := NewModel()
	a := m.AddVariable(newVar("a", 0, 10))
	b := m.AddVariable(newVar("b", 0, 10))
	c := m.AddVariable(newVar("c", 0, 10))
	t1 := m.AddVariable(newVar("t1", 0, 10))
	t2 := m.AddVariable(newVar("t2", 0, 10))
	t3 := m.AddVariable(newVar("t3", 0, 10))

	// Self-application head, then two successor links chained through t1/t2.
	c1 := NewConstraint("int_max", VarArg(a), VarArg(a), VarArg(t1))
	_ = c1.SetTarget(t1)
	c2 := NewConstraint("int_max", VarArg(b), VarArg(t1), VarArg(t2))
	_ = c2.SetTarget(t2)
	c3 := NewConstraint("int_max", VarArg(c), VarArg(t2), VarArg(t3))
	_ = c3.SetTarget(t3)
	m.AddConstraint(c1)
	m.AddConstraint(c2)
	m.AddConstraint(c3)

	Cleanup(m)

	active := m.ActiveConstraints()
	if len(active) != 1 {
		t.Fatalf("expected exactly one surviving constraint, got %d", len(active))
	}
	if active[0].Type != "maximum_int" {
		t.Errorf("expected maximum_int, got %s", active[0].Type)
	}
	if len(active[0].Args) != 2 || active[0].Args[0].Kind != ArgIntVarRefArray {
		t.Fatalf("expected a variable-array first argument, got %v", active[0].Args)
	}
	operands := active[0].Args[0].Vars
	if len(operands) != 3 || operands[0] != a || operands[1] != b || operands[2] != c {
		t.Errorf("expected operands [a b c], got %v", operands)
	}
}

func TestPresolveElementWithConstantIndexResolves(t *testing.T) {
	m := NewModel()
	idx := m.AddVariable(newVar("idx", 2, 2))
	out := m.AddVariable(newVar("out", 0, 100))
	m.AddConstraint(NewConstraint("array_int_element", VarArg(idx),
		Argument{Kind: ArgIntList, List: []int64{10, 20, 30}}, VarArg(out)))

	p := NewPresolver(m, nil)
	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !out.HasOneValue() || out.Domain.SingletonValue() != 20 {
		t.Errorf("expected out=20, got %s", out.Domain.String())
	}
}

func TestPresolveElementNarrowsOutputDomain(t *testing.T) {
	m := NewModel()
	idx := m.AddVariable(newVar("idx", 1, 2))
	out := m.AddVariable(newVar("out", 0, 100))
	m.AddConstraint(NewConstraint("array_int_element", VarArg(idx),
		Argument{Kind: ArgIntList, List: []int64{10, 20}}, VarArg(out)))

	p := NewPresolver(m, nil)
	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if out.Min() != 10 || out.Max() != 20 {
		t.Errorf("expected out in [10,20], got %s", out.Domain.String())
	}
}

func TestPresolveReificationBoundsResolve(t *testing.T) {
	m := NewModel()
	x := m.AddVariable(newVar("x", 0, 5))
	b := m.AddVariable(newVar("b", 0, 1))
	m.AddConstraint(NewConstraint("int_le_reif", VarArg(x), IntValueArg(10), VarArg(b)))

	p := NewPresolver(m, nil)
	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !b.HasOneValue() || b.Domain.SingletonValue() != 1 {
		t.Errorf("expected b=1 (x <= 5 always <= 10), got %s", b.Domain.String())
	}
}

func TestPresolveReificationUnwrapOnFixedReif(t *testing.T) {
	m := NewModel()
	x := m.AddVariable(newVar("x", 0, 10))
	b := m.AddVariable(newVar("b", 0, 0))
	c := m.AddConstraint(NewConstraint("int_le_reif", VarArg(x), IntValueArg(3), VarArg(b)))

	p := NewPresolver(m, nil)
	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Type != "int_gt" {
		t.Errorf("expected int_le_reif with b=0 to unwrap to int_gt, got %s", c.Type)
	}
	if x.Min() != 4 {
		t.Errorf("expected x > 3 propagated, got min %d", x.Min())
	}
}

func TestPresolveLinearCanonicalizesNegativeCoeffsAndGt(t *testing.T) {
	m := NewModel()
	x := m.AddVariable(newVar("x", 0, 10))
	y := m.AddVariable(newVar("y", 0, 10))
	c := m.AddConstraint(NewConstraint("int_lin_gt",
		Argument{Kind: ArgIntList, List: []int64{-1, -1}},
		VarArrayArg([]*Variable{x, y}),
		IntValueArg(-5)))

	p := NewPresolver(m, nil)
	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if c.Type != "int_lin_le" {
		t.Errorf("expected canonicalization to int_lin_le, got %s", c.Type)
	}
}

func TestPresolveIsIdempotentOnAnAlreadyStableModel(t *testing.T) {
	m := NewModel()
	x := m.AddVariable(newVar("x", 0, 10))
	m.AddConstraint(NewConstraint("int_le", VarArg(x), IntValueArg(20)))

	p1 := NewPresolver(m, nil)
	if err := p1.Run(); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	before := x.Domain.String()

	p2 := NewPresolver(m, nil)
	if err := p2.Run(); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if x.Domain.String() != before {
		t.Errorf("re-running presolve on a stable model changed x's domain: %s -> %s", before, x.Domain.String())
	}
}

func TestPresolveSetInNarrowsDomain(t *testing.T) {
	m := NewModel()
	x := m.AddVariable(newVar("x", 0, 100))
	m.AddConstraint(NewConstraint("set_in", VarArg(x), IntIntervalArg(10, 20)))

	p := NewPresolver(m, nil)
	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if x.Min() != 10 || x.Max() != 20 {
		t.Errorf("expected x in [10,20], got %s", x.Domain.String())
	}
}

func TestPresolveArrayBoolOrFixesTargetWhenAllElementsFalse(t *testing.T) {
	m := NewModel()
	a := m.AddVariable(newVar("a", 0, 0))
	b := m.AddVariable(newVar("b", 0, 0))
	target := m.AddVariable(newVar("target", 0, 1))
	m.AddConstraint(NewConstraint("array_bool_or", VarArrayArg([]*Variable{a, b}), VarArg(target)))

	p := NewPresolver(m, nil)
	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !target.HasOneValue() || target.Domain.SingletonValue() != 0 {
		t.Errorf("expected target=0, got %s", target.Domain.String())
	}
}

func TestPresolveElementContiguousRunRewritesToEquality(t *testing.T) {
	m := NewModel()
	idx := m.AddVariable(newVar("idx", 1, 3))
	out := m.AddVariable(newVar("out", 6, 6))
	m.AddConstraint(NewConstraint("array_int_element", VarArg(idx),
		Argument{Kind: ArgIntList, List: []int64{5, 6, 7}}, VarArg(out)))

	p := NewPresolver(m, nil)
	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !idx.HasOneValue() || idx.Domain.SingletonValue() != 2 {
		t.Errorf("expected idx=2, got %s", idx.Domain.String())
	}
}

func TestPresolveElementAffineIndexRewritesOverUnderlyingVariable(t *testing.T) {
	m := NewModel()
	z := m.AddVariable(newVar("z", 1, 19))
	x := m.AddVariable(newVar("x", 0, 10))
	r := m.AddVariable(newVar("r", 0, 100))

	// z = 2*x - 1, stored as int_lin_eq([-1, 2], [z, x], 1) with z as target.
	lin := NewConstraint("int_lin_eq", Argument{Kind: ArgIntList, List: []int64{-1, 2}},
		VarArrayArg([]*Variable{z, x}), IntValueArg(1))
	if err := lin.SetTarget(z); err != nil {
		t.Fatalf("SetTarget: %v", err)
	}
	m.AddConstraint(lin)
	m.AddConstraint(NewConstraint("array_int_element", VarArg(z),
		Argument{Kind: ArgIntList, List: []int64{10, 20, 30, 40}}, VarArg(r)))

	p := NewPresolver(m, nil)
	if err := p.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if x.Min() != 1 || x.Max() != 2 {
		t.Errorf("expected x narrowed to [1,2], got %s", x.Domain.String())
	}

	var elem *Constraint
	for _, c := range m.ActiveConstraints() {
		if c.Type == "array_int_element" {
			elem = c
		}
	}
	if elem == nil {
		t.Fatalf("expected an active array_int_element constraint")
	}
	if got := elem.Args[0].VarOf(); got != x {
		t.Errorf("expected the element to index over x, got %v", got)
	}
	if !reflect.DeepEqual(elem.Args[1].List, []int64{10, 30}) {
		t.Errorf("expected values [10 30], got %v", elem.Args[1].List)
	}
}
