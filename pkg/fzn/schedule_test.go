package fzn

import (
	"errors"
	"testing"
)

func TestScheduleSeparatesIndependentFromDependent(t *testing.T) {
	m := NewModel()
	x := m.AddVariable(newVar("x", 0, 10))
	y := m.AddVariable(newVar("y", 0, 10))
	z := m.AddVariable(newVar("z", 0, 20))

	c := NewConstraint("int_plus", VarArg(x), VarArg(y), VarArg(z))
	_ = c.SetTarget(z)
	m.AddConstraint(c)

	s, err := NewSchedule(m)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	if len(s.Independent) != 2 || s.Independent[0] != x || s.Independent[1] != y {
		t.Errorf("expected independent [x y], got %v", s.Independent)
	}
	if len(s.Order) != 1 || s.Order[0] != c {
		t.Errorf("expected order [c], got %v", s.Order)
	}
}

func TestScheduleOrdersDefinesBeforeUses(t *testing.T) {
	m := NewModel()
	x := m.AddVariable(newVar("x", 0, 10))
	y := m.AddVariable(newVar("y", 0, 10))
	z := m.AddVariable(newVar("z", 0, 10))
	t1 := m.AddVariable(newVar("t1", 0, 20))
	t2 := m.AddVariable(newVar("t2", 0, 30))

	// c2 is inserted before c1 but requires c1's target, so the scheduler
	// must still place c1 first.
	c2 := NewConstraint("int_plus", VarArg(t1), VarArg(z), VarArg(t2))
	_ = c2.SetTarget(t2)
	c1 := NewConstraint("int_plus", VarArg(x), VarArg(y), VarArg(t1))
	_ = c1.SetTarget(t1)
	m.AddConstraint(c2)
	m.AddConstraint(c1)

	s, err := NewSchedule(m)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	if len(s.Order) != 2 || s.Order[0] != c1 || s.Order[1] != c2 {
		t.Fatalf("expected order [c1 c2], got %v", s.Order)
	}
}

func TestScheduleReadyHeuristicPrefersDependedOnTarget(t *testing.T) {
	m := NewModel()
	a := m.AddVariable(newVar("a", 0, 10))
	b := m.AddVariable(newVar("b", 0, 10))
	t1 := m.AddVariable(newVar("t1", 0, 10))
	t2 := m.AddVariable(newVar("t2", 0, 10))
	out := m.AddVariable(newVar("out", 0, 10))

	// c1 defines t1, which c3 needs; c2 defines t2, which nothing needs.
	// Both are ready immediately (no required vars), but c1 should be
	// scheduled first since some outstanding constraint depends on t1.
	c2 := NewConstraint("int_plus", VarArg(a), IntValueArg(1), VarArg(t2))
	_ = c2.SetTarget(t2)
	c1 := NewConstraint("int_plus", VarArg(b), IntValueArg(1), VarArg(t1))
	_ = c1.SetTarget(t1)
	c3 := NewConstraint("int_plus", VarArg(t1), IntValueArg(1), VarArg(out))
	_ = c3.SetTarget(out)
	m.AddConstraint(c2)
	m.AddConstraint(c1)
	m.AddConstraint(c3)

	s, err := NewSchedule(m)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	if len(s.Order) != 3 {
		t.Fatalf("expected 3 scheduled constraints, got %d", len(s.Order))
	}
	if s.Order[0] != c1 {
		t.Errorf("expected c1 (depended-on target) scheduled first, got %v", s.Order[0])
	}
}

func TestScheduleDetectsCycle(t *testing.T) {
	m := NewModel()
	x := m.AddVariable(newVar("x", 0, 10))
	y := m.AddVariable(newVar("y", 0, 10))

	c1 := NewConstraint("int_plus", VarArg(y), IntValueArg(1), VarArg(x))
	_ = c1.SetTarget(x)
	c2 := NewConstraint("int_plus", VarArg(x), IntValueArg(1), VarArg(y))
	_ = c2.SetTarget(y)
	m.AddConstraint(c1)
	m.AddConstraint(c2)

	_, err := NewSchedule(m)
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestScheduleNoTargetConstraintGoesLast(t *testing.T) {
	m := NewModel()
	x := m.AddVariable(newVar("x", 0, 10))
	y := m.AddVariable(newVar("y", 0, 10))
	t1 := m.AddVariable(newVar("t1", 0, 10))

	// c1 has no target at all (e.g. a plain range check); c2 defines t1.
	// Both are ready with no required vars up front, but the no-target
	// constraint must be scheduled after.
	c1 := NewConstraint("int_le", VarArg(x), IntValueArg(5))
	c2 := NewConstraint("int_plus", VarArg(x), VarArg(y), VarArg(t1))
	_ = c2.SetTarget(t1)
	m.AddConstraint(c1)
	m.AddConstraint(c2)

	s, err := NewSchedule(m)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	if len(s.Order) != 2 || s.Order[0] != c2 || s.Order[1] != c1 {
		t.Fatalf("expected order [c2 c1], got %v", s.Order)
	}
}

func TestScheduleDomainPostsCoverEveryDependentVariable(t *testing.T) {
	m := NewModel()
	x := m.AddVariable(newVar("x", 0, 10))
	y := m.AddVariable(newVar("y", 0, 10))
	t1 := m.AddVariable(newVar("t1", 3, 7))

	c := NewConstraint("int_plus", VarArg(x), VarArg(y), VarArg(t1))
	_ = c.SetTarget(t1)
	m.AddConstraint(c)

	s, err := NewSchedule(m)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	if len(s.DomainPosts) != 1 {
		t.Fatalf("expected 1 domain post, got %d", len(s.DomainPosts))
	}
	post := s.DomainPosts[0]
	if post.Type != "set_in" {
		t.Errorf("expected set_in, got %s", post.Type)
	}
	if post.Args[0].VarOf() != t1 {
		t.Errorf("expected domain post to target t1, got %v", post.Args[0])
	}
	if post.Args[1].Kind != ArgIntInterval || post.Args[1].IntervalLo != 3 || post.Args[1].IntervalHi != 7 {
		t.Errorf("expected interval [3,7], got %v", post.Args[1])
	}
}
