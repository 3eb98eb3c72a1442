package backend

import "fmt"

// MemSolver is a minimal in-memory reference Solver: good enough to drive
// and test Adapter without a real constraint engine behind it. Every
// variable creation and posted constraint is just recorded, mirroring the
// teacher's FDStore/VariableMapper bookkeeping rather than actually
// propagating anything.
type MemSolver struct {
	vars []*memVar

	// Posts records every generically-dispatched constraint, in the order
	// Post was called.
	Posts []PostRecord

	// AllDiffs records the expression vector passed to each AllDifferent
	// call, in order.
	AllDiffs [][]Expression
}

// memVar is the back-end expression MemSolver hands back for a created
// variable or constant: an interval, or an explicit value list, never
// both.
type memVar struct {
	lo, hi int64
	values []int64
	isList bool
}

// PostRecord is one generically-dispatched constraint as MemSolver saw it.
type PostRecord struct {
	Type string
	Args []Expression
}

// NewMemSolver returns an empty MemSolver.
func NewMemSolver() *MemSolver {
	return &MemSolver{}
}

func (s *MemSolver) NewIntervalVar(lo, hi int64) Expression {
	v := &memVar{lo: lo, hi: hi}
	s.vars = append(s.vars, v)
	return v
}

func (s *MemSolver) NewListVar(values []int64) Expression {
	v := &memVar{values: append([]int64(nil), values...), isList: true}
	s.vars = append(s.vars, v)
	return v
}

func (s *MemSolver) NewConst(v int64) Expression {
	return &memVar{lo: v, hi: v}
}

func (s *MemSolver) SetRange(e Expression, lo, hi int64) error {
	mv, ok := e.(*memVar)
	if !ok {
		return fmt.Errorf("memsolver: SetRange: not a variable expression")
	}
	mv.lo, mv.hi = lo, hi
	mv.isList = false
	mv.values = nil
	return nil
}

func (s *MemSolver) Between(e Expression, lo, hi int64) error {
	return s.SetRange(e, lo, hi)
}

func (s *MemSolver) Member(e Expression, values []int64) error {
	mv, ok := e.(*memVar)
	if !ok {
		return fmt.Errorf("memsolver: Member: not a variable expression")
	}
	mv.values = append([]int64(nil), values...)
	mv.isList = true
	return nil
}

func (s *MemSolver) Post(typ string, args ...Expression) error {
	s.Posts = append(s.Posts, PostRecord{Type: typ, Args: append([]Expression(nil), args...)})
	return nil
}

func (s *MemSolver) AllDifferent(exprs []Expression) error {
	s.AllDiffs = append(s.AllDiffs, append([]Expression(nil), exprs...))
	return nil
}
