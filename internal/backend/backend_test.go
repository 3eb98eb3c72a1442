package backend

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fzncore/pkg/fzn"
)

func newVar(name string, lo, hi int64) *fzn.Variable {
	return fzn.NewVariable(name, fzn.NewIntervalDomain(lo, hi))
}

func TestCreateVariableIsIdempotent(t *testing.T) {
	a := NewAdapter(NewMemSolver())
	v := newVar("x", 0, 10)

	e1 := a.CreateVariable(v)
	e2 := a.CreateVariable(v)
	require.Same(t, e1, e2)
}

func TestGetExpressionConstAndVarRef(t *testing.T) {
	a := NewAdapter(NewMemSolver())
	v := newVar("x", 0, 10)

	constExpr, err := a.GetExpression(fzn.IntValueArg(7))
	require.NoError(t, err)
	require.NotNil(t, constExpr)

	varExpr, err := a.GetExpression(fzn.VarArg(v))
	require.NoError(t, err)
	require.Equal(t, a.CreateVariable(v), varExpr)
}

func TestGetExpressionRejectsUnsupportedKind(t *testing.T) {
	a := NewAdapter(NewMemSolver())
	_, err := a.GetExpression(fzn.IntIntervalArg(1, 5))
	require.Error(t, err)
}

func TestGetVariableArrayHandlesVarsAndList(t *testing.T) {
	a := NewAdapter(NewMemSolver())
	x := newVar("x", 0, 10)
	y := newVar("y", 0, 10)

	es, err := a.GetVariableArray(fzn.VarArrayArg([]*fzn.Variable{x, y}))
	require.NoError(t, err)
	require.Len(t, es, 2)

	consts, err := a.GetVariableArray(fzn.Argument{Kind: fzn.ArgIntList, List: []int64{1, 2, 3}})
	require.NoError(t, err)
	require.Len(t, consts, 3)
}

func TestDispatchSetInInterval(t *testing.T) {
	solver := NewMemSolver()
	a := NewAdapter(solver)
	x := newVar("x", 0, 100)

	c := fzn.NewConstraint("set_in", fzn.VarArg(x), fzn.IntIntervalArg(10, 20))
	require.NoError(t, a.Dispatch(c))

	mv := a.CreateVariable(x).(*memVar)
	require.Equal(t, int64(10), mv.lo)
	require.Equal(t, int64(20), mv.hi)
}

func TestDispatchSetInList(t *testing.T) {
	solver := NewMemSolver()
	a := NewAdapter(solver)
	x := newVar("x", 0, 100)

	c := fzn.NewConstraint("set_in", fzn.VarArg(x), fzn.Argument{Kind: fzn.ArgIntList, List: []int64{2, 4, 6}})
	require.NoError(t, a.Dispatch(c))

	mv := a.CreateVariable(x).(*memVar)
	require.True(t, mv.isList)
	require.Equal(t, []int64{2, 4, 6}, mv.values)
}

func TestDispatchAllDifferentRegistersAndDedups(t *testing.T) {
	solver := NewMemSolver()
	a := NewAdapter(solver)
	x := newVar("x", 0, 10)
	y := newVar("y", 0, 10)
	z := newVar("z", 0, 10)

	c := fzn.NewConstraint("all_different_int", fzn.VarArrayArg([]*fzn.Variable{x, y, z}))
	require.NoError(t, a.Dispatch(c))
	require.True(t, a.Covers([]*fzn.Variable{z, y, x})) // order-independent

	// A second, identical alldiff must not re-post.
	require.NoError(t, a.Dispatch(c))
	require.Len(t, solver.AllDiffs, 1)
}

func TestDispatchGenericFlattensArguments(t *testing.T) {
	solver := NewMemSolver()
	a := NewAdapter(solver)
	x := newVar("x", 0, 10)
	y := newVar("y", 0, 10)
	z := newVar("z", 0, 20)

	c := fzn.NewConstraint("int_plus", fzn.VarArg(x), fzn.VarArg(y), fzn.VarArg(z))
	require.NoError(t, a.Dispatch(c))

	require.Len(t, solver.Posts, 1)
	require.Equal(t, "int_plus", solver.Posts[0].Type)
	require.Len(t, solver.Posts[0].Args, 3)
}

func TestExtractCreatesIndependentsAndRunsSchedule(t *testing.T) {
	m := fzn.NewModel()
	x := m.AddVariable(newVar("x", 0, 10))
	y := m.AddVariable(newVar("y", 0, 10))
	z := m.AddVariable(newVar("z", 3, 7))

	c := fzn.NewConstraint("int_plus", fzn.VarArg(x), fzn.VarArg(y), fzn.VarArg(z))
	require.NoError(t, c.SetTarget(z))
	m.AddConstraint(c)

	sched, err := fzn.NewSchedule(m)
	require.NoError(t, err)

	solver := NewMemSolver()
	a := NewAdapter(solver)
	require.NoError(t, a.Extract(sched))

	// x and y were created eagerly as independents; the int_plus post ran
	// generically, and the trailing set_in domain-repost ran through the
	// dedicated set_in path (MemSolver.Between), not Post.
	require.Contains(t, a.exprs, x)
	require.Contains(t, a.exprs, y)
	require.Len(t, solver.Posts, 1)
	require.Equal(t, "int_plus", solver.Posts[0].Type)

	zMv := a.CreateVariable(z).(*memVar)
	require.Equal(t, int64(3), zMv.lo)
	require.Equal(t, int64(7), zMv.hi)
}
