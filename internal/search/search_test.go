package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fzncore/pkg/fzn"
)

func newVar(name string, lo, hi int64) *fzn.Variable {
	return fzn.NewVariable(name, fzn.NewIntervalDomain(lo, hi))
}

func TestRunFindsASatisfyingAssignment(t *testing.T) {
	x := newVar("x", 1, 3)
	y := newVar("y", 1, 3)
	m := &fzn.Model{
		Variables:   []*fzn.Variable{x, y},
		Constraints: []*fzn.Constraint{fzn.NewConstraint("int_lt", fzn.VarArg(x), fzn.VarArg(y))},
	}

	result := Run(context.Background(), m)
	require.True(t, result.Feasible)
	require.Less(t, result.Assignment[x], result.Assignment[y])
}

func TestRunProvesUnsatisfiable(t *testing.T) {
	x := newVar("x", 1, 1)
	y := newVar("y", 1, 1)
	m := &fzn.Model{
		Variables:   []*fzn.Variable{x, y},
		Constraints: []*fzn.Constraint{fzn.NewConstraint("int_lt", fzn.VarArg(x), fzn.VarArg(y))},
	}

	result := Run(context.Background(), m)
	require.False(t, result.Feasible)
	require.True(t, result.Complete)
}

func TestRunMinimizesObjective(t *testing.T) {
	x := newVar("x", 1, 5)
	m := &fzn.Model{
		Variables: []*fzn.Variable{x},
		Objective: x,
		Maximize:  false,
	}

	result := Run(context.Background(), m)
	require.True(t, result.Feasible)
	require.Equal(t, int64(1), result.Assignment[x])
}

func TestRunRespectsContextCancellation(t *testing.T) {
	x := newVar("x", 1, 1000000)
	m := &fzn.Model{Variables: []*fzn.Variable{x}, Objective: x, Maximize: true}

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	result := Run(ctx, m)
	require.True(t, result.TimedOut)
}

func TestRunParallelMatchesSingleThreadedOnSatisfy(t *testing.T) {
	x := newVar("x", 1, 10)
	y := newVar("y", 1, 10)
	m := &fzn.Model{
		Variables:   []*fzn.Variable{x, y},
		Constraints: []*fzn.Constraint{fzn.NewConstraint("int_lt", fzn.VarArg(x), fzn.VarArg(y))},
	}

	result := RunParallel(context.Background(), m, 4)
	require.True(t, result.Feasible)
	require.Less(t, result.Assignment[x], result.Assignment[y])
}

func TestRunParallelFindsOptimalAcrossShards(t *testing.T) {
	x := newVar("x", 1, 20)
	m := &fzn.Model{Variables: []*fzn.Variable{x}, Objective: x, Maximize: true}

	result := RunParallel(context.Background(), m, 4)
	require.True(t, result.Feasible)
	require.Equal(t, int64(20), result.Assignment[x])
}
