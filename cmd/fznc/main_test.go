package main

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"fzncore/pkg/fzn"
	"fzncore/pkg/fznparse"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = orig }()

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func writeModel(t *testing.T, src string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "*.fzn")
	require.NoError(t, err)
	_, err = f.WriteString(src)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

func TestRunSatisfiableModelPrintsSolutionAndDashes(t *testing.T) {
	path := writeModel(t, `
var 1..3: x :: output_var;
var 1..3: y :: output_var;
constraint int_lt(x, y);
solve satisfy;
`)
	out := captureStdout(t, func() {
		require.NoError(t, run([]string{path}))
	})
	require.Contains(t, out, "x = ")
	require.Contains(t, out, "y = ")
	require.Contains(t, out, "----------\n")
	require.Contains(t, out, "==========\n")
}

func TestRunUnsatisfiableModelReportsUnsat(t *testing.T) {
	path := writeModel(t, `
var 1..1: x;
var 2..2: y;
constraint int_eq(x, y);
solve satisfy;
`)
	out := captureStdout(t, func() {
		require.NoError(t, run([]string{path}))
	})
	require.Contains(t, out, "=====UNSATISFIABLE=====")
}

func TestRunRejectsWrongArgCount(t *testing.T) {
	err := run([]string{})
	require.Error(t, err)
}

func TestRunHonorsNoPresolveFlag(t *testing.T) {
	path := writeModel(t, `
var 1..5: x :: output_var;
solve satisfy;
`)
	out := captureStdout(t, func() {
		require.NoError(t, run([]string{"--no-presolve", path}))
	})
	require.Contains(t, out, "x = ")
}

func TestSortedVariableNamesIsDeterministic(t *testing.T) {
	path := writeModel(t, `
var 1..3: a :: output_var;
var 1..3: b :: output_var;
solve satisfy;
`)
	_, pc, err := fznparse.ParseFile(path)
	require.NoError(t, err)

	a, err := pc.LookupVariable("a")
	require.NoError(t, err)
	b, err := pc.LookupVariable("b")
	require.NoError(t, err)

	names := sortedVariableNames(map[*fzn.Variable]int64{a: 1, b: 2})
	require.Equal(t, []string{"a", "b"}, names)
}
