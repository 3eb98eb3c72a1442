package fznparse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fzncore/pkg/fzn"
)

func mustParse(t *testing.T, src string) (*fzn.Model, *fzn.ParseContext) {
	t.Helper()
	m, pc, err := ParseString("test.fzn", src)
	require.NoError(t, err)
	return m, pc
}

func TestParsePredicateItemIsIgnored(t *testing.T) {
	m, _ := mustParse(t, `
predicate all_different_int(array [int] of var int: x);
var 0..5: a;
`)
	require.Len(t, m.Variables, 1)
}

func TestParseScalarParAndVarDecls(t *testing.T) {
	m, pc := mustParse(t, `
int: n = 5;
var 0..10: x;
var bool: b;
`)
	n, err := pc.LookupIntConst("n")
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	require.Len(t, m.Variables, 2)
	x, err := pc.LookupVariable("x")
	require.NoError(t, err)
	require.Equal(t, int64(0), x.Min())
	require.Equal(t, int64(10), x.Max())

	b, err := pc.LookupVariable("b")
	require.NoError(t, err)
	require.True(t, b.IsBoolean())
}

func TestParseSetDomainAndAlias(t *testing.T) {
	m, pc := mustParse(t, `
set of int: Odds = {1, 3, 5, 7};
var Odds: x;
var {2, 4, 6}: y;
`)
	require.Len(t, m.Variables, 2)

	x, err := pc.LookupVariable("x")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 3, 5, 7}, x.Domain.Values())

	// Mutating x's domain must not corrupt the alias or a second user of
	// it: buildDomain clones on every lookup.
	x.Domain.RemoveValue(1)
	alias, err := pc.LookupDomainAlias("Odds")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 3, 5, 7}, alias.Values())

	y, err := pc.LookupVariable("y")
	require.NoError(t, err)
	require.Equal(t, []int64{2, 4, 6}, y.Domain.Values())
}

func TestParseConstArrayAndVarArray(t *testing.T) {
	m, pc := mustParse(t, `
array [1..3] of int: weights = [10, 20, 30];
var 0..10: x1;
var 0..10: x2;
var 0..10: x3;
array [1..3] of var int: xs = [x1, x2, x3];
`)
	ws, err := pc.IntConstArray("weights")
	require.NoError(t, err)
	require.Equal(t, []int64{10, 20, 30}, ws)

	xs, err := pc.VariableArray("xs")
	require.NoError(t, err)
	require.Len(t, xs, 3)

	x1, err := pc.LookupVariable("x1")
	require.NoError(t, err)
	require.Same(t, x1, xs[0])

	// x1..x3 were each declared individually; the array item must not
	// have re-added them to the model.
	require.Len(t, m.Variables, 3)
}

func TestParseVarArrayLiftsInlineConstants(t *testing.T) {
	m, _ := mustParse(t, `
var 0..10: x1;
array [1..2] of var int: xs = [x1, 7];
`)
	// x1 plus one freshly lifted constant variable for 7.
	require.Len(t, m.Variables, 2)
	lifted := m.Variables[1]
	require.True(t, lifted.Temporary)
	require.True(t, lifted.HasOneValue())
	require.Equal(t, int64(7), lifted.Domain.SingletonValue())
}

func TestParseConstraintResolvesScalarAndArrayArguments(t *testing.T) {
	m, _ := mustParse(t, `
var 0..10: x;
var 0..10: y;
var 0..20: z;
constraint int_plus(x, y, z);
`)
	require.Len(t, m.Constraints, 1)
	c := m.Constraints[0]
	require.Equal(t, "int_plus", c.Type)
	require.Len(t, c.Args, 3)
	require.Equal(t, fzn.ArgIntVarRef, c.Args[0].Kind)
}

func TestParseSetInArgumentAcceptsIntervalAndSet(t *testing.T) {
	m, _ := mustParse(t, `
var 0..100: x;
constraint set_in(x, 10..20);
var 0..100: y;
constraint set_in(y, {1, 3, 5});
`)
	require.Len(t, m.Constraints, 2)
	require.Equal(t, fzn.ArgIntInterval, m.Constraints[0].Args[1].Kind)
	require.Equal(t, fzn.ArgIntList, m.Constraints[1].Args[1].Kind)
}

func TestParseOutputVarAnnotation(t *testing.T) {
	m, _ := mustParse(t, `
var 0..10: x :: output_var;
`)
	require.Len(t, m.Outputs, 1)
	require.Equal(t, "x", m.Outputs[0].Name)
	require.Len(t, m.Outputs[0].Vars, 1)
}

func TestParseOutputArrayAnnotation(t *testing.T) {
	m, _ := mustParse(t, `
var 0..10: x1;
var 0..10: x2;
array [1..2] of var int: xs :: output_array([1..2]) = [x1, x2];
`)
	require.Len(t, m.Outputs, 1)
	out := m.Outputs[0]
	require.Equal(t, "xs", out.Name)
	require.Len(t, out.Dims, 1)
	require.Equal(t, int64(1), out.Dims[0].Lo)
	require.Equal(t, int64(2), out.Dims[0].Hi)
	require.Len(t, out.Vars, 2)
}

func TestParseSolveSatisfy(t *testing.T) {
	m, _ := mustParse(t, `
var 0..10: x;
solve satisfy;
`)
	require.Nil(t, m.Objective)
}

func TestParseSolveMinimize(t *testing.T) {
	m, _ := mustParse(t, `
var 0..10: cost;
solve minimize cost;
`)
	require.NotNil(t, m.Objective)
	require.Equal(t, "cost", m.Objective.Name)
	require.False(t, m.Maximize)
}

func TestParseSolveMaximizeWithSearchAnnotation(t *testing.T) {
	m, _ := mustParse(t, `
var 0..10: x1;
var 0..10: x2;
var 0..100: profit;
solve :: int_search([x1, x2], input_order, indomain_min, complete) maximize profit;
`)
	require.NotNil(t, m.Objective)
	require.True(t, m.Maximize)
	require.Len(t, m.SearchAnns, 1)
	require.Equal(t, fzn.AnnCall, m.SearchAnns[0].Kind)
	require.Equal(t, "int_search", m.SearchAnns[0].Ident)
	require.Len(t, m.SearchAnns[0].Items, 4)
	require.Equal(t, fzn.AnnVarRefArray, m.SearchAnns[0].Items[0].Kind)
	require.Equal(t, fzn.AnnIdent, m.SearchAnns[0].Items[1].Kind)
}

func TestParseFixedVarInitializer(t *testing.T) {
	m, pc := mustParse(t, `
var 0..10: x = 7;
`)
	require.Len(t, m.Variables, 1)
	x, err := pc.LookupVariable("x")
	require.NoError(t, err)
	require.True(t, x.HasOneValue())
	require.Equal(t, int64(7), x.Domain.SingletonValue())
}

func TestParseUndefinedReferenceFails(t *testing.T) {
	_, _, err := ParseString("test.fzn", `
var 0..10: x;
constraint int_plus(x, y, x);
`)
	require.Error(t, err)
}

func TestParseSyntaxErrorFails(t *testing.T) {
	_, _, err := ParseString("test.fzn", `var 0..10 x;`)
	require.Error(t, err)
}
