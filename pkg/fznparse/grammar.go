package fznparse

// Source is the top-level production: a flat sequence of items, matching
// §3's "a FlatZinc file is a sequence of items terminated by ';'" shape.
type Source struct {
	Items []*Item `@@*`
}

// Item is the union of item kinds this grammar models. predicate items
// are matched (and discarded) at the lexer level via PredicateDecl;
// everything else is structured. DomainAlias is tried before Decl since
// it is the only item beginning with the literal "set".
type Item struct {
	Predicate   *PredicateItem   `(  @@`
	DomainAlias *DomainAliasItem ` | @@`
	Constraint  *ConstraintItem  ` | @@`
	Solve       *SolveItem       ` | @@`
	Decl        *DeclItem        ` | @@ )`
}

// PredicateItem carries the raw predicate signature text; the translator
// ignores it entirely.
type PredicateItem struct {
	Raw string `@PredicateDecl`
}

// IntRange is an inclusive `lo..hi` interval, used both as a domain and as
// an inline set_in / annotation argument.
type IntRange struct {
	Lo int64 `@Int ".."`
	Hi int64 `@Int`
}

// SetLit is an explicit `{v1, v2, ...}` value set.
type SetLit struct {
	Values []int64 `"{" [ @Int { "," @Int } ] "}"`
}

// Domain is the FlatZinc base-type/domain grammar: `bool`, `int`, `float`
// (accepted per the front end's Non-goals, always lifted to an
// unconstrained integer domain), an interval, an explicit set, or a named
// domain alias (itself previously declared as a `set of int` parameter).
// Order matters: the keyword alternatives must be tried before the
// catch-all Alias identifier.
type Domain struct {
	Bool    bool      `(  @"bool"`
	Plain   bool      ` | @"int"`
	IsFloat bool      ` | @"float"`
	Range   *IntRange ` | @@`
	Set     *SetLit   ` | @@`
	Alias   string    ` | @Ident )`
}

// DomainAliasItem is `set of int: NAME = <range or set>;`: the one
// FlatZinc par form usable later as a named domain via `var NAME: x;`.
type DomainAliasItem struct {
	Name  string    `"set" "of" "int" ":" @Ident "="`
	Range *IntRange `( @@`
	Set   *SetLit   ` | @@ )`
	Semi  string    `";"`
}

// DeclItem covers both `par` and `var` declarations, scalar and array,
// per §3.1/§4.2. An ArrayDims declaration is a par or var array, one
// IntRange per dimension (this front end models only the
// single-dimension case FlatZinc actually emits, `array [1..n] of ...`).
type DeclItem struct {
	ArrayDims []*IntRange   `[ "array" "[" @@ { "," @@ } "]" "of" ]`
	IsVar     bool          `[ @"var" ]`
	Type      *Domain       `@@ ":"`
	Name      string        `@Ident`
	Anns      []*Annotation `{ "::" @@ }`
	Init      *InitExpr     `[ "=" @@ ]`
	Semi      string        `";"`
}

// ScalarLit is a single literal or identifier reference: an integer, a
// float (accepted but, per the front end's Non-goals, only ever lifted to
// an unconstrained domain), or an identifier — which may name a constant,
// a variable, an entire array, or the literals `true`/`false`.
type ScalarLit struct {
	Float *float64 `(  @Float`
	Int   *int64   ` | @Int`
	Ident *string  ` | @Ident )`
}

// ListLiteral is a bracketed `[e1, e2, ...]` literal, used for array
// initializers and for array-valued constraint/annotation arguments.
type ListLiteral struct {
	Elems []*Arg `"[" [ @@ { "," @@ } ] "]"`
}

// Arg is a constraint or annotation argument: an inline range, an inline
// set, a bracketed list, or a scalar literal/identifier.
type Arg struct {
	Range *IntRange    `(  @@`
	Set   *SetLit      ` | @@`
	List  *ListLiteral ` | @@`
	Lit   *ScalarLit   ` | @@ )`
}

// InitExpr is the right-hand side of a declaration's `= ...`: either a
// bracketed array literal or a single scalar value.
type InitExpr struct {
	List  *ListLiteral `(  @@`
	Value *ScalarLit   ` | @@ )`
}

// Annotation is `ident` or `ident(arg, arg, ...)`, per §3.5.
type Annotation struct {
	Name string `@Ident`
	Args []*Arg `[ "(" [ @@ { "," @@ } ] ")" ]`
}

// ConstraintItem is a single `constraint name(arg, ...) :: ann ...;` item.
type ConstraintItem struct {
	Name string        `"constraint" @Ident "("`
	Args []*Arg        `[ @@ { "," @@ } ] ")"`
	Anns []*Annotation `{ "::" @@ }`
	Semi string        `";"`
}

// SolveItem is the model's single `solve` item: satisfy, or an
// optimization direction with an objective argument.
type SolveItem struct {
	Anns     []*Annotation `"solve" { "::" @@ }`
	Satisfy  bool          `(  @"satisfy"`
	Minimize *Arg          ` | "minimize" @@`
	Maximize *Arg          ` | "maximize" @@ )`
	Semi     string        `";"`
}
