// Package fzn implements the FlatZinc model IR, domain algebra, presolver,
// and extraction scheduler described in the design: a pipeline that turns a
// parsed FlatZinc model into a fully-typed, presolved, topologically ordered
// representation ready to be handed to a constraint-solver back-end.
package fzn

import "errors"

// Sentinel errors for the taxonomy in the error-handling design. Callers
// should use errors.Is against these rather than matching on message text.
var (
	// ErrReference indicates an identifier was not found, or an array index
	// fell outside its declared bounds. Fatal: the input is malformed.
	ErrReference = errors.New("fzn: reference error")

	// ErrEmptyDomain indicates a presolve rule narrowed some variable's
	// domain to the empty set. This is recovered by the caller into an
	// unsatisfiability verdict; it is not a crash.
	ErrEmptyDomain = errors.New("fzn: empty domain (unsatisfiable)")

	// ErrRuleInconsistency indicates two constraints both claim to define
	// the same variable, or a target-variable/defining-constraint bijection
	// was found broken. Indicates a bug in the input model.
	ErrRuleInconsistency = errors.New("fzn: rule inconsistency")

	// ErrBackendRejection indicates the back-end refused a constraint
	// signature handed to it by the extraction scheduler.
	ErrBackendRejection = errors.New("fzn: back-end rejected constraint")

	// ErrCycle indicates the extraction scheduler found a defines-before-uses
	// cycle among active constraints; this is an input error, not a solver bug.
	ErrCycle = errors.New("fzn: dependency cycle in extraction order")
)
