package fzn

import (
	"fmt"
)

// Variable is a decision variable in the model. Its domain narrows as
// presolve proceeds; once substituted away it is marked inactive but never
// freed, since aliases elsewhere in the model may still point to it.
type Variable struct {
	Name      string
	Domain    *Domain
	Temporary bool // true for variables synthesized during MiniZinc flattening

	// DefiningConstraint, if non-nil, is the constraint of which this
	// variable is the target: the one whose value is functionally
	// determined by the others in that constraint. It must biject with
	// DefiningConstraint.TargetVariable; use SetTarget/RemoveTarget to
	// keep both sides in sync rather than assigning either field directly.
	DefiningConstraint *Constraint

	Active bool
}

// NewVariable creates an active, non-temporary variable with the given
// display name and domain.
func NewVariable(name string, domain *Domain) *Variable {
	return &Variable{Name: name, Domain: domain, Active: true}
}

// Min returns the variable's domain minimum (±∞-as-sentinel for an
// unbounded domain; see Domain.Min).
func (v *Variable) Min() int64 { return v.Domain.Min() }

// Max returns the variable's domain maximum.
func (v *Variable) Max() int64 { return v.Domain.Max() }

// IsAllInt reports whether the variable's domain is unconstrained.
func (v *Variable) IsAllInt() bool { return v.Domain.IsAllInt() }

// IsBoolean reports whether the variable's domain is a subset of {0, 1}.
func (v *Variable) IsBoolean() bool { return v.Domain.IsBoolean() }

// HasOneValue reports whether the variable is effectively a constant.
func (v *Variable) HasOneValue() bool { return v.Domain.IsSingleton() }

func (v *Variable) String() string {
	if v.HasOneValue() {
		return fmt.Sprintf("%s=%d", v.Name, v.Domain.SingletonValue())
	}
	return fmt.Sprintf("%s∈%s", v.Name, v.Domain.String())
}

// MergeInto merges loser into winner per the §3.2 merge rule used when the
// parser or presolve unifies two variables: the domain becomes the
// intersection, the non-temporary name wins, and at most one of the pair
// may own a defining constraint. Returns an error wrapping
// ErrRuleInconsistency if both sides own a defining constraint.
func MergeInto(winner, loser *Variable) error {
	if winner.DefiningConstraint != nil && loser.DefiningConstraint != nil {
		return fmt.Errorf("%w: both %s and %s have a defining constraint", ErrRuleInconsistency, winner.Name, loser.Name)
	}
	winner.Domain.IntersectWithDomain(loser.Domain)
	if winner.Temporary && !loser.Temporary {
		winner.Name = loser.Name
		winner.Temporary = false
	}
	if winner.DefiningConstraint == nil && loser.DefiningConstraint != nil {
		c := loser.DefiningConstraint
		loser.DefiningConstraint = nil
		winner.DefiningConstraint = c
		c.TargetVariable = winner
	}
	loser.Active = false
	return nil
}

// ArgKind discriminates the Argument tagged union.
type ArgKind int

const (
	ArgVoid ArgKind = iota
	ArgIntValue
	ArgIntInterval
	ArgIntList
	ArgIntVarRef
	ArgIntVarRefArray
)

// Argument is a tagged union used in constraint and annotation argument
// lists, per §3.3. Exactly the fields relevant to Kind are meaningful;
// callers should switch on Kind rather than probing fields directly.
type Argument struct {
	Kind ArgKind

	IntValue int64 // ArgIntValue

	IntervalLo, IntervalHi int64 // ArgIntInterval

	List []int64 // ArgIntList, sorted

	Var *Variable // ArgIntVarRef

	Vars []*Variable // ArgIntVarRefArray
}

func IntValueArg(v int64) Argument { return Argument{Kind: ArgIntValue, IntValue: v} }

func IntIntervalArg(lo, hi int64) Argument {
	return Argument{Kind: ArgIntInterval, IntervalLo: lo, IntervalHi: hi}
}

func IntListArg(values []int64) Argument {
	return Argument{Kind: ArgIntList, List: sortUnique(values)}
}

func VarArg(v *Variable) Argument { return Argument{Kind: ArgIntVarRef, Var: v} }

func VarArrayArg(vs []*Variable) Argument { return Argument{Kind: ArgIntVarRefArray, Vars: vs} }

// HasOneValue reports whether the argument is a constant, or a variable
// reference whose domain is a singleton.
func (a Argument) HasOneValue() bool {
	switch a.Kind {
	case ArgIntValue:
		return true
	case ArgIntVarRef:
		return a.Var.HasOneValue()
	default:
		return false
	}
}

// Value extracts the argument's constant value. Behavior is undefined
// (panics) if HasOneValue is false; callers must guard first.
func (a Argument) Value() int64 {
	switch a.Kind {
	case ArgIntValue:
		return a.IntValue
	case ArgIntVarRef:
		return a.Var.Domain.SingletonValue()
	default:
		panic("fzn: Value() on argument without a single value")
	}
}

// VarOf returns the variable carried by an ArgIntVarRef argument, or nil
// for any other kind.
func (a Argument) VarOf() *Variable {
	if a.Kind == ArgIntVarRef {
		return a.Var
	}
	return nil
}

func (a Argument) String() string {
	switch a.Kind {
	case ArgIntValue:
		return fmt.Sprintf("%d", a.IntValue)
	case ArgIntInterval:
		return fmt.Sprintf("%d..%d", a.IntervalLo, a.IntervalHi)
	case ArgIntList:
		return fmt.Sprintf("%v", a.List)
	case ArgIntVarRef:
		return a.Var.Name
	case ArgIntVarRefArray:
		names := make([]string, len(a.Vars))
		for i, v := range a.Vars {
			names[i] = v.Name
		}
		return fmt.Sprintf("%v", names)
	default:
		return "<void>"
	}
}

// Constraint is a single FlatZinc constraint item: a type name plus an
// ordered argument list, per §3.4.
type Constraint struct {
	Type   string
	Args   []Argument
	Anns   []Annotation
	Active bool

	StrongPropagation bool

	// TargetVariable, if non-nil, must biject with
	// TargetVariable.DefiningConstraint. Use SetTarget/RemoveTarget.
	TargetVariable *Variable

	// PresolvePropagationDone guards one-shot propagation rules so repeated
	// dispatch cannot re-narrow (and hence cannot loop forever).
	PresolvePropagationDone bool
}

// NewConstraint creates an active constraint of the given type with the
// given arguments.
func NewConstraint(typ string, args ...Argument) *Constraint {
	return &Constraint{Type: typ, Args: args, Active: true}
}

// SetTarget establishes the target-variable/defining-constraint bijection
// atomically: c becomes v's defining constraint and v becomes c's target.
// It is an error (ErrRuleInconsistency) for v to already have a different
// defining constraint.
func (c *Constraint) SetTarget(v *Variable) error {
	if v.DefiningConstraint != nil && v.DefiningConstraint != c {
		return fmt.Errorf("%w: %s already defined by %s", ErrRuleInconsistency, v.Name, v.DefiningConstraint.Type)
	}
	c.TargetVariable = v
	v.DefiningConstraint = c
	return nil
}

// RemoveTarget clears the target-variable/defining-constraint bijection on
// both sides atomically. It is a no-op if c has no target.
func (c *Constraint) RemoveTarget() {
	if c.TargetVariable == nil {
		return
	}
	if c.TargetVariable.DefiningConstraint == c {
		c.TargetVariable.DefiningConstraint = nil
	}
	c.TargetVariable = nil
}

func (c *Constraint) String() string {
	return fmt.Sprintf("%s(%v)", c.Type, c.Args)
}

// AnnKind discriminates the Annotation tagged union.
type AnnKind int

const (
	AnnList AnnKind = iota
	AnnIdent
	AnnCall
	AnnInterval
	AnnVarRef
	AnnVarRefArray
)

// Annotation is a recursive tagged union conveying solver-configuration
// directives, per §3.5.
type Annotation struct {
	Kind AnnKind

	Ident string // AnnIdent, AnnCall (function name)

	Items []Annotation // AnnList, AnnCall (arguments)

	IntervalLo, IntervalHi int64 // AnnInterval

	Var *Variable // AnnVarRef

	Vars []*Variable // AnnVarRefArray
}

// OutputItem is a single `output_var` or `output_array` item, per §3.6.
type OutputItem struct {
	Name string

	// Dims is empty for a single-variable output. For an array output it
	// holds the ordered dimension bounds (each a closed interval).
	Dims []DimBound

	// Vars holds the flat list of variables in row-major order (a single
	// element for a scalar output).
	Vars []*Variable
}

// DimBound is a closed integer interval describing one array dimension.
type DimBound struct {
	Lo, Hi int64
}

// Model owns all variables, constraints, annotations, and output items of
// a parsed FlatZinc instance, per §3.7. Containers are insertion-ordered;
// order is significant for reproducibility of presolve and extraction.
type Model struct {
	Variables   []*Variable
	Constraints []*Constraint
	Outputs     []OutputItem

	Objective   *Variable // nil for `solve satisfy`
	Maximize    bool      // meaningful only when Objective != nil
	SearchAnns  []Annotation
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{}
}

// AddVariable appends v to the model and returns it.
func (m *Model) AddVariable(v *Variable) *Variable {
	m.Variables = append(m.Variables, v)
	return v
}

// AddConstraint appends c to the model and returns it.
func (m *Model) AddConstraint(c *Constraint) *Constraint {
	m.Constraints = append(m.Constraints, c)
	return c
}

// ActiveConstraints returns the subset of m.Constraints with Active set,
// preserving insertion order.
func (m *Model) ActiveConstraints() []*Constraint {
	out := make([]*Constraint, 0, len(m.Constraints))
	for _, c := range m.Constraints {
		if c.Active {
			out = append(out, c)
		}
	}
	return out
}

// ActiveVariables returns the subset of m.Variables with Active set,
// preserving insertion order.
func (m *Model) ActiveVariables() []*Variable {
	out := make([]*Variable, 0, len(m.Variables))
	for _, v := range m.Variables {
		if v.Active {
			out = append(out, v)
		}
	}
	return out
}
