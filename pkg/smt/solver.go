// Package smt declares the minimal SMT-solver API the verifier consumes
// (spec.md §6): uninterpreted sorts and functions, boolean/integer
// constraint building, and check/model. It is a pure interface — the
// concrete backend lives in pkg/satz3, build-tagged so the rest of the
// module never requires a cgo toolchain.
package smt

import "context"

// Sort names an uninterpreted or built-in sort.
type Sort struct {
	Name string
}

// FuncDecl names an uninterpreted function from Domain to Range, declared
// against a specific Solver via DeclareFunc.
type FuncDecl struct {
	Name   string
	Domain []Sort
	Range  Sort
}

// Value is an opaque handle to a term (a constant, a function application,
// or a boolean/integer expression) built against a specific Solver. A Value
// is only ever meaningful to the Solver that produced it; callers pass it
// back into that same Solver's methods and never inspect it directly.
type Value interface{}

// CheckResult is the three-valued outcome of a solver Check call.
type CheckResult int

const (
	// Unsat means no assignment satisfies the asserted constraints.
	Unsat CheckResult = iota
	// Sat means a satisfying assignment exists; Model() returns it.
	Sat
	// Unknown means the solver could not decide within its resource bounds.
	Unknown
)

func (r CheckResult) String() string {
	switch r {
	case Unsat:
		return "unsat"
	case Sat:
		return "sat"
	default:
		return "unknown"
	}
}

// Model evaluates function applications and constants to concrete values
// from a satisfying assignment.
type Model interface {
	// Eval returns the integer value the model assigns to v, and whether v
	// was interpreted (false for a value the model leaves unconstrained).
	Eval(v Value) (int64, bool)
}

// Solver is the consumed SMT API: declare sorts and uninterpreted
// functions, build constraints over constants and function applications,
// and check satisfiability. Implementations are not required to be safe
// for concurrent use.
type Solver interface {
	// IntSort and BoolSort return the solver's built-in integer and
	// boolean sorts.
	IntSort() Sort
	BoolSort() Sort
	// DeclareSort introduces a fresh uninterpreted sort.
	DeclareSort(name string) Sort
	// DeclareFunc introduces a fresh uninterpreted function symbol.
	DeclareFunc(name string, domain []Sort, rng Sort) FuncDecl

	// Const declares (or, for a name already used, retrieves) a free
	// constant of the given sort.
	Const(name string, sort Sort) Value
	// Int and Bool build integer and boolean literals.
	Int(v int64) Value
	Bool(b bool) Value

	// Apply builds f(args...).
	Apply(f FuncDecl, args ...Value) Value
	// Eq, And, Or, Not build boolean combinators. And() and Or() with no
	// arguments are the boolean identities (true, false respectively).
	Eq(a, b Value) Value
	And(vs ...Value) Value
	Or(vs ...Value) Value
	Not(v Value) Value

	// Assert adds a boolean constraint to the solver's assertion stack.
	Assert(v Value)
	// Check decides satisfiability of every asserted constraint, honoring
	// ctx's deadline/cancellation — the only suspension point in the
	// verifier (spec.md §5).
	Check(ctx context.Context) (CheckResult, error)
	// Model returns the satisfying assignment found by the most recent
	// Check call that returned Sat. Calling it after Unsat or Unknown is
	// an error.
	Model() (Model, error)
	// Close releases any resources (solver process, cgo context) held by
	// the implementation.
	Close() error
}
