//go:build z3

// Package satz3 is the production pkg/smt.Solver backend: it lowers the
// Packet/Obs uninterpreted sorts and per-field functions pkg/satcore
// builds onto github.com/aclements/go-z3/z3's cgo bindings to the Z3
// theorem prover. Nothing outside this package imports go-z3 directly, so
// the rest of the module builds without a C toolchain; only a binary built
// with -tags z3 links this solver in (cmd/netslice falls back to an error
// explaining the build tag when it isn't present).
package satz3

import (
	"context"
	"fmt"

	"github.com/aclements/go-z3/z3"

	"github.com/newtron-network/netslice/pkg/smt"
)

// Solver wraps a z3.Context/z3.Solver pair behind the pkg/smt.Solver
// interface. It is not safe for concurrent use, matching every other
// implementation of the interface.
type Solver struct {
	ctx    *z3.Context
	solver *z3.Solver

	sorts  map[string]z3.Sort
	funcs  map[string]z3.FuncDecl
	consts map[string]z3.Value

	lastCheck smt.CheckResult
	lastModel *z3.Model
}

// New returns a fresh Solver against a new z3.Context built with default
// configuration.
func New() *Solver {
	ctx := z3.NewContext(z3.NewContextConfig())
	return &Solver{
		ctx:    ctx,
		solver: z3.NewSolver(ctx),
		sorts:  make(map[string]z3.Sort),
		funcs:  make(map[string]z3.FuncDecl),
		consts: make(map[string]z3.Value),
	}
}

// NewSolver matches the pkg/verifier.Verifier.NewSolver factory signature,
// so a z3-tagged build can pass satz3.NewSolver straight into verifier.New.
func NewSolver() (smt.Solver, error) {
	return New(), nil
}

func (s *Solver) IntSort() smt.Sort { return smt.Sort{Name: "Int"} }

func (s *Solver) BoolSort() smt.Sort { return smt.Sort{Name: "Bool"} }

// DeclareSort introduces a fresh Z3 uninterpreted sort named name. Calling
// it twice with the same name returns the same underlying Z3 sort, since
// pkg/satcore.NewEnv only declares each of its sorts once per Env anyway
// and a second declaration would otherwise shadow the first without error.
func (s *Solver) DeclareSort(name string) smt.Sort {
	if _, ok := s.sorts[name]; !ok {
		s.sorts[name] = s.ctx.UninterpretedSort(name)
	}
	return smt.Sort{Name: name}
}

func (s *Solver) z3Sort(sort smt.Sort) z3.Sort {
	switch sort.Name {
	case "Int":
		return s.ctx.IntSort()
	case "Bool":
		return s.ctx.BoolSort()
	default:
		z3s, ok := s.sorts[sort.Name]
		if !ok {
			panic(fmt.Sprintf("satz3: undeclared sort %q", sort.Name))
		}
		return z3s
	}
}

func (s *Solver) DeclareFunc(name string, domain []smt.Sort, rng smt.Sort) smt.FuncDecl {
	z3Domain := make([]z3.Sort, len(domain))
	for i, d := range domain {
		z3Domain[i] = s.z3Sort(d)
	}
	s.funcs[name] = s.ctx.FuncDecl(name, z3Domain, s.z3Sort(rng))
	return smt.FuncDecl{Name: name, Domain: domain, Range: rng}
}

func (s *Solver) Const(name string, sort smt.Sort) smt.Value {
	if v, ok := s.consts[name]; ok {
		return v
	}
	v := s.ctx.Const(name, s.z3Sort(sort))
	s.consts[name] = v
	return v
}

func (s *Solver) Int(v int64) smt.Value { return s.ctx.FromInt(v, s.ctx.IntSort()) }

func (s *Solver) Bool(b bool) smt.Value { return s.ctx.FromBool(b) }

func (s *Solver) Apply(f smt.FuncDecl, args ...smt.Value) smt.Value {
	decl, ok := s.funcs[f.Name]
	if !ok {
		panic(fmt.Sprintf("satz3: undeclared function %q", f.Name))
	}
	z3Args := make([]z3.Value, len(args))
	for i, a := range args {
		z3Args[i] = a.(z3.Value)
	}
	return decl.Apply(z3Args...)
}

// Eq dispatches on the concrete Z3 value type: go-z3 defines equality per
// sort rather than on the Value interface.
func (s *Solver) Eq(a, b smt.Value) smt.Value {
	switch x := a.(type) {
	case z3.Int:
		return x.Eq(b.(z3.Int))
	case z3.Bool:
		return x.Eq(b.(z3.Bool))
	case z3.Uninterpreted:
		return x.Eq(b.(z3.Uninterpreted))
	default:
		panic(fmt.Sprintf("satz3: equality unsupported for %T", a))
	}
}

func (s *Solver) And(vs ...smt.Value) smt.Value {
	if len(vs) == 0 {
		return s.ctx.FromBool(true)
	}
	acc := vs[0].(z3.Bool)
	for _, v := range vs[1:] {
		acc = acc.And(v.(z3.Bool))
	}
	return acc
}

func (s *Solver) Or(vs ...smt.Value) smt.Value {
	if len(vs) == 0 {
		return s.ctx.FromBool(false)
	}
	acc := vs[0].(z3.Bool)
	for _, v := range vs[1:] {
		acc = acc.Or(v.(z3.Bool))
	}
	return acc
}

func (s *Solver) Not(v smt.Value) smt.Value {
	return v.(z3.Bool).Not()
}

func (s *Solver) Assert(v smt.Value) {
	s.solver.Assert(v.(z3.Bool))
}

// Check honors ctx's deadline by running the solver on a goroutine and
// racing it against ctx.Done, since z3.Solver.Check has no native
// cancellation hook. A cancellation leaves the goroutine to finish in the
// background; its result is discarded. Z3's own "unknown" surfaces as the
// error return of go-z3's Check and maps to smt.Unknown.
func (s *Solver) Check(ctx context.Context) (smt.CheckResult, error) {
	type outcome struct {
		sat     bool
		unknown bool
		model   *z3.Model
	}
	done := make(chan outcome, 1)
	go func() {
		sat, err := s.solver.Check()
		var m *z3.Model
		if err != nil {
			done <- outcome{unknown: true}
			return
		}
		if sat {
			m = s.solver.Model()
		}
		done <- outcome{sat: sat, model: m}
	}()

	select {
	case <-ctx.Done():
		return smt.Unknown, ctx.Err()
	case o := <-done:
		switch {
		case o.unknown:
			s.lastCheck = smt.Unknown
			return smt.Unknown, nil
		case o.sat:
			s.lastCheck = smt.Sat
			s.lastModel = o.model
			return smt.Sat, nil
		default:
			s.lastCheck = smt.Unsat
			return smt.Unsat, nil
		}
	}
}

func (s *Solver) Model() (smt.Model, error) {
	if s.lastCheck != smt.Sat || s.lastModel == nil {
		return nil, fmt.Errorf("satz3: Model called without a satisfying Check result")
	}
	return &model{m: s.lastModel}, nil
}

func (s *Solver) Close() error {
	return nil
}

type model struct {
	m *z3.Model
}

// Eval asks the model to evaluate v, forcing a complete model (Z3's
// model_completion) so every uninterpreted function application gets a
// concrete value even if the solver left it unconstrained.
func (m *model) Eval(v smt.Value) (int64, bool) {
	val, ok := v.(z3.Value)
	if !ok {
		return 0, false
	}
	i, ok := m.m.Eval(val, true).(z3.Int)
	if !ok {
		return 0, false
	}
	n, exact := i.AsInt64()
	if !exact {
		return 0, false
	}
	return n, true
}
