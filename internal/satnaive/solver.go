// Package satnaive is a small decision procedure used only by this module's
// own unit tests. It decides the fragment pkg/satcore actually emits —
// boolean combinations of equalities between integer literals, constants,
// and unary uninterpreted-function applications — by a tableau search over
// the formula structure: conjunctions push goals, disjunctions branch, and
// every literal chosen along a branch is checked for consistency with a
// union-find over terms (a class may commit to at most one integer literal,
// and asserted disequalities must keep their endpoints in distinct
// classes). Disequated classes without committed literals are always
// satisfiable over the integers, so the check is complete for this
// fragment. It is adequate for the toy topologies the satcore and verifier
// tests build, and far too slow for anything real — pkg/satz3 is the
// production backend. Exceeding MaxSteps reports Unknown, mirroring the
// "solver indeterminate" outcome a real SMT solver gives on a timeout.
package satnaive

import (
	"context"
	"fmt"

	"github.com/newtron-network/netslice/pkg/smt"
)

type kind int

const (
	kConst kind = iota
	kApp
	kIntLit
	kBoolLit
	kEq
	kAnd
	kOr
	kNot
)

type node struct {
	kind kind

	name string   // kConst
	sort smt.Sort // kConst

	fn  string // kApp
	arg *node  // kApp

	i int64 // kIntLit
	b bool  // kBoolLit

	l, r *node   // kEq (both); kNot (l only)
	kids []*node // kAnd / kOr
}

// termKey canonicalizes a term node for the equality store. Only kConst,
// kApp, and kIntLit are terms.
func termKey(n *node) string {
	switch n.kind {
	case kConst:
		return "c:" + n.name
	case kApp:
		return n.fn + "@" + n.arg.name
	case kIntLit:
		return fmt.Sprintf("#%d", n.i)
	default:
		panic("satnaive: not a term")
	}
}

// lit is one asserted (dis)equality between two terms.
type lit struct {
	a, b *node
	eq   bool
}

// Solver is a tableau-based smt.Solver. The zero value is not usable; build
// one with New.
type Solver struct {
	// MaxSteps bounds the tableau search; Check reports Unknown rather than
	// exploring past it. Defaults to 2000000 via New.
	MaxSteps int

	funcs  map[string]smt.FuncDecl
	consts map[string]*node

	asserts []*node
	model   *model
}

// New returns an empty Solver.
func New() *Solver {
	return &Solver{
		MaxSteps: 2000000,
		funcs:    make(map[string]smt.FuncDecl),
		consts:   make(map[string]*node),
	}
}

func (s *Solver) IntSort() smt.Sort { return smt.Sort{Name: "Int"} }

func (s *Solver) BoolSort() smt.Sort { return smt.Sort{Name: "Bool"} }

func (s *Solver) DeclareSort(name string) smt.Sort { return smt.Sort{Name: name} }

func (s *Solver) DeclareFunc(name string, domain []smt.Sort, rng smt.Sort) smt.FuncDecl {
	fd := smt.FuncDecl{Name: name, Domain: domain, Range: rng}
	s.funcs[name] = fd
	return fd
}

func (s *Solver) Const(name string, sort smt.Sort) smt.Value {
	if n, ok := s.consts[name]; ok {
		return n
	}
	n := &node{kind: kConst, name: name, sort: sort}
	s.consts[name] = n
	return n
}

func (s *Solver) Int(v int64) smt.Value { return &node{kind: kIntLit, i: v} }
func (s *Solver) Bool(b bool) smt.Value { return &node{kind: kBoolLit, b: b} }

func (s *Solver) Apply(f smt.FuncDecl, args ...smt.Value) smt.Value {
	if len(args) != 1 {
		panic("satnaive: only unary uninterpreted functions are supported")
	}
	arg, ok := args[0].(*node)
	if !ok || arg.kind != kConst {
		panic("satnaive: function arguments must be named constants")
	}
	return &node{kind: kApp, fn: f.Name, arg: arg}
}

func (s *Solver) Eq(a, b smt.Value) smt.Value {
	return &node{kind: kEq, l: a.(*node), r: b.(*node)}
}

func (s *Solver) And(vs ...smt.Value) smt.Value {
	n := &node{kind: kAnd}
	for _, v := range vs {
		n.kids = append(n.kids, v.(*node))
	}
	return n
}

func (s *Solver) Or(vs ...smt.Value) smt.Value {
	n := &node{kind: kOr}
	for _, v := range vs {
		n.kids = append(n.kids, v.(*node))
	}
	return n
}

func (s *Solver) Not(v smt.Value) smt.Value { return &node{kind: kNot, l: v.(*node)} }

func (s *Solver) Assert(v smt.Value) { s.asserts = append(s.asserts, v.(*node)) }

func (s *Solver) Close() error { return nil }

// goal is one formula to satisfy, under the given polarity (neg true means
// satisfy its negation).
type goal struct {
	n   *node
	neg bool
}

type searcher struct {
	ctx      context.Context
	steps    int
	maxSteps int
}

var errBudget = fmt.Errorf("satnaive: step budget exhausted")

// Check runs the tableau search over the asserted formulas.
func (s *Solver) Check(ctx context.Context) (smt.CheckResult, error) {
	// Goals are popped from the end; push the assertions reversed so they
	// are satisfied in assertion order.
	goals := make([]goal, 0, len(s.asserts))
	for i := len(s.asserts) - 1; i >= 0; i-- {
		goals = append(goals, goal{n: s.asserts[i]})
	}
	srch := &searcher{ctx: ctx, maxSteps: s.MaxSteps}
	lits, sat, err := srch.solve(goals, nil)
	if err == errBudget {
		return smt.Unknown, nil
	}
	if err != nil {
		return smt.Unknown, err
	}
	if !sat {
		return smt.Unsat, nil
	}
	s.model = buildModel(lits)
	return smt.Sat, nil
}

// solve satisfies every goal, branching on disjunctions. lits is the branch's
// committed literal set; a non-nil returned slice is the satisfying set.
func (s *searcher) solve(goals []goal, lits []lit) ([]lit, bool, error) {
	s.steps++
	if s.steps > s.maxSteps {
		return nil, false, errBudget
	}
	if s.steps%4096 == 0 {
		select {
		case <-s.ctx.Done():
			return nil, false, s.ctx.Err()
		default:
		}
	}

	if len(goals) == 0 {
		return lits, true, nil
	}
	g := goals[len(goals)-1]
	rest := goals[:len(goals)-1]

	switch g.n.kind {
	case kBoolLit:
		if g.n.b != g.neg {
			return s.solve(rest, lits)
		}
		return nil, false, nil
	case kNot:
		return s.solve(append(rest, goal{n: g.n.l, neg: !g.neg}), lits)
	case kAnd, kOr:
		conj := (g.n.kind == kAnd) != g.neg
		if conj {
			next := rest
			for i := len(g.n.kids) - 1; i >= 0; i-- {
				next = append(next, goal{n: g.n.kids[i], neg: g.neg})
			}
			return s.solve(next, lits)
		}
		// Disjunction. A kid already entailed by the committed literals
		// satisfies it with no choice point, and refuted kids are not worth
		// branching into — both prune the backtracking space enormously on
		// the verifier's sweep conjunctions, where most disjuncts are ground.
		st := buildStore(lits)
		unknowns := make([]*node, 0, len(g.n.kids))
		for _, k := range g.n.kids {
			switch quickEval(k, g.neg, st) {
			case evTrue:
				return s.solve(rest, lits)
			case evUnknown:
				unknowns = append(unknowns, k)
			}
		}
		for _, k := range unknowns {
			branch := make([]goal, len(rest), len(rest)+1)
			copy(branch, rest)
			branch = append(branch, goal{n: k, neg: g.neg})
			found, sat, err := s.solve(branch, lits)
			if err != nil || sat {
				return found, sat, err
			}
		}
		return nil, false, nil
	case kEq:
		l := lit{a: g.n.l, b: g.n.r, eq: !g.neg}
		switch evalLit(l, buildStore(lits)) {
		case evTrue:
			return s.solve(rest, lits)
		case evFalse:
			return nil, false, nil
		}
		next := append(lits[:len(lits):len(lits)], l)
		if buildStore(next) == nil {
			return nil, false, nil
		}
		return s.solve(rest, next)
	default:
		return nil, false, fmt.Errorf("satnaive: %d is not a boolean node kind", g.n.kind)
	}
}

type evalResult int

const (
	evUnknown evalResult = iota
	evTrue
	evFalse
)

// store is a consistent view of a literal set: the union-find over terms
// plus the committed disequalities by class-root pair.
type store struct {
	uf     *unionFind
	diseqs []lit
}

// buildStore merges a literal set into a union-find, returning nil when the
// set has no integer model: a class holding two distinct integer literals,
// or a disequality whose endpoints were merged. Anything else is satisfiable
// by assigning distinct fresh values per class.
func buildStore(lits []lit) *store {
	uf := newUnionFind()
	st := &store{uf: uf}
	for _, l := range lits {
		if l.eq {
			va, okA := termVal(l.a)
			vb, okB := termVal(l.b)
			if !uf.union(termKey(l.a), va, okA, termKey(l.b), vb, okB) {
				return nil
			}
		} else {
			st.diseqs = append(st.diseqs, l)
		}
	}
	for _, l := range st.diseqs {
		if uf.find(termKey(l.a)) == uf.find(termKey(l.b)) {
			return nil
		}
	}
	return st
}

// evalLit decides a literal against the store where the committed literals
// already force an answer, evUnknown otherwise. st is assumed consistent.
func evalLit(l lit, st *store) evalResult {
	ka, kb := termKey(l.a), termKey(l.b)
	eq := evUnknown
	if ka == kb || st.uf.find(ka) == st.uf.find(kb) {
		eq = evTrue
	} else {
		ea, eb := st.uf.get(st.uf.find(ka)), st.uf.get(st.uf.find(kb))
		va, okA := termVal(l.a)
		vb, okB := termVal(l.b)
		if okA {
			ea.val, ea.hasVal = va, true
		}
		if okB {
			eb.val, eb.hasVal = vb, true
		}
		if ea.hasVal && eb.hasVal {
			if ea.val == eb.val {
				eq = evTrue
			} else {
				eq = evFalse
			}
		} else {
			for _, d := range st.diseqs {
				da, db := st.uf.find(termKey(d.a)), st.uf.find(termKey(d.b))
				ra, rb := st.uf.find(ka), st.uf.find(kb)
				if (da == ra && db == rb) || (da == rb && db == ra) {
					eq = evFalse
					break
				}
			}
		}
	}
	if eq == evUnknown {
		return evUnknown
	}
	if l.eq == (eq == evTrue) {
		return evTrue
	}
	return evFalse
}

// quickEval decides a formula against the committed literals where they
// force an answer, without committing anything new.
func quickEval(n *node, neg bool, st *store) evalResult {
	switch n.kind {
	case kBoolLit:
		if n.b != neg {
			return evTrue
		}
		return evFalse
	case kNot:
		return quickEval(n.l, !neg, st)
	case kEq:
		return evalLit(lit{a: n.l, b: n.r, eq: !neg}, st)
	case kAnd, kOr:
		conj := (n.kind == kAnd) != neg
		sawUnknown := false
		for _, k := range n.kids {
			switch quickEval(k, neg, st) {
			case evTrue:
				if !conj {
					return evTrue
				}
			case evFalse:
				if conj {
					return evFalse
				}
			default:
				sawUnknown = true
			}
		}
		if sawUnknown {
			return evUnknown
		}
		if conj {
			return evTrue
		}
		return evFalse
	default:
		return evUnknown
	}
}

func termVal(n *node) (int64, bool) {
	if n.kind == kIntLit {
		return n.i, true
	}
	return 0, false
}

type ufEntry struct {
	parent string
	val    int64
	hasVal bool
}

type unionFind struct {
	entries map[string]*ufEntry
}

func newUnionFind() *unionFind {
	return &unionFind{entries: make(map[string]*ufEntry)}
}

func (u *unionFind) get(k string) *ufEntry {
	e, ok := u.entries[k]
	if !ok {
		e = &ufEntry{parent: k}
		u.entries[k] = e
	}
	return e
}

func (u *unionFind) find(k string) string {
	e := u.get(k)
	if e.parent == k {
		return k
	}
	root := u.find(e.parent)
	e.parent = root
	return root
}

// union merges the classes of a and b, seeding each with its own integer
// literal value when the term is one. Returns false on a value clash.
func (u *unionFind) union(ka string, va int64, okA bool, kb string, vb int64, okB bool) bool {
	ra, rb := u.find(ka), u.find(kb)
	ea, eb := u.get(ra), u.get(rb)
	if okA {
		if ea.hasVal && ea.val != va {
			return false
		}
		ea.val, ea.hasVal = va, true
	}
	if okB {
		if eb.hasVal && eb.val != vb {
			return false
		}
		eb.val, eb.hasVal = vb, true
	}
	if ra == rb {
		return true
	}
	if ea.hasVal && eb.hasVal && ea.val != eb.val {
		return false
	}
	eb.parent = ra
	if eb.hasVal {
		ea.val, ea.hasVal = eb.val, true
	}
	return true
}

func (s *Solver) Model() (smt.Model, error) {
	if s.model == nil {
		return nil, fmt.Errorf("satnaive: Model called without a satisfying Check result")
	}
	return s.model, nil
}

type model struct {
	uf    *unionFind
	fresh map[string]int64
}

// buildModel turns a satisfying literal set into an evaluable model:
// classes committed to an integer literal take it, every other class gets a
// distinct fresh value clear of all committed literals.
func buildModel(lits []lit) *model {
	uf := newUnionFind()
	for _, l := range lits {
		if l.eq {
			va, okA := termVal(l.a)
			vb, okB := termVal(l.b)
			uf.union(termKey(l.a), va, okA, termKey(l.b), vb, okB)
		} else {
			// register the endpoints so fresh-value assignment sees them
			uf.find(termKey(l.a))
			uf.find(termKey(l.b))
		}
	}
	var maxVal int64
	for k := range uf.entries {
		e := uf.get(uf.find(k))
		if e.hasVal && e.val > maxVal {
			maxVal = e.val
		}
	}
	m := &model{uf: uf, fresh: make(map[string]int64)}
	next := maxVal + 1
	for k := range uf.entries {
		root := uf.find(k)
		if uf.get(root).hasVal {
			continue
		}
		if _, ok := m.fresh[root]; !ok {
			m.fresh[root] = next
			next++
		}
	}
	return m
}

func (m *model) Eval(v smt.Value) (int64, bool) {
	n, ok := v.(*node)
	if !ok {
		return 0, false
	}
	switch n.kind {
	case kIntLit:
		return n.i, true
	case kConst, kApp:
		key := termKey(n)
		if _, seen := m.uf.entries[key]; !seen {
			return 0, false
		}
		root := m.uf.find(key)
		if e := m.uf.get(root); e.hasVal {
			return e.val, true
		}
		if fv, ok := m.fresh[root]; ok {
			return fv, true
		}
		return 0, false
	default:
		return 0, false
	}
}
