// Package verifier implements the high-level SAT-based correctness and
// isolation queries of spec.md §4.6: every check builds a fresh solver via
// satcore, asserts the existential witness for a property's negation, and
// classifies the result as holding (UNSAT), violated (SAT, with a witness),
// or indeterminate (the solver returned unknown).
package verifier

import (
	"context"
	"fmt"
	"time"

	"github.com/newtron-network/netslice/pkg/netcore"
	"github.com/newtron-network/netslice/pkg/satcore"
	"github.com/newtron-network/netslice/pkg/smt"
	"github.com/newtron-network/netslice/pkg/topology"
	"github.com/newtron-network/netslice/pkg/util"
)

// Outcome classifies a query's result.
type Outcome int

const (
	// Holds means the solver reported UNSAT: the property being checked
	// for a counterexample to holds.
	Holds Outcome = iota
	// Violated means the solver found a satisfying witness: the property
	// does not hold.
	Violated
)

func (o Outcome) String() string {
	if o == Holds {
		return "holds"
	}
	return "violated"
}

// Witness carries a counterexample to a query's property: the solver's
// model plus every named packet/observation constant the query built, so a
// caller can print the offending field values without inspecting opaque
// smt.Value handles directly.
type Witness struct {
	Query string
	Model smt.Model
	Named map[string]smt.Value
}

// Verdict is the outcome of one query.
type Verdict struct {
	Outcome Outcome
	Witness *Witness // non-nil iff Outcome == Violated
}

// Verifier runs queries against fresh solvers produced by NewSolver. A
// solver-indeterminate result surfaces as *util.IndeterminateError, which
// callers check for explicitly (spec.md §7) rather than treating as either
// Holds or Violated.
type Verifier struct {
	NewSolver func() (smt.Solver, error)
	// Timeout bounds each Check call; zero means no deadline beyond ctx's
	// own. Defaults to 30s via New.
	Timeout time.Duration
}

// New returns a Verifier backed by newSolver, the only supported way to
// obtain a fresh smt.Solver per query (spec.md §5: the solver is the only
// suspension point, and each call is self-contained).
func New(newSolver func() (smt.Solver, error)) *Verifier {
	return &Verifier{NewSolver: newSolver, Timeout: 30 * time.Second}
}

// build constructs one query's constraint, given a fresh satcore.Env over a
// fresh solver. It returns the assertion to check for satisfiability.
type build func(e *satcore.Env) (smt.Value, error)

func (v *Verifier) run(ctx context.Context, query string, b build) (*Verdict, error) {
	solver, err := v.NewSolver()
	if err != nil {
		return nil, fmt.Errorf("verifier: %s: creating solver: %w", query, err)
	}
	defer solver.Close()

	env := satcore.NewEnv(solver)
	assertion, err := b(env)
	if err != nil {
		return nil, fmt.Errorf("verifier: %s: %w", query, err)
	}
	solver.Assert(assertion)

	cctx := ctx
	if v.Timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, v.Timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := solver.Check(cctx)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("verifier: %s: solver check: %w", query, err)
	}

	log := util.WithFields(map[string]interface{}{"query": query, "result": result.String(), "elapsed": elapsed})
	switch result {
	case smt.Unsat:
		log.Debug("verifier query")
		return &Verdict{Outcome: Holds}, nil
	case smt.Sat:
		log.Debug("verifier query")
		model, err := solver.Model()
		if err != nil {
			return nil, fmt.Errorf("verifier: %s: reading model: %w", query, err)
		}
		return &Verdict{Outcome: Violated, Witness: &Witness{Query: query, Model: model, Named: env.Named()}}, nil
	default:
		log.Warn("verifier query returned indeterminate result")
		return nil, util.NewIndeterminateError(query, elapsed.String())
	}
}

// NotEmpty checks ∃ p_in, p_out. forwards(policy, p_in, p_out). Holds means
// UNSAT: the policy drops every packet.
func (v *Verifier) NotEmpty(ctx context.Context, policy *netcore.Policy) (*Verdict, error) {
	return v.run(ctx, "not_empty", func(e *satcore.Env) (smt.Value, error) {
		pIn := e.NewPacket("p_in")
		pOut := e.NewPacket("p_out")
		return e.Forwards(policy, pIn, pOut)
	})
}

// Equivalent checks the negation of spec.md §4.6's directional equivalence
// formula: ¬( (∀ forwards(p1)⇒forwards(p2)) ∧ (∀ forwards(p2,pin,x) ∧
// forwards(p1,pin,y) ⇒ forwards(p1,pin,x)) ). Holds (UNSAT) means p2
// simulates p1. Documented in spec.md §9 as an under-approximation: prefer
// SimulatesForwards + SimulatesObserves + SimulatesForwards2 + OnePerEdge
// for actual compiler-correctness judgments.
func (v *Verifier) Equivalent(ctx context.Context, p1, p2 *netcore.Policy) (*Verdict, error) {
	return v.run(ctx, "equivalent", func(e *satcore.Env) (smt.Value, error) {
		in1 := e.NewPacket("p_in1")
		out1 := e.NewPacket("p_out1")
		fwd1to2In, err := e.Forwards(p1, in1, out1)
		if err != nil {
			return nil, err
		}
		fwd1to2Out, err := e.Forwards(p2, in1, out1)
		if err != nil {
			return nil, err
		}
		notA := e.Solver.And(fwd1to2In, e.Solver.Not(fwd1to2Out))

		in2 := e.NewPacket("p_in2")
		x := e.NewPacket("x")
		y := e.NewPacket("y")
		fwdP2X, err := e.Forwards(p2, in2, x)
		if err != nil {
			return nil, err
		}
		fwdP1Y, err := e.Forwards(p1, in2, y)
		if err != nil {
			return nil, err
		}
		fwdP1X, err := e.Forwards(p1, in2, x)
		if err != nil {
			return nil, err
		}
		notB := e.Solver.And(fwdP2X, fwdP1Y, e.Solver.Not(fwdP1X))

		return e.Solver.Or(notA, notB), nil
	})
}

// SimulatesForwards checks that every one-hop transition a forwards from a
// valid port of topo has a matching transition b can forward between the
// same packets under *some* valuation of field (typically vlan). The sweep
// over field is finitized to the values b actually names (plus untagged and
// one fresh representative) and encoded by guarded-field substitution: b's
// forwarding is asserted over a's own packet constants with field replaced
// by each candidate, and the query asks for a transition of a that defeats
// every candidate. Holds (UNSAT) means compilation preserves one-hop
// forwarding up to field.
func (v *Verifier) SimulatesForwards(ctx context.Context, topo topology.Topology, a, b *netcore.Policy, field string) (*Verdict, error) {
	return v.run(ctx, "simulates_forwards", func(e *satcore.Env) (smt.Value, error) {
		aIn := e.NewPacket("a_in")
		aOut := e.NewPacket("a_out")
		fwdA, err := e.Forwards(a, aIn, aOut)
		if err != nil {
			return nil, err
		}

		conj := []smt.Value{fwdA, e.AtValidPort(topo, aIn)}
		for _, vIn := range satcore.SweepValues(b, field) {
			for _, vOut := range satcore.SweepValues(b, field) {
				fwdB, err := e.ForwardsG(b,
					satcore.Plain(aIn).With(field, vIn),
					satcore.Plain(aOut).With(field, vOut))
				if err != nil {
					return nil, err
				}
				conj = append(conj, e.Solver.Not(fwdB))
			}
		}
		return e.Solver.And(conj...), nil
	})
}

// SimulatesObserves is SimulatesForwards' analogue for observations: every
// observation a emits on some packet must be emitted by b on the same
// packet under some valuation of field.
func (v *Verifier) SimulatesObserves(ctx context.Context, a, b *netcore.Policy, field string) (*Verdict, error) {
	return v.run(ctx, "simulates_observes", func(e *satcore.Env) (smt.Value, error) {
		pA := e.NewPacket("p_a")
		o := e.NewObs("o")
		obsA, err := e.Observes(a, pA, o)
		if err != nil {
			return nil, err
		}

		conj := []smt.Value{obsA}
		for _, val := range satcore.SweepValues(b, field) {
			obsB, err := e.ObservesG(b, satcore.Plain(pA).With(field, val), o)
			if err != nil {
				return nil, err
			}
			conj = append(conj, e.Solver.Not(obsB))
		}
		return e.Solver.And(conj...), nil
	})
}

// SimulatesForwards2 extends SimulatesForwards to a two-hop sequence: a
// forwards, topo transfers the packet one physical hop, a forwards again.
// b must reproduce both hops under a *single* consistent valuation of field
// across the hop — the same candidate guards the first hop's output and the
// second hop's input below, since transfer carries every non-location field
// (field included) across the link unchanged. That is exactly what catches
// a compiled clause whose tag is inconsistent across a hop: no single
// candidate survives both forwarding constraints. A b that forwards nothing
// at all short-circuits to Holds without a solver call — the degenerate
// empty-policy escape hatch; the one-hop check already reports every
// transition such a b fails to simulate.
func (v *Verifier) SimulatesForwards2(ctx context.Context, topo topology.Topology, a, b *netcore.Policy, field string) (*Verdict, error) {
	if b.Reduce().Kind == netcore.PolicyBottom {
		return &Verdict{Outcome: Holds}, nil
	}
	return v.run(ctx, "simulates_forwards2", func(e *satcore.Env) (smt.Value, error) {
		p1 := e.NewPacket("p1")
		p2 := e.NewPacket("p2")
		p3 := e.NewPacket("p3")
		p4 := e.NewPacket("p4")

		fwdA1, err := e.Forwards(a, p1, p2)
		if err != nil {
			return nil, err
		}
		transferA := e.Transfer(topo, p2, p3)
		fwdA2, err := e.Forwards(a, p3, p4)
		if err != nil {
			return nil, err
		}

		conj := []smt.Value{fwdA1, transferA, fwdA2, e.AtValidPort(topo, p1)}
		cands := satcore.SweepValues(b, field)
		for _, v1 := range cands {
			for _, v2 := range cands {
				for _, v4 := range cands {
					fwdB1, err := e.ForwardsG(b,
						satcore.Plain(p1).With(field, v1),
						satcore.Plain(p2).With(field, v2))
					if err != nil {
						return nil, err
					}
					fwdB2, err := e.ForwardsG(b,
						satcore.Plain(p3).With(field, v2),
						satcore.Plain(p4).With(field, v4))
					if err != nil {
						return nil, err
					}
					conj = append(conj, e.Solver.Not(e.Solver.And(fwdB1, fwdB2)))
				}
			}
		}
		return e.Solver.And(conj...), nil
	})
}

// OnePerEdge checks that policy uses only one value of field on each
// internal edge of topo — spec.md §4.6's structural well-formedness
// invariant on a compiled policy. The first forwarding's output must
// transfer across a link into a port the policy forwards from again, which
// is what scopes the check to internal edges: an output bound for a host
// never re-enters the slice, so external egress (where the tag is stripped)
// cannot witness a violation. Holds (UNSAT) means the policy is
// well-formed.
func (v *Verifier) OnePerEdge(ctx context.Context, topo topology.Topology, policy *netcore.Policy, field string) (*Verdict, error) {
	return v.run(ctx, "one_per_edge", func(e *satcore.Env) (smt.Value, error) {
		p := e.NewPacket("p")
		pOut := e.NewPacket("p_out")
		f1, err := e.Forwards(policy, p, pOut)
		if err != nil {
			return nil, err
		}
		r := e.NewPacket("r")
		rOut := e.NewPacket("r_out")
		transfer := e.Transfer(topo, pOut, r)
		f2, err := e.Forwards(policy, r, rOut)
		if err != nil {
			return nil, err
		}

		q := e.NewPacket("q")
		qOut := e.NewPacket("q_out")
		f3, err := e.Forwards(policy, q, qOut)
		if err != nil {
			return nil, err
		}

		distinctField := e.Solver.Not(e.Solver.Eq(e.Field(field, pOut), e.Field(field, qOut)))
		return e.Solver.And(f1, transfer, f2, f3, e.SameLocation(pOut, qOut), distinctField), nil
	})
}

// checkList runs named checks in order and returns the first violated (or
// indeterminate) verdict, tagging its witness/error with the failing
// check's name; Holds only when every check holds.
func checkList(checks []namedCheck) (*Verdict, error) {
	for _, c := range checks {
		verdict, err := c.run()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.name, err)
		}
		if verdict.Outcome != Holds {
			if verdict.Witness != nil {
				verdict.Witness.Query = c.name
			}
			return verdict, nil
		}
	}
	return &Verdict{Outcome: Holds}, nil
}

type namedCheck struct {
	name string
	run  func() (*Verdict, error)
}

// CompiledCorrectly is the central compiler-correctness predicate (spec.md
// §4.6): both directions of one- and two-hop simulation on forwarding and
// observations hold, and result has the one-per-edge property.
func (v *Verifier) CompiledCorrectly(ctx context.Context, topo topology.Topology, orig, result *netcore.Policy, field string) (*Verdict, error) {
	return checkList([]namedCheck{
		{"simulates_forwards(orig,result)", func() (*Verdict, error) { return v.SimulatesForwards(ctx, topo, orig, result, field) }},
		{"simulates_forwards(result,orig)", func() (*Verdict, error) { return v.SimulatesForwards(ctx, topo, result, orig, field) }},
		{"simulates_observes(orig,result)", func() (*Verdict, error) { return v.SimulatesObserves(ctx, orig, result, field) }},
		{"simulates_observes(result,orig)", func() (*Verdict, error) { return v.SimulatesObserves(ctx, result, orig, field) }},
		{"simulates_forwards2(orig,result)", func() (*Verdict, error) { return v.SimulatesForwards2(ctx, topo, orig, result, field) }},
		{"simulates_forwards2(result,orig)", func() (*Verdict, error) { return v.SimulatesForwards2(ctx, topo, result, orig, field) }},
		{"one_per_edge(result)", func() (*Verdict, error) { return v.OnePerEdge(ctx, topo, result, field) }},
	})
}

// SharedIO checks whether an output of p1 reaches, via one physical hop, an
// input p2 actually forwards from — the isolation primitive of spec.md
// §4.6. Violated means the two policies can see each other's traffic.
func (v *Verifier) SharedIO(ctx context.Context, topo topology.Topology, p1, p2 *netcore.Policy) (*Verdict, error) {
	return v.run(ctx, "shared_io", func(e *satcore.Env) (smt.Value, error) {
		in1 := e.NewPacket("in1")
		out1 := e.NewPacket("out1")
		f1, err := e.Forwards(p1, in1, out1)
		if err != nil {
			return nil, err
		}
		in2 := e.NewPacket("in2")
		out2 := e.NewPacket("out2")
		f2, err := e.Forwards(p2, in2, out2)
		if err != nil {
			return nil, err
		}
		transfer := e.Transfer(topo, out1, in2)
		return e.Solver.And(f1, f2, transfer), nil
	})
}

// SharedInputs checks whether both policies forward the very same input
// packet — an ingress conflict.
func (v *Verifier) SharedInputs(ctx context.Context, p1, p2 *netcore.Policy) (*Verdict, error) {
	return v.run(ctx, "shared_inputs", func(e *satcore.Env) (smt.Value, error) {
		in := e.NewPacket("in")
		out1 := e.NewPacket("out1")
		out2 := e.NewPacket("out2")
		f1, err := e.Forwards(p1, in, out1)
		if err != nil {
			return nil, err
		}
		f2, err := e.Forwards(p2, in, out2)
		if err != nil {
			return nil, err
		}
		return e.Solver.And(f1, f2), nil
	})
}

// SharedOutputs checks whether both policies can produce the very same
// output packet, from possibly different inputs.
func (v *Verifier) SharedOutputs(ctx context.Context, p1, p2 *netcore.Policy) (*Verdict, error) {
	return v.run(ctx, "shared_outputs", func(e *satcore.Env) (smt.Value, error) {
		in1 := e.NewPacket("in1")
		in2 := e.NewPacket("in2")
		out := e.NewPacket("out")
		f1, err := e.Forwards(p1, in1, out)
		if err != nil {
			return nil, err
		}
		f2, err := e.Forwards(p2, in2, out)
		if err != nil {
			return nil, err
		}
		return e.Solver.And(f1, f2), nil
	})
}

// SharedTransit checks whether a packet p1 forwards can transit, via one
// physical hop, into a packet p2 forwards (in either direction).
func (v *Verifier) SharedTransit(ctx context.Context, topo topology.Topology, p1, p2 *netcore.Policy) (*Verdict, error) {
	return v.run(ctx, "shared_transit", func(e *satcore.Env) (smt.Value, error) {
		inA := e.NewPacket("in_a")
		outA := e.NewPacket("out_a")
		fA, err := e.Forwards(p1, inA, outA)
		if err != nil {
			return nil, err
		}
		inB := e.NewPacket("in_b")
		outB := e.NewPacket("out_b")
		fB, err := e.Forwards(p2, inB, outB)
		if err != nil {
			return nil, err
		}
		forward := e.Transfer(topo, outA, inB)
		reverse := e.Transfer(topo, outB, inA)
		return e.Solver.And(fA, fB, e.Solver.Or(forward, reverse)), nil
	})
}

// Separate conjoins SharedIO (both directions), SharedInputs (both
// directions), SharedOutputs (both directions), and SharedTransit — Holds
// only when none of them find a witness, meaning p1 and p2 never observe
// or influence each other's packets.
func (v *Verifier) Separate(ctx context.Context, topo topology.Topology, p1, p2 *netcore.Policy) (*Verdict, error) {
	return checkList([]namedCheck{
		{"shared_io(p1,p2)", func() (*Verdict, error) { return v.SharedIO(ctx, topo, p1, p2) }},
		{"shared_io(p2,p1)", func() (*Verdict, error) { return v.SharedIO(ctx, topo, p2, p1) }},
		{"shared_inputs(p1,p2)", func() (*Verdict, error) { return v.SharedInputs(ctx, p1, p2) }},
		{"shared_inputs(p2,p1)", func() (*Verdict, error) { return v.SharedInputs(ctx, p2, p1) }},
		{"shared_outputs(p1,p2)", func() (*Verdict, error) { return v.SharedOutputs(ctx, p1, p2) }},
		{"shared_outputs(p2,p1)", func() (*Verdict, error) { return v.SharedOutputs(ctx, p2, p1) }},
		{"shared_transit(p1,p2)", func() (*Verdict, error) { return v.SharedTransit(ctx, topo, p1, p2) }},
	})
}

// DisjointObservations is purely structural (no solver call): it walks
// both policy trees and checks their observation label sets are disjoint.
func DisjointObservations(p1, p2 *netcore.Policy) bool {
	return netcore.ObsDisjoint(collectObsLabels(p1), collectObsLabels(p2))
}

func collectObsLabels(p *netcore.Policy) map[string]struct{} {
	out := make(map[string]struct{})
	var walk func(*netcore.Policy)
	walk = func(p *netcore.Policy) {
		if p == nil {
			return
		}
		switch p.Kind {
		case netcore.PolicyPrimitive:
			for _, a := range p.Actions {
				for l := range a.Obs {
					out[l] = struct{}{}
				}
			}
		case netcore.PolicyUnion:
			walk(p.Left)
			walk(p.Right)
		case netcore.PolicyRestriction:
			walk(p.Left)
		}
	}
	walk(p)
	return out
}

// Isolated combines Separate with DisjointObservations: two slices are
// isolated only when neither can see or influence the other's packets at
// the transport level *and* their observation channels never collide.
func (v *Verifier) Isolated(ctx context.Context, topo topology.Topology, p1, p2 *netcore.Policy) (bool, error) {
	verdict, err := v.Separate(ctx, topo, p1, p2)
	if err != nil {
		return false, err
	}
	if verdict.Outcome != Holds {
		return false, nil
	}
	return DisjointObservations(p1, p2), nil
}
