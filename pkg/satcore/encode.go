// Package satcore translates NetCore predicates, actions, and policies into
// symbolic boolean constraints over an uninterpreted Packet sort (spec.md
// §4.5). It never talks to a concrete solver process directly — it builds
// constraint trees through the pkg/smt.Solver interface and leaves Check
// and Model evaluation to the caller (pkg/verifier).
package satcore

import (
	"fmt"
	"sort"

	"github.com/newtron-network/netslice/pkg/netcore"
	"github.com/newtron-network/netslice/pkg/smt"
	"github.com/newtron-network/netslice/pkg/topology"
)

// fieldNames lists every NetCore header field in a fixed order, used to
// declare one uninterpreted function per field and to build carry-over and
// transfer constraints deterministically.
var fieldNames = []string{
	netcore.FieldSwitch,
	netcore.FieldPort,
	netcore.FieldSrcMAC,
	netcore.FieldDstMAC,
	netcore.FieldEthType,
	netcore.FieldSrcIP,
	netcore.FieldDstIP,
	netcore.FieldVLAN,
	netcore.FieldProtocol,
	netcore.FieldSrcPort,
	netcore.FieldDstPort,
}

// Env binds a single pkg/smt.Solver to the uninterpreted Packet/Obs sorts
// and per-field functions the encoding needs. One Env belongs to exactly
// one Solver; building a query against a fresh Solver means building a
// fresh Env.
type Env struct {
	Solver smt.Solver

	packetSort smt.Sort
	obsSort    smt.Sort
	fields     map[string]smt.FuncDecl
	obsConsts  map[string]smt.Value

	named map[string]smt.Value
}

// NewEnv declares the Packet sort, the Obs sort, and one uninterpreted
// function per header field against solver.
func NewEnv(solver smt.Solver) *Env {
	e := &Env{
		Solver:    solver,
		fields:    make(map[string]smt.FuncDecl, len(fieldNames)),
		obsConsts: make(map[string]smt.Value),
		named:     make(map[string]smt.Value),
	}
	e.packetSort = solver.DeclareSort("Packet")
	e.obsSort = solver.DeclareSort("Obs")
	for _, f := range fieldNames {
		e.fields[f] = solver.DeclareFunc(f, []smt.Sort{e.packetSort}, solver.IntSort())
	}
	return e
}

// NewPacket declares a fresh symbolic packet constant and remembers it under
// name for inclusion in a query's witness.
func (e *Env) NewPacket(name string) smt.Value {
	v := e.Solver.Const(name, e.packetSort)
	e.named[name] = v
	return v
}

// NewObs declares a fresh symbolic observation constant.
func (e *Env) NewObs(name string) smt.Value {
	v := e.Solver.Const(name, e.obsSort)
	e.named[name] = v
	return v
}

// Named returns every packet/observation constant built against this Env so
// far, for attaching to a SAT witness.
func (e *Env) Named() map[string]smt.Value {
	cp := make(map[string]smt.Value, len(e.named))
	for k, v := range e.named {
		cp[k] = v
	}
	return cp
}

// Field builds field(p) for a declared header field.
func (e *Env) Field(field string, p smt.Value) smt.Value {
	decl, ok := e.fields[field]
	if !ok {
		// Unknown field names propagate as lookup failures (spec.md §4.1).
		panic(fmt.Sprintf("satcore: undeclared field %q", field))
	}
	return e.Solver.Apply(decl, p)
}

func (e *Env) obsConst(label string) smt.Value {
	if v, ok := e.obsConsts[label]; ok {
		return v
	}
	v := e.Solver.Const("obs$"+label, e.obsSort)
	e.obsConsts[label] = v
	return v
}

// GuardField builds the assertion field(p) == value — fixing one field of a
// symbolic packet to a concrete integer by constraint.
func (e *Env) GuardField(p smt.Value, field string, value int) smt.Value {
	return e.Solver.Eq(e.Field(field, p), e.Solver.Int(int64(value)))
}

// Guarded is a symbolic packet with some fields substituted by concrete
// integers — the in_mods/out_mods device of the encoding. Reading a field in
// Mods yields the integer literal instead of the uninterpreted function
// application, which is what lets a query sweep a field over its possible
// values without renaming the packet constant: the same constant is encoded
// once per candidate value.
type Guarded struct {
	Packet smt.Value
	Mods   map[string]int
}

// Plain wraps a packet constant with no field substitutions.
func Plain(p smt.Value) Guarded { return Guarded{Packet: p} }

// With returns a copy of g with field substituted by value.
func (g Guarded) With(field string, value int) Guarded {
	mods := make(map[string]int, len(g.Mods)+1)
	for k, v := range g.Mods {
		mods[k] = v
	}
	mods[field] = value
	return Guarded{Packet: g.Packet, Mods: mods}
}

// FieldG builds field(p) under g's substitutions: an integer literal for a
// guarded field, the uninterpreted application otherwise.
func (e *Env) FieldG(field string, g Guarded) smt.Value {
	if v, ok := g.Mods[field]; ok {
		return e.Solver.Int(int64(v))
	}
	return e.Field(field, g.Packet)
}

// SameLocation builds switch(p)==switch(q) ∧ port(p)==port(q).
func (e *Env) SameLocation(p, q smt.Value) smt.Value {
	return e.Solver.And(
		e.Solver.Eq(e.Field(netcore.FieldSwitch, p), e.Field(netcore.FieldSwitch, q)),
		e.Solver.Eq(e.Field(netcore.FieldPort, p), e.Field(netcore.FieldPort, q)),
	)
}

// Match encodes match(pred, p): Top->true, Bottom->false, Header->a
// conjunction of field equalities, and the boolean combinators for
// Union/Intersection/Difference.
func (e *Env) Match(pred *netcore.Predicate, p smt.Value) (smt.Value, error) {
	return e.MatchG(pred, Plain(p))
}

// MatchG is Match over a guarded packet.
func (e *Env) MatchG(pred *netcore.Predicate, g Guarded) (smt.Value, error) {
	switch pred.Kind {
	case netcore.PredTop:
		return e.Solver.Bool(true), nil
	case netcore.PredBottom:
		return e.Solver.Bool(false), nil
	case netcore.PredHeader:
		keys := make([]string, 0, len(pred.Header))
		for f := range pred.Header {
			keys = append(keys, f)
		}
		sort.Strings(keys)
		conj := make([]smt.Value, 0, len(keys))
		for _, f := range keys {
			conj = append(conj, e.Solver.Eq(e.FieldG(f, g), e.Solver.Int(int64(pred.Header[f]))))
		}
		return e.Solver.And(conj...), nil
	case netcore.PredUnion:
		l, err := e.MatchG(pred.Left, g)
		if err != nil {
			return nil, err
		}
		r, err := e.MatchG(pred.Right, g)
		if err != nil {
			return nil, err
		}
		return e.Solver.Or(l, r), nil
	case netcore.PredIntersection:
		l, err := e.MatchG(pred.Left, g)
		if err != nil {
			return nil, err
		}
		r, err := e.MatchG(pred.Right, g)
		if err != nil {
			return nil, err
		}
		return e.Solver.And(l, r), nil
	case netcore.PredDifference:
		l, err := e.MatchG(pred.Left, g)
		if err != nil {
			return nil, err
		}
		r, err := e.MatchG(pred.Right, g)
		if err != nil {
			return nil, err
		}
		return e.Solver.And(l, e.Solver.Not(r)), nil
	default:
		return nil, &netcore.StructuralError{Kind: int(pred.Kind), Node: fmt.Sprintf("%#v", pred)}
	}
}

// ModifyPacket encodes modify_packet(a, p_in, p_out): both ends pinned to
// a.Switch, p_out's port one of a.Ports, every field in a.Modify set on
// p_out, and every other field carried over unchanged from p_in. An action
// with no output ports collapses to false (a drop).
func (e *Env) ModifyPacket(a *netcore.Action, pIn, pOut smt.Value) (smt.Value, error) {
	return e.ModifyPacketG(a, Plain(pIn), Plain(pOut))
}

// ModifyPacketG is ModifyPacket over guarded packets.
func (e *Env) ModifyPacketG(a *netcore.Action, gIn, gOut Guarded) (smt.Value, error) {
	if len(a.Ports) == 0 {
		return e.Solver.Bool(false), nil
	}
	conj := []smt.Value{
		e.Solver.Eq(e.FieldG(netcore.FieldSwitch, gIn), e.Solver.Int(int64(a.Switch))),
		e.Solver.Eq(e.FieldG(netcore.FieldSwitch, gOut), e.Solver.Int(int64(a.Switch))),
	}
	portDisj := make([]smt.Value, 0, len(a.Ports))
	for _, port := range a.Ports {
		portDisj = append(portDisj, e.Solver.Eq(e.FieldG(netcore.FieldPort, gOut), e.Solver.Int(int64(port))))
	}
	conj = append(conj, e.Solver.Or(portDisj...))

	for _, f := range fieldNames {
		if f == netcore.FieldSwitch || f == netcore.FieldPort {
			continue
		}
		if v, ok := a.Modify[f]; ok {
			conj = append(conj, e.Solver.Eq(e.FieldG(f, gOut), e.Solver.Int(int64(v))))
		} else {
			conj = append(conj, e.Solver.Eq(e.FieldG(f, gIn), e.FieldG(f, gOut)))
		}
	}
	return e.Solver.And(conj...), nil
}

// Forwards encodes forwards(policy, p_in, p_out) by structural recursion
// over the policy tree.
func (e *Env) Forwards(policy *netcore.Policy, pIn, pOut smt.Value) (smt.Value, error) {
	return e.ForwardsG(policy, Plain(pIn), Plain(pOut))
}

// ForwardsG is Forwards over guarded packets. Sweeping a query field means
// calling it once per candidate value with the field guarded on both ends.
func (e *Env) ForwardsG(policy *netcore.Policy, gIn, gOut Guarded) (smt.Value, error) {
	switch policy.Kind {
	case netcore.PolicyBottom:
		return e.Solver.Bool(false), nil
	case netcore.PolicyPrimitive:
		m, err := e.MatchG(policy.Pred, gIn)
		if err != nil {
			return nil, err
		}
		disj := make([]smt.Value, 0, len(policy.Actions))
		for _, a := range policy.Actions {
			mp, err := e.ModifyPacketG(a, gIn, gOut)
			if err != nil {
				return nil, err
			}
			disj = append(disj, mp)
		}
		return e.Solver.And(m, e.Solver.Or(disj...)), nil
	case netcore.PolicyUnion:
		l, err := e.ForwardsG(policy.Left, gIn, gOut)
		if err != nil {
			return nil, err
		}
		r, err := e.ForwardsG(policy.Right, gIn, gOut)
		if err != nil {
			return nil, err
		}
		return e.Solver.Or(l, r), nil
	case netcore.PolicyRestriction:
		inner, err := e.ForwardsG(policy.Left, gIn, gOut)
		if err != nil {
			return nil, err
		}
		q, err := e.MatchG(policy.Pred, gIn)
		if err != nil {
			return nil, err
		}
		return e.Solver.And(inner, q), nil
	default:
		return nil, &netcore.StructuralError{Kind: int(policy.Kind), Node: fmt.Sprintf("%#v", policy)}
	}
}

// Observes encodes observes(policy, p, o): like Forwards but the disjuncts
// assert o equals one of the firing action's observation labels rather than
// constraining an output packet.
func (e *Env) Observes(policy *netcore.Policy, p, o smt.Value) (smt.Value, error) {
	return e.ObservesG(policy, Plain(p), o)
}

// ObservesG is Observes over a guarded packet.
func (e *Env) ObservesG(policy *netcore.Policy, g Guarded, o smt.Value) (smt.Value, error) {
	switch policy.Kind {
	case netcore.PolicyBottom:
		return e.Solver.Bool(false), nil
	case netcore.PolicyPrimitive:
		m, err := e.MatchG(policy.Pred, g)
		if err != nil {
			return nil, err
		}
		var disj []smt.Value
		for _, a := range policy.Actions {
			for _, label := range a.ObsLabels() {
				disj = append(disj, e.Solver.Eq(o, e.obsConst(label)))
			}
		}
		return e.Solver.And(m, e.Solver.Or(disj...)), nil
	case netcore.PolicyUnion:
		l, err := e.ObservesG(policy.Left, g, o)
		if err != nil {
			return nil, err
		}
		r, err := e.ObservesG(policy.Right, g, o)
		if err != nil {
			return nil, err
		}
		return e.Solver.Or(l, r), nil
	case netcore.PolicyRestriction:
		inner, err := e.ObservesG(policy.Left, g, o)
		if err != nil {
			return nil, err
		}
		q, err := e.MatchG(policy.Pred, g)
		if err != nil {
			return nil, err
		}
		return e.Solver.And(inner, q), nil
	default:
		return nil, &netcore.StructuralError{Kind: int(policy.Kind), Node: fmt.Sprintf("%#v", policy)}
	}
}

// SweepValues returns the candidate values a quantified sweep over field
// must try against policy: every literal the policy compares or sets the
// field to, plus 0 (untagged) and one fresh value standing for "any value
// the policy never names". The policy's behavior on field is decided
// entirely by comparisons against its own literals, so two values outside
// that set are indistinguishable and one fresh representative is complete.
func SweepValues(policy *netcore.Policy, field string) []int {
	seen := map[int]bool{0: true}
	var walkPred func(*netcore.Predicate)
	walkPred = func(p *netcore.Predicate) {
		if p == nil {
			return
		}
		if p.Kind == netcore.PredHeader {
			if v, ok := p.Header[field]; ok {
				seen[v] = true
			}
			return
		}
		walkPred(p.Left)
		walkPred(p.Right)
	}
	var walkPolicy func(*netcore.Policy)
	walkPolicy = func(p *netcore.Policy) {
		if p == nil {
			return
		}
		walkPred(p.Pred)
		for _, a := range p.Actions {
			if v, ok := a.Modify[field]; ok {
				seen[v] = true
			}
		}
		walkPolicy(p.Left)
		walkPolicy(p.Right)
	}
	walkPolicy(policy)

	out := make([]int, 0, len(seen)+1)
	maxV := 0
	for v := range seen {
		out = append(out, v)
		if v > maxV {
			maxV = v
		}
	}
	out = append(out, maxV+1)
	sort.Ints(out)
	return out
}

// AtValidPort constrains p's location to some (node, port) pair of topo, so
// a query never demands forwarding behavior at a location that does not
// exist in the physical network.
func (e *Env) AtValidPort(topo topology.Topology, p smt.Value) smt.Value {
	var disj []smt.Value
	for _, node := range topo.Nodes() {
		for _, port := range topo.Ports(node) {
			disj = append(disj, e.Solver.And(
				e.Solver.Eq(e.Field(netcore.FieldSwitch, p), e.Solver.Int(int64(node))),
				e.Solver.Eq(e.Field(netcore.FieldPort, p), e.Solver.Int(int64(port))),
			))
		}
	}
	return e.Solver.Or(disj...)
}

// Transfer encodes transfer(topo, p_out, p_in): a disjunction over every
// directed physical edge of "p_out is located here, p_in is located there",
// conjoined with every non-location header agreeing across the hop.
func (e *Env) Transfer(topo topology.Topology, pOut, pIn smt.Value) smt.Value {
	edges := topo.Edges()
	disj := make([]smt.Value, 0, 2*len(edges))
	for _, edge := range edges {
		disj = append(disj, e.directedTransfer(edge.A, edge.B, pOut, pIn))
		disj = append(disj, e.directedTransfer(edge.B, edge.A, pOut, pIn))
	}
	return e.Solver.Or(disj...)
}

func (e *Env) directedTransfer(from, to topology.PortRef, pOut, pIn smt.Value) smt.Value {
	conj := []smt.Value{
		e.Solver.Eq(e.Field(netcore.FieldSwitch, pOut), e.Solver.Int(int64(from.Node))),
		e.Solver.Eq(e.Field(netcore.FieldPort, pOut), e.Solver.Int(int64(from.Port))),
		e.Solver.Eq(e.Field(netcore.FieldSwitch, pIn), e.Solver.Int(int64(to.Node))),
		e.Solver.Eq(e.Field(netcore.FieldPort, pIn), e.Solver.Int(int64(to.Port))),
	}
	for _, f := range fieldNames {
		if f == netcore.FieldSwitch || f == netcore.FieldPort {
			continue
		}
		conj = append(conj, e.Solver.Eq(e.Field(f, pOut), e.Field(f, pIn)))
	}
	return e.Solver.And(conj...)
}
