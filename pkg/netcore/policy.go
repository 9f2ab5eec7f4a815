package netcore

// PolicyKind tags the variant of a Policy node.
type PolicyKind int

const (
	// PolicyBottom drops everything.
	PolicyBottom PolicyKind = iota
	// PolicyPrimitive fires its actions where Pred matches and the
	// located packet's switch equals the action's switch.
	PolicyPrimitive
	// PolicyUnion unions the outputs of its two operands.
	PolicyUnion
	// PolicyRestriction fires Left only where Pred matches the input.
	PolicyRestriction
)

func (k PolicyKind) String() string {
	switch k {
	case PolicyBottom:
		return "Bottom"
	case PolicyPrimitive:
		return "Primitive"
	case PolicyUnion:
		return "Union"
	case PolicyRestriction:
		return "Restriction"
	default:
		return "UnknownPolicy"
	}
}

// Policy is an immutable value tree denoting a function from located
// packets to multisets of (packet, observation) pairs.
type Policy struct {
	Kind    PolicyKind
	Pred    *Predicate // match predicate (Primitive) or restriction (Restriction)
	Actions []*Action  // Primitive only
	Left    *Policy    // Union left operand / Restriction's inner policy
	Right   *Policy    // Union right operand
}

// BottomPolicy drops all packets.
func BottomPolicy() *Policy { return &Policy{Kind: PolicyBottom} }

// PrimitivePolicy builds Primitive(pred, actions). A Bottom pred or an empty
// action list collapses per Reduce's rules, but construction itself is total.
func PrimitivePolicy(pred *Predicate, actions []*Action) *Policy {
	acts := make([]*Action, len(actions))
	copy(acts, actions)
	return &Policy{Kind: PolicyPrimitive, Pred: pred, Actions: acts}
}

// UnionPolicy builds l ∪ r.
func UnionPolicy(l, r *Policy) *Policy {
	return &Policy{Kind: PolicyUnion, Left: l, Right: r}
}

// NaryUnionPolicy folds UnionPolicy over policies with identity Bottom.
func NaryUnionPolicy(policies ...*Policy) *Policy {
	acc := BottomPolicy()
	for _, p := range policies {
		acc = UnionPolicy(acc, p)
	}
	return acc
}

// Restrict builds Restriction(policy, pred) — fires policy only where pred
// matches the input.
func Restrict(policy *Policy, pred *Predicate) *Policy {
	return &Policy{Kind: PolicyRestriction, Left: policy, Pred: pred}
}

// Equal reports structural equality of two policy trees.
func (p *Policy) Equal(o *Policy) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.Kind != o.Kind {
		return false
	}
	switch p.Kind {
	case PolicyBottom:
		return true
	case PolicyPrimitive:
		if !p.Pred.Equal(o.Pred) || len(p.Actions) != len(o.Actions) {
			return false
		}
		for i := range p.Actions {
			if !actionEqual(p.Actions[i], o.Actions[i]) {
				return false
			}
		}
		return true
	case PolicyUnion:
		return p.Left.Equal(o.Left) && p.Right.Equal(o.Right)
	case PolicyRestriction:
		return p.Left.Equal(o.Left) && p.Pred.Equal(o.Pred)
	default:
		return false
	}
}

func actionEqual(a, b *Action) bool {
	if a.Switch != b.Switch {
		return false
	}
	if len(a.Ports) != len(b.Ports) {
		return false
	}
	for i := range a.Ports {
		if a.Ports[i] != b.Ports[i] {
			return false
		}
	}
	if !headerEqual(a.Modify, b.Modify) {
		return false
	}
	return ObsEqual(a.Obs, b.Obs)
}

// collectActions gathers every action from every Primitive/Restriction node
// whose predicate matches pkt, descending into a Restriction only when its
// predicate matches pkt too (so it works on possibly-unreduced trees).
// This is the "get_actions" primitive of spec.md §4.1; callers that need
// spec.md's open-question location-switch filter (Simulate; the SAT
// encoding) apply it themselves.
func (p *Policy) collectActions(pkt Packet) []*Action {
	switch p.Kind {
	case PolicyBottom:
		return nil
	case PolicyPrimitive:
		if p.Pred.Matches(pkt) {
			return p.Actions
		}
		return nil
	case PolicyUnion:
		return append(p.Left.collectActions(pkt), p.Right.collectActions(pkt)...)
	case PolicyRestriction:
		if p.Pred.Matches(pkt) {
			return p.Left.collectActions(pkt)
		}
		return nil
	default:
		return nil
	}
}

// GetActions is the exported form of collectActions.
func (p *Policy) GetActions(pkt Packet) []*Action {
	return p.collectActions(pkt)
}
