package netcore

// PredKind tags the variant of a Predicate node.
type PredKind int

const (
	// PredTop matches every located packet.
	PredTop PredKind = iota
	// PredBottom matches no located packet.
	PredBottom
	// PredHeader matches iff every listed field equals the given value.
	PredHeader
	// PredUnion matches either operand.
	PredUnion
	// PredIntersection matches both operands.
	PredIntersection
	// PredDifference matches the left operand but not the right.
	PredDifference
)

func (k PredKind) String() string {
	switch k {
	case PredTop:
		return "Top"
	case PredBottom:
		return "Bottom"
	case PredHeader:
		return "Header"
	case PredUnion:
		return "Union"
	case PredIntersection:
		return "Intersection"
	case PredDifference:
		return "Difference"
	default:
		return "UnknownPredicate"
	}
}

// Predicate is an immutable value tree describing a set of located packets.
type Predicate struct {
	Kind        PredKind
	Header      map[string]int
	Left, Right *Predicate
}

// Top returns the predicate matching every packet.
func Top() *Predicate { return &Predicate{Kind: PredTop} }

// Bottom returns the predicate matching no packet.
func Bottom() *Predicate { return &Predicate{Kind: PredBottom} }

// HeaderPred builds a Header predicate from a field->value map. The map is
// copied defensively.
func HeaderPred(fields map[string]int) *Predicate {
	cp := make(map[string]int, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return &Predicate{Kind: PredHeader, Header: cp}
}

// UnionPred builds l ∪ r.
func UnionPred(l, r *Predicate) *Predicate {
	return &Predicate{Kind: PredUnion, Left: l, Right: r}
}

// IntersectionPred builds l ∩ r.
func IntersectionPred(l, r *Predicate) *Predicate {
	return &Predicate{Kind: PredIntersection, Left: l, Right: r}
}

// DifferencePred builds l \ r.
func DifferencePred(l, r *Predicate) *Predicate {
	return &Predicate{Kind: PredDifference, Left: l, Right: r}
}

// NaryUnion folds Union over preds with identity Bottom.
func NaryUnion(preds ...*Predicate) *Predicate {
	acc := Bottom()
	for _, p := range preds {
		acc = UnionPred(acc, p)
	}
	return acc
}

// NaryIntersection folds IntersectionPred over preds, starting from the
// first predicate. An empty preds yields Bottom.
func NaryIntersection(preds ...*Predicate) *Predicate {
	if len(preds) == 0 {
		return Bottom()
	}
	acc := preds[0]
	for _, p := range preds[1:] {
		acc = IntersectionPred(acc, p)
	}
	return acc
}

// InPort builds Header{switch:s, port:p}.
func InPort(sw, port int) *Predicate {
	return HeaderPred(map[string]int{FieldSwitch: sw, FieldPort: port})
}

// InPorts builds the union of InPort(sw, p) for each p in ports.
func InPorts(sw int, ports []int) *Predicate {
	preds := make([]*Predicate, 0, len(ports))
	for _, p := range ports {
		preds = append(preds, InPort(sw, p))
	}
	return NaryUnion(preds...)
}

// Matches reports whether pkt satisfies the predicate. This is the
// concrete-packet semantics used by Simulate.
func (p *Predicate) Matches(pkt Packet) bool {
	switch p.Kind {
	case PredTop:
		return true
	case PredBottom:
		return false
	case PredHeader:
		for f, v := range p.Header {
			pv, ok := pkt.Get(f)
			if !ok || pv != v {
				return false
			}
		}
		return true
	case PredUnion:
		return p.Left.Matches(pkt) || p.Right.Matches(pkt)
	case PredIntersection:
		return p.Left.Matches(pkt) && p.Right.Matches(pkt)
	case PredDifference:
		return p.Left.Matches(pkt) && !p.Right.Matches(pkt)
	default:
		return false
	}
}

// Equal reports structural equality of two predicate trees.
func (p *Predicate) Equal(o *Predicate) bool {
	if p == nil || o == nil {
		return p == o
	}
	if p.Kind != o.Kind {
		return false
	}
	switch p.Kind {
	case PredTop, PredBottom:
		return true
	case PredHeader:
		return headerEqual(p.Header, o.Header)
	case PredUnion, PredIntersection, PredDifference:
		return p.Left.Equal(o.Left) && p.Right.Equal(o.Right)
	default:
		return false
	}
}

func headerEqual(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}
