package netcore

// Reduce normalizes a predicate to a fixed point of the rewrite rules in
// spec.md §4.1, applied bottom-up. Reduce is deterministic: the same input
// always yields the same output tree.
func (p *Predicate) Reduce() *Predicate {
	cur := p
	for {
		next := reducePredicateOnce(cur)
		if next.Equal(cur) {
			return next
		}
		cur = next
	}
}

func reducePredicateOnce(p *Predicate) *Predicate {
	switch p.Kind {
	case PredTop, PredBottom:
		return p
	case PredHeader:
		return p
	case PredUnion:
		l := reducePredicateOnce(p.Left)
		r := reducePredicateOnce(p.Right)
		if l.Kind == PredTop || r.Kind == PredTop {
			return Top()
		}
		if l.Kind == PredBottom {
			return r
		}
		if r.Kind == PredBottom {
			return l
		}
		return UnionPred(l, r)
	case PredIntersection:
		return reduceIntersection(reducePredicateOnce(p.Left), reducePredicateOnce(p.Right))
	case PredDifference:
		return reduceDifference(reducePredicateOnce(p.Left), reducePredicateOnce(p.Right))
	default:
		return p
	}
}

func reduceIntersection(l, r *Predicate) *Predicate {
	if l.Kind == PredBottom || r.Kind == PredBottom {
		return Bottom()
	}
	if l.Kind == PredTop {
		return r
	}
	if r.Kind == PredTop {
		return l
	}
	if l.Kind == PredHeader && r.Kind == PredHeader {
		return intersectHeaders(l.Header, r.Header)
	}
	// Distribute over a single-level Union when the other side is a
	// Header — never over two Unions (combinatorial blow-up).
	if l.Kind == PredHeader && r.Kind == PredUnion {
		return UnionPred(IntersectionPred(l, r.Left), IntersectionPred(l, r.Right))
	}
	if r.Kind == PredHeader && l.Kind == PredUnion {
		return UnionPred(IntersectionPred(l.Left, r), IntersectionPred(l.Right, r))
	}
	// Push a Header into a nested Intersection branch to trigger further
	// reduction, reassociating rather than nesting deeper.
	if l.Kind == PredHeader && r.Kind == PredIntersection {
		return IntersectionPred(IntersectionPred(l, r.Left), r.Right)
	}
	if r.Kind == PredHeader && l.Kind == PredIntersection {
		return IntersectionPred(IntersectionPred(r, l.Left), l.Right)
	}
	// Push a Header into a nested Difference branch: h ∩ (x \ y) == (h ∩ x) \ y.
	if l.Kind == PredHeader && r.Kind == PredDifference {
		return DifferencePred(IntersectionPred(l, r.Left), r.Right)
	}
	if r.Kind == PredHeader && l.Kind == PredDifference {
		return DifferencePred(IntersectionPred(r, l.Left), l.Right)
	}
	return IntersectionPred(l, r)
}

func reduceDifference(l, r *Predicate) *Predicate {
	if l.Kind == PredBottom {
		return Bottom()
	}
	if r.Kind == PredTop {
		return Bottom()
	}
	if r.Kind == PredBottom {
		return l
	}
	if l.Kind == PredHeader && r.Kind == PredHeader {
		return differenceHeaders(l.Header, r.Header)
	}
	return DifferencePred(l, r)
}

// intersectHeaders combines two header field maps per-field: equal fields
// are kept, conflicting fields collapse the whole predicate to Bottom,
// fields unique to either side are copied through.
func intersectHeaders(a, b map[string]int) *Predicate {
	merged := make(map[string]int, len(a)+len(b))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range b {
		if ev, ok := merged[k]; ok {
			if ev != v {
				return Bottom()
			}
			continue
		}
		merged[k] = v
	}
	return HeaderPred(merged)
}

// differenceHeaders implements spec.md's literal Difference(Header,Header)
// rule: Bottom if every field in b is either absent from a or equal in a
// (b covers everything a matches); a if some field in b conflicts with a
// (b can never match what a matches, so subtracting it changes nothing).
func differenceHeaders(a, b map[string]int) *Predicate {
	for f, bv := range b {
		if av, ok := a[f]; ok && av != bv {
			return HeaderPred(a)
		}
	}
	return Bottom()
}

// Reduce normalizes a policy to a fixed point: Restriction nodes are
// eliminated by pushing their predicate into every primitive via
// intersection, Union absorbs Bottom, and empty/Bottom-guarded primitives
// collapse to Bottom.
func (p *Policy) Reduce() *Policy {
	cur := p
	for {
		next := reducePolicyOnce(cur)
		if next.Equal(cur) {
			return next
		}
		cur = next
	}
}

func reducePolicyOnce(p *Policy) *Policy {
	switch p.Kind {
	case PolicyBottom:
		return p
	case PolicyPrimitive:
		if len(p.Actions) == 0 {
			return BottomPolicy()
		}
		pred := p.Pred.Reduce()
		if pred.Kind == PredBottom {
			return BottomPolicy()
		}
		return PrimitivePolicy(pred, p.Actions)
	case PolicyUnion:
		l := reducePolicyOnce(p.Left)
		r := reducePolicyOnce(p.Right)
		if l.Kind == PolicyBottom {
			return r
		}
		if r.Kind == PolicyBottom {
			return l
		}
		return UnionPolicy(l, r)
	case PolicyRestriction:
		// Restriction(p, q).reduce() = p.restrict(q.reduce()).reduce()
		q := p.Pred.Reduce()
		restricted := restrictPolicy(p.Left, q)
		return reducePolicyOnce(restricted)
	default:
		return p
	}
}

// restrictPolicy pushes pred into every Primitive's predicate via
// intersection, eliminating all Restriction nodes in the tree.
func restrictPolicy(p *Policy, pred *Predicate) *Policy {
	switch p.Kind {
	case PolicyBottom:
		return BottomPolicy()
	case PolicyPrimitive:
		return PrimitivePolicy(IntersectionPred(p.Pred, pred), p.Actions)
	case PolicyUnion:
		return UnionPolicy(restrictPolicy(p.Left, pred), restrictPolicy(p.Right, pred))
	case PolicyRestriction:
		// Flatten the nested restriction first, then apply the new one.
		inner := restrictPolicy(p.Left, p.Pred)
		return restrictPolicy(inner, pred)
	default:
		return BottomPolicy()
	}
}
