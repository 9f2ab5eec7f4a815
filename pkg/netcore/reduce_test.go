package netcore

import "testing"

func TestReduce_Idempotent(t *testing.T) {
	trees := []*Predicate{
		Top(),
		Bottom(),
		HeaderPred(map[string]int{"switch": 1}),
		UnionPred(Top(), HeaderPred(map[string]int{"vlan": 1})),
		IntersectionPred(HeaderPred(map[string]int{"switch": 1}), UnionPred(HeaderPred(map[string]int{"port": 1}), HeaderPred(map[string]int{"port": 2}))),
		DifferencePred(HeaderPred(map[string]int{"switch": 1}), Bottom()),
	}
	for i, tree := range trees {
		once := tree.Reduce()
		twice := once.Reduce()
		if !once.Equal(twice) {
			t.Errorf("tree %d: reduce(reduce(x)) != reduce(x)", i)
		}
	}
}

func TestReduce_UnionIdentities(t *testing.T) {
	x := HeaderPred(map[string]int{"vlan": 3})

	if got := UnionPred(Top(), x).Reduce(); got.Kind != PredTop {
		t.Errorf("Union(Top,x) should reduce to Top, got %v", got.Kind)
	}
	if got := UnionPred(Bottom(), x).Reduce(); !got.Equal(x.Reduce()) {
		t.Errorf("Union(Bottom,x) should reduce to x")
	}
	if got := IntersectionPred(Bottom(), x).Reduce(); got.Kind != PredBottom {
		t.Errorf("Intersection(Bottom,x) should reduce to Bottom, got %v", got.Kind)
	}
	if got := IntersectionPred(Top(), x).Reduce(); !got.Equal(x.Reduce()) {
		t.Errorf("Intersection(Top,x) should reduce to x")
	}
}

func TestReduce_IntersectHeaders(t *testing.T) {
	a := HeaderPred(map[string]int{"switch": 1})
	b := HeaderPred(map[string]int{"port": 2})
	got := IntersectionPred(a, b).Reduce()
	want := HeaderPred(map[string]int{"switch": 1, "port": 2})
	if !got.Equal(want) {
		t.Errorf("intersect_headers(h1,h2) = %v, want %v", got, want)
	}

	conflict := IntersectionPred(HeaderPred(map[string]int{"vlan": 1}), HeaderPred(map[string]int{"vlan": 2})).Reduce()
	if conflict.Kind != PredBottom {
		t.Errorf("conflicting fields should reduce to Bottom, got %v", conflict.Kind)
	}
}

func TestReduce_DifferenceIdentities(t *testing.T) {
	x := HeaderPred(map[string]int{"switch": 1})

	if got := DifferencePred(x, Bottom()).Reduce(); !got.Equal(x.Reduce()) {
		t.Errorf("Difference(x,Bottom) should reduce to x")
	}
	if got := DifferencePred(x, Top()).Reduce(); got.Kind != PredBottom {
		t.Errorf("Difference(x,Top) should reduce to Bottom, got %v", got.Kind)
	}
}

func TestReduce_DifferenceHeaders(t *testing.T) {
	a := HeaderPred(map[string]int{"switch": 1, "port": 2})
	bCovers := HeaderPred(map[string]int{"switch": 1})
	if got := DifferencePred(a, bCovers).Reduce(); got.Kind != PredBottom {
		t.Errorf("b covering a should reduce Difference to Bottom, got %v", got.Kind)
	}

	bConflicts := HeaderPred(map[string]int{"switch": 2})
	if got := DifferencePred(a, bConflicts).Reduce(); !got.Equal(a) {
		t.Errorf("conflicting b should leave a unchanged, got %v", got)
	}
}

func TestReduce_PrimitiveEmptyActionsCollapses(t *testing.T) {
	p := PrimitivePolicy(Top(), nil)
	if got := p.Reduce(); got.Kind != PolicyBottom {
		t.Errorf("Primitive(_, []) should reduce to Bottom, got %v", got.Kind)
	}
}

func TestReduce_PrimitiveBottomPredCollapses(t *testing.T) {
	p := PrimitivePolicy(Bottom(), []*Action{Forward(1, 1)})
	if got := p.Reduce(); got.Kind != PolicyBottom {
		t.Errorf("Primitive(Bottom,_) should reduce to Bottom, got %v", got.Kind)
	}
}

func TestReduce_RestrictionEliminated(t *testing.T) {
	prim := PrimitivePolicy(InPort(1, 1), []*Action{Forward(1, 2)})
	restricted := Restrict(prim, HeaderPred(map[string]int{"vlan": 5}))
	got := restricted.Reduce()

	if got.Kind == PolicyRestriction {
		t.Fatalf("Reduce should eliminate all Restriction nodes, got kind %v", got.Kind)
	}
	want := PrimitivePolicy(IntersectionPred(InPort(1, 1), HeaderPred(map[string]int{"vlan": 5})).Reduce(), []*Action{Forward(1, 2)})
	if !got.Equal(want) {
		t.Errorf("restriction reduce = %#v, want %#v", got, want)
	}
}

func TestReduce_PolicyIdempotent(t *testing.T) {
	prim := PrimitivePolicy(InPort(1, 1), []*Action{Forward(1, 2)})
	restricted := Restrict(UnionPolicy(prim, BottomPolicy()), HeaderPred(map[string]int{"vlan": 5}))
	once := restricted.Reduce()
	twice := once.Reduce()
	if !once.Equal(twice) {
		t.Errorf("reduce(reduce(policy)) != reduce(policy)")
	}
}
