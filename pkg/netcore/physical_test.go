package netcore

import "testing"

func identityMap(switches []int, ports []PortKey) PhysicalMap {
	sm := make(map[int]int, len(switches))
	for _, s := range switches {
		sm[s] = s
	}
	pm := make(map[PortKey]PortVal, len(ports))
	for _, k := range ports {
		pm[k] = PortVal{Switch: k.Switch, Port: k.Port}
	}
	return PhysicalMap{SwitchMap: sm, PortMap: pm}
}

func TestGetPhysicalRep_Header(t *testing.T) {
	m := PhysicalMap{
		SwitchMap: map[int]int{1: 101},
		PortMap:   map[PortKey]PortVal{{Switch: 1, Port: 2}: {Switch: 101, Port: 202}},
	}
	pred := HeaderPred(map[string]int{"switch": 1, "port": 2, "vlan": 9})
	got, err := pred.GetPhysicalRep(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := HeaderPred(map[string]int{"switch": 101, "port": 202, "vlan": 9})
	if !got.Equal(want) {
		t.Errorf("GetPhysicalRep = %#v, want %#v", got, want)
	}
}

func TestGetPhysicalRep_WildcardSwitchFails(t *testing.T) {
	m := PhysicalMap{SwitchMap: map[int]int{}, PortMap: map[PortKey]PortVal{}}
	pred := HeaderPred(map[string]int{"port": 2}) // no switch field present
	_, err := pred.GetPhysicalRep(m)
	var perr *PhysicalException
	if err == nil {
		t.Fatal("expected PhysicalException")
	}
	if !isPhysicalException(err, &perr) {
		t.Errorf("expected *PhysicalException, got %T", err)
	}
}

func isPhysicalException(err error, out **PhysicalException) bool {
	pe, ok := err.(*PhysicalException)
	if ok {
		*out = pe
	}
	return ok
}

func TestGetPhysicalRep_EndHostPortPassesThrough(t *testing.T) {
	m := PhysicalMap{SwitchMap: map[int]int{1: 101}, PortMap: map[PortKey]PortVal{}}
	pred := HeaderPred(map[string]int{"switch": 1, "port": 0})
	got, err := pred.GetPhysicalRep(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := HeaderPred(map[string]int{"switch": 101, "port": 0})
	if !got.Equal(want) {
		t.Errorf("GetPhysicalRep = %#v, want %#v", got, want)
	}
}

func TestGetPhysicalRep_IdentityIsIdempotent(t *testing.T) {
	m := identityMap([]int{1, 2}, []PortKey{{Switch: 1, Port: 1}, {Switch: 2, Port: 1}})
	pred := IntersectionPred(InPort(1, 1), HeaderPred(map[string]int{"vlan": 3}))

	once, err := pred.GetPhysicalRep(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	twice, err := once.GetPhysicalRep(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !once.Equal(twice) {
		t.Errorf("GetPhysicalRep under the identity map should be idempotent")
	}
}

func TestGetPhysicalRep_IdentityThenRealMapEqualsRealMap(t *testing.T) {
	ident := identityMap([]int{1}, []PortKey{{Switch: 1, Port: 2}})
	real := PhysicalMap{
		SwitchMap: map[int]int{1: 101},
		PortMap:   map[PortKey]PortVal{{Switch: 1, Port: 2}: {Switch: 101, Port: 202}},
	}
	pred := IntersectionPred(InPort(1, 2), HeaderPred(map[string]int{"vlan": 3}))

	viaIdent, err := pred.GetPhysicalRep(ident)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	composed, err := viaIdent.GetPhysicalRep(real)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	direct, err := pred.GetPhysicalRep(real)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !composed.Equal(direct) {
		t.Errorf("lowering through the identity map first should not change the result")
	}
}

func TestGetPhysicalRep_Action(t *testing.T) {
	m := PhysicalMap{
		SwitchMap: map[int]int{1: 101},
		PortMap:   map[PortKey]PortVal{{Switch: 1, Port: 2}: {Switch: 101, Port: 202}},
	}
	a := Forward(1, 2)
	got, err := a.GetPhysicalRep(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Switch != 101 || len(got.Ports) != 1 || got.Ports[0] != 202 {
		t.Errorf("GetPhysicalRep(action) = %#v, want switch=101 ports=[202]", got)
	}
}
