package netcore

import "testing"

func TestPredicate_Matches(t *testing.T) {
	tests := []struct {
		name string
		pred *Predicate
		pkt  Packet
		want bool
	}{
		{"top matches anything", Top(), NewPacket(nil), true},
		{"bottom matches nothing", Bottom(), NewPacket(map[string]int{"switch": 1}), false},
		{
			"header matches exact fields",
			HeaderPred(map[string]int{"switch": 2, "port": 2}),
			NewPacket(map[string]int{"switch": 2, "port": 2, "vlan": 7}),
			true,
		},
		{
			"header rejects wrong field",
			HeaderPred(map[string]int{"switch": 2, "port": 2}),
			NewPacket(map[string]int{"switch": 2, "port": 3}),
			false,
		},
		{
			"header rejects missing field",
			HeaderPred(map[string]int{"vlan": 5}),
			NewPacket(map[string]int{"switch": 2}),
			false,
		},
		{
			"union matches either side",
			UnionPred(InPort(1, 1), InPort(1, 2)),
			NewPacket(map[string]int{"switch": 1, "port": 2}),
			true,
		},
		{
			"intersection requires both",
			IntersectionPred(InPort(1, 1), HeaderPred(map[string]int{"vlan": 5})),
			NewPacket(map[string]int{"switch": 1, "port": 1, "vlan": 5}),
			true,
		},
		{
			"difference excludes right",
			DifferencePred(InPort(1, 1), HeaderPred(map[string]int{"vlan": 5})),
			NewPacket(map[string]int{"switch": 1, "port": 1, "vlan": 5}),
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred.Matches(tt.pkt); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPredicate_Equal(t *testing.T) {
	a := IntersectionPred(InPort(1, 1), HeaderPred(map[string]int{"vlan": 5}))
	b := IntersectionPred(InPort(1, 1), HeaderPred(map[string]int{"vlan": 5}))
	c := IntersectionPred(InPort(1, 2), HeaderPred(map[string]int{"vlan": 5}))

	if !a.Equal(b) {
		t.Errorf("expected structurally equal trees to compare equal")
	}
	if a.Equal(c) {
		t.Errorf("expected structurally different trees to compare unequal")
	}
}

func TestNaryUnion(t *testing.T) {
	p := InPorts(1, []int{1, 2, 3})
	for _, port := range []int{1, 2, 3} {
		if !p.Matches(NewPacket(map[string]int{"switch": 1, "port": port})) {
			t.Errorf("InPorts should match port %d", port)
		}
	}
	if p.Matches(NewPacket(map[string]int{"switch": 1, "port": 4})) {
		t.Errorf("InPorts should not match port 4")
	}
}
