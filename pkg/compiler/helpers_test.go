package compiler

import (
	"testing"

	"github.com/newtron-network/netslice/pkg/netcore"
	"github.com/newtron-network/netslice/pkg/slice"
	"github.com/newtron-network/netslice/pkg/topology"
)

// twoSwitchTopology builds switch 0 -- switch 1 (port 2 on each side), each
// with one host on port 1.
func twoSwitchTopology(t *testing.T) *topology.MemTopology {
	t.Helper()
	topo := topology.NewMemTopology()
	for _, sw := range []int{0, 1} {
		if err := topo.AddSwitch(sw); err != nil {
			t.Fatalf("AddSwitch: %v", err)
		}
	}
	for _, h := range []int{100, 101} {
		if err := topo.AddHost(h); err != nil {
			t.Fatalf("AddHost: %v", err)
		}
	}
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("AddLink: %v", err)
		}
	}
	must(topo.AddLink(0, 2, 1, 2))
	must(topo.AddLink(0, 1, 100, 0))
	must(topo.AddLink(1, 1, 101, 0))
	must(topo.Finalize())
	return topo
}

// identitySlice builds a slice whose logical topology is twoSwitchTopology
// mapped onto an identical, separately-built physical topology via identity
// switch/port maps, with every external port admitting everything.
func identitySlice(t *testing.T, id string) *slice.Slice {
	t.Helper()
	logical := twoSwitchTopology(t)
	physical := twoSwitchTopology(t)
	return &slice.Slice{
		ID:       id,
		Logical:  logical,
		Physical: physical,
		SwitchMap: map[topology.NodeID]topology.NodeID{
			0: 0,
			1: 1,
		},
		PortMap: map[slice.PortKey]slice.PortKey{
			{Node: 0, Port: 1}: {Node: 0, Port: 1},
			{Node: 0, Port: 2}: {Node: 0, Port: 2},
			{Node: 1, Port: 1}: {Node: 1, Port: 1},
			{Node: 1, Port: 2}: {Node: 1, Port: 2},
		},
		EdgePolicy: map[slice.PortKey]*netcore.Predicate{
			{Node: 0, Port: 1}: netcore.Top(),
			{Node: 1, Port: 1}: netcore.Top(),
		},
	}
}

// crossingPolicy forwards host traffic on switch 0 across to switch 1, and
// switch 1 traffic arriving from switch 0 out to its host.
func crossingPolicy() *netcore.Policy {
	toSwitch1 := netcore.PrimitivePolicy(netcore.InPort(0, 1), []*netcore.Action{netcore.Forward(0, 2)})
	toHost1 := netcore.PrimitivePolicy(netcore.InPort(1, 2), []*netcore.Action{netcore.Forward(1, 1)})
	return netcore.UnionPolicy(toSwitch1, toHost1)
}
