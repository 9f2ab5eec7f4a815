package slice

import (
	"strings"
	"testing"

	"github.com/newtron-network/netslice/pkg/netcore"
	"github.com/newtron-network/netslice/pkg/topology"
)

// simpleLogical builds a two-switch logical topology: switch 0 -- switch 1,
// with a host on switch 0 port 1 and a host on switch 1 port 1.
func simpleLogical(t *testing.T) *topology.MemTopology {
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

func identityPhysical(t *testing.T) *topology.MemTopology {
	return simpleLogical(t)
}

func validSlice(t *testing.T) *Slice {
	logical := simpleLogical(t)
	physical := identityPhysical(t)

	return &Slice{
		ID:       "s1",
		Logical:  logical,
		Physical: physical,
		SwitchMap: map[topology.NodeID]topology.NodeID{
			0: 0,
			1: 1,
		},
		PortMap: map[PortKey]PortKey{
			{Node: 0, Port: 1}: {Node: 0, Port: 1},
			{Node: 0, Port: 2}: {Node: 0, Port: 2},
			{Node: 1, Port: 1}: {Node: 1, Port: 1},
			{Node: 1, Port: 2}: {Node: 1, Port: 2},
		},
		EdgePolicy: map[PortKey]*netcore.Predicate{
			{Node: 0, Port: 1}: netcore.Top(),
			{Node: 1, Port: 1}: netcore.Top(),
		},
	}
}

func TestSlice_ValidateOK(t *testing.T) {
	s := validSlice(t)
	if err := s.Validate(); err != nil {
		t.Fatalf("expected valid slice, got: %v", err)
	}
}

func TestSlice_ValidateMissingSwitchMap(t *testing.T) {
	s := validSlice(t)
	delete(s.SwitchMap, 1)
	err := s.Validate()
	if err == nil || !strings.Contains(err.Error(), "switch_map missing logical switch 1") {
		t.Errorf("expected missing switch_map error, got: %v", err)
	}
}

func TestSlice_ValidateNonInjectiveSwitchMap(t *testing.T) {
	s := validSlice(t)
	s.SwitchMap[1] = 0 // collapses onto switch 0's image
	err := s.Validate()
	if err == nil || !strings.Contains(err.Error(), "not injective") {
		t.Errorf("expected non-injective switch_map error, got: %v", err)
	}
}

func TestSlice_ValidateMissingEdgePolicy(t *testing.T) {
	s := validSlice(t)
	delete(s.EdgePolicy, PortKey{Node: 0, Port: 1})
	err := s.Validate()
	if err == nil || !strings.Contains(err.Error(), "edge_policy missing predicate") {
		t.Errorf("expected missing edge_policy error, got: %v", err)
	}
}

func TestSlice_ExternalPorts(t *testing.T) {
	s := validSlice(t)
	ports := s.ExternalPorts()
	if len(ports) != 2 {
		t.Fatalf("expected 2 external ports, got %d: %v", len(ports), ports)
	}
}

func TestSlice_PhysicalMap(t *testing.T) {
	s := validSlice(t)
	pm := s.PhysicalMap()
	if pm.SwitchMap[0] != 0 || pm.SwitchMap[1] != 1 {
		t.Errorf("unexpected switch map: %+v", pm.SwitchMap)
	}
	if v := pm.PortMap[netcore.PortKey{Switch: 0, Port: 2}]; v.Switch != 0 || v.Port != 2 {
		t.Errorf("unexpected port map entry: %+v", v)
	}
}

func TestSlice_PhysicalInternalEdges(t *testing.T) {
	s := validSlice(t)
	edges := s.PhysicalInternalEdges()
	if len(edges) != 1 {
		t.Fatalf("expected 1 internal edge, got %d: %v", len(edges), edges)
	}
}

func TestSlice_PhysicalExternalEdges(t *testing.T) {
	s := validSlice(t)
	edges := s.PhysicalExternalEdges()
	if len(edges) != 2 {
		t.Fatalf("expected 2 external edges, got %d: %v", len(edges), edges)
	}
}

func TestEdgeKey_Symmetric(t *testing.T) {
	a := PortKey{Node: 0, Port: 2}
	b := topology.PortRef{Node: 1, Port: 2}
	k1 := EdgeKey(a, b)
	k2 := EdgeKey(PortKey{Node: 1, Port: 2}, topology.PortRef{Node: 0, Port: 2})
	if k1 != k2 {
		t.Errorf("EdgeKey not symmetric: %s != %s", k1, k2)
	}
}
