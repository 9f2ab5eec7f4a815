// Package slice carries a virtual network definition: its logical topology,
// the physical topology it shares with every other slice, the maps between
// them, and the per-external-port predicate gating what may enter.
package slice

import (
	"fmt"
	"sort"

	"github.com/newtron-network/netslice/pkg/netcore"
	"github.com/newtron-network/netslice/pkg/topology"
	"github.com/newtron-network/netslice/pkg/util"
)

// PortKey names a (node, local port) pair, in either the logical or the
// physical topology depending on context.
type PortKey struct {
	Node topology.NodeID
	Port int
}

// Slice is a virtual network: a logical topology mapped onto a shared
// physical topology, with a predicate at every external port specifying
// which packets are allowed to enter.
type Slice struct {
	ID       string
	Logical  topology.Topology
	Physical topology.Topology

	// SwitchMap maps every logical node (switch, and host when MapEndHosts)
	// to a physical node. Must be injective.
	SwitchMap map[topology.NodeID]topology.NodeID

	// PortMap maps every logical (switch,port) pair to a physical one. Must
	// be injective.
	PortMap map[PortKey]PortKey

	// EdgePolicy gives the admission predicate for every external
	// (host-facing) logical port. Must be total over those ports.
	EdgePolicy map[PortKey]*netcore.Predicate

	// MapEndHosts controls whether host nodes also participate in
	// SwitchMap (true) or are left unmapped, host-facing ports only
	// (false).
	MapEndHosts bool
}

// Validate checks the invariants from the data model: map domains, map
// injectivity, and totality of EdgePolicy over external ports. Every
// violation is accumulated and reported together, each naming the slice id
// and the offending logical identifier.
func (s *Slice) Validate() error {
	v := &util.ValidationBuilder{}

	logicalSwitches := make(map[topology.NodeID]bool)
	for _, sw := range s.Logical.Switches() {
		logicalSwitches[sw] = true
		if _, ok := s.SwitchMap[sw]; !ok {
			v.AddErrorf("slice %s: switch_map missing logical switch %d", s.ID, sw)
		}
	}
	if s.MapEndHosts {
		for _, h := range s.Logical.Hosts() {
			if _, ok := s.SwitchMap[h]; !ok {
				v.AddErrorf("slice %s: switch_map missing logical host %d (map_end_hosts=true)", s.ID, h)
			}
		}
	}

	physicalNodes := make(map[topology.NodeID]bool)
	for _, n := range s.Physical.Nodes() {
		physicalNodes[n] = true
	}
	seenPhysical := make(map[topology.NodeID]topology.NodeID)
	for logical, physical := range s.SwitchMap {
		if !physicalNodes[physical] {
			v.AddErrorf("slice %s: switch_map[%d]=%d is not a physical node", s.ID, logical, physical)
		}
		if owner, exists := seenPhysical[physical]; exists {
			v.AddErrorf("slice %s: switch_map is not injective: logical %d and %d both map to physical %d", s.ID, owner, logical, physical)
		} else {
			seenPhysical[physical] = logical
		}
	}

	externalPorts := make(map[PortKey]bool)
	for node := range logicalSwitches {
		for _, p := range s.Logical.Ports(node) {
			key := PortKey{Node: node, Port: p}
			ref, _ := s.Logical.Neighbor(node, p)
			if !logicalSwitches[ref.Node] {
				externalPorts[key] = true
			}
			if _, ok := s.PortMap[key]; !ok {
				v.AddErrorf("slice %s: port_map missing logical port (%d,%d)", s.ID, node, p)
			}
		}
	}

	seenPhysicalPort := make(map[PortKey]PortKey)
	for logical, physical := range s.PortMap {
		if owner, exists := seenPhysicalPort[physical]; exists {
			v.AddErrorf("slice %s: port_map is not injective: logical (%d,%d) and (%d,%d) both map to physical (%d,%d)",
				s.ID, owner.Node, owner.Port, logical.Node, logical.Port, physical.Node, physical.Port)
		} else {
			seenPhysicalPort[physical] = logical
		}
	}

	for port := range externalPorts {
		if s.EdgePolicy[port] == nil {
			v.AddErrorf("slice %s: edge_policy missing predicate for external port (%d,%d)", s.ID, port.Node, port.Port)
		}
	}

	return v.Build()
}

// ExternalPorts returns every logical (node,port) pair facing a host, in a
// deterministic order.
func (s *Slice) ExternalPorts() []PortKey {
	var out []PortKey
	for _, node := range s.Logical.Switches() {
		for _, p := range s.Logical.Ports(node) {
			ref, ok := s.Logical.Neighbor(node, p)
			if ok && !s.Logical.IsSwitch(ref.Node) {
				out = append(out, PortKey{Node: node, Port: p})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Node != out[j].Node {
			return out[i].Node < out[j].Node
		}
		return out[i].Port < out[j].Port
	})
	return out
}

// PhysicalMap assembles the netcore.PhysicalMap used by get_physical_rep
// from the slice's switch and port maps.
func (s *Slice) PhysicalMap() netcore.PhysicalMap {
	sm := make(map[int]int, len(s.SwitchMap))
	for l, p := range s.SwitchMap {
		sm[l] = p
	}
	pm := make(map[netcore.PortKey]netcore.PortVal, len(s.PortMap))
	for l, p := range s.PortMap {
		pm[netcore.PortKey{Switch: l.Node, Port: l.Port}] = netcore.PortVal{Switch: p.Node, Port: p.Port}
	}
	return netcore.PhysicalMap{SwitchMap: sm, PortMap: pm}
}

// PhysicalExternalEdges returns the physical edge key (as produced by
// EdgeKey) for every external port the slice maps onto, for use by the VLAN
// assigner's conflict detection.
func (s *Slice) PhysicalExternalEdges() []string {
	var keys []string
	for _, lp := range s.ExternalPorts() {
		pp, ok := s.PortMap[lp]
		if !ok {
			continue
		}
		ref, ok := s.Physical.Neighbor(pp.Node, pp.Port)
		if !ok {
			continue
		}
		keys = append(keys, EdgeKey(PortKey{Node: pp.Node, Port: pp.Port}, ref))
	}
	return keys
}

// PhysicalInternalEdges returns the physical edge key for every internal
// (switch-to-switch) physical link the slice's mapped logical topology
// traverses, for use by the VLAN assigner's conflict/per-edge detection.
func (s *Slice) PhysicalInternalEdges() []string {
	seen := make(map[string]bool)
	var keys []string
	for _, node := range s.Logical.Switches() {
		for _, p := range s.Logical.Ports(node) {
			ref, ok := s.Logical.Neighbor(node, p)
			if !ok || !s.Logical.IsSwitch(ref.Node) {
				continue
			}
			physFrom, ok1 := s.PortMap[PortKey{Node: node, Port: p}]
			physTo, ok2 := s.PortMap[PortKey{Node: ref.Node, Port: ref.Port}]
			if !ok1 || !ok2 {
				continue
			}
			key := EdgeKey(physFrom, topology.PortRef{Node: physTo.Node, Port: physTo.Port})
			if seen[key] {
				continue
			}
			seen[key] = true
			keys = append(keys, key)
		}
	}
	return keys
}

// EdgeKey canonicalizes an undirected physical edge between two port
// references so both directions produce the same string.
func EdgeKey(a PortKey, b topology.PortRef) string {
	x := fmt.Sprintf("%d:%d", a.Node, a.Port)
	y := fmt.Sprintf("%d:%d", b.Node, b.Port)
	if x > y {
		x, y = y, x
	}
	return x + "-" + y
}
