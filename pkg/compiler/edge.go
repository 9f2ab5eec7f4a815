package compiler

import (
	"fmt"
	"sort"

	"github.com/newtron-network/netslice/pkg/netcore"
	"github.com/newtron-network/netslice/pkg/slice"
	"github.com/newtron-network/netslice/pkg/util"
	"github.com/newtron-network/netslice/pkg/vlan"
)

// CompileEdge compiles one slice's policy under a per-physical-edge VLAN
// assignment. Unlike CompileGlobal, there is no single tag for the slice:
// every internal physical link the slice crosses carries its own tag, so a
// packet is retagged at every hop. edgeTags is the per-edge, per-slice tag
// table produced by vlan.AssignEdgeOptimal (physical edge key -> slice id ->
// tag); external physical edges carry no tag and never appear in it.
//
// Two families of clauses are produced, each restricted to a single input
// port and fanned out over every output port of that switch:
//
//   - For every internal logical edge arriving at (node,pIn) tagged tag_in,
//     the clause matches inport(node,pIn) ∩ {vlan=tag_in} and, for each
//     output port, retags to that port's own edge tag (0 if the output
//     leads to an external port).
//   - For every external ingress port (node,p) with admission predicate q,
//     the clause matches inport(node,p) ∩ q ∩ {vlan=0} and fans out the
//     same way.
//
// The union of every clause is reduced and lowered to the physical topology.
func CompileEdge(s *slice.Slice, policy *netcore.Policy, edgeTags map[string]map[string]int) (*netcore.Policy, error) {
	edgeVlan := func(node, port int) (int, bool) {
		lp := slice.PortKey{Node: node, Port: port}
		pp, ok := s.PortMap[lp]
		if !ok {
			return 0, false
		}
		ref, ok := s.Physical.Neighbor(pp.Node, pp.Port)
		if !ok {
			return 0, false
		}
		key := slice.EdgeKey(pp, ref)
		perEdge, ok := edgeTags[key]
		if !ok {
			return 0, false
		}
		tag, ok := perEdge[s.ID]
		return tag, ok
	}

	result := netcore.BottomPolicy()

	for _, node := range s.Logical.Switches() {
		for _, pIn := range s.Logical.Ports(node) {
			ref, ok := s.Logical.Neighbor(node, pIn)
			if !ok || !s.Logical.IsSwitch(ref.Node) {
				continue
			}
			tagIn, ok := edgeVlan(node, pIn)
			if !ok {
				continue
			}
			base := netcore.Restrict(policy, netcore.IntersectionPred(
				netcore.InPort(node, pIn),
				netcore.HeaderPred(map[string]int{netcore.FieldVLAN: tagIn}),
			))
			result = netcore.UnionPolicy(result, fanOutRetag(s, base, node, edgeVlan))
		}
	}

	for _, pk := range s.ExternalPorts() {
		q := s.EdgePolicy[pk]
		if q == nil {
			continue
		}
		base := netcore.Restrict(policy, netcore.IntersectionPred(
			netcore.IntersectionPred(netcore.InPort(pk.Node, pk.Port), q),
			netcore.HeaderPred(map[string]int{netcore.FieldVLAN: vlan.Untagged}),
		))
		result = netcore.UnionPolicy(result, fanOutRetag(s, base, pk.Node, edgeVlan))
	}

	result = result.Reduce()
	physical, err := result.GetPhysicalRep(s.PhysicalMap())
	if err != nil {
		return nil, fmt.Errorf("compiling slice %s (per-edge VLAN): %w", s.ID, err)
	}
	return physical, nil
}

// fanOutRetag unions, over every logical port of node, the clause that
// restricts base to that single output port and retags it: the edge's own
// tag when the port leads to another switch, Untagged when it leads to a
// host. A switch-facing port with no edge tag for this slice gets no clause.
func fanOutRetag(s *slice.Slice, base *netcore.Policy, node int, edgeVlan func(int, int) (int, bool)) *netcore.Policy {
	result := netcore.BottomPolicy()
	for _, pOut := range s.Logical.Ports(node) {
		ref, ok := s.Logical.Neighbor(node, pOut)
		tagOut := vlan.Untagged
		if ok && s.Logical.IsSwitch(ref.Node) {
			t, found := edgeVlan(node, pOut)
			if !found {
				continue
			}
			tagOut = t
		}
		clause := retagOnPort(base, node, pOut, netcore.FieldVLAN, tagOut)
		result = netcore.UnionPolicy(result, clause)
	}
	return result
}

// CompileAllEdge assigns every slice's internal physical edges a tag via the
// per-edge VLAN assigner, compiles each slice against its policy, and unions
// the results into one physical policy.
func CompileAllEdge(slices []*slice.Slice, policies map[string]*netcore.Policy) (*netcore.Policy, map[string]map[string]int, error) {
	edgesBySlice := make(map[string][]string, len(slices))
	byID := make(map[string]*slice.Slice, len(slices))
	for _, s := range slices {
		byID[s.ID] = s
		edgesBySlice[s.ID] = s.PhysicalInternalEdges()
	}

	edgeTags, err := vlan.AssignEdgeOptimal(edgesBySlice)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]string, 0, len(slices))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := netcore.BottomPolicy()
	for _, id := range ids {
		s := byID[id]
		p, ok := policies[id]
		if !ok {
			return nil, nil, fmt.Errorf("compiling all slices (per-edge VLAN): no policy given for slice %s", id)
		}
		compiled, err := CompileEdge(s, p, edgeTags)
		if err != nil {
			return nil, nil, err
		}
		util.WithFields(map[string]interface{}{
			"slice":   id,
			"edges":   len(edgesBySlice[id]),
			"clauses": countClauses(compiled),
		}).Info("compiled slice")
		result = netcore.UnionPolicy(result, compiled)
	}
	return result.Reduce(), edgeTags, nil
}
