// Package compiler implements the two slice-compiler variants: the global
// single-VLAN-per-slice compiler and the per-edge VLAN compiler.
package compiler

import (
	"fmt"
	"sort"

	"github.com/newtron-network/netslice/pkg/netcore"
	"github.com/newtron-network/netslice/pkg/slice"
	"github.com/newtron-network/netslice/pkg/util"
	"github.com/newtron-network/netslice/pkg/vlan"
)

// CompileGlobal compiles one slice's policy under a single assigned VLAN
// tag, producing a physical policy over the shared network:
//
//  1. safe := policy ∩ {vlan=tag}: packets already in the slice's lane stay there.
//  2. ingress := (policy, every action set vlan:=tag) restricted to
//     (union of inport(s,p) ∩ edge_policy[s,p] over every external port) ∩ {vlan=0}.
//  3. combined := ingress ∪ safe, then strip vlan back to 0 on every external
//     egress action (actions fanning out to several ports are split so only
//     the externally-bound packet loses its tag).
//  4. lower combined to the physical topology via the slice's maps.
func CompileGlobal(s *slice.Slice, policy *netcore.Policy, tag int) (*netcore.Policy, error) {
	safe := netcore.Restrict(policy, netcore.HeaderPred(map[string]int{netcore.FieldVLAN: tag}))

	ingressPred := externalIngressPredicate(s)
	untagged := netcore.HeaderPred(map[string]int{netcore.FieldVLAN: 0})
	ingress := netcore.Restrict(setVlan(policy, tag), netcore.IntersectionPred(ingressPred, untagged))

	combined := netcore.UnionPolicy(ingress, safe)

	strip := externalPortsBySwitch(s)
	combined = stripOnPorts(combined, strip, netcore.FieldVLAN, 0)
	combined = combined.Reduce()

	physical, err := combined.GetPhysicalRep(s.PhysicalMap())
	if err != nil {
		return nil, fmt.Errorf("compiling slice %s (global VLAN): %w", s.ID, err)
	}
	return physical, nil
}

// CompileAllGlobal assigns every slice a tag via the share-edge-optimal VLAN
// assigner, compiles each against its policy, and unions the results into
// one monolithic physical policy.
func CompileAllGlobal(slices []*slice.Slice, policies map[string]*netcore.Policy) (*netcore.Policy, map[string]int, error) {
	edgesBySlice := make(map[string][]string, len(slices))
	byID := make(map[string]*slice.Slice, len(slices))
	for _, s := range slices {
		byID[s.ID] = s
		edgesBySlice[s.ID] = append(s.PhysicalExternalEdges(), s.PhysicalInternalEdges()...)
	}

	tags, err := vlan.AssignShareEdgeOptimal(edgesBySlice)
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
			return nil, nil, fmt.Errorf("compiling all slices (global VLAN): no policy given for slice %s", id)
		}
		compiled, err := CompileGlobal(s, p, tags[id])
		if err != nil {
			return nil, nil, err
		}
		util.WithFields(map[string]interface{}{
			"slice":   id,
			"tag":     tags[id],
			"clauses": countClauses(compiled),
		}).Info("compiled slice")
		result = netcore.UnionPolicy(result, compiled)
	}
	return result.Reduce(), tags, nil
}

// externalIngressPredicate builds inport(s,p) ∩ edge_policy[s,p], unioned
// across every external port of s.
func externalIngressPredicate(s *slice.Slice) *netcore.Predicate {
	ports := s.ExternalPorts()
	preds := make([]*netcore.Predicate, 0, len(ports))
	for _, pk := range ports {
		q := s.EdgePolicy[pk]
		if q == nil {
			continue
		}
		preds = append(preds, netcore.IntersectionPred(netcore.InPort(pk.Node, pk.Port), q))
	}
	return netcore.NaryUnion(preds...)
}

// externalPortsBySwitch groups a slice's external logical ports by switch,
// for use with stripOnPorts.
func externalPortsBySwitch(s *slice.Slice) map[int]map[int]bool {
	out := make(map[int]map[int]bool)
	for _, pk := range s.ExternalPorts() {
		if out[pk.Node] == nil {
			out[pk.Node] = make(map[int]bool)
		}
		out[pk.Node][pk.Port] = true
	}
	return out
}
