// Package vlan computes the mapping from slice (or slice,edge) to VLAN tag
// that the compilers use to carry virtual identity across the shared
// physical network.
package vlan

import (
	"sort"
	"strconv"

	"github.com/katalvlaran/lvlath/core"

	"github.com/newtron-network/netslice/pkg/util"
)

const (
	// Untagged is the reserved value meaning "no slice identity".
	Untagged = 0
	// MinTag is the smallest assignable tag.
	MinTag = 1
	// MaxTag is the largest assignable tag: the reserved 802.1Q-style space.
	MaxTag = 255
)

// AssignSequential assigns slices tags 1, 2, 3, ... in the given order.
// Fails with *util.VlanException when more than MaxTag slices overlap.
func AssignSequential(sliceIDs []string) (map[string]int, error) {
	if len(sliceIDs) > MaxTag {
		return nil, util.NewVlanException(len(sliceIDs), MaxTag, "sequential assignment exceeds reserved tag space")
	}
	out := make(map[string]int, len(sliceIDs))
	for i, id := range sliceIDs {
		out[id] = MinTag + i
	}
	return out, nil
}

// AssignShareEdgeOptimal assigns each slice a tag such that two slices whose
// physical edge sets overlap never share a tag, minimizing the number of
// distinct tags used via greedy graph coloring over the conflict graph.
// edgesBySlice maps each slice id to the set of physical edge keys (produced
// by the caller, e.g. a canonical "switchA:portA-switchB:portB" string) that
// the slice's compiled policy touches.
func AssignShareEdgeOptimal(edgesBySlice map[string][]string) (map[string]int, error) {
	ids := sortedKeys(edgesBySlice)
	if len(ids) > MaxTag {
		return nil, util.NewVlanException(len(ids), MaxTag, "share-edge-optimal assignment exceeds reserved tag space")
	}

	conflictGraph, err := buildConflictGraph(ids, edgesBySlice)
	if err != nil {
		return nil, err
	}

	// Welsh-Powell: color highest-degree slices first, each with the
	// smallest tag not already used by an assigned neighbor.
	order := make([]string, len(ids))
	copy(order, ids)
	degree := make(map[string]int, len(ids))
	for _, id := range ids {
		neighbors, _ := conflictGraph.NeighborIDs(id)
		degree[id] = len(neighbors)
	}
	sort.SliceStable(order, func(i, j int) bool { return degree[order[i]] > degree[order[j]] })

	tags := make(map[string]int, len(ids))
	for _, id := range order {
		neighbors, _ := conflictGraph.NeighborIDs(id)
		used := make(map[int]bool, len(neighbors))
		for _, n := range neighbors {
			if t, ok := tags[n]; ok {
				used[t] = true
			}
		}
		tag := MinTag
		for used[tag] {
			tag++
		}
		if tag > MaxTag {
			return nil, util.NewVlanException(len(ids), MaxTag, "conflict graph requires more than "+strconv.Itoa(MaxTag)+" tags")
		}
		tags[id] = tag
	}
	return tags, nil
}

// buildConflictGraph returns an undirected graph with one vertex per slice
// id and an edge between any two slices whose physical edge sets overlap.
func buildConflictGraph(ids []string, edgesBySlice map[string][]string) (*core.Graph, error) {
	g := core.NewGraph()
	for _, id := range ids {
		if err := g.AddVertex(id); err != nil {
			return nil, err
		}
	}

	owners := make(map[string][]string)
	for _, id := range ids {
		for _, e := range edgesBySlice[id] {
			owners[e] = append(owners[e], id)
		}
	}
	for _, sharing := range owners {
		for i := 0; i < len(sharing); i++ {
			for j := i + 1; j < len(sharing); j++ {
				a, b := sharing[i], sharing[j]
				if a == b || g.HasEdge(a, b) {
					continue
				}
				if _, err := g.AddEdge(a, b, 0); err != nil {
					return nil, err
				}
			}
		}
	}
	return g, nil
}

// AssignEdgeOptimal assigns, for every physical internal edge, each slice
// using that edge a distinct tag in [MinTag, count of slices on that edge].
// The caller is responsible for canonicalizing edge keys so both directions
// of a physical link collapse onto the same key (the result is therefore
// already symmetric by construction). External edges should not appear in
// edgesBySlice: they carry untagged traffic.
func AssignEdgeOptimal(edgesBySlice map[string][]string) (map[string]map[string]int, error) {
	ids := sortedKeys(edgesBySlice)

	edgeOwners := make(map[string][]string)
	for _, id := range ids {
		for _, e := range edgesBySlice[id] {
			edgeOwners[e] = append(edgeOwners[e], id)
		}
	}

	out := make(map[string]map[string]int, len(edgeOwners))
	for edge, owners := range edgeOwners {
		sort.Strings(owners)
		if len(owners) > MaxTag {
			return nil, util.NewVlanException(len(owners), MaxTag, "edge "+edge+" has more overlapping slices than the tag space")
		}
		perEdge := make(map[string]int, len(owners))
		for i, id := range owners {
			perEdge[id] = MinTag + i
		}
		out[edge] = perEdge
	}
	return out, nil
}

func sortedKeys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
