package topology

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/katalvlaran/lvlath/core"
)

// MemTopology is the default in-memory Topology, grounded on an undirected
// lvlath graph for node/edge bookkeeping, with an explicit port-pair map
// layered on top (lvlath vertices have no notion of a numbered port).
type MemTopology struct {
	g *core.Graph

	switches map[NodeID]bool
	// ports[node][localPort] = neighbor port reference
	ports map[NodeID]map[int]PortRef
	// reverse[node][neighbor] = one local port connecting to neighbor
	reverse map[NodeID]map[NodeID]int

	finalized bool
}

// NewMemTopology returns an empty, mutable topology.
func NewMemTopology() *MemTopology {
	return &MemTopology{
		g:        core.NewGraph(core.WithMultiEdges(), core.WithLoops()),
		switches: make(map[NodeID]bool),
		ports:    make(map[NodeID]map[int]PortRef),
		reverse:  make(map[NodeID]map[NodeID]int),
	}
}

func nodeKey(id NodeID) string { return strconv.Itoa(id) }

// AddSwitch registers id as a switch node.
func (t *MemTopology) AddSwitch(id NodeID) error {
	if t.finalized {
		return fmt.Errorf("topology: cannot add switch %d after Finalize", id)
	}
	t.switches[id] = true
	return t.g.AddVertex(nodeKey(id))
}

// AddHost registers id as a host node.
func (t *MemTopology) AddHost(id NodeID) error {
	if t.finalized {
		return fmt.Errorf("topology: cannot add host %d after Finalize", id)
	}
	return t.g.AddVertex(nodeKey(id))
}

// AddLink connects localPort on node to theirPort on neighbor. Host-facing
// links must use theirPort==0. Links are undirected; call once per pair.
func (t *MemTopology) AddLink(node NodeID, localPort int, neighbor NodeID, theirPort int) error {
	if t.finalized {
		return fmt.Errorf("topology: cannot add link after Finalize")
	}
	if _, err := t.g.AddEdge(nodeKey(node), nodeKey(neighbor), 0); err != nil {
		return fmt.Errorf("topology: add link %d:%d <-> %d:%d: %w", node, localPort, neighbor, theirPort, err)
	}

	t.setPort(node, localPort, PortRef{Node: neighbor, Port: theirPort})
	t.setPort(neighbor, theirPort, PortRef{Node: node, Port: localPort})
	return nil
}

func (t *MemTopology) setPort(node NodeID, port int, to PortRef) {
	if t.ports[node] == nil {
		t.ports[node] = make(map[int]PortRef)
	}
	t.ports[node][port] = to

	if t.reverse[node] == nil {
		t.reverse[node] = make(map[NodeID]int)
	}
	if _, exists := t.reverse[node][to.Node]; !exists {
		t.reverse[node][to.Node] = port
	}
}

// Finalize freezes port numbering. Idempotent.
func (t *MemTopology) Finalize() error {
	t.finalized = true
	return nil
}

func (t *MemTopology) IsSwitch(id NodeID) bool { return t.switches[id] }

func (t *MemTopology) Switches() []NodeID {
	var out []NodeID
	for _, id := range t.g.Vertices() {
		n, _ := strconv.Atoi(id)
		if t.switches[n] {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

func (t *MemTopology) Hosts() []NodeID {
	var out []NodeID
	for _, id := range t.g.Vertices() {
		n, _ := strconv.Atoi(id)
		if !t.switches[n] {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

func (t *MemTopology) Nodes() []NodeID {
	var out []NodeID
	for _, id := range t.g.Vertices() {
		n, _ := strconv.Atoi(id)
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

func (t *MemTopology) Neighbor(node NodeID, port int) (PortRef, bool) {
	m, ok := t.ports[node]
	if !ok {
		return PortRef{}, false
	}
	ref, ok := m[port]
	return ref, ok
}

func (t *MemTopology) LocalPort(node NodeID, neighbor NodeID) (int, bool) {
	m, ok := t.reverse[node]
	if !ok {
		return 0, false
	}
	p, ok := m[neighbor]
	return p, ok
}

func (t *MemTopology) Ports(node NodeID) []int {
	m, ok := t.ports[node]
	if !ok {
		return nil
	}
	out := make([]int, 0, len(m))
	for p := range m {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

func (t *MemTopology) Edges() []Edge {
	// Dedup by the canonical port pair, not the node pair, so parallel
	// links between the same two nodes survive.
	seen := make(map[[2]PortRef]bool)
	var out []Edge
	for node, m := range t.ports {
		for port, ref := range m {
			a := PortRef{Node: node, Port: port}
			b := ref
			key := [2]PortRef{a, b}
			if b.Node < a.Node || (b.Node == a.Node && b.Port < a.Port) {
				key = [2]PortRef{b, a}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, Edge{A: a, B: b})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].A.Node != out[j].A.Node {
			return out[i].A.Node < out[j].A.Node
		}
		return out[i].A.Port < out[j].A.Port
	})
	return out
}

// Subgraph returns the induced subgraph over nodes: the parent's port
// numbers are preserved, but ports leading outside the subset are dropped.
func (t *MemTopology) Subgraph(nodes []NodeID) Topology {
	keep := make(map[string]bool, len(nodes))
	keepSet := make(map[NodeID]bool, len(nodes))
	for _, n := range nodes {
		keep[nodeKey(n)] = true
		keepSet[n] = true
	}

	sub := &MemTopology{
		g:         core.InducedSubgraph(t.g, keep),
		switches:  make(map[NodeID]bool),
		ports:     make(map[NodeID]map[int]PortRef),
		reverse:   make(map[NodeID]map[NodeID]int),
		finalized: t.finalized,
	}

	for n := range keepSet {
		if t.switches[n] {
			sub.switches[n] = true
		}
		for port, ref := range t.ports[n] {
			if !keepSet[ref.Node] {
				continue
			}
			sub.setPort(n, port, ref)
		}
	}
	return sub
}
