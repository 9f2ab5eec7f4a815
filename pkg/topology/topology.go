// Package topology defines the physical network graph that the slice and
// edge compilers lower virtual identifiers onto. The compiler and verifier
// only ever consume this interface; they never build or own a topology.
package topology

// NodeID identifies a switch or host. Values are shared with the netcore
// packet fields "switch" and "port".
type NodeID = int

// PortRef names a port on a specific node: (neighbor, their local port).
type PortRef struct {
	Node NodeID
	Port int
}

// Topology is an undirected multigraph over switches and hosts. Host-facing
// neighbors use their own port number 0 (the end-host port). Implementations
// are built incrementally with AddSwitch/AddHost/AddLink, then frozen with
// Finalize; after Finalize the topology is immutable.
type Topology interface {
	// Switches returns every switch node id.
	Switches() []NodeID
	// Hosts returns every host node id.
	Hosts() []NodeID
	// Nodes returns every node id, switches and hosts together.
	Nodes() []NodeID
	// IsSwitch reports whether id names a switch (false means host or unknown).
	IsSwitch(id NodeID) bool

	// Neighbor resolves node['port'][port] -> (neighbor, their_port).
	Neighbor(node NodeID, port int) (PortRef, bool)
	// LocalPort resolves node['ports'][neighbor] -> local_port. When two
	// nodes are connected by more than one link this returns one of them;
	// callers that need all parallel links should use Edges.
	LocalPort(node NodeID, neighbor NodeID) (int, bool)
	// Ports returns every local port number in use on node.
	Ports(node NodeID) []int

	// Edges returns one entry per undirected physical link, each as the
	// pair of port references it connects. Order is unspecified.
	Edges() []Edge

	// Subgraph returns the induced subgraph over the given node subset: the
	// parent's port numbers are preserved, but port dictionaries are trimmed
	// so that ports leading outside the subset are dropped.
	Subgraph(nodes []NodeID) Topology

	// Finalize assigns/freezes local port numbering. Calling it twice is a
	// no-op. Mutating an implementation after Finalize is undefined.
	Finalize() error
}

// Edge is one undirected physical link between two named ports.
type Edge struct {
	A, B PortRef
}

// IsExternal reports whether one endpoint is an end-host port (port 0 on a
// node that is not itself a switch), the host-facing boundary where VLAN
// tags are added on ingress and stripped on egress.
func (e Edge) IsExternal(t Topology) bool {
	return (!t.IsSwitch(e.A.Node)) || (!t.IsSwitch(e.B.Node))
}
