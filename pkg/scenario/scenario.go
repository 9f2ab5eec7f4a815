// Package scenario loads a YAML description of a physical topology plus a
// set of slices and their policies, and builds the pkg/topology and
// pkg/slice values the compiler and verifier consume. It replaces the
// teacher's JSON device/site/platform specification with a single
// self-contained format, since a slice scenario (topology + multiple
// logical overlays + policies) has no per-device profile to resolve.
package scenario

// Scenario is a parsed, not-yet-validated scenario file.
type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Physical    PhysicalSpec `yaml:"physical"`
	Slices      []*SliceSpec `yaml:"slices"`
}

// PhysicalSpec describes the shared physical topology every slice maps onto.
type PhysicalSpec struct {
	Switches []int      `yaml:"switches"`
	Hosts    []int      `yaml:"hosts,omitempty"`
	Links    []LinkSpec `yaml:"links"`
}

// NodePort names a (node, port) pair in either the physical or a slice's
// logical topology, depending on where it appears.
type NodePort struct {
	Node int `yaml:"node"`
	Port int `yaml:"port"`
}

// LinkSpec is one undirected link between two named ports.
type LinkSpec struct {
	A NodePort `yaml:"a"`
	Z NodePort `yaml:"z"`
}

// SliceSpec describes one virtual network: its own logical topology, the
// maps onto the physical topology, per-external-port admission predicates,
// and the forwarding policy it runs.
type SliceSpec struct {
	ID          string        `yaml:"id"`
	MapEndHosts bool          `yaml:"map_end_hosts,omitempty"`
	Logical     PhysicalSpec  `yaml:"logical"`
	SwitchMap   []NodeMapping `yaml:"switch_map"`
	PortMap     []PortMapping `yaml:"port_map"`
	EdgePolicy  []EdgeRule    `yaml:"edge_policy,omitempty"`
	Policy      []*Primitive  `yaml:"policy"`
}

// NodeMapping maps one logical node to its physical counterpart.
type NodeMapping struct {
	Logical  int `yaml:"logical"`
	Physical int `yaml:"physical"`
}

// PortMapping maps one logical (node,port) to its physical counterpart.
type PortMapping struct {
	Logical  NodePort `yaml:"logical"`
	Physical NodePort `yaml:"physical"`
}

// EdgeRule gives the admission predicate for one external logical port.
// CIDR optionally annotates the rule with the source-address range it
// admits; Build cross-checks annotated rules so no two slices claim
// overlapping ranges on the same physical port.
type EdgeRule struct {
	Port  NodePort       `yaml:"port"`
	Match *PredicateSpec `yaml:"match"`
	CIDR  string         `yaml:"cidr,omitempty"`
}

// Primitive is one clause of a slice's policy: fire Actions wherever Match
// matches the located input packet.
type Primitive struct {
	Match   *PredicateSpec `yaml:"match"`
	Actions []*ActionSpec  `yaml:"actions"`
}

// PredicateSpec is a small recursive predicate DSL: exactly one of Top,
// Bottom, Header, All, Any, or Not should be set; Build rejects a node that
// sets more than one or none. Header is the field->value conjunction the
// netcore model calls a Header predicate.
type PredicateSpec struct {
	Top    bool             `yaml:"top,omitempty"`
	Bottom bool             `yaml:"bottom,omitempty"`
	Header map[string]int   `yaml:"header,omitempty"`
	All    []*PredicateSpec `yaml:"all,omitempty"`
	Any    []*PredicateSpec `yaml:"any,omitempty"`
	Not    *PredicateSpec   `yaml:"not,omitempty"`
}

// ActionSpec is one (switch, output ports, field overrides, observation
// labels) tuple. Observe asks the loader to allocate a fresh label for the
// action instead of naming one explicitly; allocated labels are unique
// across the whole scenario, so slices stay observation-disjoint by
// default.
type ActionSpec struct {
	Switch  int            `yaml:"switch"`
	Ports   []int          `yaml:"ports"`
	Modify  map[string]int `yaml:"modify,omitempty"`
	Obs     []string       `yaml:"obs,omitempty"`
	Observe bool           `yaml:"observe,omitempty"`
}
