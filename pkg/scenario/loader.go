package scenario

import (
	"fmt"
	"net/netip"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/netslice/pkg/compiler"
	"github.com/newtron-network/netslice/pkg/netcore"
	"github.com/newtron-network/netslice/pkg/slice"
	"github.com/newtron-network/netslice/pkg/topology"
	"github.com/newtron-network/netslice/pkg/util"
)

// Built is a scenario resolved into the values the compiler and verifier
// consume directly.
type Built struct {
	Name     string
	Physical topology.Topology
	Slices   []*slice.Slice
	Policies map[string]*netcore.Policy
}

// Parse reads a YAML scenario file and resolves it, in the same
// parse-then-resolve-then-validate order as the teacher's spec.Loader.
func Parse(path string) (*Built, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}

	built, err := Build(&s)
	if err != nil {
		return nil, fmt.Errorf("resolving scenario %s: %w", path, err)
	}
	return built, nil
}

// Build resolves a parsed Scenario into physical/logical topologies, maps,
// and policies, then validates every slice.
func Build(s *Scenario) (*Built, error) {
	physical, err := buildTopology(&s.Physical)
	if err != nil {
		return nil, fmt.Errorf("physical topology: %w", err)
	}

	slices := make([]*slice.Slice, 0, len(s.Slices))
	policies := make(map[string]*netcore.Policy, len(s.Slices))
	v := &util.ValidationBuilder{}
	labels := compiler.NewLabelAllocator()
	var ingresses []slice.IngressCIDR

	for _, ss := range s.Slices {
		built, policy, err := buildSlice(ss, physical, labels)
		if err != nil {
			v.AddErrorf("slice %s: %v", ss.ID, err)
			continue
		}
		if err := built.Validate(); err != nil {
			v.AddErrorf("slice %s: %v", ss.ID, err)
			continue
		}
		for _, e := range ss.EdgePolicy {
			if e.CIDR == "" {
				continue
			}
			prefix, err := netip.ParsePrefix(e.CIDR)
			if err != nil {
				v.AddErrorf("slice %s: edge_policy for (%d,%d): bad cidr %q: %v", ss.ID, e.Port.Node, e.Port.Port, e.CIDR, err)
				continue
			}
			physPort, ok := built.PortMap[slice.PortKey{Node: e.Port.Node, Port: e.Port.Port}]
			if !ok {
				continue // already reported by Validate
			}
			ingresses = append(ingresses, slice.IngressCIDR{Slice: ss.ID, Port: physPort, CIDR: prefix})
		}
		slices = append(slices, built)
		policies[ss.ID] = policy
	}
	if err := slice.CheckNoOverlappingIngress(ingresses); err != nil {
		v.AddErrorf("%v", err)
	}
	if v.HasErrors() {
		return nil, v.Build()
	}

	return &Built{Name: s.Name, Physical: physical, Slices: slices, Policies: policies}, nil
}

func buildTopology(spec *PhysicalSpec) (topology.Topology, error) {
	t := topology.NewMemTopology()
	for _, sw := range spec.Switches {
		if err := t.AddSwitch(sw); err != nil {
			return nil, err
		}
	}
	for _, h := range spec.Hosts {
		if err := t.AddHost(h); err != nil {
			return nil, err
		}
	}
	for _, l := range spec.Links {
		if err := t.AddLink(l.A.Node, l.A.Port, l.Z.Node, l.Z.Port); err != nil {
			return nil, err
		}
	}
	if err := t.Finalize(); err != nil {
		return nil, err
	}
	return t, nil
}

func buildSlice(spec *SliceSpec, physical topology.Topology, labels *compiler.LabelAllocator) (*slice.Slice, *netcore.Policy, error) {
	logical, err := buildTopology(&spec.Logical)
	if err != nil {
		return nil, nil, fmt.Errorf("logical topology: %w", err)
	}

	switchMap := make(map[topology.NodeID]topology.NodeID, len(spec.SwitchMap))
	for _, m := range spec.SwitchMap {
		switchMap[m.Logical] = m.Physical
	}

	portMap := make(map[slice.PortKey]slice.PortKey, len(spec.PortMap))
	for _, m := range spec.PortMap {
		portMap[slice.PortKey{Node: m.Logical.Node, Port: m.Logical.Port}] =
			slice.PortKey{Node: m.Physical.Node, Port: m.Physical.Port}
	}

	edgePolicy := make(map[slice.PortKey]*netcore.Predicate, len(spec.EdgePolicy))
	for _, e := range spec.EdgePolicy {
		pred, err := e.Match.Build()
		if err != nil {
			return nil, nil, fmt.Errorf("edge_policy for (%d,%d): %w", e.Port.Node, e.Port.Port, err)
		}
		edgePolicy[slice.PortKey{Node: e.Port.Node, Port: e.Port.Port}] = pred
	}

	s := &slice.Slice{
		ID:          spec.ID,
		Logical:     logical,
		Physical:    physical,
		SwitchMap:   switchMap,
		PortMap:     portMap,
		EdgePolicy:  edgePolicy,
		MapEndHosts: spec.MapEndHosts,
	}

	policy, err := buildPolicy(spec.ID, spec.Policy, labels)
	if err != nil {
		return nil, nil, fmt.Errorf("policy: %w", err)
	}
	return s, policy, nil
}

func buildPolicy(sliceID string, primitives []*Primitive, labels *compiler.LabelAllocator) (*netcore.Policy, error) {
	clauses := make([]*netcore.Policy, 0, len(primitives))
	for i, p := range primitives {
		pred, err := p.Match.Build()
		if err != nil {
			return nil, fmt.Errorf("clause %d: %w", i, err)
		}
		actions := make([]*netcore.Action, 0, len(p.Actions))
		for _, a := range p.Actions {
			obs := a.Obs
			if a.Observe {
				obs = append(append([]string(nil), obs...), labels.Next(sliceID))
			}
			actions = append(actions, netcore.NewAction(a.Switch, a.Ports, a.Modify, obs))
		}
		clauses = append(clauses, netcore.PrimitivePolicy(pred, actions))
	}
	return netcore.NaryUnionPolicy(clauses...), nil
}

// Build compiles the predicate DSL into a netcore.Predicate. Exactly one of
// Top, Bottom, Header, All, Any, or Not must be set.
func (p *PredicateSpec) Build() (*netcore.Predicate, error) {
	if p == nil {
		return nil, fmt.Errorf("predicate: nil")
	}

	set := 0
	if p.Top {
		set++
	}
	if p.Bottom {
		set++
	}
	if p.Header != nil {
		set++
	}
	if p.All != nil {
		set++
	}
	if p.Any != nil {
		set++
	}
	if p.Not != nil {
		set++
	}
	if set != 1 {
		return nil, fmt.Errorf("predicate: exactly one of top/bottom/header/all/any/not must be set, got %d", set)
	}

	switch {
	case p.Top:
		return netcore.Top(), nil
	case p.Bottom:
		return netcore.Bottom(), nil
	case p.Header != nil:
		return netcore.HeaderPred(p.Header), nil
	case p.All != nil:
		preds, err := buildAll(p.All)
		if err != nil {
			return nil, err
		}
		return netcore.NaryIntersection(preds...), nil
	case p.Any != nil:
		preds, err := buildAll(p.Any)
		if err != nil {
			return nil, err
		}
		return netcore.NaryUnion(preds...), nil
	default: // p.Not != nil
		inner, err := p.Not.Build()
		if err != nil {
			return nil, err
		}
		return netcore.DifferencePred(netcore.Top(), inner), nil
	}
}

func buildAll(specs []*PredicateSpec) ([]*netcore.Predicate, error) {
	out := make([]*netcore.Predicate, 0, len(specs))
	for i, s := range specs {
		p, err := s.Build()
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}
