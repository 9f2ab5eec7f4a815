package scenario_test

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/netslice/pkg/netcore"
	"github.com/newtron-network/netslice/pkg/scenario"
)

const twoSwitchScenario = `
name: two-switch-demo
physical:
  switches: [0, 1]
  hosts: [100, 101]
  links:
    - {a: {node: 0, port: 2}, z: {node: 1, port: 2}}
    - {a: {node: 0, port: 1}, z: {node: 100, port: 0}}
    - {a: {node: 1, port: 1}, z: {node: 101, port: 0}}
slices:
  - id: tenant-a
    logical:
      switches: [0, 1]
      hosts: [100, 101]
      links:
        - {a: {node: 0, port: 2}, z: {node: 1, port: 2}}
        - {a: {node: 0, port: 1}, z: {node: 100, port: 0}}
        - {a: {node: 1, port: 1}, z: {node: 101, port: 0}}
    switch_map:
      - {logical: 0, physical: 0}
      - {logical: 1, physical: 1}
    port_map:
      - {logical: {node: 0, port: 1}, physical: {node: 0, port: 1}}
      - {logical: {node: 0, port: 2}, physical: {node: 0, port: 2}}
      - {logical: {node: 1, port: 1}, physical: {node: 1, port: 1}}
      - {logical: {node: 1, port: 2}, physical: {node: 1, port: 2}}
    edge_policy:
      - port: {node: 0, port: 1}
        match: {top: true}
      - port: {node: 1, port: 1}
        match: {top: true}
    policy:
      - match: {all: [{header: {switch: 0, port: 1}}]}
        actions:
          - {switch: 0, ports: [2], obs: ["crossed"]}
`

func TestParse_ResolvesTopologyAndSlice(t *testing.T) {
	var s scenario.Scenario
	if err := yaml.Unmarshal([]byte(twoSwitchScenario), &s); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}

	built, err := scenario.Build(&s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if built.Name != "two-switch-demo" {
		t.Errorf("Name = %q", built.Name)
	}
	if len(built.Slices) != 1 {
		t.Fatalf("expected 1 slice, got %d", len(built.Slices))
	}
	if _, ok := built.Policies["tenant-a"]; !ok {
		t.Errorf("expected a compiled policy for slice tenant-a")
	}
}

func TestBuild_RejectsAmbiguousSwitchMap(t *testing.T) {
	var s scenario.Scenario
	if err := yaml.Unmarshal([]byte(twoSwitchScenario), &s); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	// Map both logical switches onto the same physical switch; Slice.Validate
	// rejects a non-injective SwitchMap.
	s.Slices[0].SwitchMap[1].Physical = 0

	if _, err := scenario.Build(&s); err == nil {
		t.Fatalf("expected Build to reject a non-injective switch map")
	}
}

func TestPredicateSpec_Build(t *testing.T) {
	t.Run("exactly one of top/bottom/header/all/any/not required", func(t *testing.T) {
		spec := &scenario.PredicateSpec{}
		if _, err := spec.Build(); err == nil {
			t.Fatalf("expected an error for an empty predicate spec")
		}

		spec = &scenario.PredicateSpec{Top: true, Bottom: true}
		if _, err := spec.Build(); err == nil {
			t.Fatalf("expected an error for a predicate spec setting two alternatives")
		}
	})

	t.Run("not wraps the inner predicate's complement", func(t *testing.T) {
		spec := &scenario.PredicateSpec{Not: &scenario.PredicateSpec{Bottom: true}}
		pred, err := spec.Build()
		if err != nil {
			t.Fatalf("Build: %v", err)
		}
		if pred == nil {
			t.Fatalf("expected a non-nil predicate")
		}
	})

	t.Run("error mentions the offending nested index", func(t *testing.T) {
		spec := &scenario.PredicateSpec{All: []*scenario.PredicateSpec{
			{Top: true},
			{},
		}}
		_, err := spec.Build()
		if err == nil || !strings.Contains(err.Error(), "element 1") {
			t.Fatalf("expected an error naming element 1, got %v", err)
		}
	})
}

func TestBuild_AllocatesObservationLabels(t *testing.T) {
	var s scenario.Scenario
	if err := yaml.Unmarshal([]byte(twoSwitchScenario), &s); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	s.Slices[0].Policy[0].Actions[0].Obs = nil
	s.Slices[0].Policy[0].Actions[0].Observe = true

	built, err := scenario.Build(&s)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	policy := built.Policies["tenant-a"]
	var labels []string
	for _, a := range policy.GetActions(packetAt(0, 1)) {
		labels = append(labels, a.ObsLabels()...)
	}
	if len(labels) != 1 || !strings.HasPrefix(labels[0], "tenant-a#") {
		t.Errorf("expected one allocated label prefixed with the slice id, got %v", labels)
	}
}

func TestBuild_RejectsOverlappingIngressCIDRs(t *testing.T) {
	var s scenario.Scenario
	if err := yaml.Unmarshal([]byte(twoSwitchScenario), &s); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	// Clone the slice under a second id so both claim (0,1), then annotate
	// both edge rules with overlapping source ranges.
	var clone scenario.Scenario
	if err := yaml.Unmarshal([]byte(twoSwitchScenario), &clone); err != nil {
		t.Fatalf("yaml.Unmarshal: %v", err)
	}
	second := clone.Slices[0]
	second.ID = "tenant-b"
	s.Slices = append(s.Slices, second)
	s.Slices[0].EdgePolicy[0].CIDR = "10.0.0.0/16"
	s.Slices[1].EdgePolicy[0].CIDR = "10.0.1.0/24"

	_, err := scenario.Build(&s)
	if err == nil || !strings.Contains(err.Error(), "ingress overlap") {
		t.Fatalf("expected an ingress overlap error, got %v", err)
	}
}

func packetAt(sw, port int) netcore.Packet {
	return netcore.NewPacket(map[string]int{netcore.FieldSwitch: sw, netcore.FieldPort: port})
}

func TestParse_MissingFile(t *testing.T) {
	if _, err := scenario.Parse("/nonexistent/scenario.yaml"); err == nil {
		t.Fatalf("expected an error for a missing scenario file")
	}
}
