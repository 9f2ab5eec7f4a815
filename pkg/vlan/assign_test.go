package vlan

import (
	"errors"
	"testing"

	"github.com/newtron-network/netslice/pkg/util"
)

func TestAssignSequential(t *testing.T) {
	tags, err := AssignSequential([]string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[int]bool)
	for _, id := range []string{"a", "b", "c"} {
		tag, ok := tags[id]
		if !ok {
			t.Fatalf("missing tag for %s", id)
		}
		if tag < MinTag || tag > MaxTag {
			t.Errorf("tag %d out of range", tag)
		}
		if seen[tag] {
			t.Errorf("duplicate tag %d", tag)
		}
		seen[tag] = true
	}
}

func TestAssignSequential_ExhaustsTagSpace(t *testing.T) {
	ids := make([]string, MaxTag+1)
	for i := range ids {
		ids[i] = string(rune('a' + i%26))
	}
	_, err := AssignSequential(ids)
	var vlanErr *util.VlanException
	if !errors.As(err, &vlanErr) {
		t.Fatalf("expected *util.VlanException, got %v", err)
	}
}

func TestAssignShareEdgeOptimal_DisjointSlicesShareTag(t *testing.T) {
	// Slices a and b never touch the same edge: they may reuse the same tag.
	edges := map[string][]string{
		"a": {"e1"},
		"b": {"e2"},
	}
	tags, err := AssignShareEdgeOptimal(edges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tags["a"] != tags["b"] {
		t.Errorf("disjoint slices should be able to share a tag, got a=%d b=%d", tags["a"], tags["b"])
	}
}

func TestAssignShareEdgeOptimal_ConflictingSlicesDistinctTags(t *testing.T) {
	edges := map[string][]string{
		"a": {"e1", "e2"},
		"b": {"e2", "e3"},
		"c": {"e3"},
	}
	tags, err := AssignShareEdgeOptimal(edges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tags["a"] == tags["b"] {
		t.Errorf("a and b share edge e2, must get distinct tags")
	}
	if tags["b"] == tags["c"] {
		t.Errorf("b and c share edge e3, must get distinct tags")
	}
}

func TestAssignEdgeOptimal_PerEdgeDistinctAndSymmetric(t *testing.T) {
	edges := map[string][]string{
		"a": {"sw1:1-sw2:1"},
		"b": {"sw1:1-sw2:1"},
		"c": {"sw2:2-sw3:1"},
	}
	result, err := AssignEdgeOptimal(edges)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	shared := result["sw1:1-sw2:1"]
	if len(shared) != 2 {
		t.Fatalf("expected 2 slices on shared edge, got %d", len(shared))
	}
	if shared["a"] == shared["b"] {
		t.Errorf("slices sharing an edge must get distinct per-edge tags")
	}

	solo := result["sw2:2-sw3:1"]
	if solo["c"] != MinTag {
		t.Errorf("lone slice on an edge should get tag %d, got %d", MinTag, solo["c"])
	}
}

func TestAssignEdgeOptimal_ExceedsTagSpace(t *testing.T) {
	edges := make(map[string][]string, MaxTag+1)
	for i := 0; i < MaxTag+1; i++ {
		id := string(rune('a' + i%26))
		id = id + string(rune('0'+i/26))
		edges[id] = []string{"hot-edge"}
	}
	_, err := AssignEdgeOptimal(edges)
	var vlanErr *util.VlanException
	if !errors.As(err, &vlanErr) {
		t.Fatalf("expected *util.VlanException, got %v", err)
	}
}
