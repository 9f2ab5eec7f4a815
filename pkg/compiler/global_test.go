package compiler

import (
	"testing"

	"github.com/newtron-network/netslice/pkg/netcore"
	"github.com/newtron-network/netslice/pkg/slice"
)

func TestCompileGlobal_IngressTagsAndForwards(t *testing.T) {
	s := identitySlice(t, "s1")
	policy := crossingPolicy()

	physical, err := CompileGlobal(s, policy, 7)
	if err != nil {
		t.Fatalf("CompileGlobal: %v", err)
	}

	pkt := netcore.NewPacket(map[string]int{netcore.FieldSwitch: 0, netcore.FieldPort: 1, netcore.FieldVLAN: 0})
	out, _ := netcore.Simulate(physical, pkt)
	if len(out) != 1 {
		t.Fatalf("expected 1 output packet, got %d: %+v", len(out), out)
	}
	sw, _ := out[0].Switch()
	port, _ := out[0].Port()
	vlan, _ := out[0].Get(netcore.FieldVLAN)
	if sw != 0 || port != 2 || vlan != 7 {
		t.Errorf("expected (switch=0,port=2,vlan=7), got (switch=%d,port=%d,vlan=%d)", sw, port, vlan)
	}
}

func TestCompileGlobal_StripsTagOnExternalEgress(t *testing.T) {
	s := identitySlice(t, "s1")
	policy := crossingPolicy()

	physical, err := CompileGlobal(s, policy, 7)
	if err != nil {
		t.Fatalf("CompileGlobal: %v", err)
	}

	pkt := netcore.NewPacket(map[string]int{netcore.FieldSwitch: 1, netcore.FieldPort: 2, netcore.FieldVLAN: 7})
	out, _ := netcore.Simulate(physical, pkt)
	if len(out) != 1 {
		t.Fatalf("expected 1 output packet, got %d: %+v", len(out), out)
	}
	sw, _ := out[0].Switch()
	port, _ := out[0].Port()
	vlan, _ := out[0].Get(netcore.FieldVLAN)
	if sw != 1 || port != 1 || vlan != 0 {
		t.Errorf("expected (switch=1,port=1,vlan=0) stripped, got (switch=%d,port=%d,vlan=%d)", sw, port, vlan)
	}
}

func TestCompileGlobal_UntaggedMidNetworkDoesNotForward(t *testing.T) {
	s := identitySlice(t, "s1")
	policy := crossingPolicy()

	physical, err := CompileGlobal(s, policy, 7)
	if err != nil {
		t.Fatalf("CompileGlobal: %v", err)
	}

	// A packet arriving at switch 1 from the internal link without the
	// slice's tag is not in the ingress predicate (that only covers host
	// ports) and not in the safe predicate (vlan != 7), so it produces no
	// output: only packets that entered through this slice's admitted
	// external port ever carry its tag.
	pkt := netcore.NewPacket(map[string]int{netcore.FieldSwitch: 1, netcore.FieldPort: 2, netcore.FieldVLAN: 0})
	out, _ := netcore.Simulate(physical, pkt)
	if len(out) != 0 {
		t.Errorf("expected no output for untagged mid-network packet, got %+v", out)
	}
}

func TestCompileAllGlobal_AssignsTagsAndCompilesEverySlice(t *testing.T) {
	s1 := identitySlice(t, "s1")
	s2 := identitySlice(t, "s2")
	policies := map[string]*netcore.Policy{
		"s1": crossingPolicy(),
		"s2": crossingPolicy(),
	}

	physical, tags, err := CompileAllGlobal([]*slice.Slice{s1, s2}, policies)
	if err != nil {
		t.Fatalf("CompileAllGlobal: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("expected 2 tags assigned, got %v", tags)
	}
	if tags["s1"] == tags["s2"] {
		t.Errorf("expected s1 and s2 to get distinct tags since they share every physical edge, got %v", tags)
	}
	if physical == nil {
		t.Fatal("expected a non-nil compiled policy")
	}

	// Both slices admit everything at (0,1), so an untagged ingress packet
	// is claimed by both: one output per slice, each carrying its own tag.
	pkt := netcore.NewPacket(map[string]int{netcore.FieldSwitch: 0, netcore.FieldPort: 1, netcore.FieldVLAN: 0})
	out, _ := netcore.Simulate(physical, pkt)
	if len(out) != 2 {
		t.Fatalf("expected 2 output packets (one per slice), got %d: %+v", len(out), out)
	}
	gotTags := make(map[int]bool)
	for _, p := range out {
		v, _ := p.Get(netcore.FieldVLAN)
		gotTags[v] = true
	}
	if !gotTags[tags["s1"]] || !gotTags[tags["s2"]] {
		t.Errorf("expected outputs tagged %d and %d, got %+v", tags["s1"], tags["s2"], gotTags)
	}
}
