package netcore

import (
	"encoding/json"
	"testing"
)

func TestPolicyJSON_RoundTrip(t *testing.T) {
	orig := UnionPolicy(
		PrimitivePolicy(InPort(2, 2), []*Action{NewAction(2, []int{1}, map[string]int{"vlan": 5}, []string{"hit"})}),
		BottomPolicy(),
	)

	data, err := json.Marshal(orig)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got Policy
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !orig.Equal(&got) {
		t.Errorf("round-tripped policy differs from original:\n got  %#v\n want %#v", &got, orig)
	}
}
