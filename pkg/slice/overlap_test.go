package slice

import (
	"net/netip"
	"testing"
)

func TestCheckNoOverlappingIngress_NoOverlap(t *testing.T) {
	ingresses := []IngressCIDR{
		{Slice: "a", Port: PortKey{Node: 0, Port: 1}, CIDR: netip.MustParsePrefix("10.0.0.0/24")},
		{Slice: "b", Port: PortKey{Node: 0, Port: 1}, CIDR: netip.MustParsePrefix("10.0.1.0/24")},
	}
	if err := CheckNoOverlappingIngress(ingresses); err != nil {
		t.Errorf("unexpected overlap error: %v", err)
	}
}

func TestCheckNoOverlappingIngress_Overlap(t *testing.T) {
	ingresses := []IngressCIDR{
		{Slice: "a", Port: PortKey{Node: 0, Port: 1}, CIDR: netip.MustParsePrefix("10.0.0.0/16")},
		{Slice: "b", Port: PortKey{Node: 0, Port: 1}, CIDR: netip.MustParsePrefix("10.0.1.0/24")},
	}
	if err := CheckNoOverlappingIngress(ingresses); err == nil {
		t.Error("expected overlap error")
	}
}

func TestCheckNoOverlappingIngress_DifferentPortsIgnored(t *testing.T) {
	ingresses := []IngressCIDR{
		{Slice: "a", Port: PortKey{Node: 0, Port: 1}, CIDR: netip.MustParsePrefix("10.0.0.0/16")},
		{Slice: "b", Port: PortKey{Node: 1, Port: 1}, CIDR: netip.MustParsePrefix("10.0.1.0/24")},
	}
	if err := CheckNoOverlappingIngress(ingresses); err != nil {
		t.Errorf("overlap on different physical ports should not conflict: %v", err)
	}
}
