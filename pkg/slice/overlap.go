package slice

import (
	"fmt"
	"net/netip"

	"github.com/gaissmai/bart"
)

// IngressCIDR optionally annotates an external port's admission predicate
// with the srcip/dstip CIDR range it actually admits, when the predicate
// was derived from a CIDR-based scenario rule. It exists purely to support
// CheckNoOverlappingIngress: the netcore predicate itself stays an exact
// Header match and knows nothing about prefixes.
type IngressCIDR struct {
	Slice string
	Port  PortKey
	CIDR  netip.Prefix
}

// CheckNoOverlappingIngress reports an error if two different slices
// declare overlapping srcip/dstip CIDR ranges on the same physical external
// port: such an overlap means the physical network cannot tell, from the
// packet's source/destination alone, which slice a fresh untagged packet
// belongs to, and admission becomes ambiguous at that port.
//
// ingresses is grouped by physical port so the check is meaningful: CIDR
// overlap across two different physical ports is not a conflict.
func CheckNoOverlappingIngress(ingresses []IngressCIDR) error {
	byPort := make(map[PortKey][]IngressCIDR)
	for _, in := range ingresses {
		byPort[in.Port] = append(byPort[in.Port], in)
	}

	for port, group := range byPort {
		tbl := &bart.Table[string]{}
		for _, in := range group {
			if tbl.OverlapsPrefix(in.CIDR) {
				existing, _ := tbl.LookupPrefix(in.CIDR)
				return fmt.Errorf("ingress overlap at physical port (%d,%d): slice %s's %s overlaps slice %s's range",
					port.Node, port.Port, in.Slice, in.CIDR, existing)
			}
			tbl.Insert(in.CIDR, in.Slice)
		}
	}
	return nil
}
