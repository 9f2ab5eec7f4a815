// Package netcore implements the NetCore packet-predicate/action/policy
// algebra: construction, structural equality, normalization (Reduce),
// virtual-to-physical rewriting (GetPhysicalRep), and a concrete simulator
// used by tests.
package netcore

import "sort"

// Header field names. vlan is reserved by the compiler to carry slice
// identity; switch and port jointly denote packet location.
const (
	FieldSwitch   = "switch"
	FieldPort     = "port"
	FieldSrcMAC   = "srcmac"
	FieldDstMAC   = "dstmac"
	FieldEthType  = "ethtype"
	FieldSrcIP    = "srcip"
	FieldDstIP    = "dstip"
	FieldVLAN     = "vlan"
	FieldProtocol = "protocol"
	FieldSrcPort  = "srcport"
	FieldDstPort  = "dstport"
)

// Packet is an immutable mapping from header fields to integer values.
// A field absent from the map is unconstrained (matches anything).
type Packet struct {
	fields map[string]int
}

// NewPacket builds a Packet from a field->value map. The map is copied so
// the caller's map may be mutated afterward without affecting the packet.
func NewPacket(fields map[string]int) Packet {
	cp := make(map[string]int, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Packet{fields: cp}
}

// Get returns the value of field and whether it is set on the packet.
func (p Packet) Get(field string) (int, bool) {
	v, ok := p.fields[field]
	return v, ok
}

// Switch returns the packet's location switch, if set.
func (p Packet) Switch() (int, bool) { return p.Get(FieldSwitch) }

// Port returns the packet's location port, if set.
func (p Packet) Port() (int, bool) { return p.Get(FieldPort) }

// With returns a new packet with field set to value, all else unchanged.
func (p Packet) With(field string, value int) Packet {
	cp := make(map[string]int, len(p.fields)+1)
	for k, v := range p.fields {
		cp[k] = v
	}
	cp[field] = value
	return Packet{fields: cp}
}

// WithFields returns a new packet with every field in mods overlaid onto
// the receiver's fields.
func (p Packet) WithFields(mods map[string]int) Packet {
	cp := make(map[string]int, len(p.fields)+len(mods))
	for k, v := range p.fields {
		cp[k] = v
	}
	for k, v := range mods {
		cp[k] = v
	}
	return Packet{fields: cp}
}

// Fields returns a copy of the packet's field map.
func (p Packet) Fields() map[string]int {
	cp := make(map[string]int, len(p.fields))
	for k, v := range p.fields {
		cp[k] = v
	}
	return cp
}

// Equal reports structural equality over fields.
func (p Packet) Equal(o Packet) bool {
	if len(p.fields) != len(o.fields) {
		return false
	}
	for k, v := range p.fields {
		if ov, ok := o.fields[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// key returns a deterministic string encoding used for deduplication in
// sets of packets (Simulate's output).
func (p Packet) key() string {
	keys := make([]string, 0, len(p.fields))
	for k := range p.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	buf := make([]byte, 0, 32*len(keys))
	for _, k := range keys {
		buf = append(buf, k...)
		buf = append(buf, '=')
		buf = appendInt(buf, p.fields[k])
		buf = append(buf, ';')
	}
	return string(buf)
}

func appendInt(buf []byte, n int) []byte {
	if n == 0 {
		return append(buf, '0')
	}
	neg := n < 0
	if neg {
		n = -n
		buf = append(buf, '-')
	}
	start := len(buf)
	for n > 0 {
		buf = append(buf, byte('0'+n%10))
		n /= 10
	}
	// reverse the digits just appended
	for i, j := start, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return buf
}

// DedupePackets collapses structurally equal packets, preserving first-seen
// order — used by Simulate to return a set of located packets.
func DedupePackets(pkts []Packet) []Packet {
	seen := make(map[string]struct{}, len(pkts))
	out := make([]Packet, 0, len(pkts))
	for _, p := range pkts {
		k := p.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, p)
	}
	return out
}
