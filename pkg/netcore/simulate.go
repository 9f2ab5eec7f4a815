package netcore

// Simulate is the exact-valued executable semantics used by tests, not by
// the compiler. It collects every action whose predicate matches pkt
// (regardless of location — spec.md §9's open question), then keeps only
// those whose switch equals the packet's current location, unions their
// observation labels, and applies modify to produce the output located
// packet for each output port.
func Simulate(policy *Policy, pkt Packet) ([]Packet, map[string]struct{}) {
	actions := policy.collectActions(pkt)
	sw, _ := pkt.Switch()

	obs := make(map[string]struct{})
	var outputs []Packet
	for _, a := range actions {
		if a.Switch != sw {
			continue
		}
		outPkts, outObs := a.Apply(pkt)
		outputs = append(outputs, outPkts...)
		for label := range outObs {
			obs[label] = struct{}{}
		}
	}
	return DedupePackets(outputs), obs
}
