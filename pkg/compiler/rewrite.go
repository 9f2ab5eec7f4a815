package compiler

import "github.com/newtron-network/netslice/pkg/netcore"

// mapPrimitiveActions walks policy and replaces every Primitive's action
// list with f(actions) applied at that node, leaving Union and Restriction
// structure (and every predicate) untouched. Bottom is returned unchanged.
func mapPrimitiveActions(policy *netcore.Policy, f func([]*netcore.Action) []*netcore.Action) *netcore.Policy {
	switch policy.Kind {
	case netcore.PolicyBottom:
		return policy
	case netcore.PolicyPrimitive:
		return netcore.PrimitivePolicy(policy.Pred, f(policy.Actions))
	case netcore.PolicyUnion:
		return netcore.UnionPolicy(mapPrimitiveActions(policy.Left, f), mapPrimitiveActions(policy.Right, f))
	case netcore.PolicyRestriction:
		return netcore.Restrict(mapPrimitiveActions(policy.Left, f), policy.Pred)
	default:
		return policy
	}
}

// setVlan rewrites every action in policy to additionally set vlan := tag.
func setVlan(policy *netcore.Policy, tag int) *netcore.Policy {
	return mapPrimitiveActions(policy, func(actions []*netcore.Action) []*netcore.Action {
		out := make([]*netcore.Action, len(actions))
		for i, a := range actions {
			out[i] = a.WithModify(netcore.FieldVLAN, tag)
		}
		return out
	})
}

// stripOnPorts rewrites every action so that, among its output ports, any
// port in strip (keyed by the action's switch) is split off into its own
// action with field set to value, leaving the remaining ports under the
// original action untouched.
func stripOnPorts(policy *netcore.Policy, strip map[int]map[int]bool, field string, value int) *netcore.Policy {
	return mapPrimitiveActions(policy, func(actions []*netcore.Action) []*netcore.Action {
		var out []*netcore.Action
		for _, a := range actions {
			stripped, kept := splitPorts(a.Ports, strip[a.Switch])
			if len(stripped) > 0 {
				out = append(out, a.WithPorts(stripped).WithModify(field, value))
			}
			if len(kept) > 0 {
				out = append(out, a.WithPorts(kept))
			}
		}
		return out
	})
}

// selectOnPort keeps, from every action whose switch is sw, only the
// sub-action that forwards to outPort, dropping every other output port;
// actions on a different switch or not forwarding to outPort vanish. The
// caller is expected to have already restricted the policy to the single
// input port this clause cares about, so the result is a local one-port-in,
// one-port-out rewrite.
func selectOnPort(policy *netcore.Policy, sw, outPort int) *netcore.Policy {
	return mapPrimitiveActions(policy, func(actions []*netcore.Action) []*netcore.Action {
		var out []*netcore.Action
		for _, a := range actions {
			if a.Switch != sw {
				continue
			}
			for _, p := range a.Ports {
				if p == outPort {
					out = append(out, a.WithPorts([]int{outPort}))
				}
			}
		}
		return out
	})
}

// retagOnPort is selectOnPort followed by setting field := value on the
// surviving single-port actions.
func retagOnPort(policy *netcore.Policy, sw, outPort int, field string, value int) *netcore.Policy {
	selected := selectOnPort(policy, sw, outPort)
	return mapPrimitiveActions(selected, func(actions []*netcore.Action) []*netcore.Action {
		out := make([]*netcore.Action, len(actions))
		for i, a := range actions {
			out[i] = a.WithModify(field, value)
		}
		return out
	})
}

// countClauses counts the Primitive leaves of a policy, the unit of work a
// compiled slice contributes to the final program.
func countClauses(p *netcore.Policy) int {
	if p == nil {
		return 0
	}
	switch p.Kind {
	case netcore.PolicyPrimitive:
		return 1
	case netcore.PolicyUnion:
		return countClauses(p.Left) + countClauses(p.Right)
	case netcore.PolicyRestriction:
		return countClauses(p.Left)
	default:
		return 0
	}
}

func splitPorts(ports []int, match map[int]bool) (stripped, kept []int) {
	for _, p := range ports {
		if match[p] {
			stripped = append(stripped, p)
		} else {
			kept = append(kept, p)
		}
	}
	return stripped, kept
}
