package netcore

import "fmt"

// PortKey identifies a (logical switch, logical port) pair in a port map.
type PortKey struct {
	Switch int
	Port   int
}

// PortVal is the physical (switch, port) a PortKey maps to. GetPhysicalRep
// only ever uses Port — the physical switch is always taken from the
// separate switch map, per spec.md §4.1.
type PortVal struct {
	Switch int
	Port   int
}

// PhysicalMap bundles the two maps a Slice carries: logical switch ->
// physical switch, and (logical switch, logical port) -> (physical switch,
// physical port).
type PhysicalMap struct {
	SwitchMap map[int]int
	PortMap   map[PortKey]PortVal
}

// EndHostPort is the sentinel port value denoting a host-facing port that
// passes through virtual-to-physical lowering unchanged.
const EndHostPort = 0

// GetPhysicalRep rewrites every switch field via m.SwitchMap and every port
// field via m.PortMap, discarding the port map's switch component (the
// switch is always taken from SwitchMap). A port match on a switch that
// itself has no "switch" field in the same Header node — i.e. a wildcard
// location — is a PhysicalException. End-host ports (port == 0) pass
// through unchanged.
func (p *Predicate) GetPhysicalRep(m PhysicalMap) (*Predicate, error) {
	switch p.Kind {
	case PredTop, PredBottom:
		return p, nil
	case PredHeader:
		h, err := lowerHeader(p.Header, m)
		if err != nil {
			return nil, err
		}
		return HeaderPred(h), nil
	case PredUnion:
		l, err := p.Left.GetPhysicalRep(m)
		if err != nil {
			return nil, err
		}
		r, err := p.Right.GetPhysicalRep(m)
		if err != nil {
			return nil, err
		}
		return UnionPred(l, r), nil
	case PredIntersection:
		l, err := p.Left.GetPhysicalRep(m)
		if err != nil {
			return nil, err
		}
		r, err := p.Right.GetPhysicalRep(m)
		if err != nil {
			return nil, err
		}
		return IntersectionPred(l, r), nil
	case PredDifference:
		l, err := p.Left.GetPhysicalRep(m)
		if err != nil {
			return nil, err
		}
		r, err := p.Right.GetPhysicalRep(m)
		if err != nil {
			return nil, err
		}
		return DifferencePred(l, r), nil
	default:
		return nil, &StructuralError{Kind: int(p.Kind), Node: fmt.Sprintf("%#v", p)}
	}
}

func lowerHeader(h map[string]int, m PhysicalMap) (map[string]int, error) {
	out := make(map[string]int, len(h))
	sw, hasSwitch := h[FieldSwitch]
	for f, v := range h {
		switch f {
		case FieldSwitch:
			psw, ok := m.SwitchMap[v]
			if !ok {
				return nil, &PhysicalException{HasSwitch: true, Switch: v, Subtree: fmt.Sprintf("%#v", h)}
			}
			out[f] = psw
		case FieldPort:
			if v == EndHostPort {
				out[f] = EndHostPort
				continue
			}
			if !hasSwitch {
				return nil, &PhysicalException{Port: v, Subtree: fmt.Sprintf("%#v", h)}
			}
			pv, ok := m.PortMap[PortKey{Switch: sw, Port: v}]
			if !ok {
				return nil, &PhysicalException{HasSwitch: true, Switch: sw, Port: v, Subtree: fmt.Sprintf("%#v", h)}
			}
			out[f] = pv.Port
		default:
			out[f] = v
		}
	}
	return out, nil
}

// GetPhysicalRep lowers an Action's switch, ports, and any switch/port
// entries in its modify map, identically to the predicate rewrite.
func (a *Action) GetPhysicalRep(m PhysicalMap) (*Action, error) {
	psw, ok := m.SwitchMap[a.Switch]
	if !ok {
		return nil, &PhysicalException{HasSwitch: true, Switch: a.Switch, Subtree: fmt.Sprintf("%#v", a)}
	}
	ports := make([]int, 0, len(a.Ports))
	for _, port := range a.Ports {
		if port == EndHostPort {
			ports = append(ports, EndHostPort)
			continue
		}
		pv, ok := m.PortMap[PortKey{Switch: a.Switch, Port: port}]
		if !ok {
			return nil, &PhysicalException{HasSwitch: true, Switch: a.Switch, Port: port, Subtree: fmt.Sprintf("%#v", a)}
		}
		ports = append(ports, pv.Port)
	}
	modify := make(map[string]int, len(a.Modify))
	for f, v := range a.Modify {
		switch f {
		case FieldSwitch:
			pv, ok := m.SwitchMap[v]
			if !ok {
				return nil, &PhysicalException{HasSwitch: true, Switch: v, Subtree: fmt.Sprintf("%#v", a)}
			}
			modify[f] = pv
		case FieldPort:
			if v == EndHostPort {
				modify[f] = EndHostPort
				continue
			}
			pv, ok := m.PortMap[PortKey{Switch: a.Switch, Port: v}]
			if !ok {
				return nil, &PhysicalException{HasSwitch: true, Switch: a.Switch, Port: v, Subtree: fmt.Sprintf("%#v", a)}
			}
			modify[f] = pv.Port
		default:
			modify[f] = v
		}
	}
	return &Action{Switch: psw, Ports: ports, Modify: modify, Obs: cloneObs(a.Obs)}, nil
}

// GetPhysicalRep lowers every predicate and action in the policy tree via
// m, failing fast (no partial lowering) on the first PhysicalException.
func (p *Policy) GetPhysicalRep(m PhysicalMap) (*Policy, error) {
	switch p.Kind {
	case PolicyBottom:
		return p, nil
	case PolicyPrimitive:
		pred, err := p.Pred.GetPhysicalRep(m)
		if err != nil {
			return nil, err
		}
		actions := make([]*Action, len(p.Actions))
		for i, a := range p.Actions {
			la, err := a.GetPhysicalRep(m)
			if err != nil {
				return nil, err
			}
			actions[i] = la
		}
		return PrimitivePolicy(pred, actions), nil
	case PolicyUnion:
		l, err := p.Left.GetPhysicalRep(m)
		if err != nil {
			return nil, err
		}
		r, err := p.Right.GetPhysicalRep(m)
		if err != nil {
			return nil, err
		}
		return UnionPolicy(l, r), nil
	case PolicyRestriction:
		inner, err := p.Left.GetPhysicalRep(m)
		if err != nil {
			return nil, err
		}
		pred, err := p.Pred.GetPhysicalRep(m)
		if err != nil {
			return nil, err
		}
		return Restrict(inner, pred), nil
	default:
		return nil, &StructuralError{Kind: int(p.Kind), Node: fmt.Sprintf("%#v", p)}
	}
}
