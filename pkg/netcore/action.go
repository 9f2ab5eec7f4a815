package netcore

import "sort"

// Action is a triple (target switch, set of output ports, field->value
// modify map, set of observation labels). Applying an action to a packet
// produces, for each output port, a new located packet whose fields are
// the input overlaid with modify and whose location is (switch, port),
// plus the action's observation set.
type Action struct {
	Switch int
	Ports  []int
	Modify map[string]int
	Obs    map[string]struct{}
}

// NewAction builds an Action. modify and obs are copied defensively.
func NewAction(sw int, ports []int, modify map[string]int, obs []string) *Action {
	m := make(map[string]int, len(modify))
	for k, v := range modify {
		m[k] = v
	}
	o := make(map[string]struct{}, len(obs))
	for _, label := range obs {
		o[label] = struct{}{}
	}
	p := make([]int, len(ports))
	copy(p, ports)
	return &Action{Switch: sw, Ports: p, Modify: m, Obs: o}
}

// Forward builds an Action(s, ports, {}, {}) — the plain "send out these
// ports" combinator.
func Forward(sw int, ports ...int) *Action {
	return NewAction(sw, ports, nil, nil)
}

// WithModify returns a copy of the action with field set to value added to
// its modify map.
func (a *Action) WithModify(field string, value int) *Action {
	m := make(map[string]int, len(a.Modify)+1)
	for k, v := range a.Modify {
		m[k] = v
	}
	m[field] = value
	return &Action{Switch: a.Switch, Ports: append([]int(nil), a.Ports...), Modify: m, Obs: cloneObs(a.Obs)}
}

// WithPorts returns a copy of the action restricted to the given output
// ports — used by the compilers to split an action that forwards to
// several ports so only the port leaving via a particular edge is
// retagged or stripped.
func (a *Action) WithPorts(ports []int) *Action {
	return &Action{Switch: a.Switch, Ports: append([]int(nil), ports...), Modify: cloneInts(a.Modify), Obs: cloneObs(a.Obs)}
}

// ObsLabels returns the action's observation labels as a sorted slice.
func (a *Action) ObsLabels() []string {
	labels := make([]string, 0, len(a.Obs))
	for l := range a.Obs {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

// ObsEqual reports whether two actions carry the same observation set —
// the verifier's isolation checks depend on set equality of these labels.
func ObsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

// ObsDisjoint reports whether two observation sets share no label.
func ObsDisjoint(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return false
		}
	}
	return true
}

func cloneObs(o map[string]struct{}) map[string]struct{} {
	cp := make(map[string]struct{}, len(o))
	for k := range o {
		cp[k] = struct{}{}
	}
	return cp
}

func cloneInts(m map[string]int) map[string]int {
	cp := make(map[string]int, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// Apply applies the action to pkt, producing one output packet per output
// port (fields overlaid with Modify, location set to (Switch, port)) plus
// the action's observation set.
func (a *Action) Apply(pkt Packet) ([]Packet, map[string]struct{}) {
	out := make([]Packet, 0, len(a.Ports))
	for _, port := range a.Ports {
		np := pkt.WithFields(a.Modify)
		np = np.With(FieldSwitch, a.Switch)
		np = np.With(FieldPort, port)
		out = append(out, np)
	}
	return out, cloneObs(a.Obs)
}
