package netcore

import (
	"encoding/json"
	"fmt"
)

// wirePredicate is the JSON envelope for a Predicate: a type tag plus the
// constructor's fields (spec.md §6). Round-trips with the natural
// structural deserializer below.
type wirePredicate struct {
	Type   string         `json:"type"`
	Header map[string]int `json:"header,omitempty"`
	Left   *wirePredicate `json:"left,omitempty"`
	Right  *wirePredicate `json:"right,omitempty"`
}

// MarshalJSON implements the type-tagged predicate envelope.
func (p *Predicate) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.toWire())
}

func (p *Predicate) toWire() *wirePredicate {
	if p == nil {
		return nil
	}
	w := &wirePredicate{Type: p.Kind.String()}
	switch p.Kind {
	case PredHeader:
		w.Header = p.Header
	case PredUnion, PredIntersection, PredDifference:
		w.Left = p.Left.toWire()
		w.Right = p.Right.toWire()
	}
	return w
}

// UnmarshalJSON implements the type-tagged predicate envelope.
func (p *Predicate) UnmarshalJSON(data []byte) error {
	var w wirePredicate
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	built, err := w.fromWire()
	if err != nil {
		return err
	}
	*p = *built
	return nil
}

func (w *wirePredicate) fromWire() (*Predicate, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Type {
	case "Top":
		return Top(), nil
	case "Bottom":
		return Bottom(), nil
	case "Header":
		return HeaderPred(w.Header), nil
	case "Union":
		l, err := w.Left.fromWire()
		if err != nil {
			return nil, err
		}
		r, err := w.Right.fromWire()
		if err != nil {
			return nil, err
		}
		return UnionPred(l, r), nil
	case "Intersection":
		l, err := w.Left.fromWire()
		if err != nil {
			return nil, err
		}
		r, err := w.Right.fromWire()
		if err != nil {
			return nil, err
		}
		return IntersectionPred(l, r), nil
	case "Difference":
		l, err := w.Left.fromWire()
		if err != nil {
			return nil, err
		}
		r, err := w.Right.fromWire()
		if err != nil {
			return nil, err
		}
		return DifferencePred(l, r), nil
	default:
		return nil, fmt.Errorf("netcore: unknown predicate type %q", w.Type)
	}
}

// wireAction is the JSON envelope for an Action. Ports and Obs serialize
// as arrays per spec.md §6.
type wireAction struct {
	Switch int            `json:"switch"`
	Ports  []int          `json:"ports"`
	Modify map[string]int `json:"modify,omitempty"`
	Obs    []string       `json:"obs,omitempty"`
}

// MarshalJSON implements the Action envelope.
func (a *Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireAction{
		Switch: a.Switch,
		Ports:  a.Ports,
		Modify: a.Modify,
		Obs:    a.ObsLabels(),
	})
}

// UnmarshalJSON implements the Action envelope.
func (a *Action) UnmarshalJSON(data []byte) error {
	var w wireAction
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*a = *NewAction(w.Switch, w.Ports, w.Modify, w.Obs)
	return nil
}

// wirePolicy is the JSON envelope for a Policy.
type wirePolicy struct {
	Type    string         `json:"type"`
	Pred    *wirePredicate `json:"pred,omitempty"`
	Actions []*Action      `json:"actions,omitempty"`
	Left    *wirePolicy    `json:"left,omitempty"`
	Right   *wirePolicy    `json:"right,omitempty"`
}

// MarshalJSON implements the type-tagged policy envelope.
func (p *Policy) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.toWire())
}

func (p *Policy) toWire() *wirePolicy {
	if p == nil {
		return nil
	}
	w := &wirePolicy{Type: p.Kind.String()}
	switch p.Kind {
	case PolicyPrimitive:
		w.Pred = p.Pred.toWire()
		w.Actions = p.Actions
	case PolicyUnion:
		w.Left = p.Left.toWire()
		w.Right = p.Right.toWire()
	case PolicyRestriction:
		w.Left = p.Left.toWire()
		w.Pred = p.Pred.toWire()
	}
	return w
}

// UnmarshalJSON implements the type-tagged policy envelope.
func (p *Policy) UnmarshalJSON(data []byte) error {
	var w wirePolicy
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	built, err := w.fromWire()
	if err != nil {
		return err
	}
	*p = *built
	return nil
}

func (w *wirePolicy) fromWire() (*Policy, error) {
	if w == nil {
		return nil, nil
	}
	switch w.Type {
	case "Bottom":
		return BottomPolicy(), nil
	case "Primitive":
		pred, err := w.Pred.fromWire()
		if err != nil {
			return nil, err
		}
		return PrimitivePolicy(pred, w.Actions), nil
	case "Union":
		l, err := w.Left.fromWire()
		if err != nil {
			return nil, err
		}
		r, err := w.Right.fromWire()
		if err != nil {
			return nil, err
		}
		return UnionPolicy(l, r), nil
	case "Restriction":
		l, err := w.Left.fromWire()
		if err != nil {
			return nil, err
		}
		pred, err := w.Pred.fromWire()
		if err != nil {
			return nil, err
		}
		return Restrict(l, pred), nil
	default:
		return nil, fmt.Errorf("netcore: unknown policy type %q", w.Type)
	}
}
