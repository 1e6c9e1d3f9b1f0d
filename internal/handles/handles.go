// Package handles compiles the direct manipulation handles of a mark into
// signal streams: dragging a mark (or one of its edge handles) rewrites the
// signals backing its geometric properties by the pointer delta.
package handles

import (
	"fmt"
	"maps"
	"slices"

	"github.com/AnatoleLucet/lyra/internal/scene"
	"github.com/AnatoleLucet/lyra/internal/signals"
)

// Anchor is the part of a mark a drag starts on.
type Anchor string

const (
	Body   Anchor = ""
	Left   Anchor = "left"
	Right  Anchor = "right"
	Top    Anchor = "top"
	Bottom Anchor = "bottom"
)

// Case updates a property by Delta when the drag is anchored on Anchor.
type Case struct {
	Anchor Anchor
	// Delta is appended to the property's own signal, e.g. "+ lyra_delta.x".
	Delta string
}

// Property lists the cases of one geometric property, most specific first.
type Property struct {
	Name  string
	Cases []Case
}

var (
	plusX  = "+ " + signals.Delta + ".x"
	minusX = "- " + signals.Delta + ".x"
	plusY  = "+ " + signals.Delta + ".y"
	minusY = "- " + signals.Delta + ".y"
)

var box = []Property{
	{"x", []Case{{Left, plusX}, {Body, plusX}}},
	{"xc", []Case{{Left, plusX}, {Body, plusX}}},
	{"x2", []Case{{Right, plusX}, {Body, plusX}}},
	{"y", []Case{{Top, plusY}, {Body, plusY}}},
	{"yc", []Case{{Top, plusY}, {Body, plusY}}},
	{"y2", []Case{{Bottom, plusY}, {Body, plusY}}},
	{"width", []Case{{Left, minusX}, {Right, plusX}}},
	{"height", []Case{{Top, minusY}, {Bottom, plusY}}},
}

var position = []Property{
	{"x", []Case{{Body, plusX}}},
	{"y", []Case{{Body, plusY}}},
}

// Properties holds the handle behavior of every mark type.
var Properties = map[scene.MarkType][]Property{
	scene.Group: box,
	scene.Rect:  box,
	scene.Area:  box,
	scene.Symbol: append(slices.Clone(position), Property{"size", []Case{
		{Left, minusX}, {Right, plusX}, {Top, minusY}, {Bottom, plusY},
	}}),
	scene.Line: position,
	scene.Text: append(slices.Clone(position), Property{"fontSize", []Case{
		{Bottom, plusY}, {Top, minusY},
	}}),
}

// Condition is the expression testing that the current drag is anchored on
// the given part of mark id.
func Condition(id int, a Anchor) string {
	target := signals.Anchor + ".target"
	cond := fmt.Sprintf("%s && %s && %s.role === %q", signals.Anchor, target, target, scene.Ref{ID: id}.Role())
	if a != Body {
		cond += fmt.Sprintf(" && %s.key === %q", target, string(a))
	}
	return cond
}

// Compile folds the cases into nested conditionals falling back to the
// signal's current value.
func Compile(id int, signal string, cases []Case) string {
	expr := signal
	for _, c := range slices.Backward(cases) {
		expr = fmt.Sprintf("(%s) ? (%s %s) : (%s)", Condition(id, c.Anchor), signal, c.Delta, expr)
	}
	return expr
}

// Handle is the compiled stream of one property signal.
type Handle struct {
	Property string
	Signal   string
	Stream   signals.Stream
}

// Streams returns the handle streams of a mark in property order.
func Streams(m *scene.Mark) []Handle {
	props := Properties[m.Type]

	out := make([]Handle, 0, len(props))
	for _, p := range props {
		name := signals.PropName(string(m.Type), m.ID, p.Name)
		out = append(out, Handle{
			Property: p.Name,
			Signal:   name,
			Stream: signals.Stream{
				Events: signals.EventSource{Signal: signals.Delta},
				Update: Compile(m.ID, name, p.Cases),
			},
		})
	}
	return out
}

// Instantiate defines a signal for every literal encode property of m,
// points the encoding at it, and attaches the handle streams to the
// signals that exist. Properties already bound to a signal, field or scale
// are left alone. On error neither reg nor m is changed.
func Instantiate(reg *signals.Registry, m *scene.Mark) (*signals.Registry, error) {
	props := make([]string, 0, len(m.Encode))
	for prop, ref := range m.Encode {
		if ref.Literal() {
			props = append(props, prop)
		}
	}
	slices.Sort(props)

	next := reg
	bound := make(map[string]*scene.ValueRef, len(props))

	var err error
	for _, prop := range props {
		name := signals.PropName(string(m.Type), m.ID, prop)
		if next, err = next.Define(name, m.Encode[prop].Value); err != nil {
			return reg, fmt.Errorf("instantiate %s %d: %w", m.Type, m.ID, err)
		}
		bound[prop] = &scene.ValueRef{Signal: name}
	}

	for _, h := range Streams(m) {
		if !next.Has(h.Signal) {
			continue
		}
		if next, err = next.SetStreams(h.Signal, []signals.Stream{h.Stream}); err != nil {
			return reg, fmt.Errorf("instantiate %s %d: %w", m.Type, m.ID, err)
		}
	}

	maps.Copy(m.Encode, bound)
	return next, nil
}
