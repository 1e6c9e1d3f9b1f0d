// Package vega compiles the editor document into a Vega specification.
package vega

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/Masterminds/semver/v3"

	"github.com/AnatoleLucet/lyra/internal/scene"
	"github.com/AnatoleLucet/lyra/internal/signals"
)

// ErrNoScene is returned when compiling a document without a scene.
var ErrNoScene = errors.New("vega: document has no scene")

// DefaultVersion is the grammar version compiled for when none is configured.
var DefaultVersion = semver.MustParse("5.0.0")

// rowIDTransform assigns the tuple ids point selections match on.
const rowIDTransform = "identifier"

type Options struct {
	Version *semver.Version
}

// SchemaURL is the $schema of specifications targeting version v.
func SchemaURL(v *semver.Version) string {
	if v == nil {
		v = DefaultVersion
	}
	return fmt.Sprintf("https://vega.github.io/schema/vega/v%d.json", v.Major())
}

var refPattern = regexp.MustCompile(`\{\{#([^}]+)\}\}`)

// ResolveRefs replaces every {{#name}} reference in expr by the bare signal name.
func ResolveRefs(expr string) string {
	return refPattern.ReplaceAllString(expr, "$1")
}

type compiler struct {
	doc  *scene.Document
	spec *Spec
}

// Compile builds the specification of doc: registry signals, datasets,
// scales, the mark tree, the demonstration signals of every group holding
// an interaction, and the signals, stores and rules of every interaction
// with a confirmed selection.
func Compile(doc *scene.Document, opts Options) (*Spec, error) {
	root, ok := doc.Marks[doc.SceneID]
	if !ok || root.Type != scene.Scene {
		return nil, ErrNoScene
	}

	c := &compiler{
		doc: doc,
		spec: &Spec{
			Schema: SchemaURL(opts.Version),
			Width:  SignalRef{scene.VisWidth},
			Height: SignalRef{scene.VisHeight},
		},
	}

	c.signals()
	c.data()
	if err := c.scales(); err != nil {
		return nil, err
	}

	for _, id := range root.Marks {
		m, err := c.mark(id)
		if err != nil {
			return nil, err
		}
		c.spec.Marks = append(c.spec.Marks, m)
	}

	c.demonstrations()
	for _, id := range slices.Sorted(maps.Keys(doc.Interactions)) {
		if err := c.interaction(doc.Interactions[id]); err != nil {
			return nil, err
		}
	}

	return c.spec, nil
}

// Marshal compiles doc and encodes it as JSON.
func Marshal(doc *scene.Document, opts Options) (json.RawMessage, error) {
	spec, err := Compile(doc, opts)
	if err != nil {
		return nil, err
	}
	return json.Marshal(spec)
}

func (c *compiler) signals() {
	for _, s := range c.doc.Signals.All() {
		sig := Signal{Name: s.Name, Value: s.Init}
		for _, st := range s.Streams {
			sig.On = append(sig.On, Handler{Events: events(st.Events), Update: ResolveRefs(st.Update)})
		}
		c.spec.Signals = append(c.spec.Signals, sig)
	}
}

func events(es signals.EventSource) any {
	if es.Signal != "" {
		return Stream{Signal: es.Signal}
	}
	return es.Type
}

func (c *compiler) data() {
	for _, id := range slices.Sorted(maps.Keys(c.doc.Datasets)) {
		ds := c.doc.Datasets[id]
		c.spec.Data = append(c.spec.Data, Data{
			Name:      ds.Name,
			Values:    ds.Values,
			Transform: []Transform{{Type: rowIDTransform, As: scene.RowID}},
		})
	}
}

func (c *compiler) scales() error {
	for _, id := range slices.Sorted(maps.Keys(c.doc.Scales)) {
		s := c.doc.Scales[id]
		out := Scale{Name: s.Name, Type: string(s.Type)}
		if s.Type == scene.Pow {
			out.Exponent = s.Exponent
		}

		if s.Domain != nil {
			ds, ok := c.doc.Datasets[s.Domain.Data]
			if !ok {
				return fmt.Errorf("scale %q: %w: dataset %d", s.Name, scene.ErrUnknownPrimitive, s.Domain.Data)
			}
			out.Domain = map[string]any{"data": ds.Name, "field": s.Domain.Field}
		}
		if s.Range != "" {
			out.Range = s.Range
		}

		c.spec.Scales = append(c.spec.Scales, out)
	}
	return nil
}

func (c *compiler) mark(id int) (Mark, error) {
	m, err := c.doc.Mark(id)
	if err != nil {
		return Mark{}, err
	}

	out := Mark{
		Type: string(m.Type),
		Name: scene.ExportName(m.Name),
		Role: m.Ref().Role(),
	}

	if m.From != nil && m.From.Data != 0 {
		ds, ok := c.doc.Datasets[m.From.Data]
		if !ok {
			return Mark{}, fmt.Errorf("mark %q: %w: dataset %d", m.Name, scene.ErrUnknownPrimitive, m.From.Data)
		}
		out.From = &From{Data: ds.Name}
	}

	if len(m.Encode) > 0 {
		update := make(map[string]any, len(m.Encode))
		for prop, ref := range m.Encode {
			update[prop] = valueRef(ref)
		}
		out.Encode = Encode{"update": update}
	}

	for _, child := range m.Marks {
		cm, err := c.mark(child)
		if err != nil {
			return Mark{}, err
		}
		out.Marks = append(out.Marks, cm)
	}

	return out, nil
}

func valueRef(ref *scene.ValueRef) map[string]any {
	out := map[string]any{}
	if ref == nil {
		return out
	}

	switch {
	case ref.Signal != "":
		out["signal"] = ResolveRefs(ref.Signal)
	case ref.Field != "" || ref.Scale != "":
		if ref.Field != "" {
			out["field"] = ref.Field
		}
		if ref.Scale != "" {
			out["scale"] = ref.Scale
		}
	default:
		out["value"] = ref.Value
	}
	return out
}

// group finds a compiled group mark by name, depth first.
func group(marks []Mark, name string) *Mark {
	for i := range marks {
		m := &marks[i]
		if m.Type == string(scene.Group) && m.Name == name {
			return m
		}
		if g := group(m.Marks, name); g != nil {
			return g
		}
	}
	return nil
}

// child finds a direct child mark by name.
func child(g *Mark, name string) *Mark {
	for i := range g.Marks {
		if g.Marks[i].Name == name {
			return &g.Marks[i]
		}
	}
	return nil
}
