// Package scene holds the editor's document: marks, scales, datasets and
// interactions, together with the signal registry they compile into.
package scene

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"

	cerrors "cogentcore.org/core/base/errors"
	"github.com/jinzhu/copier"

	"github.com/AnatoleLucet/lyra/internal/signals"
)

// ErrUnknownPrimitive is returned when an id does not resolve to a primitive of the expected kind.
var ErrUnknownPrimitive = errors.New("scene: unknown primitive")

type MarkType string

const (
	Scene  MarkType = "scene"
	Group  MarkType = "group"
	Rect   MarkType = "rect"
	Symbol MarkType = "symbol"
	Area   MarkType = "area"
	Line   MarkType = "line"
	Text   MarkType = "text"
)

// IsContainer reports whether marks of this type hold other marks.
func (t MarkType) IsContainer() bool {
	return t == Scene || t == Group
}

// ValueRef is one encoding channel of a mark.
type ValueRef struct {
	Value  any    `json:"value,omitempty"`
	Signal string `json:"signal,omitempty"`
	Field  string `json:"field,omitempty"`
	Scale  string `json:"scale,omitempty"`
}

// Literal reports whether the channel holds a constant value.
func (v *ValueRef) Literal() bool {
	return v != nil && v.Value != nil && v.Signal == "" && v.Field == "" && v.Scale == ""
}

type From struct {
	Data int `json:"data"`
}

type Mark struct {
	ID     int                  `json:"_id"`
	Parent int                  `json:"_parent"`
	Type   MarkType             `json:"type"`
	Name   string               `json:"name"`
	From   *From                `json:"from,omitempty"`
	Encode map[string]*ValueRef `json:"encode,omitempty"`

	// Marks lists the children of scene and group marks, in drawing order.
	Marks []int `json:"marks,omitempty"`
}

// Ref is the typed identity of a mark, used wherever the view reports
// which item a gesture landed on.
type Ref struct {
	Type MarkType `json:"type"`
	ID   int      `json:"id"`
}

// Role is the role string the mark is compiled with.
func (r Ref) Role() string {
	return signals.Prefix + "_" + strconv.Itoa(r.ID)
}

func (m *Mark) Ref() Ref {
	return Ref{Type: m.Type, ID: m.ID}
}

type ScaleType string

const (
	Linear  ScaleType = "linear"
	Log     ScaleType = "log"
	Pow     ScaleType = "pow"
	Sqrt    ScaleType = "sqrt"
	Time    ScaleType = "time"
	UTC     ScaleType = "utc"
	Band    ScaleType = "band"
	Point   ScaleType = "point"
	Ordinal ScaleType = "ordinal"
)

// Simple collapses the scale type into continuous or discrete.
func (t ScaleType) Simple() ScaleSimpleType {
	switch t {
	case "":
		return ScaleNone
	case Band, Point, Ordinal:
		return Discrete
	default:
		return Continuous
	}
}

type Domain struct {
	Data  int    `json:"data"`
	Field string `json:"field"`
}

type Scale struct {
	ID     int       `json:"_id"`
	Name   string    `json:"name"`
	Type   ScaleType `json:"type"`
	Domain *Domain   `json:"domain,omitempty"`
	Range  string    `json:"range,omitempty"`

	// Exponent of a pow scale. Zero means 1.
	Exponent float64 `json:"exponent,omitempty"`
}

type Dataset struct {
	ID   int    `json:"_id"`
	Name string `json:"name"`

	// Fields is the dataset schema, in source column order.
	Fields []string         `json:"fields"`
	Values []map[string]any `json:"values,omitempty"`
}

type Interaction struct {
	ID   int    `json:"id"`
	Name string `json:"name"`

	// GroupID is the group the interaction is demonstrated in. The document
	// does not keep interactions in sync with group deletion.
	GroupID int `json:"groupId"`

	Input       *Input      `json:"input,omitempty"`
	Selection   Selection   `json:"selection,omitempty"`
	Application Application `json:"application,omitempty"`
}

// Document is the whole visual document.
type Document struct {
	Marks        map[int]*Mark
	Scales       map[int]*Scale
	Datasets     map[int]*Dataset
	Interactions map[int]*Interaction

	// Signals is immutable and shared between clones.
	Signals *signals.Registry

	// SceneID is the id of the root scene mark, 0 until a scene is created.
	SceneID int
	NextID  int
}

func New() *Document {
	return &Document{
		Marks:        map[int]*Mark{},
		Scales:       map[int]*Scale{},
		Datasets:     map[int]*Dataset{},
		Interactions: map[int]*Interaction{},
		Signals:      signals.New(),
		NextID:       1,
	}
}

// Clone returns a deep copy of the document that shares nothing mutable with d.
func (d *Document) Clone() *Document {
	c := &Document{
		Marks:        make(map[int]*Mark, len(d.Marks)),
		Scales:       make(map[int]*Scale, len(d.Scales)),
		Datasets:     make(map[int]*Dataset, len(d.Datasets)),
		Interactions: make(map[int]*Interaction, len(d.Interactions)),
		Signals:      d.Signals,
		SceneID:      d.SceneID,
		NextID:       d.NextID,
	}

	opt := copier.Option{DeepCopy: true, IgnoreEmpty: true}
	for id, m := range d.Marks {
		cm := &Mark{}
		cerrors.Log(copier.CopyWithOption(cm, m, opt))
		c.Marks[id] = cm
	}
	for id, s := range d.Scales {
		cs := &Scale{}
		cerrors.Log(copier.CopyWithOption(cs, s, opt))
		c.Scales[id] = cs
	}
	for id, ds := range d.Datasets {
		cds := &Dataset{}
		cerrors.Log(copier.CopyWithOption(cds, ds, opt))
		c.Datasets[id] = cds
	}
	// selection and application records are immutable values
	for id, in := range d.Interactions {
		ci := *in
		if in.Input != nil {
			input := *in.Input
			ci.Input = &input
		}
		c.Interactions[id] = &ci
	}

	return c
}

func (d *Document) nextID() int {
	id := d.NextID
	d.NextID++
	return id
}

func (d *Document) Mark(id int) (*Mark, error) {
	m, ok := d.Marks[id]
	if !ok {
		return nil, fmt.Errorf("%w: mark %d", ErrUnknownPrimitive, id)
	}
	return m, nil
}

func (d *Document) Interaction(id int) (*Interaction, error) {
	in, ok := d.Interactions[id]
	if !ok {
		return nil, fmt.Errorf("%w: interaction %d", ErrUnknownPrimitive, id)
	}
	return in, nil
}

// MarkByName finds a mark by its exported name.
func (d *Document) MarkByName(name string) (*Mark, bool) {
	for _, id := range sortedKeys(d.Marks) {
		if m := d.Marks[id]; ExportName(m.Name) == name {
			return m, true
		}
	}
	return nil, false
}

func (d *Document) ScaleByName(name string) (*Scale, bool) {
	for _, id := range sortedKeys(d.Scales) {
		if s := d.Scales[id]; s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Groups returns the group marks ordered by id.
func (d *Document) Groups() []*Mark {
	var groups []*Mark
	for _, id := range sortedKeys(d.Marks) {
		if m := d.Marks[id]; m.Type == Group {
			groups = append(groups, m)
		}
	}
	return groups
}

// MarksOfGroup returns the drawable children of a group: nested groups and
// the editor's own manipulator marks are left out.
func (d *Document) MarksOfGroup(groupID int) []*Mark {
	g, ok := d.Marks[groupID]
	if !ok {
		return nil
	}

	var marks []*Mark
	for _, id := range g.Marks {
		m, ok := d.Marks[id]
		if !ok || m.Type.IsContainer() || strings.HasPrefix(m.Name, signals.Prefix) {
			continue
		}
		marks = append(marks, m)
	}
	return marks
}

// Fields returns the schema of a dataset, nil if it is unknown.
func (d *Document) Fields(datasetID int) []string {
	if ds, ok := d.Datasets[datasetID]; ok {
		return ds.Fields
	}
	return nil
}

// ExportName turns a user facing name into an identifier usable in the
// generated specification.
func ExportName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return '_'
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			return r
		default:
			return -1
		}
	}, name)
}

func sortedKeys[V any](m map[int]V) []int {
	return slices.Sorted(maps.Keys(m))
}

// ScaleInfo finds the positional scales and fields the marks of a group are
// encoded with. The first mark encoding an axis with a scale wins.
func (d *Document) ScaleInfo(groupID int) ScaleInfo {
	var info ScaleInfo

	for _, m := range d.MarksOfGroup(groupID) {
		if info.XScaleName == "" {
			info.XScaleName, info.XFieldName, info.XScaleType = d.axis(m, "x")
		}
		if info.YScaleName == "" {
			info.YScaleName, info.YFieldName, info.YScaleType = d.axis(m, "y")
		}
	}

	return info
}

func (d *Document) axis(m *Mark, channel string) (string, string, ScaleSimpleType) {
	ref := m.Encode[channel]
	if ref == nil || ref.Scale == "" {
		return "", "", ScaleNone
	}

	s, ok := d.ScaleByName(ref.Scale)
	if !ok {
		return ref.Scale, ref.Field, ScaleNone
	}
	return s.Name, ref.Field, s.Type.Simple()
}
