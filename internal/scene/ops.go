package scene

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/AnatoleLucet/lyra/internal/signals"
)

const (
	// VisWidth and VisHeight hold the size of the whole visualization.
	VisWidth  = signals.Prefix + "_vis_width"
	VisHeight = signals.Prefix + "_vis_height"

	// DefaultSize is the initial width and height of a new scene.
	DefaultSize = 610
)

// CreateScene adds the root scene mark and defines its size signals.
func (d *Document) CreateScene(width, height int) (int, error) {
	if d.SceneID != 0 {
		return d.SceneID, nil
	}

	reg, err := d.Signals.Define(VisWidth, width)
	if err != nil {
		return 0, fmt.Errorf("create scene: %w", err)
	}
	reg, err = reg.Define(VisHeight, height)
	if err != nil {
		return 0, fmt.Errorf("create scene: %w", err)
	}

	id := d.nextID()
	d.Marks[id] = &Mark{
		ID:   id,
		Type: Scene,
		Name: "Scene",
		Encode: map[string]*ValueRef{
			"width":  {Signal: VisWidth},
			"height": {Signal: VisHeight},
		},
	}
	d.SceneID = id
	d.Signals = reg

	return id, nil
}

// AddMark inserts m as the last child of its parent container. The id is
// assigned here; an empty name defaults to "<Type> <id>".
func (d *Document) AddMark(m *Mark) (int, error) {
	parent, err := d.Mark(m.Parent)
	if err != nil {
		return 0, fmt.Errorf("add %s: %w", m.Type, err)
	}
	if !parent.Type.IsContainer() {
		return 0, fmt.Errorf("add %s: %w: mark %d is a %s", m.Type, ErrUnknownPrimitive, parent.ID, parent.Type)
	}

	m.ID = d.nextID()
	if m.Name == "" {
		m.Name = capitalize(string(m.Type)) + " " + strconv.Itoa(m.ID)
	}
	if m.Encode == nil {
		m.Encode = map[string]*ValueRef{}
	}

	d.Marks[m.ID] = m
	parent.Marks = append(parent.Marks, m.ID)

	return m.ID, nil
}

// DeleteMark removes a mark, its descendants and every signal they own.
// The removed signal names are returned in removal order.
func (d *Document) DeleteMark(id int) ([]string, error) {
	m, err := d.Mark(id)
	if err != nil {
		return nil, fmt.Errorf("delete mark: %w", err)
	}
	if m.Type == Scene {
		return nil, fmt.Errorf("delete mark: %w: the scene cannot be deleted", ErrUnknownPrimitive)
	}

	if parent, ok := d.Marks[m.Parent]; ok {
		parent.Marks = slices.DeleteFunc(parent.Marks, func(c int) bool { return c == id })
	}

	return d.deleteTree(m), nil
}

func (d *Document) deleteTree(m *Mark) []string {
	var removed []string
	for _, child := range slices.Clone(m.Marks) {
		if cm, ok := d.Marks[child]; ok {
			removed = append(removed, d.deleteTree(cm)...)
		}
	}

	reg, names := d.Signals.RemoveByOwner(string(m.Type), m.ID)
	d.Signals = reg
	delete(d.Marks, m.ID)

	return append(removed, names...)
}

func (d *Document) AddScale(s *Scale) int {
	s.ID = d.nextID()
	if s.Name == "" {
		s.Name = "scale_" + strconv.Itoa(s.ID)
	}
	d.Scales[s.ID] = s
	return s.ID
}

// DeleteScale removes a scale and its signals. Marks still encoded with
// the scale keep the dangling reference.
func (d *Document) DeleteScale(id int) ([]string, error) {
	if _, ok := d.Scales[id]; !ok {
		return nil, fmt.Errorf("delete scale: %w: scale %d", ErrUnknownPrimitive, id)
	}

	reg, names := d.Signals.RemoveByOwner("scale", id)
	d.Signals = reg
	delete(d.Scales, id)

	return names, nil
}

func (d *Document) AddDataset(ds *Dataset) int {
	ds.ID = d.nextID()
	if ds.Name == "" {
		ds.Name = "data_" + strconv.Itoa(ds.ID)
	}
	d.Datasets[ds.ID] = ds
	return ds.ID
}

// AddInteraction creates an empty interaction demonstrated in groupID.
func (d *Document) AddInteraction(groupID int) (int, error) {
	g, err := d.Mark(groupID)
	if err != nil {
		return 0, fmt.Errorf("add interaction: %w", err)
	}
	if g.Type != Group {
		return 0, fmt.Errorf("add interaction: %w: mark %d is a %s", ErrUnknownPrimitive, groupID, g.Type)
	}

	id := d.nextID()
	d.Interactions[id] = &Interaction{
		ID:      id,
		Name:    "Interaction " + strconv.Itoa(id),
		GroupID: groupID,
	}
	return id, nil
}

func (d *Document) DeleteInteraction(id int) error {
	if _, ok := d.Interactions[id]; !ok {
		return fmt.Errorf("delete interaction: %w: interaction %d", ErrUnknownPrimitive, id)
	}
	delete(d.Interactions, id)
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SetVisual replaces the encoding of one property of a mark.
func (d *Document) SetVisual(id int, prop string, ref *ValueRef) error {
	m, err := d.Mark(id)
	if err != nil {
		return fmt.Errorf("set %s: %w", prop, err)
	}
	if m.Encode == nil {
		m.Encode = map[string]*ValueRef{}
	}

	m.Encode[prop] = ref
	return nil
}

// Resolve returns the value an encode channel starts with, following
// signal references through the registry.
func (d *Document) Resolve(ref *ValueRef) any {
	if ref == nil {
		return nil
	}
	if ref.Signal != "" {
		if s, ok := d.Signals.Get(ref.Signal); ok {
			return s.Init
		}
		return nil
	}
	return ref.Value
}
