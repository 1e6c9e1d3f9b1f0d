package demo

import (
	"errors"
	"fmt"
	"slices"

	"github.com/AnatoleLucet/lyra/internal/scene"
)

// ErrMissingFieldData is returned when the fields of a group's data cannot
// be looked up. Callers degrade to an empty field list.
var ErrMissingFieldData = errors.New("demo: missing field data")

// FieldLookup returns the field names of a dataset.
type FieldLookup func(datasetID int) ([]string, bool)

// SchemaLookup reads fields from the dataset schemas of doc.
func SchemaLookup(doc *scene.Document) FieldLookup {
	return func(id int) ([]string, bool) {
		ds, ok := doc.Datasets[id]
		if !ok {
			return nil, false
		}
		return ds.Fields, true
	}
}

// Context is everything candidate generation looks at.
type Context struct {
	GroupID int

	// Groups are all group marks in ascending id order, MarksOfGroups their
	// drawable marks.
	Groups        []*scene.Mark
	MarksOfGroups map[int][]*scene.Mark

	Datasets  map[int]*scene.Dataset
	ScaleInfo scene.ScaleInfo
	Fields    []string

	// Selection is the interaction's confirmed selection, if any.
	Selection scene.Selection
	Kind      Kind

	// Resolve returns the starting value of an encode channel. Nil reads
	// literal values only.
	Resolve func(*scene.ValueRef) any
}

// NewContext gathers the context of interaction id from doc. A failing
// field lookup is reported along with a context whose Fields are empty.
func NewContext(doc *scene.Document, id int, lookup FieldLookup) (Context, error) {
	in, err := doc.Interaction(id)
	if err != nil {
		return Context{}, err
	}

	ctx := Context{
		GroupID:       in.GroupID,
		Groups:        doc.Groups(),
		MarksOfGroups: map[int][]*scene.Mark{},
		Datasets:      doc.Datasets,
		ScaleInfo:     doc.ScaleInfo(in.GroupID),
		Selection:     in.Selection,
		Kind:          KindOf(in.Input),
		Resolve:       doc.Resolve,
	}
	for _, g := range ctx.Groups {
		ctx.MarksOfGroups[g.ID] = doc.MarksOfGroup(g.ID)
	}

	ctx.Fields, err = FieldsOfGroup(ctx.MarksOfGroups[in.GroupID], lookup)
	return ctx, err
}

// FieldsOfGroup returns the fields of the data the group's first mark is drawn from.
// A group without marks, or whose first mark is not data driven, has no fields.
func FieldsOfGroup(marks []*scene.Mark, lookup FieldLookup) ([]string, error) {
	if len(marks) == 0 || marks[0].From == nil || marks[0].From.Data == 0 {
		return nil, nil
	}

	fields, ok := lookup(marks[0].From.Data)
	if !ok {
		return nil, fmt.Errorf("%w: dataset %d of mark %d", ErrMissingFieldData, marks[0].From.Data, marks[0].ID)
	}
	return fields, nil
}

var (
	brush  = scene.IntervalSelection{Preview: scene.Preview{ID: "brush", Label: "Brush"}, Field: scene.AxisXY}
	brushY = scene.IntervalSelection{Preview: scene.Preview{ID: "brush_y", Label: "Brush (y-axis)"}, Field: scene.AxisY}
	brushX = scene.IntervalSelection{Preview: scene.Preview{ID: "brush_x", Label: "Brush (x-axis)"}, Field: scene.AxisX}
)

// Previews returns the selection and application candidates of a demonstration.
// Both lists are empty while the kind is unset.
func Previews(ctx Context) ([]scene.Selection, []scene.Application) {
	if ctx.Kind == Unset {
		return nil, nil
	}

	marks := ctx.MarksOfGroups[ctx.GroupID]
	return selectionPreviews(ctx, marks), applicationPreviews(ctx, marks)
}

func selectionPreviews(ctx Context, marks []*scene.Mark) []scene.Selection {
	if ctx.Kind == Point {
		field := ""
		if len(ctx.Fields) > 0 {
			field = ctx.Fields[0]
		}
		if p, ok := ctx.Selection.(scene.PointSelection); ok && p.Projected() {
			field = p.Field
		}

		return []scene.Selection{
			scene.PointSelection{Preview: scene.Preview{ID: "single", Label: "Single point"}, PointType: scene.Single, Field: scene.RowID},
			scene.PointSelection{Preview: scene.Preview{ID: "multi", Label: "Multi point"}, PointType: scene.Multi, Field: scene.RowID},
			scene.PointSelection{Preview: scene.Preview{ID: "single_project", Label: "Single point (by field)"}, PointType: scene.Single, Field: field},
			scene.PointSelection{Preview: scene.Preview{ID: "multi_project", Label: "Multi point (by field)"}, PointType: scene.Multi, Field: field},
		}
	}

	info := ctx.ScaleInfo
	var defs []scene.IntervalSelection

	if hasType(marks, scene.Symbol) {
		if info.XScaleType != scene.ScaleNone && info.YScaleType != scene.ScaleNone {
			defs = append(defs, brush)
		}
		if info.YScaleType != scene.ScaleNone {
			defs = append(defs, brushY)
		}
		if info.XScaleType != scene.ScaleNone {
			defs = append(defs, brushX)
		}
	}
	if hasType(marks, scene.Rect) {
		if info.XScaleType == scene.Discrete {
			defs = append(defs, brushX)
		}
		if info.YScaleType == scene.Discrete {
			defs = append(defs, brushY)
		}
	}
	if i := slices.IndexFunc(marks, func(m *scene.Mark) bool { return m.Type == scene.Area }); i >= 0 {
		switch ctx.resolve(marks[i].Encode["orient"]) {
		case "vertical":
			if info.XScaleType != scene.ScaleNone {
				defs = append(defs, brushX)
			}
		case "horizontal":
			if info.YScaleType != scene.ScaleNone {
				defs = append(defs, brushY)
			}
		}
	}
	// line marks have no interval candidates

	var out []scene.Selection
	seen := map[string]bool{}
	for _, d := range defs {
		if seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		out = append(out, d)
	}
	return out
}

func applicationPreviews(ctx Context, marks []*scene.Mark) []scene.Application {
	var defs []scene.Application
	kind := ctx.Kind.String()

	if len(marks) > 0 {
		mark := marks[0]
		target := scene.ExportName(mark.Name)

		defs = append(defs,
			scene.MarkApplication{Preview: scene.Preview{ID: "color_" + kind, Label: "Color"}, TargetMarkName: target, PropertyName: "fill", DefaultValue: "#797979"},
			scene.MarkApplication{Preview: scene.Preview{ID: "opacity_" + kind, Label: "Opacity"}, TargetMarkName: target, PropertyName: "opacity", DefaultValue: "0.2"},
		)
		if mark.Type == scene.Symbol {
			defs = append(defs, scene.MarkApplication{Preview: scene.Preview{ID: "size_" + kind, Label: "Size"}, TargetMarkName: target, PropertyName: "size", DefaultValue: 30})
		}
	}

	if ctx.Kind == Interval {
		defs = append(defs, scene.ScaleApplication{Preview: scene.Preview{ID: "panzoom", Label: "Pan and zoom"}, ScaleInfo: ctx.ScaleInfo})
	}

	for _, g := range ctx.Groups {
		if g.ID == ctx.GroupID {
			continue
		}

		i := slices.IndexFunc(ctx.MarksOfGroups[g.ID], func(m *scene.Mark) bool { return m.From != nil && m.From.Data != 0 })
		if i < 0 {
			continue
		}
		mark := ctx.MarksOfGroups[g.ID][i]
		ds, ok := ctx.Datasets[mark.From.Data]
		if !ok {
			continue
		}

		groupName := scene.ExportName(g.Name)
		defs = append(defs, scene.TransformApplication{
			Preview:         scene.Preview{ID: "filter_" + groupName + "_" + kind, Label: "Filter " + g.Name},
			TargetGroupName: groupName,
			TargetMarkName:  scene.ExportName(mark.Name),
			DatasetName:     ds.Name,
		})
	}

	return defs
}

func (ctx Context) resolve(ref *scene.ValueRef) any {
	if ctx.Resolve != nil {
		return ctx.Resolve(ref)
	}
	if ref == nil {
		return nil
	}
	return ref.Value
}

func hasType(marks []*scene.Mark, typ scene.MarkType) bool {
	return slices.ContainsFunc(marks, func(m *scene.Mark) bool { return m.Type == typ })
}
