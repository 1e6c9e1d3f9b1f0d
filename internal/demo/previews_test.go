package demo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnatoleLucet/lyra/internal/scene"
)

func ids[T interface{ Info() scene.Preview }](records []T) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.Info().ID)
	}
	return out
}

func groupContext(kind Kind, marks ...*scene.Mark) Context {
	return Context{
		GroupID:       1,
		Groups:        []*scene.Mark{{ID: 1, Type: scene.Group, Name: "Group 1"}},
		MarksOfGroups: map[int][]*scene.Mark{1: marks},
		Kind:          kind,
	}
}

func TestPreviews(t *testing.T) {
	t.Run("unset kind has no candidates", func(t *testing.T) {
		sels, apps := Previews(groupContext(Unset, &scene.Mark{ID: 2, Type: scene.Symbol, Name: "Symbol 2"}))
		assert.Empty(t, sels)
		assert.Empty(t, apps)
	})

	t.Run("symbol with both scales", func(t *testing.T) {
		ctx := groupContext(Interval, &scene.Mark{ID: 2, Type: scene.Symbol, Name: "Symbol 2"})
		ctx.ScaleInfo = scene.ScaleInfo{XScaleType: scene.Continuous, YScaleType: scene.Continuous}

		sels, apps := Previews(ctx)
		assert.Equal(t, []string{"brush", "brush_y", "brush_x"}, ids(sels))
		assert.Equal(t, []string{"color_interval", "opacity_interval", "size_interval", "panzoom"}, ids(apps))
	})

	t.Run("duplicates keep the first occurrence", func(t *testing.T) {
		ctx := groupContext(Interval,
			&scene.Mark{ID: 2, Type: scene.Rect, Name: "Rect 2"},
			&scene.Mark{ID: 3, Type: scene.Symbol, Name: "Symbol 3"},
		)
		ctx.ScaleInfo = scene.ScaleInfo{XScaleType: scene.Discrete, YScaleType: scene.Discrete}

		sels, _ := Previews(ctx)
		assert.Equal(t, []string{"brush", "brush_y", "brush_x"}, ids(sels))
	})

	t.Run("rect needs discrete scales", func(t *testing.T) {
		ctx := groupContext(Interval, &scene.Mark{ID: 2, Type: scene.Rect, Name: "Rect 2"})
		ctx.ScaleInfo = scene.ScaleInfo{XScaleType: scene.Discrete, YScaleType: scene.Continuous}

		sels, apps := Previews(ctx)
		assert.Equal(t, []string{"brush_x"}, ids(sels))
		assert.Equal(t, []string{"color_interval", "opacity_interval", "panzoom"}, ids(apps))
	})

	t.Run("area follows its orientation", func(t *testing.T) {
		area := &scene.Mark{ID: 2, Type: scene.Area, Name: "Area 2", Encode: map[string]*scene.ValueRef{
			"orient": {Signal: "lyra_area_2_orient"},
		}}
		ctx := groupContext(Interval, area)
		ctx.ScaleInfo = scene.ScaleInfo{XScaleType: scene.Continuous, YScaleType: scene.Continuous}

		ctx.Resolve = func(*scene.ValueRef) any { return "vertical" }
		sels, _ := Previews(ctx)
		assert.Equal(t, []string{"brush_x"}, ids(sels))

		ctx.Resolve = func(*scene.ValueRef) any { return "horizontal" }
		sels, _ = Previews(ctx)
		assert.Equal(t, []string{"brush_y"}, ids(sels))
	})

	t.Run("line has no interval candidates", func(t *testing.T) {
		ctx := groupContext(Interval, &scene.Mark{ID: 2, Type: scene.Line, Name: "Line 2"})
		ctx.ScaleInfo = scene.ScaleInfo{XScaleType: scene.Continuous, YScaleType: scene.Continuous}

		sels, _ := Previews(ctx)
		assert.Empty(t, sels)
	})

	t.Run("by-field candidates default to the first field", func(t *testing.T) {
		ctx := groupContext(Point, &scene.Mark{ID: 2, Type: scene.Symbol, Name: "Symbol 2"})
		ctx.Fields = []string{"a", "b", "c"}

		sels, apps := Previews(ctx)
		require.Equal(t, []string{"single", "multi", "single_project", "multi_project"}, ids(sels))
		assert.Equal(t, scene.RowID, sels[0].(scene.PointSelection).Field)
		assert.Equal(t, scene.RowID, sels[1].(scene.PointSelection).Field)
		assert.Equal(t, "a", sels[2].(scene.PointSelection).Field)
		assert.Equal(t, scene.Multi, sels[3].(scene.PointSelection).PointType)
		assert.Equal(t, "a", sels[3].(scene.PointSelection).Field)
		assert.Equal(t, []string{"color_point", "opacity_point", "size_point"}, ids(apps))
	})

	t.Run("a chosen field is preserved", func(t *testing.T) {
		ctx := groupContext(Point, &scene.Mark{ID: 2, Type: scene.Symbol, Name: "Symbol 2"})
		ctx.Fields = []string{"a", "b", "c"}
		ctx.Selection = scene.PointSelection{Preview: scene.Preview{ID: "single_project"}, PointType: scene.Single, Field: "b"}

		sels, _ := Previews(ctx)
		assert.Equal(t, "b", sels[2].(scene.PointSelection).Field)
		assert.Equal(t, "b", sels[3].(scene.PointSelection).Field)

		ctx.Selection = scene.PointSelection{Preview: scene.Preview{ID: "single"}, PointType: scene.Single, Field: scene.RowID}
		sels, _ = Previews(ctx)
		assert.Equal(t, "a", sels[2].(scene.PointSelection).Field)
	})

	t.Run("missing field data leaves the field empty", func(t *testing.T) {
		sels, _ := Previews(groupContext(Point, &scene.Mark{ID: 2, Type: scene.Symbol, Name: "Symbol 2"}))
		assert.Equal(t, "", sels[2].(scene.PointSelection).Field)
	})

	t.Run("filters other groups drawn from data", func(t *testing.T) {
		ctx := groupContext(Point, &scene.Mark{ID: 2, Type: scene.Rect, Name: "Rect 2"})
		ctx.Groups = append(ctx.Groups,
			&scene.Mark{ID: 5, Type: scene.Group, Name: "Group 5"},
			&scene.Mark{ID: 6, Type: scene.Group, Name: "Group 6"},
			&scene.Mark{ID: 8, Type: scene.Group, Name: "Group 8"},
		)
		ctx.MarksOfGroups[5] = []*scene.Mark{
			{ID: 9, Type: scene.Text, Name: "Title"},
			{ID: 10, Type: scene.Symbol, Name: "Symbol 10", From: &scene.From{Data: 4}},
		}
		ctx.MarksOfGroups[6] = []*scene.Mark{{ID: 11, Type: scene.Rect, Name: "Rect 11"}}
		ctx.MarksOfGroups[8] = []*scene.Mark{{ID: 12, Type: scene.Rect, Name: "Rect 12", From: &scene.From{Data: 4}}}
		ctx.Datasets = map[int]*scene.Dataset{4: {ID: 4, Name: "cars"}}

		_, apps := Previews(ctx)
		require.Equal(t, []string{"color_point", "opacity_point", "filter_Group_5_point", "filter_Group_8_point"}, ids(apps))
		assert.Equal(t, scene.TransformApplication{
			Preview:         scene.Preview{ID: "filter_Group_5_point", Label: "Filter Group 5"},
			TargetGroupName: "Group_5",
			TargetMarkName:  "Symbol_10",
			DatasetName:     "cars",
		}, apps[2])
	})
}

func TestNewContext(t *testing.T) {
	d := scene.New()
	sceneID, err := d.CreateScene(scene.DefaultSize, scene.DefaultSize)
	require.NoError(t, err)
	groupID, err := d.AddMark(&scene.Mark{Parent: sceneID, Type: scene.Group})
	require.NoError(t, err)
	dsID := d.AddDataset(&scene.Dataset{Name: "cars", Fields: []string{"Horsepower", "Miles_per_Gallon"}})
	d.AddScale(&scene.Scale{Name: "x", Type: scene.Linear})
	_, err = d.AddMark(&scene.Mark{Parent: groupID, Type: scene.Symbol, From: &scene.From{Data: dsID}, Encode: map[string]*scene.ValueRef{
		"x": {Scale: "x", Field: "Horsepower"},
	}})
	require.NoError(t, err)
	id, err := d.AddInteraction(groupID)
	require.NoError(t, err)
	d.Interactions[id].Input = &scene.Input{Mouse: scene.Click}

	t.Run("from the document", func(t *testing.T) {
		ctx, err := NewContext(d, id, SchemaLookup(d))
		require.NoError(t, err)

		assert.Equal(t, Point, ctx.Kind)
		assert.Equal(t, []string{"Horsepower", "Miles_per_Gallon"}, ctx.Fields)
		assert.Equal(t, scene.ScaleInfo{XScaleName: "x", XFieldName: "Horsepower", XScaleType: scene.Continuous}, ctx.ScaleInfo)
		assert.Len(t, ctx.MarksOfGroups[groupID], 1)
	})

	t.Run("missing field data", func(t *testing.T) {
		ctx, err := NewContext(d, id, func(int) ([]string, bool) { return nil, false })
		assert.ErrorIs(t, err, ErrMissingFieldData)
		assert.Empty(t, ctx.Fields)
		assert.Equal(t, Point, ctx.Kind)
	})

	t.Run("unknown interaction", func(t *testing.T) {
		_, err := NewContext(d, 99, SchemaLookup(d))
		assert.ErrorIs(t, err, scene.ErrUnknownPrimitive)
	})
}

func TestCanDemonstrate(t *testing.T) {
	info := scene.ScaleInfo{YScaleName: "y", YFieldName: "b"}
	assert.False(t, CanDemonstrate(nil, info))
}
