package vega

import (
	"encoding/json"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnatoleLucet/lyra/internal/scene"
)

type fixture struct {
	doc   *scene.Document
	group int
	other int
	id    int
}

// newFixture builds a scene with a symbol group over the cars dataset and a
// second group drawing a rect from the same data.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	d := scene.New()
	sceneID, err := d.CreateScene(scene.DefaultSize, scene.DefaultSize)
	require.NoError(t, err)

	cars := d.AddDataset(&scene.Dataset{
		Name:   "cars",
		Fields: []string{"Origin", "Horsepower", "Miles_per_Gallon"},
		Values: []map[string]any{{"Origin": "USA", "Horsepower": 130, "Miles_per_Gallon": 18}},
	})
	d.AddScale(&scene.Scale{Name: "xscale", Type: scene.Linear, Domain: &scene.Domain{Data: cars, Field: "Horsepower"}, Range: "width"})
	d.AddScale(&scene.Scale{Name: "yscale", Type: scene.Linear, Domain: &scene.Domain{Data: cars, Field: "Miles_per_Gallon"}, Range: "height"})

	group, err := d.AddMark(&scene.Mark{Parent: sceneID, Type: scene.Group})
	require.NoError(t, err)
	_, err = d.AddMark(&scene.Mark{Parent: group, Type: scene.Symbol, From: &scene.From{Data: cars}, Encode: map[string]*scene.ValueRef{
		"x": {Scale: "xscale", Field: "Horsepower"},
		"y": {Scale: "yscale", Field: "Miles_per_Gallon"},
	}})
	require.NoError(t, err)

	other, err := d.AddMark(&scene.Mark{Parent: sceneID, Type: scene.Group})
	require.NoError(t, err)
	_, err = d.AddMark(&scene.Mark{Parent: other, Type: scene.Rect, From: &scene.From{Data: cars}})
	require.NoError(t, err)

	id, err := d.AddInteraction(group)
	require.NoError(t, err)

	return &fixture{doc: d, group: group, other: other, id: id}
}

func (f *fixture) bind(in *scene.Input, sel scene.Selection, app scene.Application) {
	i := f.doc.Interactions[f.id]
	i.Input, i.Selection, i.Application = in, sel, app
}

// demonstration is what every group holding an interaction defines.
var demonstration = []string{
	"brush_x", "brush_xscale", "brush_Horsepower",
	"brush_y", "brush_yscale", "brush_Miles_per_Gallon",
	"points_tuple", "points_toggle",
	"grid_translate_anchor", "grid_translate_delta",
}

func names(sigs []Signal) []string {
	var out []string
	for _, s := range sigs {
		out = append(out, s.Name)
	}
	return out
}

func dataNames(data []Data) []string {
	var out []string
	for _, d := range data {
		out = append(out, d.Name)
	}
	return out
}

func TestSchemaURL(t *testing.T) {
	assert.Equal(t, "https://vega.github.io/schema/vega/v5.json", SchemaURL(nil))
	assert.Equal(t, "https://vega.github.io/schema/vega/v5.json", SchemaURL(semver.MustParse("5.2.1")))
}

func TestResolveRefs(t *testing.T) {
	assert.Equal(t, "lyra_rect_3_x + lyra_delta.x", ResolveRefs("{{#lyra_rect_3_x}} + {{#lyra_delta}}.x"))
	assert.Equal(t, "width", ResolveRefs("width"))
}

func TestCompile(t *testing.T) {
	t.Run("requires a scene", func(t *testing.T) {
		_, err := Compile(scene.New(), Options{})
		assert.ErrorIs(t, err, ErrNoScene)
	})

	t.Run("document", func(t *testing.T) {
		f := newFixture(t)

		spec, err := Compile(f.doc, Options{})
		require.NoError(t, err)

		assert.Equal(t, scene.VisWidth, spec.Width.Signal)
		assert.Equal(t, []string{scene.VisWidth, scene.VisHeight}, names(spec.Signals))

		require.Len(t, spec.Data, 1)
		assert.Equal(t, "cars", spec.Data[0].Name)
		assert.Equal(t, []Transform{{Type: "identifier", As: scene.RowID}}, spec.Data[0].Transform)

		require.Len(t, spec.Scales, 2)
		assert.Equal(t, map[string]any{"data": "cars", "field": "Horsepower"}, spec.Scales[0].Domain)

		require.Len(t, spec.Marks, 2)
		g := spec.Marks[0]
		assert.Equal(t, "Group_5", g.Name)
		assert.Equal(t, "lyra_5", g.Role)

		// the symbol, then the demonstration brush
		require.Len(t, g.Marks, 2)
		sym := g.Marks[0]
		assert.Equal(t, "symbol", sym.Type)
		assert.Equal(t, &From{Data: "cars"}, sym.From)
		assert.Equal(t, map[string]any{"scale": "xscale", "field": "Horsepower"}, sym.Encode["update"]["x"])
	})

	t.Run("resolves signal channels", func(t *testing.T) {
		f := newFixture(t)
		require.NoError(t, f.doc.SetVisual(6, "fill", &scene.ValueRef{Signal: "{{#brush_x}}[0] ? 'red' : 'blue'"}))

		spec, err := Compile(f.doc, Options{})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"signal": "brush_x[0] ? 'red' : 'blue'"}, spec.Marks[0].Marks[0].Encode["update"]["fill"])
	})

	t.Run("demonstration signals of an interaction without a selection", func(t *testing.T) {
		f := newFixture(t)

		spec, err := Compile(f.doc, Options{})
		require.NoError(t, err)
		assert.Equal(t, []string{"cars"}, dataNames(spec.Data))

		g := spec.Marks[0]
		assert.Equal(t, demonstration, names(g.Signals))
		assert.Equal(t, dragSelector, g.Signals[0].On[1].Events)
		assert.Equal(t, `brush_x[0] === brush_x[1] ? null : invert("xscale", brush_x)`, g.Signals[1].On[0].Update)

		require.Len(t, g.Marks, 2)
		assert.Equal(t, "lyra_brush", g.Marks[1].Name)
		assert.Equal(t, map[string]any{"signal": "brush_x[0]"}, g.Marks[1].Encode["update"]["x"])

		// groups without interactions are left alone
		assert.Empty(t, spec.Marks[1].Signals)
		assert.Len(t, spec.Marks[1].Marks, 1)
	})

	t.Run("demonstration signals stay once the selection is confirmed", func(t *testing.T) {
		f := newFixture(t)
		f.bind(&scene.Input{Mouse: scene.Click}, scene.PointSelection{PointType: scene.Single}, nil)

		spec, err := Compile(f.doc, Options{})
		require.NoError(t, err)

		g := spec.Marks[0]
		assert.Subset(t, names(g.Signals), demonstration)
		assert.Len(t, g.Marks, 1)
	})
}

func TestCompilePoint(t *testing.T) {
	f := newFixture(t)
	f.bind(
		&scene.Input{Mouse: scene.Click, Key: "alt"},
		scene.PointSelection{PointType: scene.Multi, Field: "Origin"},
		scene.MarkApplication{TargetMarkName: "Symbol_6", PropertyName: "fill", DefaultValue: "#797979"},
	)

	spec, err := Compile(f.doc, Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{"cars", "Interaction_9_store"}, dataNames(spec.Data))

	g := spec.Marks[0]
	require.Equal(t, demonstration, names(g.Signals)[:len(demonstration)])
	own := g.Signals[len(demonstration):]
	assert.Equal(t, []string{"points_tuple_9", "points_toggle_9", "points_modify_9"}, names(own))

	click := own[0].On[0]
	assert.Equal(t, Stream{Source: "scope", Type: "click", Filter: "event.altKey"}, click.Events)
	assert.True(t, click.Force)
	assert.Contains(t, click.Update, `field: "Origin"`)

	assert.Equal(t, []any{
		map[string]any{
			"test":  `!(!length(data("Interaction_9_store")) || vlSelectionTest("Interaction_9_store", datum))`,
			"value": "#797979",
		},
	}, g.Marks[0].Encode["update"]["fill"])
}

func TestCompilePointKeepsCurrentRule(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.doc.SetVisual(6, "opacity", &scene.ValueRef{Value: 1}))
	f.bind(
		&scene.Input{Mouse: scene.Click},
		scene.PointSelection{PointType: scene.Single, Field: scene.RowID},
		scene.MarkApplication{TargetMarkName: "Symbol_6", PropertyName: "opacity", DefaultValue: "0.2"},
	)

	spec, err := Compile(f.doc, Options{})
	require.NoError(t, err)

	g := spec.Marks[0]
	own := g.Signals[len(demonstration):]
	assert.Equal(t, []string{"points_tuple_9", "points_modify_9"}, names(own))
	assert.Equal(t, Stream{Source: "scope", Type: "click"}, own[0].On[0].Events)

	rules, ok := g.Marks[0].Encode["update"]["opacity"].([]any)
	require.True(t, ok)
	require.Len(t, rules, 2)
	assert.Equal(t, map[string]any{"value": 1}, rules[1])
}

func TestCompileInterval(t *testing.T) {
	f := newFixture(t)
	f.bind(&scene.Input{Mouse: scene.Drag}, scene.IntervalSelection{Field: scene.AxisX}, nil)

	spec, err := Compile(f.doc, Options{})
	require.NoError(t, err)

	g := spec.Marks[0]
	own := g.Signals[len(demonstration):]
	assert.Equal(t, []string{"brush_x_9", "brush_xscale_9", "brush_Horsepower_9", "brush_y_9", "brush_tuple_9", "brush_modify_9"}, names(own))

	// y is not selected and spans the group
	assert.Equal(t, "[0, height]", own[3].On[0].Update)
	assert.Equal(t, dragSelector, own[0].On[1].Events)
	assert.Equal(t, "[brush_x_9[0], clamp(x(unit), 0, width)]", own[0].On[1].Update)
	assert.Equal(t, `brush_xscale_9 ? {unit: "Group_5", fields: [{field: "Horsepower", channel: "x", type: "R"}], values: [brush_xscale_9]} : null`, own[4].On[0].Update)

	require.Len(t, g.Marks, 2)
	assert.Equal(t, "lyra_brush_9", g.Marks[1].Name)
	assert.Equal(t, map[string]any{"signal": "brush_y_9[1]"}, g.Marks[1].Encode["update"]["y2"])
}

func TestCompileSharedGroup(t *testing.T) {
	f := newFixture(t)
	second, err := f.doc.AddInteraction(f.group)
	require.NoError(t, err)

	for _, id := range []int{f.id, second} {
		in := f.doc.Interactions[id]
		in.Input = &scene.Input{Mouse: scene.Drag}
		in.Selection = scene.IntervalSelection{Field: scene.AxisXY}
	}

	spec, err := Compile(f.doc, Options{})
	require.NoError(t, err)

	g := spec.Marks[0]
	seen := map[string]int{}
	for _, n := range names(g.Signals) {
		seen[n]++
	}
	for n, count := range seen {
		assert.Equal(t, 1, count, "signal %q", n)
	}

	assert.Contains(t, seen, "brush_x_9")
	assert.Contains(t, seen, "brush_x_10")
	assert.Contains(t, seen, "brush_Miles_per_Gallon_10")
	assert.Equal(t, []string{"cars", "Interaction_9_store", "Interaction_10_store"}, dataNames(spec.Data))
	assert.Len(t, g.Marks, 3)
}

func TestCompilePanZoom(t *testing.T) {
	f := newFixture(t)
	f.bind(
		&scene.Input{Mouse: scene.Drag},
		scene.IntervalSelection{Field: scene.AxisXY},
		scene.ScaleApplication{ScaleInfo: f.doc.ScaleInfo(f.group)},
	)

	spec, err := Compile(f.doc, Options{})
	require.NoError(t, err)

	g := spec.Marks[0]
	assert.Len(t, g.Marks, 1)
	assert.Subset(t, names(g.Signals), []string{"grid_translate_anchor_9", "grid_translate_delta_9", "grid_zoom_anchor_9", "grid_zoom_delta_9", "grid_xscale_9", "grid_yscale_9"})
	assert.Subset(t, names(spec.Signals), []string{"grid_xscale_9", "grid_yscale_9"})
	assert.Equal(t, &SignalRef{Signal: "grid_xscale_9"}, spec.Scales[0].DomainRaw)

	pan := find(t, g.Signals, "grid_xscale_9")
	assert.Equal(t, "outer", pan.Push)
	assert.Equal(t, "panLinear(grid_translate_anchor_9.extent_x, grid_translate_delta_9.x / width)", pan.On[0].Update)
	assert.Equal(t, `zoomLinear(domain("xscale"), grid_zoom_anchor_9.x, grid_zoom_delta_9)`, pan.On[1].Update)
}

func TestCompilePanZoomPow(t *testing.T) {
	f := newFixture(t)
	f.doc.Scales[3].Type, f.doc.Scales[3].Exponent = scene.Pow, 2
	f.doc.Scales[4].Type = scene.Sqrt
	f.bind(
		&scene.Input{Mouse: scene.Drag},
		scene.IntervalSelection{Field: scene.AxisXY},
		scene.ScaleApplication{ScaleInfo: f.doc.ScaleInfo(f.group)},
	)

	spec, err := Compile(f.doc, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2.0, spec.Scales[0].Exponent)
	assert.Zero(t, spec.Scales[1].Exponent)

	g := spec.Marks[0]
	x := find(t, g.Signals, "grid_xscale_9")
	assert.Equal(t, "panPow(grid_translate_anchor_9.extent_x, grid_translate_delta_9.x / width, 2)", x.On[0].Update)
	assert.Equal(t, `zoomPow(domain("xscale"), grid_zoom_anchor_9.x, grid_zoom_delta_9, 2)`, x.On[1].Update)

	y := find(t, g.Signals, "grid_yscale_9")
	assert.Equal(t, "panPow(grid_translate_anchor_9.extent_y, -grid_translate_delta_9.y / height, 0.5)", y.On[0].Update)
	assert.Equal(t, `zoomPow(domain("yscale"), grid_zoom_anchor_9.y, grid_zoom_delta_9, 0.5)`, y.On[1].Update)
}

func find(t *testing.T, sigs []Signal, name string) Signal {
	t.Helper()
	for _, s := range sigs {
		if s.Name == name {
			return s
		}
	}
	require.Failf(t, "missing signal", "%q", name)
	return Signal{}
}

func TestCompileFilter(t *testing.T) {
	t.Run("derives a filtered dataset", func(t *testing.T) {
		f := newFixture(t)
		f.bind(
			&scene.Input{Mouse: scene.Click},
			scene.PointSelection{PointType: scene.Single, Field: scene.RowID},
			scene.TransformApplication{TargetGroupName: "Group_7", TargetMarkName: "Rect_8", DatasetName: "cars"},
		)

		spec, err := Compile(f.doc, Options{})
		require.NoError(t, err)

		require.Equal(t, []string{"cars", "Interaction_9_store", "cars_Interaction_9_filter"}, dataNames(spec.Data))
		assert.Equal(t, "cars", spec.Data[2].Source)
		assert.Equal(t, "filter", spec.Data[2].Transform[0].Type)
		assert.Equal(t, &From{Data: "cars_Interaction_9_filter"}, spec.Marks[1].Marks[0].From)
	})

	t.Run("unknown target", func(t *testing.T) {
		f := newFixture(t)
		f.bind(
			&scene.Input{Mouse: scene.Click},
			scene.PointSelection{PointType: scene.Single, Field: scene.RowID},
			scene.TransformApplication{TargetGroupName: "Group_7", TargetMarkName: "Rect_99", DatasetName: "cars"},
		)

		_, err := Compile(f.doc, Options{})
		assert.ErrorIs(t, err, scene.ErrUnknownPrimitive)
	})
}

func TestMarshal(t *testing.T) {
	f := newFixture(t)

	raw, err := Marshal(f.doc, Options{Version: semver.MustParse("5.1.0")})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "https://vega.github.io/schema/vega/v5.json", out["$schema"])
	assert.Equal(t, map[string]any{"signal": scene.VisWidth}, out["width"])
}
