package vega

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/AnatoleLucet/lyra/internal/scene"
)

const dragSelector = "[mousedown, window:mouseup] > window:mousemove!"

// demonstrations adds to every group holding an interaction the signals
// the editor listens to while a gesture is demonstrated. The brush mark is
// only drawn while one of the group's interactions has no selection.
func (c *compiler) demonstrations() {
	var order []int
	pending := map[int]bool{}
	for _, id := range slices.Sorted(maps.Keys(c.doc.Interactions)) {
		in := c.doc.Interactions[id]
		if _, seen := pending[in.GroupID]; !seen {
			order = append(order, in.GroupID)
		}
		pending[in.GroupID] = pending[in.GroupID] || in.Selection == nil
	}

	for _, gid := range order {
		g, ok := c.doc.Marks[gid]
		if !ok || g.Type != scene.Group {
			continue
		}
		unit := scene.ExportName(g.Name)
		gm := group(c.spec.Marks, unit)
		if gm == nil {
			continue
		}

		info := c.doc.ScaleInfo(gid)
		brush, _, _ := brushSignals("", scene.AxisXY, info, "")
		gm.Signals = append(gm.Signals, brush...)
		gm.Signals = append(gm.Signals, pointStreams("points_tuple", "points_toggle", unit, scene.RowID, "")...)
		gm.Signals = append(gm.Signals,
			gridAnchor("grid_translate_anchor", info, ""),
			gridDelta("grid_translate_delta", "grid_translate_anchor"),
		)
		if pending[gid] {
			gm.Marks = append(gm.Marks, brushMark("lyra_brush", ""))
		}
	}
}

// interaction compiles the confirmed records of in into its group. Signal
// names carry the interaction id so interactions sharing a group do not
// collide. An interaction whose group is gone compiles to nothing.
func (c *compiler) interaction(in *scene.Interaction) error {
	if in.Selection == nil {
		return nil
	}

	g, ok := c.doc.Marks[in.GroupID]
	if !ok || g.Type != scene.Group {
		return nil
	}
	unit := scene.ExportName(g.Name)
	gm := group(c.spec.Marks, unit)
	if gm == nil {
		return nil
	}

	store := scene.ExportName(in.Name) + "_store"
	c.spec.Data = append(c.spec.Data, Data{Name: store})
	filter := inputFilter(in.Input)

	switch sel := in.Selection.(type) {
	case scene.PointSelection:
		gm.Signals = append(gm.Signals, pointSignals(in.ID, unit, store, sel, filter)...)
	case scene.IntervalSelection:
		gm.Signals = append(gm.Signals, intervalSignals(in.ID, unit, store, sel, c.doc.ScaleInfo(in.GroupID), filter)...)
		if _, zoom := in.Application.(scene.ScaleApplication); !zoom {
			gm.Marks = append(gm.Marks, brushMark(scoped("lyra_brush", in.ID), suffix(in.ID)))
		}
	}

	test := fmt.Sprintf("!length(data(%q)) || vlSelectionTest(%q, datum)", store, store)

	switch app := in.Application.(type) {
	case nil:
	case scene.MarkApplication:
		target := child(gm, app.TargetMarkName)
		if target == nil {
			return fmt.Errorf("interaction %q: %w: mark %q", in.Name, scene.ErrUnknownPrimitive, app.TargetMarkName)
		}
		markRule(target, app, test)
	case scene.ScaleApplication:
		c.panzoom(gm, in.ID, app.ScaleInfo, filter)
	case scene.TransformApplication:
		tg := group(c.spec.Marks, app.TargetGroupName)
		if tg == nil {
			return fmt.Errorf("interaction %q: %w: group %q", in.Name, scene.ErrUnknownPrimitive, app.TargetGroupName)
		}
		target := child(tg, app.TargetMarkName)
		if target == nil {
			return fmt.Errorf("interaction %q: %w: mark %q", in.Name, scene.ErrUnknownPrimitive, app.TargetMarkName)
		}

		derived := app.DatasetName + "_" + scene.ExportName(in.Name) + "_filter"
		c.spec.Data = append(c.spec.Data, Data{
			Name:      derived,
			Source:    app.DatasetName,
			Transform: []Transform{{Type: "filter", Expr: test}},
		})
		target.From = &From{Data: derived}
	}

	return nil
}

// inputFilter turns the modifier key of an input into an event filter.
func inputFilter(in *scene.Input) string {
	if in == nil || in.Key == "" {
		return ""
	}
	return "event." + strings.ToLower(in.Key) + "Key"
}

func scoped(name string, id int) string {
	return name + suffix(id)
}

func suffix(id int) string {
	return "_" + strconv.Itoa(id)
}

func pointSignals(id int, unit, store string, sel scene.PointSelection, filter string) []Signal {
	field := sel.Field
	if field == "" {
		field = scene.RowID
	}

	tuple := scoped("points_tuple", id)
	toggle := scoped("points_toggle", id)
	out := pointStreams(tuple, toggle, unit, field, filter)

	modify := fmt.Sprintf("modify(%q, %s, true)", store, tuple)
	if sel.PointType == scene.Multi {
		modify = fmt.Sprintf("modify(%q, %[2]s ? null : %[3]s, %[2]s ? null : true, %[2]s ? %[3]s : null)", store, toggle, tuple)
	} else {
		out = out[:1]
	}

	return append(out, Signal{
		Name: scoped("points_modify", id),
		On:   []Handler{{Events: Stream{Signal: tuple}, Update: modify}},
	})
}

// pointStreams is the clicked tuple and the shift toggle of a point selection.
func pointStreams(tuple, toggle, unit, field, filter string) []Signal {
	click := Stream{Source: "scope", Type: "click", Filter: filter}
	reset := Stream{Source: "view", Type: "dblclick"}

	return []Signal{
		{
			Name: tuple,
			On: []Handler{
				{
					Events: click,
					Update: fmt.Sprintf(`datum && item().mark.marktype !== 'group' ? {unit: %q, fields: [{type: "E", field: %q}], values: [datum[%q]]} : null`, unit, field, field),
					Force:  true,
				},
				{Events: reset, Update: "null"},
			},
		},
		{
			Name:  toggle,
			Value: false,
			On: []Handler{
				{Events: click, Update: "event.shiftKey"},
				{Events: reset, Update: "false"},
			},
		},
	}
}

type brushAxis struct {
	channel string
	scale   string
	field   string
	active  bool
}

func intervalSignals(id int, unit, store string, sel scene.IntervalSelection, info scene.ScaleInfo, filter string) []Signal {
	out, fields, values := brushSignals(suffix(id), sel.Field, info, filter)
	if len(values) == 0 {
		return out
	}

	var deps []any
	for _, v := range values {
		deps = append(deps, Stream{Signal: v})
	}

	tuple := scoped("brush_tuple", id)
	guard := strings.Join(values, " && ")
	return append(out,
		Signal{Name: tuple, On: []Handler{{
			Events: deps,
			Update: fmt.Sprintf("%s ? {unit: %q, fields: [%s], values: [%s]} : null", guard, unit, strings.Join(fields, ", "), strings.Join(values, ", ")),
		}}},
		Signal{Name: scoped("brush_modify", id), On: []Handler{{
			Events: Stream{Signal: tuple},
			Update: fmt.Sprintf("modify(%q, %s, true)", store, tuple),
		}}},
	)
}

// brushSignals is the pixel extent of each axis, then for an active axis
// with a scale the inverted extent and its alias by field. Every name ends
// with sfx. It also returns the tuple fields and the inverted signals.
func brushSignals(sfx string, sel scene.Axis, info scene.ScaleInfo, filter string) (out []Signal, fields, values []string) {
	axes := []brushAxis{
		{"x", info.XScaleName, info.XFieldName, sel.HasX()},
		{"y", info.YScaleName, info.YFieldName, sel.HasY()},
	}
	extent := map[string]string{"x": "width", "y": "height"}
	down := Stream{Source: "scope", Type: "mousedown", Filter: filter}
	taken := map[string]bool{"brush_x": true, "brush_y": true}

	for _, a := range axes {
		name := "brush_" + a.channel + sfx
		if !a.active {
			// an inactive axis spans the whole group
			out = append(out, Signal{Name: name, Value: []any{}, On: []Handler{
				{Events: down, Update: fmt.Sprintf("[0, %s]", extent[a.channel])},
			}})
			continue
		}

		out = append(out, Signal{Name: name, Value: []any{}, On: []Handler{
			{Events: down, Update: fmt.Sprintf("[%[1]s(unit), %[1]s(unit)]", a.channel)},
			{Events: dragSelector, Update: fmt.Sprintf("[%[1]s[0], clamp(%[2]s(unit), 0, %[3]s)]", name, a.channel, extent[a.channel])},
		}})

		if a.scale == "" || a.field == "" {
			continue
		}

		base := "brush_" + a.scale
		if taken[base] {
			base += "_domain"
		}
		taken[base] = true
		inverted := base + sfx
		out = append(out, Signal{Name: inverted, On: []Handler{{
			Events: Stream{Signal: name},
			Update: fmt.Sprintf("%[1]s[0] === %[1]s[1] ? null : invert(%[2]q, %[1]s)", name, a.scale),
		}}})
		if alias := "brush_" + a.field; !taken[alias] {
			taken[alias] = true
			out = append(out, Signal{Name: alias + sfx, On: []Handler{{
				Events: Stream{Signal: inverted},
				Update: inverted,
			}}})
		}

		fields = append(fields, fmt.Sprintf("{field: %q, channel: %q, type: \"R\"}", a.field, a.channel))
		values = append(values, inverted)
	}
	return out, fields, values
}

func brushMark(name, sfx string) Mark {
	update := map[string]any{
		"x":  map[string]any{"signal": "brush_x" + sfx + "[0]"},
		"x2": map[string]any{"signal": "brush_x" + sfx + "[1]"},
		"y":  map[string]any{"signal": "brush_y" + sfx + "[0]"},
		"y2": map[string]any{"signal": "brush_y" + sfx + "[1]"},
	}

	return Mark{
		Type: string(scene.Rect),
		Name: name,
		Encode: Encode{
			"enter": {
				"fill":        map[string]any{"value": "#333"},
				"fillOpacity": map[string]any{"value": 0.125},
			},
			"update": update,
		},
	}
}

// markRule makes unselected items of target take the application's default value.
func markRule(target *Mark, app scene.MarkApplication, test string) {
	if target.Encode == nil {
		target.Encode = Encode{}
	}
	if target.Encode["update"] == nil {
		target.Encode["update"] = map[string]any{}
	}

	rules := []any{map[string]any{"test": "!(" + test + ")", "value": app.DefaultValue}}
	if current, ok := target.Encode["update"][app.PropertyName]; ok {
		rules = append(rules, current)
	}
	target.Encode["update"][app.PropertyName] = rules
}

func (c *compiler) panzoom(gm *Mark, id int, info scene.ScaleInfo, filter string) {
	axes := []struct {
		channel, scale, extent string
	}{
		{"x", info.XScaleName, "width"},
		{"y", info.YScaleName, "height"},
	}

	anchor := scoped("grid_translate_anchor", id)
	delta := scoped("grid_translate_delta", id)
	zoomAnchor := scoped("grid_zoom_anchor", id)
	zoomDelta := scoped("grid_zoom_delta", id)
	wheel := Stream{Source: "scope", Type: "wheel", Consume: true, Filter: filter}

	gm.Signals = append(gm.Signals,
		gridAnchor(anchor, info, filter),
		gridDelta(delta, anchor),
		Signal{Name: zoomAnchor, On: []Handler{{
			Events: wheel,
			Update: fmt.Sprintf("{x: %s, y: %s}", invertOf(info.XScaleName, "x"), invertOf(info.YScaleName, "y")),
		}}},
		Signal{Name: zoomDelta, On: []Handler{{
			Events: wheel,
			Update: "pow(1.001, event.deltaY * pow(16, event.deltaMode))",
			Force:  true,
		}}},
	)

	for _, a := range axes {
		if a.scale == "" {
			continue
		}
		s, ok := c.doc.ScaleByName(a.scale)
		if !ok || s.Type.Simple() != scene.Continuous {
			continue
		}

		pan, zoom, exp := panZoom(s)
		moved := delta + "." + a.channel + " / " + a.extent
		if a.channel == "y" {
			moved = "-" + moved
		}

		name := scoped("grid_"+a.scale, id)
		gm.Signals = append(gm.Signals, Signal{Name: name, Push: "outer", On: []Handler{
			{Events: Stream{Signal: delta}, Update: fmt.Sprintf("%s(%s.extent_%s, %s%s)", pan, anchor, a.channel, moved, exp)},
			{Events: Stream{Signal: zoomDelta}, Update: fmt.Sprintf("%s(domain(%q), %s.%s, %s%s)", zoom, a.scale, zoomAnchor, a.channel, zoomDelta, exp)},
		}})
		c.spec.Signals = append(c.spec.Signals, Signal{Name: name})

		for i := range c.spec.Scales {
			if c.spec.Scales[i].Name == a.scale {
				c.spec.Scales[i].DomainRaw = &SignalRef{Signal: name}
			}
		}
	}
}

// gridAnchor records where a drag started, with the scale domains at that point.
func gridAnchor(name string, info scene.ScaleInfo, filter string) Signal {
	return Signal{Name: name, Value: map[string]any{}, On: []Handler{{
		Events: Stream{Source: "scope", Type: "mousedown", Filter: filter},
		Update: fmt.Sprintf("{x: x(unit), y: y(unit)%s%s}", extentOf("x", info.XScaleName), extentOf("y", info.YScaleName)),
	}}}
}

func gridDelta(name, anchor string) Signal {
	return Signal{Name: name, Value: map[string]any{}, On: []Handler{{
		Events: dragSelector,
		Update: fmt.Sprintf("{x: %[1]s.x - x(unit), y: %[1]s.y - y(unit)}", anchor),
	}}}
}

func extentOf(channel, scale string) string {
	if scale == "" {
		return ""
	}
	return fmt.Sprintf(", extent_%s: domain(%q)", channel, scale)
}

func invertOf(scale, channel string) string {
	if scale == "" {
		return "null"
	}
	return fmt.Sprintf("invert(%q, %s(unit))", scale, channel)
}

// panZoom names the pan and zoom expression functions of a scale, plus the
// trailing exponent argument pow scales take.
func panZoom(s *scene.Scale) (pan, zoom, exp string) {
	switch s.Type {
	case scene.Log:
		return "panLog", "zoomLog", ""
	case scene.Sqrt:
		return "panPow", "zoomPow", ", 0.5"
	case scene.Pow:
		e := s.Exponent
		if e == 0 {
			e = 1
		}
		return "panPow", "zoomPow", ", " + strconv.FormatFloat(e, 'g', -1, 64)
	default:
		return "panLinear", "zoomLinear", ""
	}
}
