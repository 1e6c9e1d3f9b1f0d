package demo

import (
	"reflect"
	"strconv"

	"github.com/AnatoleLucet/lyra/internal/scene"
)

// Signals the running visualization exposes while a gesture is demonstrated.
const (
	BrushX       = "brush_x"
	BrushY       = "brush_y"
	PointsTuple  = "points_tuple"
	PointsToggle = "points_toggle"

	// Grid signals only feed the previews.
	GridAnchor = "grid_translate_anchor"
	GridDelta  = "grid_translate_delta"
)

// Scoped is the name of signal for one interaction, e.g. points_tuple_4.
func Scoped(signal string, interactionID int) string {
	return signal + "_" + strconv.Itoa(interactionID)
}

// Kind is what a demonstration was classified as.
type Kind int

const (
	Unset Kind = iota
	Point
	Interval
)

func (k Kind) String() string {
	switch k {
	case Point:
		return "point"
	case Interval:
		return "interval"
	default:
		return "unset"
	}
}

// Mouse is the gesture demonstrating the kind.
func (k Kind) Mouse() scene.Mouse {
	switch k {
	case Point:
		return scene.Click
	case Interval:
		return scene.Drag
	default:
		return ""
	}
}

// KindOf derives the kind from the mouse of an input.
func KindOf(in *scene.Input) Kind {
	if in == nil {
		return Unset
	}

	switch in.Mouse {
	case scene.Drag:
		return Interval
	case scene.Click:
		return Point
	default:
		return Unset
	}
}

// Classify resolves the kind of a demonstration from the last seen signal
// values. A non degenerate brush on both axes wins over a point tuple; with
// neither the previous kind stands.
func Classify(values map[string]any, previous Kind) Kind {
	if intervalActive(values[BrushX], values[BrushY]) {
		return Interval
	}
	if truthy(values[PointsTuple]) {
		return Point
	}
	return previous
}

func intervalActive(x, y any) bool {
	return extent(x) && extent(y)
}

// extent reports whether v is a two ended range with distinct ends.
func extent(v any) bool {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return false
	}
	if rv.Len() < 2 {
		return false
	}
	return !reflect.DeepEqual(rv.Index(0).Interface(), rv.Index(1).Interface())
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return true
	}
}
