package scene

// Mouse is the pointer gesture an interaction is triggered by.
type Mouse string

const (
	Drag  Mouse = "drag"
	Click Mouse = "click"
)

// Input is the gesture (and optional modifier key) of an interaction.
type Input struct {
	Mouse   Mouse  `json:"mouse"`
	Keycode int    `json:"keycode,omitempty"`
	Key     string `json:"_key,omitempty"`

	// Explicit is set when the user picked the input rather than it being
	// inferred from a demonstration.
	Explicit bool `json:"-"`
}

// Compatible reports whether a record requiring gesture can run under in.
func (in *Input) Compatible(gesture Mouse) bool {
	return in == nil || gesture == "" || in.Mouse == gesture
}

// Preview identifies a candidate record shown to the user.
type Preview struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func (p Preview) Info() Preview { return p }

// Selection is the subset-of-data semantics of an interaction.
// It is one of PointSelection or IntervalSelection.
type Selection interface {
	Info() Preview
	// Gesture is the mouse input the selection is demonstrated with.
	Gesture() Mouse
	isSelection()
}

type PointType string

const (
	Single PointType = "single"
	Multi  PointType = "multi"
)

// RowID is the field used to select individual data tuples.
const RowID = "_vgsid_"

type PointSelection struct {
	Preview
	PointType PointType `json:"ptype"`
	Field     string    `json:"field"`
}

func (PointSelection) Gesture() Mouse { return Click }
func (PointSelection) isSelection()   {}

// Projected reports whether the selection selects by a data field
// rather than by row id.
func (p PointSelection) Projected() bool {
	return p.Field != "" && p.Field != RowID
}

type Axis string

const (
	AxisX  Axis = "x"
	AxisY  Axis = "y"
	AxisXY Axis = "xy"
)

func (a Axis) HasX() bool { return a == AxisX || a == AxisXY }
func (a Axis) HasY() bool { return a == AxisY || a == AxisXY }

type IntervalSelection struct {
	Preview
	Field Axis `json:"field"`
}

func (IntervalSelection) Gesture() Mouse { return Drag }
func (IntervalSelection) isSelection()   {}

// Application is the effect of an active selection.
// It is one of MarkApplication, ScaleApplication or TransformApplication.
type Application interface {
	Info() Preview
	// Gesture is the mouse input the application requires, empty if any.
	Gesture() Mouse
	isApplication()
}

// MarkApplication sets a visual property of the target mark for unselected items.
type MarkApplication struct {
	Preview
	TargetMarkName string `json:"targetMarkName"`
	PropertyName   string `json:"propertyName"`
	DefaultValue   any    `json:"defaultValue"`
}

func (MarkApplication) Gesture() Mouse { return "" }
func (MarkApplication) isApplication() {}

// ScaleApplication pans and zooms the scales of the group.
type ScaleApplication struct {
	Preview
	ScaleInfo ScaleInfo `json:"scaleInfo"`
}

func (ScaleApplication) Gesture() Mouse { return Drag }
func (ScaleApplication) isApplication() {}

// TransformApplication filters the data of another group.
type TransformApplication struct {
	Preview
	TargetGroupName string `json:"targetGroupName"`
	TargetMarkName  string `json:"targetMarkName"`
	DatasetName     string `json:"datasetName"`
}

func (TransformApplication) Gesture() Mouse { return "" }
func (TransformApplication) isApplication() {}

// ScaleSimpleType collapses scale types into the two families that matter
// for demonstrations.
type ScaleSimpleType int

const (
	ScaleNone ScaleSimpleType = iota
	Continuous
	Discrete
)

func (t ScaleSimpleType) String() string {
	switch t {
	case Continuous:
		return "continuous"
	case Discrete:
		return "discrete"
	default:
		return ""
	}
}

// ScaleInfo describes the positional scales a group's marks are encoded with.
type ScaleInfo struct {
	XScaleName string          `json:"xScaleName,omitempty"`
	YScaleName string          `json:"yScaleName,omitempty"`
	XFieldName string          `json:"xFieldName,omitempty"`
	YFieldName string          `json:"yFieldName,omitempty"`
	XScaleType ScaleSimpleType `json:"xScaleType,omitempty"`
	YScaleType ScaleSimpleType `json:"yScaleType,omitempty"`
}

// CanDemonstrate reports whether at least one axis has both a scale and a field.
func (s ScaleInfo) CanDemonstrate() bool {
	return s.XScaleName != "" && s.XFieldName != "" || s.YScaleName != "" && s.YFieldName != ""
}
