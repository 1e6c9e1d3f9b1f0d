package vega

// Spec is a Vega specification.
type Spec struct {
	Schema  string    `json:"$schema"`
	Width   SignalRef `json:"width"`
	Height  SignalRef `json:"height"`
	Signals []Signal  `json:"signals,omitempty"`
	Data    []Data    `json:"data,omitempty"`
	Scales  []Scale   `json:"scales,omitempty"`
	Marks   []Mark    `json:"marks,omitempty"`
}

type SignalRef struct {
	Signal string `json:"signal"`
}

type Signal struct {
	Name  string    `json:"name"`
	Value any       `json:"value"`
	Push  string    `json:"push,omitempty"`
	On    []Handler `json:"on,omitempty"`
}

// Handler updates a signal when events fire. Events is an event selector
// string, an event stream object, or a list of them.
type Handler struct {
	Events any    `json:"events"`
	Update string `json:"update"`
	Force  bool   `json:"force,omitempty"`
}

// Stream is an event stream object.
type Stream struct {
	Source  string `json:"source,omitempty"`
	Type    string `json:"type,omitempty"`
	Signal  string `json:"signal,omitempty"`
	Filter  string `json:"filter,omitempty"`
	Consume bool   `json:"consume,omitempty"`
}

type Data struct {
	Name      string           `json:"name"`
	Source    string           `json:"source,omitempty"`
	Values    []map[string]any `json:"values,omitempty"`
	Transform []Transform      `json:"transform,omitempty"`
}

type Transform struct {
	Type string `json:"type"`
	Expr string `json:"expr,omitempty"`
	As   string `json:"as,omitempty"`
}

type Scale struct {
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Domain    any        `json:"domain,omitempty"`
	DomainRaw *SignalRef `json:"domainRaw,omitempty"`
	Range     any        `json:"range,omitempty"`
	Exponent  float64    `json:"exponent,omitempty"`
}

type From struct {
	Data string `json:"data"`
}

// Encode maps encoding sets (enter, update) to channels. A channel holds a
// value reference or a list of production rules.
type Encode map[string]map[string]any

type Mark struct {
	Type    string   `json:"type"`
	Name    string   `json:"name"`
	Role    string   `json:"role,omitempty"`
	From    *From    `json:"from,omitempty"`
	Encode  Encode   `json:"encode,omitempty"`
	Signals []Signal `json:"signals,omitempty"`
	Marks   []Mark   `json:"marks,omitempty"`
}
