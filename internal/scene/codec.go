package scene

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownRecord is returned when decoding a record with an unknown type tag.
var ErrUnknownRecord = errors.New("scene: unknown record type")

// Type tags of the encoded records.
const (
	TypePoint     = "point"
	TypeInterval  = "interval"
	TypeMark      = "mark"
	TypeScale     = "scale"
	TypeTransform = "transform"
)

func (p PointSelection) MarshalJSON() ([]byte, error) {
	type plain PointSelection
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TypePoint, plain(p)})
}

func (i IntervalSelection) MarshalJSON() ([]byte, error) {
	type plain IntervalSelection
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TypeInterval, plain(i)})
}

func (m MarkApplication) MarshalJSON() ([]byte, error) {
	type plain MarkApplication
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TypeMark, plain(m)})
}

func (s ScaleApplication) MarshalJSON() ([]byte, error) {
	type plain ScaleApplication
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TypeScale, plain(s)})
}

func (t TransformApplication) MarshalJSON() ([]byte, error) {
	type plain TransformApplication
	return json.Marshal(struct {
		Type string `json:"type"`
		plain
	}{TypeTransform, plain(t)})
}

func typeOf(data []byte) (string, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return "", err
	}
	return head.Type, nil
}

// DecodeSelection decodes a selection record by its type tag.
func DecodeSelection(data []byte) (Selection, error) {
	typ, err := typeOf(data)
	if err != nil {
		return nil, err
	}

	switch typ {
	case TypePoint:
		var p PointSelection
		err = json.Unmarshal(data, &p)
		return p, err
	case TypeInterval:
		var i IntervalSelection
		err = json.Unmarshal(data, &i)
		return i, err
	default:
		return nil, fmt.Errorf("%w: selection %q", ErrUnknownRecord, typ)
	}
}

// DecodeApplication decodes an application record by its type tag.
func DecodeApplication(data []byte) (Application, error) {
	typ, err := typeOf(data)
	if err != nil {
		return nil, err
	}

	switch typ {
	case TypeMark:
		var m MarkApplication
		err = json.Unmarshal(data, &m)
		return m, err
	case TypeScale:
		var s ScaleApplication
		err = json.Unmarshal(data, &s)
		return s, err
	case TypeTransform:
		var t TransformApplication
		err = json.Unmarshal(data, &t)
		return t, err
	default:
		return nil, fmt.Errorf("%w: application %q", ErrUnknownRecord, typ)
	}
}
