// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"encoding/json"
	"fmt"
)

// OperationRecord is the flat wire form of an Operation: one object per
// operation with only the fields relevant to its kind. It is the element
// type of the "operations" part sent to the Processing Service and of the
// operations files read by the CLI.
type OperationRecord struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Kind     Kind   `json:"kind" yaml:"kind"`
	Page     int    `json:"page" yaml:"page"`
	Position *Point `json:"position,omitempty" yaml:"position,omitempty"`

	Text     string `json:"text,omitempty" yaml:"text,omitempty"`
	FontSize int    `json:"fontSize,omitempty" yaml:"font_size,omitempty"`
	Color    Color  `json:"color,omitempty" yaml:"color,omitempty"`

	Shape  ShapeKind `json:"shape,omitempty" yaml:"shape,omitempty"`
	Width  float64   `json:"width,omitempty" yaml:"width,omitempty"`
	Height float64   `json:"height,omitempty" yaml:"height,omitempty"`
	Filled *bool     `json:"filled,omitempty" yaml:"filled,omitempty"`

	Transform TransformKind `json:"transform,omitempty" yaml:"transform,omitempty"`
	Angle     int           `json:"angle,omitempty" yaml:"angle,omitempty"`
}

// Record converts an operation to its wire form.
func (o Operation) Record() OperationRecord {
	r := OperationRecord{ID: o.ID, Kind: o.Kind(), Page: o.Page}
	switch p := o.Payload.(type) {
	case AddText:
		pos := o.Position
		r.Position = &pos
		r.Text = p.Text
		r.FontSize = p.FontSize
		r.Color = p.Color
	case AddShape:
		pos := o.Position
		filled := p.Filled
		r.Position = &pos
		r.Shape = p.Shape
		r.Width = p.Width
		r.Height = p.Height
		r.Color = p.Color
		r.Filled = &filled
	case PageTransform:
		r.Transform = p.Transform
		if p.Transform == TransformRotate {
			r.Angle = p.Angle
		}
	}
	return r
}

// Draft converts a wire record into a draft, applying defaults for omitted
// text fields. The ID, if any, is ignored.
func (r OperationRecord) Draft() (Draft, error) {
	d := Draft{Page: r.Page}
	switch r.Kind {
	case KindAddText:
		if r.Position == nil {
			return Draft{}, fmt.Errorf("%s operation requires a position", r.Kind)
		}
		d.Position = *r.Position
		size := r.FontSize
		if size == 0 {
			size = DefaultFontSize
		}
		c := r.Color
		if c == "" {
			c = Black
		}
		d.Payload = AddText{Text: r.Text, FontSize: size, Color: c}
	case KindAddShape:
		if r.Position == nil {
			return Draft{}, fmt.Errorf("%s operation requires a position", r.Kind)
		}
		d.Position = *r.Position
		c := r.Color
		if c == "" {
			c = Black
		}
		d.Payload = AddShape{
			Shape:  r.Shape,
			Width:  r.Width,
			Height: r.Height,
			Color:  c,
			Filled: r.Filled != nil && *r.Filled,
		}
	case KindPageTransform:
		d.Payload = PageTransform{Transform: r.Transform, Angle: r.Angle}
	default:
		return Draft{}, fmt.Errorf("unknown operation kind %q", r.Kind)
	}
	return d, nil
}

// Operation converts a wire record into an Operation, keeping its ID.
func (r OperationRecord) Operation() (Operation, error) {
	d, err := r.Draft()
	if err != nil {
		return Operation{}, err
	}
	return Operation{ID: r.ID, Page: d.Page, Position: d.Position, Payload: d.Payload}, nil
}

// MarshalJSON encodes the operation in its flat wire form.
func (o Operation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Record())
}

// UnmarshalJSON decodes the flat wire form.
func (o *Operation) UnmarshalJSON(data []byte) error {
	var r OperationRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	op, err := r.Operation()
	if err != nil {
		return err
	}
	*o = op
	return nil
}

// EncodeOperations serializes an operation log, preserving order. A nil
// log encodes as an empty array.
func EncodeOperations(ops []Operation) ([]byte, error) {
	if ops == nil {
		ops = []Operation{}
	}
	return json.Marshal(ops)
}

// DecodeOperations parses the JSON array produced by EncodeOperations.
func DecodeOperations(data []byte) ([]Operation, error) {
	var ops []Operation
	if err := json.Unmarshal(data, &ops); err != nil {
		return nil, fmt.Errorf("parsing operations: %w", err)
	}
	return ops, nil
}
