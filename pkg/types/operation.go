// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data structures of the markup editor:
// operations and their payloads, the wire record exchanged with the
// Processing Service, and configuration.
package types

import (
	"errors"
	"fmt"
)

// Kind identifies the variant carried by an Operation.
type Kind string

const (
	KindAddText       Kind = "AddText"
	KindAddShape      Kind = "AddShape"
	KindPageTransform Kind = "PageTransform"
)

// ShapeKind selects the geometry of an AddShape payload.
type ShapeKind string

const (
	ShapeRectangle ShapeKind = "rectangle"
	ShapeCircle    ShapeKind = "circle"
)

// TransformKind selects the page-level transform of a PageTransform payload.
type TransformKind string

const (
	TransformRotate TransformKind = "rotate"
	TransformDelete TransformKind = "delete"
)

// DefaultFontSize is used by text tools that have not been configured.
const DefaultFontSize = 16

// Point is a position in document space: pixels relative to the top-left
// corner of a page rendered at scale 1.0.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Payload is the kind-specific part of an Operation. The set of
// implementations is closed: AddText, AddShape and PageTransform.
type Payload interface {
	Kind() Kind
	Validate() error
	isPayload()
}

// AddText places a string on a page.
type AddText struct {
	Text     string
	FontSize int
	Color    Color
}

// AddShape places a rectangle or circle on a page.
type AddShape struct {
	Shape  ShapeKind
	Width  float64
	Height float64
	Color  Color
	Filled bool
}

// PageTransform rotates or deletes an entire page.
type PageTransform struct {
	Transform TransformKind
	// Angle is only meaningful for TransformRotate.
	Angle int
}

func (AddText) Kind() Kind       { return KindAddText }
func (AddShape) Kind() Kind      { return KindAddShape }
func (PageTransform) Kind() Kind { return KindPageTransform }

func (AddText) isPayload()       {}
func (AddShape) isPayload()      {}
func (PageTransform) isPayload() {}

// Validate checks the creation-time constraints of a text payload. Empty
// text is accepted here; it is rejected when a batch is submitted.
func (p AddText) Validate() error {
	if p.FontSize <= 0 {
		return fmt.Errorf("font size must be positive, got %d", p.FontSize)
	}
	if _, err := p.Color.Parse(); err != nil {
		return err
	}
	return nil
}

// Validate checks shape kind, dimensions and color.
func (p AddShape) Validate() error {
	if err := ValidateShape(p.Shape); err != nil {
		return err
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("shape dimensions must be positive, got %gx%g", p.Width, p.Height)
	}
	if _, err := p.Color.Parse(); err != nil {
		return err
	}
	return nil
}

// Validate checks the transform kind and, for rotations, the angle.
func (p PageTransform) Validate() error {
	switch p.Transform {
	case TransformRotate:
		return ValidateAngle(p.Angle)
	case TransformDelete:
		return nil
	default:
		return fmt.Errorf("unknown page transform %q", p.Transform)
	}
}

// ErrInvalidAngle is returned for rotation angles outside {90, 180, 270}.
var ErrInvalidAngle = errors.New("rotation angle must be 90, 180 or 270")

// ValidateAngle reports whether angle is an accepted rotation.
func ValidateAngle(angle int) error {
	switch angle {
	case 90, 180, 270:
		return nil
	}
	return fmt.Errorf("%w: got %d", ErrInvalidAngle, angle)
}

// ValidateShape reports whether s is a known shape kind.
func ValidateShape(s ShapeKind) error {
	switch s {
	case ShapeRectangle, ShapeCircle:
		return nil
	}
	return fmt.Errorf("unknown shape %q", s)
}

// Draft is an operation that has not yet been assigned an identifier.
type Draft struct {
	Page     int
	Position Point
	Payload  Payload
}

// Validate checks the creation-time invariants of a draft. The upper page
// bound is not checked because the page count may still be unknown.
func (d Draft) Validate() error {
	if d.Page < 0 {
		return fmt.Errorf("page must be >= 0, got %d", d.Page)
	}
	if d.Payload == nil {
		return errors.New("draft has no payload")
	}
	return d.Payload.Validate()
}

// Operation is one frozen, user-authored edit targeted at a page.
type Operation struct {
	ID       string
	Page     int
	Position Point
	Payload  Payload
}

// Kind returns the variant of the operation's payload.
func (o Operation) Kind() Kind {
	if o.Payload == nil {
		return ""
	}
	return o.Payload.Kind()
}

// HasPosition reports whether Position is meaningful for this operation.
func (o Operation) HasPosition() bool {
	switch o.Payload.(type) {
	case AddText, AddShape:
		return true
	}
	return false
}
