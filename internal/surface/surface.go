// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package surface maps pointer positions on the displayed page surface to
// document-space coordinates.
package surface

import (
	"errors"

	"github.com/pdiddy/pdf-markup/pkg/types"
)

// ErrSurfaceNotReady is returned when a click arrives before the surface
// has been rendered and measured. Callers must not create an operation.
var ErrSurfaceNotReady = errors.New("surface not ready")

// Box is the measured bounding box of the rendered surface in client
// coordinates.
type Box struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ToDocumentSpace translates a client position by the surface origin. The
// surface is always displayed at native resolution, so no scale correction
// is applied.
func ToDocumentSpace(clientX, clientY float64, box *Box) (types.Point, error) {
	if box == nil || box.Width <= 0 || box.Height <= 0 {
		return types.Point{}, ErrSurfaceNotReady
	}
	return types.Point{X: clientX - box.Left, Y: clientY - box.Top}, nil
}

// Surface tracks the measurement of the currently displayed page.
type Surface struct {
	box *Box
}

// Measure records the bounding box reported after a render.
func (s *Surface) Measure(b Box) {
	s.box = &b
}

// Reset forgets the measurement, e.g. when the page or document changes.
func (s *Surface) Reset() {
	s.box = nil
}

// Ready reports whether a usable measurement exists.
func (s *Surface) Ready() bool {
	return s.box != nil && s.box.Width > 0 && s.box.Height > 0
}

// Box returns a copy of the current measurement, or nil.
func (s *Surface) Box() *Box {
	if s.box == nil {
		return nil
	}
	b := *s.box
	return &b
}

// Translate converts a client position using the current measurement.
func (s *Surface) Translate(clientX, clientY float64) (types.Point, error) {
	return ToDocumentSpace(clientX, clientY, s.box)
}
