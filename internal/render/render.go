// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package render composes page previews: the page raster with the page's
// text and shape operations replayed on top in insertion order.
package render

import (
	"image"
	"image/color"
	"math"

	"github.com/pdiddy/pdf-markup/pkg/types"
)

// Rect is an axis-aligned rectangle in document space.
type Rect struct {
	X, Y, W, H float64
}

// Canvas is the drawing surface the replay targets.
type Canvas interface {
	// DrawBase paints the page raster as the bottom layer.
	DrawBase(img image.Image)
	// Placeholder paints a neutral page when no raster is available.
	Placeholder()
	FillRect(r Rect, c color.Color)
	StrokeRect(r Rect, c color.Color)
	FillCircle(center types.Point, radius float64, c color.Color)
	StrokeCircle(center types.Point, radius float64, c color.Color)
	// DrawText draws s with its baseline starting at p. No wrapping or
	// clipping is applied.
	DrawText(p types.Point, s string, size int, c color.Color)
}

// Replay draws base (or a placeholder when nil) and then every AddText and
// AddShape operation in order. PageTransform operations are not drawn; they
// take effect only when the batch is materialized server-side.
func Replay(c Canvas, base image.Image, ops []types.Operation) {
	if base == nil {
		c.Placeholder()
	} else {
		c.DrawBase(base)
	}
	for _, op := range ops {
		switch p := op.Payload.(type) {
		case types.AddText:
			c.DrawText(op.Position, p.Text, p.FontSize, p.Color.MustParse())
		case types.AddShape:
			drawShape(c, op.Position, p)
		case types.PageTransform:
		}
	}
}

func drawShape(c Canvas, pos types.Point, p types.AddShape) {
	col := p.Color.MustParse()
	switch p.Shape {
	case types.ShapeRectangle:
		r := Rect{X: pos.X, Y: pos.Y, W: p.Width, H: p.Height}
		if p.Filled {
			c.FillRect(r, col)
		}
		c.StrokeRect(r, col)
	case types.ShapeCircle:
		center := types.Point{X: pos.X + p.Width/2, Y: pos.Y + p.Height/2}
		radius := math.Min(p.Width, p.Height) / 2
		if p.Filled {
			c.FillCircle(center, radius, col)
		}
		c.StrokeCircle(center, radius, col)
	}
}

// PlaceholderSize is the preview size used before a page raster exists:
// US Letter at 72 dpi.
var PlaceholderSize = image.Pt(612, 792)

// Pipeline composes previews onto fresh rasters.
type Pipeline struct {
	faces     *Faces
	lineWidth float64
}

// NewPipeline creates a pipeline using the shared font faces.
func NewPipeline() *Pipeline {
	return &Pipeline{faces: NewFaces(), lineWidth: DefaultLineWidth}
}

// Compose returns a new image containing base with ops replayed on top.
// base is only read, never modified, so cached page rasters stay intact.
func (p *Pipeline) Compose(base image.Image, ops []types.Operation) *image.RGBA {
	return p.ComposeScaled(base, 1, ops)
}

// ComposeScaled is Compose for a base rasterized at scale. The output is
// in document space (scale 1.0) so operation positions and pointer offsets
// line up without correction.
func (p *Pipeline) ComposeScaled(base image.Image, scale float64, ops []types.Operation) *image.RGBA {
	bounds := image.Rectangle{Max: PlaceholderSize}
	if base != nil {
		if scale <= 0 {
			scale = 1
		}
		b := base.Bounds()
		bounds = image.Rect(0, 0,
			int(math.Round(float64(b.Dx())/scale)),
			int(math.Round(float64(b.Dy())/scale)))
	}
	c := NewRasterCanvas(bounds, p.faces, p.lineWidth)
	Replay(c, base, ops)
	return c.Image()
}
