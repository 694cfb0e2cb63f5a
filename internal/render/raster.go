// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"image"
	"image/color"
	"math"
	"sync"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/pdiddy/pdf-markup/pkg/types"
)

// DefaultLineWidth is the stroke width for shape borders, in pixels.
const DefaultLineWidth = 2.0

// PlaceholderColor fills the preview before a page raster is available.
var PlaceholderColor = color.NRGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}

// Faces caches Go Regular font faces by point size. When the embedded font
// cannot be parsed every size falls back to basicfont.Face7x13. A font.Face
// is not safe for concurrent use, so every draw holds the cache lock and
// each renderer owns its own Faces.
type Faces struct {
	once  sync.Once
	font  *opentype.Font
	mu    sync.Mutex
	sizes map[int]font.Face
}

// NewFaces returns an empty face cache.
func NewFaces() *Faces { return &Faces{} }

// Draw paints s with the face for size.
func (f *Faces) Draw(d *font.Drawer, s string, size int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d.Face = f.face(size)
	d.DrawString(s)
}

// face returns a face for size, creating and caching it on first use. The
// caller holds f.mu.
func (f *Faces) face(size int) font.Face {
	f.once.Do(func() {
		parsed, err := opentype.Parse(goregular.TTF)
		if err == nil {
			f.font = parsed
		}
	})
	if f.font == nil || size <= 0 {
		return basicfont.Face7x13
	}
	if face, ok := f.sizes[size]; ok {
		return face
	}
	face, err := opentype.NewFace(f.font, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	if f.sizes == nil {
		f.sizes = make(map[int]font.Face)
	}
	f.sizes[size] = face
	return face
}

// RasterCanvas draws onto an in-memory RGBA image.
type RasterCanvas struct {
	dst       *image.RGBA
	faces     *Faces
	lineWidth float64
}

// NewRasterCanvas allocates a transparent canvas covering bounds.
func NewRasterCanvas(bounds image.Rectangle, faces *Faces, lineWidth float64) *RasterCanvas {
	if faces == nil {
		faces = NewFaces()
	}
	if lineWidth <= 0 {
		lineWidth = DefaultLineWidth
	}
	return &RasterCanvas{dst: image.NewRGBA(bounds), faces: faces, lineWidth: lineWidth}
}

// CanvasOn draws directly onto dst.
func CanvasOn(dst *image.RGBA, faces *Faces, lineWidth float64) *RasterCanvas {
	c := NewRasterCanvas(image.Rectangle{}, faces, lineWidth)
	c.dst = dst
	return c
}

// Image returns the canvas raster.
func (c *RasterCanvas) Image() *image.RGBA { return c.dst }

// DrawBase copies img onto the canvas, scaling when the sizes differ.
func (c *RasterCanvas) DrawBase(img image.Image) {
	b := img.Bounds()
	if b.Dx() == c.dst.Bounds().Dx() && b.Dy() == c.dst.Bounds().Dy() {
		draw.Draw(c.dst, c.dst.Bounds(), img, b.Min, draw.Src)
		return
	}
	draw.ApproxBiLinear.Scale(c.dst, c.dst.Bounds(), img, b, draw.Src, nil)
}

func (c *RasterCanvas) Placeholder() {
	draw.Draw(c.dst, c.dst.Bounds(), image.NewUniform(PlaceholderColor), image.Point{}, draw.Src)
}

func (c *RasterCanvas) FillRect(r Rect, col color.Color) {
	c.fill(pixelRect(r.X, r.Y, r.X+r.W, r.Y+r.H), col)
}

// StrokeRect draws the border inside r so the outline never exceeds the
// requested size.
func (c *RasterCanvas) StrokeRect(r Rect, col color.Color) {
	lw := c.lineWidth
	c.fill(pixelRect(r.X, r.Y, r.X+r.W, r.Y+lw), col)
	c.fill(pixelRect(r.X, r.Y+r.H-lw, r.X+r.W, r.Y+r.H), col)
	c.fill(pixelRect(r.X, r.Y+lw, r.X+lw, r.Y+r.H-lw), col)
	c.fill(pixelRect(r.X+r.W-lw, r.Y+lw, r.X+r.W, r.Y+r.H-lw), col)
}

func (c *RasterCanvas) FillCircle(center types.Point, radius float64, col color.Color) {
	c.circle(center, radius, col, func(d float64) bool { return d <= radius })
}

func (c *RasterCanvas) StrokeCircle(center types.Point, radius float64, col color.Color) {
	inner := radius - c.lineWidth
	c.circle(center, radius, col, func(d float64) bool { return d <= radius && d > inner })
}

func (c *RasterCanvas) DrawText(p types.Point, s string, size int, col color.Color) {
	if s == "" {
		return
	}
	d := &font.Drawer{
		Dst: c.dst,
		Src: image.NewUniform(col),
		Dot: fixed.Point26_6{X: fixed.Int26_6(p.X * 64), Y: fixed.Int26_6(p.Y * 64)},
	}
	c.faces.Draw(d, s, size)
}

func (c *RasterCanvas) fill(r image.Rectangle, col color.Color) {
	r = r.Intersect(c.dst.Bounds())
	if r.Empty() {
		return
	}
	draw.Draw(c.dst, r, image.NewUniform(col), image.Point{}, draw.Over)
}

// circle builds an alpha mask over the circle's bounding box, setting every
// pixel whose centre satisfies in, and composites col through it.
func (c *RasterCanvas) circle(center types.Point, radius float64, col color.Color, in func(d float64) bool) {
	if radius <= 0 {
		return
	}
	box := pixelRect(center.X-radius, center.Y-radius, center.X+radius, center.Y+radius)
	box = box.Intersect(c.dst.Bounds())
	if box.Empty() {
		return
	}
	mask := image.NewAlpha(box)
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			d := math.Hypot(float64(x)+0.5-center.X, float64(y)+0.5-center.Y)
			if in(d) {
				mask.SetAlpha(x, y, color.Alpha{A: 0xff})
			}
		}
	}
	draw.DrawMask(c.dst, box, image.NewUniform(col), image.Point{}, mask, box.Min, draw.Over)
}

func pixelRect(x0, y0, x1, y1 float64) image.Rectangle {
	return image.Rect(
		int(math.Floor(x0)), int(math.Floor(y0)),
		int(math.Ceil(x1)), int(math.Ceil(y1)),
	)
}
