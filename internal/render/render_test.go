// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-markup/pkg/types"
)

// recorder is a Canvas that logs every call.
type recorder struct {
	calls []string
}

func (r *recorder) DrawBase(img image.Image) {
	r.calls = append(r.calls, fmt.Sprintf("base %v", img.Bounds().Size()))
}
func (r *recorder) Placeholder() { r.calls = append(r.calls, "placeholder") }
func (r *recorder) FillRect(rc Rect, _ color.Color) {
	r.calls = append(r.calls, fmt.Sprintf("fillRect %g,%g %gx%g", rc.X, rc.Y, rc.W, rc.H))
}
func (r *recorder) StrokeRect(rc Rect, _ color.Color) {
	r.calls = append(r.calls, fmt.Sprintf("strokeRect %g,%g %gx%g", rc.X, rc.Y, rc.W, rc.H))
}
func (r *recorder) FillCircle(c types.Point, rad float64, _ color.Color) {
	r.calls = append(r.calls, fmt.Sprintf("fillCircle %g,%g r%g", c.X, c.Y, rad))
}
func (r *recorder) StrokeCircle(c types.Point, rad float64, _ color.Color) {
	r.calls = append(r.calls, fmt.Sprintf("strokeCircle %g,%g r%g", c.X, c.Y, rad))
}
func (r *recorder) DrawText(p types.Point, s string, size int, _ color.Color) {
	r.calls = append(r.calls, fmt.Sprintf("text %q %g,%g %d", s, p.X, p.Y, size))
}

func TestReplay_UnfilledRectangleStrokesOnly(t *testing.T) {
	ops := []types.Operation{{
		ID: "r", Page: 2, Position: types.Point{X: 30, Y: 40},
		Payload: types.AddShape{Shape: types.ShapeRectangle, Width: 120, Height: 60, Color: "#ff0000", Filled: false},
	}}
	rec := &recorder{}
	Replay(rec, image.NewRGBA(image.Rect(0, 0, 200, 300)), ops)

	assert.Equal(t, []string{"base (200,300)", "strokeRect 30,40 120x60"}, rec.calls)
}

func TestReplay_FilledShapes(t *testing.T) {
	ops := []types.Operation{
		{ID: "a", Position: types.Point{X: 1, Y: 2}, Payload: types.AddShape{Shape: types.ShapeRectangle, Width: 3, Height: 4, Color: types.Black, Filled: true}},
		{ID: "b", Position: types.Point{X: 10, Y: 10}, Payload: types.AddShape{Shape: types.ShapeCircle, Width: 20, Height: 40, Color: types.Black, Filled: true}},
		{ID: "c", Position: types.Point{X: 0, Y: 0}, Payload: types.AddShape{Shape: types.ShapeCircle, Width: 8, Height: 6, Color: types.Black}},
	}
	rec := &recorder{}
	Replay(rec, nil, ops)

	assert.Equal(t, []string{
		"placeholder",
		"fillRect 1,2 3x4",
		"strokeRect 1,2 3x4",
		"fillCircle 20,30 r10",
		"strokeCircle 20,30 r10",
		"strokeCircle 4,3 r3",
	}, rec.calls)
}

func TestReplay_PageTransformsDrawNothing(t *testing.T) {
	ops := []types.Operation{
		{ID: "r", Page: 1, Payload: types.PageTransform{Transform: types.TransformRotate, Angle: 90}},
		{ID: "d", Page: 1, Payload: types.PageTransform{Transform: types.TransformDelete}},
	}
	rec := &recorder{}
	Replay(rec, nil, ops)
	assert.Equal(t, []string{"placeholder"}, rec.calls)
}

func TestReplay_InsertionOrder(t *testing.T) {
	ops := []types.Operation{
		{ID: "1", Position: types.Point{X: 5, Y: 6}, Payload: types.AddText{Text: "first", FontSize: 12, Color: types.Black}},
		{ID: "2", Position: types.Point{X: 0, Y: 0}, Payload: types.AddShape{Shape: types.ShapeRectangle, Width: 1, Height: 1, Color: types.Black}},
		{ID: "3", Position: types.Point{X: 7, Y: 8}, Payload: types.AddText{Text: "third", FontSize: 20, Color: types.Black}},
	}
	rec := &recorder{}
	Replay(rec, nil, ops)
	assert.Equal(t, []string{
		"placeholder",
		`text "first" 5,6 12`,
		"strokeRect 0,0 1x1",
		`text "third" 7,8 20`,
	}, rec.calls)
}

func TestCompose_DoesNotMutateBase(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 50, 50))
	for i := range base.Pix {
		base.Pix[i] = 0xff
	}
	orig := append([]uint8(nil), base.Pix...)

	ops := []types.Operation{{
		ID: "x", Position: types.Point{X: 10, Y: 10},
		Payload: types.AddShape{Shape: types.ShapeRectangle, Width: 20, Height: 20, Color: "#000", Filled: true},
	}}
	p := NewPipeline()
	out := p.Compose(base, ops)

	assert.Equal(t, orig, base.Pix, "base raster must stay intact")
	assert.Equal(t, color.RGBA{A: 0xff}, out.RGBAAt(20, 20))
	assert.Equal(t, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, out.RGBAAt(5, 5))

	again := p.Compose(base, ops)
	assert.Equal(t, out.Pix, again.Pix, "re-render is idempotent")
}

func TestCompose_PlaceholderSize(t *testing.T) {
	out := NewPipeline().Compose(nil, nil)
	assert.Equal(t, PlaceholderSize, out.Bounds().Size())
	assert.Equal(t, color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff}, out.RGBAAt(0, 0))
}

func TestRasterCanvas_StrokeRectLeavesInteriorUntouched(t *testing.T) {
	c := NewRasterCanvas(image.Rect(0, 0, 40, 40), nil, 2)
	c.StrokeRect(Rect{X: 5, Y: 5, W: 20, H: 20}, color.Black)

	img := c.Image()
	assert.Equal(t, uint8(0xff), img.RGBAAt(5, 5).A, "border")
	assert.Equal(t, uint8(0xff), img.RGBAAt(24, 15).A, "right border")
	assert.Equal(t, uint8(0), img.RGBAAt(15, 15).A, "interior")
	assert.Equal(t, uint8(0), img.RGBAAt(30, 30).A, "outside")
}

func TestRasterCanvas_Circle(t *testing.T) {
	c := NewRasterCanvas(image.Rect(0, 0, 40, 40), nil, 2)
	c.FillCircle(types.Point{X: 20, Y: 20}, 10, color.Black)

	img := c.Image()
	assert.Equal(t, uint8(0xff), img.RGBAAt(20, 20).A)
	assert.Equal(t, uint8(0xff), img.RGBAAt(12, 20).A)
	assert.Equal(t, uint8(0), img.RGBAAt(11, 11).A, "corner of bounding box is outside")

	s := NewRasterCanvas(image.Rect(0, 0, 40, 40), nil, 2)
	s.StrokeCircle(types.Point{X: 20, Y: 20}, 10, color.Black)
	assert.Equal(t, uint8(0), s.Image().RGBAAt(20, 20).A, "stroke leaves centre empty")
	assert.Equal(t, uint8(0xff), s.Image().RGBAAt(10, 20).A)
}

func TestRasterCanvas_DrawTextMarksPixels(t *testing.T) {
	c := NewRasterCanvas(image.Rect(0, 0, 100, 40), nil, 2)
	c.DrawText(types.Point{X: 5, Y: 30}, "Hello", 24, color.Black)

	var inked int
	for _, a := range alphaChannel(c.Image()) {
		if a > 0 {
			inked++
		}
	}
	assert.Positive(t, inked)
}

func alphaChannel(img *image.RGBA) []uint8 {
	out := make([]uint8, 0, len(img.Pix)/4)
	for i := 3; i < len(img.Pix); i += 4 {
		out = append(out, img.Pix[i])
	}
	return out
}

func TestFaces_CachesBySize(t *testing.T) {
	f := NewFaces()
	a := f.face(18)
	b := f.face(18)
	require.NotNil(t, a)
	assert.Same(t, a, b)
	assert.NotNil(t, f.face(0), "non-positive sizes fall back")
}

// Run with -race: canvases sharing one Faces draw text at the same time.
func TestRasterCanvas_ConcurrentText(t *testing.T) {
	faces := NewFaces()
	var wg sync.WaitGroup
	imgs := make([]*image.RGBA, 4)
	for i := range imgs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := NewRasterCanvas(image.Rect(0, 0, 200, 40), faces, 0)
			for j := 0; j < 20; j++ {
				c.DrawText(types.Point{X: 5, Y: 30}, "Hello, page", 24, color.Black)
			}
			imgs[i] = c.Image()
		}(i)
	}
	wg.Wait()

	for _, img := range imgs {
		assert.Equal(t, imgs[0].Pix, img.Pix)
	}
	assert.Contains(t, alphaChannel(imgs[0]), uint8(0xff))
}

func TestNetTransform(t *testing.T) {
	ops := []types.Operation{
		{Payload: types.PageTransform{Transform: types.TransformRotate, Angle: 270}},
		{Payload: types.AddText{Text: "x", FontSize: 1, Color: types.Black}},
		{Payload: types.PageTransform{Transform: types.TransformRotate, Angle: 180}},
	}
	angle, deleted := NetTransform(ops)
	assert.Equal(t, 90, angle)
	assert.False(t, deleted)

	_, deleted = NetTransform(append(ops, types.Operation{Payload: types.PageTransform{Transform: types.TransformDelete}}))
	assert.True(t, deleted)
}

func TestPreviewTransforms(t *testing.T) {
	p := NewPipeline()
	img := image.NewRGBA(image.Rect(0, 0, 30, 10))
	img.SetRGBA(0, 0, color.RGBA{R: 0xff, A: 0xff})

	assert.Same(t, img, p.PreviewTransforms(img, nil))

	rot := p.PreviewTransforms(img, []types.Operation{{Payload: types.PageTransform{Transform: types.TransformRotate, Angle: 90}}})
	assert.Equal(t, image.Pt(10, 30), rot.Bounds().Size())
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, rot.RGBAAt(9, 0), "top-left moves to top-right")
	assert.Equal(t, color.RGBA{R: 0xff, A: 0xff}, img.RGBAAt(0, 0), "source untouched")
}

func TestComposeScaled_OutputInDocumentSpace(t *testing.T) {
	base := image.NewRGBA(image.Rect(0, 0, 1224, 1584))
	out := NewPipeline().ComposeScaled(base, 2, nil)
	assert.Equal(t, image.Pt(612, 792), out.Bounds().Size())
}
