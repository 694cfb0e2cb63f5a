// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"

	"github.com/pdiddy/pdf-markup/pkg/types"
)

// VeilColor covers pages that have a pending delete in the approximated
// preview.
var VeilColor = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xb0}

// NetTransform folds the page transforms in ops into a net clockwise
// rotation in degrees and whether the page is deleted.
func NetTransform(ops []types.Operation) (angle int, deleted bool) {
	for _, op := range ops {
		p, ok := op.Payload.(types.PageTransform)
		if !ok {
			continue
		}
		switch p.Transform {
		case types.TransformRotate:
			angle = (angle + p.Angle) % 360
		case types.TransformDelete:
			deleted = true
		}
	}
	return angle, deleted
}

// PreviewTransforms approximates the server-side effect of page transforms
// on a composed preview. img is not modified; when ops carry no transforms
// img itself is returned.
func (p *Pipeline) PreviewTransforms(img *image.RGBA, ops []types.Operation) *image.RGBA {
	angle, deleted := NetTransform(ops)
	if angle == 0 && !deleted {
		return img
	}
	out := rotate(img, angle)
	if deleted {
		draw.Draw(out, out.Bounds(), image.NewUniform(VeilColor), image.Point{}, draw.Over)
		c := CanvasOn(out, p.faces, p.lineWidth)
		b := out.Bounds()
		c.DrawText(types.Point{X: float64(b.Dx())/2 - 60, Y: float64(b.Dy()) / 2}, "deleted", 32, color.NRGBA{R: 0xc0, A: 0xff})
	}
	return out
}

// rotate returns a copy of src turned clockwise by angle, a multiple of 90.
func rotate(src *image.RGBA, angle int) *image.RGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	var out *image.RGBA
	switch angle {
	case 90, 270:
		out = image.NewRGBA(image.Rect(0, 0, h, w))
	default:
		out = image.NewRGBA(image.Rect(0, 0, w, h))
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := src.RGBAAt(b.Min.X+x, b.Min.Y+y)
			switch angle {
			case 90:
				out.SetRGBA(h-1-y, x, c)
			case 180:
				out.SetRGBA(w-1-x, h-1-y, c)
			case 270:
				out.SetRGBA(y, w-1-x, c)
			default:
				out.SetRGBA(x, y, c)
			}
		}
	}
	return out
}
