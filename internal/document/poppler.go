// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"math"
	"strconv"

	"golang.org/x/image/draw"

	"github.com/pdiddy/pdf-markup/internal/container"
)

// DefaultPopplerImage is a small image whose entrypoint accepts poppler
// command lines.
const DefaultPopplerImage = "minidocks/poppler:latest"

// PopplerRenderer rasterizes pages with pdftoppm running in a container.
// The page tree is still read with tabula so that decode errors surface at
// Open rather than on the first render.
type PopplerRenderer struct {
	Runtime container.Runtime
	Image   string
	// TempDir is passed to the tabula reader used for page counting.
	TempDir string
}

// NewPopplerRenderer detects a container runtime and verifies the image is
// present locally.
func NewPopplerRenderer(image string) (*PopplerRenderer, error) {
	if image == "" {
		image = DefaultPopplerImage
	}
	rt, err := container.DetectRuntime()
	if err != nil {
		return nil, err
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("poppler renderer: %w (pull it with `%s pull %s`)", err, rt.Name(), image)
	}
	return &PopplerRenderer{Runtime: rt, Image: image}, nil
}

func (r *PopplerRenderer) Open(ctx context.Context, data []byte) (Document, error) {
	rd, path, err := openTabula(ctx, r.TempDir, data)
	if err != nil {
		return nil, err
	}
	counter := &tabulaDoc{rd: rd, path: path}
	defer counter.Close()

	n, err := rd.PageCount()
	if err != nil {
		return nil, &DecodeError{Err: fmt.Errorf("reading page tree: %w", err)}
	}
	return &popplerDoc{rt: r.Runtime, image: r.image(), data: data, count: n}, nil
}

func (r *PopplerRenderer) image() string {
	if r.Image == "" {
		return DefaultPopplerImage
	}
	return r.Image
}

type popplerDoc struct {
	rt    container.Runtime
	image string
	data  []byte
	count int
}

func (d *popplerDoc) PageCount() int { return d.count }

// RenderPage runs pdftoppm for a single page at 72*scale dpi, reading the
// document from stdin and writing one PNG to stdout.
func (d *popplerDoc) RenderPage(ctx context.Context, index int, scale float64) (*image.RGBA, error) {
	if index < 0 || index >= d.count {
		return nil, &PageRenderError{Page: index, Err: fmt.Errorf("page out of range (document has %d pages)", d.count)}
	}
	if scale <= 0 {
		scale = 1
	}
	page := strconv.Itoa(index + 1)
	dpi := strconv.Itoa(int(math.Round(72 * scale)))
	args := []string{"pdftoppm", "-f", page, "-l", page, "-r", dpi, "-png", "-singlefile", "-"}

	var out bytes.Buffer
	if err := d.rt.Run(ctx, d.image, args, bytes.NewReader(d.data), &out); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &PageRenderError{Page: index, Err: err}
	}
	img, err := png.Decode(&out)
	if err != nil {
		return nil, &PageRenderError{Page: index, Err: fmt.Errorf("decoding pdftoppm output: %w", err)}
	}
	return toRGBA(img), nil
}

func (d *popplerDoc) Close() error { return nil }

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
