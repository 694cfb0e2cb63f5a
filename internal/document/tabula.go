// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"sync"

	"github.com/tsawler/tabula/pages"
	"github.com/tsawler/tabula/reader"
	"golang.org/x/image/draw"

	"github.com/pdiddy/pdf-markup/internal/render"
	"github.com/pdiddy/pdf-markup/pkg/types"
)

// TabulaRenderer decodes documents in-process with tabula. Its page rasters
// are approximations: a white page of the media-box size with the page's
// text fragments drawn at their positions. Vector graphics and images are
// not painted.
type TabulaRenderer struct {
	// TempDir receives the spooled PDF; empty means os.TempDir.
	TempDir string
}

// Open spools data to a temporary file, which tabula reads by offset, and
// loads the page tree.
func (r *TabulaRenderer) Open(ctx context.Context, data []byte) (Document, error) {
	rd, path, err := openTabula(ctx, r.TempDir, data)
	if err != nil {
		return nil, err
	}
	n, err := rd.PageCount()
	if err != nil {
		rd.Close()
		os.Remove(path)
		return nil, &DecodeError{Err: fmt.Errorf("reading page tree: %w", err)}
	}
	return &tabulaDoc{rd: rd, path: path, count: n, faces: render.NewFaces()}, nil
}

func openTabula(ctx context.Context, dir string, data []byte) (*reader.Reader, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if len(data) == 0 {
		return nil, "", &DecodeError{Err: errors.New("empty file")}
	}
	f, err := os.CreateTemp(dir, "pdf-markup-*.pdf")
	if err != nil {
		return nil, "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("writing temp file: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		f.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("rewinding temp file: %w", err)
	}
	rd, err := reader.NewReader(f)
	if err != nil {
		f.Close()
		os.Remove(path)
		return nil, "", &DecodeError{Err: err}
	}
	return rd, path, nil
}

// tabulaDoc serializes access to the reader, whose object cache is not
// safe for concurrent use.
type tabulaDoc struct {
	mu    sync.Mutex
	rd    *reader.Reader
	path  string
	count int
	faces *render.Faces
}

func (d *tabulaDoc) PageCount() int { return d.count }

func (d *tabulaDoc) RenderPage(ctx context.Context, index int, scale float64) (*image.RGBA, error) {
	if index < 0 || index >= d.count {
		return nil, &PageRenderError{Page: index, Err: fmt.Errorf("page out of range (document has %d pages)", d.count)}
	}
	if scale <= 0 {
		scale = 1
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := d.rd.GetPage(index)
	if err != nil {
		return nil, &PageRenderError{Page: index, Err: err}
	}
	box, err := page.MediaBox()
	if err != nil || len(box) < 4 {
		return nil, &PageRenderError{Page: index, Err: fmt.Errorf("reading media box: %w", orMissing(err))}
	}
	w := int(math.Ceil((box[2] - box[0]) * scale))
	h := int(math.Ceil((box[3] - box[1]) * scale))
	if w <= 0 || h <= 0 {
		return nil, &PageRenderError{Page: index, Err: fmt.Errorf("degenerate media box %v", box)}
	}

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	if err := d.drawText(img, page, box, scale); err != nil {
		return nil, &PageRenderError{Page: index, Err: err}
	}
	return img, nil
}

// drawText paints the page's text fragments. PDF user space has its origin
// at the bottom-left of the media box, so y is flipped.
func (d *tabulaDoc) drawText(img *image.RGBA, page *pages.Page, box []float64, scale float64) error {
	frags, err := d.rd.ExtractTextFragments(page)
	if err != nil {
		return fmt.Errorf("extracting text: %w", err)
	}
	canvas := render.CanvasOn(img, d.faces, 0)
	for _, f := range frags {
		size := int(math.Round(f.FontSize * scale))
		if size <= 0 {
			size = int(math.Round(types.DefaultFontSize * scale))
		}
		p := types.Point{X: (f.X - box[0]) * scale, Y: (box[3] - f.Y) * scale}
		canvas.DrawText(p, f.Text, size, color.Black)
	}
	return nil
}

func (d *tabulaDoc) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.rd.Close()
	if rmErr := os.Remove(d.path); rmErr != nil && !os.IsNotExist(rmErr) && err == nil {
		err = rmErr
	}
	return err
}

func orMissing(err error) error {
	if err != nil {
		return err
	}
	return errors.New("missing or short /MediaBox")
}
