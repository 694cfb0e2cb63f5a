// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF assembles a PDF with n blank pages of the given size, computing
// cross-reference offsets so the reader can locate every object.
func buildPDF(n int, width, height int) []byte {
	var buf bytes.Buffer
	offsets := []int{}
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, n)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 %d %d] >>",
		strings.Join(kids, " "), n, width, height))
	for i := 0; i < n; i++ {
		obj("<< /Type /Page /Parent 2 0 R >>")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f\n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF", len(offsets)+1, xref)
	return buf.Bytes()
}

func TestTabulaRenderer(t *testing.T) {
	r := &TabulaRenderer{TempDir: t.TempDir()}
	doc, err := r.Open(context.Background(), buildPDF(3, 200, 100))
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, 3, doc.PageCount())

	img, err := doc.RenderPage(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(400, 200), img.Bounds().Size())
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, img.RGBAAt(10, 10))

	_, err = doc.RenderPage(context.Background(), 3, 1)
	var pre *PageRenderError
	require.ErrorAs(t, err, &pre)
	assert.Equal(t, 3, pre.Page)
}

func TestTabulaRenderer_DecodeErrors(t *testing.T) {
	r := &TabulaRenderer{TempDir: t.TempDir()}
	for name, data := range map[string][]byte{
		"empty":   nil,
		"garbage": []byte("this is not a pdf at all"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := r.Open(context.Background(), data)
			var de *DecodeError
			assert.ErrorAs(t, err, &de)
		})
	}
}

// fakeRuntime stands in for docker/podman in poppler tests.
type fakeRuntime struct {
	args []string
	run  func(stdin io.Reader, stdout io.Writer) error
}

func (f *fakeRuntime) Name() string              { return "fake" }
func (f *fakeRuntime) Available() bool           { return true }
func (f *fakeRuntime) ImageExists(string) error  { return nil }
func (f *fakeRuntime) Run(_ context.Context, _ string, args []string, stdin io.Reader, stdout io.Writer) error {
	f.args = args
	return f.run(stdin, stdout)
}

func TestPopplerRenderer(t *testing.T) {
	rt := &fakeRuntime{run: func(_ io.Reader, stdout io.Writer) error {
		return png.Encode(stdout, image.NewGray(image.Rect(0, 0, 30, 20)))
	}}
	r := &PopplerRenderer{Runtime: rt, TempDir: t.TempDir()}

	doc, err := r.Open(context.Background(), buildPDF(2, 300, 200))
	require.NoError(t, err)
	assert.Equal(t, 2, doc.PageCount())

	img, err := doc.RenderPage(context.Background(), 1, 1.5)
	require.NoError(t, err)
	assert.Equal(t, image.Pt(30, 20), img.Bounds().Size())
	assert.Equal(t, []string{"pdftoppm", "-f", "2", "-l", "2", "-r", "108", "-png", "-singlefile", "-"}, rt.args)

	rt.run = func(io.Reader, io.Writer) error { return errors.New("exit status 99") }
	_, err = doc.RenderPage(context.Background(), 0, 1)
	var pre *PageRenderError
	assert.ErrorAs(t, err, &pre)
}

// fakeDoc renders solid images, optionally blocking until released.
type fakeDoc struct {
	pages   int
	renders atomic.Int32
	block   chan struct{}
	fail    map[int]bool
}

func (d *fakeDoc) PageCount() int { return d.pages }
func (d *fakeDoc) RenderPage(ctx context.Context, index int, _ float64) (*image.RGBA, error) {
	d.renders.Add(1)
	if d.block != nil {
		select {
		case <-d.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.fail[index] {
		return nil, &PageRenderError{Page: index, Err: errors.New("broken content stream")}
	}
	return image.NewRGBA(image.Rect(0, 0, 10, 10+index)), nil
}
func (d *fakeDoc) Close() error { return nil }

type fakeRenderer struct {
	doc *fakeDoc
	err error
}

func (r *fakeRenderer) Open(context.Context, []byte) (Document, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.doc, nil
}

func recv(t *testing.T, ch <-chan PageResult) PageResult {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for page result")
		return PageResult{}
	}
}

func TestLoader_RequestAndCache(t *testing.T) {
	doc := &fakeDoc{pages: 3}
	l := NewLoader(&fakeRenderer{doc: doc}, 1)

	n, err := l.Open(context.Background(), "a.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "a.pdf", l.Name())

	res := recv(t, l.Request(context.Background(), 2))
	require.NoError(t, res.Err)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 12, res.Image.Bounds().Dy())

	cached, ok := l.Cached(2)
	require.True(t, ok)
	assert.Same(t, res.Image, cached)

	again := recv(t, l.Request(context.Background(), 2))
	assert.Same(t, cached, again.Image)
	assert.Equal(t, int32(1), doc.renders.Load(), "cached pages are not re-rendered")
}

func TestLoader_NewRequestSupersedesInFlight(t *testing.T) {
	doc := &fakeDoc{pages: 5, block: make(chan struct{})}
	l := NewLoader(&fakeRenderer{doc: doc}, 1)
	_, err := l.Open(context.Background(), "a.pdf", nil)
	require.NoError(t, err)

	stale := l.Request(context.Background(), 0)
	fresh := l.Request(context.Background(), 1)
	close(doc.block)

	res := recv(t, fresh)
	require.NoError(t, res.Err)
	assert.Equal(t, 1, res.Page)

	select {
	case r := <-stale:
		t.Fatalf("superseded request delivered %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
	_, ok := l.Cached(0)
	assert.False(t, ok)
}

func TestLoader_OpenReplacesDocument(t *testing.T) {
	doc := &fakeDoc{pages: 2, block: make(chan struct{})}
	l := NewLoader(&fakeRenderer{doc: doc}, 1)
	_, err := l.Open(context.Background(), "a.pdf", nil)
	require.NoError(t, err)
	gen := l.Generation()

	inflight := l.Request(context.Background(), 0)
	_, err = l.Open(context.Background(), "b.pdf", nil)
	require.NoError(t, err)
	assert.NotEqual(t, gen, l.Generation())

	close(doc.block)
	select {
	case r := <-inflight:
		t.Fatalf("request for replaced document delivered %+v", r)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLoader_Errors(t *testing.T) {
	l := NewLoader(&fakeRenderer{err: &DecodeError{Err: errors.New("bad xref")}}, 1)

	_, err := l.Open(context.Background(), "broken.pdf", nil)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "broken.pdf", de.Name)
	assert.False(t, l.Loaded())
	assert.Zero(t, l.PageCount())

	res := recv(t, l.Request(context.Background(), 0))
	assert.ErrorIs(t, res.Err, ErrNoDocument)

	doc := &fakeDoc{pages: 2, fail: map[int]bool{1: true}}
	l = NewLoader(&fakeRenderer{doc: doc}, 1)
	_, err = l.Open(context.Background(), "a.pdf", nil)
	require.NoError(t, err)
	res = recv(t, l.Request(context.Background(), 1))
	var pre *PageRenderError
	require.ErrorAs(t, res.Err, &pre)
	_, ok := l.Cached(1)
	assert.False(t, ok, "failed renders are not cached")
}
