// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf-markup/internal/document"
	"github.com/pdiddy/pdf-markup/internal/history"
	"github.com/pdiddy/pdf-markup/internal/oplog"
	"github.com/pdiddy/pdf-markup/internal/submit"
	"github.com/pdiddy/pdf-markup/internal/surface"
	"github.com/pdiddy/pdf-markup/internal/tool"
	"github.com/pdiddy/pdf-markup/pkg/types"
)

type pageDoc struct {
	pages int
	fail  map[int]bool
}

func (d *pageDoc) PageCount() int { return d.pages }
func (d *pageDoc) RenderPage(_ context.Context, index int, scale float64) (*image.RGBA, error) {
	if d.fail[index] {
		return nil, &document.PageRenderError{Page: index, Err: errors.New("broken content stream")}
	}
	img := image.NewRGBA(image.Rect(0, 0, int(100*scale), int(80*scale)))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	return img, nil
}
func (d *pageDoc) Close() error { return nil }

type stubRenderer struct {
	doc *pageDoc
}

func (r *stubRenderer) Open(_ context.Context, data []byte) (document.Document, error) {
	if string(data) == "garbage" {
		return nil, &document.DecodeError{Err: errors.New("no header")}
	}
	return r.doc, nil
}

type stubSubmitter struct {
	calls int
	batch []types.Operation
	res   *submit.Result
	err   error
}

func (s *stubSubmitter) Submit(_ context.Context, files []submit.File, ops []types.Operation, opts submit.Options) (*submit.Result, error) {
	if err := submit.Validate(files, ops, opts); err != nil {
		return nil, err
	}
	s.calls++
	s.batch = ops
	return s.res, s.err
}

func sequentialIDs() oplog.Option {
	n := 0
	return oplog.WithIDFunc(func() string {
		n++
		return fmt.Sprintf("op-%d", n)
	})
}

func newEditor(t *testing.T, doc *pageDoc, sub *stubSubmitter, opts ...Option) *Editor {
	t.Helper()
	if sub == nil {
		sub = &stubSubmitter{}
	}
	opts = append([]Option{WithLogOptions(sequentialIDs())}, opts...)
	return New(document.NewLoader(&stubRenderer{doc: doc}, 1), sub, opts...)
}

func selectPDF(t *testing.T, e *Editor) {
	t.Helper()
	require.NoError(t, e.SelectFiles(context.Background(), []submit.File{{Name: "a.pdf", Data: []byte("%PDF")}}))
	require.NoError(t, e.LoadPage(context.Background()))
}

func TestEditor_ClickAppendsInDocumentSpace(t *testing.T) {
	e := newEditor(t, &pageDoc{pages: 3}, nil)
	selectPDF(t, e)

	_, ok, err := e.Click(50, 50)
	require.NoError(t, err)
	assert.False(t, ok, "click before measuring is ignored")

	e.MeasureSurface(surface.Box{Left: 40, Top: 30, Width: 100, Height: 80})
	require.NoError(t, e.SetTextParams(tool.TextParams{Text: "Hi", FontSize: 16, Color: "#000"}))
	op, ok, err := e.Click(50, 50)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "op-1", op.ID)
	assert.Equal(t, types.Point{X: 10, Y: 20}, op.Position)

	snap := e.Snapshot()
	assert.Len(t, snap.Operations, 1)
	assert.Equal(t, []string{"a.pdf"}, snap.Files)
	assert.True(t, snap.PageCountKnown)
	assert.Equal(t, 3, snap.PageCount)
}

func TestEditor_NavigationResetsSurface(t *testing.T) {
	e := newEditor(t, &pageDoc{pages: 2}, nil)
	selectPDF(t, e)
	e.MeasureSurface(surface.Box{Width: 100, Height: 80})

	assert.True(t, e.Next())
	assert.False(t, e.Snapshot().SurfaceReady)
	assert.False(t, e.Next(), "clamped at the last page")
	assert.Equal(t, 1, e.Snapshot().CurrentPage)
	assert.True(t, e.Previous())
	assert.False(t, e.Previous())
	assert.Equal(t, 0, e.Snapshot().CurrentPage)
}

func TestEditor_PageActions(t *testing.T) {
	e := newEditor(t, &pageDoc{pages: 2}, nil)
	selectPDF(t, e)

	_, err := e.Rotate()
	assert.ErrorIs(t, err, tool.ErrWrongTool)

	require.NoError(t, e.SelectTool(tool.ToolPage))
	require.NoError(t, e.SetPageParams(tool.PageParams{Angle: 180}))
	e.GoTo(1)
	rot, err := e.Rotate()
	require.NoError(t, err)
	del, err := e.DeletePage()
	require.NoError(t, err)

	assert.Equal(t, types.PageTransform{Transform: types.TransformRotate, Angle: 180}, rot.Payload)
	assert.Equal(t, types.PageTransform{Transform: types.TransformDelete}, del.Payload)
	assert.Equal(t, 1, rot.Page)
	assert.Contains(t, e.Summary(), "rotate 180°")
}

func TestEditor_DecodeErrorDisablesEditing(t *testing.T) {
	e := newEditor(t, &pageDoc{pages: 1}, nil)
	err := e.SelectFiles(context.Background(), []submit.File{{Name: "bad.pdf", Data: []byte("garbage")}})

	var de *document.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "bad.pdf", de.Name)

	snap := e.Snapshot()
	require.NotNil(t, snap.Notice)
	assert.Equal(t, NoticeDecode, snap.Notice.Kind)
	assert.True(t, snap.EditingDisabled)

	_, _, err = e.Click(1, 1)
	assert.ErrorIs(t, err, ErrEditingDisabled)
	_, err = e.Add(types.Draft{Payload: types.AddText{Text: "x", FontSize: 12, Color: types.Black}})
	assert.ErrorIs(t, err, ErrEditingDisabled)

	e.DismissNotice()
	assert.Nil(t, e.Snapshot().Notice)
	assert.True(t, e.Snapshot().EditingDisabled, "still no page rendered")

	selectPDF(t, e)
	assert.False(t, e.Snapshot().EditingDisabled)
}

func TestEditor_RenderErrorThenRecovery(t *testing.T) {
	e := newEditor(t, &pageDoc{pages: 2, fail: map[int]bool{1: true}}, nil)
	selectPDF(t, e)

	e.Next()
	var pre *document.PageRenderError
	require.ErrorAs(t, e.LoadPage(context.Background()), &pre)
	assert.Equal(t, NoticeRender, e.Snapshot().Notice.Kind)
	assert.True(t, e.Snapshot().EditingDisabled)

	e.Previous()
	require.NoError(t, e.LoadPage(context.Background()))
	assert.Nil(t, e.Snapshot().Notice)
	assert.False(t, e.Snapshot().EditingDisabled)
}

func TestEditor_StaleResultsDiscarded(t *testing.T) {
	e := newEditor(t, &pageDoc{pages: 3}, nil)
	selectPDF(t, e)

	assert.False(t, e.PageLoaded(document.PageResult{Generation: 0, Page: 0}), "older document")
	assert.False(t, e.PageLoaded(document.PageResult{Generation: e.loader.Generation(), Page: 2}), "page not shown")
}

func TestEditor_ReselectResetsLog(t *testing.T) {
	e := newEditor(t, &pageDoc{pages: 3}, nil)
	selectPDF(t, e)
	_, err := e.Add(types.Draft{Page: 2, Payload: types.AddText{Text: "x", FontSize: 12, Color: types.Black}})
	require.NoError(t, err)
	e.GoTo(2)

	selectPDF(t, e)
	snap := e.Snapshot()
	assert.Empty(t, snap.Operations)
	assert.Equal(t, 0, snap.CurrentPage)

	e.ClearFiles()
	snap = e.Snapshot()
	assert.Empty(t, snap.Files)
	assert.False(t, snap.PageCountKnown)
}

func TestEditor_RenderHook(t *testing.T) {
	var frames []*image.RGBA
	e := newEditor(t, &pageDoc{pages: 2}, nil, WithOnRender(func(img *image.RGBA) {
		frames = append(frames, img)
	}))
	selectPDF(t, e)
	require.NotEmpty(t, frames)
	last := frames[len(frames)-1]
	assert.Equal(t, image.Pt(100, 80), last.Bounds().Size())
	assert.Equal(t, color.RGBA{0xff, 0xff, 0xff, 0xff}, last.RGBAAt(50, 40))

	n := len(frames)
	op, err := e.Add(types.Draft{Position: types.Point{X: 10, Y: 10}, Payload: types.AddShape{
		Shape: types.ShapeRectangle, Width: 20, Height: 20, Color: "#ff0000", Filled: true,
	}})
	require.NoError(t, err)
	require.Len(t, frames, n+1, "log change re-renders")
	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, frames[n].RGBAAt(20, 20))

	e.SelectTool(tool.ToolShape)
	assert.Len(t, frames, n+1, "tool switch does not re-render")

	assert.True(t, e.Remove(op.ID))
	assert.False(t, e.Remove(op.ID))
	assert.Len(t, frames, n+2)
}

func TestEditor_PreviewPlaceholderBeforeLoad(t *testing.T) {
	e := newEditor(t, &pageDoc{pages: 1}, nil)
	img := e.Preview()
	assert.Equal(t, image.Pt(612, 792), img.Bounds().Size())
}

func TestEditor_SubmitRemoteErrorKeepsLog(t *testing.T) {
	store := history.NewMemoryStore()
	sub := &stubSubmitter{err: &submit.RemoteProcessingError{Status: 403, Message: "Monthly limit reached", ShowUpgrade: true}}
	e := newEditor(t, &pageDoc{pages: 1}, sub, WithHistory(store))
	selectPDF(t, e)
	_, err := e.Add(types.Draft{Payload: types.AddText{Text: "Hi", FontSize: 16, Color: "#000"}})
	require.NoError(t, err)

	_, err = e.Submit(context.Background())
	var rpe *submit.RemoteProcessingError
	require.ErrorAs(t, err, &rpe)
	assert.Equal(t, "Monthly limit reached", rpe.Message)
	assert.Len(t, e.Snapshot().Operations, 1)

	jobs, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, types.JobRejected, jobs[0].Status)
	assert.Equal(t, 403, jobs[0].HTTPStatus)
	assert.Equal(t, []string{"a.pdf"}, jobs[0].Files)
	assert.Contains(t, jobs[0].Operations, `"Hi"`)
}

func TestEditor_SubmitValidation(t *testing.T) {
	store := history.NewMemoryStore()
	sub := &stubSubmitter{}
	e := newEditor(t, &pageDoc{pages: 1}, sub, WithHistory(store))

	_, err := e.Submit(context.Background())
	var ve *submit.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, submit.ErrNoFiles)
	assert.Zero(t, sub.calls)

	jobs, _ := store.List(context.Background(), 0)
	assert.Empty(t, jobs, "validation failures are not recorded")
}

func TestEditor_SubmitSuccess(t *testing.T) {
	store := history.NewMemoryStore()
	sub := &stubSubmitter{res: &submit.Result{Filename: "edited_a.pdf", ContentType: "application/pdf", Data: []byte("%PDF"), Status: 200}}
	e := newEditor(t, &pageDoc{pages: 1}, sub, WithHistory(store))
	selectPDF(t, e)
	_, err := e.Add(types.Draft{Payload: types.AddText{Text: "Hi", FontSize: 16, Color: "#000"}})
	require.NoError(t, err)

	b := e.Batch()
	e.ClearOperations()
	res, err := e.Send(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, "edited_a.pdf", res.Filename)
	assert.Len(t, sub.batch, 1, "batch is frozen at snapshot time")

	jobs, _ := store.List(context.Background(), 0)
	require.Len(t, jobs, 1)
	assert.Equal(t, types.JobSucceeded, jobs[0].Status)
	assert.Equal(t, "edited_a.pdf", jobs[0].ResultName)
	assert.Equal(t, 200, jobs[0].HTTPStatus)
}
