// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package editor composes the document loader, operation log, tool state
// machine, navigator and render pipeline into one editing session. An
// Editor is driven by discrete events from a single goroutine; only page
// renders and batch sends run elsewhere, and their results re-enter
// through PageLoaded and the host's own loop.
package editor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/pdiddy/pdf-markup/internal/document"
	"github.com/pdiddy/pdf-markup/internal/history"
	"github.com/pdiddy/pdf-markup/internal/nav"
	"github.com/pdiddy/pdf-markup/internal/oplog"
	"github.com/pdiddy/pdf-markup/internal/render"
	"github.com/pdiddy/pdf-markup/internal/submit"
	"github.com/pdiddy/pdf-markup/internal/surface"
	"github.com/pdiddy/pdf-markup/internal/tool"
	"github.com/pdiddy/pdf-markup/pkg/types"
)

// ErrEditingDisabled is returned for edits attempted while a load or
// render failure notice is outstanding.
var ErrEditingDisabled = errors.New("editing is disabled until the document loads")

// Submitter sends a batch to the Processing Service.
type Submitter interface {
	Submit(ctx context.Context, files []submit.File, ops []types.Operation, opts submit.Options) (*submit.Result, error)
}

// NoticeKind classifies a user-facing notice.
type NoticeKind string

const (
	NoticeDecode NoticeKind = "decode"
	NoticeRender NoticeKind = "render"
)

// Notice is a dismissible message shown to the user.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Option configures an Editor.
type Option func(*Editor)

// WithHistory records every submission attempt in store.
func WithHistory(store history.Store) Option {
	return func(e *Editor) { e.history = store }
}

// WithOnRender registers the hook that receives every re-rendered preview.
func WithOnRender(fn func(*image.RGBA)) Option {
	return func(e *Editor) { e.onRender = fn }
}

// WithPreviewTransforms enables the approximate rotate/delete preview.
func WithPreviewTransforms(on bool) Option {
	return func(e *Editor) { e.previewTransforms = on }
}

// WithLogOptions passes options to the operation log, e.g. an ID generator.
func WithLogOptions(opts ...oplog.Option) Option {
	return func(e *Editor) { e.logOpts = opts }
}

// WithStatus sets the writer for human-readable progress lines.
func WithStatus(w io.Writer) Option {
	return func(e *Editor) { e.status = w }
}

// Editor is one editing session. It is not safe for concurrent use.
type Editor struct {
	loader    *document.Loader
	submitter Submitter
	history   history.Store
	pipeline  *render.Pipeline

	log     *oplog.Log
	logOpts []oplog.Option
	surface *surface.Surface
	machine *tool.Machine
	nav     nav.Navigator

	files    []submit.File
	notice   *Notice
	disabled bool

	previewTransforms bool
	onRender          func(*image.RGBA)
	status            io.Writer
	rendered          renderKey
}

// renderKey captures every input of the preview; a change means re-render.
type renderKey struct {
	revision   uint64
	page       int
	generation uint64
	base       *image.RGBA
}

// New creates an editor with no document selected.
func New(loader *document.Loader, sub Submitter, opts ...Option) *Editor {
	e := &Editor{
		loader:    loader,
		submitter: sub,
		pipeline:  render.NewPipeline(),
		surface:   &surface.Surface{},
		status:    io.Discard,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.log = oplog.New(e.logOpts...)
	e.machine = tool.NewMachine(e.log, e.surface)
	e.rendered.revision = ^uint64(0)
	return e
}

// SelectFiles replaces the file selection. The log and view state are
// reset and the first file is decoded for preview; every file is sent on
// submit. A decode failure sets a notice, disables editing and is also
// returned.
func (e *Editor) SelectFiles(ctx context.Context, files []submit.File) error {
	e.resetSession()
	e.files = append([]submit.File(nil), files...)
	if len(files) == 0 {
		e.maybeRender()
		return nil
	}

	n, err := e.loader.Open(ctx, files[0].Name, files[0].Data)
	if err != nil {
		var de *document.DecodeError
		if errors.As(err, &de) {
			e.fail(NoticeDecode, err)
		}
		e.maybeRender()
		return err
	}
	e.nav.SetPageCount(n)
	fmt.Fprintf(e.status, "loaded %s (%d pages)\n", files[0].Name, n)
	e.maybeRender()
	return nil
}

// ClearFiles drops the selection, the document and every operation.
func (e *Editor) ClearFiles() {
	e.resetSession()
	e.maybeRender()
}

// Close releases the loaded document.
func (e *Editor) Close() error { return e.loader.Close() }

func (e *Editor) resetSession() {
	e.files = nil
	e.loader.Reset()
	e.log.Clear()
	e.nav.Reset()
	e.surface.Reset()
	e.notice = nil
	e.disabled = false
}

func (e *Editor) fail(kind NoticeKind, err error) {
	e.notice = &Notice{Kind: kind, Message: err.Error()}
	e.disabled = true
}

// DismissNotice hides the current notice. Editing is re-enabled once the
// current page has rendered successfully.
func (e *Editor) DismissNotice() {
	e.notice = nil
	if _, ok := e.loader.Cached(e.nav.Current()); ok {
		e.disabled = false
	}
}

// SelectTool switches the active tool. The log is never touched.
func (e *Editor) SelectTool(t tool.Tool) error { return e.machine.Select(t) }

// SetTextParams replaces the text tool parameters.
func (e *Editor) SetTextParams(p tool.TextParams) error { return e.machine.SetText(p) }

// SetShapeParams replaces the shape tool parameters.
func (e *Editor) SetShapeParams(p tool.ShapeParams) error { return e.machine.SetShape(p) }

// SetPageParams replaces the page tool parameters.
func (e *Editor) SetPageParams(p tool.PageParams) error { return e.machine.SetPage(p) }

// MeasureSurface records the displayed surface's bounding box.
func (e *Editor) MeasureSurface(b surface.Box) { e.surface.Measure(b) }

// Click handles a pointer press on the surface. Clicks before the surface
// is measured, and clicks with the page tool, are ignored without error.
func (e *Editor) Click(x, y float64) (types.Operation, bool, error) {
	if e.disabled {
		return types.Operation{}, false, ErrEditingDisabled
	}
	op, ok, err := e.machine.Click(tool.Click{ClientX: x, ClientY: y}, e.view())
	if ok {
		e.maybeRender()
	}
	return op, ok, err
}

// Rotate appends a rotation of the current page by the page tool's angle.
func (e *Editor) Rotate() (types.Operation, error) { return e.pageAction(tool.ActionRotate) }

// DeletePage appends a deletion of the current page.
func (e *Editor) DeletePage() (types.Operation, error) { return e.pageAction(tool.ActionDelete) }

func (e *Editor) pageAction(a tool.PageAction) (types.Operation, error) {
	if e.disabled {
		return types.Operation{}, ErrEditingDisabled
	}
	op, err := e.machine.Apply(a, e.view())
	if err != nil {
		return op, err
	}
	e.maybeRender()
	return op, nil
}

// Add appends a fully specified draft, as read from an operations file.
func (e *Editor) Add(d types.Draft) (types.Operation, error) {
	if e.disabled {
		return types.Operation{}, ErrEditingDisabled
	}
	op, err := e.log.Append(d)
	if err != nil {
		return op, err
	}
	e.maybeRender()
	return op, nil
}

// Remove deletes the operation with id, reporting whether one existed.
func (e *Editor) Remove(id string) bool {
	ok := e.log.RemoveByID(id)
	e.maybeRender()
	return ok
}

// ClearOperations empties the log.
func (e *Editor) ClearOperations() {
	e.log.Clear()
	e.maybeRender()
}

// GoTo shows page i, clamped to the document. It reports whether the page
// changed; the host should then call RequestPage.
func (e *Editor) GoTo(i int) bool { return e.navigated(e.nav.GoTo(i)) }

// Next shows the following page.
func (e *Editor) Next() bool { return e.navigated(e.nav.Next()) }

// Previous shows the preceding page.
func (e *Editor) Previous() bool { return e.navigated(e.nav.Previous()) }

func (e *Editor) navigated(changed bool) bool {
	if changed {
		e.surface.Reset()
		e.maybeRender()
	}
	return changed
}

// RequestPage starts rendering the current page. It returns nil when no
// document is loaded. A later request supersedes this one.
func (e *Editor) RequestPage(ctx context.Context) <-chan document.PageResult {
	if !e.loader.Loaded() {
		return nil
	}
	return e.loader.Request(ctx, e.nav.Current())
}

// PageLoaded applies a finished render. Results for a replaced document or
// a page no longer shown are discarded and reported as false.
func (e *Editor) PageLoaded(res document.PageResult) bool {
	if res.Generation != e.loader.Generation() || res.Page != e.nav.Current() {
		return false
	}
	if res.Err != nil {
		e.fail(NoticeRender, res.Err)
		e.maybeRender()
		return true
	}
	if e.notice == nil || e.notice.Kind == NoticeRender {
		e.notice = nil
		e.disabled = false
	}
	e.maybeRender()
	return true
}

// LoadPage renders the current page and waits for it.
func (e *Editor) LoadPage(ctx context.Context) error {
	ch := e.RequestPage(ctx)
	if ch == nil {
		return document.ErrNoDocument
	}
	select {
	case res := <-ch:
		e.PageLoaded(res)
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Preview composes the current page: its raster, or a placeholder while it
// is not yet rendered, with the page's operations replayed on top.
func (e *Editor) Preview() *image.RGBA {
	page := e.nav.Current()
	ops := e.log.ByPage(page)

	var img *image.RGBA
	if base, ok := e.loader.Cached(page); ok {
		img = e.pipeline.ComposeScaled(base, e.loader.Scale(), ops)
	} else {
		img = e.pipeline.Compose(nil, ops)
	}
	if e.previewTransforms {
		img = e.pipeline.PreviewTransforms(img, ops)
	}
	return img
}

func (e *Editor) maybeRender() {
	page := e.nav.Current()
	base, _ := e.loader.Cached(page)
	key := renderKey{
		revision:   e.log.Revision(),
		page:       page,
		generation: e.loader.Generation(),
		base:       base,
	}
	if key == e.rendered {
		return
	}
	e.rendered = key
	if e.onRender != nil {
		e.onRender(e.Preview())
	}
}

func (e *Editor) view() tool.View { return tool.View{CurrentPage: e.nav.Current()} }

// Batch is a frozen submission: the selected files and a copy of the log.
type Batch struct {
	Files []submit.File
	Ops   []types.Operation
	Opts  submit.Options
}

// Batch snapshots the current selection and log for sending.
func (e *Editor) Batch() Batch {
	count, _ := e.nav.PageCount()
	return Batch{
		Files: append([]submit.File(nil), e.files...),
		Ops:   e.log.Snapshot(),
		Opts:  submit.Options{PageCount: count},
	}
}

// Submit sends the current batch and waits for the outcome. The log is
// left intact whatever the result.
func (e *Editor) Submit(ctx context.Context) (*submit.Result, error) {
	return e.Send(ctx, e.Batch())
}

// Send submits b and records the attempt in the job history. It touches no
// session state, so hosts may call it from a separate goroutine.
func (e *Editor) Send(ctx context.Context, b Batch) (*submit.Result, error) {
	res, err := e.submitter.Submit(ctx, b.Files, b.Ops, b.Opts)

	var ve *submit.ValidationError
	if e.history != nil && !errors.As(err, &ve) {
		job := newJob(b, res, err)
		if _, herr := e.history.Record(context.WithoutCancel(ctx), job); herr != nil {
			fmt.Fprintf(e.status, "warning: recording submission: %v\n", herr)
		}
	}
	return res, err
}

func newJob(b Batch, res *submit.Result, err error) types.Job {
	job := types.Job{OperationCount: len(b.Ops)}
	for _, f := range b.Files {
		job.Files = append(job.Files, f.Name)
	}
	if data, encErr := types.EncodeOperations(b.Ops); encErr == nil {
		job.Operations = string(data)
	}

	var rpe *submit.RemoteProcessingError
	switch {
	case err == nil:
		job.Status = types.JobSucceeded
		job.HTTPStatus = res.Status
		job.ResultName = res.Filename
	case errors.As(err, &rpe):
		job.Status = types.JobRejected
		job.HTTPStatus = rpe.Status
		job.Error = rpe.Message
	default:
		job.Status = types.JobFailed
		job.Error = err.Error()
	}
	return job
}

// Snapshot is the read-only state exposed to the hosting shell.
type Snapshot struct {
	Files           []string          `json:"files"`
	Operations      []types.Operation `json:"operations"`
	CurrentPage     int               `json:"currentPage"`
	PageCount       int               `json:"pageCount,omitempty"`
	PageCountKnown  bool              `json:"pageCountKnown"`
	Tool            tool.Session      `json:"tool"`
	SurfaceReady    bool              `json:"surfaceReady"`
	EditingDisabled bool              `json:"editingDisabled"`
	Notice          *Notice           `json:"notice,omitempty"`
	Revision        uint64            `json:"revision"`
}

// Snapshot returns a copy of the session state.
func (e *Editor) Snapshot() Snapshot {
	count, known := e.nav.PageCount()
	s := Snapshot{
		Files:           make([]string, 0, len(e.files)),
		Operations:      e.log.Snapshot(),
		CurrentPage:     e.nav.Current(),
		PageCount:       count,
		PageCountKnown:  known,
		Tool:            e.machine.Session(),
		SurfaceReady:    e.surface.Ready(),
		EditingDisabled: e.disabled,
		Revision:        e.log.Revision(),
	}
	for _, f := range e.files {
		s.Files = append(s.Files, f.Name)
	}
	if e.notice != nil {
		n := *e.notice
		s.Notice = &n
	}
	return s
}

// Summary renders the log as one line per operation, for CLI output.
func (e *Editor) Summary() string {
	var b strings.Builder
	for _, op := range e.log.Snapshot() {
		fmt.Fprintf(&b, "%-36s  page %-3d  %s\n", op.ID, op.Page+1, describe(op))
	}
	return b.String()
}

func describe(op types.Operation) string {
	switch p := op.Payload.(type) {
	case types.AddText:
		return fmt.Sprintf("text %q at (%g, %g) %dpt %s", p.Text, op.Position.X, op.Position.Y, p.FontSize, p.Color)
	case types.AddShape:
		fill := "outline"
		if p.Filled {
			fill = "filled"
		}
		return fmt.Sprintf("%s %gx%g at (%g, %g) %s %s", p.Shape, p.Width, p.Height, op.Position.X, op.Position.Y, fill, p.Color)
	case types.PageTransform:
		if p.Transform == types.TransformRotate {
			return fmt.Sprintf("rotate %d°", p.Angle)
		}
		return "delete page"
	}
	return string(op.Kind())
}
