// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"log"
	"sync"

	"github.com/pdiddy/pdf-markup/internal/document"
	"github.com/pdiddy/pdf-markup/internal/editor"
	"github.com/pdiddy/pdf-markup/internal/submit"
	"github.com/pdiddy/pdf-markup/internal/tool"
)

// ErrSubmissionInFlight is reported when submit is triggered while the
// previous batch is still being processed.
var ErrSubmissionInFlight = errors.New("a submission is already in progress")

type submission struct {
	result *submit.Result
	err    error
}

// Session is one browser tab's editor. All editor events are serialized
// through Run; page renders and submissions run on their own goroutines
// and report back over channels.
type Session struct {
	ID     string
	editor *editor.Editor
	client *Client

	ctx        context.Context
	cancel     context.CancelFunc
	pageCancel context.CancelFunc
	submitting bool

	incoming  chan ClientMessage
	pages     chan document.PageResult
	submitted chan submission
	stop      chan struct{}
	stopOnce  sync.Once
}

func newSession(id string, client *Client) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        id,
		client:    client,
		ctx:       ctx,
		cancel:    cancel,
		incoming:  make(chan ClientMessage, 16),
		pages:     make(chan document.PageResult, 1),
		submitted: make(chan submission, 1),
		stop:      make(chan struct{}),
	}
	client.session = s
	return s
}

// Deliver queues msg for the session loop. It reports false once the
// session has stopped.
func (s *Session) Deliver(msg ClientMessage) bool {
	select {
	case s.incoming <- msg:
		return true
	case <-s.stop:
		return false
	}
}

// Stop ends the session. It is safe to call more than once.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Done is closed when the session stops.
func (s *Session) Done() <-chan struct{} { return s.stop }

// Run is the session's main loop. It returns when the session stops.
func (s *Session) Run() {
	defer func() {
		s.cancel()
		s.editor.Close()
	}()

	s.sendState()
	s.sendPreview(s.editor.Preview())

	for {
		select {
		case msg := <-s.incoming:
			s.handle(msg)
		case res := <-s.pages:
			s.handlePage(res)
		case sub := <-s.submitted:
			s.handleSubmitted(sub)
		case <-s.stop:
			return
		}
	}
}

func (s *Session) handle(msg ClientMessage) {
	if err := s.dispatch(msg); err != nil {
		s.client.deliver(errorMessage(err))
	}
	s.sendState()
}

func (s *Session) dispatch(msg ClientMessage) error {
	ed := s.editor
	switch msg.Type {
	case MsgSelect:
		files := make([]submit.File, len(msg.Files))
		for i, f := range msg.Files {
			files[i] = submit.File{Name: f.Name, Data: f.Data}
		}
		s.cancelPage()
		if err := ed.SelectFiles(s.ctx, files); err != nil {
			return err
		}
		s.requestPage()
	case MsgClearFiles:
		s.cancelPage()
		ed.ClearFiles()
	case MsgTool:
		t, err := tool.Parse(msg.Tool)
		if err != nil {
			return err
		}
		return ed.SelectTool(t)
	case MsgTextParams:
		if msg.Text == nil {
			return missing("text")
		}
		return ed.SetTextParams(*msg.Text)
	case MsgShapeParams:
		if msg.Shape == nil {
			return missing("shape")
		}
		return ed.SetShapeParams(*msg.Shape)
	case MsgPageParams:
		if msg.Page == nil {
			return missing("page")
		}
		return ed.SetPageParams(*msg.Page)
	case MsgMeasure:
		if msg.Box == nil {
			return missing("box")
		}
		ed.MeasureSurface(*msg.Box)
	case MsgClick:
		if msg.Click == nil {
			return missing("click")
		}
		_, _, err := ed.Click(msg.Click.ClientX, msg.Click.ClientY)
		return err
	case MsgRotate:
		_, err := ed.Rotate()
		return err
	case MsgDeletePage:
		_, err := ed.DeletePage()
		return err
	case MsgRemove:
		ed.Remove(msg.ID)
	case MsgClear:
		ed.ClearOperations()
	case MsgNext:
		s.navigated(ed.Next())
	case MsgPrevious:
		s.navigated(ed.Previous())
	case MsgGoTo:
		s.navigated(ed.GoTo(msg.Index))
	case MsgSubmit:
		return s.startSubmit()
	case MsgDismiss:
		ed.DismissNotice()
	default:
		return errors.New("unknown message type: " + msg.Type)
	}
	return nil
}

func missing(field string) error {
	return errors.New("message is missing " + field)
}

func (s *Session) navigated(changed bool) {
	if changed {
		s.requestPage()
	}
}

// requestPage renders the current page, superseding any earlier request.
func (s *Session) requestPage() {
	s.cancelPage()
	ctx, cancel := context.WithCancel(s.ctx)
	ch := s.editor.RequestPage(ctx)
	if ch == nil {
		cancel()
		return
	}
	s.pageCancel = cancel
	go func() {
		select {
		case res := <-ch:
			select {
			case s.pages <- res:
			case <-ctx.Done():
			}
		case <-ctx.Done():
		}
	}()
}

func (s *Session) cancelPage() {
	if s.pageCancel != nil {
		s.pageCancel()
		s.pageCancel = nil
	}
}

func (s *Session) handlePage(res document.PageResult) {
	if !s.editor.PageLoaded(res) {
		return
	}
	if res.Err != nil {
		s.client.deliver(errorMessage(res.Err))
	}
	s.sendState()
}

func (s *Session) startSubmit() error {
	if s.submitting {
		return ErrSubmissionInFlight
	}
	s.submitting = true
	batch := s.editor.Batch()
	go func() {
		res, err := s.editor.Send(s.ctx, batch)
		select {
		case s.submitted <- submission{result: res, err: err}:
		case <-s.stop:
		}
	}()
	return nil
}

func (s *Session) handleSubmitted(sub submission) {
	s.submitting = false
	if sub.err != nil {
		s.client.deliver(errorMessage(sub.err))
		return
	}
	s.client.deliver(ServerMessage{Type: MsgResult, Result: &ResultPayload{
		Filename:    sub.result.Filename,
		ContentType: sub.result.ContentType,
		Data:        sub.result.Data,
	}})
}

func (s *Session) sendState() {
	snap := s.editor.Snapshot()
	s.client.sendMsg(ServerMessage{Type: MsgState, State: &snap})
}

// sendPreview is the editor's render hook.
func (s *Session) sendPreview(img *image.RGBA) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		log.Printf("session %s: encoding preview: %v", s.ID, err)
		return
	}
	s.client.sendMsg(ServerMessage{Type: MsgPreview, Image: buf.Bytes()})
}
