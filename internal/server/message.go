// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"

	"github.com/pdiddy/pdf-markup/internal/document"
	"github.com/pdiddy/pdf-markup/internal/editor"
	"github.com/pdiddy/pdf-markup/internal/submit"
	"github.com/pdiddy/pdf-markup/internal/surface"
	"github.com/pdiddy/pdf-markup/internal/tool"
)

// Client message types.
const (
	MsgSelect      = "select"
	MsgClearFiles  = "clear_files"
	MsgTool        = "tool"
	MsgTextParams  = "text_params"
	MsgShapeParams = "shape_params"
	MsgPageParams  = "page_params"
	MsgMeasure     = "measure"
	MsgClick       = "click"
	MsgRotate      = "rotate"
	MsgDeletePage  = "delete_page"
	MsgRemove      = "remove"
	MsgClear       = "clear"
	MsgNext        = "next"
	MsgPrevious    = "previous"
	MsgGoTo        = "goto"
	MsgSubmit      = "submit"
	MsgDismiss     = "dismiss"
)

// Server message types.
const (
	MsgState   = "state"
	MsgPreview = "preview"
	MsgResult  = "result"
	MsgError   = "error"
)

// Error kinds carried by MsgError.
const (
	KindValidation   = "validation"
	KindRemote       = "remote"
	KindConnectivity = "connectivity"
	KindDecode       = "decode"
	KindRender       = "render"
	KindInvalid      = "invalid"
)

// FilePayload is a selected source document. Data is base64 in JSON.
type FilePayload struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// ClientMessage is a message from the browser shell to the server.
type ClientMessage struct {
	Type  string            `json:"type"`
	Files []FilePayload     `json:"files,omitempty"`
	Tool  string            `json:"tool,omitempty"`
	Text  *tool.TextParams  `json:"text,omitempty"`
	Shape *tool.ShapeParams `json:"shape,omitempty"`
	Page  *tool.PageParams  `json:"page,omitempty"`
	Box   *surface.Box      `json:"box,omitempty"`
	Click *tool.Click       `json:"click,omitempty"`
	ID    string            `json:"id,omitempty"`
	Index int               `json:"index,omitempty"`
}

// ResultPayload is a processed document ready for download.
type ResultPayload struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// ServerMessage is a message from the server to the browser shell.
type ServerMessage struct {
	Type        string           `json:"type"`
	State       *editor.Snapshot `json:"state,omitempty"`
	Image       []byte           `json:"image,omitempty"`
	Result      *ResultPayload   `json:"result,omitempty"`
	Kind        string           `json:"kind,omitempty"`
	Message     string           `json:"message,omitempty"`
	Status      int              `json:"status,omitempty"`
	ShowUpgrade bool             `json:"showUpgrade,omitempty"`
}

// Encode serializes a ServerMessage to JSON bytes.
func (m ServerMessage) Encode() []byte {
	b, _ := json.Marshal(m)
	return b
}

// errorMessage maps an editor or submission failure to its wire form.
func errorMessage(err error) ServerMessage {
	msg := ServerMessage{Type: MsgError, Kind: KindInvalid, Message: err.Error()}

	var (
		ve  *submit.ValidationError
		rpe *submit.RemoteProcessingError
		ce  *submit.ConnectivityError
		de  *document.DecodeError
		pre *document.PageRenderError
	)
	switch {
	case errors.As(err, &ve):
		msg.Kind = KindValidation
	case errors.As(err, &rpe):
		msg.Kind = KindRemote
		msg.Message = rpe.Message
		msg.Status = rpe.Status
		msg.ShowUpgrade = rpe.ShowUpgrade
	case errors.As(err, &ce):
		msg.Kind = KindConnectivity
		msg.Message = "Could not reach the processing service. Check your connection and try again."
	case errors.As(err, &de):
		msg.Kind = KindDecode
	case errors.As(err, &pre):
		msg.Kind = KindRender
	}
	return msg
}
