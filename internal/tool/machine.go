// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"errors"
	"fmt"

	"github.com/pdiddy/pdf-markup/internal/oplog"
	"github.com/pdiddy/pdf-markup/internal/surface"
	"github.com/pdiddy/pdf-markup/pkg/types"
)

var (
	// ErrNoSurfaceAction is returned when the active tool ignores clicks on
	// the rendered surface.
	ErrNoSurfaceAction = errors.New("active tool does not react to surface clicks")

	// ErrWrongTool is returned when a page action is triggered while the
	// page tool is not active.
	ErrWrongTool = errors.New("page actions require the page tool")
)

// PageAction is an explicit page-level trigger of the page tool.
type PageAction string

const (
	ActionRotate PageAction = "rotate"
	ActionDelete PageAction = "delete"
)

// View is the part of the document view state that operation synthesis
// depends on.
type View struct {
	CurrentPage int
}

// Click is a pointer interaction in client coordinates.
type Click struct {
	ClientX float64 `json:"x"`
	ClientY float64 `json:"y"`
}

// Synthesize builds the draft for a surface click. It is a pure function of
// the click, the surface measurement, the tool session and the view. When
// the surface is not measured it returns surface.ErrSurfaceNotReady.
func Synthesize(c Click, box *surface.Box, s Session, v View) (types.Draft, error) {
	var payload types.Payload
	switch s.Active {
	case ToolText:
		payload = types.AddText{Text: s.Text.Text, FontSize: s.Text.FontSize, Color: s.Text.Color}
	case ToolShape:
		payload = types.AddShape{
			Shape:  s.Shape.Shape,
			Width:  s.Shape.Width,
			Height: s.Shape.Height,
			Color:  s.Shape.Color,
			Filled: s.Shape.Filled,
		}
	default:
		return types.Draft{}, ErrNoSurfaceAction
	}

	pos, err := surface.ToDocumentSpace(c.ClientX, c.ClientY, box)
	if err != nil {
		return types.Draft{}, err
	}
	return types.Draft{Page: v.CurrentPage, Position: pos, Payload: payload}, nil
}

// ForPageAction builds the draft for a rotate or delete trigger. Page
// transforms carry no position.
func ForPageAction(a PageAction, s Session, v View) (types.Draft, error) {
	if s.Active != ToolPage {
		return types.Draft{}, ErrWrongTool
	}
	var payload types.PageTransform
	switch a {
	case ActionRotate:
		payload = types.PageTransform{Transform: types.TransformRotate, Angle: s.Page.Angle}
	case ActionDelete:
		payload = types.PageTransform{Transform: types.TransformDelete}
	default:
		return types.Draft{}, fmt.Errorf("unknown page action %q", a)
	}
	return types.Draft{Page: v.CurrentPage, Payload: payload}, nil
}

// Machine couples a tool Session with the operation log and the surface it
// synthesizes operations against.
type Machine struct {
	session Session
	log     *oplog.Log
	surface *surface.Surface
}

// NewMachine creates a machine in the default session.
func NewMachine(log *oplog.Log, surf *surface.Surface) *Machine {
	return &Machine{session: NewSession(), log: log, surface: surf}
}

// Session returns the current tool session.
func (m *Machine) Session() Session { return m.session }

// Select switches the active tool. The log and other tools' parameters are
// left untouched.
func (m *Machine) Select(t Tool) error {
	return m.update(m.session.WithTool(t))
}

// SetText replaces the text tool parameters.
func (m *Machine) SetText(p TextParams) error { return m.update(m.session.WithText(p)) }

// SetShape replaces the shape tool parameters.
func (m *Machine) SetShape(p ShapeParams) error { return m.update(m.session.WithShape(p)) }

// SetPage replaces the page tool parameters.
func (m *Machine) SetPage(p PageParams) error { return m.update(m.session.WithPage(p)) }

func (m *Machine) update(s Session, err error) error {
	if err != nil {
		return err
	}
	m.session = s
	return nil
}

// Click handles a pointer interaction on the rendered surface. It reports
// whether an operation was appended. Clicks before the surface is measured
// and clicks with the page tool are ignored.
func (m *Machine) Click(c Click, v View) (types.Operation, bool, error) {
	draft, err := Synthesize(c, m.box(), m.session, v)
	if errors.Is(err, surface.ErrSurfaceNotReady) || errors.Is(err, ErrNoSurfaceAction) {
		return types.Operation{}, false, nil
	}
	if err != nil {
		return types.Operation{}, false, err
	}
	op, err := m.log.Append(draft)
	if err != nil {
		return types.Operation{}, false, err
	}
	return op, true, nil
}

// Apply handles a page action trigger and appends the resulting transform.
func (m *Machine) Apply(a PageAction, v View) (types.Operation, error) {
	draft, err := ForPageAction(a, m.session, v)
	if err != nil {
		return types.Operation{}, err
	}
	return m.log.Append(draft)
}

func (m *Machine) box() *surface.Box {
	if m.surface == nil {
		return nil
	}
	return m.surface.Box()
}
