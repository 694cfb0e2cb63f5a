// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tool implements the authoring tool state machine: which tool is
// active, the parameters of every tool, and the translation of pointer
// interactions and page actions into operation drafts.
package tool

import (
	"fmt"

	"github.com/pdiddy/pdf-markup/pkg/types"
)

// Tool is an authoring tool. Exactly one is active at a time.
type Tool string

const (
	ToolText  Tool = "text"
	ToolShape Tool = "shape"
	ToolPage  Tool = "page"
)

// Parse converts a tool name into a Tool.
func Parse(name string) (Tool, error) {
	switch t := Tool(name); t {
	case ToolText, ToolShape, ToolPage:
		return t, nil
	}
	return "", fmt.Errorf("unknown tool %q", name)
}

// TextParams configures the text tool.
type TextParams struct {
	Text     string      `json:"text" yaml:"text"`
	FontSize int         `json:"fontSize" yaml:"font_size"`
	Color    types.Color `json:"color" yaml:"color"`
}

// ShapeParams configures the shape tool.
type ShapeParams struct {
	Shape  types.ShapeKind `json:"shape" yaml:"shape"`
	Width  float64         `json:"width" yaml:"width"`
	Height float64         `json:"height" yaml:"height"`
	Color  types.Color     `json:"color" yaml:"color"`
	Filled bool            `json:"filled" yaml:"filled"`
}

// PageParams configures the page tool.
type PageParams struct {
	Angle int `json:"angle" yaml:"angle"`
}

// Session is the transient tool state of an editor: the active tool and a
// parameter bag per tool. It is a value; every change returns a new Session
// and bags of inactive tools persist across switches.
type Session struct {
	Active Tool        `json:"active"`
	Text   TextParams  `json:"text"`
	Shape  ShapeParams `json:"shape"`
	Page   PageParams  `json:"page"`
}

// NewSession returns the default session with the text tool active.
func NewSession() Session {
	return Session{
		Active: ToolText,
		Text:   TextParams{FontSize: types.DefaultFontSize, Color: types.Black},
		Shape: ShapeParams{
			Shape:  types.ShapeRectangle,
			Width:  100,
			Height: 50,
			Color:  types.Black,
		},
		Page: PageParams{Angle: 90},
	}
}

// WithTool switches the active tool.
func (s Session) WithTool(t Tool) (Session, error) {
	if _, err := Parse(string(t)); err != nil {
		return s, err
	}
	s.Active = t
	return s, nil
}

// WithText replaces the text tool parameters. The text itself is not
// validated here.
func (s Session) WithText(p TextParams) (Session, error) {
	if err := (types.AddText{Text: p.Text, FontSize: p.FontSize, Color: p.Color}).Validate(); err != nil {
		return s, fmt.Errorf("text parameters: %w", err)
	}
	s.Text = p
	return s, nil
}

// WithShape replaces the shape tool parameters.
func (s Session) WithShape(p ShapeParams) (Session, error) {
	payload := types.AddShape{Shape: p.Shape, Width: p.Width, Height: p.Height, Color: p.Color, Filled: p.Filled}
	if err := payload.Validate(); err != nil {
		return s, fmt.Errorf("shape parameters: %w", err)
	}
	s.Shape = p
	return s, nil
}

// WithPage replaces the page tool parameters. Only 90, 180 and 270 degree
// rotations are accepted.
func (s Session) WithPage(p PageParams) (Session, error) {
	if err := types.ValidateAngle(p.Angle); err != nil {
		return s, fmt.Errorf("page parameters: %w", err)
	}
	s.Page = p
	return s, nil
}
