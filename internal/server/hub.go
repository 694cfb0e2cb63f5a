// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server hosts editing sessions for the browser shell over
// WebSocket. Each connection owns one editor; the hub tracks them and
// shares the renderer, the processing client and the job history.
package server

import (
	"io"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pdiddy/pdf-markup/internal/document"
	"github.com/pdiddy/pdf-markup/internal/editor"
	"github.com/pdiddy/pdf-markup/internal/history"
)

// Config holds the collaborators shared by every session.
type Config struct {
	Renderer          document.Renderer
	Scale             float64
	Submitter         editor.Submitter
	History           history.Store
	PreviewTransforms bool
	Status            io.Writer
}

// Hub owns the set of live sessions.
type Hub struct {
	cfg      Config
	sessions map[string]*Session
	mu       sync.RWMutex

	register   chan *Session
	unregister chan *Session
}

func NewHub(cfg Config) *Hub {
	if cfg.Status == nil {
		cfg.Status = io.Discard
	}
	return &Hub{
		cfg:        cfg,
		sessions:   make(map[string]*Session),
		register:   make(chan *Session, 64),
		unregister: make(chan *Session, 64),
	}
}

// Run is the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.register:
			h.mu.Lock()
			h.sessions[s.ID] = s
			h.mu.Unlock()
			go h.runSession(s)
		case s := <-h.unregister:
			h.mu.Lock()
			delete(h.sessions, s.ID)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) runSession(s *Session) {
	log.Printf("session %s started", s.ID)
	s.Run()
	h.unregister <- s
	log.Printf("session %s ended", s.ID)
}

// Connect creates a session for conn and starts its pumps.
func (h *Hub) Connect(conn *websocket.Conn) *Session {
	s := h.newSession(newClient(conn))
	h.register <- s
	go s.client.WritePump()
	go s.client.ReadPump()
	return s
}

func (h *Hub) newSession(c *Client) *Session {
	s := newSession(uuid.NewString(), c)
	s.editor = editor.New(
		document.NewLoader(h.cfg.Renderer, h.cfg.Scale),
		h.cfg.Submitter,
		editor.WithHistory(h.cfg.History),
		editor.WithPreviewTransforms(h.cfg.PreviewTransforms),
		editor.WithOnRender(s.sendPreview),
		editor.WithStatus(h.cfg.Status),
	)
	return s
}

// Session returns the live session with id, if any.
func (h *Hub) Session(id string) *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[id]
}

// Len returns the number of live sessions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// History returns the shared job history, or nil when disabled.
func (h *Hub) History() history.Store { return h.cfg.History }
