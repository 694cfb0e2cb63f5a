// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/pdiddy/pdf-markup/internal/history"
	"github.com/pdiddy/pdf-markup/pkg/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// NewHandler creates the HTTP handler with all routes. Static files are
// served from staticDir when it is set.
func NewHandler(hub *Hub, staticDir string) http.Handler {
	mux := http.NewServeMux()

	if staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}

	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("websocket upgrade error: %v", err)
			return
		}
		hub.Connect(conn)
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": hub.Len()})
	})

	mux.HandleFunc("GET /history", func(w http.ResponseWriter, r *http.Request) {
		store := hub.History()
		if store == nil {
			http.Error(w, "job history is disabled", http.StatusNotFound)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		jobs, err := store.List(r.Context(), limit)
		if err != nil {
			log.Printf("listing history: %v", err)
			http.Error(w, "failed to list job history", http.StatusInternalServerError)
			return
		}

		format := r.URL.Query().Get("format")
		if format == "yaml" {
			w.Header().Set("Content-Type", "application/yaml")
			if err := history.Export(w, jobs, format); err != nil {
				log.Printf("exporting history: %v", err)
			}
			return
		}
		if jobs == nil {
			jobs = []types.Job{}
		}
		writeJSON(w, http.StatusOK, jobs)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writing response: %v", err)
	}
}
