// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout. Zero means no timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pdf-markup/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ProcessingConfig holds settings for the remote Processing Service that
// materializes submitted batches.
type ProcessingConfig struct {
	HTTPConfig `yaml:",inline"`

	// Endpoint is the URL of the batch edit endpoint.
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// APIKey is sent as a bearer token when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of backoff retries on HTTP 429. Zero (the
	// default) disables automatic retry; the user retries by resubmitting.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// RendererBackend identifies the document rendering library.
type RendererBackend string

const (
	RendererTabula  RendererBackend = "tabula"
	RendererPoppler RendererBackend = "poppler"
)

// EditorConfig holds settings for the editing session.
type EditorConfig struct {
	// Renderer selects the rasterizer: tabula (pure Go) or poppler
	// (pdftoppm inside a container).
	Renderer RendererBackend `json:"renderer" yaml:"renderer"`

	// RendererImage is the container image used by the poppler backend.
	RendererImage string `json:"renderer_image,omitempty" yaml:"renderer_image,omitempty"`

	// Scale is the page render scale. Document space is defined at 1.0.
	Scale float64 `json:"scale" yaml:"scale"`

	// PreviewTransforms approximates rotate/delete page transforms in the
	// preview. Off by default: they are materialized only server-side.
	PreviewTransforms bool `json:"preview_transforms" yaml:"preview_transforms"`
}

// ServerConfig holds settings for the WebSocket session host.
type ServerConfig struct {
	// Addr is the HTTP listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`

	// StaticDir is served at "/" when set.
	StaticDir string `json:"static_dir,omitempty" yaml:"static_dir,omitempty"`
}

// HistoryBackend selects where submission jobs are recorded.
type HistoryBackend string

const (
	HistoryNone   HistoryBackend = "none"
	HistoryMemory HistoryBackend = "memory"
	HistorySQLite HistoryBackend = "sqlite"
)

// HistoryConfig holds settings for the submission job history.
type HistoryConfig struct {
	Backend HistoryBackend `json:"backend" yaml:"backend"`

	// Path is the SQLite database file for the sqlite backend.
	Path string `json:"path" yaml:"path"`
}

// AppConfig groups all configuration sections.
type AppConfig struct {
	Processing ProcessingConfig `json:"processing" yaml:"processing"`
	Editor     EditorConfig     `json:"editor" yaml:"editor"`
	Server     ServerConfig     `json:"server" yaml:"server"`
	History    HistoryConfig    `json:"history" yaml:"history"`
}
