// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pdf-markup/internal/document"
	"github.com/pdiddy/pdf-markup/internal/history"
	"github.com/pdiddy/pdf-markup/internal/secrets"
	"github.com/pdiddy/pdf-markup/internal/submit"
	"github.com/pdiddy/pdf-markup/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "pdf-markup/0.1"
	defaultAddr      = ":8080"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("secrets_dir", secrets.DefaultDir)
	v.SetDefault("processing.timeout", defaultTimeout)
	v.SetDefault("processing.user_agent", defaultUserAgent)
	v.SetDefault("processing.max_retries", 0)
	v.SetDefault("editor.renderer", string(types.RendererTabula))
	v.SetDefault("editor.scale", 1.5)
	v.SetDefault("editor.preview_transforms", false)
	v.SetDefault("server.addr", defaultAddr)
	v.SetDefault("history.backend", string(types.HistorySQLite))
	v.SetDefault("history.path", history.DefaultSQLitePath)
}

// loadConfig assembles the application config from v. The API key falls
// back to the processing-api-key secret.
func loadConfig(v *viper.Viper, s secrets.Store) types.AppConfig {
	return types.AppConfig{
		Processing: types.ProcessingConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   v.GetDuration("processing.timeout"),
				UserAgent: v.GetString("processing.user_agent"),
			},
			Endpoint:   v.GetString("processing.endpoint"),
			APIKey:     s.Fallback(v.GetString("processing.api_key"), secrets.ProcessingAPIKey),
			MaxRetries: v.GetInt("processing.max_retries"),
		},
		Editor: types.EditorConfig{
			Renderer:          types.RendererBackend(v.GetString("editor.renderer")),
			RendererImage:     v.GetString("editor.renderer_image"),
			Scale:             v.GetFloat64("editor.scale"),
			PreviewTransforms: v.GetBool("editor.preview_transforms"),
		},
		Server: types.ServerConfig{
			Addr:      v.GetString("server.addr"),
			StaticDir: v.GetString("server.static_dir"),
		},
		History: types.HistoryConfig{
			Backend: types.HistoryBackend(v.GetString("history.backend")),
			Path:    v.GetString("history.path"),
		},
	}
}

func appConfig() types.AppConfig {
	return loadConfig(viper.GetViper(), loadedSecrets)
}

func newRenderer(cfg types.EditorConfig) (document.Renderer, error) {
	switch cfg.Renderer {
	case "", types.RendererTabula:
		return &document.TabulaRenderer{}, nil
	case types.RendererPoppler:
		return document.NewPopplerRenderer(cfg.RendererImage)
	default:
		return nil, fmt.Errorf("unknown renderer %q: use tabula or poppler", cfg.Renderer)
	}
}

// readFiles loads the PDFs named on the command line.
func readFiles(paths []string) ([]submit.File, error) {
	files := make([]submit.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		files = append(files, submit.File{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

// readOperations parses an operations file: a YAML (or JSON) list of
// operation records. Record IDs are ignored; the editor assigns its own.
func readOperations(path string) ([]types.Draft, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading operations file: %w", err)
	}
	// JSON files use the wire keys, which differ from the YAML ones.
	var records []types.OperationRecord
	unmarshal := yaml.Unmarshal
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		unmarshal = json.Unmarshal
	}
	if err := unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing operations file %s: %w", path, err)
	}

	drafts := make([]types.Draft, 0, len(records))
	for i, r := range records {
		d, err := r.Draft()
		if err != nil {
			return nil, fmt.Errorf("operation %d: %w", i+1, err)
		}
		drafts = append(drafts, d)
	}
	return drafts, nil
}
