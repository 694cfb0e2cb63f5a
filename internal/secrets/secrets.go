// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads credentials from a directory of plain-text files,
// one secret per file: the filename is the key and the trimmed contents
// are the value. The default directory is .secrets next to the config.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ProcessingAPIKey holds the bearer token sent to the Processing Service.
const ProcessingAPIKey = "processing-api-key"

// DefaultDir is where Load looks when no directory is configured.
const DefaultDir = ".secrets"

// Warnings receives notices about unreadable secret files.
var Warnings io.Writer = os.Stderr

// Store is a loaded set of secrets.
type Store map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory is
// not an error and yields an empty store.
func Load(dir string) (Store, error) {
	if dir == "" {
		dir = DefaultDir
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Store{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Store)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(Warnings, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// Fallback returns configured when it is non-empty, otherwise the secret
// stored under key.
func (s Store) Fallback(configured, key string) string {
	if configured != "" {
		return configured
	}
	return s[key]
}
