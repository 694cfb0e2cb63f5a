// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package submit

import (
	"fmt"
	"os"
	"path/filepath"
)

// Result is the materialized output of a successful batch.
type Result struct {
	// Filename is edited_<name> for a single file, ArchiveName otherwise.
	Filename    string
	ContentType string
	Data        []byte
	// Status is the HTTP status of the response.
	Status int
}

func newResult(files []File, status int, contentType string, data []byte) *Result {
	r := &Result{Filename: ArchiveName, ContentType: contentType, Data: data, Status: status}
	if len(files) == 1 {
		r.Filename = "edited_" + filepath.Base(files[0].Name)
		if r.ContentType == "" {
			r.ContentType = "application/pdf"
		}
	} else if r.ContentType == "" {
		r.ContentType = "application/zip"
	}
	return r
}

// Save writes the result into dir under Filename, through a temporary file
// renamed into place, and returns the final path.
func (r *Result) Save(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	dest := filepath.Join(dir, r.Filename)

	tmp, err := os.CreateTemp(dir, ".pdf-markup-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(r.Data)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing result: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("renaming temp file: %w", err)
	}
	return dest, nil
}
