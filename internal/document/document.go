// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package document decodes PDF files and rasterizes their pages. Decoding is
// delegated to a Renderer backend; the Loader owns the per-page raster cache
// and runs page renders asynchronously, cancelling stale requests.
package document

import (
	"context"
	"fmt"
	"image"
)

// Renderer decodes raw PDF bytes into a Document.
type Renderer interface {
	// Open parses data. Failures are reported as *DecodeError.
	Open(ctx context.Context, data []byte) (Document, error)
}

// Document is a decoded PDF.
type Document interface {
	PageCount() int
	// RenderPage rasterizes the zero-based page at scale, where 1.0 is one
	// pixel per PDF point. Failures are reported as *PageRenderError.
	RenderPage(ctx context.Context, index int, scale float64) (*image.RGBA, error)
	Close() error
}

// DecodeError reports a file that could not be parsed as a PDF.
type DecodeError struct {
	Name string
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("decoding document: %v", e.Err)
	}
	return fmt.Sprintf("decoding %s: %v", e.Name, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// PageRenderError reports a page that could not be rasterized.
type PageRenderError struct {
	Page int
	Err  error
}

func (e *PageRenderError) Error() string {
	return fmt.Sprintf("rendering page %d: %v", e.Page+1, e.Err)
}

func (e *PageRenderError) Unwrap() error { return e.Err }
