// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package submit sends an operation log and its source files to the
// Processing Service as one multipart batch and returns the materialized
// document or archive.
package submit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pdf-markup/internal/httputil"
	"github.com/pdiddy/pdf-markup/pkg/types"
)

// Multipart field names expected by the Processing Service.
const (
	FieldFiles      = "files"
	FieldOperations = "operations"
)

// ArchiveName is the download name for multi-file results.
const ArchiveName = "edited_documents.zip"

// maxErrorBody bounds how much of a failure response is read.
const maxErrorBody = 64 << 10

// File is one source document selected by the user.
type File struct {
	Name string
	Data []byte
}

// Options carries submission context that is not part of the batch.
type Options struct {
	// PageCount is the page count of the loaded document, or 0 when it is
	// not known. When known, operations targeting a page >= PageCount are
	// rejected before sending.
	PageCount int
}

// Client submits batches to one Processing Service endpoint.
type Client struct {
	http *http.Client
	cfg  types.ProcessingConfig

	// Status receives retry notices; nil discards them.
	Status io.Writer
}

// NewClient builds a client whose request timeout comes from cfg.
func NewClient(cfg types.ProcessingConfig) *Client {
	return NewClientWith(&http.Client{Timeout: cfg.Timeout}, cfg)
}

// NewClientWith uses hc for transport, as tests do with httptest clients.
func NewClientWith(hc *http.Client, cfg types.ProcessingConfig) *Client {
	return &Client{http: hc, cfg: cfg}
}

// Validate checks the submission preconditions without touching the
// network.
func Validate(files []File, ops []types.Operation, opts Options) error {
	if len(files) == 0 {
		return &ValidationError{Err: ErrNoFiles}
	}
	if len(ops) == 0 {
		return &ValidationError{Err: ErrNoOperations}
	}
	for _, op := range ops {
		if t, ok := op.Payload.(types.AddText); ok && strings.TrimSpace(t.Text) == "" {
			return &ValidationError{OperationID: op.ID, Err: ErrEmptyText}
		}
		if opts.PageCount > 0 && op.Page >= opts.PageCount {
			return &ValidationError{
				OperationID: op.ID,
				Err:         fmt.Errorf("%w: page %d of %d", ErrPageRange, op.Page+1, opts.PageCount),
			}
		}
	}
	return nil
}

// Submit validates the batch and, if it passes, issues a single POST with
// one files part per file and one operations part holding the log in
// stored order. ops is only read.
//
// Errors are *ValidationError (nothing sent), *RemoteProcessingError
// (non-2xx) or *ConnectivityError (no response).
func (c *Client) Submit(ctx context.Context, files []File, ops []types.Operation, opts Options) (*Result, error) {
	if err := Validate(files, ops, opts); err != nil {
		return nil, err
	}
	if c.cfg.Endpoint == "" {
		return nil, &ConnectivityError{Err: fmt.Errorf("no processing endpoint configured")}
	}

	body, contentType, err := encodeBatch(files, ops)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, c.http, req, c.cfg.MaxRetries, c.Status)
	if err != nil {
		return nil, &ConnectivityError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var fb failureBody
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		_ = json.Unmarshal(data, &fb)
		return nil, remoteError(resp.StatusCode, fb)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectivityError{Err: fmt.Errorf("reading response: %w", err)}
	}
	return newResult(files, resp.StatusCode, resp.Header.Get("Content-Type"), data), nil
}

// encodeBatch writes the multipart body: files first, in selection order,
// then the operations array.
func encodeBatch(files []File, ops []types.Operation) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldFiles, filepath.Base(f.Name)))
		h.Set("Content-Type", "application/pdf")
		part, err := mw.CreatePart(h)
		if err != nil {
			return nil, "", fmt.Errorf("creating file part: %w", err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", fmt.Errorf("writing file part %s: %w", f.Name, err)
		}
	}

	opsJSON, err := types.EncodeOperations(ops)
	if err != nil {
		return nil, "", fmt.Errorf("encoding operations: %w", err)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, FieldOperations))
	h.Set("Content-Type", "application/json")
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("creating operations part: %w", err)
	}
	if _, err := part.Write(opsJSON); err != nil {
		return nil, "", fmt.Errorf("writing operations part: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("closing multipart body: %w", err)
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
