// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package submit

import (
	"errors"
	"fmt"
	"net/http"
)

// Validation failures. They are wrapped in *ValidationError.
var (
	ErrNoFiles      = errors.New("select at least one file")
	ErrNoOperations = errors.New("add at least one edit before submitting")
	ErrEmptyText    = errors.New("text edits must not be empty")
	ErrPageRange    = errors.New("edit targets a page beyond the document")
)

// ValidationError reports a batch that was rejected before any request was
// sent.
type ValidationError struct {
	// OperationID names the offending operation, when there is one.
	OperationID string
	Err         error
}

func (e *ValidationError) Error() string {
	if e.OperationID != "" {
		return fmt.Sprintf("invalid batch: operation %s: %v", e.OperationID, e.Err)
	}
	return fmt.Sprintf("invalid batch: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// RemoteProcessingError reports a non-2xx response from the Processing
// Service. Message is the server's error text, shown to the user verbatim.
type RemoteProcessingError struct {
	Status      int
	Message     string
	ShowUpgrade bool
}

func (e *RemoteProcessingError) Error() string {
	return fmt.Sprintf("processing service rejected the batch (HTTP %d): %s", e.Status, e.Message)
}

// ConnectivityError reports a request that produced no usable response.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("could not reach the processing service: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// remoteError builds a RemoteProcessingError from the decoded failure body,
// falling back to the status text when the body carries no message.
func remoteError(status int, body failureBody) *RemoteProcessingError {
	msg := body.Error
	if msg == "" {
		msg = body.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &RemoteProcessingError{Status: status, Message: msg, ShowUpgrade: body.ShowUpgrade}
}

type failureBody struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	ShowUpgrade bool   `json:"show_upgrade"`
}
