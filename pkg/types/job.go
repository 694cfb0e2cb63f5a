// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// JobStatus is the outcome of one batch submission.
type JobStatus string

const (
	JobSucceeded JobStatus = "succeeded"
	JobRejected  JobStatus = "rejected"
	JobFailed    JobStatus = "failed"
)

// Job records one batch submission attempt.
type Job struct {
	// ID is a unique identifier assigned when the job is recorded.
	ID string `json:"id" yaml:"id"`

	// Files lists the submitted file names in order.
	Files []string `json:"files" yaml:"files"`

	// OperationCount is the number of operations in the batch.
	OperationCount int `json:"operation_count" yaml:"operation_count"`

	// Operations is the serialized operation log that was sent.
	Operations string `json:"operations,omitempty" yaml:"operations,omitempty"`

	// Status is succeeded, rejected (remote error) or failed (no response).
	Status JobStatus `json:"status" yaml:"status"`

	// HTTPStatus is the response status, or zero when none was received.
	HTTPStatus int `json:"http_status,omitempty" yaml:"http_status,omitempty"`

	// Error is the user-facing failure message.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	// ResultName is the derived download filename on success.
	ResultName string `json:"result_name,omitempty" yaml:"result_name,omitempty"`

	// SubmittedAt is when the request was issued.
	SubmittedAt time.Time `json:"submitted_at" yaml:"submitted_at"`
}
