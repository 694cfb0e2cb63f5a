// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers for talking to the Processing
// Service.
package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// RetryBaseDelay is the first backoff after an HTTP 429. Tests override it
// to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

// MaxRetryAfter caps a server-supplied Retry-After hint.
var MaxRetryAfter = time.Minute

// DoWithRetry executes req and, when maxRetries > 0, retries HTTP 429
// (Too Many Requests) responses up to maxRetries times. The wait honours a
// Retry-After header in seconds and otherwise doubles from RetryBaseDelay.
// maxRetries <= 0 sends exactly one request.
//
// Requests with a body must be replayable: the body is re-created through
// req.GetBody on every retry, which http.NewRequest sets for in-memory
// readers. The 429 body is drained and closed before waiting. If ctx is
// cancelled during a wait ctx.Err() is returned; after exhausting retries
// the last 429 response is returned so the caller can inspect it.
//
// Status lines about retries go to status when it is non-nil.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, status io.Writer) (*http.Response, error) {
	for attempt := 0; ; attempt++ {
		r := req.Clone(ctx)
		if attempt > 0 && req.Body != nil && req.Body != http.NoBody {
			if req.GetBody == nil {
				return nil, fmt.Errorf("retrying %s %s: request body is not replayable", req.Method, req.URL.Redacted())
			}
			body, err := req.GetBody()
			if err != nil {
				return nil, fmt.Errorf("rewinding request body: %w", err)
			}
			r.Body = body
		}

		resp, err := client.Do(r)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || attempt >= maxRetries {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		wait := backoff(attempt, resp.Header.Get("Retry-After"))
		if status != nil {
			fmt.Fprintf(status, "rate limited, retrying in %v (attempt %d/%d)\n", wait, attempt+1, maxRetries)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
}

func backoff(attempt int, retryAfter string) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs >= 0 {
		d := time.Duration(secs) * time.Second
		if d > MaxRetryAfter {
			d = MaxRetryAfter
		}
		return d
	}
	return RetryBaseDelay << attempt
}
