// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"errors"
	"io"
	"math"
	"net"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff.
// Tests override this to avoid real sleeps.
var RetryBaseDelay = 500 * time.Millisecond

// retryMultiplier grows the backoff each attempt: 500 ms, 750 ms, 1.125 s.
const retryMultiplier = 1.5

const defaultMaxAttempts = 3

// Retryable reports whether a request outcome is worth retrying: a timeout,
// a connection reset or other transient network error, HTTP 429, or a 5xx.
// A nil response with a nil error is not retryable.
func Retryable(resp *http.Response, err error) bool {
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return true
		}
		// Connection resets and refused connections surface as *net.OpError.
		var opErr *net.OpError
		return errors.As(err, &opErr)
	}
	if resp == nil {
		return false
	}
	return resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
}

// DoWithRetry executes an HTTP request and retries on retryable failures
// (timeouts, connection resets, HTTP 429, 5xx) with exponential backoff.
//
// When maxAttempts is 0 the default (3) is used. Before each retry the
// previous response body, if any, is drained and closed. If the context is
// cancelled during a backoff wait the function returns ctx.Err(). After
// exhausting attempts the last response and error are returned as-is so the
// caller can inspect them.
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxAttempts int) (*http.Response, error) {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var resp *http.Response
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			if resp != nil {
				io.Copy(io.Discard, resp.Body)
				resp.Body.Close()
			}
			backoff := time.Duration(math.Pow(retryMultiplier, float64(attempt-1)) * float64(RetryBaseDelay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err = client.Do(req.Clone(ctx))
		if !Retryable(resp, err) {
			return resp, err
		}
	}
	return resp, err
}
