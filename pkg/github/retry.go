package github

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"
)

// retryableStatusCode returns true if the HTTP status code should trigger a
// retry of an idempotent request.
func retryableStatusCode(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusInternalServerError ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable
}

// retryGet executes a GET with exponential backoff on transient failures
// (429, 5xx, network errors). Only reads are retried; see Put.
func (c *ContentsClient) retryGet(ctx context.Context, req *http.Request) ([]byte, int, error) {
	const maxAttempts = 3
	backoff := 1 * time.Second

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		retryReq := req.Clone(ctx)

		resp, err := c.http.Do(retryReq)
		if err != nil {
			lastErr = err
			if attempt == maxAttempts {
				break
			}
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		body, status, readErr := readBody(resp)
		if readErr != nil {
			return nil, status, readErr
		}

		if retryableStatusCode(status) && attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			continue
		}

		return body, status, nil
	}

	return nil, 0, lastErr
}

func readBody(resp *http.Response) ([]byte, int, error) {
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return body, resp.StatusCode, err
}

// stripNewlines removes the line breaks GitHub inserts into base64 content.
func stripNewlines(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, s)
}

func truncate(b []byte) string {
	const limit = 512
	if len(b) <= limit {
		return string(b)
	}
	return string(b[:limit]) + "..."
}
