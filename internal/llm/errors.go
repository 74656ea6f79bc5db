package llm

import (
	"encoding/json"
	"fmt"
	"time"
)

// ErrRateLimit indicates the provider returned a rate limit error (429).
// RetryAfter carries the server-supplied retry hint when one was present.
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrEmptyGeneration indicates the model call succeeded at the HTTP level
// but produced no usable output: no candidates, no text parts, or content
// suppressed by a filter.
type ErrEmptyGeneration struct {
	Reason string
}

func (e *ErrEmptyGeneration) Error() string {
	if e.Reason == "" {
		return "model returned no usable output"
	}
	return fmt.Sprintf("model returned no usable output: %s", e.Reason)
}

// ErrInvalidResponse indicates the model returned content that does not
// conform to the requested schema.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid model response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrUpstream indicates a terminal upstream failure: a non-429 HTTP error,
// an authentication failure, or an unreachable provider. Never retried.
type ErrUpstream struct {
	Code int
	Err  error
}

func (e *ErrUpstream) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("upstream error (HTTP %d): %v", e.Code, e.Err)
	}
	return fmt.Sprintf("upstream error: %v", e.Err)
}

func (e *ErrUpstream) Unwrap() error { return e.Err }

// ErrBadJSON indicates model output that could not be parsed as JSON even
// after the repair pipeline and the fix-it fallback call. Excerpt holds a
// truncated sample of the offending text.
type ErrBadJSON struct {
	Excerpt string
	Err     error
}

func (e *ErrBadJSON) Error() string {
	return fmt.Sprintf("model did not return valid JSON: %v: %s", e.Err, e.Excerpt)
}

func (e *ErrBadJSON) Unwrap() error { return e.Err }
