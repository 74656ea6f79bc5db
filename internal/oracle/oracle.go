// Package oracle is the gateway to the external symbolic-computation
// service. The engine consumes the capability; it never reimplements the
// math.
package oracle

import (
	"context"
	"strings"
)

// noAnswerMarker is the literal phrase the service embeds when it could
// not interpret a query. Its presence is a semantic "no answer", distinct
// from a transport-level failure.
const noAnswerMarker = "did not understand"

// Oracle answers well-formed symbolic queries with a textual result.
// An empty result with nil error means the service had nothing to say.
type Oracle interface {
	ResultText(ctx context.Context, query string) (string, error)
}

// Understood reports whether result is a usable answer: non-empty and not
// the service's "did not understand" response.
func Understood(result string) bool {
	if strings.TrimSpace(result) == "" {
		return false
	}
	return !strings.Contains(result, noAnswerMarker)
}

// BestEffortAnswer runs query and reports (understood, result). The raw
// result is returned even when not understood, so callers can surface the
// service's own explanation.
func BestEffortAnswer(ctx context.Context, o Oracle, query string) (bool, string) {
	result, err := o.ResultText(ctx, query)
	if err != nil {
		return false, ""
	}
	return Understood(result), result
}
