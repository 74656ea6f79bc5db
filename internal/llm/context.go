package llm

import "context"

type ctxKey int

const purposeCtxKey ctxKey = iota

// WithPurpose labels the context with what this model call is for
// (e.g. "question-generation", "hint-generation"). The logging decorator
// stores the label alongside the request event.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeCtxKey, purpose)
}

// PurposeFrom returns the call's purpose label, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeCtxKey).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
