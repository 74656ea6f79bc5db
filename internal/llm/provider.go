package llm

import (
	"context"
	"encoding/json"
)

// Provider is the core abstraction for raw model interaction.
// Consumers normally go through Client, which layers the safe-JSON
// contract on top; Provider itself only moves a request to the model and
// a response back.
type Provider interface {
	// Generate sends a prompt to the model and returns its output.
	// The request's Schema field, when set, instructs the provider to
	// return JSON conforming to that schema via its native structured
	// output mechanism.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System is the system instruction. Sets the model's role and constraints.
	System string

	// Messages is the conversation. Few-shot exemplars are expressed as
	// alternating user/assistant pairs preceding the final user turn.
	Messages []Message

	// Schema is an optional JSON Schema the response must conform to.
	// When set, the provider uses its native structured output mechanism
	// and validates the response before returning it.
	Schema *Schema

	// JSONOutput requests JSON-typed output without a schema. The safe
	// JSON client sets this on every call; repair happens above this layer.
	JSONOutput bool

	// MaxTokens is the maximum number of tokens in the response.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	Temperature float64
}

// Message represents a single turn in the conversation.
type Message struct {
	Role    Role
	Content string

	// Attachment carries inline binary (page image, PDF) alongside the
	// text of a user turn. Nil for text-only turns.
	Attachment *Blob
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Blob is an inline binary attachment with its MIME type.
type Blob struct {
	MIMEType string
	Data     []byte
}

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies this schema (used as the schema name for OpenAI,
	// format schema for Anthropic). Kebab-case, e.g. "oracle-eligibility".
	Name string

	// Description is a human-readable description sent to the model.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model's output.
type Response struct {
	// Content is the generated output. When a Schema was provided, this
	// is the validated JSON. Otherwise it is the raw text, which may or
	// may not be valid JSON.
	Content json.RawMessage

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "error"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}
