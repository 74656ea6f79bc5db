package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/socraticlabs/socratic/internal/compress"
	"github.com/socraticlabs/socratic/internal/jsonrepair"
)

// maxFixInputLen bounds the bad text forwarded to the fix-it call.
const maxFixInputLen = 14000

// errExcerptLen bounds the excerpt carried by a terminal ErrBadJSON.
const errExcerptLen = 4000

// FewShot is a (sample input, sample output) exemplar pair demonstrating
// the output contract to the model.
type FewShot struct {
	User string
	// Reply is marshaled to JSON for the assistant turn.
	Reply any
}

// JSONRequest describes one safe-JSON generation call.
type JSONRequest struct {
	System      string
	Prompt      string
	FewShots    []FewShot
	Attachment  *Blob
	Schema      *Schema
	Temperature float64
	MaxTokens   int
}

// Client layers the JSON contract over a Provider: every call requests
// JSON-typed output, malformed output goes through the repair pipeline,
// and output that repair cannot save gets one fix-it call before the
// error becomes terminal.
type Client struct {
	provider   Provider
	compressor compress.Compressor
	timeout    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCompressor enables best-effort prompt compression.
func WithCompressor(c compress.Compressor) ClientOption {
	return func(cl *Client) { cl.compressor = c }
}

// WithTimeout sets the wall-clock budget per model call. Zero disables it.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) { cl.timeout = d }
}

// NewClient creates a safe-JSON client over the given provider.
func NewClient(p Provider, opts ...ClientOption) *Client {
	c := &Client{provider: p, timeout: 60 * time.Second}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Provider exposes the underlying provider, for callers that need the
// model ID.
func (c *Client) Provider() Provider { return c.provider }

// GenerateJSON issues one structured-generation call and returns a valid
// JSON document. The returned value is always parseable; shape checks
// belong to the caller.
func (c *Client) GenerateJSON(ctx context.Context, req JSONRequest) (json.RawMessage, error) {
	return c.generateJSON(ctx, req, true)
}

func (c *Client) generateJSON(ctx context.Context, req JSONRequest, allowFix bool) (json.RawMessage, error) {
	msgs := make([]Message, 0, 2*len(req.FewShots)+1)
	for _, shot := range req.FewShots {
		replyJSON, err := json.Marshal(shot.Reply)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs,
			Message{Role: RoleUser, Content: compress.PromptText(ctx, c.compressor, shot.User)},
			Message{Role: RoleAssistant, Content: string(replyJSON)},
		)
	}
	msgs = append(msgs, Message{
		Role:       RoleUser,
		Content:    compress.PromptText(ctx, c.compressor, req.Prompt),
		Attachment: req.Attachment,
	})

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.provider.Generate(ctx, Request{
		System:      compress.Text(ctx, c.compressor, req.System),
		Messages:    msgs,
		Schema:      req.Schema,
		JSONOutput:  true,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}

	text := string(resp.Content)
	parsed, parseErr := jsonrepair.Parse(text)
	if parseErr == nil {
		return parsed, nil
	}

	if !allowFix {
		return nil, &ErrBadJSON{Excerpt: truncate(text, errExcerptLen), Err: parseErr}
	}

	return c.fixJSON(ctx, req, text, parseErr)
}

// fixJSON issues the single recursive repair call: the model is asked to
// re-emit the truncated bad text as valid JSON. Recursion depth is capped
// at one by disabling the fix on the inner call.
func (c *Client) fixJSON(ctx context.Context, orig JSONRequest, badText string, parseErr error) (json.RawMessage, error) {
	prompt, err := json.Marshal(map[string]any{
		"bad_text": truncate(badText, maxFixInputLen),
		"task":     "Return valid JSON equivalent to bad_text. No markdown. No code fences.",
	})
	if err != nil {
		return nil, err
	}

	fixed, fixErr := c.generateJSON(ctx, JSONRequest{
		System:    "You convert model output into valid JSON only.",
		Prompt:    string(prompt),
		MaxTokens: orig.MaxTokens,
	}, false)
	if fixErr != nil {
		return nil, &ErrBadJSON{Excerpt: truncate(badText, errExcerptLen), Err: parseErr}
	}
	return fixed, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
