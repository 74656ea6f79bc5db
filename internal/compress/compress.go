// Package compress defines the optional prompt-compression capability.
//
// A Compressor rewrites long prompt text into a shorter equivalent before
// transmission. Compression is best-effort everywhere: any failure falls
// back to the original text and is never surfaced to the caller.
package compress

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Threshold is the minimum text length worth compressing. Shorter strings
// pass through untouched.
const Threshold = 400

// Compressor rewrites text into a shorter equivalent.
type Compressor interface {
	Compress(ctx context.Context, text string) (string, error)
}

// Text compresses s through c, absorbing every failure mode: nil
// compressor, short input, transport error, or an empty rewrite all
// return the original text.
func Text(ctx context.Context, c Compressor, s string) string {
	if c == nil {
		return s
	}
	if len(strings.TrimSpace(s)) < Threshold {
		return s
	}
	out, err := c.Compress(ctx, s)
	if err != nil || strings.TrimSpace(out) == "" {
		return s
	}
	return out
}

// PromptText compresses prompt text. JSON prompts are walked so only the
// embedded string fields are rewritten, keeping the structure intact;
// anything else is compressed as plain text.
func PromptText(ctx context.Context, c Compressor, s string) string {
	if c == nil {
		return s
	}
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err == nil {
			compressed := walkStrings(ctx, c, parsed)
			if out, err := json.Marshal(compressed); err == nil {
				return string(out)
			}
		}
	}
	return Text(ctx, c, s)
}

func walkStrings(ctx context.Context, c Compressor, v any) any {
	switch val := v.(type) {
	case string:
		return Text(ctx, c, val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = walkStrings(ctx, c, item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = walkStrings(ctx, c, item)
		}
		return out
	default:
		return v
	}
}

// HTTPCompressor talks to a remote compression service over a small JSON
// POST API.
type HTTPCompressor struct {
	apiKey         string
	endpoint       string
	aggressiveness float64
	httpClient     *http.Client
}

// NewHTTPCompressor creates a compressor client. Aggressiveness is in
// [0,1]; higher rewrites more.
func NewHTTPCompressor(endpoint, apiKey string, aggressiveness float64) *HTTPCompressor {
	return &HTTPCompressor{
		apiKey:         apiKey,
		endpoint:       endpoint,
		aggressiveness: aggressiveness,
		httpClient:     &http.Client{Timeout: 15 * time.Second},
	}
}

type compressRequest struct {
	Input          string  `json:"input"`
	Aggressiveness float64 `json:"aggressiveness"`
}

type compressResponse struct {
	Output string `json:"output"`
}

func (h *HTTPCompressor) Compress(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(compressRequest{
		Input:          text,
		Aggressiveness: h.aggressiveness,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("compression service returned HTTP %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}

	var out compressResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", err
	}
	return out.Output, nil
}
