package oracle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultWolframBaseURL = "https://api.wolframalpha.com/v1/result"

// WolframClient queries the Wolfram Alpha short-answers API.
type WolframClient struct {
	appID      string
	baseURL    string
	httpClient *http.Client
}

// WolframOption configures a WolframClient.
type WolframOption func(*WolframClient)

// WithBaseURL overrides the API endpoint (used by tests).
func WithBaseURL(u string) WolframOption {
	return func(c *WolframClient) { c.baseURL = u }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) WolframOption {
	return func(c *WolframClient) { c.httpClient = h }
}

// NewWolframClient creates a client for the short-answers API.
func NewWolframClient(appID string, opts ...WolframOption) (*WolframClient, error) {
	if appID == "" {
		return nil, fmt.Errorf("wolfram app ID is required")
	}
	c := &WolframClient{
		appID:      appID,
		baseURL:    defaultWolframBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ResultText executes one query and returns the textual result. The
// short-answers API reports unrecognized queries as HTTP 501 with the
// explanation in the body; that body is returned as the result so callers
// can classify it with Understood. A blank query returns "".
func (c *WolframClient) ResultText(ctx context.Context, query string) (string, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return "", nil
	}

	params := url.Values{}
	params.Set("i", q)
	params.Set("appid", c.appID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("wolfram query: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("wolfram response: %w", err)
	}
	text := strings.TrimSpace(string(body))

	switch resp.StatusCode {
	case http.StatusOK:
		return text, nil
	case http.StatusBadRequest, http.StatusNotImplemented:
		// Semantic no-answer; the body explains why.
		return text, nil
	default:
		return "", fmt.Errorf("wolfram returned HTTP %d", resp.StatusCode)
	}
}
