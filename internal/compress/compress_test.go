package compress

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompressor struct {
	out string
	err error
}

func (f fakeCompressor) Compress(_ context.Context, _ string) (string, error) {
	return f.out, f.err
}

func longText() string {
	return strings.Repeat("The quick brown fox jumps over the lazy dog. ", 20)
}

func TestTextAbsorbsFailures(t *testing.T) {
	ctx := context.Background()
	long := longText()

	tests := []struct {
		name string
		c    Compressor
		in   string
		want string
	}{
		{"nil compressor", nil, long, long},
		{"short input passes through", fakeCompressor{out: "never"}, "short", "short"},
		{"transport error falls back", fakeCompressor{err: errors.New("down")}, long, long},
		{"empty rewrite falls back", fakeCompressor{out: "   "}, long, long},
		{"success", fakeCompressor{out: "compressed"}, long, "compressed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(ctx, tt.c, tt.in))
		})
	}
}

func TestPromptTextKeepsJSONStructure(t *testing.T) {
	ctx := context.Background()

	payload, err := json.Marshal(map[string]any{
		"short":  "keep me",
		"long":   longText(),
		"number": 3,
		"nested": map[string]any{"inner": longText()},
	})
	require.NoError(t, err)

	out := PromptText(ctx, fakeCompressor{out: "X"}, string(payload))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &parsed), "output must stay valid JSON")

	assert.Equal(t, "keep me", parsed["short"])
	assert.Equal(t, "X", parsed["long"])
	assert.Equal(t, float64(3), parsed["number"])
	assert.Equal(t, "X", parsed["nested"].(map[string]any)["inner"])
}

func TestPromptTextPlainFallback(t *testing.T) {
	out := PromptText(context.Background(), fakeCompressor{out: "X"}, longText())
	assert.Equal(t, "X", out)
}

func TestHTTPCompressor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req compressRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 0.7, req.Aggressiveness)

		json.NewEncoder(w).Encode(compressResponse{Output: "shorter"})
	}))
	defer srv.Close()

	c := NewHTTPCompressor(srv.URL, "secret", 0.7)
	out, err := c.Compress(context.Background(), longText())
	require.NoError(t, err)
	assert.Equal(t, "shorter", out)
}

func TestHTTPCompressorServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewHTTPCompressor(srv.URL, "secret", 0.5)
	_, err := c.Compress(context.Background(), longText())
	require.Error(t, err)
}
