package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestGenerateJSONRepairsFencedOutput(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage("```json\n{\"a\": 1,}\n```")},
	)
	c := NewClient(mock)

	got, err := c.GenerateJSON(context.Background(), JSONRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("GenerateJSON() error: %v", err)
	}

	var out map[string]int
	if err := json.Unmarshal(got, &out); err != nil {
		t.Fatalf("result not valid JSON: %v", err)
	}
	if out["a"] != 1 {
		t.Errorf("out = %v", out)
	}
	if mock.CallCount() != 1 {
		t.Errorf("CallCount() = %d, want 1 (no fix call for repairable output)", mock.CallCount())
	}
}

func TestGenerateJSONFixCall(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage("The answer is definitely not JSON at all")},
		MockResponse{Content: json.RawMessage(`{"fixed": true}`)},
	)
	c := NewClient(mock)

	got, err := c.GenerateJSON(context.Background(), JSONRequest{Prompt: "p"})
	if err != nil {
		t.Fatalf("GenerateJSON() error: %v", err)
	}
	if string(got) != `{"fixed": true}` {
		t.Errorf("got %s", got)
	}
	if mock.CallCount() != 2 {
		t.Fatalf("CallCount() = %d, want 2", mock.CallCount())
	}

	// The fix call carries the bad text and a JSON-only system prompt.
	fix := mock.Calls[1]
	if !strings.Contains(fix.System, "valid JSON only") {
		t.Errorf("fix system = %q", fix.System)
	}
	if !strings.Contains(fix.Messages[0].Content, "bad_text") {
		t.Errorf("fix prompt = %q", fix.Messages[0].Content)
	}
}

func TestGenerateJSONFixDepthCapped(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage("still not JSON at all, no braces here")},
		MockResponse{Content: json.RawMessage("and neither is this, sorry")},
	)
	c := NewClient(mock)

	_, err := c.GenerateJSON(context.Background(), JSONRequest{Prompt: "p"})
	if err == nil {
		t.Fatal("expected error")
	}
	var bad *ErrBadJSON
	if !errors.As(err, &bad) {
		t.Fatalf("error = %T, want ErrBadJSON", err)
	}
	if bad.Excerpt == "" {
		t.Error("expected excerpt of the offending text")
	}
	if mock.CallCount() != 2 {
		t.Errorf("CallCount() = %d, want exactly 2 (one fix, no recursion)", mock.CallCount())
	}
}

func TestGenerateJSONFewShotMessageShape(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"ok":true}`)},
	)
	c := NewClient(mock)

	_, err := c.GenerateJSON(context.Background(), JSONRequest{
		System: "sys",
		Prompt: "the real prompt",
		FewShots: []FewShot{
			{User: "example in", Reply: map[string]any{"out": 1}},
			{User: "second in", Reply: map[string]any{"out": 2}},
		},
	})
	if err != nil {
		t.Fatalf("GenerateJSON() error: %v", err)
	}

	call := mock.LastCall()
	if call.System != "sys" {
		t.Errorf("System = %q", call.System)
	}
	if !call.JSONOutput {
		t.Error("expected JSONOutput")
	}
	if len(call.Messages) != 5 {
		t.Fatalf("len(Messages) = %d, want 5", len(call.Messages))
	}

	wantRoles := []Role{RoleUser, RoleAssistant, RoleUser, RoleAssistant, RoleUser}
	for i, m := range call.Messages {
		if m.Role != wantRoles[i] {
			t.Errorf("Messages[%d].Role = %q, want %q", i, m.Role, wantRoles[i])
		}
	}
	if call.Messages[1].Content != `{"out":1}` {
		t.Errorf("Messages[1].Content = %q", call.Messages[1].Content)
	}
	if call.Messages[4].Content != "the real prompt" {
		t.Errorf("Messages[4].Content = %q", call.Messages[4].Content)
	}
}

func TestGenerateJSONDefaultMaxTokens(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`)},
	)
	c := NewClient(mock)

	if _, err := c.GenerateJSON(context.Background(), JSONRequest{Prompt: "p"}); err != nil {
		t.Fatalf("GenerateJSON() error: %v", err)
	}
	if got := mock.LastCall().MaxTokens; got != 8192 {
		t.Errorf("MaxTokens = %d, want 8192", got)
	}
}

func TestGenerateJSONProviderErrorPassthrough(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrUpstream{Code: 500, Err: errors.New("boom")}},
	)
	c := NewClient(mock)

	_, err := c.GenerateJSON(context.Background(), JSONRequest{Prompt: "p"})
	var up *ErrUpstream
	if !errors.As(err, &up) {
		t.Fatalf("error = %T, want ErrUpstream", err)
	}
}
