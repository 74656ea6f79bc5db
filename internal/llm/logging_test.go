package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/socraticlabs/socratic/internal/store"
)

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoggingProviderRecordsSuccess(t *testing.T) {
	s := openTestStore(t)
	mock := NewMockProvider(MockResponse{
		Content: json.RawMessage(`{"ok":true}`),
		Usage:   Usage{InputTokens: 12, OutputTokens: 7},
	})
	p := WithLogging(mock, s.EventRepo())

	ctx := WithPurpose(context.Background(), "question-generation")
	if _, err := p.Generate(ctx, Request{System: "sys", Messages: []Message{{Role: RoleUser, Content: "hi"}}}); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	var (
		purpose, responseBody string
		inTok, outTok         int
		success               bool
	)
	err := s.DB().QueryRow(
		`SELECT purpose, response_body, input_tokens, output_tokens, success FROM llm_request_events`,
	).Scan(&purpose, &responseBody, &inTok, &outTok, &success)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if purpose != "question-generation" || !success {
		t.Errorf("purpose=%q success=%v", purpose, success)
	}
	if inTok != 12 || outTok != 7 {
		t.Errorf("tokens = %d/%d", inTok, outTok)
	}
	if responseBody != `{"ok":true}` {
		t.Errorf("response_body = %q", responseBody)
	}
}

func TestLoggingProviderRecordsFailure(t *testing.T) {
	s := openTestStore(t)
	mock := NewMockProvider(MockResponse{Err: &ErrUpstream{Code: 500, Err: errors.New("boom")}})
	p := WithLogging(mock, s.EventRepo())

	if _, err := p.Generate(context.Background(), Request{}); err == nil {
		t.Fatal("expected error")
	}

	var (
		success bool
		msg     string
	)
	if err := s.DB().QueryRow(`SELECT success, error_message FROM llm_request_events`).Scan(&success, &msg); err != nil {
		t.Fatalf("query: %v", err)
	}
	if success {
		t.Error("expected success=false")
	}
	if msg == "" {
		t.Error("expected error message recorded")
	}
}
