package oracle

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestUnderstood(t *testing.T) {
	cases := []struct {
		result string
		want   bool
	}{
		{"x = 4", true},
		{"", false},
		{"   ", false},
		{"Wolfram|Alpha did not understand your input", false},
	}
	for _, tc := range cases {
		if got := Understood(tc.result); got != tc.want {
			t.Errorf("Understood(%q) = %v, want %v", tc.result, got, tc.want)
		}
	}
}

func TestBestEffortAnswer(t *testing.T) {
	orc := NewMockOracle(map[string]string{"Solve 2x+3=11 for x": "x = 4"})
	orc.Default = "Wolfram|Alpha did not understand your input"

	ok, result := BestEffortAnswer(context.Background(), orc, "Solve 2x+3=11 for x")
	if !ok || result != "x = 4" {
		t.Errorf("got (%v, %q)", ok, result)
	}

	ok, result = BestEffortAnswer(context.Background(), orc, "gibberish")
	if ok {
		t.Error("expected not understood")
	}
	if result == "" {
		t.Error("raw result should still be surfaced")
	}

	orc.Err = errors.New("network down")
	ok, result = BestEffortAnswer(context.Background(), orc, "anything")
	if ok || result != "" {
		t.Errorf("got (%v, %q), want (false, \"\")", ok, result)
	}
}

func TestWolframClientResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("appid"); got != "APP-1" {
			t.Errorf("appid = %q", got)
		}
		switch r.URL.Query().Get("i") {
		case "Solve 2x+3=11 for x":
			w.Write([]byte("x = 4\n"))
		default:
			w.WriteHeader(http.StatusNotImplemented)
			w.Write([]byte("Wolfram|Alpha did not understand your input"))
		}
	}))
	defer srv.Close()

	c, err := NewWolframClient("APP-1", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("NewWolframClient() error: %v", err)
	}

	got, err := c.ResultText(context.Background(), "Solve 2x+3=11 for x")
	if err != nil {
		t.Fatalf("ResultText() error: %v", err)
	}
	if got != "x = 4" {
		t.Errorf("got %q", got)
	}

	// 501 is a semantic no-answer, not a transport failure.
	got, err = c.ResultText(context.Background(), "gibberish")
	if err != nil {
		t.Fatalf("ResultText() error: %v", err)
	}
	if Understood(got) {
		t.Errorf("expected not-understood result, got %q", got)
	}
}

func TestWolframClientBlankQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("blank query must not reach the API")
	}))
	defer srv.Close()

	c, err := NewWolframClient("APP-1", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.ResultText(context.Background(), "   ")
	if err != nil || got != "" {
		t.Errorf("got (%q, %v), want empty", got, err)
	}
}

func TestWolframClientServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewWolframClient("APP-1", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := c.ResultText(context.Background(), "x"); err == nil {
		t.Error("expected error for HTTP 500")
	}
}

func TestWolframClientRequiresAppID(t *testing.T) {
	if _, err := NewWolframClient(""); err == nil {
		t.Error("expected error for missing app ID")
	}
}
