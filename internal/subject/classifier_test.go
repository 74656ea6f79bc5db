package subject

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/socraticlabs/socratic/internal/llm"
)

func newClassifier(responses ...llm.MockResponse) (*Classifier, *llm.MockProvider) {
	mock := llm.NewMockProvider(responses...)
	return NewClassifier(llm.NewClient(mock)), mock
}

func TestOracleEligible_Math(t *testing.T) {
	c, _ := newClassifier(llm.MockResponse{Content: json.RawMessage(`{"is_math": true}`)})
	if !c.OracleEligible(context.Background(), "Calculus: definite integrals") {
		t.Error("expected math context to be eligible")
	}
}

func TestOracleEligible_NonMath(t *testing.T) {
	c, _ := newClassifier(llm.MockResponse{Content: json.RawMessage(`{"is_math": false}`)})
	if c.OracleEligible(context.Background(), "CS1332 Data Structures") {
		t.Error("expected CS context to be ineligible")
	}
}

func TestOracleEligible_BlankContextSkipsModel(t *testing.T) {
	c, mock := newClassifier()
	if c.OracleEligible(context.Background(), "   \n\t ") {
		t.Error("expected blank context to be ineligible")
	}
	if mock.CallCount() != 0 {
		t.Errorf("expected no model calls for blank context, got %d", mock.CallCount())
	}
}

func TestOracleEligible_FailsClosed(t *testing.T) {
	c, _ := newClassifier(llm.MockResponse{Err: &llm.ErrUpstream{Err: errors.New("boom")}})
	if c.OracleEligible(context.Background(), "Calculus") {
		t.Error("expected classifier failure to fail closed")
	}
}

func TestMatchTopics_FiltersUnknown(t *testing.T) {
	c, _ := newClassifier(llm.MockResponse{
		Content: json.RawMessage(`{"topics": ["Limits", "Made Up Topic"]}`),
	})
	got := c.MatchTopics(context.Background(), "Evaluate lim x->0 sin(x)/x", []string{"Limits", "Derivatives"})
	if len(got) != 1 || got[0] != "Limits" {
		t.Errorf("expected [Limits], got %v", got)
	}
}

func TestMatchTopics_EmptyTopicsSkipsModel(t *testing.T) {
	c, mock := newClassifier()
	if got := c.MatchTopics(context.Background(), "anything", nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
	if mock.CallCount() != 0 {
		t.Errorf("expected no model calls, got %d", mock.CallCount())
	}
}

func TestMatchTopics_FailureYieldsEmpty(t *testing.T) {
	c, _ := newClassifier(llm.MockResponse{Err: &llm.ErrUpstream{Err: errors.New("down")}})
	if got := c.MatchTopics(context.Background(), "q", []string{"Limits"}); got != nil {
		t.Errorf("expected nil on failure, got %v", got)
	}
}
