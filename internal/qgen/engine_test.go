package qgen

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/socraticlabs/socratic/internal/classfile"
	"github.com/socraticlabs/socratic/internal/llm"
	"github.com/socraticlabs/socratic/internal/oracle"
	"github.com/socraticlabs/socratic/internal/session"
	"github.com/socraticlabs/socratic/internal/store"
)

func mockReply(t *testing.T, v any) llm.MockResponse {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal mock reply: %v", err)
	}
	return llm.MockResponse{Content: data}
}

func validationPromptReply(t *testing.T) llm.MockResponse {
	t.Helper()
	return mockReply(t, map[string]any{"validation_prompt": "You are a verifier."})
}

func calcSession() session.Parameters {
	return session.Parameters{
		DifficultyLevel: 3,
		FocusConcepts:   []string{"derivatives"},
		UnitFocus:       "Calculus",
	}
}

func TestGenerateOracleVerified(t *testing.T) {
	mock := llm.NewMockProvider(
		mockReply(t, map[string]any{"is_math": true}),
		mockReply(t, map[string]any{
			"question":      "Differentiate x^3.",
			"wolfram_query": "D[x^3,x]",
			"answer":        "3x^2 (model)",
			"metadata":      map[string]any{"difficulty_level": 3},
		}),
		validationPromptReply(t),
	)
	orc := oracle.NewMockOracle(map[string]string{"D[x^3,x]": "3 x^2"})
	e := NewEngine(llm.NewClient(mock), orc, nil)

	g, err := e.Generate(context.Background(), Request{Session: calcSession(), UseOracle: true})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if g.Question != "Differentiate x^3." {
		t.Errorf("Question = %q", g.Question)
	}
	if g.Answer != "3 x^2" {
		t.Errorf("Answer = %q, want oracle result", g.Answer)
	}
	if g.OracleQuery != "D[x^3,x]" {
		t.Errorf("OracleQuery = %q", g.OracleQuery)
	}
	if g.ValidationPrompt == "" {
		t.Error("expected validation prompt")
	}
	if v, _ := g.Metadata["verified_with_wolfram"].(bool); !v {
		t.Error("expected verified_with_wolfram=true")
	}
}

func TestGenerateGateDowngradesOracle(t *testing.T) {
	mock := llm.NewMockProvider(
		mockReply(t, map[string]any{"is_math": false}),
		mockReply(t, map[string]any{
			"question": "Who wrote 'The Great Gatsby'?",
			"answer":   "F. Scott Fitzgerald",
		}),
		validationPromptReply(t),
	)
	orc := oracle.NewMockOracle(map[string]string{})
	e := NewEngine(llm.NewClient(mock), orc, nil)

	req := Request{
		Session:   session.Parameters{DifficultyLevel: 2, FocusConcepts: []string{"American literature"}, UnitFocus: "Novels"},
		UseOracle: true,
	}
	g, err := e.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	if g.Answer != "F. Scott Fitzgerald" {
		t.Errorf("Answer = %q", g.Answer)
	}
	if g.OracleQuery != "" {
		t.Errorf("OracleQuery = %q, want empty after gate downgrade", g.OracleQuery)
	}
	if orc.QueryCount() != 0 {
		t.Errorf("oracle queried %d times, want 0", orc.QueryCount())
	}
	if v, _ := g.Metadata["verified_with_wolfram"].(bool); v {
		t.Error("expected verified_with_wolfram=false")
	}
}

func TestGenerateRetriesWithFeedback(t *testing.T) {
	mock := llm.NewMockProvider(
		mockReply(t, map[string]any{"answer": "x=4"}), // no question
		mockReply(t, map[string]any{"question": "Solve for x: 2x+3=11.", "answer": "x=4"}),
		validationPromptReply(t),
	)
	e := NewEngine(llm.NewClient(mock), nil, nil)

	g, err := e.Generate(context.Background(), Request{Session: calcSession()})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if g.Question == "" {
		t.Fatal("expected question")
	}

	// The second attempt's prompt must carry the first attempt's issue.
	second := mock.Calls[1]
	last := second.Messages[len(second.Messages)-1].Content
	if !strings.Contains(last, `"previous_issue":"missing_question"`) {
		t.Errorf("second prompt missing failure feedback: %s", last)
	}
	if !strings.Contains(last, `"attempt":2`) {
		t.Errorf("second prompt missing attempt number: %s", last)
	}
}

func TestGenerateExhaustsAttempts(t *testing.T) {
	mock := llm.NewMockProvider(
		mockReply(t, map[string]any{"answer": "a"}),
		mockReply(t, map[string]any{"answer": "b"}),
		mockReply(t, map[string]any{"answer": "c"}),
	)
	e := NewEngine(llm.NewClient(mock), nil, nil)

	_, err := e.Generate(context.Background(), Request{Session: calcSession()})
	if err == nil {
		t.Fatal("expected error after exhausted attempts")
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Errorf("error = %v", err)
	}
	if !strings.Contains(err.Error(), "missing_question") {
		t.Errorf("error should carry last issue: %v", err)
	}
	if mock.CallCount() != 3 {
		t.Errorf("CallCount() = %d, want 3", mock.CallCount())
	}
}

func TestGenerateOracleRejectionRetries(t *testing.T) {
	mock := llm.NewMockProvider(
		mockReply(t, map[string]any{"is_math": true}),
		mockReply(t, map[string]any{"question": "Differentiate x^2.", "wolfram_query": "nonsense", "answer": "2x"}),
		mockReply(t, map[string]any{"question": "Differentiate x^2.", "wolfram_query": "D[x^2,x]", "answer": "2x"}),
		validationPromptReply(t),
	)
	orc := oracle.NewMockOracle(map[string]string{"D[x^2,x]": "2x"})
	orc.Default = "Wolfram|Alpha did not understand your input"
	e := NewEngine(llm.NewClient(mock), orc, nil)

	g, err := e.Generate(context.Background(), Request{Session: calcSession(), UseOracle: true})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if g.Answer != "2x" || g.OracleQuery != "D[x^2,x]" {
		t.Errorf("got answer=%q query=%q", g.Answer, g.OracleQuery)
	}

	// The retry prompt carries the oracle's own explanation.
	third := mock.Calls[2]
	last := third.Messages[len(third.Messages)-1].Content
	if !strings.Contains(last, "wolfram_no_answer") {
		t.Errorf("retry prompt missing oracle failure tag: %s", last)
	}
}

func TestGenerateRecoversMissingAnswer(t *testing.T) {
	mock := llm.NewMockProvider(
		mockReply(t, map[string]any{"question": "Solve for x: 2x+3=11."}), // no answer
		mockReply(t, map[string]any{"ok": true, "answer": "x=4", "explanation": "Unique solution."}),
		validationPromptReply(t),
	)
	e := NewEngine(llm.NewClient(mock), nil, nil)

	g, err := e.Generate(context.Background(), Request{Session: calcSession()})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if g.Answer != "x=4" {
		t.Errorf("Answer = %q, want recovered answer", g.Answer)
	}
	if mock.CallCount() != 3 {
		t.Errorf("CallCount() = %d, want 3", mock.CallCount())
	}
}

func TestGenerateAcceptsListOutput(t *testing.T) {
	list, err := json.Marshal([]any{
		map[string]any{"question": "Solve for x: x-1=0.", "answer": "x=1"},
	})
	if err != nil {
		t.Fatal(err)
	}
	mock := llm.NewMockProvider(
		llm.MockResponse{Content: list},
		validationPromptReply(t),
	)
	e := NewEngine(llm.NewClient(mock), nil, nil)

	g, err := e.Generate(context.Background(), Request{Session: calcSession()})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if g.Question != "Solve for x: x-1=0." {
		t.Errorf("Question = %q", g.Question)
	}
}

func TestGenerateAdaptiveRaisesDifficulty(t *testing.T) {
	mock := llm.NewMockProvider(
		mockReply(t, map[string]any{"question": "q", "answer": "a"}),
		validationPromptReply(t),
	)
	e := NewEngine(llm.NewClient(mock), nil, nil)

	p := calcSession()
	p.Adaptive = true
	history := []session.AnswerRecord{
		session.Graded("q1", true),
		session.Graded("q2", true),
		session.Graded("q3", true),
	}

	g, err := e.Generate(context.Background(), Request{Session: p, History: history})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if g.Session.DifficultyLevel != 4 {
		t.Errorf("effective difficulty = %d, want 4", g.Session.DifficultyLevel)
	}
	if got, _ := g.Metadata["difficulty_level"].(int); got != 4 {
		t.Errorf("metadata difficulty = %v, want 4", g.Metadata["difficulty_level"])
	}
}

func TestGenerateCumulativeBackgroundConcepts(t *testing.T) {
	mock := llm.NewMockProvider(
		mockReply(t, map[string]any{"question": "q", "answer": "a"}),
		validationPromptReply(t),
	)
	e := NewEngine(llm.NewClient(mock), nil, nil)

	p := calcSession()
	p.Cumulative = true
	cf := &classfile.ClassFile{
		Concepts: []string{"derivatives", "limits", "continuity"},
	}

	if _, err := e.Generate(context.Background(), Request{Session: p, ClassFile: cf}); err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	first := mock.Calls[0]
	last := first.Messages[len(first.Messages)-1].Content
	if !strings.Contains(last, `"background_concepts":["limits","continuity"]`) {
		t.Errorf("prompt missing background concepts: %s", last)
	}
}

func TestGeneratePersistsQuestion(t *testing.T) {
	s, err := store.Open("file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	mock := llm.NewMockProvider(
		mockReply(t, map[string]any{"question": "Solve for x: x+1=2.", "answer": "x=1"}),
		validationPromptReply(t),
	)
	e := NewEngine(llm.NewClient(mock), nil, s.QuestionRepo())

	g, err := e.Generate(context.Background(), Request{Session: calcSession()})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}

	recs, err := s.QuestionRepo().List(context.Background(), store.QueryOpts{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	if recs[0].Question != g.Question || recs[0].Answer != g.Answer {
		t.Errorf("persisted %+v, want question %q", recs[0], g.Question)
	}
	if recs[0].ID == "" || recs[0].Difficulty != 3 {
		t.Errorf("record fields: %+v", recs[0])
	}
}
