package classfile

import (
	"context"
	"encoding/json"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/socraticlabs/socratic/internal/llm"
)

func TestScrapeSyllabusDropsNoiseLines(t *testing.T) {
	text := "Unit 1:   Limits\n\n-----\n  - One-sided   limits  \n"
	got := ScrapeSyllabus(text)
	want := []string{"Unit 1: Limits", "- One-sided limits"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ScrapeSyllabus() = %v, want %v", got, want)
	}
}

func TestScrapeSyllabusEmpty(t *testing.T) {
	if got := ScrapeSyllabus("\n \n"); got != nil {
		t.Errorf("expected nil for blank input, got %v", got)
	}
}

func TestScrapePracticeProblemsSplitsBlocks(t *testing.T) {
	text := "Evaluate $x^2$ at x=3.\n\n\nCompute \\(2 \\cdot 3\\)."
	got := ScrapePracticeProblems(text)
	want := []string{"Evaluate x^2 at x=3.", "Compute 2 * 3."}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ScrapePracticeProblems() = %v, want %v", got, want)
	}
}

func TestLatexToPlain(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`\[ \frac{a}{b} \]`, " fracab "},
		{`$a \times b$`, "a * b"},
		{`\alpha + \beta`, " + "},
		{"plain text", "plain text"},
	}
	for _, tc := range cases {
		if got := latexToPlain(tc.in); got != tc.want {
			t.Errorf("latexToPlain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestAllTopics(t *testing.T) {
	s := Syllabus{Units: []Unit{
		{Title: "Limits", Topics: []string{"One-sided limits", "Continuity"}},
		{Title: "Derivatives", Topics: []string{"Chain rule"}},
	}}
	want := []string{"One-sided limits", "Continuity", "Chain rule"}
	if got := s.AllTopics(); !reflect.DeepEqual(got, want) {
		t.Errorf("AllTopics() = %v, want %v", got, want)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "classes", "calc.json")
	cf := &ClassFile{
		ClassName:        "Calculus I",
		Syllabus:         Syllabus{Units: []Unit{{Title: "Limits", Topics: []string{"Continuity"}}}},
		Concepts:         []string{"Limits"},
		PracticeProblems: []string{"Evaluate lim x->0 sin(x)/x."},
		UpdatedAt:        time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	if err := Save(path, cf); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !reflect.DeepEqual(got, cf) {
		t.Errorf("Load() = %+v, want %+v", got, cf)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func mockReply(t *testing.T, v any) llm.MockResponse {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal mock reply: %v", err)
	}
	return llm.MockResponse{Content: data}
}

func TestBuilderBuild(t *testing.T) {
	mock := llm.NewMockProvider(
		mockReply(t, map[string]any{
			"syllabus": map[string]any{
				"units": []any{
					map[string]any{"title": "Limits", "topics": []any{"Continuity"}},
				},
			},
		}),
		mockReply(t, map[string]any{"concepts": []any{"Limits", "Continuity"}}),
		mockReply(t, map[string]any{"practice_problems": []any{"Evaluate lim x->2 x^2."}}),
	)
	b := NewBuilder(llm.NewClient(mock))

	cf, err := b.Build(context.Background(), "Unit 1: Limits\n- Continuity", "Evaluate $x^2$.", "Calculus I")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}

	if cf.ClassName != "Calculus I" {
		t.Errorf("ClassName = %q", cf.ClassName)
	}
	if len(cf.Syllabus.Units) != 1 || cf.Syllabus.Units[0].Title != "Limits" {
		t.Errorf("unexpected syllabus: %+v", cf.Syllabus)
	}
	if !reflect.DeepEqual(cf.Concepts, []string{"Limits", "Continuity"}) {
		t.Errorf("Concepts = %v", cf.Concepts)
	}
	if len(cf.PracticeProblems) != 1 {
		t.Errorf("PracticeProblems = %v", cf.PracticeProblems)
	}
	if cf.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
	if mock.CallCount() != 3 {
		t.Errorf("CallCount() = %d, want 3", mock.CallCount())
	}
}

func TestBuilderBuildEmptyInputsSkipModel(t *testing.T) {
	mock := llm.NewMockProvider()
	b := NewBuilder(llm.NewClient(mock))

	cf, err := b.Build(context.Background(), "", "", "Empty")
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(cf.Syllabus.Units) != 0 || len(cf.Concepts) != 0 || len(cf.PracticeProblems) != 0 {
		t.Errorf("expected empty class file, got %+v", cf)
	}
	if mock.CallCount() != 0 {
		t.Errorf("CallCount() = %d, want 0", mock.CallCount())
	}
}
