package classfile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/socraticlabs/socratic/internal/llm"
)

// Builder turns pre-extracted course material into a ClassFile through
// three model calls: syllabus structuring, concept extraction, and
// problem cleanup.
type Builder struct {
	client *llm.Client
}

// NewBuilder creates a Builder over the given safe-JSON client.
func NewBuilder(client *llm.Client) *Builder {
	return &Builder{client: client}
}

// Build constructs a ClassFile from raw syllabus text and practice
// problem text. Either input may be empty; the corresponding section is
// left empty.
func (b *Builder) Build(ctx context.Context, syllabusText, problemsText, className string) (*ClassFile, error) {
	syllabus, err := b.structureSyllabus(ctx, ScrapeSyllabus(syllabusText))
	if err != nil {
		return nil, fmt.Errorf("structure syllabus: %w", err)
	}

	concepts, err := b.extractConcepts(ctx, syllabus)
	if err != nil {
		return nil, fmt.Errorf("extract concepts: %w", err)
	}

	problems, err := b.cleanProblems(ctx, ScrapePracticeProblems(problemsText))
	if err != nil {
		return nil, fmt.Errorf("clean practice problems: %w", err)
	}

	return &ClassFile{
		ClassName:        className,
		Syllabus:         syllabus,
		Concepts:         concepts,
		PracticeProblems: problems,
		UpdatedAt:        time.Now().UTC(),
	}, nil
}

const syllabusSystem = "You convert a course syllabus text into a structured JSON outline. " +
	"Each unit has 'title' and 'topics'. " +
	"STRICTLY process only the topic structure (units, modules, chapters, and their sub-topics). " +
	"IGNORE all administrative details such as grading policies, attendance, office hours, exam dates, plagiarism policies. " +
	"Be comprehensive with the topics. Include all units found."

var syllabusSchema = &llm.Schema{
	Name:        "syllabus-outline",
	Description: "Structured course outline",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"syllabus": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"units": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"title":  map[string]any{"type": "string"},
								"topics": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
							},
							"required": []any{"title", "topics"},
						},
					},
				},
				"required": []any{"units"},
			},
		},
		"required":             []any{"syllabus"},
		"additionalProperties": false,
	},
}

func (b *Builder) structureSyllabus(ctx context.Context, lines []string) (Syllabus, error) {
	if len(lines) == 0 {
		return Syllabus{}, nil
	}

	ctx = llm.WithPurpose(ctx, "classfile-syllabus")

	prompt, err := json.Marshal(map[string]any{"syllabus_raw": lines})
	if err != nil {
		return Syllabus{}, err
	}

	raw, err := b.client.GenerateJSON(ctx, llm.JSONRequest{
		System: syllabusSystem,
		Prompt: string(prompt),
		FewShots: []llm.FewShot{
			{
				User: `{"syllabus_raw": ["Unit 1: Limits", "- One-sided limits", "- Continuity"]}`,
				Reply: map[string]any{
					"syllabus": map[string]any{
						"units": []any{
							map[string]any{"title": "Limits", "topics": []any{"One-sided limits", "Continuity"}},
						},
					},
				},
			},
		},
		Schema:      syllabusSchema,
		Temperature: 0.1,
		MaxTokens:   8192,
	})
	if err != nil {
		return Syllabus{}, err
	}

	var out struct {
		Syllabus Syllabus `json:"syllabus"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Syllabus{}, err
	}
	return out.Syllabus, nil
}

const conceptsSystem = "You extract a list of core concepts from a syllabus structure. " +
	"Focus ONLY on subject matter concepts (e.g., 'Integration', 'Photosynthesis'). " +
	"Do NOT include administrative terms (e.g., 'Midterm', 'Grading'). " +
	"Be comprehensive."

var conceptsSchema = &llm.Schema{
	Name:        "syllabus-concepts",
	Description: "Core concepts extracted from a syllabus",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"concepts": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required":             []any{"concepts"},
		"additionalProperties": false,
	},
}

func (b *Builder) extractConcepts(ctx context.Context, syllabus Syllabus) ([]string, error) {
	if len(syllabus.Units) == 0 {
		return nil, nil
	}

	ctx = llm.WithPurpose(ctx, "classfile-concepts")

	prompt, err := json.Marshal(map[string]any{"syllabus": syllabus})
	if err != nil {
		return nil, err
	}

	raw, err := b.client.GenerateJSON(ctx, llm.JSONRequest{
		System:      conceptsSystem,
		Prompt:      string(prompt),
		Schema:      conceptsSchema,
		Temperature: 0.2,
		MaxTokens:   4096,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Concepts []string `json:"concepts"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out.Concepts, nil
}

const problemsSystem = "You clean and select practice problems from a list of raw problems. " +
	"Include up to 50 high-quality problems."

var problemsSchema = &llm.Schema{
	Name:        "practice-problems",
	Description: "Cleaned practice problem bank",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"practice_problems": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
		"required":             []any{"practice_problems"},
		"additionalProperties": false,
	},
}

func (b *Builder) cleanProblems(ctx context.Context, blocks []string) ([]string, error) {
	if len(blocks) == 0 {
		return nil, nil
	}

	ctx = llm.WithPurpose(ctx, "classfile-problems")

	prompt, err := json.Marshal(map[string]any{"problems_raw": blocks})
	if err != nil {
		return nil, err
	}

	raw, err := b.client.GenerateJSON(ctx, llm.JSONRequest{
		System:      problemsSystem,
		Prompt:      string(prompt),
		Schema:      problemsSchema,
		Temperature: 0.1,
		MaxTokens:   8192,
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		PracticeProblems []string `json:"practice_problems"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out.PracticeProblems, nil
}
