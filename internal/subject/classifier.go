// Package subject gates oracle usage: only contexts the classifier deems
// symbolic math or physics are ever sent to the symbolic oracle.
package subject

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/socraticlabs/socratic/internal/llm"
)

// Classifier decides oracle eligibility and maps questions onto course
// topics. Every failure mode fails closed: the oracle is never engaged
// speculatively.
type Classifier struct {
	client *llm.Client
}

// NewClassifier creates a Classifier over the given safe-JSON client.
func NewClassifier(client *llm.Client) *Classifier {
	return &Classifier{client: client}
}

const eligibilitySystem = "Classify if the context is PURE MATH suitable for symbolic solving. " +
	"Strictly TRUE for: Calculus, Algebra, Geometry, Differential Equations, Physics calculations. " +
	"Strictly FALSE for: Computer Science (data structures, algorithms), coding, history, literature, or general logic."

var eligibilitySchema = &llm.Schema{
	Name:        "oracle-eligibility",
	Description: "Binary subject classification for symbolic-oracle eligibility",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"is_math": map[string]any{
				"type":        "boolean",
				"description": "True only for pure math/physics symbolic content",
			},
		},
		"required":             []any{"is_math"},
		"additionalProperties": false,
	},
}

// OracleEligible reports whether contextText describes symbolic
// math/physics content. Blank context and classifier failures both
// return false.
func (c *Classifier) OracleEligible(ctx context.Context, contextText string) bool {
	if strings.TrimSpace(contextText) == "" {
		return false
	}

	ctx = llm.WithPurpose(ctx, "subject-classify")

	prompt, err := json.Marshal(map[string]string{"text": contextText})
	if err != nil {
		return false
	}

	raw, err := c.client.GenerateJSON(ctx, llm.JSONRequest{
		System:      eligibilitySystem,
		Prompt:      string(prompt),
		Schema:      eligibilitySchema,
		Temperature: 0.0,
		MaxTokens:   128,
	})
	if err != nil {
		return false
	}

	var out struct {
		IsMath bool `json:"is_math"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return false
	}
	return out.IsMath
}

const topicsSystem = "You are an expert curriculum evaluator. " +
	"Given a question and a list of class topics, identify which of the class topics are present or tested in the question. " +
	"The topics in the output must be exact matches from the provided class topics list."

var topicsSchema = &llm.Schema{
	Name:        "question-topics",
	Description: "Class topics present in a question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topics": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required":             []any{"topics"},
		"additionalProperties": false,
	},
}

// MatchTopics returns the members of classTopics the question exercises.
// Model output is filtered back against classTopics, so unknown strings
// never leak out. Failures yield an empty list.
func (c *Classifier) MatchTopics(ctx context.Context, question string, classTopics []string) []string {
	if len(classTopics) == 0 {
		return nil
	}

	ctx = llm.WithPurpose(ctx, "topic-match")

	prompt, err := json.Marshal(map[string]any{
		"question":     question,
		"class_topics": classTopics,
	})
	if err != nil {
		return nil
	}

	raw, err := c.client.GenerateJSON(ctx, llm.JSONRequest{
		System:      topicsSystem,
		Prompt:      string(prompt),
		Schema:      topicsSchema,
		Temperature: 0.0,
		MaxTokens:   512,
	})
	if err != nil {
		return nil
	}

	var out struct {
		Topics []string `json:"topics"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}

	known := make(map[string]bool, len(classTopics))
	for _, t := range classTopics {
		known[t] = true
	}
	var matched []string
	for _, t := range out.Topics {
		if known[t] {
			matched = append(matched, t)
		}
	}
	return matched
}
