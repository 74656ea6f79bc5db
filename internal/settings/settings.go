// Package settings interprets free-form user requests about a practice
// session ("make it harder", "more chain rule") into typed actions the
// session loop can apply.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/socraticlabs/socratic/internal/llm"
	"github.com/socraticlabs/socratic/internal/session"
)

// Request types the analyzer can emit.
const (
	TypeRegenerateQuestion = "regenerate_question"
	TypeSaveMetadata       = "save_metadata"
	TypeAdjustParameter    = "adjust_session_parameter"
	TypeCreateClassFile    = "create_class_file"
)

// ParameterChanges is the typed set of session adjustments a request can
// carry. Unknown keys from the model are dropped.
type ParameterChanges struct {
	DifficultyDelta     int      `json:"difficulty_level_delta,omitempty"`
	DifficultyLevel     *int     `json:"difficulty_level,omitempty"`
	FocusConceptsAdd    []string `json:"focus_concepts_add,omitempty"`
	FocusConceptsRemove []string `json:"focus_concepts_remove,omitempty"`
	UnitFocus           string   `json:"unit_focus,omitempty"`
	Cumulative          *bool    `json:"cumulative,omitempty"`
	Adaptive            *bool    `json:"adaptive,omitempty"`
	LearnerProfileAdd   []string `json:"learner_profile_add,omitempty"`
}

// Analysis is the analyzer's verdict on one user request.
type Analysis struct {
	RequestType      string           `json:"request_type"`
	ParameterChanges ParameterChanges `json:"parameter_changes"`
	ShouldRegenerate bool             `json:"should_regenerate_question"`
	Notes            string           `json:"notes"`
}

// Analyzer classifies session requests.
type Analyzer struct {
	client *llm.Client
}

// NewAnalyzer creates an Analyzer over the given safe-JSON client.
func NewAnalyzer(client *llm.Client) *Analyzer {
	return &Analyzer{client: client}
}

const analyzeSystem = "You classify a user's request about a practice session into an action. " +
	"Available request types: regenerate_question, save_metadata, adjust_session_parameter, create_class_file. " +
	`Output contract: { "request_type": string, "parameter_changes": object, "should_regenerate_question": boolean, "notes": string } ` +
	"Return JSON only."

var analyzeShots = []llm.FewShot{
	{
		User: `{"request_text": "Can you make the next question harder and focus on chain rule?"}`,
		Reply: map[string]any{
			"request_type":               "adjust_session_parameter",
			"parameter_changes":          map[string]any{"difficulty_level_delta": 1, "focus_concepts_add": []any{"chain rule"}},
			"should_regenerate_question": true,
			"notes":                      "Increase difficulty slightly and focus on chain rule.",
		},
	},
	{
		User: `{"request_text": "Regenerate this question; I already did something like it."}`,
		Reply: map[string]any{
			"request_type":               "regenerate_question",
			"parameter_changes":          map[string]any{},
			"should_regenerate_question": true,
			"notes":                      "Avoid repeating the same structure.",
		},
	},
	{
		User: `{"request_text": "Remember that I struggle with factoring; give me more of that later."}`,
		Reply: map[string]any{
			"request_type":               "save_metadata",
			"parameter_changes":          map[string]any{"learner_profile_add": []any{"struggles_with_factoring"}},
			"should_regenerate_question": false,
			"notes":                      "Store as learner metadata for adaptiveness.",
		},
	},
	{
		User: `{"request_text": "Create a class file for AP Calculus based on this syllabus and examples."}`,
		Reply: map[string]any{
			"request_type":               "create_class_file",
			"parameter_changes":          map[string]any{},
			"should_regenerate_question": false,
			"notes":                      "Generate/refresh background class file.",
		},
	},
}

// Analyze classifies requestText into one of the known request types.
func (a *Analyzer) Analyze(ctx context.Context, requestText string) (*Analysis, error) {
	ctx = llm.WithPurpose(ctx, "settings-analysis")

	prompt, err := json.Marshal(map[string]string{"request_text": requestText})
	if err != nil {
		return nil, err
	}

	raw, err := a.client.GenerateJSON(ctx, llm.JSONRequest{
		System:      analyzeSystem,
		Prompt:      string(prompt),
		FewShots:    analyzeShots,
		Temperature: 0.1,
		MaxTokens:   1024,
	})
	if err != nil {
		return nil, err
	}

	var out Analysis
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &llm.ErrInvalidResponse{Content: raw, Err: err}
	}

	out.RequestType = strings.TrimSpace(out.RequestType)
	switch out.RequestType {
	case TypeRegenerateQuestion, TypeSaveMetadata, TypeAdjustParameter, TypeCreateClassFile:
	default:
		return nil, &llm.ErrInvalidResponse{
			Content: raw,
			Err:     fmt.Errorf("unknown request type %q", out.RequestType),
		}
	}
	return &out, nil
}

// Apply folds the parameter changes into p and returns the normalized
// result. The input is never mutated.
func (c ParameterChanges) Apply(p session.Parameters) session.Parameters {
	p.FocusConcepts = append([]string(nil), p.FocusConcepts...)

	if c.DifficultyLevel != nil {
		p.DifficultyLevel = *c.DifficultyLevel
	}
	p.DifficultyLevel += c.DifficultyDelta

	if len(c.FocusConceptsRemove) > 0 {
		drop := make(map[string]bool, len(c.FocusConceptsRemove))
		for _, f := range c.FocusConceptsRemove {
			drop[f] = true
		}
		kept := p.FocusConcepts[:0]
		for _, f := range p.FocusConcepts {
			if !drop[f] {
				kept = append(kept, f)
			}
		}
		p.FocusConcepts = kept
	}

	have := make(map[string]bool, len(p.FocusConcepts))
	for _, f := range p.FocusConcepts {
		have[f] = true
	}
	for _, f := range c.FocusConceptsAdd {
		if !have[f] {
			p.FocusConcepts = append(p.FocusConcepts, f)
			have[f] = true
		}
	}

	if c.UnitFocus != "" {
		p.UnitFocus = c.UnitFocus
	}
	if c.Cumulative != nil {
		p.Cumulative = *c.Cumulative
	}
	if c.Adaptive != nil {
		p.Adaptive = *c.Adaptive
	}
	return p.Normalized()
}
