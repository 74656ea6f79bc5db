// Package validate checks generated material against an independent
// model pass and, for symbolic content, against the oracle. Oracle
// output is attached as evidence; the model verdict is never overridden
// by it except on the direct question-answer path, where the oracle IS
// the verdict.
package validate

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/socraticlabs/socratic/internal/llm"
	"github.com/socraticlabs/socratic/internal/oracle"
	"github.com/socraticlabs/socratic/internal/subject"
)

// Result is the outcome of one validation check.
type Result struct {
	OK           bool
	OracleQuery  string
	OracleResult string
	// Details carries the model's explanation; on the non-oracle
	// question path it is a JSON object {"answer", "explanation"}.
	Details string
}

// Answer extracts the recovered answer from a non-oracle question check,
// or "" when none was produced.
func (r Result) Answer() string {
	var d struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(r.Details), &d); err != nil {
		return ""
	}
	return strings.TrimSpace(d.Answer)
}

// Checker runs validation passes over questions and hints.
type Checker struct {
	client     *llm.Client
	oracle     oracle.Oracle
	classifier *subject.Classifier
}

// NewChecker creates a Checker. oracle may be nil, which disables all
// oracle-backed paths.
func NewChecker(client *llm.Client, orc oracle.Oracle, classifier *subject.Classifier) *Checker {
	return &Checker{client: client, oracle: orc, classifier: classifier}
}

// gate downgrades an oracle request when no oracle is configured or the
// classifier rejects the context.
func (c *Checker) gate(ctx context.Context, useOracle bool, contextText string) bool {
	if !useOracle || c.oracle == nil {
		return false
	}
	return c.classifier.OracleEligible(ctx, contextText)
}

const directAnswerSystem = "You determine if a question is well-posed and has a valid answer. " +
	"If yes, provide a concise final answer. Return JSON only. " +
	"Use LaTeX for math delimited by $$ ... $$. " +
	"Do not include any preamble, markdown, or code fences."

var directAnswerShots = []llm.FewShot{
	{
		User:  `{"question": "Solve for x: 2x+3=11"}`,
		Reply: map[string]any{"ok": true, "answer": "x=4", "explanation": "Linear equation with a unique solution."},
	},
	{
		User:  `{"question": "What is the capital of France?"}`,
		Reply: map[string]any{"ok": true, "answer": "Paris", "explanation": "Standard geography fact."},
	},
	{
		User:  `{"question": "Solve for x: x=x+1"}`,
		Reply: map[string]any{"ok": false, "answer": nil, "explanation": "No solution exists."},
	},
}

const querySynthSystem = "You convert a math question into a single Wolfram Alpha query. " +
	"Return JSON only. Do not include any preamble, markdown, or code fences."

var querySynthShots = []llm.FewShot{
	{
		User:  "Question: Solve for x: 2x+3=11",
		Reply: map[string]any{"wolfram_query": "Solve 2x+3=11 for x"},
	},
	{
		User:  "Question: Evaluate the integral of x^2 from 0 to 3.",
		Reply: map[string]any{"wolfram_query": "Integrate x^2 from 0 to 3"},
	},
}

// QuestionHasAnswer checks that question is well-posed and answerable.
//
// With the oracle engaged, the question is converted to an oracle query
// and the oracle's verdict decides. Otherwise a direct model check
// decides, and the recovered answer rides along in Details.
func (c *Checker) QuestionHasAnswer(ctx context.Context, question, contextText string, useOracle bool) (Result, error) {
	useOracle = c.gate(ctx, useOracle, question)

	if !useOracle {
		return c.directAnswerCheck(ctx, question, contextText)
	}

	ctx = llm.WithPurpose(ctx, "validate-question")

	prompt, err := json.Marshal(map[string]any{
		"question":        question,
		"context_text":    emptyToNil(contextText),
		"output_contract": map[string]string{"wolfram_query": "string"},
	})
	if err != nil {
		return Result{}, err
	}

	raw, err := c.client.GenerateJSON(ctx, llm.JSONRequest{
		System:      querySynthSystem,
		Prompt:      string(prompt),
		FewShots:    querySynthShots,
		Temperature: 0.1,
		MaxTokens:   512,
	})
	if err != nil {
		// Query synthesis failure is a validation failure, not an error.
		return Result{OK: false, Details: err.Error()}, nil
	}

	var out struct {
		WolframQuery string `json:"wolfram_query"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{OK: false, Details: "missing_wolfram_query"}, nil
	}
	query := strings.TrimSpace(out.WolframQuery)
	if query == "" {
		return Result{OK: false, Details: "missing_wolfram_query"}, nil
	}

	ok, result := oracle.BestEffortAnswer(ctx, c.oracle, query)
	return Result{OK: ok, OracleQuery: query, OracleResult: result}, nil
}

func (c *Checker) directAnswerCheck(ctx context.Context, question, contextText string) (Result, error) {
	ctx = llm.WithPurpose(ctx, "validate-question")

	prompt, err := json.Marshal(map[string]any{
		"question":     question,
		"context_text": emptyToNil(contextText),
		"output_contract": map[string]string{
			"ok": "boolean", "answer": "string | null", "explanation": "string",
		},
	})
	if err != nil {
		return Result{}, err
	}

	raw, err := c.client.GenerateJSON(ctx, llm.JSONRequest{
		System:      directAnswerSystem,
		Prompt:      string(prompt),
		FewShots:    directAnswerShots,
		Temperature: 0.1,
		MaxTokens:   1024,
	})
	if err != nil {
		return Result{}, err
	}

	var out struct {
		OK          bool    `json:"ok"`
		Answer      *string `json:"answer"`
		Explanation string  `json:"explanation"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		details, _ := json.Marshal(map[string]any{"answer": nil, "explanation": strings.TrimSpace(string(raw))})
		return Result{OK: false, Details: string(details)}, nil
	}

	answer := any(nil)
	if out.Answer != nil {
		answer = strings.TrimSpace(*out.Answer)
	}
	details, err := json.Marshal(map[string]any{
		"answer":      answer,
		"explanation": strings.TrimSpace(out.Explanation),
	})
	if err != nil {
		return Result{}, err
	}
	return Result{OK: out.OK, Details: string(details)}, nil
}

const hintCheckSystem = "You verify whether a hint is consistent with a student's current step for a math problem. " +
	"If possible, emit a Wolfram Alpha query that checks the key claim as a boolean or computation. " +
	"Use LaTeX for math delimited by $$ ... $$. " +
	"Return JSON only. Do not include any preamble, markdown, or code fences."

var hintCheckShots = []llm.FewShot{
	{
		User: `{"question": "Solve 2x+3=11", "current_step": "2x=8", "hint": "Subtract 3 from both sides to isolate the 2x term.", "hint_type": "Procedural / Subgoal"}`,
		Reply: map[string]any{
			"is_consistent": true,
			"wolfram_query": "Simplify( (2x+3=11) && (2x=8) )",
			"explanation":   "Subtracting 3 from both sides is consistent with the step 2x=8.",
		},
	},
	{
		User: `{"question": "Who wrote 'The Great Gatsby'?", "current_step": "I think it was Hemingway.", "hint": "The author also wrote 'This Side of Paradise'.", "hint_type": "Conceptual"}`,
		Reply: map[string]any{
			"is_consistent": true,
			"wolfram_query": nil,
			"explanation":   "F. Scott Fitzgerald wrote both; hint points away from Hemingway.",
		},
	},
	{
		User: `{"question": "Compute derivative of x^2", "current_step": "d/dx x^2 = 2x", "hint": "The derivative is x.", "hint_type": "Bottom-Out / Explicit"}`,
		Reply: map[string]any{
			"is_consistent": false,
			"wolfram_query": "D[x^2,x]",
			"explanation":   "Derivative is 2x, not x.",
		},
	},
}

// HintAgainstStep checks that a hint is consistent with the student's
// current step. The model verdict decides; when the oracle is engaged
// and the model supplied a query, the oracle result is attached as
// supporting evidence only.
func (c *Checker) HintAgainstStep(ctx context.Context, question, hint, currentStep, hintType string, useOracle bool) (Result, error) {
	useOracle = c.gate(ctx, useOracle, question)

	ctx = llm.WithPurpose(ctx, "validate-hint")

	prompt, err := json.Marshal(map[string]any{
		"question":     question,
		"current_step": currentStep,
		"hint":         hint,
		"hint_type":    emptyToNil(hintType),
		"output_contract": map[string]string{
			"is_consistent": "boolean",
			"wolfram_query": "string | null",
			"explanation":   "string",
		},
	})
	if err != nil {
		return Result{}, err
	}

	raw, err := c.client.GenerateJSON(ctx, llm.JSONRequest{
		System:      hintCheckSystem,
		Prompt:      string(prompt),
		FewShots:    hintCheckShots,
		Temperature: 0.1,
		MaxTokens:   1024,
	})
	if err != nil {
		return Result{}, err
	}

	var out struct {
		IsConsistent bool    `json:"is_consistent"`
		WolframQuery *string `json:"wolfram_query"`
		Explanation  string  `json:"explanation"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return Result{}, &llm.ErrInvalidResponse{Content: raw, Err: err}
	}

	res := Result{
		OK:      out.IsConsistent,
		Details: strings.TrimSpace(out.Explanation),
	}
	if out.WolframQuery != nil {
		res.OracleQuery = strings.TrimSpace(*out.WolframQuery)
	}
	if useOracle && res.OracleQuery != "" {
		if text, err := c.oracle.ResultText(ctx, res.OracleQuery); err == nil {
			res.OracleResult = text
		}
	}
	return res, nil
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// BuildStepVerifierPrompt asks the model for a strict verifier prompt
// tailored to the question, for grading a student's step-by-step work.
func (c *Checker) BuildStepVerifierPrompt(ctx context.Context, question string) (string, error) {
	ctx = llm.WithPurpose(ctx, "validation-prompt")

	prompt, err := json.Marshal(map[string]any{
		"question":        question,
		"output_contract": map[string]string{"validation_prompt": "string"},
	})
	if err != nil {
		return "", err
	}

	raw, err := c.client.GenerateJSON(ctx, llm.JSONRequest{
		System: "You write a strict validation prompt for another AI model. " +
			"It must evaluate a student's step-by-step work for a question. " +
			"Return JSON only.\n" +
			"IMPORTANT: The validation logic you describe MUST be robust to units. " +
			"Instruct the verifier to accept answers where the numeric value is correct even if the unit is missing, " +
			"abbreviated, or slightly different (e.g. '5 m/s', '5 meters per second', '5' are all acceptable if 5 is the correct number). " +
			"If the unit is wrong (e.g. '5 kg' instead of '5 m'), mark it as incorrect.",
		Prompt: string(prompt),
		FewShots: []llm.FewShot{
			{
				User: `{"question": "Solve for x: 2x+3=11"}`,
				Reply: map[string]any{
					"validation_prompt": "You are a verifier. Given (1) the question and (2) a student's proposed next step, " +
						"decide if the step is logically valid. " +
						"Output JSON with keys: ok (boolean), error_type (string|null), feedback (string). " +
						"Be concise. Never reveal the final answer unless the student already did. " +
						"Ignore missing units if the number is correct.",
				},
			},
		},
		Temperature: 0.1,
		MaxTokens:   2048,
	})
	if err != nil {
		return "", err
	}

	var out struct {
		ValidationPrompt string `json:"validation_prompt"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &llm.ErrInvalidResponse{Content: raw, Err: err}
	}
	return strings.TrimSpace(out.ValidationPrompt), nil
}
