// Package hint generates tutoring hints and clarifying follow-ups over
// the student's current status. Hints degrade gracefully: when no
// oracle-verifiable hint emerges within the attempt budget, the last
// candidate text is returned unverified rather than failing the student.
package hint

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/socraticlabs/socratic/internal/llm"
	"github.com/socraticlabs/socratic/internal/oracle"
	"github.com/socraticlabs/socratic/internal/subject"
)

// defaultMaxAttempts bounds the generate-verify loop.
const defaultMaxAttempts = 2

// Kind discriminates the two response shapes.
type Kind string

const (
	// KindFollowup is a single clarifying question back to the student.
	KindFollowup Kind = "followup"
	// KindHint is an actual hint.
	KindHint Kind = "hint"
)

// Types is the hint taxonomy, ordered from least to most revealing.
var Types = []string{
	"Metacognitive / Reflection",
	"Conceptual",
	"Strategic",
	"Procedural / Subgoal",
	"Bottom-Out / Explicit",
}

// Request describes one hint call.
type Request struct {
	// Problem is the question the student is working on.
	Problem string
	// Status is the student's description of where they are stuck.
	Status string
	// History holds previously given hints, oldest first.
	History []string
	// Type optionally pins one taxonomy entry; empty lets the model pick.
	Type string
	// StatusImage optionally attaches a photo of the student's work.
	StatusImage *llm.Blob
	// MaxAttempts defaults to 2 when zero.
	MaxAttempts int
	// UseOracle requests oracle verification of the hint's key claim.
	UseOracle bool
}

// Response is one hint or follow-up.
type Response struct {
	Kind Kind
	Text string
	// Type is set for hints only.
	Type string
	// OracleQuery and OracleResult are set when the hint was verified.
	OracleQuery  string
	OracleResult string
	// Verified reports whether the oracle confirmed the key claim.
	Verified bool
}

// Engine generates hints over a safe-JSON client.
type Engine struct {
	client     *llm.Client
	oracle     oracle.Oracle
	classifier *subject.Classifier
}

// NewEngine creates an Engine. orc may be nil, which disables
// verification.
func NewEngine(client *llm.Client, orc oracle.Oracle) *Engine {
	return &Engine{client: client, oracle: orc, classifier: subject.NewClassifier(client)}
}

const hintSystem = "You are a tutoring hint generator. " +
	"You must either ask a single clarifying follow-up question, or provide a hint. " +
	"If you provide a hint, keep it short and aligned with one of the hint types. " +
	"Use LaTeX for math delimited by $$ ... $$. " +
	"Whenever possible, supply a Wolfram Alpha query that can validate the key claim. " +
	"If 'hint_history' is provided, do NOT repeat previous hints. Provide a progressively more helpful hint. " +
	"Return JSON only."

var hintShots = []llm.FewShot{
	{
		User: `{"problem": "Solve for x: 2x + 3 = 11", "status_prompt": "I don't know what to do first.", "hint_type": "Strategic"}`,
		Reply: map[string]any{
			"kind":          "hint",
			"hint_type":     "Strategic",
			"text":          "Try isolating the x-term first by undoing the +3, then undo the multiplication by 2.",
			"wolfram_query": "Solve 2x+3=11 for x",
		},
	},
	{
		User: `{"problem": "Evaluate the limit: lim_{x->0} (sin x)/x", "status_prompt": "I wrote sin(0)/0 and got 0/0. Is that bad?", "hint_type": null}`,
		Reply: map[string]any{
			"kind":          "hint",
			"hint_type":     "Conceptual",
			"text":          "Getting 0/0 means you need a limit technique (like a known special limit or series), not direct substitution.",
			"wolfram_query": "Limit[Sin[x]/x, x->0]",
		},
	},
	{
		User: `{"problem": "Find the derivative of f(x)=x^2", "status_prompt": "My work is: derivative is 2x. Still not sure why.", "hint_type": null}`,
		Reply: map[string]any{
			"kind":          "followup",
			"hint_type":     nil,
			"text":          "Which rule did you use (power rule, definition of derivative, or something else)?",
			"wolfram_query": nil,
		},
	},
}

// Generate runs the hint loop. Follow-ups are accepted immediately;
// hints go through oracle verification when the oracle is engaged. When
// no candidate verifies, the last candidate's text comes back as an
// unverified hint.
func (e *Engine) Generate(ctx context.Context, req Request) (*Response, error) {
	useOracle := req.UseOracle && e.oracle != nil
	if useOracle && !e.classifier.OracleEligible(ctx, req.Problem) {
		useOracle = false
	}

	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	genCtx := llm.WithPurpose(ctx, "hint-generation")

	var lastIssue, lastText string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		prompt, err := buildPrompt(req, attempt, lastIssue)
		if err != nil {
			return nil, err
		}

		raw, err := e.client.GenerateJSON(genCtx, llm.JSONRequest{
			System:      hintSystem,
			Prompt:      prompt,
			FewShots:    hintShots,
			Attachment:  req.StatusImage,
			Temperature: 0.2,
			MaxTokens:   2048,
		})
		if err != nil {
			return nil, fmt.Errorf("generate hint: %w", err)
		}

		var out struct {
			Kind         string  `json:"kind"`
			HintType     *string `json:"hint_type"`
			Text         string  `json:"text"`
			OracleQuery  *string `json:"wolfram_query"`
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			lastIssue = "invalid_kind_or_missing_text"
			continue
		}

		kind := strings.TrimSpace(out.Kind)
		text := strings.TrimSpace(out.Text)
		if text != "" {
			lastText = text
		}
		if (kind != string(KindFollowup) && kind != string(KindHint)) || text == "" {
			lastIssue = "invalid_kind_or_missing_text"
			continue
		}

		if kind == string(KindFollowup) {
			return &Response{Kind: KindFollowup, Text: text}, nil
		}

		hintType := ""
		if out.HintType != nil {
			hintType = strings.TrimSpace(*out.HintType)
		}

		if !useOracle {
			return &Response{Kind: KindHint, Text: text, Type: hintType}, nil
		}

		query := ""
		if out.OracleQuery != nil {
			query = strings.TrimSpace(*out.OracleQuery)
		}
		if query != "" {
			if result, err := e.oracle.ResultText(ctx, query); err == nil && oracle.Understood(result) {
				return &Response{
					Kind:         KindHint,
					Text:         text,
					Type:         hintType,
					OracleQuery:  query,
					OracleResult: result,
					Verified:     true,
				}, nil
			}
		}

		lastIssue = "wolfram_unverifiable_hint"
	}

	// Graceful degradation: an unverified hint beats no hint.
	return &Response{Kind: KindHint, Text: lastText, Type: req.Type}, nil
}

func buildPrompt(req Request, attempt int, lastIssue string) (string, error) {
	history := req.History
	if history == nil {
		history = []string{}
	}

	payload := map[string]any{
		"problem":       req.Problem,
		"status_prompt": req.Status,
		"hint_history":  history,
		"hint_type":     emptyToNil(req.Type),
		"hint_types":    Types,
		"output_contract": map[string]string{
			"kind":          `"followup" | "hint"`,
			"hint_type":     "string | null",
			"text":          "string",
			"wolfram_query": "string | null",
		},
		"extra": map[string]any{
			"attempt":        attempt,
			"previous_issue": emptyToNil(lastIssue),
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
