// Package qgen generates practice questions through an attempt loop:
// each candidate is shape-checked, resolved to a verified answer, and
// rejected candidates feed their failure reason back into the next
// attempt's prompt.
package qgen

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/socraticlabs/socratic/internal/classfile"
	"github.com/socraticlabs/socratic/internal/llm"
	"github.com/socraticlabs/socratic/internal/oracle"
	"github.com/socraticlabs/socratic/internal/session"
	"github.com/socraticlabs/socratic/internal/store"
	"github.com/socraticlabs/socratic/internal/subject"
	"github.com/socraticlabs/socratic/internal/validate"
)

// defaultMaxAttempts bounds the generate-validate loop.
const defaultMaxAttempts = 3

// historyTail is how many recent history entries ride along in the prompt.
const historyTail = 8

// contextExcerptLen bounds the context text forwarded to answer recovery.
const contextExcerptLen = 2000

// Failure tags fed back into the next attempt's prompt.
const (
	issueInvalidShape   = "invalid_output_shape"
	issueMissingQuery   = "missing_wolfram_query"
	issueMissingAnswer  = "missing_answer"
	issueMissingText    = "missing_question"
	issueOracleNoAnswer = "wolfram_no_answer"
)

// Request describes one question-generation call.
type Request struct {
	Session session.Parameters
	History []session.AnswerRecord

	// FocusConcepts and UnitFocus override the session's values when set.
	FocusConcepts []string
	UnitFocus     string

	// ContextText is extracted source material (notes, worksheets).
	ContextText string
	ClassFile   *classfile.ClassFile
	Suggestions string

	// MaxAttempts defaults to 3 when zero.
	MaxAttempts int

	// UseOracle requests oracle-verified answers; the subject gate may
	// still downgrade it.
	UseOracle bool
}

// GeneratedQuestion is one accepted question with its verified answer.
type GeneratedQuestion struct {
	Question string
	Answer   string
	// OracleQuery is set only when the answer came from the oracle.
	OracleQuery      string
	ValidationPrompt string
	Metadata         map[string]any
	// Session is the effective (adjusted, normalized) session the
	// question was generated under.
	Session session.Parameters
}

// Engine generates questions over a safe-JSON client, optionally
// verifying answers with the oracle and persisting accepted questions.
type Engine struct {
	client     *llm.Client
	oracle     oracle.Oracle
	classifier *subject.Classifier
	checker    *validate.Checker
	questions  store.QuestionRepo
}

// NewEngine creates an Engine. orc may be nil (disables oracle paths);
// repo may be nil (disables persistence).
func NewEngine(client *llm.Client, orc oracle.Oracle, repo store.QuestionRepo) *Engine {
	classifier := subject.NewClassifier(client)
	return &Engine{
		client:     client,
		oracle:     orc,
		classifier: classifier,
		checker:    validate.NewChecker(client, orc, classifier),
		questions:  repo,
	}
}

// Checker exposes the engine's validator, for callers that grade
// follow-up work against the same stack.
func (e *Engine) Checker() *validate.Checker { return e.checker }

const generateSystem = "You generate practice questions for a tutoring system. " +
	"Return JSON only, with concise, student-friendly wording. " +
	"Use LaTeX for math delimited by $$ ... $$. " +
	"Do not include any preamble, markdown, or code fences. " +
	"Always follow the provided output_contract. " +
	"If must_be_solvable_in_wolfram_alpha=true, include a valid wolfram_query. " +
	"If must_be_solvable_in_wolfram_alpha=false, include a correct final answer in the answer field. " +
	"CRITICAL: If 'history' or 'class_file' is provided, you MUST analyze the style, tone, and complexity of the previous questions " +
	"and generate the new question to MATCH that style exactly. Do not deviate from the established question format."

var generateShots = []llm.FewShot{
	{
		User: `{"session": {"difficulty_level": 1, "cumulative": false, "adaptive": false, "focus_concepts": ["solving linear equations"], "unit_focus": "Algebra I"}, "history": []}`,
		Reply: map[string]any{
			"question":      "Solve for x: 3x - 5 = 16.",
			"wolfram_query": "Solve 3x - 5 = 16 for x",
			"answer":        "x=7",
			"metadata":      map[string]any{"difficulty_level": 1, "concepts": []any{"solving linear equations"}, "unit": "Algebra I"},
		},
	},
	{
		User: `{"session": {"difficulty_level": 3, "cumulative": true, "adaptive": false, "focus_concepts": ["derivatives", "chain rule"], "unit_focus": "Calculus"}, "history": [{"question": "Differentiate x^3.", "correct": true}]}`,
		Reply: map[string]any{
			"question":      "Differentiate f(x) = (2x^2 - 3x + 1)^5.",
			"wolfram_query": "D[(2x^2 - 3x + 1)^5, x]",
			"answer":        "5(4x-3)(2x^2-3x+1)^4",
			"metadata":      map[string]any{"difficulty_level": 3, "concepts": []any{"derivatives", "chain rule"}, "unit": "Calculus"},
		},
	},
	{
		User: `{"session": {"difficulty_level": 5, "cumulative": true, "adaptive": true, "focus_concepts": ["definite integrals", "substitution"], "unit_focus": "Calculus"}, "history": [{"question": "Integrate sin(x).", "correct": true}]}`,
		Reply: map[string]any{
			"question":      "Evaluate the definite integral $$\\int_{0}^{1} 2x\\,e^{x^2}\\,dx$$.",
			"wolfram_query": "Integrate 2x*Exp[x^2] from 0 to 1",
			"answer":        "e-1",
			"metadata":      map[string]any{"difficulty_level": 5, "concepts": []any{"definite integrals", "substitution"}, "unit": "Calculus"},
		},
	},
}

// Generate runs the attempt loop until a candidate survives every check,
// or attempts are exhausted.
func (e *Engine) Generate(ctx context.Context, req Request) (*GeneratedQuestion, error) {
	effective := session.Adjust(req.Session, req.History)
	if req.UnitFocus != "" {
		effective.UnitFocus = req.UnitFocus
	}
	if len(req.FocusConcepts) > 0 {
		effective.FocusConcepts = append([]string(nil), req.FocusConcepts...)
	}
	effective = effective.Normalized()

	useOracle := req.UseOracle && e.oracle != nil
	if useOracle {
		if probe := gateContext(req.ClassFile, effective); probe != "" && !e.classifier.OracleEligible(ctx, probe) {
			useOracle = false
		}
	}

	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	tail := req.History
	if len(tail) > historyTail {
		tail = tail[len(tail)-historyTail:]
	}

	adaptiveNote := "None"
	if effective.Adaptive && len(tail) > 0 {
		last := tail[len(tail)-1]
		if last.Correct != nil && *last.Correct {
			adaptiveNote = "The user answered the previous question CORRECTLY. Make this new question SLIGHTLY HARDER or more complex than the last one."
		} else {
			adaptiveNote = "The user answered the previous question INCORRECTLY. Make this new question SLIGHTLY EASIER or simpler than the last one."
		}
	}

	cumulativeNote, background := cumulativePlan(effective, req.ClassFile)

	genCtx := llm.WithPurpose(ctx, "question-generation")

	var lastIssue string
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		prompt, err := buildPrompt(effective, req, tail, background, cumulativeNote, adaptiveNote, useOracle, attempt, lastIssue)
		if err != nil {
			return nil, err
		}

		raw, err := e.client.GenerateJSON(genCtx, llm.JSONRequest{
			System:      generateSystem,
			Prompt:      prompt,
			FewShots:    generateShots,
			Temperature: 0.2,
			MaxTokens:   4096,
		})
		if err != nil {
			return nil, fmt.Errorf("generate question: %w", err)
		}

		cand, ok := coerceObject(raw)
		if !ok {
			lastIssue = issueInvalidShape
			continue
		}

		question := strings.TrimSpace(stringField(cand, "question"))
		oracleQuery := strings.TrimSpace(stringField(cand, "wolfram_query"))
		answer := strings.TrimSpace(stringField(cand, "answer"))

		if question == "" {
			lastIssue = issueMissingText
			continue
		}
		if useOracle && oracleQuery == "" {
			lastIssue = issueMissingQuery
			continue
		}
		if !useOracle && answer == "" {
			answer = e.recoverAnswer(ctx, question, req.ContextText)
			if answer == "" {
				lastIssue = issueMissingAnswer
				continue
			}
		}

		finalAnswer := answer
		if useOracle {
			result, err := e.oracle.ResultText(ctx, oracleQuery)
			if err != nil {
				lastIssue = fmt.Sprintf("%s: %v", issueOracleNoAnswer, err)
				continue
			}
			if !oracle.Understood(result) {
				lastIssue = fmt.Sprintf("%s: %s", issueOracleNoAnswer, result)
				continue
			}
			finalAnswer = result
		} else {
			oracleQuery = ""
		}

		validationPrompt, err := e.checker.BuildStepVerifierPrompt(ctx, question)
		if err != nil {
			return nil, fmt.Errorf("build validation prompt: %w", err)
		}

		g := &GeneratedQuestion{
			Question:         question,
			Answer:           finalAnswer,
			OracleQuery:      oracleQuery,
			ValidationPrompt: validationPrompt,
			Metadata:         buildMetadata(cand, effective, req, useOracle),
			Session:          effective,
		}

		if e.questions != nil {
			rec := g.record()
			if rec.Topic == "" && req.ClassFile != nil {
				if topics := e.classifier.MatchTopics(ctx, question, req.ClassFile.Syllabus.AllTopics()); len(topics) > 0 {
					rec.Topic = topics[0]
				}
			}
			if err := e.questions.Save(ctx, rec); err != nil {
				return nil, fmt.Errorf("persist question: %w", err)
			}
		}
		return g, nil
	}

	return nil, fmt.Errorf("generate question: no verifiable question after %d attempts: %s", maxAttempts, lastIssue)
}

// recoverAnswer makes one validation pass to recover a missing final
// answer. Failures are absorbed; the caller retags and retries.
func (e *Engine) recoverAnswer(ctx context.Context, question, contextText string) string {
	if len(contextText) > contextExcerptLen {
		contextText = contextText[:contextExcerptLen]
	}
	res, err := e.checker.QuestionHasAnswer(ctx, question, contextText, false)
	if err != nil || !res.OK {
		return ""
	}
	return res.Answer()
}

// gateContext assembles the subject-gate probe text from the class and
// session focus. Empty means nothing to classify, which keeps the oracle
// engaged.
func gateContext(cf *classfile.ClassFile, p session.Parameters) string {
	var parts []string
	if cf != nil && cf.ClassName != "" {
		parts = append(parts, "Class: "+cf.ClassName)
	}
	if p.UnitFocus != "" {
		parts = append(parts, "Unit: "+p.UnitFocus)
	}
	if len(p.FocusConcepts) > 0 {
		parts = append(parts, "Concepts: "+strings.Join(p.FocusConcepts, ", "))
	}
	return strings.Join(parts, " ")
}

func cumulativePlan(p session.Parameters, cf *classfile.ClassFile) (string, []string) {
	if !p.Cumulative {
		return "If cumulative=true, combine 2+ concepts; else isolate 1 concept.", nil
	}
	if cf == nil {
		return "Cumulative is TRUE. Integrate multiple concepts, including foundational ones implied by the difficulty level.", nil
	}

	focus := make(map[string]bool, len(p.FocusConcepts))
	for _, c := range p.FocusConcepts {
		focus[c] = true
	}
	var background []string
	for _, c := range cf.Concepts {
		if !focus[c] {
			background = append(background, c)
		}
	}
	note := "Cumulative is TRUE. You MUST combine the 'focus_concepts' with one or more 'background_concepts' " +
		"(older concepts provided in the payload). Do not rely ONLY on focus_concepts."
	return note, background
}

func buildPrompt(p session.Parameters, req Request, tail []session.AnswerRecord, background []string, cumulativeNote, adaptiveNote string, useOracle bool, attempt int, lastIssue string) (string, error) {
	if tail == nil {
		tail = []session.AnswerRecord{}
	}
	if background == nil {
		background = []string{}
	}

	payload := map[string]any{
		"session":             p,
		"class_file":          req.ClassFile,
		"file_upload_text":    emptyToNil(req.ContextText),
		"user_suggestions":    emptyToNil(req.Suggestions),
		"history":             tail,
		"background_concepts": background,
		"requirements": map[string]any{
			"must_be_solvable_in_wolfram_alpha":         useOracle,
			"if_not_using_wolfram_include_final_answer": true,
			"question_should_not_repeat_recent":         true,
			"prefer_focus_concepts":                     p.FocusConcepts,
			"cumulative_behavior":                       cumulativeNote,
			"adaptive_adjustment":                       adaptiveNote,
			"user_suggestions_instruction":              "If 'user_suggestions' are provided, prioritize them highly in the question topic/style generation.",
			"style_enforcement":                         "MIMIC the style of questions in 'history' and 'class_file.practice_problems' exactly.",
		},
		"output_contract": map[string]string{
			"question":      "string",
			"wolfram_query": "string",
			"answer":        "string",
			"metadata":      "object",
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

func buildMetadata(cand map[string]any, p session.Parameters, req Request, useOracle bool) map[string]any {
	md, _ := cand["metadata"].(map[string]any)
	if md == nil {
		md = map[string]any{}
	}

	setDefault(md, "difficulty_level", p.DifficultyLevel)
	setDefault(md, "concepts", p.FocusConcepts)
	setDefault(md, "unit", p.UnitFocus)
	setDefault(md, "cumulative", p.Cumulative)
	setDefault(md, "adaptive", p.Adaptive)
	setDefault(md, "verified_with_wolfram", useOracle)
	if req.ContextText != "" {
		setDefault(md, "used_file_upload", true)
	}
	if req.ClassFile != nil {
		setDefault(md, "used_class_file", true)
	}
	return md
}

func setDefault(m map[string]any, key string, val any) {
	if _, ok := m[key]; !ok {
		m[key] = val
	}
}

// coerceObject accepts a JSON object, or the first object inside a JSON
// array.
func coerceObject(raw json.RawMessage) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj, true
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, it := range list {
			if m, ok := it.(map[string]any); ok {
				return m, true
			}
		}
	}
	return nil, false
}

func stringField(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// record maps an accepted question onto its persistence row.
func (g *GeneratedQuestion) record() *store.QuestionRecord {
	topic := ""
	if len(g.Session.FocusConcepts) > 0 {
		topic = g.Session.FocusConcepts[0]
	}
	return &store.QuestionRecord{
		ID:          uuid.NewString(),
		CreatedAt:   time.Now().UTC(),
		Subject:     g.Session.UnitFocus,
		Topic:       topic,
		Difficulty:  g.Session.DifficultyLevel,
		Question:    g.Question,
		Answer:      g.Answer,
		OracleQuery: g.OracleQuery,
	}
}
