// Package jsonrepair recovers parseable JSON from near-miss model output.
//
// Generative models asked for JSON frequently return it wrapped in Markdown
// fences, preceded by prose, with raw newlines inside string literals, with
// trailing commas, or truncated mid-document. The repair pipeline applies a
// fixed sequence of single-pass transforms that fix exactly these failure
// modes and nothing else. It never rewrites values.
package jsonrepair

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Parse returns a valid JSON document recovered from text.
// It first tries the text with code fences stripped; if that fails to
// parse it runs the full repair pipeline. The error is the final
// json.Unmarshal error when repair was not enough.
func Parse(text string) (json.RawMessage, error) {
	cleaned := StripFences(text)
	if json.Valid([]byte(cleaned)) {
		return json.RawMessage(cleaned), nil
	}

	repaired := Repair(text)
	var v any
	if err := json.Unmarshal([]byte(repaired), &v); err != nil {
		return nil, err
	}
	return json.RawMessage(repaired), nil
}

// Repair runs the full pipeline: candidate extraction, control-character
// escaping, truncation closing, trailing-comma removal.
func Repair(text string) string {
	s := ExtractCandidate(text)
	s = escapeControlChars(s)
	s = closeUnbalanced(s)
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

var (
	fenceOpenRe     = regexp.MustCompile("```[a-zA-Z0-9_-]*[ \t]*\r?\n?")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
)

// StripFences removes a Markdown code fence wrapper, with or without a
// language tag. If the opening fence is never closed, everything after it
// is kept.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	start := strings.Index(s, "```")
	if start == -1 {
		return s
	}
	loc := fenceOpenRe.FindStringIndex(s[start:])
	if loc == nil {
		return s
	}
	contentStart := start + loc[1]
	end := strings.Index(s[contentStart:], "```")
	if end == -1 {
		return strings.TrimSpace(s[contentStart:])
	}
	return strings.TrimSpace(s[contentStart : contentStart+end])
}

// ExtractCandidate strips fences and narrows to the minimal span that can
// hold a JSON document: from the first { or [ to the last matching closer.
// Text without any opener is returned as-is.
func ExtractCandidate(text string) string {
	s := StripFences(text)
	firstObj := strings.IndexByte(s, '{')
	firstArr := strings.IndexByte(s, '[')

	var start, end int
	switch {
	case firstObj == -1 && firstArr == -1:
		return s
	case firstObj == -1:
		start, end = firstArr, strings.LastIndexByte(s, ']')
	case firstArr == -1:
		start, end = firstObj, strings.LastIndexByte(s, '}')
	case firstObj < firstArr:
		start, end = firstObj, strings.LastIndexByte(s, '}')
	default:
		start, end = firstArr, strings.LastIndexByte(s, ']')
	}

	if end == -1 || end <= start {
		return s[start:]
	}
	return s[start : end+1]
}

// scanState tracks position within string literals for the one-pass scans.
type scanState int

const (
	stateNormal scanState = iota
	stateInString
	stateEscaped
)

// escapeControlChars escapes raw newlines and tabs appearing inside string
// literals and drops carriage returns there. Characters outside strings are
// left untouched.
func escapeControlChars(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	state := stateNormal
	for _, ch := range text {
		switch state {
		case stateNormal:
			if ch == '"' {
				state = stateInString
			}
			b.WriteRune(ch)
		case stateInString:
			switch ch {
			case '\\':
				state = stateEscaped
				b.WriteRune(ch)
			case '"':
				state = stateNormal
				b.WriteRune(ch)
			case '\n':
				b.WriteString(`\n`)
			case '\t':
				b.WriteString(`\t`)
			case '\r':
				// dropped
			default:
				b.WriteRune(ch)
			}
		case stateEscaped:
			state = stateInString
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// closeUnbalanced appends the closers a truncated document is missing.
// It tracks a stack of expected closing characters plus whether a string
// literal was left open, then appends the closing quote and closers.
func closeUnbalanced(text string) string {
	var stack []byte
	state := stateNormal

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch state {
		case stateInString:
			switch ch {
			case '\\':
				state = stateEscaped
			case '"':
				state = stateNormal
			}
		case stateEscaped:
			state = stateInString
		default:
			switch ch {
			case '"':
				state = stateInString
			case '{':
				stack = append(stack, '}')
			case '[':
				stack = append(stack, ']')
			case '}', ']':
				if len(stack) > 0 && stack[len(stack)-1] == ch {
					stack = stack[:len(stack)-1]
				}
			}
		}
	}

	var b strings.Builder
	b.WriteString(text)
	if state != stateNormal {
		b.WriteByte('"')
	}
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}
