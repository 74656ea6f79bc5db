package jsonrepair

import (
	"encoding/json"
	"testing"
)

func mustParse(t *testing.T, input string) map[string]any {
	t.Helper()
	raw, err := Parse(input)
	if err != nil {
		t.Fatalf("Parse(%q) failed: %v", input, err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("repaired output is not an object: %v", err)
	}
	return out
}

func TestParse_ValidPassthrough(t *testing.T) {
	out := mustParse(t, `{"a": 1, "b": "two"}`)
	if out["a"] != float64(1) || out["b"] != "two" {
		t.Errorf("unexpected result: %v", out)
	}
}

func TestParse_FencedWithTrailingComma(t *testing.T) {
	out := mustParse(t, "```json\n{\"a\":1,}\n```")
	if len(out) != 1 || out["a"] != float64(1) {
		t.Errorf(`expected {"a":1}, got %v`, out)
	}
}

func TestParse_FenceWithoutClosing(t *testing.T) {
	out := mustParse(t, "```json\n{\"a\": 1}")
	if out["a"] != float64(1) {
		t.Errorf("unexpected result: %v", out)
	}
}

func TestParse_ProseAroundObject(t *testing.T) {
	out := mustParse(t, `Here is the JSON you asked for: {"ok": true} Hope that helps!`)
	if out["ok"] != true {
		t.Errorf("unexpected result: %v", out)
	}
}

func TestParse_TruncatedString(t *testing.T) {
	out := mustParse(t, `{"a": "line1`)
	got, ok := out["a"].(string)
	if !ok {
		t.Fatalf("expected string for a, got %T", out["a"])
	}
	if got != "line1" {
		t.Errorf("expected a to contain line1, got %q", got)
	}
}

func TestParse_TruncatedNested(t *testing.T) {
	out := mustParse(t, `{"outer": {"items": [1, 2, 3`)
	inner, ok := out["outer"].(map[string]any)
	if !ok {
		t.Fatalf("expected nested object, got %T", out["outer"])
	}
	items, ok := inner["items"].([]any)
	if !ok || len(items) != 3 {
		t.Errorf("expected 3 items, got %v", inner["items"])
	}
}

func TestParse_RawNewlineInString(t *testing.T) {
	out := mustParse(t, "{\"text\": \"line1\nline2\"}")
	if out["text"] != "line1\nline2" {
		t.Errorf("unexpected text: %q", out["text"])
	}
}

func TestParse_TabAndCarriageReturnInString(t *testing.T) {
	out := mustParse(t, "{\"text\": \"a\tb\rc\"}")
	if out["text"] != "a\tb"+"c" {
		t.Errorf("unexpected text: %q", out["text"])
	}
}

func TestParse_Unrepairable(t *testing.T) {
	if _, err := Parse("no json here at all"); err == nil {
		t.Fatal("expected error for non-JSON input")
	}
}

func TestStripFences_LanguageTag(t *testing.T) {
	got := StripFences("```json\n{\"a\":1}\n```")
	if got != `{"a":1}` {
		t.Errorf("got %q", got)
	}
}

func TestStripFences_NoFence(t *testing.T) {
	got := StripFences(`  {"a":1}  `)
	if got != `{"a":1}` {
		t.Errorf("got %q", got)
	}
}

func TestExtractCandidate_ArrayFirst(t *testing.T) {
	got := ExtractCandidate(`noise [1, 2] trailing`)
	if got != `[1, 2]` {
		t.Errorf("got %q", got)
	}
}

func TestExtractCandidate_BracesInStringsIgnored(t *testing.T) {
	out := mustParse(t, `prefix {"expr": "f(x) = {x}"} suffix`)
	if out["expr"] != "f(x) = {x}" {
		t.Errorf("unexpected expr: %q", out["expr"])
	}
}

func TestRepair_EscapedQuoteInString(t *testing.T) {
	out := mustParse(t, `{"q": "he said \"hi\"`)
	if out["q"] != `he said "hi"` {
		t.Errorf("unexpected q: %q", out["q"])
	}
}
