package session

import "testing"

func TestNormalized_Clamps(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{-3, 1},
		{0, 1},
		{1, 1},
		{3, 3},
		{5, 5},
		{6, 5},
		{99, 5},
	}
	for _, tc := range cases {
		got := Parameters{DifficultyLevel: tc.in}.Normalized()
		if got.DifficultyLevel != tc.want {
			t.Errorf("Normalized(%d): got %d, want %d", tc.in, got.DifficultyLevel, tc.want)
		}
	}
}

func TestNormalized_Idempotent(t *testing.T) {
	p := Parameters{DifficultyLevel: 42}
	once := p.Normalized()
	twice := once.Normalized()
	if once.DifficultyLevel != twice.DifficultyLevel {
		t.Errorf("normalizing twice changed the value: %d vs %d", once.DifficultyLevel, twice.DifficultyLevel)
	}
}

func TestAdjust_NonAdaptiveIsIdentity(t *testing.T) {
	p := Parameters{DifficultyLevel: 3, Adaptive: false}
	history := []AnswerRecord{
		Graded("q1", true), Graded("q2", true), Graded("q3", true),
	}
	got := Adjust(p, history)
	if got.DifficultyLevel != 3 {
		t.Errorf("expected difficulty 3, got %d", got.DifficultyLevel)
	}
}

func TestAdjust_ThreeCorrectIncrements(t *testing.T) {
	p := Parameters{DifficultyLevel: 3, Adaptive: true}
	history := []AnswerRecord{
		Graded("q1", true), Graded("q2", true), Graded("q3", true),
	}
	got := Adjust(p, history)
	if got.DifficultyLevel != 4 {
		t.Errorf("expected difficulty 4, got %d", got.DifficultyLevel)
	}
}

func TestAdjust_ThreeWrongDecrements(t *testing.T) {
	p := Parameters{DifficultyLevel: 3, Adaptive: true}
	history := []AnswerRecord{
		Graded("q1", false), Graded("q2", false), Graded("q3", false),
	}
	got := Adjust(p, history)
	if got.DifficultyLevel != 2 {
		t.Errorf("expected difficulty 2, got %d", got.DifficultyLevel)
	}
}

func TestAdjust_MixedNoChange(t *testing.T) {
	p := Parameters{DifficultyLevel: 3, Adaptive: true}
	history := []AnswerRecord{
		Graded("q1", true), Graded("q2", false), Graded("q3", true),
	}
	got := Adjust(p, history)
	if got.DifficultyLevel != 3 {
		t.Errorf("expected difficulty 3, got %d", got.DifficultyLevel)
	}
}

func TestAdjust_CapsAtMax(t *testing.T) {
	p := Parameters{DifficultyLevel: 5, Adaptive: true}
	history := []AnswerRecord{
		Graded("q1", true), Graded("q2", true), Graded("q3", true),
	}
	got := Adjust(p, history)
	if got.DifficultyLevel != 5 {
		t.Errorf("expected difficulty capped at 5, got %d", got.DifficultyLevel)
	}
}

func TestAdjust_FloorsAtMin(t *testing.T) {
	p := Parameters{DifficultyLevel: 1, Adaptive: true}
	history := []AnswerRecord{
		Graded("q1", false), Graded("q2", false), Graded("q3", false),
	}
	got := Adjust(p, history)
	if got.DifficultyLevel != 1 {
		t.Errorf("expected difficulty floored at 1, got %d", got.DifficultyLevel)
	}
}

func TestAdjust_FewerThanThreeGraded(t *testing.T) {
	p := Parameters{DifficultyLevel: 3, Adaptive: true}
	history := []AnswerRecord{
		{Question: "ungraded"},
		Graded("q1", true),
		Graded("q2", true),
	}
	got := Adjust(p, history)
	if got.DifficultyLevel != 3 {
		t.Errorf("expected difficulty 3 with short streak, got %d", got.DifficultyLevel)
	}
}

func TestAdjust_UngradedEntriesSkipped(t *testing.T) {
	p := Parameters{DifficultyLevel: 3, Adaptive: true}
	history := []AnswerRecord{
		Graded("q1", true),
		{Question: "skipped"},
		Graded("q2", true),
		{Question: "skipped too"},
		Graded("q3", true),
	}
	got := Adjust(p, history)
	if got.DifficultyLevel != 4 {
		t.Errorf("expected graded entries to drive adjustment, got %d", got.DifficultyLevel)
	}
}

func TestAdjust_WindowLimitsLookback(t *testing.T) {
	// Six wrong answers beyond the window, three correct inside it.
	p := Parameters{DifficultyLevel: 3, Adaptive: true}
	history := []AnswerRecord{
		Graded("old1", false), Graded("old2", false), Graded("old3", false),
		Graded("q1", false), Graded("q2", false), Graded("q3", false),
		Graded("q4", true), Graded("q5", true), Graded("q6", true),
	}
	got := Adjust(p, history)
	if got.DifficultyLevel != 4 {
		t.Errorf("expected last three answers to win, got %d", got.DifficultyLevel)
	}
}

func TestAdjust_DoesNotMutateInput(t *testing.T) {
	p := Parameters{DifficultyLevel: 3, Adaptive: true}
	history := []AnswerRecord{
		Graded("q1", true), Graded("q2", true), Graded("q3", true),
	}
	_ = Adjust(p, history)
	if p.DifficultyLevel != 3 {
		t.Errorf("input mutated: %d", p.DifficultyLevel)
	}
}

func TestAdjust_NormalizesOutOfRangeInput(t *testing.T) {
	p := Parameters{DifficultyLevel: 9, Adaptive: false}
	got := Adjust(p, nil)
	if got.DifficultyLevel != 5 {
		t.Errorf("expected clamp to 5, got %d", got.DifficultyLevel)
	}
}
