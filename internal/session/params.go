// Package session holds the per-request session state and the adaptive
// difficulty controller.
package session

// Difficulty bounds. Every normalized session stays inside them.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// adjustWindow is how far back the controller looks in the answer history.
const adjustWindow = 6

// adjustStreak is the number of recent graded answers that must agree
// before difficulty moves.
const adjustStreak = 3

// Parameters is the per-session tuning a caller supplies with each
// request. It is a value object: adjustments produce a new value, never
// mutate in place.
type Parameters struct {
	// DifficultyLevel is the requested difficulty, clamped to
	// [MinDifficulty, MaxDifficulty] by Normalized.
	DifficultyLevel int `json:"difficulty_level"`

	// Cumulative combines multiple concepts per question instead of
	// isolating one.
	Cumulative bool `json:"cumulative"`

	// Adaptive enables automatic difficulty adjustment from answer history.
	Adaptive bool `json:"adaptive"`

	// FocusConcepts is the ordered list of concepts to practice.
	FocusConcepts []string `json:"focus_concepts"`

	// UnitFocus optionally narrows generation to one course unit.
	UnitFocus string `json:"unit_focus,omitempty"`
}

// Normalized returns a copy with the difficulty clamped into range.
// Idempotent: normalizing twice equals normalizing once.
func (p Parameters) Normalized() Parameters {
	if p.DifficultyLevel < MinDifficulty {
		p.DifficultyLevel = MinDifficulty
	}
	if p.DifficultyLevel > MaxDifficulty {
		p.DifficultyLevel = MaxDifficulty
	}
	return p
}

// AnswerRecord is one entry of a session's question/answer history.
// Correct is nil for entries that were never graded (skipped questions,
// still-open attempts); the controller ignores those.
type AnswerRecord struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
	Correct  *bool  `json:"correct,omitempty"`
}

// Graded is a convenience constructor for a graded history entry.
func Graded(question string, correct bool) AnswerRecord {
	return AnswerRecord{Question: question, Correct: &correct}
}

// Adjust returns the session with difficulty adapted to recent answers.
//
// Non-adaptive sessions pass through normalized. Otherwise the last
// adjustStreak graded entries inside the lookback window decide: all
// correct moves difficulty up one, all incorrect moves it down one, a
// mixed or too-short streak leaves it alone. The result is clamped.
func Adjust(p Parameters, history []AnswerRecord) Parameters {
	p = p.Normalized()
	if !p.Adaptive {
		return p
	}

	recent := history
	if len(recent) > adjustWindow {
		recent = recent[len(recent)-adjustWindow:]
	}

	var graded []bool
	for _, h := range recent {
		if h.Correct != nil {
			graded = append(graded, *h.Correct)
		}
	}
	if len(graded) < adjustStreak {
		return p
	}

	streak := graded[len(graded)-adjustStreak:]
	allCorrect, allWrong := true, true
	for _, c := range streak {
		if c {
			allWrong = false
		} else {
			allCorrect = false
		}
	}

	switch {
	case allCorrect:
		p.DifficultyLevel++
	case allWrong:
		p.DifficultyLevel--
	}
	return p.Normalized()
}
