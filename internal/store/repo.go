package store

import (
	"context"
	"time"
)

// QueryOpts configures record queries with filtering and pagination.
type QueryOpts struct {
	Limit   int    // max results (0 = unlimited)
	After   int64  // sequence > After
	Subject string // exact subject match ("" = any)
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMRequestEvent is a stored request event with its assigned identity.
type LLMRequestEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// EventRepo provides append and query access to request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events in reverse sequence order (newest
	// first).
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMRequestEvent, error)

	// GetLLMEvent returns one event by ID, or nil if absent.
	GetLLMEvent(ctx context.Context, id int) (*LLMRequestEvent, error)
}

// QuestionRecord is one generated question together with its resolution
// and, once the learner has responded, their answer.
type QuestionRecord struct {
	ID            string
	Sequence      int64
	CreatedAt     time.Time
	Subject       string
	Topic         string
	Difficulty    int
	Question      string
	Answer        string
	OracleQuery   string
	StudentAnswer string
	// Correct is nil until the response has been graded.
	Correct *bool
}

// QuestionRepo persists generated questions and learner responses.
type QuestionRepo interface {
	// Save stores a new question record. Sequence is assigned by the repo.
	Save(ctx context.Context, rec *QuestionRecord) error

	// RecordResponse sets the learner's answer and grade on a question.
	RecordResponse(ctx context.Context, id string, studentAnswer string, correct *bool) error

	// List returns question records in sequence order.
	List(ctx context.Context, opts QueryOpts) ([]QuestionRecord, error)
}
