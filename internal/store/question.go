package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// questionRepo implements QuestionRepo backed by SQLite and the global
// sequence counter.
type questionRepo struct {
	db  *sql.DB
	seq *sequenceCounter
}

func (r *questionRepo) Save(ctx context.Context, rec *QuestionRecord) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}
	rec.Sequence = seqNum

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO question_records
			(id, sequence, created_at, subject, topic, difficulty,
			 question, answer, oracle_query, student_answer, correct)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Sequence, rec.CreatedAt, rec.Subject, rec.Topic,
		rec.Difficulty, rec.Question, rec.Answer, rec.OracleQuery,
		rec.StudentAnswer, nullableBool(rec.Correct),
	)
	if err != nil {
		return fmt.Errorf("save question record: %w", err)
	}

	return nil
}

func (r *questionRepo) RecordResponse(ctx context.Context, id string, studentAnswer string, correct *bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE question_records SET student_answer = ?, correct = ? WHERE id = ?`,
		studentAnswer, nullableBool(correct), id,
	)
	if err != nil {
		return fmt.Errorf("record response: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record response: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("record response: no question with id %s", id)
	}
	return nil
}

func (r *questionRepo) List(ctx context.Context, opts QueryOpts) ([]QuestionRecord, error) {
	var (
		conds []string
		args  []any
	)
	if opts.After > 0 {
		conds = append(conds, "sequence > ?")
		args = append(args, opts.After)
	}
	if opts.Subject != "" {
		conds = append(conds, "subject = ?")
		args = append(args, opts.Subject)
	}

	q := `SELECT id, sequence, created_at, subject, topic, difficulty,
			question, answer, oracle_query, student_answer, correct
		FROM question_records`
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY sequence"
	if opts.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list question records: %w", err)
	}
	defer rows.Close()

	var out []QuestionRecord
	for rows.Next() {
		var (
			rec     QuestionRecord
			correct sql.NullBool
		)
		err := rows.Scan(&rec.ID, &rec.Sequence, &rec.CreatedAt, &rec.Subject,
			&rec.Topic, &rec.Difficulty, &rec.Question, &rec.Answer,
			&rec.OracleQuery, &rec.StudentAnswer, &correct)
		if err != nil {
			return nil, fmt.Errorf("scan question record: %w", err)
		}
		if correct.Valid {
			v := correct.Bool
			rec.Correct = &v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list question records: %w", err)
	}
	return out, nil
}

func nullableBool(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
