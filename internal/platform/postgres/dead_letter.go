package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eulerhq/euler-api/internal/queue"
	"github.com/eulerhq/euler-api/internal/store"
)

const (
	sqlInsertDeadLetter = `
INSERT INTO dead_letters (id, task_id, type, payload, attempts, failure_reason, dead_lettered_at)
VALUES ($1, $2, $3, $4, $5, $6, $7);`

	sqlListDeadLetters = `
SELECT task_id, type, payload, attempts, failure_reason, dead_lettered_at
FROM dead_letters
ORDER BY dead_lettered_at DESC
LIMIT $1 OFFSET $2;`
)

// DeadLetterSink persists exhausted and fatally failed tasks in the
// dead_letters table for operator inspection.
type DeadLetterSink struct {
	db *sql.DB
}

var _ queue.DeadLetterSink = (*DeadLetterSink)(nil)

func NewDeadLetterSink(db *sql.DB) *DeadLetterSink {
	return &DeadLetterSink{db: db}
}

// Record appends a dead-letter entry using the sink's own connection.
func (s *DeadLetterSink) Record(ctx context.Context, entry queue.DeadLetterEntry) error {
	return s.record(ctx, s.db, entry)
}

// RecordTx appends a dead-letter entry inside an existing transaction, so a
// task's terminal status change and its dead-letter record commit together.
func (s *DeadLetterSink) RecordTx(ctx context.Context, tx *sql.Tx, entry queue.DeadLetterEntry) error {
	return s.record(ctx, tx, entry)
}

func (s *DeadLetterSink) record(ctx context.Context, db store.DBTX, entry queue.DeadLetterEntry) error {
	if entry.DeadLetteredAt.IsZero() {
		entry.DeadLetteredAt = time.Now().UTC()
	}
	_, err := db.ExecContext(ctx, sqlInsertDeadLetter,
		uuid.New(), entry.TaskID, entry.Type, []byte(entry.Payload),
		entry.Attempts, entry.FailureReason, entry.DeadLetteredAt)
	if err != nil {
		return fmt.Errorf("failed to record dead letter: %w", MapError(err))
	}
	return nil
}

// List returns recent dead-letter entries, newest first.
func (s *DeadLetterSink) List(ctx context.Context, limit, offset int) ([]queue.DeadLetterEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, sqlListDeadLetters, limit, offset)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var entries []queue.DeadLetterEntry
	for rows.Next() {
		var (
			entry   queue.DeadLetterEntry
			payload []byte
		)
		if err := rows.Scan(&entry.TaskID, &entry.Type, &payload,
			&entry.Attempts, &entry.FailureReason, &entry.DeadLetteredAt); err != nil {
			return nil, MapError(err)
		}
		entry.Payload = payload
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
