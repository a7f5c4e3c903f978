package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eulerhq/euler-api/internal/platform/logger"
	"github.com/eulerhq/euler-api/internal/platform/metrics"
	"github.com/eulerhq/euler-api/internal/queue"
	"github.com/eulerhq/euler-api/internal/store"
)

// claimPollInterval is how often a blocked Claim re-polls the table.
// Postgres offers no blocking read over SKIP LOCKED selections, so the
// block_timeout contract is met by bounded polling.
const claimPollInterval = 200 * time.Millisecond

// toInterval converts a Go duration to a Postgres interval literal like
// "12.500000s".
func toInterval(d time.Duration) string {
	return fmt.Sprintf("%fs", d.Seconds())
}

// SQL templates. The claim statement is the correctness-critical piece:
// pick -> update -> return in one statement, with FOR UPDATE SKIP LOCKED
// guaranteeing that concurrent claimers never select the same row. A row is
// claimable when it is pending with its visibility delay elapsed, or
// in-flight with an expired claim (crash recovery without heartbeats).
const (
	sqlEnqueueTask = `
INSERT INTO tasks (id, type, payload, status, attempt, enqueued_at, visible_at)
VALUES ($1, $2, $3, 'pending', 0, now(), now());`

	sqlClaimTasks = `
WITH picked AS (
  SELECT id, status
  FROM tasks
  WHERE (status = 'pending' AND visible_at <= now())
     OR (status = 'in-flight' AND visibility_deadline < now())
  ORDER BY enqueued_at
  FOR UPDATE SKIP LOCKED
  LIMIT $1
),
claimed AS (
  UPDATE tasks t
  SET status = 'in-flight',
      claimed_by = $2,
      claimed_at = now(),
      visibility_deadline = now() + $3::interval
  FROM picked
  WHERE t.id = picked.id
  RETURNING t.id, t.type, t.payload, t.attempt, t.enqueued_at, t.last_error,
            t.claimed_by, t.claimed_at, t.visibility_deadline,
            picked.status AS previous_status
)
SELECT * FROM claimed;`

	sqlAckTask = `
UPDATE tasks
SET status = 'completed', claimed_by = NULL, claimed_at = NULL, visibility_deadline = NULL
WHERE id = $1 AND status = 'in-flight'
RETURNING type;`

	sqlSelectForNack = `
SELECT type, payload, attempt
FROM tasks
WHERE id = $1 AND status = 'in-flight'
FOR UPDATE;`

	sqlNackRetry = `
UPDATE tasks
SET status = 'pending', attempt = $2, last_error = $3,
    visible_at = now() + $4::interval,
    claimed_by = NULL, claimed_at = NULL, visibility_deadline = NULL
WHERE id = $1;`

	sqlNackDead = `
UPDATE tasks
SET status = 'dead-lettered', attempt = $2, last_error = $3,
    claimed_by = NULL, claimed_at = NULL, visibility_deadline = NULL
WHERE id = $1;`

	sqlGetTask = `
SELECT id, type, payload, status, attempt, enqueued_at, last_error
FROM tasks
WHERE id = $1;`
)

// TaskQueue implements queue.Queue on PostgreSQL. Exclusive claims rely on
// row locks, so many processes can share the table as one consumer group.
type TaskQueue struct {
	db         *sql.DB
	policy     queue.BackoffPolicy
	visibility time.Duration
	sink       *DeadLetterSink
}

var _ queue.Queue = (*TaskQueue)(nil)

// NewTaskQueue creates a TaskQueue. visibility is the claim lease length;
// dead-lettered tasks are recorded through sink in the same transaction
// that retires them.
func NewTaskQueue(db *sql.DB, policy queue.BackoffPolicy, visibility time.Duration, sink *DeadLetterSink) *TaskQueue {
	if visibility <= 0 {
		visibility = 5 * time.Minute
	}
	return &TaskQueue{
		db:         db,
		policy:     policy,
		visibility: visibility,
		sink:       sink,
	}
}

// Enqueue appends a new pending task. A store failure surfaces as
// queue.ErrQueueUnavailable for the caller to handle.
func (q *TaskQueue) Enqueue(ctx context.Context, taskType string, payload json.RawMessage) (uuid.UUID, error) {
	log := logger.FromContext(ctx)

	id := uuid.New()
	if payload == nil {
		payload = json.RawMessage("null")
	}
	if _, err := q.db.ExecContext(ctx, sqlEnqueueTask, id, taskType, []byte(payload)); err != nil {
		log.Error("failed to enqueue task",
			"task_type", taskType,
			"error", err)
		return uuid.Nil, fmt.Errorf("%w: %v", queue.ErrQueueUnavailable, err)
	}

	metrics.TasksEnqueued.WithLabelValues(taskType).Inc()
	log.Debug("task enqueued", "task_id", id, "task_type", taskType)
	return id, nil
}

// Claim atomically claims up to maxCount ready tasks for consumerID,
// polling up to blockTimeout when the table has nothing ready.
func (q *TaskQueue) Claim(ctx context.Context, consumerID string, maxCount int, blockTimeout time.Duration) ([]queue.ClaimedTask, error) {
	if maxCount <= 0 {
		maxCount = 1
	}

	deadline := time.Now().Add(blockTimeout)
	for {
		claimed, err := q.claimOnce(ctx, consumerID, maxCount)
		if err != nil {
			return nil, err
		}
		if len(claimed) > 0 || time.Now().After(deadline) {
			return claimed, nil
		}

		poll := claimPollInterval
		if remaining := time.Until(deadline); remaining < poll {
			poll = remaining
		}
		timer := time.NewTimer(poll)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (q *TaskQueue) claimOnce(ctx context.Context, consumerID string, maxCount int) ([]queue.ClaimedTask, error) {
	rows, err := q.db.QueryContext(ctx, sqlClaimTasks,
		maxCount, consumerID, toInterval(q.visibility))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", queue.ErrQueueUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	var out []queue.ClaimedTask
	for rows.Next() {
		var (
			ct             queue.ClaimedTask
			payload        []byte
			lastError      sql.NullString
			claimedBy      string
			claimedAt      time.Time
			visDeadline    time.Time
			previousStatus string
		)
		if err := rows.Scan(
			&ct.ID, &ct.Type, &payload, &ct.Attempt, &ct.EnqueuedAt,
			&lastError, &claimedBy, &claimedAt, &visDeadline, &previousStatus,
		); err != nil {
			return nil, MapError(err)
		}
		ct.Payload = json.RawMessage(payload)
		ct.Status = queue.TaskStatusInFlight
		ct.LastError = lastError.String
		ct.Claim = queue.Claim{
			WorkerID:           claimedBy,
			ClaimedAt:          claimedAt,
			VisibilityDeadline: visDeadline,
		}

		if previousStatus == string(queue.TaskStatusInFlight) {
			metrics.TasksReclaimed.Inc()
			logger.FromContext(ctx).Info("reclaimed stale claim",
				"task_id", ct.ID, "new_worker", consumerID)
		}
		metrics.TasksClaimed.WithLabelValues(ct.Type).Inc()
		out = append(out, ct)
	}
	return out, rows.Err()
}

// Ack marks an in-flight task completed. Unknown or already-resolved tasks
// are a no-op because redelivery can produce duplicate acks.
func (q *TaskQueue) Ack(ctx context.Context, taskID uuid.UUID) error {
	var taskType string
	err := q.db.QueryRowContext(ctx, sqlAckTask, taskID).Scan(&taskType)
	if errors.Is(err, sql.ErrNoRows) {
		// Already resolved or unknown; a duplicate ack is a no-op.
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", queue.ErrQueueUnavailable, err)
	}

	metrics.TasksCompleted.WithLabelValues(taskType).Inc()
	logger.FromContext(ctx).Debug("task acked", "task_id", taskID, "task_type", taskType)
	return nil
}

// Nack negatively resolves an in-flight task in one transaction: either
// back to pending with a backoff delay, or to dead-lettered with the entry
// recorded atomically alongside the status change.
func (q *TaskQueue) Nack(ctx context.Context, taskID uuid.UUID, reason string, retryable bool) error {
	log := logger.FromContext(ctx)

	err := store.RunInTransaction(ctx, q.db, func(ctx context.Context, tx *sql.Tx) error {
		var (
			taskType string
			payload  []byte
			attempt  int
		)
		err := tx.QueryRowContext(ctx, sqlSelectForNack, taskID).
			Scan(&taskType, &payload, &attempt)
		if errors.Is(err, sql.ErrNoRows) {
			// Already resolved or unknown; a duplicate nack is a no-op.
			return nil
		}
		if err != nil {
			return MapError(err)
		}

		if retryable {
			attempt++
			if attempt < q.policy.MaxAttempts {
				delay := q.policy.Delay(attempt)
				if _, err := tx.ExecContext(ctx, sqlNackRetry,
					taskID, attempt, reason, toInterval(delay)); err != nil {
					return MapError(err)
				}
				metrics.TasksRetried.WithLabelValues(taskType).Inc()
				log.Info("task scheduled for retry",
					"task_id", taskID,
					"attempt", attempt,
					"delay", delay,
					"reason", reason)
				return nil
			}
		}

		if _, err := tx.ExecContext(ctx, sqlNackDead, taskID, attempt, reason); err != nil {
			return MapError(err)
		}
		entry := queue.DeadLetterEntry{
			TaskID:         taskID,
			Type:           taskType,
			Payload:        json.RawMessage(payload),
			Attempts:       attempt,
			FailureReason:  reason,
			DeadLetteredAt: time.Now().UTC(),
		}
		if err := q.sink.RecordTx(ctx, tx, entry); err != nil {
			return err
		}
		metrics.TasksDeadLettered.WithLabelValues(taskType).Inc()
		log.Warn("task dead-lettered",
			"task_id", taskID,
			"attempts", attempt,
			"reason", reason)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", queue.ErrQueueUnavailable, err)
	}
	return nil
}

// Get returns the current queue record for a task.
func (q *TaskQueue) Get(ctx context.Context, taskID uuid.UUID) (*queue.Task, error) {
	var (
		task      queue.Task
		payload   []byte
		status    string
		lastError sql.NullString
	)
	err := q.db.QueryRowContext(ctx, sqlGetTask, taskID).Scan(
		&task.ID, &task.Type, &payload, &status, &task.Attempt,
		&task.EnqueuedAt, &lastError,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, queue.ErrTaskNotFound
	}
	if err != nil {
		return nil, MapError(err)
	}

	task.Payload = json.RawMessage(payload)
	task.Status = queue.TaskStatus(status)
	task.LastError = lastError.String
	return &task, nil
}
