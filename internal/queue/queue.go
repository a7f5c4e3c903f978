package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

// Possible task status values. Completed and DeadLettered are terminal:
// a task never transitions out of them and is never claimed again.
const (
	TaskStatusPending      TaskStatus = "pending"
	TaskStatusInFlight     TaskStatus = "in-flight"
	TaskStatusCompleted    TaskStatus = "completed"
	TaskStatusDeadLettered TaskStatus = "dead-lettered"
)

// Task is a unit of background work: an immutable payload plus mutable
// delivery state.
type Task struct {
	// ID is assigned at enqueue time and never reused.
	ID uuid.UUID

	// Type selects the handler that processes this task.
	Type string

	// Payload is an opaque blob owned by the enqueuer.
	Payload json.RawMessage

	// Attempt counts completed nack-retry cycles. It starts at 0 and is
	// monotonically non-decreasing.
	Attempt int

	Status     TaskStatus
	EnqueuedAt time.Time

	// LastError holds the reason from the most recent nack, if any.
	LastError string
}

// Claim is the ephemeral ownership record correlating a task with a worker.
// It exists only while the task is in-flight.
type Claim struct {
	WorkerID           string
	ClaimedAt          time.Time
	VisibilityDeadline time.Time
}

// ClaimedTask pairs a task with the claim a worker holds on it.
type ClaimedTask struct {
	Task
	Claim Claim
}

// DeadLetterEntry is the terminal quarantine record for a task that cannot
// or should not be retried further. Entries are written once and never
// mutated; inspection and replay are external operational concerns.
type DeadLetterEntry struct {
	TaskID         uuid.UUID
	Type           string
	Payload        json.RawMessage
	Attempts       int
	FailureReason  string
	DeadLetteredAt time.Time
}

// Queue is the durable task queue contract. Implementations must make Claim
// atomic under many concurrent claimers: at any instant a task has at most
// one live claim. Delivery is at-least-once, so handlers must be idempotent.
type Queue interface {
	// Enqueue appends a new pending task and returns its id. It fails with
	// ErrQueueUnavailable when the backing store is unreachable.
	Enqueue(ctx context.Context, taskType string, payload json.RawMessage) (uuid.UUID, error)

	// Claim atomically selects up to maxCount tasks that are ready: pending
	// tasks whose visibility delay has elapsed, oldest-enqueued first, plus
	// in-flight tasks whose previous claim's visibility deadline has passed
	// without an ack or nack (stale-claim reclamation). Selected tasks are
	// marked in-flight with a fresh claim owned by consumerID. When nothing
	// is ready, Claim blocks up to blockTimeout and then returns an empty
	// batch, not an error. Cancelling ctx interrupts the wait.
	Claim(ctx context.Context, consumerID string, maxCount int, blockTimeout time.Duration) ([]ClaimedTask, error)

	// Ack marks the task completed. Acking an unknown or already-completed
	// task is a no-op, never an error: redelivery can cause duplicate acks.
	Ack(ctx context.Context, taskID uuid.UUID) error

	// Nack negatively resolves an in-flight task. A retryable nack
	// increments the attempt counter and, while attempts remain, returns
	// the task to pending with a visibility delay from the backoff policy.
	// A fatal nack, or a retryable nack that exhausts max attempts, routes
	// the task to the dead letter sink.
	Nack(ctx context.Context, taskID uuid.UUID, reason string, retryable bool) error

	// Get returns the current queue record for a task.
	Get(ctx context.Context, taskID uuid.UUID) (*Task, error)
}

// DeadLetterSink is the append-only store for dead-lettered tasks. The core
// only ever records entries; nothing in-process consumes them.
type DeadLetterSink interface {
	Record(ctx context.Context, entry DeadLetterEntry) error
}
