package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eulerhq/euler-api/internal/platform/metrics"
)

// claimPollInterval is how often a blocked Claim re-checks for tasks whose
// visibility delay or claim deadline has elapsed. Those transitions happen
// by clock, not by a queue operation, so waiting on notifications alone
// would miss them.
const claimPollInterval = 10 * time.Millisecond

// memoryRecord is the mutable queue entry for one task.
type memoryRecord struct {
	task      Task
	visibleAt time.Time
	claim     Claim
	seq       int
}

// MemoryQueue is an in-process Queue implementation. It honors the full
// contract (atomic exclusive claim, visibility-deadline reclamation,
// idempotent ack) with a single mutex standing in for the store's
// row-level locking. It backs tests and single-process deployments;
// durability requires the Postgres implementation.
type MemoryQueue struct {
	mu      sync.Mutex
	records map[uuid.UUID]*memoryRecord
	notify  chan struct{}
	nextSeq int

	policy     BackoffPolicy
	visibility time.Duration
	sink       DeadLetterSink
	logger     *slog.Logger
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue creates an empty in-memory queue. visibility is the claim
// lease length; claims unresolved past it become reclaimable.
func NewMemoryQueue(policy BackoffPolicy, visibility time.Duration, sink DeadLetterSink, logger *slog.Logger) *MemoryQueue {
	if visibility <= 0 {
		visibility = 5 * time.Minute
	}
	return &MemoryQueue{
		records:    make(map[uuid.UUID]*memoryRecord),
		notify:     make(chan struct{}),
		policy:     policy,
		visibility: visibility,
		sink:       sink,
		logger:     logger.With("component", "memory_queue"),
	}
}

// Enqueue appends a new pending task and returns its id.
func (q *MemoryQueue) Enqueue(ctx context.Context, taskType string, payload json.RawMessage) (uuid.UUID, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now().UTC()
	id := uuid.New()
	q.records[id] = &memoryRecord{
		task: Task{
			ID:         id,
			Type:       taskType,
			Payload:    payload,
			Attempt:    0,
			Status:     TaskStatusPending,
			EnqueuedAt: now,
		},
		visibleAt: now,
		seq:       q.nextSeq,
	}
	q.nextSeq++

	q.broadcastLocked()
	metrics.TasksEnqueued.WithLabelValues(taskType).Inc()

	q.logger.Debug("task enqueued", "task_id", id, "task_type", taskType)
	return id, nil
}

// Claim selects up to maxCount ready tasks, oldest-enqueued first, marking
// them in-flight. It blocks up to blockTimeout when nothing is ready and
// returns an empty batch on timeout. Cancelling ctx interrupts the wait.
func (q *MemoryQueue) Claim(ctx context.Context, consumerID string, maxCount int, blockTimeout time.Duration) ([]ClaimedTask, error) {
	if maxCount <= 0 {
		maxCount = 1
	}

	deadline := time.Now().Add(blockTimeout)
	for {
		claimed, wait := q.tryClaim(consumerID, maxCount)
		if len(claimed) > 0 {
			return claimed, nil
		}
		if time.Now().After(deadline) {
			return nil, nil
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
		case <-wait:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// tryClaim performs one non-blocking claim pass. It returns the claimed
// batch and the channel to wait on when the batch is empty.
func (q *MemoryQueue) tryClaim(consumerID string, maxCount int) ([]ClaimedTask, <-chan struct{}) {
	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now().UTC()

	var ready []*memoryRecord
	for _, rec := range q.records {
		switch rec.task.Status {
		case TaskStatusPending:
			if !rec.visibleAt.After(now) {
				ready = append(ready, rec)
			}
		case TaskStatusInFlight:
			// Stale claim: the previous worker never resolved it.
			if rec.claim.VisibilityDeadline.Before(now) {
				ready = append(ready, rec)
			}
		}
	}
	sort.Slice(ready, func(i, j int) bool { return ready[i].seq < ready[j].seq })
	if len(ready) > maxCount {
		ready = ready[:maxCount]
	}

	claimed := make([]ClaimedTask, 0, len(ready))
	for _, rec := range ready {
		if rec.task.Status == TaskStatusInFlight {
			metrics.TasksReclaimed.Inc()
			q.logger.Info("reclaimed stale claim",
				"task_id", rec.task.ID,
				"previous_worker", rec.claim.WorkerID)
		}
		rec.task.Status = TaskStatusInFlight
		rec.claim = Claim{
			WorkerID:           consumerID,
			ClaimedAt:          now,
			VisibilityDeadline: now.Add(q.visibility),
		}
		claimed = append(claimed, ClaimedTask{Task: rec.task, Claim: rec.claim})
		metrics.TasksClaimed.WithLabelValues(rec.task.Type).Inc()
	}

	return claimed, q.notify
}

// Ack marks the task completed. Unknown or already-resolved tasks are a
// no-op.
func (q *MemoryQueue) Ack(ctx context.Context, taskID uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	rec, ok := q.records[taskID]
	if !ok || rec.task.Status != TaskStatusInFlight {
		return nil
	}

	rec.task.Status = TaskStatusCompleted
	rec.claim = Claim{}
	metrics.TasksCompleted.WithLabelValues(rec.task.Type).Inc()

	q.logger.Debug("task acked", "task_id", taskID)
	return nil
}

// Nack negatively resolves an in-flight task, either rescheduling it with a
// backoff delay or routing it to the dead letter sink.
func (q *MemoryQueue) Nack(ctx context.Context, taskID uuid.UUID, reason string, retryable bool) error {
	q.mu.Lock()
	rec, ok := q.records[taskID]
	if !ok || rec.task.Status != TaskStatusInFlight {
		q.mu.Unlock()
		return nil
	}

	rec.task.LastError = reason

	if retryable {
		rec.task.Attempt++
		if rec.task.Attempt < q.policy.MaxAttempts {
			rec.task.Status = TaskStatusPending
			rec.visibleAt = time.Now().UTC().Add(q.policy.Delay(rec.task.Attempt))
			rec.claim = Claim{}
			metrics.TasksRetried.WithLabelValues(rec.task.Type).Inc()
			q.logger.Info("task scheduled for retry",
				"task_id", taskID,
				"attempt", rec.task.Attempt,
				"reason", reason)
			q.mu.Unlock()
			return nil
		}
	}

	rec.task.Status = TaskStatusDeadLettered
	rec.claim = Claim{}
	entry := DeadLetterEntry{
		TaskID:         rec.task.ID,
		Type:           rec.task.Type,
		Payload:        rec.task.Payload,
		Attempts:       rec.task.Attempt,
		FailureReason:  reason,
		DeadLetteredAt: time.Now().UTC(),
	}
	metrics.TasksDeadLettered.WithLabelValues(rec.task.Type).Inc()
	q.mu.Unlock()

	q.logger.Warn("task dead-lettered",
		"task_id", taskID,
		"attempts", entry.Attempts,
		"reason", reason)

	if err := q.sink.Record(ctx, entry); err != nil {
		// The task stays dead-lettered either way; losing the entry is
		// an operational problem, so it must be visible in the logs.
		q.logger.Error("failed to record dead letter entry",
			"task_id", taskID, "error", err)
		return err
	}
	return nil
}

// Get returns the current record for a task.
func (q *MemoryQueue) Get(ctx context.Context, taskID uuid.UUID) (*Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	rec, ok := q.records[taskID]
	if !ok {
		return nil, ErrTaskNotFound
	}
	t := rec.task
	return &t, nil
}

// broadcastLocked wakes all blocked Claim calls. Callers must hold q.mu.
func (q *MemoryQueue) broadcastLocked() {
	close(q.notify)
	q.notify = make(chan struct{})
}

// MemoryDeadLetterSink collects dead letter entries in memory.
type MemoryDeadLetterSink struct {
	mu      sync.Mutex
	entries []DeadLetterEntry
}

var _ DeadLetterSink = (*MemoryDeadLetterSink)(nil)

// NewMemoryDeadLetterSink creates an empty in-memory sink.
func NewMemoryDeadLetterSink() *MemoryDeadLetterSink {
	return &MemoryDeadLetterSink{}
}

// Record appends an entry to the sink.
func (s *MemoryDeadLetterSink) Record(ctx context.Context, entry DeadLetterEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

// Entries returns a copy of everything recorded so far.
func (s *MemoryDeadLetterSink) Entries() []DeadLetterEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DeadLetterEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
