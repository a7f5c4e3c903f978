package queue

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// fastPolicy removes delays so retried tasks are immediately claimable.
func fastPolicy(maxAttempts int) BackoffPolicy {
	return BackoffPolicy{Base: 0, Cap: 0, Jitter: 0, MaxAttempts: maxAttempts}
}

func newTestQueue(t *testing.T, maxAttempts int, visibility time.Duration) (*MemoryQueue, *MemoryDeadLetterSink) {
	t.Helper()
	sink := NewMemoryDeadLetterSink()
	q := NewMemoryQueue(fastPolicy(maxAttempts), visibility, sink, testLogger())
	return q, sink
}

func TestMemoryQueue_EnqueueClaimAck(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q, _ := newTestQueue(t, 3, time.Minute)

	id, err := q.Enqueue(ctx, "echo", json.RawMessage(`{"n":1}`))
	require.NoError(t, err)

	claimed, err := q.Claim(ctx, "worker-1", 10, time.Second)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, id, claimed[0].ID)
	assert.Equal(t, "echo", claimed[0].Type)
	assert.Equal(t, 0, claimed[0].Attempt)
	assert.Equal(t, TaskStatusInFlight, claimed[0].Status)
	assert.Equal(t, "worker-1", claimed[0].Claim.WorkerID)

	require.NoError(t, q.Ack(ctx, id))

	task, err := q.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCompleted, task.Status)
}

func TestMemoryQueue_ClaimOrderIsOldestFirst(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q, _ := newTestQueue(t, 3, time.Minute)

	first, err := q.Enqueue(ctx, "echo", nil)
	require.NoError(t, err)
	second, err := q.Enqueue(ctx, "echo", nil)
	require.NoError(t, err)

	claimed, err := q.Claim(ctx, "worker-1", 2, time.Second)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	assert.Equal(t, first, claimed[0].ID)
	assert.Equal(t, second, claimed[1].ID)
}

func TestMemoryQueue_ClaimRespectsMaxCount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q, _ := newTestQueue(t, 3, time.Minute)

	for i := 0; i < 5; i++ {
		_, err := q.Enqueue(ctx, "echo", nil)
		require.NoError(t, err)
	}

	claimed, err := q.Claim(ctx, "worker-1", 3, time.Second)
	require.NoError(t, err)
	assert.Len(t, claimed, 3)
}

// No two concurrent claim calls may return the same task.
func TestMemoryQueue_ConcurrentClaimersExclusive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q, _ := newTestQueue(t, 3, time.Minute)

	id, err := q.Enqueue(ctx, "echo", nil)
	require.NoError(t, err)

	const claimers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			claimed, err := q.Claim(ctx, uuid.NewString(), 1, 50*time.Millisecond)
			assert.NoError(t, err)
			if len(claimed) == 1 && claimed[0].ID == id {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, wins, "exactly one claimer must win the task")
}

func TestMemoryQueue_ClaimBlocksUntilEnqueue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q, _ := newTestQueue(t, 3, time.Minute)

	done := make(chan []ClaimedTask, 1)
	go func() {
		claimed, err := q.Claim(ctx, "worker-1", 1, 2*time.Second)
		assert.NoError(t, err)
		done <- claimed
	}()

	time.Sleep(20 * time.Millisecond)
	id, err := q.Enqueue(ctx, "echo", nil)
	require.NoError(t, err)

	select {
	case claimed := <-done:
		require.Len(t, claimed, 1)
		assert.Equal(t, id, claimed[0].ID)
	case <-time.After(time.Second):
		t.Fatal("claim did not wake up after enqueue")
	}
}

func TestMemoryQueue_ClaimTimeoutReturnsEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q, _ := newTestQueue(t, 3, time.Minute)

	start := time.Now()
	claimed, err := q.Claim(ctx, "worker-1", 1, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, claimed)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestMemoryQueue_ClaimInterruptedByCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	q, _ := newTestQueue(t, 3, time.Minute)

	done := make(chan error, 1)
	go func() {
		_, err := q.Claim(ctx, "worker-1", 1, 10*time.Second)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("claim did not return promptly after cancellation")
	}
}

func TestMemoryQueue_AckIsIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q, _ := newTestQueue(t, 3, time.Minute)

	id, err := q.Enqueue(ctx, "echo", nil)
	require.NoError(t, err)
	_, err = q.Claim(ctx, "worker-1", 1, time.Second)
	require.NoError(t, err)

	require.NoError(t, q.Ack(ctx, id))
	require.NoError(t, q.Ack(ctx, id), "double ack must be a no-op")
	require.NoError(t, q.Ack(ctx, uuid.New()), "unknown id must be a no-op")

	task, err := q.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusCompleted, task.Status)
}

func TestMemoryQueue_RetryableNackIncrementsAttempt(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q, _ := newTestQueue(t, 3, time.Minute)

	id, err := q.Enqueue(ctx, "flaky", nil)
	require.NoError(t, err)

	claimed, err := q.Claim(ctx, "worker-1", 1, time.Second)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, q.Nack(ctx, id, "transient failure", true))

	task, err := q.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusPending, task.Status)
	assert.Equal(t, 1, task.Attempt)
	assert.Equal(t, "transient failure", task.LastError)
}

func TestMemoryQueue_RetryableNacksExhaustToDeadLetter(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	const maxAttempts = 3
	q, sink := newTestQueue(t, maxAttempts, time.Minute)

	id, err := q.Enqueue(ctx, "always-fails", json.RawMessage(`{"x":1}`))
	require.NoError(t, err)

	for i := 0; i < maxAttempts; i++ {
		claimed, err := q.Claim(ctx, "worker-1", 1, time.Second)
		require.NoError(t, err)
		require.Len(t, claimed, 1, "cycle %d", i)
		assert.Equal(t, i, claimed[0].Attempt)
		require.NoError(t, q.Nack(ctx, id, "still failing", true))
	}

	task, err := q.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusDeadLettered, task.Status)

	entries := sink.Entries()
	require.Len(t, entries, 1, "dead-lettered exactly once")
	assert.Equal(t, id, entries[0].TaskID)
	assert.Equal(t, maxAttempts, entries[0].Attempts)
	assert.Equal(t, "still failing", entries[0].FailureReason)

	// Terminal: nothing left to claim.
	claimed, err := q.Claim(ctx, "worker-1", 1, 50*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, claimed)
}

func TestMemoryQueue_FatalNackDeadLettersImmediately(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q, sink := newTestQueue(t, 3, time.Minute)

	id, err := q.Enqueue(ctx, "bad-input", nil)
	require.NoError(t, err)
	_, err = q.Claim(ctx, "worker-1", 1, time.Second)
	require.NoError(t, err)

	require.NoError(t, q.Nack(ctx, id, "validation failure", false))

	task, err := q.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, TaskStatusDeadLettered, task.Status)

	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, 0, entries[0].Attempts, "fatal nack preserves the attempt count")
}

func TestMemoryQueue_NackUnknownTaskIsNoOp(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q, sink := newTestQueue(t, 3, time.Minute)

	require.NoError(t, q.Nack(ctx, uuid.New(), "whatever", true))
	assert.Empty(t, sink.Entries())
}

func TestMemoryQueue_StaleClaimReclaimed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	// Very short visibility so the first claim goes stale quickly.
	q, _ := newTestQueue(t, 3, 30*time.Millisecond)

	id, err := q.Enqueue(ctx, "echo", nil)
	require.NoError(t, err)

	claimed, err := q.Claim(ctx, "crashed-worker", 1, time.Second)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	// The crashed worker never acks or nacks. After the visibility
	// deadline, a fresh claim from another consumer redelivers the task.
	time.Sleep(50 * time.Millisecond)

	reclaimed, err := q.Claim(ctx, "recovery-worker", 1, time.Second)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, id, reclaimed[0].ID)
	assert.Equal(t, "recovery-worker", reclaimed[0].Claim.WorkerID)
	// The sweep itself does not touch the attempt counter.
	assert.Equal(t, 0, reclaimed[0].Attempt)
}

func TestMemoryQueue_RetryDelayKeepsTaskInvisible(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	sink := NewMemoryDeadLetterSink()
	policy := BackoffPolicy{Base: 80 * time.Millisecond, Cap: time.Second, MaxAttempts: 3}
	q := NewMemoryQueue(policy, time.Minute, sink, testLogger())

	id, err := q.Enqueue(ctx, "flaky", nil)
	require.NoError(t, err)
	_, err = q.Claim(ctx, "worker-1", 1, time.Second)
	require.NoError(t, err)
	require.NoError(t, q.Nack(ctx, id, "try later", true))

	// Within the backoff window the task must not be claimable.
	claimed, err := q.Claim(ctx, "worker-1", 1, 20*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, claimed)

	// After the delay it becomes visible again.
	claimed, err = q.Claim(ctx, "worker-1", 1, time.Second)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, id, claimed[0].ID)
}

func TestMemoryQueue_GetUnknownTask(t *testing.T) {
	t.Parallel()
	q, _ := newTestQueue(t, 3, time.Minute)

	_, err := q.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
