package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eulerhq/euler-api/internal/queue"
)

// mockQueue records Enqueue calls for testing the bridge handler.
type mockQueue struct {
	enqueuedType    string
	enqueuedPayload json.RawMessage
	enqueueErr      error
	enqueueCalls    int
}

func (m *mockQueue) Enqueue(ctx context.Context, taskType string, payload json.RawMessage) (uuid.UUID, error) {
	m.enqueueCalls++
	m.enqueuedType = taskType
	m.enqueuedPayload = payload
	if m.enqueueErr != nil {
		return uuid.Nil, m.enqueueErr
	}
	return uuid.New(), nil
}

func (m *mockQueue) Claim(ctx context.Context, consumerID string, maxCount int, blockTimeout time.Duration) ([]queue.ClaimedTask, error) {
	return nil, nil
}

func (m *mockQueue) Ack(ctx context.Context, taskID uuid.UUID) error { return nil }

func (m *mockQueue) Nack(ctx context.Context, taskID uuid.UUID, reason string, retryable bool) error {
	return nil
}

func (m *mockQueue) Get(ctx context.Context, taskID uuid.UUID) (*queue.Task, error) {
	return nil, queue.ErrTaskNotFound
}

func TestEnqueueHandler_EnqueuesEventAsTask(t *testing.T) {
	q := &mockQueue{}
	handler := NewEnqueueHandler(q, testLogger())

	event, err := NewTaskRequestEvent("document:process", map[string]string{"document_id": "abc"})
	require.NoError(t, err)

	require.NoError(t, handler.HandleEvent(context.Background(), event))

	assert.Equal(t, 1, q.enqueueCalls)
	assert.Equal(t, "document:process", q.enqueuedType)
	assert.JSONEq(t, string(event.Payload), string(q.enqueuedPayload))
}

func TestEnqueueHandler_PropagatesQueueError(t *testing.T) {
	q := &mockQueue{enqueueErr: queue.ErrQueueUnavailable}
	handler := NewEnqueueHandler(q, testLogger())

	event, err := NewTaskRequestEvent("solve:question", map[string]string{"question": "q"})
	require.NoError(t, err)

	err = handler.HandleEvent(context.Background(), event)
	assert.True(t, errors.Is(err, queue.ErrQueueUnavailable))
}
