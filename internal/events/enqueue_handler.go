package events

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/eulerhq/euler-api/internal/queue"
)

// EnqueueHandler bridges task request events to the durable queue. It is
// the default subscriber wired up at startup: any service emitting a
// TaskRequestEvent gets its work persisted for background processing.
type EnqueueHandler struct {
	queue  queue.Queue
	logger *slog.Logger
}

// NewEnqueueHandler creates an EnqueueHandler that enqueues into q.
func NewEnqueueHandler(q queue.Queue, logger *slog.Logger) *EnqueueHandler {
	if q == nil {
		panic("queue cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &EnqueueHandler{
		queue:  q,
		logger: logger.With(slog.String("component", "enqueue_handler")),
	}
}

var _ EventHandler = (*EnqueueHandler)(nil)

// HandleEvent enqueues a task for the event's type and payload.
func (h *EnqueueHandler) HandleEvent(ctx context.Context, event *TaskRequestEvent) error {
	taskID, err := h.queue.Enqueue(ctx, event.Type, event.Payload)
	if err != nil {
		return fmt.Errorf("failed to enqueue task for event %s: %w", event.ID, err)
	}

	h.logger.Debug("event enqueued as task",
		"event_id", event.ID,
		"task_id", taskID,
		"task_type", event.Type)
	return nil
}
