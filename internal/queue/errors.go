package queue

import "errors"

// Common errors returned by queue implementations.
var (
	// ErrQueueUnavailable is returned when the backing store cannot be
	// reached. It is surfaced to the enqueuing caller rather than retried
	// silently inside the queue.
	ErrQueueUnavailable = errors.New("task queue backing store unavailable")

	// ErrTaskNotFound is returned by Get for an unknown task id. Ack and
	// Nack never return it; resolving an unknown task is a no-op because
	// redelivery can race with completion.
	ErrTaskNotFound = errors.New("task not found")
)
