package worker

import (
	"context"
	"encoding/json"
)

// OutcomeKind classifies the result of a handler invocation.
type OutcomeKind int

const (
	// OutcomeSuccess acknowledges the task.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeRetry nacks the task as retryable; it will be redelivered
	// after a backoff delay until attempts are exhausted.
	OutcomeRetry

	// OutcomeFatal nacks the task as non-retryable; it goes straight to
	// the dead letter sink.
	OutcomeFatal
)

// Outcome is the single result a handler reports for a task.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

// Success reports a completed task.
func Success() Outcome {
	return Outcome{Kind: OutcomeSuccess}
}

// Retry reports a transient failure worth retrying.
func Retry(reason string) Outcome {
	return Outcome{Kind: OutcomeRetry, Reason: reason}
}

// Fatal reports a failure that retrying cannot fix, such as a validation
// error or a missing record.
func Fatal(reason string) Outcome {
	return Outcome{Kind: OutcomeFatal, Reason: reason}
}

// Handler processes one task type. Process receives the enqueuer's opaque
// payload and must be idempotent: at-least-once delivery means the same
// payload can arrive more than once. Blocking I/O inside Process should
// honor ctx, which carries the processing budget and is cancelled when the
// shutdown grace period expires.
type Handler interface {
	Process(ctx context.Context, payload json.RawMessage) Outcome
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload json.RawMessage) Outcome

// Process calls f.
func (f HandlerFunc) Process(ctx context.Context, payload json.RawMessage) Outcome {
	return f(ctx, payload)
}
