package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/eulerhq/euler-api/internal/platform/logger"
	"github.com/eulerhq/euler-api/internal/platform/metrics"
	"github.com/eulerhq/euler-api/internal/queue"
)

// resolveRetries bounds connection-level retries of ack/nack against a
// flapping backing store before the claim is abandoned to the visibility
// sweep.
const (
	resolveRetries    = 3
	resolveRetryDelay = 250 * time.Millisecond
)

// worker is one loop instance: claim a batch, dispatch each task through
// the registry, resolve the outcome, repeat. Workers share nothing with
// each other; all coordination goes through the queue's atomic operations.
type worker struct {
	id             string
	queue          queue.Queue
	registry       *Registry
	batchSize      int
	blockTimeout   time.Duration
	handlerTimeout time.Duration
	logger         *slog.Logger
}

// run loops until claimCtx is cancelled. Tasks already claimed when the
// stop signal arrives are still dispatched and resolved under procCtx,
// which outlives claimCtx by the shutdown grace period.
func (w *worker) run(claimCtx, procCtx context.Context) {
	w.logger.Debug("worker started")

	for {
		select {
		case <-claimCtx.Done():
			w.logger.Debug("worker stopped claiming")
			return
		default:
		}

		batch, err := w.queue.Claim(claimCtx, w.id, w.batchSize, w.blockTimeout)
		if err != nil {
			if claimCtx.Err() != nil {
				w.logger.Debug("worker stopped claiming")
				return
			}
			// Backing store trouble. Log it, wait, and try again; the
			// store also gets claim retries via the loop itself.
			w.logger.Error("claim failed", "error", err)
			select {
			case <-claimCtx.Done():
				return
			case <-time.After(resolveRetryDelay):
			}
			continue
		}

		for _, task := range batch {
			w.dispatch(procCtx, task)
		}
	}
}

// dispatch runs one claimed task through its handler and maps the outcome
// to an ack or nack.
func (w *worker) dispatch(ctx context.Context, claimed queue.ClaimedTask) {
	taskLogger := w.logger.With(
		"task_id", claimed.ID,
		"task_type", claimed.Type,
		"attempt", claimed.Attempt,
	)
	ctx = logger.WithLogger(ctx, taskLogger)

	handler, ok := w.registry.Lookup(claimed.Type)
	if !ok {
		// No retry can ever succeed for a type nobody handles.
		taskLogger.Error("no handler registered for task type")
		w.nack(ctx, claimed, fmt.Sprintf("unknown task type %q", claimed.Type), false)
		return
	}

	taskLogger.Info("processing task")
	start := time.Now()
	outcome := w.invoke(ctx, handler, claimed)
	metrics.HandlerDuration.WithLabelValues(claimed.Type, outcomeLabel(outcome)).
		Observe(time.Since(start).Seconds())

	switch outcome.Kind {
	case OutcomeSuccess:
		taskLogger.Info("task completed")
		if err := w.withResolveRetry(ctx, func(ctx context.Context) error {
			return w.queue.Ack(ctx, claimed.ID)
		}); err != nil {
			taskLogger.Error("failed to ack task, claim will be swept", "error", err)
		}
	case OutcomeRetry:
		taskLogger.Warn("task failed, will retry", "reason", outcome.Reason)
		w.nack(ctx, claimed, outcome.Reason, true)
	case OutcomeFatal:
		taskLogger.Error("task failed permanently", "reason", outcome.Reason)
		w.nack(ctx, claimed, outcome.Reason, false)
	}
}

// invoke calls the handler under the processing budget, turning panics into
// retryable outcomes. A handler fault must never take down the worker loop.
func (w *worker) invoke(ctx context.Context, handler Handler, claimed queue.ClaimedTask) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error("handler panicked",
				"panic", r,
				"stack", string(debug.Stack()))
			outcome = Retry("handler fault")
		}
	}()

	if w.handlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.handlerTimeout)
		defer cancel()
	}

	return handler.Process(ctx, claimed.Payload)
}

// nack resolves a task negatively, retrying transient store errors.
func (w *worker) nack(ctx context.Context, claimed queue.ClaimedTask, reason string, retryable bool) {
	if err := w.withResolveRetry(ctx, func(ctx context.Context) error {
		return w.queue.Nack(ctx, claimed.ID, reason, retryable)
	}); err != nil {
		logger.FromContext(ctx).Error("failed to nack task, claim will be swept",
			"error", err)
	}
}

// withResolveRetry retries fn against connection-level failures. Resolution
// errors are never silently dropped: the caller logs the final failure and
// the visibility sweep guarantees eventual redelivery.
func (w *worker) withResolveRetry(ctx context.Context, fn func(context.Context) error) error {
	var err error
	for i := 0; i < resolveRetries; i++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return err
		case <-time.After(resolveRetryDelay):
		}
	}
	return err
}

func outcomeLabel(o Outcome) string {
	switch o.Kind {
	case OutcomeSuccess:
		return "success"
	case OutcomeRetry:
		return "retry"
	default:
		return "fatal"
	}
}
