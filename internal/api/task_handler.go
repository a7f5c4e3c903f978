package api

import (
	"context"
	"net/http"
	"time"

	"github.com/eulerhq/euler-api/internal/api/shared"
	"github.com/eulerhq/euler-api/internal/queue"
)

// TaskResponse represents the queue state of a background task
type TaskResponse struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Status     string    `json:"status"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
	LastError  string    `json:"last_error,omitempty"`
}

// DeadLetterResponse represents one dead-letter entry
type DeadLetterResponse struct {
	TaskID         string    `json:"task_id"`
	Type           string    `json:"type"`
	Attempts       int       `json:"attempts"`
	FailureReason  string    `json:"failure_reason"`
	DeadLetteredAt time.Time `json:"dead_lettered_at"`
}

// DeadLetterLister lists recorded dead-letter entries for inspection.
type DeadLetterLister interface {
	List(ctx context.Context, limit, offset int) ([]queue.DeadLetterEntry, error)
}

// TaskHandler exposes read-only task inspection endpoints
type TaskHandler struct {
	queue       queue.Queue
	deadLetters DeadLetterLister
}

// NewTaskHandler creates a new TaskHandler. deadLetters may be nil when the
// backing sink does not support listing.
func NewTaskHandler(q queue.Queue, deadLetters DeadLetterLister) *TaskHandler {
	return &TaskHandler{
		queue:       q,
		deadLetters: deadLetters,
	}
}

// GetTask handles GET /api/tasks/{id} requests
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	task, err := h.queue.Get(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TaskResponse{
		ID:         task.ID.String(),
		Type:       task.Type,
		Status:     string(task.Status),
		Attempt:    task.Attempt,
		EnqueuedAt: task.EnqueuedAt,
		LastError:  task.LastError,
	})
}

// ListDeadLetters handles GET /api/dead-letters requests
func (h *TaskHandler) ListDeadLetters(w http.ResponseWriter, r *http.Request) {
	if h.deadLetters == nil {
		shared.RespondWithError(w, r, http.StatusNotFound, "Dead letter listing not available")
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	entries, err := h.deadLetters.List(r.Context(), limit, offset)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	responses := make([]DeadLetterResponse, len(entries))
	for i, entry := range entries {
		responses[i] = DeadLetterResponse{
			TaskID:         entry.TaskID.String(),
			Type:           entry.Type,
			Attempts:       entry.Attempts,
			FailureReason:  entry.FailureReason,
			DeadLetteredAt: entry.DeadLetteredAt,
		}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}
