package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eulerhq/euler-api/internal/domain"
	"github.com/eulerhq/euler-api/internal/events"
	"github.com/eulerhq/euler-api/internal/progress"
	"github.com/eulerhq/euler-api/internal/store"
	"github.com/eulerhq/euler-api/internal/worker"
)

// DocumentProcessHandler processes documents in the background: it chunks
// the document content, stores the chunks, reports progress, and requests
// embedding of the result. The handler is idempotent; a redelivered task
// replaces the previous chunk set wholesale.
type DocumentProcessHandler struct {
	docStore store.DocumentStore
	emitter  events.EventEmitter
	tracker  *progress.Broker
	logger   *slog.Logger
}

// NewDocumentProcessHandler creates the handler for document:process tasks.
func NewDocumentProcessHandler(
	docStore store.DocumentStore,
	emitter events.EventEmitter,
	tracker *progress.Broker,
	logger *slog.Logger,
) *DocumentProcessHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentProcessHandler{
		docStore: docStore,
		emitter:  emitter,
		tracker:  tracker,
		logger:   logger.With(slog.String("component", "document_process_handler")),
	}
}

var _ worker.Handler = (*DocumentProcessHandler)(nil)

// Process implements worker.Handler.Process
func (h *DocumentProcessHandler) Process(ctx context.Context, payload json.RawMessage) worker.Outcome {
	var p DocumentProcessPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.Fatal(fmt.Sprintf("malformed payload: %v", err))
	}

	doc, err := h.docStore.GetByID(ctx, p.DocumentID)
	if errors.Is(err, store.ErrDocumentNotFound) {
		return worker.Fatal(fmt.Sprintf("document %s does not exist", p.DocumentID))
	}
	if err != nil {
		return worker.Retry(fmt.Sprintf("failed to load document: %v", err))
	}

	if err := h.docStore.UpdateStatus(ctx, doc.ID, domain.DocumentStatusProcessing, ""); err != nil {
		return worker.Retry(fmt.Sprintf("failed to mark document processing: %v", err))
	}

	pieces := chunkContent(doc.Content)
	total := len(pieces)

	if err := h.docStore.SetPageCount(ctx, doc.ID, total); err != nil {
		return worker.Retry(fmt.Sprintf("failed to record page count: %v", err))
	}

	chunks := make([]*domain.DocumentChunk, total)
	for i, piece := range pieces {
		chunks[i] = domain.NewDocumentChunk(doc.ID, i, piece)
		h.tracker.Publish(progress.Update{
			DocumentID: doc.ID,
			Page:       i + 1,
			Total:      total,
			Status:     string(domain.DocumentStatusProcessing),
		})
	}

	if err := h.docStore.ReplaceChunks(ctx, doc.ID, chunks); err != nil {
		return worker.Retry(fmt.Sprintf("failed to store chunks: %v", err))
	}

	if total > 0 {
		event, err := events.NewTaskRequestEvent(TaskTypeEmbedChunks, EmbedChunksPayload{DocumentID: doc.ID})
		if err == nil {
			err = h.emitter.EmitEvent(ctx, event)
		}
		if err != nil {
			return worker.Retry(fmt.Sprintf("failed to request embedding: %v", err))
		}
	}

	if err := h.docStore.UpdateStatus(ctx, doc.ID, domain.DocumentStatusCompleted, ""); err != nil {
		return worker.Retry(fmt.Sprintf("failed to mark document completed: %v", err))
	}

	h.tracker.Publish(progress.Update{
		DocumentID: doc.ID,
		Page:       total,
		Total:      total,
		Status:     string(domain.DocumentStatusCompleted),
	})

	h.logger.Info("document processed",
		"document_id", doc.ID,
		"chunk_count", total)
	return worker.Success()
}
