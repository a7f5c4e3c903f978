package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eulerhq/euler-api/internal/generation"
	"github.com/eulerhq/euler-api/internal/store"
	"github.com/eulerhq/euler-api/internal/worker"
)

// embedBatchSize bounds how many chunk texts go to the embedding API in a
// single call.
const embedBatchSize = 16

// EmbedChunksHandler computes embeddings for a document's chunks. Chunks
// that already carry an embedding are skipped, so a redelivered task only
// pays for what a previous attempt left unfinished.
type EmbedChunksHandler struct {
	docStore store.DocumentStore
	embedder generation.Embedder
	logger   *slog.Logger
}

// NewEmbedChunksHandler creates the handler for embed:chunks tasks.
func NewEmbedChunksHandler(
	docStore store.DocumentStore,
	embedder generation.Embedder,
	logger *slog.Logger,
) *EmbedChunksHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmbedChunksHandler{
		docStore: docStore,
		embedder: embedder,
		logger:   logger.With(slog.String("component", "embed_chunks_handler")),
	}
}

var _ worker.Handler = (*EmbedChunksHandler)(nil)

// Process implements worker.Handler.Process
func (h *EmbedChunksHandler) Process(ctx context.Context, payload json.RawMessage) worker.Outcome {
	var p EmbedChunksPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.Fatal(fmt.Sprintf("malformed payload: %v", err))
	}

	chunks, err := h.docStore.GetChunks(ctx, p.DocumentID)
	if err != nil {
		return worker.Retry(fmt.Sprintf("failed to load chunks: %v", err))
	}

	var pending []int
	for i, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return worker.Success()
	}

	for start := 0; start < len(pending); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		texts := make([]string, len(batch))
		for i, idx := range batch {
			texts[i] = chunks[idx].Content
		}

		embeddings, err := h.embedder.EmbedTexts(ctx, texts)
		if err != nil {
			if errors.Is(err, generation.ErrTransientFailure) {
				return worker.Retry(fmt.Sprintf("embedding call failed: %v", err))
			}
			return worker.Fatal(fmt.Sprintf("embedding call failed permanently: %v", err))
		}

		for i, idx := range batch {
			if err := h.docStore.UpdateChunkEmbedding(ctx, chunks[idx].ID, embeddings[i]); err != nil {
				return worker.Retry(fmt.Sprintf("failed to store embedding: %v", err))
			}
		}
	}

	h.logger.Info("chunks embedded",
		"document_id", p.DocumentID,
		"embedded_count", len(pending))
	return worker.Success()
}
