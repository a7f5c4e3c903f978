package service

import "github.com/google/uuid"

// Task types dispatched through the queue. Handlers are registered under
// these names at startup.
const (
	TaskTypeDocumentProcess = "document:process"
	TaskTypeSolveQuestion   = "solve:question"
	TaskTypeEmbedChunks     = "embed:chunks"
)

// DocumentProcessPayload is the payload for document:process tasks.
type DocumentProcessPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
}

// SolveQuestionPayload is the payload for solve:question tasks.
type SolveQuestionPayload struct {
	RequestID uuid.UUID `json:"request_id"`
}

// EmbedChunksPayload is the payload for embed:chunks tasks.
type EmbedChunksPayload struct {
	DocumentID uuid.UUID `json:"document_id"`
}
