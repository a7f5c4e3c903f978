package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/eulerhq/euler-api/internal/domain"
)

// DocumentStore defines the interface for document data persistence.
type DocumentStore interface {
	// Create saves a new document to the store.
	// Returns validation errors from the domain Document if data is invalid.
	Create(ctx context.Context, doc *domain.Document) error

	// GetByID retrieves a document by its unique ID.
	// Returns ErrDocumentNotFound if the document does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error)

	// List retrieves documents, optionally filtered by status, newest first.
	List(ctx context.Context, status *domain.DocumentStatus, limit, offset int) ([]*domain.Document, error)

	// UpdateStatus updates the status and error message of a document.
	// Returns ErrDocumentNotFound if the document does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.DocumentStatus, errMsg string) error

	// SetPageCount records the number of pages discovered during processing.
	SetPageCount(ctx context.Context, id uuid.UUID, pages int) error

	// ReplaceChunks atomically deletes existing chunks for the document and
	// inserts the given set. Processing is retried at-least-once, so the
	// operation must leave no partial state behind.
	ReplaceChunks(ctx context.Context, documentID uuid.UUID, chunks []*domain.DocumentChunk) error

	// GetChunks returns the document's chunks ordered by index.
	GetChunks(ctx context.Context, documentID uuid.UUID) ([]*domain.DocumentChunk, error)

	// UpdateChunkEmbedding stores the embedding vector for one chunk.
	UpdateChunkEmbedding(ctx context.Context, chunkID uuid.UUID, embedding []float32) error

	// WithTx returns a new DocumentStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) DocumentStore
}
