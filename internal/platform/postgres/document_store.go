package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eulerhq/euler-api/internal/domain"
	"github.com/eulerhq/euler-api/internal/platform/logger"
	"github.com/eulerhq/euler-api/internal/store"
)

// PostgresDocumentStore implements the store.DocumentStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDocumentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDocumentStore creates a new PostgreSQL implementation of the
// DocumentStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller.
func NewPostgresDocumentStore(db store.DBTX, logger *slog.Logger) *PostgresDocumentStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresDocumentStore{
		db:     db,
		logger: logger.With(slog.String("component", "document_store")),
	}
}

// Ensure PostgresDocumentStore implements store.DocumentStore interface
var _ store.DocumentStore = (*PostgresDocumentStore)(nil)

// WithTx implements store.DocumentStore.WithTx
func (s *PostgresDocumentStore) WithTx(tx *sql.Tx) store.DocumentStore {
	return &PostgresDocumentStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.DocumentStore.Create
// It saves a new document to the database, handling domain validation.
func (s *PostgresDocumentStore) Create(ctx context.Context, doc *domain.Document) error {
	log := logger.FromContext(ctx)

	if err := doc.Validate(); err != nil {
		log.Warn("document validation failed during creation",
			slog.String("error", err.Error()))
		return err
	}

	query := `
		INSERT INTO documents (id, title, content, status, page_count, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		doc.ID,
		doc.Title,
		doc.Content,
		doc.Status,
		doc.PageCount,
		doc.Error,
		doc.CreatedAt,
		doc.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrDuplicate
		}
		log.Error("failed to create document",
			slog.String("document_id", doc.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create document: %w", MapError(err))
	}

	log.Debug("document created", slog.String("document_id", doc.ID.String()))
	return nil
}

// GetByID implements store.DocumentStore.GetByID
// Returns store.ErrDocumentNotFound if the document does not exist.
func (s *PostgresDocumentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	query := `
		SELECT id, title, content, status, page_count, error_message, created_at, updated_at
		FROM documents
		WHERE id = $1
	`

	var doc domain.Document
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&doc.ID,
		&doc.Title,
		&doc.Content,
		&doc.Status,
		&doc.PageCount,
		&doc.Error,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", MapError(err))
	}

	return &doc, nil
}

// List implements store.DocumentStore.List
func (s *PostgresDocumentStore) List(ctx context.Context, status *domain.DocumentStatus, limit, offset int) ([]*domain.Document, error) {
	if limit <= 0 {
		limit = 50
	}

	var (
		query string
		args  []interface{}
	)
	if status != nil {
		query = `
			SELECT id, title, content, status, page_count, error_message, created_at, updated_at
			FROM documents
			WHERE status = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`
		args = []interface{}{*status, limit, offset}
	} else {
		query = `
			SELECT id, title, content, status, page_count, error_message, created_at, updated_at
			FROM documents
			ORDER BY created_at DESC
			LIMIT $1 OFFSET $2
		`
		args = []interface{}{limit, offset}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var docs []*domain.Document
	for rows.Next() {
		var doc domain.Document
		if err := rows.Scan(
			&doc.ID,
			&doc.Title,
			&doc.Content,
			&doc.Status,
			&doc.PageCount,
			&doc.Error,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", MapError(err))
		}
		docs = append(docs, &doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", MapError(err))
	}

	return docs, nil
}

// UpdateStatus implements store.DocumentStore.UpdateStatus
// Returns store.ErrDocumentNotFound if the document does not exist.
func (s *PostgresDocumentStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.DocumentStatus, errMsg string) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE documents
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, status, errMsg, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update document status",
			slog.String("document_id", id.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update document status: %w", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrDocumentNotFound
	}

	log.Debug("document status updated",
		slog.String("document_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// SetPageCount implements store.DocumentStore.SetPageCount
func (s *PostgresDocumentStore) SetPageCount(ctx context.Context, id uuid.UUID, pages int) error {
	query := `
		UPDATE documents
		SET page_count = $1, updated_at = $2
		WHERE id = $3
	`
	result, err := s.db.ExecContext(ctx, query, pages, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set page count: %w", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrDocumentNotFound
	}
	return nil
}

// ReplaceChunks implements store.DocumentStore.ReplaceChunks
// The delete and inserts run in a single transaction when the store holds a
// plain connection; when the store already wraps a transaction the caller
// owns atomicity.
func (s *PostgresDocumentStore) ReplaceChunks(ctx context.Context, documentID uuid.UUID, chunks []*domain.DocumentChunk) error {
	if db, ok := s.db.(*sql.DB); ok {
		return store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
			return s.replaceChunksIn(ctx, tx, documentID, chunks)
		})
	}
	return s.replaceChunksIn(ctx, s.db, documentID, chunks)
}

func (s *PostgresDocumentStore) replaceChunksIn(ctx context.Context, db store.DBTX, documentID uuid.UUID, chunks []*domain.DocumentChunk) error {
	log := logger.FromContext(ctx)

	deleteQuery := `DELETE FROM document_chunks WHERE document_id = $1`
	if _, err := db.ExecContext(ctx, deleteQuery, documentID); err != nil {
		return fmt.Errorf("failed to delete existing chunks: %w", MapError(err))
	}

	insertQuery := `
		INSERT INTO document_chunks (id, document_id, chunk_index, content, embedding, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, chunk := range chunks {
		embedding, err := marshalEmbedding(chunk.Embedding)
		if err != nil {
			return err
		}
		if _, err := db.ExecContext(ctx, insertQuery,
			chunk.ID,
			chunk.DocumentID,
			chunk.Index,
			chunk.Content,
			embedding,
			chunk.CreatedAt,
		); err != nil {
			if IsForeignKeyViolation(err) {
				return store.ErrDocumentNotFound
			}
			return fmt.Errorf("failed to insert chunk: %w", MapError(err))
		}
	}

	log.Debug("document chunks replaced",
		slog.String("document_id", documentID.String()),
		slog.Int("chunk_count", len(chunks)))
	return nil
}

// GetChunks implements store.DocumentStore.GetChunks
func (s *PostgresDocumentStore) GetChunks(ctx context.Context, documentID uuid.UUID) ([]*domain.DocumentChunk, error) {
	query := `
		SELECT id, document_id, chunk_index, content, embedding, created_at
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index ASC
	`

	rows, err := s.db.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var chunks []*domain.DocumentChunk
	for rows.Next() {
		var (
			chunk     domain.DocumentChunk
			embedding []byte
		)
		if err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.Index,
			&chunk.Content,
			&embedding,
			&chunk.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", MapError(err))
		}
		if chunk.Embedding, err = unmarshalEmbedding(embedding); err != nil {
			return nil, err
		}
		chunks = append(chunks, &chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating chunk rows: %w", MapError(err))
	}

	return chunks, nil
}

// UpdateChunkEmbedding implements store.DocumentStore.UpdateChunkEmbedding
func (s *PostgresDocumentStore) UpdateChunkEmbedding(ctx context.Context, chunkID uuid.UUID, embedding []float32) error {
	encoded, err := marshalEmbedding(embedding)
	if err != nil {
		return err
	}

	query := `UPDATE document_chunks SET embedding = $1 WHERE id = $2`
	result, err := s.db.ExecContext(ctx, query, encoded, chunkID)
	if err != nil {
		return fmt.Errorf("failed to update chunk embedding: %w", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Embeddings are stored as JSONB arrays. Vector similarity search lives
// outside this service, so a dedicated vector column type is unnecessary.
func marshalEmbedding(embedding []float32) ([]byte, error) {
	if embedding == nil {
		return []byte("null"), nil
	}
	encoded, err := json.Marshal(embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to encode embedding: %w", err)
	}
	return encoded, nil
}

func unmarshalEmbedding(data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var embedding []float32
	if err := json.Unmarshal(data, &embedding); err != nil {
		return nil, fmt.Errorf("failed to decode embedding: %w", err)
	}
	return embedding, nil
}
