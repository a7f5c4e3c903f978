package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/eulerhq/euler-api/internal/domain"
	"github.com/eulerhq/euler-api/internal/events"
	"github.com/eulerhq/euler-api/internal/store"
)

// DocumentService provides document-related operations.
type DocumentService interface {
	// CreateDocument stores a new document in the uploaded state.
	CreateDocument(ctx context.Context, title, content string) (*domain.Document, error)

	// GetDocument retrieves a document by its ID.
	GetDocument(ctx context.Context, id uuid.UUID) (*domain.Document, error)

	// ListDocuments retrieves documents, optionally filtered by status.
	ListDocuments(ctx context.Context, status *domain.DocumentStatus, limit, offset int) ([]*domain.Document, error)

	// RequestProcessing marks an uploaded or failed document pending and
	// emits a task request so a worker picks it up. Returns
	// ErrDocumentNotProcessable when the document is already being
	// processed or is complete.
	RequestProcessing(ctx context.Context, id uuid.UUID) error

	// GetChunks returns the chunks produced by processing, ordered by index.
	GetChunks(ctx context.Context, id uuid.UUID) ([]*domain.DocumentChunk, error)
}

type documentServiceImpl struct {
	docStore store.DocumentStore
	emitter  events.EventEmitter
	logger   *slog.Logger
}

// NewDocumentService creates a new DocumentService.
func NewDocumentService(
	docStore store.DocumentStore,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (DocumentService, error) {
	if docStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "docStore cannot be nil"}
	}
	if emitter == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &documentServiceImpl{
		docStore: docStore,
		emitter:  emitter,
		logger:   logger.With(slog.String("component", "document_service")),
	}, nil
}

func (s *documentServiceImpl) CreateDocument(ctx context.Context, title, content string) (*domain.Document, error) {
	doc, err := domain.NewDocument(title, content)
	if err != nil {
		return nil, newServiceError("create_document", "invalid document", err)
	}

	if err := s.docStore.Create(ctx, doc); err != nil {
		s.logger.Error("failed to save document",
			"error", err,
			"document_id", doc.ID)
		return nil, newServiceError("create_document", "failed to save document", err)
	}

	s.logger.Info("document created",
		"document_id", doc.ID,
		"title", doc.Title)
	return doc, nil
}

func (s *documentServiceImpl) GetDocument(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	doc, err := s.docStore.GetByID(ctx, id)
	if err != nil {
		return nil, newServiceError("get_document", "failed to load document", err)
	}
	return doc, nil
}

func (s *documentServiceImpl) ListDocuments(ctx context.Context, status *domain.DocumentStatus, limit, offset int) ([]*domain.Document, error) {
	docs, err := s.docStore.List(ctx, status, limit, offset)
	if err != nil {
		return nil, newServiceError("list_documents", "failed to list documents", err)
	}
	return docs, nil
}

func (s *documentServiceImpl) RequestProcessing(ctx context.Context, id uuid.UUID) error {
	doc, err := s.docStore.GetByID(ctx, id)
	if err != nil {
		return newServiceError("request_processing", "failed to load document", err)
	}

	switch doc.Status {
	case domain.DocumentStatusUploaded, domain.DocumentStatusFailed:
		// Processable.
	default:
		return ErrDocumentNotProcessable
	}

	if err := s.docStore.UpdateStatus(ctx, id, domain.DocumentStatusPending, ""); err != nil {
		return newServiceError("request_processing", "failed to mark document pending", err)
	}

	event, err := events.NewTaskRequestEvent(TaskTypeDocumentProcess, DocumentProcessPayload{DocumentID: id})
	if err != nil {
		return newServiceError("request_processing", "failed to build task event", err)
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		// The document stays pending; a failed enqueue is surfaced so the
		// caller can retry the request.
		s.logger.Error("failed to emit processing event",
			"error", err,
			"document_id", id)
		return newServiceError("request_processing", "failed to enqueue processing task", err)
	}

	s.logger.Info("document processing requested", "document_id", id)
	return nil
}

func (s *documentServiceImpl) GetChunks(ctx context.Context, id uuid.UUID) ([]*domain.DocumentChunk, error) {
	if _, err := s.docStore.GetByID(ctx, id); err != nil {
		return nil, newServiceError("get_chunks", "failed to load document", err)
	}
	chunks, err := s.docStore.GetChunks(ctx, id)
	if err != nil {
		return nil, newServiceError("get_chunks", "failed to load chunks", err)
	}
	return chunks, nil
}
