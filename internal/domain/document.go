package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// DocumentStatus represents the processing state of a document
type DocumentStatus string

// Possible document status values. Uploaded documents sit idle until an
// operator marks them pending, which enqueues processing.
const (
	DocumentStatusUploaded   DocumentStatus = "uploaded"
	DocumentStatusPending    DocumentStatus = "pending"
	DocumentStatusProcessing DocumentStatus = "processing"
	DocumentStatusCompleted  DocumentStatus = "completed"
	DocumentStatusFailed     DocumentStatus = "failed"
)

// Common validation errors for Document
var (
	ErrEmptyDocumentID       = errors.New("document ID cannot be empty")
	ErrEmptyDocumentTitle    = errors.New("document title cannot be empty")
	ErrInvalidDocumentStatus = errors.New("invalid document status")
)

// Document represents an uploaded source document and its processing state.
// Content holds the raw extracted text; chunking and embedding happen in
// background tasks.
type Document struct {
	ID        uuid.UUID      `json:"id"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Status    DocumentStatus `json:"status"`
	PageCount int            `json:"page_count"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// NewDocument creates a new Document in the uploaded state.
// Returns an error if validation fails.
func NewDocument(title, content string) (*Document, error) {
	doc := &Document{
		ID:        uuid.New(),
		Title:     title,
		Content:   content,
		Status:    DocumentStatusUploaded,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return doc, nil
}

// Validate checks if the Document has valid data.
func (d *Document) Validate() error {
	if d.ID == uuid.Nil {
		return ErrEmptyDocumentID
	}

	if d.Title == "" {
		return ErrEmptyDocumentTitle
	}

	if !isValidDocumentStatus(d.Status) {
		return ErrInvalidDocumentStatus
	}

	return nil
}

func isValidDocumentStatus(status DocumentStatus) bool {
	switch status {
	case DocumentStatusUploaded,
		DocumentStatusPending,
		DocumentStatusProcessing,
		DocumentStatusCompleted,
		DocumentStatusFailed:
		return true
	}
	return false
}

// DocumentChunk is one retrievable slice of a processed document.
// Embedding is stored as produced by the embedding model; vector search
// over it lives outside this service.
type DocumentChunk struct {
	ID         uuid.UUID `json:"id"`
	DocumentID uuid.UUID `json:"document_id"`
	Index      int       `json:"index"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"embedding,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewDocumentChunk creates a chunk for the given document.
func NewDocumentChunk(documentID uuid.UUID, index int, content string) *DocumentChunk {
	return &DocumentChunk{
		ID:         uuid.New(),
		DocumentID: documentID,
		Index:      index,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
}
