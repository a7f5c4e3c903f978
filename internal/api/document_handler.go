package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/eulerhq/euler-api/internal/api/shared"
	"github.com/eulerhq/euler-api/internal/domain"
	"github.com/eulerhq/euler-api/internal/progress"
	"github.com/eulerhq/euler-api/internal/service"
)

// CreateDocumentRequest represents the request body for uploading a document
type CreateDocumentRequest struct {
	Title   string `json:"title" validate:"required,min=1,max=500"`
	Content string `json:"content" validate:"required,min=1"`
}

// DocumentResponse represents the response data for a document
type DocumentResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	PageCount int       `json:"page_count"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ChunkResponse represents one chunk of a processed document
type ChunkResponse struct {
	ID       string `json:"id"`
	Index    int    `json:"index"`
	Content  string `json:"content"`
	Embedded bool   `json:"embedded"`
}

func toDocumentResponse(doc *domain.Document) DocumentResponse {
	return DocumentResponse{
		ID:        doc.ID.String(),
		Title:     doc.Title,
		Status:    string(doc.Status),
		PageCount: doc.PageCount,
		Error:     doc.Error,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// DocumentHandler handles document-related HTTP requests
type DocumentHandler struct {
	documentService service.DocumentService
	tracker         *progress.Broker
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documentService service.DocumentService, tracker *progress.Broker) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
		tracker:         tracker,
	}
}

// CreateDocument handles POST /api/documents requests
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Title and content are required")
		return
	}

	doc, err := h.documentService.CreateDocument(r.Context(), req.Title, req.Content)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, toDocumentResponse(doc))
}

// ListDocuments handles GET /api/documents requests
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	var statusFilter *domain.DocumentStatus
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.DocumentStatus(s)
		statusFilter = &status
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	docs, err := h.documentService.ListDocuments(r.Context(), statusFilter, limit, offset)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	responses := make([]DocumentResponse, len(docs))
	for i, doc := range docs {
		responses[i] = toDocumentResponse(doc)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// GetDocument handles GET /api/documents/{id} requests
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	doc, err := h.documentService.GetDocument(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toDocumentResponse(doc))
}

// ProcessDocument handles POST /api/documents/{id}/process requests
func (h *DocumentHandler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if err := h.documentService.RequestProcessing(r.Context(), id); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, map[string]string{
		"status": string(domain.DocumentStatusPending),
	})
}

// GetChunks handles GET /api/documents/{id}/chunks requests
func (h *DocumentHandler) GetChunks(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	chunks, err := h.documentService.GetChunks(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	responses := make([]ChunkResponse, len(chunks))
	for i, chunk := range chunks {
		responses[i] = ChunkResponse{
			ID:       chunk.ID.String(),
			Index:    chunk.Index,
			Content:  chunk.Content,
			Embedded: len(chunk.Embedding) > 0,
		}
	}
	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// StreamProgress handles GET /api/documents/{id}/progress requests, sending
// progress updates as server-sent events until processing completes or the
// client disconnects.
func (h *DocumentHandler) StreamProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	if _, err := h.documentService.GetDocument(r.Context(), id); err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		shared.RespondWithError(w, r, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	updates, cancel := h.tracker.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case update, open := <-updates:
			if !open {
				return
			}
			data, err := json.Marshal(update)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()

			if update.Status == string(domain.DocumentStatusCompleted) ||
				update.Status == string(domain.DocumentStatusFailed) {
				return
			}
		}
	}
}

// parseIDParam extracts and parses the {id} URL parameter, writing a 400
// response on failure.
func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
