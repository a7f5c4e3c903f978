package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/eulerhq/euler-api/internal/domain"
	"github.com/eulerhq/euler-api/internal/events"
	"github.com/eulerhq/euler-api/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockDocumentStore is an in-memory store.DocumentStore for tests.
type mockDocumentStore struct {
	mu     sync.Mutex
	docs   map[uuid.UUID]*domain.Document
	chunks map[uuid.UUID][]*domain.DocumentChunk

	createErr        error
	updateStatusErr  error
	replaceChunksErr error
	getChunksErr     error
	embeddingErr     error
}

func newMockDocumentStore() *mockDocumentStore {
	return &mockDocumentStore{
		docs:   make(map[uuid.UUID]*domain.Document),
		chunks: make(map[uuid.UUID][]*domain.DocumentChunk),
	}
}

func (m *mockDocumentStore) Create(ctx context.Context, doc *domain.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *doc
	m.docs[doc.ID] = &copied
	return nil
}

func (m *mockDocumentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, store.ErrDocumentNotFound
	}
	copied := *doc
	return &copied, nil
}

func (m *mockDocumentStore) List(ctx context.Context, status *domain.DocumentStatus, limit, offset int) ([]*domain.Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var docs []*domain.Document
	for _, doc := range m.docs {
		if status == nil || doc.Status == *status {
			copied := *doc
			docs = append(docs, &copied)
		}
	}
	return docs, nil
}

func (m *mockDocumentStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.DocumentStatus, errMsg string) error {
	if m.updateStatusErr != nil {
		return m.updateStatusErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return store.ErrDocumentNotFound
	}
	doc.Status = status
	doc.Error = errMsg
	return nil
}

func (m *mockDocumentStore) SetPageCount(ctx context.Context, id uuid.UUID, pages int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return store.ErrDocumentNotFound
	}
	doc.PageCount = pages
	return nil
}

func (m *mockDocumentStore) ReplaceChunks(ctx context.Context, documentID uuid.UUID, chunks []*domain.DocumentChunk) error {
	if m.replaceChunksErr != nil {
		return m.replaceChunksErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([]*domain.DocumentChunk, len(chunks))
	for i, chunk := range chunks {
		c := *chunk
		copied[i] = &c
	}
	m.chunks[documentID] = copied
	return nil
}

func (m *mockDocumentStore) GetChunks(ctx context.Context, documentID uuid.UUID) ([]*domain.DocumentChunk, error) {
	if m.getChunksErr != nil {
		return nil, m.getChunksErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	chunks := make([]*domain.DocumentChunk, len(m.chunks[documentID]))
	for i, chunk := range m.chunks[documentID] {
		c := *chunk
		chunks[i] = &c
	}
	return chunks, nil
}

func (m *mockDocumentStore) UpdateChunkEmbedding(ctx context.Context, chunkID uuid.UUID, embedding []float32) error {
	if m.embeddingErr != nil {
		return m.embeddingErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, chunks := range m.chunks {
		for _, chunk := range chunks {
			if chunk.ID == chunkID {
				chunk.Embedding = embedding
				return nil
			}
		}
	}
	return store.ErrNotFound
}

func (m *mockDocumentStore) WithTx(tx *sql.Tx) store.DocumentStore { return m }

// mockSolveStore is an in-memory store.SolveRequestStore for tests.
type mockSolveStore struct {
	mu   sync.Mutex
	reqs map[uuid.UUID]*domain.SolveRequest

	createErr    error
	setAnswerErr error
}

func newMockSolveStore() *mockSolveStore {
	return &mockSolveStore{reqs: make(map[uuid.UUID]*domain.SolveRequest)}
}

func (m *mockSolveStore) Create(ctx context.Context, req *domain.SolveRequest) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *req
	m.reqs[req.ID] = &copied
	return nil
}

func (m *mockSolveStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SolveRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.reqs[id]
	if !ok {
		return nil, store.ErrSolveRequestNotFound
	}
	copied := *req
	return &copied, nil
}

func (m *mockSolveStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SolveRequestStatus, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.reqs[id]
	if !ok {
		return store.ErrSolveRequestNotFound
	}
	req.Status = status
	req.Error = errMsg
	return nil
}

func (m *mockSolveStore) SetAnswer(ctx context.Context, id uuid.UUID, answer string) error {
	if m.setAnswerErr != nil {
		return m.setAnswerErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.reqs[id]
	if !ok {
		return store.ErrSolveRequestNotFound
	}
	req.Answer = answer
	req.Status = domain.SolveRequestStatusCompleted
	req.Error = ""
	return nil
}

func (m *mockSolveStore) WithTx(tx *sql.Tx) store.SolveRequestStore { return m }

// mockEmitter records emitted events.
type mockEmitter struct {
	mu      sync.Mutex
	events  []*events.TaskRequestEvent
	emitErr error
}

func (m *mockEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if m.emitErr != nil {
		return m.emitErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *mockEmitter) emitted() []*events.TaskRequestEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*events.TaskRequestEvent, len(m.events))
	copy(out, m.events)
	return out
}

// mockGenerator implements generation.Generator with canned behavior.
type mockGenerator struct {
	answer string
	err    error
	calls  int
}

func (m *mockGenerator) SolveQuestion(ctx context.Context, question string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.answer, nil
}

// mockEmbedder implements generation.Embedder with canned behavior.
type mockEmbedder struct {
	err   error
	calls int
}

func (m *mockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	embeddings := make([][]float32, len(texts))
	for i := range texts {
		embeddings[i] = []float32{float32(i), 1.0}
	}
	return embeddings, nil
}
