package api_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/eulerhq/euler-api/internal/api"
	"github.com/eulerhq/euler-api/internal/api/middleware"
	"github.com/eulerhq/euler-api/internal/config"
	"github.com/eulerhq/euler-api/internal/domain"
	"github.com/eulerhq/euler-api/internal/progress"
	"github.com/eulerhq/euler-api/internal/queue"
	"github.com/eulerhq/euler-api/internal/service"
	"github.com/eulerhq/euler-api/internal/service/auth"
)

const testPassword = "correct horse battery staple"

func testAuthConfig(t *testing.T) config.AuthConfig {
	t.Helper()
	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	return config.AuthConfig{
		JWTSecret:         "this-is-a-test-secret-of-32-bytes!!",
		AdminPasswordHash: hash,
		TokenTTL:          time.Hour,
	}
}

// mockDocumentService is a controllable DocumentService for handler tests.
type mockDocumentService struct {
	docs       map[uuid.UUID]*domain.Document
	chunks     map[uuid.UUID][]*domain.DocumentChunk
	createErr  error
	processErr error
}

func newMockDocumentService() *mockDocumentService {
	return &mockDocumentService{
		docs:   make(map[uuid.UUID]*domain.Document),
		chunks: make(map[uuid.UUID][]*domain.DocumentChunk),
	}
}

func (m *mockDocumentService) CreateDocument(_ context.Context, title, content string) (*domain.Document, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	doc, err := domain.NewDocument(title, content)
	if err != nil {
		return nil, err
	}
	m.docs[doc.ID] = doc
	return doc, nil
}

func (m *mockDocumentService) GetDocument(_ context.Context, id uuid.UUID) (*domain.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, service.ErrDocumentNotFound
	}
	return doc, nil
}

func (m *mockDocumentService) ListDocuments(_ context.Context, status *domain.DocumentStatus, _, _ int) ([]*domain.Document, error) {
	var out []*domain.Document
	for _, doc := range m.docs {
		if status != nil && doc.Status != *status {
			continue
		}
		out = append(out, doc)
	}
	return out, nil
}

func (m *mockDocumentService) RequestProcessing(_ context.Context, id uuid.UUID) error {
	if m.processErr != nil {
		return m.processErr
	}
	doc, ok := m.docs[id]
	if !ok {
		return service.ErrDocumentNotFound
	}
	if doc.Status != domain.DocumentStatusUploaded && doc.Status != domain.DocumentStatusFailed {
		return service.ErrDocumentNotProcessable
	}
	doc.Status = domain.DocumentStatusPending
	return nil
}

func (m *mockDocumentService) GetChunks(_ context.Context, id uuid.UUID) ([]*domain.DocumentChunk, error) {
	if _, ok := m.docs[id]; !ok {
		return nil, service.ErrDocumentNotFound
	}
	return m.chunks[id], nil
}

// mockSolveService is a controllable SolveService for handler tests.
type mockSolveService struct {
	requests  map[uuid.UUID]*domain.SolveRequest
	createErr error
}

func newMockSolveService() *mockSolveService {
	return &mockSolveService{requests: make(map[uuid.UUID]*domain.SolveRequest)}
}

func (m *mockSolveService) CreateSolveRequest(_ context.Context, question string) (*domain.SolveRequest, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	req, err := domain.NewSolveRequest(question)
	if err != nil {
		return nil, err
	}
	m.requests[req.ID] = req
	return req, nil
}

func (m *mockSolveService) GetSolveRequest(_ context.Context, id uuid.UUID) (*domain.SolveRequest, error) {
	req, ok := m.requests[id]
	if !ok {
		return nil, service.ErrSolveRequestNotFound
	}
	return req, nil
}

// mockDeadLetterLister serves a fixed set of dead-letter entries.
type mockDeadLetterLister struct {
	entries []queue.DeadLetterEntry
}

func (m *mockDeadLetterLister) List(_ context.Context, limit, offset int) ([]queue.DeadLetterEntry, error) {
	if offset >= len(m.entries) {
		return nil, nil
	}
	end := offset + limit
	if end > len(m.entries) {
		end = len(m.entries)
	}
	return m.entries[offset:end], nil
}

// testEnv bundles a fully wired router with its mock backends.
type testEnv struct {
	router  chi.Router
	docs    *mockDocumentService
	solve   *mockSolveService
	queue   *queue.MemoryQueue
	dead    *mockDeadLetterLister
	tracker *progress.Broker
	jwt     auth.JWTService
	token   string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authCfg := testAuthConfig(t)

	jwtService, err := auth.NewJWTService(authCfg)
	require.NoError(t, err)
	token, err := jwtService.GenerateToken(context.Background(), "admin")
	require.NoError(t, err)

	env := &testEnv{
		docs:    newMockDocumentService(),
		solve:   newMockSolveService(),
		queue:   queue.NewMemoryQueue(queue.DefaultBackoffPolicy(), time.Minute, nil, logger),
		dead:    &mockDeadLetterLister{},
		tracker: progress.NewBroker(logger),
		jwt:     jwtService,
		token:   token,
	}

	env.router = api.NewRouter(api.RouterDeps{
		Auth:      api.NewAuthHandler(jwtService, auth.NewBcryptVerifier(), authCfg),
		Documents: api.NewDocumentHandler(env.docs, env.tracker),
		Solve:     api.NewSolveHandler(env.solve),
		Tasks:     api.NewTaskHandler(env.queue, env.dead),
		AuthMW:    middleware.NewAuthMiddleware(jwtService),
	})
	return env
}

// do performs an authenticated request against the test router.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+e.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// doAnon performs a request without credentials.
func (e *testEnv) doAnon(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}
