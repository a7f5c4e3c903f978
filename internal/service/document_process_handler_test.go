package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eulerhq/euler-api/internal/domain"
	"github.com/eulerhq/euler-api/internal/progress"
	"github.com/eulerhq/euler-api/internal/worker"
)

func processPayload(t *testing.T, docID uuid.UUID) json.RawMessage {
	t.Helper()
	payload, err := json.Marshal(DocumentProcessPayload{DocumentID: docID})
	require.NoError(t, err)
	return payload
}

func TestDocumentProcessHandler_Success(t *testing.T) {
	docStore := newMockDocumentStore()
	emitter := &mockEmitter{}
	broker := progress.NewBroker(testLogger())
	handler := NewDocumentProcessHandler(docStore, emitter, broker, testLogger())

	content := strings.Repeat("Some paragraph of mathematics.\n\n", 20)
	doc, err := domain.NewDocument("textbook", content)
	require.NoError(t, err)
	require.NoError(t, docStore.Create(context.Background(), doc))

	outcome := handler.Process(context.Background(), processPayload(t, doc.ID))
	assert.Equal(t, worker.OutcomeSuccess, outcome.Kind)

	stored, err := docStore.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusCompleted, stored.Status)
	assert.Greater(t, stored.PageCount, 0)

	chunks, err := docStore.GetChunks(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.Equal(t, doc.ID, chunk.DocumentID)
	}

	// Embedding was requested for the produced chunks.
	emitted := emitter.emitted()
	require.Len(t, emitted, 1)
	assert.Equal(t, TaskTypeEmbedChunks, emitted[0].Type)

	// Final progress state is retained for late subscribers.
	update, ok := broker.Latest(doc.ID)
	require.True(t, ok)
	assert.Equal(t, string(domain.DocumentStatusCompleted), update.Status)
	assert.Equal(t, update.Total, update.Page)
}

func TestDocumentProcessHandler_UnknownDocumentIsFatal(t *testing.T) {
	handler := NewDocumentProcessHandler(newMockDocumentStore(), &mockEmitter{}, progress.NewBroker(testLogger()), testLogger())

	outcome := handler.Process(context.Background(), processPayload(t, uuid.New()))
	assert.Equal(t, worker.OutcomeFatal, outcome.Kind)
}

func TestDocumentProcessHandler_MalformedPayloadIsFatal(t *testing.T) {
	handler := NewDocumentProcessHandler(newMockDocumentStore(), &mockEmitter{}, progress.NewBroker(testLogger()), testLogger())

	outcome := handler.Process(context.Background(), json.RawMessage(`{"document_id": 12}`))
	assert.Equal(t, worker.OutcomeFatal, outcome.Kind)
}

func TestDocumentProcessHandler_StoreFailureIsRetryable(t *testing.T) {
	docStore := newMockDocumentStore()
	docStore.replaceChunksErr = errors.New("connection lost")
	handler := NewDocumentProcessHandler(docStore, &mockEmitter{}, progress.NewBroker(testLogger()), testLogger())

	doc, err := domain.NewDocument("doc", "some content")
	require.NoError(t, err)
	require.NoError(t, docStore.Create(context.Background(), doc))

	outcome := handler.Process(context.Background(), processPayload(t, doc.ID))
	assert.Equal(t, worker.OutcomeRetry, outcome.Kind)
}

func TestDocumentProcessHandler_Reprocessing(t *testing.T) {
	docStore := newMockDocumentStore()
	emitter := &mockEmitter{}
	handler := NewDocumentProcessHandler(docStore, emitter, progress.NewBroker(testLogger()), testLogger())

	doc, err := domain.NewDocument("doc", "first paragraph\n\nsecond paragraph")
	require.NoError(t, err)
	require.NoError(t, docStore.Create(context.Background(), doc))

	outcome := handler.Process(context.Background(), processPayload(t, doc.ID))
	require.Equal(t, worker.OutcomeSuccess, outcome.Kind)
	first, err := docStore.GetChunks(context.Background(), doc.ID)
	require.NoError(t, err)

	// A redelivered task replaces the chunk set instead of appending.
	outcome = handler.Process(context.Background(), processPayload(t, doc.ID))
	require.Equal(t, worker.OutcomeSuccess, outcome.Kind)
	second, err := docStore.GetChunks(context.Background(), doc.ID)
	require.NoError(t, err)

	assert.Equal(t, len(first), len(second))
}

func TestDocumentProcessHandler_EmptyContent(t *testing.T) {
	docStore := newMockDocumentStore()
	emitter := &mockEmitter{}
	handler := NewDocumentProcessHandler(docStore, emitter, progress.NewBroker(testLogger()), testLogger())

	doc, err := domain.NewDocument("empty", "")
	require.NoError(t, err)
	require.NoError(t, docStore.Create(context.Background(), doc))

	outcome := handler.Process(context.Background(), processPayload(t, doc.ID))
	assert.Equal(t, worker.OutcomeSuccess, outcome.Kind)

	// No chunks means no embedding request.
	assert.Empty(t, emitter.emitted())

	stored, err := docStore.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DocumentStatusCompleted, stored.Status)
}
