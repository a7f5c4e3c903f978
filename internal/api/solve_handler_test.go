package api_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eulerhq/euler-api/internal/api"
	"github.com/eulerhq/euler-api/internal/domain"
)

func TestCreateSolveRequest_Accepted(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	body := strings.NewReader(`{"question": "What is the derivative of x^2?"}`)
	rr := env.do(t, http.MethodPost, "/api/solve", body)

	require.Equal(t, http.StatusAccepted, rr.Code)
	var resp api.SolveRequestResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "What is the derivative of x^2?", resp.Question)
	assert.Equal(t, string(domain.SolveRequestStatusPending), resp.Status)
	assert.Empty(t, resp.Answer)
}

func TestCreateSolveRequest_EmptyQuestion(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/solve", strings.NewReader(`{"question": ""}`))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetSolveRequest_ReturnsAnswer(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	req, err := domain.NewSolveRequest("What is 2+2?")
	require.NoError(t, err)
	req.Answer = "4"
	req.Status = domain.SolveRequestStatusCompleted
	env.solve.requests[req.ID] = req

	rr := env.do(t, http.MethodGet, "/api/solve/"+req.ID.String(), nil)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp api.SolveRequestResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "4", resp.Answer)
	assert.Equal(t, string(domain.SolveRequestStatusCompleted), resp.Status)
}

func TestGetSolveRequest_NotFound(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/solve/"+uuid.NewString(), nil)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
