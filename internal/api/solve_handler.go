package api

import (
	"net/http"
	"time"

	"github.com/eulerhq/euler-api/internal/api/shared"
	"github.com/eulerhq/euler-api/internal/domain"
	"github.com/eulerhq/euler-api/internal/service"
)

// CreateSolveRequestRequest represents the request body for submitting a question
type CreateSolveRequestRequest struct {
	Question string `json:"question" validate:"required,min=1,max=10000"`
}

// SolveRequestResponse represents the response data for a solve request
type SolveRequestResponse struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer,omitempty"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toSolveRequestResponse(req *domain.SolveRequest) SolveRequestResponse {
	return SolveRequestResponse{
		ID:        req.ID.String(),
		Question:  req.Question,
		Answer:    req.Answer,
		Status:    string(req.Status),
		Error:     req.Error,
		CreatedAt: req.CreatedAt,
		UpdatedAt: req.UpdatedAt,
	}
}

// SolveHandler handles solve-request HTTP requests
type SolveHandler struct {
	solveService service.SolveService
}

// NewSolveHandler creates a new SolveHandler
func NewSolveHandler(solveService service.SolveService) *SolveHandler {
	return &SolveHandler{
		solveService: solveService,
	}
}

// CreateSolveRequest handles POST /api/solve requests. The answer is
// produced asynchronously; clients poll GET /api/solve/{id}.
func (h *SolveHandler) CreateSolveRequest(w http.ResponseWriter, r *http.Request) {
	var req CreateSolveRequestRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Question is required")
		return
	}

	solveReq, err := h.solveService.CreateSolveRequest(r.Context(), req.Question)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, toSolveRequestResponse(solveReq))
}

// GetSolveRequest handles GET /api/solve/{id} requests
func (h *SolveHandler) GetSolveRequest(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r)
	if !ok {
		return
	}

	solveReq, err := h.solveService.GetSolveRequest(r.Context(), id)
	if err != nil {
		RespondWithMappedError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, toSolveRequestResponse(solveReq))
}
