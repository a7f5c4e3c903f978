package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eulerhq/euler-api/internal/domain"
	"github.com/eulerhq/euler-api/internal/generation"
	"github.com/eulerhq/euler-api/internal/store"
	"github.com/eulerhq/euler-api/internal/worker"
)

// SolveQuestionHandler answers solve requests by calling the LLM in the
// background. Transient LLM failures are retried through the queue;
// permanent ones mark the request failed.
type SolveQuestionHandler struct {
	solveStore store.SolveRequestStore
	generator  generation.Generator
	logger     *slog.Logger
}

// NewSolveQuestionHandler creates the handler for solve:question tasks.
func NewSolveQuestionHandler(
	solveStore store.SolveRequestStore,
	generator generation.Generator,
	logger *slog.Logger,
) *SolveQuestionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SolveQuestionHandler{
		solveStore: solveStore,
		generator:  generator,
		logger:     logger.With(slog.String("component", "solve_question_handler")),
	}
}

var _ worker.Handler = (*SolveQuestionHandler)(nil)

// Process implements worker.Handler.Process
func (h *SolveQuestionHandler) Process(ctx context.Context, payload json.RawMessage) worker.Outcome {
	var p SolveQuestionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.Fatal(fmt.Sprintf("malformed payload: %v", err))
	}

	req, err := h.solveStore.GetByID(ctx, p.RequestID)
	if errors.Is(err, store.ErrSolveRequestNotFound) {
		return worker.Fatal(fmt.Sprintf("solve request %s does not exist", p.RequestID))
	}
	if err != nil {
		return worker.Retry(fmt.Sprintf("failed to load solve request: %v", err))
	}

	// A redelivery can arrive after a previous attempt already answered.
	if req.Status == domain.SolveRequestStatusCompleted {
		return worker.Success()
	}

	if err := h.solveStore.UpdateStatus(ctx, req.ID, domain.SolveRequestStatusProcessing, ""); err != nil {
		return worker.Retry(fmt.Sprintf("failed to mark solve request processing: %v", err))
	}

	answer, err := h.generator.SolveQuestion(ctx, req.Question)
	if err != nil {
		if errors.Is(err, generation.ErrTransientFailure) {
			return worker.Retry(fmt.Sprintf("llm call failed: %v", err))
		}
		// Permanent failure: record it so the client sees a terminal state.
		if updateErr := h.solveStore.UpdateStatus(ctx, req.ID, domain.SolveRequestStatusFailed, err.Error()); updateErr != nil {
			h.logger.Error("failed to mark solve request failed",
				"error", updateErr,
				"request_id", req.ID)
		}
		return worker.Fatal(fmt.Sprintf("llm call failed permanently: %v", err))
	}

	if err := h.solveStore.SetAnswer(ctx, req.ID, answer); err != nil {
		return worker.Retry(fmt.Sprintf("failed to store answer: %v", err))
	}

	h.logger.Info("solve request answered", "request_id", req.ID)
	return worker.Success()
}
