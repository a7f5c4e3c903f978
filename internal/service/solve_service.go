package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/eulerhq/euler-api/internal/domain"
	"github.com/eulerhq/euler-api/internal/events"
	"github.com/eulerhq/euler-api/internal/store"
)

// SolveService provides solve-request operations.
type SolveService interface {
	// CreateSolveRequest stores a new pending solve request and emits a
	// task request so a worker answers it in the background.
	CreateSolveRequest(ctx context.Context, question string) (*domain.SolveRequest, error)

	// GetSolveRequest retrieves a solve request by its ID.
	GetSolveRequest(ctx context.Context, id uuid.UUID) (*domain.SolveRequest, error)
}

type solveServiceImpl struct {
	solveStore store.SolveRequestStore
	emitter    events.EventEmitter
	logger     *slog.Logger
}

// NewSolveService creates a new SolveService.
func NewSolveService(
	solveStore store.SolveRequestStore,
	emitter events.EventEmitter,
	logger *slog.Logger,
) (SolveService, error) {
	if solveStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "solveStore cannot be nil"}
	}
	if emitter == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "emitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &solveServiceImpl{
		solveStore: solveStore,
		emitter:    emitter,
		logger:     logger.With(slog.String("component", "solve_service")),
	}, nil
}

func (s *solveServiceImpl) CreateSolveRequest(ctx context.Context, question string) (*domain.SolveRequest, error) {
	req, err := domain.NewSolveRequest(question)
	if err != nil {
		return nil, newServiceError("create_solve_request", "invalid solve request", err)
	}

	if err := s.solveStore.Create(ctx, req); err != nil {
		s.logger.Error("failed to save solve request",
			"error", err,
			"request_id", req.ID)
		return nil, newServiceError("create_solve_request", "failed to save solve request", err)
	}

	event, err := events.NewTaskRequestEvent(TaskTypeSolveQuestion, SolveQuestionPayload{RequestID: req.ID})
	if err != nil {
		return nil, newServiceError("create_solve_request", "failed to build task event", err)
	}
	if err := s.emitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit solve event",
			"error", err,
			"request_id", req.ID)
		return nil, newServiceError("create_solve_request", "failed to enqueue solve task", err)
	}

	s.logger.Info("solve request created", "request_id", req.ID)
	return req, nil
}

func (s *solveServiceImpl) GetSolveRequest(ctx context.Context, id uuid.UUID) (*domain.SolveRequest, error) {
	req, err := s.solveStore.GetByID(ctx, id)
	if err != nil {
		return nil, newServiceError("get_solve_request", "failed to load solve request", err)
	}
	return req, nil
}
