package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/eulerhq/euler-api/internal/domain"
	"github.com/eulerhq/euler-api/internal/platform/logger"
	"github.com/eulerhq/euler-api/internal/store"
)

// PostgresSolveRequestStore implements the store.SolveRequestStore interface
// using a PostgreSQL database as the storage backend.
type PostgresSolveRequestStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSolveRequestStore creates a new PostgreSQL implementation of
// the SolveRequestStore interface.
func NewPostgresSolveRequestStore(db store.DBTX, logger *slog.Logger) *PostgresSolveRequestStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresSolveRequestStore{
		db:     db,
		logger: logger.With(slog.String("component", "solve_request_store")),
	}
}

// Ensure PostgresSolveRequestStore implements store.SolveRequestStore interface
var _ store.SolveRequestStore = (*PostgresSolveRequestStore)(nil)

// WithTx implements store.SolveRequestStore.WithTx
func (s *PostgresSolveRequestStore) WithTx(tx *sql.Tx) store.SolveRequestStore {
	return &PostgresSolveRequestStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.SolveRequestStore.Create
func (s *PostgresSolveRequestStore) Create(ctx context.Context, req *domain.SolveRequest) error {
	log := logger.FromContext(ctx)

	if err := req.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO solve_requests (id, question, answer, status, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		req.ID,
		req.Question,
		req.Answer,
		req.Status,
		req.Error,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrDuplicate
		}
		log.Error("failed to create solve request",
			slog.String("request_id", req.ID.String()),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create solve request: %w", MapError(err))
	}

	log.Debug("solve request created", slog.String("request_id", req.ID.String()))
	return nil
}

// GetByID implements store.SolveRequestStore.GetByID
// Returns store.ErrSolveRequestNotFound if the request does not exist.
func (s *PostgresSolveRequestStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.SolveRequest, error) {
	query := `
		SELECT id, question, answer, status, error_message, created_at, updated_at
		FROM solve_requests
		WHERE id = $1
	`

	var req domain.SolveRequest
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&req.ID,
		&req.Question,
		&req.Answer,
		&req.Status,
		&req.Error,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrSolveRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get solve request: %w", MapError(err))
	}

	return &req, nil
}

// UpdateStatus implements store.SolveRequestStore.UpdateStatus
// Returns store.ErrSolveRequestNotFound if the request does not exist.
func (s *PostgresSolveRequestStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SolveRequestStatus, errMsg string) error {
	log := logger.FromContext(ctx)

	query := `
		UPDATE solve_requests
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, status, errMsg, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update solve request status",
			slog.String("request_id", id.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to update solve request status: %w", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrSolveRequestNotFound
	}
	return nil
}

// SetAnswer implements store.SolveRequestStore.SetAnswer
func (s *PostgresSolveRequestStore) SetAnswer(ctx context.Context, id uuid.UUID, answer string) error {
	query := `
		UPDATE solve_requests
		SET answer = $1, status = $2, error_message = '', updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query,
		answer, domain.SolveRequestStatusCompleted, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set solve request answer: %w", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrSolveRequestNotFound
	}
	return nil
}
