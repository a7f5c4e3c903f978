package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/eulerhq/euler-api/internal/domain"
)

// SolveRequestStore defines the interface for solve request persistence.
type SolveRequestStore interface {
	// Create saves a new solve request to the store.
	Create(ctx context.Context, req *domain.SolveRequest) error

	// GetByID retrieves a solve request by its unique ID.
	// Returns ErrSolveRequestNotFound if the request does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.SolveRequest, error)

	// UpdateStatus updates the status and error message of a solve request.
	// Returns ErrSolveRequestNotFound if the request does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.SolveRequestStatus, errMsg string) error

	// SetAnswer records the generated answer and marks the request
	// completed.
	SetAnswer(ctx context.Context, id uuid.UUID, answer string) error

	// WithTx returns a new SolveRequestStore instance that uses the
	// provided transaction.
	WithTx(tx *sql.Tx) SolveRequestStore
}
