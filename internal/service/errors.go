package service

import (
	"errors"
	"fmt"

	"github.com/eulerhq/euler-api/internal/store"
)

// Common sentinel errors for the service layer
var (
	// ErrDocumentNotFound indicates that the document does not exist
	ErrDocumentNotFound = errors.New("document not found")

	// ErrSolveRequestNotFound indicates that the solve request does not exist
	ErrSolveRequestNotFound = errors.New("solve request not found")

	// ErrDocumentNotProcessable indicates the document is not in a state
	// from which processing can be requested
	ErrDocumentNotProcessable = errors.New("document cannot be processed in its current state")
)

// ServiceError wraps errors from the service layer with operation context.
type ServiceError struct {
	// Operation is the operation that failed, e.g. "create_document"
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// newServiceError wraps err with operation context, mapping store-level
// sentinel errors to their service-level equivalents first.
func newServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, store.ErrDocumentNotFound) || errors.Is(err, ErrDocumentNotFound) {
		return ErrDocumentNotFound
	}
	if errors.Is(err, store.ErrSolveRequestNotFound) || errors.Is(err, ErrSolveRequestNotFound) {
		return ErrSolveRequestNotFound
	}
	if errors.Is(err, ErrDocumentNotProcessable) {
		return ErrDocumentNotProcessable
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
