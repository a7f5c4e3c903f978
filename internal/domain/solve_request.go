package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SolveRequestStatus represents the processing state of a solve request
type SolveRequestStatus string

// Possible solve request status values
const (
	SolveRequestStatusPending    SolveRequestStatus = "pending"
	SolveRequestStatusProcessing SolveRequestStatus = "processing"
	SolveRequestStatusCompleted  SolveRequestStatus = "completed"
	SolveRequestStatusFailed     SolveRequestStatus = "failed"
)

// Common validation errors for SolveRequest
var (
	ErrEmptySolveRequestID       = errors.New("solve request ID cannot be empty")
	ErrEmptySolveRequestQuestion = errors.New("solve request question cannot be empty")
	ErrInvalidSolveRequestStatus = errors.New("invalid solve request status")
)

// SolveRequest represents a question submitted for the LLM to answer
// asynchronously. The answer is filled in by the solve task handler.
type SolveRequest struct {
	ID        uuid.UUID          `json:"id"`
	Question  string             `json:"question"`
	Answer    string             `json:"answer,omitempty"`
	Status    SolveRequestStatus `json:"status"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// NewSolveRequest creates a new SolveRequest in the pending state.
// Returns an error if validation fails.
func NewSolveRequest(question string) (*SolveRequest, error) {
	req := &SolveRequest{
		ID:        uuid.New(),
		Question:  question,
		Status:    SolveRequestStatusPending,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks if the SolveRequest has valid data.
func (r *SolveRequest) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptySolveRequestID
	}

	if r.Question == "" {
		return ErrEmptySolveRequestQuestion
	}

	if !isValidSolveRequestStatus(r.Status) {
		return ErrInvalidSolveRequestStatus
	}

	return nil
}

func isValidSolveRequestStatus(status SolveRequestStatus) bool {
	switch status {
	case SolveRequestStatusPending,
		SolveRequestStatusProcessing,
		SolveRequestStatusCompleted,
		SolveRequestStatusFailed:
		return true
	}
	return false
}
