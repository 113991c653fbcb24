package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidRequest signals a request that failed validation.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrModelUnavailable signals that the language model produced no usable response.
	ErrModelUnavailable = errors.New("language model unavailable")
	// ErrBudgetExceeded signals an exhausted model token budget.
	ErrBudgetExceeded = errors.New("model token budget exceeded")
	// ErrRejectedStatement signals a generated statement that is not a single read-only query.
	ErrRejectedStatement = errors.New("rejected statement")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
)

// RejectedStatementError carries the statement text and the reason it was refused.
type RejectedStatementError struct {
	Statement string
	Reason    string
}

func (e *RejectedStatementError) Error() string {
	return fmt.Sprintf("%s: %s", ErrRejectedStatement.Error(), e.Reason)
}

func (e *RejectedStatementError) Unwrap() error { return ErrRejectedStatement }

// NewRejectedStatement creates a rejected statement error.
func NewRejectedStatement(statement, reason string) error {
	return &RejectedStatementError{Statement: statement, Reason: reason}
}
