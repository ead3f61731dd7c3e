package draft

import (
	"errors"
	"fmt"

	"github.com/Rani367/Hativon-sub000/internal/model"
)

// ErrAborted marks a save that was superseded by a newer one. It is never
// surfaced to the user.
var ErrAborted = errors.New("save aborted")

// FieldError is used to indicate an error with a specific request field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError rejects a malformed or oversized payload before any store access.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return "invalid request"
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// AuthorizationError means the caller is unknown or does not own the draft.
type AuthorizationError struct {
	// Unauthenticated is set when no identity was supplied at all.
	Unauthenticated bool
	Reason          string
}

func (e *AuthorizationError) Error() string {
	if e.Reason == "" {
		return "not authorized"
	}
	return "not authorized: " + e.Reason
}

// ConflictError carries the server state that made the caller's version stale.
type ConflictError struct {
	ServerVersion model.Version
	ServerContent model.Fields
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: server is at %s", e.ServerVersion)
}

func (e *ConflictError) Response() ConflictResponse {
	return ConflictResponse{
		Conflict:      true,
		ServerVersion: e.ServerVersion,
		ServerContent: e.ServerContent,
	}
}

// TransientError wraps network or server failures that a later attempt may fix.
type TransientError struct {
	StatusCode int
	Err        error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("save failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("save failed: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsRetryable reports whether err may be retried without user involvement.
func IsRetryable(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}
