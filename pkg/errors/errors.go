package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Detail carries structured context for an error, e.g. the legal holds
// blocking a deletion or the field that failed validation.
type Detail struct {
	Field    string `json:"field,omitempty"`
	Message  string `json:"message,omitempty"`
	HoldID   string `json:"hold_id,omitempty"`
	HoldName string `json:"hold_name,omitempty"`
}

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Status  int      `json:"status"`
	Details []Detail `json:"details,omitempty"`
	Err     error    `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound           = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrValidation         = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrConflict           = New("CONFLICT", http.StatusConflict, "conflict")
	ErrPreconditionFailed = New("PRECONDITION_FAILED", http.StatusPreconditionFailed, "precondition failed")
	ErrUnauthorized       = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrForbidden          = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrInternal           = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
)

// NotFound builds a NOT_FOUND error naming the missing resource.
func NotFound(resourceType, resourceID string) *Error {
	msg := fmt.Sprintf("%s not found", resourceType)
	if resourceID != "" {
		msg = fmt.Sprintf("%s %s not found", resourceType, resourceID)
	}
	e := New(ErrNotFound.Code, ErrNotFound.Status, msg)
	e.Details = []Detail{{Field: resourceType, Message: msg}}
	return e
}

// Validation builds a VALIDATION_ERROR for a specific field.
func Validation(field, message string) *Error {
	e := New(ErrValidation.Code, ErrValidation.Status, message)
	e.Details = []Detail{{Field: field, Message: message}}
	return e
}

// Conflict builds a CONFLICT error with structured details.
func Conflict(message string, details ...Detail) *Error {
	e := New(ErrConflict.Code, ErrConflict.Status, message)
	e.Details = details
	return e
}

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
