package models

import (
	"errors"
	"fmt"
)

// ErrNotFound is matched with errors.Is by handlers to produce a 404.
var ErrNotFound = errors.New("not found")

// AppError carries a machine-readable code alongside the wrapped cause.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError reports a missing resource, e.g. NewNotFoundError("Post", 7).
func NewNotFoundError(resource string, key interface{}) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s %v", resource, key),
		Err:     ErrNotFound,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL",
		Message: "database operation failed",
		Err:     err,
	}
}
