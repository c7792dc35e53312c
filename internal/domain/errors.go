// Package domain provides shared domain-level sentinel errors.
package domain

import "errors"

// ErrNotFound indicates the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation indicates a request or argument failed validation.
var ErrValidation = errors.New("validation failed")

// ErrPermissionDenied indicates an operation was refused before execution.
var ErrPermissionDenied = errors.New("permission denied")

// ErrUnavailable indicates a backing service (model, database, search) cannot be reached.
var ErrUnavailable = errors.New("service unavailable")

// PermissionError carries a user-facing refusal message and matches ErrPermissionDenied.
type PermissionError struct {
	Msg string
}

func (e *PermissionError) Error() string { return e.Msg }

// Unwrap lets errors.Is(err, ErrPermissionDenied) succeed.
func (e *PermissionError) Unwrap() error { return ErrPermissionDenied }
