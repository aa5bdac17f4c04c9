package services

import "errors"

// Errors returned by the services. They are wrapped with detail, so callers
// classify them with errors.Is.
var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidArgument      = errors.New("invalid argument")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrReferentialViolation = errors.New("referential violation")
)
