package service

import "errors"

// Sentinel errors returned by services. Handlers map them to HTTP statuses.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("document not found")
	ErrValidation   = errors.New("validation failed")
	// ErrUpstream marks a failure of the document engine after retries were exhausted.
	ErrUpstream      = errors.New("document engine unavailable")
	ErrSigningFailed = errors.New("signing failed")
	// ErrStorageDisabled is returned by image operations when object storage is not configured.
	ErrStorageDisabled = errors.New("object storage is not configured")
)

// ValidationError describes a rejected input field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
