package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound      = errors.New("resource not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInternal      = errors.New("internal error")
	ErrValidation    = errors.New("validation failed")
	ErrQuotaExceeded = errors.New("monthly quota exceeded")
	ErrProcessing    = errors.New("processing failed")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewValidationError wraps ErrValidation for bad input shapes, exceeded
// quotas, and invalid selections.
func NewValidationError(message string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: message, Cause: ErrValidation}
}

// NewProcessingError wraps ErrProcessing for extraction and parse failures.
// These are terminal per file; nothing retries them.
func NewProcessingError(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrProcessing
	}
	return &AppError{Code: "PROCESSING_ERROR", Message: message, Cause: cause}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsValidation reports whether err belongs to the validation taxonomy.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrQuotaExceeded)
}

// IsProcessing reports whether err is a terminal extraction/parse failure.
func IsProcessing(err error) bool {
	return errors.Is(err, ErrProcessing)
}
