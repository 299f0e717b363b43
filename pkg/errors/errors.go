package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeValidation indicates bad caller input
	ErrorTypeValidation ErrorType = "VALIDATION"
	// ErrorTypeNotFound indicates a confirmed empty result
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeConflict indicates a duplicate natural key
	ErrorTypeConflict ErrorType = "CONFLICT"
	// ErrorTypeStorageUnavailable indicates the backing file or connection is not accessible
	ErrorTypeStorageUnavailable ErrorType = "STORAGE_UNAVAILABLE"
	// ErrorTypeStorageCorrupt indicates a stored record cannot be decoded
	ErrorTypeStorageCorrupt ErrorType = "STORAGE_CORRUPT"
	// ErrorTypeNetworkFailure indicates retries against a remote service were exhausted
	ErrorTypeNetworkFailure ErrorType = "NETWORK_FAILURE"
	// ErrorTypeCancelled indicates a cooperative abort
	ErrorTypeCancelled ErrorType = "CANCELLED"
	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new application error
func New(errorType ErrorType, message string) error {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

// Wrap wraps an error with an application error
func Wrap(errorType ErrorType, message string, err error) error {
	return &AppError{
		Type:    errorType,
		Message: message,
		Err:     err,
	}
}

// Validation creates a validation error
func Validation(message string) error {
	return New(ErrorTypeValidation, message)
}

// Validationf creates a validation error with a formatted message
func Validationf(format string, args ...interface{}) error {
	return New(ErrorTypeValidation, fmt.Sprintf(format, args...))
}

// NotFound creates a not found error
func NotFound(message string) error {
	return New(ErrorTypeNotFound, message)
}

// Conflict creates a conflict error
func Conflict(message string) error {
	return New(ErrorTypeConflict, message)
}

// StorageUnavailable wraps an error raised while reaching durable storage
func StorageUnavailable(message string, err error) error {
	return Wrap(ErrorTypeStorageUnavailable, message, err)
}

// StorageCorrupt wraps a decode failure for a single stored record
func StorageCorrupt(message string, err error) error {
	return Wrap(ErrorTypeStorageCorrupt, message, err)
}

// NetworkFailure wraps the last cause after retries were exhausted
func NetworkFailure(message string, err error) error {
	return Wrap(ErrorTypeNetworkFailure, message, err)
}

// Cancelled wraps a context cancellation
func Cancelled(message string, err error) error {
	return Wrap(ErrorTypeCancelled, message, err)
}

// Internal creates an internal error
func Internal(message string) error {
	return New(ErrorTypeInternal, message)
}

// TypeOf returns the type of the outermost AppError in the chain, or "".
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ""
}

func isType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	return isType(err, ErrorTypeValidation)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return isType(err, ErrorTypeNotFound)
}

// IsConflict checks if an error is a conflict error
func IsConflict(err error) bool {
	return isType(err, ErrorTypeConflict)
}

// IsStorageUnavailable checks if an error is a storage unavailable error
func IsStorageUnavailable(err error) bool {
	return isType(err, ErrorTypeStorageUnavailable)
}

// IsStorageCorrupt checks if an error is a storage corrupt error
func IsStorageCorrupt(err error) bool {
	return isType(err, ErrorTypeStorageCorrupt)
}

// IsNetworkFailure checks if an error is a network failure error
func IsNetworkFailure(err error) bool {
	return isType(err, ErrorTypeNetworkFailure)
}

// IsCancelled checks if an error is a cancellation, typed or raw context error
func IsCancelled(err error) bool {
	if isType(err, ErrorTypeCancelled) {
		return true
	}
	return errors.Is(err, context.Canceled)
}

// IsInternal checks if an error is an internal error
func IsInternal(err error) bool {
	return isType(err, ErrorTypeInternal)
}

// IsDuplicateError checks if an error is a duplicate key error
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "duplicate key") ||
		strings.Contains(errStr, "UNIQUE constraint") ||
		strings.Contains(errStr, "duplicate entry")
}
