package errors

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/bturcotte520/FlashCards/internal/session"
	"github.com/bturcotte520/FlashCards/internal/srs"
)

// Error codes
const (
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeBadRequest        = "BAD_REQUEST"
	ErrCodeInvalidQuality    = "INVALID_QUALITY"
	ErrCodePersistenceFailed = "PERSISTENCE_FAILED"
	ErrCodeConflict          = "CONFLICT"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodePayloadTooLarge   = "PAYLOAD_TOO_LARGE"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "VALIDATION_ERROR")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  400,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  400,
	}
}

// NewInvalidQualityError rejects an answer grade outside 0-5.
func NewInvalidQualityError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidQuality,
		Message: "quality must be between 0 and 5",
		Status:  422,
		Err:     err,
	}
}

// NewPersistenceFailedError reports that a review was scheduled but could
// not be written to storage.
func NewPersistenceFailedError(err error) *AppError {
	return &AppError{
		Code:    ErrCodePersistenceFailed,
		Message: "review was scheduled but could not be saved",
		Status:  503,
		Err:     err,
	}
}

// NewConflictError reports a request that does not fit the current state,
// such as answering a finished session.
func NewConflictError(message string, err error) *AppError {
	return &AppError{
		Code:    ErrCodeConflict,
		Message: message,
		Status:  409,
		Err:     err,
	}
}

// NewTimeoutError reports a request that ran out of time.
func NewTimeoutError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeTimeout,
		Message: "request timed out",
		Status:  504,
		Err:     err,
	}
}

// NewPayloadTooLargeError rejects an upload larger than limit bytes.
func NewPayloadTooLargeError(limit int64) *AppError {
	return &AppError{
		Code:    ErrCodePayloadTooLarge,
		Message: fmt.Sprintf("upload exceeds %d bytes", limit),
		Status:  413,
	}
}

// FromError maps err onto an AppError. Errors that already are AppErrors
// are returned as is; unknown errors become INTERNAL_ERROR.
func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	switch {
	case stderrors.As(err, &appErr):
		return appErr
	case stderrors.Is(err, srs.ErrInvalidQuality):
		return NewInvalidQualityError(err)
	case stderrors.Is(err, session.ErrPersistenceFailed):
		return NewPersistenceFailedError(err)
	case stderrors.Is(err, session.ErrSessionNotActive):
		return NewConflictError("session is not accepting answers", err)
	case stderrors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(err)
	default:
		return NewInternalError(err)
	}
}
