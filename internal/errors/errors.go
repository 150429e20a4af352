package errors

import (
	"errors"
	"fmt"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found, or that the caller is
	// not entitled to know it exists
	ErrNotFound = errors.New("resource not found")

	// ErrMessageNotFound is the single denial path for letters
	ErrMessageNotFound = NewAppError(ErrNotFound, "message not found", CodeNotFound)

	// ErrUserNotFound indicates the user was not found
	ErrUserNotFound = NewAppError(ErrNotFound, "user not found", CodeNotFound)

	// ErrDuplicateEntry indicates a unique constraint violation
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidState indicates the operation does not apply to the record in its current state
	ErrInvalidState = errors.New("invalid state")

	// ErrSecretMismatch indicates a wrong secret code was supplied on unlock
	ErrSecretMismatch = errors.New("secret code does not match")

	// ErrInvalidCredentials indicates a failed login
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrUnauthorized indicates a missing or invalid credential
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")
)

// Error codes for API responses
const (
	CodeNotFound       = "NOT_FOUND"
	CodeDuplicateEntry = "DUPLICATE_ENTRY"
	CodeInvalidInput   = "INVALID_INPUT"
	CodeInvalidState   = "INVALID_STATE"
	CodeSecretMismatch = "SECRET_MISMATCH"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeInternalError  = "INTERNAL_ERROR"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// Validation wraps ErrInvalidInput with a caller-facing message
func Validation(message string) *AppError {
	return NewAppError(ErrInvalidInput, message, CodeInvalidInput)
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateEntry checks if the error is a duplicate entry error
func IsDuplicateEntry(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsInvalidState checks if the error is an invalid state error
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsSecretMismatch checks if the error is a wrong secret code error
func IsSecretMismatch(err error) bool {
	return errors.Is(err, ErrSecretMismatch)
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}

	switch {
	case IsNotFound(err):
		return CodeNotFound
	case IsDuplicateEntry(err):
		return CodeDuplicateEntry
	case IsInvalidInput(err):
		return CodeInvalidInput
	case IsInvalidState(err):
		return CodeInvalidState
	case IsSecretMismatch(err):
		return CodeSecretMismatch
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidCredentials):
		return CodeUnauthorized
	default:
		return CodeInternalError
	}
}
