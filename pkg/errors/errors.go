package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode int

// AppError represents an application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Err     error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrNotFound ErrorCode = iota + 1000
	ErrValidation
	ErrUnauthorized
	ErrForbidden
	ErrInternal
)

// Conflict error codes, one per business rule
const (
	ErrProcedureNotEligible ErrorCode = iota + 2000
	ErrOverpaymentRejected
	ErrSystemRoleImmutable
	ErrRoleInUse
	ErrConcurrentModification
	ErrDuplicate
)

// StatusCode maps an error code to an HTTP status
func (e *AppError) StatusCode() int {
	switch e.Code {
	case ErrNotFound:
		return http.StatusNotFound
	case ErrValidation:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrProcedureNotEligible, ErrOverpaymentRejected, ErrSystemRoleImmutable,
		ErrRoleInUse, ErrConcurrentModification, ErrDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error constructors
func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Err:     err,
	}
}

func Validation(message string) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: message,
	}
}

func Validationf(format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    ErrValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

func Internal(err error) *AppError {
	return &AppError{
		Code:    ErrInternal,
		Message: "internal server error",
		Err:     err,
	}
}

func Unauthorized(err error) *AppError {
	return &AppError{
		Code:    ErrUnauthorized,
		Message: "unauthorized",
		Err:     err,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    ErrForbidden,
		Message: message,
	}
}

func Conflict(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func ProcedureNotEligible(message string) *AppError {
	return Conflict(ErrProcedureNotEligible, message)
}

func OverpaymentRejected(message string) *AppError {
	return Conflict(ErrOverpaymentRejected, message)
}

func SystemRoleImmutable() *AppError {
	return Conflict(ErrSystemRoleImmutable, "system roles cannot be modified or deleted")
}

func RoleInUse() *AppError {
	return Conflict(ErrRoleInUse, "role is assigned to one or more active users")
}

func ConcurrentModification(resource string) *AppError {
	return Conflict(ErrConcurrentModification, fmt.Sprintf("%s was modified concurrently, retry the operation", resource))
}

func Duplicate(message string) *AppError {
	return Conflict(ErrDuplicate, message)
}

// As extracts an AppError from an error chain
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is reports whether err carries the given error code
func Is(err error, code ErrorCode) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}
