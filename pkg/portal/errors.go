package portal

import (
	"errors"
	"fmt"
)

// Common error variables
var (
	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidLogin      = errors.New("invalid login")
	ErrInvalidUserRole   = errors.New("invalid user role")

	// Portfolio errors
	ErrPortfolioNotFound    = errors.New("portfolio not found")
	ErrInvalidPortfolioName = errors.New("invalid portfolio name")

	// Session errors
	ErrUnauthorized = errors.New("unauthorized")

	// General errors
	ErrInvalidInput     = errors.New("invalid input")
	ErrDatabaseError    = errors.New("database error")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInternalError    = errors.New("internal error")
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypePermission   ErrorType = "permission"
	ErrorTypeDatabase     ErrorType = "database"
	ErrorTypeInternal     ErrorType = "internal"
)

// PortalError represents a structured error with additional context
type PortalError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface
func (e *PortalError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause
func (e *PortalError) Unwrap() error {
	return e.Cause
}

// WithDetails returns a copy of the error carrying details
func (e *PortalError) WithDetails(details string) *PortalError {
	cp := *e
	cp.Details = details
	return &cp
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *PortalError {
	return &PortalError{Type: ErrorTypeNotFound, Code: code, Message: message}
}

// NewConflictError creates a new conflict error
func NewConflictError(code, message string) *PortalError {
	return &PortalError{Type: ErrorTypeConflict, Code: code, Message: message}
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string) *PortalError {
	return &PortalError{Type: ErrorTypeValidation, Code: code, Message: message}
}

// NewUnauthorizedError creates an error for requests without a valid session
func NewUnauthorizedError(code, message string) *PortalError {
	return &PortalError{Type: ErrorTypeUnauthorized, Code: code, Message: message}
}

// NewPermissionError creates a new permission error
func NewPermissionError(code, message string) *PortalError {
	return &PortalError{Type: ErrorTypePermission, Code: code, Message: message}
}

// NewDatabaseError creates a new database error
func NewDatabaseError(code, message string, cause error) *PortalError {
	return &PortalError{Type: ErrorTypeDatabase, Code: code, Message: message, Cause: cause}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *PortalError {
	return &PortalError{Type: ErrorTypeInternal, Code: code, Message: message, Cause: cause}
}

func isType(err error, t ErrorType) bool {
	var portalErr *PortalError
	if errors.As(err, &portalErr) {
		return portalErr.Type == t
	}
	return false
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return isType(err, ErrorTypeNotFound) ||
		errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrPortfolioNotFound)
}

// IsConflictError checks if the error is a conflict error
func IsConflictError(err error) bool {
	return isType(err, ErrorTypeConflict) || errors.Is(err, ErrUserAlreadyExists)
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return isType(err, ErrorTypeValidation) || errors.Is(err, ErrInvalidInput)
}

// IsUnauthorizedError checks if the error means the caller is not logged in
func IsUnauthorizedError(err error) bool {
	return isType(err, ErrorTypeUnauthorized) || errors.Is(err, ErrUnauthorized)
}

// IsPermissionError checks if the error is a permission error
func IsPermissionError(err error) bool {
	return isType(err, ErrorTypePermission) || errors.Is(err, ErrPermissionDenied)
}

// IsDatabaseError checks if the error is a database error
func IsDatabaseError(err error) bool {
	return isType(err, ErrorTypeDatabase) || errors.Is(err, ErrDatabaseError)
}

// IsInternalError checks if the error is an internal error
func IsInternalError(err error) bool {
	return isType(err, ErrorTypeInternal) || errors.Is(err, ErrInternalError)
}
