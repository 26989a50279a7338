package models

import (
	"errors"
	"fmt"
)

// ErrorResponse is the standardized error envelope the service returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError is the application error carried across the engine. Code is
// stable and drives the handling policy; Status is the HTTP status that
// produced it, when one exists.
type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
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

// Predefined error constructors
func NewUnauthorizedError(message string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: message, Status: 401}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: message, Status: 403}
}

func NewValidationError(message string) *AppError {
	return &AppError{Code: "VALIDATION_ERROR", Message: message, Status: 400}
}

func NewNotFoundError(resource string, id any) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
		Status:  404,
	}
}

func NewNetworkError(err error) *AppError {
	return &AppError{Code: "NETWORK_ERROR", Message: "request failed", Err: err}
}

func NewInternalError(err error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: "Internal server error", Status: 500, Err: err}
}

func code(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// IsUnauthorized reports whether err represents an authorization failure.
// These are always routed through the session gate, never shown inline.
func IsUnauthorized(err error) bool { return code(err) == "UNAUTHORIZED" }

// IsForbidden reports whether err is a local or remote permission denial.
func IsForbidden(err error) bool { return code(err) == "FORBIDDEN" }

// IsValidation reports whether err was rejected before any request was sent.
func IsValidation(err error) bool { return code(err) == "VALIDATION_ERROR" }

// IsNotFound reports whether err refers to a missing resource.
func IsNotFound(err error) bool { return code(err) == "NOT_FOUND" }
