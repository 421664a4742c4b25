package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried by AppError.
const (
	CodeNoSession            = "NO_SESSION"
	CodeBadResponse          = "BAD_RESPONSE"
	CodeTransportTimeout     = "TRANSPORT_TIMEOUT"
	CodeTransportUnreachable = "TRANSPORT_UNREACHABLE"
	CodeServerError          = "SERVER_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeValidation           = "VALIDATION_ERROR"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
)

// Messages shown when nothing more specific is available.
const (
	MsgNoSession         = "No active session, please sign in"
	MsgBadResponse       = "Unexpected response format"
	MsgTooLarge          = "The server response was too large"
	MsgTimeout           = "The server took too long to respond"
	MsgUnreachable       = "Unable to reach the server, check your connection"
	MsgInvalidCredential = "Invalid credentials"
)

// ErrorResponse is the error body exchanged with the API. Servers in the wild
// use either "message" or "error" for the human readable text.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// Text returns the first non-empty human readable field.
func (r ErrorResponse) Text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Error
}

// AppError represents a custom application error
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
func NewSessionError() *AppError {
	return &AppError{
		Code:    CodeNoSession,
		Message: MsgNoSession,
	}
}

func NewFormatError(err error) *AppError {
	return &AppError{
		Code:    CodeBadResponse,
		Message: MsgBadResponse,
		Err:     err,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
		Status:  http.StatusNotFound,
	}
}

func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

// IsCode reports whether err wraps an AppError with the given code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}
