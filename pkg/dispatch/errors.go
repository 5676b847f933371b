package dispatch

import "fmt"

// APIError is the application-level error a handler raises intentionally.
// It carries a machine-readable code, an optional data payload and a human
// message, and is rendered as a structured response rather than a
// transport fault. Every other error returned by a handler propagates to
// the transport's own error handling.
type APIError struct {
	Code    string `json:"error"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAPIError creates a new APIError with the given code, data payload and
// message.
func NewAPIError(code string, data any, message string) *APIError {
	return &APIError{
		Code:    code,
		Data:    data,
		Message: message,
	}
}

// Common application error constructors for convenience

// ErrInvalidValue creates an error for an input field with an invalid value.
func ErrInvalidValue(field, message string) *APIError {
	return NewAPIError("value:invalid", field, message)
}

// ErrResourceNotFound creates an error for a resource that does not exist.
func ErrResourceNotFound(resource, message string) *APIError {
	return NewAPIError("value:notfound", resource, message)
}

// ErrPermissionDenied creates an error for an action the caller may not
// perform.
func ErrPermissionDenied(message string) *APIError {
	return NewAPIError("permission:forbidden", "permission", message)
}
