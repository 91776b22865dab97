package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError is a client-facing error with a stable code. The error handler
// renders it as a problem document.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError describes one rejected field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the details payload of CodeValidationFailed
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Error codes carried in the error_code extension
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeUnknownFleet       = "UNKNOWN_FLEET"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeSchemaMismatch     = "SCHEMA_MISMATCH"
	CodeSourceUnavailable  = "SOURCE_UNAVAILABLE"
	CodeExportFailed       = "EXPORT_FAILED"
	CodeInternalServer     = "INTERNAL_SERVER_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeTimeout            = "REQUEST_TIMEOUT"
)

// ErrMissingSession rejects filter requests without an X-Session-ID header
var ErrMissingSession = New(http.StatusBadRequest, CodeInvalidRequest, "X-Session-ID header is required")

// New creates an APIError
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// NewWithDetails creates an APIError carrying a details extension
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	e := New(statusCode, errorCode, message)
	e.Details = details
	return e
}

// InvalidRequestWithError rejects a malformed request body
func InvalidRequestWithError(err error) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", err.Error())
}

// ErrValidation rejects a single field
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

// NewValidationErrors rejects several fields at once
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, CodeValidationFailed, "Request validation failed",
		ValidationErrors{Errors: errs})
}

// NotFoundError reports a missing resource by name
func NotFoundError(resource string) *APIError {
	return NewWithDetails(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found", resource), resource)
}

// ExportFailed reports a table that loaded but could not be encoded
func ExportFailed(err error) *APIError {
	return NewWithDetails(http.StatusInternalServerError, CodeExportFailed, "Export could not be written", err.Error())
}
