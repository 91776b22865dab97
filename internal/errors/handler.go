package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"flightops/internal/dataprocessing"
	"flightops/internal/infrastructure"
	"flightops/internal/source"
)

// Problem type URIs
const (
	TypeValidation     = "/errors/validation"
	TypeNotFound       = "/errors/not-found"
	TypeUnknownFleet   = "/errors/fleet/unknown"
	TypeRateLimit      = "/errors/rate-limit"
	TypeInternal       = "/errors/internal"
	TypeServiceDown    = "/errors/service-unavailable"
	TypeTimeout        = "/errors/timeout"
	TypeMethod         = "/errors/method-not-allowed"
	TypeSchemaMismatch = "/errors/source/schema-mismatch"
	TypeSourceDown     = "/errors/source/unavailable"
	TypeExportFailed   = "/errors/export/failed"
)

// ErrorHandler converts errors into RFC 7807 responses
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError logs err and writes the matching problem response
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	problem := h.ErrorToProblem(err, r)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	h.stamp(problem, r)
	if h.includeStack && problem.Status >= http.StatusInternalServerError {
		problem.WithExtension("stack", getStackTrace())
	}
	problem.Write(w)
}

// ErrorToProblem maps an error onto RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	path := r.URL.Path

	// A source fetch that hit its own timeout still reports the source.
	var srcErr *source.SourceUnavailableError
	if errors.As(err, &srcErr) {
		return NewProblemDetails(http.StatusServiceUnavailable, TypeSourceDown, "Source Unavailable",
			fmt.Sprintf("The %s record source could not be read", srcErr.Source), path).
			WithExtension("error_code", CodeSourceUnavailable).
			WithExtension("source", srcErr.Source)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The request took too long to process and was cancelled", path).
			WithExtension("error_code", CodeTimeout)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErrorToProblem(apiErr, path)
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		return NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed",
			"Request validation failed", path).
			WithExtension("error_code", CodeValidationFailed).
			WithExtension("errors", FieldErrors(fieldErrs))
	}

	var schemaErr *dataprocessing.SchemaError
	if errors.As(err, &schemaErr) {
		problem := NewProblemDetails(http.StatusBadGateway, TypeSchemaMismatch, "Schema Mismatch",
			schemaErr.Error(), path).
			WithExtension("error_code", CodeSchemaMismatch).
			WithExtension("found", schemaErr.Found)
		if len(schemaErr.Missing) > 0 {
			problem.WithExtension("missing", schemaErr.Missing)
		}
		if len(schemaErr.Duplicate) > 0 {
			problem.WithExtension("duplicate", schemaErr.Duplicate)
		}
		return problem
	}

	if errors.Is(err, dataprocessing.ErrUnknownFleet) {
		return NewProblemDetails(http.StatusNotFound, TypeUnknownFleet, "Unknown Fleet",
			err.Error(), path).
			WithExtension("error_code", CodeUnknownFleet)
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"An unexpected error occurred while processing your request", path).
		WithExtension("error_code", CodeInternalServer)
}

// apiErrorToProblem converts APIError to ProblemDetails
func apiErrorToProblem(apiErr *APIError, path string) *ProblemDetails {
	problemType := TypeInternal
	switch apiErr.ErrorCode {
	case CodeInvalidRequest, CodeValidationFailed:
		problemType = TypeValidation
	case CodeNotFound:
		problemType = TypeNotFound
	case CodeUnknownFleet:
		problemType = TypeUnknownFleet
	case CodeRateLimitExceeded:
		problemType = TypeRateLimit
	case CodeServiceUnavailable:
		problemType = TypeServiceDown
	case CodeExportFailed:
		problemType = TypeExportFailed
	}

	problem := NewProblemDetails(apiErr.StatusCode, problemType,
		http.StatusText(apiErr.StatusCode), apiErr.Message, path).
		WithExtension("error_code", apiErr.ErrorCode)
	if apiErr.Details != nil {
		problem.WithExtension("details", apiErr.Details)
	}
	return problem
}

// FieldErrors flattens validator errors into field messages
func FieldErrors(errs validator.ValidationErrors) []ValidationError {
	out := make([]ValidationError, 0, len(errs))
	for _, fe := range errs {
		msg := fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		if fe.Param() != "" {
			msg = fmt.Sprintf("failed on the '%s=%s' rule", fe.Tag(), fe.Param())
		}
		out = append(out, ValidationError{Field: fe.Field(), Message: msg})
	}
	return out
}

// HandlePanic writes a 500 problem for a recovered panic
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal,
		"Internal Server Error", "An unexpected error occurred", r.URL.Path).
		WithExtension("error_code", CodeInternalServer)
	h.stamp(problem, r)

	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}
	problem.Write(w)
}

// NotFound returns a standard 404 error
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found",
		"The requested resource was not found", r.URL.Path)
	h.stamp(problem, r)
	problem.Write(w)
}

// MethodNotAllowed returns a standard 405 error
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	problem := NewProblemDetails(http.StatusMethodNotAllowed, TypeMethod, "Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method), r.URL.Path)
	h.stamp(problem, r)
	problem.Write(w)
}

// stamp attaches the request and trace ids
func (h *ErrorHandler) stamp(problem *ProblemDetails, r *http.Request) {
	ctx := r.Context()
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		problem.WithExtension("request_id", reqID)
	}
	if traceID := infrastructure.GetTraceID(ctx); traceID != "" {
		problem.WithExtension("trace_id", traceID)
	}
}

// getStackTrace returns the current goroutine's stack
func getStackTrace() string {
	buf := make([]byte, 1024*8)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
