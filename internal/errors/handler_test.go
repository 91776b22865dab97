package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightops/internal/dataprocessing"
	"flightops/internal/shared/testutil"
	"flightops/internal/source"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	type query struct {
		Status string `validate:"oneof=Pass Fail Unknown"`
	}
	fieldErr := validator.New().Struct(query{Status: "Maybe"})
	require.Error(t, fieldErr)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{
			name:       "schema mismatch",
			err:        fmt.Errorf("refresh: %w", &dataprocessing.SchemaError{Missing: []string{"Landing_time"}, Found: []string{"landing_time"}}),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeSchemaMismatch,
			wantCode:   CodeSchemaMismatch,
		},
		{
			name:       "source unavailable",
			err:        fmt.Errorf("refresh: %w", &source.SourceUnavailableError{Source: "sheets", Op: "values.get", Err: fmt.Errorf("403")}),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeSourceDown,
			wantCode:   CodeSourceUnavailable,
		},
		{
			name:       "source fetch timed out",
			err:        fmt.Errorf("refresh: %w", &source.SourceUnavailableError{Source: "sheets", Op: "values.get", Err: context.DeadlineExceeded}),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeSourceDown,
			wantCode:   CodeSourceUnavailable,
		},
		{
			name:       "unknown fleet",
			err:        fmt.Errorf("%w: Everest", dataprocessing.ErrUnknownFleet),
			wantStatus: http.StatusNotFound,
			wantType:   TypeUnknownFleet,
			wantCode:   CodeUnknownFleet,
		},
		{
			name:       "validator errors",
			err:        fieldErr,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   CodeValidationFailed,
		},
		{
			name:       "api error",
			err:        ErrMissingSession,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   CodeInvalidRequest,
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("fetch: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantCode:   CodeTimeout,
		},
		{
			name:       "unexpected",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantCode:   CodeInternalServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/fleets/Trishul/dashboard", nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-1"))
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, ProblemContentType, rec.Header().Get("Content-Type"))

			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, tt.wantCode, body["error_code"])
			assert.EqualValues(t, tt.wantStatus, body["status"])
			assert.Equal(t, "/api/fleets/Trishul/dashboard", body["instance"])
			assert.Equal(t, "req-1", body["request_id"])
			assert.NotContains(t, body, "stack")
		})
	}
}

func TestErrorHandler_NilErrorWritesNothing(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	rec := httptest.NewRecorder()

	NewErrorHandler(logger, false).HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, rec.Body.Len())
	assert.Equal(t, 0, handler.Count())
}

func TestErrorHandler_SchemaExtensions(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	rec := httptest.NewRecorder()
	err := &dataprocessing.SchemaError{
		Missing: []string{"Landing_time"},
		Found:   []string{"Vehicle_Name", "landing_time"},
	}

	NewErrorHandler(logger, true).HandleError(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil), err)

	body := decodeProblem(t, rec)
	assert.Equal(t, []interface{}{"Landing_time"}, body["missing"])
	assert.Equal(t, []interface{}{"Vehicle_Name", "landing_time"}, body["found"])
	assert.Contains(t, body, "stack")
	testutil.AssertLogContains(t, handler, slog.LevelError, "request failed")
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	panicky := RecoveryMiddleware(h)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("exploded")
	}))

	rec := httptest.NewRecorder()
	panicky.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/fleets", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeInternal, body["type"])
	assert.NotContains(t, body, "panic")
	assert.True(t, handler.ContainsMessage("panic recovered"))
}

func TestErrorHandler_NotFoundAndMethod(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/refresh", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "DELETE")
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	p := NewProblemDetails(http.StatusBadGateway, TypeSchemaMismatch, "Schema Mismatch", "", "").
		WithExtension("type", "overridden").
		WithExtension("found", []string{"a"})

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, TypeSchemaMismatch, body["type"])
	assert.NotContains(t, body, "detail")
	assert.NotContains(t, body, "instance")
}
