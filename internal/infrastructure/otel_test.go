package infrastructure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitializeOTel_MetricsExposed(t *testing.T) {
	cfg := DefaultOTelConfig()
	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	require.NotNil(t, providers.PrometheusHTTP)
	assert.Nil(t, providers.TracerProvider)

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	metrics.RecordRefresh(ctx, "success", 120*time.Millisecond, 6, 1)
	metrics.RecordCacheLookup(ctx, "hit")
	metrics.RecordExport(ctx, "csv", "http")

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "flightops_refresh_total")
	assert.Contains(t, body, "flightops_records_ingested_total")
	assert.Contains(t, body, "flightops_cache_lookups_total")
	assert.Contains(t, body, "flightops_exports_total")
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.TraceExporter = "zipkin"

	_, err := InitializeOTel(cfg, quietLogger())
	assert.Error(t, err)
}

func TestInitializeOTel_MetricsDisabled(t *testing.T) {
	cfg := DefaultOTelConfig()
	cfg.EnableMetrics = false

	providers, err := InitializeOTel(cfg, quietLogger())
	require.NoError(t, err)
	assert.Nil(t, providers.PrometheusHTTP)

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)
	metrics.RecordSystemError(context.Background(), "test", "otel_test")
}

func TestBusinessMetrics_NilSafe(t *testing.T) {
	var m *BusinessMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordRefresh(ctx, "failure", time.Second, 0, 0)
		m.RecordCacheLookup(ctx, "miss")
		m.RecordExport(ctx, "xlsx", "schedule")
		m.RecordSystemError(ctx, "x", "y")
	})
	assert.NotNil(t, NoopBusinessMetrics())
}

func TestTraceIDFromContext_NoSpan(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()))
}
