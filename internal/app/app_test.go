package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightops/internal/config"
	"flightops/internal/shared/testutil"
	"flightops/pkg/contracts/events"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	cfg.Security.AllowedOrigins = []string{"*"}
	cfg.Source.Kind = config.SourceCSV
	cfg.Source.FilePath = filepath.Join(t.TempDir(), "flights.csv")
	cfg.Export.Dir = t.TempDir()
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) (*Application, *testutil.StaticSource) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	src := testutil.NewStaticSource(testutil.SampleRawTable())

	app, err := NewApplicationWithSource(cfg, logger, src)
	require.NoError(t, err)
	return app, src
}

func do(t *testing.T, app *Application, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestNewRecordSource(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	tests := []struct {
		name    string
		cfg     config.SourceConfig
		want    string
		wantErr bool
	}{
		{name: "csv", cfg: config.SourceConfig{Kind: config.SourceCSV, FilePath: "flights.csv"}, want: "csv"},
		{name: "xlsx", cfg: config.SourceConfig{Kind: config.SourceXLSX, FilePath: "flights.xlsx"}, want: "xlsx"},
		{name: "sheets", cfg: config.SourceConfig{Kind: config.SourceSheets, SpreadsheetID: "abc"}, want: "sheets"},
		{name: "unknown", cfg: config.SourceConfig{Kind: "ftp"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src, err := NewRecordSource(tt.cfg, logger)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, src.Name(), tt.want)
		})
	}
}

func TestApplication_Routes(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t))

	t.Run("health", func(t *testing.T) {
		rec := do(t, app, http.MethodGet, "/api/health")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("not ready before first load", func(t *testing.T) {
		fresh, _ := newTestApp(t, testConfig(t))
		rec := do(t, fresh, http.MethodGet, "/api/health/ready")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("fleets", func(t *testing.T) {
		rec := do(t, app, http.MethodGet, "/api/fleets")
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "success", body["status"])
		assert.EqualValues(t, 2, body["count"])
	})

	t.Run("dashboard", func(t *testing.T) {
		rec := do(t, app, http.MethodGet, "/api/fleets/Trishul/dashboard")
		require.Equal(t, http.StatusOK, rec.Code)
		data := decode(t, rec)["data"].(map[string]interface{})
		totals := data["totals"].(map[string]interface{})
		assert.EqualValues(t, 4, totals["flights"])
		assert.Equal(t, "2 hr 35 min", totals["total_time"])
	})

	t.Run("ready after load", func(t *testing.T) {
		rec := do(t, app, http.MethodGet, "/api/health/ready")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown fleet", func(t *testing.T) {
		rec := do(t, app, http.MethodGet, "/api/fleets/Everest/dashboard")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/problem+json")
	})

	t.Run("csv export", func(t *testing.T) {
		rec := do(t, app, http.MethodGet, "/api/export/csv")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "filtered_flight_data.csv")
		lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
		assert.Len(t, lines, 1+len(testutil.SampleRows))
	})

	t.Run("metrics", func(t *testing.T) {
		rec := do(t, app, http.MethodGet, "/metrics")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := do(t, app, http.MethodGet, "/nowhere")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestApplication_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Telemetry.MetricsEnabled = false
	app, _ := newTestApp(t, cfg)

	rec := do(t, app, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplication_InvalidSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.Schedule = "not a schedule"
	logger, _ := testutil.NewTestLogger(t)

	_, err := NewApplicationWithSource(cfg, logger, testutil.NewStaticSource(testutil.SampleRawTable()))
	assert.Error(t, err)
}

func TestApplication_ServeBroadcastsRefresh(t *testing.T) {
	app, _ := newTestApp(t, testConfig(t))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	base := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/api/health/ready")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return app.WebSocketHub.ClientCount() == 1 },
		2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(base+"/api/refresh", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg events.Message
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == events.MessageTypeDataUpdate {
			break
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	// Stop is idempotent
	assert.NoError(t, app.Stop(context.Background()))
}
