package source

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

// fakeGoogleAPI serves the Drive files.list, spreadsheets.get and
// spreadsheets.values.get calls made by SheetsSource.
type fakeGoogleAPI struct {
	driveFiles  []map[string]string
	valueCalls  atomic.Int32
	driveCalls  atomic.Int32
	failValues  bool
	renderParam atomic.Value
}

func (f *fakeGoogleAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.URL.Path == "/files":
		f.driveCalls.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"files": f.driveFiles})
	case strings.Contains(r.URL.Path, "/values/"):
		f.valueCalls.Add(1)
		f.renderParam.Store(r.URL.Query().Get("valueRenderOption"))
		if f.failValues {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":{"code":403,"message":"denied"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"range":          "'Flight Log'!A1:F3",
			"majorDimension": "ROWS",
			"values": [][]interface{}{
				{"Vehicle_Name", "Pilot_Name", "Takeoff_Time", "Landing_time", "Date", "Incident_Occurred"},
				{"Trishul-07", "Asha", "2025-01-01 10:00:00", "2025-01-01 11:30:00", "2025-01-01", "no"},
				{"Kamet-02", "Ravi", "2025-01-02 10:00:00", "2025-01-02 10:45:00", "2025-01-02"},
			},
		})
	case strings.HasPrefix(r.URL.Path, "/v4/spreadsheets/"):
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"sheets": []map[string]interface{}{
				{"properties": map[string]interface{}{"title": "Flight Log"}},
			},
		})
	default:
		http.NotFound(w, r)
	}
}

func newFakeSheetsSource(t *testing.T, api *fakeGoogleAPI, cfg SheetsConfig) *SheetsSource {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return NewSheetsSource(cfg, nil, nil,
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
}

func TestSheetsSource_FetchByID(t *testing.T) {
	api := &fakeGoogleAPI{}
	src := newFakeSheetsSource(t, api, SheetsConfig{SpreadsheetID: "sheet-123"})

	table, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, header, table.Columns)
	require.Len(t, table.Records, 2)
	assert.Equal(t, "Trishul-07", table.Records[0]["Vehicle_Name"])
	assert.Equal(t, "", table.Records[1]["Incident_Occurred"], "trailing empty cells are omitted by the API")
	assert.Equal(t, "FORMATTED_VALUE", api.renderParam.Load())
	assert.Equal(t, int32(0), api.driveCalls.Load())
}

func TestSheetsSource_ResolvesNameOnce(t *testing.T) {
	api := &fakeGoogleAPI{driveFiles: []map[string]string{{"id": "sheet-123", "name": "Pre-Post Flight Data"}}}
	src := newFakeSheetsSource(t, api, SheetsConfig{SpreadsheetName: "Pre-Post Flight Data"})

	_, err := src.Fetch(context.Background())
	require.NoError(t, err)
	_, err = src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int32(1), api.driveCalls.Load())
	assert.Equal(t, int32(2), api.valueCalls.Load())
}

func TestSheetsSource_NotFound(t *testing.T) {
	api := &fakeGoogleAPI{}
	src := newFakeSheetsSource(t, api, SheetsConfig{SpreadsheetName: "Missing"})

	_, err := src.Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
	assert.True(t, errors.Is(err, ErrSpreadsheetNotFound))
}

func TestSheetsSource_APIError(t *testing.T) {
	api := &fakeGoogleAPI{failValues: true}
	src := newFakeSheetsSource(t, api, SheetsConfig{SpreadsheetID: "sheet-123", SheetName: "Flight Log"})

	table, err := src.Fetch(context.Background())
	assert.Nil(t, table)

	var srcErr *SourceUnavailableError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, "read values", srcErr.Op)
}

type failingCredentials struct{}

func (failingCredentials) Load(context.Context) ([]byte, error) {
	return nil, errors.New("no credentials")
}

func TestSheetsSource_CredentialFailure(t *testing.T) {
	src := NewSheetsSource(SheetsConfig{SpreadsheetID: "x"}, failingCredentials{}, nil)

	_, err := src.Fetch(context.Background())
	var srcErr *SourceUnavailableError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, "load credentials", srcErr.Op)
}
