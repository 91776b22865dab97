package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"flightops/internal/dataprocessing"
	"flightops/pkg/contracts/domain"
)

var header = []string{"Vehicle_Name", "Pilot_Name", "Takeoff_Time", "Landing_time", "Date", "Incident_Occurred"}

func TestRowsToTable(t *testing.T) {
	tests := []struct {
		name        string
		rows        [][]string
		wantColumns []string
		wantRecords []domain.RawRecord
	}{
		{
			name:        "empty",
			rows:        nil,
			wantColumns: []string{},
			wantRecords: []domain.RawRecord{},
		},
		{
			name:        "header only",
			rows:        [][]string{{"A", "B"}},
			wantColumns: []string{"A", "B"},
			wantRecords: []domain.RawRecord{},
		},
		{
			name: "short rows padded and long rows truncated",
			rows: [][]string{
				{"A", "B"},
				{"1"},
				{"2", "3", "ignored"},
			},
			wantColumns: []string{"A", "B"},
			wantRecords: []domain.RawRecord{
				{"A": "1", "B": ""},
				{"A": "2", "B": "3"},
			},
		},
		{
			name: "blank rows skipped",
			rows: [][]string{
				{"A"},
				{" "},
				{},
				{"x"},
			},
			wantColumns: []string{"A"},
			wantRecords: []domain.RawRecord{{"A": "x"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := rowsToTable(tt.rows)
			assert.Equal(t, tt.wantColumns, table.Columns)
			assert.Equal(t, tt.wantRecords, table.Records)
		})
	}
}

func TestSourceUnavailableError(t *testing.T) {
	cause := errors.New("connection refused")
	err := unavailable("sheets", "read values", cause)

	assert.True(t, errors.Is(err, ErrSourceUnavailable))
	assert.True(t, errors.Is(err, cause))

	var srcErr *SourceUnavailableError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, "sheets", srcErr.Source)
	assert.Contains(t, err.Error(), "read values")
}

func TestCSVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flights.csv")
	content := "\xEF\xBB\xBF" + strings.Join(header, ",") + "\n" +
		"Trishul-07,Asha,2025-01-01 10:00:00,2025-01-01 11:30:00,2025-01-01,no\n" +
		"\"Kamet, 02\",Ravi,,,2025-01-02,yes\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := NewCSVSource(path, nil).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, header, table.Columns)
	require.Len(t, table.Records, 2)
	assert.Equal(t, "Trishul-07", table.Records[0]["Vehicle_Name"])
	assert.Equal(t, "Kamet, 02", table.Records[1]["Vehicle_Name"])
	assert.Equal(t, "", table.Records[1]["Takeoff_Time"])
}

func TestCSVSource_Missing(t *testing.T) {
	_, err := NewCSVSource(filepath.Join(t.TempDir(), "none.csv"), nil).Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestXLSXSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flights.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{
		"Trishul-07", "Asha", "2025-01-01 10:00:00", "2025-01-01 11:30:00", "2025-01-01", "no",
	}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := NewXLSXSource(path, "", nil).Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, header, table.Columns)
	require.Len(t, table.Records, 1)
	assert.Equal(t, "Asha", table.Records[0]["Pilot_Name"])

	_, err = NewXLSXSource(path, "NoSuchSheet", nil).Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestXLSXSource_TypedDateCells(t *testing.T) {
	path := filepath.Join(t.TempDir(), "typed.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{
		"Trishul-07", "Asha",
		time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 1, 11, 30, 0, 0, time.UTC),
		time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		"no",
	}))
	// clock-only serials with a time format on a typed date
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{
		"Kamet-02", "Ravi", 0.375, 0.40625, time.Date(2025, 2, 2, 0, 0, 0, 0, time.UTC), "yes",
	}))

	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	require.NoError(t, err)
	clockStyle, err := f.NewStyle(&excelize.Style{NumFmt: 20})
	require.NoError(t, err)
	require.NoError(t, f.SetCellStyle(sheet, "E2", "E3", dateStyle))
	require.NoError(t, f.SetCellStyle(sheet, "C3", "D3", clockStyle))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	raw, err := NewXLSXSource(path, "", nil).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, raw.Records, 2)
	assert.Equal(t, "2025-02-01 10:00:00", raw.Records[0]["Takeoff_Time"])
	assert.Equal(t, "2025-02-01", raw.Records[0]["Date"])
	assert.Equal(t, "09:00:00", raw.Records[1]["Takeoff_Time"])
	assert.Equal(t, "Trishul-07", raw.Records[0]["Vehicle_Name"])

	table, err := dataprocessing.Transform(raw, nil)
	require.NoError(t, err)
	assert.Empty(t, table.Warnings)

	require.NotNil(t, table.Records[0].DurationMinutes)
	assert.Equal(t, 90.0, *table.Records[0].DurationMinutes)
	require.NotNil(t, table.Records[1].DurationMinutes)
	assert.Equal(t, 45.0, *table.Records[1].DurationMinutes)
	require.NotNil(t, table.Records[1].TakeoffTime)
	assert.Equal(t, "2025-02-02 09:00:00", table.Records[1].TakeoffTime.Format(dataprocessing.TimestampLayout))
}

func TestXLSXSource_MissingFile(t *testing.T) {
	_, err := NewXLSXSource(filepath.Join(t.TempDir(), "none.xlsx"), "", nil).Fetch(context.Background())
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
}
