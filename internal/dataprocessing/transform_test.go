package dataprocessing

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightops/pkg/contracts/domain"
)

func TestTransform(t *testing.T) {
	table, err := Transform(sampleRawTable(), DefaultFleetClassifier())
	require.NoError(t, err)
	require.Len(t, table.Records, 6)

	first := table.Records[0]
	require.NotNil(t, first.DurationMinutes)
	assert.Equal(t, 90.0, *first.DurationMinutes)
	assert.Equal(t, "1 hr 30 min", first.DurationHuman)
	assert.Equal(t, domain.FlightStatusPass, first.FlightStatus)
	assert.Equal(t, FleetTrishul, first.Fleet)
	assert.Equal(t, 1, first.Row)

	assert.Equal(t, domain.FlightStatusFail, table.Records[1].FlightStatus)
	assert.Equal(t, domain.FlightStatusUnknown, table.Records[3].FlightStatus)
	assert.Equal(t, FleetKamet, table.Records[4].Fleet)

	// unparseable landing degrades to missing
	garbage := table.Records[3]
	assert.Nil(t, garbage.LandingTime)
	assert.Nil(t, garbage.DurationMinutes)
	assert.Equal(t, domain.DurationPlaceholder, garbage.DurationHuman)

	// clock-only values anchored on Date
	anchored := table.Records[5]
	require.NotNil(t, anchored.TakeoffTime)
	assert.Equal(t, "2025-01-04 08:00:00", anchored.TakeoffTime.Format(TimestampLayout))
	require.NotNil(t, anchored.DurationMinutes)
	assert.Equal(t, 75.0, *anchored.DurationMinutes)

	require.Len(t, table.Warnings, 1)
	assert.Equal(t, domain.ParseWarning{
		Row:    4,
		Column: domain.ColumnLandingTime,
		Value:  "garbage",
		Reason: ReasonUnparseableTimestamp,
	}, table.Warnings[0])
}

func TestTransform_ProvidedExample(t *testing.T) {
	raw := &domain.RawTable{
		Columns: domain.RequiredColumns,
		Records: []domain.RawRecord{
			rawRow("Trishul-07", "P", "2025-01-01T10:00:00", "2025-01-01T11:30:00", "2025-01-01", " YES "),
			rawRow("Kamet-02", "P", "", "", "", "no"),
		},
	}

	table, err := Transform(raw, nil)
	require.NoError(t, err)

	assert.Equal(t, 90.0, *table.Records[0].DurationMinutes)
	assert.Equal(t, "1 hr 30 min", table.Records[0].DurationHuman)
	assert.Equal(t, domain.FlightStatusFail, table.Records[0].FlightStatus)
	assert.Equal(t, FleetTrishul, table.Records[0].Fleet)

	assert.Nil(t, table.Records[1].DurationMinutes)
	assert.Equal(t, domain.FlightStatusPass, table.Records[1].FlightStatus)
	assert.Equal(t, FleetKamet, table.Records[1].Fleet)
	assert.Empty(t, table.Warnings, "blank values are missing, not warnings")
}

func TestTransform_NegativeDurationIsMissing(t *testing.T) {
	raw := &domain.RawTable{
		Columns: domain.RequiredColumns,
		Records: []domain.RawRecord{
			rawRow("Kamet-01", "P", "2025-01-01 12:00:00", "2025-01-01 11:00:00", "2025-01-01", "no"),
		},
	}

	table, err := Transform(raw, nil)
	require.NoError(t, err)

	rec := table.Records[0]
	assert.NotNil(t, rec.TakeoffTime)
	assert.NotNil(t, rec.LandingTime)
	assert.Nil(t, rec.DurationMinutes)
	assert.Equal(t, domain.DurationPlaceholder, rec.DurationHuman)
	require.Len(t, table.Warnings, 1)
	assert.Equal(t, ReasonNegativeDuration, table.Warnings[0].Reason)
}

func TestTransform_SchemaMismatch(t *testing.T) {
	raw := &domain.RawTable{
		Columns: []string{"Vehicle_Name", "Pilot_Name", "Takeoff_Time", "landing_time", "Date", "Incident_Occurred"},
		Records: []domain.RawRecord{{"Vehicle_Name": "Kamet-01"}},
	}

	table, err := Transform(raw, nil)
	assert.Nil(t, table)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{domain.ColumnLandingTime}, schemaErr.Missing)
}

func TestTransform_ExtraColumnsCarried(t *testing.T) {
	raw := sampleRawTable()
	raw.Columns = append(raw.Columns, "Remarks")
	raw.Records[0]["Remarks"] = "windy"

	table, err := Transform(raw, nil)
	require.NoError(t, err)

	assert.Equal(t, "windy", table.Records[0].Extra["Remarks"])
	assert.Equal(t, "", table.Records[1].Extra["Remarks"])
	assert.Equal(t, raw.Columns, table.Columns)
}

func TestTransform_Idempotent(t *testing.T) {
	raw := sampleRawTable()

	first, err := Transform(raw, DefaultFleetClassifier())
	require.NoError(t, err)
	second, err := Transform(raw, DefaultFleetClassifier())
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Transform not idempotent (-first +second):\n%s", diff)
	}
}

func TestTransform_Invariants(t *testing.T) {
	table, err := Transform(sampleRawTable(), nil)
	require.NoError(t, err)

	for _, rec := range table.Records {
		assert.True(t, rec.FlightStatus.IsValid())
		assert.NotEmpty(t, rec.Fleet)
		assert.Equal(t, ClassifyStatus(rec.IncidentOccurred), rec.FlightStatus)
		if rec.DurationMinutes != nil {
			assert.GreaterOrEqual(t, *rec.DurationMinutes, 0.0)
		}
	}
}
