package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flightops/pkg/contracts/domain"
)

func TestParseTimestamp(t *testing.T) {
	anchor := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		value   string
		anchor  *time.Time
		want    *time.Time
		wantErr bool
	}{
		{
			name:  "iso without zone",
			value: "2025-01-01T10:00:00",
			want:  ptrTime(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)),
		},
		{
			name:  "space separated",
			value: "2025-01-01 11:30:00",
			want:  ptrTime(time.Date(2025, 1, 1, 11, 30, 0, 0, time.UTC)),
		},
		{
			name:  "us format with meridiem",
			value: "1/2/2025 3:04 PM",
			want:  ptrTime(time.Date(2025, 1, 2, 15, 4, 0, 0, time.UTC)),
		},
		{
			name:   "clock only anchored on date",
			value:  "09:15",
			anchor: &anchor,
			want:   ptrTime(time.Date(2025, 3, 14, 9, 15, 0, 0, time.UTC)),
		},
		{
			name:  "clock only without anchor uses zero date",
			value: "09:15:30",
			want:  ptrTime(time.Date(0, 1, 1, 9, 15, 30, 0, time.UTC)),
		},
		{
			name:  "blank is missing without error",
			value: "   ",
		},
		{
			name:    "garbage",
			value:   "not a time",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTimestamp(tt.value, tt.anchor)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "want %s got %s", tt.want, got)
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 1, 4, 0, 0, 0, 0, time.UTC)

	for _, value := range []string{"2025-01-04", "01/04/2025", "1/4/2025", "Jan 4, 2025", "2025-01-04 17:30:00"} {
		t.Run(value, func(t *testing.T) {
			got, err := ParseDate(value)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, want.Equal(*got))
		})
	}

	got, err := ParseDate("someday")
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestParseDate_MonthFirst(t *testing.T) {
	want := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)

	for _, value := range []string{"02/01/2025", "02-01-2025", "2/1/2025", "2-1-2025"} {
		t.Run(value, func(t *testing.T) {
			got, err := ParseDate(value)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, want.Equal(*got), got.String())
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		minutes *float64
		want    string
	}{
		{ptrFloat(90), "1 hr 30 min"},
		{ptrFloat(0), "0 hr 0 min"},
		{ptrFloat(59.9), "0 hr 59 min"},
		{ptrFloat(125.5), "2 hr 5 min"},
		{ptrFloat(600), "10 hr 0 min"},
		{nil, domain.DurationPlaceholder},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.minutes))
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		flag string
		want domain.FlightStatus
	}{
		{" YES ", domain.FlightStatusFail},
		{"yes", domain.FlightStatusFail},
		{"no", domain.FlightStatusPass},
		{"No\t", domain.FlightStatusPass},
		{"unclear", domain.FlightStatusUnknown},
		{"", domain.FlightStatusUnknown},
		{"y", domain.FlightStatusUnknown},
		{"yes please", domain.FlightStatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			got := ClassifyStatus(tt.flag)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.IsValid())
		})
	}
}

func ptrTime(t time.Time) *time.Time { return &t }

func ptrFloat(f float64) *float64 { return &f }
