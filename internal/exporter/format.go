package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"flightops/internal/dataprocessing"
	"flightops/pkg/contracts/domain"
)

// Format is an export file format
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts csv or xlsx in any case
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type for downloads
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Extension returns the file extension including the dot
func (f Format) Extension() string {
	return "." + string(f)
}

// Header returns the export column order for table
func Header(table *domain.FlightTable) []string {
	header := make([]string, 0, len(table.Columns)+len(domain.DerivedColumns))
	header = append(header, table.Columns...)
	return append(header, domain.DerivedColumns...)
}

// Row renders one record in Header order
func Row(columns []string, rec domain.FlightRecord) []string {
	row := make([]string, 0, len(columns)+len(domain.DerivedColumns))
	for _, col := range columns {
		row = append(row, sourceCell(col, rec))
	}
	return append(row,
		formatMinutes(rec.DurationMinutes),
		rec.DurationHuman,
		string(rec.FlightStatus),
		string(rec.Fleet),
	)
}

func sourceCell(col string, rec domain.FlightRecord) string {
	switch col {
	case domain.ColumnVehicleName:
		return rec.VehicleName
	case domain.ColumnPilotName:
		return rec.PilotName
	case domain.ColumnTakeoffTime:
		return formatTime(rec.TakeoffTime, dataprocessing.TimestampLayout)
	case domain.ColumnLandingTime:
		return formatTime(rec.LandingTime, dataprocessing.TimestampLayout)
	case domain.ColumnDate:
		return formatTime(rec.Date, dataprocessing.DateLayout)
	case domain.ColumnIncidentOccurred:
		return rec.IncidentOccurred
	default:
		return rec.Extra[col]
	}
}

func formatTime(t *time.Time, layout string) string {
	if t == nil {
		return ""
	}
	return t.Format(layout)
}

func formatMinutes(m *float64) string {
	if m == nil {
		return ""
	}
	return strconv.FormatFloat(*m, 'f', -1, 64)
}

// SnapshotName builds a timestamped file name for scheduled exports
func SnapshotName(prefix string, at time.Time, f Format) string {
	return fmt.Sprintf("%s_%s%s", prefix, at.UTC().Format("20060102T150405Z"), f.Extension())
}
