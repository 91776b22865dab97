package testutil

import (
	"context"
	"sync"

	"flightops/pkg/contracts/domain"
)

// SampleColumns is the header of the sample flight sheet, with one extra column.
var SampleColumns = []string{
	domain.ColumnVehicleName,
	domain.ColumnPilotName,
	domain.ColumnTakeoffTime,
	domain.ColumnLandingTime,
	domain.ColumnDate,
	domain.ColumnIncidentOccurred,
	"Remarks",
}

// SampleRows are six flights across two fleets. Trishul holds four flights
// totalling 155 minutes with one incident and one unparseable landing;
// Kamet holds two flights totalling 125 minutes with one incident.
var SampleRows = [][]string{
	{"Trishul-07", "Asha", "2025-01-01T10:00:00", "2025-01-01T11:30:00", "2025-01-01", "no", ""},
	{"Trishul-07", "Asha", "2025-01-01T13:00:00", "2025-01-01T13:45:00", "2025-01-01", " YES ", "prop strike"},
	{"Trishul-09", "Asha", "2025-01-02T09:00:00", "2025-01-02T09:20:00", "2025-01-02", "No", ""},
	{"Trishul-09", "Ravi", "2025-01-02T10:00:00", "garbage", "2025-01-02", "unclear", ""},
	{"Kamet-02", "Meera", "2025-01-03 08:00:00", "2025-01-03 08:50:00", "2025-01-03", "no", ""},
	{"Kamet-02", "Meera", "08:00", "09:15", "01/04/2025", "yes", "hard landing"},
}

// SampleRawTable builds a fresh copy of the sample sheet.
func SampleRawTable() *domain.RawTable {
	table := &domain.RawTable{Columns: append([]string(nil), SampleColumns...)}
	for _, row := range SampleRows {
		record := make(domain.RawRecord, len(SampleColumns))
		for i, col := range SampleColumns {
			record[col] = row[i]
		}
		table.Records = append(table.Records, record)
	}
	return table
}

// StaticSource is a record source that serves a fixed table or error and
// counts fetches. It is safe for concurrent use.
type StaticSource struct {
	mu    sync.Mutex
	table *domain.RawTable
	err   error
	calls int
}

// NewStaticSource returns a source that serves table.
func NewStaticSource(table *domain.RawTable) *StaticSource {
	return &StaticSource{table: table}
}

// Name identifies the source in logs
func (s *StaticSource) Name() string { return "static" }

// Fetch returns the configured table or error
func (s *StaticSource) Fetch(ctx context.Context) (*domain.RawTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.table, nil
}

// Set replaces the served table and clears any error
func (s *StaticSource) Set(table *domain.RawTable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table, s.err = table, nil
}

// Fail makes subsequent fetches return err
func (s *StaticSource) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Calls reports how many fetches were made
func (s *StaticSource) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
