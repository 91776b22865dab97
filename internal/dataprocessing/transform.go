package dataprocessing

import (
	"time"

	"flightops/pkg/contracts/domain"
)

// Warning reasons attached to domain.ParseWarning.
const (
	ReasonUnparseableTimestamp = "unparseable timestamp"
	ReasonUnparseableDate      = "unparseable date"
	ReasonNegativeDuration     = "landing before takeoff"
)

// Transform validates the raw table and derives the enriched flight table.
// It fails only on a schema mismatch; bad values degrade to missing with a
// warning. A nil classifier uses DefaultFleetClassifier.
func Transform(raw *domain.RawTable, classifier *FleetClassifier) (*domain.FlightTable, error) {
	columns, err := ValidateSchema(raw)
	if err != nil {
		return nil, err
	}
	if classifier == nil {
		classifier = DefaultFleetClassifier()
	}

	// Source copies of derived columns are dropped so recomputed values
	// replace them, as happens when a previous export is loaded again.
	kept := make([]string, 0, len(columns))
	var extraColumns []string
	for _, col := range columns {
		if isDerivedColumn(col) {
			continue
		}
		kept = append(kept, col)
		if !isRequiredColumn(col) {
			extraColumns = append(extraColumns, col)
		}
	}

	table := &domain.FlightTable{
		Columns: kept,
		Records: make([]domain.FlightRecord, 0, len(raw.Records)),
	}

	for i, rec := range raw.Records {
		record, warnings := transformRecord(i+1, rec, extraColumns, classifier)
		table.Records = append(table.Records, record)
		table.Warnings = append(table.Warnings, warnings...)
	}

	return table, nil
}

func transformRecord(row int, rec domain.RawRecord, extraColumns []string, classifier *FleetClassifier) (domain.FlightRecord, []domain.ParseWarning) {
	var warnings []domain.ParseWarning
	warn := func(column, reason string) {
		warnings = append(warnings, domain.ParseWarning{
			Row:    row,
			Column: column,
			Value:  rec[column],
			Reason: reason,
		})
	}

	record := domain.FlightRecord{
		Row:              row,
		VehicleName:      rec[domain.ColumnVehicleName],
		PilotName:        rec[domain.ColumnPilotName],
		IncidentOccurred: rec[domain.ColumnIncidentOccurred],
	}

	date, err := ParseDate(rec[domain.ColumnDate])
	if err != nil {
		warn(domain.ColumnDate, ReasonUnparseableDate)
	}
	record.Date = date

	record.TakeoffTime = parseTimestampField(rec, domain.ColumnTakeoffTime, date, warn)
	record.LandingTime = parseTimestampField(rec, domain.ColumnLandingTime, date, warn)

	if record.TakeoffTime != nil && record.LandingTime != nil {
		minutes := record.LandingTime.Sub(*record.TakeoffTime).Minutes()
		if minutes < 0 {
			warn(domain.ColumnLandingTime, ReasonNegativeDuration)
		} else {
			record.DurationMinutes = &minutes
		}
	}

	record.DurationHuman = FormatDuration(record.DurationMinutes)
	record.FlightStatus = ClassifyStatus(record.IncidentOccurred)
	record.Fleet = classifier.Classify(record.VehicleName)

	if len(extraColumns) > 0 {
		record.Extra = make(map[string]string, len(extraColumns))
		for _, col := range extraColumns {
			record.Extra[col] = rec[col]
		}
	}

	return record, warnings
}

func parseTimestampField(rec domain.RawRecord, column string, anchor *time.Time, warn func(column, reason string)) *time.Time {
	t, err := ParseTimestamp(rec[column], anchor)
	if err != nil {
		warn(column, ReasonUnparseableTimestamp)
		return nil
	}
	return t
}
