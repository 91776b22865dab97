package domain

import (
	"time"
)

// Source column names. Matching is exact and case-sensitive.
const (
	ColumnVehicleName      = "Vehicle_Name"
	ColumnPilotName        = "Pilot_Name"
	ColumnTakeoffTime      = "Takeoff_Time"
	ColumnLandingTime      = "Landing_time"
	ColumnDate             = "Date"
	ColumnIncidentOccurred = "Incident_Occurred"
)

// Derived column names appended to exports.
const (
	ColumnDurationMinutes = "Duration_Min"
	ColumnDurationHuman   = "Duration_Human"
	ColumnFlightStatus    = "Flight_Status"
	ColumnGroup           = "Group"
)

// RequiredColumns lists the columns every source table must carry.
var RequiredColumns = []string{
	ColumnVehicleName,
	ColumnPilotName,
	ColumnTakeoffTime,
	ColumnLandingTime,
	ColumnDate,
	ColumnIncidentOccurred,
}

// DerivedColumns lists the computed columns in export order.
var DerivedColumns = []string{
	ColumnDurationMinutes,
	ColumnDurationHuman,
	ColumnFlightStatus,
	ColumnGroup,
}

// AllPilots is the pilot filter value that selects every record.
const AllPilots = "All"

// DurationPlaceholder renders a missing duration.
const DurationPlaceholder = "N/A"

// RawRecord is one untyped row keyed by column name.
type RawRecord map[string]string

// RawTable is the tabular payload returned by a record source.
type RawTable struct {
	Columns []string    `json:"columns"`
	Records []RawRecord `json:"records"`
}

// FlightStatus classifies a flight from its incident flag
type FlightStatus string

const (
	FlightStatusPass    FlightStatus = "Pass"
	FlightStatusFail    FlightStatus = "Fail"
	FlightStatusUnknown FlightStatus = "Unknown"
)

// FlightStatuses returns every status in display order.
func FlightStatuses() []FlightStatus {
	return []FlightStatus{FlightStatusPass, FlightStatusFail, FlightStatusUnknown}
}

// IsValid reports whether s is one of the known statuses
func (s FlightStatus) IsValid() bool {
	switch s {
	case FlightStatusPass, FlightStatusFail, FlightStatusUnknown:
		return true
	}
	return false
}

// FleetGroup is a fleet tag assigned from the vehicle name
type FleetGroup string

// FleetUnclassified is reserved for vehicles no mapping rule claims.
const FleetUnclassified FleetGroup = "Unclassified"

// FlightRecord represents one enriched flight row
type FlightRecord struct {
	Row              int               `json:"row"`
	VehicleName      string            `json:"vehicle_name"`
	PilotName        string            `json:"pilot_name"`
	TakeoffTime      *time.Time        `json:"takeoff_time,omitempty"`
	LandingTime      *time.Time        `json:"landing_time,omitempty"`
	Date             *time.Time        `json:"date,omitempty"`
	IncidentOccurred string            `json:"incident_occurred"`
	DurationMinutes  *float64          `json:"duration_minutes,omitempty"`
	DurationHuman    string            `json:"duration_human"`
	FlightStatus     FlightStatus      `json:"flight_status"`
	Fleet            FleetGroup        `json:"fleet"`
	Extra            map[string]string `json:"extra,omitempty"`
}

// HasDuration reports whether a duration could be derived
func (r FlightRecord) HasDuration() bool {
	return r.DurationMinutes != nil
}

// ParseWarning records a value that degraded to missing during transformation.
type ParseWarning struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// FlightTable is the enriched table produced by one refresh
type FlightTable struct {
	Columns  []string       `json:"columns"`
	Records  []FlightRecord `json:"records"`
	Warnings []ParseWarning `json:"warnings,omitempty"`
}

// Len returns the number of records
func (t *FlightTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}
