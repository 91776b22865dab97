package domain

import "time"

// Query selects the subset of the table an aggregation runs over.
// An empty Pilot or AllPilots disables the pilot filter.
type Query struct {
	Fleet FleetGroup `json:"fleet" validate:"required,max=64"`
	Pilot string     `json:"pilot,omitempty" validate:"max=128"`
}

// PilotSelected reports whether the query narrows to a single pilot
func (q Query) PilotSelected() bool {
	return q.Pilot != "" && q.Pilot != AllPilots
}

// FleetTotals summarizes a fleet subset
type FleetTotals struct {
	Flights       int     `json:"flights"`
	TotalMinutes  float64 `json:"total_minutes"`
	TotalTime     string  `json:"total_time"`
	FailedFlights int     `json:"failed_flights"`
}

// StatusCount is one slice of the status distribution
type StatusCount struct {
	Status FlightStatus `json:"status"`
	Count  int          `json:"count"`
	Share  float64      `json:"share"`
}

// DroneSummary aggregates flights per vehicle
type DroneSummary struct {
	VehicleName  string  `json:"vehicle_name"`
	Flights      int     `json:"flights"`
	TotalMinutes float64 `json:"total_minutes"`
	TotalTime    string  `json:"total_time"`
}

// DailyLogRow counts one pilot's flights on one date
type DailyLogRow struct {
	SerialNo  int    `json:"serial_no"`
	PilotName string `json:"pilot_name"`
	Date      string `json:"date"`
	Flights   int    `json:"flights"`
}

// PilotLog is the drill-down for a single pilot
type PilotLog struct {
	PilotName    string        `json:"pilot_name"`
	Rows         []DailyLogRow `json:"rows"`
	TotalMinutes float64       `json:"total_minutes"`
	TotalTime    string        `json:"total_time"`
	Drones       []string      `json:"drones"`
}

// FleetInfo describes a configured fleet
type FleetInfo struct {
	Fleet   FleetGroup `json:"fleet"`
	Flights int        `json:"flights"`
}

// Dashboard bundles every view for one query
type Dashboard struct {
	Fleet     FleetGroup     `json:"fleet"`
	Pilot     string         `json:"pilot"`
	Totals    FleetTotals    `json:"totals"`
	Status    []StatusCount  `json:"status"`
	Drones    []DroneSummary `json:"drones"`
	DailyLog  *PilotLog      `json:"daily_log,omitempty"`
	Pilots    []string       `json:"pilots"`
	FetchedAt time.Time      `json:"fetched_at"`
	Stale     bool           `json:"stale"`
	Warnings  int            `json:"warnings"`
}
