package dataprocessing

import (
	"sort"

	"flightops/pkg/contracts/domain"
)

// SummarizeDrones groups records by vehicle name. Rows are ordered by flight
// count descending, then by name. Blank vehicle names form their own group
// so the counts always add up to len(records).
func SummarizeDrones(records []domain.FlightRecord) []domain.DroneSummary {
	index := make(map[string]int)
	summaries := make([]domain.DroneSummary, 0)

	for _, r := range records {
		i, ok := index[r.VehicleName]
		if !ok {
			i = len(summaries)
			index[r.VehicleName] = i
			summaries = append(summaries, domain.DroneSummary{VehicleName: r.VehicleName})
		}
		summaries[i].Flights++
		if r.DurationMinutes != nil {
			summaries[i].TotalMinutes += *r.DurationMinutes
		}
	}

	for i := range summaries {
		summaries[i].TotalTime = FormatMinutes(summaries[i].TotalMinutes)
	}

	sort.SliceStable(summaries, func(a, b int) bool {
		if summaries[a].Flights != summaries[b].Flights {
			return summaries[a].Flights > summaries[b].Flights
		}
		return summaries[a].VehicleName < summaries[b].VehicleName
	})

	return summaries
}

// BuildPilotLog restricts records to pilot and counts flights per date.
// Records without a parsed date are left out of the rows but still count
// toward the pilot's total time and drone list.
func BuildPilotLog(records []domain.FlightRecord, pilot string) *domain.PilotLog {
	log := &domain.PilotLog{
		PilotName: pilot,
		Rows:      make([]domain.DailyLogRow, 0),
		Drones:    make([]string, 0),
	}

	perDay := make(map[string]int)
	seenDrone := make(map[string]struct{})

	for _, r := range records {
		if r.PilotName != pilot {
			continue
		}
		if r.DurationMinutes != nil {
			log.TotalMinutes += *r.DurationMinutes
		}
		if r.VehicleName != "" {
			if _, ok := seenDrone[r.VehicleName]; !ok {
				seenDrone[r.VehicleName] = struct{}{}
				log.Drones = append(log.Drones, r.VehicleName)
			}
		}
		if r.Date != nil {
			perDay[r.Date.Format(DateLayout)]++
		}
	}

	days := make([]string, 0, len(perDay))
	for day := range perDay {
		days = append(days, day)
	}
	sort.Strings(days)

	for i, day := range days {
		log.Rows = append(log.Rows, domain.DailyLogRow{
			SerialNo:  i + 1,
			PilotName: pilot,
			Date:      day,
			Flights:   perDay[day],
		})
	}

	log.TotalTime = FormatMinutes(log.TotalMinutes)
	return log
}

// BuildDashboard computes every view for q. The pilot list is taken from the
// whole fleet so the selector keeps its options while a pilot is selected.
func BuildDashboard(table *domain.FlightTable, q domain.Query) domain.Dashboard {
	var records []domain.FlightRecord
	if table != nil {
		records = table.Records
	}

	fleetRecords := FilterByFleet(records, q.Fleet)
	selected := FilterByPilot(fleetRecords, q.Pilot)

	pilot := q.Pilot
	if pilot == "" {
		pilot = domain.AllPilots
	}

	view := domain.Dashboard{
		Fleet:  q.Fleet,
		Pilot:  pilot,
		Totals: ComputeFleetTotals(selected),
		Status: ComputeStatusDistribution(selected),
		Drones: SummarizeDrones(selected),
		Pilots: Pilots(fleetRecords),
	}
	if table != nil {
		view.Warnings = len(table.Warnings)
	}
	if q.PilotSelected() {
		view.DailyLog = BuildPilotLog(selected, q.Pilot)
	}

	return view
}
