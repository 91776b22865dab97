package dataprocessing

import (
	"sort"

	"flightops/pkg/contracts/domain"
)

// FilterByFleet keeps records assigned to fleet
func FilterByFleet(records []domain.FlightRecord, fleet domain.FleetGroup) []domain.FlightRecord {
	out := make([]domain.FlightRecord, 0, len(records))
	for _, r := range records {
		if r.Fleet == fleet {
			out = append(out, r)
		}
	}
	return out
}

// FilterByPilot keeps records flown by pilot. An empty pilot or
// domain.AllPilots returns the input unchanged.
func FilterByPilot(records []domain.FlightRecord, pilot string) []domain.FlightRecord {
	if pilot == "" || pilot == domain.AllPilots {
		return records
	}
	out := make([]domain.FlightRecord, 0, len(records))
	for _, r := range records {
		if r.PilotName == pilot {
			out = append(out, r)
		}
	}
	return out
}

// Filter applies both halves of q
func Filter(records []domain.FlightRecord, q domain.Query) []domain.FlightRecord {
	return FilterByPilot(FilterByFleet(records, q.Fleet), q.Pilot)
}

// ComputeFleetTotals counts flights, sums known durations and counts failures.
func ComputeFleetTotals(records []domain.FlightRecord) domain.FleetTotals {
	totals := domain.FleetTotals{Flights: len(records)}
	for _, r := range records {
		if r.DurationMinutes != nil {
			totals.TotalMinutes += *r.DurationMinutes
		}
		if r.FlightStatus == domain.FlightStatusFail {
			totals.FailedFlights++
		}
	}
	totals.TotalTime = FormatMinutes(totals.TotalMinutes)
	return totals
}

// ComputeStatusDistribution counts records per status in Pass, Fail, Unknown
// order. Statuses absent from the data are omitted.
func ComputeStatusDistribution(records []domain.FlightRecord) []domain.StatusCount {
	counts := make(map[domain.FlightStatus]int, 3)
	for _, r := range records {
		counts[r.FlightStatus]++
	}

	dist := make([]domain.StatusCount, 0, len(counts))
	for _, status := range domain.FlightStatuses() {
		n := counts[status]
		if n == 0 {
			continue
		}
		dist = append(dist, domain.StatusCount{
			Status: status,
			Count:  n,
			Share:  float64(n) / float64(len(records)),
		})
	}
	return dist
}

// Pilots returns domain.AllPilots followed by the sorted distinct pilot names.
func Pilots(records []domain.FlightRecord) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0)
	for _, r := range records {
		if r.PilotName == "" {
			continue
		}
		if _, ok := seen[r.PilotName]; ok {
			continue
		}
		seen[r.PilotName] = struct{}{}
		names = append(names, r.PilotName)
	}
	sort.Strings(names)
	return append([]string{domain.AllPilots}, names...)
}

// DronesByStatus lists distinct vehicle names with at least one flight of
// the given status, in first-seen order.
func DronesByStatus(records []domain.FlightRecord, status domain.FlightStatus) []string {
	seen := make(map[string]struct{})
	drones := make([]string, 0)
	for _, r := range records {
		if r.FlightStatus != status || r.VehicleName == "" {
			continue
		}
		if _, ok := seen[r.VehicleName]; ok {
			continue
		}
		seen[r.VehicleName] = struct{}{}
		drones = append(drones, r.VehicleName)
	}
	return drones
}

// CountByFleet counts records per fleet
func CountByFleet(records []domain.FlightRecord) map[domain.FleetGroup]int {
	counts := make(map[domain.FleetGroup]int)
	for _, r := range records {
		counts[r.Fleet]++
	}
	return counts
}
