package dataprocessing

import (
	"flightops/pkg/contracts/domain"
)

func rawRow(vehicle, pilot, takeoff, landing, date, incident string) domain.RawRecord {
	return domain.RawRecord{
		domain.ColumnVehicleName:      vehicle,
		domain.ColumnPilotName:        pilot,
		domain.ColumnTakeoffTime:      takeoff,
		domain.ColumnLandingTime:      landing,
		domain.ColumnDate:             date,
		domain.ColumnIncidentOccurred: incident,
	}
}

func sampleRawTable() *domain.RawTable {
	return &domain.RawTable{
		Columns: append([]string(nil), domain.RequiredColumns...),
		Records: []domain.RawRecord{
			rawRow("Trishul-07", "Asha", "2025-01-01T10:00:00", "2025-01-01T11:30:00", "2025-01-01", "no"),
			rawRow("Trishul-07", "Asha", "2025-01-01T13:00:00", "2025-01-01T13:45:00", "2025-01-01", " YES "),
			rawRow("Trishul-09", "Asha", "2025-01-02T09:00:00", "2025-01-02T09:20:00", "2025-01-02", "No"),
			rawRow("Trishul-09", "Ravi", "2025-01-02T10:00:00", "garbage", "2025-01-02", "unclear"),
			rawRow("Kamet-02", "Meera", "2025-01-03 08:00:00", "2025-01-03 08:50:00", "2025-01-03", "no"),
			rawRow("Kamet-02", "Meera", "08:00", "09:15", "01/04/2025", "yes"),
		},
	}
}
