package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	apierrors "flightops/internal/errors"
	"flightops/internal/exporter"
	"flightops/internal/services"
	"flightops/pkg/contracts/domain"
)

// SessionHeader scopes persisted filter state
const SessionHeader = "X-Session-ID"

// DashboardServiceInterface defines the dashboard operations the handlers use
type DashboardServiceInterface interface {
	CheckFleet(fleet domain.FleetGroup) error
	Dashboard(ctx context.Context, q domain.Query) (*domain.Dashboard, error)
	Fleets(ctx context.Context) ([]domain.FleetInfo, error)
	Pilots(ctx context.Context, fleet domain.FleetGroup) ([]string, error)
	DronesByStatus(ctx context.Context, q domain.Query, status domain.FlightStatus) ([]string, error)
	Refresh(ctx context.Context) (services.RefreshResult, error)
	Export(ctx context.Context, w io.Writer, format exporter.Format, opts exporter.WriteOptions) error
}

// FilterStoreInterface persists the pilot selection per session and fleet
type FilterStoreInterface interface {
	Get(session string, fleet domain.FleetGroup) services.Filter
	Set(session string, fleet domain.FleetGroup, pilot string) (services.Filter, error)
}

// serviceError turns service sentinels into client errors; anything else is
// left for the error handler's domain mapping.
func serviceError(err error) error {
	switch {
	case errors.Is(err, services.ErrMissingSession):
		return apierrors.ErrMissingSession
	case errors.Is(err, services.ErrInvalidStatus):
		return apierrors.ErrValidation("status", err.Error())
	case errors.Is(err, services.ErrExportFailed):
		return apierrors.ExportFailed(err)
	default:
		return err
	}
}

func success(data interface{}) map[string]interface{} {
	return map[string]interface{}{
		"status": "success",
		"data":   data,
	}
}

func sessionID(r *http.Request) string {
	return r.Header.Get(SessionHeader)
}
