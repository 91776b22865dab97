package http

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "flightops/internal/errors"
	custommw "flightops/internal/middleware"
	"flightops/pkg/contracts/domain"
)

type ctxKey string

const fleetKey ctxKey = "fleet"

// fleetParams validates the {fleet} path segment
type fleetParams struct {
	Fleet string `json:"fleet" validate:"required,max=64"`
}

// dashboardParams are the query parameters of the dashboard view
type dashboardParams struct {
	Pilot string `query:"pilot" validate:"max=128"`
}

// dronesParams are the query parameters of the drones-by-status list
type dronesParams struct {
	Status string `query:"status" validate:"required,flight_status"`
	Pilot  string `query:"pilot" validate:"max=128"`
}

// FilterRequest is the body of PUT /api/fleets/{fleet}/filter
type FilterRequest struct {
	Pilot string `json:"pilot" validate:"max=128"`
}

// DashboardHandler serves the per-fleet views
type DashboardHandler struct {
	service      DashboardServiceInterface
	filters      FilterStoreInterface
	validator    *custommw.Validator
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, filters FilterStoreInterface, validator *custommw.Validator,
	logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		filters:      filters,
		validator:    validator,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/fleets", h.ListFleets)
	r.Route("/fleets/{fleet}", func(r chi.Router) {
		r.Use(h.FleetCtx)
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/pilots", h.GetPilots)
		r.Get("/drones", h.GetDrones)
		r.Get("/filter", h.GetFilter)
		r.With(custommw.ContentTypeValidator("application/json")).Put("/filter", h.PutFilter)
	})
	r.Post("/refresh", h.Refresh)

	return r
}

// FleetCtx validates the fleet path parameter and stores it in the context
func (h *DashboardHandler) FleetCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := chi.URLParam(r, "fleet")
		fleet, err := url.PathUnescape(raw)
		if err != nil {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("fleet", "fleet is not a valid path segment"))
			return
		}
		if err := h.validator.ValidateStruct(fleetParams{Fleet: fleet}); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		if err := h.service.CheckFleet(domain.FleetGroup(fleet)); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), fleetKey, domain.FleetGroup(fleet))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func fleetFrom(r *http.Request) domain.FleetGroup {
	fleet, _ := r.Context().Value(fleetKey).(domain.FleetGroup)
	return fleet
}

// ListFleets handles GET /api/fleets
func (h *DashboardHandler) ListFleets(w http.ResponseWriter, r *http.Request) {
	fleets, err := h.service.Fleets(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp := success(fleets)
	resp["count"] = len(fleets)
	render.JSON(w, r, resp)
}

// GetDashboard handles GET /api/fleets/{fleet}/dashboard. An explicit pilot
// parameter is remembered for the session; without one the session's stored
// selection is used.
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	fleet := fleetFrom(r)
	params := dashboardParams{Pilot: r.URL.Query().Get("pilot")}
	if err := h.validator.ValidateStruct(params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	session := sessionID(r)
	pilot := params.Pilot
	explicit := r.URL.Query().Has("pilot")
	if !explicit && session != "" {
		pilot = h.filters.Get(session, fleet).Pilot
	}

	view, err := h.service.Dashboard(r.Context(), domain.Query{Fleet: fleet, Pilot: pilot})
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}

	if explicit && session != "" {
		if _, err := h.filters.Set(session, fleet, pilot); err != nil {
			h.logger.WarnContext(r.Context(), "failed to remember pilot selection",
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.GetReqID(r.Context())))
		}
	}

	render.JSON(w, r, success(view))
}

// GetPilots handles GET /api/fleets/{fleet}/pilots
func (h *DashboardHandler) GetPilots(w http.ResponseWriter, r *http.Request) {
	pilots, err := h.service.Pilots(r.Context(), fleetFrom(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}

	resp := success(pilots)
	resp["count"] = len(pilots)
	render.JSON(w, r, resp)
}

// GetDrones handles GET /api/fleets/{fleet}/drones?status=&pilot=
func (h *DashboardHandler) GetDrones(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := dronesParams{Status: q.Get("status"), Pilot: q.Get("pilot")}
	if err := h.validator.ValidateStruct(params); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	status := domain.FlightStatus(params.Status)
	drones, err := h.service.DronesByStatus(r.Context(), domain.Query{Fleet: fleetFrom(r), Pilot: params.Pilot}, status)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}

	render.JSON(w, r, success(map[string]interface{}{
		"status": status,
		"drones": drones,
		"count":  len(drones),
	}))
}

// GetFilter handles GET /api/fleets/{fleet}/filter
func (h *DashboardHandler) GetFilter(w http.ResponseWriter, r *http.Request) {
	session := sessionID(r)
	if session == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrMissingSession)
		return
	}
	render.JSON(w, r, success(h.filters.Get(session, fleetFrom(r))))
}

// PutFilter handles PUT /api/fleets/{fleet}/filter
func (h *DashboardHandler) PutFilter(w http.ResponseWriter, r *http.Request) {
	var req FilterRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filter, err := h.filters.Set(sessionID(r), fleetFrom(r), req.Pilot)
	if err != nil {
		h.errorHandler.HandleError(w, r, serviceError(err))
		return
	}

	h.logger.DebugContext(r.Context(), "pilot selection stored",
		slog.String("fleet", string(filter.Fleet)),
		slog.String("pilot", filter.Pilot))
	render.JSON(w, r, success(filter))
}

// Refresh handles POST /api/refresh
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())
	h.logger.InfoContext(r.Context(), "forced refresh requested",
		slog.String("request_id", reqID))

	result, err := h.service.Refresh(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, success(result))
}
