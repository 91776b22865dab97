package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"flightops/internal/services"
)

// HealthServiceInterface is what the probes read
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}

// HealthHandler serves the probe endpoints. Responses are never cached.
type HealthHandler struct {
	service HealthServiceInterface
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(service HealthServiceInterface) *HealthHandler {
	return &HealthHandler{service: service}
}

// Routes mounts /health, /health/ready, /health/live and /version
func (h *HealthHandler) Routes(r chi.Router) {
	r.Get("/health", h.HealthCheck)
	r.Get("/health/ready", h.ReadinessCheck)
	r.Get("/health/live", h.LivenessCheck)
	r.Get("/version", h.Version)
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.probe(w, r, h.service.HealthCheck(r.Context()), true)
}

// ReadinessCheck answers 503 until a flight table has been loaded
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := h.service.ReadinessCheck(r.Context())
	h.probe(w, r, status, status.Status == "ready")
}

func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	h.probe(w, r, h.service.LivenessCheck(r.Context()), true)
}

func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Version())
}

func (h *HealthHandler) probe(w http.ResponseWriter, r *http.Request, status services.HealthStatus, ok bool) {
	w.Header().Set("Cache-Control", "no-store")
	if !ok {
		render.Status(r, http.StatusServiceUnavailable)
	}
	render.JSON(w, r, status)
}
