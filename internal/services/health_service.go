package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"flightops/internal/cache"
	"flightops/internal/exporter"
	"flightops/pkg/contracts"
)

// TableStatsProvider exposes the table cache counters
type TableStatsProvider interface {
	CacheStats() cache.Stats
}

// ClientCounter reports connected websocket clients
type ClientCounter interface {
	ClientCount() int
}

// ExportStatusProvider reports the most recent scheduled export
type ExportStatusProvider interface {
	LastRun() *exporter.RunResult
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	gitCommit string
	source    string
	table     TableStatsProvider
	clients   ClientCounter
	exports   ExportStatusProvider
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthOption configures optional health dependencies
type HealthOption func(*HealthService)

// WithBuildInfo attaches build metadata to version responses
func WithBuildInfo(buildTime, gitCommit string) HealthOption {
	return func(hs *HealthService) {
		hs.buildTime = buildTime
		hs.gitCommit = gitCommit
	}
}

// WithClients reports websocket clients in readiness
func WithClients(c ClientCounter) HealthOption {
	return func(hs *HealthService) {
		hs.clients = c
	}
}

// WithExports reports the scheduled export in readiness
func WithExports(e ExportStatusProvider) HealthOption {
	return func(hs *HealthService) {
		hs.exports = e
	}
}

// NewHealthService creates a health service reporting on table
func NewHealthService(version, sourceName string, table TableStatsProvider, logger *slog.Logger, opts ...HealthOption) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	hs := &HealthService{
		version:   version,
		source:    sourceName,
		table:     table,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
	for _, opt := range opts {
		opt(hs)
	}

	hs.logger.Info("HealthService initialized",
		slog.String("version", version),
		slog.String("source", sourceName))
	return hs
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck is ready once a flight table has been loaded
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services:  make(map[string]ServiceHealth),
	}

	status.Services["data"] = hs.checkDataHealth()
	if hs.clients != nil {
		status.Services["websocket"] = ServiceHealth{
			Status:  "ready",
			Details: map[string]int{"clients": hs.clients.ClientCount()},
		}
	}
	if hs.exports != nil {
		status.Services["export"] = hs.checkExportHealth()
	}

	for _, sh := range status.Services {
		if sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}

	if status.Status != "ready" {
		hs.logger.WarnContext(ctx, "ReadinessCheck: not ready")
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":       hs.version,
		"go_version":    runtime.Version(),
		"os":            runtime.GOOS,
		"arch":          runtime.GOARCH,
		"source":        hs.source,
		"export_format": contracts.ExportFormatVersion,
		"uptime":        time.Since(hs.startTime).Seconds(),
		"start_time":    hs.startTime.Format(time.RFC3339),
		"current_time":  time.Now().Format(time.RFC3339),
	}

	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.gitCommit != "" {
		result["git_commit"] = hs.gitCommit
	}
	return result
}

func (hs *HealthService) checkDataHealth() ServiceHealth {
	if hs.table == nil {
		return ServiceHealth{Status: "not_ready", Message: "dashboard service not initialized"}
	}

	stats := hs.table.CacheStats()
	if !stats.HasValue {
		return ServiceHealth{
			Status:  "not_ready",
			Message: "no flight table loaded yet",
			Details: stats,
		}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: "flight table loaded from " + hs.source,
		Details: stats,
	}
}

// A failed scheduled export is reported but does not block readiness.
func (hs *HealthService) checkExportHealth() ServiceHealth {
	last := hs.exports.LastRun()
	switch {
	case last == nil:
		return ServiceHealth{Status: "ready", Message: "no scheduled export has run yet"}
	case last.Error != "":
		return ServiceHealth{Status: "ready", Message: "last scheduled export failed", Details: last}
	default:
		return ServiceHealth{Status: "ready", Details: last}
	}
}
