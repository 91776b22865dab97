package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"flightops/internal/cache"
	"flightops/internal/dataprocessing"
	"flightops/internal/exporter"
	"flightops/internal/infrastructure"
	"flightops/internal/source"
	"flightops/pkg/contracts/domain"
	"flightops/pkg/contracts/events"
)

// Notifier receives refresh outcomes. The websocket hub implements it.
type Notifier interface {
	BroadcastDataUpdate(ctx context.Context, update events.DataUpdate)
	BroadcastRefreshFailed(ctx context.Context, failure events.RefreshFailed)
}

// DashboardConfig tunes the dashboard service
type DashboardConfig struct {
	CacheTTL     time.Duration
	FetchTimeout time.Duration
	MaxFilters   int
	Clock        func() time.Time
}

// RefreshResult summarizes a forced refresh
type RefreshResult struct {
	FetchedAt time.Time          `json:"fetched_at"`
	Records   int                `json:"records"`
	Warnings  int                `json:"warnings"`
	Stale     bool               `json:"stale"`
	Error     string             `json:"error,omitempty"`
	Fleets    []domain.FleetInfo `json:"fleets,omitempty"`
}

// DashboardService serves aggregated views over the cached flight table
type DashboardService struct {
	source       source.RecordSource
	classifier   *dataprocessing.FleetClassifier
	cache        *cache.Cache[*domain.FlightTable]
	filters      *FilterStore
	notifier     Notifier
	metrics      *infrastructure.BusinessMetrics
	logger       *slog.Logger
	fetchTimeout time.Duration
}

// NewDashboardService wires the cache around src. notifier and metrics may be nil.
func NewDashboardService(cfg DashboardConfig, src source.RecordSource, classifier *dataprocessing.FleetClassifier,
	notifier Notifier, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if metrics == nil {
		metrics = infrastructure.NoopBusinessMetrics()
	}
	if classifier == nil {
		classifier = dataprocessing.DefaultFleetClassifier()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 20 * time.Second
	}

	s := &DashboardService{
		source:       src,
		classifier:   classifier,
		filters:      NewFilterStore(cfg.MaxFilters),
		notifier:     notifier,
		metrics:      metrics,
		logger:       logger.With(slog.String("component", "dashboard_service")),
		fetchTimeout: cfg.FetchTimeout,
	}

	opts := []cache.Option[*domain.FlightTable]{cache.WithOnUpdate(s.published)}
	if cfg.Clock != nil {
		opts = append(opts, cache.WithClock[*domain.FlightTable](cfg.Clock))
	}
	s.cache = cache.New(cfg.CacheTTL, s.load, opts...)

	s.logger.Info("DashboardService initialized",
		slog.String("source", src.Name()),
		slog.Duration("cache_ttl", cfg.CacheTTL),
		slog.Duration("fetch_timeout", cfg.FetchTimeout))
	return s
}

// Filters returns the per-session filter store
func (s *DashboardService) Filters() *FilterStore {
	return s.filters
}

// Classifier returns the fleet mapping in use
func (s *DashboardService) Classifier() *dataprocessing.FleetClassifier {
	return s.classifier
}

// CacheStats reports cache counters
func (s *DashboardService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// Snapshot returns the current table, loading it when the cache entry is
// missing or expired. A failed load with a previous table serves that table
// marked stale.
func (s *DashboardService) Snapshot(ctx context.Context) (cache.Snapshot[*domain.FlightTable], error) {
	snap, err := s.cache.Get(ctx)
	switch {
	case err != nil:
		s.metrics.RecordCacheLookup(ctx, "error")
		return snap, err
	case snap.Hit:
		s.metrics.RecordCacheLookup(ctx, "hit")
	case snap.Stale:
		s.metrics.RecordCacheLookup(ctx, "stale")
		s.logger.WarnContext(ctx, "Serving stale flight table",
			slog.Time("fetched_at", snap.FetchedAt),
			slog.String("error", snap.RefreshError.Error()))
	default:
		s.metrics.RecordCacheLookup(ctx, "miss")
	}
	return snap, nil
}

// CurrentTable returns the current enriched table
func (s *DashboardService) CurrentTable(ctx context.Context) (*domain.FlightTable, error) {
	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return snap.Value, nil
}

// Dashboard computes every view for q
func (s *DashboardService) Dashboard(ctx context.Context, q domain.Query) (*domain.Dashboard, error) {
	if err := s.CheckFleet(q.Fleet); err != nil {
		return nil, err
	}

	snap, err := s.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load flight table: %w", err)
	}

	view := dataprocessing.BuildDashboard(snap.Value, q)
	view.FetchedAt = snap.FetchedAt
	view.Stale = snap.Stale
	return &view, nil
}

// Fleets lists the configured fleets with their record counts
func (s *DashboardService) Fleets(ctx context.Context) ([]domain.FleetInfo, error) {
	table, err := s.CurrentTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load flight table: %w", err)
	}
	return s.fleetInfo(table), nil
}

// Pilots returns the pilot selector options for fleet, AllPilots first
func (s *DashboardService) Pilots(ctx context.Context, fleet domain.FleetGroup) ([]string, error) {
	if err := s.CheckFleet(fleet); err != nil {
		return nil, err
	}
	table, err := s.CurrentTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load flight table: %w", err)
	}
	return dataprocessing.Pilots(dataprocessing.FilterByFleet(table.Records, fleet)), nil
}

// DronesByStatus lists the vehicles in q with at least one flight of status
func (s *DashboardService) DronesByStatus(ctx context.Context, q domain.Query, status domain.FlightStatus) ([]string, error) {
	if !status.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	if err := s.CheckFleet(q.Fleet); err != nil {
		return nil, err
	}
	table, err := s.CurrentTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load flight table: %w", err)
	}
	return dataprocessing.DronesByStatus(dataprocessing.Filter(table.Records, q), status), nil
}

// Refresh re-fetches the table regardless of the cache entry's age. On
// failure the result still describes the table being served, if any.
func (s *DashboardService) Refresh(ctx context.Context) (RefreshResult, error) {
	snap, err := s.cache.Refresh(ctx)

	result := RefreshResult{FetchedAt: snap.FetchedAt, Stale: snap.Stale}
	if snap.Value != nil {
		result.Records = snap.Value.Len()
		result.Warnings = len(snap.Value.Warnings)
		result.Fleets = s.fleetInfo(snap.Value)
	}
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	return result, nil
}

// Export writes the full enriched table to w
func (s *DashboardService) Export(ctx context.Context, w io.Writer, format exporter.Format, opts exporter.WriteOptions) error {
	table, err := s.CurrentTable(ctx)
	if err != nil {
		return fmt.Errorf("failed to load flight table: %w", err)
	}

	if err := exporter.Write(w, table, format, opts); err != nil {
		s.metrics.RecordSystemError(ctx, "export_write", "dashboard_service")
		return fmt.Errorf("%w: %s: %w", ErrExportFailed, format, err)
	}

	s.metrics.RecordExport(ctx, string(format), "download")
	s.logger.InfoContext(ctx, "Export written",
		slog.String("format", string(format)),
		slog.Int("records", table.Len()))
	return nil
}

// CheckFleet returns ErrUnknownFleet unless the mapping can produce fleet
func (s *DashboardService) CheckFleet(fleet domain.FleetGroup) error {
	if !s.classifier.Knows(fleet) {
		return fmt.Errorf("%w: %q", ErrUnknownFleet, fleet)
	}
	return nil
}

func (s *DashboardService) fleetInfo(table *domain.FlightTable) []domain.FleetInfo {
	var counts map[domain.FleetGroup]int
	if table != nil {
		counts = dataprocessing.CountByFleet(table.Records)
	}

	fleets := s.classifier.Fleets()
	info := make([]domain.FleetInfo, 0, len(fleets))
	for _, f := range fleets {
		info = append(info, domain.FleetInfo{Fleet: f, Flights: counts[f]})
	}
	return info
}

// load is the cache loader: fetch, validate and transform one full table
func (s *DashboardService) load(ctx context.Context) (*domain.FlightTable, error) {
	ctx, span := infrastructure.StartSpan(ctx, "dashboard.refresh",
		attribute.String("source", s.source.Name()))
	defer span.End()

	start := time.Now()

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	raw, err := s.source.Fetch(fetchCtx)
	if err != nil {
		return nil, s.refreshFailed(ctx, start, "fetch", err)
	}

	table, err := dataprocessing.Transform(raw, s.classifier)
	if err != nil {
		return nil, s.refreshFailed(ctx, start, "transform", err)
	}

	s.metrics.RecordRefresh(ctx, "success", time.Since(start), table.Len(), len(table.Warnings))
	s.logger.InfoContext(ctx, "Flight table refreshed",
		slog.Int("records", table.Len()),
		slog.Int("warnings", len(table.Warnings)),
		slog.Duration("duration", time.Since(start)))
	for _, w := range table.Warnings {
		s.logger.DebugContext(ctx, "Value degraded to missing",
			slog.Int("row", w.Row),
			slog.String("column", w.Column),
			slog.String("value", w.Value),
			slog.String("reason", w.Reason))
	}
	return table, nil
}

func (s *DashboardService) refreshFailed(ctx context.Context, start time.Time, stage string, err error) error {
	result := "error"
	var schemaErr *dataprocessing.SchemaError
	switch {
	case errors.As(err, &schemaErr):
		result = "schema_error"
	case errors.Is(err, source.ErrSourceUnavailable):
		result = "source_unavailable"
	}

	infrastructure.RecordError(ctx, err)
	s.metrics.RecordRefresh(ctx, result, time.Since(start), 0, 0)
	s.logger.ErrorContext(ctx, "Flight table refresh failed",
		slog.String("stage", stage),
		slog.String("result", result),
		slog.String("error", err.Error()))

	if s.notifier != nil {
		failure := events.RefreshFailed{Error: err.Error()}
		if prev, ok := s.cache.Peek(); ok {
			fetchedAt := prev.FetchedAt
			failure.Stale = true
			failure.FetchedAt = &fetchedAt
		}
		s.notifier.BroadcastRefreshFailed(ctx, failure)
	}
	return err
}

// published runs after every successful load
func (s *DashboardService) published(table *domain.FlightTable, fetchedAt time.Time) {
	if s.notifier == nil {
		return
	}
	s.notifier.BroadcastDataUpdate(context.Background(), events.DataUpdate{
		FetchedAt: fetchedAt,
		Records:   table.Len(),
		Warnings:  len(table.Warnings),
		Fleets:    s.fleetInfo(table),
	})
}
