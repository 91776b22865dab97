package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"flightops/internal/config"
	apierrors "flightops/internal/errors"
	"flightops/internal/exporter"
	"flightops/internal/infrastructure"
	custommw "flightops/internal/middleware"
	"flightops/internal/security"
	"flightops/internal/services"
	"flightops/internal/source"
	handlers "flightops/internal/transport/http"
	ws "flightops/internal/websocket"
	"flightops/pkg/contracts"
)

// AppName is the human-readable service name
const AppName = "FlightOps Dashboard"

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.BusinessMetrics
	Source           source.RecordSource
	WebSocketHub     *ws.Hub
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	Scheduler        *exporter.Scheduler // nil without Export.Schedule

	stopOnce sync.Once
	stopErr  error
}

// NewApplication builds the application from cfg with the configured record source
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	src, err := NewRecordSource(cfg.Source, logger)
	if err != nil {
		return nil, err
	}
	return NewApplicationWithSource(cfg, logger, src)
}

// NewApplicationWithSource builds the application around src
func NewApplicationWithSource(cfg *config.Config, logger *slog.Logger, src source.RecordSource) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("source", src.Name()))

	otelCfg := infrastructure.DefaultOTelConfig()
	otelCfg.ServiceName = cfg.Telemetry.ServiceName
	otelCfg.ServiceVersion = contracts.Version
	otelCfg.EnableMetrics = cfg.Telemetry.MetricsEnabled
	otelCfg.TraceExporter = cfg.Telemetry.TraceExporter

	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		Source:        src,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()
	return app, nil
}

// NewRecordSource builds the record source selected by cfg.Kind
func NewRecordSource(cfg config.SourceConfig, logger *slog.Logger) (source.RecordSource, error) {
	switch cfg.Kind {
	case config.SourceSheets:
		creds := security.NewCredentialsLoader(cfg.CredentialsFile, cfg.PassphraseEnv, logger)
		return source.NewSheetsSource(source.SheetsConfig{
			SpreadsheetID:   cfg.SpreadsheetID,
			SpreadsheetName: cfg.SpreadsheetName,
			SheetName:       cfg.SheetName,
		}, creds, logger), nil
	case config.SourceXLSX:
		return source.NewXLSXSource(cfg.FilePath, cfg.SheetName, logger), nil
	case config.SourceCSV:
		return source.NewCSVSource(cfg.FilePath, logger), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	classifier, err := a.Config.FleetClassifier()
	if err != nil {
		return err
	}

	a.WebSocketHub = ws.NewHub(a.Logger, a.Metrics)

	a.DashboardService = services.NewDashboardService(services.DashboardConfig{
		CacheTTL:     a.Config.Cache.TTL,
		FetchTimeout: a.Config.Source.FetchTimeout,
	}, a.Source, classifier, a.WebSocketHub, a.Metrics, a.Logger)

	healthOpts := []services.HealthOption{
		services.WithBuildInfo(contracts.BuildTime, contracts.GitCommit),
		services.WithClients(a.WebSocketHub),
	}

	if a.Config.Export.Schedule != "" {
		format, err := exporter.ParseFormat(a.Config.Export.Format)
		if err != nil {
			return err
		}
		a.Scheduler, err = exporter.NewScheduler(exporter.SchedulerConfig{
			Schedule: a.Config.Export.Schedule,
			Dir:      a.Config.Export.Dir,
			FileName: filepath.Base(a.Config.Export.FileName),
			Format:   format,
			Options:  a.exportOptions(),
			Timeout:  a.Config.Source.FetchTimeout + time.Minute,
		}, a.DashboardService, a.Logger, a.Metrics)
		if err != nil {
			return fmt.Errorf("failed to create export scheduler: %w", err)
		}
		healthOpts = append(healthOpts, services.WithExports(a.Scheduler))
	}

	a.HealthService = services.NewHealthService(contracts.Version, a.Source.Name(), a.DashboardService, a.Logger, healthOpts...)
	return nil
}

func (a *Application) exportOptions() exporter.WriteOptions {
	return exporter.WriteOptions{BOMPrefix: a.Config.Export.IncludeBOM}
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	// Middleware that does not wrap the ResponseWriter, safe for the upgrade
	r.Use(custommw.RequestID)
	r.Use(custommw.RealIP)

	wsHandler := ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	r.With(custommw.WebSocketTraceMiddleware(a.Logger)).Handle("/ws", wsHandler)

	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, errorHandler))

	r.Group(func(r chi.Router) {
		// RequestID -> RealIP -> OTel -> Logger -> Recoverer -> Timeout
		r.Use(custommw.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(custommw.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(errorHandler))
		r.Use(custommw.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(custommw.CORS(a.corsConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(custommw.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r, errorHandler)
	})

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	validator := custommw.NewValidator(a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(custommw.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		handlers.NewHealthHandler(a.HealthService).Routes(r)

		exportHandler := handlers.NewExportHandler(a.DashboardService, filepath.Base(a.Config.Export.FileName),
			a.exportOptions(), a.Logger, errorHandler)
		r.Mount("/export", exportHandler.Routes())

		dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, a.DashboardService.Filters(),
			validator, a.Logger, errorHandler)
		r.Mount("/", dashboardHandler.Routes())
	})
}

func (a *Application) corsConfig() custommw.CORSConfig {
	return custommw.CORSConfig{
		AllowedOrigins:   a.Config.Security.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		ExposedHeaders:   []string{custommw.RequestIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
		Logger:           a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Serve runs the hub, the scheduler and the HTTP server on ln until ctx is
// cancelled or the server fails, then shuts everything down.
func (a *Application) Serve(ctx context.Context, ln net.Listener) error {
	a.WebSocketHub.Start()
	if a.Scheduler != nil {
		a.Scheduler.Start()
	}

	// Warm the cache so readiness turns green without waiting for a request.
	go func() {
		warmCtx := infrastructure.EnsureTraceID(context.Background())
		if _, err := a.DashboardService.CurrentTable(warmCtx); err != nil {
			a.Logger.WarnContext(warmCtx, "Initial table load failed", slog.String("error", err.Error()))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(ctx, "HTTP server listening", slog.String("address", ln.Addr().String()))
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		return a.Stop(shutdownCtx)
	})

	return g.Wait()
}

// Run listens on the configured address and serves until SIGINT or SIGTERM
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	return a.Serve(ctx, ln)
}

// Stop gracefully stops the application. It is safe to call more than once.
func (a *Application) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() {
		a.Logger.InfoContext(ctx, "Shutting down application")

		if err := a.Server.Shutdown(ctx); err != nil {
			a.stopErr = fmt.Errorf("server shutdown error: %w", err)
		}

		if a.Scheduler != nil {
			if err := a.Scheduler.Stop(ctx); err != nil {
				a.Logger.ErrorContext(ctx, "Export scheduler did not stop in time", slog.String("error", err.Error()))
			}
		}
		a.WebSocketHub.Stop()

		if err := a.OTelProviders.Shutdown(ctx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}

		a.Logger.InfoContext(ctx, "Application shutdown complete")
	})
	return a.stopErr
}
