package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"flightops/internal/infrastructure"
	"flightops/pkg/contracts/domain"
)

// TableProvider supplies the table a scheduled export writes
type TableProvider interface {
	CurrentTable(ctx context.Context) (*domain.FlightTable, error)
}

// SchedulerConfig configures scheduled snapshot exports
type SchedulerConfig struct {
	Schedule string // standard five-field cron expression
	Dir      string
	FileName string // base name; the extension is replaced by the format's
	Format   Format
	Options  WriteOptions
	Timeout  time.Duration
}

// RunResult describes the most recent scheduled export
type RunResult struct {
	At      time.Time `json:"at"`
	Path    string    `json:"path,omitempty"`
	Records int       `json:"records"`
	Error   string    `json:"error,omitempty"`
}

// Scheduler writes timestamped snapshot exports on a cron schedule
type Scheduler struct {
	cron     *cron.Cron
	entry    cron.EntryID
	cfg      SchedulerConfig
	provider TableProvider
	logger   *slog.Logger
	metrics  *infrastructure.BusinessMetrics
	now      func() time.Time

	mu   sync.Mutex
	last *RunResult
}

// NewScheduler validates the schedule and registers the export job.
// Overlapping runs are skipped.
func NewScheduler(cfg SchedulerConfig, provider TableProvider, logger *slog.Logger, metrics *infrastructure.BusinessMetrics) (*Scheduler, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if metrics == nil {
		metrics = infrastructure.NoopBusinessMetrics()
	}
	if cfg.Format == "" {
		cfg.Format = FormatCSV
	}
	if cfg.FileName == "" {
		cfg.FileName = "flight_data"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = time.Minute
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("export directory is required for scheduled exports")
	}

	logger = logger.With(slog.String("component", "export_scheduler"))
	cl := cronLogger{logger: logger}

	s := &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		cfg:      cfg,
		provider: provider,
		logger:   logger,
		metrics:  metrics,
		now:      time.Now,
	}

	entry, err := s.cron.AddFunc(cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
		defer cancel()
		_, _ = s.RunNow(infrastructure.EnsureTraceID(ctx))
	})
	if err != nil {
		return nil, fmt.Errorf("invalid export schedule %q: %w", cfg.Schedule, err)
	}
	s.entry = entry
	return s, nil
}

// Start begins running the schedule in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Export scheduler started",
		slog.String("schedule", s.cfg.Schedule),
		slog.Time("next_run", s.Next()))
}

// Stop halts the schedule and waits for a running export or ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Export scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Next returns the next scheduled run time, zero when not started
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.entry).Next
}

// LastRun returns the most recent result, if any
func (s *Scheduler) LastRun() *RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	r := *s.last
	return &r
}

// RunNow writes one snapshot immediately and returns its path
func (s *Scheduler) RunNow(ctx context.Context) (string, error) {
	at := s.now()
	result := RunResult{At: at}
	defer func() {
		s.mu.Lock()
		s.last = &result
		s.mu.Unlock()
	}()

	table, err := s.provider.CurrentTable(ctx)
	if err != nil {
		result.Error = err.Error()
		s.metrics.RecordSystemError(ctx, "export_fetch", "export_scheduler")
		s.logger.ErrorContext(ctx, "Scheduled export skipped", slog.String("error", err.Error()))
		return "", err
	}

	base := strings.TrimSuffix(s.cfg.FileName, filepath.Ext(s.cfg.FileName))
	path := filepath.Join(s.cfg.Dir, SnapshotName(base, at, s.cfg.Format))
	if err := WriteFile(path, table, s.cfg.Format, s.cfg.Options); err != nil {
		result.Error = err.Error()
		s.metrics.RecordSystemError(ctx, "export_write", "export_scheduler")
		s.logger.ErrorContext(ctx, "Scheduled export failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return "", err
	}

	result.Path = path
	result.Records = table.Len()
	s.metrics.RecordExport(ctx, string(s.cfg.Format), "schedule")
	s.logger.InfoContext(ctx, "Scheduled export written",
		slog.String("path", path),
		slog.Int("records", table.Len()))
	return path, nil
}

// cronLogger routes cron's logging through slog
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append([]interface{}{"error", err}, keysAndValues...)...)
}
