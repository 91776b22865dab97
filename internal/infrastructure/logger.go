package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"flightops/internal/config"
)

var (
	loggerMu     sync.Mutex
	globalLogger *slog.Logger
	logFile      *os.File
)

// InitializeLogger builds a logger from cfg, installs it as the package and
// slog default, and replaces any previously opened log file.
func InitializeLogger(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, error) {
	logger, file, err := newLogger(cfg, console)
	if err != nil {
		return nil, err
	}

	loggerMu.Lock()
	if logFile != nil {
		_ = logFile.Close()
	}
	globalLogger, logFile = logger, file
	loggerMu.Unlock()

	slog.SetDefault(logger)
	return logger, nil
}

// GetLogger returns the installed logger or slog's default
func GetLogger() *slog.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if globalLogger == nil {
		return slog.Default()
	}
	return globalLogger
}

// CloseLogFile flushes and closes the installed log file, if any
func CloseLogFile() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// NewLogger builds a trace-aware logger without installing it. The caller
// owns any log file it opens; use InitializeLogger for process-wide logging.
func NewLogger(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, error) {
	logger, _, err := newLogger(cfg, console)
	return logger, err
}

func newLogger(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, *os.File, error) {
	var (
		out  io.Writer = console
		file *os.File
		err  error
	)
	switch strings.ToLower(cfg.Output) {
	case "file", "both":
		if file, err = openLogFile(cfg.FilePath); err != nil {
			return nil, nil, err
		}
		out = file
		if strings.EqualFold(cfg.Output, "both") {
			out = io.MultiWriter(console, file)
		}
	}

	opts := &slog.HandlerOptions{AddSource: cfg.Development, Level: parseLogLevel(cfg.Level)}
	var handler slog.Handler = slog.NewJSONHandler(out, opts)
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	}

	logger := slog.New(traceHandler{handler}).With(slog.String("service", ServiceName))
	return logger, file, nil
}

// traceHandler stamps every record logged with a context carrying a trace id
type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}

// parseLogLevel accepts slog's level names plus "warning"; anything else is info
func parseLogLevel(level string) slog.Level {
	level = strings.TrimSpace(level)
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

func openLogFile(path string) (*os.File, error) {
	if path == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", path, err)
	}
	return file, nil
}
