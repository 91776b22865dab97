package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v2"

	"flightops/internal/dataprocessing"
	"flightops/pkg/contracts/domain"
)

// EnvPrefix namespaces every environment variable.
const EnvPrefix = "FLIGHTOPS"

// Source kinds
const (
	SourceSheets = "sheets"
	SourceXLSX   = "xlsx"
	SourceCSV    = "csv"
)

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Source    SourceConfig    `yaml:"source" envconfig:"SOURCE"`
	Cache     CacheConfig     `yaml:"cache" envconfig:"CACHE"`
	Fleets    FleetsConfig    `yaml:"fleets" envconfig:"FLEETS"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"HOST"`
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" envconfig:"MAX_HEADER_BYTES"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LEVEL"`
	Format      string `yaml:"format" envconfig:"FORMAT"`
	Output      string `yaml:"output" envconfig:"OUTPUT"`
	FilePath    string `yaml:"file_path" envconfig:"FILE_PATH"`
	Development bool   `yaml:"development" envconfig:"DEVELOPMENT"`
}

// SourceConfig selects and locates the flight-log table
type SourceConfig struct {
	Kind            string        `yaml:"kind" envconfig:"KIND"`
	SpreadsheetID   string        `yaml:"spreadsheet_id" envconfig:"SPREADSHEET_ID"`
	SpreadsheetName string        `yaml:"spreadsheet_name" envconfig:"SPREADSHEET_NAME"`
	SheetName       string        `yaml:"sheet_name" envconfig:"SHEET_NAME"`
	CredentialsFile string        `yaml:"credentials_file" envconfig:"CREDENTIALS_FILE"`
	PassphraseEnv   string        `yaml:"passphrase_env" envconfig:"PASSPHRASE_ENV"`
	FilePath        string        `yaml:"file_path" envconfig:"FILE_PATH"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT"`
}

// CacheConfig controls how long a fetched table is reused
type CacheConfig struct {
	TTL time.Duration `yaml:"ttl" envconfig:"TTL"`
}

// FleetsConfig is the vehicle-name to fleet mapping table. Rules come from
// the YAML file only; the fallback can also be set from the environment.
type FleetsConfig struct {
	Rules    []dataprocessing.FleetRule `yaml:"rules" ignored:"true"`
	Fallback string                     `yaml:"fallback" envconfig:"FALLBACK"`
}

// ExportConfig controls CSV/XLSX downloads and the scheduled snapshot
type ExportConfig struct {
	Dir        string `yaml:"dir" envconfig:"DIR"`
	FileName   string `yaml:"file_name" envconfig:"FILE_NAME"`
	Schedule   string `yaml:"schedule" envconfig:"SCHEDULE"`
	Format     string `yaml:"format" envconfig:"FORMAT"`
	IncludeBOM bool   `yaml:"include_bom" envconfig:"INCLUDE_BOM"`
}

// TelemetryConfig controls metrics and tracing
type TelemetryConfig struct {
	ServiceName    string `yaml:"service_name" envconfig:"SERVICE_NAME"`
	MetricsEnabled bool   `yaml:"metrics_enabled" envconfig:"METRICS_ENABLED"`
	TraceExporter  string `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
}

// WebSocketConfig contains WebSocket configuration
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT"`
}

// Load reads configuration from the first config file found and the environment.
func Load() (*Config, error) {
	return LoadFrom(getConfigFilePath())
}

// LoadFrom layers defaults, the YAML file at path (if any) and environment
// variables, in that order of increasing precedence.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable keep their current value.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file at filePath onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) normalize() {
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Output = strings.ToLower(strings.TrimSpace(c.Logging.Output))
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	c.Export.Format = strings.ToLower(strings.TrimSpace(c.Export.Format))
	c.Telemetry.TraceExporter = strings.ToLower(strings.TrimSpace(c.Telemetry.TraceExporter))
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	if err := oneOf("logging level", c.Logging.Level, "debug", "info", "warn", "error"); err != nil {
		return err
	}
	if err := oneOf("logging format", c.Logging.Format, "json", "text"); err != nil {
		return err
	}
	if err := oneOf("logging output", c.Logging.Output, "console", "file", "both"); err != nil {
		return err
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		return fmt.Errorf("logging file path is required for output %q", c.Logging.Output)
	}

	if err := c.Source.validate(); err != nil {
		return err
	}

	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache ttl must not be negative")
	}

	if _, err := c.FleetClassifier(); err != nil {
		return err
	}

	if c.Export.FileName == "" {
		return fmt.Errorf("export file name is required")
	}
	if err := oneOf("export format", c.Export.Format, "csv", "xlsx"); err != nil {
		return err
	}
	if c.Export.Schedule != "" {
		if _, err := cron.ParseStandard(c.Export.Schedule); err != nil {
			return fmt.Errorf("invalid export schedule %q: %w", c.Export.Schedule, err)
		}
		if c.Export.Dir == "" {
			return fmt.Errorf("export dir is required when a schedule is set")
		}
	}

	if err := oneOf("trace exporter", c.Telemetry.TraceExporter, "none", "stdout"); err != nil {
		return err
	}

	return nil
}

func (s SourceConfig) validate() error {
	switch s.Kind {
	case SourceSheets:
		if s.SpreadsheetID == "" && s.SpreadsheetName == "" {
			return fmt.Errorf("sheets source needs a spreadsheet id or name")
		}
		if s.CredentialsFile == "" {
			return fmt.Errorf("sheets source needs a credentials file")
		}
	case SourceXLSX, SourceCSV:
		if s.FilePath == "" {
			return fmt.Errorf("%s source needs a file path", s.Kind)
		}
	default:
		return fmt.Errorf("unknown source kind %q", s.Kind)
	}
	if s.FetchTimeout <= 0 {
		return fmt.Errorf("source fetch timeout must be positive")
	}
	return nil
}

// FleetClassifier builds the validated fleet mapping
func (c *Config) FleetClassifier() (*dataprocessing.FleetClassifier, error) {
	return dataprocessing.NewFleetClassifier(c.Fleets.Rules, domain.FleetGroup(c.Fleets.Fallback))
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("invalid %s %q (allowed: %s)", field, value, strings.Join(allowed, ", "))
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  30 * time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   40,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/flightops.log",
		},
		Source: SourceConfig{
			Kind:            SourceSheets,
			SpreadsheetName: "Pre-Post Flight Data",
			CredentialsFile: "credentials.json",
			PassphraseEnv:   "FLIGHTOPS_CREDENTIALS_PASSPHRASE",
			FetchTimeout:    20 * time.Second,
		},
		Cache: CacheConfig{
			TTL: 60 * time.Second,
		},
		Fleets: FleetsConfig{
			Rules:    []dataprocessing.FleetRule{{Keyword: "trishul", Fleet: dataprocessing.FleetTrishul}},
			Fallback: string(dataprocessing.FleetKamet),
		},
		Export: ExportConfig{
			Dir:      "exports",
			FileName: "filtered_flight_data.csv",
			Format:   "csv",
		},
		Telemetry: TelemetryConfig{
			ServiceName:    "flightops",
			MetricsEnabled: true,
			TraceExporter:  "none",
		},
		WebSocket: WebSocketConfig{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingPeriod:      30 * time.Second,
			PongWait:        60 * time.Second,
		},
	}
}
