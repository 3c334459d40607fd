package config

import (
	"errors"
	"log/slog"
	"time"
)

// Config is the top-level configuration struct for churnmap.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	History   HistoryConfig   `mapstructure:"history"`
	Filter    FilterConfig    `mapstructure:"filter"`
	Graph     GraphConfig     `mapstructure:"graph"`
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// HistoryConfig selects how history is read.
type HistoryConfig struct {
	// Backend is "exec" (git binary) or "libgit2".
	Backend string `mapstructure:"backend"`
	Since   string `mapstructure:"since"`
	Until   string `mapstructure:"until"`
	// Timeout bounds a single history read. Zero disables the bound.
	Timeout time.Duration `mapstructure:"timeout"`
}

// FilterConfig holds the path filters.
type FilterConfig struct {
	Include    []string `mapstructure:"include"`
	Exclude    []string `mapstructure:"exclude"`
	SkipVendor bool     `mapstructure:"skip_vendor"`
}

// GraphConfig holds projection settings.
type GraphConfig struct {
	MaxFiles int `mapstructure:"max_files"`
}

// ServerConfig holds the visualization server settings.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Open         bool          `mapstructure:"open"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	CacheEntries int           `mapstructure:"cache_entries"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// TelemetryConfig holds OpenTelemetry export settings.
type TelemetryConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	Environment  string `mapstructure:"environment"`
}

// History backends.
const (
	BackendExec    = "exec"
	BackendLibgit2 = "libgit2"
)

// maxPort is the largest TCP port number.
const maxPort = 65535

// Sentinel errors for configuration validation.
var (
	// ErrInvalidBackend indicates an unknown history backend.
	ErrInvalidBackend = errors.New("history.backend must be exec or libgit2")
	// ErrInvalidTimeout indicates a negative history timeout.
	ErrInvalidTimeout = errors.New("history.timeout must be non-negative")
	// ErrInvalidMaxFiles indicates max files is below one.
	ErrInvalidMaxFiles = errors.New("graph.max_files must be at least 1")
	// ErrInvalidPort indicates the port is outside 1-65535.
	ErrInvalidPort = errors.New("server.port must be between 1 and 65535")
	// ErrInvalidServerTimeout indicates a negative server timeout.
	ErrInvalidServerTimeout = errors.New("server timeouts must be non-negative")
	// ErrInvalidCacheEntries indicates a negative cache size.
	ErrInvalidCacheEntries = errors.New("server.cache_entries must be non-negative")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("logging.level must be debug, info, warn or error")
)

// Validate checks all config values for correctness.
func (c *Config) Validate() error {
	historyErr := c.validateHistory()
	if historyErr != nil {
		return historyErr
	}

	if c.Graph.MaxFiles < 1 {
		return ErrInvalidMaxFiles
	}

	serverErr := c.validateServer()
	if serverErr != nil {
		return serverErr
	}

	_, levelErr := c.Logging.SlogLevel()

	return levelErr
}

func (c *Config) validateHistory() error {
	switch c.History.Backend {
	case BackendExec, BackendLibgit2:
	default:
		return ErrInvalidBackend
	}

	if c.History.Timeout < 0 {
		return ErrInvalidTimeout
	}

	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return ErrInvalidPort
	}

	if c.Server.ReadTimeout < 0 || c.Server.WriteTimeout < 0 {
		return ErrInvalidServerTimeout
	}

	if c.Server.CacheEntries < 0 {
		return ErrInvalidCacheEntries
	}

	return nil
}

// SlogLevel parses Level. An empty level means info.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	switch l.Level {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, ErrInvalidLogLevel
	}
}
