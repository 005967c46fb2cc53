// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs debug messages and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs info messages and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	level := parseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var output io.Writer = cfg.Output
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: cfg.Output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Cache operations (hit/miss, key, TTL)
//   - Conditional request flow (ETags, 304 responses)
//   - Search queries and result counts
//
// Info: Normal operation events
//   - Extraction progress (pages fetched, users collected)
//   - Filter run summaries (passed/dropped counts)
//   - Snapshot writes
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Quota suspensions (waiting for reset)
//   - Retry attempts
//   - Partial records (detail fetch failed, summary kept)
//   - Cache errors (fallback to direct request)
//
// Error: Error conditions requiring attention
//   - Pagination failures (partial extraction, resume cursor logged)
//   - Failed requests (after retries)
//   - Snapshot read/write failures
//   - Configuration errors
//
// Context Fields:
//   - endpoint: directory endpoint path
//   - login: user login for detail fetches and lookups
//   - status_code: HTTP status code
//   - error_class: error classification (client, server, rate_limit, network)
//   - remaining: current quota remaining
//   - since: pagination cursor position
//   - etag: ETag value for conditional requests
