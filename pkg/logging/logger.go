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

// Component names used with NewLogger.
const (
	ComponentMain  = "main"
	ComponentProxy = "proxy"
	ComponentCache = "cache"
	ComponentAdmin = "admin"
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

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.Pretty {
		output = zerolog.ConsoleWriter{Out: output}
	}

	logger := zerolog.New(output).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// IsValidLevel reports whether s names a supported level.
func IsValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "warning", "error":
		return true
	default:
		return false
	}
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
//   - Origin forwarding (method, target URL)
//   - Cache population (key, size)
//
// Info: Normal operation events
//   - Every served request with its cache result
//   - Cache clears
//   - Server startup/shutdown
//
// Warn: Warning conditions that don't prevent operation
//   - Failed writes to a client that went away
//   - Unreadable request bodies
//   - Rejected admin requests
//
// Error: Error conditions requiring attention
//   - Origin unreachable or response cut off (client got 503)
//   - Listener failures
//
// Context Fields:
//   - method: HTTP method
//   - path: request path+query as received
//   - cache: HIT or MISS
//   - status_code: status sent to the client
//   - duration: time to serve the request
//   - request_id: chi request ID, when the middleware is installed
//   - origin: configured origin base URL
//   - error_class: timeout, network, canceled, body_read, request
//   - key: cache key
