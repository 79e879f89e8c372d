// Package config loads the caching proxy startup configuration.
//
// Values are layered: defaults, then an optional YAML file, then
// environment variables, then command-line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/Sternrassler/caching-proxy/pkg/logging"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ApplyEnv.
const (
	EnvPort       = "CACHING_PROXY_PORT"
	EnvOrigin     = "CACHING_PROXY_ORIGIN"
	EnvAdminPort  = "CACHING_PROXY_ADMIN_PORT"
	EnvAdminToken = "CACHING_PROXY_ADMIN_TOKEN"
	EnvLogLevel   = "LOG_LEVEL"
)

var (
	// ErrMissingPort indicates no listening port was configured
	ErrMissingPort = errors.New("port is required")

	// ErrInvalidPort indicates a port outside 1-65535
	ErrInvalidPort = errors.New("invalid port")

	// ErrMissingOrigin indicates no origin URL was configured
	ErrMissingOrigin = errors.New("origin is required")

	// ErrInvalidOrigin indicates the origin is not an absolute http(s) URL
	ErrInvalidOrigin = errors.New("invalid origin")

	// ErrInvalidLogLevel indicates an unknown log level
	ErrInvalidLogLevel = errors.New("invalid log level")
)

// Config holds the process configuration.
// Origin is read-only once the proxy starts.
type Config struct {
	// Port the proxy listens on (REQUIRED)
	Port int `yaml:"port"`

	// Origin is the absolute base URL requests are forwarded to (REQUIRED)
	Origin string `yaml:"origin"`

	// AdminPort serves /cache, /health and /metrics; 0 disables the admin listener
	AdminPort int `yaml:"admin_port"`

	// AdminToken, when set, is required as a bearer token for /cache endpoints
	AdminToken string `yaml:"admin_token"`

	// LogLevel is debug, info, warn or error
	LogLevel string `yaml:"log_level"`

	// LogPretty enables console output instead of JSON
	LogPretty bool `yaml:"log_pretty"`
}

// Default returns the configuration before any source is applied.
func Default() Config {
	return Config{
		LogLevel: string(logging.LevelInfo),
	}
}

// Load reads a YAML file on top of the defaults.
func Load(filename string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", filename, err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidPort, EnvPort, v)
		}
		c.Port = port
	}

	if v, ok := lookup(EnvOrigin); ok && v != "" {
		c.Origin = v
	}

	if v, ok := lookup(EnvAdminPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidPort, EnvAdminPort, v)
		}
		c.AdminPort = port
	}

	if v, ok := lookup(EnvAdminToken); ok && v != "" {
		c.AdminToken = v
	}

	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}

	return nil
}

// Validate checks the values needed to start the server.
func (c Config) Validate() error {
	if c.Port == 0 {
		return ErrMissingPort
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}

	if c.AdminPort < 0 || c.AdminPort > 65535 {
		return fmt.Errorf("%w: admin port %d", ErrInvalidPort, c.AdminPort)
	}
	if c.AdminPort != 0 && c.AdminPort == c.Port {
		return fmt.Errorf("%w: admin port must differ from port %d", ErrInvalidPort, c.Port)
	}

	if c.Origin == "" {
		return ErrMissingOrigin
	}
	u, err := url.Parse(c.Origin)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidOrigin, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q must be an absolute http or https URL", ErrInvalidOrigin, c.Origin)
	}

	if !logging.IsValidLevel(c.LogLevel) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

// LoggingConfig converts the log settings for logging.Setup.
func (c Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.LogLevel)
	cfg.Pretty = c.LogPretty
	return cfg
}
