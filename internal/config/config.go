// Package config provides configuration loading and validation for the portfolio service.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel error kinds for this package. These allow errors.Is from callers.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrLoadConfig    = errors.New("load config failed")
)

// Config is the process configuration. Values are layered from defaults, an
// optional YAML file, then PORTFOLIO_ environment variables.
type Config struct {
	// Addr is the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ContentPath is the resume document (JSON or JSONC).
	ContentPath string `koanf:"content_path"`

	// SiteURL is the canonical public URL used in page metadata.
	SiteURL string `koanf:"site_url"`

	// TemplatePath overrides the built-in page template when set.
	TemplatePath string `koanf:"template_path"`

	// OGImagePath is where og-image writes the social card and where the
	// server reads it from.
	OGImagePath string `koanf:"og_image_path"`

	// DatabaseURL enables the PostgreSQL event store when set.
	DatabaseURL string `koanf:"database_url"`

	// LogLevel is one of debug, info, warn, error. LogFormat is text or json.
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	// PageViewTTL expires page views that stop sending signals.
	PageViewTTL   time.Duration `koanf:"page_view_ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`

	// EventQueueSize bounds telemetry events waiting for the store.
	EventQueueSize int `koanf:"event_queue_size"`

	// SummaryWindow is how far back the analytics summary looks.
	SummaryWindow time.Duration `koanf:"summary_window"`

	// JWTSecret signs analytics summary access tokens. The summary endpoint
	// is disabled when empty.
	JWTSecret          string `koanf:"jwt_secret"`
	JWTExpirationHours int    `koanf:"jwt_expiration_hours"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		Addr:               ":8080",
		ContentPath:        "content/resume.json",
		SiteURL:            "http://localhost:8080",
		OGImagePath:        "content/opengraph-image.png",
		LogLevel:           "info",
		LogFormat:          "text",
		PageViewTTL:        30 * time.Minute,
		SweepInterval:      time.Minute,
		EventQueueSize:     1024,
		SummaryWindow:      30 * 24 * time.Hour,
		JWTExpirationHours: 24,
	}
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: 'addr' must not be empty", ErrInvalidConfig)
	}
	if c.ContentPath == "" {
		return fmt.Errorf("%w: 'content_path' must not be empty", ErrInvalidConfig)
	}
	if c.PageViewTTL <= 0 {
		return fmt.Errorf("%w: 'page_view_ttl' must be positive", ErrInvalidConfig)
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("%w: 'sweep_interval' must be positive", ErrInvalidConfig)
	}
	if c.EventQueueSize < 0 {
		return fmt.Errorf("%w: 'event_queue_size' must be non-negative", ErrInvalidConfig)
	}
	if c.SummaryWindow <= 0 {
		return fmt.Errorf("%w: 'summary_window' must be positive", ErrInvalidConfig)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown 'log_level' %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown 'log_format' %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// JWT returns the token settings, or nil when no secret is configured.
func (c *Config) JWT() (*JWTConfig, error) {
	if c.JWTSecret == "" {
		return nil, nil
	}
	jwtCfg := &JWTConfig{
		Secret:          c.JWTSecret,
		ExpirationHours: c.JWTExpirationHours,
	}
	if err := jwtCfg.normalize(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return jwtCfg, nil
}
