package ratelimit

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// EnvPrefix is the prefix of the environment variables LoadConfig reads,
// e.g. RATE_LIMIT_DEFAULT_LIMIT -> default_limit.
const EnvPrefix = "RATE_LIMIT_"

// envSettings mirrors the RATE_LIMIT_ variables. Lists are comma-separated.
type envSettings struct {
	Enabled         bool          `koanf:"enabled"`
	DefaultLimit    int           `koanf:"default_limit"`
	DefaultWindow   time.Duration `koanf:"default_window"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	IdleTTL         time.Duration `koanf:"idle_ttl"`
	Whitelist       string        `koanf:"whitelist"`
	Blacklist       string        `koanf:"blacklist"`
}

// LoadConfig loads rate limiting configuration from RATE_LIMIT_ environment
// variables over the built-in defaults.
func LoadConfig() (*Config, error) {
	settings := envSettings{
		Enabled:         true,
		DefaultLimit:    1000,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         DefaultIdleTTL,
	}

	k := koanf.New(".")
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to read rate limit environment: %w", err)
	}
	if err := k.UnmarshalWithConf("", &settings, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("invalid rate limit configuration: %w", err)
	}

	if !settings.Enabled {
		return &Config{Enabled: false}, nil
	}
	if settings.DefaultLimit <= 0 || settings.DefaultWindow <= 0 {
		return nil, fmt.Errorf("invalid rate limit configuration: default limit and window must be positive")
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    settings.DefaultLimit,
		DefaultWindow:   settings.DefaultWindow,
		CleanupInterval: settings.CleanupInterval,
		IdleTTL:         settings.IdleTTL,
		Whitelist:       parseIPList(settings.Whitelist),
		Blacklist:       parseIPList(settings.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(),
	}, nil
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: Page view lifecycle. One open and one close per visit.
		{Path: "/api/pageviews", Method: "POST", Limit: 30, Window: time.Minute, Burst: 10},
		{Path: "/api/pageviews/", Method: "DELETE", Limit: 60, Window: time.Minute, Burst: 10},

		// Tier 2: Link clicks. Scroll signals are unlimited, see isUnlimited.
		{Path: "/api/events/", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},

		// Tier 3: Authenticated reads
		{Path: "/api/analytics/", Method: "GET", Limit: 60, Window: time.Minute, Burst: 10},

		// Tier 4: Page, assets, health, metrics and scroll signals - handled by
		// the default limit or by the unlimited special cases in the matcher
	}
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	if list == "" {
		return result
	}

	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
