package ratelimit

import (
	"strings"
)

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
// Path matching supports prefix matching (e.g., "/api/pageviews/" matches "/api/pageviews/{id}/scroll").
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	// Special case: health checks, scrapes, static assets and scroll signals
	// are unlimited
	if isUnlimited(path, method) {
		return &EndpointConfig{
			Path:   path,
			Method: method,
			Limit:  0, // Unlimited
		}
	}

	// Try exact match first
	for i := range configs {
		config := &configs[i]
		if config.Path == path && config.Method == method {
			return config
		}
	}

	// Try prefix match (for paths ending with "/")
	for i := range configs {
		config := &configs[i]
		if config.Method == method && strings.HasSuffix(config.Path, "/") {
			if strings.HasPrefix(path, config.Path) {
				return config
			}
		}
	}

	// No match found
	return nil
}

// isScrollSignal reports whether path is POST /api/pageviews/{id}/scroll.
// Scroll signals are never limited: any one of them may cross a milestone.
func isScrollSignal(path, method string) bool {
	return method == "POST" &&
		strings.HasPrefix(path, "/api/pageviews/") &&
		strings.HasSuffix(path, "/scroll")
}

func isUnlimited(path, method string) bool {
	if isScrollSignal(path, method) {
		return true
	}
	if method != "GET" && method != "HEAD" {
		return false
	}
	switch path {
	case "/health", "/metrics":
		return true
	}
	return strings.HasPrefix(path, "/static/")
}
