package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchEndpoint(t *testing.T) {
	configs := DefaultEndpointConfigs()

	tests := []struct {
		name      string
		path      string
		method    string
		wantPath  string
		wantLimit int
		wantNil   bool
	}{
		{name: "open page view exact", path: "/api/pageviews", method: "POST", wantPath: "/api/pageviews", wantLimit: 30},
		{name: "scroll signal unlimited", path: "/api/pageviews/abc/scroll", method: "POST", wantPath: "/api/pageviews/abc/scroll", wantLimit: 0},
		{name: "other page view post uses default", path: "/api/pageviews/abc", method: "POST", wantNil: true},
		{name: "close page view prefix", path: "/api/pageviews/abc", method: "DELETE", wantPath: "/api/pageviews/", wantLimit: 60},
		{name: "link click", path: "/api/events/link-click", method: "POST", wantPath: "/api/events/", wantLimit: 120},
		{name: "analytics summary", path: "/api/analytics/summary", method: "GET", wantPath: "/api/analytics/", wantLimit: 60},
		{name: "health unlimited", path: "/health", method: "GET", wantPath: "/health", wantLimit: 0},
		{name: "metrics unlimited", path: "/metrics", method: "GET", wantPath: "/metrics", wantLimit: 0},
		{name: "static unlimited", path: "/static/tracker.js", method: "GET", wantPath: "/static/tracker.js", wantLimit: 0},
		{name: "page uses default", path: "/", method: "GET", wantNil: true},
		{name: "resume uses default", path: "/api/resume", method: "GET", wantNil: true},
		{name: "post to health not special", path: "/health", method: "POST", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchEndpoint(tt.path, tt.method, configs)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.wantPath, got.Path)
			assert.Equal(t, tt.wantLimit, got.Limit)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "true")
	t.Setenv("RATE_LIMIT_DEFAULT_LIMIT", "50")
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "30s")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 10.0.0.2")
	t.Setenv("RATE_LIMIT_BLACKLIST", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, "30s", cfg.DefaultWindow.String())
	assert.True(t, cfg.Whitelist["10.0.0.1"])
	assert.True(t, cfg.Whitelist["10.0.0.2"])
	assert.Empty(t, cfg.Blacklist)
	assert.Equal(t, DefaultEndpointConfigs(), cfg.EndpointConfigs)
}

func TestLoadConfig_Disabled(t *testing.T) {
	t.Setenv("RATE_LIMIT_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 1000, cfg.DefaultLimit)
	assert.Equal(t, time.Minute, cfg.DefaultWindow)
	assert.Equal(t, DefaultIdleTTL, cfg.IdleTTL)
	assert.Empty(t, cfg.Whitelist)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("RATE_LIMIT_DEFAULT_WINDOW", "soon")

	_, err := LoadConfig()
	assert.Error(t, err)
}
