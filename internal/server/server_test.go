package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/portfolio/internal/analytics"
	"github.com/jonathan/portfolio/internal/config"
	"github.com/jonathan/portfolio/internal/metrics"
	"github.com/jonathan/portfolio/internal/server/ratelimit"
	"github.com/jonathan/portfolio/internal/types"
)

type recordedEvent struct {
	name    string
	payload analytics.Payload
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) Record(_ context.Context, name string, payload analytics.Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{name: name, payload: payload})
}

func (r *eventRecorder) snapshot() []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEvent(nil), r.events...)
}

type mockStore struct {
	since   time.Time
	summary *types.AnalyticsSummary
	err     error
}

func (m *mockStore) Summary(_ context.Context, since time.Time) (*types.AnalyticsSummary, error) {
	m.since = since
	return m.summary, m.err
}

func testResume() *types.Resume {
	featured := true
	return &types.Resume{
		Basics: types.Basics{
			Name:     "Jane Doe",
			Title:    "Staff Engineer",
			Headline: "I build calm, fast software.",
			Location: "Lisbon, Portugal",
			Email:    "jane@example.com",
			GitHub:   "https://github.com/janedoe",
			LinkedIn: "https://linkedin.com/in/janedoe",
			Summary:  "Engineer focused on reliable platforms.",
		},
		Skills: []types.SkillGroup{{Category: "Languages", Items: []string{"Go"}}},
		Experience: []types.Experience{{
			Company:    "Acme Corp",
			Role:       "Staff Engineer",
			Location:   "Remote",
			StartDate:  "2021-03",
			EndDate:    "Present",
			Featured:   &featured,
			Highlights: []string{"Led the platform team"},
		}},
		Education: []types.Education{{Institution: "University of Lisbon", Degree: "MSc", Period: "2014 – 2016"}},
	}
}

type testServer struct {
	*Server
	recorder *eventRecorder
	metrics  *metrics.Manager
}

func newTestServer(t *testing.T, mutate func(*Config)) *testServer {
	t.Helper()

	rec := &eventRecorder{}
	m := metrics.NewManager()
	client := analytics.NewClient(analytics.MultiSink{m, rec})

	cfg := Config{
		Addr:      "127.0.0.1:0",
		SiteURL:   "https://janedoe.dev",
		Resume:    testResume(),
		Metrics:   m,
		Analytics: client,
		RateLimit: &ratelimit.Config{Enabled: false},
	}
	if mutate != nil {
		mutate(&cfg)
	}

	s, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return &testServer{Server: s, recorder: rec, metrics: m}
}

func (ts *testServer) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	ts.Handler().ServeHTTP(w, req)
	return w
}

func (ts *testServer) openPageView(t *testing.T) string {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/pageviews", "")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp types.PageViewResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func decodeFired(t *testing.T, w *httptest.ResponseRecorder) []int {
	t.Helper()
	var resp types.ScrollSignalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Fired
}

func TestNew_RequiresResume(t *testing.T) {
	_, err := New(Config{RateLimit: &ratelimit.Config{Enabled: false}})
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestIndex_RendersPage(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe – Staff Engineer", doc.Find("title").Text())
	canonical, _ := doc.Find(`link[rel="canonical"]`).Attr("href")
	assert.Equal(t, "https://janedoe.dev/", canonical)
	assert.Equal(t, 1, doc.Find("#selected-work article").Length())
}

func TestIndex_UnknownPath(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStaticTrackerScript(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/static/tracker.js", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "javascript")
	assert.Contains(t, w.Body.String(), "/api/pageviews")
}

func TestGetResume(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/api/resume", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got types.Resume
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, *testResume(), got)
}

func TestPageViewLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.openPageView(t)
	scrollPath := "/api/pageviews/" + id + "/scroll"

	w := ts.do(t, http.MethodPost, scrollPath, `{"offset":600,"scrollHeight":1800,"viewportHeight":800}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{25, 50}, decodeFired(t, w))

	w = ts.do(t, http.MethodPost, scrollPath, `{"offset":600,"scrollHeight":1800,"viewportHeight":800}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{}, decodeFired(t, w))
	assert.JSONEq(t, `{"fired":[]}`, w.Body.String())

	w = ts.do(t, http.MethodPost, scrollPath, `{"offset":1000,"scrollHeight":1800,"viewportHeight":800}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []int{75, 100}, decodeFired(t, w))

	w = ts.do(t, http.MethodDelete, "/api/pageviews/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodPost, scrollPath, `{"offset":1000,"scrollHeight":1800,"viewportHeight":800}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/pageviews/"+id, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	var depths []any
	for _, ev := range ts.recorder.snapshot() {
		require.Equal(t, analytics.EventScrollDepth, ev.name)
		depths = append(depths, ev.payload["depth"])
	}
	assert.Equal(t, []any{25, 50, 75, 100}, depths)
}

func TestScrollSignal_NonScrollablePage(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.openPageView(t)

	w := ts.do(t, http.MethodPost, "/api/pageviews/"+id+"/scroll", `{"offset":0,"scrollHeight":800,"viewportHeight":800}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeFired(t, w))
	assert.Empty(t, ts.recorder.snapshot())
}

func TestScrollSignal_BadRequests(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.openPageView(t)

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		wantError  string
	}{
		{
			name:       "invalid id",
			path:       "/api/pageviews/not-a-uuid/scroll",
			body:       `{"offset":1,"scrollHeight":2,"viewportHeight":1}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "id",
		},
		{
			name:       "malformed body",
			path:       "/api/pageviews/" + id + "/scroll",
			body:       `{"offset":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "wrong type",
			path:       "/api/pageviews/" + id + "/scroll",
			body:       `{"offset":"far"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "negative offset",
			path:       "/api/pageviews/" + id + "/scroll",
			body:       `{"offset":-5,"scrollHeight":1800,"viewportHeight":800}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "offset",
		},
		{
			name:       "unknown page view",
			path:       "/api/pageviews/00000000-0000-0000-0000-000000000001/scroll",
			body:       `{"offset":1,"scrollHeight":2,"viewportHeight":1}`,
			wantStatus: http.StatusNotFound,
			wantError:  "page view not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, w.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Contains(t, resp["error"], tt.wantError)
		})
	}
}

func TestScrollSignal_BodyTooLarge(t *testing.T) {
	ts := newTestServer(t, nil)
	id := ts.openPageView(t)

	body := `{"offset":1,"pad":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	w := ts.do(t, http.MethodPost, "/api/pageviews/"+id+"/scroll", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "too large")
}

func TestClosePageView_InvalidID(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodDelete, "/api/pageviews/nope", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLinkClick(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodPost, "/api/events/link-click", `{"name":"GitHub","url":"https://github.com/janedoe"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)

	events := ts.recorder.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, analytics.EventLinkClick, events[0].name)
	assert.Equal(t, analytics.Payload{"name": "GitHub", "url": "https://github.com/janedoe"}, events[0].payload)
}

func TestLinkClick_IsNotGatedByPageViews(t *testing.T) {
	ts := newTestServer(t, nil)
	require.Equal(t, 0, ts.PageViews().Len())

	w := ts.do(t, http.MethodPost, "/api/events/link-click", `{"name":"Email","url":"mailto:jane@example.com"}`)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Len(t, ts.recorder.snapshot(), 1)
}

func TestLinkClick_Validation(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name      string
		body      string
		wantError string
	}{
		{name: "missing name", body: `{"url":"https://github.com/janedoe"}`, wantError: "name"},
		{name: "missing url", body: `{"name":"GitHub"}`, wantError: "url"},
		{name: "not json", body: `name=GitHub`, wantError: "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/events/link-click", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantError)
		})
	}
	assert.Empty(t, ts.recorder.snapshot())
}

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{Secret: testJWTSecret, ExpirationHours: 1}
}

func TestAnalyticsSummary_DisabledWithoutSecret(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config) { cfg.Store = &mockStore{} })

	w := ts.do(t, http.MethodGet, "/api/analytics/summary", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestAnalyticsSummary_RequiresToken(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config) {
		cfg.JWT = testJWTConfig()
		cfg.Store = &mockStore{}
	})

	w := ts.do(t, http.MethodGet, "/api/analytics/summary", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/api/analytics/summary", "", "Authorization", "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAnalyticsSummary_NoStore(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config) { cfg.JWT = testJWTConfig() })
	token, err := NewJWTService(testJWTConfig()).GenerateToken("owner")
	require.NoError(t, err)

	w := ts.do(t, http.MethodGet, "/api/analytics/summary", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "event store")
}

func TestAnalyticsSummary(t *testing.T) {
	store := &mockStore{summary: &types.AnalyticsSummary{
		ScrollDepth: []types.EventCount{{Name: "scroll_depth", Label: "25", Count: 4}},
		LinkClicks:  []types.EventCount{{Name: "external_link_click", Label: "GitHub", Count: 2}},
	}}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ts := newTestServer(t, func(cfg *Config) {
		cfg.JWT = testJWTConfig()
		cfg.Store = store
		cfg.SummaryWindow = 24 * time.Hour
	})
	ts.now = func() time.Time { return now }

	token, err := NewJWTService(testJWTConfig()).GenerateToken("owner")
	require.NoError(t, err)

	w := ts.do(t, http.MethodGet, "/api/analytics/summary", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, now.Add(-24*time.Hour), store.since)

	var got types.AnalyticsSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, *store.summary, got)

	w = ts.do(t, http.MethodGet, "/api/analytics/summary?since=2026-02-01T00:00:00Z", "", "Authorization", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), store.since)

	w = ts.do(t, http.MethodGet, "/api/analytics/summary?since=yesterday", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyticsSummary_StoreError(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config) {
		cfg.JWT = testJWTConfig()
		cfg.Store = &mockStore{err: errors.New("connection refused")}
	})
	token, err := NewJWTService(testJWTConfig()).GenerateToken("owner")
	require.NoError(t, err)

	w := ts.do(t, http.MethodGet, "/api/analytics/summary", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestOGImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "og.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nfake"), 0644))

	ts := newTestServer(t, func(cfg *Config) { cfg.OGImagePath = path })
	w := ts.do(t, http.MethodGet, "/opengraph-image.png", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))

	missing := newTestServer(t, func(cfg *Config) { cfg.OGImagePath = filepath.Join(t.TempDir(), "missing.png") })
	w = missing.do(t, http.MethodGet, "/opengraph-image.png", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	unset := newTestServer(t, nil)
	w = unset.do(t, http.MethodGet, "/opengraph-image.png", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORSMiddleware(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestCORSMiddleware_OPTIONS(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(t, http.MethodOptions, "/api/events/link-click", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, w.Body.Len(), "OPTIONS response should have empty body")
	assert.Empty(t, ts.recorder.snapshot())
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config) {
		cfg.RateLimit = &ratelimit.Config{
			Enabled:       true,
			DefaultLimit:  1000,
			DefaultWindow: time.Minute,
			EndpointConfigs: []ratelimit.EndpointConfig{
				{Path: "/api/pageviews", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1},
			},
		}
	})

	first := ts.do(t, http.MethodPost, "/api/pageviews", "")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := ts.do(t, http.MethodPost, "/api/pageviews", "")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "rate_limit_exceeded")
	assert.Equal(t, 1, ts.PageViews().Len())
}

func TestRateLimit_ScrollBurstReachesBottom(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config) {
		cfg.RateLimit = &ratelimit.Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			EndpointConfigs: ratelimit.DefaultEndpointConfigs(),
		}
	})
	id := ts.openPageView(t)
	scrollPath := "/api/pageviews/" + id + "/scroll"

	const signals = 300
	var fired []int
	var last *httptest.ResponseRecorder
	for i := 0; i < signals; i++ {
		offset := i * 1000 / (signals - 1)
		last = ts.do(t, http.MethodPost, scrollPath,
			fmt.Sprintf(`{"offset":%d,"scrollHeight":1800,"viewportHeight":800}`, offset))
		require.Equal(t, http.StatusOK, last.Code, "signal %d", i+1)
		fired = append(fired, decodeFired(t, last)...)
	}

	assert.Equal(t, []int{100}, decodeFired(t, last))
	assert.Equal(t, []int{25, 50, 75, 100}, fired)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.openPageView(t)
	ts.do(t, http.MethodPost, "/api/events/link-click", `{"name":"GitHub","url":"https://github.com/janedoe"}`)

	w := ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `portfolio_open_page_views 1`)
	assert.Contains(t, body, `portfolio_link_clicks_total{name="GitHub"} 1`)
	assert.Contains(t, body, `portfolio_http_requests_total{method="POST",route="POST /api/pageviews",status="201"} 1`)
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	ts := newTestServer(t, func(cfg *Config) { cfg.SweepInterval = 10 * time.Millisecond })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ts.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
