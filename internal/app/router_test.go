package app_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aistub "github.com/fairyhunter13/meeting-summarizer/internal/adapter/ai/stub"
	httpserver "github.com/fairyhunter13/meeting-summarizer/internal/adapter/httpserver"
	"github.com/fairyhunter13/meeting-summarizer/internal/app"
	"github.com/fairyhunter13/meeting-summarizer/internal/cache"
	"github.com/fairyhunter13/meeting-summarizer/internal/config"
	"github.com/fairyhunter13/meeting-summarizer/internal/ratelimit"
	"github.com/fairyhunter13/meeting-summarizer/internal/usecase"
)

func testRouterConfig() config.Config {
	return config.Config{
		AppEnv:              "test",
		RateGeneralWindow:   15 * time.Minute,
		RateGeneralMax:      100,
		RateSummarizeWindow: 2 * time.Minute,
		RateSummarizeMax:    2,
		RateEmailWindow:     time.Hour,
		RateEmailMax:        20,
		CORSAllowOrigins:    "*",
		AdminUsername:       "admin",
		AdminPassword:       "secret",
	}
}

func buildTestRouter(cfg config.Config) http.Handler {
	c := cache.New(cache.NewMemoryStore(), nil, nil)
	summarize := usecase.NewSummarizeService(aistub.New(), c, nil, time.Minute, 10, 100000)
	srv := httpserver.NewServer(cfg, summarize, usecase.EmailService{}, c, nil, nil)
	limiter := ratelimit.New(ratelimit.NewMemoryStore(), app.Policies(cfg), nil)
	return app.BuildRouter(cfg, srv, limiter)
}

func doReq(h http.Handler, method, path, body, addr string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if addr != "" {
		req.RemoteAddr = addr
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	t.Parallel()
	h := buildTestRouter(testRouterConfig())

	rec := doReq(h, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doReq(h, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doReq(h, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_SummarizeEndToEnd(t *testing.T) {
	t.Parallel()
	h := buildTestRouter(testRouterConfig())

	rec := doReq(h, http.MethodPost, "/v1/summarize",
		`{"transcript":"alice: hello everyone, the launch is approved"}`, "10.0.0.1:1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Key points")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRouter_SummarizeRateLimited(t *testing.T) {
	t.Parallel()
	h := buildTestRouter(testRouterConfig())
	body := `{"transcript":"alice: hello everyone, the launch is approved"}`

	for i := 0; i < 2; i++ {
		rec := doReq(h, http.MethodPost, "/v1/summarize", body, "10.0.0.9:1")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i)
	}
	rec := doReq(h, http.MethodPost, "/v1/summarize", body, "10.0.0.9:1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Other clients and routes are unaffected.
	rec = doReq(h, http.MethodPost, "/v1/summarize", body, "10.0.0.10:1")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = doReq(h, http.MethodGet, "/v1/summaries", "", "10.0.0.9:1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_GeneralWindowCoversAllAPIRoutes(t *testing.T) {
	t.Parallel()
	cfg := testRouterConfig()
	cfg.RateGeneralMax = 3
	cfg.RateSummarizeMax = 100
	h := buildTestRouter(cfg)

	for i := 0; i < 3; i++ {
		rec := doReq(h, http.MethodGet, "/v1/summaries", "", "10.0.0.5:1")
		require.Equal(t, http.StatusNotFound, rec.Code)
	}
	rec := doReq(h, http.MethodGet, "/v1/summaries", "", "10.0.0.5:1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// Health endpoints sit outside the general window.
	rec = doReq(h, http.MethodGet, "/healthz", "", "10.0.0.5:1")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_EmailNotConfigured(t *testing.T) {
	t.Parallel()
	h := buildTestRouter(testRouterConfig())
	rec := doReq(h, http.MethodPost, "/v1/email",
		`{"recipients":["a@example.com"],"summary":"Key points."}`, "10.0.0.2:1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_AdminRequiresAuth(t *testing.T) {
	t.Parallel()
	h := buildTestRouter(testRouterConfig())

	rec := doReq(h, http.MethodGet, "/admin/stats", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	req.SetBasicAuth("admin", "secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"cache"`)
}

func TestRouter_AdminAbsentWithoutCredentials(t *testing.T) {
	t.Parallel()
	cfg := testRouterConfig()
	cfg.AdminUsername = ""
	cfg.AdminPassword = ""
	h := buildTestRouter(cfg)

	rec := doReq(h, http.MethodGet, "/admin/stats", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestParseOrigins(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"*"}, app.ParseOrigins(""))
	assert.Equal(t, []string{"*"}, app.ParseOrigins("*"))
	assert.Equal(t, []string{"https://a.example", "https://b.example"},
		app.ParseOrigins(" https://a.example, https://b.example "))
	assert.Equal(t, []string{"*"}, app.ParseOrigins(" , "))
}

func TestPolicies(t *testing.T) {
	t.Parallel()
	p := app.Policies(testRouterConfig())
	assert.Equal(t, 2, p[app.RouteSummarize].Max)
	assert.Equal(t, time.Hour, p[app.RouteEmail].Window)
	assert.Equal(t, 100, p[app.RouteGeneral].Max)
}
