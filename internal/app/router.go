// Package app wires the HTTP router and application-level checks.
package app

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpserver "github.com/fairyhunter13/meeting-summarizer/internal/adapter/httpserver"
	"github.com/fairyhunter13/meeting-summarizer/internal/adapter/observability"
	"github.com/fairyhunter13/meeting-summarizer/internal/config"
	"github.com/fairyhunter13/meeting-summarizer/internal/ratelimit"
)

// Route identifiers for per-route rate-limit policies.
const (
	RouteGeneral   = "general"
	RouteSummarize = "summarize"
	RouteEmail     = "email"
)

// Policies maps route ids to the configured fixed-window limits.
func Policies(cfg config.Config) map[string]ratelimit.Policy {
	return map[string]ratelimit.Policy{
		RouteGeneral:   {Window: cfg.RateGeneralWindow, Max: cfg.RateGeneralMax},
		RouteSummarize: {Window: cfg.RateSummarizeWindow, Max: cfg.RateSummarizeMax},
		RouteEmail:     {Window: cfg.RateEmailWindow, Max: cfg.RateEmailMax},
	}
}

// ParseOrigins splits a comma-separated origin list into a slice, trimming spaces.
// If the input is empty, returns ["*"].
func ParseOrigins(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == "*" {
		return []string{"*"}
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

// BuildRouter constructs the HTTP handler with all middlewares and routes.
// Admission control runs ahead of the handlers: a denied request produces a
// 429 with Retry-After before any adapter work starts.
func BuildRouter(cfg config.Config, srv *httpserver.Server, limiter *ratelimit.Limiter, stats ...*observability.CallStats) http.Handler {
	r := chi.NewRouter()
	r.Use(httpserver.Recoverer())
	r.Use(httpserver.RequestID())
	r.Use(httpserver.AccessLog())
	r.Use(observability.HTTPMetricsMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   ParseOrigins(cfg.CORSAllowOrigins),
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// API routes under the general window, with stricter per-route windows
	// on the two external-call paths.
	r.Group(func(api chi.Router) {
		api.Use(httpserver.RateLimitMiddleware(limiter, RouteGeneral))

		api.Group(func(sr chi.Router) {
			sr.Use(httpserver.RateLimitMiddleware(limiter, RouteSummarize))
			sr.Post("/v1/summarize", srv.SummarizeHandler())
		})
		api.Group(func(er chi.Router) {
			er.Use(httpserver.RateLimitMiddleware(limiter, RouteEmail))
			er.Post("/v1/email", srv.EmailHandler())
		})
		api.Get("/v1/summaries", srv.SummariesHandler())
	})

	// Health and metrics
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/readyz", srv.ReadyzHandler())

	// Admin surface
	if cfg.AdminEnabled() {
		r.Group(func(ar chi.Router) {
			ar.Use(srv.AdminGuard())
			ar.Get("/admin/stats", srv.AdminStatsHandler(stats...))
			ar.Post("/admin/cache/clear", srv.AdminCacheClearHandler())
			ar.Post("/admin/cache/invalidate", srv.AdminCacheInvalidateHandler())
		})
	}

	return httpserver.SecurityHeaders(r)
}
