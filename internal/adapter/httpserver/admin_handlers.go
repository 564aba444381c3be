package httpserver

import (
	"crypto/subtle"
	"fmt"
	"net/http"

	"github.com/fairyhunter13/meeting-summarizer/internal/adapter/observability"
	"github.com/fairyhunter13/meeting-summarizer/internal/domain"
)

// AdminGuard protects the admin surface with Basic Auth. Comparison is
// constant-time to avoid leaking credential prefixes via timing.
func (s *Server) AdminGuard() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.Cfg.AdminUsername)) == 1
			passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.Cfg.AdminPassword)) == 1
			if !ok || !userOK || !passOK {
				w.Header().Set("WWW-Authenticate", `Basic realm="admin"`)
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminStatsHandler exposes cache effectiveness and per-call-path stats.
func (s *Server) AdminStatsHandler(stats ...*observability.CallStats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cacheStats, err := s.Cache.Stats(r.Context())
		if err != nil {
			writeError(w, r, fmt.Errorf("%w: cache stats: %v", domain.ErrInternal, err), nil)
			return
		}
		snaps := make([]observability.Snapshot, 0, len(stats))
		for _, st := range stats {
			snaps = append(snaps, st.Snapshot())
		}
		writeJSON(w, http.StatusOK, map[string]any{"cache": cacheStats, "calls": snaps})
	}
}

// AdminCacheClearHandler drops every cached response.
func (s *Server) AdminCacheClearHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Cache.Clear(r.Context()); err != nil {
			writeError(w, r, fmt.Errorf("%w: cache clear: %v", domain.ErrInternal, err), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
	}
}

// AdminCacheInvalidateHandler drops a single cache entry by key.
func (s *Server) AdminCacheInvalidateHandler() http.HandlerFunc {
	type req struct {
		Key string `json:"key"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body req
		if err := decodeJSON(r, &body); err != nil {
			writeError(w, r, err, nil)
			return
		}
		if body.Key == "" {
			writeError(w, r, fmt.Errorf("%w: key required", domain.ErrInvalidArgument), nil)
			return
		}
		if err := s.Cache.Invalidate(r.Context(), body.Key); err != nil {
			writeError(w, r, fmt.Errorf("%w: cache invalidate: %v", domain.ErrInternal, err), nil)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"invalidated": body.Key})
	}
}
