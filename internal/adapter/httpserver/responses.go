// Package httpserver contains HTTP handlers and middleware.
//
// It maps classified errors from the orchestration core onto HTTP status
// codes and keeps a clear separation between HTTP concerns and the
// resilience logic underneath.
package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/fairyhunter13/meeting-summarizer/internal/domain"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a failure to a status code and a redacted message. The
// full error (with the original upstream message) goes to the log only.
func writeError(w http.ResponseWriter, r *http.Request, err error, details interface{}) {
	status := http.StatusInternalServerError
	codeStr := "INTERNAL"
	msg := "internal error"

	var ce *domain.ClassifiedError
	if errors.As(err, &ce) {
		switch ce.Kind {
		case domain.KindTimeout:
			status, codeStr, msg = http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "upstream call timed out"
		case domain.KindRateLimited:
			status, codeStr, msg = http.StatusTooManyRequests, "UPSTREAM_RATE_LIMIT", "upstream rate limit"
		case domain.KindServerFault, domain.KindNetwork:
			status, codeStr, msg = http.StatusServiceUnavailable, "UPSTREAM_UNAVAILABLE", "upstream unavailable"
		case domain.KindValidationFault:
			status, codeStr, msg = http.StatusBadRequest, "INVALID_ARGUMENT", "invalid request"
		}
	} else {
		switch {
		case errors.Is(err, domain.ErrInvalidArgument):
			status, codeStr, msg = http.StatusBadRequest, "INVALID_ARGUMENT", err.Error()
		case errors.Is(err, domain.ErrNotFound):
			status, codeStr, msg = http.StatusNotFound, "NOT_FOUND", err.Error()
		case errors.Is(err, domain.ErrRateLimited):
			status, codeStr, msg = http.StatusTooManyRequests, "RATE_LIMITED", err.Error()
		case errors.Is(err, domain.ErrUpstreamTimeout):
			status, codeStr, msg = http.StatusGatewayTimeout, "UPSTREAM_TIMEOUT", "upstream call timed out"
		}
	}

	if status >= 500 {
		slog.Error("request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
	} else {
		slog.Warn("request rejected", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	writeJSON(w, status, errorEnvelope{Error: apiError{Code: codeStr, Message: msg, Details: details}})
}
