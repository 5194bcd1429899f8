package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/harlan/vitrin/internal/apperr"
)

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, envelope{Error: &errorBody{Code: code, Message: msg}})
}

// writeAppError maps the shared error kinds onto stable response codes.
// A misconfigured secret is reported exactly like a bad credential; the
// distinction lives in the server log only. Unmatched errors become a
// generic 500 with the detail logged, never echoed.
func writeAppError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *apperr.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, envelope{Error: &errorBody{
			Code:    "validation",
			Message: "invalid input",
			Fields:  verr.Fields,
		}})
	case errors.Is(err, apperr.ErrInvalidSlug):
		logger.Warn("invalid slug in request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid_slug", "invalid slug")
	case errors.Is(err, apperr.ErrNotWhitelisted):
		logger.Warn("non-whitelisted resource requested", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "not_whitelisted", "unknown resource")
	case errors.Is(err, apperr.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, apperr.ErrDuplicateSlug):
		writeError(w, http.StatusConflict, "duplicate_slug", "slug already exists")
	case errors.Is(err, apperr.ErrUnauthorized), errors.Is(err, apperr.ErrMisconfiguredSecret):
		writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized")
	case errors.Is(err, apperr.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
	default:
		logger.Error("request failed", slog.String("error", err.Error()))
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
