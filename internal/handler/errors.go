package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"firmdesk/internal/domain"
	"firmdesk/internal/httputil"
)

// handleError maps service errors to problem+json responses. Taxonomy
// errors carry their own status and kind; anything else is an unexpected
// internal failure and is logged before a generic 500.
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var httpErr domain.HTTPError
	if errors.As(err, &httpErr) {
		if httpErr.StatusCode() >= 500 {
			logger.Error("upstream failure",
				"error", err,
				"path", r.URL.Path,
				"method", r.Method,
			)
		}
		httputil.RespondError(w, httpErr.StatusCode(), httpErr.Kind(), httpErr.Error())
		return
	}

	// Sentinel-wrapped repository errors
	switch {
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, "not_found", err.Error())
		return
	case errors.Is(err, domain.ErrForbidden):
		httputil.RespondError(w, http.StatusForbidden, "forbidden", err.Error())
		return
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized", err.Error())
		return
	}

	logger.Error("unexpected error",
		"error", err,
		"path", r.URL.Path,
		"method", r.Method,
	)
	httputil.RespondError(w, http.StatusInternalServerError, "internal", "internal server error")
}
