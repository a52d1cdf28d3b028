package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"

	"firmdesk/internal/httputil"
)

// Recovery middleware recovers from panics and returns a 500 error.
// Internal invariant violations (a corrupted revision log) reach here on
// purpose; they are logged with a stack and never dressed up as domain
// errors.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						"error", err,
						"path", r.URL.Path,
						"method", r.Method,
						"stack", string(debug.Stack()),
					)

					httputil.RespondError(w, http.StatusInternalServerError, "internal", "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
