package middleware

import (
	"net/http"
	"strings"

	"firmdesk/internal/auth"
	"firmdesk/internal/domain/models"
	"firmdesk/internal/httputil"
)

// publicPaths are reachable without a bearer token.
var publicPaths = map[string]bool{
	"/health": true,
}

// Auth validates the Authorization bearer token on every request and
// attaches the resolved identity to the context. The role claim is carried
// as an opaque string; authorization decisions happen in the services.
func Auth(verifier auth.JWTVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "unauthorized", "missing authorization header")
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httputil.RespondError(w, http.StatusUnauthorized, "unauthorized", "malformed authorization header")
				return
			}

			claims, err := verifier.VerifyToken(token)
			if err != nil {
				httputil.RespondError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
				return
			}

			r = httputil.WithIdentity(r, models.Identity{
				UserID: claims.GetUserID(),
				Role:   claims.Role,
			})

			next.ServeHTTP(w, r)
		})
	}
}
