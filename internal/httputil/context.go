package httputil

import (
	"context"
	"net/http"

	"firmdesk/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const identityKey contextKey = "identity"

// WithIdentity attaches the authenticated caller to the request context.
func WithIdentity(r *http.Request, id models.Identity) *http.Request {
	ctx := context.WithValue(r.Context(), identityKey, id)
	return r.WithContext(ctx)
}

// IdentityFrom retrieves the caller identity from the context. The second
// return is false on unauthenticated requests (e.g. /health).
func IdentityFrom(r *http.Request) (models.Identity, bool) {
	id, ok := r.Context().Value(identityKey).(models.Identity)
	return id, ok
}
