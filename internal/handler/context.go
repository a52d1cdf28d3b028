package handler

import (
	"net/http"

	"firmdesk/internal/domain/models"
	"firmdesk/internal/httputil"
)

// callerIdentity extracts the authenticated caller from the request
// context. The auth middleware guarantees it is present on protected
// routes; a miss here means a wiring bug, reported as 401 regardless.
func callerIdentity(r *http.Request) (models.Identity, bool) {
	return httputil.IdentityFrom(r)
}
