package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"firmdesk/internal/httputil"
	"firmdesk/internal/service/docs"
)

// VersionHandler exposes the revision history surface.
type VersionHandler struct {
	lifecycle *docs.Lifecycle
	logger    *slog.Logger
}

// NewVersionHandler creates a new version handler
func NewVersionHandler(lifecycle *docs.Lifecycle, logger *slog.Logger) *VersionHandler {
	return &VersionHandler{
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// ListVersions returns a document's revisions, most recent first.
// GET /api/documents/{id}/versions
func (h *VersionHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "validation", "document ID is required")
		return
	}

	revisions, err := h.lifecycle.Revisions(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"versions": revisions,
		"total":    len(revisions),
	})
}

// RestoreVersion copies a historical revision into a new head revision.
// POST /api/documents/{id}/versions/{n}/restore
func (h *VersionHandler) RestoreVersion(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "validation", "document ID is required")
		return
	}

	versionNumber, err := strconv.Atoi(r.PathValue("n"))
	if err != nil || versionNumber < 1 {
		httputil.RespondError(w, http.StatusBadRequest, "validation", "version number must be a positive integer")
		return
	}

	doc, err := h.lifecycle.Restore(r.Context(), caller, id, versionNumber)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}
