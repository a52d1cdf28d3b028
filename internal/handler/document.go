package handler

import (
	"log/slog"
	"net/http"
	"time"

	"firmdesk/internal/domain/models"
	"firmdesk/internal/domain/repositories"
	"firmdesk/internal/httputil"
	"firmdesk/internal/service/docs"
)

// DocumentHandler handles document HTTP requests
type DocumentHandler struct {
	lifecycle *docs.Lifecycle
	logger    *slog.Logger
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(lifecycle *docs.Lifecycle, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// CreateDocument creates a new document of the given type in Draft.
// POST /api/documents/{type}
func (h *DocumentHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerIdentity(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized", "missing identity")
		return
	}

	docType := models.DocumentType(r.PathValue("type"))

	var req CreateDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	doc, err := h.lifecycle.Create(r.Context(), caller, docType, req.Title, req.Content, req.TemplateID)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// GetDocument retrieves a document by ID with its full revision log.
// GET /api/documents/{id}
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "validation", "document ID is required")
		return
	}

	doc, err := h.lifecycle.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// ListDocuments lists document summaries, optionally filtered by type and
// status.
// GET /api/documents?type=&status=&limit=&offset=
func (h *DocumentHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	filter := &repositories.DocumentFilter{}

	if t := r.URL.Query().Get("type"); t != "" {
		docType := models.DocumentType(t)
		if !docType.Valid() {
			httputil.RespondError(w, http.StatusBadRequest, "validation", "unknown document type")
			return
		}
		filter.Type = &docType
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := models.LifecycleStatus(s)
		filter.Status = &status
	}
	filter.Limit = intQuery(r, "limit", 0)
	filter.Offset = intQuery(r, "offset", 0)

	documents, err := h.lifecycle.List(r.Context(), filter)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"documents": documents,
		"total":     len(documents),
	})
}

// UpdateDocument appends a new revision with the supplied content.
// PUT /api/documents/{id}
// Returns 409 when the document is finalized.
func (h *DocumentHandler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
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

	var req EditDocumentRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	doc, err := h.lifecycle.Edit(r.Context(), caller, id, req.Content, req.Note)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// DeleteDocument soft-deletes a document. Templates still referenced by a
// report are refused with 409.
// DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
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

	if err := h.lifecycle.Delete(r.Context(), caller, id); err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *DocumentHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}
