package handler

import (
	"log/slog"
	"net/http"

	"firmdesk/internal/httputil"
	"firmdesk/internal/service/docs"
)

// GenerateHandler exposes content generation previews and the provider
// catalog.
type GenerateHandler struct {
	lifecycle *docs.Lifecycle
	logger    *slog.Logger
}

// NewGenerateHandler creates a new generate handler
func NewGenerateHandler(lifecycle *docs.Lifecycle, logger *slog.Logger) *GenerateHandler {
	return &GenerateHandler{
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// Generate produces a generated-content preview for a document. Nothing
// is persisted; the client commits the preview with a normal edit.
// POST /api/documents/{id}/generate
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
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

	var req GenerateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	result, err := h.lifecycle.Generate(r.Context(), caller, id, req.ProviderID, req.ContextFields)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, result)
}

// ListProviders describes the configured generation backends.
// GET /api/providers
func (h *GenerateHandler) ListProviders(w http.ResponseWriter, r *http.Request) {
	providers := h.lifecycle.Providers()
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"providers": providers,
		"total":     len(providers),
	})
}
