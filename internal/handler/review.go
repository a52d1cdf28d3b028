package handler

import (
	"log/slog"
	"net/http"

	"firmdesk/internal/domain/models"
	"firmdesk/internal/httputil"
	"firmdesk/internal/service/docs"
)

// ReviewHandler exposes reviewer assignment and the review workflow.
type ReviewHandler struct {
	lifecycle *docs.Lifecycle
	logger    *slog.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(lifecycle *docs.Lifecycle, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		lifecycle: lifecycle,
		logger:    logger,
	}
}

// AssignReviewers adds reviewers to a document with pending judgments.
// POST /api/documents/{id}/reviewers
func (h *ReviewHandler) AssignReviewers(w http.ResponseWriter, r *http.Request) {
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

	var req AssignReviewersRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	doc, err := h.lifecycle.AssignReviewers(r.Context(), caller, id, req.UserIDs)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Review records the caller's judgment on a document.
// POST /api/documents/{id}/review
func (h *ReviewHandler) Review(w http.ResponseWriter, r *http.Request) {
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

	var req ReviewRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "validation", "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "validation", err.Error())
		return
	}

	doc, err := h.lifecycle.Judge(r.Context(), caller, id, models.Judgment(req.Judgment), req.Comment)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Finalize force-finalizes a document, bypassing reviewer standing.
// POST /api/documents/{id}/finalize
func (h *ReviewHandler) Finalize(w http.ResponseWriter, r *http.Request) {
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

	doc, err := h.lifecycle.ForceFinalize(r.Context(), caller, id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}

// Archive moves a document to the archived state.
// POST /api/documents/{id}/archive
func (h *ReviewHandler) Archive(w http.ResponseWriter, r *http.Request) {
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

	doc, err := h.lifecycle.Archive(r.Context(), caller, id)
	if err != nil {
		handleError(w, r, h.logger, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, doc)
}
