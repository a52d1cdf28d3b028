package docs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"firmdesk/internal/config"
	"firmdesk/internal/domain"
	"firmdesk/internal/domain/models"
	"firmdesk/internal/domain/repositories"
	"firmdesk/internal/service/generation"
)

// Lifecycle orchestrates the version store, review aggregator and
// generation layer behind the operations the handlers expose.
//
// Every per-document mutation runs under that document's keyed lock, so
// two concurrent edits can never interleave into a revision log with
// duplicate or skipped version numbers. Cross-document operations share
// nothing and need no coordination.
type Lifecycle struct {
	repo      repositories.DocumentRepository
	versions  *VersionStore
	reviews   *ReviewAggregator
	providers *generation.Registry
	locks     *keyedLocks
	logger    *slog.Logger
}

// NewLifecycle creates the orchestrator.
func NewLifecycle(
	repo repositories.DocumentRepository,
	versions *VersionStore,
	reviews *ReviewAggregator,
	providers *generation.Registry,
	logger *slog.Logger,
) *Lifecycle {
	return &Lifecycle{
		repo:      repo,
		versions:  versions,
		reviews:   reviews,
		providers: providers,
		locks:     newKeyedLocks(),
		logger:    logger,
	}
}

// Create builds a new document in Draft at version 1. Reports may name a
// template; the reference is checked here so a report never points at a
// missing or non-template document.
func (l *Lifecycle) Create(ctx context.Context, caller models.Identity, docType models.DocumentType, title, content string, templateID *string) (*models.Document, error) {
	if !docType.Valid() {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("unknown document type '%s'", docType)}
	}

	if templateID != nil {
		if docType != models.TypeReport {
			return nil, &domain.ValidationError{Message: "only reports may reference a template"}
		}
		template, err := l.repo.FindByID(ctx, *templateID)
		if err != nil {
			return nil, err
		}
		if template.Type != models.TypeTemplate {
			return nil, &domain.ValidationError{Message: "referenced document is not a template"}
		}
	}

	return l.versions.Create(ctx, docType, title, content, templateID, caller.UserID)
}

// Get fetches a document with its full revision log.
func (l *Lifecycle) Get(ctx context.Context, id string) (*models.Document, error) {
	return l.repo.FindByID(ctx, id)
}

// List returns document summaries matching the filter.
func (l *Lifecycle) List(ctx context.Context, filter *repositories.DocumentFilter) ([]models.Document, error) {
	if filter.Limit <= 0 {
		filter.Limit = config.DefaultListLimit
	}
	if filter.Limit > config.MaxListLimit {
		filter.Limit = config.MaxListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return l.repo.FindMany(ctx, filter)
}

// Edit appends a revision with the new content. Same-content edits return
// the document unchanged.
func (l *Lifecycle) Edit(ctx context.Context, caller models.Identity, id, content, note string) (*models.Document, error) {
	unlock := l.locks.acquire(id)
	defer unlock()

	doc, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return l.versions.AppendRevision(ctx, doc, content, nil, caller.UserID, note)
}

// CommitGeneration appends a revision carrying previously previewed
// generated content together with its section decomposition. This is the
// "commit" half of the preview/commit split.
func (l *Lifecycle) CommitGeneration(ctx context.Context, caller models.Identity, id string, result *models.GenerationResult, note string) (*models.Document, error) {
	unlock := l.locks.acquire(id)
	defer unlock()

	doc, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if note == "" {
		note = fmt.Sprintf("generated via %s", result.ProviderID)
	}

	return l.versions.AppendRevision(ctx, doc, result.RawText, result.Sections, caller.UserID, note)
}

// Revisions lists a document's revision log, most recent first.
func (l *Lifecycle) Revisions(ctx context.Context, id string) ([]models.Revision, error) {
	doc, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return l.versions.ListRevisions(doc), nil
}

// Restore copies a historical revision to a new head revision and resets
// the document to Draft.
func (l *Lifecycle) Restore(ctx context.Context, caller models.Identity, id string, versionNumber int) (*models.Document, error) {
	unlock := l.locks.acquire(id)
	defer unlock()

	doc, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return l.versions.RestoreRevision(ctx, doc, versionNumber, caller.UserID)
}

// AssignReviewers adds reviewers with Pending judgments. Allowed for the
// document's creator and for privileged roles.
func (l *Lifecycle) AssignReviewers(ctx context.Context, caller models.Identity, id string, userIDs []string) (*models.Document, error) {
	unlock := l.locks.acquire(id)
	defer unlock()

	doc, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc.CreatedBy != caller.UserID && !caller.Privileged() {
		return nil, &domain.ForbiddenError{Message: "caller may not assign reviewers on this document"}
	}

	if err := l.reviews.AssignReviewers(doc, userIDs); err != nil {
		return nil, err
	}

	return doc, l.persist(ctx, doc)
}

// Judge records the caller's judgment and recomputes the aggregate
// status.
func (l *Lifecycle) Judge(ctx context.Context, caller models.Identity, id string, judgment models.Judgment, comment string) (*models.Document, error) {
	unlock := l.locks.acquire(id)
	defer unlock()

	doc, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := l.reviews.RecordJudgment(doc, caller, judgment, comment); err != nil {
		return nil, err
	}

	return doc, l.persist(ctx, doc)
}

// ForceFinalize marks the document Final by privileged override.
func (l *Lifecycle) ForceFinalize(ctx context.Context, caller models.Identity, id string) (*models.Document, error) {
	unlock := l.locks.acquire(id)
	defer unlock()

	doc, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := l.reviews.ForceFinalize(doc, caller); err != nil {
		return nil, err
	}

	return doc, l.persist(ctx, doc)
}

// Archive moves the document to Archived.
func (l *Lifecycle) Archive(ctx context.Context, caller models.Identity, id string) (*models.Document, error) {
	if !caller.Privileged() {
		return nil, &domain.ForbiddenError{Message: "caller may not archive documents"}
	}

	unlock := l.locks.acquire(id)
	defer unlock()

	doc, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	l.reviews.Archive(doc)

	return doc, l.persist(ctx, doc)
}

// Delete soft-deletes a document. Templates still referenced by a live
// report are refused.
func (l *Lifecycle) Delete(ctx context.Context, caller models.Identity, id string) error {
	if !caller.Privileged() {
		return &domain.ForbiddenError{Message: "caller may not delete documents"}
	}

	unlock := l.locks.acquire(id)
	defer unlock()

	doc, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if doc.Type == models.TypeTemplate {
		count, err := l.repo.CountReportsUsingTemplate(ctx, doc.ID)
		if err != nil {
			return err
		}
		if count > 0 {
			return &domain.ReferenceError{
				Message: fmt.Sprintf("template is referenced by %d report(s) and cannot be deleted", count),
			}
		}
	}

	if err := l.repo.Delete(ctx, doc.ID); err != nil {
		return err
	}

	l.logger.Info("document deleted",
		"document_id", doc.ID,
		"human_id", doc.HumanID,
		"by", caller.UserID,
	)

	return nil
}

// Generate produces a content preview for a document: prompt built from
// the context fields (plus the report's template skeleton, if any), one
// provider round trip, then section segmentation. Nothing is persisted;
// committing the preview is a separate, explicit edit.
func (l *Lifecycle) Generate(ctx context.Context, caller models.Identity, id, providerID string, contextFields map[string]string) (*models.GenerationResult, error) {
	doc, err := l.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	provider, err := l.providers.Get(providerID)
	if err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	var skeleton string
	if doc.TemplateID != nil {
		template, err := l.repo.FindByID(ctx, *doc.TemplateID)
		if err == nil {
			skeleton = template.Content
		} else {
			// A dangling template reference degrades the prompt, it does
			// not block generation.
			l.logger.Warn("template skeleton unavailable",
				"document_id", doc.ID,
				"template_id", *doc.TemplateID,
				"error", err,
			)
		}
	}

	systemPrompt, userPrompt := generation.BuildPrompt(doc.Type, contextFields, skeleton)

	genCtx, cancel := context.WithTimeout(ctx, config.GenerationTimeout)
	defer cancel()

	rawText, err := provider.Generate(genCtx, systemPrompt, userPrompt)
	if err != nil {
		if genCtx.Err() != nil {
			return nil, &domain.GenerationError{
				Provider: providerID,
				Message:  "generation timed out",
			}
		}
		return nil, err
	}

	sections, err := Segment(rawText, doc.Type)
	if err != nil {
		return nil, err
	}

	l.logger.Info("generation preview produced",
		"document_id", doc.ID,
		"provider", providerID,
		"sections", len(sections),
		"by", caller.UserID,
	)

	return &models.GenerationResult{
		ProviderID: providerID,
		RawText:    rawText,
		Sections:   sections,
	}, nil
}

// Providers describes the configured generation backends.
func (l *Lifecycle) Providers() []models.ProviderInfo {
	return l.providers.List()
}

// persist writes a status/reviewer mutation back. The version pointer is
// unchanged by these mutations, so the read version doubles as the guard.
func (l *Lifecycle) persist(ctx context.Context, doc *models.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	err := l.repo.Replace(ctx, doc, doc.CurrentVersion)
	if err == nil {
		return nil
	}
	if isVersionConflict(err) {
		return &domain.StateError{Message: "document was modified concurrently, retry the request"}
	}
	return err
}
