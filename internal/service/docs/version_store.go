package docs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"firmdesk/internal/domain"
	"firmdesk/internal/domain/models"
	"firmdesk/internal/domain/repositories"
)

// VersionStore owns the append-only revision log and the current-version
// pointer of a document. It never touches lifecycle status beyond the
// rules stated on each operation; status is the review aggregator's
// concern.
type VersionStore struct {
	repo      repositories.DocumentRepository
	txManager repositories.TransactionManager
	logger    *slog.Logger
}

// NewVersionStore creates a new version store.
func NewVersionStore(repo repositories.DocumentRepository, txManager repositories.TransactionManager, logger *slog.Logger) *VersionStore {
	return &VersionStore{
		repo:      repo,
		txManager: txManager,
		logger:    logger,
	}
}

// Create builds a document at version 1 in Draft with its initial
// revision. The insert runs in a transaction so the human-id sequence
// scan and the row insert are atomic.
func (s *VersionStore) Create(ctx context.Context, docType models.DocumentType, title, content string, templateID *string, authorID string) (*models.Document, error) {
	now := time.Now().UTC()

	doc := &models.Document{
		ID:             uuid.NewString(),
		Type:           docType,
		Title:          title,
		Content:        content,
		CurrentVersion: 1,
		Revisions: []models.Revision{{
			Version:   1,
			Content:   content,
			AuthorID:  authorID,
			CreatedAt: now,
			Note:      "initial",
		}},
		Reviewers:  []models.Reviewer{},
		Status:     models.StatusDraft,
		TemplateID: templateID,
		CreatedBy:  authorID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.repo.Insert(txCtx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("document created",
		"document_id", doc.ID,
		"human_id", doc.HumanID,
		"type", doc.Type,
	)

	return doc, nil
}

// AppendRevision appends a new head revision with newContent. A
// same-content edit is a no-op: no revision, no version bump, no status
// change. Editing a finalized or archived document is refused. Lifecycle
// status is otherwise left untouched.
//
// The caller holds the per-document lock; doc is the freshly loaded
// record.
func (s *VersionStore) AppendRevision(ctx context.Context, doc *models.Document, newContent string, sections []models.Section, authorID, note string) (*models.Document, error) {
	switch doc.Status {
	case models.StatusFinal:
		return nil, &domain.StateError{Message: "document is finalized and cannot be edited"}
	case models.StatusArchived:
		return nil, &domain.StateError{Message: "document is archived and cannot be edited"}
	}

	if newContent == doc.Content {
		return doc, nil
	}

	s.verifySequence(doc)

	readVersion := doc.CurrentVersion
	doc.CurrentVersion++
	doc.Content = newContent
	doc.Sections = sections
	doc.Revisions = append(doc.Revisions, models.Revision{
		Version:   doc.CurrentVersion,
		Content:   newContent,
		Sections:  sections,
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
		Note:      note,
	})
	doc.UpdatedAt = time.Now().UTC()

	if err := s.replace(ctx, doc, readVersion); err != nil {
		return nil, err
	}

	s.logger.Info("revision appended",
		"document_id", doc.ID,
		"version", doc.CurrentVersion,
		"author", authorID,
	)

	return doc, nil
}

// ListRevisions returns the revision log most-recent-first. The returned
// slice is a copy; history itself is never handed out mutable.
func (s *VersionStore) ListRevisions(doc *models.Document) []models.Revision {
	revisions := make([]models.Revision, len(doc.Revisions))
	for i, rev := range doc.Revisions {
		revisions[len(doc.Revisions)-1-i] = rev
	}
	return revisions
}

// RestoreRevision copies the content of a historical revision into a new
// head revision and resets the document to Draft. History is never
// rewritten: the restored revision stays where it is.
func (s *VersionStore) RestoreRevision(ctx context.Context, doc *models.Document, versionNumber int, authorID string) (*models.Document, error) {
	if doc.Status == models.StatusArchived {
		return nil, &domain.StateError{Message: "document is archived and cannot be restored"}
	}

	var source *models.Revision
	for i := range doc.Revisions {
		if doc.Revisions[i].Version == versionNumber {
			source = &doc.Revisions[i]
			break
		}
	}
	if source == nil {
		return nil, &domain.NotFoundError{Message: fmt.Sprintf("version %d does not exist", versionNumber)}
	}

	s.verifySequence(doc)

	readVersion := doc.CurrentVersion
	doc.CurrentVersion++
	doc.Content = source.Content
	doc.Sections = source.Sections
	doc.Revisions = append(doc.Revisions, models.Revision{
		Version:   doc.CurrentVersion,
		Content:   source.Content,
		Sections:  source.Sections,
		AuthorID:  authorID,
		CreatedAt: time.Now().UTC(),
		Note:      fmt.Sprintf("restored from version %d", versionNumber),
	})
	doc.Status = models.StatusDraft
	doc.UpdatedAt = time.Now().UTC()

	if err := s.replace(ctx, doc, readVersion); err != nil {
		return nil, err
	}

	s.logger.Info("revision restored",
		"document_id", doc.ID,
		"restored_version", versionNumber,
		"new_version", doc.CurrentVersion,
	)

	return doc, nil
}

// replace persists the mutated document, translating a lost version race
// into a retryable conflict for the caller.
func (s *VersionStore) replace(ctx context.Context, doc *models.Document, readVersion int) error {
	err := s.repo.Replace(ctx, doc, readVersion)
	if err == nil {
		return nil
	}
	if isVersionConflict(err) {
		return &domain.StateError{Message: "document was modified concurrently, retry the request"}
	}
	return err
}

func isVersionConflict(err error) bool {
	return errors.Is(err, repositories.ErrVersionConflict)
}

// verifySequence asserts that revision numbers form a contiguous ascending
// sequence starting at 1 whose head matches the current-version pointer.
// A violation means the store is corrupted; that is fatal, not a user
// error, so it panics and surfaces as a 500 at the recovery middleware.
func (s *VersionStore) verifySequence(doc *models.Document) {
	if len(doc.Revisions) == 0 {
		panic(fmt.Sprintf("document %s has no revisions", doc.ID))
	}
	for i, rev := range doc.Revisions {
		if rev.Version != i+1 {
			panic(fmt.Sprintf("document %s revision log corrupted: revision at index %d has version %d", doc.ID, i, rev.Version))
		}
	}
	if head := doc.Revisions[len(doc.Revisions)-1].Version; head != doc.CurrentVersion {
		panic(fmt.Sprintf("document %s revision log corrupted: head version %d != current version %d", doc.ID, head, doc.CurrentVersion))
	}
}
