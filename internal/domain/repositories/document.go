package repositories

import (
	"context"
	"errors"

	"firmdesk/internal/domain/models"
)

// ErrVersionConflict is returned by Replace when the stored document no
// longer carries the version the caller read. It signals a lost race, not
// corruption; callers retry under the per-document lock.
var ErrVersionConflict = errors.New("document version conflict")

// DocumentFilter narrows FindMany results.
type DocumentFilter struct {
	Type   *models.DocumentType
	Status *models.LifecycleStatus
	Limit  int
	Offset int
}

// DocumentRepository is the generic keyed record store the engine persists
// documents through. Implementations treat the revision log, sections and
// reviewer set as opaque JSON payloads; all interpretation happens in the
// services.
type DocumentRepository interface {
	// Insert stores a new document and assigns its HumanID. The id must be
	// set by the caller; HumanID codes are unique and never reused, even
	// after deletion.
	Insert(ctx context.Context, doc *models.Document) error

	// FindByID returns a live (non-deleted) document.
	FindByID(ctx context.Context, id string) (*models.Document, error)

	// FindMany lists live documents matching the filter, newest first.
	// Revision logs are omitted from listings.
	FindMany(ctx context.Context, filter *DocumentFilter) ([]models.Document, error)

	// Replace overwrites the stored record with doc, guarded by the version
	// number the caller read before mutating. Returns ErrVersionConflict
	// when that guard fails.
	Replace(ctx context.Context, doc *models.Document, readVersion int) error

	// Delete soft-deletes a document. The row is kept so its HumanID is
	// never handed out again.
	Delete(ctx context.Context, id string) error

	// CountReportsUsingTemplate counts live reports referencing the given
	// template; used to refuse deleting templates still in use.
	CountReportsUsingTemplate(ctx context.Context, templateID string) (int, error)
}
