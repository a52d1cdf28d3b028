package docs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"firmdesk/internal/domain"
	"firmdesk/internal/domain/models"
	"firmdesk/internal/domain/repositories"
)

// memoryRepository is an in-memory DocumentRepository for service tests.
// Documents are stored and returned as deep copies, so a caller mutating a
// loaded document cannot leak changes back without going through Replace.
// Replace enforces the same read-version guard as the SQL implementation.
type memoryRepository struct {
	mu     sync.Mutex
	docs   map[string]*models.Document
	nextID int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{docs: make(map[string]*models.Document)}
}

func deepCopy(doc *models.Document) *models.Document {
	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	var out models.Document
	if err := json.Unmarshal(data, &out); err != nil {
		panic(err)
	}
	return &out
}

func (r *memoryRepository) Insert(ctx context.Context, doc *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	prefix := "RPT"
	if doc.Type == models.TypeTemplate {
		prefix = "TPL"
	}
	doc.HumanID = fmt.Sprintf("%s-%s-%04d", prefix, doc.CreatedAt.Format("20060102"), r.nextID)
	r.docs[doc.ID] = deepCopy(doc)
	return nil
}

func (r *memoryRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	doc, ok := r.docs[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return deepCopy(doc), nil
}

func (r *memoryRepository) FindMany(ctx context.Context, filter *repositories.DocumentFilter) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	documents := []models.Document{}
	for _, doc := range r.docs {
		if filter.Type != nil && doc.Type != *filter.Type {
			continue
		}
		if filter.Status != nil && doc.Status != *filter.Status {
			continue
		}
		documents = append(documents, *deepCopy(doc))
	}
	return documents, nil
}

func (r *memoryRepository) Replace(ctx context.Context, doc *models.Document, readVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.docs[doc.ID]
	if !ok {
		return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
	}
	if stored.CurrentVersion != readVersion {
		return fmt.Errorf("document %s: %w", doc.ID, repositories.ErrVersionConflict)
	}
	r.docs[doc.ID] = deepCopy(doc)
	return nil
}

func (r *memoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.docs[id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(r.docs, id)
	return nil
}

func (r *memoryRepository) CountReportsUsingTemplate(ctx context.Context, templateID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for _, doc := range r.docs {
		if doc.Type == models.TypeReport && doc.TemplateID != nil && *doc.TemplateID == templateID {
			count++
		}
	}
	return count, nil
}

// memoryTxManager runs the function directly; the in-memory repository has
// no transactions to coordinate.
type memoryTxManager struct{}

func (m *memoryTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
