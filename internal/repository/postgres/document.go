package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"firmdesk/internal/domain"
	"firmdesk/internal/domain/models"
	"firmdesk/internal/domain/repositories"
)

// humanIDAttempts bounds retries when two inserts race for the same
// human-readable code on the same day.
const humanIDAttempts = 3

// PostgresDocumentRepository implements the DocumentRepository interface.
// Revisions, sections and reviewers are stored as JSONB payloads; the
// repository never inspects them.
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(config *RepositoryConfig) repositories.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// codePrefix returns the human-id prefix for a document type and day,
// e.g. "RPT-20260829-".
func codePrefix(docType models.DocumentType, t time.Time) string {
	code := "DOC"
	switch docType {
	case models.TypeReport:
		code = "RPT"
	case models.TypeTemplate:
		code = "TPL"
	}
	return fmt.Sprintf("%s-%s-", code, t.UTC().Format("20060102"))
}

// Insert stores a new document and assigns its human-readable code. The
// sequence scan includes soft-deleted rows, so a code is never reused even
// after its document is deleted. A unique index on human_id backstops the
// scan; races retry with the next number.
func (r *PostgresDocumentRepository) Insert(ctx context.Context, doc *models.Document) error {
	executor := GetExecutor(ctx, r.pool)

	sections, revisions, reviewers, err := marshalPayloads(doc)
	if err != nil {
		return err
	}

	prefix := codePrefix(doc.Type, doc.CreatedAt)

	for attempt := 0; attempt < humanIDAttempts; attempt++ {
		seqQuery := fmt.Sprintf(`
			SELECT COALESCE(MAX(SUBSTRING(human_id FROM %d)::int), 0)
			FROM %s
			WHERE human_id LIKE $1
		`, len(prefix)+1, r.tables.Documents)

		var last int
		if err := executor.QueryRow(ctx, seqQuery, prefix+"%").Scan(&last); err != nil {
			return fmt.Errorf("next human id: %w", err)
		}
		doc.HumanID = fmt.Sprintf("%s%04d", prefix, last+1)

		insertQuery := fmt.Sprintf(`
			INSERT INTO %s (id, human_id, doc_type, title, content, sections, current_version,
			                revisions, reviewers, status, template_id, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`, r.tables.Documents)

		_, err = executor.Exec(ctx, insertQuery,
			doc.ID,
			doc.HumanID,
			doc.Type,
			doc.Title,
			doc.Content,
			sections,
			doc.CurrentVersion,
			revisions,
			reviewers,
			doc.Status,
			doc.TemplateID,
			doc.CreatedBy,
			doc.CreatedAt,
			doc.UpdatedAt,
		)
		if err == nil {
			return nil
		}
		if !IsPgDuplicateError(err) {
			return fmt.Errorf("insert document: %w", err)
		}
		r.logger.Debug("human id collision, retrying", "human_id", doc.HumanID)
	}

	return fmt.Errorf("insert document: could not allocate human id after %d attempts", humanIDAttempts)
}

const documentColumns = `id, human_id, doc_type, title, content, sections, current_version,
       revisions, reviewers, status, template_id, created_by, created_at, updated_at`

// FindByID retrieves a live document with its full revision log.
func (r *PostgresDocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, documentColumns, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	doc, err := scanDocument(executor.QueryRow(ctx, query, id))
	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return doc, nil
}

// FindMany lists live documents matching the filter, newest first.
// Revision logs and sections are omitted from listings; reviewers ride
// along so the dashboard can show review standing without extra calls.
func (r *PostgresDocumentRepository) FindMany(ctx context.Context, filter *repositories.DocumentFilter) ([]models.Document, error) {
	var conditions []string
	var args []interface{}

	conditions = append(conditions, "deleted_at IS NULL")
	if filter.Type != nil {
		args = append(args, *filter.Type)
		conditions = append(conditions, fmt.Sprintf("doc_type = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT id, human_id, doc_type, title, current_version, reviewers, status,
		       template_id, created_by, created_at, updated_at
		FROM %s
		WHERE %s
		ORDER BY updated_at DESC
	`, r.tables.Documents, strings.Join(conditions, " AND "))

	args = append(args, filter.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var documents []models.Document
	for rows.Next() {
		var doc models.Document
		var reviewers []byte
		err := rows.Scan(
			&doc.ID,
			&doc.HumanID,
			&doc.Type,
			&doc.Title,
			&doc.CurrentVersion,
			&reviewers,
			&doc.Status,
			&doc.TemplateID,
			&doc.CreatedBy,
			&doc.CreatedAt,
			&doc.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if err := json.Unmarshal(reviewers, &doc.Reviewers); err != nil {
			return nil, fmt.Errorf("decode reviewers: %w", err)
		}
		documents = append(documents, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}

	// Return empty slice instead of nil
	if documents == nil {
		documents = []models.Document{}
	}

	return documents, nil
}

// Replace overwrites the stored record, guarded by the version number the
// caller read before mutating. A failed guard on an existing row means a
// concurrent writer won; callers retry under the per-document lock.
func (r *PostgresDocumentRepository) Replace(ctx context.Context, doc *models.Document, readVersion int) error {
	sections, revisions, reviewers, err := marshalPayloads(doc)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, content = $2, sections = $3, current_version = $4,
		    revisions = $5, reviewers = $6, status = $7, template_id = $8, updated_at = $9
		WHERE id = $10 AND current_version = $11 AND deleted_at IS NULL
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		doc.Title,
		doc.Content,
		sections,
		doc.CurrentVersion,
		revisions,
		reviewers,
		doc.Status,
		doc.TemplateID,
		doc.UpdatedAt,
		doc.ID,
		readVersion,
	)
	if err != nil {
		return fmt.Errorf("replace document: %w", err)
	}

	if result.RowsAffected() == 0 {
		// Distinguish a lost race from a missing document
		existsQuery := fmt.Sprintf(`SELECT 1 FROM %s WHERE id = $1 AND deleted_at IS NULL`, r.tables.Documents)
		var one int
		if scanErr := executor.QueryRow(ctx, existsQuery, doc.ID).Scan(&one); scanErr != nil {
			if IsPgNoRowsError(scanErr) {
				return fmt.Errorf("document %s: %w", doc.ID, domain.ErrNotFound)
			}
			return fmt.Errorf("replace document: %w", scanErr)
		}
		return fmt.Errorf("document %s: %w", doc.ID, repositories.ErrVersionConflict)
	}

	return nil
}

// Delete soft-deletes a document. The row stays so its human id is never
// handed out again.
func (r *PostgresDocumentRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`, r.tables.Documents)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// CountReportsUsingTemplate counts live reports referencing a template.
func (r *PostgresDocumentRepository) CountReportsUsingTemplate(ctx context.Context, templateID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM %s
		WHERE doc_type = $1 AND template_id = $2 AND deleted_at IS NULL
	`, r.tables.Documents)

	var count int
	executor := GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, models.TypeReport, templateID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count template references: %w", err)
	}

	return count, nil
}

// marshalPayloads encodes the JSONB columns. Null-ness is normalized to
// empty arrays so readers never see SQL NULL payloads.
func marshalPayloads(doc *models.Document) (sections, revisions, reviewers []byte, err error) {
	if sections, err = marshalJSONArray(doc.Sections); err != nil {
		return nil, nil, nil, fmt.Errorf("encode sections: %w", err)
	}
	if revisions, err = marshalJSONArray(doc.Revisions); err != nil {
		return nil, nil, nil, fmt.Errorf("encode revisions: %w", err)
	}
	if reviewers, err = marshalJSONArray(doc.Reviewers); err != nil {
		return nil, nil, nil, fmt.Errorf("encode reviewers: %w", err)
	}
	return sections, revisions, reviewers, nil
}

func marshalJSONArray[T any](v []T) ([]byte, error) {
	if v == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(v)
}

// rowScanner abstracts pgx.Row for scanDocument.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var sections, revisions, reviewers []byte

	err := row.Scan(
		&doc.ID,
		&doc.HumanID,
		&doc.Type,
		&doc.Title,
		&doc.Content,
		&sections,
		&doc.CurrentVersion,
		&revisions,
		&reviewers,
		&doc.Status,
		&doc.TemplateID,
		&doc.CreatedBy,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(sections, &doc.Sections); err != nil {
		return nil, fmt.Errorf("decode sections: %w", err)
	}
	if err := json.Unmarshal(revisions, &doc.Revisions); err != nil {
		return nil, fmt.Errorf("decode revisions: %w", err)
	}
	if err := json.Unmarshal(reviewers, &doc.Reviewers); err != nil {
		return nil, fmt.Errorf("decode reviewers: %w", err)
	}

	return &doc, nil
}
