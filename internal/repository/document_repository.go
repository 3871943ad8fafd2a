package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/docflow-hr/docflow-api/internal/models"
)

// DocumentRepository manages persistence for document records.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs a new repository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

const documentColumns = `id, org_id, employee_id, name, category, status, file_name, file_type, file_size, storage_path, notes, version, expiration_date, deletion_scheduled_at, created_at, updated_at`

// FindByID returns the document scoped to the organization, or sql.ErrNoRows.
func (r *DocumentRepository) FindByID(ctx context.Context, orgID, id string) (*models.Document, error) {
	query := fmt.Sprintf("SELECT %s FROM documents WHERE id = $1 AND org_id = $2", documentColumns)
	var document models.Document
	if err := r.db.GetContext(ctx, &document, query, id, orgID); err != nil {
		return nil, fmt.Errorf("find document: %w", err)
	}
	return &document, nil
}

// List returns documents per provided filter.
func (r *DocumentRepository) List(ctx context.Context, orgID string, filter models.DocumentFilter) ([]models.Document, int, error) {
	where := []string{"org_id = $1"}
	args := []interface{}{orgID}
	if filter.EmployeeID != "" {
		where = append(where, fmt.Sprintf("employee_id = $%d", len(args)+1))
		args = append(args, filter.EmployeeID)
	}
	if filter.Category != "" {
		where = append(where, fmt.Sprintf("category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	whereClause := strings.Join(where, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size
	query := fmt.Sprintf("SELECT %s FROM documents WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d", documentColumns, whereClause, size, offset)
	var documents []models.Document
	if err := r.db.SelectContext(ctx, &documents, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM documents WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}
	return documents, total, nil
}

// ListExpiring returns documents whose expiration date falls within the window.
func (r *DocumentRepository) ListExpiring(ctx context.Context, orgID string, until time.Time) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents
WHERE org_id = $1 AND expiration_date IS NOT NULL AND expiration_date <= $2 AND status != $3
ORDER BY expiration_date`, documentColumns)
	var documents []models.Document
	if err := r.db.SelectContext(ctx, &documents, query, orgID, until, models.DocumentExpired); err != nil {
		return nil, fmt.Errorf("list expiring documents: %w", err)
	}
	return documents, nil
}

// Create inserts a new document record.
func (r *DocumentRepository) Create(ctx context.Context, document *models.Document) error {
	if document.ID == "" {
		document.ID = uuid.NewString()
	}
	if document.CreatedAt.IsZero() {
		document.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO documents (id, org_id, employee_id, name, category, status, file_name, file_type, file_size, storage_path, notes, version, expiration_date, deletion_scheduled_at, created_at, updated_at)
VALUES (:id, :org_id, :employee_id, :name, :category, :status, :file_name, :file_type, :file_size, :storage_path, :notes, :version, :expiration_date, :deletion_scheduled_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, document); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// Update modifies mutable document metadata.
func (r *DocumentRepository) Update(ctx context.Context, document *models.Document) error {
	now := time.Now().UTC()
	document.UpdatedAt = &now
	query := `UPDATE documents SET name = :name, category = :category, status = :status, notes = :notes, expiration_date = :expiration_date, updated_at = :updated_at
WHERE id = :id AND org_id = :org_id`
	if _, err := r.db.NamedExecContext(ctx, query, document); err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	return nil
}

// ScheduleDeletion records the deletion intent on the document. The update
// is conditional on the last-seen updated_at so a write racing a newer
// mutation (for example a hold-driven refusal that touched the row) is
// rejected instead of clobbering it. Returns the number of rows updated.
func (r *DocumentRepository) ScheduleDeletion(ctx context.Context, orgID, id string, deletionAt time.Time, seenUpdatedAt *time.Time) (int64, error) {
	now := time.Now().UTC()
	query := `UPDATE documents SET deletion_scheduled_at = $1, updated_at = $2
WHERE id = $3 AND org_id = $4 AND ((updated_at = $5) OR (updated_at IS NULL AND $5 IS NULL))`
	res, err := r.db.ExecContext(ctx, query, deletionAt, now, id, orgID, seenUpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("schedule document deletion: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("schedule document deletion: %w", err)
	}
	return affected, nil
}
