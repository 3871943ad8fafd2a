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

// LegalHoldRepository manages persistence for legal holds. Holds are
// never deleted; release is a conditional one-way status transition.
type LegalHoldRepository struct {
	db *sqlx.DB
}

// NewLegalHoldRepository constructs a new repository.
func NewLegalHoldRepository(db *sqlx.DB) *LegalHoldRepository {
	return &LegalHoldRepository{db: db}
}

const holdColumns = `id, org_id, name, scope_type, scope_value, reason, status, created_by, created_at, released_by, released_at`

// FindByID returns the hold scoped to the organization, or sql.ErrNoRows.
func (r *LegalHoldRepository) FindByID(ctx context.Context, orgID, id string) (*models.LegalHold, error) {
	query := fmt.Sprintf("SELECT %s FROM legal_holds WHERE id = $1 AND org_id = $2", holdColumns)
	var hold models.LegalHold
	if err := r.db.GetContext(ctx, &hold, query, id, orgID); err != nil {
		return nil, fmt.Errorf("find legal hold: %w", err)
	}
	return &hold, nil
}

// ListActive returns every active hold for the organization. Active-hold
// counts are expected to stay small, so no pagination is applied here.
func (r *LegalHoldRepository) ListActive(ctx context.Context, orgID string) ([]models.LegalHold, error) {
	query := fmt.Sprintf("SELECT %s FROM legal_holds WHERE org_id = $1 AND status = $2 ORDER BY created_at", holdColumns)
	var holds []models.LegalHold
	if err := r.db.SelectContext(ctx, &holds, query, orgID, models.HoldActive); err != nil {
		return nil, fmt.Errorf("list active legal holds: %w", err)
	}
	return holds, nil
}

// List returns holds per provided filter.
func (r *LegalHoldRepository) List(ctx context.Context, orgID string, filter models.LegalHoldFilter) ([]models.LegalHold, int, error) {
	where := []string{"org_id = $1"}
	args := []interface{}{orgID}
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
	query := fmt.Sprintf("SELECT %s FROM legal_holds WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d", holdColumns, whereClause, size, offset)
	var holds []models.LegalHold
	if err := r.db.SelectContext(ctx, &holds, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list legal holds: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM legal_holds WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count legal holds: %w", err)
	}
	return holds, total, nil
}

// Create inserts a new hold in active status.
func (r *LegalHoldRepository) Create(ctx context.Context, hold *models.LegalHold) error {
	if hold.ID == "" {
		hold.ID = uuid.NewString()
	}
	if hold.CreatedAt.IsZero() {
		hold.CreatedAt = time.Now().UTC()
	}
	if hold.Status == "" {
		hold.Status = models.HoldActive
	}
	query := `INSERT INTO legal_holds (id, org_id, name, scope_type, scope_value, reason, status, created_by, created_at, released_by, released_at)
VALUES (:id, :org_id, :name, :scope_type, :scope_value, :reason, :status, :created_by, :created_at, :released_by, :released_at)`
	if _, err := r.db.NamedExecContext(ctx, query, hold); err != nil {
		return fmt.Errorf("create legal hold: %w", err)
	}
	return nil
}

// Release transitions the hold to released. The condition on the current
// status keeps the transition one-way; zero rows means the hold was not
// active (already released, or absent). Returns the number of rows updated.
func (r *LegalHoldRepository) Release(ctx context.Context, orgID, id, releasedBy string, releasedAt time.Time) (int64, error) {
	query := `UPDATE legal_holds SET status = $1, released_by = $2, released_at = $3
WHERE id = $4 AND org_id = $5 AND status = $6`
	res, err := r.db.ExecContext(ctx, query, models.HoldReleased, releasedBy, releasedAt, id, orgID, models.HoldActive)
	if err != nil {
		return 0, fmt.Errorf("release legal hold: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("release legal hold: %w", err)
	}
	return affected, nil
}
