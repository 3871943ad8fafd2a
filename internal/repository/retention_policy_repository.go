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

// RetentionPolicyRepository manages persistence for retention policies.
// Policies are keyed uniquely by (org_id, state_code, document_category);
// uniqueness is enforced by the table constraint.
type RetentionPolicyRepository struct {
	db *sqlx.DB
}

// NewRetentionPolicyRepository constructs a new repository.
func NewRetentionPolicyRepository(db *sqlx.DB) *RetentionPolicyRepository {
	return &RetentionPolicyRepository{db: db}
}

const policyColumns = `id, org_id, state_code, document_category, retention_days, created_by, created_at, updated_at`

// Find returns the policy for the exact (org, state, category) key, or
// sql.ErrNoRows. State codes are stored upper-cased.
func (r *RetentionPolicyRepository) Find(ctx context.Context, orgID, stateCode string, category models.DocumentCategory) (*models.RetentionPolicy, error) {
	query := fmt.Sprintf("SELECT %s FROM retention_policies WHERE org_id = $1 AND state_code = $2 AND document_category = $3", policyColumns)
	var policy models.RetentionPolicy
	if err := r.db.GetContext(ctx, &policy, query, orgID, strings.ToUpper(stateCode), category); err != nil {
		return nil, fmt.Errorf("find retention policy: %w", err)
	}
	return &policy, nil
}

// ListByOrg returns every policy configured for the organization.
func (r *RetentionPolicyRepository) ListByOrg(ctx context.Context, orgID string) ([]models.RetentionPolicy, error) {
	query := fmt.Sprintf("SELECT %s FROM retention_policies WHERE org_id = $1 ORDER BY state_code, document_category", policyColumns)
	var policies []models.RetentionPolicy
	if err := r.db.SelectContext(ctx, &policies, query, orgID); err != nil {
		return nil, fmt.Errorf("list retention policies: %w", err)
	}
	return policies, nil
}

// Create inserts a new retention policy.
func (r *RetentionPolicyRepository) Create(ctx context.Context, policy *models.RetentionPolicy) error {
	if policy.ID == "" {
		policy.ID = uuid.NewString()
	}
	if policy.CreatedAt.IsZero() {
		policy.CreatedAt = time.Now().UTC()
	}
	policy.StateCode = strings.ToUpper(policy.StateCode)
	query := `INSERT INTO retention_policies (id, org_id, state_code, document_category, retention_days, created_by, created_at, updated_at)
VALUES (:id, :org_id, :state_code, :document_category, :retention_days, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, policy); err != nil {
		return fmt.Errorf("create retention policy: %w", err)
	}
	return nil
}
