package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/docflow-hr/docflow-api/internal/models"
)

// OrganizationRepository manages persistence for organizations.
type OrganizationRepository struct {
	db *sqlx.DB
}

// NewOrganizationRepository constructs a new repository.
func NewOrganizationRepository(db *sqlx.DB) *OrganizationRepository {
	return &OrganizationRepository{db: db}
}

const orgColumns = `id, name, slug, created_by, created_at, updated_at`

// FindByID returns the organization, or sql.ErrNoRows.
func (r *OrganizationRepository) FindByID(ctx context.Context, id string) (*models.Organization, error) {
	query := fmt.Sprintf("SELECT %s FROM organizations WHERE id = $1", orgColumns)
	var org models.Organization
	if err := r.db.GetContext(ctx, &org, query, id); err != nil {
		return nil, fmt.Errorf("find organization: %w", err)
	}
	return &org, nil
}

// FindBySlug returns the organization with the given slug, or sql.ErrNoRows.
func (r *OrganizationRepository) FindBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	query := fmt.Sprintf("SELECT %s FROM organizations WHERE slug = $1", orgColumns)
	var org models.Organization
	if err := r.db.GetContext(ctx, &org, query, slug); err != nil {
		return nil, fmt.Errorf("find organization by slug: %w", err)
	}
	return &org, nil
}

// SlugExists reports whether the slug is already taken.
func (r *OrganizationRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM organizations WHERE slug = $1", slug); err != nil {
		return false, fmt.Errorf("check organization slug: %w", err)
	}
	return count > 0, nil
}

// Create inserts a new organization.
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if org.CreatedAt.IsZero() {
		org.CreatedAt = now
	}
	org.UpdatedAt = now
	query := `INSERT INTO organizations (id, name, slug, created_by, created_at, updated_at)
VALUES (:id, :name, :slug, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, org); err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}
