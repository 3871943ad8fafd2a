package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/docflow-hr/docflow-api/internal/models"
	appErrors "github.com/docflow-hr/docflow-api/pkg/errors"
)

type organizationStore interface {
	FindByID(ctx context.Context, id string) (*models.Organization, error)
	FindBySlug(ctx context.Context, slug string) (*models.Organization, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, org *models.Organization) error
}

type orgUserCreator interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type policySeeder interface {
	SeedDefaultPolicies(ctx context.Context, orgID, actorID string) ([]models.RetentionPolicy, error)
}

// OrganizationService provisions tenants. Creating an organization also
// creates its first hr_admin user and seeds the default state retention
// policies so the engine is usable immediately.
type OrganizationService struct {
	orgs      organizationStore
	users     orgUserCreator
	policies  policySeeder
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewOrganizationService constructs the service.
func NewOrganizationService(orgs organizationStore, users orgUserCreator, policies policySeeder, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *OrganizationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrganizationService{
		orgs:      orgs,
		users:     users,
		policies:  policies,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// CreateOrganizationRequest describes tenant provisioning input.
type CreateOrganizationRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	AdminEmail    string `json:"admin_email" validate:"required,email"`
	AdminFullName string `json:"admin_full_name" validate:"required,max=200"`
}

// Create provisions a new organization with its initial admin user and
// the default retention policies.
func (s *OrganizationService) Create(ctx context.Context, req CreateOrganizationRequest) (*models.Organization, *models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid organization payload")
	}

	adminEmail := strings.ToLower(strings.TrimSpace(req.AdminEmail))
	if existing, err := s.users.FindByEmail(ctx, adminEmail); err == nil && existing != nil {
		return nil, nil, appErrors.Conflict("a user with this email already exists")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check admin email")
	}

	slug, err := s.uniqueSlug(ctx, req.Name)
	if err != nil {
		return nil, nil, err
	}

	org := &models.Organization{
		Name: strings.TrimSpace(req.Name),
		Slug: slug,
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create organization")
	}

	admin := &models.User{
		OrgID:    org.ID,
		Email:    adminEmail,
		FullName: strings.TrimSpace(req.AdminFullName),
		Role:     models.RoleHRAdmin,
		Status:   models.UserActive,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create admin user")
	}

	if _, err := s.policies.SeedDefaultPolicies(ctx, org.ID, admin.ID); err != nil {
		s.logger.Warn("failed to seed default retention policies",
			zap.String("org_id", org.ID), zap.Error(err))
	}

	recordAudit(ctx, s.logger, s.audit, &models.AuditEvent{
		OrgID:      org.ID,
		EntityType: "organization",
		EntityID:   org.ID,
		Action:     models.AuditOrgCreated,
		ActorID:    admin.ID,
		ActorEmail: &admin.Email,
		Metadata: models.JSONMap{
			"name": org.Name,
			"slug": org.Slug,
		},
	})
	return org, admin, nil
}

// Get returns a single organization.
func (s *OrganizationService) Get(ctx context.Context, id string) (*models.Organization, error) {
	org, err := s.orgs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("organization", id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organization")
	}
	return org, nil
}

// GetBySlug resolves an organization by its URL slug.
func (s *OrganizationService) GetBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	org, err := s.orgs.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("organization", slug)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load organization")
	}
	return org, nil
}

func (s *OrganizationService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slugify(name)
	if base == "" {
		base = "org"
	}
	slug := base
	for i := 2; ; i++ {
		exists, err := s.orgs.SlugExists(ctx, slug)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slug")
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDash = false
		case !lastDash:
			b.WriteRune('-')
			lastDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
