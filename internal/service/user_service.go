package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/docflow-hr/docflow-api/internal/models"
	appErrors "github.com/docflow-hr/docflow-api/pkg/errors"
)

type userStore interface {
	FindByID(ctx context.Context, orgID, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context, orgID string, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
}

// UserService manages platform users within an organization.
type UserService struct {
	users     userStore
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the service.
func NewUserService(users userStore, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, audit: audit, validator: validate, logger: logger}
}

// InviteUserRequest describes the invite payload.
type InviteUserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,max=200"`
	Role     string `json:"role" validate:"required,oneof=hr_admin hr_manager legal auditor employee"`
	OrgID    string `json:"-"`
	ActorID  string `json:"-"`
}

// Invite creates a pending user. The invited user activates on first
// magic-link login; invitation email delivery is out of band.
func (s *UserService) Invite(ctx context.Context, req InviteUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid invite payload")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if existing, err := s.users.FindByEmail(ctx, email); err == nil && existing != nil {
		return nil, appErrors.Conflict("a user with this email already exists")
	} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	user := &models.User{
		OrgID:    req.OrgID,
		Email:    email,
		FullName: strings.TrimSpace(req.FullName),
		Role:     models.UserRole(req.Role),
		Status:   models.UserPending,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.logger.Info("user invited", zap.String("user_id", user.ID), zap.String("email", email))
	recordAudit(ctx, s.logger, s.audit, &models.AuditEvent{
		OrgID:      req.OrgID,
		EntityType: "user",
		EntityID:   user.ID,
		Action:     models.AuditUserInvited,
		ActorID:    req.ActorID,
		Metadata: models.JSONMap{
			"email": user.Email,
			"role":  string(user.Role),
		},
	})
	return user, nil
}

// Get returns a single user scoped to the organization.
func (s *UserService) Get(ctx context.Context, orgID, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("user", id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// List returns users with pagination.
func (s *UserService) List(ctx context.Context, orgID string, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	users, total, err := s.users.List(ctx, orgID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return users, pagination, nil
}
