package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docflow-hr/docflow-api/internal/models"
	appErrors "github.com/docflow-hr/docflow-api/pkg/errors"
)

type fakeOrgRepo struct {
	orgs map[string]models.Organization
}

func (f *fakeOrgRepo) FindByID(ctx context.Context, id string) (*models.Organization, error) {
	if org, ok := f.orgs[id]; ok {
		return &org, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeOrgRepo) FindBySlug(ctx context.Context, slug string) (*models.Organization, error) {
	for _, org := range f.orgs {
		if org.Slug == slug {
			return &org, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeOrgRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := f.FindBySlug(ctx, slug)
	if err == nil {
		return true, nil
	}
	return false, nil
}

func (f *fakeOrgRepo) Create(ctx context.Context, org *models.Organization) error {
	if f.orgs == nil {
		f.orgs = make(map[string]models.Organization)
	}
	if org.ID == "" {
		org.ID = uuid.NewString()
	}
	org.CreatedAt = time.Now().UTC()
	f.orgs[org.ID] = *org
	return nil
}

type fakeUserRepo struct {
	users map[string]models.User
}

func (f *fakeUserRepo) FindByID(ctx context.Context, orgID, id string) (*models.User, error) {
	if user, ok := f.users[id]; ok && user.OrgID == orgID {
		return &user, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserRepo) List(ctx context.Context, orgID string, filter models.UserFilter) ([]models.User, int, error) {
	var result []models.User
	for _, user := range f.users {
		if user.OrgID == orgID {
			result = append(result, user)
		}
	}
	return result, len(result), nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if f.users == nil {
		f.users = make(map[string]models.User)
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	f.users[user.ID] = *user
	return nil
}

type fakeSeeder struct {
	seededOrgs []string
	err        error
}

func (f *fakeSeeder) SeedDefaultPolicies(ctx context.Context, orgID, actorID string) ([]models.RetentionPolicy, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.seededOrgs = append(f.seededOrgs, orgID)
	return nil, nil
}

func TestOrganizationCreateProvisionsAdminAndPolicies(t *testing.T) {
	orgs := &fakeOrgRepo{}
	users := &fakeUserRepo{}
	seeder := &fakeSeeder{}
	audit := &fakeAuditSink{}
	svc := NewOrganizationService(orgs, users, seeder, audit, nil, zap.NewNop())

	org, admin, err := svc.Create(context.Background(), CreateOrganizationRequest{
		Name: "Acme Staffing, Inc.", AdminEmail: "Admin@Acme.com", AdminFullName: "Pat Doe",
	})
	require.NoError(t, err)
	assert.Equal(t, "acme-staffing-inc", org.Slug)
	assert.Equal(t, "admin@acme.com", admin.Email)
	assert.Equal(t, models.RoleHRAdmin, admin.Role)
	assert.Equal(t, []string{org.ID}, seeder.seededOrgs)

	require.Len(t, audit.events, 1)
	assert.Equal(t, models.AuditOrgCreated, audit.events[0].Action)
}

func TestOrganizationCreateDeduplicatesSlug(t *testing.T) {
	orgs := &fakeOrgRepo{}
	svc := NewOrganizationService(orgs, &fakeUserRepo{}, &fakeSeeder{}, &fakeAuditSink{}, nil, zap.NewNop())

	first, _, err := svc.Create(context.Background(), CreateOrganizationRequest{
		Name: "Acme", AdminEmail: "a@acme.com", AdminFullName: "A",
	})
	require.NoError(t, err)
	assert.Equal(t, "acme", first.Slug)

	second, _, err := svc.Create(context.Background(), CreateOrganizationRequest{
		Name: "Acme", AdminEmail: "b@acme.com", AdminFullName: "B",
	})
	require.NoError(t, err)
	assert.Equal(t, "acme-2", second.Slug)
}

func TestOrganizationCreateDuplicateAdminEmail(t *testing.T) {
	users := &fakeUserRepo{}
	require.NoError(t, users.Create(context.Background(), &models.User{
		OrgID: "org-0", Email: "taken@acme.com",
	}))
	svc := NewOrganizationService(&fakeOrgRepo{}, users, &fakeSeeder{}, &fakeAuditSink{}, nil, zap.NewNop())

	_, _, err := svc.Create(context.Background(), CreateOrganizationRequest{
		Name: "Acme", AdminEmail: "taken@acme.com", AdminFullName: "A",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserInvite(t *testing.T) {
	users := &fakeUserRepo{}
	audit := &fakeAuditSink{}
	svc := NewUserService(users, audit, nil, zap.NewNop())

	user, err := svc.Invite(context.Background(), InviteUserRequest{
		Email: "Legal@Acme.com", FullName: "Lee Gal", Role: "legal",
		OrgID: "org-1", ActorID: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "legal@acme.com", user.Email)
	assert.Equal(t, models.UserPending, user.Status)
	require.Len(t, audit.events, 1)
	assert.Equal(t, models.AuditUserInvited, audit.events[0].Action)

	_, err = svc.Invite(context.Background(), InviteUserRequest{
		Email: "legal@acme.com", FullName: "Lee Gal", Role: "legal",
		OrgID: "org-1", ActorID: "user-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserInviteRejectsUnknownRole(t *testing.T) {
	svc := NewUserService(&fakeUserRepo{}, &fakeAuditSink{}, nil, zap.NewNop())

	_, err := svc.Invite(context.Background(), InviteUserRequest{
		Email: "x@acme.com", FullName: "X", Role: "superuser",
		OrgID: "org-1", ActorID: "user-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
