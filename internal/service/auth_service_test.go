package service

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/docflow-hr/docflow-api/internal/models"
	"github.com/docflow-hr/docflow-api/internal/repository"
	appErrors "github.com/docflow-hr/docflow-api/pkg/errors"
)

type fakeAuthUsers struct {
	byEmail    map[string]models.User
	lastLogins map[string]time.Time
}

func (f *fakeAuthUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := f.byEmail[email]; ok {
		return &user, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAuthUsers) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if f.lastLogins == nil {
		f.lastLogins = make(map[string]time.Time)
	}
	f.lastLogins[id] = at
	return nil
}

type fakeMagicLinks struct {
	hashes map[string]string
}

func (f *fakeMagicLinks) Store(ctx context.Context, email, tokenHash string, ttl time.Duration) error {
	if f.hashes == nil {
		f.hashes = make(map[string]string)
	}
	f.hashes[email] = tokenHash
	return nil
}

func (f *fakeMagicLinks) Consume(ctx context.Context, email string) (string, error) {
	hash, ok := f.hashes[email]
	if !ok {
		return "", repository.ErrTokenNotFound
	}
	delete(f.hashes, email)
	return hash, nil
}

func newAuthFixture(logger *zap.Logger) (*AuthService, *fakeAuthUsers, *fakeMagicLinks, *fakeAuditSink) {
	users := &fakeAuthUsers{byEmail: map[string]models.User{
		"hr@example.com": {
			ID: "user-1", OrgID: "org-1", Email: "hr@example.com",
			FullName: "HR Admin", Role: models.RoleHRAdmin, Status: models.UserActive,
		},
	}}
	links := &fakeMagicLinks{}
	audit := &fakeAuditSink{}
	svc := NewAuthService(users, links, audit, AuthConfig{
		AccessTokenSecret: "test-secret",
		Issuer:            "docflow",
		Audience:          "docflow-api",
	}, nil, logger)
	return svc, users, links, audit
}

// issuedToken digs the plaintext token out of the log record, the only
// place it leaves the service when mail delivery is out of band.
func issuedToken(t *testing.T, logs *observer.ObservedLogs) string {
	t.Helper()
	for _, entry := range logs.All() {
		if entry.Message != "magic link issued" {
			continue
		}
		for _, field := range entry.Context {
			if field.Key == "token" {
				return field.String
			}
		}
	}
	t.Fatal("magic link token not logged")
	return ""
}

func TestMagicLinkRoundTrip(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc, users, _, audit := newAuthFixture(zap.New(core))

	err := svc.RequestMagicLink(context.Background(), models.MagicLinkRequest{Email: "HR@example.com"})
	require.NoError(t, err)
	token := issuedToken(t, logs)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9_-]{40,}$`), token)

	pair, err := svc.VerifyMagicLink(context.Background(), models.MagicLinkVerifyRequest{
		Email: "hr@example.com", Token: token,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "user-1", pair.User.ID)
	assert.Contains(t, users.lastLogins, "user-1")
	require.Len(t, audit.events, 1)
	assert.Equal(t, models.AuditUserLogin, audit.events[0].Action)

	claims, err := svc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "org-1", claims.OrgID)
	assert.Equal(t, models.RoleHRAdmin, claims.Role)
}

func TestMagicLinkIsSingleUse(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc, _, _, _ := newAuthFixture(zap.New(core))

	require.NoError(t, svc.RequestMagicLink(context.Background(), models.MagicLinkRequest{Email: "hr@example.com"}))
	token := issuedToken(t, logs)

	_, err := svc.VerifyMagicLink(context.Background(), models.MagicLinkVerifyRequest{Email: "hr@example.com", Token: token})
	require.NoError(t, err)

	_, err = svc.VerifyMagicLink(context.Background(), models.MagicLinkVerifyRequest{Email: "hr@example.com", Token: token})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestMagicLinkWrongTokenFails(t *testing.T) {
	svc, _, links, _ := newAuthFixture(zap.NewNop())

	require.NoError(t, svc.RequestMagicLink(context.Background(), models.MagicLinkRequest{Email: "hr@example.com"}))
	require.NotEmpty(t, links.hashes)

	_, err := svc.VerifyMagicLink(context.Background(), models.MagicLinkVerifyRequest{Email: "hr@example.com", Token: "guessed"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)

	// The hash was consumed by the failed attempt; the link is burned.
	assert.Empty(t, links.hashes)
}

func TestMagicLinkUnknownEmailDoesNotLeak(t *testing.T) {
	svc, _, links, _ := newAuthFixture(zap.NewNop())

	err := svc.RequestMagicLink(context.Background(), models.MagicLinkRequest{Email: "nobody@example.com"})
	require.NoError(t, err)
	assert.Empty(t, links.hashes)
}

func TestRefreshRotatesTokens(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc, _, _, _ := newAuthFixture(zap.New(core))

	require.NoError(t, svc.RequestMagicLink(context.Background(), models.MagicLinkRequest{Email: "hr@example.com"}))
	pair, err := svc.VerifyMagicLink(context.Background(), models.MagicLinkVerifyRequest{
		Email: "hr@example.com", Token: issuedToken(t, logs),
	})
	require.NoError(t, err)

	next, err := svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, next.AccessToken)

	_, err = svc.ValidateToken(next.AccessToken)
	require.NoError(t, err)
}

func TestValidateTokenRejectsRefreshToken(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	svc, _, _, _ := newAuthFixture(zap.New(core))

	require.NoError(t, svc.RequestMagicLink(context.Background(), models.MagicLinkRequest{Email: "hr@example.com"}))
	pair, err := svc.VerifyMagicLink(context.Background(), models.MagicLinkVerifyRequest{
		Email: "hr@example.com", Token: issuedToken(t, logs),
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(pair.RefreshToken)
	require.Error(t, err)

	_, err = svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: pair.AccessToken})
	require.Error(t, err)
}

func TestInactiveUserCannotLogin(t *testing.T) {
	svc, users, links, _ := newAuthFixture(zap.NewNop())
	users.byEmail["hr@example.com"] = models.User{
		ID: "user-1", OrgID: "org-1", Email: "hr@example.com", Status: models.UserInactive,
	}

	require.NoError(t, svc.RequestMagicLink(context.Background(), models.MagicLinkRequest{Email: "hr@example.com"}))
	assert.Empty(t, links.hashes)
}
