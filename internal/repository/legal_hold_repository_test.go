package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docflow-hr/docflow-api/internal/models"
)

func newHoldMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestLegalHoldRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newHoldMock(t)
	defer cleanup()
	repo := NewLegalHoldRepository(db)

	rows := sqlmock.NewRows([]string{"id", "org_id", "name", "scope_type", "scope_value", "reason", "status", "created_by", "created_at", "released_by", "released_at"}).
		AddRow("hold-1", "org-1", "SEC Hold", "department", "Finance", nil, "active", "user-1", time.Now(), nil, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM legal_holds WHERE org_id = $1 AND status = $2 ORDER BY created_at")).
		WithArgs("org-1", models.HoldActive).
		WillReturnRows(rows)

	holds, err := repo.ListActive(context.Background(), "org-1")
	require.NoError(t, err)
	require.Len(t, holds, 1)
	assert.Equal(t, models.ScopeDepartment, holds[0].ScopeType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLegalHoldRepositoryCreateDefaultsActive(t *testing.T) {
	db, mock, cleanup := newHoldMock(t)
	defer cleanup()
	repo := NewLegalHoldRepository(db)

	mock.ExpectExec("INSERT INTO legal_holds").
		WillReturnResult(sqlmock.NewResult(1, 1))

	hold := &models.LegalHold{
		OrgID: "org-1", Name: "SEC Hold",
		ScopeType: models.ScopeDepartment, ScopeValue: "Finance", CreatedBy: "user-1",
	}
	require.NoError(t, repo.Create(context.Background(), hold))
	assert.NotEmpty(t, hold.ID)
	assert.Equal(t, models.HoldActive, hold.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLegalHoldRepositoryReleaseOnlyActive(t *testing.T) {
	db, mock, cleanup := newHoldMock(t)
	defer cleanup()
	repo := NewLegalHoldRepository(db)

	releasedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE legal_holds SET status = $1, released_by = $2, released_at = $3")).
		WithArgs(models.HoldReleased, "user-2", releasedAt, "hold-1", "org-1", models.HoldActive).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Release(context.Background(), "org-1", "hold-1", "user-2", releasedAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLegalHoldRepositoryReleaseAlreadyReleased(t *testing.T) {
	db, mock, cleanup := newHoldMock(t)
	defer cleanup()
	repo := NewLegalHoldRepository(db)

	mock.ExpectExec("UPDATE legal_holds SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.Release(context.Background(), "org-1", "hold-1", "user-2", time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}
