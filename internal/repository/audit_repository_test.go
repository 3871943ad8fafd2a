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

func newAuditMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAuditRepositoryInsertAssignsIDAndTimestamp(t *testing.T) {
	db, mock, cleanup := newAuditMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectExec("INSERT INTO audit_events").
		WillReturnResult(sqlmock.NewResult(1, 1))

	event := &models.AuditEvent{
		OrgID: "org-1", EntityType: "document", EntityID: "doc-1",
		Action: models.AuditRetentionSchedule, ActorID: "user-1",
		Metadata: models.JSONMap{"deletion_scheduled_at": "2028-01-09T00:00:00Z"},
	}
	require.NoError(t, repo.Insert(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryQueryFilters(t *testing.T) {
	db, mock, cleanup := newAuditMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	rows := sqlmock.NewRows([]string{"id", "org_id", "entity_type", "entity_id", "action", "actor_id", "actor_email", "metadata", "created_at"}).
		AddRow("evt-1", "org-1", "document", "doc-1", "document.received", "user-1", nil, []byte(`{"category":"tax_forms"}`), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_events WHERE org_id = $1 AND entity_type = $2 AND entity_id = $3 ORDER BY created_at DESC LIMIT 50 OFFSET 0")).
		WithArgs("org-1", "document", "doc-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM audit_events WHERE org_id = $1 AND entity_type = $2 AND entity_id = $3")).
		WithArgs("org-1", "document", "doc-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	events, total, err := repo.Query(context.Background(), "org-1", models.AuditEventFilter{
		EntityType: "document", EntityID: "doc-1",
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "tax_forms", events[0].Metadata["category"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
