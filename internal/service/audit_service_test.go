package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docflow-hr/docflow-api/internal/models"
	appErrors "github.com/docflow-hr/docflow-api/pkg/errors"
)

type fakeAuditLedger struct {
	events []models.AuditEvent
}

func (f *fakeAuditLedger) Insert(ctx context.Context, event *models.AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	f.events = append(f.events, *event)
	return nil
}

func (f *fakeAuditLedger) Query(ctx context.Context, orgID string, filter models.AuditEventFilter) ([]models.AuditEvent, int, error) {
	var result []models.AuditEvent
	for _, event := range f.events {
		if event.OrgID != orgID {
			continue
		}
		if filter.EntityType != "" && event.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && event.EntityID != filter.EntityID {
			continue
		}
		if filter.Action != "" && event.Action != filter.Action {
			continue
		}
		result = append(result, event)
	}
	return result, len(result), nil
}

func TestAuditEmitRequiresCoreFields(t *testing.T) {
	svc := NewAuditService(&fakeAuditLedger{}, zap.NewNop())

	err := svc.Emit(context.Background(), &models.AuditEvent{OrgID: "org-1", EntityType: "document"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	err = svc.Emit(context.Background(), &models.AuditEvent{
		OrgID: "org-1", EntityType: "document", EntityID: "doc-1",
		Action: models.AuditDocumentReceived, ActorID: "user-1",
	})
	require.NoError(t, err)
}

func TestAuditDocumentTrail(t *testing.T) {
	ledger := &fakeAuditLedger{}
	svc := NewAuditService(ledger, zap.NewNop())

	for _, action := range []string{models.AuditDocumentReceived, models.AuditRetentionSchedule} {
		require.NoError(t, svc.Emit(context.Background(), &models.AuditEvent{
			OrgID: "org-1", EntityType: "document", EntityID: "doc-1", Action: action, ActorID: "user-1",
		}))
	}
	require.NoError(t, svc.Emit(context.Background(), &models.AuditEvent{
		OrgID: "org-1", EntityType: "document", EntityID: "doc-2",
		Action: models.AuditDocumentReceived, ActorID: "user-1",
	}))

	events, pagination, err := svc.DocumentTrail(context.Background(), "org-1", "doc-1", 1, 50)
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestAuditExportCSV(t *testing.T) {
	ledger := &fakeAuditLedger{}
	svc := NewAuditService(ledger, zap.NewNop())

	email := "legal@example.com"
	require.NoError(t, svc.Emit(context.Background(), &models.AuditEvent{
		OrgID: "org-1", EntityType: "legal_hold", EntityID: "hold-1",
		Action: models.AuditLegalHoldCreated, ActorID: "user-1", ActorEmail: &email,
		Metadata: models.JSONMap{"name": "SEC Hold"},
	}))

	payload, contentType, err := svc.Export(context.Background(), "org-1", models.AuditEventFilter{}, ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	text := string(payload)
	lines := strings.Split(strings.TrimSpace(text), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "action")
	assert.Contains(t, lines[1], "legal_hold.created")
	assert.Contains(t, lines[1], "legal@example.com")
	assert.Contains(t, lines[1], "SEC Hold")
}

func TestAuditExportPDF(t *testing.T) {
	ledger := &fakeAuditLedger{}
	svc := NewAuditService(ledger, zap.NewNop())

	require.NoError(t, svc.Emit(context.Background(), &models.AuditEvent{
		OrgID: "org-1", EntityType: "document", EntityID: "doc-1",
		Action: models.AuditDocumentReceived, ActorID: "user-1",
	}))

	payload, contentType, err := svc.Export(context.Background(), "org-1", models.AuditEventFilter{}, ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestAuditExportRejectsUnknownFormat(t *testing.T) {
	svc := NewAuditService(&fakeAuditLedger{}, zap.NewNop())

	_, _, err := svc.Export(context.Background(), "org-1", models.AuditEventFilter{}, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
