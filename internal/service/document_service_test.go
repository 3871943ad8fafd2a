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

type fakeDocumentRepo struct {
	documents map[string]models.Document
}

func (f *fakeDocumentRepo) FindByID(ctx context.Context, orgID, id string) (*models.Document, error) {
	if doc, ok := f.documents[id]; ok && doc.OrgID == orgID {
		return &doc, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeDocumentRepo) List(ctx context.Context, orgID string, filter models.DocumentFilter) ([]models.Document, int, error) {
	var result []models.Document
	for _, doc := range f.documents {
		if doc.OrgID == orgID {
			result = append(result, doc)
		}
	}
	return result, len(result), nil
}

func (f *fakeDocumentRepo) ListExpiring(ctx context.Context, orgID string, until time.Time) ([]models.Document, error) {
	var result []models.Document
	for _, doc := range f.documents {
		if doc.OrgID != orgID || doc.ExpirationDate == nil {
			continue
		}
		if !doc.ExpirationDate.After(until) {
			result = append(result, doc)
		}
	}
	return result, nil
}

func (f *fakeDocumentRepo) Create(ctx context.Context, document *models.Document) error {
	if f.documents == nil {
		f.documents = make(map[string]models.Document)
	}
	if document.ID == "" {
		document.ID = uuid.NewString()
	}
	document.CreatedAt = time.Now().UTC()
	f.documents[document.ID] = *document
	return nil
}

func (f *fakeDocumentRepo) Update(ctx context.Context, document *models.Document) error {
	f.documents[document.ID] = *document
	return nil
}

func newDocumentFixture() (*DocumentService, *fakeDocumentRepo, *fakeAuditSink) {
	docs := &fakeDocumentRepo{}
	emps := &fakeEmployeeReader{employees: map[string]models.Employee{
		"emp-1": {ID: "emp-1", OrgID: "org-1", Department: "Finance"},
	}}
	audit := &fakeAuditSink{}
	svc := NewDocumentService(docs, emps, nil, nil, audit, nil, zap.NewNop())
	return svc, docs, audit
}

func TestDocumentCreateEmitsReceivedEvent(t *testing.T) {
	svc, _, audit := newDocumentFixture()

	document, err := svc.Create(context.Background(), CreateDocumentRequest{
		EmployeeID: "emp-1", Name: "W-4 2024", Category: "tax_forms",
		FileName: "w4.pdf", FileType: "application/pdf",
		OrgID: "org-1", ActorID: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentPendingReview, document.Status)
	assert.Equal(t, 1, document.Version)

	require.Len(t, audit.events, 1)
	assert.Equal(t, models.AuditDocumentReceived, audit.events[0].Action)
	assert.Equal(t, document.ID, audit.events[0].EntityID)
}

func TestDocumentCreateUnknownEmployee(t *testing.T) {
	svc, _, _ := newDocumentFixture()

	_, err := svc.Create(context.Background(), CreateDocumentRequest{
		EmployeeID: "ghost", Name: "W-4", Category: "tax_forms",
		FileName: "w4.pdf", FileType: "application/pdf",
		OrgID: "org-1", ActorID: "user-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDocumentCreateRejectsUnknownCategory(t *testing.T) {
	svc, _, _ := newDocumentFixture()

	_, err := svc.Create(context.Background(), CreateDocumentRequest{
		EmployeeID: "emp-1", Name: "Misc", Category: "payroll",
		FileName: "misc.pdf", FileType: "application/pdf",
		OrgID: "org-1", ActorID: "user-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDocumentApprovalEmitsApprovedEvent(t *testing.T) {
	svc, _, audit := newDocumentFixture()

	document, err := svc.Create(context.Background(), CreateDocumentRequest{
		EmployeeID: "emp-1", Name: "Review 2024", Category: "performance",
		FileName: "review.pdf", FileType: "application/pdf",
		OrgID: "org-1", ActorID: "user-1",
	})
	require.NoError(t, err)

	status := "approved"
	updated, err := svc.Update(context.Background(), document.ID, UpdateDocumentRequest{
		Status: &status, OrgID: "org-1", ActorID: "user-2",
	})
	require.NoError(t, err)
	assert.Equal(t, models.DocumentApproved, updated.Status)
	assert.Equal(t, models.AuditDocumentApproved, audit.events[len(audit.events)-1].Action)
}

func TestDocumentExpiringWindow(t *testing.T) {
	svc, docs, _ := newDocumentFixture()

	soon := time.Now().UTC().AddDate(0, 0, 10)
	far := time.Now().UTC().AddDate(0, 0, 90)
	docs.documents = map[string]models.Document{
		"doc-1": {ID: "doc-1", OrgID: "org-1", ExpirationDate: &soon},
		"doc-2": {ID: "doc-2", OrgID: "org-1", ExpirationDate: &far},
		"doc-3": {ID: "doc-3", OrgID: "org-1"},
	}

	expiring, err := svc.Expiring(context.Background(), "org-1", 30)
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "doc-1", expiring[0].ID)
}
