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

type fakeHoldRepo struct {
	holds map[string]models.LegalHold
}

func (f *fakeHoldRepo) FindByID(ctx context.Context, orgID, id string) (*models.LegalHold, error) {
	if hold, ok := f.holds[id]; ok && hold.OrgID == orgID {
		return &hold, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeHoldRepo) ListActive(ctx context.Context, orgID string) ([]models.LegalHold, error) {
	var result []models.LegalHold
	for _, hold := range f.holds {
		if hold.OrgID == orgID && hold.Status == models.HoldActive {
			result = append(result, hold)
		}
	}
	return result, nil
}

func (f *fakeHoldRepo) List(ctx context.Context, orgID string, filter models.LegalHoldFilter) ([]models.LegalHold, int, error) {
	var result []models.LegalHold
	for _, hold := range f.holds {
		if hold.OrgID != orgID {
			continue
		}
		if filter.Status != "" && hold.Status != filter.Status {
			continue
		}
		result = append(result, hold)
	}
	return result, len(result), nil
}

func (f *fakeHoldRepo) Create(ctx context.Context, hold *models.LegalHold) error {
	if f.holds == nil {
		f.holds = make(map[string]models.LegalHold)
	}
	if hold.ID == "" {
		hold.ID = uuid.NewString()
	}
	hold.CreatedAt = time.Now().UTC()
	f.holds[hold.ID] = *hold
	return nil
}

func (f *fakeHoldRepo) Release(ctx context.Context, orgID, id, releasedBy string, releasedAt time.Time) (int64, error) {
	hold, ok := f.holds[id]
	if !ok || hold.OrgID != orgID || hold.Status != models.HoldActive {
		return 0, nil
	}
	hold.Status = models.HoldReleased
	hold.ReleasedBy = &releasedBy
	hold.ReleasedAt = &releasedAt
	f.holds[id] = hold
	return 1, nil
}

type fakeDocumentReader struct {
	documents map[string]models.Document
}

func (f *fakeDocumentReader) FindByID(ctx context.Context, orgID, id string) (*models.Document, error) {
	if doc, ok := f.documents[id]; ok && doc.OrgID == orgID {
		return &doc, nil
	}
	return nil, sql.ErrNoRows
}

type fakeEmployeeReader struct {
	employees map[string]models.Employee
}

func (f *fakeEmployeeReader) FindByID(ctx context.Context, orgID, id string) (*models.Employee, error) {
	if emp, ok := f.employees[id]; ok && emp.OrgID == orgID {
		return &emp, nil
	}
	return nil, sql.ErrNoRows
}

type fakeAuditSink struct {
	events []models.AuditEvent
	err    error
}

func (f *fakeAuditSink) Emit(ctx context.Context, event *models.AuditEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, *event)
	return nil
}

func testDate(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func activeHold(orgID, scopeType, scopeValue string) models.LegalHold {
	return models.LegalHold{
		ID:         uuid.NewString(),
		OrgID:      orgID,
		Name:       "Hold " + scopeValue,
		ScopeType:  models.LegalHoldScopeType(scopeType),
		ScopeValue: scopeValue,
		Status:     models.HoldActive,
		CreatedBy:  "user-1",
		CreatedAt:  time.Now().UTC(),
	}
}

func TestHoldMatcherScopes(t *testing.T) {
	matcher := holdMatcher{logger: zap.NewNop()}

	doc := &models.Document{
		ID:         "doc-1",
		OrgID:      "org-1",
		EmployeeID: "emp-1",
		Category:   models.CategoryTaxForms,
		CreatedAt:  testDate("2024-03-15"),
	}
	emp := &models.Employee{ID: "emp-1", OrgID: "org-1", Department: "Finance"}

	cases := []struct {
		name       string
		scopeType  string
		scopeValue string
		employee   *models.Employee
		want       bool
	}{
		{"employee match", "employee", "emp-1", emp, true},
		{"employee mismatch", "employee", "emp-2", emp, false},
		{"employee scope without employee", "employee", "emp-1", nil, false},
		{"department match", "department", "Finance", emp, true},
		{"department mismatch", "department", "Legal", emp, false},
		{"department scope without employee", "department", "Finance", nil, false},
		{"category match", "document_category", "tax_forms", emp, true},
		{"category match without employee", "document_category", "tax_forms", nil, true},
		{"category mismatch", "document_category", "benefits", emp, false},
		{"date range inside", "date_range", "2024-01-01:2024-12-31", emp, true},
		{"date range on start boundary", "date_range", "2024-03-15:2024-12-31", emp, true},
		{"date range on end boundary", "date_range", "2024-01-01:2024-03-15", emp, true},
		{"date range before", "date_range", "2024-03-16:2024-12-31", emp, false},
		{"date range malformed", "date_range", "not-a-range", emp, false},
		{"date range inverted", "date_range", "2024-12-31:2024-01-01", emp, false},
		{"unknown scope type", "custodian", "whoever", emp, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			hold := activeHold("org-1", tc.scopeType, tc.scopeValue)
			assert.Equal(t, tc.want, matcher.matches(doc, tc.employee, hold))
		})
	}
}

func TestHoldMatcherSkipsReleasedHolds(t *testing.T) {
	matcher := holdMatcher{logger: zap.NewNop()}
	doc := &models.Document{ID: "doc-1", Category: models.CategoryTaxForms, CreatedAt: testDate("2024-03-15")}

	released := activeHold("org-1", "document_category", "tax_forms")
	released.Status = models.HoldReleased
	active := activeHold("org-1", "document_category", "tax_forms")

	matched := matcher.matching([]models.LegalHold{released, active}, doc, nil)
	require.Len(t, matched, 1)
	assert.Equal(t, active.ID, matched[0].ID)
}

func TestHoldMatcherReturnsAllMatches(t *testing.T) {
	matcher := holdMatcher{logger: zap.NewNop()}
	doc := &models.Document{ID: "doc-1", EmployeeID: "emp-1", Category: models.CategoryTaxForms, CreatedAt: testDate("2024-03-15")}
	emp := &models.Employee{ID: "emp-1", Department: "Finance"}

	holds := []models.LegalHold{
		activeHold("org-1", "employee", "emp-1"),
		activeHold("org-1", "document_category", "tax_forms"),
		activeHold("org-1", "department", "Legal"),
	}
	matched := matcher.matching(holds, doc, emp)
	assert.Len(t, matched, 2)
}

func TestHoldMatcherMalformedScopeDoesNotAbortOthers(t *testing.T) {
	matcher := holdMatcher{logger: zap.NewNop()}
	doc := &models.Document{ID: "doc-1", Category: models.CategoryTaxForms, CreatedAt: testDate("2024-03-15")}

	malformed := activeHold("org-1", "date_range", "garbage")
	valid := activeHold("org-1", "document_category", "tax_forms")

	matched := matcher.matching([]models.LegalHold{malformed, valid}, doc, nil)
	require.Len(t, matched, 1)
	assert.Equal(t, valid.ID, matched[0].ID)
}

func TestParseDateRangeScope(t *testing.T) {
	start, end, err := parseDateRangeScope("2024-01-01:2024-06-30")
	require.NoError(t, err)
	assert.Equal(t, testDate("2024-01-01"), start)
	assert.Equal(t, testDate("2024-06-30"), end)

	_, _, err = parseDateRangeScope("2024-01-01")
	assert.Error(t, err)

	_, _, err = parseDateRangeScope("2024-06-30:2024-01-01")
	assert.Error(t, err)

	// RFC3339 values contain colons and split into more than two parts.
	_, _, err = parseDateRangeScope("2024-01-01T00:00:00Z:2024-06-30T00:00:00Z")
	assert.Error(t, err)
}

func TestLegalHoldCreateAndRelease(t *testing.T) {
	repo := &fakeHoldRepo{}
	audit := &fakeAuditSink{}
	svc := NewLegalHoldService(repo, &fakeDocumentReader{}, &fakeEmployeeReader{}, audit, nil, zap.NewNop())

	hold, err := svc.Create(context.Background(), CreateLegalHoldRequest{
		Name:       "SEC Investigation 2024",
		ScopeType:  "department",
		ScopeValue: "Finance",
		OrgID:      "org-1",
		ActorID:    "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.HoldActive, hold.Status)
	require.Len(t, audit.events, 1)
	assert.Equal(t, models.AuditLegalHoldCreated, audit.events[0].Action)

	result, err := svc.Release(context.Background(), "org-1", hold.ID, "user-2", nil)
	require.NoError(t, err)
	assert.Equal(t, string(models.HoldReleased), result.Status)
	assert.Equal(t, "user-2", result.ReleasedBy)
	require.Len(t, audit.events, 2)
	assert.Equal(t, models.AuditLegalHoldReleased, audit.events[1].Action)
}

func TestLegalHoldCreateRejectsBadScopeType(t *testing.T) {
	svc := NewLegalHoldService(&fakeHoldRepo{}, &fakeDocumentReader{}, &fakeEmployeeReader{}, &fakeAuditSink{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateLegalHoldRequest{
		Name:       "Bad Scope",
		ScopeType:  "custodian",
		ScopeValue: "x",
		OrgID:      "org-1",
		ActorID:    "user-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLegalHoldReleaseAlreadyReleasedConflicts(t *testing.T) {
	repo := &fakeHoldRepo{}
	svc := NewLegalHoldService(repo, &fakeDocumentReader{}, &fakeEmployeeReader{}, &fakeAuditSink{}, nil, zap.NewNop())

	hold, err := svc.Create(context.Background(), CreateLegalHoldRequest{
		Name: "One Way", ScopeType: "employee", ScopeValue: "emp-1", OrgID: "org-1", ActorID: "user-1",
	})
	require.NoError(t, err)

	_, err = svc.Release(context.Background(), "org-1", hold.ID, "user-1", nil)
	require.NoError(t, err)

	_, err = svc.Release(context.Background(), "org-1", hold.ID, "user-1", nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	require.NotEmpty(t, appErr.Details)
	assert.Equal(t, hold.ID, appErr.Details[0].HoldID)
}

func TestLegalHoldReleaseNotFound(t *testing.T) {
	svc := NewLegalHoldService(&fakeHoldRepo{}, &fakeDocumentReader{}, &fakeEmployeeReader{}, &fakeAuditSink{}, nil, zap.NewNop())

	_, err := svc.Release(context.Background(), "org-1", "missing", "user-1", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDocumentStatusReportsBlockingHolds(t *testing.T) {
	repo := &fakeHoldRepo{}
	docs := &fakeDocumentReader{documents: map[string]models.Document{
		"doc-1": {ID: "doc-1", OrgID: "org-1", EmployeeID: "emp-1", Category: models.CategoryPerformance, CreatedAt: testDate("2024-02-01")},
	}}
	emps := &fakeEmployeeReader{employees: map[string]models.Employee{
		"emp-1": {ID: "emp-1", OrgID: "org-1", Department: "Sales"},
	}}
	svc := NewLegalHoldService(repo, docs, emps, &fakeAuditSink{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateLegalHoldRequest{
		Name: "Sales Litigation", ScopeType: "department", ScopeValue: "Sales", OrgID: "org-1", ActorID: "user-1",
	})
	require.NoError(t, err)

	status, err := svc.DocumentStatus(context.Background(), "org-1", "doc-1")
	require.NoError(t, err)
	assert.True(t, status.UnderLegalHold)
	assert.False(t, status.CanBeDeleted)
	assert.Len(t, status.ActiveHolds, 1)
}

func TestDocumentStatusDanglingEmployeeStillMatchesCategory(t *testing.T) {
	repo := &fakeHoldRepo{}
	docs := &fakeDocumentReader{documents: map[string]models.Document{
		"doc-1": {ID: "doc-1", OrgID: "org-1", EmployeeID: "ghost", Category: models.CategoryTaxForms, CreatedAt: testDate("2024-02-01")},
	}}
	svc := NewLegalHoldService(repo, docs, &fakeEmployeeReader{}, &fakeAuditSink{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateLegalHoldRequest{
		Name: "Employee Hold", ScopeType: "employee", ScopeValue: "ghost", OrgID: "org-1", ActorID: "user-1",
	})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateLegalHoldRequest{
		Name: "Tax Hold", ScopeType: "document_category", ScopeValue: "tax_forms", OrgID: "org-1", ActorID: "user-1",
	})
	require.NoError(t, err)

	status, err := svc.DocumentStatus(context.Background(), "org-1", "doc-1")
	require.NoError(t, err)
	// The employee-scoped hold cannot be proven against a missing owner;
	// only the category hold applies.
	require.Len(t, status.ActiveHolds, 1)
	assert.Equal(t, "Tax Hold", status.ActiveHolds[0].Name)
}
