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

type fakeEmployeeRepo struct {
	employees map[string]models.Employee
}

func (f *fakeEmployeeRepo) FindByID(ctx context.Context, orgID, id string) (*models.Employee, error) {
	if emp, ok := f.employees[id]; ok && emp.OrgID == orgID {
		return &emp, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeEmployeeRepo) List(ctx context.Context, orgID string, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	var result []models.Employee
	for _, emp := range f.employees {
		if emp.OrgID == orgID {
			result = append(result, emp)
		}
	}
	return result, len(result), nil
}

func (f *fakeEmployeeRepo) Create(ctx context.Context, employee *models.Employee) error {
	if f.employees == nil {
		f.employees = make(map[string]models.Employee)
	}
	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	f.employees[employee.ID] = *employee
	return nil
}

func (f *fakeEmployeeRepo) Update(ctx context.Context, employee *models.Employee) error {
	f.employees[employee.ID] = *employee
	return nil
}

func TestEmployeeCreateUppercasesState(t *testing.T) {
	repo := &fakeEmployeeRepo{}
	audit := &fakeAuditSink{}
	svc := NewEmployeeService(repo, audit, nil, zap.NewNop())

	employee, err := svc.Create(context.Background(), CreateEmployeeRequest{
		FirstName: "Maria", LastName: "Lopez", Email: "maria@example.com",
		Department: "Finance", StateOfWork: "fl",
		OrgID: "org-1", ActorID: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "FL", employee.StateOfWork)
	assert.Equal(t, models.EmploymentActive, employee.Status)
	require.Len(t, audit.events, 1)
	assert.Equal(t, models.AuditEmployeeCreated, audit.events[0].Action)
}

func TestEmployeeCreateValidation(t *testing.T) {
	svc := NewEmployeeService(&fakeEmployeeRepo{}, &fakeAuditSink{}, nil, zap.NewNop())

	_, err := svc.Create(context.Background(), CreateEmployeeRequest{
		FirstName: "Maria", LastName: "Lopez", Email: "not-an-email",
		Department: "Finance", StateOfWork: "FL", OrgID: "org-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Create(context.Background(), CreateEmployeeRequest{
		FirstName: "Maria", LastName: "Lopez", Email: "maria@example.com",
		Department: "Finance", StateOfWork: "FLA", OrgID: "org-1",
	})
	require.Error(t, err)
}

func TestEmployeeTerminateSetsMidnightDate(t *testing.T) {
	repo := &fakeEmployeeRepo{}
	audit := &fakeAuditSink{}
	svc := NewEmployeeService(repo, audit, nil, zap.NewNop())

	employee, err := svc.Create(context.Background(), CreateEmployeeRequest{
		FirstName: "Jon", LastName: "Park", Email: "jon@example.com",
		Department: "Sales", StateOfWork: "TX", OrgID: "org-1", ActorID: "user-1",
	})
	require.NoError(t, err)

	at := time.Date(2024, 5, 17, 16, 42, 3, 0, time.UTC)
	terminated, err := svc.Terminate(context.Background(), "org-1", employee.ID, "user-1", at)
	require.NoError(t, err)
	require.NotNil(t, terminated.TerminationDate)
	assert.Equal(t, testDate("2024-05-17"), *terminated.TerminationDate)
	assert.Equal(t, models.EmploymentTerminated, terminated.Status)
	assert.Equal(t, models.AuditEmployeeTerminate, audit.events[len(audit.events)-1].Action)
}

func TestEmployeeTerminateTwiceConflicts(t *testing.T) {
	repo := &fakeEmployeeRepo{}
	svc := NewEmployeeService(repo, &fakeAuditSink{}, nil, zap.NewNop())

	employee, err := svc.Create(context.Background(), CreateEmployeeRequest{
		FirstName: "Jon", LastName: "Park", Email: "jon@example.com",
		Department: "Sales", StateOfWork: "TX", OrgID: "org-1", ActorID: "user-1",
	})
	require.NoError(t, err)

	_, err = svc.Terminate(context.Background(), "org-1", employee.ID, "user-1", time.Now())
	require.NoError(t, err)

	_, err = svc.Terminate(context.Background(), "org-1", employee.ID, "user-1", time.Now())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestEmployeeUpdatePartialFields(t *testing.T) {
	repo := &fakeEmployeeRepo{}
	svc := NewEmployeeService(repo, &fakeAuditSink{}, nil, zap.NewNop())

	employee, err := svc.Create(context.Background(), CreateEmployeeRequest{
		FirstName: "Ana", LastName: "Silva", Email: "ana@example.com",
		Department: "Legal", StateOfWork: "NC", OrgID: "org-1", ActorID: "user-1",
	})
	require.NoError(t, err)

	dept := "Compliance"
	updated, err := svc.Update(context.Background(), employee.ID, UpdateEmployeeRequest{
		Department: &dept, OrgID: "org-1", ActorID: "user-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Compliance", updated.Department)
	assert.Equal(t, "Ana", updated.FirstName)
}
