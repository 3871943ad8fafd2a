package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/docflow-hr/docflow-api/internal/models"
	appErrors "github.com/docflow-hr/docflow-api/pkg/errors"
)

type employeeStore interface {
	FindByID(ctx context.Context, orgID, id string) (*models.Employee, error)
	List(ctx context.Context, orgID string, filter models.EmployeeFilter) ([]models.Employee, int, error)
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
}

// EmployeeService manages employee records. Termination is the event
// that starts the retention clock for the employee's documents.
type EmployeeService struct {
	employees employeeStore
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEmployeeService constructs the service.
func NewEmployeeService(employees employeeStore, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *EmployeeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{employees: employees, audit: audit, validator: validate, logger: logger}
}

// CreateEmployeeRequest describes the create payload.
type CreateEmployeeRequest struct {
	FirstName   string     `json:"first_name" validate:"required,max=100"`
	LastName    string     `json:"last_name" validate:"required,max=100"`
	Email       string     `json:"email" validate:"required,email"`
	Department  string     `json:"department" validate:"required,max=100"`
	StateOfWork string     `json:"state_of_work" validate:"required,len=2,alpha"`
	HireDate    *time.Time `json:"hire_date"`
	OrgID       string     `json:"-"`
	ActorID     string     `json:"-"`
}

// Create adds an employee in active status.
func (s *EmployeeService) Create(ctx context.Context, req CreateEmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}
	employee := &models.Employee{
		OrgID:       req.OrgID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		Department:  req.Department,
		StateOfWork: strings.ToUpper(req.StateOfWork),
		Status:      models.EmploymentActive,
		HireDate:    req.HireDate,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create employee")
	}
	recordAudit(ctx, s.logger, s.audit, &models.AuditEvent{
		OrgID:      req.OrgID,
		EntityType: "employee",
		EntityID:   employee.ID,
		Action:     models.AuditEmployeeCreated,
		ActorID:    req.ActorID,
		Metadata: models.JSONMap{
			"department":    employee.Department,
			"state_of_work": employee.StateOfWork,
		},
	})
	return employee, nil
}

// Get returns a single employee.
func (s *EmployeeService) Get(ctx context.Context, orgID, id string) (*models.Employee, error) {
	employee, err := s.employees.FindByID(ctx, orgID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.NotFound("employee", id)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load employee")
	}
	return employee, nil
}

// List returns employees with pagination.
func (s *EmployeeService) List(ctx context.Context, orgID string, filter models.EmployeeFilter) ([]models.Employee, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	employees, total, err := s.employees.List(ctx, orgID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list employees")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return employees, pagination, nil
}

// UpdateEmployeeRequest describes the update payload.
type UpdateEmployeeRequest struct {
	FirstName   *string `json:"first_name" validate:"omitempty,max=100"`
	LastName    *string `json:"last_name" validate:"omitempty,max=100"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Department  *string `json:"department" validate:"omitempty,max=100"`
	StateOfWork *string `json:"state_of_work" validate:"omitempty,len=2,alpha"`
	OrgID       string  `json:"-"`
	ActorID     string  `json:"-"`
}

// Update modifies employee fields.
func (s *EmployeeService) Update(ctx context.Context, id string, req UpdateEmployeeRequest) (*models.Employee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid employee payload")
	}
	employee, err := s.Get(ctx, req.OrgID, id)
	if err != nil {
		return nil, err
	}
	if req.FirstName != nil {
		employee.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		employee.LastName = *req.LastName
	}
	if req.Email != nil {
		employee.Email = *req.Email
	}
	if req.Department != nil {
		employee.Department = *req.Department
	}
	if req.StateOfWork != nil {
		employee.StateOfWork = strings.ToUpper(*req.StateOfWork)
	}
	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update employee")
	}
	recordAudit(ctx, s.logger, s.audit, &models.AuditEvent{
		OrgID:      req.OrgID,
		EntityType: "employee",
		EntityID:   employee.ID,
		Action:     models.AuditEmployeeUpdated,
		ActorID:    req.ActorID,
	})
	return employee, nil
}

// Terminate records the employment end date. This is what starts the
// retention clock for the employee's documents.
func (s *EmployeeService) Terminate(ctx context.Context, orgID, id, actorID string, terminationDate time.Time) (*models.Employee, error) {
	employee, err := s.Get(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if employee.Status == models.EmploymentTerminated {
		return nil, appErrors.Conflict("employee is already terminated")
	}
	termination := models.StartOfDay(terminationDate)
	employee.Status = models.EmploymentTerminated
	employee.TerminationDate = &termination
	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to terminate employee")
	}
	recordAudit(ctx, s.logger, s.audit, &models.AuditEvent{
		OrgID:      orgID,
		EntityType: "employee",
		EntityID:   employee.ID,
		Action:     models.AuditEmployeeTerminate,
		ActorID:    actorID,
		Metadata: models.JSONMap{
			"termination_date": termination.Format("2006-01-02"),
		},
	})
	return employee, nil
}
