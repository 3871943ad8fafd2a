package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/docflow-hr/docflow-api/internal/models"
)

// EmployeeRepository manages persistence for employee records.
type EmployeeRepository struct {
	db *sqlx.DB
}

// NewEmployeeRepository constructs a new repository.
func NewEmployeeRepository(db *sqlx.DB) *EmployeeRepository {
	return &EmployeeRepository{db: db}
}

const employeeColumns = `id, org_id, first_name, last_name, email, department, state_of_work, status, hire_date, termination_date, created_at, updated_at`

// FindByID returns the employee scoped to the organization, or sql.ErrNoRows.
func (r *EmployeeRepository) FindByID(ctx context.Context, orgID, id string) (*models.Employee, error) {
	query := fmt.Sprintf("SELECT %s FROM employees WHERE id = $1 AND org_id = $2", employeeColumns)
	var employee models.Employee
	if err := r.db.GetContext(ctx, &employee, query, id, orgID); err != nil {
		return nil, fmt.Errorf("find employee: %w", err)
	}
	return &employee, nil
}

// List returns employees per provided filter.
func (r *EmployeeRepository) List(ctx context.Context, orgID string, filter models.EmployeeFilter) ([]models.Employee, int, error) {
	where := []string{"org_id = $1"}
	args := []interface{}{orgID}
	if filter.Department != "" {
		where = append(where, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	whereClause := strings.Join(where, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size
	query := fmt.Sprintf("SELECT %s FROM employees WHERE %s ORDER BY last_name, first_name LIMIT %d OFFSET %d", employeeColumns, whereClause, size, offset)
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM employees WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}
	return employees, total, nil
}

// Create inserts a new employee record.
func (r *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = now
	}
	employee.UpdatedAt = now
	query := `INSERT INTO employees (id, org_id, first_name, last_name, email, department, state_of_work, status, hire_date, termination_date, created_at, updated_at)
VALUES (:id, :org_id, :first_name, :last_name, :email, :department, :state_of_work, :status, :hire_date, :termination_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, employee); err != nil {
		return fmt.Errorf("create employee: %w", err)
	}
	return nil
}

// Update modifies an existing employee record.
func (r *EmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	employee.UpdatedAt = time.Now().UTC()
	query := `UPDATE employees SET first_name = :first_name, last_name = :last_name, email = :email, department = :department, state_of_work = :state_of_work, status = :status, hire_date = :hire_date, termination_date = :termination_date, updated_at = :updated_at
WHERE id = :id AND org_id = :org_id`
	if _, err := r.db.NamedExecContext(ctx, query, employee); err != nil {
		return fmt.Errorf("update employee: %w", err)
	}
	return nil
}
