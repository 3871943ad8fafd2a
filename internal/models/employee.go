package models

import "time"

// EmploymentStatus tracks the employee lifecycle.
type EmploymentStatus string

const (
	EmploymentActive     EmploymentStatus = "active"
	EmploymentTerminated EmploymentStatus = "terminated"
	EmploymentOnLeave    EmploymentStatus = "on_leave"
)

// Employee represents a person whose HR documents the system manages.
// The retention clock for an employee's documents starts at their
// termination date; while TerminationDate is nil no document belonging
// to them is eligible for deletion.
type Employee struct {
	ID              string           `db:"id" json:"id"`
	OrgID           string           `db:"org_id" json:"org_id"`
	FirstName       string           `db:"first_name" json:"first_name"`
	LastName        string           `db:"last_name" json:"last_name"`
	Email           string           `db:"email" json:"email"`
	Department      string           `db:"department" json:"department"`
	StateOfWork     string           `db:"state_of_work" json:"state_of_work"`
	Status          EmploymentStatus `db:"status" json:"status"`
	HireDate        *time.Time       `db:"hire_date" json:"hire_date,omitempty"`
	TerminationDate *time.Time       `db:"termination_date" json:"termination_date,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// EmployeeFilter captures filtering criteria for listing employees.
type EmployeeFilter struct {
	Department string
	Status     EmploymentStatus
	Search     string
	Page       int
	PageSize   int
}
