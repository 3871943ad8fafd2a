package models

import "time"

// RetentionPolicy maps (state of work, document category) to the number
// of calendar days a document must be kept after the employee's
// termination. Keyed uniquely by (org_id, state_code, document_category).
type RetentionPolicy struct {
	ID               string           `db:"id" json:"id"`
	OrgID            string           `db:"org_id" json:"org_id"`
	StateCode        string           `db:"state_code" json:"state_code"`
	DocumentCategory DocumentCategory `db:"document_category" json:"document_category"`
	RetentionDays    int              `db:"retention_days" json:"retention_days"`
	CreatedBy        string           `db:"created_by" json:"created_by"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt        *time.Time       `db:"updated_at" json:"updated_at,omitempty"`
}

// RetentionCalculation is the derived answer to "when may this document
// be deleted". It is a pure query result, never persisted.
// DeletionScheduledAt is nil while the employee remains employed or any
// active legal hold matches the document; a hold always overrides the
// date arithmetic.
type RetentionCalculation struct {
	DocumentID          string     `json:"document_id"`
	EmployeeID          string     `json:"employee_id"`
	StateCode           string     `json:"state_code"`
	RetentionDays       int        `json:"retention_days"`
	TerminationDate     *time.Time `json:"termination_date,omitempty"`
	DeletionScheduledAt *time.Time `json:"deletion_scheduled_at,omitempty"`
	UnderLegalHold      bool       `json:"under_legal_hold"`
	LegalHoldCount      int        `json:"legal_hold_count"`
}

// RetentionSchedule confirms a recorded deletion intent. Scheduling only
// succeeds when no active hold matches, so UnderLegalHold is always
// false on this record.
type RetentionSchedule struct {
	DocumentID          string    `json:"document_id"`
	DeletionScheduledAt time.Time `json:"deletion_scheduled_at"`
	UnderLegalHold      bool      `json:"under_legal_hold"`
	ScheduledBy         string    `json:"scheduled_by"`
	ScheduledAt         time.Time `json:"scheduled_at"`
	Message             string    `json:"message"`
}
