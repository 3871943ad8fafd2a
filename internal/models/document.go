package models

import "time"

// DocumentCategory classifies a document for retention purposes. The
// (state, category) pair selects the retention policy that applies.
type DocumentCategory string

const (
	CategoryOnboarding  DocumentCategory = "onboarding"
	CategoryTaxForms    DocumentCategory = "tax_forms"
	CategoryBenefits    DocumentCategory = "benefits"
	CategoryPerformance DocumentCategory = "performance"
	CategoryTermination DocumentCategory = "termination"
	CategoryGeneral     DocumentCategory = "general"
)

// DocumentCategories lists every valid category.
var DocumentCategories = []DocumentCategory{
	CategoryOnboarding,
	CategoryTaxForms,
	CategoryBenefits,
	CategoryPerformance,
	CategoryTermination,
	CategoryGeneral,
}

// ValidDocumentCategory reports whether the value is a known category.
func ValidDocumentCategory(v string) bool {
	for _, c := range DocumentCategories {
		if string(c) == v {
			return true
		}
	}
	return false
}

// DocumentStatus tracks the review workflow.
type DocumentStatus string

const (
	DocumentPendingReview DocumentStatus = "pending_review"
	DocumentApproved      DocumentStatus = "approved"
	DocumentRejected      DocumentStatus = "rejected"
	DocumentExpired       DocumentStatus = "expired"
)

// Document represents an HR document on file for an employee.
// DeletionScheduledAt is written exclusively by the deletion scheduler
// and must never be set while an active legal hold matches the document.
type Document struct {
	ID                  string           `db:"id" json:"id"`
	OrgID               string           `db:"org_id" json:"org_id"`
	EmployeeID          string           `db:"employee_id" json:"employee_id"`
	Name                string           `db:"name" json:"name"`
	Category            DocumentCategory `db:"category" json:"category"`
	Status              DocumentStatus   `db:"status" json:"status"`
	FileName            string           `db:"file_name" json:"file_name"`
	FileType            string           `db:"file_type" json:"file_type"`
	FileSize            int64            `db:"file_size" json:"file_size"`
	StoragePath         string           `db:"storage_path" json:"-"`
	Notes               *string          `db:"notes" json:"notes,omitempty"`
	Version             int              `db:"version" json:"version"`
	ExpirationDate      *time.Time       `db:"expiration_date" json:"expiration_date,omitempty"`
	DeletionScheduledAt *time.Time       `db:"deletion_scheduled_at" json:"deletion_scheduled_at,omitempty"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt           *time.Time       `db:"updated_at" json:"updated_at,omitempty"`
}

// DocumentFilter captures filtering criteria for listing documents.
type DocumentFilter struct {
	EmployeeID string
	Category   DocumentCategory
	Status     DocumentStatus
	Page       int
	PageSize   int
}
