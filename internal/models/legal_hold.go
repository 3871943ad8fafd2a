package models

import "time"

// LegalHoldScopeType selects the predicate a hold applies to documents.
type LegalHoldScopeType string

const (
	ScopeEmployee         LegalHoldScopeType = "employee"
	ScopeDepartment       LegalHoldScopeType = "department"
	ScopeDocumentCategory LegalHoldScopeType = "document_category"
	ScopeDateRange        LegalHoldScopeType = "date_range"
)

// ValidLegalHoldScopeType reports whether the value is a known scope type.
func ValidLegalHoldScopeType(v string) bool {
	switch LegalHoldScopeType(v) {
	case ScopeEmployee, ScopeDepartment, ScopeDocumentCategory, ScopeDateRange:
		return true
	default:
		return false
	}
}

// LegalHoldStatus is the hold lifecycle state. The active → released
// transition is one-way; holds are never deleted.
type LegalHoldStatus string

const (
	HoldActive   LegalHoldStatus = "active"
	HoldReleased LegalHoldStatus = "released"
)

// LegalHold suspends deletion eligibility for every document matching
// its scope. Only active holds participate in matching; released holds
// are retained for the audit trail.
type LegalHold struct {
	ID         string             `db:"id" json:"id"`
	OrgID      string             `db:"org_id" json:"org_id"`
	Name       string             `db:"name" json:"name"`
	ScopeType  LegalHoldScopeType `db:"scope_type" json:"scope_type"`
	ScopeValue string             `db:"scope_value" json:"scope_value"`
	Reason     *string            `db:"reason" json:"reason,omitempty"`
	Status     LegalHoldStatus    `db:"status" json:"status"`
	CreatedBy  string             `db:"created_by" json:"created_by"`
	CreatedAt  time.Time          `db:"created_at" json:"created_at"`
	ReleasedBy *string            `db:"released_by" json:"released_by,omitempty"`
	ReleasedAt *time.Time         `db:"released_at" json:"released_at,omitempty"`
}

// LegalHoldFilter captures filtering criteria for listing holds.
type LegalHoldFilter struct {
	Status   LegalHoldStatus
	Page     int
	PageSize int
}

// DocumentHoldStatus reports whether a document may currently be deleted
// and which active holds are protecting it.
type DocumentHoldStatus struct {
	DocumentID     string      `json:"document_id"`
	UnderLegalHold bool        `json:"under_legal_hold"`
	ActiveHolds    []LegalHold `json:"active_holds"`
	CanBeDeleted   bool        `json:"can_be_deleted"`
}
