package models

import "time"

// Audit actions used across the services. Actions are namespaced
// "<entity>.<verb>" strings.
const (
	AuditDocumentReceived  = "document.received"
	AuditDocumentUpdated   = "document.updated"
	AuditDocumentApproved  = "document.approved"
	AuditDocumentRejected  = "document.rejected"
	AuditEmployeeCreated   = "employee.created"
	AuditEmployeeUpdated   = "employee.updated"
	AuditEmployeeTerminate = "employee.terminated"
	AuditLegalHoldCreated  = "legal_hold.created"
	AuditLegalHoldReleased = "legal_hold.released"
	AuditRetentionSchedule = "retention.scheduled"
	AuditPolicyCreated     = "retention_policy.created"
	AuditUserInvited       = "user.invited"
	AuditUserLogin         = "user.login"
	AuditOrgCreated        = "organization.created"
)

// AuditEvent is one immutable record of one action taken on one entity.
// The ledger is append-only: no update or delete operation exists for
// this entity anywhere in the system.
type AuditEvent struct {
	ID         string    `db:"id" json:"id"`
	OrgID      string    `db:"org_id" json:"org_id"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   string    `db:"entity_id" json:"entity_id"`
	Action     string    `db:"action" json:"action"`
	ActorID    string    `db:"actor_id" json:"actor_id"`
	ActorEmail *string   `db:"actor_email" json:"actor_email,omitempty"`
	Metadata   JSONMap   `db:"metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// AuditEventFilter captures query criteria for the audit trail.
type AuditEventFilter struct {
	EntityType string
	EntityID   string
	Action     string
	ActorID    string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}
