package models

import "time"

// UserRole represents the roles recognised by the platform. Only the
// hold-precedence rule is enforced in code; a full permission matrix is
// out of scope.
type UserRole string

const (
	RoleHRAdmin   UserRole = "hr_admin"
	RoleHRManager UserRole = "hr_manager"
	RoleLegal     UserRole = "legal"
	RoleAuditor   UserRole = "auditor"
	RoleEmployee  UserRole = "employee"
)

// UserStatus controls access to the system.
type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
	UserPending  UserStatus = "pending"
)

// User represents an application user stored in the users table.
// Authentication is passwordless (magic links), so no credential hash
// is stored here.
type User struct {
	ID        string     `db:"id" json:"id"`
	OrgID     string     `db:"org_id" json:"org_id"`
	Email     string     `db:"email" json:"email"`
	FullName  string     `db:"full_name" json:"full_name"`
	Role      UserRole   `db:"role" json:"role"`
	Status    UserStatus `db:"status" json:"status"`
	LastLogin *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     UserRole
	Status   UserStatus
	Page     int
	PageSize int
}
