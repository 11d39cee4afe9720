package models

import "time"

// UserRole enumerates the roles understood by the RBAC and tenant layers.
type UserRole string

const (
	RoleSuperAdmin  UserRole = "SUPER_ADMIN"
	RoleSchoolAdmin UserRole = "SCHOOL_ADMIN"
	RolePrincipal   UserRole = "PRINCIPAL"
	RoleTeacher     UserRole = "TEACHER"
	RoleParent      UserRole = "PARENT"
)

// RequiresApproval reports whether accounts with this role go through the
// pending-approval workflow before they are fully active.
func (r UserRole) RequiresApproval() bool {
	return r == RolePrincipal || r == RoleTeacher
}

// RequiresSchool reports whether the role must be attached to a school.
func (r UserRole) RequiresSchool() bool {
	switch r {
	case RoleSchoolAdmin, RolePrincipal, RoleTeacher:
		return true
	default:
		return false
	}
}

// ValidRole reports whether the given string names a known role.
func ValidRole(value string) bool {
	switch UserRole(value) {
	case RoleSuperAdmin, RoleSchoolAdmin, RolePrincipal, RoleTeacher, RoleParent:
		return true
	default:
		return false
	}
}

// User is the credential record shared by every role.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Email        string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Username     string     `gorm:"size:100;uniqueIndex;not null" json:"username"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	FullName     string     `gorm:"size:255;not null" json:"full_name"`
	Role         UserRole   `gorm:"size:32;not null;index" json:"role"`
	Active       bool       `gorm:"not null;default:true" json:"active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
