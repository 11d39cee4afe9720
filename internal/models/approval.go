package models

import "time"

// ApprovalStatus tracks the onboarding state of principal/teacher accounts.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// Approval exists 1:1 with each PRINCIPAL/TEACHER user. It is created in the
// PENDING state inside the registration transaction and decided later by a
// SUPER_ADMIN or SCHOOL_ADMIN.
type Approval struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	SchoolID       uint           `gorm:"not null;index" json:"school_id"`
	Role           UserRole       `gorm:"size:32;not null" json:"role"`
	Status         ApprovalStatus `gorm:"size:16;not null;default:PENDING;index" json:"status"`
	DecidedBy      *uint          `json:"decided_by,omitempty"`
	DecidedAt      *time.Time     `json:"decided_at,omitempty"`
	RejectedReason string         `gorm:"size:512" json:"rejected_reason,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Decided reports whether the approval has left the PENDING state.
func (a Approval) Decided() bool {
	return a.Status != ApprovalPending
}
