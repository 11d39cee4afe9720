package models

import "time"

// Notification types and priorities.
const (
	NotificationTypeSystem       = "system"
	NotificationTypeAnnouncement = "announcement"
	NotificationTypeAssignment   = "assignment"
	NotificationTypeGrade        = "grade"
	NotificationTypeApproval     = "approval"

	NotificationPriorityLow    = "low"
	NotificationPriorityNormal = "normal"
	NotificationPriorityHigh   = "high"
)

// Notification is one delivered message row per recipient.
type Notification struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	SchoolID  *uint      `gorm:"index" json:"school_id,omitempty"`
	Title     string     `gorm:"size:255;not null" json:"title"`
	Content   string     `gorm:"type:text;not null" json:"content"`
	Type      string     `gorm:"size:32;not null;default:system" json:"type"`
	Priority  string     `gorm:"size:16;not null;default:normal" json:"priority"`
	Read      bool       `gorm:"not null;default:false;index" json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
