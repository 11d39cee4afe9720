package models

import "time"

// SchoolAdmin is the role profile for school administrators.
type SchoolAdmin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	SchoolID  uint      `gorm:"not null;index" json:"school_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Principal is the role profile for school principals.
type Principal struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	SchoolID  uint      `gorm:"not null;index" json:"school_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Teacher is the role profile for teaching staff.
type Teacher struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	SchoolID       uint      `gorm:"not null;index" json:"school_id"`
	Qualification  string    `gorm:"size:255" json:"qualification"`
	Specialization string    `gorm:"size:255" json:"specialization"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Parent is tenant-independent; its scope derives from its children.
type Parent struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Occupation string    `gorm:"size:255" json:"occupation"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Student links a learner to a school, a class and a parent.
type Student struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	SchoolID       uint      `gorm:"not null;index" json:"school_id"`
	ClassID        *uint     `gorm:"index" json:"class_id,omitempty"`
	ParentID       uint      `gorm:"not null;index" json:"parent_id"`
	FullName       string    `gorm:"size:255;not null" json:"full_name"`
	AdmissionNo    string    `gorm:"size:64;uniqueIndex;not null" json:"admission_no"`
	Gender         string    `gorm:"size:16" json:"gender"`
	DateOfBirth    time.Time `json:"date_of_birth"`
	EnrollmentDate time.Time `json:"enrollment_date"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
