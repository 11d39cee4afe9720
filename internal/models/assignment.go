package models

import "time"

// Assignment is homework issued by a teacher to a class.
type Assignment struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SchoolID    uint      `gorm:"not null;index" json:"school_id"`
	TeacherID   uint      `gorm:"not null;index" json:"teacher_id"`
	ClassID     uint      `gorm:"not null;index" json:"class_id"`
	SubjectID   uint      `gorm:"not null;index" json:"subject_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	DueDate     time.Time `gorm:"not null" json:"due_date"`
	FileURL     string    `gorm:"size:512" json:"file_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsPastDue returns true when the assignment deadline has already passed.
func (a Assignment) IsPastDue(reference time.Time) bool {
	return reference.After(a.DueDate)
}

// Submission statuses.
const (
	SubmissionStatusSubmitted = "submitted"
	SubmissionStatusGraded    = "graded"
)

// Submission is a student's answer to an assignment.
type Submission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	AssignmentID uint      `gorm:"not null;index" json:"assignment_id"`
	StudentID    uint      `gorm:"not null;index" json:"student_id"`
	SchoolID     uint      `gorm:"not null;index" json:"school_id"`
	FileURL      string    `gorm:"size:512" json:"file_url"`
	Note         string    `gorm:"type:text" json:"note"`
	Status       string    `gorm:"size:16;not null;default:submitted" json:"status"`
	Grade        *float64  `json:"grade,omitempty"`
	Feedback     string    `gorm:"type:text" json:"feedback"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
