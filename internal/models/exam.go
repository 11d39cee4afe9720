package models

import "time"

// Exam is an examination round within a term.
type Exam struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SchoolID  uint      `gorm:"not null;index" json:"school_id"`
	TermID    uint      `gorm:"not null;index" json:"term_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	StartDate time.Time `gorm:"not null" json:"start_date"`
	EndDate   time.Time `gorm:"not null" json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExamSession schedules one subject of an exam for one class.
type ExamSession struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ExamID    uint      `gorm:"not null;index" json:"exam_id"`
	SchoolID  uint      `gorm:"not null;index" json:"school_id"`
	ClassID   uint      `gorm:"not null;index" json:"class_id"`
	SubjectID uint      `gorm:"not null;index" json:"subject_id"`
	Room      string    `gorm:"size:64" json:"room"`
	StartsAt  time.Time `gorm:"not null" json:"starts_at"`
	EndsAt    time.Time `gorm:"not null" json:"ends_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Result records a student's score for a subject in a term.
type Result struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SchoolID  uint      `gorm:"not null;index" json:"school_id"`
	StudentID uint      `gorm:"not null;index" json:"student_id"`
	SubjectID uint      `gorm:"not null;index" json:"subject_id"`
	TermID    uint      `gorm:"not null;index" json:"term_id"`
	ExamID    *uint     `gorm:"index" json:"exam_id,omitempty"`
	Score     float64   `gorm:"not null" json:"score"`
	MaxScore  float64   `gorm:"not null;default:100" json:"max_score"`
	Remark    string    `gorm:"size:512" json:"remark"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
