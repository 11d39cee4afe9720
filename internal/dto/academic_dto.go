package dto

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// SubjectCreateRequest describes the payload for creating a subject.
type SubjectCreateRequest struct {
	SchoolID uint   `json:"school_id" validate:"required"`
	Name     string `json:"name" validate:"required,min=2"`
	Code     string `json:"code" validate:"required,min=2,max=32"`
}

// SubjectResponse is the serialized representation of a subject.
type SubjectResponse struct {
	ID        uint      `json:"id"`
	SchoolID  uint      `json:"school_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSubjectResponse converts a model into a DTO.
func NewSubjectResponse(model models.Subject) SubjectResponse {
	return SubjectResponse{
		ID:        model.ID,
		SchoolID:  model.SchoolID,
		Name:      model.Name,
		Code:      model.Code,
		CreatedAt: model.CreatedAt,
	}
}

// NewSubjectResponseSlice converts a slice of models into DTOs.
func NewSubjectResponseSlice(subjects []models.Subject) []SubjectResponse {
	responses := make([]SubjectResponse, 0, len(subjects))
	for _, subject := range subjects {
		responses = append(responses, NewSubjectResponse(subject))
	}
	return responses
}

// ClassCreateRequest describes the payload for creating a class.
type ClassCreateRequest struct {
	SchoolID   uint   `json:"school_id" validate:"required"`
	Name       string `json:"name" validate:"required,min=1,max=100"`
	GradeLevel int    `json:"grade_level" validate:"required,min=1,max=13"`
	Capacity   int    `json:"capacity" validate:"omitempty,min=1,max=200"`
}

// ClassResponse is the serialized representation of a class.
type ClassResponse struct {
	ID         uint      `json:"id"`
	SchoolID   uint      `json:"school_id"`
	Name       string    `json:"name"`
	GradeLevel int       `json:"grade_level"`
	Capacity   int       `json:"capacity"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewClassResponse converts a model into a DTO.
func NewClassResponse(model models.Class) ClassResponse {
	return ClassResponse{
		ID:         model.ID,
		SchoolID:   model.SchoolID,
		Name:       model.Name,
		GradeLevel: model.GradeLevel,
		Capacity:   model.Capacity,
		CreatedAt:  model.CreatedAt,
	}
}

// NewClassResponseSlice converts a slice of models into DTOs.
func NewClassResponseSlice(classes []models.Class) []ClassResponse {
	responses := make([]ClassResponse, 0, len(classes))
	for _, class := range classes {
		responses = append(responses, NewClassResponse(class))
	}
	return responses
}

// LessonCreateRequest describes the payload for scheduling a lesson.
type LessonCreateRequest struct {
	SubjectID uint   `json:"subject_id" validate:"required"`
	ClassID   uint   `json:"class_id" validate:"required"`
	TeacherID uint   `json:"teacher_id" validate:"required"`
	DayOfWeek int    `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime string `json:"start_time" validate:"required,datetime=15:04"`
	EndTime   string `json:"end_time" validate:"required,datetime=15:04"`
}

// LessonResponse is the serialized representation of a lesson.
type LessonResponse struct {
	ID        uint   `json:"id"`
	SchoolID  uint   `json:"school_id"`
	SubjectID uint   `json:"subject_id"`
	ClassID   uint   `json:"class_id"`
	TeacherID uint   `json:"teacher_id"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// NewLessonResponse converts a model into a DTO.
func NewLessonResponse(model models.Lesson) LessonResponse {
	return LessonResponse{
		ID:        model.ID,
		SchoolID:  model.SchoolID,
		SubjectID: model.SubjectID,
		ClassID:   model.ClassID,
		TeacherID: model.TeacherID,
		DayOfWeek: model.DayOfWeek,
		StartTime: model.StartTime,
		EndTime:   model.EndTime,
	}
}

// NewLessonResponseSlice converts a slice of models into DTOs.
func NewLessonResponseSlice(lessons []models.Lesson) []LessonResponse {
	responses := make([]LessonResponse, 0, len(lessons))
	for _, lesson := range lessons {
		responses = append(responses, NewLessonResponse(lesson))
	}
	return responses
}
