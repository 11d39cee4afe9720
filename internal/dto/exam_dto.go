package dto

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// ExamCreateRequest describes the payload for creating an exam.
type ExamCreateRequest struct {
	SchoolID  uint   `json:"school_id" validate:"required"`
	TermID    uint   `json:"term_id" validate:"required"`
	Name      string `json:"name" validate:"required,min=2"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// ExamResponse is the serialized representation of an exam.
type ExamResponse struct {
	ID        uint      `json:"id"`
	SchoolID  uint      `json:"school_id"`
	TermID    uint      `json:"term_id"`
	Name      string    `json:"name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	CreatedAt time.Time `json:"created_at"`
}

// NewExamResponse converts a model into a DTO.
func NewExamResponse(model models.Exam) ExamResponse {
	return ExamResponse{
		ID:        model.ID,
		SchoolID:  model.SchoolID,
		TermID:    model.TermID,
		Name:      model.Name,
		StartDate: model.StartDate,
		EndDate:   model.EndDate,
		CreatedAt: model.CreatedAt,
	}
}

// NewExamResponseSlice converts a slice of models into DTOs.
func NewExamResponseSlice(exams []models.Exam) []ExamResponse {
	responses := make([]ExamResponse, 0, len(exams))
	for _, exam := range exams {
		responses = append(responses, NewExamResponse(exam))
	}
	return responses
}

// ExamSessionCreateRequest describes the payload for scheduling a session.
type ExamSessionCreateRequest struct {
	ExamID    uint   `json:"exam_id" validate:"required"`
	ClassID   uint   `json:"class_id" validate:"required"`
	SubjectID uint   `json:"subject_id" validate:"required"`
	Room      string `json:"room" validate:"omitempty,max=64"`
	StartsAt  string `json:"starts_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndsAt    string `json:"ends_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
}

// ExamSessionResponse is the serialized representation of an exam session.
type ExamSessionResponse struct {
	ID        uint      `json:"id"`
	ExamID    uint      `json:"exam_id"`
	ClassID   uint      `json:"class_id"`
	SubjectID uint      `json:"subject_id"`
	Room      string    `json:"room"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
}

// NewExamSessionResponse converts a model into a DTO.
func NewExamSessionResponse(model models.ExamSession) ExamSessionResponse {
	return ExamSessionResponse{
		ID:        model.ID,
		ExamID:    model.ExamID,
		ClassID:   model.ClassID,
		SubjectID: model.SubjectID,
		Room:      model.Room,
		StartsAt:  model.StartsAt,
		EndsAt:    model.EndsAt,
	}
}

// NewExamSessionResponseSlice converts a slice of models into DTOs.
func NewExamSessionResponseSlice(sessions []models.ExamSession) []ExamSessionResponse {
	responses := make([]ExamSessionResponse, 0, len(sessions))
	for _, session := range sessions {
		responses = append(responses, NewExamSessionResponse(session))
	}
	return responses
}

// ResultCreateRequest describes the payload for recording a result.
type ResultCreateRequest struct {
	StudentID uint    `json:"student_id" validate:"required"`
	SubjectID uint    `json:"subject_id" validate:"required"`
	TermID    uint    `json:"term_id" validate:"required"`
	ExamID    *uint   `json:"exam_id"`
	Score     float64 `json:"score" validate:"min=0"`
	MaxScore  float64 `json:"max_score" validate:"omitempty,gt=0"`
	Remark    string  `json:"remark" validate:"omitempty,max=512"`
}

// ResultResponse is the serialized representation of a result.
type ResultResponse struct {
	ID        uint      `json:"id"`
	SchoolID  uint      `json:"school_id"`
	StudentID uint      `json:"student_id"`
	SubjectID uint      `json:"subject_id"`
	TermID    uint      `json:"term_id"`
	ExamID    *uint     `json:"exam_id,omitempty"`
	Score     float64   `json:"score"`
	MaxScore  float64   `json:"max_score"`
	Remark    string    `json:"remark,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewResultResponse converts a model into a DTO.
func NewResultResponse(model models.Result) ResultResponse {
	return ResultResponse{
		ID:        model.ID,
		SchoolID:  model.SchoolID,
		StudentID: model.StudentID,
		SubjectID: model.SubjectID,
		TermID:    model.TermID,
		ExamID:    model.ExamID,
		Score:     model.Score,
		MaxScore:  model.MaxScore,
		Remark:    model.Remark,
		CreatedAt: model.CreatedAt,
	}
}

// NewResultResponseSlice converts a slice of models into DTOs.
func NewResultResponseSlice(results []models.Result) []ResultResponse {
	responses := make([]ResultResponse, 0, len(results))
	for _, result := range results {
		responses = append(responses, NewResultResponse(result))
	}
	return responses
}
