package dto

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// UserListRequest describes the query options for user listings.
type UserListRequest struct {
	Role     string `query:"role"`
	Active   *bool  `query:"active"`
	Search   string `query:"search"`
	SchoolID uint   `query:"school_id"`
	Page     int    `query:"page"`
	Limit    int    `query:"limit"`
}

// UserUpdateRequest describes the mutable user fields.
type UserUpdateRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,min=2"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

// ApprovalDecisionRequest carries the approve/reject decision.
type ApprovalDecisionRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=512"`
}

// ApprovalResponse is the serialized representation of an approval record.
type ApprovalResponse struct {
	ID             uint       `json:"id"`
	UserID         uint       `json:"user_id"`
	SchoolID       uint       `json:"school_id"`
	Role           string     `json:"role"`
	Status         string     `json:"status"`
	DecidedBy      *uint      `json:"decided_by,omitempty"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	RejectedReason string     `json:"rejected_reason,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// NewApprovalResponse converts a model into a DTO.
func NewApprovalResponse(model models.Approval) ApprovalResponse {
	return ApprovalResponse{
		ID:             model.ID,
		UserID:         model.UserID,
		SchoolID:       model.SchoolID,
		Role:           string(model.Role),
		Status:         string(model.Status),
		DecidedBy:      model.DecidedBy,
		DecidedAt:      model.DecidedAt,
		RejectedReason: model.RejectedReason,
		CreatedAt:      model.CreatedAt,
	}
}

// NewApprovalResponseSlice converts a slice of models into DTOs.
func NewApprovalResponseSlice(approvals []models.Approval) []ApprovalResponse {
	responses := make([]ApprovalResponse, 0, len(approvals))
	for _, approval := range approvals {
		responses = append(responses, NewApprovalResponse(approval))
	}
	return responses
}

// SchoolCreateRequest describes the payload for creating a school.
type SchoolCreateRequest struct {
	Name    string `json:"name" validate:"required,min=2"`
	Address string `json:"address" validate:"omitempty,max=512"`
	Phone   string `json:"phone" validate:"omitempty,max=32"`
	Email   string `json:"email" validate:"omitempty,email"`
}

// SchoolResponse is the serialized representation of a school.
type SchoolResponse struct {
	ID         uint      `json:"id"`
	Name       string    `json:"name"`
	Address    string    `json:"address"`
	Phone      string    `json:"phone"`
	Email      string    `json:"email"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewSchoolResponse converts a model into a DTO.
func NewSchoolResponse(model models.School) SchoolResponse {
	return SchoolResponse{
		ID:         model.ID,
		Name:       model.Name,
		Address:    model.Address,
		Phone:      model.Phone,
		Email:      model.Email,
		IsVerified: model.IsVerified,
		CreatedAt:  model.CreatedAt,
	}
}

// NewSchoolResponseSlice converts a slice of models into DTOs.
func NewSchoolResponseSlice(schools []models.School) []SchoolResponse {
	responses := make([]SchoolResponse, 0, len(schools))
	for _, school := range schools {
		responses = append(responses, NewSchoolResponse(school))
	}
	return responses
}

// StudentCreateRequest describes the payload for enrolling a student.
type StudentCreateRequest struct {
	SchoolID    uint   `json:"school_id" validate:"required"`
	ClassID     *uint  `json:"class_id"`
	ParentID    uint   `json:"parent_id" validate:"required"`
	FullName    string `json:"full_name" validate:"required,min=2"`
	AdmissionNo string `json:"admission_no" validate:"required,min=2,max=64"`
	Gender      string `json:"gender" validate:"omitempty,oneof=male female"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

// StudentResponse is the serialized representation of a student.
type StudentResponse struct {
	ID          uint      `json:"id"`
	SchoolID    uint      `json:"school_id"`
	ClassID     *uint     `json:"class_id,omitempty"`
	ParentID    uint      `json:"parent_id"`
	FullName    string    `json:"full_name"`
	AdmissionNo string    `json:"admission_no"`
	Gender      string    `json:"gender"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewStudentResponse converts a model into a DTO.
func NewStudentResponse(model models.Student) StudentResponse {
	return StudentResponse{
		ID:          model.ID,
		SchoolID:    model.SchoolID,
		ClassID:     model.ClassID,
		ParentID:    model.ParentID,
		FullName:    model.FullName,
		AdmissionNo: model.AdmissionNo,
		Gender:      model.Gender,
		CreatedAt:   model.CreatedAt,
	}
}

// NewStudentResponseSlice converts a slice of models into DTOs.
func NewStudentResponseSlice(students []models.Student) []StudentResponse {
	responses := make([]StudentResponse, 0, len(students))
	for _, student := range students {
		responses = append(responses, NewStudentResponse(student))
	}
	return responses
}
