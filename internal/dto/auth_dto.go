package dto

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// RegisterRequest describes the payload for account registration.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=100"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,min=2"`
	Role     string `json:"role" validate:"required"`
	// SchoolID is required for SCHOOL_ADMIN, PRINCIPAL and TEACHER roles.
	SchoolID uint `json:"school_id" validate:"omitempty"`
	// Teacher-specific fields.
	Qualification  string `json:"qualification"`
	Specialization string `json:"specialization"`
	// Parent-specific fields.
	Occupation string `json:"occupation"`
}

// LoginRequest describes the payload for credential verification.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries the refresh token for token rotation and logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// PasswordResetRequest starts the reset flow.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// PasswordResetConfirm completes the reset flow.
type PasswordResetConfirm struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// TokenPairResponse carries a freshly issued token pair.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthResponse is returned from register/login.
type AuthResponse struct {
	User           UserResponse      `json:"user"`
	Tokens         TokenPairResponse `json:"tokens"`
	ApprovalStatus string            `json:"approval_status,omitempty"`
}

// UserResponse is the serialized representation of a user.
type UserResponse struct {
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	Username    string     `json:"username"`
	FullName    string     `json:"full_name"`
	Role        string     `json:"role"`
	Active      bool       `json:"active"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewUserResponse converts a model into a DTO.
func NewUserResponse(model models.User) UserResponse {
	return UserResponse{
		ID:          model.ID,
		Email:       model.Email,
		Username:    model.Username,
		FullName:    model.FullName,
		Role:        string(model.Role),
		Active:      model.Active,
		LastLoginAt: model.LastLoginAt,
		CreatedAt:   model.CreatedAt,
	}
}

// NewUserResponseSlice converts a slice of models into DTOs.
func NewUserResponseSlice(users []models.User) []UserResponse {
	responses := make([]UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, NewUserResponse(user))
	}
	return responses
}
