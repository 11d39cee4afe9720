package dto

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// NotificationFanOutRequest targets either explicit user ids or a role
// selector, optionally narrowed to one class.
type NotificationFanOutRequest struct {
	Title    string   `json:"title" validate:"required,min=2,max=255"`
	Content  string   `json:"content" validate:"required,min=2"`
	Type     string   `json:"type" validate:"omitempty,oneof=system announcement assignment grade approval"`
	Priority string   `json:"priority" validate:"omitempty,oneof=low normal high"`
	UserIDs  []uint   `json:"user_ids" validate:"omitempty,dive,gt=0"`
	Roles    []string `json:"roles" validate:"omitempty,dive,oneof=SUPER_ADMIN SCHOOL_ADMIN PRINCIPAL TEACHER PARENT"`
	ClassID  uint     `json:"class_id"`
}

// NotificationListRequest describes the query options for inbox listings.
type NotificationListRequest struct {
	UnreadOnly bool `query:"unread_only"`
	Page       int  `query:"page"`
	Limit      int  `query:"limit"`
}

// NotificationResponse is the serialized representation of a notification.
type NotificationResponse struct {
	ID        uint       `json:"id"`
	UserID    uint       `json:"user_id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	Type      string     `json:"type"`
	Priority  string     `json:"priority"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// NewNotificationResponse converts a model into a DTO.
func NewNotificationResponse(model models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        model.ID,
		UserID:    model.UserID,
		Title:     model.Title,
		Content:   model.Content,
		Type:      model.Type,
		Priority:  model.Priority,
		Read:      model.Read,
		ReadAt:    model.ReadAt,
		CreatedAt: model.CreatedAt,
	}
}

// NewNotificationResponseSlice converts a slice of models into DTOs.
func NewNotificationResponseSlice(notifications []models.Notification) []NotificationResponse {
	responses := make([]NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		responses = append(responses, NewNotificationResponse(notification))
	}
	return responses
}

// DashboardResponse aggregates per-role counters.
type DashboardResponse struct {
	Schools          int64     `json:"schools,omitempty"`
	Students         int64     `json:"students"`
	Teachers         int64     `json:"teachers"`
	Classes          int64     `json:"classes"`
	AssignmentsDue   int64     `json:"assignments_due"`
	PendingApprovals int64     `json:"pending_approvals"`
	UpcomingEvents   int64     `json:"upcoming_events"`
	GeneratedAt      time.Time `json:"generated_at"`
}
