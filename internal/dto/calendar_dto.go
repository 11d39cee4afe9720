package dto

import (
	"time"

	"github.com/noah-isme/edutrack-api/internal/models"
)

// TermCreateRequest describes the payload for creating a term.
type TermCreateRequest struct {
	SchoolID  uint   `json:"school_id" validate:"required"`
	Name      string `json:"name" validate:"required,min=2"`
	Year      string `json:"year" validate:"required,min=4,max=16"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	IsCurrent bool   `json:"is_current"`
}

// TermResponse is the serialized representation of a term.
type TermResponse struct {
	ID        uint      `json:"id"`
	SchoolID  uint      `json:"school_id"`
	Name      string    `json:"name"`
	Year      string    `json:"year"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	IsCurrent bool      `json:"is_current"`
}

// NewTermResponse converts a model into a DTO.
func NewTermResponse(model models.Term) TermResponse {
	return TermResponse{
		ID:        model.ID,
		SchoolID:  model.SchoolID,
		Name:      model.Name,
		Year:      model.Year,
		StartDate: model.StartDate,
		EndDate:   model.EndDate,
		IsCurrent: model.IsCurrent,
	}
}

// NewTermResponseSlice converts a slice of models into DTOs.
func NewTermResponseSlice(terms []models.Term) []TermResponse {
	responses := make([]TermResponse, 0, len(terms))
	for _, term := range terms {
		responses = append(responses, NewTermResponse(term))
	}
	return responses
}

// HolidayCreateRequest describes the payload for creating a holiday.
type HolidayCreateRequest struct {
	SchoolID uint   `json:"school_id" validate:"required"`
	Name     string `json:"name" validate:"required,min=2"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
}

// HolidayResponse is the serialized representation of a holiday.
type HolidayResponse struct {
	ID       uint      `json:"id"`
	SchoolID uint      `json:"school_id"`
	Name     string    `json:"name"`
	Date     time.Time `json:"date"`
}

// NewHolidayResponse converts a model into a DTO.
func NewHolidayResponse(model models.Holiday) HolidayResponse {
	return HolidayResponse{
		ID:       model.ID,
		SchoolID: model.SchoolID,
		Name:     model.Name,
		Date:     model.Date,
	}
}

// NewHolidayResponseSlice converts a slice of models into DTOs.
func NewHolidayResponseSlice(holidays []models.Holiday) []HolidayResponse {
	responses := make([]HolidayResponse, 0, len(holidays))
	for _, holiday := range holidays {
		responses = append(responses, NewHolidayResponse(holiday))
	}
	return responses
}

// EventCreateRequest describes the payload for creating a calendar event.
type EventCreateRequest struct {
	SchoolID    uint   `json:"school_id" validate:"required"`
	ClassID     *uint  `json:"class_id"`
	Title       string `json:"title" validate:"required,min=2"`
	Description string `json:"description" validate:"omitempty,max=4000"`
	StartsAt    string `json:"starts_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	EndsAt      string `json:"ends_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	SchoolWide  bool   `json:"school_wide"`
}

// EventResponse is the serialized representation of a calendar event.
type EventResponse struct {
	ID          uint      `json:"id"`
	SchoolID    uint      `json:"school_id"`
	ClassID     *uint     `json:"class_id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	SchoolWide  bool      `json:"school_wide"`
}

// NewEventResponse converts a model into a DTO.
func NewEventResponse(model models.CalendarEvent) EventResponse {
	return EventResponse{
		ID:          model.ID,
		SchoolID:    model.SchoolID,
		ClassID:     model.ClassID,
		Title:       model.Title,
		Description: model.Description,
		StartsAt:    model.StartsAt,
		EndsAt:      model.EndsAt,
		SchoolWide:  model.SchoolWide,
	}
}

// NewEventResponseSlice converts a slice of models into DTOs.
func NewEventResponseSlice(events []models.CalendarEvent) []EventResponse {
	responses := make([]EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, NewEventResponse(event))
	}
	return responses
}
