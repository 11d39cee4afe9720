package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

var (
	ErrTermNotFound    = errors.New("term not found")
	ErrHolidayNotFound = errors.New("holiday not found")
	ErrEventNotFound   = errors.New("event not found")
)

// CalendarService manages terms, holidays and school calendar events.
type CalendarService interface {
	CreateTerm(ctx context.Context, scope tenant.Scope, payload dto.TermCreateRequest) (dto.TermResponse, error)
	ListTerms(ctx context.Context, scope tenant.Scope) ([]dto.TermResponse, error)
	UpdateTerm(ctx context.Context, scope tenant.Scope, id uint, payload dto.TermCreateRequest) (dto.TermResponse, error)
	DeleteTerm(ctx context.Context, scope tenant.Scope, id uint) error

	CreateHoliday(ctx context.Context, scope tenant.Scope, payload dto.HolidayCreateRequest) (dto.HolidayResponse, error)
	ListHolidays(ctx context.Context, scope tenant.Scope, year int) ([]dto.HolidayResponse, error)
	DeleteHoliday(ctx context.Context, scope tenant.Scope, id uint) error

	CreateEvent(ctx context.Context, scope tenant.Scope, payload dto.EventCreateRequest) (dto.EventResponse, error)
	ListEvents(ctx context.Context, scope tenant.Scope, from, to *time.Time, page, limit int) (dto.ListResponse[dto.EventResponse], error)
	DeleteEvent(ctx context.Context, scope tenant.Scope, id uint) error
}

type calendarService struct {
	calendar  repository.CalendarRepository
	classes   repository.ClassRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewCalendarService builds the calendar service.
func NewCalendarService(
	calendar repository.CalendarRepository,
	classes repository.ClassRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) CalendarService {
	return &calendarService{
		calendar:  calendar,
		classes:   classes,
		validator: validate,
		logger:    logger.With().Str("component", "calendar_service").Logger(),
	}
}

func (s *calendarService) CreateTerm(ctx context.Context, scope tenant.Scope, payload dto.TermCreateRequest) (dto.TermResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TermResponse{}, err
	}
	if !scope.AllowsSchool(payload.SchoolID) {
		return dto.TermResponse{}, ErrSchoolNotFound
	}

	start, end, err := parseDateRange(payload.StartDate, payload.EndDate)
	if err != nil {
		return dto.TermResponse{}, err
	}

	term := models.Term{
		SchoolID:  payload.SchoolID,
		Name:      strings.TrimSpace(payload.Name),
		Year:      strings.TrimSpace(payload.Year),
		StartDate: start,
		EndDate:   end,
		IsCurrent: payload.IsCurrent,
	}

	if err := s.calendar.CreateTerm(ctx, &term); err != nil {
		return dto.TermResponse{}, err
	}

	return dto.NewTermResponse(term), nil
}

func (s *calendarService) ListTerms(ctx context.Context, scope tenant.Scope) ([]dto.TermResponse, error) {
	terms, err := s.calendar.ListTerms(ctx, scope)
	if err != nil {
		return nil, err
	}
	return dto.NewTermResponseSlice(terms), nil
}

func (s *calendarService) UpdateTerm(ctx context.Context, scope tenant.Scope, id uint, payload dto.TermCreateRequest) (dto.TermResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TermResponse{}, err
	}

	term, err := s.visibleTerm(ctx, scope, id)
	if err != nil {
		return dto.TermResponse{}, err
	}

	start, end, err := parseDateRange(payload.StartDate, payload.EndDate)
	if err != nil {
		return dto.TermResponse{}, err
	}

	term.Name = strings.TrimSpace(payload.Name)
	term.Year = strings.TrimSpace(payload.Year)
	term.StartDate = start
	term.EndDate = end
	term.IsCurrent = payload.IsCurrent

	if err := s.calendar.UpdateTerm(ctx, &term); err != nil {
		return dto.TermResponse{}, err
	}

	return dto.NewTermResponse(term), nil
}

// DeleteTerm refuses when exams or results still reference the term.
func (s *calendarService) DeleteTerm(ctx context.Context, scope tenant.Scope, id uint) error {
	if _, err := s.visibleTerm(ctx, scope, id); err != nil {
		return err
	}

	dependents, err := s.calendar.CountTermDependents(ctx, id)
	if err != nil {
		return err
	}
	if dependents > 0 {
		return ErrHasDependents
	}

	return s.calendar.DeleteTerm(ctx, id)
}

func (s *calendarService) CreateHoliday(ctx context.Context, scope tenant.Scope, payload dto.HolidayCreateRequest) (dto.HolidayResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.HolidayResponse{}, err
	}
	if !scope.AllowsSchool(payload.SchoolID) {
		return dto.HolidayResponse{}, ErrSchoolNotFound
	}

	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		return dto.HolidayResponse{}, ErrInvalidDates
	}

	holiday := models.Holiday{
		SchoolID: payload.SchoolID,
		Name:     strings.TrimSpace(payload.Name),
		Date:     date,
	}

	if err := s.calendar.CreateHoliday(ctx, &holiday); err != nil {
		return dto.HolidayResponse{}, err
	}

	return dto.NewHolidayResponse(holiday), nil
}

func (s *calendarService) ListHolidays(ctx context.Context, scope tenant.Scope, year int) ([]dto.HolidayResponse, error) {
	holidays, err := s.calendar.ListHolidays(ctx, scope, year)
	if err != nil {
		return nil, err
	}
	return dto.NewHolidayResponseSlice(holidays), nil
}

func (s *calendarService) DeleteHoliday(ctx context.Context, scope tenant.Scope, id uint) error {
	holiday, err := s.calendar.GetHoliday(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHolidayNotFound
		}
		return err
	}
	if !scope.AllowsSchool(holiday.SchoolID) {
		return ErrHolidayNotFound
	}

	return s.calendar.DeleteHoliday(ctx, id)
}

func (s *calendarService) CreateEvent(ctx context.Context, scope tenant.Scope, payload dto.EventCreateRequest) (dto.EventResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.EventResponse{}, err
	}
	if !scope.AllowsSchool(payload.SchoolID) {
		return dto.EventResponse{}, ErrSchoolNotFound
	}

	startsAt, err := time.Parse(time.RFC3339, payload.StartsAt)
	if err != nil {
		return dto.EventResponse{}, ErrInvalidDates
	}
	endsAt, err := time.Parse(time.RFC3339, payload.EndsAt)
	if err != nil || endsAt.Before(startsAt) {
		return dto.EventResponse{}, ErrInvalidDates
	}

	event := models.CalendarEvent{
		SchoolID:    payload.SchoolID,
		Title:       strings.TrimSpace(payload.Title),
		Description: strings.TrimSpace(payload.Description),
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		SchoolWide:  payload.SchoolWide,
	}

	if payload.ClassID != nil {
		class, err := s.classes.GetByID(ctx, *payload.ClassID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.EventResponse{}, ErrClassNotFound
			}
			return dto.EventResponse{}, err
		}
		if class.SchoolID != payload.SchoolID {
			return dto.EventResponse{}, ErrClassNotFound
		}
		event.ClassID = payload.ClassID
	} else {
		// An event without a class is visible to the whole school.
		event.SchoolWide = true
	}

	if err := s.calendar.CreateEvent(ctx, &event); err != nil {
		return dto.EventResponse{}, err
	}

	return dto.NewEventResponse(event), nil
}

func (s *calendarService) ListEvents(ctx context.Context, scope tenant.Scope, from, to *time.Time, page, limit int) (dto.ListResponse[dto.EventResponse], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	events, total, err := s.calendar.ListEvents(ctx, repository.EventFilter{
		Scope:    scope,
		From:     from,
		To:       to,
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		return dto.ListResponse[dto.EventResponse]{}, err
	}

	return dto.NewListResponse(dto.NewEventResponseSlice(events), page, limit, total), nil
}

func (s *calendarService) DeleteEvent(ctx context.Context, scope tenant.Scope, id uint) error {
	event, err := s.calendar.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		return err
	}
	if !scope.AllowsSchool(event.SchoolID) {
		return ErrEventNotFound
	}

	return s.calendar.DeleteEvent(ctx, id)
}

func (s *calendarService) visibleTerm(ctx context.Context, scope tenant.Scope, id uint) (models.Term, error) {
	term, err := s.calendar.GetTerm(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Term{}, ErrTermNotFound
		}
		return models.Term{}, err
	}
	if !scope.AllowsSchool(term.SchoolID) {
		return models.Term{}, ErrTermNotFound
	}
	return term, nil
}
