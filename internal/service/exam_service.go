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
	ErrExamNotFound    = errors.New("exam not found")
	ErrSessionNotFound = errors.New("exam session not found")
	ErrInvalidDates    = errors.New("end date must be after start date")
)

// ExamService manages exams and their per-class sessions.
type ExamService interface {
	Create(ctx context.Context, scope tenant.Scope, payload dto.ExamCreateRequest) (dto.ExamResponse, error)
	Get(ctx context.Context, scope tenant.Scope, id uint) (dto.ExamResponse, error)
	List(ctx context.Context, scope tenant.Scope, termID uint, page, limit int) (dto.ListResponse[dto.ExamResponse], error)
	Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.ExamCreateRequest) (dto.ExamResponse, error)
	Delete(ctx context.Context, scope tenant.Scope, id uint) error

	CreateSession(ctx context.Context, scope tenant.Scope, payload dto.ExamSessionCreateRequest) (dto.ExamSessionResponse, error)
	ListSessions(ctx context.Context, scope tenant.Scope, examID uint) ([]dto.ExamSessionResponse, error)
	DeleteSession(ctx context.Context, scope tenant.Scope, id uint) error
}

type examService struct {
	exams     repository.ExamRepository
	calendar  repository.CalendarRepository
	classes   repository.ClassRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewExamService builds the exam service.
func NewExamService(
	exams repository.ExamRepository,
	calendar repository.CalendarRepository,
	classes repository.ClassRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) ExamService {
	return &examService{
		exams:     exams,
		calendar:  calendar,
		classes:   classes,
		validator: validate,
		logger:    logger.With().Str("component", "exam_service").Logger(),
	}
}

func (s *examService) Create(ctx context.Context, scope tenant.Scope, payload dto.ExamCreateRequest) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}
	if !scope.AllowsSchool(payload.SchoolID) {
		return dto.ExamResponse{}, ErrSchoolNotFound
	}

	term, err := s.calendar.GetTerm(ctx, payload.TermID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamResponse{}, ErrTermNotFound
		}
		return dto.ExamResponse{}, err
	}
	if term.SchoolID != payload.SchoolID {
		return dto.ExamResponse{}, ErrTermNotFound
	}

	start, end, err := parseDateRange(payload.StartDate, payload.EndDate)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	exam := models.Exam{
		SchoolID:  payload.SchoolID,
		TermID:    payload.TermID,
		Name:      strings.TrimSpace(payload.Name),
		StartDate: start,
		EndDate:   end,
	}

	if err := s.exams.Create(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	return dto.NewExamResponse(exam), nil
}

func (s *examService) Get(ctx context.Context, scope tenant.Scope, id uint) (dto.ExamResponse, error) {
	exam, err := s.visibleExam(ctx, scope, id)
	if err != nil {
		return dto.ExamResponse{}, err
	}
	return dto.NewExamResponse(exam), nil
}

func (s *examService) List(ctx context.Context, scope tenant.Scope, termID uint, page, limit int) (dto.ListResponse[dto.ExamResponse], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	exams, total, err := s.exams.List(ctx, repository.ExamFilter{
		Scope:    scope,
		TermID:   termID,
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		return dto.ListResponse[dto.ExamResponse]{}, err
	}

	return dto.NewListResponse(dto.NewExamResponseSlice(exams), page, limit, total), nil
}

func (s *examService) Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.ExamCreateRequest) (dto.ExamResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamResponse{}, err
	}

	exam, err := s.visibleExam(ctx, scope, id)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	start, end, err := parseDateRange(payload.StartDate, payload.EndDate)
	if err != nil {
		return dto.ExamResponse{}, err
	}

	exam.Name = strings.TrimSpace(payload.Name)
	exam.StartDate = start
	exam.EndDate = end

	if err := s.exams.Update(ctx, &exam); err != nil {
		return dto.ExamResponse{}, err
	}

	return dto.NewExamResponse(exam), nil
}

// Delete refuses when sessions or results still reference the exam.
func (s *examService) Delete(ctx context.Context, scope tenant.Scope, id uint) error {
	if _, err := s.visibleExam(ctx, scope, id); err != nil {
		return err
	}

	dependents, err := s.exams.CountDependents(ctx, id)
	if err != nil {
		return err
	}
	if dependents > 0 {
		return ErrHasDependents
	}

	return s.exams.Delete(ctx, id)
}

func (s *examService) CreateSession(ctx context.Context, scope tenant.Scope, payload dto.ExamSessionCreateRequest) (dto.ExamSessionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ExamSessionResponse{}, err
	}

	exam, err := s.visibleExam(ctx, scope, payload.ExamID)
	if err != nil {
		return dto.ExamSessionResponse{}, err
	}

	class, err := s.classes.GetByID(ctx, payload.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ExamSessionResponse{}, ErrClassNotFound
		}
		return dto.ExamSessionResponse{}, err
	}
	if class.SchoolID != exam.SchoolID {
		return dto.ExamSessionResponse{}, ErrClassNotFound
	}

	startsAt, err := time.Parse(time.RFC3339, payload.StartsAt)
	if err != nil {
		return dto.ExamSessionResponse{}, ErrInvalidDates
	}
	endsAt, err := time.Parse(time.RFC3339, payload.EndsAt)
	if err != nil || !endsAt.After(startsAt) {
		return dto.ExamSessionResponse{}, ErrInvalidDates
	}

	session := models.ExamSession{
		ExamID:    payload.ExamID,
		SchoolID:  exam.SchoolID,
		ClassID:   payload.ClassID,
		SubjectID: payload.SubjectID,
		Room:      strings.TrimSpace(payload.Room),
		StartsAt:  startsAt,
		EndsAt:    endsAt,
	}

	if err := s.exams.CreateSession(ctx, &session); err != nil {
		return dto.ExamSessionResponse{}, err
	}

	return dto.NewExamSessionResponse(session), nil
}

func (s *examService) ListSessions(ctx context.Context, scope tenant.Scope, examID uint) ([]dto.ExamSessionResponse, error) {
	if examID != 0 {
		if _, err := s.visibleExam(ctx, scope, examID); err != nil {
			return nil, err
		}
	}

	sessions, err := s.exams.ListSessions(ctx, scope, examID)
	if err != nil {
		return nil, err
	}

	return dto.NewExamSessionResponseSlice(sessions), nil
}

func (s *examService) DeleteSession(ctx context.Context, scope tenant.Scope, id uint) error {
	session, err := s.exams.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		return err
	}
	if !scope.AllowsSchool(session.SchoolID) {
		return ErrSessionNotFound
	}

	return s.exams.DeleteSession(ctx, id)
}

func (s *examService) visibleExam(ctx context.Context, scope tenant.Scope, id uint) (models.Exam, error) {
	exam, err := s.exams.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Exam{}, ErrExamNotFound
		}
		return models.Exam{}, err
	}
	if !scope.AllowsSchool(exam.SchoolID) {
		return models.Exam{}, ErrExamNotFound
	}
	return exam, nil
}

func parseDateRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidDates
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil || end.Before(start) {
		return time.Time{}, time.Time{}, ErrInvalidDates
	}
	return start, end, nil
}
