package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

var (
	ErrResultNotFound = errors.New("result not found")
	ErrScoreTooHigh   = errors.New("score exceeds max score")
)

// ResultService manages per-term grade records.
type ResultService interface {
	Create(ctx context.Context, scope tenant.Scope, payload dto.ResultCreateRequest) (dto.ResultResponse, error)
	Get(ctx context.Context, scope tenant.Scope, id uint) (dto.ResultResponse, error)
	List(ctx context.Context, scope tenant.Scope, studentID, subjectID, termID uint, page, limit int) (dto.ListResponse[dto.ResultResponse], error)
	Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.ResultCreateRequest) (dto.ResultResponse, error)
	Delete(ctx context.Context, scope tenant.Scope, id uint) error
}

type resultService struct {
	results   repository.ResultRepository
	students  repository.StudentRepository
	subjects  repository.SubjectRepository
	calendar  repository.CalendarRepository
	notifier  Notifier
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewResultService builds the result service.
func NewResultService(
	results repository.ResultRepository,
	students repository.StudentRepository,
	subjects repository.SubjectRepository,
	calendar repository.CalendarRepository,
	notifier Notifier,
	validate *validator.Validate,
	logger zerolog.Logger,
) ResultService {
	return &resultService{
		results:   results,
		students:  students,
		subjects:  subjects,
		calendar:  calendar,
		notifier:  notifier,
		validator: validate,
		logger:    logger.With().Str("component", "result_service").Logger(),
	}
}

func (s *resultService) Create(ctx context.Context, scope tenant.Scope, payload dto.ResultCreateRequest) (dto.ResultResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ResultResponse{}, err
	}

	student, err := s.students.GetByID(ctx, payload.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResultResponse{}, ErrStudentNotFound
		}
		return dto.ResultResponse{}, err
	}
	if !scope.AllowsSchool(student.SchoolID) {
		return dto.ResultResponse{}, ErrStudentNotFound
	}

	subject, err := s.subjects.GetByID(ctx, payload.SubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResultResponse{}, ErrSubjectNotFound
		}
		return dto.ResultResponse{}, err
	}
	if subject.SchoolID != student.SchoolID {
		return dto.ResultResponse{}, ErrSubjectNotFound
	}

	term, err := s.calendar.GetTerm(ctx, payload.TermID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ResultResponse{}, ErrTermNotFound
		}
		return dto.ResultResponse{}, err
	}
	if term.SchoolID != student.SchoolID {
		return dto.ResultResponse{}, ErrTermNotFound
	}

	maxScore := payload.MaxScore
	if maxScore == 0 {
		maxScore = 100
	}
	if payload.Score > maxScore {
		return dto.ResultResponse{}, ErrScoreTooHigh
	}

	result := models.Result{
		SchoolID:  student.SchoolID,
		StudentID: payload.StudentID,
		SubjectID: payload.SubjectID,
		TermID:    payload.TermID,
		ExamID:    payload.ExamID,
		Score:     payload.Score,
		MaxScore:  maxScore,
		Remark:    payload.Remark,
	}

	if err := s.results.Create(ctx, &result); err != nil {
		return dto.ResultResponse{}, err
	}

	s.notifyResult(ctx, result, subject.Name)

	s.logger.Info().Uint("result_id", result.ID).Uint("student_id", result.StudentID).Msg("result recorded")

	return dto.NewResultResponse(result), nil
}

func (s *resultService) Get(ctx context.Context, scope tenant.Scope, id uint) (dto.ResultResponse, error) {
	result, err := s.visibleResult(ctx, scope, id)
	if err != nil {
		return dto.ResultResponse{}, err
	}
	return dto.NewResultResponse(result), nil
}

func (s *resultService) List(ctx context.Context, scope tenant.Scope, studentID, subjectID, termID uint, page, limit int) (dto.ListResponse[dto.ResultResponse], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	results, total, err := s.results.List(ctx, repository.ResultFilter{
		Scope:     scope,
		StudentID: studentID,
		SubjectID: subjectID,
		TermID:    termID,
		Page:      page,
		PageSize:  limit,
	})
	if err != nil {
		return dto.ListResponse[dto.ResultResponse]{}, err
	}

	return dto.NewListResponse(dto.NewResultResponseSlice(results), page, limit, total), nil
}

func (s *resultService) Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.ResultCreateRequest) (dto.ResultResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ResultResponse{}, err
	}

	result, err := s.visibleResult(ctx, scope, id)
	if err != nil {
		return dto.ResultResponse{}, err
	}

	maxScore := payload.MaxScore
	if maxScore == 0 {
		maxScore = result.MaxScore
	}
	if payload.Score > maxScore {
		return dto.ResultResponse{}, ErrScoreTooHigh
	}

	result.Score = payload.Score
	result.MaxScore = maxScore
	result.Remark = payload.Remark

	if err := s.results.Update(ctx, &result); err != nil {
		return dto.ResultResponse{}, err
	}

	return dto.NewResultResponse(result), nil
}

func (s *resultService) Delete(ctx context.Context, scope tenant.Scope, id uint) error {
	if _, err := s.visibleResult(ctx, scope, id); err != nil {
		return err
	}
	return s.results.Delete(ctx, id)
}

func (s *resultService) notifyResult(ctx context.Context, result models.Result, subjectName string) {
	if s.notifier == nil {
		return
	}

	parentIDs, err := s.students.ParentUserIDsByStudent(ctx, result.StudentID)
	if err != nil || len(parentIDs) == 0 {
		if err != nil {
			s.logger.Warn().Err(err).Uint("student_id", result.StudentID).Msg("failed to resolve result recipient")
		}
		return
	}

	schoolID := result.SchoolID
	err = s.notifier.Notify(ctx, parentIDs, NotificationInput{
		Title:    "New result: " + subjectName,
		Content:  "A new grade has been recorded for your child.",
		Type:     models.NotificationTypeGrade,
		Priority: models.NotificationPriorityNormal,
		SchoolID: &schoolID,
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("result_id", result.ID).Msg("failed to notify result")
	}
}

func (s *resultService) visibleResult(ctx context.Context, scope tenant.Scope, id uint) (models.Result, error) {
	result, err := s.results.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Result{}, ErrResultNotFound
		}
		return models.Result{}, err
	}
	if !scope.AllowsSchool(result.SchoolID) || !scope.AllowsStudent(result.StudentID) {
		return models.Result{}, ErrResultNotFound
	}
	return result, nil
}
