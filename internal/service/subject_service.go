package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

var (
	ErrSubjectNotFound = errors.New("subject not found")
	// ErrHasDependents guards deletes of rows still referenced elsewhere.
	ErrHasDependents = errors.New("record has dependent records")
)

// SubjectService manages taught disciplines.
type SubjectService interface {
	Create(ctx context.Context, scope tenant.Scope, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error)
	Get(ctx context.Context, scope tenant.Scope, id uint) (dto.SubjectResponse, error)
	List(ctx context.Context, scope tenant.Scope, search string, page, limit int) (dto.ListResponse[dto.SubjectResponse], error)
	Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error)
	Delete(ctx context.Context, scope tenant.Scope, id uint) error
}

type subjectService struct {
	subjects  repository.SubjectRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSubjectService builds the subject service.
func NewSubjectService(subjects repository.SubjectRepository, validate *validator.Validate, logger zerolog.Logger) SubjectService {
	return &subjectService{
		subjects:  subjects,
		validator: validate,
		logger:    logger.With().Str("component", "subject_service").Logger(),
	}
}

func (s *subjectService) Create(ctx context.Context, scope tenant.Scope, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubjectResponse{}, err
	}
	if !scope.AllowsSchool(payload.SchoolID) {
		return dto.SubjectResponse{}, ErrSchoolNotFound
	}

	subject := models.Subject{
		SchoolID: payload.SchoolID,
		Name:     strings.TrimSpace(payload.Name),
		Code:     strings.ToUpper(strings.TrimSpace(payload.Code)),
	}

	if err := s.subjects.Create(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) Get(ctx context.Context, scope tenant.Scope, id uint) (dto.SubjectResponse, error) {
	subject, err := s.visibleSubject(ctx, scope, id)
	if err != nil {
		return dto.SubjectResponse{}, err
	}
	return dto.NewSubjectResponse(subject), nil
}

func (s *subjectService) List(ctx context.Context, scope tenant.Scope, search string, page, limit int) (dto.ListResponse[dto.SubjectResponse], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	subjects, total, err := s.subjects.List(ctx, repository.SubjectFilter{
		Scope:    scope,
		Search:   search,
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		return dto.ListResponse[dto.SubjectResponse]{}, err
	}

	return dto.NewListResponse(dto.NewSubjectResponseSlice(subjects), page, limit, total), nil
}

func (s *subjectService) Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.SubjectCreateRequest) (dto.SubjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubjectResponse{}, err
	}

	subject, err := s.visibleSubject(ctx, scope, id)
	if err != nil {
		return dto.SubjectResponse{}, err
	}

	subject.Name = strings.TrimSpace(payload.Name)
	subject.Code = strings.ToUpper(strings.TrimSpace(payload.Code))

	if err := s.subjects.Update(ctx, &subject); err != nil {
		return dto.SubjectResponse{}, err
	}

	return dto.NewSubjectResponse(subject), nil
}

// Delete refuses when lessons or results still reference the subject.
func (s *subjectService) Delete(ctx context.Context, scope tenant.Scope, id uint) error {
	if _, err := s.visibleSubject(ctx, scope, id); err != nil {
		return err
	}

	dependents, err := s.subjects.CountDependents(ctx, id)
	if err != nil {
		return err
	}
	if dependents > 0 {
		return ErrHasDependents
	}

	return s.subjects.Delete(ctx, id)
}

func (s *subjectService) visibleSubject(ctx context.Context, scope tenant.Scope, id uint) (models.Subject, error) {
	subject, err := s.subjects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Subject{}, ErrSubjectNotFound
		}
		return models.Subject{}, err
	}
	if !scope.AllowsSchool(subject.SchoolID) {
		return models.Subject{}, ErrSubjectNotFound
	}
	return subject, nil
}
