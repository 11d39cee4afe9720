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

// SchoolService manages tenant records.
type SchoolService interface {
	Create(ctx context.Context, payload dto.SchoolCreateRequest) (dto.SchoolResponse, error)
	Get(ctx context.Context, scope tenant.Scope, id uint) (dto.SchoolResponse, error)
	List(ctx context.Context, scope tenant.Scope, search string, verified *bool, page, limit int) (dto.ListResponse[dto.SchoolResponse], error)
	Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.SchoolCreateRequest) (dto.SchoolResponse, error)
	Verify(ctx context.Context, id uint, verified bool) (dto.SchoolResponse, error)
}

type schoolService struct {
	schools   repository.SchoolRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewSchoolService builds the school service.
func NewSchoolService(schools repository.SchoolRepository, validate *validator.Validate, logger zerolog.Logger) SchoolService {
	return &schoolService{
		schools:   schools,
		validator: validate,
		logger:    logger.With().Str("component", "school_service").Logger(),
	}
}

func (s *schoolService) Create(ctx context.Context, payload dto.SchoolCreateRequest) (dto.SchoolResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SchoolResponse{}, err
	}

	school := models.School{
		Name:    strings.TrimSpace(payload.Name),
		Address: strings.TrimSpace(payload.Address),
		Phone:   strings.TrimSpace(payload.Phone),
		Email:   strings.ToLower(strings.TrimSpace(payload.Email)),
	}

	if err := s.schools.Create(ctx, &school); err != nil {
		return dto.SchoolResponse{}, err
	}

	s.logger.Info().Uint("school_id", school.ID).Str("name", school.Name).Msg("school created")

	return dto.NewSchoolResponse(school), nil
}

func (s *schoolService) Get(ctx context.Context, scope tenant.Scope, id uint) (dto.SchoolResponse, error) {
	if !scope.AllowsSchool(id) {
		return dto.SchoolResponse{}, ErrSchoolNotFound
	}

	school, err := s.schools.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SchoolResponse{}, ErrSchoolNotFound
		}
		return dto.SchoolResponse{}, err
	}

	return dto.NewSchoolResponse(school), nil
}

func (s *schoolService) List(ctx context.Context, scope tenant.Scope, search string, verified *bool, page, limit int) (dto.ListResponse[dto.SchoolResponse], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	schools, total, err := s.schools.List(ctx, repository.SchoolFilter{
		Scope:    scope,
		Search:   search,
		Verified: verified,
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		return dto.ListResponse[dto.SchoolResponse]{}, err
	}

	return dto.NewListResponse(dto.NewSchoolResponseSlice(schools), page, limit, total), nil
}

func (s *schoolService) Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.SchoolCreateRequest) (dto.SchoolResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SchoolResponse{}, err
	}

	if !scope.AllowsSchool(id) {
		return dto.SchoolResponse{}, ErrSchoolNotFound
	}

	school, err := s.schools.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SchoolResponse{}, ErrSchoolNotFound
		}
		return dto.SchoolResponse{}, err
	}

	school.Name = strings.TrimSpace(payload.Name)
	school.Address = strings.TrimSpace(payload.Address)
	school.Phone = strings.TrimSpace(payload.Phone)
	school.Email = strings.ToLower(strings.TrimSpace(payload.Email))

	if err := s.schools.Update(ctx, &school); err != nil {
		return dto.SchoolResponse{}, err
	}

	return dto.NewSchoolResponse(school), nil
}

// Verify flips the verification flag. Unverified schools block staff logins.
func (s *schoolService) Verify(ctx context.Context, id uint, verified bool) (dto.SchoolResponse, error) {
	if err := s.schools.SetVerified(ctx, id, verified); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SchoolResponse{}, ErrSchoolNotFound
		}
		return dto.SchoolResponse{}, err
	}

	school, err := s.schools.GetByID(ctx, id)
	if err != nil {
		return dto.SchoolResponse{}, err
	}

	s.logger.Info().Uint("school_id", id).Bool("verified", verified).Msg("school verification changed")

	return dto.NewSchoolResponse(school), nil
}
