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
	ErrStudentNotFound = errors.New("student not found")
	ErrParentNotFound  = errors.New("parent not found")
	ErrClassFull       = errors.New("class is at capacity")
)

// StudentService manages learner records.
type StudentService interface {
	Create(ctx context.Context, scope tenant.Scope, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	Get(ctx context.Context, scope tenant.Scope, id uint) (dto.StudentResponse, error)
	List(ctx context.Context, scope tenant.Scope, classID uint, search string, page, limit int) (dto.ListResponse[dto.StudentResponse], error)
	Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.StudentCreateRequest) (dto.StudentResponse, error)
	Delete(ctx context.Context, scope tenant.Scope, id uint) error
}

type studentService struct {
	students  repository.StudentRepository
	classes   repository.ClassRepository
	profiles  repository.ProfileRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewStudentService builds the student service.
func NewStudentService(
	students repository.StudentRepository,
	classes repository.ClassRepository,
	profiles repository.ProfileRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) StudentService {
	return &studentService{
		students:  students,
		classes:   classes,
		profiles:  profiles,
		validator: validate,
		logger:    logger.With().Str("component", "student_service").Logger(),
	}
}

func (s *studentService) Create(ctx context.Context, scope tenant.Scope, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	if !scope.AllowsSchool(payload.SchoolID) {
		return dto.StudentResponse{}, ErrSchoolNotFound
	}

	student := models.Student{
		SchoolID:       payload.SchoolID,
		ParentID:       payload.ParentID,
		FullName:       strings.TrimSpace(payload.FullName),
		AdmissionNo:    strings.TrimSpace(payload.AdmissionNo),
		Gender:         payload.Gender,
		EnrollmentDate: time.Now().UTC(),
	}

	if payload.DateOfBirth != "" {
		dob, err := time.Parse("2006-01-02", payload.DateOfBirth)
		if err == nil {
			student.DateOfBirth = dob
		}
	}

	if err := s.checkParent(ctx, payload.ParentID); err != nil {
		return dto.StudentResponse{}, err
	}

	if payload.ClassID != nil {
		if err := s.checkClass(ctx, payload.SchoolID, *payload.ClassID, 1); err != nil {
			return dto.StudentResponse{}, err
		}
		student.ClassID = payload.ClassID
	}

	if err := s.students.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.logger.Info().Uint("student_id", student.ID).Uint("school_id", student.SchoolID).Msg("student enrolled")

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Get(ctx context.Context, scope tenant.Scope, id uint) (dto.StudentResponse, error) {
	student, err := s.visibleStudent(ctx, scope, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}
	return dto.NewStudentResponse(student), nil
}

func (s *studentService) List(ctx context.Context, scope tenant.Scope, classID uint, search string, page, limit int) (dto.ListResponse[dto.StudentResponse], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	students, total, err := s.students.List(ctx, repository.StudentFilter{
		Scope:    scope,
		ClassID:  classID,
		Search:   search,
		Page:     page,
		PageSize: limit,
	})
	if err != nil {
		return dto.ListResponse[dto.StudentResponse]{}, err
	}

	return dto.NewListResponse(dto.NewStudentResponseSlice(students), page, limit, total), nil
}

func (s *studentService) Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.StudentCreateRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	student, err := s.visibleStudent(ctx, scope, id)
	if err != nil {
		return dto.StudentResponse{}, err
	}

	if payload.ParentID != student.ParentID {
		if err := s.checkParent(ctx, payload.ParentID); err != nil {
			return dto.StudentResponse{}, err
		}
		student.ParentID = payload.ParentID
	}

	if payload.ClassID != nil && (student.ClassID == nil || *payload.ClassID != *student.ClassID) {
		if err := s.checkClass(ctx, student.SchoolID, *payload.ClassID, 1); err != nil {
			return dto.StudentResponse{}, err
		}
	}
	student.ClassID = payload.ClassID

	student.FullName = strings.TrimSpace(payload.FullName)
	student.Gender = payload.Gender
	if payload.DateOfBirth != "" {
		if dob, err := time.Parse("2006-01-02", payload.DateOfBirth); err == nil {
			student.DateOfBirth = dob
		}
	}

	if err := s.students.Update(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	return dto.NewStudentResponse(student), nil
}

func (s *studentService) Delete(ctx context.Context, scope tenant.Scope, id uint) error {
	if _, err := s.visibleStudent(ctx, scope, id); err != nil {
		return err
	}
	return s.students.Delete(ctx, id)
}

func (s *studentService) visibleStudent(ctx context.Context, scope tenant.Scope, id uint) (models.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Student{}, ErrStudentNotFound
		}
		return models.Student{}, err
	}

	if !scope.AllowsSchool(student.SchoolID) || !scope.AllowsStudent(student.ID) {
		return models.Student{}, ErrStudentNotFound
	}

	return student, nil
}

func (s *studentService) checkParent(ctx context.Context, parentID uint) error {
	if _, err := s.profiles.ParentByID(ctx, parentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrParentNotFound
		}
		return err
	}
	return nil
}

// checkClass verifies the class belongs to the student's school and has room
// for the given number of new learners.
func (s *studentService) checkClass(ctx context.Context, schoolID, classID uint, adding int64) error {
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassNotFound
		}
		return err
	}
	if class.SchoolID != schoolID {
		return ErrClassNotFound
	}

	if class.Capacity > 0 {
		enrolled, err := s.students.CountByClass(ctx, classID)
		if err != nil {
			return err
		}
		if enrolled+adding > int64(class.Capacity) {
			return ErrClassFull
		}
	}

	return nil
}
