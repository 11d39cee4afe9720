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
	ErrClassNotFound  = errors.New("class not found")
	ErrLessonNotFound = errors.New("lesson not found")
	ErrLessonOverlap  = errors.New("lesson overlaps an existing one")
)

// ClassService manages classes and their lesson timetables.
type ClassService interface {
	Create(ctx context.Context, scope tenant.Scope, payload dto.ClassCreateRequest) (dto.ClassResponse, error)
	Get(ctx context.Context, scope tenant.Scope, id uint) (dto.ClassResponse, error)
	List(ctx context.Context, scope tenant.Scope, gradeLevel int, search string, page, limit int) (dto.ListResponse[dto.ClassResponse], error)
	Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.ClassCreateRequest) (dto.ClassResponse, error)
	Delete(ctx context.Context, scope tenant.Scope, id uint) error

	Students(ctx context.Context, scope tenant.Scope, id uint) ([]dto.StudentResponse, error)

	CreateLesson(ctx context.Context, scope tenant.Scope, payload dto.LessonCreateRequest) (dto.LessonResponse, error)
	ListLessons(ctx context.Context, scope tenant.Scope, classID uint) ([]dto.LessonResponse, error)
	DeleteLesson(ctx context.Context, scope tenant.Scope, id uint) error
}

type classService struct {
	classes   repository.ClassRepository
	students  repository.StudentRepository
	subjects  repository.SubjectRepository
	profiles  repository.ProfileRepository
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewClassService builds the class service.
func NewClassService(
	classes repository.ClassRepository,
	students repository.StudentRepository,
	subjects repository.SubjectRepository,
	profiles repository.ProfileRepository,
	validate *validator.Validate,
	logger zerolog.Logger,
) ClassService {
	return &classService{
		classes:   classes,
		students:  students,
		subjects:  subjects,
		profiles:  profiles,
		validator: validate,
		logger:    logger.With().Str("component", "class_service").Logger(),
	}
}

func (s *classService) Create(ctx context.Context, scope tenant.Scope, payload dto.ClassCreateRequest) (dto.ClassResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}
	if !scope.AllowsSchool(payload.SchoolID) {
		return dto.ClassResponse{}, ErrSchoolNotFound
	}

	class := models.Class{
		SchoolID:   payload.SchoolID,
		Name:       strings.TrimSpace(payload.Name),
		GradeLevel: payload.GradeLevel,
		Capacity:   payload.Capacity,
	}

	if err := s.classes.Create(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	return dto.NewClassResponse(class), nil
}

func (s *classService) Get(ctx context.Context, scope tenant.Scope, id uint) (dto.ClassResponse, error) {
	class, err := s.visibleClass(ctx, scope, id)
	if err != nil {
		return dto.ClassResponse{}, err
	}
	return dto.NewClassResponse(class), nil
}

func (s *classService) List(ctx context.Context, scope tenant.Scope, gradeLevel int, search string, page, limit int) (dto.ListResponse[dto.ClassResponse], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	classes, total, err := s.classes.List(ctx, repository.ClassFilter{
		Scope:      scope,
		GradeLevel: gradeLevel,
		Search:     search,
		Page:       page,
		PageSize:   limit,
	})
	if err != nil {
		return dto.ListResponse[dto.ClassResponse]{}, err
	}

	return dto.NewListResponse(dto.NewClassResponseSlice(classes), page, limit, total), nil
}

func (s *classService) Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.ClassCreateRequest) (dto.ClassResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}

	class, err := s.visibleClass(ctx, scope, id)
	if err != nil {
		return dto.ClassResponse{}, err
	}

	class.Name = strings.TrimSpace(payload.Name)
	class.GradeLevel = payload.GradeLevel
	if payload.Capacity > 0 {
		class.Capacity = payload.Capacity
	}

	if err := s.classes.Update(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	return dto.NewClassResponse(class), nil
}

// Delete refuses when students or lessons still reference the class.
func (s *classService) Delete(ctx context.Context, scope tenant.Scope, id uint) error {
	if _, err := s.visibleClass(ctx, scope, id); err != nil {
		return err
	}

	dependents, err := s.classes.CountDependents(ctx, id)
	if err != nil {
		return err
	}
	if dependents > 0 {
		return ErrHasDependents
	}

	return s.classes.Delete(ctx, id)
}

func (s *classService) Students(ctx context.Context, scope tenant.Scope, id uint) ([]dto.StudentResponse, error) {
	if _, err := s.visibleClass(ctx, scope, id); err != nil {
		return nil, err
	}

	students, err := s.students.ListByClass(ctx, id)
	if err != nil {
		return nil, err
	}

	// Parents only see their own children even within a shared class.
	if scope.OwnerParentID != nil {
		own := students[:0]
		for _, student := range students {
			if scope.AllowsStudent(student.ID) {
				own = append(own, student)
			}
		}
		students = own
	}

	return dto.NewStudentResponseSlice(students), nil
}

func (s *classService) CreateLesson(ctx context.Context, scope tenant.Scope, payload dto.LessonCreateRequest) (dto.LessonResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.LessonResponse{}, err
	}

	class, err := s.visibleClass(ctx, scope, payload.ClassID)
	if err != nil {
		return dto.LessonResponse{}, err
	}

	subject, err := s.subjects.GetByID(ctx, payload.SubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonResponse{}, ErrSubjectNotFound
		}
		return dto.LessonResponse{}, err
	}
	if subject.SchoolID != class.SchoolID {
		return dto.LessonResponse{}, ErrSubjectNotFound
	}

	teacher, err := s.profiles.TeacherByID(ctx, payload.TeacherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.LessonResponse{}, ErrUserNotFound
		}
		return dto.LessonResponse{}, err
	}
	if teacher.SchoolID != class.SchoolID {
		return dto.LessonResponse{}, ErrUserNotFound
	}

	existing, err := s.classes.ListLessons(ctx, scope, payload.ClassID)
	if err != nil {
		return dto.LessonResponse{}, err
	}
	for _, lesson := range existing {
		if lesson.DayOfWeek == payload.DayOfWeek &&
			payload.StartTime < lesson.EndTime && lesson.StartTime < payload.EndTime {
			return dto.LessonResponse{}, ErrLessonOverlap
		}
	}

	lesson := models.Lesson{
		SchoolID:  class.SchoolID,
		SubjectID: payload.SubjectID,
		ClassID:   payload.ClassID,
		TeacherID: payload.TeacherID,
		DayOfWeek: payload.DayOfWeek,
		StartTime: payload.StartTime,
		EndTime:   payload.EndTime,
	}

	if err := s.classes.CreateLesson(ctx, &lesson); err != nil {
		return dto.LessonResponse{}, err
	}

	return dto.NewLessonResponse(lesson), nil
}

func (s *classService) ListLessons(ctx context.Context, scope tenant.Scope, classID uint) ([]dto.LessonResponse, error) {
	if classID != 0 {
		if _, err := s.visibleClass(ctx, scope, classID); err != nil {
			return nil, err
		}
	}

	lessons, err := s.classes.ListLessons(ctx, scope, classID)
	if err != nil {
		return nil, err
	}

	return dto.NewLessonResponseSlice(lessons), nil
}

func (s *classService) DeleteLesson(ctx context.Context, scope tenant.Scope, id uint) error {
	lesson, err := s.classes.GetLesson(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLessonNotFound
		}
		return err
	}
	if !scope.AllowsSchool(lesson.SchoolID) {
		return ErrLessonNotFound
	}

	return s.classes.DeleteLesson(ctx, id)
}

func (s *classService) visibleClass(ctx context.Context, scope tenant.Scope, id uint) (models.Class, error) {
	class, err := s.classes.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Class{}, ErrClassNotFound
		}
		return models.Class{}, err
	}
	if !scope.AllowsSchool(class.SchoolID) || !scope.AllowsClass(class.ID) {
		return models.Class{}, ErrClassNotFound
	}
	return class, nil
}
