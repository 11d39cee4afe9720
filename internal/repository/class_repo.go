package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

// ClassFilter describes pagination & search options for classes.
type ClassFilter struct {
	Scope      tenant.Scope
	GradeLevel int
	Search     string
	Page       int
	PageSize   int
}

// ClassRepository defines persistence operations for classes and lessons.
type ClassRepository interface {
	GetByID(ctx context.Context, id uint) (models.Class, error)
	List(ctx context.Context, filter ClassFilter) ([]models.Class, int64, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id uint) error
	CountDependents(ctx context.Context, id uint) (int64, error)

	GetLesson(ctx context.Context, id uint) (models.Lesson, error)
	ListLessons(ctx context.Context, scope tenant.Scope, classID uint) ([]models.Lesson, error)
	CreateLesson(ctx context.Context, lesson *models.Lesson) error
	DeleteLesson(ctx context.Context, id uint) error
}

type classRepository struct {
	db *gorm.DB
}

// NewClassRepository instantiates a GORM-backed repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return models.Class{}, err
	}
	return class, nil
}

func (r *classRepository) List(ctx context.Context, filter ClassFilter) ([]models.Class, int64, error) {
	query := filter.Scope.Apply(r.db.WithContext(ctx).Model(&models.Class{}))
	if len(filter.Scope.ClassIDs) > 0 && !filter.Scope.Unrestricted {
		query = query.Where("id IN ?", filter.Scope.ClassIDs)
	}

	if filter.GradeLevel != 0 {
		query = query.Where("grade_level = ?", filter.GradeLevel)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ?", pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var classes []models.Class
	if err := query.Order("grade_level ASC, name ASC").Find(&classes).Error; err != nil {
		return nil, 0, err
	}

	return classes, total, nil
}

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepository) Update(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Save(class).Error
}

func (r *classRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Class{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountDependents counts students and lessons attached to a class.
func (r *classRepository) CountDependents(ctx context.Context, id uint) (int64, error) {
	var students int64
	if err := r.db.WithContext(ctx).Model(&models.Student{}).Where("class_id = ?", id).Count(&students).Error; err != nil {
		return 0, err
	}

	var lessons int64
	if err := r.db.WithContext(ctx).Model(&models.Lesson{}).Where("class_id = ?", id).Count(&lessons).Error; err != nil {
		return 0, err
	}

	return students + lessons, nil
}

func (r *classRepository) GetLesson(ctx context.Context, id uint) (models.Lesson, error) {
	var lesson models.Lesson
	if err := r.db.WithContext(ctx).First(&lesson, id).Error; err != nil {
		return models.Lesson{}, err
	}
	return lesson, nil
}

func (r *classRepository) ListLessons(ctx context.Context, scope tenant.Scope, classID uint) ([]models.Lesson, error) {
	query := scope.ApplyClass(r.db.WithContext(ctx).Model(&models.Lesson{}))
	if classID != 0 {
		query = query.Where("class_id = ?", classID)
	}

	var lessons []models.Lesson
	if err := query.Order("day_of_week ASC, start_time ASC").Find(&lessons).Error; err != nil {
		return nil, err
	}
	return lessons, nil
}

func (r *classRepository) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	return r.db.WithContext(ctx).Create(lesson).Error
}

func (r *classRepository) DeleteLesson(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Lesson{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
