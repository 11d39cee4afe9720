package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

// StudentFilter describes pagination & search options for student listings.
type StudentFilter struct {
	Scope    tenant.Scope
	ClassID  uint
	Search   string
	Page     int
	PageSize int
}

// StudentRepository defines persistence operations for learner records.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error)
	ListByClass(ctx context.Context, classID uint) ([]models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id uint) error
	CountByClass(ctx context.Context, classID uint) (int64, error)
	ParentUserIDsByClass(ctx context.Context, classID uint) ([]uint, error)
	ParentUserIDsByStudent(ctx context.Context, studentID uint) ([]uint, error)
}

type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository instantiates a GORM-backed repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) List(ctx context.Context, filter StudentFilter) ([]models.Student, int64, error) {
	query := filter.Scope.Apply(r.db.WithContext(ctx).Model(&models.Student{}))
	// Parents only ever see their own children.
	if filter.Scope.OwnerParentID != nil {
		query = query.Where("parent_id = ?", *filter.Scope.OwnerParentID)
	}

	if filter.ClassID != 0 {
		query = query.Where("class_id = ?", filter.ClassID)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(admission_no) LIKE ?", pattern, pattern)
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

	var students []models.Student
	if err := query.Order("full_name ASC").Find(&students).Error; err != nil {
		return nil, 0, err
	}

	return students, total, nil
}

func (r *studentRepository) ListByClass(ctx context.Context, classID uint) ([]models.Student, error) {
	var students []models.Student
	if err := r.db.WithContext(ctx).Where("class_id = ?", classID).Find(&students).Error; err != nil {
		return nil, err
	}
	return students, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepository) Update(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Save(student).Error
}

func (r *studentRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Student{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *studentRepository) CountByClass(ctx context.Context, classID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Student{}).Where("class_id = ?", classID).Count(&count).Error
	return count, err
}

// ParentUserIDsByClass returns the distinct parent user ids of every student
// enrolled in the class; this drives assignment notification fan-out.
func (r *studentRepository) ParentUserIDsByClass(ctx context.Context, classID uint) ([]uint, error) {
	var userIDs []uint
	err := r.db.WithContext(ctx).Model(&models.Student{}).
		Joins("JOIN parents ON parents.id = students.parent_id").
		Where("students.class_id = ?", classID).
		Distinct().
		Pluck("parents.user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (r *studentRepository) ParentUserIDsByStudent(ctx context.Context, studentID uint) ([]uint, error) {
	var userIDs []uint
	err := r.db.WithContext(ctx).Model(&models.Student{}).
		Joins("JOIN parents ON parents.id = students.parent_id").
		Where("students.id = ?", studentID).
		Pluck("parents.user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}
