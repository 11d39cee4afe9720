package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

// SubjectFilter describes pagination & search options for subjects.
type SubjectFilter struct {
	Scope    tenant.Scope
	Search   string
	Page     int
	PageSize int
}

// SubjectRepository defines persistence operations for subjects.
type SubjectRepository interface {
	GetByID(ctx context.Context, id uint) (models.Subject, error)
	List(ctx context.Context, filter SubjectFilter) ([]models.Subject, int64, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id uint) error
	CountDependents(ctx context.Context, id uint) (int64, error)
}

type subjectRepository struct {
	db *gorm.DB
}

// NewSubjectRepository instantiates a GORM-backed repository.
func NewSubjectRepository(db *gorm.DB) SubjectRepository {
	return &subjectRepository{db: db}
}

func (r *subjectRepository) GetByID(ctx context.Context, id uint) (models.Subject, error) {
	var subject models.Subject
	if err := r.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return models.Subject{}, err
	}
	return subject, nil
}

func (r *subjectRepository) List(ctx context.Context, filter SubjectFilter) ([]models.Subject, int64, error) {
	query := filter.Scope.Apply(r.db.WithContext(ctx).Model(&models.Subject{}))

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", pattern, pattern)
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

	var subjects []models.Subject
	if err := query.Order("name ASC").Find(&subjects).Error; err != nil {
		return nil, 0, err
	}

	return subjects, total, nil
}

func (r *subjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *subjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	return r.db.WithContext(ctx).Save(subject).Error
}

func (r *subjectRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Subject{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountDependents counts lessons and results referencing the subject.
// Deletion is refused while any exist; nothing cascades.
func (r *subjectRepository) CountDependents(ctx context.Context, id uint) (int64, error) {
	var lessons int64
	if err := r.db.WithContext(ctx).Model(&models.Lesson{}).Where("subject_id = ?", id).Count(&lessons).Error; err != nil {
		return 0, err
	}

	var results int64
	if err := r.db.WithContext(ctx).Model(&models.Result{}).Where("subject_id = ?", id).Count(&results).Error; err != nil {
		return 0, err
	}

	return lessons + results, nil
}
