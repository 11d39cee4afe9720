package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

// ResultFilter describes listing options for results.
type ResultFilter struct {
	Scope     tenant.Scope
	StudentID uint
	SubjectID uint
	TermID    uint
	Page      int
	PageSize  int
}

// ResultRepository defines persistence operations for grade records.
type ResultRepository interface {
	GetByID(ctx context.Context, id uint) (models.Result, error)
	List(ctx context.Context, filter ResultFilter) ([]models.Result, int64, error)
	ListForExport(ctx context.Context, scope tenant.Scope, termID uint) ([]models.Result, error)
	Create(ctx context.Context, result *models.Result) error
	Update(ctx context.Context, result *models.Result) error
	Delete(ctx context.Context, id uint) error
}

type resultRepository struct {
	db *gorm.DB
}

// NewResultRepository instantiates a GORM-backed repository.
func NewResultRepository(db *gorm.DB) ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) GetByID(ctx context.Context, id uint) (models.Result, error) {
	var result models.Result
	if err := r.db.WithContext(ctx).First(&result, id).Error; err != nil {
		return models.Result{}, err
	}
	return result, nil
}

func (r *resultRepository) List(ctx context.Context, filter ResultFilter) ([]models.Result, int64, error) {
	query := filter.Scope.ApplyStudents(r.db.WithContext(ctx).Model(&models.Result{}))

	if filter.StudentID != 0 {
		query = query.Where("student_id = ?", filter.StudentID)
	}
	if filter.SubjectID != 0 {
		query = query.Where("subject_id = ?", filter.SubjectID)
	}
	if filter.TermID != 0 {
		query = query.Where("term_id = ?", filter.TermID)
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

	var results []models.Result
	if err := query.Order("created_at DESC").Find(&results).Error; err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func (r *resultRepository) ListForExport(ctx context.Context, scope tenant.Scope, termID uint) ([]models.Result, error) {
	query := scope.ApplyStudents(r.db.WithContext(ctx).Model(&models.Result{}))
	if termID != 0 {
		query = query.Where("term_id = ?", termID)
	}

	var results []models.Result
	if err := query.Order("student_id ASC, subject_id ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *resultRepository) Create(ctx context.Context, result *models.Result) error {
	return r.db.WithContext(ctx).Create(result).Error
}

func (r *resultRepository) Update(ctx context.Context, result *models.Result) error {
	return r.db.WithContext(ctx).Save(result).Error
}

func (r *resultRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Result{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
