package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

// SchoolFilter describes pagination & search options for school listings.
type SchoolFilter struct {
	Scope    tenant.Scope
	Search   string
	Verified *bool
	Page     int
	PageSize int
}

// SchoolRepository defines persistence operations for tenants.
type SchoolRepository interface {
	GetByID(ctx context.Context, id uint) (models.School, error)
	List(ctx context.Context, filter SchoolFilter) ([]models.School, int64, error)
	Create(ctx context.Context, school *models.School) error
	Update(ctx context.Context, school *models.School) error
	SetVerified(ctx context.Context, id uint, verified bool) error
}

type schoolRepository struct {
	db *gorm.DB
}

// NewSchoolRepository instantiates a GORM-backed repository.
func NewSchoolRepository(db *gorm.DB) SchoolRepository {
	return &schoolRepository{db: db}
}

func (r *schoolRepository) GetByID(ctx context.Context, id uint) (models.School, error) {
	var school models.School
	if err := r.db.WithContext(ctx).First(&school, id).Error; err != nil {
		return models.School{}, err
	}
	return school, nil
}

func (r *schoolRepository) List(ctx context.Context, filter SchoolFilter) ([]models.School, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.School{})

	// Schools are the tenants themselves, so the scope applies on id.
	if filter.Scope.Deny {
		query = query.Where("1 = 0")
	} else if !filter.Scope.Unrestricted {
		query = query.Where("id IN ?", filter.Scope.SchoolIDs)
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(strings.TrimSpace(filter.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ?", pattern)
	}
	if filter.Verified != nil {
		query = query.Where("is_verified = ?", *filter.Verified)
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

	var schools []models.School
	if err := query.Order("name ASC").Find(&schools).Error; err != nil {
		return nil, 0, err
	}

	return schools, total, nil
}

func (r *schoolRepository) Create(ctx context.Context, school *models.School) error {
	return r.db.WithContext(ctx).Create(school).Error
}

func (r *schoolRepository) Update(ctx context.Context, school *models.School) error {
	return r.db.WithContext(ctx).Save(school).Error
}

func (r *schoolRepository) SetVerified(ctx context.Context, id uint, verified bool) error {
	result := r.db.WithContext(ctx).Model(&models.School{}).Where("id = ?", id).Update("is_verified", verified)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
