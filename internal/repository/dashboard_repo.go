package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

// DashboardRepository exposes the aggregate count queries behind dashboards.
type DashboardRepository interface {
	CountSchools(ctx context.Context, scope tenant.Scope) (int64, error)
	CountStudents(ctx context.Context, scope tenant.Scope) (int64, error)
	CountTeachers(ctx context.Context, scope tenant.Scope) (int64, error)
	CountClasses(ctx context.Context, scope tenant.Scope) (int64, error)
	CountAssignmentsDueAfter(ctx context.Context, scope tenant.Scope, after time.Time) (int64, error)
	CountPendingApprovals(ctx context.Context, scope tenant.Scope) (int64, error)
	CountUpcomingEvents(ctx context.Context, scope tenant.Scope, after time.Time) (int64, error)
}

type dashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository instantiates a GORM-backed repository.
func NewDashboardRepository(db *gorm.DB) DashboardRepository {
	return &dashboardRepository{db: db}
}

func (r *dashboardRepository) CountSchools(ctx context.Context, scope tenant.Scope) (int64, error) {
	query := r.db.WithContext(ctx).Model(&models.School{})
	if scope.Deny {
		query = query.Where("1 = 0")
	} else if !scope.Unrestricted {
		query = query.Where("id IN ?", scope.SchoolIDs)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *dashboardRepository) CountStudents(ctx context.Context, scope tenant.Scope) (int64, error) {
	query := scope.Apply(r.db.WithContext(ctx).Model(&models.Student{}))
	if scope.OwnerParentID != nil {
		query = query.Where("parent_id = ?", *scope.OwnerParentID)
	}

	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *dashboardRepository) CountTeachers(ctx context.Context, scope tenant.Scope) (int64, error) {
	var count int64
	err := scope.Apply(r.db.WithContext(ctx).Model(&models.Teacher{})).Count(&count).Error
	return count, err
}

func (r *dashboardRepository) CountClasses(ctx context.Context, scope tenant.Scope) (int64, error) {
	var count int64
	err := scope.Apply(r.db.WithContext(ctx).Model(&models.Class{})).Count(&count).Error
	return count, err
}

func (r *dashboardRepository) CountAssignmentsDueAfter(ctx context.Context, scope tenant.Scope, after time.Time) (int64, error) {
	query := scope.ApplyOwned(r.db.WithContext(ctx).Model(&models.Assignment{}))
	if len(scope.ClassIDs) > 0 && !scope.Unrestricted {
		query = query.Where("class_id IN ?", scope.ClassIDs)
	}

	var count int64
	err := query.Where("due_date > ?", after).Count(&count).Error
	return count, err
}

func (r *dashboardRepository) CountPendingApprovals(ctx context.Context, scope tenant.Scope) (int64, error) {
	var count int64
	err := scope.Apply(r.db.WithContext(ctx).Model(&models.Approval{})).
		Where("status = ?", models.ApprovalPending).
		Count(&count).Error
	return count, err
}

func (r *dashboardRepository) CountUpcomingEvents(ctx context.Context, scope tenant.Scope, after time.Time) (int64, error) {
	var count int64
	err := scope.ApplyClassOrSchoolWide(r.db.WithContext(ctx).Model(&models.CalendarEvent{})).
		Where("starts_at > ?", after).
		Count(&count).Error
	return count, err
}
