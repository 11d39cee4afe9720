package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

// ApprovalFilter describes listing options for pending approvals.
type ApprovalFilter struct {
	Scope    tenant.Scope
	Status   models.ApprovalStatus
	Page     int
	PageSize int
}

// ApprovalRepository defines persistence operations for onboarding approvals.
type ApprovalRepository interface {
	GetByID(ctx context.Context, id uint) (models.Approval, error)
	GetByUserID(ctx context.Context, userID uint) (models.Approval, error)
	List(ctx context.Context, filter ApprovalFilter) ([]models.Approval, int64, error)
	Decide(ctx context.Context, id uint, status models.ApprovalStatus, decidedBy uint, reason string) (models.Approval, error)
}

type approvalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository instantiates a GORM-backed repository.
func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) GetByID(ctx context.Context, id uint) (models.Approval, error) {
	var approval models.Approval
	if err := r.db.WithContext(ctx).First(&approval, id).Error; err != nil {
		return models.Approval{}, err
	}
	return approval, nil
}

func (r *approvalRepository) GetByUserID(ctx context.Context, userID uint) (models.Approval, error) {
	var approval models.Approval
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&approval).Error; err != nil {
		return models.Approval{}, err
	}
	return approval, nil
}

func (r *approvalRepository) List(ctx context.Context, filter ApprovalFilter) ([]models.Approval, int64, error) {
	query := filter.Scope.Apply(r.db.WithContext(ctx).Model(&models.Approval{}))

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
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

	var approvals []models.Approval
	if err := query.Order("created_at ASC").Find(&approvals).Error; err != nil {
		return nil, 0, err
	}

	return approvals, total, nil
}

// Decide moves the approval out of PENDING and toggles the account's active
// flag in the same transaction: approved accounts come alive, rejected ones
// are switched off.
func (r *approvalRepository) Decide(ctx context.Context, id uint, status models.ApprovalStatus, decidedBy uint, reason string) (models.Approval, error) {
	var approval models.Approval

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&approval, id).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		approval.Status = status
		approval.DecidedBy = &decidedBy
		approval.DecidedAt = &now
		approval.RejectedReason = reason

		if err := tx.Save(&approval).Error; err != nil {
			return err
		}

		active := status == models.ApprovalApproved
		return tx.Model(&models.User{}).Where("id = ?", approval.UserID).Update("active", active).Error
	})
	if err != nil {
		return models.Approval{}, err
	}

	return approval, nil
}
