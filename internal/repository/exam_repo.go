package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

// ExamFilter describes listing options for exams.
type ExamFilter struct {
	Scope    tenant.Scope
	TermID   uint
	Page     int
	PageSize int
}

// ExamRepository defines persistence operations for exams and their sessions.
type ExamRepository interface {
	GetByID(ctx context.Context, id uint) (models.Exam, error)
	List(ctx context.Context, filter ExamFilter) ([]models.Exam, int64, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id uint) error
	CountDependents(ctx context.Context, id uint) (int64, error)

	GetSession(ctx context.Context, id uint) (models.ExamSession, error)
	ListSessions(ctx context.Context, scope tenant.Scope, examID uint) ([]models.ExamSession, error)
	CreateSession(ctx context.Context, session *models.ExamSession) error
	DeleteSession(ctx context.Context, id uint) error
}

type examRepository struct {
	db *gorm.DB
}

// NewExamRepository instantiates a GORM-backed repository.
func NewExamRepository(db *gorm.DB) ExamRepository {
	return &examRepository{db: db}
}

func (r *examRepository) GetByID(ctx context.Context, id uint) (models.Exam, error) {
	var exam models.Exam
	if err := r.db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return models.Exam{}, err
	}
	return exam, nil
}

func (r *examRepository) List(ctx context.Context, filter ExamFilter) ([]models.Exam, int64, error) {
	query := filter.Scope.Apply(r.db.WithContext(ctx).Model(&models.Exam{}))

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

	var exams []models.Exam
	if err := query.Order("start_date DESC").Find(&exams).Error; err != nil {
		return nil, 0, err
	}

	return exams, total, nil
}

func (r *examRepository) Create(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Create(exam).Error
}

func (r *examRepository) Update(ctx context.Context, exam *models.Exam) error {
	return r.db.WithContext(ctx).Save(exam).Error
}

func (r *examRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Exam{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountDependents counts sessions and results attached to an exam.
func (r *examRepository) CountDependents(ctx context.Context, id uint) (int64, error) {
	var sessions int64
	if err := r.db.WithContext(ctx).Model(&models.ExamSession{}).Where("exam_id = ?", id).Count(&sessions).Error; err != nil {
		return 0, err
	}

	var results int64
	if err := r.db.WithContext(ctx).Model(&models.Result{}).Where("exam_id = ?", id).Count(&results).Error; err != nil {
		return 0, err
	}

	return sessions + results, nil
}

func (r *examRepository) GetSession(ctx context.Context, id uint) (models.ExamSession, error) {
	var session models.ExamSession
	if err := r.db.WithContext(ctx).First(&session, id).Error; err != nil {
		return models.ExamSession{}, err
	}
	return session, nil
}

func (r *examRepository) ListSessions(ctx context.Context, scope tenant.Scope, examID uint) ([]models.ExamSession, error) {
	query := scope.ApplyClass(r.db.WithContext(ctx).Model(&models.ExamSession{}))
	if examID != 0 {
		query = query.Where("exam_id = ?", examID)
	}

	var sessions []models.ExamSession
	if err := query.Order("starts_at ASC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *examRepository) CreateSession(ctx context.Context, session *models.ExamSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *examRepository) DeleteSession(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.ExamSession{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
