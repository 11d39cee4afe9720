package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

// EventFilter describes listing options for calendar events.
type EventFilter struct {
	Scope    tenant.Scope
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// CalendarRepository defines persistence operations for terms, holidays and events.
type CalendarRepository interface {
	GetTerm(ctx context.Context, id uint) (models.Term, error)
	ListTerms(ctx context.Context, scope tenant.Scope) ([]models.Term, error)
	CreateTerm(ctx context.Context, term *models.Term) error
	UpdateTerm(ctx context.Context, term *models.Term) error
	DeleteTerm(ctx context.Context, id uint) error
	CountTermDependents(ctx context.Context, id uint) (int64, error)

	GetHoliday(ctx context.Context, id uint) (models.Holiday, error)
	ListHolidays(ctx context.Context, scope tenant.Scope, year int) ([]models.Holiday, error)
	CreateHoliday(ctx context.Context, holiday *models.Holiday) error
	DeleteHoliday(ctx context.Context, id uint) error

	GetEvent(ctx context.Context, id uint) (models.CalendarEvent, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]models.CalendarEvent, int64, error)
	CreateEvent(ctx context.Context, event *models.CalendarEvent) error
	UpdateEvent(ctx context.Context, event *models.CalendarEvent) error
	DeleteEvent(ctx context.Context, id uint) error
}

type calendarRepository struct {
	db *gorm.DB
}

// NewCalendarRepository instantiates a GORM-backed repository.
func NewCalendarRepository(db *gorm.DB) CalendarRepository {
	return &calendarRepository{db: db}
}

func (r *calendarRepository) GetTerm(ctx context.Context, id uint) (models.Term, error) {
	var term models.Term
	if err := r.db.WithContext(ctx).First(&term, id).Error; err != nil {
		return models.Term{}, err
	}
	return term, nil
}

func (r *calendarRepository) ListTerms(ctx context.Context, scope tenant.Scope) ([]models.Term, error) {
	var terms []models.Term
	query := scope.Apply(r.db.WithContext(ctx).Model(&models.Term{}))
	if err := query.Order("start_date DESC").Find(&terms).Error; err != nil {
		return nil, err
	}
	return terms, nil
}

func (r *calendarRepository) CreateTerm(ctx context.Context, term *models.Term) error {
	return r.db.WithContext(ctx).Create(term).Error
}

func (r *calendarRepository) UpdateTerm(ctx context.Context, term *models.Term) error {
	return r.db.WithContext(ctx).Save(term).Error
}

func (r *calendarRepository) DeleteTerm(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Term{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountTermDependents counts exams and results recorded against the term.
func (r *calendarRepository) CountTermDependents(ctx context.Context, id uint) (int64, error) {
	var exams int64
	if err := r.db.WithContext(ctx).Model(&models.Exam{}).Where("term_id = ?", id).Count(&exams).Error; err != nil {
		return 0, err
	}

	var results int64
	if err := r.db.WithContext(ctx).Model(&models.Result{}).Where("term_id = ?", id).Count(&results).Error; err != nil {
		return 0, err
	}

	return exams + results, nil
}

func (r *calendarRepository) GetHoliday(ctx context.Context, id uint) (models.Holiday, error) {
	var holiday models.Holiday
	if err := r.db.WithContext(ctx).First(&holiday, id).Error; err != nil {
		return models.Holiday{}, err
	}
	return holiday, nil
}

func (r *calendarRepository) ListHolidays(ctx context.Context, scope tenant.Scope, year int) ([]models.Holiday, error) {
	query := scope.Apply(r.db.WithContext(ctx).Model(&models.Holiday{}))
	if year != 0 {
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		query = query.Where("date >= ? AND date < ?", start, start.AddDate(1, 0, 0))
	}

	var holidays []models.Holiday
	if err := query.Order("date ASC").Find(&holidays).Error; err != nil {
		return nil, err
	}
	return holidays, nil
}

func (r *calendarRepository) CreateHoliday(ctx context.Context, holiday *models.Holiday) error {
	return r.db.WithContext(ctx).Create(holiday).Error
}

func (r *calendarRepository) DeleteHoliday(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Holiday{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *calendarRepository) GetEvent(ctx context.Context, id uint) (models.CalendarEvent, error) {
	var event models.CalendarEvent
	if err := r.db.WithContext(ctx).First(&event, id).Error; err != nil {
		return models.CalendarEvent{}, err
	}
	return event, nil
}

func (r *calendarRepository) ListEvents(ctx context.Context, filter EventFilter) ([]models.CalendarEvent, int64, error) {
	// Events are class-scoped but may be flagged school-wide, which keeps
	// them visible to parents restricted to their children's classes.
	query := filter.Scope.ApplyClassOrSchoolWide(r.db.WithContext(ctx).Model(&models.CalendarEvent{}))

	if filter.From != nil {
		query = query.Where("ends_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("starts_at <= ?", *filter.To)
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

	var events []models.CalendarEvent
	if err := query.Order("starts_at ASC").Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

func (r *calendarRepository) CreateEvent(ctx context.Context, event *models.CalendarEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *calendarRepository) UpdateEvent(ctx context.Context, event *models.CalendarEvent) error {
	return r.db.WithContext(ctx).Save(event).Error
}

func (r *calendarRepository) DeleteEvent(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.CalendarEvent{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
