package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/observability"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

var (
	ErrNoRecipients         = errors.New("no recipients matched the selector")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrEmptyContent         = errors.New("notification content empty after sanitization")
)

// NotificationInput is the internal payload for system-generated notifications.
type NotificationInput struct {
	Title    string
	Content  string
	Type     string
	Priority string
	SchoolID *uint
}

// Notifier is the internal fan-out surface other services deliver through.
type Notifier interface {
	Notify(ctx context.Context, userIDs []uint, input NotificationInput) error
}

// NotificationService manages notification delivery and the per-user inbox.
type NotificationService interface {
	Notifier
	FanOut(ctx context.Context, scope tenant.Scope, payload dto.NotificationFanOutRequest) (int, error)
	List(ctx context.Context, userID uint, payload dto.NotificationListRequest) (dto.ListResponse[dto.NotificationResponse], error)
	MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error)
	UnreadCount(ctx context.Context, userID uint) (int64, error)
}

type notificationEvent struct {
	Source     string    `json:"source"`
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	Recipients int       `json:"recipients"`
	SentAt     time.Time `json:"sent_at"`
}

type notificationService struct {
	repo        repository.NotificationRepository
	profiles    repository.ProfileRepository
	students    repository.StudentRepository
	classes     repository.ClassRepository
	redis       *redis.Client
	redisStream string
	nats        *nats.Conn
	natsSubject string
	validator   *validator.Validate
	logger      zerolog.Logger
	sanitizer   *bluemonday.Policy
	nodeID      string
	now         func() time.Time
}

// NewNotificationService constructs the notification service. The redis client
// and NATS connection are optional; a nil broker skips event publishing.
func NewNotificationService(
	repo repository.NotificationRepository,
	profiles repository.ProfileRepository,
	students repository.StudentRepository,
	classes repository.ClassRepository,
	redisClient *redis.Client,
	channelBase string,
	natsConn *nats.Conn,
	validate *validator.Validate,
	logger zerolog.Logger,
) NotificationService {
	stream := ""
	subject := ""
	if channelBase != "" {
		stream = channelBase + ":notifications"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".notifications"
	}

	return &notificationService{
		repo:        repo,
		profiles:    profiles,
		students:    students,
		classes:     classes,
		redis:       redisClient,
		redisStream: stream,
		nats:        natsConn,
		natsSubject: subject,
		validator:   validate,
		logger:      logger.With().Str("component", "notification_service").Logger(),
		sanitizer:   bluemonday.StrictPolicy(),
		nodeID:      uuid.NewString(),
		now:         time.Now,
	}
}

// Notify persists one notification row per recipient. Used by other services
// for system-generated messages, so input is sanitized but not validated as
// an external payload.
func (s *notificationService) Notify(ctx context.Context, userIDs []uint, input NotificationInput) error {
	if len(userIDs) == 0 {
		return ErrNoRecipients
	}

	title := strings.TrimSpace(s.sanitizer.Sanitize(input.Title))
	content := strings.TrimSpace(s.sanitizer.Sanitize(input.Content))
	if title == "" || content == "" {
		return ErrEmptyContent
	}

	notificationType := input.Type
	if notificationType == "" {
		notificationType = models.NotificationTypeSystem
	}
	priority := input.Priority
	if priority == "" {
		priority = models.NotificationPriorityNormal
	}

	rows := make([]models.Notification, 0, len(userIDs))
	for _, userID := range userIDs {
		rows = append(rows, models.Notification{
			UserID:   userID,
			SchoolID: input.SchoolID,
			Title:    title,
			Content:  content,
			Type:     notificationType,
			Priority: priority,
		})
	}

	if err := s.repo.CreateBatch(ctx, rows); err != nil {
		return err
	}

	observability.NotificationsFannedOut().Add(float64(len(rows)))

	if err := s.publish(ctx, notificationEvent{
		Source:     s.nodeID,
		Title:      title,
		Type:       notificationType,
		Recipients: len(rows),
		SentAt:     s.now().UTC(),
	}); err != nil {
		s.logger.Warn().Err(err).Msg("failed to publish notification event")
	}

	return nil
}

// FanOut resolves a recipient selector inside the caller's tenant scope and
// delivers to every matched user. An empty result is an error, not a no-op.
func (s *notificationService) FanOut(ctx context.Context, scope tenant.Scope, payload dto.NotificationFanOutRequest) (int, error) {
	if err := s.validator.Struct(payload); err != nil {
		return 0, err
	}

	recipients, err := s.resolveRecipients(ctx, scope, payload)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		return 0, ErrNoRecipients
	}

	notificationType := payload.Type
	if notificationType == "" {
		notificationType = models.NotificationTypeAnnouncement
	}

	err = s.Notify(ctx, recipients, NotificationInput{
		Title:    payload.Title,
		Content:  payload.Content,
		Type:     notificationType,
		Priority: payload.Priority,
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info().Int("recipients", len(recipients)).Str("type", notificationType).Msg("notification fan-out delivered")

	return len(recipients), nil
}

func (s *notificationService) List(ctx context.Context, userID uint, payload dto.NotificationListRequest) (dto.ListResponse[dto.NotificationResponse], error) {
	page := payload.Page
	if page < 1 {
		page = 1
	}
	limit := payload.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	notifications, total, err := s.repo.ListByUser(ctx, userID, payload.UnreadOnly, page, limit)
	if err != nil {
		return dto.ListResponse[dto.NotificationResponse]{}, err
	}

	return dto.NewListResponse(dto.NewNotificationResponseSlice(notifications), page, limit, total), nil
}

func (s *notificationService) MarkRead(ctx context.Context, id, userID uint) (dto.NotificationResponse, error) {
	notification, err := s.repo.MarkRead(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NotificationResponse{}, ErrNotificationNotFound
		}
		return dto.NotificationResponse{}, err
	}

	return dto.NewNotificationResponse(notification), nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID uint) (int64, error) {
	return s.repo.CountUnread(ctx, userID)
}

// resolveRecipients maps the selector to user ids, never widening beyond the
// caller's scope. Explicit ids and role selectors may be combined.
func (s *notificationService) resolveRecipients(ctx context.Context, scope tenant.Scope, payload dto.NotificationFanOutRequest) ([]uint, error) {
	if scope.Deny {
		return nil, nil
	}

	seen := make(map[uint]struct{})
	var recipients []uint
	add := func(ids []uint) {
		for _, id := range ids {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			recipients = append(recipients, id)
		}
	}

	if payload.ClassID != 0 {
		if !scope.AllowsClass(payload.ClassID) {
			return nil, nil
		}
		class, err := s.classes.GetByID(ctx, payload.ClassID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil
			}
			return nil, err
		}
		// Callers without a class restriction (school staff) still may not
		// reach into another school's classes.
		if !scope.AllowsSchool(class.SchoolID) {
			return nil, nil
		}
		parentIDs, err := s.students.ParentUserIDsByClass(ctx, payload.ClassID)
		if err != nil {
			return nil, err
		}
		add(parentIDs)
	}

	for _, role := range payload.Roles {
		ids, err := s.profiles.UserIDsByRoleAndSchools(ctx, models.UserRole(role), scope.SchoolIDs)
		if err != nil {
			return nil, err
		}
		add(ids)
	}

	if len(payload.UserIDs) > 0 {
		if scope.Unrestricted {
			add(payload.UserIDs)
		} else {
			ids, err := s.profiles.UserIDsWithinSchools(ctx, payload.UserIDs, scope.SchoolIDs)
			if err != nil {
				return nil, err
			}
			add(ids)
		}
	}

	return recipients, nil
}

func (s *notificationService) publish(ctx context.Context, event notificationEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	if s.redis != nil && s.redisStream != "" {
		if err := s.redis.Publish(ctx, s.redisStream, payload).Err(); err != nil {
			return err
		}
	}

	if s.nats != nil && s.natsSubject != "" {
		if err := s.nats.Publish(s.natsSubject, payload); err != nil {
			return err
		}
	}

	return nil
}
