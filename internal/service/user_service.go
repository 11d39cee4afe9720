package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/observability"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

var (
	ErrApprovalNotFound = errors.New("approval not found")
	ErrApprovalDecided  = errors.New("approval already decided")
)

// UserService manages account administration and onboarding approvals.
type UserService interface {
	List(ctx context.Context, scope tenant.Scope, payload dto.UserListRequest) (dto.ListResponse[dto.UserResponse], error)
	Get(ctx context.Context, scope tenant.Scope, id uint) (dto.UserResponse, error)
	Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error)
	SetActive(ctx context.Context, scope tenant.Scope, id uint, active bool) error

	ListApprovals(ctx context.Context, scope tenant.Scope, status string, page, limit int) (dto.ListResponse[dto.ApprovalResponse], error)
	DecideApproval(ctx context.Context, scope tenant.Scope, id, decidedBy uint, approve bool, reason string) (dto.ApprovalResponse, error)
}

type userService struct {
	users     repository.UserRepository
	profiles  repository.ProfileRepository
	approvals repository.ApprovalRepository
	notifier  Notifier
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewUserService builds the user administration service.
func NewUserService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	approvals repository.ApprovalRepository,
	notifier Notifier,
	validate *validator.Validate,
	logger zerolog.Logger,
) UserService {
	return &userService{
		users:     users,
		profiles:  profiles,
		approvals: approvals,
		notifier:  notifier,
		validator: validate,
		logger:    logger.With().Str("component", "user_service").Logger(),
		now:       time.Now,
	}
}

func (s *userService) List(ctx context.Context, scope tenant.Scope, payload dto.UserListRequest) (dto.ListResponse[dto.UserResponse], error) {
	page := payload.Page
	if page < 1 {
		page = 1
	}
	limit := payload.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := repository.UserFilter{
		Active:   payload.Active,
		Search:   payload.Search,
		Page:     page,
		PageSize: limit,
	}
	if payload.Role != "" {
		role := models.UserRole(strings.ToUpper(payload.Role))
		if !models.ValidRole(string(role)) {
			return dto.ListResponse[dto.UserResponse]{}, ErrInvalidRole
		}
		filter.Role = role
	}

	ids, err := s.visibleUserIDs(ctx, scope, filter.Role)
	if err != nil {
		return dto.ListResponse[dto.UserResponse]{}, err
	}

	users, total, err := s.users.List(ctx, ids, filter)
	if err != nil {
		return dto.ListResponse[dto.UserResponse]{}, err
	}

	return dto.NewListResponse(dto.NewUserResponseSlice(users), page, limit, total), nil
}

func (s *userService) Get(ctx context.Context, scope tenant.Scope, id uint) (dto.UserResponse, error) {
	user, err := s.visibleUser(ctx, scope, id)
	if err != nil {
		return dto.UserResponse{}, err
	}
	return dto.NewUserResponse(user), nil
}

func (s *userService) Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.UserUpdateRequest) (dto.UserResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.UserResponse{}, err
	}

	user, err := s.visibleUser(ctx, scope, id)
	if err != nil {
		return dto.UserResponse{}, err
	}

	if payload.FullName != nil {
		user.FullName = strings.TrimSpace(*payload.FullName)
	}
	if payload.Email != nil {
		user.Email = strings.ToLower(strings.TrimSpace(*payload.Email))
	}

	if err := s.users.Update(ctx, &user); err != nil {
		return dto.UserResponse{}, err
	}

	return dto.NewUserResponse(user), nil
}

func (s *userService) SetActive(ctx context.Context, scope tenant.Scope, id uint, active bool) error {
	if _, err := s.visibleUser(ctx, scope, id); err != nil {
		return err
	}

	if err := s.users.SetActive(ctx, id, active); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.logger.Info().Uint("user_id", id).Bool("active", active).Msg("account active flag changed")

	return nil
}

func (s *userService) ListApprovals(ctx context.Context, scope tenant.Scope, status string, page, limit int) (dto.ListResponse[dto.ApprovalResponse], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filter := repository.ApprovalFilter{
		Scope:    scope,
		Page:     page,
		PageSize: limit,
	}
	if status != "" {
		filter.Status = models.ApprovalStatus(strings.ToUpper(status))
	}

	approvals, total, err := s.approvals.List(ctx, filter)
	if err != nil {
		return dto.ListResponse[dto.ApprovalResponse]{}, err
	}

	return dto.NewListResponse(dto.NewApprovalResponseSlice(approvals), page, limit, total), nil
}

// DecideApproval settles a pending approval. Approving activates the account;
// rejecting deactivates it. Both happen in one transaction in the repository.
func (s *userService) DecideApproval(ctx context.Context, scope tenant.Scope, id, decidedBy uint, approve bool, reason string) (dto.ApprovalResponse, error) {
	approval, err := s.approvals.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ApprovalResponse{}, ErrApprovalNotFound
		}
		return dto.ApprovalResponse{}, err
	}

	if !scope.AllowsSchool(approval.SchoolID) {
		return dto.ApprovalResponse{}, ErrApprovalNotFound
	}
	if approval.Decided() {
		return dto.ApprovalResponse{}, ErrApprovalDecided
	}

	status := models.ApprovalApproved
	if !approve {
		status = models.ApprovalRejected
	}

	decided, err := s.approvals.Decide(ctx, id, status, decidedBy, reason)
	if err != nil {
		return dto.ApprovalResponse{}, err
	}

	observability.ApprovalDecisions().WithLabelValues(string(status)).Inc()

	s.notifyDecision(ctx, decided)

	s.logger.Info().
		Uint("approval_id", id).
		Uint("user_id", decided.UserID).
		Str("status", string(status)).
		Msg("approval decided")

	return dto.NewApprovalResponse(decided), nil
}

func (s *userService) notifyDecision(ctx context.Context, approval models.Approval) {
	if s.notifier == nil {
		return
	}

	title := "Your account has been approved"
	content := "You now have full access to your school workspace."
	if approval.Status == models.ApprovalRejected {
		title = "Your account was not approved"
		content = "Your registration was rejected."
		if approval.RejectedReason != "" {
			content = "Your registration was rejected: " + approval.RejectedReason
		}
	}

	schoolID := approval.SchoolID
	err := s.notifier.Notify(ctx, []uint{approval.UserID}, NotificationInput{
		Title:    title,
		Content:  content,
		Type:     models.NotificationTypeApproval,
		Priority: models.NotificationPriorityHigh,
		SchoolID: &schoolID,
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("user_id", approval.UserID).Msg("failed to notify approval decision")
	}
}

// visibleUser loads a user only if it falls inside the caller's scope.
// Out-of-scope rows surface as not-found so existence never leaks.
func (s *userService) visibleUser(ctx context.Context, scope tenant.Scope, id uint) (models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	if scope.Unrestricted {
		return user, nil
	}
	if scope.Deny {
		return models.User{}, ErrUserNotFound
	}

	ids, err := s.visibleUserIDs(ctx, scope, user.Role)
	if err != nil {
		return models.User{}, err
	}
	for _, visible := range ids {
		if visible == user.ID {
			return user, nil
		}
	}

	return models.User{}, ErrUserNotFound
}

// visibleUserIDs materialises the set of user ids inside the scope. A nil
// result means no restriction.
func (s *userService) visibleUserIDs(ctx context.Context, scope tenant.Scope, role models.UserRole) ([]uint, error) {
	if scope.Unrestricted {
		return nil, nil
	}
	if scope.Deny {
		return []uint{}, nil
	}

	roles := []models.UserRole{role}
	if role == "" {
		roles = []models.UserRole{
			models.RoleSchoolAdmin,
			models.RolePrincipal,
			models.RoleTeacher,
			models.RoleParent,
		}
	}

	seen := make(map[uint]struct{})
	ids := make([]uint, 0)
	for _, candidate := range roles {
		// Platform operators are never visible inside a tenant scope.
		if candidate == models.RoleSuperAdmin {
			continue
		}
		matched, err := s.profiles.UserIDsByRoleAndSchools(ctx, candidate, scope.SchoolIDs)
		if err != nil {
			return nil, err
		}
		for _, id := range matched {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}

	return ids, nil
}
