package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/repository"
)

// Auth failure sentinels. Credential failures share one message so the
// response never leaks which check tripped.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountInactive    = errors.New("Account is inactive")
	ErrEmailTaken         = errors.New("email or username already registered")
	ErrSchoolNotFound     = errors.New("school not found")
	ErrSchoolNotVerified  = errors.New("school is not verified")
	ErrSchoolRequired     = errors.New("school_id is required for this role")
	ErrInvalidRole        = errors.New("invalid role")
	ErrUserNotFound       = errors.New("user not found")
)

// Mailer abstracts transactional email delivery.
type Mailer interface {
	SendWelcome(ctx context.Context, to, name string) error
	SendPasswordReset(ctx context.Context, to, name, token string) error
}

// SessionMeta captures the client fingerprint persisted on device tokens.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// AuthService implements the credential and session lifecycle.
type AuthService interface {
	Register(ctx context.Context, payload dto.RegisterRequest, meta SessionMeta) (dto.AuthResponse, error)
	Login(ctx context.Context, payload dto.LoginRequest, meta SessionMeta) (dto.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (dto.TokenPairResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type authService struct {
	users     repository.UserRepository
	profiles  repository.ProfileRepository
	schools   repository.SchoolRepository
	approvals repository.ApprovalRepository
	devices   repository.DeviceTokenRepository
	notifier  Notifier
	tokens    *TokenManager
	mailer    Mailer
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewAuthService builds the auth service.
func NewAuthService(
	users repository.UserRepository,
	profiles repository.ProfileRepository,
	schools repository.SchoolRepository,
	approvals repository.ApprovalRepository,
	devices repository.DeviceTokenRepository,
	notifier Notifier,
	tokens *TokenManager,
	mailer Mailer,
	validate *validator.Validate,
	logger zerolog.Logger,
) AuthService {
	return &authService{
		users:     users,
		profiles:  profiles,
		schools:   schools,
		approvals: approvals,
		devices:   devices,
		notifier:  notifier,
		tokens:    tokens,
		mailer:    mailer,
		validator: validate,
		logger:    logger.With().Str("component", "auth_service").Logger(),
		now:       time.Now,
	}
}

func (s *authService) Register(ctx context.Context, payload dto.RegisterRequest, meta SessionMeta) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	role := models.UserRole(strings.ToUpper(strings.TrimSpace(payload.Role)))
	// Super admins are provisioned out of band, never self-registered.
	if !models.ValidRole(string(role)) || role == models.RoleSuperAdmin {
		return dto.AuthResponse{}, ErrInvalidRole
	}

	if role.RequiresSchool() {
		if payload.SchoolID == 0 {
			return dto.AuthResponse{}, ErrSchoolRequired
		}
		if _, err := s.schools.GetByID(ctx, payload.SchoolID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.AuthResponse{}, ErrSchoolNotFound
			}
			return dto.AuthResponse{}, err
		}
	}

	taken, err := s.users.ExistsByEmailOrUsername(ctx, payload.Email, payload.Username)
	if err != nil {
		return dto.AuthResponse{}, err
	}
	if taken {
		return dto.AuthResponse{}, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(payload.Password), bcrypt.DefaultCost)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	user := models.User{
		Email:        strings.ToLower(strings.TrimSpace(payload.Email)),
		Username:     strings.TrimSpace(payload.Username),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(payload.FullName),
		Role:         role,
		Active:       true,
	}

	err = s.users.CreateWithProfile(ctx, &user, func(tx *gorm.DB, created *models.User) error {
		if err := createRoleProfile(tx, created, payload); err != nil {
			return err
		}
		if role.RequiresApproval() {
			approval := models.Approval{
				UserID:   created.ID,
				SchoolID: payload.SchoolID,
				Role:     role,
				Status:   models.ApprovalPending,
			}
			return tx.Create(&approval).Error
		}
		return nil
	})
	if err != nil {
		return dto.AuthResponse{}, err
	}

	tokens, err := s.issueSession(ctx, user, payload.SchoolID, meta)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	s.welcome(ctx, user)

	response := dto.AuthResponse{
		User:   dto.NewUserResponse(user),
		Tokens: tokens,
	}
	if role.RequiresApproval() {
		response.ApprovalStatus = string(models.ApprovalPending)
	}

	s.logger.Info().Uint("user_id", user.ID).Str("role", string(role)).Msg("user registered")

	return response, nil
}

func (s *authService) Login(ctx context.Context, payload dto.LoginRequest, meta SessionMeta) (dto.AuthResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AuthResponse{}, err
	}

	user, err := s.users.GetByEmail(ctx, payload.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, ErrInvalidCredentials
		}
		return dto.AuthResponse{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(payload.Password)); err != nil {
		return dto.AuthResponse{}, ErrInvalidCredentials
	}

	if !user.Active {
		return dto.AuthResponse{}, ErrAccountInactive
	}

	schoolID, err := s.profiles.SchoolIDForUser(ctx, user)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	if user.Role.RequiresSchool() && schoolID != 0 {
		school, err := s.schools.GetByID(ctx, schoolID)
		if err != nil {
			return dto.AuthResponse{}, err
		}
		if !school.IsVerified {
			return dto.AuthResponse{}, ErrSchoolNotVerified
		}
	}

	approvalStatus := ""
	if user.Role.RequiresApproval() {
		approval, err := s.approvals.GetByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AuthResponse{}, err
		}
		if err == nil {
			approvalStatus = string(approval.Status)
		}
	}

	tokens, err := s.issueSession(ctx, user, schoolID, meta)
	if err != nil {
		return dto.AuthResponse{}, err
	}

	now := s.now().UTC()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to update last login")
	}
	user.LastLoginAt = &now

	s.logger.Info().Uint("user_id", user.ID).Msg("user logged in")

	return dto.AuthResponse{
		User:           dto.NewUserResponse(user),
		Tokens:         tokens,
		ApprovalStatus: approvalStatus,
	}, nil
}

func (s *authService) Refresh(ctx context.Context, refreshToken string) (dto.TokenPairResponse, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return dto.TokenPairResponse{}, ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return dto.TokenPairResponse{}, ErrInvalidToken
	}

	device, err := s.devices.GetActiveByTokenID(ctx, claims.TokenID)
	if err != nil {
		return dto.TokenPairResponse{}, ErrInvalidToken
	}
	if !device.Usable(s.now()) || device.UserID != userID {
		return dto.TokenPairResponse{}, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil || !user.Active {
		return dto.TokenPairResponse{}, ErrInvalidToken
	}

	access, err := s.tokens.IssueAccessToken(user, claims.SchoolID)
	if err != nil {
		return dto.TokenPairResponse{}, err
	}

	if err := s.devices.Touch(ctx, claims.TokenID, s.now().UTC()); err != nil {
		s.logger.Warn().Err(err).Msg("failed to touch device token")
	}

	return dto.TokenPairResponse{
		AccessToken:  access,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return ErrInvalidToken
	}

	if err := s.devices.Revoke(ctx, claims.TokenID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	return nil
}

// RequestPasswordReset always succeeds from the caller's perspective so the
// endpoint cannot be used to enumerate accounts.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	token, err := s.tokens.IssueResetToken(user)
	if err != nil {
		s.logger.Error().Err(err).Uint("user_id", user.ID).Msg("failed to issue reset token")
		return nil
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.FullName, token); err != nil {
		s.logger.Error().Err(err).Uint("user_id", user.ID).Msg("failed to send reset email")
	}

	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	claims, err := s.tokens.ParseResetToken(token)
	if err != nil {
		return ErrInvalidToken
	}

	userID, err := claims.UserID()
	if err != nil {
		return ErrInvalidToken
	}

	if err := s.validator.Var(newPassword, "required,min=8"); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := s.users.ResetPassword(ctx, userID, string(hash)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidToken
		}
		return err
	}

	s.logger.Info().Uint("user_id", userID).Msg("password reset, all sessions revoked")

	return nil
}

func (s *authService) issueSession(ctx context.Context, user models.User, schoolID uint, meta SessionMeta) (dto.TokenPairResponse, error) {
	tokenID := uuid.NewString()

	refresh, err := s.tokens.IssueRefreshToken(user, schoolID, tokenID)
	if err != nil {
		return dto.TokenPairResponse{}, err
	}

	access, err := s.tokens.IssueAccessToken(user, schoolID)
	if err != nil {
		return dto.TokenPairResponse{}, err
	}

	device := models.DeviceToken{
		UserID:    user.ID,
		TokenID:   tokenID,
		UserAgent: meta.UserAgent,
		IPAddress: meta.IPAddress,
		Active:    true,
		ExpiresAt: s.now().Add(s.tokens.RefreshTTL()),
	}
	if err := s.devices.Create(ctx, &device); err != nil {
		return dto.TokenPairResponse{}, err
	}

	return dto.TokenPairResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func (s *authService) welcome(ctx context.Context, user models.User) {
	if s.notifier != nil {
		err := s.notifier.Notify(ctx, []uint{user.ID}, NotificationInput{
			Title:    "Welcome to EduTrack",
			Content:  "Your account has been created.",
			Type:     models.NotificationTypeSystem,
			Priority: models.NotificationPriorityNormal,
		})
		if err != nil {
			s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to create welcome notification")
		}
	}

	if s.mailer != nil {
		if err := s.mailer.SendWelcome(ctx, user.Email, user.FullName); err != nil {
			s.logger.Warn().Err(err).Uint("user_id", user.ID).Msg("failed to send welcome email")
		}
	}
}

func createRoleProfile(tx *gorm.DB, user *models.User, payload dto.RegisterRequest) error {
	switch user.Role {
	case models.RoleSchoolAdmin:
		return tx.Create(&models.SchoolAdmin{UserID: user.ID, SchoolID: payload.SchoolID}).Error
	case models.RolePrincipal:
		return tx.Create(&models.Principal{UserID: user.ID, SchoolID: payload.SchoolID}).Error
	case models.RoleTeacher:
		return tx.Create(&models.Teacher{
			UserID:         user.ID,
			SchoolID:       payload.SchoolID,
			Qualification:  payload.Qualification,
			Specialization: payload.Specialization,
		}).Error
	case models.RoleParent:
		return tx.Create(&models.Parent{UserID: user.ID, Occupation: payload.Occupation}).Error
	default:
		return ErrInvalidRole
	}
}
