package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/repository"
)

type authFixture struct {
	db       *gorm.DB
	service  AuthService
	tokens   *TokenManager
	users    repository.UserRepository
	notifier *recordingNotifier
	mailer   *stubMailer
	school   models.School
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db := openServiceDB(t)

	school := models.School{Name: "Hilltop Academy", IsVerified: true}
	require.NoError(t, db.Create(&school).Error)

	tokens := NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour, 30*time.Minute)
	notifier := &recordingNotifier{}
	mailer := &stubMailer{}
	users := repository.NewUserRepository(db)

	svc := NewAuthService(
		users,
		repository.NewProfileRepository(db),
		repository.NewSchoolRepository(db),
		repository.NewApprovalRepository(db),
		repository.NewDeviceTokenRepository(db),
		notifier,
		tokens,
		mailer,
		newTestValidator(),
		zerolog.Nop(),
	)

	return &authFixture{
		db:       db,
		service:  svc,
		tokens:   tokens,
		users:    users,
		notifier: notifier,
		mailer:   mailer,
		school:   school,
	}
}

func registerPayload(role string, schoolID uint) dto.RegisterRequest {
	return dto.RegisterRequest{
		Email:    "amina@example.com",
		Username: "amina",
		Password: "correct-horse-9",
		FullName: "Amina Yusuf",
		Role:     role,
		SchoolID: schoolID,
	}
}

func TestRegisterTeacherCreatesPendingApproval(t *testing.T) {
	fx := newAuthFixture(t)

	response, err := fx.service.Register(context.Background(), registerPayload("TEACHER", fx.school.ID), SessionMeta{})
	require.NoError(t, err)
	require.Equal(t, string(models.ApprovalPending), response.ApprovalStatus)
	require.NotEmpty(t, response.Tokens.AccessToken)
	require.NotEmpty(t, response.Tokens.RefreshToken)

	var approvals []models.Approval
	require.NoError(t, fx.db.Where("user_id = ?", response.User.ID).Find(&approvals).Error)
	require.Len(t, approvals, 1)
	require.Equal(t, models.ApprovalPending, approvals[0].Status)
	require.Equal(t, fx.school.ID, approvals[0].SchoolID)

	var teacher models.Teacher
	require.NoError(t, fx.db.Where("user_id = ?", response.User.ID).First(&teacher).Error)
	require.Equal(t, fx.school.ID, teacher.SchoolID)
}

func TestRegisterParentSkipsApproval(t *testing.T) {
	fx := newAuthFixture(t)

	response, err := fx.service.Register(context.Background(), registerPayload("PARENT", 0), SessionMeta{})
	require.NoError(t, err)
	require.Empty(t, response.ApprovalStatus)

	var count int64
	require.NoError(t, fx.db.Model(&models.Approval{}).Where("user_id = ?", response.User.ID).Count(&count).Error)
	require.Zero(t, count)

	var parent models.Parent
	require.NoError(t, fx.db.Where("user_id = ?", response.User.ID).First(&parent).Error)

	// Registration greets the new account.
	calls := fx.notifier.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, []uint{response.User.ID}, calls[0].UserIDs)
	require.Equal(t, 1, fx.mailer.welcomes)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.service.Register(context.Background(), registerPayload("PARENT", 0), SessionMeta{})
	require.NoError(t, err)

	duplicate := registerPayload("PARENT", 0)
	duplicate.Username = "someone-else"
	_, err = fx.service.Register(context.Background(), duplicate, SessionMeta{})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidatesRoleAndSchool(t *testing.T) {
	fx := newAuthFixture(t)

	payload := registerPayload("SUPER_ADMIN", 0)
	_, err := fx.service.Register(context.Background(), payload, SessionMeta{})
	require.ErrorIs(t, err, ErrInvalidRole)

	payload = registerPayload("TEACHER", 0)
	_, err = fx.service.Register(context.Background(), payload, SessionMeta{})
	require.ErrorIs(t, err, ErrSchoolRequired)

	payload = registerPayload("TEACHER", 999)
	_, err = fx.service.Register(context.Background(), payload, SessionMeta{})
	require.ErrorIs(t, err, ErrSchoolNotFound)
}

func TestLoginWrongCredentials(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.service.Register(context.Background(), registerPayload("PARENT", 0), SessionMeta{})
	require.NoError(t, err)

	_, err = fx.service.Login(context.Background(), dto.LoginRequest{Email: "amina@example.com", Password: "wrong-password"}, SessionMeta{})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = fx.service.Login(context.Background(), dto.LoginRequest{Email: "nobody@example.com", Password: "whatever-123"}, SessionMeta{})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginInactiveAccount(t *testing.T) {
	fx := newAuthFixture(t)

	response, err := fx.service.Register(context.Background(), registerPayload("PARENT", 0), SessionMeta{})
	require.NoError(t, err)

	require.NoError(t, fx.db.Model(&models.User{}).Where("id = ?", response.User.ID).Update("active", false).Error)

	// The password is correct, but deactivated accounts may not sign in.
	_, err = fx.service.Login(context.Background(), dto.LoginRequest{Email: "amina@example.com", Password: "correct-horse-9"}, SessionMeta{})
	require.ErrorIs(t, err, ErrAccountInactive)
}

func TestLoginUnverifiedSchool(t *testing.T) {
	fx := newAuthFixture(t)

	unverified := models.School{Name: "Riverside College"}
	require.NoError(t, fx.db.Create(&unverified).Error)

	_, err := fx.service.Register(context.Background(), registerPayload("SCHOOL_ADMIN", unverified.ID), SessionMeta{})
	require.NoError(t, err)

	_, err = fx.service.Login(context.Background(), dto.LoginRequest{Email: "amina@example.com", Password: "correct-horse-9"}, SessionMeta{})
	require.ErrorIs(t, err, ErrSchoolNotVerified)
}

func TestRefreshIssuesNewAccessToken(t *testing.T) {
	fx := newAuthFixture(t)

	response, err := fx.service.Register(context.Background(), registerPayload("PARENT", 0), SessionMeta{UserAgent: "go-test", IPAddress: "127.0.0.1"})
	require.NoError(t, err)

	pair, err := fx.service.Refresh(context.Background(), response.Tokens.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.Equal(t, response.Tokens.RefreshToken, pair.RefreshToken)

	claims, err := fx.tokens.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	userID, err := claims.UserID()
	require.NoError(t, err)
	require.Equal(t, response.User.ID, userID)
}

func TestRefreshRejectsGarbage(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.service.Refresh(context.Background(), "not-a-token")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	fx := newAuthFixture(t)

	response, err := fx.service.Register(context.Background(), registerPayload("PARENT", 0), SessionMeta{})
	require.NoError(t, err)

	require.NoError(t, fx.service.Logout(context.Background(), response.Tokens.RefreshToken))

	_, err = fx.service.Refresh(context.Background(), response.Tokens.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	// The token is already dead; a second logout cannot revive or reuse it.
	err = fx.service.Logout(context.Background(), response.Tokens.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestResetPasswordRevokesAllSessions(t *testing.T) {
	fx := newAuthFixture(t)

	first, err := fx.service.Register(context.Background(), registerPayload("PARENT", 0), SessionMeta{UserAgent: "phone"})
	require.NoError(t, err)

	second, err := fx.service.Login(context.Background(), dto.LoginRequest{Email: "amina@example.com", Password: "correct-horse-9"}, SessionMeta{UserAgent: "laptop"})
	require.NoError(t, err)

	user, err := fx.users.GetByEmail(context.Background(), "amina@example.com")
	require.NoError(t, err)

	resetToken, err := fx.tokens.IssueResetToken(user)
	require.NoError(t, err)

	require.NoError(t, fx.service.ResetPassword(context.Background(), resetToken, "fresh-password-1"))

	// Every outstanding refresh token dies with the old password.
	_, err = fx.service.Refresh(context.Background(), first.Tokens.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = fx.service.Refresh(context.Background(), second.Tokens.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidToken)

	_, err = fx.service.Login(context.Background(), dto.LoginRequest{Email: "amina@example.com", Password: "correct-horse-9"}, SessionMeta{})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	logged, err := fx.service.Login(context.Background(), dto.LoginRequest{Email: "amina@example.com", Password: "fresh-password-1"}, SessionMeta{})
	require.NoError(t, err)
	require.Equal(t, user.ID, logged.User.ID)
}

func TestRequestPasswordResetNeverLeaksAccounts(t *testing.T) {
	fx := newAuthFixture(t)

	_, err := fx.service.Register(context.Background(), registerPayload("PARENT", 0), SessionMeta{})
	require.NoError(t, err)

	require.NoError(t, fx.service.RequestPasswordReset(context.Background(), "amina@example.com"))
	require.Len(t, fx.mailer.resets, 1)

	// Unknown addresses succeed silently.
	require.NoError(t, fx.service.RequestPasswordReset(context.Background(), "ghost@example.com"))
	require.Len(t, fx.mailer.resets, 1)

	claims, err := fx.tokens.ParseResetToken(fx.mailer.resets[0])
	require.NoError(t, err)
	require.Equal(t, "password_reset", claims.Purpose)
}
