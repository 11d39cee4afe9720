package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

type approvalFixture struct {
	db       *gorm.DB
	svc      UserService
	notifier *recordingNotifier
	school   models.School
	user     models.User
	approval models.Approval
}

func newApprovalFixture(t *testing.T) *approvalFixture {
	t.Helper()

	fx := &approvalFixture{db: openServiceDB(t), notifier: &recordingNotifier{}}
	fx.school = seedSchool(t, fx.db)

	fx.user = models.User{
		Email:        "tunde@example.com",
		Username:     "tunde",
		PasswordHash: "irrelevant",
		FullName:     "Tunde Adeyemi",
		Role:         models.RoleTeacher,
		Active:       false,
	}
	require.NoError(t, fx.db.Create(&fx.user).Error)

	fx.approval = models.Approval{
		UserID:   fx.user.ID,
		SchoolID: fx.school.ID,
		Role:     models.RoleTeacher,
		Status:   models.ApprovalPending,
	}
	require.NoError(t, fx.db.Create(&fx.approval).Error)

	fx.svc = NewUserService(
		repository.NewUserRepository(fx.db),
		repository.NewProfileRepository(fx.db),
		repository.NewApprovalRepository(fx.db),
		fx.notifier,
		newTestValidator(),
		zerolog.Nop(),
	)

	return fx
}

func TestDecideApprovalActivatesAccount(t *testing.T) {
	fx := newApprovalFixture(t)

	decided, err := fx.svc.DecideApproval(context.Background(), staffScope(fx.school.ID), fx.approval.ID, 99, true, "")
	require.NoError(t, err)
	require.Equal(t, string(models.ApprovalApproved), decided.Status)
	require.NotNil(t, decided.DecidedAt)
	require.NotNil(t, decided.DecidedBy)
	require.Equal(t, uint(99), *decided.DecidedBy)

	var user models.User
	require.NoError(t, fx.db.First(&user, fx.user.ID).Error)
	require.True(t, user.Active)

	calls := fx.notifier.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, []uint{fx.user.ID}, calls[0].UserIDs)
	require.Contains(t, calls[0].Input.Title, "approved")
}

func TestDecideApprovalRejectionKeepsAccountInactive(t *testing.T) {
	fx := newApprovalFixture(t)

	decided, err := fx.svc.DecideApproval(context.Background(), staffScope(fx.school.ID), fx.approval.ID, 99, false, "no vacancy this term")
	require.NoError(t, err)
	require.Equal(t, string(models.ApprovalRejected), decided.Status)
	require.Equal(t, "no vacancy this term", decided.RejectedReason)

	var user models.User
	require.NoError(t, fx.db.First(&user, fx.user.ID).Error)
	require.False(t, user.Active)

	calls := fx.notifier.Calls()
	require.Len(t, calls, 1)
	require.Contains(t, calls[0].Input.Content, "no vacancy this term")
}

func TestDecideApprovalRefusesSecondDecision(t *testing.T) {
	fx := newApprovalFixture(t)

	_, err := fx.svc.DecideApproval(context.Background(), staffScope(fx.school.ID), fx.approval.ID, 99, true, "")
	require.NoError(t, err)

	_, err = fx.svc.DecideApproval(context.Background(), staffScope(fx.school.ID), fx.approval.ID, 99, false, "changed my mind")
	require.ErrorIs(t, err, ErrApprovalDecided)
}

func TestDecideApprovalInvisibleOutsideSchool(t *testing.T) {
	fx := newApprovalFixture(t)

	other := models.School{Name: "Riverside College", IsVerified: true}
	require.NoError(t, fx.db.Create(&other).Error)

	_, err := fx.svc.DecideApproval(context.Background(), staffScope(other.ID), fx.approval.ID, 99, true, "")
	require.ErrorIs(t, err, ErrApprovalNotFound)

	var approval models.Approval
	require.NoError(t, fx.db.First(&approval, fx.approval.ID).Error)
	require.Equal(t, models.ApprovalPending, approval.Status)
}

func TestListApprovalsScopedToSchool(t *testing.T) {
	fx := newApprovalFixture(t)

	other := models.School{Name: "Riverside College", IsVerified: true}
	require.NoError(t, fx.db.Create(&other).Error)
	foreignUser := models.User{Email: "ngozi@example.com", Username: "ngozi", PasswordHash: "irrelevant", FullName: "Ngozi Eze", Role: models.RolePrincipal}
	require.NoError(t, fx.db.Create(&foreignUser).Error)
	require.NoError(t, fx.db.Create(&models.Approval{UserID: foreignUser.ID, SchoolID: other.ID, Role: models.RolePrincipal, Status: models.ApprovalPending}).Error)

	listed, err := fx.svc.ListApprovals(context.Background(), staffScope(fx.school.ID), "pending", 1, 20)
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	require.Equal(t, fx.user.ID, listed.Items[0].UserID)

	all, err := fx.svc.ListApprovals(context.Background(), tenant.Scope{Unrestricted: true}, "", 1, 20)
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
}
