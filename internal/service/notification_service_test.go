package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

func newNotificationService(t *testing.T) (NotificationService, *gorm.DB) {
	t.Helper()

	db := openServiceDB(t)
	svc := NewNotificationService(
		repository.NewNotificationRepository(db),
		repository.NewProfileRepository(db),
		repository.NewStudentRepository(db),
		repository.NewClassRepository(db),
		nil,
		"edutrack",
		nil,
		newTestValidator(),
		zerolog.Nop(),
	)
	return svc, db
}

func TestNotifyRequiresRecipients(t *testing.T) {
	svc, _ := newNotificationService(t)

	err := svc.Notify(context.Background(), nil, NotificationInput{Title: "Hello", Content: "World"})
	require.ErrorIs(t, err, ErrNoRecipients)
}

func TestNotifySanitizesMarkup(t *testing.T) {
	svc, db := newNotificationService(t)

	err := svc.Notify(context.Background(), []uint{1}, NotificationInput{
		Title:   "<b>PTA meeting</b>",
		Content: "Meet <i>at noon</i> in the main hall.",
	})
	require.NoError(t, err)

	var row models.Notification
	require.NoError(t, db.Where("user_id = ?", 1).First(&row).Error)
	require.Equal(t, "PTA meeting", row.Title)
	require.Equal(t, "Meet at noon in the main hall.", row.Content)
	require.Equal(t, models.NotificationTypeSystem, row.Type)
	require.Equal(t, models.NotificationPriorityNormal, row.Priority)

	// Script bodies are stripped entirely; nothing deliverable remains.
	err = svc.Notify(context.Background(), []uint{1}, NotificationInput{
		Title:   "Alert",
		Content: "<script>alert(1)</script>",
	})
	require.ErrorIs(t, err, ErrEmptyContent)
}

func TestFanOutResolvesRoleRecipientsWithinScope(t *testing.T) {
	svc, db := newNotificationService(t)

	inScope := models.Teacher{UserID: 11, SchoolID: 1}
	outOfScope := models.Teacher{UserID: 12, SchoolID: 2}
	require.NoError(t, db.Create(&inScope).Error)
	require.NoError(t, db.Create(&outOfScope).Error)

	scope := tenant.Scope{SchoolIDs: []uint{1}}
	count, err := svc.FanOut(context.Background(), scope, dto.NotificationFanOutRequest{
		Title:   "Staff meeting",
		Content: "Thursday at 14:00 in the staff room.",
		Roles:   []string{"TEACHER"},
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	var rows []models.Notification
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, uint(11), rows[0].UserID)
	require.Equal(t, models.NotificationTypeAnnouncement, rows[0].Type)
}

func TestFanOutDeduplicatesExplicitRecipients(t *testing.T) {
	svc, db := newNotificationService(t)

	require.NoError(t, db.Create(&models.Teacher{UserID: 7, SchoolID: 1}).Error)
	require.NoError(t, db.Create(&models.Teacher{UserID: 8, SchoolID: 1}).Error)

	count, err := svc.FanOut(context.Background(), tenant.Scope{SchoolIDs: []uint{1}}, dto.NotificationFanOutRequest{
		Title:   "Reminder",
		Content: "Report cards go out on Friday.",
		UserIDs: []uint{7, 7, 8},
	})
	require.NoError(t, err)
	require.Equal(t, 2, count)

	var total int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&total).Error)
	require.EqualValues(t, 2, total)
}

func TestFanOutDropsExplicitRecipientsOutsideScope(t *testing.T) {
	svc, db := newNotificationService(t)

	require.NoError(t, db.Create(&models.Teacher{UserID: 7, SchoolID: 1}).Error)
	require.NoError(t, db.Create(&models.Teacher{UserID: 9, SchoolID: 2}).Error)

	scope := tenant.Scope{SchoolIDs: []uint{1}}
	count, err := svc.FanOut(context.Background(), scope, dto.NotificationFanOutRequest{
		Title:   "Reminder",
		Content: "Report cards go out on Friday.",
		UserIDs: []uint{7, 9},
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	var rows []models.Notification
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	require.Equal(t, uint(7), rows[0].UserID)

	// Only foreign ids leaves nothing to deliver.
	_, err = svc.FanOut(context.Background(), scope, dto.NotificationFanOutRequest{
		Title:   "Reminder",
		Content: "Report cards go out on Friday.",
		UserIDs: []uint{9},
	})
	require.ErrorIs(t, err, ErrNoRecipients)
}

func TestFanOutRefusesForeignClassForStaff(t *testing.T) {
	svc, db := newNotificationService(t)

	foreignClass := models.Class{SchoolID: 2, Name: "SSS 2A", GradeLevel: 11, Capacity: 40}
	require.NoError(t, db.Create(&foreignClass).Error)
	parent := models.Parent{UserID: 30}
	require.NoError(t, db.Create(&parent).Error)
	require.NoError(t, db.Create(&models.Student{SchoolID: 2, ClassID: &foreignClass.ID, ParentID: parent.ID, FullName: "Far Away", AdmissionNo: "ADM-90"}).Error)

	// School staff scopes carry no class restriction, so the class's own
	// school decides.
	staff := tenant.Scope{SchoolIDs: []uint{1}}
	_, err := svc.FanOut(context.Background(), staff, dto.NotificationFanOutRequest{
		Title:   "Field trip",
		Content: "Permission slips are due tomorrow.",
		ClassID: foreignClass.ID,
	})
	require.ErrorIs(t, err, ErrNoRecipients)

	var total int64
	require.NoError(t, db.Model(&models.Notification{}).Count(&total).Error)
	require.Zero(t, total)
}

func TestFanOutRefusesOutOfScopeClass(t *testing.T) {
	svc, _ := newNotificationService(t)

	scope := tenant.Scope{SchoolIDs: []uint{1}, ClassIDs: []uint{5}}
	_, err := svc.FanOut(context.Background(), scope, dto.NotificationFanOutRequest{
		Title:   "Field trip",
		Content: "Permission slips are due tomorrow.",
		ClassID: 6,
	})
	require.ErrorIs(t, err, ErrNoRecipients)
}

func TestFanOutDeniedScope(t *testing.T) {
	svc, _ := newNotificationService(t)

	_, err := svc.FanOut(context.Background(), tenant.Scope{Deny: true}, dto.NotificationFanOutRequest{
		Title:   "Anything",
		Content: "A denied caller reaches nobody.",
		UserIDs: []uint{1},
	})
	require.ErrorIs(t, err, ErrNoRecipients)
}

func TestInboxLifecycle(t *testing.T) {
	svc, _ := newNotificationService(t)

	require.NoError(t, svc.Notify(context.Background(), []uint{42}, NotificationInput{Title: "One", Content: "First message."}))
	require.NoError(t, svc.Notify(context.Background(), []uint{42}, NotificationInput{Title: "Two", Content: "Second message."}))

	unread, err := svc.UnreadCount(context.Background(), 42)
	require.NoError(t, err)
	require.EqualValues(t, 2, unread)

	listed, err := svc.List(context.Background(), 42, dto.NotificationListRequest{UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, listed.Items, 2)

	marked, err := svc.MarkRead(context.Background(), listed.Items[0].ID, 42)
	require.NoError(t, err)
	require.True(t, marked.Read)
	require.NotNil(t, marked.ReadAt)

	unread, err = svc.UnreadCount(context.Background(), 42)
	require.NoError(t, err)
	require.EqualValues(t, 1, unread)

	// Another user cannot read someone else's inbox row.
	_, err = svc.MarkRead(context.Background(), listed.Items[1].ID, 43)
	require.ErrorIs(t, err, ErrNotificationNotFound)
}
