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
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

type resultFixture struct {
	db       *gorm.DB
	svc      ResultService
	notifier *recordingNotifier
	school   models.School
	parent   models.User
	student  models.Student
	subject  models.Subject
	term     models.Term
}

func newResultFixture(t *testing.T) *resultFixture {
	t.Helper()

	fx := &resultFixture{db: openServiceDB(t), notifier: &recordingNotifier{}}
	fx.school = seedSchool(t, fx.db)

	fx.parent = models.User{Email: "bola@example.com", Username: "bola", PasswordHash: "irrelevant", FullName: "Bola Ojo", Role: models.RoleParent}
	require.NoError(t, fx.db.Create(&fx.parent).Error)
	parent := models.Parent{UserID: fx.parent.ID}
	require.NoError(t, fx.db.Create(&parent).Error)

	fx.student = models.Student{SchoolID: fx.school.ID, ParentID: parent.ID, FullName: "Seun Ojo", AdmissionNo: "ADM-42"}
	require.NoError(t, fx.db.Create(&fx.student).Error)

	fx.subject = models.Subject{SchoolID: fx.school.ID, Name: "Mathematics", Code: "MTH"}
	require.NoError(t, fx.db.Create(&fx.subject).Error)

	fx.term = models.Term{SchoolID: fx.school.ID, Name: "First Term", Year: "2026/2027", StartDate: time.Now(), EndDate: time.Now().AddDate(0, 3, 0)}
	require.NoError(t, fx.db.Create(&fx.term).Error)

	fx.svc = NewResultService(
		repository.NewResultRepository(fx.db),
		repository.NewStudentRepository(fx.db),
		repository.NewSubjectRepository(fx.db),
		repository.NewCalendarRepository(fx.db),
		fx.notifier,
		newTestValidator(),
		zerolog.Nop(),
	)

	return fx
}

func (fx *resultFixture) payload(score, maxScore float64) dto.ResultCreateRequest {
	return dto.ResultCreateRequest{
		StudentID: fx.student.ID,
		SubjectID: fx.subject.ID,
		TermID:    fx.term.ID,
		Score:     score,
		MaxScore:  maxScore,
	}
}

func TestResultCreateNotifiesParent(t *testing.T) {
	fx := newResultFixture(t)

	created, err := fx.svc.Create(context.Background(), staffScope(fx.school.ID), fx.payload(72, 80))
	require.NoError(t, err)
	require.InDelta(t, 72, created.Score, 0.001)
	require.InDelta(t, 80, created.MaxScore, 0.001)

	calls := fx.notifier.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, []uint{fx.parent.ID}, calls[0].UserIDs)
	require.Equal(t, models.NotificationTypeGrade, calls[0].Input.Type)
	require.Contains(t, calls[0].Input.Title, "Mathematics")
}

func TestResultCreateRejectsScoreAboveMax(t *testing.T) {
	fx := newResultFixture(t)

	_, err := fx.svc.Create(context.Background(), staffScope(fx.school.ID), fx.payload(85, 80))
	require.ErrorIs(t, err, ErrScoreTooHigh)

	// MaxScore omitted defaults to 100.
	_, err = fx.svc.Create(context.Background(), staffScope(fx.school.ID), fx.payload(101, 0))
	require.ErrorIs(t, err, ErrScoreTooHigh)

	created, err := fx.svc.Create(context.Background(), staffScope(fx.school.ID), fx.payload(100, 0))
	require.NoError(t, err)
	require.InDelta(t, 100, created.MaxScore, 0.001)
}

func TestResultCreateRejectsCrossTenantPieces(t *testing.T) {
	fx := newResultFixture(t)

	other := models.School{Name: "Riverside College", IsVerified: true}
	require.NoError(t, fx.db.Create(&other).Error)
	foreignSubject := models.Subject{SchoolID: other.ID, Name: "Biology", Code: "BIO"}
	require.NoError(t, fx.db.Create(&foreignSubject).Error)
	foreignTerm := models.Term{SchoolID: other.ID, Name: "First Term", Year: "2026/2027", StartDate: time.Now(), EndDate: time.Now().AddDate(0, 3, 0)}
	require.NoError(t, fx.db.Create(&foreignTerm).Error)

	payload := fx.payload(50, 100)
	payload.SubjectID = foreignSubject.ID
	_, err := fx.svc.Create(context.Background(), staffScope(fx.school.ID), payload)
	require.ErrorIs(t, err, ErrSubjectNotFound)

	payload = fx.payload(50, 100)
	payload.TermID = foreignTerm.ID
	_, err = fx.svc.Create(context.Background(), staffScope(fx.school.ID), payload)
	require.ErrorIs(t, err, ErrTermNotFound)

	_, err = fx.svc.Create(context.Background(), staffScope(other.ID), fx.payload(50, 100))
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestResultVisibilityForParentScope(t *testing.T) {
	fx := newResultFixture(t)

	created, err := fx.svc.Create(context.Background(), staffScope(fx.school.ID), fx.payload(64, 100))
	require.NoError(t, err)

	parentScope := tenant.Scope{
		SchoolIDs:  []uint{fx.school.ID},
		StudentIDs: []uint{fx.student.ID},
	}
	got, err := fx.svc.Get(context.Background(), parentScope, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)

	otherFamily := tenant.Scope{
		SchoolIDs:  []uint{fx.school.ID},
		StudentIDs: []uint{fx.student.ID + 1000},
	}
	_, err = fx.svc.Get(context.Background(), otherFamily, created.ID)
	require.ErrorIs(t, err, ErrResultNotFound)
}
