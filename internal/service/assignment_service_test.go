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

type assignmentFixture struct {
	db       *gorm.DB
	service  AssignmentService
	notifier *recordingNotifier

	school  models.School
	teacher models.Teacher
	class   models.Class
	subject models.Subject

	parentOne models.User
	parentTwo models.User
}

func newAssignmentFixture(t *testing.T) *assignmentFixture {
	t.Helper()

	db := openServiceDB(t)
	fx := &assignmentFixture{db: db, notifier: &recordingNotifier{}}

	fx.school = models.School{Name: "Hilltop Academy", IsVerified: true}
	require.NoError(t, db.Create(&fx.school).Error)

	teacherUser := models.User{Email: "t@example.com", Username: "teach", PasswordHash: "x", FullName: "Tunde Bello", Role: models.RoleTeacher, Active: true}
	require.NoError(t, db.Create(&teacherUser).Error)
	fx.teacher = models.Teacher{UserID: teacherUser.ID, SchoolID: fx.school.ID}
	require.NoError(t, db.Create(&fx.teacher).Error)

	fx.class = models.Class{SchoolID: fx.school.ID, Name: "JSS 2A", GradeLevel: 8, Capacity: 40}
	require.NoError(t, db.Create(&fx.class).Error)
	fx.subject = models.Subject{SchoolID: fx.school.ID, Name: "Mathematics", Code: "MTH"}
	require.NoError(t, db.Create(&fx.subject).Error)

	fx.parentOne = fx.addParentWithChild(t, "p1@example.com", "parent-one", fx.class.ID, "ADM-001")
	fx.parentTwo = fx.addParentWithChild(t, "p2@example.com", "parent-two", fx.class.ID, "ADM-002")

	fx.service = NewAssignmentService(
		repository.NewAssignmentRepository(db),
		repository.NewClassRepository(db),
		repository.NewSubjectRepository(db),
		repository.NewStudentRepository(db),
		fx.notifier,
		&stubUploader{},
		newTestValidator(),
		zerolog.Nop(),
	)

	return fx
}

func (fx *assignmentFixture) addParentWithChild(t *testing.T, email, username string, classID uint, admissionNo string) models.User {
	t.Helper()

	user := models.User{Email: email, Username: username, PasswordHash: "x", FullName: "Parent " + username, Role: models.RoleParent, Active: true}
	require.NoError(t, fx.db.Create(&user).Error)
	parent := models.Parent{UserID: user.ID}
	require.NoError(t, fx.db.Create(&parent).Error)

	student := models.Student{SchoolID: fx.school.ID, ClassID: &classID, ParentID: parent.ID, FullName: "Child of " + username, AdmissionNo: admissionNo}
	require.NoError(t, fx.db.Create(&student).Error)

	return user
}

func (fx *assignmentFixture) teacherScope() tenant.Scope {
	ownerID := fx.teacher.ID
	return tenant.Scope{SchoolIDs: []uint{fx.school.ID}, OwnerTeacherID: &ownerID}
}

func assignmentPayload(fx *assignmentFixture, due time.Time) dto.AssignmentCreateRequest {
	return dto.AssignmentCreateRequest{
		Title:       "Fractions worksheet",
		Description: "Complete exercises 1 through 12 on page 48.",
		ClassID:     fx.class.ID,
		SubjectID:   fx.subject.ID,
		DueDate:     due.UTC().Format(time.RFC3339),
	}
}

func TestAssignmentCreateFansOutOncePerParent(t *testing.T) {
	fx := newAssignmentFixture(t)

	// A sibling shares parentOne; the fan-out must still reach each parent once.
	sibling := models.Student{SchoolID: fx.school.ID, ClassID: &fx.class.ID, ParentID: 1, FullName: "Sibling", AdmissionNo: "ADM-003"}
	var parentOne models.Parent
	require.NoError(t, fx.db.Where("user_id = ?", fx.parentOne.ID).First(&parentOne).Error)
	sibling.ParentID = parentOne.ID
	require.NoError(t, fx.db.Create(&sibling).Error)

	// A student in another class must not trigger a notification.
	otherClass := models.Class{SchoolID: fx.school.ID, Name: "JSS 2B", GradeLevel: 8, Capacity: 40}
	require.NoError(t, fx.db.Create(&otherClass).Error)
	fx.addParentWithChild(t, "p3@example.com", "parent-three", otherClass.ID, "ADM-004")

	response, err := fx.service.Create(context.Background(), fx.teacherScope(), assignmentPayload(fx, time.Now().Add(48*time.Hour)), nil)
	require.NoError(t, err)
	require.Equal(t, fx.teacher.ID, response.TeacherID)
	require.Equal(t, fx.school.ID, response.SchoolID)

	calls := fx.notifier.Calls()
	require.Len(t, calls, 1)
	require.ElementsMatch(t, []uint{fx.parentOne.ID, fx.parentTwo.ID}, calls[0].UserIDs)
	require.Equal(t, models.NotificationTypeAssignment, calls[0].Input.Type)
	require.Contains(t, calls[0].Input.Title, "Fractions worksheet")
}

func TestAssignmentCreateRejectsPastDueDate(t *testing.T) {
	fx := newAssignmentFixture(t)

	_, err := fx.service.Create(context.Background(), fx.teacherScope(), assignmentPayload(fx, time.Now().Add(-time.Hour)), nil)
	require.ErrorIs(t, err, ErrDueDateInPast)
	require.Empty(t, fx.notifier.Calls())
}

func TestAssignmentCreateRequiresTeacherScope(t *testing.T) {
	fx := newAssignmentFixture(t)

	staff := tenant.Scope{SchoolIDs: []uint{fx.school.ID}}
	_, err := fx.service.Create(context.Background(), staff, assignmentPayload(fx, time.Now().Add(time.Hour)), nil)
	require.ErrorIs(t, err, ErrNotAssignmentOwner)
}

func TestAssignmentCreateEnforcesTenancy(t *testing.T) {
	fx := newAssignmentFixture(t)

	other := models.School{Name: "Riverside College", IsVerified: true}
	require.NoError(t, fx.db.Create(&other).Error)
	foreignClass := models.Class{SchoolID: other.ID, Name: "SS 1A", GradeLevel: 10, Capacity: 40}
	require.NoError(t, fx.db.Create(&foreignClass).Error)
	foreignSubject := models.Subject{SchoolID: other.ID, Name: "Biology", Code: "BIO"}
	require.NoError(t, fx.db.Create(&foreignSubject).Error)

	payload := assignmentPayload(fx, time.Now().Add(time.Hour))
	payload.ClassID = foreignClass.ID
	_, err := fx.service.Create(context.Background(), fx.teacherScope(), payload, nil)
	require.ErrorIs(t, err, ErrClassNotFound)

	payload = assignmentPayload(fx, time.Now().Add(time.Hour))
	payload.SubjectID = foreignSubject.ID
	_, err = fx.service.Create(context.Background(), fx.teacherScope(), payload, nil)
	require.ErrorIs(t, err, ErrSubjectNotFound)
}

func TestAssignmentUpdateByNonOwner(t *testing.T) {
	fx := newAssignmentFixture(t)

	assignment := models.Assignment{
		SchoolID:    fx.school.ID,
		TeacherID:   fx.teacher.ID,
		ClassID:     fx.class.ID,
		SubjectID:   fx.subject.ID,
		Title:       "Essay draft",
		Description: "Write a one page essay on local government.",
		DueDate:     time.Now().Add(72 * time.Hour),
	}
	require.NoError(t, fx.db.Create(&assignment).Error)

	otherTeacherID := fx.teacher.ID + 100
	intruder := tenant.Scope{SchoolIDs: []uint{fx.school.ID}, OwnerTeacherID: &otherTeacherID}

	title := "Hijacked"
	_, err := fx.service.Update(context.Background(), intruder, assignment.ID, dto.AssignmentUpdateRequest{Title: &title}, nil)
	require.ErrorIs(t, err, ErrNotAssignmentOwner)

	err = fx.service.Delete(context.Background(), intruder, assignment.ID)
	require.ErrorIs(t, err, ErrNotAssignmentOwner)
}

func TestAssignmentDeleteRefusesWithSubmissions(t *testing.T) {
	fx := newAssignmentFixture(t)

	assignment := models.Assignment{
		SchoolID:    fx.school.ID,
		TeacherID:   fx.teacher.ID,
		ClassID:     fx.class.ID,
		SubjectID:   fx.subject.ID,
		Title:       "Reading log",
		Description: "Summarise chapters three and four of the reader.",
		DueDate:     time.Now().Add(72 * time.Hour),
	}
	require.NoError(t, fx.db.Create(&assignment).Error)

	var student models.Student
	require.NoError(t, fx.db.Where("admission_no = ?", "ADM-001").First(&student).Error)
	submission := models.Submission{AssignmentID: assignment.ID, StudentID: student.ID, SchoolID: fx.school.ID, Status: models.SubmissionStatusSubmitted}
	require.NoError(t, fx.db.Create(&submission).Error)

	err := fx.service.Delete(context.Background(), fx.teacherScope(), assignment.ID)
	require.ErrorIs(t, err, ErrHasDependents)

	require.NoError(t, fx.db.Delete(&submission).Error)
	require.NoError(t, fx.service.Delete(context.Background(), fx.teacherScope(), assignment.ID))

	_, err = fx.service.Get(context.Background(), fx.teacherScope(), assignment.ID)
	require.ErrorIs(t, err, ErrAssignmentNotFound)
}

func TestAssignmentListScopedToOwner(t *testing.T) {
	fx := newAssignmentFixture(t)

	mine := models.Assignment{
		SchoolID: fx.school.ID, TeacherID: fx.teacher.ID, ClassID: fx.class.ID, SubjectID: fx.subject.ID,
		Title: "Mine", Description: "Owned by the fixture teacher for listing.", DueDate: time.Now().Add(time.Hour),
	}
	theirs := models.Assignment{
		SchoolID: fx.school.ID, TeacherID: fx.teacher.ID + 1, ClassID: fx.class.ID, SubjectID: fx.subject.ID,
		Title: "Theirs", Description: "Owned by a colleague in the same school.", DueDate: time.Now().Add(2 * time.Hour),
	}
	require.NoError(t, fx.db.Create(&mine).Error)
	require.NoError(t, fx.db.Create(&theirs).Error)

	listed, err := fx.service.List(context.Background(), fx.teacherScope(), dto.AssignmentListRequest{})
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	require.Equal(t, "Mine", listed.Items[0].Title)

	// School staff without an ownership restriction see both.
	staff := tenant.Scope{SchoolIDs: []uint{fx.school.ID}}
	listed, err = fx.service.List(context.Background(), staff, dto.AssignmentListRequest{})
	require.NoError(t, err)
	require.Len(t, listed.Items, 2)
}
