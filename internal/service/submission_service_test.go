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

type submissionFixture struct {
	db       *gorm.DB
	service  SubmissionService
	notifier *recordingNotifier

	school     models.School
	teacher    models.Teacher
	class      models.Class
	subject    models.Subject
	parentUser models.User
	parent     models.Parent
	student    models.Student
	assignment models.Assignment
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()

	db := openServiceDB(t)
	fx := &submissionFixture{db: db, notifier: &recordingNotifier{}}

	fx.school = models.School{Name: "Hilltop Academy", IsVerified: true}
	require.NoError(t, db.Create(&fx.school).Error)

	fx.teacher = models.Teacher{UserID: 1, SchoolID: fx.school.ID}
	require.NoError(t, db.Create(&fx.teacher).Error)

	fx.class = models.Class{SchoolID: fx.school.ID, Name: "JSS 3A", GradeLevel: 9, Capacity: 40}
	require.NoError(t, db.Create(&fx.class).Error)
	fx.subject = models.Subject{SchoolID: fx.school.ID, Name: "English", Code: "ENG"}
	require.NoError(t, db.Create(&fx.subject).Error)

	fx.parentUser = models.User{Email: "p@example.com", Username: "parent", PasswordHash: "x", FullName: "Ngozi Eze", Role: models.RoleParent, Active: true}
	require.NoError(t, db.Create(&fx.parentUser).Error)
	fx.parent = models.Parent{UserID: fx.parentUser.ID}
	require.NoError(t, db.Create(&fx.parent).Error)

	fx.student = models.Student{SchoolID: fx.school.ID, ClassID: &fx.class.ID, ParentID: fx.parent.ID, FullName: "Chidi Eze", AdmissionNo: "ADM-100"}
	require.NoError(t, db.Create(&fx.student).Error)

	fx.assignment = models.Assignment{
		SchoolID:    fx.school.ID,
		TeacherID:   fx.teacher.ID,
		ClassID:     fx.class.ID,
		SubjectID:   fx.subject.ID,
		Title:       "Comprehension passage",
		Description: "Answer the questions under the comprehension passage.",
		DueDate:     time.Now().Add(72 * time.Hour),
	}
	require.NoError(t, db.Create(&fx.assignment).Error)

	fx.service = NewSubmissionService(
		repository.NewSubmissionRepository(db),
		repository.NewAssignmentRepository(db),
		repository.NewStudentRepository(db),
		fx.notifier,
		&stubUploader{},
		newTestValidator(),
		zerolog.Nop(),
	)

	return fx
}

func (fx *submissionFixture) parentScope() tenant.Scope {
	parentID := fx.parent.ID
	return tenant.Scope{
		SchoolIDs:         []uint{fx.school.ID},
		ClassIDs:          []uint{fx.class.ID},
		StudentIDs:        []uint{fx.student.ID},
		OwnerParentID:     &parentID,
		IncludeSchoolWide: true,
	}
}

func (fx *submissionFixture) teacherScope() tenant.Scope {
	ownerID := fx.teacher.ID
	return tenant.Scope{SchoolIDs: []uint{fx.school.ID}, OwnerTeacherID: &ownerID}
}

func TestSubmissionCreate(t *testing.T) {
	fx := newSubmissionFixture(t)

	payload := dto.SubmissionCreateRequest{AssignmentID: fx.assignment.ID, StudentID: fx.student.ID, Note: "done at home"}
	response, err := fx.service.Create(context.Background(), fx.parentScope(), payload, nil)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusSubmitted, response.Status)
	require.Equal(t, fx.student.ID, response.StudentID)

	// Handing the same assignment in twice for one student is a conflict.
	_, err = fx.service.Create(context.Background(), fx.parentScope(), payload, nil)
	require.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSubmissionCreatePastDue(t *testing.T) {
	fx := newSubmissionFixture(t)

	require.NoError(t, fx.db.Model(&models.Assignment{}).Where("id = ?", fx.assignment.ID).Update("due_date", time.Now().Add(-time.Hour)).Error)

	payload := dto.SubmissionCreateRequest{AssignmentID: fx.assignment.ID, StudentID: fx.student.ID}
	_, err := fx.service.Create(context.Background(), fx.parentScope(), payload, nil)
	require.ErrorIs(t, err, ErrAssignmentPastDue)
}

func TestSubmissionCreateRejectsForeignStudent(t *testing.T) {
	fx := newSubmissionFixture(t)

	// Another parent's child; outside the caller's StudentIDs.
	other := models.Parent{UserID: fx.parentUser.ID + 50}
	require.NoError(t, fx.db.Create(&other).Error)
	stranger := models.Student{SchoolID: fx.school.ID, ClassID: &fx.class.ID, ParentID: other.ID, FullName: "Stranger", AdmissionNo: "ADM-101"}
	require.NoError(t, fx.db.Create(&stranger).Error)

	payload := dto.SubmissionCreateRequest{AssignmentID: fx.assignment.ID, StudentID: stranger.ID}
	_, err := fx.service.Create(context.Background(), fx.parentScope(), payload, nil)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestSubmissionCreateRejectsWrongClass(t *testing.T) {
	fx := newSubmissionFixture(t)

	otherClass := models.Class{SchoolID: fx.school.ID, Name: "JSS 3B", GradeLevel: 9, Capacity: 40}
	require.NoError(t, fx.db.Create(&otherClass).Error)
	require.NoError(t, fx.db.Model(&models.Student{}).Where("id = ?", fx.student.ID).Update("class_id", otherClass.ID).Error)

	scope := fx.parentScope()
	scope.ClassIDs = nil // no class restriction, the enrollment check must still hold

	payload := dto.SubmissionCreateRequest{AssignmentID: fx.assignment.ID, StudentID: fx.student.ID}
	_, err := fx.service.Create(context.Background(), scope, payload, nil)
	require.ErrorIs(t, err, ErrStudentNotFound)
}

func TestSubmissionGradeNotifiesParent(t *testing.T) {
	fx := newSubmissionFixture(t)

	submission := models.Submission{AssignmentID: fx.assignment.ID, StudentID: fx.student.ID, SchoolID: fx.school.ID, Status: models.SubmissionStatusSubmitted}
	require.NoError(t, fx.db.Create(&submission).Error)

	response, err := fx.service.Grade(context.Background(), fx.teacherScope(), submission.ID, dto.SubmissionGradeRequest{Grade: 87.5, Feedback: "Well structured."})
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusGraded, response.Status)
	require.NotNil(t, response.Grade)
	require.InDelta(t, 87.5, *response.Grade, 0.001)

	calls := fx.notifier.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, []uint{fx.parentUser.ID}, calls[0].UserIDs)
	require.Equal(t, models.NotificationTypeGrade, calls[0].Input.Type)
}

func TestSubmissionGradeByNonOwner(t *testing.T) {
	fx := newSubmissionFixture(t)

	submission := models.Submission{AssignmentID: fx.assignment.ID, StudentID: fx.student.ID, SchoolID: fx.school.ID, Status: models.SubmissionStatusSubmitted}
	require.NoError(t, fx.db.Create(&submission).Error)

	otherTeacherID := fx.teacher.ID + 7
	intruder := tenant.Scope{SchoolIDs: []uint{fx.school.ID}, OwnerTeacherID: &otherTeacherID}

	_, err := fx.service.Grade(context.Background(), intruder, submission.ID, dto.SubmissionGradeRequest{Grade: 50})
	require.ErrorIs(t, err, ErrNotAssignmentOwner)
	require.Empty(t, fx.notifier.Calls())
}

func TestSubmissionListScopedToChildren(t *testing.T) {
	fx := newSubmissionFixture(t)

	mine := models.Submission{AssignmentID: fx.assignment.ID, StudentID: fx.student.ID, SchoolID: fx.school.ID, Status: models.SubmissionStatusSubmitted}
	require.NoError(t, fx.db.Create(&mine).Error)

	other := models.Parent{UserID: fx.parentUser.ID + 50}
	require.NoError(t, fx.db.Create(&other).Error)
	stranger := models.Student{SchoolID: fx.school.ID, ClassID: &fx.class.ID, ParentID: other.ID, FullName: "Stranger", AdmissionNo: "ADM-102"}
	require.NoError(t, fx.db.Create(&stranger).Error)
	theirs := models.Submission{AssignmentID: fx.assignment.ID, StudentID: stranger.ID, SchoolID: fx.school.ID, Status: models.SubmissionStatusSubmitted}
	require.NoError(t, fx.db.Create(&theirs).Error)

	listed, err := fx.service.List(context.Background(), fx.parentScope(), 0, 0, 1, 20)
	require.NoError(t, err)
	require.Len(t, listed.Items, 1)
	require.Equal(t, fx.student.ID, listed.Items[0].StudentID)
}
