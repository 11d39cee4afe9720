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

func seedSchool(t *testing.T, db *gorm.DB) models.School {
	t.Helper()
	school := models.School{Name: "Hilltop Academy", IsVerified: true}
	require.NoError(t, db.Create(&school).Error)
	return school
}

func staffScope(schoolID uint) tenant.Scope {
	return tenant.Scope{SchoolIDs: []uint{schoolID}}
}

func TestSubjectDeleteWithDependents(t *testing.T) {
	db := openServiceDB(t)
	school := seedSchool(t, db)

	subject := models.Subject{SchoolID: school.ID, Name: "Mathematics", Code: "MTH"}
	require.NoError(t, db.Create(&subject).Error)
	class := models.Class{SchoolID: school.ID, Name: "JSS 1A", GradeLevel: 7, Capacity: 40}
	require.NoError(t, db.Create(&class).Error)
	lesson := models.Lesson{SchoolID: school.ID, SubjectID: subject.ID, ClassID: class.ID, TeacherID: 1, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}
	require.NoError(t, db.Create(&lesson).Error)

	svc := NewSubjectService(repository.NewSubjectRepository(db), newTestValidator(), zerolog.Nop())

	err := svc.Delete(context.Background(), staffScope(school.ID), subject.ID)
	require.ErrorIs(t, err, ErrHasDependents)

	require.NoError(t, db.Delete(&lesson).Error)
	require.NoError(t, svc.Delete(context.Background(), staffScope(school.ID), subject.ID))
}

func TestSubjectInvisibleAcrossTenants(t *testing.T) {
	db := openServiceDB(t)
	school := seedSchool(t, db)

	other := models.School{Name: "Riverside College", IsVerified: true}
	require.NoError(t, db.Create(&other).Error)
	foreign := models.Subject{SchoolID: other.ID, Name: "Biology", Code: "BIO"}
	require.NoError(t, db.Create(&foreign).Error)

	svc := NewSubjectService(repository.NewSubjectRepository(db), newTestValidator(), zerolog.Nop())

	_, err := svc.Get(context.Background(), staffScope(school.ID), foreign.ID)
	require.ErrorIs(t, err, ErrSubjectNotFound)

	listed, err := svc.List(context.Background(), staffScope(school.ID), "", 1, 20)
	require.NoError(t, err)
	require.Empty(t, listed.Items)
}

func TestLessonOverlapRejected(t *testing.T) {
	db := openServiceDB(t)
	school := seedSchool(t, db)

	class := models.Class{SchoolID: school.ID, Name: "JSS 1A", GradeLevel: 7, Capacity: 40}
	require.NoError(t, db.Create(&class).Error)
	subject := models.Subject{SchoolID: school.ID, Name: "Mathematics", Code: "MTH"}
	require.NoError(t, db.Create(&subject).Error)
	teacher := models.Teacher{UserID: 1, SchoolID: school.ID}
	require.NoError(t, db.Create(&teacher).Error)

	svc := NewClassService(
		repository.NewClassRepository(db),
		repository.NewStudentRepository(db),
		repository.NewSubjectRepository(db),
		repository.NewProfileRepository(db),
		newTestValidator(),
		zerolog.Nop(),
	)

	payload := dto.LessonCreateRequest{
		SubjectID: subject.ID, ClassID: class.ID, TeacherID: teacher.ID,
		DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00",
	}
	_, err := svc.CreateLesson(context.Background(), staffScope(school.ID), payload)
	require.NoError(t, err)

	overlapping := payload
	overlapping.StartTime = "09:30"
	overlapping.EndTime = "10:30"
	_, err = svc.CreateLesson(context.Background(), staffScope(school.ID), overlapping)
	require.ErrorIs(t, err, ErrLessonOverlap)

	// Back-to-back slots do not overlap.
	adjacent := payload
	adjacent.StartTime = "10:00"
	adjacent.EndTime = "11:00"
	_, err = svc.CreateLesson(context.Background(), staffScope(school.ID), adjacent)
	require.NoError(t, err)

	// Same time on a different day is fine too.
	otherDay := payload
	otherDay.DayOfWeek = 2
	_, err = svc.CreateLesson(context.Background(), staffScope(school.ID), otherDay)
	require.NoError(t, err)
}

func TestStudentCreateEnforcesClassCapacity(t *testing.T) {
	db := openServiceDB(t)
	school := seedSchool(t, db)

	class := models.Class{SchoolID: school.ID, Name: "JSS 1A", GradeLevel: 7, Capacity: 1}
	require.NoError(t, db.Create(&class).Error)
	parent := models.Parent{UserID: 1}
	require.NoError(t, db.Create(&parent).Error)

	svc := NewStudentService(
		repository.NewStudentRepository(db),
		repository.NewClassRepository(db),
		repository.NewProfileRepository(db),
		newTestValidator(),
		zerolog.Nop(),
	)

	payload := dto.StudentCreateRequest{
		SchoolID: school.ID, ClassID: &class.ID, ParentID: parent.ID,
		FullName: "Ada Obi", AdmissionNo: "ADM-20",
	}
	_, err := svc.Create(context.Background(), staffScope(school.ID), payload)
	require.NoError(t, err)

	second := payload
	second.FullName = "Bisi Obi"
	second.AdmissionNo = "ADM-21"
	_, err = svc.Create(context.Background(), staffScope(school.ID), second)
	require.ErrorIs(t, err, ErrClassFull)
}

func TestTermDeleteWithExams(t *testing.T) {
	db := openServiceDB(t)
	school := seedSchool(t, db)

	term := models.Term{SchoolID: school.ID, Name: "First Term", Year: "2026/2027", StartDate: time.Now(), EndDate: time.Now().AddDate(0, 3, 0)}
	require.NoError(t, db.Create(&term).Error)
	exam := models.Exam{SchoolID: school.ID, TermID: term.ID, Name: "Mid-term", StartDate: time.Now(), EndDate: time.Now().AddDate(0, 0, 5)}
	require.NoError(t, db.Create(&exam).Error)

	svc := NewCalendarService(
		repository.NewCalendarRepository(db),
		repository.NewClassRepository(db),
		newTestValidator(),
		zerolog.Nop(),
	)

	err := svc.DeleteTerm(context.Background(), staffScope(school.ID), term.ID)
	require.ErrorIs(t, err, ErrHasDependents)

	require.NoError(t, db.Delete(&exam).Error)
	require.NoError(t, svc.DeleteTerm(context.Background(), staffScope(school.ID), term.ID))
}

func TestExamLifecycle(t *testing.T) {
	db := openServiceDB(t)
	school := seedSchool(t, db)

	term := models.Term{SchoolID: school.ID, Name: "First Term", Year: "2026/2027", StartDate: time.Now(), EndDate: time.Now().AddDate(0, 3, 0)}
	require.NoError(t, db.Create(&term).Error)

	svc := NewExamService(
		repository.NewExamRepository(db),
		repository.NewCalendarRepository(db),
		repository.NewClassRepository(db),
		newTestValidator(),
		zerolog.Nop(),
	)

	payload := dto.ExamCreateRequest{
		SchoolID: school.ID, TermID: term.ID, Name: "Mid-term",
		StartDate: "2026-10-05", EndDate: "2026-10-09",
	}
	created, err := svc.Create(context.Background(), staffScope(school.ID), payload)
	require.NoError(t, err)

	backwards := payload
	backwards.StartDate = "2026-10-09"
	backwards.EndDate = "2026-10-05"
	_, err = svc.Create(context.Background(), staffScope(school.ID), backwards)
	require.ErrorIs(t, err, ErrInvalidDates)

	session := models.ExamSession{ExamID: created.ID, SchoolID: school.ID, ClassID: 1, SubjectID: 1, StartsAt: time.Now(), EndsAt: time.Now().Add(2 * time.Hour)}
	require.NoError(t, db.Create(&session).Error)

	err = svc.Delete(context.Background(), staffScope(school.ID), created.ID)
	require.ErrorIs(t, err, ErrHasDependents)

	require.NoError(t, db.Delete(&session).Error)
	require.NoError(t, svc.Delete(context.Background(), staffScope(school.ID), created.ID))
}

func TestLessonListScopedToTenantAndClass(t *testing.T) {
	db := openServiceDB(t)
	school := seedSchool(t, db)
	other := models.School{Name: "Riverside College", IsVerified: true}
	require.NoError(t, db.Create(&other).Error)

	classA := models.Class{SchoolID: school.ID, Name: "JSS 1A", GradeLevel: 7, Capacity: 40}
	require.NoError(t, db.Create(&classA).Error)
	classB := models.Class{SchoolID: school.ID, Name: "JSS 1B", GradeLevel: 7, Capacity: 40}
	require.NoError(t, db.Create(&classB).Error)
	foreignClass := models.Class{SchoolID: other.ID, Name: "SSS 2A", GradeLevel: 11, Capacity: 40}
	require.NoError(t, db.Create(&foreignClass).Error)

	require.NoError(t, db.Create(&models.Lesson{SchoolID: school.ID, SubjectID: 1, ClassID: classA.ID, TeacherID: 1, DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00"}).Error)
	require.NoError(t, db.Create(&models.Lesson{SchoolID: school.ID, SubjectID: 1, ClassID: classB.ID, TeacherID: 1, DayOfWeek: 1, StartTime: "09:00", EndTime: "10:00"}).Error)
	require.NoError(t, db.Create(&models.Lesson{SchoolID: other.ID, SubjectID: 2, ClassID: foreignClass.ID, TeacherID: 2, DayOfWeek: 1, StartTime: "08:00", EndTime: "09:00"}).Error)

	svc := NewClassService(
		repository.NewClassRepository(db),
		repository.NewStudentRepository(db),
		repository.NewSubjectRepository(db),
		repository.NewProfileRepository(db),
		newTestValidator(),
		zerolog.Nop(),
	)

	lessons, err := svc.ListLessons(context.Background(), staffScope(school.ID), 0)
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	for _, lesson := range lessons {
		require.NotEqual(t, foreignClass.ID, lesson.ClassID)
	}

	// A parent restricted to one class only sees that class's timetable.
	parentScope := tenant.Scope{SchoolIDs: []uint{school.ID}, ClassIDs: []uint{classA.ID}, IncludeSchoolWide: true}
	lessons, err = svc.ListLessons(context.Background(), parentScope, 0)
	require.NoError(t, err)
	require.Len(t, lessons, 1)
	require.Equal(t, classA.ID, lessons[0].ClassID)
}
