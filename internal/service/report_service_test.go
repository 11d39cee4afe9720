package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

func TestExportResults(t *testing.T) {
	db := openServiceDB(t)

	require.NoError(t, db.Create(&models.School{Name: "Hilltop Academy", IsVerified: true}).Error)
	term := models.Term{SchoolID: 1, Name: "First Term", Year: "2026/2027", StartDate: time.Now(), EndDate: time.Now().AddDate(0, 3, 0)}
	require.NoError(t, db.Create(&term).Error)

	parent := models.Parent{UserID: 1}
	require.NoError(t, db.Create(&parent).Error)
	student := models.Student{SchoolID: 1, ParentID: parent.ID, FullName: "Ada Lovelace", AdmissionNo: "ADM-10"}
	require.NoError(t, db.Create(&student).Error)
	subject := models.Subject{SchoolID: 1, Name: "Mathematics", Code: "MTH"}
	require.NoError(t, db.Create(&subject).Error)

	require.NoError(t, db.Create(&models.Result{
		SchoolID: 1, StudentID: student.ID, SubjectID: subject.ID, TermID: term.ID,
		Score: 72, MaxScore: 80, Remark: "Good effort",
	}).Error)

	// A result in another tenant must never leak into the export.
	require.NoError(t, db.Create(&models.School{Name: "Riverside College", IsVerified: true}).Error)
	foreignStudent := models.Student{SchoolID: 2, ParentID: parent.ID, FullName: "Stranger", AdmissionNo: "ADM-11"}
	require.NoError(t, db.Create(&foreignStudent).Error)
	require.NoError(t, db.Create(&models.Result{
		SchoolID: 2, StudentID: foreignStudent.ID, SubjectID: subject.ID, TermID: term.ID,
		Score: 50, MaxScore: 100,
	}).Error)

	svc := NewReportService(
		repository.NewResultRepository(db),
		repository.NewStudentRepository(db),
		repository.NewSubjectRepository(db),
		zerolog.Nop(),
	)

	data, filename, err := svc.ExportResults(context.Background(), tenant.Scope{SchoolIDs: []uint{1}}, term.ID)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	require.Equal(t, "results-term-1.xlsx", filename)

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = workbook.Close() }()

	rows, err := workbook.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 2) // header plus the single in-scope result

	require.Equal(t, []string{"Student", "Admission No", "Subject", "Score", "Max Score", "Percent", "Remark"}, rows[0])
	require.Equal(t, "Ada Lovelace", rows[1][0])
	require.Equal(t, "ADM-10", rows[1][1])
	require.Equal(t, "Mathematics", rows[1][2])
	require.Equal(t, "90.0%", rows[1][5])
}

func TestExportResultsEmptyTerm(t *testing.T) {
	db := openServiceDB(t)

	svc := NewReportService(
		repository.NewResultRepository(db),
		repository.NewStudentRepository(db),
		repository.NewSubjectRepository(db),
		zerolog.Nop(),
	)

	data, _, err := svc.ExportResults(context.Background(), tenant.Scope{SchoolIDs: []uint{1}}, 42)
	require.NoError(t, err)

	workbook, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = workbook.Close() }()

	rows, err := workbook.GetRows("Results")
	require.NoError(t, err)
	require.Len(t, rows, 1) // header only
}
