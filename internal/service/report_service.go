package service

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

// ReportService exports grade records as downloadable spreadsheets.
type ReportService interface {
	ExportResults(ctx context.Context, scope tenant.Scope, termID uint) ([]byte, string, error)
}

type reportService struct {
	results  repository.ResultRepository
	students repository.StudentRepository
	subjects repository.SubjectRepository
	logger   zerolog.Logger
}

// NewReportService builds the report exporter.
func NewReportService(
	results repository.ResultRepository,
	students repository.StudentRepository,
	subjects repository.SubjectRepository,
	logger zerolog.Logger,
) ReportService {
	return &reportService{
		results:  results,
		students: students,
		subjects: subjects,
		logger:   logger.With().Str("component", "report_service").Logger(),
	}
}

// ExportResults builds an xlsx workbook of every result in the term visible
// to the caller and returns its bytes plus a suggested filename.
func (s *reportService) ExportResults(ctx context.Context, scope tenant.Scope, termID uint) ([]byte, string, error) {
	results, err := s.results.ListForExport(ctx, scope, termID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const sheetName = "Results"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, "", err
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"Student", "Admission No", "Subject", "Score", "Max Score", "Percent", "Remark"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, header)
	}

	studentNames := make(map[uint]models.Student)
	subjectNames := make(map[uint]models.Subject)

	for i, result := range results {
		row := i + 2

		student, ok := studentNames[result.StudentID]
		if !ok {
			if student, err = s.students.GetByID(ctx, result.StudentID); err != nil {
				return nil, "", err
			}
			studentNames[result.StudentID] = student
		}

		subject, ok := subjectNames[result.SubjectID]
		if !ok {
			if subject, err = s.subjects.GetByID(ctx, result.SubjectID); err != nil {
				return nil, "", err
			}
			subjectNames[result.SubjectID] = subject
		}

		percent := 0.0
		if result.MaxScore > 0 {
			percent = result.Score / result.MaxScore * 100
		}

		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), student.FullName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), student.AdmissionNo)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), subject.Name)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), result.Score)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), result.MaxScore)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), fmt.Sprintf("%.1f%%", percent))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), result.Remark)
	}

	_ = f.SetColWidth(sheetName, "A", "C", 28)

	var buffer bytes.Buffer
	if err := f.Write(&buffer); err != nil {
		return nil, "", err
	}

	s.logger.Info().Int("rows", len(results)).Uint("term_id", termID).Msg("results exported")

	filename := fmt.Sprintf("results-term-%d.xlsx", termID)
	return buffer.Bytes(), filename, nil
}
