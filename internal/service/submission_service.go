package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrAssignmentPastDue  = errors.New("assignment is past due")
	ErrAlreadySubmitted   = errors.New("assignment already submitted for this student")
)

// SubmissionService orchestrates hand-in and grading workflows.
type SubmissionService interface {
	List(ctx context.Context, scope tenant.Scope, assignmentID, studentID uint, page, limit int) (dto.ListResponse[dto.SubmissionResponse], error)
	Create(ctx context.Context, scope tenant.Scope, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error)
	Grade(ctx context.Context, scope tenant.Scope, id uint, payload dto.SubmissionGradeRequest) (dto.SubmissionResponse, error)
}

type submissionService struct {
	submissions repository.SubmissionRepository
	assignments repository.AssignmentRepository
	students    repository.StudentRepository
	notifier    Notifier
	uploader    FileUploader
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	assignments repository.AssignmentRepository,
	students repository.StudentRepository,
	notifier Notifier,
	uploader FileUploader,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: submissions,
		assignments: assignments,
		students:    students,
		notifier:    notifier,
		uploader:    uploader,
		validator:   validate,
		logger:      logger.With().Str("component", "submission_service").Logger(),
		now:         time.Now,
	}
}

func (s *submissionService) List(ctx context.Context, scope tenant.Scope, assignmentID, studentID uint, page, limit int) (dto.ListResponse[dto.SubmissionResponse], error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	submissions, total, err := s.submissions.List(ctx, repository.SubmissionFilter{
		Scope:        scope,
		AssignmentID: assignmentID,
		StudentID:    studentID,
		Page:         page,
		PageSize:     limit,
	})
	if err != nil {
		return dto.ListResponse[dto.SubmissionResponse]{}, err
	}

	return dto.NewListResponse(dto.NewSubmissionResponseSlice(submissions), page, limit, total), nil
}

// Create hands in an assignment for a student. Submissions past the deadline
// are rejected outright.
func (s *submissionService) Create(ctx context.Context, scope tenant.Scope, payload dto.SubmissionCreateRequest, file *multipart.FileHeader) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	assignment, err := s.assignments.GetByID(ctx, payload.AssignmentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrAssignmentNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	if !scope.AllowsSchool(assignment.SchoolID) || !scope.AllowsClass(assignment.ClassID) {
		return dto.SubmissionResponse{}, ErrAssignmentNotFound
	}

	if assignment.IsPastDue(s.now()) {
		return dto.SubmissionResponse{}, ErrAssignmentPastDue
	}

	student, err := s.students.GetByID(ctx, payload.StudentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrStudentNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	if !scope.AllowsStudent(student.ID) {
		return dto.SubmissionResponse{}, ErrStudentNotFound
	}
	if student.ClassID == nil || *student.ClassID != assignment.ClassID {
		return dto.SubmissionResponse{}, ErrStudentNotFound
	}

	if _, err := s.submissions.GetByAssignmentAndStudent(ctx, payload.AssignmentID, payload.StudentID); err == nil {
		return dto.SubmissionResponse{}, ErrAlreadySubmitted
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.SubmissionResponse{}, err
	}

	submission := models.Submission{
		AssignmentID: payload.AssignmentID,
		StudentID:    payload.StudentID,
		SchoolID:     assignment.SchoolID,
		Note:         payload.Note,
		Status:       models.SubmissionStatusSubmitted,
	}

	if file != nil {
		if err := validateFileType(file); err != nil {
			return dto.SubmissionResponse{}, err
		}

		reader, err := file.Open()
		if err != nil {
			return dto.SubmissionResponse{}, fmt.Errorf("failed to open file: %w", err)
		}
		defer reader.Close()

		url, err := s.uploader.Upload(ctx, file.Filename, reader)
		if err != nil {
			return dto.SubmissionResponse{}, fmt.Errorf("failed to upload file: %w", err)
		}
		submission.FileURL = url
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.logger.Info().Uint("submission_id", submission.ID).Uint("assignment_id", assignment.ID).Msg("submission created")

	return dto.NewSubmissionResponse(submission), nil
}

// Grade records a score and feedback. Only the assignment's owning teacher
// may grade; the student's parent is notified.
func (s *submissionService) Grade(ctx context.Context, scope tenant.Scope, id uint, payload dto.SubmissionGradeRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}
	if !scope.AllowsSchool(submission.SchoolID) {
		return dto.SubmissionResponse{}, ErrSubmissionNotFound
	}

	assignment, err := s.assignments.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !scope.OwnedBy(assignment.TeacherID) {
		return dto.SubmissionResponse{}, ErrNotAssignmentOwner
	}

	grade := payload.Grade
	submission.Grade = &grade
	submission.Feedback = payload.Feedback
	submission.Status = models.SubmissionStatusGraded

	if err := s.submissions.Update(ctx, &submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	s.notifyGrade(ctx, assignment, submission)

	s.logger.Info().Uint("submission_id", submission.ID).Float64("grade", grade).Msg("submission graded")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) notifyGrade(ctx context.Context, assignment models.Assignment, submission models.Submission) {
	if s.notifier == nil {
		return
	}

	parentIDs, err := s.students.ParentUserIDsByStudent(ctx, submission.StudentID)
	if err != nil || len(parentIDs) == 0 {
		if err != nil {
			s.logger.Warn().Err(err).Uint("student_id", submission.StudentID).Msg("failed to resolve grade recipient")
		}
		return
	}

	schoolID := submission.SchoolID
	err = s.notifier.Notify(ctx, parentIDs, NotificationInput{
		Title:    "Assignment graded: " + assignment.Title,
		Content:  fmt.Sprintf("A grade of %.1f has been recorded.", *submission.Grade),
		Type:     models.NotificationTypeGrade,
		Priority: models.NotificationPriorityNormal,
		SchoolID: &schoolID,
	})
	if err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submission.ID).Msg("failed to notify grade")
	}
}
