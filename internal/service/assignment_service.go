package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/tenant"
)

var (
	ErrAssignmentNotFound  = errors.New("assignment not found")
	ErrNotAssignmentOwner  = errors.New("assignment belongs to another teacher")
	ErrDueDateInPast       = errors.New("due date must be in the future")
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// AssignmentService exposes assignment domain use cases.
type AssignmentService interface {
	List(ctx context.Context, scope tenant.Scope, payload dto.AssignmentListRequest) (dto.ListResponse[dto.AssignmentResponse], error)
	Get(ctx context.Context, scope tenant.Scope, id uint) (dto.AssignmentResponse, error)
	Create(ctx context.Context, scope tenant.Scope, payload dto.AssignmentCreateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error)
	Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.AssignmentUpdateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error)
	Delete(ctx context.Context, scope tenant.Scope, id uint) error
}

type assignmentService struct {
	assignments repository.AssignmentRepository
	classes     repository.ClassRepository
	subjects    repository.SubjectRepository
	students    repository.StudentRepository
	notifier    Notifier
	uploader    FileUploader
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAssignmentService builds a new assignment service.
func NewAssignmentService(
	assignments repository.AssignmentRepository,
	classes repository.ClassRepository,
	subjects repository.SubjectRepository,
	students repository.StudentRepository,
	notifier Notifier,
	uploader FileUploader,
	validate *validator.Validate,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		assignments: assignments,
		classes:     classes,
		subjects:    subjects,
		students:    students,
		notifier:    notifier,
		uploader:    uploader,
		validator:   validate,
		logger:      logger.With().Str("component", "assignment_service").Logger(),
		now:         time.Now,
	}
}

func (s *assignmentService) List(ctx context.Context, scope tenant.Scope, payload dto.AssignmentListRequest) (dto.ListResponse[dto.AssignmentResponse], error) {
	page := payload.Page
	if page < 1 {
		page = 1
	}
	limit := payload.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	assignments, total, err := s.assignments.List(ctx, repository.AssignmentFilter{
		Scope:     scope,
		ClassID:   payload.ClassID,
		SubjectID: payload.SubjectID,
		Search:    payload.Search,
		Page:      page,
		PageSize:  limit,
	})
	if err != nil {
		return dto.ListResponse[dto.AssignmentResponse]{}, err
	}

	return dto.NewListResponse(dto.NewAssignmentResponseSlice(assignments), page, limit, total), nil
}

func (s *assignmentService) Get(ctx context.Context, scope tenant.Scope, id uint) (dto.AssignmentResponse, error) {
	assignment, err := s.visibleAssignment(ctx, scope, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	return dto.NewAssignmentResponse(assignment), nil
}

// Create issues a new assignment to a class. One notification fans out to
// each parent of an enrolled student.
func (s *assignmentService) Create(ctx context.Context, scope tenant.Scope, payload dto.AssignmentCreateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}
	if scope.OwnerTeacherID == nil {
		return dto.AssignmentResponse{}, ErrNotAssignmentOwner
	}

	class, err := s.classes.GetByID(ctx, payload.ClassID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrClassNotFound
		}
		return dto.AssignmentResponse{}, err
	}
	if !scope.AllowsSchool(class.SchoolID) {
		return dto.AssignmentResponse{}, ErrClassNotFound
	}

	subject, err := s.subjects.GetByID(ctx, payload.SubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.AssignmentResponse{}, ErrSubjectNotFound
		}
		return dto.AssignmentResponse{}, err
	}
	if subject.SchoolID != class.SchoolID {
		return dto.AssignmentResponse{}, ErrSubjectNotFound
	}

	dueDate, err := time.Parse(time.RFC3339, payload.DueDate)
	if err != nil {
		return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", err)
	}
	if !dueDate.After(s.now()) {
		return dto.AssignmentResponse{}, ErrDueDateInPast
	}

	assignment := models.Assignment{
		SchoolID:    class.SchoolID,
		TeacherID:   *scope.OwnerTeacherID,
		ClassID:     payload.ClassID,
		SubjectID:   payload.SubjectID,
		Title:       payload.Title,
		Description: payload.Description,
		DueDate:     dueDate,
	}

	if file != nil {
		url, err := s.uploadFile(ctx, file)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.FileURL = url
	}

	if err := s.assignments.Create(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.fanOutToParents(ctx, assignment, subject.Name)

	s.logger.Info().Uint("assignment_id", assignment.ID).Uint("class_id", assignment.ClassID).Msg("assignment created")

	return dto.NewAssignmentResponse(assignment), nil
}

func (s *assignmentService) Update(ctx context.Context, scope tenant.Scope, id uint, payload dto.AssignmentUpdateRequest, file *multipart.FileHeader) (dto.AssignmentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.AssignmentResponse{}, err
	}

	assignment, err := s.visibleAssignment(ctx, scope, id)
	if err != nil {
		return dto.AssignmentResponse{}, err
	}
	if !scope.OwnedBy(assignment.TeacherID) {
		return dto.AssignmentResponse{}, ErrNotAssignmentOwner
	}

	if payload.Title != nil {
		assignment.Title = *payload.Title
	}
	if payload.Description != nil {
		assignment.Description = *payload.Description
	}
	if payload.DueDate != nil {
		dueDate, err := time.Parse(time.RFC3339, *payload.DueDate)
		if err != nil {
			return dto.AssignmentResponse{}, fmt.Errorf("invalid due date: %w", err)
		}
		if !dueDate.After(s.now()) {
			return dto.AssignmentResponse{}, ErrDueDateInPast
		}
		assignment.DueDate = dueDate
	}

	if file != nil {
		url, err := s.uploadFile(ctx, file)
		if err != nil {
			return dto.AssignmentResponse{}, err
		}
		assignment.FileURL = url
	}

	if err := s.assignments.Update(ctx, &assignment); err != nil {
		return dto.AssignmentResponse{}, err
	}

	s.logger.Info().Uint("assignment_id", assignment.ID).Msg("assignment updated")

	return dto.NewAssignmentResponse(assignment), nil
}

// Delete refuses when submissions already exist against the assignment.
func (s *assignmentService) Delete(ctx context.Context, scope tenant.Scope, id uint) error {
	assignment, err := s.visibleAssignment(ctx, scope, id)
	if err != nil {
		return err
	}
	if !scope.OwnedBy(assignment.TeacherID) {
		return ErrNotAssignmentOwner
	}

	submissions, err := s.assignments.CountSubmissions(ctx, id)
	if err != nil {
		return err
	}
	if submissions > 0 {
		return ErrHasDependents
	}

	if err := s.assignments.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Uint("assignment_id", id).Msg("assignment deleted")
	return nil
}

func (s *assignmentService) fanOutToParents(ctx context.Context, assignment models.Assignment, subjectName string) {
	if s.notifier == nil {
		return
	}

	parentIDs, err := s.students.ParentUserIDsByClass(ctx, assignment.ClassID)
	if err != nil {
		s.logger.Error().Err(err).Uint("assignment_id", assignment.ID).Msg("failed to resolve fan-out recipients")
		return
	}
	if len(parentIDs) == 0 {
		return
	}

	schoolID := assignment.SchoolID
	err = s.notifier.Notify(ctx, parentIDs, NotificationInput{
		Title:    "New assignment: " + assignment.Title,
		Content:  fmt.Sprintf("A new %s assignment is due %s.", subjectName, assignment.DueDate.Format("Jan 2, 2006 15:04")),
		Type:     models.NotificationTypeAssignment,
		Priority: models.NotificationPriorityNormal,
		SchoolID: &schoolID,
	})
	if err != nil {
		s.logger.Error().Err(err).Uint("assignment_id", assignment.ID).Msg("failed to fan out assignment notification")
	}
}

func (s *assignmentService) visibleAssignment(ctx context.Context, scope tenant.Scope, id uint) (models.Assignment, error) {
	assignment, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Assignment{}, ErrAssignmentNotFound
		}
		return models.Assignment{}, err
	}
	if !scope.AllowsSchool(assignment.SchoolID) || !scope.AllowsClass(assignment.ClassID) {
		return models.Assignment{}, ErrAssignmentNotFound
	}
	return assignment, nil
}

func (s *assignmentService) uploadFile(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if err := validateFileType(file); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	url, err := s.uploader.Upload(ctx, file.Filename, src)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return url, nil
}

func validateFileType(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return fmt.Errorf("failed to detect file type: %w", err)
	}

	allowed := []string{"application/pdf", "application/zip", "application/x-zip-compressed", "text/plain", "image/png", "image/jpeg"}
	for _, a := range allowed {
		if mime.Is(a) {
			return nil
		}
	}

	return fmt.Errorf("%w: %s", ErrUnsupportedFileType, mime.String())
}
