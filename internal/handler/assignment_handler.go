package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/noah-isme/edutrack-api/internal/tenant"
	"github.com/noah-isme/edutrack-api/internal/utils"
)

// AssignmentHandler wires assignment HTTP routes.
type AssignmentHandler struct {
	service  service.AssignmentService
	resolver *tenant.Resolver
	logger   zerolog.Logger
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(service service.AssignmentService, resolver *tenant.Resolver, logger zerolog.Logger) *AssignmentHandler {
	return &AssignmentHandler{
		service:  service,
		resolver: resolver,
		logger:   logger.With().Str("component", "assignment_handler").Logger(),
	}
}

// Register attaches assignment endpoints to the router group. Only teachers
// may create or modify assignments; ownership is enforced in the service.
func (h *AssignmentHandler) Register(router fiber.Router, teacherOnly fiber.Handler) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Post("", teacherOnly, h.create)
	router.Patch("/:id", teacherOnly, h.update)
	router.Delete("/:id", teacherOnly, h.delete)
}

func (h *AssignmentHandler) list(c *fiber.Ctx) error {
	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	payload := dto.AssignmentListRequest{}
	if err := c.QueryParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	assignments, err := h.service.List(c.UserContext(), scope, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignments retrieved", assignments)
}

func (h *AssignmentHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	assignment, err := h.service.Get(c.UserContext(), scope, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment retrieved", assignment)
}

func (h *AssignmentHandler) create(c *fiber.Ctx) error {
	payload := dto.AssignmentCreateRequest{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		DueDate:     c.FormValue("due_date"),
	}
	payload.ClassID = formValueUint(c, "class_id")
	payload.SubjectID = formValueUint(c, "subject_id")

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	assignment, err := h.service.Create(c.UserContext(), scope, payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "assignment created", assignment)
}

func (h *AssignmentHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.AssignmentUpdateRequest{}
	if title := c.FormValue("title"); title != "" {
		payload.Title = &title
	}
	if description := c.FormValue("description"); description != "" {
		payload.Description = &description
	}
	if due := c.FormValue("due_date"); due != "" {
		payload.DueDate = &due
	}

	file, err := c.FormFile("file")
	if err != nil {
		file = nil
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	assignment, err := h.service.Update(c.UserContext(), scope, id, payload, file)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment updated", assignment)
}

func (h *AssignmentHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	if err := h.service.Delete(c.UserContext(), scope, id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "assignment deleted", fiber.Map{"id": id})
}

func (h *AssignmentHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.SendValidationError(c, validationErrors)
	case errors.Is(err, service.ErrAssignmentNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "assignment not found")
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusBadRequest, "class not found")
	case errors.Is(err, service.ErrSubjectNotFound):
		return utils.SendError(c, fiber.StatusBadRequest, "subject not found")
	case errors.Is(err, service.ErrDueDateInPast):
		return utils.SendError(c, fiber.StatusBadRequest, "due date must be in the future")
	case errors.Is(err, service.ErrNotAssignmentOwner):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	case errors.Is(err, service.ErrUnsupportedFileType):
		return utils.SendError(c, fiber.StatusBadRequest, "unsupported file type")
	case errors.Is(err, service.ErrHasDependents):
		return utils.SendError(c, fiber.StatusBadRequest, "assignment has submissions")
	case errors.Is(err, tenant.ErrUnknownRole):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	default:
		return h.internalError(c, err)
	}
}

func (h *AssignmentHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

func formValueUint(c *fiber.Ctx, key string) uint {
	parsed, err := strconv.ParseUint(c.FormValue(key), 10, 64)
	if err != nil {
		return 0
	}
	return uint(parsed)
}
