package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/noah-isme/edutrack-api/internal/tenant"
	"github.com/noah-isme/edutrack-api/internal/utils"
)

// ClassHandler wires class and lesson timetable routes.
type ClassHandler struct {
	service  service.ClassService
	resolver *tenant.Resolver
	logger   zerolog.Logger
}

// NewClassHandler constructs the handler.
func NewClassHandler(service service.ClassService, resolver *tenant.Resolver, logger zerolog.Logger) *ClassHandler {
	return &ClassHandler{
		service:  service,
		resolver: resolver,
		logger:   logger.With().Str("component", "class_handler").Logger(),
	}
}

// Register attaches class endpoints to the router group.
func (h *ClassHandler) Register(router fiber.Router, writeGuard fiber.Handler) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/students", h.students)
	router.Post("", writeGuard, h.create)
	router.Patch("/:id", writeGuard, h.update)
	router.Delete("/:id", writeGuard, h.delete)
}

// RegisterLessons attaches lesson endpoints to the router group.
func (h *ClassHandler) RegisterLessons(router fiber.Router, writeGuard fiber.Handler) {
	router.Get("", h.listLessons)
	router.Post("", writeGuard, h.createLesson)
	router.Delete("/:id", writeGuard, h.deleteLesson)
}

func (h *ClassHandler) list(c *fiber.Ctx) error {
	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	gradeLevel, err := parseQueryInt(c, "grade_level")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid grade_level")
	}
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	classes, err := h.service.List(c.UserContext(), scope, gradeLevel, c.Query("search"), page, limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "classes retrieved", classes)
}

func (h *ClassHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	class, err := h.service.Get(c.UserContext(), scope, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "class retrieved", class)
}

func (h *ClassHandler) students(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	students, err := h.service.Students(c.UserContext(), scope, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "class roster retrieved", students)
}

func (h *ClassHandler) create(c *fiber.Ctx) error {
	payload := dto.ClassCreateRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	class, err := h.service.Create(c.UserContext(), scope, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "class created", class)
}

func (h *ClassHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.ClassCreateRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	class, err := h.service.Update(c.UserContext(), scope, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "class updated", class)
}

func (h *ClassHandler) delete(c *fiber.Ctx) error {
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

	return utils.SendSuccess(c, "class deleted", fiber.Map{"id": id})
}

func (h *ClassHandler) listLessons(c *fiber.Ctx) error {
	classID, err := parseQueryUint(c, "class_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid class_id")
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	lessons, err := h.service.ListLessons(c.UserContext(), scope, classID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "lessons retrieved", lessons)
}

func (h *ClassHandler) createLesson(c *fiber.Ctx) error {
	payload := dto.LessonCreateRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	lesson, err := h.service.CreateLesson(c.UserContext(), scope, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "lesson scheduled", lesson)
}

func (h *ClassHandler) deleteLesson(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	if err := h.service.DeleteLesson(c.UserContext(), scope, id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "lesson deleted", fiber.Map{"id": id})
}

func (h *ClassHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.SendValidationError(c, validationErrors)
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrLessonNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "lesson not found")
	case errors.Is(err, service.ErrSubjectNotFound):
		return utils.SendError(c, fiber.StatusBadRequest, "subject not found")
	case errors.Is(err, service.ErrLessonOverlap):
		return utils.SendError(c, fiber.StatusBadRequest, "lesson overlaps an existing timetable slot")
	case errors.Is(err, service.ErrHasDependents):
		return utils.SendError(c, fiber.StatusBadRequest, "class has dependent records")
	case errors.Is(err, tenant.ErrUnknownRole):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	default:
		return h.internalError(c, err)
	}
}

func (h *ClassHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
