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

// ExamHandler wires exam and exam session routes.
type ExamHandler struct {
	service  service.ExamService
	resolver *tenant.Resolver
	logger   zerolog.Logger
}

// NewExamHandler constructs the handler.
func NewExamHandler(service service.ExamService, resolver *tenant.Resolver, logger zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		service:  service,
		resolver: resolver,
		logger:   logger.With().Str("component", "exam_handler").Logger(),
	}
}

// Register attaches exam endpoints to the router group.
func (h *ExamHandler) Register(router fiber.Router, writeGuard fiber.Handler) {
	router.Get("", h.list)
	router.Get("/:id", h.get)
	router.Get("/:id/sessions", h.listSessions)
	router.Post("", writeGuard, h.create)
	router.Post("/sessions", writeGuard, h.createSession)
	router.Patch("/:id", writeGuard, h.update)
	router.Delete("/:id", writeGuard, h.delete)
	router.Delete("/sessions/:id", writeGuard, h.deleteSession)
}

func (h *ExamHandler) list(c *fiber.Ctx) error {
	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	termID, err := parseQueryUint(c, "term_id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid term_id")
	}
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	exams, err := h.service.List(c.UserContext(), scope, termID, page, limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exams retrieved", exams)
}

func (h *ExamHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	exam, err := h.service.Get(c.UserContext(), scope, id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam retrieved", exam)
}

func (h *ExamHandler) create(c *fiber.Ctx) error {
	payload := dto.ExamCreateRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	exam, err := h.service.Create(c.UserContext(), scope, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam created", exam)
}

func (h *ExamHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.ExamCreateRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	exam, err := h.service.Update(c.UserContext(), scope, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam updated", exam)
}

func (h *ExamHandler) delete(c *fiber.Ctx) error {
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

	return utils.SendSuccess(c, "exam deleted", fiber.Map{"id": id})
}

func (h *ExamHandler) listSessions(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	sessions, err := h.service.ListSessions(c.UserContext(), scope, examID)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam sessions retrieved", sessions)
}

func (h *ExamHandler) createSession(c *fiber.Ctx) error {
	payload := dto.ExamSessionCreateRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	session, err := h.service.CreateSession(c.UserContext(), scope, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "exam session scheduled", session)
}

func (h *ExamHandler) deleteSession(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	if err := h.service.DeleteSession(c.UserContext(), scope, id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "exam session deleted", fiber.Map{"id": id})
}

func (h *ExamHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.SendValidationError(c, validationErrors)
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam not found")
	case errors.Is(err, service.ErrSessionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "exam session not found")
	case errors.Is(err, service.ErrTermNotFound):
		return utils.SendError(c, fiber.StatusBadRequest, "term not found")
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusBadRequest, "class not found")
	case errors.Is(err, service.ErrInvalidDates):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid date range")
	case errors.Is(err, service.ErrHasDependents):
		return utils.SendError(c, fiber.StatusBadRequest, "exam has dependent records")
	case errors.Is(err, tenant.ErrUnknownRole):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	default:
		return h.internalError(c, err)
	}
}

func (h *ExamHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
