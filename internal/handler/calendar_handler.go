package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/dto"
	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/noah-isme/edutrack-api/internal/tenant"
	"github.com/noah-isme/edutrack-api/internal/utils"
)

// CalendarHandler wires academic term, holiday and event routes.
type CalendarHandler struct {
	service  service.CalendarService
	resolver *tenant.Resolver
	logger   zerolog.Logger
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(service service.CalendarService, resolver *tenant.Resolver, logger zerolog.Logger) *CalendarHandler {
	return &CalendarHandler{
		service:  service,
		resolver: resolver,
		logger:   logger.With().Str("component", "calendar_handler").Logger(),
	}
}

// RegisterTerms attaches term endpoints to the router group.
func (h *CalendarHandler) RegisterTerms(router fiber.Router, writeGuard fiber.Handler) {
	router.Get("", h.listTerms)
	router.Post("", writeGuard, h.createTerm)
	router.Patch("/:id", writeGuard, h.updateTerm)
	router.Delete("/:id", writeGuard, h.deleteTerm)
}

// RegisterHolidays attaches holiday endpoints to the router group.
func (h *CalendarHandler) RegisterHolidays(router fiber.Router, writeGuard fiber.Handler) {
	router.Get("", h.listHolidays)
	router.Post("", writeGuard, h.createHoliday)
	router.Delete("/:id", writeGuard, h.deleteHoliday)
}

// RegisterEvents attaches calendar event endpoints to the router group.
func (h *CalendarHandler) RegisterEvents(router fiber.Router, writeGuard fiber.Handler) {
	router.Get("", h.listEvents)
	router.Post("", writeGuard, h.createEvent)
	router.Delete("/:id", writeGuard, h.deleteEvent)
}

func (h *CalendarHandler) listTerms(c *fiber.Ctx) error {
	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	terms, err := h.service.ListTerms(c.UserContext(), scope)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "terms retrieved", terms)
}

func (h *CalendarHandler) createTerm(c *fiber.Ctx) error {
	payload := dto.TermCreateRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	term, err := h.service.CreateTerm(c.UserContext(), scope, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "term created", term)
}

func (h *CalendarHandler) updateTerm(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := dto.TermCreateRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	term, err := h.service.UpdateTerm(c.UserContext(), scope, id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "term updated", term)
}

func (h *CalendarHandler) deleteTerm(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	if err := h.service.DeleteTerm(c.UserContext(), scope, id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "term deleted", fiber.Map{"id": id})
}

func (h *CalendarHandler) listHolidays(c *fiber.Ctx) error {
	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	year, err := parseQueryInt(c, "year")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid year")
	}

	holidays, err := h.service.ListHolidays(c.UserContext(), scope, year)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "holidays retrieved", holidays)
}

func (h *CalendarHandler) createHoliday(c *fiber.Ctx) error {
	payload := dto.HolidayCreateRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	holiday, err := h.service.CreateHoliday(c.UserContext(), scope, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "holiday created", holiday)
}

func (h *CalendarHandler) deleteHoliday(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	if err := h.service.DeleteHoliday(c.UserContext(), scope, id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "holiday deleted", fiber.Map{"id": id})
}

func (h *CalendarHandler) listEvents(c *fiber.Ctx) error {
	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	from, err := parseQueryTime(c, "from")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid from date")
	}
	to, err := parseQueryTime(c, "to")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid to date")
	}
	page, err := parseQueryInt(c, "page")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid page")
	}
	limit, err := parseQueryInt(c, "limit")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid limit")
	}

	events, err := h.service.ListEvents(c.UserContext(), scope, from, to, page, limit)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "events retrieved", events)
}

func (h *CalendarHandler) createEvent(c *fiber.Ctx) error {
	payload := dto.EventCreateRequest{}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	event, err := h.service.CreateEvent(c.UserContext(), scope, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "event created", event)
}

func (h *CalendarHandler) deleteEvent(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		return h.handleError(c, err)
	}

	if err := h.service.DeleteEvent(c.UserContext(), scope, id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "event deleted", fiber.Map{"id": id})
}

func (h *CalendarHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrors):
		return utils.SendValidationError(c, validationErrors)
	case errors.Is(err, service.ErrTermNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "term not found")
	case errors.Is(err, service.ErrHolidayNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "holiday not found")
	case errors.Is(err, service.ErrEventNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "event not found")
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusBadRequest, "class not found")
	case errors.Is(err, service.ErrInvalidDates):
		return utils.SendError(c, fiber.StatusBadRequest, "invalid date range")
	case errors.Is(err, service.ErrHasDependents):
		return utils.SendError(c, fiber.StatusBadRequest, "term has dependent records")
	case errors.Is(err, tenant.ErrUnknownRole):
		return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
	default:
		return h.internalError(c, err)
	}
}

func (h *CalendarHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

func parseQueryTime(c *fiber.Ctx, key string) (*time.Time, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}

	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, err
		}
	}
	return &parsed, nil
}
