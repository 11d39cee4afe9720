package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/noah-isme/edutrack-api/internal/tenant"
	"github.com/noah-isme/edutrack-api/internal/utils"
)

// ReportHandler wires report export routes.
type ReportHandler struct {
	service  service.ReportService
	resolver *tenant.Resolver
	logger   zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(service service.ReportService, resolver *tenant.Resolver, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		service:  service,
		resolver: resolver,
		logger:   logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches report endpoints to the router group.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/results", h.exportResults)
}

func (h *ReportHandler) exportResults(c *fiber.Ctx) error {
	termID, err := parseQueryUint(c, "term_id")
	if err != nil || termID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "term_id is required")
	}

	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		if errors.Is(err, tenant.ErrUnknownRole) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return h.internalError(c, err)
	}

	content, filename, err := h.service.ExportResults(c.UserContext(), scope, termID)
	if err != nil {
		if errors.Is(err, service.ErrTermNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "term not found")
		}
		return h.internalError(c, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(content)
}

func (h *ReportHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
