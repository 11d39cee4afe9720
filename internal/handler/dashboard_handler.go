package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/service"
	"github.com/noah-isme/edutrack-api/internal/tenant"
	"github.com/noah-isme/edutrack-api/internal/utils"
)

// DashboardHandler wires the role-aware dashboard route.
type DashboardHandler struct {
	service  service.DashboardService
	resolver *tenant.Resolver
	logger   zerolog.Logger
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service service.DashboardService, resolver *tenant.Resolver, logger zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service:  service,
		resolver: resolver,
		logger:   logger.With().Str("component", "dashboard_handler").Logger(),
	}
}

// Register attaches the dashboard endpoint to the router group.
func (h *DashboardHandler) Register(router fiber.Router) {
	router.Get("", h.get)
}

func (h *DashboardHandler) get(c *fiber.Ctx) error {
	scope, err := resolveScope(c, h.resolver)
	if err != nil {
		if errors.Is(err, tenant.ErrUnknownRole) {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return h.internalError(c, err)
	}

	dashboard, err := h.service.GetDashboard(c.UserContext(), principalFromContext(c), scope)
	if err != nil {
		return h.internalError(c, err)
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}

func (h *DashboardHandler) internalError(c *fiber.Ctx, err error) error {
	requestLogger(h.logger, c).Error().Err(err).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}
