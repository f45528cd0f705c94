package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"vigil-go/internal/domain"
	"vigil-go/internal/store"
)

// AlertHandler handles HTTP requests for reading alerts. Alerts are created
// by the evaluation pipeline; the API never writes them.
type AlertHandler struct {
	repo   store.AlertRepository
	logger *slog.Logger
}

// NewAlertHandler creates a new alert handler.
func NewAlertHandler(repo store.AlertRepository, logger *slog.Logger) *AlertHandler {
	return &AlertHandler{
		repo:   repo,
		logger: logger,
	}
}

// List handles GET /v1/alerts. Supported query parameters: organization_id,
// server_id, rule_id, status, type, limit, offset.
func (h *AlertHandler) List(c *fiber.Ctx) error {
	filter := domain.AlertFilter{
		OrganizationID: c.Query("organization_id"),
		ServerID:       c.Query("server_id"),
		RuleID:         c.Query("rule_id"),
		Status:         domain.AlertStatus(c.Query("status")),
		Type:           domain.AlertType(c.Query("type")),
		Limit:          c.QueryInt("limit"),
		Offset:         c.QueryInt("offset"),
	}

	alerts, err := h.repo.List(c.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list alerts", "error", err)
		return InternalError(c, "failed to list alerts")
	}

	return Success(c, alerts)
}

// GetByID handles GET /v1/alerts/:id.
func (h *AlertHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")

	alert, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAlertNotFound) {
			return NotFound(c, "alert not found")
		}
		h.logger.Error("failed to get alert", "alert_id", id, "error", err)
		return InternalError(c, "failed to get alert")
	}

	return Success(c, alert)
}
