package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"vigil-go/internal/domain"
	"vigil-go/internal/store"
)

// MaintenanceWindowHandler handles HTTP requests for maintenance windows.
type MaintenanceWindowHandler struct {
	repo   store.MaintenanceWindowRepository
	logger *slog.Logger
}

// NewMaintenanceWindowHandler creates a new maintenance window handler.
func NewMaintenanceWindowHandler(repo store.MaintenanceWindowRepository, logger *slog.Logger) *MaintenanceWindowHandler {
	return &MaintenanceWindowHandler{
		repo:   repo,
		logger: logger,
	}
}

// Create handles POST /v1/maintenance-windows.
func (h *MaintenanceWindowHandler) Create(c *fiber.Ctx) error {
	var req domain.CreateMaintenanceWindowRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}

	window := req.ToMaintenanceWindow(uuid.New().String())
	if err := window.Validate(); err != nil {
		return ValidationError(c, err.Error())
	}

	if err := h.repo.Create(c.Context(), window); err != nil {
		h.logger.Error("failed to create maintenance window", "error", err)
		return InternalError(c, "failed to create maintenance window")
	}

	h.logger.Info("maintenance window created",
		"window_id", window.ID,
		"server_id", window.ServerID,
		"start_time", window.StartTime,
		"end_time", window.EndTime,
	)
	return Created(c, window)
}

// List handles GET /v1/maintenance-windows.
func (h *MaintenanceWindowHandler) List(c *fiber.Ctx) error {
	windows, err := h.repo.List(c.Context())
	if err != nil {
		h.logger.Error("failed to list maintenance windows", "error", err)
		return InternalError(c, "failed to list maintenance windows")
	}
	return Success(c, windows)
}

// GetByID handles GET /v1/maintenance-windows/:id.
func (h *MaintenanceWindowHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")

	window, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrMaintenanceWindowNotFound) {
			return NotFound(c, "maintenance window not found")
		}
		h.logger.Error("failed to get maintenance window", "window_id", id, "error", err)
		return InternalError(c, "failed to get maintenance window")
	}

	return Success(c, window)
}

// Update handles PUT /v1/maintenance-windows/:id.
func (h *MaintenanceWindowHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")

	var req domain.UpdateMaintenanceWindowRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}

	window, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrMaintenanceWindowNotFound) {
			return NotFound(c, "maintenance window not found")
		}
		h.logger.Error("failed to get maintenance window", "window_id", id, "error", err)
		return InternalError(c, "failed to get maintenance window")
	}

	req.ApplyTo(window)
	if err := window.Validate(); err != nil {
		return ValidationError(c, err.Error())
	}

	if err := h.repo.Update(c.Context(), window); err != nil {
		h.logger.Error("failed to update maintenance window", "window_id", id, "error", err)
		return InternalError(c, "failed to update maintenance window")
	}

	h.logger.Info("maintenance window updated", "window_id", id)
	return Success(c, window)
}

// Delete handles DELETE /v1/maintenance-windows/:id.
func (h *MaintenanceWindowHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.repo.Delete(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrMaintenanceWindowNotFound) {
			return NotFound(c, "maintenance window not found")
		}
		h.logger.Error("failed to delete maintenance window", "window_id", id, "error", err)
		return InternalError(c, "failed to delete maintenance window")
	}

	h.logger.Info("maintenance window deleted", "window_id", id)
	return NoContent(c)
}
