package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"vigil-go/internal/domain"
	"vigil-go/internal/store"
)

// ServerHandler handles HTTP requests for the monitored-server registry.
type ServerHandler struct {
	repo   store.ServerRepository
	logger *slog.Logger
}

// NewServerHandler creates a new server handler.
func NewServerHandler(repo store.ServerRepository, logger *slog.Logger) *ServerHandler {
	return &ServerHandler{
		repo:   repo,
		logger: logger,
	}
}

// Create handles POST /v1/servers.
func (h *ServerHandler) Create(c *fiber.Ctx) error {
	var req domain.CreateServerRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}

	server := req.ToServer(uuid.New().String())
	if err := server.Validate(); err != nil {
		return ValidationError(c, err.Error())
	}

	if err := h.repo.Create(c.Context(), server); err != nil {
		h.logger.Error("failed to register server", "error", err)
		return InternalError(c, "failed to register server")
	}

	h.logger.Info("server registered",
		"server_id", server.ID,
		"name", server.Name,
		"groups", server.Groups,
	)
	return Created(c, server)
}

// List handles GET /v1/servers.
func (h *ServerHandler) List(c *fiber.Ctx) error {
	servers, err := h.repo.List(c.Context())
	if err != nil {
		h.logger.Error("failed to list servers", "error", err)
		return InternalError(c, "failed to list servers")
	}
	return Success(c, servers)
}

// GetByID handles GET /v1/servers/:id.
func (h *ServerHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")

	server, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrServerNotFound) {
			return NotFound(c, "server not found")
		}
		h.logger.Error("failed to get server", "server_id", id, "error", err)
		return InternalError(c, "failed to get server")
	}

	return Success(c, server)
}

// Update handles PUT /v1/servers/:id.
func (h *ServerHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")

	var req domain.UpdateServerRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}

	server, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrServerNotFound) {
			return NotFound(c, "server not found")
		}
		h.logger.Error("failed to get server", "server_id", id, "error", err)
		return InternalError(c, "failed to get server")
	}

	req.ApplyTo(server)
	if err := server.Validate(); err != nil {
		return ValidationError(c, err.Error())
	}

	if err := h.repo.Update(c.Context(), server); err != nil {
		h.logger.Error("failed to update server", "server_id", id, "error", err)
		return InternalError(c, "failed to update server")
	}

	h.logger.Info("server updated", "server_id", id)
	return Success(c, server)
}

// Delete handles DELETE /v1/servers/:id.
func (h *ServerHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")

	if err := h.repo.Delete(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrServerNotFound) {
			return NotFound(c, "server not found")
		}
		h.logger.Error("failed to delete server", "server_id", id, "error", err)
		return InternalError(c, "failed to delete server")
	}

	h.logger.Info("server deleted", "server_id", id)
	return NoContent(c)
}
