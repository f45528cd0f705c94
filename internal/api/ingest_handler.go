package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"vigil-go/internal/domain"
	"vigil-go/internal/ingest"
)

// IngestSamplesRequest is the request body for sample ingestion.
type IngestSamplesRequest struct {
	Samples []domain.MetricSample `json:"samples"`
}

// IngestHandler handles HTTP requests for metric sample ingestion.
type IngestHandler struct {
	service *ingest.Service
	logger  *slog.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(service *ingest.Service, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{
		service: service,
		logger:  logger,
	}
}

// IngestSamples handles POST /v1/samples. Samples are validated and queued
// for asynchronous evaluation; a 202 response means accepted, not evaluated.
func (h *IngestHandler) IngestSamples(c *fiber.Ctx) error {
	var req IngestSamplesRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}

	if err := h.service.IngestSamples(c.Context(), req.Samples); err != nil {
		switch {
		case errors.Is(err, ingest.ErrNoSamples):
			return BadRequest(c, "request contains no samples")
		case errors.Is(err, ingest.ErrPublishFailed):
			h.logger.Error("failed to queue samples", "error", err)
			return InternalError(c, "failed to queue samples")
		default:
			return ValidationError(c, err.Error())
		}
	}

	return Accepted(c, map[string]int{
		"accepted": len(req.Samples),
	})
}
