package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"vigil-go/internal/domain"
	"vigil-go/internal/store"
)

// RuleApplier pushes rule changes to the live evaluation shards after they
// are persisted. Implemented by the processor service.
type RuleApplier interface {
	ApplyRuleCreate(rule *domain.Rule) error
	ApplyRuleUpdate(rule *domain.Rule) error
	ApplyRuleDelete(organizationID, ruleID string)
}

// RuleHandler handles HTTP requests for alert rule management.
type RuleHandler struct {
	repo    store.RuleRepository
	applier RuleApplier
	logger  *slog.Logger
}

// NewRuleHandler creates a new rule handler.
func NewRuleHandler(repo store.RuleRepository, applier RuleApplier, logger *slog.Logger) *RuleHandler {
	return &RuleHandler{
		repo:    repo,
		applier: applier,
		logger:  logger,
	}
}

// Create handles POST /v1/rules.
func (h *RuleHandler) Create(c *fiber.Ctx) error {
	var req domain.CreateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}

	rule := req.ToRule(uuid.New().String())

	// Compile validates required fields, the operator/threshold pairing,
	// and the regex pattern in one pass. A rule that fails here would be
	// silently disabled by the engine, so reject it at the door.
	if _, err := rule.Compile(); err != nil {
		return ValidationError(c, err.Error())
	}

	if err := h.repo.Create(c.Context(), rule); err != nil {
		if errors.Is(err, domain.ErrRuleAlreadyExists) {
			return Conflict(c, "rule already exists")
		}
		h.logger.Error("failed to create rule", "error", err)
		return InternalError(c, "failed to create rule")
	}

	if err := h.applier.ApplyRuleCreate(rule); err != nil {
		h.logger.Warn("rule persisted but not applied to live shard",
			"rule_id", rule.ID,
			"error", err,
		)
	}

	h.logger.Info("rule created",
		"rule_id", rule.ID,
		"organization_id", rule.OrganizationID,
		"condition", rule.Condition(),
	)
	return Created(c, rule)
}

// List handles GET /v1/rules. An organization_id query parameter scopes the
// listing to one tenant.
func (h *RuleHandler) List(c *fiber.Ctx) error {
	if orgID := c.Query("organization_id"); orgID != "" {
		ruleSet, err := h.repo.ListByOrganization(c.Context(), orgID)
		if err != nil {
			h.logger.Error("failed to list rules", "error", err)
			return InternalError(c, "failed to list rules")
		}
		return Success(c, ruleSet)
	}

	ruleSet, err := h.repo.List(c.Context())
	if err != nil {
		h.logger.Error("failed to list rules", "error", err)
		return InternalError(c, "failed to list rules")
	}
	return Success(c, ruleSet)
}

// GetByID handles GET /v1/rules/:id.
func (h *RuleHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")

	rule, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NotFound(c, "rule not found")
		}
		h.logger.Error("failed to get rule", "rule_id", id, "error", err)
		return InternalError(c, "failed to get rule")
	}

	return Success(c, rule)
}

// Update handles PUT /v1/rules/:id.
func (h *RuleHandler) Update(c *fiber.Ctx) error {
	id := c.Params("id")

	var req domain.UpdateRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return BadRequest(c, "invalid request body")
	}

	rule, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NotFound(c, "rule not found")
		}
		h.logger.Error("failed to get rule", "rule_id", id, "error", err)
		return InternalError(c, "failed to get rule")
	}

	req.ApplyTo(rule)
	if _, err := rule.Compile(); err != nil {
		return ValidationError(c, err.Error())
	}

	if err := h.repo.Update(c.Context(), rule); err != nil {
		h.logger.Error("failed to update rule", "rule_id", id, "error", err)
		return InternalError(c, "failed to update rule")
	}

	if err := h.applier.ApplyRuleUpdate(rule); err != nil {
		h.logger.Warn("rule persisted but not applied to live shard",
			"rule_id", rule.ID,
			"error", err,
		)
	}

	h.logger.Info("rule updated", "rule_id", rule.ID)
	return Success(c, rule)
}

// Delete handles DELETE /v1/rules/:id.
func (h *RuleHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")

	rule, err := h.repo.GetByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRuleNotFound) {
			return NotFound(c, "rule not found")
		}
		h.logger.Error("failed to get rule", "rule_id", id, "error", err)
		return InternalError(c, "failed to get rule")
	}

	if err := h.repo.Delete(c.Context(), id); err != nil {
		h.logger.Error("failed to delete rule", "rule_id", id, "error", err)
		return InternalError(c, "failed to delete rule")
	}

	h.applier.ApplyRuleDelete(rule.OrganizationID, id)

	h.logger.Info("rule deleted", "rule_id", id)
	return NoContent(c)
}
