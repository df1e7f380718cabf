package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/equipment-checkout/internal/api/dto"
	"github.com/spec-kit/equipment-checkout/internal/auth"
	"github.com/spec-kit/equipment-checkout/internal/domain"
	"github.com/spec-kit/equipment-checkout/internal/service"
	apperrors "github.com/spec-kit/equipment-checkout/pkg/util"
)

// PrefixesHandler is the administrative surface for the prefix table.
type PrefixesHandler struct {
	prefixes *service.PrefixService
}

// NewPrefixesHandler constructs the handler.
func NewPrefixesHandler(prefixes *service.PrefixService) *PrefixesHandler {
	return &PrefixesHandler{prefixes: prefixes}
}

// List GET /prefixes.
func (h *PrefixesHandler) List(c *fiber.Ctx) error {
	rules, err := h.prefixes.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rules})
}

// Create POST /prefixes.
func (h *PrefixesHandler) Create(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Clerk == nil {
		return apperrors.NewUnauthorized("clerk required")
	}
	var req dto.PrefixRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	rule, err := h.prefixes.Create(c.Context(), req.Prefix, domain.AssetCategory(req.Category), req.Label, req.Position, principal.Clerk.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": rule})
}

// Update PUT /prefixes/:id.
func (h *PrefixesHandler) Update(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Clerk == nil {
		return apperrors.NewUnauthorized("clerk required")
	}
	var req dto.PrefixRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Prefix) == "" {
		return apperrors.NewValidationError("prefix required", nil)
	}

	rule := &domain.PrefixRule{
		ID:       c.Params("id"),
		Prefix:   strings.TrimSpace(req.Prefix),
		Category: domain.AssetCategory(req.Category),
		Label:    req.Label,
		Position: req.Position,
	}
	if err := h.prefixes.Update(c.Context(), rule, principal.Clerk.Name); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rule})
}

// Delete DELETE /prefixes/:id.
func (h *PrefixesHandler) Delete(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Clerk == nil {
		return apperrors.NewUnauthorized("clerk required")
	}
	if err := h.prefixes.Delete(c.Context(), c.Params("id"), principal.Clerk.Name); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
