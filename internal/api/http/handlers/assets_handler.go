package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/equipment-checkout/internal/api/dto"
	"github.com/spec-kit/equipment-checkout/internal/auth"
	"github.com/spec-kit/equipment-checkout/internal/domain"
	"github.com/spec-kit/equipment-checkout/internal/repository"
	"github.com/spec-kit/equipment-checkout/internal/service"
	apperrors "github.com/spec-kit/equipment-checkout/pkg/util"
)

// AssetsHandler manages the asset directory endpoints.
type AssetsHandler struct {
	lifecycle *service.LifecycleService
}

// NewAssetsHandler constructs the handler.
func NewAssetsHandler(lifecycle *service.LifecycleService) *AssetsHandler {
	return &AssetsHandler{lifecycle: lifecycle}
}

// Register POST /assets.
func (h *AssetsHandler) Register(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Clerk == nil {
		return apperrors.NewUnauthorized("clerk required")
	}
	var req dto.RegisterAssetRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.ID) == "" || strings.TrimSpace(req.Category) == "" {
		return apperrors.NewValidationError("id and category required", nil)
	}

	asset, err := h.lifecycle.RegisterAsset(c.Context(), domain.AssetCategory(req.Category), strings.TrimSpace(req.ID), principal.Clerk.Name)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromAsset(asset)})
}

// List GET /assets.
func (h *AssetsHandler) List(c *fiber.Ctx) error {
	filter := repository.AssetFilter{
		Limit:  parseIntQuery(c, "limit", 100),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("category"); raw != "" {
		category := domain.AssetCategory(raw)
		filter.Category = &category
	}
	if raw := c.Query("status"); raw != "" {
		for _, status := range strings.Split(raw, ",") {
			filter.Statuses = append(filter.Statuses, domain.AssetStatus(strings.TrimSpace(status)))
		}
	}

	assets, err := h.lifecycle.ListAssets(c.Context(), filter)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.AssetResponse, 0, len(assets))
	for i := range assets {
		items = append(items, dto.FromAsset(&assets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /assets/:category/:id.
func (h *AssetsHandler) Get(c *fiber.Ctx) error {
	asset, err := h.lifecycle.GetAsset(c.Context(), domain.AssetCategory(c.Params("category")), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromAsset(asset)})
}

// ChangeStatus POST /assets/:category/:id/status.
func (h *AssetsHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Clerk == nil {
		return apperrors.NewUnauthorized("clerk required")
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Status) == "" {
		return apperrors.NewValidationError("status required", nil)
	}

	asset, err := h.lifecycle.ChangeStatus(c.Context(),
		domain.AssetCategory(c.Params("category")),
		c.Params("id"),
		domain.AssetStatus(req.Status),
		req.Reason,
		principal.Clerk.Name,
	)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromAsset(asset)})
}

// Return POST /assets/:category/:id/return — manual return with condition.
func (h *AssetsHandler) Return(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Clerk == nil {
		return apperrors.NewUnauthorized("clerk required")
	}
	var req dto.ReturnRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	condition := domain.ReturnCondition(req.Condition)
	if condition == "" {
		condition = domain.ConditionGood
	}

	result, err := h.lifecycle.Return(c.Context(),
		domain.AssetCategory(c.Params("category")),
		c.Params("id"),
		condition,
		principal.Clerk.Name,
		req.Notes,
	)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"asset":       dto.FromAsset(result.Asset),
		"transaction": dto.FromTransaction(result.Transaction),
		"flagged":     result.Flagged,
	}})
}

func parseIntQuery(c *fiber.Ctx, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
