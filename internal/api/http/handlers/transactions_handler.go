package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/equipment-checkout/internal/api/dto"
	"github.com/spec-kit/equipment-checkout/internal/domain"
	"github.com/spec-kit/equipment-checkout/internal/repository"
	"github.com/spec-kit/equipment-checkout/internal/service"
	apperrors "github.com/spec-kit/equipment-checkout/pkg/util"
)

// TransactionsHandler exposes the ledger and audit trail, read only.
type TransactionsHandler struct {
	lifecycle *service.LifecycleService
	activity  *service.ActivityService
}

// NewTransactionsHandler constructs the handler.
func NewTransactionsHandler(lifecycle *service.LifecycleService, activity *service.ActivityService) *TransactionsHandler {
	return &TransactionsHandler{lifecycle: lifecycle, activity: activity}
}

// List GET /transactions.
func (h *TransactionsHandler) List(c *fiber.Ctx) error {
	filter := repository.TransactionFilter{
		Limit:  parseIntQuery(c, "limit", 50),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("asset_id"); raw != "" {
		filter.AssetID = &raw
	}
	if raw := c.Query("technician_id"); raw != "" {
		filter.TechnicianID = &raw
	}
	if raw := c.Query("category"); raw != "" {
		category := domain.AssetCategory(raw)
		filter.Category = &category
	}
	if raw := c.Query("type"); raw != "" {
		transactionType := domain.TransactionType(raw)
		filter.Type = &transactionType
	}
	if from, ok := parseTimeQuery(c, "from"); ok {
		filter.From = &from
	}
	if to, ok := parseTimeQuery(c, "to"); ok {
		filter.To = &to
	}

	transactions, err := h.lifecycle.ListTransactions(c.Context(), filter)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.TransactionResponse, 0, len(transactions))
	for i := range transactions {
		items = append(items, dto.FromTransaction(&transactions[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Audit GET /audit.
func (h *TransactionsHandler) Audit(c *fiber.Ctx) error {
	filter := repository.AuditFilter{
		Limit:  parseIntQuery(c, "limit", 50),
		Offset: parseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("entity_id"); raw != "" {
		filter.EntityID = &raw
	}
	if raw := c.Query("entity_type"); raw != "" {
		filter.EntityType = &raw
	}
	if from, ok := parseTimeQuery(c, "from"); ok {
		filter.From = &from
	}
	if to, ok := parseTimeQuery(c, "to"); ok {
		filter.To = &to
	}

	entries, err := h.lifecycle.ListAudit(c.Context(), filter)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": entries})
}

// Activity GET /activity — the recent-events feed for the UI.
func (h *TransactionsHandler) Activity(c *fiber.Ctx) error {
	n := parseIntQuery(c, "limit", 50)
	return c.JSON(fiber.Map{"data": h.activity.Recent(n)})
}

func parseTimeQuery(c *fiber.Ctx, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, false
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return parsed, true
}
