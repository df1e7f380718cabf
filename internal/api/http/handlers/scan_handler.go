package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/equipment-checkout/internal/api/dto"
	"github.com/spec-kit/equipment-checkout/internal/auth"
	"github.com/spec-kit/equipment-checkout/internal/scan"
	apperrors "github.com/spec-kit/equipment-checkout/pkg/util"
)

// ScanHandler exposes the scan channel and mode toggle for one session.
type ScanHandler struct {
	session *scan.Session
}

// NewScanHandler constructs the handler.
func NewScanHandler(session *scan.Session) *ScanHandler {
	return &ScanHandler{session: session}
}

// Scan POST /scan.
func (h *ScanHandler) Scan(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Clerk == nil {
		return apperrors.NewUnauthorized("clerk required")
	}
	var req dto.ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Token) == "" {
		return apperrors.NewValidationError("token required", nil)
	}

	result := h.session.HandleScan(c.Context(), req.Token, principal.Clerk.Name)
	return c.JSON(fiber.Map{"data": result})
}

// SetMode POST /scan/mode.
func (h *ScanHandler) SetMode(c *fiber.Ctx) error {
	var req dto.ModeRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	mode := scan.Mode(strings.ToUpper(strings.TrimSpace(req.Mode)))
	if err := h.session.SetMode(c.Context(), mode); err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"data": fiber.Map{"mode": mode}})
}

// State GET /scan/state.
func (h *ScanHandler) State(c *fiber.Ctx) error {
	resp := dto.ScanStateResponse{
		SessionID: h.session.ID(),
		Mode:      string(h.session.Mode()),
		Phase:     string(h.session.Phase()),
	}
	if display := h.session.Display(); display != nil {
		resp.Display = display
	}
	return c.JSON(fiber.Map{"data": resp})
}
