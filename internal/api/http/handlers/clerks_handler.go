package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/equipment-checkout/internal/api/dto"
	"github.com/spec-kit/equipment-checkout/internal/domain"
	"github.com/spec-kit/equipment-checkout/internal/service"
	apperrors "github.com/spec-kit/equipment-checkout/pkg/util"
)

// ClerksHandler manages operator authentication endpoints.
type ClerksHandler struct {
	authService *service.AuthService
}

// NewClerksHandler constructs the handler.
func NewClerksHandler(authService *service.AuthService) *ClerksHandler {
	return &ClerksHandler{authService: authService}
}

// Login POST /auth/login.
func (h *ClerksHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	clerk, token, expiresAt, err := h.authService.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		ClerkID:   clerk.ID,
		Name:      clerk.Name,
		Role:      string(clerk.Role),
	}})
}

// Register POST /auth/register — admin only, enforced by route middleware.
func (h *ClerksHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterClerkRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}
	role := domain.ClerkRole(strings.ToUpper(req.Role))
	if role == "" {
		role = domain.ClerkRoleClerk
	}
	if role != domain.ClerkRoleClerk && role != domain.ClerkRoleAdmin {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": req.Role})
	}

	clerk, err := h.authService.RegisterClerk(c.Context(), req.Name, req.Email, req.Password, role)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"clerk_id": clerk.ID,
		"name":     clerk.Name,
		"email":    clerk.Email,
		"role":     clerk.Role,
	}})
}
