package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/equipment-checkout/internal/domain"
	apperrors "github.com/spec-kit/equipment-checkout/pkg/util"
)

// RequireRole ensures the principal holds one of the allowed roles.
func RequireRole(allowed ...domain.ClerkRole) fiber.Handler {
	allowedSet := make(map[domain.ClerkRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.Clerk == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAdmin ensures the principal is an administrator.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.ClerkRoleAdmin)
}
