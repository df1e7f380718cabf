package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/equipment-checkout/internal/domain"
	"github.com/spec-kit/equipment-checkout/internal/repository"
	apperrors "github.com/spec-kit/equipment-checkout/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated clerk.
type Principal struct {
	Clerk *domain.Clerk
	Role  domain.ClerkRole
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	clerks repository.ClerkRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, clerks repository.ClerkRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, clerks: clerks}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	clerk, err := m.clerks.GetByID(c.Context(), claims.ClerkID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("clerk not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{Clerk: clerk, Role: clerk.Role})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated clerk.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
