package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/equipment-checkout/internal/config"
	"github.com/spec-kit/equipment-checkout/internal/domain"
	"github.com/spec-kit/equipment-checkout/internal/repository"
	apperrors "github.com/spec-kit/equipment-checkout/pkg/util"
)

func newTestAuthService() *AuthService {
	cfg := config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            4, // min cost, tests only
		},
	}
	return NewAuthService(cfg, repository.NewMemoryClerkRepository())
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	authService := newTestAuthService()

	clerk, err := authService.RegisterClerk(context.Background(), "Pat", "pat@example.com", "hunter2!", domain.ClerkRoleClerk)
	require.NoError(t, err)
	assert.NotEmpty(t, clerk.ID)
	assert.NotEqual(t, "hunter2!", clerk.PasswordHash)

	loggedIn, token, expires, err := authService.Login(context.Background(), "pat@example.com", "hunter2!")
	require.NoError(t, err)
	assert.Equal(t, clerk.ID, loggedIn.ID)
	assert.NotEmpty(t, token)
	assert.False(t, expires.IsZero())

	claims, err := authService.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, clerk.ID, claims.ClerkID)
	assert.Equal(t, domain.ClerkRoleClerk, claims.Role)
}

func TestAuthService_LoginWrongPassword(t *testing.T) {
	authService := newTestAuthService()
	_, err := authService.RegisterClerk(context.Background(), "Pat", "pat@example.com", "hunter2!", domain.ClerkRoleClerk)
	require.NoError(t, err)

	_, _, _, err = authService.Login(context.Background(), "pat@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestAuthService_LoginUnknownEmail(t *testing.T) {
	authService := newTestAuthService()

	_, _, _, err := authService.Login(context.Background(), "nobody@example.com", "whatever")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))
}

func TestAuthService_DuplicateEmail(t *testing.T) {
	authService := newTestAuthService()
	_, err := authService.RegisterClerk(context.Background(), "Pat", "pat@example.com", "hunter2!", domain.ClerkRoleClerk)
	require.NoError(t, err)

	_, err = authService.RegisterClerk(context.Background(), "Sam", "pat@example.com", "other", domain.ClerkRoleAdmin)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}
