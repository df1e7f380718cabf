package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/equipment-checkout/internal/auth"
	"github.com/spec-kit/equipment-checkout/internal/config"
	"github.com/spec-kit/equipment-checkout/internal/domain"
	"github.com/spec-kit/equipment-checkout/internal/repository"
	apperrors "github.com/spec-kit/equipment-checkout/pkg/util"
)

// AuthService coordinates clerk registration and login flows.
type AuthService struct {
	clerks     repository.ClerkRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, clerks repository.ClerkRepository) *AuthService {
	return &AuthService{
		clerks:     clerks,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// RegisterClerk creates a new operator account. Only admins call this, the
// handler enforces the role.
func (s *AuthService) RegisterClerk(ctx context.Context, name, email, password string, role domain.ClerkRole) (*domain.Clerk, error) {
	if _, err := s.clerks.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	clerk := &domain.Clerk{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.clerks.Create(ctx, clerk); err != nil {
		return nil, apperrors.MapError(err)
	}
	return clerk, nil
}

// Login authenticates a clerk and issues a token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Clerk, string, time.Time, error) {
	clerk, err := s.clerks.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(clerk.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(clerk.ID, clerk.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return clerk, token, exp, nil
}
