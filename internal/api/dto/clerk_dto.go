package dto

import "time"

// LoginRequest authenticates a clerk.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterClerkRequest creates an operator account.
type RegisterClerkRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AuthResponse carries an issued token.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClerkID   string    `json:"clerk_id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
}
