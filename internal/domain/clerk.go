package domain

import "time"

// ClerkRole enumerates operator permission levels.
type ClerkRole string

const (
	ClerkRoleClerk ClerkRole = "CLERK"
	ClerkRoleAdmin ClerkRole = "ADMIN"
)

// Clerk is an operator account for the authenticated surfaces.
type Clerk struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         ClerkRole
	CreatedAt    time.Time
}
