package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/equipment-checkout/internal/domain"
)

// ClerkRepository defines persistence access for operator accounts.
type ClerkRepository interface {
	Create(ctx context.Context, clerk *domain.Clerk) error
	GetByID(ctx context.Context, id string) (*domain.Clerk, error)
	GetByEmail(ctx context.Context, email string) (*domain.Clerk, error)
}

type clerkRepository struct {
	pool *pgxpool.Pool
}

// NewClerkRepository returns a Postgres-backed implementation.
func NewClerkRepository(pool *pgxpool.Pool) ClerkRepository {
	return &clerkRepository{pool: pool}
}

func (r *clerkRepository) Create(ctx context.Context, clerk *domain.Clerk) error {
	const query = `
        INSERT INTO clerks (name, email, password_hash, role)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		clerk.Name,
		clerk.Email,
		clerk.PasswordHash,
		clerk.Role,
	).Scan(&clerk.ID, &clerk.CreatedAt)
}

func (r *clerkRepository) GetByID(ctx context.Context, id string) (*domain.Clerk, error) {
	const query = `
        SELECT id, name, email, password_hash, role, created_at
        FROM clerks WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *clerkRepository) GetByEmail(ctx context.Context, email string) (*domain.Clerk, error) {
	const query = `
        SELECT id, name, email, password_hash, role, created_at
        FROM clerks WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *clerkRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Clerk, error) {
	var clerk domain.Clerk
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&clerk.ID,
		&clerk.Name,
		&clerk.Email,
		&clerk.PasswordHash,
		&clerk.Role,
		&clerk.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &clerk, nil
}
