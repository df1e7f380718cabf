package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/equipment-checkout/internal/domain"
)

// TechnicianRepository encapsulates the technician directory.
type TechnicianRepository interface {
	Create(ctx context.Context, technician *domain.Technician) error
	GetByBadge(ctx context.Context, badgeID string) (*domain.Technician, error)
	List(ctx context.Context, limit, offset int) ([]domain.Technician, error)
}

type technicianRepository struct {
	pool *pgxpool.Pool
}

// NewTechnicianRepository returns a Postgres-backed implementation.
func NewTechnicianRepository(pool *pgxpool.Pool) TechnicianRepository {
	return &technicianRepository{pool: pool}
}

func (r *technicianRepository) Create(ctx context.Context, technician *domain.Technician) error {
	const query = `
        INSERT INTO technicians (badge_id, name, department)
        VALUES ($1,$2,$3)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		technician.BadgeID,
		technician.Name,
		technician.Department,
	).Scan(&technician.CreatedAt)
}

func (r *technicianRepository) GetByBadge(ctx context.Context, badgeID string) (*domain.Technician, error) {
	const query = `
        SELECT badge_id, name, department, created_at
        FROM technicians WHERE badge_id=$1`
	var technician domain.Technician
	if err := r.pool.QueryRow(ctx, query, badgeID).Scan(
		&technician.BadgeID,
		&technician.Name,
		&technician.Department,
		&technician.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &technician, nil
}

func (r *technicianRepository) List(ctx context.Context, limit, offset int) ([]domain.Technician, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT badge_id, name, department, created_at
        FROM technicians ORDER BY badge_id ASC LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Technician
	for rows.Next() {
		var technician domain.Technician
		if err := rows.Scan(
			&technician.BadgeID,
			&technician.Name,
			&technician.Department,
			&technician.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, technician)
	}
	return result, rows.Err()
}
